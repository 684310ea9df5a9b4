// Package memory holds in-process repositories used when no DATABASE_URL is configured.
package memory

import (
	"sync"

	"github.com/layer-3/dapptober/core"
)

type likeKey struct {
	address string
	day     int
}

// Database is the shared state behind the in-memory repositories.
// Unique constraints on profiles, likes and submissions are enforced under mu.
type Database struct {
	mu          sync.RWMutex
	profiles    map[string]core.Profile // keyed by wallet address
	likes       map[likeKey]core.Like
	comments    []core.Comment
	submissions []core.Submission
}

// NewDatabase creates an empty in-memory database
func NewDatabase() *Database {
	return &Database{
		profiles: make(map[string]core.Profile),
		likes:    make(map[likeKey]core.Like),
	}
}

func (db *Database) author(address string) core.Author {
	a := core.Author{WalletAddress: address}
	if p, ok := db.profiles[address]; ok {
		a.DisplayName = p.DisplayName
		a.AvatarURL = p.AvatarURL
	}
	return a
}
