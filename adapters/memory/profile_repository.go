package memory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/layer-3/dapptober/core"
	"github.com/layer-3/dapptober/ports"
)

// ProfileRepository implements ports.ProfileRepository in memory
type ProfileRepository struct {
	db *Database
}

// NewProfileRepository creates a profile repository over db
func NewProfileRepository(db *Database) ports.ProfileRepository {
	return &ProfileRepository{db: db}
}

func (r *ProfileRepository) Ensure(ctx context.Context, address string) (core.Profile, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if p, ok := r.db.profiles[address]; ok {
		return p, nil
	}
	return r.insertLocked(address, time.Now().UTC(), nil), nil
}

func (r *ProfileRepository) TouchLogin(ctx context.Context, address string, at time.Time) (core.Profile, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	at = at.UTC()
	p, ok := r.db.profiles[address]
	if !ok {
		return r.insertLocked(address, at, &at), nil
	}
	p.LastLoginAt = &at
	p.UpdatedAt = at
	r.db.profiles[address] = p
	return p, nil
}

func (r *ProfileRepository) insertLocked(address string, now time.Time, lastLogin *time.Time) core.Profile {
	p := core.Profile{
		ID:            uuid.NewString(),
		WalletAddress: address,
		CreatedAt:     now,
		UpdatedAt:     now,
		LastLoginAt:   lastLogin,
	}
	r.db.profiles[address] = p
	return p
}

func (r *ProfileRepository) GetByAddress(ctx context.Context, address string) (core.Profile, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	p, ok := r.db.profiles[address]
	if !ok {
		return core.Profile{}, core.ErrNotFound
	}
	return p, nil
}

func (r *ProfileRepository) Update(ctx context.Context, address string, update core.ProfileUpdate) (core.Profile, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	p, ok := r.db.profiles[address]
	if !ok {
		return core.Profile{}, core.ErrNotFound
	}

	apply := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	apply(&p.DisplayName, update.DisplayName)
	apply(&p.Bio, update.Bio)
	apply(&p.AvatarURL, update.AvatarURL)
	apply(&p.TwitterHandle, update.TwitterHandle)
	apply(&p.GithubHandle, update.GithubHandle)
	apply(&p.WebsiteURL, update.WebsiteURL)
	p.UpdatedAt = time.Now().UTC()

	r.db.profiles[address] = p
	return p, nil
}

func (r *ProfileRepository) Stats(ctx context.Context, address string) (core.ProfileStats, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	var stats core.ProfileStats
	for _, s := range r.db.submissions {
		if s.WalletAddress == address {
			stats.Submissions++
		}
	}
	for _, c := range r.db.comments {
		if c.WalletAddress == address {
			stats.Comments++
		}
	}
	for k := range r.db.likes {
		if k.address == address {
			stats.Likes++
		}
	}
	return stats, nil
}
