package core

import "time"

// Nonce represents a single-use sign-in challenge issued to a wallet
type Nonce struct {
	Address  string    // Lowercased wallet address
	Value    string    // Random token embedded in the signed message
	IssuedAt time.Time // When the nonce was issued
}

// Expired reports whether the nonce is older than ttl at now
func (n Nonce) Expired(now time.Time, ttl time.Duration) bool {
	return now.Sub(n.IssuedAt) > ttl
}

// Session represents an authenticated wallet session
type Session struct {
	ID            string    // Unique session identifier
	Address       string    // Lowercased wallet address of the user
	IssuedAt      time.Time // When the session was created
	RefreshExpiry time.Time // When the refresh capability expires
	AccessExpiry  time.Time // When the access capability expires
	RefreshID     string    // Unique identifier for the refresh token
}

// TokenPair is the credential pair handed to a client after sign-in
type TokenPair struct {
	AccessToken   string
	RefreshToken  string
	WalletAddress string
	AccessExpiry  time.Time
	RefreshExpiry time.Time
}
