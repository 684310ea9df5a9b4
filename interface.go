// Package dapptober is the Go client for the Dapptober API. SessionGuard signs
// a wallet in at most once per address at a time, reuses the live session and
// refreshes it when the access token lapses.
package dapptober

import (
	"context"
)

// Wallet represents the connected wallet that proves control of an address
type Wallet interface {
	// Address returns the connected account
	Address() string

	// SignMessage produces an EIP-191 personal_sign signature over message
	SignMessage(ctx context.Context, message string) ([]byte, error)
}

// API represents the server endpoints the session guard depends on
type API interface {
	// RequestNonce asks the server for a fresh sign-in nonce
	RequestNonce(ctx context.Context, address string) (*Nonce, error)

	// Verify exchanges a signed sign-in message for a session
	Verify(ctx context.Context, address, signature, message string) (*Session, error)

	// Refresh rotates the refresh token and returns a new session
	Refresh(ctx context.Context, refreshToken string) (*Session, error)

	// Logout invalidates the refresh token
	Logout(ctx context.Context, refreshToken string) error
}

// SessionCache stores at most one session per lowercased wallet address
type SessionCache interface {
	// Get returns ErrNoSession when nothing is cached for address
	Get(ctx context.Context, address string) (*Session, error)

	Set(ctx context.Context, session *Session) error

	Delete(ctx context.Context, address string) error
}
