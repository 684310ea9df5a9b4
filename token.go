package dapptober

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultExpirySkew is how early a session is treated as expired
const DefaultExpirySkew = 30 * time.Second

// Session is the credential pair a wallet holds after signing in.
// ExpiresAt belongs to the access token, RefreshExpiresAt to the refresh token.
type Session struct {
	AccessToken      string    `json:"access_token"`
	RefreshToken     string    `json:"refresh_token"`
	WalletAddress    string    `json:"wallet_address"`
	ExpiresAt        time.Time `json:"expires_at"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
}

// Valid reports whether the access token is still usable at now
func (s *Session) Valid(now time.Time) bool {
	return s != nil && s.AccessToken != "" && now.Add(DefaultExpirySkew).Before(s.ExpiresAt)
}

// Refreshable reports whether the refresh token may still be exchanged at now.
// An unknown refresh expiry is left for the server to judge.
func (s *Session) Refreshable(now time.Time) bool {
	if s == nil || s.RefreshToken == "" {
		return false
	}
	return s.RefreshExpiresAt.IsZero() || now.Add(DefaultExpirySkew).Before(s.RefreshExpiresAt)
}

// retainUntil is how long a cache should keep the session around
func (s *Session) retainUntil() time.Time {
	if s.RefreshToken != "" && s.RefreshExpiresAt.After(s.ExpiresAt) {
		return s.RefreshExpiresAt
	}
	return s.ExpiresAt
}

// AccessClaims are the access token claims the client can read
type AccessClaims struct {
	jwt.RegisteredClaims
	RefreshID string `json:"rid,omitempty"`
}

// Claims decodes the access token without verifying it. The server remains
// the authority; this only exposes subject and expiry to the caller.
func (s *Session) Claims() (*AccessClaims, error) {
	claims := &AccessClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(s.AccessToken, claims); err != nil {
		return nil, fmt.Errorf("failed to decode access token: %w", err)
	}
	return claims, nil
}
