package tokenizer

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/layer-3/dapptober/core"
)

const (
	audienceAccess  = "session:access"
	audienceRefresh = "session:refresh"

	// issuer is the iss claim stamped on every session token
	issuer = "dapptober"
)

// accessClaims carry rid, the jti of the refresh token minted alongside,
// so revoking the refresh token also revokes its access tokens
type accessClaims struct {
	jwt.RegisteredClaims
	RefreshID string `json:"rid"`
}

type refreshClaims struct {
	jwt.RegisteredClaims
}

func registered(audience, address, id string, issuedAt, expiresAt time.Time) jwt.RegisteredClaims {
	return jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   address,
		ID:        id,
		Audience:  jwt.ClaimStrings{audience},
		IssuedAt:  jwt.NewNumericDate(issuedAt),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}
}

func (c *accessClaims) session() *core.Session {
	return &core.Session{
		ID:           c.ID,
		Address:      c.Subject,
		IssuedAt:     c.IssuedAt.Time,
		AccessExpiry: c.ExpiresAt.Time,
		RefreshID:    c.RefreshID,
	}
}

// session leaves AccessExpiry zero; refresh tokens know nothing about access tokens
func (c *refreshClaims) session() *core.Session {
	return &core.Session{
		Address:       c.Subject,
		IssuedAt:      c.IssuedAt.Time,
		RefreshExpiry: c.ExpiresAt.Time,
		RefreshID:     c.ID,
	}
}
