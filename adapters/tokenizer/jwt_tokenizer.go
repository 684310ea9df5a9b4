// Package tokenizer mints and parses ES256 session tokens.
package tokenizer

import (
	"crypto/ecdsa"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/layer-3/dapptober/core"
	"github.com/layer-3/dapptober/ports"
)

// JWTTokenizer signs access and refresh tokens with one P-256 key
type JWTTokenizer struct {
	signKey *ecdsa.PrivateKey
	access  *jwt.Parser
	refresh *jwt.Parser
}

// NewJWTTokenizer creates a new JWT tokenizer
func NewJWTTokenizer(signKey *ecdsa.PrivateKey) ports.Tokenizer {
	return &JWTTokenizer{
		signKey: signKey,
		access:  newParser(audienceAccess),
		refresh: newParser(audienceRefresh),
	}
}

func newParser(audience string) *jwt.Parser {
	return jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodES256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithAudience(audience),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
	)
}

func (j *JWTTokenizer) SessionToAccessToken(session *core.Session) (string, error) {
	return j.sign("access", &accessClaims{
		RegisteredClaims: registered(audienceAccess, session.Address, session.ID, session.IssuedAt, session.AccessExpiry),
		RefreshID:        session.RefreshID,
	})
}

func (j *JWTTokenizer) SessionToRefreshToken(session *core.Session) (string, error) {
	return j.sign("refresh", &refreshClaims{
		RegisteredClaims: registered(audienceRefresh, session.Address, session.RefreshID, session.IssuedAt, session.RefreshExpiry),
	})
}

func (j *JWTTokenizer) AccessTokenToSession(token string) (*core.Session, error) {
	var claims accessClaims
	if err := j.parse(j.access, token, &claims); err != nil {
		return nil, err
	}
	if claims.RefreshID == "" {
		return nil, fmt.Errorf("access token without rid: %w", core.ErrInvalidToken)
	}
	return claims.session(), nil
}

func (j *JWTTokenizer) RefreshTokenToSession(token string) (*core.Session, error) {
	var claims refreshClaims
	if err := j.parse(j.refresh, token, &claims); err != nil {
		return nil, err
	}
	if claims.ID == "" {
		return nil, fmt.Errorf("refresh token without jti: %w", core.ErrInvalidToken)
	}
	return claims.session(), nil
}

func (j *JWTTokenizer) sign(kind string, claims jwt.Claims) (string, error) {
	signed, err := jwt.NewWithClaims(jwt.SigningMethodES256, claims).SignedString(j.signKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign %s token: %w", kind, err)
	}
	return signed, nil
}

// parse verifies signature, issuer, audience and expiry, then checks that
// the subject is a wallet address
func (j *JWTTokenizer) parse(parser *jwt.Parser, token string, claims jwt.Claims) error {
	_, err := parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return &j.signKey.PublicKey, nil
	})
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return core.ErrTokenExpired
	case err != nil:
		return fmt.Errorf("failed to parse token: %v: %w", err, core.ErrInvalidToken)
	}

	subject, err := claims.GetSubject()
	if err != nil {
		return fmt.Errorf("unreadable subject: %w", core.ErrInvalidToken)
	}
	if _, err := core.NormalizeAddress(subject); err != nil {
		return fmt.Errorf("subject is not a wallet: %w", core.ErrInvalidToken)
	}
	return nil
}
