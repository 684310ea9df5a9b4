package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/layer-3/dapptober/core"
	"github.com/layer-3/dapptober/internal/logging"
	"github.com/layer-3/dapptober/internal/metrics"
	"github.com/layer-3/dapptober/ports"
	"go.uber.org/zap"
)

// AuthConfig holds the auth timing and message settings
type AuthConfig struct {
	Domain     string
	NonceTTL   time.Duration
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// DefaultAuthConfig returns the production defaults
func DefaultAuthConfig() AuthConfig {
	return AuthConfig{
		Domain:     "dapptober.local",
		NonceTTL:   5 * time.Minute,
		AccessTTL:  time.Hour,
		RefreshTTL: 7 * 24 * time.Hour,
	}
}

// NonceChallenge is what a wallet needs to sign in
type NonceChallenge struct {
	Nonce     core.Nonce
	Message   string
	ExpiresAt time.Time
}

// Login is the result of a successful signature verification
type Login struct {
	Tokens  core.TokenPair
	Profile core.Profile
}

// AuthService handles authentication business logic
type AuthService struct {
	tokenizer ports.Tokenizer
	store     ports.Store
	nonces    ports.NonceStore
	profiles  ports.ProfileRepository
	verifier  ports.SignatureVerifier
	eventPub  ports.EventPublisher
	logger    *zap.Logger

	cfg AuthConfig
	now func() time.Time
}

// NewAuthService creates a new authentication service
func NewAuthService(
	cfg AuthConfig,
	tokenizer ports.Tokenizer,
	store ports.Store,
	nonces ports.NonceStore,
	profiles ports.ProfileRepository,
	verifier ports.SignatureVerifier,
	eventPub ports.EventPublisher,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		tokenizer: tokenizer,
		store:     store,
		nonces:    nonces,
		profiles:  profiles,
		verifier:  verifier,
		eventPub:  eventPub,
		logger:    logger.Named("auth"),
		cfg:       cfg,
		now:       time.Now,
	}
}

// WithClock replaces the time source
func (s *AuthService) WithClock(now func() time.Time) *AuthService {
	s.now = now
	return s
}

// IssueNonce stores a fresh nonce for address, replacing any unconsumed one
func (s *AuthService) IssueNonce(ctx context.Context, address string) (challenge *NonceChallenge, err error) {
	defer func() { metrics.RecordAuth("nonce", err) }()

	address, err = core.NormalizeAddress(address)
	if err != nil {
		return nil, err
	}

	// Generate random nonce
	nonceBytes := make([]byte, 32)
	if _, err := rand.Read(nonceBytes); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	nonce := core.Nonce{
		Address:  address,
		Value:    hex.EncodeToString(nonceBytes),
		IssuedAt: s.now().UTC(),
	}
	if err := s.nonces.Put(ctx, nonce, s.cfg.NonceTTL); err != nil {
		return nil, fmt.Errorf("failed to store nonce: %w", err)
	}

	return &NonceChallenge{
		Nonce:     nonce,
		Message:   core.SignInMessage(s.cfg.Domain, address, nonce.Value, nonce.IssuedAt),
		ExpiresAt: nonce.IssuedAt.Add(s.cfg.NonceTTL),
	}, nil
}

// Verify checks the signed message against the live nonce and establishes a session.
// The nonce is checked before the signature, so a stale nonce always reports
// core.ErrExpiredOrMissingNonce.
func (s *AuthService) Verify(ctx context.Context, address, signature, message string) (login *Login, err error) {
	defer func() { metrics.RecordAuth("verify", err) }()

	if strings.TrimSpace(address) == "" || strings.TrimSpace(signature) == "" || message == "" {
		return nil, fmt.Errorf("address, signature and message are required: %w", core.ErrInvalidRequest)
	}
	address, err = core.NormalizeAddress(address)
	if err != nil {
		return nil, err
	}
	log := s.logger.With(logging.Address(address))

	nonce, err := s.nonces.Get(ctx, address)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if nonce.Expired(now, s.cfg.NonceTTL) || !strings.Contains(message, nonce.Value) {
		return nil, core.ErrExpiredOrMissingNonce
	}

	signer, err := s.verifier.RecoverAddress(message, signature)
	if err != nil {
		log.Debug("signature recovery failed", zap.Error(err))
		return nil, err
	}
	if signer != address {
		log.Info("signature from different wallet", zap.String("signer", signer))
		return nil, core.ErrInvalidSignature
	}

	consumed, err := s.nonces.Consume(ctx, address, nonce.Value)
	if err != nil {
		return nil, fmt.Errorf("failed to consume nonce: %w", err)
	}
	if !consumed {
		return nil, core.ErrExpiredOrMissingNonce
	}

	profile, err := s.establishProfile(ctx, address, now)
	if err != nil {
		log.Error("failed to establish profile", zap.Error(err))
		return nil, err
	}

	session := s.newSession(address, now)
	tokens, err := s.tokenPair(session)
	if err != nil {
		return nil, err
	}

	if err := s.eventPub.PublishLogin(ctx, address, session.ID); err != nil {
		log.Warn("failed to publish login event", zap.Error(err))
	}
	log.Info("wallet signed in", zap.String("session_id", session.ID))

	return &Login{Tokens: tokens, Profile: profile}, nil
}

// establishProfile upserts the profile. A unique violation from a concurrent
// first login resolves to the row the other request created.
func (s *AuthService) establishProfile(ctx context.Context, address string, now time.Time) (core.Profile, error) {
	profile, err := s.profiles.TouchLogin(ctx, address, now)
	if errors.Is(err, core.ErrAlreadyExists) {
		profile, err = s.profiles.GetByAddress(ctx, address)
	}
	if err != nil {
		return core.Profile{}, fmt.Errorf("failed to establish profile: %v: %w", err, core.ErrBackendUnavailable)
	}
	return profile, nil
}

func (s *AuthService) newSession(address string, now time.Time) *core.Session {
	return &core.Session{
		ID:            uuid.New().String(),
		Address:       address,
		IssuedAt:      now,
		RefreshExpiry: now.Add(s.cfg.RefreshTTL),
		AccessExpiry:  now.Add(s.cfg.AccessTTL),
		RefreshID:     uuid.New().String(),
	}
}

func (s *AuthService) tokenPair(session *core.Session) (core.TokenPair, error) {
	accessToken, err := s.tokenizer.SessionToAccessToken(session)
	if err != nil {
		return core.TokenPair{}, fmt.Errorf("failed to create access token: %w", err)
	}

	refreshToken, err := s.tokenizer.SessionToRefreshToken(session)
	if err != nil {
		return core.TokenPair{}, fmt.Errorf("failed to create refresh token: %w", err)
	}

	return core.TokenPair{
		AccessToken:   accessToken,
		RefreshToken:  refreshToken,
		WalletAddress: session.Address,
		AccessExpiry:  session.AccessExpiry,
		RefreshExpiry: session.RefreshExpiry,
	}, nil
}

// Refresh rotates the refresh token and issues new access and refresh tokens
func (s *AuthService) Refresh(ctx context.Context, refreshTokenStr string) (pair core.TokenPair, err error) {
	defer func() { metrics.RecordAuth("refresh", err) }()

	// Parse and validate the refresh token
	session, err := s.tokenizer.RefreshTokenToSession(refreshTokenStr)
	if err != nil {
		return core.TokenPair{}, err
	}

	now := s.now()
	if now.After(session.RefreshExpiry) {
		return core.TokenPair{}, core.ErrTokenExpired
	}

	// Revoking is the claim on the rotation; a concurrent refresh with the same token loses here.
	// The record only needs to outlive the old token.
	rotated, err := s.store.InvalidateToken(ctx, session.RefreshID, session.RefreshExpiry.Sub(now))
	if err != nil {
		return core.TokenPair{}, fmt.Errorf("failed to invalidate old token: %w", err)
	}
	if !rotated {
		return core.TokenPair{}, core.ErrTokenInvalidated
	}

	return s.tokenPair(s.newSession(session.Address, now))
}

// Logout invalidates a refresh token
func (s *AuthService) Logout(ctx context.Context, refreshTokenStr string) (err error) {
	defer func() { metrics.RecordAuth("logout", err) }()

	session, err := s.tokenizer.RefreshTokenToSession(refreshTokenStr)
	if err != nil {
		return err
	}

	// Already expired tokens still get a short invalidation record to absorb clock skew
	remaining := session.RefreshExpiry.Sub(s.now())
	if remaining <= 0 {
		remaining = time.Hour
	}

	if _, err := s.store.InvalidateToken(ctx, session.RefreshID, remaining); err != nil {
		return fmt.Errorf("failed to invalidate token: %w", err)
	}

	// The token is already invalidated, so a lost event only delays other instances
	if err := s.eventPub.PublishLogout(ctx, session.Address, session.RefreshID); err != nil {
		s.logger.Warn("failed to publish logout event", logging.Address(session.Address), zap.Error(err))
	}

	return nil
}

// ValidateAccessToken returns the session for a live access token whose refresh token is still valid
func (s *AuthService) ValidateAccessToken(ctx context.Context, accessToken string) (*core.Session, error) {
	session, err := s.tokenizer.AccessTokenToSession(accessToken)
	if err != nil {
		return nil, err
	}

	if s.now().After(session.AccessExpiry) {
		return nil, core.ErrTokenExpired
	}

	// Revoking the refresh token also kills every access token minted with it
	if session.RefreshID != "" {
		invalidated, err := s.store.IsTokenInvalidated(ctx, session.RefreshID)
		if err != nil {
			return nil, fmt.Errorf("failed to check token invalidation: %w", err)
		}
		if invalidated {
			return nil, core.ErrTokenInvalidated
		}
	}

	return session, nil
}
