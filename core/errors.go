package core

import "errors"

var (
	ErrInvalidRequest        = errors.New("invalid request")
	ErrInvalidSignature      = errors.New("invalid signature")
	ErrExpiredOrMissingNonce = errors.New("nonce expired or missing")
	ErrBackendUnavailable    = errors.New("backend unavailable")
	ErrAlreadyExists         = errors.New("already exists")
	ErrNotFound              = errors.New("not found")
	ErrForbidden             = errors.New("forbidden")

	ErrTokenExpired     = errors.New("token has expired")
	ErrTokenInvalidated = errors.New("token has been invalidated")
	ErrInvalidToken     = errors.New("invalid token")
)
