package dapptober

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNoSession is returned when no session is cached for an address
	ErrNoSession = errors.New("no session")

	// ErrNoWallet is returned when sign-in is attempted without a connected wallet
	ErrNoWallet = errors.New("no wallet connected")

	// ErrUnauthorized matches 401 responses
	ErrUnauthorized = errors.New("unauthorized")

	// ErrBadRequest matches 400 responses
	ErrBadRequest = errors.New("bad request")

	// ErrConflict matches 409 responses
	ErrConflict = errors.New("conflict")

	// ErrNotFound matches 404 responses
	ErrNotFound = errors.New("not found")
)

// APIError is a non-2xx response from the API
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("dapptober: %d %s", e.StatusCode, e.Message)
}

// Is lets callers match status classes with errors.Is
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized
	case ErrBadRequest:
		return e.StatusCode == http.StatusBadRequest
	case ErrConflict:
		return e.StatusCode == http.StatusConflict
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	}
	return false
}
