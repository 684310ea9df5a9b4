package ports

import "github.com/layer-3/dapptober/core"

// Tokenizer converts between sessions and signed tokens
type Tokenizer interface {
	SessionToAccessToken(session *core.Session) (string, error)
	AccessTokenToSession(token string) (*core.Session, error)
	SessionToRefreshToken(session *core.Session) (string, error)
	RefreshTokenToSession(token string) (*core.Session, error)
}

// SignatureVerifier recovers the wallet that signed a message
type SignatureVerifier interface {
	// RecoverAddress returns the lowercased address that produced signature over message
	RecoverAddress(message, signature string) (string, error)
}
