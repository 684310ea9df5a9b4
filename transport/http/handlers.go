package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/layer-3/dapptober/core"
	"github.com/layer-3/dapptober/service"
	"go.uber.org/zap"
)

// SessionCookie carries the refresh token for browser clients
const SessionCookie = "dapptober_session"

// CookieConfig controls the session cookie attributes
type CookieConfig struct {
	Secure bool
	MaxAge time.Duration
}

// AuthHandlers contains HTTP handlers for auth endpoints
type AuthHandlers struct {
	authService *service.AuthService
	social      *service.SocialService
	cookie      CookieConfig
	logger      *zap.Logger
}

// NewAuthHandlers creates new auth handlers
func NewAuthHandlers(authService *service.AuthService, social *service.SocialService, cookie CookieConfig, logger *zap.Logger) *AuthHandlers {
	return &AuthHandlers{
		authService: authService,
		social:      social,
		cookie:      cookie,
		logger:      logger,
	}
}

type sessionResponse struct {
	AccessToken   string    `json:"access_token"`
	RefreshToken  string    `json:"refresh_token"`
	TokenType     string    `json:"token_type"`
	WalletAddress string    `json:"wallet_address"`
	ExpiresAt     time.Time `json:"expires_at"`

	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
}

func newSessionResponse(pair core.TokenPair) sessionResponse {
	return sessionResponse{
		AccessToken:   pair.AccessToken,
		RefreshToken:  pair.RefreshToken,
		TokenType:     "Bearer",
		WalletAddress: pair.WalletAddress,
		ExpiresAt:     pair.AccessExpiry,

		RefreshExpiresAt: pair.RefreshExpiry,
	}
}

func (h *AuthHandlers) setSessionCookie(c *gin.Context, refreshToken string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookie, refreshToken, maxAge, "/", "", h.cookie.Secure, true)
}

// refreshTokenFrom reads the refresh token from the JSON body, falling back to the cookie
func refreshTokenFrom(c *gin.Context) string {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if c.Request.ContentLength != 0 {
		_ = c.ShouldBindJSON(&req)
	}
	if req.RefreshToken != "" {
		return req.RefreshToken
	}
	token, _ := c.Cookie(SessionCookie)
	return token
}

// Nonce issues a sign-in nonce for an address
func (h *AuthHandlers) Nonce(c *gin.Context) {
	var req struct {
		Address string `json:"address"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	challenge, err := h.authService.IssueNonce(c.Request.Context(), req.Address)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"nonce":      challenge.Nonce.Value,
		"message":    challenge.Message,
		"issued_at":  challenge.Nonce.IssuedAt,
		"expires_at": challenge.ExpiresAt,
	})
}

// Verify checks a signed sign-in message and starts a session
func (h *AuthHandlers) Verify(c *gin.Context) {
	var req struct {
		Address   string `json:"address"`
		Signature string `json:"signature"`
		Message   string `json:"message"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	login, err := h.authService.Verify(c.Request.Context(), req.Address, req.Signature, req.Message)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	h.setSessionCookie(c, login.Tokens.RefreshToken, int(h.cookie.MaxAge.Seconds()))
	c.JSON(http.StatusOK, gin.H{
		"session": newSessionResponse(login.Tokens),
		"profile": login.Profile,
	})
}

// Refresh handles token refresh
func (h *AuthHandlers) Refresh(c *gin.Context) {
	token := refreshTokenFrom(c)
	if token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing refresh token"})
		return
	}

	pair, err := h.authService.Refresh(c.Request.Context(), token)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	h.setSessionCookie(c, pair.RefreshToken, int(h.cookie.MaxAge.Seconds()))
	c.JSON(http.StatusOK, gin.H{"session": newSessionResponse(pair)})
}

// Logout invalidates the session if one is presented and always clears the cookie
func (h *AuthHandlers) Logout(c *gin.Context) {
	if token := refreshTokenFrom(c); token != "" {
		if err := h.authService.Logout(c.Request.Context(), token); err != nil {
			h.logger.Debug("logout with unusable token", zap.Error(err))
		}
	}

	h.setSessionCookie(c, "", -1)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

// Me returns the authenticated wallet and its profile
func (h *AuthHandlers) Me(c *gin.Context) {
	address := c.GetString(ContextAddressKey)

	profile, err := h.social.EnsureProfile(c.Request.Context(), address)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"address": address,
		"profile": profile,
	})
}
