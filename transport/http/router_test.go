package http_test

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/gin-gonic/gin"
	"github.com/layer-3/dapptober/adapters/events"
	"github.com/layer-3/dapptober/adapters/memory"
	"github.com/layer-3/dapptober/adapters/store"
	"github.com/layer-3/dapptober/adapters/tokenizer"
	"github.com/layer-3/dapptober/internal/eth"
	"github.com/layer-3/dapptober/service"
	transport "github.com/layer-3/dapptober/transport/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(t *testing.T, limiter *transport.RateLimiter, opts ...func(*transport.RouterConfig)) *gin.Engine {
	t.Helper()

	signKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	db := memory.NewDatabase()
	profiles := memory.NewProfileRepository(db)
	logger := zap.NewNop()

	authService := service.NewAuthService(
		service.DefaultAuthConfig(),
		tokenizer.NewJWTTokenizer(signKey),
		store.NewMemoryStore(),
		store.NewMemoryNonceStore(),
		profiles,
		eth.NewVerifier(),
		events.NopPublisher{},
		logger,
	)
	social := service.NewSocialService(
		profiles,
		memory.NewLikeRepository(db),
		memory.NewCommentRepository(db),
		memory.NewSubmissionRepository(db),
		events.NopPublisher{},
		logger,
	)

	cfg := transport.RouterConfig{
		Cookie:         transport.CookieConfig{MaxAge: 7 * 24 * time.Hour},
		AllowedOrigins: []string{"https://app.example"},
		AuthLimiter:    limiter,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return transport.SetupRouter(authService, social, cfg, logger)
}

type request struct {
	method string
	path   string
	body   any
	token  string
	cookie *http.Cookie
}

func do(t *testing.T, r *gin.Engine, req request) *httptest.ResponseRecorder {
	t.Helper()

	var body bytes.Buffer
	if req.body != nil {
		require.NoError(t, json.NewEncoder(&body).Encode(req.body))
	}
	httpReq := httptest.NewRequest(req.method, req.path, &body)
	if req.body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if req.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.token)
	}
	if req.cookie != nil {
		httpReq.AddCookie(req.cookie)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httpReq)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))
	return v
}

type sessionBody struct {
	Session struct {
		AccessToken   string `json:"access_token"`
		RefreshToken  string `json:"refresh_token"`
		WalletAddress string `json:"wallet_address"`
	} `json:"session"`
}

func sessionCookie(w *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == transport.SessionCookie {
			return c
		}
	}
	return nil
}

func signIn(t *testing.T, r *gin.Engine, key *ecdsa.PrivateKey) (*httptest.ResponseRecorder, string) {
	t.Helper()
	address := eth.AddressOf(key)

	w := do(t, r, request{method: http.MethodPost, path: "/auth/nonce", body: gin.H{"address": address}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	nonce := decode[struct {
		Nonce   string `json:"nonce"`
		Message string `json:"message"`
	}](t, w)
	require.Contains(t, nonce.Message, nonce.Nonce)

	sig, err := eth.PersonalSign(key, nonce.Message)
	require.NoError(t, err)

	w = do(t, r, request{method: http.MethodPost, path: "/auth/verify", body: gin.H{
		"address":   address,
		"signature": hexutil.Encode(sig),
		"message":   nonce.Message,
	}})
	return w, nonce.Message
}

func TestWalletSessionFlow(t *testing.T) {
	r := newRouter(t, nil)
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	address := eth.AddressOf(key)

	w, _ := signIn(t, r, key)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	session := decode[sessionBody](t, w)
	assert.Equal(t, address, session.Session.WalletAddress)

	cookie := sessionCookie(w)
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, session.Session.RefreshToken, cookie.Value)

	access := session.Session.AccessToken

	t.Run("me", func(t *testing.T) {
		w := do(t, r, request{method: http.MethodGet, path: "/api/me", token: access})
		require.Equal(t, http.StatusOK, w.Code)
		me := decode[struct {
			Address string `json:"address"`
		}](t, w)
		assert.Equal(t, address, me.Address)
	})

	t.Run("refresh from cookie", func(t *testing.T) {
		w := do(t, r, request{method: http.MethodPost, path: "/auth/refresh", cookie: cookie})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		refreshed := decode[sessionBody](t, w)
		access = refreshed.Session.AccessToken
		cookie = sessionCookie(w)
		require.NotNil(t, cookie)

		w = do(t, r, request{method: http.MethodPost, path: "/auth/refresh", body: gin.H{"refresh_token": session.Session.RefreshToken}})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("logout clears cookie and kills access", func(t *testing.T) {
		w := do(t, r, request{method: http.MethodPost, path: "/auth/logout", cookie: cookie})
		require.Equal(t, http.StatusOK, w.Code)
		cleared := sessionCookie(w)
		require.NotNil(t, cleared)
		assert.Empty(t, cleared.Value)

		w = do(t, r, request{method: http.MethodGet, path: "/api/me", token: access})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestVerifyErrors(t *testing.T) {
	r := newRouter(t, nil)
	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	t.Run("missing fields", func(t *testing.T) {
		w := do(t, r, request{method: http.MethodPost, path: "/auth/verify", body: gin.H{"address": eth.AddressOf(key)}})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("replayed signature", func(t *testing.T) {
		w, message := signIn(t, r, key)
		require.Equal(t, http.StatusOK, w.Code)

		sig, err := eth.PersonalSign(key, message)
		require.NoError(t, err)
		w = do(t, r, request{method: http.MethodPost, path: "/auth/verify", body: gin.H{
			"address":   eth.AddressOf(key),
			"signature": hexutil.Encode(sig),
			"message":   message,
		}})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("nonce for bad address", func(t *testing.T) {
		w := do(t, r, request{method: http.MethodPost, path: "/auth/nonce", body: gin.H{"address": "0x123"}})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("logout without session", func(t *testing.T) {
		w := do(t, r, request{method: http.MethodPost, path: "/auth/logout"})
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("api without token", func(t *testing.T) {
		w := do(t, r, request{method: http.MethodGet, path: "/api/me"})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestSocialRoutes(t *testing.T) {
	r := newRouter(t, nil)
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	address := eth.AddressOf(key)

	w, _ := signIn(t, r, key)
	require.Equal(t, http.StatusOK, w.Code)
	token := decode[sessionBody](t, w).Session.AccessToken

	t.Run("prompts", func(t *testing.T) {
		w := do(t, r, request{method: http.MethodGet, path: "/prompts"})
		require.Equal(t, http.StatusOK, w.Code)
		assert.Len(t, decode[[]map[string]any](t, w), 31)

		assert.Equal(t, http.StatusNotFound, do(t, r, request{method: http.MethodGet, path: "/prompts/99"}).Code)
		assert.Equal(t, http.StatusBadRequest, do(t, r, request{method: http.MethodGet, path: "/prompts/abc"}).Code)
	})

	t.Run("like toggles", func(t *testing.T) {
		w := do(t, r, request{method: http.MethodPost, path: "/api/prompts/3/like", token: token})
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, service.LikeState{Liked: true, Count: 1}, decode[service.LikeState](t, w))

		w = do(t, r, request{method: http.MethodGet, path: "/prompts/3/likes", token: token})
		assert.Equal(t, service.LikeState{Liked: true, Count: 1}, decode[service.LikeState](t, w))

		w = do(t, r, request{method: http.MethodGet, path: "/prompts/3/likes"})
		assert.Equal(t, service.LikeState{Liked: false, Count: 1}, decode[service.LikeState](t, w))
	})

	t.Run("comments", func(t *testing.T) {
		w := do(t, r, request{method: http.MethodPost, path: "/api/prompts/3/comments", token: token, body: gin.H{"content": "love it"}})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		comment := decode[struct {
			ID string `json:"id"`
		}](t, w)

		w = do(t, r, request{method: http.MethodGet, path: "/prompts/3/comments"})
		require.Equal(t, http.StatusOK, w.Code)
		assert.Len(t, decode[[]map[string]any](t, w), 1)

		w = do(t, r, request{method: http.MethodDelete, path: "/api/comments/" + comment.ID, token: token})
		assert.Equal(t, http.StatusNoContent, w.Code)

		w = do(t, r, request{method: http.MethodDelete, path: "/api/comments/" + comment.ID, token: token})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("submissions", func(t *testing.T) {
		body := gin.H{"day": 3, "title": "Syndicate", "description": "DAO tooling", "demo_url": "https://demo.example"}
		w := do(t, r, request{method: http.MethodPost, path: "/api/submissions", token: token, body: body})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		w = do(t, r, request{method: http.MethodPost, path: "/api/submissions", token: token, body: body})
		assert.Equal(t, http.StatusConflict, w.Code)

		w = do(t, r, request{method: http.MethodGet, path: "/showcase?limit=10"})
		require.Equal(t, http.StatusOK, w.Code)
		showcase := decode[[]struct {
			Title      string `json:"title"`
			LikesCount int    `json:"likes_count"`
		}](t, w)
		require.Len(t, showcase, 1)
		assert.Equal(t, 1, showcase[0].LikesCount)

		w = do(t, r, request{method: http.MethodGet, path: "/profiles/" + address + "/submissions"})
		require.Equal(t, http.StatusOK, w.Code)
		assert.Len(t, decode[[]map[string]any](t, w), 1)
	})

	t.Run("profile", func(t *testing.T) {
		w := do(t, r, request{method: http.MethodPatch, path: "/api/profile", token: token, body: gin.H{"display_name": "Neo"}})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		w = do(t, r, request{method: http.MethodGet, path: "/profiles/" + address})
		require.Equal(t, http.StatusOK, w.Code)
		got := decode[struct {
			Profile struct {
				DisplayName string `json:"display_name"`
			} `json:"profile"`
			Stats struct {
				Submissions int `json:"submissions"`
			} `json:"stats"`
		}](t, w)
		assert.Equal(t, "Neo", got.Profile.DisplayName)
		assert.Equal(t, 1, got.Stats.Submissions)

		w = do(t, r, request{method: http.MethodGet, path: "/profiles/0x00000000000000000000000000000000000000ff"})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestAuthRateLimit(t *testing.T) {
	r := newRouter(t, transport.NewRateLimiter(0.001, 1, time.Minute))
	body := gin.H{"address": "0x00000000000000000000000000000000000000a1"}

	assert.Equal(t, http.StatusOK, do(t, r, request{method: http.MethodPost, path: "/auth/nonce", body: body}).Code)
	assert.Equal(t, http.StatusTooManyRequests, do(t, r, request{method: http.MethodPost, path: "/auth/nonce", body: body}).Code)

	// reads are not throttled
	assert.Equal(t, http.StatusOK, do(t, r, request{method: http.MethodGet, path: "/prompts/1"}).Code)
}

func TestRateLimiterSweep(t *testing.T) {
	rl := transport.NewRateLimiter(1, 1, time.Minute)
	rl.Allow("10.0.0.1")

	n, err := rl.Sweep(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	n, err = rl.Sweep(context.Background(), time.Now().Add(2*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestCORS(t *testing.T) {
	r := newRouter(t, nil)

	req := httptest.NewRequest(http.MethodOptions, "/auth/nonce", nil)
	req.Header.Set("Origin", "https://app.example")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://app.example", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))

	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("Origin", "https://evil.example")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func postNonceFrom(r *gin.Engine, forwardedFor string) int {
	req := httptest.NewRequest(http.MethodPost, "/auth/nonce",
		strings.NewReader(`{"address":"0x00000000000000000000000000000000000000a1"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Forwarded-For", forwardedFor)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Code
}

func TestAuthRateLimitIgnoresForwardedFor(t *testing.T) {
	r := newRouter(t, transport.NewRateLimiter(0.001, 1, time.Minute))

	allowed := 0
	for i := 1; i <= 5; i++ {
		if postNonceFrom(r, fmt.Sprintf("203.0.113.%d", i)) == http.StatusOK {
			allowed++
		}
	}
	assert.Equal(t, 1, allowed)
}

func TestAuthRateLimitTrustedProxy(t *testing.T) {
	// httptest requests come from 192.0.2.1
	r := newRouter(t, transport.NewRateLimiter(0.001, 1, time.Minute), func(cfg *transport.RouterConfig) {
		cfg.TrustedProxies = []string{"192.0.2.0/24"}
	})

	assert.Equal(t, http.StatusOK, postNonceFrom(r, "203.0.113.1"))
	assert.Equal(t, http.StatusOK, postNonceFrom(r, "203.0.113.2"))
	assert.Equal(t, http.StatusTooManyRequests, postNonceFrom(r, "203.0.113.1"))
}

func TestCORSWildcardIsNotCredentialed(t *testing.T) {
	r := newRouter(t, nil, func(cfg *transport.RouterConfig) {
		cfg.AllowedOrigins = []string{"*"}
	})

	req := httptest.NewRequest(http.MethodOptions, "/auth/nonce", nil)
	req.Header.Set("Origin", "https://anyone.example")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Credentials"))
}
