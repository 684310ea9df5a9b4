package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/layer-3/dapptober/internal/metrics"
	"github.com/layer-3/dapptober/service"
	"go.uber.org/zap"
)

// RouterConfig holds the transport settings
type RouterConfig struct {
	Cookie         CookieConfig
	AllowedOrigins []string
	// TrustedProxies may set X-Forwarded-For. Empty makes ClientIP the socket peer.
	TrustedProxies []string
	// AuthLimiter throttles /auth per client IP. Nil disables throttling.
	AuthLimiter *RateLimiter
}

// SetupRouter sets up the Gin router
func SetupRouter(authService *service.AuthService, social *service.SocialService, cfg RouterConfig, logger *zap.Logger) *gin.Engine {
	router := gin.New()
	if err := router.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		logger.Error("invalid trusted proxies, trusting none", zap.Error(err))
		_ = router.SetTrustedProxies(nil)
	}
	router.Use(gin.Recovery())
	router.Use(RequestLogger(logger))
	router.Use(metrics.Middleware())
	router.Use(CORS(cfg.AllowedOrigins))

	authHandlers := NewAuthHandlers(authService, social, cfg.Cookie, logger)
	socialHandlers := NewSocialHandlers(social, logger)

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	// Auth routes
	auth := router.Group("/auth")
	if cfg.AuthLimiter != nil {
		auth.Use(cfg.AuthLimiter.Handler())
	}
	{
		auth.POST("/nonce", authHandlers.Nonce)
		auth.POST("/verify", authHandlers.Verify)
		auth.POST("/refresh", authHandlers.Refresh)
		auth.POST("/logout", authHandlers.Logout)
	}

	// Public read routes
	router.GET("/prompts", socialHandlers.ListPrompts)
	router.GET("/prompts/:day", socialHandlers.GetPrompt)
	router.GET("/prompts/:day/comments", socialHandlers.ListComments)
	router.GET("/prompts/:day/likes", OptionalAuthMiddleware(authService), socialHandlers.LikeStatus)
	router.GET("/showcase", socialHandlers.Showcase)
	router.GET("/profiles/:address", socialHandlers.GetProfile)
	router.GET("/profiles/:address/submissions", socialHandlers.ListProfileSubmissions)

	// Protected API routes
	api := router.Group("/api")
	api.Use(AuthMiddleware(authService))
	{
		api.GET("/me", authHandlers.Me)
		api.PATCH("/profile", socialHandlers.UpdateProfile)
		api.POST("/prompts/:day/like", socialHandlers.ToggleLike)
		api.POST("/prompts/:day/comments", socialHandlers.AddComment)
		api.DELETE("/comments/:id", socialHandlers.DeleteComment)
		api.POST("/submissions", socialHandlers.Submit)
	}

	return router
}
