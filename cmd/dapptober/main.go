package main

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/layer-3/dapptober/adapters/events"
	"github.com/layer-3/dapptober/adapters/memory"
	"github.com/layer-3/dapptober/adapters/postgres"
	"github.com/layer-3/dapptober/adapters/store"
	"github.com/layer-3/dapptober/adapters/tokenizer"
	"github.com/layer-3/dapptober/config"
	"github.com/layer-3/dapptober/internal/eth"
	"github.com/layer-3/dapptober/internal/logging"
	"github.com/layer-3/dapptober/ports"
	"github.com/layer-3/dapptober/service"
	transport "github.com/layer-3/dapptober/transport/http"
)

// Rate limit buckets idle this long are dropped by the sweep job
const limiterIdleTTL = 10 * time.Minute

func main() {
	app := fx.New(
		fx.WithLogger(func(logger *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: logger.Named("fx")}
		}),
		fx.Provide(
			newConfig,
			newLogger,
			newSigningKey,
			newRedisClient,
			newStores,
			newMessagePublisher,
			events.NewWatermillPublisher,
			newRepositories,
			newAuthService,
			newSocialService,
			newRateLimiter,
			newJobs,
			newRouter,
		),
		fx.Invoke(scheduleSweeps, startHTTPServer),
	)

	app.Run()
}

func newConfig() (config.Config, error) {
	return config.Load()
}

func newLogger(cfg config.Config) (*zap.Logger, error) {
	return logging.New(cfg.Environment)
}

// newSigningKey loads the ES256 session key, or generates one that dies with the process
func newSigningKey(cfg config.Config, logger *zap.Logger) (*ecdsa.PrivateKey, error) {
	if cfg.SessionKeyFile == "" {
		logger.Warn("SESSION_KEY_FILE not set, sessions will not survive a restart")
		return ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	}

	pem, err := os.ReadFile(cfg.SessionKeyFile)
	if err != nil {
		return nil, fmt.Errorf("read session key: %w", err)
	}
	key, err := jwt.ParseECPrivateKeyFromPEM(pem)
	if err != nil {
		return nil, fmt.Errorf("parse session key: %w", err)
	}
	return key, nil
}

// newRedisClient returns nil when REDIS_URL is empty
func newRedisClient(lc fx.Lifecycle, cfg config.Config) (redis.UniversalClient, error) {
	if cfg.RedisURL == "" {
		return nil, nil
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return client.Close()
		},
	})
	return client, nil
}

type stores struct {
	fx.Out

	Tokens ports.Store
	Nonces ports.NonceStore
}

func newStores(client redis.UniversalClient, logger *zap.Logger) stores {
	if client == nil {
		logger.Info("using in-memory nonce and token stores")
		return stores{
			Tokens: store.NewMemoryStore(),
			Nonces: store.NewMemoryNonceStore(),
		}
	}
	return stores{
		Tokens: store.NewRedisStore(client),
		Nonces: store.NewRedisNonceStore(client),
	}
}

func newMessagePublisher(lc fx.Lifecycle, client redis.UniversalClient) (message.Publisher, error) {
	wmLogger := watermill.NewStdLogger(false, false)

	var (
		publisher message.Publisher
		err       error
	)
	if client == nil {
		publisher = gochannel.NewGoChannel(gochannel.Config{}, wmLogger)
	} else {
		publisher, err = redisstream.NewPublisher(
			redisstream.PublisherConfig{
				Client:     client,
				Marshaller: redisstream.DefaultMarshallerUnmarshaller{},
			},
			wmLogger,
		)
		if err != nil {
			return nil, fmt.Errorf("create redis stream publisher: %w", err)
		}
	}

	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return publisher.Close()
		},
	})
	return publisher, nil
}

type repositories struct {
	fx.Out

	Profiles    ports.ProfileRepository
	Likes       ports.LikeRepository
	Comments    ports.CommentRepository
	Submissions ports.SubmissionRepository
}

func newRepositories(lc fx.Lifecycle, cfg config.Config, logger *zap.Logger) (repositories, error) {
	if cfg.DatabaseURL == "" {
		logger.Info("DATABASE_URL not set, using in-memory repositories")
		db := memory.NewDatabase()
		return repositories{
			Profiles:    memory.NewProfileRepository(db),
			Likes:       memory.NewLikeRepository(db),
			Comments:    memory.NewCommentRepository(db),
			Submissions: memory.NewSubmissionRepository(db),
		}, nil
	}

	if cfg.AutoMigrate {
		if err := postgres.Migrate(cfg.DatabaseURL); err != nil {
			return repositories{}, err
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return repositories{}, err
	}

	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			pool.Close()
			return nil
		},
	})

	return repositories{
		Profiles:    postgres.NewProfileRepository(pool),
		Likes:       postgres.NewLikeRepository(pool),
		Comments:    postgres.NewCommentRepository(pool),
		Submissions: postgres.NewSubmissionRepository(pool),
	}, nil
}

func newAuthService(
	cfg config.Config,
	key *ecdsa.PrivateKey,
	tokens ports.Store,
	nonces ports.NonceStore,
	profiles ports.ProfileRepository,
	eventPub ports.EventPublisher,
	logger *zap.Logger,
) *service.AuthService {
	return service.NewAuthService(
		service.AuthConfig{
			Domain:     cfg.SignInDomain,
			NonceTTL:   cfg.NonceTTL,
			AccessTTL:  cfg.AccessTokenTTL,
			RefreshTTL: cfg.RefreshTokenTTL,
		},
		tokenizer.NewJWTTokenizer(key),
		tokens,
		nonces,
		profiles,
		eth.NewVerifier(),
		eventPub,
		logger,
	)
}

type socialDeps struct {
	fx.In

	Profiles    ports.ProfileRepository
	Likes       ports.LikeRepository
	Comments    ports.CommentRepository
	Submissions ports.SubmissionRepository
}

func newSocialService(repos socialDeps, eventPub ports.EventPublisher, logger *zap.Logger) *service.SocialService {
	return service.NewSocialService(repos.Profiles, repos.Likes, repos.Comments, repos.Submissions, eventPub, logger)
}

func newRateLimiter(cfg config.Config) *transport.RateLimiter {
	return transport.NewRateLimiter(cfg.AuthRateLimitRPS, cfg.AuthRateLimitBurst, limiterIdleTTL)
}

func newJobs(lc fx.Lifecycle, logger *zap.Logger) *service.Jobs {
	jobs := service.NewJobs(logger)
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			jobs.Start()
			return nil
		},
		OnStop: jobs.Stop,
	})
	return jobs
}

func newRouter(
	cfg config.Config,
	authService *service.AuthService,
	social *service.SocialService,
	limiter *transport.RateLimiter,
	logger *zap.Logger,
) http.Handler {
	return transport.SetupRouter(authService, social, transport.RouterConfig{
		Cookie: transport.CookieConfig{
			Secure: cfg.CookieSecure,
			MaxAge: cfg.RefreshTokenTTL,
		},
		AllowedOrigins: cfg.AllowedOrigins(),
		TrustedProxies: cfg.TrustedProxyList(),
		AuthLimiter:    limiter,
	}, logger)
}

// scheduleSweeps registers expiry passes for every component that keeps state in process.
// Redis-backed stores expire on their own and are skipped.
func scheduleSweeps(jobs *service.Jobs, cfg config.Config, tokens ports.Store, nonces ports.NonceStore, limiter *transport.RateLimiter) error {
	sweepers := map[string]any{
		"nonces":       nonces,
		"tokens":       tokens,
		"rate_limiter": limiter,
	}
	for name, candidate := range sweepers {
		sweeper, ok := candidate.(ports.Sweeper)
		if !ok {
			continue
		}
		if err := jobs.AddSweep(name, cfg.NonceSweepInterval, sweeper); err != nil {
			return err
		}
	}
	return nil
}

func startHTTPServer(lc fx.Lifecycle, cfg config.Config, handler http.Handler, logger *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				logger.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error("http server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}
