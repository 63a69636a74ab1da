package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/redmonkez12/mybucks/internal/auth"
	"github.com/redmonkez12/mybucks/internal/config"
	"github.com/redmonkez12/mybucks/internal/database"
	httpServer "github.com/redmonkez12/mybucks/internal/http"
	"github.com/redmonkez12/mybucks/internal/logging"
	"github.com/redmonkez12/mybucks/internal/ratelimit"
	"github.com/redmonkez12/mybucks/internal/transaction"
	"github.com/redmonkez12/mybucks/internal/user"
)

// stores bundles the repositories and their health probe
type stores struct {
	users        auth.UserRepository
	transactions transaction.Repository
	ping         httpServer.PingFunc // nil for in-memory
	close        func() error
}

func runServe() error {
	startedAt := time.Now()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	logger := logging.NewLoggerWithWriter(os.Stdout, cfg.Server.IsDevelopment(), cfg.Server.LogLevel)
	logger.Info("starting application",
		"env", cfg.Server.Env,
		"port", cfg.Server.Port,
		"storage", cfg.Database.Backend,
		"token_format", cfg.Auth.TokenFormat,
	)

	ctx := context.Background()

	// Initialize storage
	st, err := initStores(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer st.close()

	// Initialize Redis connection (optional)
	var (
		redisClient *redis.Client
		pingRedis   httpServer.PingFunc
		limiter     *ratelimit.Limiter
		idempotency transaction.IdempotencyStore
	)
	if cfg.Redis.Enabled {
		redisClient, err = initRedis(ctx, cfg.Redis)
		if err != nil {
			return fmt.Errorf("failed to initialize Redis: %w", err)
		}
		defer redisClient.Close()

		pingRedis = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
		limiter = ratelimit.NewLimiter(redisClient)
		idempotency = transaction.NewRedisIdempotencyStore(redisClient)
	} else {
		logger.Warn("redis disabled: rate limiting and idempotency keys are off")
	}

	// Initialize token service
	tokens, err := initTokenService(cfg.Auth)
	if err != nil {
		return fmt.Errorf("failed to initialize token service: %w", err)
	}

	hasher, err := auth.NewHasher(cfg.Auth.PasswordHash, cfg.Auth.BcryptCost)
	if err != nil {
		return fmt.Errorf("failed to initialize password hasher: %w", err)
	}

	// Initialize services
	authService := auth.NewService(st.users, tokens, hasher, logger)
	transactionService := transaction.NewService(st.transactions, idempotency, logger)

	// Initialize router
	router := httpServer.NewRouter(httpServer.RouterDeps{
		Config:             cfg,
		Logger:             logger,
		AuthHandler:        auth.NewHandler(authService),
		AuthMiddleware:     auth.NewMiddleware(tokens),
		TransactionHandler: transaction.NewHandler(transactionService),
		Health:             httpServer.NewHealthHandler(startedAt, st.ping, pingRedis),
		Limiter:            limiter,
		APIRule: ratelimit.Rule{
			Name:     "api",
			Requests: cfg.RateLimit.Requests,
			Window:   cfg.RateLimit.Window,
		},
		AuthRule: ratelimit.Rule{
			Name:     "auth",
			Requests: cfg.RateLimit.AuthRequests,
			Window:   cfg.RateLimit.AuthWindow,
		},
	})

	// Initialize HTTP server
	server := httpServer.NewServer(
		":"+cfg.Server.Port,
		router,
		cfg.Server.ReadTimeout,
		cfg.Server.WriteTimeout,
		logger,
	)

	// Start server in a goroutine
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- server.Start()
	}()

	// Wait for interrupt signal or server error
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		logger.Info("received signal", "signal", sig.String())

		// Graceful shutdown with timeout
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// initStores opens Postgres and applies migrations, or builds the in-memory repositories
func initStores(ctx context.Context, cfg config.DatabaseConfig, logger *logging.Logger) (*stores, error) {
	if cfg.Backend == config.StorageBackendMemory {
		logger.Warn("using in-memory storage: data is lost on restart")
		return &stores{
			users:        user.NewMemoryRepository(),
			transactions: transaction.NewMemoryRepository(),
			close:        func() error { return nil },
		}, nil
	}

	db, err := database.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if err := database.Migrate(ctx, db.DB); err != nil {
		db.Close()
		return nil, err
	}
	logger.Info("database ready", "host", cfg.Host, "name", cfg.DBName)

	return &stores{
		users:        user.NewRepository(db),
		transactions: transaction.NewBunRepository(db),
		ping:         db.PingContext,
		close:        db.Close,
	}, nil
}

// initRedis initializes the Redis connection and returns a Redis client
func initRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Verify connection
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return client, nil
}

func initTokenService(cfg config.AuthConfig) (auth.TokenService, error) {
	switch cfg.TokenFormat {
	case config.TokenFormatPaseto:
		return auth.NewPasetoService(cfg.PasetoKey, cfg.JWTIssuer, cfg.AccessTokenDuration)
	default:
		return auth.NewJWTService(cfg.JWTSecret, cfg.JWTIssuer, cfg.AccessTokenDuration)
	}
}
