package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"store-order-hub/internal/application"
	"store-order-hub/internal/config"
	"store-order-hub/internal/infrastructure/api"
	"store-order-hub/internal/infrastructure/encryption"
	"store-order-hub/internal/infrastructure/feed"
	"store-order-hub/internal/infrastructure/metrics"
	"store-order-hub/internal/infrastructure/pubsub"
	"store-order-hub/internal/infrastructure/ratelimit"
	"store-order-hub/internal/infrastructure/repository"
	shopifyinfra "store-order-hub/internal/infrastructure/shopify"
	"store-order-hub/internal/infrastructure/woocommerce"
	"store-order-hub/internal/ports"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func main() {
	tokenOwner := flag.String("token", "", "print a bearer token for the given owner id and exit")
	tokenTTL := flag.Duration("token-ttl", 24*time.Hour, "lifetime of the token printed by -token")
	flag.Parse()

	// Initialize logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if err := godotenv.Load(); err != nil {
		logger.Warn().Msg("Warning: .env file not found")
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("Invalid configuration")
	}
	logger = logger.Level(cfg.LogLevel)

	if *tokenOwner != "" {
		token, err := api.SignToken([]byte(cfg.JWTSecret), *tokenOwner, *tokenTTL)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to sign token")
		}
		fmt.Println(token)
		return
	}

	ctx := context.Background()

	// Initialize repositories
	var storeRepo ports.StoreRepository
	switch cfg.StoreBackend {
	case config.BackendMemory:
		logger.Warn().Msg("Using in-memory store repository, stores are lost on restart")
		storeRepo = repository.NewMemoryStoreRepository()
	default:
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to connect to MongoDB")
		}
		defer client.Disconnect(context.Background())

		db := client.Database(cfg.MongoDatabase)
		indexCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		err = repository.EnsureIndexes(indexCtx, db)
		cancel()
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to create MongoDB indexes")
		}
		storeRepo = repository.NewMongoStoreRepository(db)
	}

	var feedRepo ports.OrderFeedRepository
	switch cfg.FeedBackend {
	case config.BackendMemory:
		feedRepo = feed.NewMemoryFeedRepository()
	default:
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer rdb.Close()

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := rdb.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			logger.Fatal().Err(err).Str("addr", cfg.RedisAddr).Msg("Failed to connect to Redis")
		}
		feedRepo = feed.NewRedisFeedRepository(rdb, cfg.FeedTTL, logger)
	}

	encryptionService, err := encryption.NewService(cfg.EncryptionKey)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize encryption service")
	}

	// Platform adapters share one per-host limiter
	limiter := ratelimit.NewHostLimiter(cfg.UpstreamRate, cfg.UpstreamBurst, logger)
	registry := application.NewAdapterRegistry(
		shopifyinfra.NewAdapter(shopifyinfra.Options{
			OrderWindow: cfg.OrderWindow,
			Timeout:     cfg.ShopifyTimeout,
			Limiter:     limiter,
			Logger:      logger,
		}),
		woocommerce.NewAdapter(woocommerce.Options{
			OrderWindow: cfg.OrderWindow,
			Timeout:     cfg.WooTimeout,
			AuthMode:    cfg.WooAuth,
			Limiter:     limiter,
			Logger:      logger,
		}),
	)

	recorder := metrics.NewRecorder()
	syncEvents := pubsub.NewSyncPubSub(logger)

	// Initialize application services
	credentialsService := application.NewCredentialsService(encryptionService)
	connValidator := application.NewConnectionValidator(registry, cfg.ProbePolicies, recorder, logger)
	storeService := application.NewStoreService(storeRepo, connValidator, credentialsService, logger)
	syncService := application.NewSyncService(storeRepo, registry, credentialsService, syncEvents, recorder, logger)
	feedService := application.NewFeedService(syncService, storeRepo, feedRepo, cfg.SyncConcurrency, logger)

	server := api.NewServer(storeService, feedService, syncEvents, api.Options{
		JWTSecret:      []byte(cfg.JWTSecret),
		CORSOrigins:    cfg.CORSOrigins,
		MetricsHandler: recorder.Handler(),
	}, logger)

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info().
			Str("port", cfg.Port).
			Str("storeBackend", cfg.StoreBackend).
			Str("feedBackend", cfg.FeedBackend).
			Msg("Starting API server")
		logger.Info().Msg("Swagger documentation available at http://localhost:" + cfg.Port + "/swagger/index.html")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info().Msg("Shutting down API server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Graceful shutdown failed")
	}
}
