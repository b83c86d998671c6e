package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"store-order-hub/internal/application"
	"store-order-hub/internal/domain"
	"store-order-hub/internal/infrastructure/woocommerce"

	"github.com/rs/zerolog"
)

// Backends for STORE_BACKEND and FEED_BACKEND
const (
	BackendMongo  = "mongo"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// Config is the process configuration read from the environment
type Config struct {
	Port            string
	MongoURI        string
	MongoDatabase   string
	StoreBackend    string
	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	FeedBackend     string
	FeedTTL         time.Duration
	EncryptionKey   string
	JWTSecret       string
	ShopifyTimeout  time.Duration
	WooTimeout      time.Duration
	WooAuth         woocommerce.AuthMode
	OrderWindow     int
	SyncConcurrency int
	UpstreamRate    float64
	UpstreamBurst   int
	ProbePolicies   map[domain.Platform]application.ProbePolicy
	CORSOrigins     []string
	LogLevel        zerolog.Level
}

// Load reads the configuration. ENCRYPTION_KEY and JWT_SECRET are required.
func Load() (Config, error) {
	var errs []error
	collect := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}

	cfg := Config{
		Port:          getEnv("PORT", "8080"),
		MongoURI:      getEnv("MONGODB_URI", "mongodb://localhost:27017"),
		MongoDatabase: getEnv("MONGODB_DATABASE", "store_order_hub"),
		StoreBackend:  strings.ToLower(getEnv("STORE_BACKEND", BackendMongo)),
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		FeedBackend:   strings.ToLower(getEnv("FEED_BACKEND", BackendRedis)),
		EncryptionKey: os.Getenv("ENCRYPTION_KEY"),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		CORSOrigins:   splitList(getEnv("CORS_ORIGINS", "*")),
		ProbePolicies: application.DefaultProbePolicies(),
	}

	var err error
	cfg.RedisDB, err = getInt("REDIS_DB", 0)
	collect(err)
	cfg.FeedTTL, err = getDuration("FEED_TTL", 24*time.Hour)
	collect(err)
	cfg.ShopifyTimeout, err = getDuration("SHOPIFY_TIMEOUT", 10*time.Second)
	collect(err)
	cfg.WooTimeout, err = getDuration("WOOCOMMERCE_TIMEOUT", 15*time.Second)
	collect(err)
	cfg.OrderWindow, err = getInt("ORDER_WINDOW", 10)
	collect(err)
	cfg.SyncConcurrency, err = getInt("SYNC_CONCURRENCY", application.DefaultSyncConcurrency)
	collect(err)
	cfg.UpstreamRate, err = getFloat("UPSTREAM_RATE", 2)
	collect(err)
	cfg.UpstreamBurst, err = getInt("UPSTREAM_BURST", 4)
	collect(err)

	cfg.WooAuth, err = woocommerce.ParseAuthMode(os.Getenv("WOOCOMMERCE_AUTH"))
	collect(err)

	for platform, key := range map[domain.Platform]string{
		domain.PlatformShopify:     "PROBE_POLICY_SHOPIFY",
		domain.PlatformWooCommerce: "PROBE_POLICY_WOOCOMMERCE",
	} {
		raw := os.Getenv(key)
		if raw == "" {
			continue
		}
		policy, err := application.ParseProbePolicy(raw)
		if err != nil {
			collect(fmt.Errorf("%s: %w", key, err))
			continue
		}
		cfg.ProbePolicies[platform] = policy
	}

	cfg.LogLevel, err = zerolog.ParseLevel(strings.ToLower(getEnv("LOG_LEVEL", "info")))
	collect(err)

	if cfg.EncryptionKey == "" {
		collect(errors.New("ENCRYPTION_KEY environment variable is required"))
	}
	if cfg.JWTSecret == "" {
		collect(errors.New("JWT_SECRET environment variable is required"))
	}
	if cfg.StoreBackend != BackendMongo && cfg.StoreBackend != BackendMemory {
		collect(fmt.Errorf("STORE_BACKEND must be %q or %q", BackendMongo, BackendMemory))
	}
	if cfg.FeedBackend != BackendRedis && cfg.FeedBackend != BackendMemory {
		collect(fmt.Errorf("FEED_BACKEND must be %q or %q", BackendRedis, BackendMemory))
	}
	if cfg.OrderWindow <= 0 {
		collect(errors.New("ORDER_WINDOW must be positive"))
	}

	return cfg, errors.Join(errs...)
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback, fmt.Errorf("%s: %w", key, err)
	}
	return v, nil
}

func getFloat(key string, fallback float64) (float64, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fallback, fmt.Errorf("%s: %w", key, err)
	}
	return v, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return fallback, fmt.Errorf("%s: %w", key, err)
	}
	return v, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
