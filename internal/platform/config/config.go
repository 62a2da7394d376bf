package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type HTTPConfig struct {
	Addr               string
	CORSAllowedOrigins string
}

type CacheConfig struct {
	TTL     time.Duration
	MaxSize int
}

type StreamConfig struct {
	Interval    time.Duration
	Heartbeat   time.Duration
	MaxLifetime time.Duration // zero keeps the stream open until the client leaves
}

type ModerationConfig struct {
	SeedDemoData     bool
	ValidationPolicy string
	CreateRateLimit  float64 // requests per second per client; zero disables
	CreateRateBurst  int
}

type NATSConfig struct {
	URL           string
	SubjectPrefix string
}

type AppConfig struct {
	ServiceName string
	LogLevel    string
	HTTP        HTTPConfig
	GRPCAddr    string
	DatabaseURL string
	Cache       CacheConfig
	Stream      StreamConfig
	Moderation  ModerationConfig
	NATS        NATSConfig
}

const (
	PolicyAcceptAll     = "accept_all"
	PolicyRequireFields = "require_fields"
)

// Load reads configuration from the environment. A .env file in the working
// directory is applied first when present; real environment variables win.
func Load() (AppConfig, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return AppConfig{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := AppConfig{
		ServiceName: env("SERVICE_NAME", "comments"),
		LogLevel:    env("LOG_LEVEL", "info"),
		HTTP: HTTPConfig{
			Addr:               env("HTTP_ADDR", ":8080"),
			CORSAllowedOrigins: env("CORS_ALLOWED_ORIGINS", ""),
		},
		GRPCAddr:    env("GRPC_ADDR", ""),
		DatabaseURL: env("DATABASE_URL", ""),
		Cache: CacheConfig{
			TTL:     envDuration("CACHE_TTL", 60*time.Second),
			MaxSize: envInt("CACHE_MAX_SIZE", 100),
		},
		Stream: StreamConfig{
			Interval:    envDuration("STREAM_INTERVAL", 5*time.Second),
			Heartbeat:   envDuration("STREAM_HEARTBEAT", 15*time.Second),
			MaxLifetime: envDuration("STREAM_MAX_LIFETIME", 0),
		},
		Moderation: ModerationConfig{
			SeedDemoData:     envBool("SEED_DEMO_DATA", true),
			ValidationPolicy: strings.ToLower(env("VALIDATION_POLICY", PolicyAcceptAll)),
			CreateRateLimit:  envFloat("CREATE_RATE_LIMIT", 1),
			CreateRateBurst:  envInt("CREATE_RATE_BURST", 5),
		},
		NATS: NATSConfig{
			URL:           env("NATS_URL", ""),
			SubjectPrefix: env("NATS_SUBJECT_PREFIX", "comments"),
		},
	}

	switch cfg.Moderation.ValidationPolicy {
	case PolicyAcceptAll, PolicyRequireFields:
	default:
		return AppConfig{}, fmt.Errorf("VALIDATION_POLICY must be %q or %q, got %q",
			PolicyAcceptAll, PolicyRequireFields, cfg.Moderation.ValidationPolicy)
	}
	if cfg.Cache.MaxSize <= 0 {
		return AppConfig{}, errors.New("CACHE_MAX_SIZE must be positive")
	}
	return cfg, nil
}

func env(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func envInt(key string, fallback int) int {
	n, err := strconv.Atoi(env(key, ""))
	if err != nil || n < 0 {
		return fallback
	}
	return n
}

func envFloat(key string, fallback float64) float64 {
	f, err := strconv.ParseFloat(env(key, ""), 64)
	if err != nil || f < 0 {
		return fallback
	}
	return f
}

func envBool(key string, fallback bool) bool {
	b, err := strconv.ParseBool(env(key, ""))
	if err != nil {
		return fallback
	}
	return b
}

func envDuration(key string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(env(key, ""))
	if err != nil || d < 0 {
		return fallback
	}
	return d
}
