package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration, loaded from the environment.
type Config struct {
	Environment string
	Port        string
	LogLevel    slog.Level

	// Database
	DatabaseURL     string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration

	// Redis (optional; caching degrades gracefully without it)
	RedisURL string

	// Auth
	JWTSecret   string
	JWTDuration time.Duration

	// Kafka event publishing (optional)
	KafkaBrokers []string
	KafkaTopic   string

	// Supabase media storage (optional)
	Supabase SupabaseConfig

	// Gemini advisor (optional)
	GeminiAPIKey string
	GeminiModel  string
}

type SupabaseConfig struct {
	URL    string
	Key    string
	Bucket string
}

// LoadConfig reads configuration from .env (if present) and the environment.
func LoadConfig() (*Config, error) {
	// .env is developer convenience only; absence is not an error.
	_ = godotenv.Load()

	cfg := &Config{
		Environment:     getEnv("ENVIRONMENT", "development"),
		Port:            getEnv("PORT", "8080"),
		LogLevel:        parseLogLevel(getEnv("LOG_LEVEL", "info")),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
		MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
		ConnMaxLifetime: time.Duration(getEnvInt("DB_CONN_MAX_LIFETIME_MINUTES", 30)) * time.Minute,
		RedisURL:        os.Getenv("REDIS_URL"),
		JWTSecret:       os.Getenv("JWT_SECRET"),
		JWTDuration:     time.Duration(getEnvInt("JWT_DURATION_HOURS", 12)) * time.Hour,
		KafkaTopic:      getEnv("KAFKA_TOPIC", "challenge-events"),
		Supabase: SupabaseConfig{
			URL:    os.Getenv("SUPABASE_URL"),
			Key:    os.Getenv("SUPABASE_KEY"),
			Bucket: getEnv("SUPABASE_BUCKET", "uploads"),
		},
		GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),
		GeminiModel:  getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
	}

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = splitAndTrim(brokers)
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func splitAndTrim(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
