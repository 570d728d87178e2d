package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// LoadDotEnv loads environment variables from a .env file if present.
// Existing environment variables are not overwritten.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return godotenv.Load(path)
}

// Store backends.
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

type Config struct {
	Port     string
	LogLevel string

	StoreBackend string
	StoreTTL     time.Duration
	RedisAddr    string
	RedisDB      int

	HistoryEnabled     bool
	HistorianQueueName string
	HistorianBatchSize int
	HistorianFlush     time.Duration
	HistorianIdle      time.Duration

	DatabaseURL string

	OpenAIAPIKey   string
	OpenAIModel    string
	OracleTimeout  time.Duration
	MatchThreshold float64

	TypingWindow time.Duration
}

func Default() Config {
	return Config{
		Port:               "8080",
		LogLevel:           "info",
		StoreBackend:       StoreMemory,
		StoreTTL:           24 * time.Hour,
		RedisAddr:          "localhost:6379",
		HistorianQueueName: "wordherd_actions",
		HistorianBatchSize: 100,
		HistorianFlush:     5 * time.Second,
		HistorianIdle:      30 * time.Minute,
		OpenAIModel:        "gpt-4o-mini",
		OracleTimeout:      3 * time.Second,
		MatchThreshold:     0.85,
		TypingWindow:       3 * time.Second,
	}
}

func Load() Config {
	cfg := Default()
	if raw := os.Getenv("PORT"); raw != "" {
		cfg.Port = raw
	}
	if raw := os.Getenv("LOG_LEVEL"); raw != "" {
		cfg.LogLevel = strings.ToLower(raw)
	}
	if raw := os.Getenv("STORE_BACKEND"); raw != "" {
		cfg.StoreBackend = strings.ToLower(raw)
	}
	if raw := os.Getenv("STORE_TTL_HOURS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.StoreTTL = time.Duration(value) * time.Hour
		}
	}
	if raw := os.Getenv("REDIS_ADDR"); raw != "" {
		cfg.RedisAddr = raw
	}
	if raw := os.Getenv("REDIS_DB"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value >= 0 {
			cfg.RedisDB = value
		}
	}
	if raw := os.Getenv("HISTORY_ENABLED"); raw != "" {
		if value, err := strconv.ParseBool(raw); err == nil {
			cfg.HistoryEnabled = value
		}
	}
	if raw := os.Getenv("HISTORIAN_QUEUE_NAME"); raw != "" {
		cfg.HistorianQueueName = raw
	}
	if raw := os.Getenv("HISTORIAN_BATCH_SIZE"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.HistorianBatchSize = value
		}
	}
	if raw := os.Getenv("HISTORIAN_FLUSH_MS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.HistorianFlush = time.Duration(value) * time.Millisecond
		}
	}
	if raw := os.Getenv("HISTORIAN_IDLE_MINUTES"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.HistorianIdle = time.Duration(value) * time.Minute
		}
	}
	cfg.DatabaseURL = databaseURL()
	if raw := os.Getenv("OPENAI_API_KEY"); raw != "" {
		cfg.OpenAIAPIKey = raw
	}
	if raw := os.Getenv("OPENAI_MODEL"); raw != "" {
		cfg.OpenAIModel = raw
	}
	if raw := os.Getenv("ORACLE_TIMEOUT_MS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.OracleTimeout = time.Duration(value) * time.Millisecond
		}
	}
	if raw := os.Getenv("MATCH_THRESHOLD"); raw != "" {
		if value, err := strconv.ParseFloat(raw, 64); err == nil && value >= 0 && value <= 1 {
			cfg.MatchThreshold = value
		}
	}
	if raw := os.Getenv("TYPING_WINDOW_MS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.TypingWindow = time.Duration(value) * time.Millisecond
		}
	}
	return cfg
}

// databaseURL prefers DATABASE_URL and otherwise assembles a postgres URL from
// POSTGRES_USER, POSTGRES_PASSWORD, PG_HOST, PG_PORT and PG_DATABASE.
func databaseURL() string {
	if raw := os.Getenv("DATABASE_URL"); raw != "" {
		return raw
	}
	user := os.Getenv("POSTGRES_USER")
	if user == "" {
		return ""
	}
	host := envOr("PG_HOST", "localhost")
	port := envOr("PG_PORT", "5432")
	db := envOr("PG_DATABASE", "wordherd")
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", user, os.Getenv("POSTGRES_PASSWORD"), host, port, db)
}

func envOr(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}
