package config

import (
	"fmt"
	"os"
	"strconv"
	"strings" // For LogLevel normalization
	"time"
	_ "time/tzdata" // zoneinfo for hosts without it

	"github.com/joho/godotenv"
)

const (
	defaultTimezone         = "Asia/Jakarta"
	defaultCronSpecDaily    = "0 7 * * *" // 07:00 every day in the app timezone
	defaultHTTPAddr         = ":8080"
	defaultNotifyThreshold  = 1
	defaultPushBatchSize    = 100 // Expo accepts at most 100 messages per request
	defaultBatchesPerSecond = 5
	defaultJobTimeout       = 5 * time.Minute
	defaultPushTimeout      = 30 * time.Second
)

// AppConfig holds all configuration for the application
type AppConfig struct {
	DatabaseURL          string
	JWTSecret            string
	LogLevel             string
	Environment          string
	Timezone             string
	Location             *time.Location
	CronSpecDaily        string
	HTTPAddr             string
	NotifyThreshold      int
	AdminRoles           []string
	PushBatchSize        int
	PushBatchesPerSecond float64
	PushTimeout          time.Duration // HTTP timeout of one push request
	TelegramToken        string        // optional; enables operator run reports together with OperatorTelegramID
	OperatorTelegramID   int64
	JobTimeout           time.Duration
}

// Load reads configuration from environment variables and .env file (if present).
func Load() (*AppConfig, error) {
	// godotenv.Load will not override existing env variables.
	_ = godotenv.Load()

	cfg := &AppConfig{}
	var err error

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}

	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is not set")
	}

	cfg.LogLevel = strings.ToLower(os.Getenv("LOG_LEVEL"))
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	cfg.Environment = strings.ToLower(os.Getenv("ENVIRONMENT"))
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}

	cfg.Timezone = os.Getenv("APP_TIMEZONE")
	if cfg.Timezone == "" {
		cfg.Timezone = defaultTimezone
	}
	cfg.Location, err = time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid APP_TIMEZONE: %w", err)
	}

	cfg.CronSpecDaily = os.Getenv("CRON_SPEC_DAILY")
	if cfg.CronSpecDaily == "" {
		cfg.CronSpecDaily = defaultCronSpecDaily
	}

	cfg.HTTPAddr = os.Getenv("HTTP_ADDR")
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = defaultHTTPAddr
	}

	cfg.NotifyThreshold, err = intFromEnv("NOTIFY_THRESHOLD", defaultNotifyThreshold)
	if err != nil {
		return nil, err
	}
	if cfg.NotifyThreshold < 1 {
		return nil, fmt.Errorf("NOTIFY_THRESHOLD must be at least 1, got %d", cfg.NotifyThreshold)
	}

	cfg.AdminRoles = splitList(os.Getenv("ADMIN_ROLES"))
	if len(cfg.AdminRoles) == 0 {
		cfg.AdminRoles = []string{"admin"}
	}

	cfg.PushBatchSize, err = intFromEnv("PUSH_BATCH_SIZE", defaultPushBatchSize)
	if err != nil {
		return nil, err
	}
	if cfg.PushBatchSize < 1 || cfg.PushBatchSize > defaultPushBatchSize {
		return nil, fmt.Errorf("PUSH_BATCH_SIZE must be between 1 and %d, got %d", defaultPushBatchSize, cfg.PushBatchSize)
	}

	cfg.PushBatchesPerSecond = defaultBatchesPerSecond
	if v := os.Getenv("PUSH_BATCHES_PER_SECOND"); v != "" {
		cfg.PushBatchesPerSecond, err = strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid PUSH_BATCHES_PER_SECOND: %w", err)
		}
		if cfg.PushBatchesPerSecond <= 0 {
			return nil, fmt.Errorf("PUSH_BATCHES_PER_SECOND must be positive")
		}
	}

	cfg.TelegramToken = os.Getenv("TELEGRAM_TOKEN")
	if idStr := os.Getenv("OPERATOR_TELEGRAM_ID"); idStr != "" {
		cfg.OperatorTelegramID, err = strconv.ParseInt(idStr, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid OPERATOR_TELEGRAM_ID: %w", err)
		}
	}
	if cfg.TelegramToken != "" && cfg.OperatorTelegramID == 0 {
		return nil, fmt.Errorf("OPERATOR_TELEGRAM_ID is required when TELEGRAM_TOKEN is set")
	}

	cfg.JobTimeout, err = durationFromEnv("JOB_TIMEOUT", defaultJobTimeout)
	if err != nil {
		return nil, err
	}

	cfg.PushTimeout, err = durationFromEnv("PUSH_TIMEOUT", defaultPushTimeout)
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

// OperatorReportsEnabled reports whether run reports go to a Telegram chat.
func (c *AppConfig) OperatorReportsEnabled() bool {
	return c.TelegramToken != "" && c.OperatorTelegramID != 0
}

func intFromEnv(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func durationFromEnv(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive", key)
	}
	return d, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, strings.ToLower(p))
		}
	}
	return out
}
