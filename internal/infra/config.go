package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"engine/internal/domain"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv                string
	Port                  string
	DatabaseURL           string
	CronSecret            string
	ActivityTypes         []domain.ActivityType
	PolicyFile            string
	TrialDestinationClass domain.UserClass
	TrialLength           time.Duration
	TrialBatchConcurrency int
	TrialScheduleInterval time.Duration
	RedisAddr             string
	RedisPassword         string
	RedisDB               int
	RabbitMQURL           string
	TrialEventsQueue      string
	GeoIPDBPath           string
	CORSAllowedOrigins    []string
	RateLimitPerMin       int
	HTTPReadTimeout       time.Duration
	HTTPWriteTimeout      time.Duration
	HTTPIdleTimeout       time.Duration
}

// IsProduction reports whether the service runs with production safeguards.
func (c *Config) IsProduction() bool {
	return c != nil && strings.EqualFold(c.AppEnv, "production")
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:                getEnv("APP_ENV", "development"),
		Port:                  getEnv("PORT", "8080"),
		DatabaseURL:           os.Getenv("DATABASE_URL"),
		CronSecret:            strings.TrimSpace(os.Getenv("CRON_SECRET")),
		PolicyFile:            os.Getenv("POLICY_FILE"),
		TrialDestinationClass: domain.UserClass(strings.ToLower(getEnv("TRIAL_EXPIRY_DESTINATION_CLASS", string(domain.UserClassCore)))),
		TrialLength:           24 * time.Hour * time.Duration(getEnvInt("TRIAL_LENGTH_DAYS", 7)),
		TrialBatchConcurrency: getEnvInt("TRIAL_BATCH_CONCURRENCY", 4),
		TrialScheduleInterval: getEnvDuration("TRIAL_SCHEDULE_INTERVAL", 24*time.Hour),
		RedisAddr:             os.Getenv("REDIS_ADDR"),
		RedisPassword:         os.Getenv("REDIS_PASSWORD"),
		RedisDB:               getEnvInt("REDIS_DB", 0),
		RabbitMQURL:           os.Getenv("RABBITMQ_URL"),
		TrialEventsQueue:      getEnv("TRIAL_EVENTS_QUEUE", "trial.expired"),
		GeoIPDBPath:           os.Getenv("GEOIP_DB_PATH"),
		CORSAllowedOrigins:    splitList(os.Getenv("CORS_ALLOWED_ORIGINS")),
		RateLimitPerMin:       getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
		HTTPReadTimeout:       time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout:      time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 30)),
		HTTPIdleTimeout:       time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.CronSecret == "" {
		return nil, fmt.Errorf("CRON_SECRET is required")
	}

	types, err := parseActivityTypes(os.Getenv("ACTIVITY_TYPES"))
	if err != nil {
		return nil, err
	}
	cfg.ActivityTypes = types

	if !cfg.TrialDestinationClass.Valid() || cfg.TrialDestinationClass == domain.UserClassTrial {
		return nil, fmt.Errorf("TRIAL_EXPIRY_DESTINATION_CLASS %q is not a valid destination", cfg.TrialDestinationClass)
	}
	if cfg.TrialLength <= 0 {
		return nil, fmt.Errorf("TRIAL_LENGTH_DAYS must be positive")
	}
	if cfg.TrialBatchConcurrency < 1 {
		cfg.TrialBatchConcurrency = 1
	}

	return cfg, nil
}

func parseActivityTypes(raw string) ([]domain.ActivityType, error) {
	if strings.TrimSpace(raw) == "" {
		return append([]domain.ActivityType(nil), domain.DefaultActivityTypes...), nil
	}
	known := make(map[domain.ActivityType]struct{}, len(domain.DefaultActivityTypes))
	for _, t := range domain.DefaultActivityTypes {
		known[t] = struct{}{}
	}
	var out []domain.ActivityType
	seen := map[domain.ActivityType]struct{}{}
	for _, part := range strings.Split(raw, ",") {
		t := domain.ActivityType(strings.TrimSpace(part))
		if t == "" {
			continue
		}
		if _, ok := known[t]; !ok {
			return nil, fmt.Errorf("ACTIVITY_TYPES: unknown activity type %q", t)
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("ACTIVITY_TYPES must list at least one activity type")
	}
	return out, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if v := strings.TrimSpace(part); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}
