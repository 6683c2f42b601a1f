package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv string
	Port   string

	DatabaseURL string

	RedisHost     string
	RedisPort     string
	RedisPassword string

	LockTimeout         time.Duration
	PartyDuration       time.Duration
	PartySweepInterval  time.Duration
	LeaderboardCacheTTL time.Duration

	RateLimitRPS   float64
	RateLimitBurst int
}

func Load() (*Config, error) {
	// .env is optional; production reads the real environment
	_ = godotenv.Load()

	cfg := &Config{
		AppEnv:        getEnv("APP_ENV", "development"),
		Port:          getEnv("PORT", "8080"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		RedisHost:     os.Getenv("REDIS_HOST"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = fmt.Sprintf(
			"postgres://%s:%s@%s:%s/%s?sslmode=disable",
			getEnv("PG_USER", "postgres"),
			os.Getenv("PG_PASSWORD"),
			getEnv("PG_HOST", "localhost"),
			getEnv("PG_PORT", "5432"),
			getEnv("PG_DB", "territory"),
		)
	}

	var err error
	if cfg.LockTimeout, err = parseDuration("LOCK_TIMEOUT", "5s"); err != nil {
		return nil, err
	}
	if cfg.PartyDuration, err = parseDuration("PARTY_DURATION", "3h"); err != nil {
		return nil, err
	}
	if cfg.PartySweepInterval, err = parseDuration("PARTY_SWEEP_INTERVAL", "1m"); err != nil {
		return nil, err
	}
	if cfg.LeaderboardCacheTTL, err = parseDuration("LEADERBOARD_CACHE_TTL", "30s"); err != nil {
		return nil, err
	}

	cfg.RateLimitRPS, err = strconv.ParseFloat(getEnv("RATE_LIMIT_RPS", "5"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_RPS: %w", err)
	}
	cfg.RateLimitBurst, err = strconv.Atoi(getEnv("RATE_LIMIT_BURST", "10"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_BURST: %w", err)
	}

	return cfg, nil
}

// UseRedis reports whether a Redis cache was configured.
func (c *Config) UseRedis() bool {
	return c.RedisHost != ""
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return fallback
}

func parseDuration(key, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(getEnv(key, fallback))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid %s: must be positive", key)
	}
	return d, nil
}
