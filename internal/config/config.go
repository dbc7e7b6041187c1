// Package config содержит логику чтения конфигурации сервиса счетов.
package config

import (
	"flag"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	defaultRunAddress         = "localhost:8080"
	defaultDraftTTL           = 7 * 24 * time.Hour
	defaultLogLevel           = "info"
	defaultRateLimitPerMinute = 120
)

// Config содержит параметры конфигурации сервиса счетов.
type Config struct {
	RunAddress         string        `env:"RUN_ADDRESS"`
	DatabaseURI        string        `env:"DATABASE_URI"`
	RedisAddress       string        `env:"REDIS_ADDRESS"`
	AuthSecret         string        `env:"AUTH_SECRET"`
	DraftTTL           time.Duration `env:"DRAFT_TTL"`
	LogLevel           string        `env:"LOG_LEVEL"`
	RateLimitPerMinute int           `env:"RATE_LIMIT_PER_MINUTE"`
}

// Parse считывает конфигурацию из флагов командной строки и переменных окружения.
// Переменные окружения имеют приоритет над флагами.
func Parse() (*Config, error) {
	envCfg := Config{}
	if err := env.Parse(&envCfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	cfg := &Config{}

	flag.StringVar(&cfg.RunAddress, "a", defaultRunAddress, "address and port for HTTP server")
	flag.StringVar(&cfg.DatabaseURI, "d", "", "database URI")
	flag.StringVar(&cfg.RedisAddress, "r", "", "redis address for invoice drafts")
	flag.StringVar(&cfg.AuthSecret, "s", "", "secret for signing session tokens")
	flag.DurationVar(&cfg.DraftTTL, "t", defaultDraftTTL, "invoice draft lifetime")
	flag.StringVar(&cfg.LogLevel, "l", defaultLogLevel, "log level")
	flag.IntVar(&cfg.RateLimitPerMinute, "rl", defaultRateLimitPerMinute, "client listing requests per minute per IP")

	flag.Parse()

	if envCfg.RunAddress != "" {
		cfg.RunAddress = envCfg.RunAddress
	}
	if envCfg.DatabaseURI != "" {
		cfg.DatabaseURI = envCfg.DatabaseURI
	}
	if envCfg.RedisAddress != "" {
		cfg.RedisAddress = envCfg.RedisAddress
	}
	if envCfg.AuthSecret != "" {
		cfg.AuthSecret = envCfg.AuthSecret
	}
	if envCfg.DraftTTL != 0 {
		cfg.DraftTTL = envCfg.DraftTTL
	}
	if envCfg.LogLevel != "" {
		cfg.LogLevel = envCfg.LogLevel
	}
	if envCfg.RateLimitPerMinute != 0 {
		cfg.RateLimitPerMinute = envCfg.RateLimitPerMinute
	}

	if cfg.RunAddress == "" {
		cfg.RunAddress = defaultRunAddress
	}

	return cfg, nil
}
