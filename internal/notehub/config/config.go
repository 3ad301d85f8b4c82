// Package config содержит конфигурацию клиента NoteHub.
package config

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	pkgconfig "notehub/pkg/config"
	"notehub/pkg/logger"
)

// ServiceName - имя сервиса в логах.
const ServiceName = "notehub"

const (
	LogConfigLoaded     = "notehub configuration"
	ErrFailedLoadConfig = "failed to load configuration"
)

// Config представляет полную конфигурацию клиента.
type Config struct {
	API      APIConfig      `yaml:"api"`
	Query    QueryConfig    `yaml:"query"`
	Search   SearchConfig   `yaml:"search"`
	HTTP     HTTPConfig     `yaml:"http"`
	Logging  LoggingConfig  `yaml:"logging"`
	Shutdown ShutdownConfig `yaml:"shutdown"`
	Redis    RedisConfig    `yaml:"redis"`
}

// Load загружает конфигурацию из файла path (если он есть) и переменных окружения.
func Load(ctx context.Context, path string) (*Config, error) {
	log := logger.Log(ctx)

	cfg, err := pkgconfig.Load[Config](ctx, ServiceName, path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrFailedLoadConfig, err)
	}

	log.Info(ctx, LogConfigLoaded,
		zap.String("api_base_url", cfg.API.BaseURL),
		zap.Bool("api_token_set", cfg.API.Token != ""),
		zap.Int("query_per_page", cfg.Query.PerPage),
		zap.Bool("query_keep_previous", cfg.Query.KeepPreviousData),
		zap.Duration("query_stale_time", cfg.Query.StaleTime),
		zap.Duration("query_gc_time", cfg.Query.GCTime),
		zap.Duration("search_debounce", cfg.Search.Debounce),
		zap.String("http_address", cfg.HTTP.GetAddress()),
		zap.String("log_level", cfg.Logging.Level),
		zap.String("log_mode", cfg.Logging.Mode),
		zap.Bool("redis_enabled", cfg.Redis.Enabled),
		zap.Int("shutdown_timeout_seconds", cfg.Shutdown.Timeout))

	return cfg, nil
}
