// Package config загружает конфигурацию из файла или переменных окружения.
package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
	"go.uber.org/zap"

	"notehub/pkg/logger"
)

const (
	msgLoadingConfiguration    = "loading configuration"
	msgConfigurationLoaded     = "configuration loaded successfully"
	msgFailedLoadConfiguration = "failed to load configuration"
	msgConfigFileMissing       = "config file not found, using environment"

	errFailedLoadConfiguration = "failed to load configuration"

	attrService = "service"
	attrPath    = "path"
)

// Load заполняет T. Если path указывает на существующий файл (yaml, json, toml, env),
// значения читаются из него и перекрываются переменными окружения,
// иначе используются только переменные окружения и env-default.
func Load[T any](ctx context.Context, serviceName, path string) (*T, error) {
	log := logger.Log(ctx).With(zap.String(attrService, serviceName))

	var cfg T

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			log.Info(ctx, msgLoadingConfiguration, zap.String(attrPath, path))
			if err := cleanenv.ReadConfig(path, &cfg); err != nil {
				log.Error(ctx, msgFailedLoadConfiguration, zap.Error(err))
				return nil, fmt.Errorf("%s: %w", errFailedLoadConfiguration, err)
			}
			log.Info(ctx, msgConfigurationLoaded)
			return &cfg, nil
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", errFailedLoadConfiguration, err)
		}
		log.Warn(ctx, msgConfigFileMissing, zap.String(attrPath, path))
	}

	log.Info(ctx, msgLoadingConfiguration)
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		log.Error(ctx, msgFailedLoadConfiguration, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", errFailedLoadConfiguration, err)
	}
	log.Info(ctx, msgConfigurationLoaded)

	return &cfg, nil
}
