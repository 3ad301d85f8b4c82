package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"notehub/internal/notehub/adapters/cache"
	httpServer "notehub/internal/notehub/adapters/http"
	"notehub/internal/notehub/adapters/rest/notes"
	adapterServices "notehub/internal/notehub/adapters/services"
	"notehub/internal/notehub/app/query"
	"notehub/internal/notehub/app/services"
	"notehub/internal/notehub/app/shell"
	"notehub/internal/notehub/config"
	cachePorts "notehub/internal/notehub/ports/cache"
	portServices "notehub/internal/notehub/ports/services"
	"notehub/internal/notehub/resilience"
	"notehub/pkg/logger"
	"notehub/pkg/shutdown"
)

// Константы для переменных окружения.
const (
	EnvLoggerMode  = "NOTEHUB_LOGGER_MODE"
	EnvLoggerLevel = "NOTEHUB_LOGGER_LEVEL"
	EnvConfigPath  = "NOTEHUB_CONFIG"
)

// Константы для сообщений об ошибках.
const (
	ErrInitLogger           = "failed to initialize logger"
	ErrSyncLogger           = "failed to sync logger"
	ErrLoadConfig           = "failed to load configuration"
	ErrInitLoggerWithConfig = "failed to initialize logger with configuration settings"
	ErrCreateRedisClient    = "failed to create Redis client"
	ErrStartHTTPServer      = "failed to start HTTP server"
)

// Константы для игнорируемых ошибок.
const (
	ErrSyncStderr = "sync /dev/stderr: invalid argument"
	ErrSyncStdout = "sync /dev/stdout: invalid argument"
)

// Константы для сообщений сервиса.
const (
	LogServiceStarted      = "notehub client started"
	LogServiceShutdownDone = "notehub client shutdown complete"
	LogTokenMissing        = "NOTEHUB_TOKEN is not set, requests will be unauthenticated"
	LogTokenExpired        = "NOTEHUB_TOKEN has expired, the API will reject requests"
	LogTokenOpaque         = "NOTEHUB_TOKEN is not a JWT, expiry cannot be checked"
	LogInitClient          = "initializing notehub client"
	LogInitCache           = "initializing cache"
	LogInitShell           = "initializing view model"
	LogInitHTTPServer      = "initializing HTTP server"
	LogStartingHTTP        = "starting HTTP server"
	LogStoppingHTTP        = "stopping HTTP server"
	LogClosingShell        = "closing view model"
	LogClosingCache        = "closing shared cache"
)

func main() {
	env := logger.Development
	if strings.ToLower(os.Getenv(EnvLoggerMode)) == "production" {
		env = logger.Production
	}

	log, err := logger.NewLogger(env, os.Getenv(EnvLoggerLevel))
	if err != nil {
		panic(ErrInitLogger + ": " + err.Error())
	}

	logger.SetGlobalLogger(log)

	ctx := logger.NewRequestIDContext(context.Background(), "")

	var exitCode int

	func() {
		defer func() {
			if err := log.Sync(); err != nil {
				errMsg := err.Error()
				if strings.Contains(errMsg, ErrSyncStderr) || strings.Contains(errMsg, ErrSyncStdout) {
					return
				}
				if _, writeErr := fmt.Fprintf(os.Stderr, "%s: %v\n", ErrSyncLogger, err); writeErr != nil {
					panic(writeErr)
				}
			}
		}()

		cfg, err := config.Load(ctx, os.Getenv(EnvConfigPath))
		if err != nil {
			log.Error(ctx, ErrLoadConfig, zap.Error(err))
			exitCode = 1
			return
		}

		finalLogger, err := logger.NewLogger(cfg.Logging.GetEnvironment(), cfg.Logging.Level)
		if err != nil {
			log.Error(ctx, ErrInitLoggerWithConfig, zap.Error(err))
			exitCode = 1
			return
		}
		logger.SetGlobalLogger(finalLogger)
		log = finalLogger

		log.Info(ctx, LogServiceStarted,
			zap.String("environment", string(cfg.Logging.GetEnvironment())),
			zap.String("log_level", cfg.Logging.Level),
			zap.String("startup_time", time.Now().Format(time.RFC3339)))

		inspectToken(ctx, log, cfg.API.Token)

		log.Info(ctx, LogInitClient, zap.String("base_url", cfg.API.BaseURL))
		notesService := services.NewNotesService(notes.NewClient(&cfg.API), resilience.CircuitBreakerConfig{
			ErrorThreshold:   cfg.API.BreakerErrorThreshold,
			Timeout:          cfg.API.BreakerTimeout,
			SuccessThreshold: cfg.API.BreakerSuccessThreshold,
		})

		log.Info(ctx, LogInitCache, zap.Bool("redis", cfg.Redis.Enabled))
		var shared cachePorts.Cache
		if cfg.Redis.Enabled {
			shared, err = cache.NewRedisCache(ctx, &cfg.Redis)
			if err != nil {
				log.Error(ctx, ErrCreateRedisClient, zap.Error(err))
				exitCode = 1
				return
			}
		} else {
			shared = cache.NewMemoryCache(cfg.Query.StaleTime)
		}

		queryCache := query.New(shell.ListFetcher(notesService), query.Options{
			KeepPreviousData: cfg.Query.KeepPreviousData,
			StaleTime:        cfg.Query.StaleTime,
			GCTime:           cfg.Query.GCTime,
			Shared:           shared,
		})

		log.Info(ctx, LogInitShell)
		viewModel := shell.New(ctx, notesService, queryCache, shell.Options{
			PerPage:  cfg.Query.PerPage,
			Debounce: cfg.Search.Debounce,
		})

		log.Info(ctx, LogInitHTTPServer)
		app := fiber.New(fiber.Config{
			ReadTimeout:  cfg.HTTP.ReadTimeout,
			WriteTimeout: cfg.HTTP.WriteTimeout,
		})

		httpServer.SetupRouter(app, viewModel, cfg.HTTP.WriteTimeout)

		log.Info(ctx, LogStartingHTTP, zap.String("address", cfg.HTTP.GetAddress()))
		go func() {
			if err := app.Listen(cfg.HTTP.GetAddress()); err != nil {
				log.Error(ctx, ErrStartHTTPServer, zap.Error(err))
			}
		}()

		shutdown.Wait(ctx, cfg.Shutdown.GetTimeout(),
			// Остановка HTTP сервера и модели представления.
			func(ctx context.Context) error {
				log.Info(ctx, LogStoppingHTTP)
				if err := app.Shutdown(); err != nil {
					return err
				}
				log.Info(ctx, LogClosingShell)
				viewModel.Close()

				log.Info(ctx, LogClosingCache)
				return shared.Close()
			},
		)

		log.Info(ctx, LogServiceShutdownDone)
	}()

	if exitCode != 0 {
		os.Exit(exitCode)
	}
}

// inspectToken предупреждает о пустом или просроченном токене. Запуск не прерывается.
func inspectToken(ctx context.Context, log *logger.Logger, token string) {
	info, err := adapterServices.NewTokenInspector(time.Now).Inspect(ctx, token)
	switch {
	case errors.Is(err, portServices.ErrTokenMissing):
		log.Warn(ctx, LogTokenMissing)
	case err != nil:
		log.Warn(ctx, LogTokenOpaque, zap.Error(err))
	case info.Opaque:
		log.Info(ctx, LogTokenOpaque)
	case info.Expired:
		log.Warn(ctx, LogTokenExpired, zap.Time("expired_at", info.ExpiresAt))
	}
}
