// Package middleware содержит промежуточное ПО для HTTP обработчиков.
package middleware

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"notehub/pkg/logger"
)

// Константы для логирования.
const (
	LogRequestStarted   = "request started"
	LogRequestCompleted = "request completed"
	LogRequestFailed    = "request failed"

	// HeaderRequestID - заголовок с идентификатором запроса.
	HeaderRequestID = "X-Request-ID"
	// LocalsRequestContext - ключ Locals с контекстом запроса.
	LocalsRequestContext = "userContext"
)

// RequestContext возвращает контекст запроса, подготовленный NewLoggerMiddleware.
func RequestContext(c fiber.Ctx) context.Context {
	if ctx, ok := c.Locals(LocalsRequestContext).(context.Context); ok {
		return ctx
	}
	return context.Background()
}

// NewLoggerMiddleware создает промежуточное ПО, которое присваивает запросу
// идентификатор и логирует начало и завершение обработки.
// Контекст запроса не наследует fasthttp.RequestCtx: он переживает ответ
// в фоновых запросах кэша.
func NewLoggerMiddleware() fiber.Handler {
	return func(c fiber.Ctx) error {
		start := time.Now()

		requestCtx := logger.NewRequestIDContext(context.Background(), c.Get(HeaderRequestID))
		requestID, _ := logger.GetRequestID(requestCtx)
		c.Locals(LocalsRequestContext, requestCtx)
		c.Set(HeaderRequestID, requestID)

		log := logger.Log(requestCtx).With(
			zap.String("path", c.Path()),
			zap.String("method", c.Method()),
			zap.String("ip", c.IP()),
		)
		log.Debug(requestCtx, LogRequestStarted)

		err := c.Next()

		logFields := []zap.Field{
			zap.Int("status", c.Response().StatusCode()),
			zap.Duration("latency", time.Since(start)),
		}

		if err != nil {
			log.Error(requestCtx, LogRequestFailed, append(logFields, zap.Error(err))...)
			return fmt.Errorf("request processing error: %w", err)
		}

		log.Info(requestCtx, LogRequestCompleted, logFields...)
		return nil
	}
}
