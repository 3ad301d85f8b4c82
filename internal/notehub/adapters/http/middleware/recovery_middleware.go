package middleware

import (
	"fmt"
	"runtime/debug"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"notehub/internal/notehub/app/dto"
	"notehub/pkg/logger"
)

const (
	LogServerPanic          = "server panic"
	LogPanicResponseFailed  = "failed to send error response after panic"
	ErrMsgInternalServerErr = "Internal Server Error"
)

// NewRecoveryMiddleware создает промежуточное ПО для восстановления после паники.
func NewRecoveryMiddleware() fiber.Handler {
	return func(c fiber.Ctx) (err error) {
		requestCtx := RequestContext(c)
		log := logger.Log(requestCtx)

		defer func() {
			if r := recover(); r != nil {
				log.Error(requestCtx, LogServerPanic,
					zap.String("error", fmt.Sprintf("%v", r)),
					zap.String("stack", string(debug.Stack())),
				)

				if sendErr := c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
					Error: ErrMsgInternalServerErr,
				}); sendErr != nil {
					log.Error(requestCtx, LogPanicResponseFailed, zap.Error(sendErr))
				}
				err = nil
			}
		}()

		return c.Next()
	}
}
