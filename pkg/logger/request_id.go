package logger

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MaxRequestIDLength - предельная длина идентификатора, принятого от клиента.
const MaxRequestIDLength = 128

// RequestIDValue - идентификатор запроса, прошедший проверку.
type RequestIDValue string

type requestIDKey struct{}

// ParseRequestID проверяет идентификатор из заголовка X-Request-ID.
// Допустимы латинские буквы, цифры и символы ".-_:" длиной до MaxRequestIDLength.
func ParseRequestID(raw string) (RequestIDValue, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" || len(raw) > MaxRequestIDLength {
		return "", false
	}
	for i := 0; i < len(raw); i++ {
		if !requestIDChar(raw[i]) {
			return "", false
		}
	}
	return RequestIDValue(raw), true
}

func requestIDChar(b byte) bool {
	switch {
	case b >= 'a' && b <= 'z', b >= 'A' && b <= 'Z', b >= '0' && b <= '9':
		return true
	case b == '.', b == '-', b == '_', b == ':':
		return true
	}
	return false
}

// NewRequestIDContext сохраняет идентификатор запроса в контексте.
// Пустой или недопустимый идентификатор заменяется сгенерированным.
func NewRequestIDContext(ctx context.Context, raw string) context.Context {
	id, ok := ParseRequestID(raw)
	if !ok {
		id = RequestIDValue(GenerateRequestID())
	}
	return context.WithValue(ctx, requestIDKey{}, id)
}

// GetRequestID извлекает идентификатор запроса из контекста.
func GetRequestID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(requestIDKey{}).(RequestIDValue)
	return string(id), ok
}

// GenerateRequestID генерирует новый идентификатор запроса.
func GenerateRequestID() string {
	return uuid.NewString()
}

// WithRequestID возвращает копию logger с полем request_id.
func (l *Logger) WithRequestID(ctx context.Context) *Logger {
	id, ok := GetRequestID(ctx)
	if !ok {
		return l
	}
	return l.With(zap.String(RequestID, id))
}
