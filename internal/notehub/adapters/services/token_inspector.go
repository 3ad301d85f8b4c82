// Package services содержит реализации сервисных портов клиента NoteHub.
package services

import (
	"context"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"notehub/internal/notehub/ports/services"
	"notehub/pkg/logger"
)

// Константы для логирования.
const (
	methodInspectToken = "InspectToken"
	msgInspectingToken = "inspecting api token"
	msgOpaqueToken     = "api token is not a JWT, expiry unknown"
	msgTokenInspected  = "api token inspected"
	bearerPrefix       = "Bearer "
)

// JWTInspector реализует TokenInspector. Подпись не проверяется:
// токен выпущен NoteHub, ключа у клиента нет.
type JWTInspector struct {
	parser *jwt.Parser
	now    func() time.Time
}

// NewTokenInspector создает инспектор токенов.
func NewTokenInspector(now func() time.Time) services.TokenInspector {
	if now == nil {
		now = time.Now
	}
	return &JWTInspector{parser: jwt.NewParser(), now: now}
}

// Inspect разбирает токен. Токен, не являющийся JWT, не считается ошибкой.
func (i *JWTInspector) Inspect(ctx context.Context, token string) (services.TokenInfo, error) {
	log := logger.Log(ctx).With(zap.String("method", methodInspectToken))
	log.Debug(ctx, msgInspectingToken)

	token = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(token), bearerPrefix))
	if token == "" {
		return services.TokenInfo{}, services.ErrTokenMissing
	}

	claims := &jwt.RegisteredClaims{}
	if _, _, err := i.parser.ParseUnverified(token, claims); err != nil {
		log.Debug(ctx, msgOpaqueToken, zap.Error(err))
		return services.TokenInfo{Opaque: true}, nil
	}

	info := services.TokenInfo{Subject: claims.Subject}
	if claims.ExpiresAt != nil {
		info.ExpiresAt = claims.ExpiresAt.Time
		info.Expired = !i.now().Before(info.ExpiresAt)
	}

	log.Debug(ctx, msgTokenInspected,
		zap.String("subject", info.Subject),
		zap.Time("expires_at", info.ExpiresAt),
		zap.Bool("expired", info.Expired))
	return info, nil
}
