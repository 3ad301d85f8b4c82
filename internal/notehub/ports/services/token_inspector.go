package services

import (
	"context"
	"errors"
	"time"
)

// ErrTokenMissing возвращается, если токен не задан.
var ErrTokenMissing = errors.New("api token is not set")

// TokenInfo - сведения о токене доступа, прочитанные без проверки подписи.
type TokenInfo struct {
	// Opaque - токен не является JWT, срок действия неизвестен.
	Opaque    bool
	Subject   string
	ExpiresAt time.Time
	Expired   bool
}

// TokenInspector читает сведения о токене доступа к NoteHub.
type TokenInspector interface {
	Inspect(ctx context.Context, token string) (TokenInfo, error)
}
