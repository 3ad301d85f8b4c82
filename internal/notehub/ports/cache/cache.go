// Package cache определяет интерфейс общего уровня кэша.
package cache

import (
	"context"
	"time"
)

// Cache определяет интерфейс для работы с кэшем.
// Get возвращает пустую строку без ошибки, если ключа нет.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)

	Set(ctx context.Context, key string, value string, ttl time.Duration) error

	Delete(ctx context.Context, key string) error

	// DeletePrefix удаляет все ключи с указанным префиксом.
	DeletePrefix(ctx context.Context, prefix string) error

	Close() error
}
