// Package cache содержит порт кэша, его Redis-реализацию и слой
// инвалидации, поддерживающий согласованность производных представлений
// (счётчики, календари) при мутациях бронирований.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrMiss возвращается при отсутствии ключа в кэше
var ErrMiss = errors.New("cache miss")

// Cache — порт кэша. Передаётся явно, глобального состояния нет.
// Инвалидация идемпотентна: удаление отсутствующего ключа — не ошибка.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	DeletePattern(ctx context.Context, pattern string) error
}
