package cache

import (
	"context"
	"errors"
	"time"
)

// ErrCacheMiss возвращается, когда ключ отсутствует в кэше
var ErrCacheMiss = errors.New("cache: ключ не найден")

// Cache — интерфейс кэша. Кэш используется только как ускорение чтения:
// его недоступность никогда не должна ронять основную операцию,
// поэтому все вызовы на стороне сервисов обернуты в best-effort обработку.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// NoopCache — заглушка кэша: используется в тестах и когда Redis недоступен
// или отключен в конфигурации
type NoopCache struct{}

// NewNoopCache создает новый NoopCache
func NewNoopCache() *NoopCache {
	return &NoopCache{}
}

// Get всегда сообщает о промахе
func (c *NoopCache) Get(ctx context.Context, key string) ([]byte, error) {
	return nil, ErrCacheMiss
}

// Set ничего не сохраняет
func (c *NoopCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return nil
}

// Delete ничего не удаляет
func (c *NoopCache) Delete(ctx context.Context, key string) error {
	return nil
}
