// Package ratelimit ограничивает частоту операций счётчиком в Redis.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

//go:generate mockgen -destination=mocks/mock_limiter.go -package=mocks github.com/Totarae/scanlink/internal/ratelimit Limiter

// Limiter решает, можно ли выполнить ещё одну операцию по ключу.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// RedisLimiter фиксированное окно. Срок жизни счётчика задаётся только при
// создании ключа, поэтому отклонённые попытки окно не продлевают.
// Без клиента или с limit <= 0 пропускает всё.
type RedisLimiter struct {
	client *redis.Client
	limit  int64
	window time.Duration
	prefix string
}

var _ Limiter = (*RedisLimiter)(nil)

// NewClient разбирает REDIS_URL. Пустой URL означает работу без Redis.
func NewClient(redisURL string) (*redis.Client, error) {
	if redisURL == "" {
		return nil, nil
	}
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return redis.NewClient(opt), nil
}

// New создаёт лимитер. prefix отделяет ключи разных лимитов.
func New(client *redis.Client, prefix string, limit int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{client: client, limit: int64(limit), window: window, prefix: prefix}
}

// Allow увеличивает счётчик окна. При ошибке Redis операция разрешается,
// а ошибка возвращается вызывающему для логирования.
func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	if l == nil || l.client == nil || l.limit <= 0 {
		return true, nil
	}
	k := l.prefix + key
	pipe := l.client.TxPipeline()
	pipe.SetNX(ctx, k, 0, l.window)
	incr := pipe.Incr(ctx, k)
	if _, err := pipe.Exec(ctx); err != nil {
		return true, fmt.Errorf("rate limit %s: %w", k, err)
	}
	return incr.Val() <= l.limit, nil
}
