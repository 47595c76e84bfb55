package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const cooldownPrefix = "signals:cooldown:"

// CooldownStore хранит время последней отправки сигнала по ключу.
// Ключ живёт не дольше окна кулдауна, после рестарта окна сохраняются.
type CooldownStore struct {
	cache *Cache
}

// NewCooldownStore конструктор.
func NewCooldownStore(c *Cache) *CooldownStore {
	return &CooldownStore{cache: c}
}

// Last время последней отправки. false, если отметки нет.
func (s *CooldownStore) Last(ctx context.Context, key string) (time.Time, bool, error) {
	const op = "cache.CooldownStore.Last"

	val, err := s.cache.Db.Get(ctx, cooldownPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("%s: %w", op, err)
	}
	nanos, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("%s: %w", op, err)
	}
	return time.Unix(0, nanos), true, nil
}

// Put запоминает отправку в момент at.
func (s *CooldownStore) Put(ctx context.Context, key string, at time.Time, ttl time.Duration) error {
	const op = "cache.CooldownStore.Put"

	if err := s.cache.Db.Set(ctx, cooldownPrefix+key, strconv.FormatInt(at.UnixNano(), 10), ttl).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
