package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"time"
)

const seenPrefix = "news:seen:"

// SeenSet множество уже отправленных ссылок с ограниченным временем жизни.
type SeenSet struct {
	cache *Cache
	ttl   time.Duration
}

// NewSeenSet конструктор.
func NewSeenSet(c *Cache, ttl time.Duration) *SeenSet {
	return &SeenSet{cache: c, ttl: ttl}
}

// MarkSeen атомарно отмечает ссылку и возвращает true, если она встречена впервые.
func (s *SeenSet) MarkSeen(ctx context.Context, link string) (bool, error) {
	const op = "cache.SeenSet.MarkSeen"

	added, err := s.cache.Db.SetNX(ctx, seenKey(link), 1, s.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return added, nil
}

// Forget удаляет отметку ссылки.
func (s *SeenSet) Forget(ctx context.Context, link string) error {
	const op = "cache.SeenSet.Forget"

	if err := s.cache.Db.Del(ctx, seenKey(link)).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func seenKey(link string) string {
	sum := sha1.Sum([]byte(link))
	return seenPrefix + hex.EncodeToString(sum[:])
}
