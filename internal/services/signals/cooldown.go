package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/magabrotheeeer/signal-club/internal/lib/sl"
)

// Tier канал распространения сигнала.
type Tier int

const (
	// TierPremium платная группа категории, кулдаун по символу.
	TierPremium Tier = iota
	// TierFree бесплатная группа, один общий слот на все символы.
	TierFree
)

func (t Tier) String() string {
	if t == TierFree {
		return "free"
	}
	return "premium"
}

const freeSlotKey = "free"

// CooldownStore хранилище отметок последней отправки.
type CooldownStore interface {
	Last(ctx context.Context, key string) (time.Time, bool, error)
	Put(ctx context.Context, key string, at time.Time, ttl time.Duration) error
}

// MemoryStore хранилище в памяти процесса, теряется при рестарте.
type MemoryStore struct {
	mu   sync.Mutex
	last map[string]time.Time
}

// NewMemoryStore конструктор.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{last: make(map[string]time.Time)}
}

// Last реализует CooldownStore.
func (m *MemoryStore) Last(_ context.Context, key string) (time.Time, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.last[key]
	return t, ok, nil
}

// Put реализует CooldownStore. ttl не используется: устаревшая отметка
// просто перестаёт влиять на решение.
func (m *MemoryStore) Put(_ context.Context, key string, at time.Time, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.last[key] = at
	return nil
}

// CooldownTracker решает, можно ли отправить сигнал в данный канал.
// Premium: окно на символ. Free: одно окно на все символы и категории.
type CooldownTracker struct {
	store   CooldownStore
	premium time.Duration
	free    time.Duration
	log     *slog.Logger
}

// NewCooldownTracker конструктор.
func NewCooldownTracker(store CooldownStore, premium, free time.Duration, log *slog.Logger) *CooldownTracker {
	return &CooldownTracker{store: store, premium: premium, free: free, log: log}
}

// ShouldEmit true, если с последней отправки прошло не меньше окна.
// Ошибка хранилища не блокирует отправку.
func (c *CooldownTracker) ShouldEmit(ctx context.Context, symbol string, tier Tier, now time.Time) bool {
	key, window := c.slot(symbol, tier)
	last, ok, err := c.store.Last(ctx, key)
	if err != nil {
		c.log.Warn("cooldown lookup failed", slog.String("key", key), sl.Err(err))
		return true
	}
	if !ok {
		return true
	}
	return now.Sub(last) >= window
}

// Record запоминает отправку в момент now.
func (c *CooldownTracker) Record(ctx context.Context, symbol string, tier Tier, now time.Time) {
	key, window := c.slot(symbol, tier)
	if err := c.store.Put(ctx, key, now, window); err != nil {
		c.log.Warn("cooldown record failed", slog.String("key", key), sl.Err(err))
	}
}

func (c *CooldownTracker) slot(symbol string, tier Tier) (string, time.Duration) {
	if tier == TierFree {
		return freeSlotKey, c.free
	}
	return "premium:" + symbol, c.premium
}
