package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

type brokenStore struct{}

func (brokenStore) Last(context.Context, string) (time.Time, bool, error) {
	return time.Time{}, false, errors.New("redis: connection refused")
}

func (brokenStore) Put(context.Context, string, time.Time, time.Duration) error {
	return errors.New("redis: connection refused")
}

func TestCooldownTracker_Premium(t *testing.T) {
	ctx := context.Background()
	tracker := NewCooldownTracker(NewMemoryStore(), time.Hour, 4*time.Hour, newNoopLogger())
	t0 := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	assert.True(t, tracker.ShouldEmit(ctx, "BTC/USDT", TierPremium, t0))
	tracker.Record(ctx, "BTC/USDT", TierPremium, t0)

	tests := []struct {
		name   string
		symbol string
		at     time.Time
		want   bool
	}{
		{name: "same symbol inside window", symbol: "BTC/USDT", at: t0.Add(59 * time.Minute), want: false},
		{name: "same symbol at window end", symbol: "BTC/USDT", at: t0.Add(time.Hour), want: true},
		{name: "other symbol unaffected", symbol: "ETH/USDT", at: t0.Add(time.Minute), want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tracker.ShouldEmit(ctx, tt.symbol, TierPremium, tt.at))
		})
	}
}

func TestCooldownTracker_FreeSlotIsShared(t *testing.T) {
	ctx := context.Background()
	tracker := NewCooldownTracker(NewMemoryStore(), time.Hour, 4*time.Hour, newNoopLogger())
	t0 := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	tracker.Record(ctx, "BTC/USDT", TierFree, t0)

	assert.False(t, tracker.ShouldEmit(ctx, "AAPL", TierFree, t0.Add(time.Hour)))
	assert.False(t, tracker.ShouldEmit(ctx, "BTC/USDT", TierFree, t0.Add(3*time.Hour+59*time.Minute)))
	assert.True(t, tracker.ShouldEmit(ctx, "GC=F", TierFree, t0.Add(4*time.Hour)))
	// бесплатный слот не трогает окна премиума
	assert.True(t, tracker.ShouldEmit(ctx, "BTC/USDT", TierPremium, t0))
}

func TestCooldownTracker_StoreErrorFailsOpen(t *testing.T) {
	tracker := NewCooldownTracker(brokenStore{}, time.Hour, 4*time.Hour, newNoopLogger())
	now := time.Now()

	tracker.Record(context.Background(), "BTC/USDT", TierPremium, now)
	assert.True(t, tracker.ShouldEmit(context.Background(), "BTC/USDT", TierPremium, now))
}
