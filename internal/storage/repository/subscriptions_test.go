package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/signal-club/internal/models"
)

func TestStorage_CreateSubscription(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()
	ctx := context.Background()

	userID, packageID := vipSetup(t, storage)
	start := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

	sub, err := storage.CreateSubscription(ctx, userID, packageID, start)
	require.NoError(t, err)
	assert.True(t, sub.EndDate.Equal(time.Date(2024, 1, 31, 10, 0, 0, 0, time.UTC)), "got %s", sub.EndDate)
	assert.Equal(t, models.SubscriptionActive, sub.Status)
	assert.Equal(t, models.InvitePending, sub.InviteStatus)

	_, err = storage.CreateSubscription(ctx, userID, 9999, start)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStorage_ExpireSubscription_Idempotent(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()
	ctx := context.Background()

	userID, packageID := vipSetup(t, storage)
	factory := NewTestDataFactory(storage)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	id := factory.CreateSubscription(t, userID, packageID, start, start.AddDate(0, 0, 30),
		models.SubscriptionActive, models.InviteSent)

	now := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	expired, err := storage.FindExpiredSubscriptions(ctx, now)
	require.NoError(t, err)
	require.Len(t, expired, 1)
	assert.Equal(t, "alice", expired[0].Username)
	assert.Equal(t, "VIP", expired[0].PackageName)

	changed, err := storage.ExpireSubscription(ctx, id)
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = storage.ExpireSubscription(ctx, id)
	require.NoError(t, err)
	assert.False(t, changed, "second expiration must be a no-op")

	expired, err = storage.FindExpiredSubscriptions(ctx, now)
	require.NoError(t, err)
	assert.Empty(t, expired)
	NewTestVerification(storage).VerifySubscriptionStatus(t, id, models.SubscriptionExpired)
}

func TestStorage_FindSubscriptionsEndingBetween(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()
	ctx := context.Background()

	userID, packageID := vipSetup(t, storage)
	factory := NewTestDataFactory(storage)
	start := time.Date(2024, 1, 1, 15, 30, 0, 0, time.UTC)
	factory.CreateSubscription(t, userID, packageID, start, start.AddDate(0, 0, 30),
		models.SubscriptionActive, models.InviteSent)
	factory.CreateSubscription(t, userID, packageID, start, time.Date(2024, 1, 31, 23, 0, 0, 0, time.UTC),
		models.SubscriptionExpired, models.InviteSent)

	tests := []struct {
		name string
		day  time.Time
		want int
	}{
		{name: "end day", day: time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC), want: 1},
		{name: "day before", day: time.Date(2024, 1, 30, 0, 0, 0, 0, time.UTC), want: 0},
		{name: "day after", day: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := storage.FindSubscriptionsEndingBetween(ctx, tt.day, tt.day.AddDate(0, 0, 1))
			require.NoError(t, err)
			assert.Len(t, got, tt.want)
		})
	}
}

func TestStorage_GetCurrentSubscription(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()
	ctx := context.Background()

	userID, packageID := vipSetup(t, storage)
	factory := NewTestDataFactory(storage)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	_, err := storage.GetCurrentSubscription(ctx, userID)
	require.ErrorIs(t, err, ErrNotFound)

	factory.CreateSubscription(t, userID, packageID, start, start.AddDate(0, 1, 0),
		models.SubscriptionActive, models.InviteSent)
	latest := factory.CreateSubscription(t, userID, packageID, start, start.AddDate(0, 6, 0),
		models.SubscriptionActive, models.InviteSent)
	factory.CreateSubscription(t, userID, packageID, start, start.AddDate(1, 0, 0),
		models.SubscriptionExpired, models.InviteSent)

	got, err := storage.GetCurrentSubscription(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, latest, got.ID)
}

func TestStorage_InviteStatus(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()
	ctx := context.Background()

	userID, packageID := vipSetup(t, storage)
	factory := NewTestDataFactory(storage)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	pending := factory.CreateSubscription(t, userID, packageID, start, start.AddDate(0, 1, 0),
		models.SubscriptionActive, models.InvitePending)
	factory.CreateSubscription(t, userID, packageID, start, start.AddDate(0, 1, 0),
		models.SubscriptionExpired, models.InvitePending)

	uninvited, err := storage.ListUninvitedSubscriptions(ctx)
	require.NoError(t, err)
	require.Len(t, uninvited, 1)
	assert.Equal(t, pending, uninvited[0].ID)

	require.NoError(t, storage.SetInviteStatus(ctx, pending, models.InviteSent))
	uninvited, err = storage.ListUninvitedSubscriptions(ctx)
	require.NoError(t, err)
	assert.Empty(t, uninvited)

	assert.ErrorIs(t, storage.SetInviteStatus(ctx, 424242, models.InviteSent), ErrNotFound)
}
