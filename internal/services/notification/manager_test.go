package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/signal-club/internal/models"
	"github.com/magabrotheeeer/signal-club/internal/recurrence"
)

type MockStore struct {
	mock.Mock
}

func (m *MockStore) CreateCustomNotification(ctx context.Context, n models.CustomNotification) (int64, error) {
	args := m.Called(ctx, n)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStore) ListCustomNotifications(ctx context.Context) ([]models.CustomNotification, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.CustomNotification), args.Error(1)
}

func (m *MockStore) DeleteCustomNotification(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func TestManager_Create(t *testing.T) {
	tests := []struct {
		name      string
		req       models.DummyCustomNotification
		setupMock func(*MockStore)
		wantExpr  string
		wantErr   error
	}{
		{
			name: "canonicalizes weekly expression",
			req: models.DummyCustomNotification{
				Message: "hello", TargetGroups: " Crypto,Free ", Frequency: "weekly", ScheduleExpr: "monday 9:05",
			},
			setupMock: func(m *MockStore) {
				m.On("CreateCustomNotification", mock.Anything, mock.MatchedBy(func(n models.CustomNotification) bool {
					return n.ScheduleExpr == "Monday 09:05" && n.TargetGroups == "crypto,free" && n.IsActive
				})).Return(int64(5), nil).Once()
			},
			wantExpr: "Monday 09:05",
		},
		{
			name: "rejects malformed expression",
			req: models.DummyCustomNotification{
				Message: "hello", TargetGroups: "all", Frequency: "daily", ScheduleExpr: "9am",
			},
			setupMock: func(*MockStore) {},
			wantErr:   recurrence.ErrInvalidExpression,
		},
		{
			name: "rejects monthly day out of range",
			req: models.DummyCustomNotification{
				Message: "hello", TargetGroups: "all", Frequency: "monthly", ScheduleExpr: "32 10:00",
			},
			setupMock: func(*MockStore) {},
			wantErr:   recurrence.ErrInvalidExpression,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := new(MockStore)
			tt.setupMock(store)
			manager := NewManager(store, newNoopLogger())

			got, err := manager.Create(context.Background(), tt.req)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr))
				assert.Nil(t, got)
				store.AssertNotCalled(t, "CreateCustomNotification", mock.Anything, mock.Anything)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, int64(5), got.ID)
			assert.Equal(t, tt.wantExpr, got.ScheduleExpr)
			store.AssertExpectations(t)
		})
	}
}

func TestManager_ListAndDelete(t *testing.T) {
	store := new(MockStore)
	store.On("ListCustomNotifications", mock.Anything).Return([]models.CustomNotification{{ID: 1}}, nil).Once()
	store.On("DeleteCustomNotification", mock.Anything, int64(1)).Return(nil).Once()
	store.On("DeleteCustomNotification", mock.Anything, int64(2)).Return(errors.New("not found")).Once()

	manager := NewManager(store, newNoopLogger())
	list, err := manager.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, manager.Delete(context.Background(), 1))
	assert.Error(t, manager.Delete(context.Background(), 2))
	store.AssertExpectations(t)
}
