package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/magabrotheeeer/signal-club/internal/migrations"
	"github.com/magabrotheeeer/signal-club/internal/models"
)

// TestDataFactory создаёт тестовые данные напрямую через SQL.
type TestDataFactory struct {
	storage *Storage
}

// NewTestDataFactory создает новую фабрику тестовых данных.
func NewTestDataFactory(storage *Storage) *TestDataFactory {
	return &TestDataFactory{storage: storage}
}

// CreateUser создает пользователя с ролью Viewer.
func (f *TestDataFactory) CreateUser(t *testing.T, id int64, username string) {
	t.Helper()
	_, err := f.storage.DB.Exec(`INSERT INTO users (user_id, username, role_id) VALUES ($1, $2, 4)`, id, username)
	require.NoError(t, err)
}

// CreatePackage создает тариф и возвращает его ID.
func (f *TestDataFactory) CreatePackage(t *testing.T, name string, price int64, days int, assets string) int {
	t.Helper()
	var id int
	err := f.storage.DB.QueryRow(`INSERT INTO packages (name, price, duration_days, assets)
		VALUES ($1, $2, $3, $4) RETURNING id`, name, decimal.NewFromInt(price), days, assets).Scan(&id)
	require.NoError(t, err)
	return id
}

// CreateSubscription создает подписку с заданными датами и статусом.
func (f *TestDataFactory) CreateSubscription(t *testing.T, userID int64, packageID int,
	start, end time.Time, status, inviteStatus string) int64 {
	t.Helper()
	var id int64
	err := f.storage.DB.QueryRow(`INSERT INTO subscriptions
		(user_id, package_id, start_date, end_date, status, invite_status)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		userID, packageID, start, end, status, inviteStatus).Scan(&id)
	require.NoError(t, err)
	return id
}

// TestVerification содержит общие функции для проверки результатов тестов.
type TestVerification struct {
	storage *Storage
}

// NewTestVerification создает новый объект для проверки результатов.
func NewTestVerification(storage *Storage) *TestVerification {
	return &TestVerification{storage: storage}
}

// VerifySubscriptionStatus проверяет статус подписки.
func (v *TestVerification) VerifySubscriptionStatus(t *testing.T, id int64, expected string) {
	t.Helper()
	var status string
	err := v.storage.DB.QueryRow("SELECT status FROM subscriptions WHERE id = $1", id).Scan(&status)
	require.NoError(t, err)
	require.Equal(t, expected, status)
}

// VerifyTransactionStatus проверяет статус транзакции.
func (v *TestVerification) VerifyTransactionStatus(t *testing.T, id int64, expected string) {
	t.Helper()
	var status string
	err := v.storage.DB.QueryRow("SELECT status FROM transactions WHERE id = $1", id).Scan(&status)
	require.NoError(t, err)
	require.Equal(t, expected, status)
}

// setupTestDatabase поднимает PostgreSQL в контейнере и применяет миграции.
func setupTestDatabase(t *testing.T) (*Storage, func()) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	ctx := context.Background()

	port := nat.Port("5432/tcp")
	req := testcontainers.ContainerRequest{
		Image:        "postgres:15-alpine",
		ExposedPorts: []string{string(port)},
		Env: map[string]string{
			"POSTGRES_DB":       "testdb",
			"POSTGRES_USER":     "testuser",
			"POSTGRES_PASSWORD": "testpass",
		},
		WaitingFor: wait.ForAll(
			wait.ForListeningPort(port),
			wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
		).WithDeadline(3 * time.Minute),
	}

	postgresContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err, "failed to start container")

	host, err := postgresContainer.Host(ctx)
	require.NoError(t, err)
	mapped, err := postgresContainer.MappedPort(ctx, port)
	require.NoError(t, err)

	dsn := fmt.Sprintf("postgres://testuser:testpass@%s:%s/testdb?sslmode=disable", host, mapped.Port())
	storage, err := New(dsn)
	require.NoError(t, err)
	require.NoError(t, migrations.Run(storage.DB))
	require.NoError(t, CheckDatabaseReady(ctx, storage))

	cleanup := func() {
		_ = storage.Close()
		if err := postgresContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	}
	return storage, cleanup
}

func vipSetup(t *testing.T, storage *Storage) (int64, int) {
	t.Helper()
	factory := NewTestDataFactory(storage)
	factory.CreateUser(t, 1001, "alice")
	return 1001, factory.CreatePackage(t, "VIP", 250000, 30, models.AssetAll)
}
