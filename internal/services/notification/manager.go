package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/magabrotheeeer/signal-club/internal/models"
	"github.com/magabrotheeeer/signal-club/internal/recurrence"
)

// Store операции хранилища для управления правилами.
type Store interface {
	CreateCustomNotification(ctx context.Context, n models.CustomNotification) (int64, error)
	ListCustomNotifications(ctx context.Context) ([]models.CustomNotification, error)
	DeleteCustomNotification(ctx context.Context, id int64) error
}

// Manager создаёт, выводит и удаляет правила рассылок.
type Manager struct {
	store Store
	log   *slog.Logger
}

// NewManager конструктор.
func NewManager(store Store, log *slog.Logger) *Manager {
	return &Manager{store: store, log: log}
}

// Create проверяет расписание и сохраняет правило в каноническом виде.
// Некорректное выражение возвращает ошибку, обёрнутую над recurrence.ErrInvalidExpression.
func (m *Manager) Create(ctx context.Context, req models.DummyCustomNotification) (*models.CustomNotification, error) {
	const op = "services.Manager.Create"

	schedule, err := recurrence.Parse(req.Frequency, req.ScheduleExpr)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	n := models.CustomNotification{
		Message:      req.Message,
		TargetGroups: strings.ToLower(strings.TrimSpace(req.TargetGroups)),
		Frequency:    string(schedule.Frequency()),
		ScheduleExpr: schedule.String(),
		IsActive:     true,
	}
	id, err := m.store.CreateCustomNotification(ctx, n)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	n.ID = id
	m.log.Info("custom notification created",
		slog.Int64("notification_id", id), slog.String("frequency", n.Frequency), slog.String("schedule", n.ScheduleExpr))
	return &n, nil
}

// List возвращает все правила.
func (m *Manager) List(ctx context.Context) ([]models.CustomNotification, error) {
	const op = "services.Manager.List"

	list, err := m.store.ListCustomNotifications(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return list, nil
}

// Delete удаляет правило.
func (m *Manager) Delete(ctx context.Context, id int64) error {
	const op = "services.Manager.Delete"

	if err := m.store.DeleteCustomNotification(ctx, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	m.log.Info("custom notification deleted", slog.Int64("notification_id", id))
	return nil
}
