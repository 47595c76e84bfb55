package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/magabrotheeeer/signal-club/internal/models"
)

const notificationColumns = `id, message, target_groups, frequency, schedule_time, is_active, last_sent, created_at`

// CreateCustomNotification сохраняет активное правило рассылки и возвращает его ID.
func (s *Storage) CreateCustomNotification(ctx context.Context, n models.CustomNotification) (int64, error) {
	const op = "storage.CreateCustomNotification"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO custom_notifications (message, target_groups, frequency, schedule_time, is_active)
			  VALUES ($1, $2, $3, $4, TRUE) RETURNING id`
	var id int64
	if err := s.DB.QueryRowContext(ctx, query, n.Message, n.TargetGroups, n.Frequency, n.ScheduleExpr).
		Scan(&id); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return id, nil
}

// ListActiveCustomNotifications возвращает все активные правила.
func (s *Storage) ListActiveCustomNotifications(ctx context.Context) ([]models.CustomNotification, error) {
	const op = "storage.ListActiveCustomNotifications"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	rows, err := s.DB.QueryContext(ctx,
		`SELECT `+notificationColumns+` FROM custom_notifications WHERE is_active ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	result, err := scanNotifications(rows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// ListCustomNotifications возвращает все правила, включая выключенные.
func (s *Storage) ListCustomNotifications(ctx context.Context) ([]models.CustomNotification, error) {
	const op = "storage.ListCustomNotifications"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	rows, err := s.DB.QueryContext(ctx, `SELECT `+notificationColumns+` FROM custom_notifications ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	result, err := scanNotifications(rows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// DeleteCustomNotification удаляет правило.
func (s *Storage) DeleteCustomNotification(ctx context.Context, id int64) error {
	const op = "storage.DeleteCustomNotification"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	res, err := s.DB.ExecContext(ctx, `DELETE FROM custom_notifications WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return nil
}

// UpdateLastSent записывает время последней отправки правила.
func (s *Storage) UpdateLastSent(ctx context.Context, id int64, at time.Time) error {
	const op = "storage.UpdateLastSent"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	if _, err := s.DB.ExecContext(ctx,
		`UPDATE custom_notifications SET last_sent = $2 WHERE id = $1`, id, at); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func scanNotifications(rows *sql.Rows) ([]models.CustomNotification, error) {
	defer rows.Close()

	var result []models.CustomNotification
	for rows.Next() {
		var (
			n        models.CustomNotification
			lastSent sql.NullTime
		)
		if err := rows.Scan(&n.ID, &n.Message, &n.TargetGroups, &n.Frequency, &n.ScheduleExpr,
			&n.IsActive, &lastSent, &n.CreatedAt); err != nil {
			return nil, err
		}
		if lastSent.Valid {
			t := lastSent.Time
			n.LastSent = &t
		}
		result = append(result, n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
