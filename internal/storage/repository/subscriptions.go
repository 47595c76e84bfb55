package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/magabrotheeeer/signal-club/internal/models"
)

const subscriptionInfoColumns = `s.id, s.user_id, s.package_id, s.start_date, s.end_date,
		s.status, s.invite_status, u.username, p.name, p.assets`

const subscriptionInfoJoins = `FROM subscriptions s
		JOIN users u ON u.user_id = s.user_id
		JOIN packages p ON p.id = s.package_id`

// CreateSubscription создаёт активную подписку с окончанием start + длительность тарифа.
func (s *Storage) CreateSubscription(ctx context.Context, userID int64, packageID int, start time.Time) (*models.Subscription, error) {
	const op = "storage.CreateSubscription"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO subscriptions (user_id, package_id, start_date, end_date, status, invite_status)
			  SELECT $1::bigint, p.id, $3::timestamptz, $3::timestamptz + make_interval(days => p.duration_days), $4::text, $5::text
			  FROM packages p WHERE p.id = $2
			  RETURNING id, user_id, package_id, start_date, end_date, status, invite_status`
	var sub models.Subscription
	err := s.DB.QueryRowContext(ctx, query, userID, packageID, start,
		models.SubscriptionActive, models.InvitePending).
		Scan(&sub.ID, &sub.UserID, &sub.PackageID, &sub.StartDate, &sub.EndDate, &sub.Status, &sub.InviteStatus)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, notFound(err))
	}
	return &sub, nil
}

// FindExpiredSubscriptions возвращает активные подписки, у которых end_date < now.
func (s *Storage) FindExpiredSubscriptions(ctx context.Context, now time.Time) ([]models.SubscriptionInfo, error) {
	const op = "storage.FindExpiredSubscriptions"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + subscriptionInfoColumns + ` ` + subscriptionInfoJoins + `
			  WHERE s.status = $1 AND s.end_date < $2
			  ORDER BY s.end_date, s.id`
	rows, err := s.DB.QueryContext(ctx, query, models.SubscriptionActive, now)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	result, err := scanSubscriptionInfos(rows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// FindSubscriptionsEndingBetween возвращает активные подписки с end_date в [from, to).
// Для напоминаний границы равны началу календарного дня и началу следующего.
func (s *Storage) FindSubscriptionsEndingBetween(ctx context.Context, from, to time.Time) ([]models.SubscriptionInfo, error) {
	const op = "storage.FindSubscriptionsEndingBetween"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + subscriptionInfoColumns + ` ` + subscriptionInfoJoins + `
			  WHERE s.status = $1 AND s.end_date >= $2 AND s.end_date < $3
			  ORDER BY s.end_date, s.id`
	rows, err := s.DB.QueryContext(ctx, query, models.SubscriptionActive, from, to)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	result, err := scanSubscriptionInfos(rows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// ExpireSubscription переводит подписку в expired. Возвращает false, если
// подписка уже не была активной, поэтому вызов безопасно повторять.
func (s *Storage) ExpireSubscription(ctx context.Context, id int64) (bool, error) {
	const op = "storage.ExpireSubscription"
	select {
	case <-ctx.Done():
		return false, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	res, err := s.DB.ExecContext(ctx,
		`UPDATE subscriptions SET status = $2 WHERE id = $1 AND status = $3`,
		id, models.SubscriptionExpired, models.SubscriptionActive)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return n == 1, nil
}

// GetCurrentSubscription возвращает самую позднюю по end_date активную подписку пользователя.
func (s *Storage) GetCurrentSubscription(ctx context.Context, userID int64) (*models.SubscriptionInfo, error) {
	const op = "storage.GetCurrentSubscription"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + subscriptionInfoColumns + ` ` + subscriptionInfoJoins + `
			  WHERE s.user_id = $1 AND s.status = $2
			  ORDER BY s.end_date DESC, s.id DESC
			  LIMIT 1`
	rows, err := s.DB.QueryContext(ctx, query, userID, models.SubscriptionActive)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	result, err := scanSubscriptionInfos(rows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if len(result) == 0 {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return &result[0], nil
}

// GetSubscription возвращает подписку по ID.
func (s *Storage) GetSubscription(ctx context.Context, id int64) (*models.SubscriptionInfo, error) {
	const op = "storage.GetSubscription"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + subscriptionInfoColumns + ` ` + subscriptionInfoJoins + ` WHERE s.id = $1`
	rows, err := s.DB.QueryContext(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	result, err := scanSubscriptionInfos(rows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if len(result) == 0 {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return &result[0], nil
}

// SetInviteStatus обновляет статус выдачи приглашений.
func (s *Storage) SetInviteStatus(ctx context.Context, id int64, status string) error {
	const op = "storage.SetInviteStatus"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	res, err := s.DB.ExecContext(ctx, `UPDATE subscriptions SET invite_status = $2 WHERE id = $1`, id, status)
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

// ListUninvitedSubscriptions возвращает активные подписки, для которых приглашения не выданы.
func (s *Storage) ListUninvitedSubscriptions(ctx context.Context) ([]models.SubscriptionInfo, error) {
	const op = "storage.ListUninvitedSubscriptions"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + subscriptionInfoColumns + ` ` + subscriptionInfoJoins + `
			  WHERE s.status = $1 AND s.invite_status = $2
			  ORDER BY s.start_date, s.id`
	rows, err := s.DB.QueryContext(ctx, query, models.SubscriptionActive, models.InvitePending)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	result, err := scanSubscriptionInfos(rows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

func scanSubscriptionInfos(rows *sql.Rows) ([]models.SubscriptionInfo, error) {
	defer rows.Close()

	var result []models.SubscriptionInfo
	for rows.Next() {
		var info models.SubscriptionInfo
		if err := rows.Scan(&info.ID, &info.UserID, &info.PackageID, &info.StartDate, &info.EndDate,
			&info.Status, &info.InviteStatus, &info.Username, &info.PackageName, &info.Assets); err != nil {
			return nil, err
		}
		result = append(result, info)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
