package repository

import (
	"context"
	"fmt"

	"github.com/magabrotheeeer/signal-club/internal/models"
)

// CreateTransaction сохраняет заявку на оплату в статусе pending и возвращает её ID.
func (s *Storage) CreateTransaction(ctx context.Context, tx models.Transaction) (int64, error) {
	const op = "storage.CreateTransaction"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO transactions (user_id, package_id, amount, status, proof_ref)
			  VALUES ($1, $2, $3, $4, $5) RETURNING id`
	var id int64
	err := s.DB.QueryRowContext(ctx, query,
		tx.UserID, tx.PackageID, tx.Amount, models.TransactionPending, tx.ProofRef).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return id, nil
}

// GetTransaction возвращает транзакцию вместе с тарифом и именем пользователя.
func (s *Storage) GetTransaction(ctx context.Context, id int64) (*models.TransactionInfo, error) {
	const op = "storage.GetTransaction"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT t.id, t.user_id, t.package_id, t.amount, t.status, t.proof_ref, t.created_at,
				u.username, p.id, p.name, p.price, p.duration_days, p.assets
			  FROM transactions t
			  JOIN users u ON u.user_id = t.user_id
			  JOIN packages p ON p.id = t.package_id
			  WHERE t.id = $1`
	var info models.TransactionInfo
	err := s.DB.QueryRowContext(ctx, query, id).Scan(
		&info.ID, &info.UserID, &info.PackageID, &info.Amount, &info.Status, &info.ProofRef, &info.CreatedAt,
		&info.Username, &info.Package.ID, &info.Package.Name, &info.Package.Price,
		&info.Package.DurationDays, &info.Package.Assets)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, notFound(err))
	}
	return &info, nil
}

// SetTransactionStatus переводит транзакцию из pending в confirmed или rejected.
// Повторное решение по той же транзакции возвращает ErrNotPending.
func (s *Storage) SetTransactionStatus(ctx context.Context, id int64, status string) error {
	const op = "storage.SetTransactionStatus"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	res, err := s.DB.ExecContext(ctx,
		`UPDATE transactions SET status = $2 WHERE id = $1 AND status = $3`,
		id, status, models.TransactionPending)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, ErrNotPending)
	}
	return nil
}
