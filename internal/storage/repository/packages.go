package repository

import (
	"context"
	"fmt"

	"github.com/magabrotheeeer/signal-club/internal/models"
)

// CreatePackage добавляет тариф и возвращает его ID.
func (s *Storage) CreatePackage(ctx context.Context, p models.Package) (int, error) {
	const op = "storage.CreatePackage"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO packages (name, price, duration_days, assets)
			  VALUES ($1, $2, $3, $4) RETURNING id`
	var id int
	if err := s.DB.QueryRowContext(ctx, query, p.Name, p.Price, p.DurationDays, p.Assets).Scan(&id); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return id, nil
}

// GetPackage возвращает тариф по ID.
func (s *Storage) GetPackage(ctx context.Context, id int) (*models.Package, error) {
	const op = "storage.GetPackage"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, name, price, duration_days, assets FROM packages WHERE id = $1`
	var p models.Package
	err := s.DB.QueryRowContext(ctx, query, id).Scan(&p.ID, &p.Name, &p.Price, &p.DurationDays, &p.Assets)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, notFound(err))
	}
	return &p, nil
}

// ListPackages возвращает все тарифы, отсортированные по категории и длительности.
func (s *Storage) ListPackages(ctx context.Context) ([]models.Package, error) {
	const op = "storage.ListPackages"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	rows, err := s.DB.QueryContext(ctx,
		`SELECT id, name, price, duration_days, assets FROM packages ORDER BY assets, duration_days`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var result []models.Package
	for rows.Next() {
		var p models.Package
		if err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.DurationDays, &p.Assets); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// CreatePaymentMethod добавляет способ оплаты.
func (s *Storage) CreatePaymentMethod(ctx context.Context, m models.PaymentMethod) (int, error) {
	const op = "storage.CreatePaymentMethod"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var id int
	err := s.DB.QueryRowContext(ctx,
		`INSERT INTO payment_methods (type, name, details) VALUES ($1, $2, $3) RETURNING id`,
		m.Type, m.Name, m.Details).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return id, nil
}

// ListPaymentMethods возвращает все способы оплаты.
func (s *Storage) ListPaymentMethods(ctx context.Context) ([]models.PaymentMethod, error) {
	const op = "storage.ListPaymentMethods"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	rows, err := s.DB.QueryContext(ctx, `SELECT id, type, name, details FROM payment_methods ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var result []models.PaymentMethod
	for rows.Next() {
		var m models.PaymentMethod
		if err := rows.Scan(&m.ID, &m.Type, &m.Name, &m.Details); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
