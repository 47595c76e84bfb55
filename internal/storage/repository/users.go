package repository

import (
	"context"
	"fmt"

	"github.com/magabrotheeeer/signal-club/internal/models"
)

// CreateUser добавляет пользователя с ролью Viewer, если его ещё нет.
// Возвращает true, если пользователь был создан этим вызовом.
func (s *Storage) CreateUser(ctx context.Context, id int64, username string) (bool, error) {
	const op = "storage.CreateUser"
	select {
	case <-ctx.Done():
		return false, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO users (user_id, username, role_id)
			  VALUES ($1, $2, (SELECT id FROM roles WHERE name = $3))
			  ON CONFLICT (user_id) DO NOTHING`
	res, err := s.DB.ExecContext(ctx, query, id, username, models.RoleViewer)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return n == 1, nil
}

// GetUser возвращает пользователя вместе с названием роли.
func (s *Storage) GetUser(ctx context.Context, id int64) (*models.User, error) {
	const op = "storage.GetUser"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT u.user_id, u.username, u.role_id, r.name, u.password_hash, u.joined_at
			  FROM users u JOIN roles r ON r.id = u.role_id
			  WHERE u.user_id = $1`
	var u models.User
	err := s.DB.QueryRowContext(ctx, query, id).
		Scan(&u.ID, &u.Username, &u.RoleID, &u.Role, &u.PasswordHash, &u.JoinedAt)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, notFound(err))
	}
	return &u, nil
}

// SetUserRole назначает пользователю роль по её названию.
func (s *Storage) SetUserRole(ctx context.Context, id int64, role string) error {
	const op = "storage.SetUserRole"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE users SET role_id = r.id
			  FROM roles r
			  WHERE r.name = $2 AND users.user_id = $1`
	res, err := s.DB.ExecContext(ctx, query, id, role)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		var roleExists bool
		if err := s.DB.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM roles WHERE name = $1)`, role).
			Scan(&roleExists); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		if !roleExists {
			return fmt.Errorf("%s: %w", op, ErrUnknownRole)
		}
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return nil
}

// UpsertOperator создаёт или обновляет оператора с заданной ролью и хэшем пароля.
func (s *Storage) UpsertOperator(ctx context.Context, id int64, role, passwordHash string) error {
	const op = "storage.UpsertOperator"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO users (user_id, role_id, password_hash)
			  VALUES ($1, (SELECT id FROM roles WHERE name = $2), $3)
			  ON CONFLICT (user_id) DO UPDATE
			  SET role_id = EXCLUDED.role_id, password_hash = EXCLUDED.password_hash`
	if _, err := s.DB.ExecContext(ctx, query, id, role, passwordHash); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
