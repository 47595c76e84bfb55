// Package services содержит вход операторов в admin API и назначение ролей.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/magabrotheeeer/signal-club/internal/authz"
	"github.com/magabrotheeeer/signal-club/internal/lib/jwt"
	"github.com/magabrotheeeer/signal-club/internal/lib/password"
	"github.com/magabrotheeeer/signal-club/internal/models"
	"github.com/magabrotheeeer/signal-club/internal/storage/repository"
)

// ErrInvalidCredentials неизвестный пользователь, не оператор или неверный пароль.
var ErrInvalidCredentials = errors.New("invalid credentials")

// UserRepository описывает контракт для работы с пользователями в базе данных.
type UserRepository interface {
	GetUser(ctx context.Context, id int64) (*models.User, error)
	SetUserRole(ctx context.Context, id int64, role string) error
	UpsertOperator(ctx context.Context, id int64, role, passwordHash string) error
}

// AuthService отвечает за вход операторов и валидацию JWT.
type AuthService struct {
	users    UserRepository
	jwtMaker jwt.Maker
	log      *slog.Logger
}

// NewAuthService создает новый экземпляр AuthService.
func NewAuthService(users UserRepository, jwtMaker jwt.Maker, log *slog.Logger) *AuthService {
	return &AuthService{
		users:    users,
		jwtMaker: jwtMaker,
		log:      log.With(slog.String("component", "auth")),
	}
}

// Bootstrap создаёт или обновляет суперадмина из конфигурации.
// Пустой userID ничего не делает.
func (s *AuthService) Bootstrap(ctx context.Context, userID int64, passwordHash string) error {
	const op = "services.AuthService.Bootstrap"
	if userID == 0 {
		return nil
	}
	if err := s.users.UpsertOperator(ctx, userID, models.RoleSuperAdmin, passwordHash); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("super admin bootstrapped", slog.Int64("user_id", userID))
	return nil
}

// Login проверяет пароль оператора и выпускает JWT.
func (s *AuthService) Login(ctx context.Context, userID int64, rawPassword string) (token, role string, err error) {
	const op = "services.AuthService.Login"

	user, err := s.users.GetUser(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return "", "", fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}
	if err != nil {
		return "", "", fmt.Errorf("%s: %w", op, err)
	}
	if !authz.IsOperatorRole(user.Role) {
		return "", "", fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}
	if err := password.CompareHash(user.PasswordHash, rawPassword); err != nil {
		if errors.Is(err, password.ErrMismatch) {
			return "", "", fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
		}
		return "", "", fmt.Errorf("%s: %w", op, err)
	}
	token, err = s.jwtMaker.GenerateToken(user.ID, user.Role)
	if err != nil {
		return "", "", fmt.Errorf("%s: %w", op, err)
	}
	return token, user.Role, nil
}

// ValidateToken проверяет JWT и возвращает данные оператора.
func (s *AuthService) ValidateToken(_ context.Context, token string) (*jwt.CustomClaims, error) {
	const op = "services.AuthService.ValidateToken"
	claims, err := s.jwtMaker.ParseToken(token)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return claims, nil
}

// AssignRole назначает роль. Если передан пароль, пользователь становится
// оператором с этим паролем и создаётся при отсутствии.
func (s *AuthService) AssignRole(ctx context.Context, userID int64, role, rawPassword string) error {
	const op = "services.AuthService.AssignRole"

	if rawPassword == "" {
		if err := s.users.SetUserRole(ctx, userID, role); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	} else {
		if !authz.IsOperatorRole(role) {
			return fmt.Errorf("%s: password is only allowed for operator roles: %w", op, repository.ErrUnknownRole)
		}
		hash, err := password.GetHash(rawPassword)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		if err := s.users.UpsertOperator(ctx, userID, role, hash); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}
	s.log.Info("role assigned", slog.Int64("user_id", userID), slog.String("role", role))
	return nil
}
