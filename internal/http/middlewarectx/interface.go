package middlewarectx

import (
	"context"

	"github.com/magabrotheeeer/signal-club/internal/authz"
	"github.com/magabrotheeeer/signal-club/internal/lib/jwt"
)

// Service описывает интерфейс сервиса для валидации JWT токена.
type Service interface {
	ValidateToken(ctx context.Context, token string) (*jwt.CustomClaims, error)
}

// Authorizer проверяет возможность пользователя.
type Authorizer interface {
	Check(ctx context.Context, userID int64, c authz.Capability) error
}

// MaintenanceReader сообщает, включён ли режим обслуживания.
type MaintenanceReader interface {
	MaintenanceEnabled(ctx context.Context) (bool, error)
}
