// Package authz проверяет права операторов на административные действия.
package authz

import (
	"context"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/signal-club/internal/models"
)

// ErrUnauthorized у пользователя нет нужной возможности.
var ErrUnauthorized = errors.New("unauthorized")

// Capability административная возможность.
type Capability string

const (
	ConfirmTransactions Capability = "confirm_transactions"
	ListUninvited       Capability = "list_uninvited"
	ManageNotifications Capability = "manage_notifications"
	RunJobs             Capability = "run_jobs"
	ToggleMaintenance   Capability = "toggle_maintenance"
	AssignRoles         Capability = "assign_roles"
	BypassMaintenance   Capability = "bypass_maintenance"
)

var roleCapabilities = map[string][]Capability{
	models.RoleSuperAdmin: {
		ConfirmTransactions, ListUninvited, ManageNotifications,
		RunJobs, ToggleMaintenance, AssignRoles, BypassMaintenance,
	},
	models.RoleAdmin: {
		ConfirmTransactions, ListUninvited, ManageNotifications, BypassMaintenance,
	},
}

// Users источник ролей пользователей.
type Users interface {
	GetUser(ctx context.Context, id int64) (*models.User, error)
}

// Checker сверяет роль пользователя с таблицей возможностей.
// Суперадмин из конфигурации проходит любую проверку без обращения к хранилищу.
type Checker struct {
	users      Users
	superAdmin int64
}

// NewChecker создаёт Checker.
func NewChecker(users Users, superAdmin int64) *Checker {
	return &Checker{users: users, superAdmin: superAdmin}
}

// Check возвращает ErrUnauthorized, если у пользователя нет возможности c.
// Ошибка хранилища возвращается обёрнутой и тоже означает отказ.
func (ch *Checker) Check(ctx context.Context, userID int64, c Capability) error {
	const op = "authz.Check"
	if userID == 0 {
		return fmt.Errorf("%s: %w", op, ErrUnauthorized)
	}
	if ch.superAdmin != 0 && userID == ch.superAdmin {
		return nil
	}
	user, err := ch.users.GetUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !RoleHas(user.Role, c) {
		return fmt.Errorf("%s: %w", op, ErrUnauthorized)
	}
	return nil
}

// RoleHas сообщает, даёт ли роль возможность c.
func RoleHas(role string, c Capability) bool {
	for _, have := range roleCapabilities[role] {
		if have == c {
			return true
		}
	}
	return false
}

// IsOperatorRole роли, которым разрешён вход в admin API.
func IsOperatorRole(role string) bool {
	return role == models.RoleSuperAdmin || role == models.RoleAdmin
}
