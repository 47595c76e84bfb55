// Package models содержит доменные структуры клуба: пользователей, тарифы,
// подписки, транзакции и пользовательские рассылки.
package models

import "time"

// Названия ролей, создаваемых миграцией. Идентификаторы 1..4 зарезервированы.
const (
	RoleSuperAdmin = "Super Admin"
	RoleAdmin      = "Admin"
	RoleMember     = "Member"
	RoleViewer     = "Viewer"
)

// User пользователь чата. Создаётся при первом обращении и никогда не удаляется.
type User struct {
	ID           int64     // Идентификатор пользователя в мессенджере
	Username     string    // Отображаемое имя
	RoleID       int       // Ссылка на роль
	Role         string    // Название роли
	PasswordHash string    // Хэш пароля оператора, пусто для обычных пользователей
	JoinedAt     time.Time // Дата первого обращения
}

// DummyUser используется для приёма данных регистрации из JSON-запроса.
type DummyUser struct {
	ID       int64  `json:"user_id" validate:"required"`
	Username string `json:"username"`
}
