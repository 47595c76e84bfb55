// Package messaging описывает возможности транспорта сообщений, которыми
// пользуются задачи: отправка сообщений, исключение из группы и выдача приглашений.
package messaging

import (
	"context"
	"time"
)

// Format разметка текста сообщения.
type Format string

const (
	FormatPlain    Format = ""
	FormatMarkdown Format = "Markdown"
	FormatHTML     Format = "HTML"
)

// Sender отправляет сообщение в чат пользователя или группы.
type Sender interface {
	SendMessage(ctx context.Context, chatID int64, text string, format Format) error
}

// Membership управляет участием пользователя в группе.
// Revoke и Restore вместе исключают пользователя, не блокируя его навсегда.
type Membership interface {
	RevokeMembership(ctx context.Context, groupID, userID int64) error
	RestoreEligibility(ctx context.Context, groupID, userID int64) error
}

// Inviter выдаёт одноразовые ссылки-приглашения.
type Inviter interface {
	CreateSingleUseInvite(ctx context.Context, groupID, userID int64, expiry time.Time) (string, error)
}

// Messenger полный набор возможностей транспорта.
type Messenger interface {
	Sender
	Membership
	Inviter
}
