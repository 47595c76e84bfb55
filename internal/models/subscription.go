package models

import "time"

// Статусы подписки. Переход active -> expired происходит один раз.
const (
	SubscriptionActive  = "active"
	SubscriptionExpired = "expired"
)

// Статусы выдачи приглашений.
const (
	InvitePending = "pending"
	InviteSent    = "sent"
)

// Subscription подписка пользователя на тариф.
type Subscription struct {
	ID           int64
	UserID       int64
	PackageID    int
	StartDate    time.Time
	EndDate      time.Time
	Status       string
	InviteStatus string
}

// SubscriptionInfo подписка вместе с данными пользователя и тарифа,
// используется задачами рассылок и аудитом приглашений.
type SubscriptionInfo struct {
	Subscription
	Username    string
	PackageName string
	Assets      string
}
