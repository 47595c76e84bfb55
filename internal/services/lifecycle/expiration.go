// Package services содержит задачи жизненного цикла подписок:
// снятие истёкших подписок и напоминания об окончании.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/signal-club/internal/lib/sl"
	"github.com/magabrotheeeer/signal-club/internal/messaging"
	"github.com/magabrotheeeer/signal-club/internal/models"
)

const expiredMessage = "❌ Your subscription has expired. You have been removed from the premium groups."

// SubscriptionRepository операции хранилища, которые нужны задачам жизненного цикла.
type SubscriptionRepository interface {
	FindExpiredSubscriptions(ctx context.Context, now time.Time) ([]models.SubscriptionInfo, error)
	FindSubscriptionsEndingBetween(ctx context.Context, from, to time.Time) ([]models.SubscriptionInfo, error)
	ExpireSubscription(ctx context.Context, id int64) (bool, error)
}

// Transport возможности мессенджера, которыми пользуются задачи.
type Transport interface {
	messaging.Sender
	messaging.Membership
}

// ExpirationEnforcer снимает истёкшие подписки.
type ExpirationEnforcer struct {
	repo      SubscriptionRepository
	transport Transport
	groups    []int64
	log       *slog.Logger
}

// NewExpirationEnforcer создаёт задачу. groups — все управляемые платные группы,
// пользователь исключается из каждой вне зависимости от категории тарифа.
func NewExpirationEnforcer(repo SubscriptionRepository, transport Transport, groups []int64, log *slog.Logger) *ExpirationEnforcer {
	return &ExpirationEnforcer{
		repo:      repo,
		transport: transport,
		groups:    groups,
		log:       log.With(slog.String("component", "expiration")),
	}
}

// Enforce обрабатывает активные подписки с end_date < now и возвращает ID
// подписок, переведённых в expired этим запуском. Ошибка возвращается только
// если не удалось получить список кандидатов.
func (e *ExpirationEnforcer) Enforce(ctx context.Context, now time.Time) ([]int64, error) {
	const op = "services.ExpirationEnforcer.Enforce"

	subs, err := e.repo.FindExpiredSubscriptions(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if len(subs) == 0 {
		e.log.Debug("no expired subscriptions")
		return nil, nil
	}
	e.log.Info("found expired subscriptions", slog.Int("count", len(subs)))

	expired := make([]int64, 0, len(subs))
	for _, sub := range subs {
		if e.expire(ctx, sub) {
			expired = append(expired, sub.ID)
		}
	}
	return expired, nil
}

func (e *ExpirationEnforcer) expire(ctx context.Context, sub models.SubscriptionInfo) bool {
	log := e.log.With(slog.Int64("subscription_id", sub.ID), slog.Int64("user_id", sub.UserID))

	for _, group := range e.groups {
		// пользователя могло не быть в группе, это ожидаемо
		if err := e.transport.RevokeMembership(ctx, group, sub.UserID); err != nil {
			log.Debug("revoke skipped", sl.Chat(group), sl.Err(err))
			continue
		}
		if err := e.transport.RestoreEligibility(ctx, group, sub.UserID); err != nil {
			log.Debug("restore skipped", sl.Chat(group), sl.Err(err))
		}
	}

	changed, err := e.repo.ExpireSubscription(ctx, sub.ID)
	if err != nil {
		log.Error("failed to mark subscription expired", sl.Err(err))
		return false
	}
	if !changed {
		log.Info("subscription already expired")
		return false
	}

	if err := e.transport.SendMessage(ctx, sub.UserID, expiredMessage, messaging.FormatPlain); err != nil {
		log.Warn("failed to notify user about expiration", sl.Err(err))
	}
	log.Info("subscription expired")
	return true
}
