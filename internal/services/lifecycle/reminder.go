package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/magabrotheeeer/signal-club/internal/lib/sl"
	"github.com/magabrotheeeer/signal-club/internal/messaging"
)

// ReminderDispatcher напоминает об окончании подписки за заданное число дней.
type ReminderDispatcher struct {
	repo   SubscriptionRepository
	sender messaging.Sender
	loc    *time.Location
	log    *slog.Logger
}

// NewReminderDispatcher создаёт задачу. Календарные дни считаются в loc.
func NewReminderDispatcher(repo SubscriptionRepository, sender messaging.Sender, loc *time.Location, log *slog.Logger) *ReminderDispatcher {
	if loc == nil {
		loc = time.UTC
	}
	return &ReminderDispatcher{
		repo:   repo,
		sender: sender,
		loc:    loc,
		log:    log.With(slog.String("component", "reminder")),
	}
}

// Remind отправляет напоминание по каждой активной подписке, которая
// заканчивается ровно в календарный день now + leadDays. Пропущенный день
// не навёрстывается. Возвращает пользователей, которым ушло напоминание.
func (r *ReminderDispatcher) Remind(ctx context.Context, now time.Time, leadDays int) ([]int64, error) {
	const op = "services.ReminderDispatcher.Remind"

	from, to := dayBounds(now.In(r.loc).AddDate(0, 0, leadDays))
	subs, err := r.repo.FindSubscriptionsEndingBetween(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	r.log.Info("reminder candidates", slog.String("day", from.Format(time.DateOnly)), slog.Int("count", len(subs)))

	reminded := make([]int64, 0, len(subs))
	for _, sub := range subs {
		msg := reminderMessage(sub.Username, leadDays)
		if err := r.sender.SendMessage(ctx, sub.UserID, msg, messaging.FormatMarkdown); err != nil {
			r.log.Warn("failed to send reminder",
				slog.Int64("user_id", sub.UserID), slog.Int64("subscription_id", sub.ID), sl.Err(err))
			continue
		}
		reminded = append(reminded, sub.UserID)
	}
	return reminded, nil
}

func dayBounds(t time.Time) (time.Time, time.Time) {
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return start, start.AddDate(0, 0, 1)
}

func reminderMessage(username string, leadDays int) string {
	name := username
	if name == "" {
		name = "there"
	}
	name = markdownEscaper.Replace(name)
	return fmt.Sprintf("⚠️ *Subscription Reminder*\nHi %s, your subscription will expire in %d days.\n"+
		"Please renew to avoid losing access.", name, leadDays)
}

var markdownEscaper = strings.NewReplacer("_", "\\_", "*", "\\*", "`", "\\`", "[", "\\[")
