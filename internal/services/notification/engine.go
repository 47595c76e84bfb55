// Package services исполняет пользовательские рассылки по расписанию.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/signal-club/internal/lib/sl"
	"github.com/magabrotheeeer/signal-club/internal/messaging"
	"github.com/magabrotheeeer/signal-club/internal/models"
	"github.com/magabrotheeeer/signal-club/internal/recurrence"
)

// DebounceWindow минимальный интервал между двумя отправками одного правила.
// Расписание совпадает на каждом тике внутри минуты, повтор гасит только он.
const DebounceWindow = 70 * time.Second

// Repository операции хранилища, нужные движку.
type Repository interface {
	ListActiveCustomNotifications(ctx context.Context) ([]models.CustomNotification, error)
	UpdateLastSent(ctx context.Context, id int64, at time.Time) error
}

// TargetResolver превращает спецификацию адресатов в ID чатов.
type TargetResolver interface {
	Resolve(spec string) []int64
}

// Engine проверяет активные правила на каждом тике и рассылает сработавшие.
type Engine struct {
	repo     Repository
	sender   messaging.Sender
	resolver TargetResolver
	loc      *time.Location
	log      *slog.Logger
}

// NewEngine создаёт движок. Расписания сверяются с now в часовом поясе loc.
func NewEngine(repo Repository, sender messaging.Sender, resolver TargetResolver, loc *time.Location, log *slog.Logger) *Engine {
	if loc == nil {
		loc = time.UTC
	}
	return &Engine{
		repo:     repo,
		sender:   sender,
		resolver: resolver,
		loc:      loc,
		log:      log.With(slog.String("component", "custom_notifications")),
	}
}

// Tick обрабатывает все активные правила и возвращает ID сработавших.
// Ошибка возвращается только если не удалось прочитать правила.
func (e *Engine) Tick(ctx context.Context, now time.Time) ([]int64, error) {
	const op = "services.Engine.Tick"

	rules, err := e.repo.ListActiveCustomNotifications(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	local := now.In(e.loc)
	fired := make([]int64, 0)
	for _, rule := range rules {
		if e.fire(ctx, rule, local) {
			fired = append(fired, rule.ID)
		}
	}
	return fired, nil
}

func (e *Engine) fire(ctx context.Context, rule models.CustomNotification, now time.Time) bool {
	log := e.log.With(slog.Int64("notification_id", rule.ID))

	schedule, err := recurrence.Parse(rule.Frequency, rule.ScheduleExpr)
	if err != nil {
		log.Warn("skip rule with malformed schedule", sl.Err(err))
		return false
	}
	if !schedule.Due(now) {
		return false
	}
	if debounced(rule.LastSent, now) {
		if now.Before(*rule.LastSent) {
			// правило молчит, пока часы не догонят last_sent
			log.Warn("last_sent is in the future, rule skipped",
				slog.Time("last_sent", *rule.LastSent), slog.Time("now", now))
		} else {
			log.Debug("rule debounced", slog.Time("last_sent", *rule.LastSent))
		}
		return false
	}

	targets := e.resolver.Resolve(rule.TargetGroups)
	if len(targets) == 0 {
		log.Warn("rule resolved to no groups", slog.String("target_groups", rule.TargetGroups))
	}

	delivered := 0
	for _, chat := range targets {
		if err := e.sender.SendMessage(ctx, chat, rule.Message, messaging.FormatHTML); err != nil {
			log.Error("failed to deliver custom notification", sl.Chat(chat), sl.Err(err))
			continue
		}
		delivered++
	}
	// если не ушло ни одного сообщения, правило повторится на следующем тике
	if len(targets) > 0 && delivered == 0 {
		return false
	}

	if err := e.repo.UpdateLastSent(ctx, rule.ID, now); err != nil {
		log.Error("failed to persist last_sent", sl.Err(err))
	}
	log.Info("custom notification sent",
		slog.String("schedule", schedule.String()), slog.Int("delivered", delivered), slog.Int("targets", len(targets)))
	return true
}

func debounced(lastSent *time.Time, now time.Time) bool {
	if lastSent == nil {
		return false
	}
	return now.Sub(*lastSent) < DebounceWindow
}
