// Package commands передаёт команды оператора от admin-сервиса диспетчеру через RabbitMQ.
package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/signal-club/internal/lib/rabbitmq"
)

// Задачи, которые оператор может запустить вне расписания.
const (
	JobSignals = "signals"
	JobNews    = "news"
)

// ErrNotForceRunnable задачу нельзя запустить вне расписания.
var ErrNotForceRunnable = errors.New("job cannot be force-run")

// ForceRunnable сообщает, можно ли запустить задачу по команде.
func ForceRunnable(job string) bool {
	return job == JobSignals || job == JobNews
}

// RunJob команда внепланового запуска задачи.
type RunJob struct {
	RequestID   string    `json:"request_id"`
	Job         string    `json:"job"`
	RequestedBy int64     `json:"requested_by"`
	RequestedAt time.Time `json:"requested_at"`
}

// Publisher отправляет команды в обменник команд.
type Publisher struct {
	mu  sync.Mutex
	ch  rabbitmq.Channel
	log *slog.Logger
}

// NewPublisher конструктор.
func NewPublisher(ch rabbitmq.Channel, log *slog.Logger) *Publisher {
	return &Publisher{ch: ch, log: log}
}

// RunJob публикует команду и возвращает её request_id.
func (p *Publisher) RunJob(_ context.Context, job string, requestedBy int64) (string, error) {
	const op = "commands.Publisher.RunJob"

	if !ForceRunnable(job) {
		return "", fmt.Errorf("%s: %q: %w", op, job, ErrNotForceRunnable)
	}
	cmd := RunJob{
		RequestID:   uuid.NewString(),
		Job:         job,
		RequestedBy: requestedBy,
		RequestedAt: time.Now().UTC(),
	}

	p.mu.Lock()
	err := rabbitmq.PublishMessage(p.ch, rabbitmq.CommandsExchange, rabbitmq.RunJobRoutingKey, cmd)
	p.mu.Unlock()
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	p.log.Info("run job command published",
		slog.String("job", job), slog.String("command_id", cmd.RequestID), slog.Int64("requested_by", requestedBy))
	return cmd.RequestID, nil
}

// JobRunner запускает задачу по имени.
type JobRunner interface {
	RunNow(ctx context.Context, name string) error
}

// Handler обрабатывает команды RunJob на стороне диспетчера.
type Handler struct {
	runner JobRunner
	log    *slog.Logger
}

// NewHandler конструктор.
func NewHandler(runner JobRunner, log *slog.Logger) *Handler {
	return &Handler{runner: runner, log: log}
}

// Handle разбирает и исполняет команду. Повторная доставка не запрашивается:
// битая или неизвестная команда не станет корректной, а упавшая задача
// отработает по расписанию.
func (h *Handler) Handle(ctx context.Context, body []byte) (bool, error) {
	const op = "commands.Handler.Handle"

	var cmd RunJob
	if err := json.Unmarshal(body, &cmd); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	if !ForceRunnable(cmd.Job) {
		return false, fmt.Errorf("%s: %q: %w", op, cmd.Job, ErrNotForceRunnable)
	}

	h.log.Info("run job command received",
		slog.String("job", cmd.Job), slog.String("command_id", cmd.RequestID), slog.Int64("requested_by", cmd.RequestedBy))
	if err := h.runner.RunNow(ctx, cmd.Job); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return false, nil
}
