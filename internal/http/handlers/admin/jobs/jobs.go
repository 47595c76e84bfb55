// Package jobs принимает запросы на внеочередной запуск задач диспетчера.
// Команда уходит в RabbitMQ, ответ содержит её request_id.
package jobs

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/signal-club/internal/commands"
	"github.com/magabrotheeeer/signal-club/internal/http/middlewarectx"
	"github.com/magabrotheeeer/signal-club/internal/http/response"
	"github.com/magabrotheeeer/signal-club/internal/lib/sl"
)

// Publisher публикует команду запуска.
type Publisher interface {
	RunJob(ctx context.Context, job string, requestedBy int64) (string, error)
}

// Handler обработчик запуска задачи.
type Handler struct {
	log       *slog.Logger
	publisher Publisher
}

// New создает Handler.
func New(log *slog.Logger, publisher Publisher) *Handler {
	return &Handler{log: log, publisher: publisher}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.jobs"
	operator, _ := middlewarectx.UserIDFrom(r.Context())
	job := chi.URLParam(r, "name")
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.Int64("operator_id", operator),
		slog.String("job", job),
	)

	commandID, err := h.publisher.RunJob(r.Context(), job, operator)
	if errors.Is(err, commands.ErrNotForceRunnable) {
		log.Warn("job cannot be force-run")
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("job cannot be force-run"))
		return
	}
	if err != nil {
		log.Error("failed to publish run command", sl.Err(err))
		render.Status(r, http.StatusServiceUnavailable)
		render.JSON(w, r, response.Error("command bus unavailable"))
		return
	}

	log.Info("job run requested", slog.String("command_id", commandID))
	render.Status(r, http.StatusAccepted)
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"job":        job,
		"command_id": commandID,
	}))
}
