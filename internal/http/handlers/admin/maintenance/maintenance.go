// Package maintenance показывает и переключает режим обслуживания.
package maintenance

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/signal-club/internal/http/middlewarectx"
	"github.com/magabrotheeeer/signal-club/internal/http/response"
	"github.com/magabrotheeeer/signal-club/internal/lib/sl"
)

// Service настройки режима обслуживания.
type Service interface {
	MaintenanceEnabled(ctx context.Context) (bool, error)
	ToggleMaintenance(ctx context.Context) (bool, error)
}

// Handler обработчик режима обслуживания.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// Get GET /settings/maintenance.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.maintenance.get"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	enabled, err := h.service.MaintenanceEnabled(r.Context())
	if err != nil {
		log.Error("failed to read maintenance flag", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal service error"))
		return
	}
	render.JSON(w, r, response.StatusOKWithData(map[string]bool{"enabled": enabled}))
}

// Toggle POST /settings/maintenance/toggle.
func (h *Handler) Toggle(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.maintenance.toggle"
	operator, _ := middlewarectx.UserIDFrom(r.Context())
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.Int64("operator_id", operator),
	)

	enabled, err := h.service.ToggleMaintenance(r.Context())
	if err != nil {
		log.Error("failed to toggle maintenance", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal service error"))
		return
	}
	log.Info("maintenance toggled", slog.Bool("enabled", enabled))
	render.JSON(w, r, response.StatusOKWithData(map[string]bool{"enabled": enabled}))
}
