// Package uninvited показывает активные подписки без выданных приглашений
// и позволяет выдать приглашения повторно.
package uninvited

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/signal-club/internal/http/response"
	"github.com/magabrotheeeer/signal-club/internal/lib/sl"
	"github.com/magabrotheeeer/signal-club/internal/models"
	subscriptionservice "github.com/magabrotheeeer/signal-club/internal/services/subscription"
	"github.com/magabrotheeeer/signal-club/internal/storage/repository"
)

// Service аудит приглашений.
type Service interface {
	ListUninvited(ctx context.Context) ([]models.SubscriptionInfo, error)
	ReissueInvites(ctx context.Context, subID int64) (*subscriptionservice.InviteResult, error)
}

// Entry строка аудита.
type Entry struct {
	SubscriptionID int64     `json:"subscription_id"`
	UserID         int64     `json:"user_id"`
	Username       string    `json:"username"`
	PackageName    string    `json:"package_name"`
	Assets         string    `json:"assets"`
	StartDate      time.Time `json:"start_date"`
	InviteStatus   string    `json:"invite_status"`
}

// Handler обработчик аудита.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// List GET /subscriptions/uninvited.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.uninvited.list"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	subs, err := h.service.ListUninvited(r.Context())
	if err != nil {
		log.Error("failed to list uninvited subscriptions", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal service error"))
		return
	}
	result := make([]Entry, 0, len(subs))
	for _, s := range subs {
		result = append(result, Entry{
			SubscriptionID: s.ID,
			UserID:         s.UserID,
			Username:       s.Username,
			PackageName:    s.PackageName,
			Assets:         s.Assets,
			StartDate:      s.StartDate,
			InviteStatus:   s.InviteStatus,
		})
	}
	log.Info("uninvited subscriptions listed", slog.Int("count", len(result)))
	render.JSON(w, r, response.StatusOKWithData(result))
}

// Reinvite POST /subscriptions/{id}/reinvite.
func (h *Handler) Reinvite(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.uninvited.reinvite"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	subID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		log.Error("invalid subscription id", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid subscription id"))
		return
	}

	result, err := h.service.ReissueInvites(r.Context(), subID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.Error("subscription not found"))
		return
	case errors.Is(err, subscriptionservice.ErrInactive):
		render.Status(r, http.StatusConflict)
		render.JSON(w, r, response.Error("subscription is not active"))
		return
	case err != nil:
		log.Error("failed to reissue invites", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal service error"))
		return
	}
	render.JSON(w, r, response.StatusOKWithData(result))
}
