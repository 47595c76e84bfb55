// Package profile отдаёт текущую подписку пользователя чата.
package profile

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
	"github.com/magabrotheeeer/signal-club/internal/storage/repository"
)

// Service возвращает активную подписку.
type Service interface {
	CurrentSubscription(ctx context.Context, userID int64) (*models.SubscriptionInfo, error)
}

// Subscription представление подписки в ответе.
type Subscription struct {
	ID           int64     `json:"id"`
	PackageName  string    `json:"package_name"`
	Assets       string    `json:"assets"`
	StartDate    time.Time `json:"start_date"`
	EndDate      time.Time `json:"end_date"`
	Status       string    `json:"status"`
	InviteStatus string    `json:"invite_status"`
}

// Handler обработчик профиля.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.users.profile"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		log.Error("invalid user id", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid user id"))
		return
	}

	sub, err := h.service.CurrentSubscription(r.Context(), userID)
	if errors.Is(err, repository.ErrNotFound) {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.Error("no active subscription"))
		return
	}
	if err != nil {
		log.Error("failed to get subscription", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal service error"))
		return
	}

	render.JSON(w, r, response.StatusOKWithData(Subscription{
		ID:           sub.ID,
		PackageName:  sub.PackageName,
		Assets:       sub.Assets,
		StartDate:    sub.StartDate,
		EndDate:      sub.EndDate,
		Status:       sub.Status,
		InviteStatus: sub.InviteStatus,
	}))
}
