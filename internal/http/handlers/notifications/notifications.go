// Package notifications управляет пользовательскими рассылками по расписанию.
package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/signal-club/internal/http/response"
	"github.com/magabrotheeeer/signal-club/internal/lib/sl"
	"github.com/magabrotheeeer/signal-club/internal/models"
	"github.com/magabrotheeeer/signal-club/internal/recurrence"
	"github.com/magabrotheeeer/signal-club/internal/storage/repository"
)

// Service управление правилами.
type Service interface {
	Create(ctx context.Context, req models.DummyCustomNotification) (*models.CustomNotification, error)
	List(ctx context.Context) ([]models.CustomNotification, error)
	Delete(ctx context.Context, id int64) error
}

// Handler обработчик рассылок.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создает Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// Create POST /notifications.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.notifications.create"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.DummyCustomNotification
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	n, err := h.service.Create(r.Context(), req)
	if errors.Is(err, recurrence.ErrInvalidExpression) {
		log.Warn("invalid schedule", sl.Err(err))
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.Error(err.Error()))
		return
	}
	if err != nil {
		log.Error("failed to create notification", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not create notification"))
		return
	}
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.StatusOKWithData(n))
}

// List GET /notifications.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.notifications.list"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	list, err := h.service.List(r.Context())
	if err != nil {
		log.Error("failed to list notifications", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal service error"))
		return
	}
	if list == nil {
		list = []models.CustomNotification{}
	}
	render.JSON(w, r, response.StatusOKWithData(list))
}

// Delete DELETE /notifications/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.notifications.delete"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		log.Error("invalid notification id", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid notification id"))
		return
	}

	err = h.service.Delete(r.Context(), id)
	if errors.Is(err, repository.ErrNotFound) {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.Error("notification not found"))
		return
	}
	if err != nil {
		log.Error("failed to delete notification", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal service error"))
		return
	}
	render.JSON(w, r, response.StatusOKWithData(map[string]int64{"deleted": id}))
}
