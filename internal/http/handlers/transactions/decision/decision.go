// Package decision подтверждает или отклоняет заявки на оплату.
package decision

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/signal-club/internal/http/middlewarectx"
	"github.com/magabrotheeeer/signal-club/internal/http/response"
	"github.com/magabrotheeeer/signal-club/internal/lib/sl"
	subscriptionservice "github.com/magabrotheeeer/signal-club/internal/services/subscription"
	"github.com/magabrotheeeer/signal-club/internal/storage/repository"
)

// Service решения по заявкам.
type Service interface {
	ConfirmTransaction(ctx context.Context, txID int64) (*subscriptionservice.InviteResult, error)
	RejectTransaction(ctx context.Context, txID int64) error
}

// Handler обработчик решений.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// Confirm POST /transactions/{id}/confirm.
func (h *Handler) Confirm(w http.ResponseWriter, r *http.Request) {
	log, txID, ok := h.prepare(w, r, "handlers.transactions.confirm")
	if !ok {
		return
	}

	result, err := h.service.ConfirmTransaction(r.Context(), txID)
	if err != nil {
		h.fail(w, r, log, err)
		return
	}
	if !result.Sent {
		log.Warn("subscription activated without all invite links", slog.Any("failed", result.Failed))
	}
	render.JSON(w, r, response.StatusOKWithData(result))
}

// Reject POST /transactions/{id}/reject.
func (h *Handler) Reject(w http.ResponseWriter, r *http.Request) {
	log, txID, ok := h.prepare(w, r, "handlers.transactions.reject")
	if !ok {
		return
	}

	if err := h.service.RejectTransaction(r.Context(), txID); err != nil {
		h.fail(w, r, log, err)
		return
	}
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"transaction_id": txID,
		"status":         "rejected",
	}))
}

func (h *Handler) prepare(w http.ResponseWriter, r *http.Request, op string) (*slog.Logger, int64, bool) {
	operator, _ := middlewarectx.UserIDFrom(r.Context())
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.Int64("operator_id", operator),
	)
	txID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		log.Error("invalid transaction id", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid transaction id"))
		return nil, 0, false
	}
	return log.With(slog.Int64("transaction_id", txID)), txID, true
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.Error("transaction not found"))
	case errors.Is(err, repository.ErrNotPending):
		render.Status(r, http.StatusConflict)
		render.JSON(w, r, response.Error("transaction already processed"))
	default:
		log.Error("failed to process transaction", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal service error"))
	}
}
