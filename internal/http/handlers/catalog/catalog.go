// Package catalog отдаёт тарифы и способы оплаты.
package catalog

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/signal-club/internal/http/response"
	"github.com/magabrotheeeer/signal-club/internal/lib/sl"
	"github.com/magabrotheeeer/signal-club/internal/models"
)

// Service источник каталога.
type Service interface {
	Packages(ctx context.Context) ([]models.Package, error)
	PaymentMethods(ctx context.Context) ([]models.PaymentMethod, error)
}

// Package тариф в ответе. Цена отдаётся строкой без потери точности.
type Package struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	Price        string `json:"price"`
	DurationDays int    `json:"duration_days"`
	Assets       string `json:"assets"`
}

// Handler обработчик каталога.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// Packages GET /packages.
func (h *Handler) Packages(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.catalog.packages"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	list, err := h.service.Packages(r.Context())
	if err != nil {
		log.Error("failed to list packages", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not list packages"))
		return
	}
	result := make([]Package, 0, len(list))
	for _, p := range list {
		result = append(result, Package{
			ID:           p.ID,
			Name:         p.Name,
			Price:        p.Price.StringFixed(2),
			DurationDays: p.DurationDays,
			Assets:       p.Assets,
		})
	}
	render.JSON(w, r, response.StatusOKWithData(result))
}

// PaymentMethods GET /payment-methods.
func (h *Handler) PaymentMethods(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.catalog.payment_methods"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	list, err := h.service.PaymentMethods(r.Context())
	if err != nil {
		log.Error("failed to list payment methods", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not list payment methods"))
		return
	}
	if list == nil {
		list = []models.PaymentMethod{}
	}
	render.JSON(w, r, response.StatusOKWithData(list))
}
