package admin

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"golang.org/x/time/rate"

	"github.com/magabrotheeeer/signal-club/internal/authz"
	"github.com/magabrotheeeer/signal-club/internal/http/handlers/admin/jobs"
	"github.com/magabrotheeeer/signal-club/internal/http/handlers/admin/maintenance"
	"github.com/magabrotheeeer/signal-club/internal/http/handlers/admin/uninvited"
	"github.com/magabrotheeeer/signal-club/internal/http/handlers/auth/login"
	"github.com/magabrotheeeer/signal-club/internal/http/handlers/auth/register"
	"github.com/magabrotheeeer/signal-club/internal/http/handlers/catalog"
	"github.com/magabrotheeeer/signal-club/internal/http/handlers/health"
	"github.com/magabrotheeeer/signal-club/internal/http/handlers/notifications"
	"github.com/magabrotheeeer/signal-club/internal/http/handlers/transactions/decision"
	"github.com/magabrotheeeer/signal-club/internal/http/handlers/transactions/submit"
	"github.com/magabrotheeeer/signal-club/internal/http/handlers/users/profile"
	"github.com/magabrotheeeer/signal-club/internal/http/handlers/users/role"
	"github.com/magabrotheeeer/signal-club/internal/http/middlewarectx"
)

// SubscriptionService операции бота и оператора над пользователями и подписками.
type SubscriptionService interface {
	register.Service
	profile.Service
	catalog.Service
	submit.Service
	decision.Service
	uninvited.Service
}

// AuthService вход, проверка токена и назначение ролей.
type AuthService interface {
	login.Service
	middlewarectx.Service
	role.Service
}

// Deps зависимости маршрутов.
type Deps struct {
	Subscriptions SubscriptionService
	Auth          AuthService
	Settings      maintenance.Service
	Notifications notifications.Service
	Jobs          jobs.Publisher
	Checker       middlewarectx.Authorizer
	BotKey        string
	Limiter       *rate.Limiter
	Health        map[string]health.Check
	Metrics       http.Handler
}

// RegisterRoutes регистрирует все маршруты admin-сервиса.
func RegisterRoutes(r chi.Router, logger *slog.Logger, d Deps) {
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
	)
	if d.Limiter != nil {
		r.Use(middlewarectx.RateLimitMiddleware(d.Limiter, logger))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/login", login.New(logger, d.Auth).ServeHTTP)

		// Запросы бота, закрываются режимом обслуживания
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.BotKeyMiddleware(d.BotKey, logger))
			r.Use(middlewarectx.MaintenanceMiddleware(d.Settings, d.Checker, logger))

			cat := catalog.New(logger, d.Subscriptions)
			r.Post("/users", register.New(logger, d.Subscriptions).ServeHTTP)
			r.Get("/users/{id}/subscription", profile.New(logger, d.Subscriptions).ServeHTTP)
			r.Get("/packages", cat.Packages)
			r.Get("/payment-methods", cat.PaymentMethods)
			r.Post("/transactions", submit.New(logger, d.Subscriptions).ServeHTTP)
		})

		// Операторские действия
		r.Route("/admin", func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(d.Auth, logger))
			need := func(c authz.Capability) func(http.Handler) http.Handler {
				return middlewarectx.RequireCapability(d.Checker, c, logger)
			}

			r.With(need(authz.RunJobs)).Post("/jobs/{name}/run", jobs.New(logger, d.Jobs).ServeHTTP)

			mh := maintenance.New(logger, d.Settings)
			r.With(need(authz.ToggleMaintenance)).Get("/settings/maintenance", mh.Get)
			r.With(need(authz.ToggleMaintenance)).Post("/settings/maintenance/toggle", mh.Toggle)

			uh := uninvited.New(logger, d.Subscriptions)
			r.With(need(authz.ListUninvited)).Get("/subscriptions/uninvited", uh.List)
			r.With(need(authz.ListUninvited)).Post("/subscriptions/{id}/reinvite", uh.Reinvite)

			dh := decision.New(logger, d.Subscriptions)
			r.With(need(authz.ConfirmTransactions)).Post("/transactions/{id}/confirm", dh.Confirm)
			r.With(need(authz.ConfirmTransactions)).Post("/transactions/{id}/reject", dh.Reject)

			nh := notifications.New(logger, d.Notifications)
			r.Group(func(r chi.Router) {
				r.Use(need(authz.ManageNotifications))
				r.Post("/notifications", nh.Create)
				r.Get("/notifications", nh.List)
				r.Delete("/notifications/{id}", nh.Delete)
			})

			r.With(need(authz.AssignRoles)).Put("/users/{id}/role", role.New(logger, d.Auth).ServeHTTP)
		})
	})

	r.Handle("/health", health.New(logger, d.Health))
	if d.Metrics != nil {
		r.Handle("/metrics", d.Metrics)
	}
}
