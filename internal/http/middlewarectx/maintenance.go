package middlewarectx

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/signal-club/internal/authz"
	"github.com/magabrotheeeer/signal-club/internal/http/response"
	"github.com/magabrotheeeer/signal-club/internal/lib/sl"
)

// CallerHeader заголовок, в котором бот передаёт ID пользователя чата.
// Доверять ему можно только после BotKeyMiddleware.
const CallerHeader = "X-User-ID"

// MaintenanceMiddleware отвечает 503 на пользовательские запросы, пока включён
// режим обслуживания. Пользователи с BypassMaintenance проходят.
// Ошибка чтения флага не закрывает API.
func MaintenanceMiddleware(settings MaintenanceReader, checker Authorizer, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.MaintenanceMiddleware"
			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			enabled, err := settings.MaintenanceEnabled(r.Context())
			if err != nil {
				log.Error("failed to read maintenance flag", sl.Err(err))
				next.ServeHTTP(w, r)
				return
			}
			if !enabled {
				next.ServeHTTP(w, r)
				return
			}

			if caller, err := strconv.ParseInt(r.Header.Get(CallerHeader), 10, 64); err == nil && caller != 0 {
				if checker.Check(r.Context(), caller, authz.BypassMaintenance) == nil {
					next.ServeHTTP(w, r)
					return
				}
			}
			log.Info("request rejected: maintenance mode")
			render.Status(r, http.StatusServiceUnavailable)
			render.JSON(w, r, response.Error("bot is under maintenance, please try again later"))
		})
	}
}
