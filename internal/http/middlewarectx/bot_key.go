package middlewarectx

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/signal-club/internal/http/response"
)

// BotKeyHeader заголовок с ключом, выданным фронтенду бота.
const BotKeyHeader = "X-Bot-Key"

// BotKeyMiddleware пропускает только запросы с верным ключом бота.
// Заголовок CallerHeader читается дальше по цепочке, поэтому этот middleware
// должен стоять перед MaintenanceMiddleware. Пустой ключ в конфиге закрывает маршруты.
func BotKeyMiddleware(key string, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.BotKeyMiddleware"

			got := r.Header.Get(BotKeyHeader)
			if key == "" || subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1 {
				log.Warn("bot key rejected",
					slog.String("op", op),
					slog.String("request_id", middleware.GetReqID(r.Context())),
					slog.Bool("configured", key != ""),
				)
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("invalid bot key"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
