package middlewarectx

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/signal-club/internal/authz"
	"github.com/magabrotheeeer/signal-club/internal/http/response"
	"github.com/magabrotheeeer/signal-club/internal/lib/sl"
	"github.com/magabrotheeeer/signal-club/internal/storage/repository"
)

// RequireCapability пропускает запрос, только если у оператора из контекста есть возможность c.
// Роль перечитывается из хранилища, поэтому снятие роли действует сразу.
func RequireCapability(checker Authorizer, c authz.Capability, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.RequireCapability"
			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
				slog.String("capability", string(c)),
			)

			userID, ok := UserIDFrom(r.Context())
			if !ok {
				log.Error("user identification missing")
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("user identification missing"))
				return
			}

			err := checker.Check(r.Context(), userID, c)
			switch {
			case err == nil:
				next.ServeHTTP(w, r)
			case errors.Is(err, authz.ErrUnauthorized), errors.Is(err, repository.ErrNotFound):
				log.Warn("access denied", slog.Int64("user_id", userID))
				render.Status(r, http.StatusForbidden)
				render.JSON(w, r, response.Error("unauthorized"))
			default:
				log.Error("failed to check capability", sl.Err(err))
				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, response.Error("internal service error"))
			}
		})
	}
}
