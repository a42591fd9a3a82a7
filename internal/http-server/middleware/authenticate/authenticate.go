package authenticate

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"entrypass/entity"
	"entrypass/lib/api/cont"
	"entrypass/lib/api/response"
	"entrypass/lib/sl"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/golang-jwt/jwt/v5"
)

type Authenticate interface {
	AuthenticateByToken(token string) (*entity.User, error)
}

// New rejects requests without a valid access token before they reach a handler.
func New(log *slog.Logger, auth Authenticate) func(next http.Handler) http.Handler {
	mod := sl.Module("middleware.authenticate")
	log.With(mod).Info("authenticate middleware initialized")

	return func(next http.Handler) http.Handler {

		fn := func(w http.ResponseWriter, r *http.Request) {
			logger := log.With(
				mod,
				slog.String("path", r.URL.Path),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				logger.Debug("token not found")
				authFailed(w, r, response.MsgMissingToken)
				return
			}

			if auth == nil {
				logger.Error("authentication not enabled")
				authFailed(w, r, response.MsgUnauthorized)
				return
			}

			user, err := auth.AuthenticateByToken(token)
			if err != nil {
				logger.With(sl.Secret("token", token)).Warn("authentication failed", sl.Err(err))
				message := response.MsgUnauthorized
				if errors.Is(err, jwt.ErrTokenExpired) {
					message = response.MsgSessionExpired
				}
				authFailed(w, r, message)
				return
			}

			w.Header().Set("X-User", user.Username)
			next.ServeHTTP(w, r.WithContext(cont.PutUser(r.Context(), user)))
		}

		return http.HandlerFunc(fn)
	}
}

func bearerToken(header string) (string, bool) {
	token, found := strings.CutPrefix(header, "Bearer ")
	if !found {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func authFailed(w http.ResponseWriter, r *http.Request, message string) {
	render.Status(r, http.StatusUnauthorized)
	render.JSON(w, r, response.Error(message))
}
