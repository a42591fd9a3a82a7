package login

import (
	"context"
	"log/slog"
	"net/http"

	"entrypass/entity"
	"entrypass/internal/http-server/handlers/errors"
	"entrypass/lib/api/response"
	"entrypass/lib/apperr"
	"entrypass/lib/sl"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

type Core interface {
	Login(ctx context.Context, username, password string) (*entity.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*entity.TokenPair, error)
}

func Login(logger *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mod := sl.Module("http.handlers.login")

		log := logger.With(
			mod,
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req entity.LoginRequest
		if err := render.Bind(r, &req); err != nil {
			log.Warn("invalid request body", sl.Err(err))
			errors.BadRequest(w, r, response.Invalid(err.Error()))
			return
		}

		pair, err := handler.Login(r.Context(), req.Username, req.Password)
		if err != nil {
			if apperr.KindOf(err) == apperr.KindAuth {
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error(response.MsgInvalidCredentials))
				return
			}
			errors.Render(w, r, log, err)
			return
		}
		render.JSON(w, r, pair)
	}
}

func Refresh(logger *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mod := sl.Module("http.handlers.login")

		log := logger.With(
			mod,
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req entity.RefreshRequest
		if err := render.Bind(r, &req); err != nil {
			log.Warn("invalid request body", sl.Err(err))
			errors.BadRequest(w, r, response.Invalid(err.Error()))
			return
		}

		pair, err := handler.Refresh(r.Context(), req.RefreshToken)
		if err != nil {
			if apperr.KindOf(err) == apperr.KindAuth {
				log.Debug("refresh rejected", sl.Err(err))
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error(response.MsgSessionExpired))
				return
			}
			errors.Render(w, r, log, err)
			return
		}
		render.JSON(w, r, pair)
	}
}
