package entries

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"entrypass/entity"
	"entrypass/internal/http-server/handlers/errors"
	"entrypass/lib/api/cont"
	"entrypass/lib/api/response"
	"entrypass/lib/apperr"
	"entrypass/lib/sl"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

type Core interface {
	IssuePass(ctx context.Context, req *entity.IssueRequest, actor *entity.User) (*entity.Pass, error)
	GetPass(ctx context.Context, id int64) (*entity.Pass, error)
	ListPasses(ctx context.Context, search string) ([]*entity.Pass, error)
	SetPassStatus(ctx context.Context, id int64, status entity.Status) (*entity.Pass, error)
	RegisterScan(ctx context.Context, id int64) (*entity.Pass, error)
	PassCode(ctx context.Context, id int64) (*entity.PassCode, error)
}

func requestLogger(logger *slog.Logger, r *http.Request) *slog.Logger {
	return logger.With(
		sl.Module("http.handlers.entries"),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)
}

func passId(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func Issue(logger *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := requestLogger(logger, r)

		var req entity.IssueRequest
		if err := render.Bind(r, &req); err != nil {
			log.Warn("invalid request body", sl.Err(err))
			errors.BadRequest(w, r, response.Invalid(err.Error()))
			return
		}

		pass, err := handler.IssuePass(r.Context(), &req, cont.GetUser(r.Context()))
		if err != nil {
			errors.Render(w, r, log, err)
			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, pass)
	}
}

func List(logger *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := requestLogger(logger, r)

		passes, err := handler.ListPasses(r.Context(), r.URL.Query().Get("search"))
		if err != nil {
			errors.Render(w, r, log, err)
			return
		}
		if passes == nil {
			passes = []*entity.Pass{}
		}
		render.JSON(w, r, passes)
	}
}

func Get(logger *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := requestLogger(logger, r)

		id, ok := passId(r)
		if !ok {
			errors.BadRequest(w, r, response.MsgInvalidId)
			return
		}

		pass, err := handler.GetPass(r.Context(), id)
		if err != nil {
			errors.Render(w, r, log.With(sl.Pass(id)), err)
			return
		}
		render.JSON(w, r, pass)
	}
}

func SetStatus(logger *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := requestLogger(logger, r)

		id, ok := passId(r)
		if !ok {
			errors.BadRequest(w, r, response.MsgInvalidId)
			return
		}
		log = log.With(sl.Pass(id))

		var req entity.StatusRequest
		if err := render.Bind(r, &req); err != nil {
			log.Warn("invalid request body", sl.Err(err))
			errors.BadRequest(w, r, response.Invalid(err.Error()))
			return
		}

		pass, err := handler.SetPassStatus(r.Context(), id, req.Status)
		if err != nil {
			errors.Render(w, r, log, err)
			return
		}
		render.JSON(w, r, pass)
	}
}

// Scan checks a pass in from a camera scan. Unknown and already registered
// passes get the same 404 answer.
func Scan(logger *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := requestLogger(logger, r)

		var req entity.ScanRequest
		if err := render.Bind(r, &req); err != nil {
			log.Warn("invalid scan request", sl.Err(err))
			errors.BadRequest(w, r, response.Invalid(err.Error()))
			return
		}
		log = log.With(sl.Pass(req.EntryId))

		pass, err := handler.RegisterScan(r.Context(), req.EntryId)
		if err != nil {
			if apperr.KindOf(err) == apperr.KindNotFound {
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, response.Error(response.MsgScanRejected))
				return
			}
			errors.Render(w, r, log, err)
			return
		}
		render.JSON(w, r, pass)
	}
}
