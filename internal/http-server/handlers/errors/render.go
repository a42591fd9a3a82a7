package errors

import (
	"log/slog"
	"net/http"

	"entrypass/lib/api/response"
	"entrypass/lib/apperr"
	"entrypass/lib/sl"

	"github.com/go-chi/render"
)

// Render writes err as a JSON error body. Internal failures are logged here so
// their details stay on the server.
func Render(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	status, body := response.FromError(err)
	if apperr.KindOf(err) == apperr.KindInternal {
		log.Error("request failed", sl.Err(err))
	} else {
		log.Debug("request rejected", sl.Err(err))
	}
	render.Status(r, status)
	render.JSON(w, r, body)
}

// BadRequest answers 400 with message.
func BadRequest(w http.ResponseWriter, r *http.Request, message string) {
	render.Status(r, http.StatusBadRequest)
	render.JSON(w, r, response.Error(message))
}
