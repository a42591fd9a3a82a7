package health

import (
	"log/slog"
	"net/http"

	"entrypass/lib/api/response"
	"entrypass/lib/clock"

	"github.com/go-chi/render"
)

func Health(_ *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, response.Health{
			Status:    "ok",
			Timestamp: clock.Now(),
		})
	}
}
