package events

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"entrypass/lib/sl"

	"github.com/go-chi/chi/v5/middleware"
)

const (
	messageConnected  = `{"type":"connected"}`
	messageInvalidate = `{"type":"invalidate"}`

	defaultHeartbeat = 25 * time.Second
)

type Core interface {
	Subscribe() (<-chan struct{}, func())
}

// Stream keeps a server-sent events connection open and writes an invalidate
// message whenever pass data changes. Clients refetch on their own.
func Stream(logger *slog.Logger, handler Core, heartbeat time.Duration) http.HandlerFunc {
	if heartbeat <= 0 {
		heartbeat = defaultHeartbeat
	}
	return func(w http.ResponseWriter, r *http.Request) {
		log := logger.With(
			sl.Module("http.handlers.events"),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		rc := http.NewResponseController(w)
		// the server WriteTimeout would otherwise cut the stream
		if err := rc.SetWriteDeadline(time.Time{}); err != nil {
			log.Debug("clear write deadline", sl.Err(err))
		}

		h := w.Header()
		h.Set("Content-Type", "text/event-stream")
		h.Set("Cache-Control", "no-cache")
		h.Set("Connection", "keep-alive")
		h.Set("X-Accel-Buffering", "no")

		ch, cancel := handler.Subscribe()
		defer cancel()

		w.WriteHeader(http.StatusOK)
		if err := send(w, rc, "data: "+messageConnected); err != nil {
			log.Error("open event stream", sl.Err(err))
			return
		}
		log.Debug("event stream opened")

		ticker := time.NewTicker(heartbeat)
		defer ticker.Stop()

		for {
			select {
			case <-r.Context().Done():
				log.Debug("event stream closed")
				return
			case _, ok := <-ch:
				if !ok {
					return
				}
				if err := send(w, rc, "data: "+messageInvalidate); err != nil {
					log.Debug("write event", sl.Err(err))
					return
				}
			case <-ticker.C:
				if err := send(w, rc, ": ping"); err != nil {
					log.Debug("write heartbeat", sl.Err(err))
					return
				}
			}
		}
	}
}

func send(w http.ResponseWriter, rc *http.ResponseController, line string) error {
	if _, err := fmt.Fprintf(w, "%s\n\n", line); err != nil {
		return err
	}
	return rc.Flush()
}
