package entries

import (
	"log/slog"
	"net/http"
	"strconv"

	"entrypass/internal/http-server/handlers/errors"
	"entrypass/lib/api/response"
	"entrypass/lib/sl"

	"github.com/go-chi/render"
	"github.com/skip2/go-qrcode"
)

const (
	defaultQRSize = 256
	minQRSize     = 64
	maxQRSize     = 1024
)

// Code returns the text the admin UI renders as the pass QR code.
func Code(logger *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := requestLogger(logger, r)

		id, ok := passId(r)
		if !ok {
			errors.BadRequest(w, r, response.MsgInvalidId)
			return
		}

		code, err := handler.PassCode(r.Context(), id)
		if err != nil {
			errors.Render(w, r, log.With(sl.Pass(id)), err)
			return
		}
		render.JSON(w, r, code)
	}
}

// QR renders the pass code as a PNG image, size pixels square.
func QR(logger *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := requestLogger(logger, r)

		id, ok := passId(r)
		if !ok {
			errors.BadRequest(w, r, response.MsgInvalidId)
			return
		}
		log = log.With(sl.Pass(id))

		size := defaultQRSize
		if value := r.URL.Query().Get("size"); value != "" {
			n, err := strconv.Atoi(value)
			if err != nil || n < minQRSize || n > maxQRSize {
				errors.BadRequest(w, r, response.MsgInvalidSize)
				return
			}
			size = n
		}

		code, err := handler.PassCode(r.Context(), id)
		if err != nil {
			errors.Render(w, r, log, err)
			return
		}

		png, err := qrcode.Encode(code.Code, qrcode.High, size)
		if err != nil {
			log.Error("encode qr", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error(response.MsgInternal))
			return
		}

		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Content-Length", strconv.Itoa(len(png)))
		w.Header().Set("Cache-Control", "no-store")
		w.WriteHeader(http.StatusOK)
		if _, err = w.Write(png); err != nil {
			log.Debug("write qr", sl.Err(err))
		}
	}
}
