package response

import (
	"errors"

	"entrypass/lib/apperr"
	"entrypass/lib/clock"
)

type Response struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

func Error(message string) Response {
	return Response{
		Success:   false,
		Message:   message,
		Timestamp: clock.Now(),
	}
}

// FromError picks the HTTP status and client message for err. Only validation
// details reach the client; everything else is replaced by a catalogue message.
func FromError(err error) (int, Response) {
	kind := apperr.KindOf(err)
	status := apperr.Status(kind)
	switch kind {
	case apperr.KindValidation:
		var e *apperr.Error
		if errors.As(err, &e) && e.Message != "" {
			return status, Error(Invalid(e.Message))
		}
		return status, Error(MsgInvalidRequest)
	case apperr.KindAuth:
		return status, Error(MsgUnauthorized)
	case apperr.KindNotFound:
		return status, Error(MsgPassNotFound)
	default:
		return status, Error(MsgInternal)
	}
}

type Health struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}
