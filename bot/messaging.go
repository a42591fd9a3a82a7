package bot

import (
	"fmt"
	"log/slog"
)

// SendMessageWithLevel queues msg for every configured chat. When the queue is
// full the alert is dropped rather than blocking the logging caller.
func (t *TgBot) SendMessageWithLevel(msg string, level slog.Level) {
	text := fmt.Sprintf("[entrypass] %s", msg)
	if level >= slog.LevelError {
		text = "🔴 " + text
	}
	select {
	case t.queue <- text:
	default:
		t.log.Warn("alert queue full, message dropped")
	}
}
