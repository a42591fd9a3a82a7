// Package bot pushes operational alerts to a fixed set of Telegram chats.
// It is write-only: no commands are polled or handled.
package bot

import (
	"fmt"
	"log/slog"
	"time"

	"entrypass/lib/sl"

	tgbotapi "github.com/PaulSonOfLars/gotgbot/v2"
)

// maxMessage is Telegram's limit on message text length.
const maxMessage = 4096

type api interface {
	SendMessage(chatId int64, text string, opts *tgbotapi.SendMessageOpts) (*tgbotapi.Message, error)
}

type TgBot struct {
	log     *slog.Logger
	api     api
	chatIds []int64
	queue   chan string
	done    chan struct{}
}

func NewTgBot(apiKey string, chatIds []int64, log *slog.Logger) (*TgBot, error) {
	client, err := tgbotapi.NewBot(apiKey, &tgbotapi.BotOpts{
		RequestOpts: &tgbotapi.RequestOpts{Timeout: 10 * time.Second},
	})
	if err != nil {
		return nil, fmt.Errorf("creating api instance: %v", err)
	}
	return newWithAPI(client, chatIds, log), nil
}

func newWithAPI(client api, chatIds []int64, log *slog.Logger) *TgBot {
	t := &TgBot{
		// the bot's own failures must not feed back into the alert handler
		log:     slog.New(log.Handler()).With(sl.Module("tgbot")),
		api:     client,
		chatIds: chatIds,
		queue:   make(chan string, 64),
		done:    make(chan struct{}),
	}
	go t.run()
	return t
}

func (t *TgBot) run() {
	defer close(t.done)
	for msg := range t.queue {
		for _, id := range t.chatIds {
			t.plainResponse(id, msg)
		}
	}
}

// Stop flushes queued alerts and stops the sender goroutine.
func (t *TgBot) Stop() {
	close(t.queue)
	<-t.done
}

func (t *TgBot) plainResponse(chatId int64, text string) {
	if text == "" {
		return
	}
	if runes := []rune(text); len(runes) > maxMessage {
		text = string(runes[:maxMessage])
	}
	_, err := t.api.SendMessage(chatId, text, &tgbotapi.SendMessageOpts{})
	if err != nil {
		t.log.With(slog.Int64("id", chatId)).Warn("sending message", sl.Err(err))
	}
}
