package bot

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"

	tgbotapi "github.com/PaulSonOfLars/gotgbot/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	mu   sync.Mutex
	sent map[int64][]string
	fail bool
}

func (f *fakeAPI) SendMessage(chatId int64, text string, _ *tgbotapi.SendMessageOpts) (*tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return nil, errors.New("telegram unavailable")
	}
	if f.sent == nil {
		f.sent = make(map[int64][]string)
	}
	f.sent[chatId] = append(f.sent[chatId], text)
	return &tgbotapi.Message{}, nil
}

func TestSendMessageReachesAllChats(t *testing.T) {
	api := &fakeAPI{}
	log := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	b := newWithAPI(api, []int64{10, 20}, log)

	b.SendMessageWithLevel("store failure", slog.LevelError)
	b.Stop()

	require.Len(t, api.sent[10], 1)
	require.Len(t, api.sent[20], 1)
	assert.Contains(t, api.sent[10][0], "store failure")
	assert.True(t, strings.HasPrefix(api.sent[10][0], "🔴"))
}

func TestSendFailureIsLogged(t *testing.T) {
	api := &fakeAPI{fail: true}
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil))
	b := newWithAPI(api, []int64{10}, log)

	b.SendMessageWithLevel("warning", slog.LevelWarn)
	b.Stop()

	assert.Contains(t, buf.String(), "sending message")
}

func TestLongMessagesAreTruncated(t *testing.T) {
	api := &fakeAPI{}
	log := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	b := newWithAPI(api, []int64{1}, log)

	b.SendMessageWithLevel(strings.Repeat("x", 5000), slog.LevelWarn)
	b.Stop()

	require.Len(t, api.sent[1], 1)
	assert.Len(t, api.sent[1][0], maxMessage)
}
