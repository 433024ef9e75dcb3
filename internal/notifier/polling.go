package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	pollTimeout = 30 * time.Second
	pollBackoff = 5 * time.Second
)

// CommandHandler is called for each command received from the configured
// chat. A non-empty return value is sent back as the reply.
type CommandHandler func(command string) string

type telegramUpdate struct {
	UpdateID int `json:"update_id"`
	Message  *struct {
		Text string `json:"text"`
		Chat struct {
			ID int64 `json:"id"`
		} `json:"chat"`
	} `json:"message"`
}

// StartPolling long-polls Telegram for user commands until ctx is cancelled.
// It only waits for users; nothing is sent unless a command arrives.
func (t *TelegramNotifier) StartPolling(ctx context.Context, handler CommandHandler) {
	offset := 0
	for {
		if ctx.Err() != nil {
			t.logger.Info("telegram polling stopped")
			return
		}

		updates, err := t.getUpdates(ctx, offset)
		if err != nil {
			if ctx.Err() != nil {
				t.logger.Info("telegram polling stopped")
				return
			}
			t.logger.Warn("telegram polling failed", zap.Error(err))
			sleep(ctx, pollBackoff)
			continue
		}
		offset = t.dispatch(updates, offset, handler)
	}
}

func (t *TelegramNotifier) getUpdates(ctx context.Context, offset int) ([]telegramUpdate, error) {
	reqCtx, cancel := context.WithTimeout(ctx, pollTimeout+5*time.Second)
	defer cancel()

	q := url.Values{}
	q.Set("offset", strconv.Itoa(offset))
	q.Set("timeout", strconv.Itoa(int(pollTimeout.Seconds())))
	q.Set("allowed_updates", `["message"]`)
	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, t.method("getUpdates")+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}

	raw, err := t.call(req)
	if err != nil {
		return nil, err
	}
	var updates []telegramUpdate
	if err := json.Unmarshal(raw, &updates); err != nil {
		return nil, fmt.Errorf("decode updates: %w", err)
	}
	return updates, nil
}

// dispatch hands each update to the handler and returns the next offset.
func (t *TelegramNotifier) dispatch(updates []telegramUpdate, offset int, handler CommandHandler) int {
	for _, update := range updates {
		offset = update.UpdateID + 1
		if update.Message == nil || update.Message.Text == "" {
			continue
		}
		if strconv.FormatInt(update.Message.Chat.ID, 10) != t.ChatID {
			t.logger.Warn("ignoring message from unknown chat", zap.Int64("chat_id", update.Message.Chat.ID))
			continue
		}
		command := normalizeCommand(update.Message.Text)
		t.logger.Info("received command", zap.String("command", command))
		if reply := handler(command); reply != "" {
			if err := t.Send(reply); err != nil {
				t.logger.Error("send reply", zap.Error(err))
			}
		}
	}
	return offset
}

// normalizeCommand trims the text and drops a "@botname" suffix from the
// command word, as sent in group chats.
func normalizeCommand(text string) string {
	text = strings.TrimSpace(text)
	word, rest, _ := strings.Cut(text, " ")
	if at := strings.IndexByte(word, '@'); at > 0 && strings.HasPrefix(word, "/") {
		word = word[:at]
	}
	if rest == "" {
		return word
	}
	return word + " " + rest
}

func sleep(ctx context.Context, d time.Duration) {
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}
