package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
)

const (
	telegramAPI   = "https://api.telegram.org"
	// Telegram rejects messages longer than this.
	maxMessageLen = 4096
)

// TelegramNotifier talks to the Telegram Bot API: it answers refresh
// commands from one chat.
type TelegramNotifier struct {
	BotToken string
	ChatID   string
	BaseURL  string
	Client   *http.Client
	logger   *zap.Logger
}

type sendMessageRequest struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

// apiResponse is the envelope of every Bot API reply.
type apiResponse struct {
	OK          bool            `json:"ok"`
	Description string          `json:"description"`
	Result      json.RawMessage `json:"result"`
}

// NewTelegramNotifier creates a notifier. proxyURL is optional.
func NewTelegramNotifier(botToken, chatID, proxyURL string, logger *zap.Logger) *TelegramNotifier {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	// No client timeout: long polls and sends are bounded by their contexts.
	return &TelegramNotifier{
		BotToken: botToken,
		ChatID:   chatID,
		BaseURL:  telegramAPI,
		Client:   &http.Client{Transport: transport},
		logger:   logger,
	}
}

func (t *TelegramNotifier) method(name string) string {
	return fmt.Sprintf("%s/bot%s/%s", t.BaseURL, t.BotToken, name)
}

// Send posts an HTML message to the configured chat in a single attempt.
func (t *TelegramNotifier) Send(text string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return t.SendContext(ctx, text)
}

// SendContext is Send bounded by ctx.
func (t *TelegramNotifier) SendContext(ctx context.Context, text string) error {
	if len(text) > maxMessageLen {
		cut := maxMessageLen - 3
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		text = text[:cut] + "..."
	}
	body, err := json.Marshal(sendMessageRequest{ChatID: t.ChatID, Text: text, ParseMode: "HTML"})
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.method("sendMessage"), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	_, err = t.call(req)
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

// call executes a Bot API request and unwraps the response envelope.
func (t *TelegramNotifier) call(req *http.Request) (json.RawMessage, error) {
	resp, err := t.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	var env apiResponse
	if jsonErr := json.Unmarshal(raw, &env); jsonErr != nil || resp.StatusCode != http.StatusOK || !env.OK {
		desc := env.Description
		if desc == "" {
			desc = string(raw)
			if len(desc) > 200 {
				desc = desc[:200] + "..."
			}
		}
		return nil, fmt.Errorf("telegram API error: status %d: %s", resp.StatusCode, desc)
	}
	if env.Result == nil {
		return nil, errors.New("telegram API error: empty result")
	}
	return env.Result, nil
}
