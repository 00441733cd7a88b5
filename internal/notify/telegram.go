// Package notify pushes alerts about newly discovered postings.
package notify

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"
)

// Telegram sends messages through the Bot API. A notifier with no token or
// chat id is a no-op, so callers never need to special-case an unconfigured
// deployment.
type Telegram struct {
	baseURL string
	token   string
	chatID  string
	client  *http.Client
	logger  *slog.Logger
}

func NewTelegram(token, chatID string, logger *slog.Logger) *Telegram {
	if logger == nil {
		logger = slog.Default()
	}
	return &Telegram{
		baseURL: "https://api.telegram.org",
		token:   token,
		chatID:  chatID,
		client:  &http.Client{Timeout: 10 * time.Second},
		logger:  logger,
	}
}

// Configured reports whether the notifier will actually send anything.
func (t *Telegram) Configured() bool {
	return t.token != "" && t.chatID != ""
}

// Send posts one message. Messages over the Bot API limit are truncated
// rather than rejected.
func (t *Telegram) Send(ctx context.Context, text string) error {
	if !t.Configured() {
		t.logger.Debug("telegram not configured, dropping message")
		return nil
	}

	const maxLen = 4096
	if len(text) > maxLen {
		cut := maxLen
		// never split a multi-byte rune
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		text = text[:cut]
	}

	form := url.Values{}
	form.Set("chat_id", t.chatID)
	form.Set("text", text)

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", t.baseURL, t.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("telegram send: status %d", resp.StatusCode)
	}

	t.logger.Debug("telegram message sent", slog.Int("len", len(text)))
	return nil
}
