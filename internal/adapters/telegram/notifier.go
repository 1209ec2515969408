// Package telegram provides the operator channel: outbound notifications and
// an inbound command listener, both over the Telegram Bot API.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"cryptoScalpBot/internal/ports"
)

const apiBaseURL = "https://api.telegram.org"

// NotifierConfig holds the outbound channel settings.
type NotifierConfig struct {
	Token  string
	ChatID int64
	Logger ports.Logger
}

// Notifier implements ports.Notifier by posting messages to a Telegram chat.
// Delivery is best effort: failures are logged and swallowed so a Telegram
// outage can never stall trading.
type Notifier struct {
	token   string
	chatID  int64
	logger  ports.Logger
	client  *http.Client
	baseURL string
}

// NewNotifier creates a Telegram notifier.
func NewNotifier(cfg NotifierConfig) (*Notifier, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for Telegram notifier")
	}
	if cfg.Token == "" || cfg.ChatID == 0 {
		return nil, fmt.Errorf("token and chat ID are required for Telegram notifier")
	}
	return &Notifier{
		token:   cfg.Token,
		chatID:  cfg.ChatID,
		logger:  cfg.Logger,
		client:  &http.Client{Timeout: 10 * time.Second},
		baseURL: apiBaseURL,
	}, nil
}

// Notify sends a message to the configured chat.
func (n *Notifier) Notify(ctx context.Context, msg string) {
	if err := sendMessage(ctx, n.client, n.baseURL, n.token, n.chatID, msg); err != nil {
		n.logger.Warn(ctx, "Telegram notification failed", map[string]interface{}{"error": err.Error()})
	}
}

func sendMessage(ctx context.Context, client *http.Client, baseURL, token string, chatID int64, text string) error {
	payload, err := json.Marshal(map[string]interface{}{
		"chat_id": chatID,
		"text":    text,
	})
	if err != nil {
		return fmt.Errorf("encoding message: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", baseURL, token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("sending message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("sendMessage returned status %d", resp.StatusCode)
	}
	return nil
}
