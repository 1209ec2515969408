package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"cryptoScalpBot/internal/ports"
)

const pollTimeout = 30 // seconds, Telegram long-poll window

// CommanderConfig holds the inbound command channel settings.
type CommanderConfig struct {
	Token       string
	AdminChatID int64 // Only this chat may issue commands
	Controller  ports.BotController
	Logger      ports.Logger
}

// Commander long-polls the Bot API for operator commands and routes them to
// the controller. Commands from any other chat are ignored.
type Commander struct {
	token       string
	adminChatID int64
	controller  ports.BotController
	logger      ports.Logger
	client      *http.Client
	baseURL     string
	offset      int64
}

type update struct {
	UpdateID int64 `json:"update_id"`
	Message  *struct {
		Text string `json:"text"`
		Chat struct {
			ID int64 `json:"id"`
		} `json:"chat"`
	} `json:"message"`
}

type updatesResponse struct {
	OK     bool     `json:"ok"`
	Result []update `json:"result"`
}

// NewCommander creates a Telegram command listener.
func NewCommander(cfg CommanderConfig) (*Commander, error) {
	if cfg.Logger == nil || cfg.Controller == nil {
		return nil, fmt.Errorf("logger and controller are required for Telegram commander")
	}
	if cfg.Token == "" || cfg.AdminChatID == 0 {
		return nil, fmt.Errorf("token and admin chat ID are required for Telegram commander")
	}
	return &Commander{
		token:       cfg.Token,
		adminChatID: cfg.AdminChatID,
		controller:  cfg.Controller,
		logger:      cfg.Logger,
		client:      &http.Client{Timeout: (pollTimeout + 10) * time.Second},
		baseURL:     apiBaseURL,
	}, nil
}

// Run polls for commands until the context is cancelled. Intended to run as
// its own goroutine.
func (c *Commander) Run(ctx context.Context) {
	c.logger.Info(ctx, "Telegram command listener started")
	for {
		select {
		case <-ctx.Done():
			c.logger.Info(ctx, "Telegram command listener stopped")
			return
		default:
		}

		updates, err := c.getUpdates(ctx)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			c.logger.Warn(ctx, "Polling Telegram updates failed", map[string]interface{}{"error": err.Error()})
			select {
			case <-time.After(5 * time.Second):
			case <-ctx.Done():
			}
			continue
		}

		for _, upd := range updates {
			c.offset = upd.UpdateID + 1
			c.handleUpdate(ctx, upd)
		}
	}
}

func (c *Commander) getUpdates(ctx context.Context) ([]update, error) {
	url := fmt.Sprintf("%s/bot%s/getUpdates?timeout=%d&offset=%d", c.baseURL, c.token, pollTimeout, c.offset)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("polling updates: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("getUpdates returned status %d", resp.StatusCode)
	}

	var parsed updatesResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decoding updates: %w", err)
	}
	if !parsed.OK {
		return nil, fmt.Errorf("getUpdates reported not ok")
	}
	return parsed.Result, nil
}

func (c *Commander) handleUpdate(ctx context.Context, upd update) {
	if upd.Message == nil || upd.Message.Chat.ID != c.adminChatID {
		return
	}

	command := strings.TrimSpace(upd.Message.Text)
	// Strip the bot-name suffix Telegram appends in groups (/status@MyBot).
	if i := strings.Index(command, "@"); i > 0 {
		command = command[:i]
	}

	c.logger.Info(ctx, "Operator command received", map[string]interface{}{"command": command})

	switch command {
	case "/start":
		c.controller.Resume(ctx)
		c.reply(ctx, "▶️ Scanning resumed. The kill switch, if engaged, stays engaged until /reset.")
	case "/stop":
		c.controller.Pause(ctx)
		c.reply(ctx, "⏸ Scanning paused. Open trades keep trailing.")
	case "/kill":
		c.controller.Kill(ctx)
		c.reply(ctx, "🛑 Kill switch engaged.")
	case "/reset":
		if err := c.controller.ResetDay(ctx); err != nil {
			c.reply(ctx, fmt.Sprintf("⚠️ Day reset failed: %v", err))
			return
		}
		c.reply(ctx, "🔄 Day reset: fresh baseline, kill switch cleared.")
	case "/status":
		c.reply(ctx, formatStatus(c.controller.Status(ctx)))
	default:
		c.reply(ctx, "Commands: /start /stop /kill /reset /status")
	}
}

func (c *Commander) reply(ctx context.Context, text string) {
	if err := sendMessage(ctx, c.client, c.baseURL, c.token, c.adminChatID, text); err != nil {
		c.logger.Warn(ctx, "Telegram reply failed", map[string]interface{}{"error": err.Error()})
	}
}

func formatStatus(status ports.BotStatus) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Mode: %s\n", status.Mode)
	fmt.Fprintf(&sb, "Scanning: %v\n", status.Active)
	fmt.Fprintf(&sb, "Kill switch: %v\n", status.KillSwitch)
	fmt.Fprintf(&sb, "Balance: %.2f\n", status.Balance)
	fmt.Fprintf(&sb, "Trades today: %d\n", status.TradesToday)
	if len(status.OpenTrades) == 0 {
		sb.WriteString("Open trades: none")
		return sb.String()
	}
	sb.WriteString("Open trades:")
	for symbol, trade := range status.OpenTrades {
		fmt.Fprintf(&sb, "\n  %s %s entry=%.4f SL=%.4f TP=%.4f",
			symbol, trade.Side, trade.EntryPrice, trade.StopLoss, trade.TakeProfit)
	}
	return sb.String()
}
