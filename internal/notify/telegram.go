// Package notify pushes urgent business alerts to a back-office Telegram
// chat. Delivery is best effort and never affects the conversation response.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	tgbot "github.com/go-telegram/bot"

	"github.com/vhouse/vhouse/internal/config"
	"github.com/vhouse/vhouse/internal/conversation"
)

const sendTimeout = 10 * time.Second

// TelegramNotifier sends alert summaries to the configured admin chat.
type TelegramNotifier struct {
	bot    *tgbot.Bot
	chatID int64
	log    *slog.Logger
}

// NewTelegramNotifier creates the notifier, or (nil, nil) when the feature
// is disabled in config.
func NewTelegramNotifier(cfg config.TelegramConfig, log *slog.Logger) (*TelegramNotifier, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	b, err := tgbot.New(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	logger := log.With("component", "telegram_notifier")
	logger.Info("Telegram alert notifier enabled", "chat_id", cfg.AdminChatID)
	return &TelegramNotifier{
		bot:    b,
		chatID: cfg.AdminChatID,
		log:    logger,
	}, nil
}

// Notify sends one message summarizing the request's priority and alerts.
func (n *TelegramNotifier) Notify(ctx context.Context, customerID int64, priority conversation.Priority, alerts []conversation.Alert) {
	if n == nil || n.bot == nil {
		return
	}

	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sendTimeout)
	defer cancel()

	if _, err := n.bot.SendMessage(sendCtx, &tgbot.SendMessageParams{
		ChatID: n.chatID,
		Text:   formatAlertMessage(customerID, priority, alerts),
	}); err != nil {
		n.log.WarnContext(ctx, "Failed to send alert notification", "error", err)
	}
}

func formatAlertMessage(customerID int64, priority conversation.Priority, alerts []conversation.Alert) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("VHouse alert, priority %s", strings.ToUpper(string(priority))))
	if customerID != 0 {
		sb.WriteString(fmt.Sprintf(" (customer %d)", customerID))
	}
	for _, a := range alerts {
		sb.WriteString(fmt.Sprintf("\n• [%s] %s", a.Type, a.Message))
		if len(a.SuggestedActions) > 0 {
			sb.WriteString(fmt.Sprintf("\n  acciones: %s", strings.Join(a.SuggestedActions, ", ")))
		}
	}
	return sb.String()
}
