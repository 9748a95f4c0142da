package notifier

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// CommandHandler is called when a user command is received.
type CommandHandler func(ctx context.Context, command string) string

// StartPolling begins long-polling for Telegram commands and replies in the chat
// the command came from. Only the configured chat and Options.AllowedChats are served;
// other chats are ignored. Blocks until ctx is cancelled; call it at most once per notifier.
func (t *TelegramNotifier) StartPolling(ctx context.Context, handler CommandHandler) {
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = t.pollTimeout
	updates := t.Bot.GetUpdatesChan(cfg)
	defer t.Bot.StopReceivingUpdates()

	t.logger.Info().Msg("telegram polling started")
	for {
		select {
		case <-ctx.Done():
			t.logger.Info().Msg("telegram polling stopped")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			if update.Message == nil {
				continue
			}
			text := strings.TrimSpace(update.Message.Text)
			if text == "" {
				continue
			}
			chatID := update.Message.Chat.ID
			if !t.allowed[chatID] {
				t.logger.Warn().Int64("chat_id", chatID).Msg("ignoring command from unknown chat")
				continue
			}
			t.logger.Info().Int64("chat_id", chatID).Str("command", text).Msg("received command")

			reply := handler(ctx, text)
			if reply == "" {
				continue
			}
			if err := t.SendWithRetry(ctx, chatID, reply, t.maxRetries); err != nil {
				t.logger.Error().Err(err).Int64("chat_id", chatID).Msg("send reply")
			}
		}
	}
}
