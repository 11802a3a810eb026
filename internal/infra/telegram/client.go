// internal/infra/telegram/client.go
package telegram

import (
	"context"
	"fmt"

	"gopkg.in/telebot.v3"
)

// BotChannel posts reports through a telebot bot.
type BotChannel struct {
	bot *telebot.Bot
}

func NewBotChannel(b *telebot.Bot) *BotChannel {
	return &BotChannel{bot: b}
}

// PostReport sends text to chatID without link previews. Telegram calls are not
// cancellable, so ctx is only checked before sending.
func (c *BotChannel) PostReport(ctx context.Context, chatID int64, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := c.bot.Send(telebot.ChatID(chatID), text, &telebot.SendOptions{DisableWebPagePreview: true})
	if err != nil {
		return fmt.Errorf("telegram send to chat %d: %w", chatID, err)
	}
	return nil
}
