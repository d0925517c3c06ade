package bot

import (
	"context"
	"fmt"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
)

// TelegoSender отправляет сообщения через Telegram Bot API.
type TelegoSender struct {
	api *telego.Bot
}

// NewSender создаёт отправителя поверх клиента telego.
func NewSender(api *telego.Bot) *TelegoSender {
	return &TelegoSender{api: api}
}

// Send отправляет текстовое сообщение в чат.
func (s *TelegoSender) Send(ctx context.Context, chatID int64, text string) error {
	if _, err := s.api.SendMessage(ctx, tu.Message(tu.ID(chatID), text)); err != nil {
		return fmt.Errorf("sendMessage chat %d: %w", chatID, err)
	}
	return nil
}
