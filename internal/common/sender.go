package common

import "context"

// Sender отправляет текстовое сообщение в чат.
// Реализация поверх Telegram живёт в пакете bot, в тестах - заглушка.
type Sender interface {
	Send(ctx context.Context, chatID int64, text string) error
}
