// Package filters решает, какие входящие сообщения бот обрабатывает.
package filters

import (
	"context"
	"errors"

	"github.com/mymmrac/telego"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/manifest369/internal/common"
	"serotonyl.ru/manifest369/internal/features/members"
)

// MemberLookup - поиск участника по Telegram ID.
type MemberLookup interface {
	GetByUserID(ctx context.Context, userID int64) (*members.Member, error)
}

// ChatFilter пропускает только личные сообщения от незабаненных пользователей.
// Практика, желания и очки - личные данные, в группах бот молчит.
type ChatFilter struct {
	members MemberLookup
}

func NewChatFilter(members MemberLookup) *ChatFilter {
	return &ChatFilter{members: members}
}

func (f *ChatFilter) CheckAccess(ctx context.Context, message *telego.Message) bool {
	if message == nil {
		log.WithField("component", "ChatFilter").Warn("nil message")
		return false
	}
	if message.From == nil {
		log.WithFields(log.Fields{
			"component": "ChatFilter",
			"chat_id":   message.Chat.ID,
			"chat_type": message.Chat.Type,
		}).Debug("nil message.From (service/channel message?)")
		return false
	}

	logger := log.WithFields(log.Fields{
		"component": "ChatFilter",
		"chat_id":   message.Chat.ID,
		"chat_type": message.Chat.Type,
		"user_id":   message.From.ID,
	})

	if message.Chat.Type != telego.ChatTypePrivate {
		logger.Debug("deny: not private")
		return false
	}
	if message.From.IsBot {
		logger.Debug("deny: bot")
		return false
	}

	m, err := f.members.GetByUserID(ctx, message.From.ID)
	switch {
	case errors.Is(err, common.ErrNotFound):
		// Первое сообщение: участник будет зарегистрирован дальше
		return true
	case err != nil:
		// БД недоступна - не блокируем, бан проверим в следующий раз
		logger.WithError(err).Warn("member check failed (db), allowing")
		return true
	case m.IsBanned:
		logger.Info("deny: banned")
		return false
	}
	return true
}
