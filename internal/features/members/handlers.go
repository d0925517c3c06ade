// Package members - handlers.go обрабатывает команду !напоминания вкл|выкл.
package members

import (
	"context"
	"strings"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/manifest369/internal/common"
)

// Handler обрабатывает команды участников.
type Handler struct {
	service *Service
	sender  common.Sender
}

// NewHandler создаёт новый обработчик команд участников.
func NewHandler(service *Service, sender common.Sender) *Handler {
	return &Handler{service: service, sender: sender}
}

// HandleReminders включает или выключает напоминания о слотах.
// Без аргумента показывает текущее состояние.
func (h *Handler) HandleReminders(ctx context.Context, chatID, userID int64, args []string) {
	if len(args) == 0 {
		m, err := h.service.GetByUserID(ctx, userID)
		if err != nil {
			log.WithError(err).WithField("user_id", userID).Error("Ошибка чтения участника")
			h.send(ctx, chatID, "❌ Не удалось получить настройки")
			return
		}
		state := "выключены"
		if m.RemindersEnabled {
			state = "включены"
		}
		h.send(ctx, chatID, "🔔 Напоминания "+state+".\nИзменить: !напоминания вкл | выкл")
		return
	}

	var enabled bool
	switch strings.ToLower(args[0]) {
	case "вкл", "on", "да":
		enabled = true
	case "выкл", "off", "нет":
		enabled = false
	default:
		h.send(ctx, chatID, "❌ Формат: !напоминания вкл | выкл")
		return
	}

	if err := h.service.SetReminders(ctx, userID, enabled); err != nil {
		log.WithError(err).WithField("user_id", userID).Error("Ошибка изменения напоминаний")
		h.send(ctx, chatID, "❌ Не удалось сохранить настройку")
		return
	}
	if enabled {
		h.send(ctx, chatID, "🔔 Напоминания включены: утром, днём и вечером")
	} else {
		h.send(ctx, chatID, "🔕 Напоминания выключены")
	}
}

func (h *Handler) send(ctx context.Context, chatID int64, text string) {
	if err := h.sender.Send(ctx, chatID, text); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("Ошибка отправки сообщения")
	}
}
