// Package achievements - handlers.go обрабатывает команду !достижения.
package achievements

import (
	"context"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/manifest369/internal/common"
)

// Handler обрабатывает команды достижений.
type Handler struct {
	service *Service
	sender  common.Sender
}

// NewHandler создаёт обработчик команд достижений.
func NewHandler(service *Service, sender common.Sender) *Handler {
	return &Handler{service: service, sender: sender}
}

// HandleAchievements показывает сетку достижений: открытые с иконкой, закрытые с замком.
func (h *Handler) HandleAchievements(ctx context.Context, chatID, userID int64) {
	text := FormatList(h.service.List(ctx, userID))
	if err := h.sender.Send(ctx, chatID, text); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("Ошибка отправки сообщения")
	}
}

// FormatList форматирует все достижения.
func FormatList(list []Achievement) string {
	unlocked := 0
	for _, a := range list {
		if a.Unlocked {
			unlocked++
		}
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("🏅 Достижения: %d из %d\n\n", unlocked, len(list)))
	for _, a := range list {
		icon := "🔒"
		if a.Unlocked {
			icon = a.Icon
		}
		sb.WriteString(fmt.Sprintf("%s %s — %s\n", icon, a.Title, a.Description))
	}
	return strings.TrimRight(sb.String(), "\n")
}

// FormatUnlocked форматирует только что открытые достижения. Пустой список - пустая строка.
func FormatUnlocked(list []Achievement) string {
	if len(list) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("🎉 Новое достижение!")
	for _, a := range list {
		sb.WriteString(fmt.Sprintf("\n%s %s", a.Icon, a.Title))
	}
	return sb.String()
}
