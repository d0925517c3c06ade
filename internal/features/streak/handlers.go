// Package streak - handlers.go обрабатывает команду !огонек.
// Показывает текущую серию, рекорд и ближайшую веху.
package streak

import (
	"context"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/manifest369/internal/common"
	"serotonyl.ru/manifest369/internal/rules"
)

// Handler обрабатывает команды огонька.
type Handler struct {
	service *Service
	sender  common.Sender
}

// NewHandler создаёт новый обработчик команд огонька.
func NewHandler(service *Service, sender common.Sender) *Handler {
	return &Handler{service: service, sender: sender}
}

// HandleOgonek обрабатывает команду !огонек.
//
// Формат ответа:
//
//	🔥 Твой огонек
//	Текущая серия: 8 дней
//	Лучшая серия: 12 дней
//	✅ Сегодня практика засчитана
//	Следующая веха: Две недели (14 дней), ещё 6 дней
func (h *Handler) HandleOgonek(ctx context.Context, chatID, userID int64) {
	st := h.service.GetState(ctx, userID)
	today := h.service.Engine().PracticedToday(st, h.service.now())
	next, ok := h.service.Engine().NextMilestone(st.CurrentStreak)

	text := FormatStreak(st, today, next, ok)
	if err := h.sender.Send(ctx, chatID, text); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("Ошибка отправки сообщения")
	}
}

// FormatStreak форматирует огонек для ответа.
func FormatStreak(st State, practicedToday bool, next rules.Milestone, hasNext bool) string {
	var sb strings.Builder
	sb.WriteString("🔥 Твой огонек\n\n")
	sb.WriteString(fmt.Sprintf("Текущая серия: %d %s\n", st.CurrentStreak, common.PluralizeDays(st.CurrentStreak)))
	sb.WriteString(fmt.Sprintf("Лучшая серия: %d %s\n\n", st.LongestStreak, common.PluralizeDays(st.LongestStreak)))

	if practicedToday {
		sb.WriteString("✅ Сегодня практика засчитана\n")
	} else {
		sb.WriteString("⏳ Сегодня практики ещё не было\n")
	}

	if hasNext {
		left := next.Days - st.CurrentStreak
		sb.WriteString(fmt.Sprintf("Следующая веха: %s (%d %s), ещё %d %s",
			next.Title, next.Days, common.PluralizeDays(next.Days), left, common.PluralizeDays(left)))
	} else {
		sb.WriteString("🌕 Все вехи пройдены!")
	}
	return sb.String()
}
