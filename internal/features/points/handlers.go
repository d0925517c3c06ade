// Package points - handlers.go обрабатывает команду !очки.
package points

import (
	"context"
	"fmt"
	"sort"
	"strings"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/manifest369/internal/common"
)

// Handler обрабатывает команды очков.
type Handler struct {
	service *Service
	sender  common.Sender
}

// NewHandler создаёт обработчик команд очков.
func NewHandler(service *Service, sender common.Sender) *Handler {
	return &Handler{service: service, sender: sender}
}

// HandlePoints обрабатывает команду !очки - уровень и прогресс.
//
// Формат ответа:
//
//	⭐ Уровень 2
//	Всего: 1 110 очков
//	Сегодня: +80 очков
//	До 3 уровня: 390 очков
func (h *Handler) HandlePoints(ctx context.Context, chatID, userID int64) {
	h.send(ctx, chatID, FormatState(h.service.GetState(ctx, userID)))
}

// FormatState форматирует прогресс для ответа.
func FormatState(s State) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("⭐ Уровень %d\n\n", s.Level))
	sb.WriteString(fmt.Sprintf("Всего: %s\n", common.FormatPoints(s.TotalPoints)))
	sb.WriteString(fmt.Sprintf("Сегодня: %s\n", common.FormatPointsAmount(s.TodayPoints)))
	if s.PointsToNextLevel > 0 {
		sb.WriteString(fmt.Sprintf("До %d уровня: %s", s.Level+1, common.FormatPoints(s.PointsToNextLevel)))
	} else {
		sb.WriteString("🏆 Максимальный уровень!")
	}
	return sb.String()
}

// FormatBreakdown форматирует сводку за день (команда !сегодня).
func FormatBreakdown(b Breakdown, e *Engine) string {
	if b.Total == 0 && len(b.Entries) == 0 {
		return "📅 Сегодня пока без начислений.\nНапиши аффирмацию, чтобы получить первые очки!"
	}

	actions := make([]string, 0, len(b.ByAction))
	for a := range b.ByAction {
		actions = append(actions, a)
	}
	sort.Slice(actions, func(i, j int) bool {
		if b.ByAction[actions[i]] != b.ByAction[actions[j]] {
			return b.ByAction[actions[i]] > b.ByAction[actions[j]]
		}
		return actions[i] < actions[j]
	})

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📅 Сегодня: %s\n\n", common.FormatPointsAmount(b.Total)))
	for _, a := range actions {
		sb.WriteString(fmt.Sprintf("• %s: %s\n", e.ActionLabel(a), common.FormatPointsAmount(b.ByAction[a])))
	}
	if b.Earlier > 0 {
		sb.WriteString(fmt.Sprintf("• Более ранние начисления: %s\n", common.FormatPointsAmount(b.Earlier)))
	}
	return strings.TrimRight(sb.String(), "\n")
}

func (h *Handler) send(ctx context.Context, chatID int64, text string) {
	if err := h.sender.Send(ctx, chatID, text); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("Ошибка отправки сообщения")
	}
}
