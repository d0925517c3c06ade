// Package practice - handlers.go обрабатывает команды практики:
// !желание, !желания, !практика, !сбылось, !поделиться, !сегодня.
package practice

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/manifest369/internal/common"
	"serotonyl.ru/manifest369/internal/features/achievements"
	"serotonyl.ru/manifest369/internal/features/points"
)

// Handler обрабатывает команды практики.
type Handler struct {
	service *Service
	points  *points.Service
	sender  common.Sender
}

// NewHandler создаёт обработчик команд практики.
func NewHandler(service *Service, pts *points.Service, sender common.Sender) *Handler {
	return &Handler{service: service, points: pts, sender: sender}
}

// HandleWish обрабатывает !желание <текст>.
// Вторая строка (необязательно) - аффирмация, которую нужно писать.
func (h *Handler) HandleWish(ctx context.Context, chatID, userID int64, text string) {
	w, unlocked, err := h.service.CreateWish(ctx, userID, text)
	if err != nil {
		if errors.Is(err, common.ErrEmptyWish) {
			h.send(ctx, chatID, "❌ Формат: !желание Дом у моря\nЯ живу в доме у моря")
			return
		}
		h.replyError(ctx, chatID, userID, err)
		return
	}

	h.send(ctx, chatID, withUnlocked(fmt.Sprintf(
		"🌱 Желание #%d сохранено: %s\n\n"+
			"Аффирмация: «%s»\n"+
			"Пиши её утром 3 раза, днём 6, вечером 9:\n"+
			"!практика %d\n<аффирмация с новой строки столько раз, сколько нужно>",
		w.ID, w.Title, w.Affirmation, w.ID,
	), unlocked))
}

// HandleWishes обрабатывает !желания - список желаний.
func (h *Handler) HandleWishes(ctx context.Context, chatID, userID int64) {
	wishes, err := h.service.ListWishes(ctx, userID)
	if err != nil {
		h.replyError(ctx, chatID, userID, err)
		return
	}
	h.send(ctx, chatID, FormatWishes(wishes))
}

// HandlePractice обрабатывает !практика <id> и строки аффирмации в том же сообщении.
// Если активное желание одно, номер можно не указывать.
func (h *Handler) HandlePractice(ctx context.Context, chatID, userID int64, args []string, body string) {
	wishID, err := h.resolveWish(ctx, userID, args)
	if err != nil {
		h.replyError(ctx, chatID, userID, err)
		return
	}
	if wishID == 0 {
		h.send(ctx, chatID, "❌ Укажи номер желания: !практика 1\nСписок: !желания")
		return
	}

	out, err := h.service.Complete(ctx, userID, wishID, body)
	if err != nil {
		h.replyError(ctx, chatID, userID, err)
		return
	}
	h.send(ctx, chatID, FormatOutcome(out))
}

// HandleAchieved обрабатывает !сбылось <id>.
func (h *Handler) HandleAchieved(ctx context.Context, chatID, userID int64, args []string) {
	if len(args) == 0 {
		h.send(ctx, chatID, "❌ Формат: !сбылось <номер желания>")
		return
	}
	wishID, err := strconv.ParseInt(strings.TrimPrefix(args[0], "#"), 10, 64)
	if err != nil || wishID <= 0 {
		h.send(ctx, chatID, "❌ Номер желания должен быть положительным числом")
		return
	}

	unlocked, err := h.service.MarkAchieved(ctx, userID, wishID)
	if err != nil {
		h.replyError(ctx, chatID, userID, err)
		return
	}
	h.send(ctx, chatID, withUnlocked("✨ Поздравляем! Желание сбылось.\nПоделись историей: !поделиться <текст>", unlocked))
}

// HandleShare обрабатывает !поделиться <история успеха>.
func (h *Handler) HandleShare(ctx context.Context, chatID, userID int64, text string) {
	res, unlocked, err := h.service.ShareSuccess(ctx, userID, text)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrEmptyWish):
			h.send(ctx, chatID, "❌ Формат: !поделиться <твоя история успеха>")
		case errors.Is(err, common.ErrAlreadyAwardedToday):
			h.send(ctx, chatID, "💬 Спасибо, что делишься! Очки за историю начисляются раз в день.")
		default:
			h.replyError(ctx, chatID, userID, err)
		}
		return
	}

	text = fmt.Sprintf("💬 Спасибо за историю! %s", common.FormatPointsAmount(res.PointsAwarded))
	if res.LeveledUp() {
		text += fmt.Sprintf("\n⭐ Новый уровень: %d", res.LevelUpTo)
	}
	h.send(ctx, chatID, withUnlocked(text, unlocked))
}

// HandleToday обрабатывает !сегодня - слоты дня и начисления по видам.
func (h *Handler) HandleToday(ctx context.Context, chatID, userID int64) {
	done, current, err := h.service.Today(ctx, userID)
	if err != nil {
		// Слоты не критичны, показываем хотя бы очки
		log.WithError(err).WithField("user_id", userID).Warn("Не удалось получить слоты за сегодня")
	}

	b := h.points.TodayBreakdown(ctx, userID)
	text := FormatSlots(done, current) + "\n\n" + points.FormatBreakdown(b, h.points.Engine())
	h.send(ctx, chatID, text)
}

// resolveWish возвращает номер желания из аргументов
// или единственное активное желание. 0 - выбрать не удалось.
func (h *Handler) resolveWish(ctx context.Context, userID int64, args []string) (int64, error) {
	if len(args) > 0 {
		id, err := strconv.ParseInt(strings.TrimPrefix(args[0], "#"), 10, 64)
		if err == nil && id > 0 {
			return id, nil
		}
	}

	wishes, err := h.service.ListWishes(ctx, userID)
	if err != nil {
		return 0, err
	}
	var active []*Wish
	for _, w := range wishes {
		if !w.Achieved {
			active = append(active, w)
		}
	}
	if len(active) == 1 {
		return active[0].ID, nil
	}
	return 0, nil
}

// replyError переводит ошибку сервиса в понятное сообщение.
func (h *Handler) replyError(ctx context.Context, chatID, userID int64, err error) {
	var repErr *RepetitionsError
	switch {
	case errors.As(err, &repErr):
		h.send(ctx, chatID, fmt.Sprintf(
			"✍️ Сейчас %s: аффирмацию нужно написать %d %s, каждую с новой строки.\nНайдено: %d.",
			repErr.Slot.Title(), repErr.Want, common.PluralizeTimes(repErr.Want), repErr.Got,
		))
	case errors.Is(err, common.ErrWishNotFound):
		h.send(ctx, chatID, "❌ Желание не найдено. Список: !желания")
	case errors.Is(err, common.ErrWishAlreadyAchieved):
		h.send(ctx, chatID, "✨ Это желание уже сбылось")
	case errors.Is(err, common.ErrSlotAlreadyCompleted):
		h.send(ctx, chatID, "✅ Этот слот по желанию уже выполнен сегодня. Следующий — позже!")
	case errors.Is(err, common.ErrOutsidePracticeHours):
		h.send(ctx, chatID, fmt.Sprintf("🌙 Практика начинается в %d:00", h.service.Schedule().MorningHour))
	case errors.Is(err, common.ErrTextTooLong):
		h.send(ctx, chatID, "❌ Слишком длинный текст")
	default:
		log.WithError(err).WithField("user_id", userID).Error("Ошибка практики")
		h.send(ctx, chatID, "❌ Что-то пошло не так, попробуй позже")
	}
}

func (h *Handler) send(ctx context.Context, chatID int64, text string) {
	if err := h.sender.Send(ctx, chatID, text); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("Ошибка отправки сообщения")
	}
}

// FormatWishes форматирует список желаний.
func FormatWishes(wishes []*Wish) string {
	if len(wishes) == 0 {
		return "🌱 Желаний пока нет.\nДобавь первое: !желание <текст>"
	}
	var sb strings.Builder
	sb.WriteString("🌱 Твои желания:\n\n")
	for _, w := range wishes {
		mark := "⏳"
		if w.Achieved {
			mark = "✨"
		}
		sb.WriteString(fmt.Sprintf("%s #%d %s\n", mark, w.ID, w.Title))
	}
	return strings.TrimRight(sb.String(), "\n")
}

// FormatSlots показывает выполненные сегодня слоты.
func FormatSlots(done []Slot, current Slot) string {
	doneSet := make(map[Slot]bool, len(done))
	for _, s := range done {
		doneSet[s] = true
	}
	parts := make([]string, 0, len(Slots))
	for _, s := range Slots {
		mark := "⏳"
		if doneSet[s] {
			mark = "✅"
		}
		label := fmt.Sprintf("%s %s (%d)", mark, s.Title(), s.Target())
		if s == current {
			label += " ←"
		}
		parts = append(parts, label)
	}
	return "🗓 Слоты: " + strings.Join(parts, ", ")
}

// FormatOutcome форматирует итог практики.
func FormatOutcome(o *Outcome) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("✅ Практика засчитана: %s, %d %s\n",
		o.Session.Slot.Title(), o.Repetitions, common.PluralizeTimes(o.Repetitions)))

	if o.Points != nil {
		sb.WriteString(fmt.Sprintf("%s за практику\n", common.FormatPointsAmount(o.Points.PointsAwarded)))
	}
	if o.Streak != nil && o.Streak.StreakUpdated {
		days := o.Streak.State.CurrentStreak
		sb.WriteString(fmt.Sprintf("🔥 Огонек: %d %s\n", days, common.PluralizeDays(days)))
	}
	for i, m := range o.Milestones {
		title := ""
		if o.Streak != nil && i < len(o.Streak.NewMilestones) {
			title = o.Streak.NewMilestones[i].Title
		}
		sb.WriteString(fmt.Sprintf("🏁 Веха «%s»: %s\n", title, common.FormatPointsAmount(m.PointsAwarded)))
	}
	if o.StreakBonus != nil {
		sb.WriteString(fmt.Sprintf("🔥 Бонус за огонек: %s\n", common.FormatPointsAmount(o.StreakBonus.PointsAwarded)))
	}
	if o.DailyGoal != nil {
		sb.WriteString(fmt.Sprintf("🎯 Дневная цель 3-6-9: %s\n", common.FormatPointsAmount(o.DailyGoal.PointsAwarded)))
	} else {
		sb.WriteString(FormatSlots(o.SlotsDone, "") + "\n")
	}
	if o.WeeklyGoal != nil {
		sb.WriteString(fmt.Sprintf("🏆 Неделя без пропусков: %s\n", common.FormatPointsAmount(o.WeeklyGoal.PointsAwarded)))
	}
	if level := o.LevelUpTo(); level > 0 {
		sb.WriteString(fmt.Sprintf("⭐ Новый уровень: %d\n", level))
	}
	sb.WriteString(fmt.Sprintf("\nИтого: %s", common.FormatPointsAmount(o.TotalPoints())))

	return withUnlocked(sb.String(), o.Unlocked)
}

func withUnlocked(text string, unlocked []achievements.Achievement) string {
	if u := achievements.FormatUnlocked(unlocked); u != "" {
		return text + "\n\n" + u
	}
	return text
}
