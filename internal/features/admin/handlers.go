// Package admin - handlers.go обрабатывает команды /login, /logout и !начислить.
// Команды работают только в личных сообщениях.
package admin

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/manifest369/internal/common"
	"serotonyl.ru/manifest369/internal/features/achievements"
)

// Handler обрабатывает админ-команды.
type Handler struct {
	service *Service
	sender  common.Sender
}

// NewHandler создаёт обработчик админ-команд.
func NewHandler(service *Service, sender common.Sender) *Handler {
	return &Handler{service: service, sender: sender}
}

// HandleLogin обрабатывает /login <пароль>.
func (h *Handler) HandleLogin(ctx context.Context, chatID, userID int64, args []string) {
	if len(args) == 0 {
		h.send(ctx, chatID, "🔐 Формат: /login <пароль>")
		return
	}

	if err := h.service.Login(ctx, userID, strings.Join(args, " ")); err != nil {
		h.replyError(ctx, chatID, userID, err)
		return
	}
	h.send(ctx, chatID, "✅ Аутентификация успешна! Сессия действует 24 часа.\n"+
		"Начисление: !начислить <user_id> <действие> [множитель]")
}

// HandleLogout обрабатывает /logout.
func (h *Handler) HandleLogout(ctx context.Context, chatID, userID int64) {
	if err := h.service.Authorize(ctx, userID); err != nil {
		h.replyError(ctx, chatID, userID, err)
		return
	}
	if err := h.service.Logout(ctx, userID); err != nil {
		h.replyError(ctx, chatID, userID, err)
		return
	}
	h.send(ctx, chatID, "👋 Сессия закрыта")
}

// HandleGrant обрабатывает !начислить <user_id> <действие> [множитель].
// Получатель получает уведомление о начислении.
func (h *Handler) HandleGrant(ctx context.Context, chatID, adminID int64, args []string) {
	g, err := ParseGrant(adminID, args)
	if err != nil {
		h.send(ctx, chatID, "❌ "+err.Error()+"\nФормат: !начислить <user_id> <действие> [множитель]")
		return
	}

	res, unlocked, err := h.service.Grant(ctx, g)
	if err != nil {
		h.replyError(ctx, chatID, adminID, err)
		return
	}

	h.send(ctx, chatID, fmt.Sprintf("✅ Начислено %s пользователю %d (%s)",
		common.FormatPointsAmount(res.PointsAwarded), g.TargetID, g.Action))

	notice := fmt.Sprintf("🎁 Тебе начислено %s: %s",
		common.FormatPointsAmount(res.PointsAwarded),
		h.service.points.Engine().ActionLabel(g.Action))
	if res.LeveledUp() {
		notice += fmt.Sprintf("\n⭐ Новый уровень: %d", res.LevelUpTo)
	}
	if u := achievements.FormatUnlocked(unlocked); u != "" {
		notice += "\n\n" + u
	}
	// Личный чат пользователя совпадает с его ID
	h.send(ctx, g.TargetID, notice)
}

// ParseGrant разбирает аргументы команды начисления.
func ParseGrant(adminID int64, args []string) (Grant, error) {
	if len(args) < 2 {
		return Grant{}, errors.New("не хватает аргументов")
	}
	target, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || target <= 0 {
		return Grant{}, fmt.Errorf("некорректный user_id %q", args[0])
	}
	g := Grant{AdminID: adminID, TargetID: target, Action: args[1], Multiplier: 1}
	if len(args) > 2 {
		m, err := strconv.ParseFloat(strings.ReplaceAll(args[2], ",", "."), 64)
		if err != nil {
			return Grant{}, fmt.Errorf("некорректный множитель %q", args[2])
		}
		g.Multiplier = m
	}
	return g, nil
}

func (h *Handler) replyError(ctx context.Context, chatID, userID int64, err error) {
	switch {
	case errors.Is(err, common.ErrNotAdmin),
		errors.Is(err, common.ErrWrongPassword),
		errors.Is(err, common.ErrTooManyAttempts),
		errors.Is(err, common.ErrSessionExpired),
		errors.Is(err, common.ErrInvalidMultiplier):
		h.send(ctx, chatID, "❌ "+errorText(err))
	case errors.Is(err, common.ErrInvalidActionKind):
		h.send(ctx, chatID, "❌ Неизвестное действие. Доступны: "+strings.Join(h.actions(), ", "))
	default:
		log.WithError(err).WithField("user_id", userID).Error("Ошибка админ-команды")
		h.send(ctx, chatID, "❌ Внутренняя ошибка, подробности в логах")
	}
}

// errorText возвращает текст sentinel-ошибки без обёрток.
func errorText(err error) string {
	for _, sentinel := range []error{
		common.ErrNotAdmin, common.ErrWrongPassword, common.ErrTooManyAttempts,
		common.ErrSessionExpired, common.ErrInvalidMultiplier,
	} {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return err.Error()
}

func (h *Handler) actions() []string {
	return h.service.points.Engine().Rules().SortedActions()
}

func (h *Handler) send(ctx context.Context, chatID int64, text string) {
	if err := h.sender.Send(ctx, chatID, text); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("Ошибка отправки сообщения")
	}
}
