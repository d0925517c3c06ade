// Package bot содержит главный модуль бота - приём апдейтов и маршрутизацию команд.
// bot.go запускает long polling и раздаёт сообщения обработчикам фич.
package bot

import (
	"context"
	"fmt"
	"sync"

	"github.com/mymmrac/telego"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/manifest369/internal/bot/filters"
	"serotonyl.ru/manifest369/internal/bot/middleware"
	"serotonyl.ru/manifest369/internal/common"
	"serotonyl.ru/manifest369/internal/config"
	"serotonyl.ru/manifest369/internal/features/achievements"
	"serotonyl.ru/manifest369/internal/features/admin"
	"serotonyl.ru/manifest369/internal/features/members"
	"serotonyl.ru/manifest369/internal/features/points"
	"serotonyl.ru/manifest369/internal/features/practice"
	"serotonyl.ru/manifest369/internal/features/streak"
)

const helpText = `✨ Практика 369: пиши аффирмацию 3 раза утром, 6 днём и 9 вечером.

Желания:
!желание <текст> — загадать желание
!желания — список желаний
!практика <номер> — со следующей строки аффирмация нужное число раз
!сбылось <номер> — желание исполнилось
!поделиться <текст> — история успеха

Прогресс:
!сегодня — слоты и очки за день
!очки — уровень и баланс
!огонек — дни практики подряд
!достижения — награды

!напоминания вкл | выкл`

// Handlers - обработчики команд по фичам.
type Handlers struct {
	Members      *members.Handler
	Points       *points.Handler
	Streak       *streak.Handler
	Achievements *achievements.Handler
	Practice     *practice.Handler
	Admin        *admin.Handler
}

// Bot - главная структура бота, объединяющая все компоненты.
type Bot struct {
	api    *telego.Bot
	cfg    *config.Config
	sender common.Sender

	chatFilter    *filters.ChatFilter
	rateLimiter   *middleware.RateLimiter
	memberService *members.Service
	handlers      Handlers

	parser *CommandParser

	// ограничитель параллелизма обработки апдейтов
	inflight chan struct{}
	wg       sync.WaitGroup
}

// New создаёт новый экземпляр бота со всеми зависимостями.
func New(
	api *telego.Bot,
	cfg *config.Config,
	sender common.Sender,
	memberService *members.Service,
	handlers Handlers,
	chatFilter *filters.ChatFilter,
) *Bot {
	maxInFlight := cfg.BotMaxInflight
	if maxInFlight <= 0 {
		maxInFlight = 64
	}

	return &Bot{
		api:           api,
		cfg:           cfg,
		sender:        sender,
		chatFilter:    chatFilter,
		rateLimiter:   middleware.NewRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow),
		memberService: memberService,
		handlers:      handlers,
		parser:        NewCommandParser(),
		inflight:      make(chan struct{}, maxInFlight),
	}
}

// Start запускает long polling и обрабатывает апдейты до отмены ctx.
func (b *Bot) Start(ctx context.Context) error {
	updates, err := b.api.UpdatesViaLongPolling(ctx, &telego.GetUpdatesParams{
		Timeout: b.cfg.BotUpdateTimeoutSeconds,
	})
	if err != nil {
		return fmt.Errorf("ошибка запуска long polling: %w", err)
	}

	log.WithFields(log.Fields{
		"max_inflight": b.cfg.BotMaxInflight,
		"timeout_sec":  b.cfg.BotUpdateTimeoutSeconds,
	}).Info("Бот запущен и ожидает сообщения...")

	b.Serve(ctx, updates)
	return nil
}

// Serve читает апдейты из канала, пока он не закроется или не отменится ctx.
// Перед возвратом дожидается обработчиков, которые уже запущены.
func (b *Bot) Serve(ctx context.Context, updates <-chan telego.Update) {
	defer b.rateLimiter.Close()
	defer b.wg.Wait()

	for {
		select {
		case <-ctx.Done():
			log.Info("Бот останавливается (ctx done)...")
			return

		case update, ok := <-updates:
			if !ok {
				log.Info("Канал updates закрыт, бот остановлен")
				return
			}

			// лимит параллелизма
			select {
			case b.inflight <- struct{}{}:
			case <-ctx.Done():
				return
			}
			b.wg.Add(1)
			go func(upd telego.Update) {
				defer b.wg.Done()
				defer func() { <-b.inflight }()
				b.handleUpdate(ctx, upd)
			}(update)
		}
	}
}

// handleUpdate обрабатывает одно обновление от Telegram.
func (b *Bot) handleUpdate(ctx context.Context, update telego.Update) {
	defer middleware.RecoverFromPanic(update.UpdateID)

	message := update.Message
	if message == nil || message.Text == "" {
		return
	}

	middleware.LogMessage(message)

	if !b.chatFilter.CheckAccess(ctx, message) {
		return
	}

	userID := message.From.ID
	chatID := message.Chat.ID

	if !b.rateLimiter.Allow(userID) {
		log.WithField("user_id", userID).Debug("rate limited")
		return
	}

	// Ошибку регистрации только логируем: команды работают и без записи в members
	if err := b.memberService.EnsureMember(ctx, members.Profile{
		UserID:    userID,
		ChatID:    chatID,
		Username:  message.From.Username,
		FirstName: message.From.FirstName,
		LastName:  message.From.LastName,
	}); err != nil {
		log.WithError(err).WithField("user_id", userID).Warn("EnsureMember failed")
	}

	cmd, isCommand := b.parser.ParseCommand(message.Text)
	if !isCommand {
		b.send(ctx, chatID, "Не понял 🙂 Список команд: !help")
		return
	}

	log.WithFields(log.Fields{
		"cmd":  cmd.Name,
		"args": cmd.Args,
	}).Debug("parsed command")

	b.routeCommand(ctx, chatID, userID, cmd)
}

// routeCommand маршрутизирует команду к нужному обработчику.
func (b *Bot) routeCommand(ctx context.Context, chatID, userID int64, cmd Command) {
	h := b.handlers

	switch cmd.Name {
	case "start", "help", "помощь":
		b.send(ctx, chatID, helpText)

	// --- Желания и практика ---
	case "желание":
		h.Practice.HandleWish(ctx, chatID, userID, cmd.Rest)
	case "желания":
		h.Practice.HandleWishes(ctx, chatID, userID)
	case "практика":
		h.Practice.HandlePractice(ctx, chatID, userID, cmd.Args, cmd.Body)
	case "сбылось":
		h.Practice.HandleAchieved(ctx, chatID, userID, cmd.Args)
	case "поделиться":
		h.Practice.HandleShare(ctx, chatID, userID, cmd.Rest)
	case "сегодня":
		h.Practice.HandleToday(ctx, chatID, userID)

	// --- Прогресс ---
	case "очки":
		h.Points.HandlePoints(ctx, chatID, userID)
	case "огонек":
		h.Streak.HandleOgonek(ctx, chatID, userID)
	case "достижения":
		if b.cfg.FeatureAchievementsEnabled {
			h.Achievements.HandleAchievements(ctx, chatID, userID)
		} else {
			b.send(ctx, chatID, "🏆 Достижения временно отключены")
		}

	case "напоминания":
		h.Members.HandleReminders(ctx, chatID, userID, cmd.Args)

	// --- Админка ---
	case "login":
		h.Admin.HandleLogin(ctx, chatID, userID, cmd.Args)
	case "logout":
		h.Admin.HandleLogout(ctx, chatID, userID)
	case "начислить":
		h.Admin.HandleGrant(ctx, chatID, userID, cmd.Args)

	default:
		b.send(ctx, chatID, "Неизвестная команда. Список команд: !help")
	}
}

// send - утилита для отправки сообщений.
func (b *Bot) send(ctx context.Context, chatID int64, text string) {
	if err := b.sender.Send(ctx, chatID, text); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("Ошибка отправки сообщения")
	}
}
