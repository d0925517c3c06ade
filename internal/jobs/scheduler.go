// Package jobs управляет фоновыми задачами (cron).
// scheduler.go рассылает напоминания в начале каждого слота практики 369.
package jobs

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/manifest369/internal/common"
	"serotonyl.ru/manifest369/internal/features/members"
	"serotonyl.ru/manifest369/internal/features/practice"
)

// MemberLister возвращает участников с включёнными напоминаниями.
type MemberLister interface {
	ListActive(ctx context.Context) ([]*members.Member, error)
}

// PracticeChecker проверяет, выполнен ли слот сегодня.
type PracticeChecker interface {
	HasCompleted(ctx context.Context, userID int64, slot practice.Slot) (bool, error)
}

// Scheduler управляет фоновыми задачами.
type Scheduler struct {
	cron     *cron.Cron
	schedule practice.Schedule
	members  MemberLister
	practice PracticeChecker
	sender   common.Sender
}

// NewScheduler создаёт планировщик в часовом поясе расписания слотов.
func NewScheduler(schedule practice.Schedule, ml MemberLister, pc PracticeChecker, sender common.Sender) *Scheduler {
	return &Scheduler{
		cron:     cron.New(cron.WithLocation(schedule.Location)),
		schedule: schedule,
		members:  ml,
		practice: pc,
		sender:   sender,
	}
}

// Start регистрирует задачи и запускает cron.
func (s *Scheduler) Start(ctx context.Context) error {
	for _, slot := range practice.Slots {
		expr := fmt.Sprintf("0 %d * * *", s.schedule.StartHour(slot))
		if _, err := s.cron.AddFunc(expr, func() {
			log.WithField("slot", slot).Info("[CRON] Напоминания о практике")
			sent, err := s.SendReminders(ctx, slot)
			if err != nil {
				log.WithError(err).WithField("slot", slot).Error("[CRON] Ошибка напоминаний")
				return
			}
			log.WithFields(log.Fields{"slot": slot, "sent": sent}).Info("[CRON] Напоминания отправлены")
		}); err != nil {
			return fmt.Errorf("cron %q: %w", expr, err)
		}
	}

	s.cron.Start()
	log.WithField("timezone", s.schedule.Location.String()).Info("Планировщик задач запущен")
	return nil
}

// Stop останавливает планировщик и ждёт завершения запущенных задач.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Info("Планировщик задач остановлен")
}

// SendReminders напоминает о слоте тем, кто его сегодня ещё не выполнил.
// Возвращает число отправленных напоминаний.
func (s *Scheduler) SendReminders(ctx context.Context, slot practice.Slot) (int, error) {
	list, err := s.members.ListActive(ctx)
	if err != nil {
		return 0, fmt.Errorf("список участников: %w", err)
	}

	sent := 0
	for _, m := range list {
		if ctx.Err() != nil {
			return sent, ctx.Err()
		}

		done, err := s.practice.HasCompleted(ctx, m.UserID, slot)
		if err != nil {
			log.WithError(err).WithField("user_id", m.UserID).Warn("Не удалось проверить слот, пропускаем")
			continue
		}
		if done {
			continue
		}

		chatID := m.ChatID
		if chatID == 0 {
			chatID = m.UserID
		}
		if err := s.sender.Send(ctx, chatID, ReminderText(slot)); err != nil {
			// Пользователь мог заблокировать бота
			log.WithError(err).WithField("user_id", m.UserID).Debug("Не удалось отправить напоминание")
			continue
		}
		sent++
	}
	return sent, nil
}

// ReminderText возвращает текст напоминания для слота.
func ReminderText(slot practice.Slot) string {
	n := slot.Target()
	return fmt.Sprintf("⏰ Наступил слот «%s»: напиши аффирмацию %d %s.\n"+
		"!практика <номер>, со следующей строки аффирмация\n"+
		"Отключить: !напоминания выкл", slot.Title(), n, common.PluralizeTimes(n))
}
