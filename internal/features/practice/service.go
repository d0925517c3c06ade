// Package practice - service.go содержит бизнес-логику практики 369.
// Завершение практики запускает всю цепочку прогресса: очки, огонек,
// вехи, бонусы за серию и цели, достижения.
package practice

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/manifest369/internal/common"
	"serotonyl.ru/manifest369/internal/features/achievements"
	"serotonyl.ru/manifest369/internal/features/points"
	"serotonyl.ru/manifest369/internal/features/streak"
	"serotonyl.ru/manifest369/internal/rules"
)

const (
	// Максимальная длина желания и истории успеха (в символах)
	maxTextLength = 500
	// Сколько дней назад ищем непрерывную серию выполненных целей
	goalLookbackDays = 364
	// Недельная цель - каждые 7 дней подряд с выполненной дневной целью
	weekDays = 7
)

// AchievementChecker открывает достижения после изменения прогресса.
type AchievementChecker interface {
	CheckAndUnlock(ctx context.Context, userID int64) []achievements.Achievement
}

// RepetitionsError - аффирмация написана меньше нужного числа раз.
type RepetitionsError struct {
	Slot Slot
	Got  int
	Want int
}

func (e *RepetitionsError) Error() string {
	return fmt.Sprintf("%s: %d из %d", common.ErrNotEnoughRepetitions, e.Got, e.Want)
}

func (e *RepetitionsError) Unwrap() error { return common.ErrNotEnoughRepetitions }

// Service управляет желаниями и практиками.
type Service struct {
	repo         Repository
	points       *points.Service
	streak       *streak.Service
	achievements AchievementChecker // nil - достижения выключены
	schedule     Schedule
	now          func() time.Time
}

// NewService создаёт сервис практики.
func NewService(repo Repository, pts *points.Service, str *streak.Service, ach AchievementChecker, schedule Schedule) *Service {
	return &Service{
		repo:         repo,
		points:       pts,
		streak:       str,
		achievements: ach,
		schedule:     schedule,
		now:          time.Now,
	}
}

// WithClock подменяет источник текущего времени.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Schedule возвращает расписание слотов.
func (s *Service) Schedule() Schedule { return s.schedule }

// CreateWish сохраняет новое желание и возвращает открытые им достижения.
// Первая строка - название, вторая (если есть) - аффирмация.
// Без второй строки аффирмацией считается само название.
func (s *Service) CreateWish(ctx context.Context, userID int64, text string) (*Wish, []achievements.Achievement, error) {
	var lines []string
	for _, l := range strings.Split(text, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	if len(lines) == 0 {
		return nil, nil, common.ErrEmptyWish
	}

	w := &Wish{UserID: userID, Title: lines[0], Affirmation: lines[0]}
	if len(lines) > 1 {
		w.Affirmation = lines[1]
	}
	if utf8.RuneCountInString(w.Title) > maxTextLength || utf8.RuneCountInString(w.Affirmation) > maxTextLength {
		return nil, nil, fmt.Errorf("%w: не длиннее %d символов", common.ErrTextTooLong, maxTextLength)
	}

	if err := s.repo.CreateWish(ctx, w); err != nil {
		return nil, nil, err
	}

	log.WithFields(log.Fields{
		"user_id": userID,
		"wish_id": w.ID,
	}).Info("Новое желание")

	return w, s.checkAchievements(ctx, userID), nil
}

// ListWishes возвращает желания пользователя.
func (s *Service) ListWishes(ctx context.Context, userID int64) ([]*Wish, error) {
	return s.repo.ListWishes(ctx, userID)
}

// MarkAchieved отмечает желание сбывшимся и возвращает новые достижения.
func (s *Service) MarkAchieved(ctx context.Context, userID, wishID int64) ([]achievements.Achievement, error) {
	w, err := s.repo.GetWish(ctx, userID, wishID)
	if err != nil {
		return nil, err
	}
	if w.Achieved {
		return nil, common.ErrWishAlreadyAchieved
	}
	if err := s.repo.MarkAchieved(ctx, userID, wishID, s.now().UTC()); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"user_id": userID,
		"wish_id": wishID,
	}).Info("Желание сбылось")

	return s.checkAchievements(ctx, userID), nil
}

// Complete засчитывает практику письма по желанию в текущем слоте.
//
// Порядок:
//  1. проверка желания, слота и числа повторений
//  2. запись сессии (одна на желание, слот и день)
//  3. очки за практику
//  4. огонек, награды за вехи, бонус за длину серии
//  5. дневная цель (все три слота) и недельная (7 таких дней подряд)
//  6. проверка достижений
func (s *Service) Complete(ctx context.Context, userID, wishID int64, text string) (*Outcome, error) {
	w, err := s.repo.GetWish(ctx, userID, wishID)
	if err != nil {
		return nil, err
	}
	if w.Achieved {
		return nil, common.ErrWishAlreadyAchieved
	}

	now := s.now()
	slot, ok := s.schedule.SlotAt(now)
	if !ok {
		return nil, common.ErrOutsidePracticeHours
	}

	n := CountRepetitions(w.Affirmation, text)
	if n < slot.Target() {
		return nil, &RepetitionsError{Slot: slot, Got: n, Want: slot.Target()}
	}

	out := &Outcome{
		Repetitions: n,
		Session: Session{
			UserID:         userID,
			WishID:         wishID,
			Slot:           slot,
			Day:            s.schedule.Day(now),
			CompletedCount: n,
		},
	}
	if err := s.repo.RecordSession(ctx, &out.Session); err != nil {
		return nil, err
	}

	entry := log.WithFields(log.Fields{
		"user_id": userID,
		"wish_id": wishID,
		"slot":    slot,
	})

	// 3. Очки за практику
	out.Points, err = s.points.AwardPoints(ctx, userID, rules.ActionCompleteWriting, 1, fmt.Sprintf("Практика: %s, %d раз", slot.Title(), n))
	if err != nil {
		return nil, fmt.Errorf("начисление за практику: %w", err)
	}

	// 4. Огонек
	out.Streak, err = s.streak.Update(ctx, userID, true)
	if err != nil {
		return nil, fmt.Errorf("обновление огонька: %w", err)
	}
	if out.Streak.StreakUpdated {
		for _, m := range out.Streak.NewMilestones {
			res, err := s.points.AwardMilestone(ctx, userID, m)
			if err != nil {
				return nil, fmt.Errorf("награда за веху: %w", err)
			}
			out.Milestones = append(out.Milestones, *res)
		}

		bonus, err := s.points.AwardStreakBonus(ctx, userID, out.Streak.State.CurrentStreak)
		if err != nil {
			return nil, fmt.Errorf("бонус за огонек: %w", err)
		}
		if bonus.PointsAwarded > 0 {
			out.StreakBonus = bonus
		}
	}

	// 5. Цели
	if err := s.awardGoals(ctx, userID, now, out); err != nil {
		return nil, err
	}

	// 6. Достижения
	out.Unlocked = s.checkAchievements(ctx, userID)

	entry.WithFields(log.Fields{
		"repetitions":  n,
		"points":       out.TotalPoints(),
		"streak":       out.Streak.State.CurrentStreak,
		"achievements": len(out.Unlocked),
	}).Info("Практика завершена")

	return out, nil
}

// awardGoals начисляет дневную и недельную цели.
// Ошибки чтения сессий не прерывают практику: цель просто не засчитывается сейчас.
func (s *Service) awardGoals(ctx context.Context, userID int64, now time.Time, out *Outcome) error {
	day := s.schedule.Day(now)
	done, err := s.repo.SlotsDone(ctx, userID, day)
	if err != nil {
		log.WithError(err).WithField("user_id", userID).Warn("Не удалось проверить дневную цель")
		return nil
	}
	out.SlotsDone = done
	if len(done) < len(Slots) {
		return nil
	}

	daily, err := s.points.AwardOncePerDay(ctx, userID, rules.ActionDailyGoalAchieved, "")
	if errors.Is(err, common.ErrAlreadyAwardedToday) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("дневная цель: %w", err)
	}
	out.DailyGoal = daily

	run, err := s.goalRun(ctx, userID, day)
	if err != nil {
		log.WithError(err).WithField("user_id", userID).Warn("Не удалось проверить недельную цель")
		return nil
	}
	if run == 0 || run%weekDays != 0 {
		return nil
	}

	weekly, err := s.points.AwardOncePerDay(ctx, userID, rules.ActionWeeklyGoalAchieved, fmt.Sprintf("%d дней подряд 3-6-9", run))
	if errors.Is(err, common.ErrAlreadyAwardedToday) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("недельная цель: %w", err)
	}
	out.WeeklyGoal = weekly
	return nil
}

// goalRun возвращает длину серии дней с выполненной дневной целью, заканчивающейся в day.
func (s *Service) goalRun(ctx context.Context, userID int64, day time.Time) (int, error) {
	days, err := s.repo.GoalDays(ctx, userID, day.AddDate(0, 0, -goalLookbackDays))
	if err != nil {
		return 0, err
	}
	run := 0
	for _, d := range days {
		if !d.Equal(day.AddDate(0, 0, -run)) {
			break
		}
		run++
	}
	return run, nil
}

// ShareSuccess начисляет очки за историю успеха (раз в день).
func (s *Service) ShareSuccess(ctx context.Context, userID int64, story string) (*points.AwardResult, []achievements.Achievement, error) {
	story = strings.TrimSpace(story)
	if story == "" {
		return nil, nil, common.ErrEmptyWish
	}
	if utf8.RuneCountInString(story) > maxTextLength {
		return nil, nil, fmt.Errorf("%w: не длиннее %d символов", common.ErrTextTooLong, maxTextLength)
	}
	note := story
	if utf8.RuneCountInString(note) > 64 {
		note = string([]rune(note)[:64]) + "…"
	}

	res, err := s.points.AwardOncePerDay(ctx, userID, rules.ActionShareSuccess, note)
	if err != nil {
		return nil, nil, err
	}
	return res, s.checkAchievements(ctx, userID), nil
}

// Today возвращает выполненные сегодня слоты и текущий слот.
func (s *Service) Today(ctx context.Context, userID int64) (done []Slot, current Slot, err error) {
	now := s.now()
	current, _ = s.schedule.SlotAt(now)
	done, err = s.repo.SlotsDone(ctx, userID, s.schedule.Day(now))
	return done, current, err
}

// HasCompleted проверяет, выполнен ли слот сегодня.
func (s *Service) HasCompleted(ctx context.Context, userID int64, slot Slot) (bool, error) {
	done, _, err := s.Today(ctx, userID)
	if err != nil {
		return false, err
	}
	for _, d := range done {
		if d == slot {
			return true, nil
		}
	}
	return false, nil
}

func (s *Service) checkAchievements(ctx context.Context, userID int64) []achievements.Achievement {
	if s.achievements == nil {
		return nil
	}
	return s.achievements.CheckAndUnlock(ctx, userID)
}
