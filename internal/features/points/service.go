// Package points - service.go связывает движок очков с хранилищем.
// Каждая операция читает документ пользователя, меняет его движком
// и записывает обратно одной атомарной операцией.
package points

import (
	"context"
	"errors"
	"time"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/manifest369/internal/common"
	"serotonyl.ru/manifest369/internal/rules"
	"serotonyl.ru/manifest369/internal/store"
)

// Service управляет очками пользователей.
type Service struct {
	store      store.Store      // Хранилище документов прогресса
	engine     *Engine          // Правила начисления
	maxRetries int              // Повторы при конфликте версий
	now        func() time.Time // Часы (подменяются в тестах)
}

// NewService создаёт сервис очков.
func NewService(st store.Store, engine *Engine, maxRetries int) *Service {
	return &Service{
		store:      st,
		engine:     engine,
		maxRetries: maxRetries,
		now:        time.Now,
	}
}

// WithClock подменяет источник текущего времени.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Engine возвращает движок (для форматирования и справки по правилам).
func (s *Service) Engine() *Engine { return s.engine }

// AwardPoints начисляет очки за действие.
// Неизвестное действие или некорректный множитель - ошибка вызывающего кода.
// Сбой хранилища не ошибка: результат вычисляется, но не сохраняется.
func (s *Service) AwardPoints(ctx context.Context, userID int64, action string, multiplier float64, note string) (*AwardResult, error) {
	now := s.now()
	return s.mutate(ctx, userID, "award", func(st *State) (AwardResult, error) {
		return s.engine.Award(st, action, multiplier, note, now)
	}, log.Fields{"action": action, "multiplier": multiplier})
}

// AwardOncePerDay начисляет очки за действие не чаще раза в день.
// Повтор в тот же день возвращает common.ErrAlreadyAwardedToday.
func (s *Service) AwardOncePerDay(ctx context.Context, userID int64, action, note string) (*AwardResult, error) {
	now := s.now()
	return s.mutate(ctx, userID, "award_once", func(st *State) (AwardResult, error) {
		return s.engine.AwardOncePerDay(st, action, note, now)
	}, log.Fields{"action": action})
}

// AwardStreakBonus начисляет бонус за длину огонька. PointsAwarded == 0 - бонуса нет.
func (s *Service) AwardStreakBonus(ctx context.Context, userID int64, streakDays int) (*AwardResult, error) {
	now := s.now()
	if streakDays/s.engine.rules.StreakBonus.EveryDays <= 0 {
		// Без бонуса состояние не меняется - не пишем в хранилище
		st := s.GetState(ctx, userID)
		return &AwardResult{State: st}, nil
	}
	return s.mutate(ctx, userID, "streak_bonus", func(st *State) (AwardResult, error) {
		return s.engine.AwardStreakBonus(st, streakDays, now), nil
	}, log.Fields{"streak_days": streakDays})
}

// AwardMilestone начисляет награду за достигнутую веху огонька.
func (s *Service) AwardMilestone(ctx context.Context, userID int64, m rules.Milestone) (*AwardResult, error) {
	now := s.now()
	return s.mutate(ctx, userID, "milestone", func(st *State) (AwardResult, error) {
		return s.engine.AwardMilestone(st, m, now), nil
	}, log.Fields{"milestone_days": m.Days})
}

// GetState возвращает прогресс пользователя. При сбое хранилища - нулевой прогресс.
func (s *Service) GetState(ctx context.Context, userID int64) State {
	st, _, err := store.Load[State](ctx, s.store, store.ProgressionKey(userID))
	if err != nil {
		log.WithError(err).WithField("user_id", userID).Warn("Не удалось прочитать очки, показываем нулевые")
		return s.engine.NewState()
	}
	return s.engine.View(st, s.now())
}

// TodayBreakdown возвращает сводку очков за сегодня.
func (s *Service) TodayBreakdown(ctx context.Context, userID int64) Breakdown {
	return s.engine.TodayBreakdown(s.GetState(ctx, userID), s.now())
}

// mutate выполняет изменение документа и применяет политику отказов хранилища.
func (s *Service) mutate(ctx context.Context, userID int64, op string, fn func(st *State) (AwardResult, error), fields log.Fields) (*AwardResult, error) {
	var res AwardResult
	_, err := store.Mutate(ctx, s.store, store.ProgressionKey(userID), s.maxRetries, func(st *State) error {
		r, err := fn(st)
		if err != nil {
			return err
		}
		res = r
		return nil
	})

	entry := log.WithFields(fields).WithFields(log.Fields{"user_id": userID, "op": op})
	if err != nil {
		if errors.Is(err, common.ErrStorageUnavailable) || errors.Is(err, common.ErrVersionConflict) {
			// Изменение потеряно (at-most-once), но интерфейс получает результат
			entry.WithError(err).Warn("Начисление не сохранено")
			return &res, nil
		}
		return nil, err
	}

	entry.WithFields(log.Fields{
		"points":   res.PointsAwarded,
		"total":    res.State.TotalPoints,
		"level":    res.State.Level,
		"level_up": res.LevelUpTo,
	}).Debug("Очки начислены")
	return &res, nil
}
