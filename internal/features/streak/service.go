// Package streak - service.go хранит огонек пользователя и применяет движок.
package streak

import (
	"context"
	"errors"
	"time"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/manifest369/internal/common"
	"serotonyl.ru/manifest369/internal/store"
)

// Service управляет огоньком пользователей.
type Service struct {
	store      store.Store
	engine     *Engine
	maxRetries int
	now        func() time.Time
}

// NewService создаёт сервис огонька.
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

// Engine возвращает движок огонька.
func (s *Service) Engine() *Engine { return s.engine }

// Update засчитывает (или нет) сегодняшний день и возвращает новые вехи.
// Вызывается при завершении практики. Сбой хранилища не ошибка.
func (s *Service) Update(ctx context.Context, userID int64, practicedToday bool) (*UpdateResult, error) {
	now := s.now()
	var res UpdateResult
	_, err := store.Mutate(ctx, s.store, store.StreakKey(userID), s.maxRetries, func(st *State) error {
		res = s.engine.Update(st, practicedToday, now)
		return nil
	})

	entry := log.WithField("user_id", userID)
	if err != nil {
		if errors.Is(err, common.ErrStorageUnavailable) || errors.Is(err, common.ErrVersionConflict) {
			entry.WithError(err).Warn("Огонек не сохранён")
			return &res, nil
		}
		return nil, err
	}

	if res.StreakUpdated {
		entry.WithFields(log.Fields{
			"streak":     res.State.CurrentStreak,
			"longest":    res.State.LongestStreak,
			"broken":     res.Broken,
			"milestones": len(res.NewMilestones),
		}).Debug("Огонек обновлён")
	}
	return &res, nil
}

// GetState возвращает огонек для отображения. При сбое хранилища - пустой.
func (s *Service) GetState(ctx context.Context, userID int64) State {
	st, _, err := store.Load[State](ctx, s.store, store.StreakKey(userID))
	if err != nil {
		log.WithError(err).WithField("user_id", userID).Warn("Не удалось прочитать огонек")
		return State{}
	}
	return s.engine.View(st, s.now())
}

// PracticedToday проверяет, засчитан ли сегодняшний день.
func (s *Service) PracticedToday(ctx context.Context, userID int64) bool {
	return s.engine.PracticedToday(s.GetState(ctx, userID), s.now())
}
