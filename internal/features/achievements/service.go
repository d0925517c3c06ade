// Package achievements - service.go проверяет и хранит достижения пользователей.
package achievements

import (
	"context"
	"errors"
	"time"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/manifest369/internal/common"
	"serotonyl.ru/manifest369/internal/rules"
	"serotonyl.ru/manifest369/internal/store"
)

// Service управляет достижениями.
type Service struct {
	store      store.Store
	defs       []rules.Achievement
	stats      StatsProvider
	maxRetries int
	now        func() time.Time
}

// NewService создаёт сервис достижений.
func NewService(st store.Store, defs []rules.Achievement, stats StatsProvider, maxRetries int) *Service {
	return &Service{
		store:      st,
		defs:       defs,
		stats:      stats,
		maxRetries: maxRetries,
		now:        time.Now,
	}
}

// WithClock подменяет источник текущего времени.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// CheckAndUnlock открывает достижения, условия которых выполнены сейчас.
// Возвращает только новые. Любой сбой - пустой список, а не ошибка:
// достижения не должны ломать основной сценарий.
func (s *Service) CheckAndUnlock(ctx context.Context, userID int64) []Achievement {
	stats, err := s.stats.Stats(ctx, userID)
	if err != nil {
		log.WithError(err).WithField("user_id", userID).Warn("Не удалось собрать статистику для достижений")
		return nil
	}

	now := s.now()
	var unlocked []Achievement
	_, err = store.Mutate(ctx, s.store, store.AchievementsKey(userID), s.maxRetries, func(st *State) error {
		unlocked = Evaluate(s.defs, st, stats, now)
		return nil
	})
	if err != nil {
		if errors.Is(err, common.ErrStorageUnavailable) || errors.Is(err, common.ErrVersionConflict) {
			// Открытие не сохранено - не показываем его, иначе оно повторится
			log.WithError(err).WithField("user_id", userID).Warn("Достижения не сохранены")
			return nil
		}
		log.WithError(err).WithField("user_id", userID).Error("Ошибка проверки достижений")
		return nil
	}

	for _, a := range unlocked {
		log.WithFields(log.Fields{
			"user_id":     userID,
			"achievement": a.ID,
		}).Info("Достижение открыто")
	}
	return unlocked
}

// List возвращает все достижения пользователя (открытые и нет).
// При сбое хранилища - все закрыты.
func (s *Service) List(ctx context.Context, userID int64) []Achievement {
	st, _, err := store.Load[State](ctx, s.store, store.AchievementsKey(userID))
	if err != nil {
		log.WithError(err).WithField("user_id", userID).Warn("Не удалось прочитать достижения")
		st = State{}
	}
	return List(s.defs, st)
}
