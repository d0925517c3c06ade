// Package achievements открывает достижения по накопленной статистике.
// models.go описывает достижения, их состояние и статистику пользователя.
package achievements

import (
	"context"
	"time"

	"serotonyl.ru/manifest369/internal/rules"
)

// Achievement - достижение в том виде, в каком его видит пользователь.
type Achievement struct {
	ID          string
	Icon        string
	Title       string
	Description string
	Unlocked    bool
	UnlockedAt  *time.Time
}

// State - открытые достижения пользователя: id → время открытия.
type State struct {
	Unlocked map[string]time.Time `json:"unlocked"`
}

// Stats - агрегированная статистика, по которой проверяются условия.
type Stats struct {
	ConsecutiveDays int64 // Текущая серия
	LongestStreak   int64 // Рекордная серия
	TotalSessions   int64 // Завершённых практик
	AchievedWishes  int64 // Сбывшихся желаний
	WishesCreated   int64 // Созданных желаний
	TotalPoints     int64
	Level           int64
}

// Metric возвращает значение метрики по имени из таблицы правил.
func (s Stats) Metric(name string) int64 {
	switch name {
	case rules.MetricConsecutiveDays:
		return s.ConsecutiveDays
	case rules.MetricLongestStreak:
		return s.LongestStreak
	case rules.MetricTotalSessions:
		return s.TotalSessions
	case rules.MetricAchievedWishes:
		return s.AchievedWishes
	case rules.MetricWishesCreated:
		return s.WishesCreated
	case rules.MetricTotalPoints:
		return s.TotalPoints
	case rules.MetricLevel:
		return s.Level
	}
	return 0
}

// StatsProvider собирает статистику пользователя из других модулей.
type StatsProvider interface {
	Stats(ctx context.Context, userID int64) (Stats, error)
}
