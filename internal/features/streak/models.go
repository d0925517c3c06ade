// Package streak управляет ежедневными сериями практики (огоньком).
// models.go описывает состояние огонька пользователя.
package streak

import "serotonyl.ru/manifest369/internal/rules"

// DayRecord - запись о засчитанном дне практики.
type DayRecord struct {
	Day    string `json:"day"`    // Дата в формате 2006-01-02
	Streak int    `json:"streak"` // Длина серии после этого дня
}

// State - огонек пользователя.
// Серия растёт на 1 за каждый календарный день хотя бы с одной практикой.
type State struct {
	CurrentStreak   int         `json:"currentStreak"`   // Текущая серия (дней подряд)
	LongestStreak   int         `json:"longestStreak"`   // Личный рекорд
	LastPracticeDay string      `json:"lastPracticeDay"` // Последний засчитанный день ("" - не было)
	TotalDays       int         `json:"totalDays"`       // Всего засчитанных дней
	History         []DayRecord `json:"history"`         // Засчитанные дни, старые первыми
}

// UpdateResult - итог обновления огонька.
type UpdateResult struct {
	// StreakUpdated - сегодняшний день засчитан этим вызовом.
	StreakUpdated bool
	// Broken - серия прервалась и начата заново.
	Broken bool
	// NewMilestones - вехи, равные новой длине серии (обычно 0 или 1).
	NewMilestones []rules.Milestone
	State         State
}
