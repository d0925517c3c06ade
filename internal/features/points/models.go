// Package points управляет очками и уровнями пользователя.
// models.go описывает состояние прогресса и записи истории начислений.
package points

import "time"

// Служебные типы записей истории (не входят в таблицу действий).
const (
	KindLevelUp         = "levelUp"         // Бонус за новый уровень
	KindStreakBonus     = "streakBonus"     // Бонус за длину огонька
	KindStreakMilestone = "streakMilestone" // Награда за веху огонька
)

// Entry - одна запись истории начислений. После создания не меняется.
type Entry struct {
	ID          string    `json:"id"`
	Action      string    `json:"action"`
	Points      int64     `json:"points"`
	Description string    `json:"description"`
	Timestamp   time.Time `json:"timestamp"`
	Multiplier  *float64  `json:"multiplier,omitempty"` // Только если множитель != 1
}

// State - прогресс пользователя. Хранится одним документом на пользователя.
type State struct {
	TotalPoints       int64     `json:"totalPoints"`       // Всего очков за всё время
	TodayPoints       int64     `json:"todayPoints"`       // Очки за сегодня (обнуляются при смене дня)
	Level             int       `json:"level"`             // Уровень, >= 1
	PointsToNextLevel int64     `json:"pointsToNextLevel"` // 0 на максимальном уровне
	History           []Entry   `json:"history"`           // Новые записи первыми
	LastUpdated       time.Time `json:"lastUpdated"`       // Для определения смены дня
}

// AwardResult - итог начисления.
type AwardResult struct {
	// PointsAwarded - очки за само действие (без бонуса за уровень).
	PointsAwarded int64
	// LevelUpTo - новый уровень, если он вырос; 0 - уровень не изменился.
	LevelUpTo int
	// LevelUpBonus - очки бонуса за новый уровень.
	LevelUpBonus int64
	State        State
}

// LeveledUp сообщает, вырос ли уровень.
func (r AwardResult) LeveledUp() bool { return r.LevelUpTo > 0 }

// Breakdown - сводка очков за сегодня.
type Breakdown struct {
	Total    int64            // Сумма за сегодня
	ByAction map[string]int64 // Сумма по типам действий
	Entries  []Entry          // Сегодняшние записи (новые первыми)
	Earlier  int64            // Очки за сегодня, чьи записи уже вытеснены из истории
}
