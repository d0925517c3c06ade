// Package practice реализует метод 369: желания, аффирмации и практики письма.
// models.go описывает желания, сессии и слоты дня.
package practice

import (
	"time"

	"serotonyl.ru/manifest369/internal/features/achievements"
	"serotonyl.ru/manifest369/internal/features/points"
	"serotonyl.ru/manifest369/internal/features/streak"
)

// Slot - часть дня. Утром аффирмацию пишут 3 раза, днём 6, вечером 9.
type Slot string

const (
	SlotMorning   Slot = "morning"
	SlotAfternoon Slot = "afternoon"
	SlotEvening   Slot = "evening"
)

// Slots - все слоты в порядке следования.
var Slots = []Slot{SlotMorning, SlotAfternoon, SlotEvening}

// Target возвращает, сколько раз нужно написать аффирмацию в слоте.
func (s Slot) Target() int {
	switch s {
	case SlotMorning:
		return 3
	case SlotAfternoon:
		return 6
	case SlotEvening:
		return 9
	}
	return 0
}

// Title возвращает название слота для сообщений.
func (s Slot) Title() string {
	switch s {
	case SlotMorning:
		return "утро"
	case SlotAfternoon:
		return "день"
	case SlotEvening:
		return "вечер"
	}
	return string(s)
}

// Valid проверяет, что слот известен.
func (s Slot) Valid() bool { return s.Target() > 0 }

// Wish - желание пользователя и аффирмация, которую он пишет.
type Wish struct {
	ID          int64      `db:"id"`
	UserID      int64      `db:"user_id"`
	Title       string     `db:"title"`       // Коротко, для списка
	Affirmation string     `db:"affirmation"` // Фраза, которую пишут 3-6-9 раз
	Achieved    bool       `db:"achieved"`
	CreatedAt   time.Time  `db:"created_at"`
	AchievedAt  *time.Time `db:"achieved_at"`
}

// Session - завершённая практика по желанию в одном слоте.
// Не больше одной на (желание, слот, день).
type Session struct {
	ID             int64     `db:"id"`
	UserID         int64     `db:"user_id"`
	WishID         int64     `db:"wish_id"`
	Slot           Slot      `db:"slot"`
	Day            time.Time `db:"day"` // Календарная дата (полночь UTC)
	CompletedCount int       `db:"completed_count"`
	CreatedAt      time.Time `db:"created_at"`
}

// Counts - счётчики пользователя для статистики.
type Counts struct {
	Sessions       int64
	WishesCreated  int64
	AchievedWishes int64
}

// Outcome - всё, что произошло при завершении практики. Используется для ответа.
type Outcome struct {
	Session     Session
	Repetitions int
	Points      *points.AwardResult  // Очки за практику
	Streak      *streak.UpdateResult // Огонек
	Milestones  []points.AwardResult // Награды за вехи огонька
	StreakBonus *points.AwardResult  // nil - бонуса нет
	DailyGoal   *points.AwardResult  // nil - дневная цель ещё не выполнена
	WeeklyGoal  *points.AwardResult  // nil - недельной цели нет
	SlotsDone   []Slot               // Выполненные сегодня слоты
	Unlocked    []achievements.Achievement
}

// TotalPoints - сумма всех начислений за практику (с бонусами за уровень).
func (o *Outcome) TotalPoints() int64 {
	var sum int64
	add := func(r *points.AwardResult) {
		if r != nil {
			sum += r.PointsAwarded + r.LevelUpBonus
		}
	}
	add(o.Points)
	for i := range o.Milestones {
		add(&o.Milestones[i])
	}
	add(o.StreakBonus)
	add(o.DailyGoal)
	add(o.WeeklyGoal)
	return sum
}

// LevelUpTo - наибольший достигнутый за практику уровень, 0 если уровень не менялся.
func (o *Outcome) LevelUpTo() int {
	level := 0
	check := func(r *points.AwardResult) {
		if r != nil && r.LevelUpTo > level {
			level = r.LevelUpTo
		}
	}
	check(o.Points)
	for i := range o.Milestones {
		check(&o.Milestones[i])
	}
	check(o.StreakBonus)
	check(o.DailyGoal)
	check(o.WeeklyGoal)
	return level
}
