// Package streak - engine.go содержит правила подсчёта серии по календарным дням.
// Текущее время передаётся явно, границы дня считаются в поясе движка.
package streak

import (
	"time"

	"serotonyl.ru/manifest369/internal/common"
	"serotonyl.ru/manifest369/internal/rules"
)

// Engine считает огонек и вехи.
type Engine struct {
	rules *rules.Rules
	loc   *time.Location
}

// NewEngine создаёт движок огонька.
func NewEngine(r *rules.Rules, loc *time.Location) *Engine {
	return &Engine{rules: r, loc: loc}
}

// Update засчитывает практику за сегодня.
//
// Переходы:
//   - практики сегодня не было → без изменений
//   - сегодня уже засчитан → без изменений (повторный вызов идемпотентен)
//   - последний день - вчера → серия +1
//   - пропуск (последний день раньше вчера) или первый раз → серия = 1
func (e *Engine) Update(s *State, practicedToday bool, now time.Time) UpdateResult {
	if !practicedToday {
		return UpdateResult{State: *s}
	}

	today := common.StartOfDay(now, e.loc)
	todayKey := common.DayKey(today, e.loc)
	yesterdayKey := common.DayKey(today.AddDate(0, 0, -1), e.loc)

	// Уже засчитан (или часы клиента ушли назад)
	if s.LastPracticeDay != "" && s.LastPracticeDay >= todayKey {
		return UpdateResult{State: *s}
	}

	res := UpdateResult{StreakUpdated: true}
	if s.LastPracticeDay == yesterdayKey {
		s.CurrentStreak++
	} else {
		res.Broken = s.CurrentStreak > 0
		s.CurrentStreak = 1
	}
	if s.CurrentStreak > s.LongestStreak {
		s.LongestStreak = s.CurrentStreak
	}
	s.LastPracticeDay = todayKey
	s.TotalDays++

	s.History = append(s.History, DayRecord{Day: todayKey, Streak: s.CurrentStreak})
	if limit := e.rules.StreakHistoryLimit; len(s.History) > limit {
		s.History = s.History[len(s.History)-limit:]
	}

	res.NewMilestones = e.MilestonesFor(s.CurrentStreak)
	res.State = *s
	return res
}

// MilestonesFor возвращает вехи, точно равные длине серии.
func (e *Engine) MilestonesFor(streak int) []rules.Milestone {
	var out []rules.Milestone
	for _, m := range e.rules.Milestones {
		if m.Days == streak {
			out = append(out, m)
		}
	}
	return out
}

// NextMilestone возвращает ближайшую веху больше текущей серии.
func (e *Engine) NextMilestone(streak int) (rules.Milestone, bool) {
	for _, m := range e.rules.Milestones {
		if m.Days > streak {
			return m, true
		}
	}
	return rules.Milestone{}, false
}

// View возвращает огонек для отображения на момент now:
// если последний засчитанный день раньше вчерашнего, серия уже потеряна.
func (e *Engine) View(s State, now time.Time) State {
	if s.LastPracticeDay == "" {
		return s
	}
	today := common.StartOfDay(now, e.loc)
	yesterdayKey := common.DayKey(today.AddDate(0, 0, -1), e.loc)
	if s.LastPracticeDay < yesterdayKey {
		s.CurrentStreak = 0
	}
	return s
}

// PracticedToday проверяет, засчитан ли сегодняшний день.
func (e *Engine) PracticedToday(s State, now time.Time) bool {
	return s.LastPracticeDay == common.DayKey(now, e.loc)
}
