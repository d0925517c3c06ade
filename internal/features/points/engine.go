// Package points - engine.go содержит чистые правила начисления:
// очки за действия, уровни, бонусы за огонек, сводку за день.
// Движок не читает системные часы: текущее время передаётся явно.
package points

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"serotonyl.ru/manifest369/internal/common"
	"serotonyl.ru/manifest369/internal/rules"
)

// Engine применяет таблицы правил к состоянию прогресса.
type Engine struct {
	rules *rules.Rules
	loc   *time.Location // Часовой пояс для границ календарного дня
	newID func() string
}

// NewEngine создаёт движок очков.
func NewEngine(r *rules.Rules, loc *time.Location) *Engine {
	return &Engine{rules: r, loc: loc, newID: uuid.NewString}
}

// Rules возвращает таблицы правил движка.
func (e *Engine) Rules() *rules.Rules { return e.rules }

// ActionLabel возвращает название вида начисления для сообщений.
func (e *Engine) ActionLabel(action string) string {
	switch action {
	case KindLevelUp:
		return "Новый уровень"
	case KindStreakBonus:
		return "Бонус за огонек"
	case KindStreakMilestone:
		return "Вехи огонька"
	}
	if r, ok := e.rules.Actions[action]; ok && r.Description != "" {
		return r.Description
	}
	return action
}

// LevelFor возвращает наибольший уровень i, для которого total >= thresholds[i-1].
func (e *Engine) LevelFor(total int64) int {
	level := 1
	for i, th := range e.rules.Levels.Thresholds {
		if total >= th {
			level = i + 1
		}
	}
	return level
}

// PointsToNext возвращает, сколько очков осталось до следующего уровня.
func (e *Engine) PointsToNext(level int, total int64) int64 {
	th := e.rules.Levels.Thresholds
	if level >= len(th) {
		return 0
	}
	return th[level] - total
}

// NewState возвращает начальное состояние: 0 очков, уровень 1.
func (e *Engine) NewState() State {
	s := State{}
	e.normalize(&s)
	return s
}

// normalize пересчитывает производные поля (для нулевого/старого документа).
func (e *Engine) normalize(s *State) {
	s.Level = e.LevelFor(s.TotalPoints)
	s.PointsToNextLevel = e.PointsToNext(s.Level, s.TotalPoints)
	if s.TodayPoints > s.TotalPoints {
		s.TodayPoints = s.TotalPoints
	}
}

// View возвращает состояние для отображения на момент now:
// производные поля пересчитаны, очки за сегодня обнулены, если день сменился.
func (e *Engine) View(s State, now time.Time) State {
	e.normalize(&s)
	if !s.LastUpdated.IsZero() && !common.SameDay(s.LastUpdated, now, e.loc) {
		s.TodayPoints = 0
	}
	return s
}

// Award начисляет очки за действие из таблицы actions.
//
// Очки = base * multiplier, округление половины вверх до целого.
// note (если не пустая) заменяет описание по умолчанию.
func (e *Engine) Award(s *State, action string, multiplier float64, note string, now time.Time) (AwardResult, error) {
	rule, ok := e.rules.Actions[action]
	if !ok {
		return AwardResult{}, fmt.Errorf("%w: %q", common.ErrInvalidActionKind, action)
	}
	if math.IsNaN(multiplier) || multiplier <= 0 || multiplier > e.rules.MaxMultiplier {
		return AwardResult{}, fmt.Errorf("%w: %v (допустимо до %v)", common.ErrInvalidMultiplier, multiplier, e.rules.MaxMultiplier)
	}

	description := rule.Description
	if note != "" {
		description = note
	}

	var mult *float64
	if multiplier != 1 {
		m := multiplier
		mult = &m
	}

	return e.credit(s, action, RoundPoints(float64(rule.Points)*multiplier), description, mult, now), nil
}

// AwardOncePerDay начисляет очки за действие, только если его ещё не было сегодня.
func (e *Engine) AwardOncePerDay(s *State, action, note string, now time.Time) (AwardResult, error) {
	if e.AwardedToday(*s, action, now) {
		return AwardResult{}, common.ErrAlreadyAwardedToday
	}
	return e.Award(s, action, 1, note, now)
}

// AwardedToday проверяет, есть ли в истории запись действия за сегодня.
func (e *Engine) AwardedToday(s State, action string, now time.Time) bool {
	for _, entry := range s.History {
		if entry.Action == action && common.SameDay(entry.Timestamp, now, e.loc) {
			return true
		}
	}
	return false
}

// AwardStreakBonus начисляет бонус за длину огонька:
// floor(streakDays / every_days) * points_per_tier. Ноль - без изменений.
func (e *Engine) AwardStreakBonus(s *State, streakDays int, now time.Time) AwardResult {
	tier := streakDays / e.rules.StreakBonus.EveryDays
	if tier <= 0 || e.rules.StreakBonus.PointsPerTier == 0 {
		return AwardResult{State: *s}
	}
	bonus := int64(tier) * e.rules.StreakBonus.PointsPerTier
	description := fmt.Sprintf("Бонус за огонек: %d %s подряд", streakDays, common.PluralizeDays(streakDays))
	return e.credit(s, KindStreakBonus, bonus, description, nil, now)
}

// AwardMilestone начисляет награду за веху огонька.
func (e *Engine) AwardMilestone(s *State, m rules.Milestone, now time.Time) AwardResult {
	if m.Points <= 0 {
		return AwardResult{State: *s}
	}
	description := fmt.Sprintf("Веха: %s", m.Title)
	return e.credit(s, KindStreakMilestone, m.Points, description, nil, now)
}

// credit - общий путь начисления для всех видов записей.
func (e *Engine) credit(s *State, action string, pts int64, description string, mult *float64, now time.Time) AwardResult {
	// Шаг 1: смена календарного дня обнуляет очки за сегодня
	if !s.LastUpdated.IsZero() && !common.SameDay(s.LastUpdated, now, e.loc) {
		s.TodayPoints = 0
	}
	oldLevel := e.LevelFor(s.TotalPoints)

	// Шаг 2-3: запись в историю и увеличение счётчиков
	s.History = prepend(s.History, Entry{
		ID:          e.newID(),
		Action:      action,
		Points:      pts,
		Description: description,
		Timestamp:   now,
		Multiplier:  mult,
	})
	s.TotalPoints = addPoints(s.TotalPoints, pts)
	s.TodayPoints = addPoints(s.TodayPoints, pts)

	res := AwardResult{PointsAwarded: pts}

	// Шаг 4: бонус за новый уровень - отдельной записью
	newLevel := e.LevelFor(s.TotalPoints)
	if newLevel > oldLevel {
		bonus := int64(newLevel) * e.rules.Levels.BonusPerLevel
		if bonus > 0 {
			s.History = prepend(s.History, Entry{
				ID:          e.newID(),
				Action:      KindLevelUp,
				Points:      bonus,
				Description: fmt.Sprintf("Новый уровень: %d", newLevel),
				Timestamp:   now,
			})
			s.TotalPoints = addPoints(s.TotalPoints, bonus)
			s.TodayPoints = addPoints(s.TodayPoints, bonus)
		}
		res.LevelUpBonus = bonus
	}

	// Шаг 5-6: уровень (бонус мог перешагнуть ещё порог) и остаток до следующего
	s.Level = e.LevelFor(s.TotalPoints)
	s.PointsToNextLevel = e.PointsToNext(s.Level, s.TotalPoints)
	if s.Level > oldLevel {
		res.LevelUpTo = s.Level
	}

	// Шаг 7: ограничиваем историю
	if limit := e.rules.HistoryLimit; len(s.History) > limit {
		s.History = s.History[:limit]
	}
	s.LastUpdated = now

	res.State = *s
	return res
}

// TodayBreakdown группирует сегодняшние записи по действиям.
// История ограничена history_limit, поэтому итог берётся из TodayPoints,
// а очки записей, вытесненных из истории, попадают в Earlier.
func (e *Engine) TodayBreakdown(s State, now time.Time) Breakdown {
	b := Breakdown{ByAction: make(map[string]int64)}
	for _, entry := range s.History {
		if !common.SameDay(entry.Timestamp, now, e.loc) {
			continue
		}
		b.Total = addPoints(b.Total, entry.Points)
		b.ByAction[entry.Action] += entry.Points
		b.Entries = append(b.Entries, entry)
	}
	if today := e.View(s, now).TodayPoints; today > b.Total {
		b.Earlier = today - b.Total
		b.Total = today
	}
	return b
}

// RoundPoints округляет дробные очки половиной вверх.
// Значения за пределами int64 упираются в границу.
func RoundPoints(x float64) int64 {
	r := math.Floor(x + 0.5)
	switch {
	case r >= math.MaxInt64:
		return math.MaxInt64
	case r <= math.MinInt64:
		return math.MinInt64
	}
	return int64(r)
}

// addPoints складывает очки с насыщением на math.MaxInt64.
func addPoints(total, pts int64) int64 {
	if pts > 0 && total > math.MaxInt64-pts {
		return math.MaxInt64
	}
	return total + pts
}

func prepend(history []Entry, e Entry) []Entry {
	out := make([]Entry, 0, len(history)+1)
	out = append(out, e)
	return append(out, history...)
}
