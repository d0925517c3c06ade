// Package rules содержит таблицы правил прогресса: очки за действия,
// пороги уровней, бонусы за огонек, вехи и достижения.
// Таблицы неизменяемы после загрузки и передаются в сервисы явно.
package rules

import (
	_ "embed"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultYAML []byte

// Действия, за которые начисляются очки. Все обязаны быть в таблице actions.
const (
	ActionCompleteWriting    = "completeWriting"
	ActionDailyGoalAchieved  = "dailyGoalAchieved"
	ActionWeeklyGoalAchieved = "weeklyGoalAchieved"
	ActionShareSuccess       = "shareSuccess"
	ActionHelpNewbie         = "helpNewbie"
	ActionCreateContent      = "createContent"
)

// RequiredActions - обязательный набор действий.
var RequiredActions = []string{
	ActionCompleteWriting,
	ActionDailyGoalAchieved,
	ActionWeeklyGoalAchieved,
	ActionShareSuccess,
	ActionHelpNewbie,
	ActionCreateContent,
}

// Метрики, по которым открываются достижения.
const (
	MetricConsecutiveDays = "consecutive_days"
	MetricLongestStreak   = "longest_streak"
	MetricTotalSessions   = "total_sessions"
	MetricAchievedWishes  = "achieved_wishes"
	MetricWishesCreated   = "wishes_created"
	MetricTotalPoints     = "total_points"
	MetricLevel           = "level"
)

var knownMetrics = map[string]bool{
	MetricConsecutiveDays: true,
	MetricLongestStreak:   true,
	MetricTotalSessions:   true,
	MetricAchievedWishes:  true,
	MetricWishesCreated:   true,
	MetricTotalPoints:     true,
	MetricLevel:           true,
}

// ActionRule - базовые очки и описание по умолчанию для действия.
type ActionRule struct {
	Points      int64  `yaml:"points"`
	Description string `yaml:"description"`
}

// LevelRules - пороги уровней. thresholds[i] - минимум очков для уровня i+1.
type LevelRules struct {
	Thresholds    []int64 `yaml:"thresholds"`
	BonusPerLevel int64   `yaml:"bonus_per_level"`
}

// StreakBonusRule - бонус за каждые EveryDays дней огонька.
type StreakBonusRule struct {
	EveryDays     int   `yaml:"every_days"`
	PointsPerTier int64 `yaml:"points_per_tier"`
}

// Milestone - веха огонька (точное совпадение длины серии).
type Milestone struct {
	Days   int    `yaml:"days"`
	Title  string `yaml:"title"`
	Points int64  `yaml:"points"`
}

// Achievement - определение достижения: метрика >= порога.
type Achievement struct {
	ID          string `yaml:"id"`
	Icon        string `yaml:"icon"`
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	Metric      string `yaml:"metric"`
	Threshold   int64  `yaml:"threshold"`
}

// Rules - все таблицы правил.
type Rules struct {
	Actions            map[string]ActionRule `yaml:"actions"`
	Levels             LevelRules            `yaml:"levels"`
	StreakBonus        StreakBonusRule       `yaml:"streak_bonus"`
	Milestones         []Milestone           `yaml:"milestones"`
	Achievements       []Achievement         `yaml:"achievements"`
	MaxMultiplier      float64               `yaml:"max_multiplier"`
	HistoryLimit       int                   `yaml:"history_limit"`
	StreakHistoryLimit int                   `yaml:"streak_history_limit"`
}

// Default возвращает встроенные правила.
func Default() (*Rules, error) {
	return Parse(defaultYAML)
}

// MustDefault - Default для тестов и статической инициализации.
func MustDefault() *Rules {
	r, err := Default()
	if err != nil {
		panic(err)
	}
	return r
}

// Load читает правила из YAML-файла. Пустой путь = встроенные правила.
func Load(path string) (*Rules, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения правил %s: %w", path, err)
	}
	return Parse(data)
}

// Parse разбирает и проверяет правила.
func Parse(data []byte) (*Rules, error) {
	var r Rules
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("ошибка разбора правил: %w", err)
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return &r, nil
}

// MultiplierLimit - верхняя граница max_multiplier в файле правил.
const MultiplierLimit = 1000

// Validate проверяет согласованность таблиц.
func (r *Rules) Validate() error {
	for _, a := range RequiredActions {
		rule, ok := r.Actions[a]
		if !ok {
			return fmt.Errorf("в правилах нет действия %q", a)
		}
		if rule.Points <= 0 {
			return fmt.Errorf("действие %q: очки должны быть > 0", a)
		}
	}

	th := r.Levels.Thresholds
	if len(th) == 0 || th[0] != 0 {
		return fmt.Errorf("пороги уровней должны начинаться с 0")
	}
	for i := 1; i < len(th); i++ {
		if th[i] <= th[i-1] {
			return fmt.Errorf("пороги уровней должны строго возрастать (индекс %d)", i)
		}
	}
	if r.Levels.BonusPerLevel < 0 {
		return fmt.Errorf("bonus_per_level не может быть отрицательным")
	}

	if r.StreakBonus.EveryDays <= 0 || r.StreakBonus.PointsPerTier < 0 {
		return fmt.Errorf("некорректный streak_bonus")
	}

	for i, m := range r.Milestones {
		if m.Days <= 0 {
			return fmt.Errorf("веха %d: days должно быть > 0", i)
		}
		if i > 0 && m.Days <= r.Milestones[i-1].Days {
			return fmt.Errorf("вехи должны строго возрастать (индекс %d)", i)
		}
	}

	seen := make(map[string]bool, len(r.Achievements))
	for _, a := range r.Achievements {
		if a.ID == "" {
			return fmt.Errorf("достижение без id")
		}
		if seen[a.ID] {
			return fmt.Errorf("дубликат достижения %q", a.ID)
		}
		seen[a.ID] = true
		if !knownMetrics[a.Metric] {
			return fmt.Errorf("достижение %q: неизвестная метрика %q", a.ID, a.Metric)
		}
	}

	if !(r.MaxMultiplier >= 1 && r.MaxMultiplier <= MultiplierLimit) {
		return fmt.Errorf("max_multiplier должен быть от 1 до %d", MultiplierLimit)
	}

	if r.HistoryLimit <= 0 {
		return fmt.Errorf("history_limit должен быть > 0")
	}
	if r.StreakHistoryLimit <= 0 {
		return fmt.Errorf("streak_history_limit должен быть > 0")
	}
	return nil
}

// MaxLevel - максимальный определённый уровень.
func (r *Rules) MaxLevel() int {
	return len(r.Levels.Thresholds)
}

// SortedActions возвращает действия таблицы в алфавитном порядке.
func (r *Rules) SortedActions() []string {
	out := make([]string, 0, len(r.Actions))
	for a := range r.Actions {
		out = append(out, a)
	}
	sort.Strings(out)
	return out
}
