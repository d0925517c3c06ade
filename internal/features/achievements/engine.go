package achievements

import (
	"time"

	"serotonyl.ru/manifest369/internal/rules"
)

// Evaluate проверяет ещё не открытые достижения и открывает те,
// чьё условие выполнено. Уже открытые не проверяются и не возвращаются.
// Условия независимы, порядок проверки на результат не влияет.
func Evaluate(defs []rules.Achievement, s *State, stats Stats, now time.Time) []Achievement {
	if s.Unlocked == nil {
		s.Unlocked = make(map[string]time.Time)
	}

	var unlocked []Achievement
	for _, def := range defs {
		if _, ok := s.Unlocked[def.ID]; ok {
			continue
		}
		if stats.Metric(def.Metric) < def.Threshold {
			continue
		}
		s.Unlocked[def.ID] = now
		unlocked = append(unlocked, view(def, s))
	}
	return unlocked
}

// List возвращает все достижения с отметкой об открытии.
func List(defs []rules.Achievement, s State) []Achievement {
	out := make([]Achievement, 0, len(defs))
	for _, def := range defs {
		out = append(out, view(def, &s))
	}
	return out
}

func view(def rules.Achievement, s *State) Achievement {
	a := Achievement{
		ID:          def.ID,
		Icon:        def.Icon,
		Title:       def.Title,
		Description: def.Description,
	}
	if at, ok := s.Unlocked[def.ID]; ok {
		t := at
		a.Unlocked = true
		a.UnlockedAt = &t
	}
	return a
}
