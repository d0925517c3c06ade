package points

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"serotonyl.ru/manifest369/internal/rules"
	"serotonyl.ru/manifest369/internal/store"
)

type recordingSender struct {
	chatID int64
	texts  []string
}

func (s *recordingSender) Send(_ context.Context, chatID int64, text string) error {
	s.chatID = chatID
	s.texts = append(s.texts, text)
	return nil
}

func TestFormatState(t *testing.T) {
	text := FormatState(State{Level: 2, TotalPoints: 1110, TodayPoints: 80, PointsToNextLevel: 390})
	assert.Contains(t, text, "Уровень 2")
	assert.Contains(t, text, "Всего: 1 110 очков")
	assert.Contains(t, text, "Сегодня: +80 очков")
	assert.Contains(t, text, "До 3 уровня: 390 очков")

	assert.Contains(t, FormatState(State{Level: 8, TotalPoints: 100000}), "Максимальный уровень")
}

func TestFormatBreakdown(t *testing.T) {
	e := newTestEngine()
	assert.Contains(t, FormatBreakdown(Breakdown{}, e), "пока без начислений")

	text := FormatBreakdown(Breakdown{
		Total:    90,
		ByAction: map[string]int64{rules.ActionCompleteWriting: 30, KindStreakBonus: 60},
	}, e)
	assert.Contains(t, text, "Сегодня: +90 очков")
	assert.Contains(t, text, "Бонус за огонек: +60 очков")
	assert.Contains(t, text, "Практика письма завершена: +30 очков")
	assert.NotContains(t, text, "Более ранние")

	truncated := FormatBreakdown(Breakdown{
		Total:    1200,
		ByAction: map[string]int64{rules.ActionCompleteWriting: 1000},
		Earlier:  200,
	}, e)
	assert.Contains(t, truncated, "Сегодня: +1 200 очков")
	assert.Contains(t, truncated, "Более ранние начисления: +200 очков")
	// Крупные начисления первыми
	assert.Less(t, strings.Index(text, "Бонус за огонек"), strings.Index(text, "Практика письма"))
}

func TestHandler(t *testing.T) {
	ctx := context.Background()
	svc := NewService(store.NewMemoryStore(), newTestEngine(), 3)
	sender := &recordingSender{}
	h := NewHandler(svc, sender)

	_, err := svc.AwardPoints(ctx, 7, rules.ActionShareSuccess, 1, "")
	require.NoError(t, err)

	h.HandlePoints(ctx, 70, 7)

	require.Len(t, sender.texts, 1)
	assert.Equal(t, int64(70), sender.chatID)
	assert.Contains(t, sender.texts[0], "Всего: 25 очков")
	assert.Contains(t, FormatBreakdown(svc.TodayBreakdown(ctx, 7), svc.Engine()), "История успеха: +25 очков")
}
