package practice

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSender struct {
	texts []string
}

func (s *recordingSender) Send(_ context.Context, _ int64, text string) error {
	s.texts = append(s.texts, text)
	return nil
}

func (s *recordingSender) last() string {
	if len(s.texts) == 0 {
		return ""
	}
	return s.texts[len(s.texts)-1]
}

func TestHandler_Flow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sender := &recordingSender{}
	h := NewHandler(f.svc, f.points, sender)

	h.HandleWish(ctx, 1, 1, "")
	assert.Contains(t, sender.last(), "Формат: !желание")

	h.HandleWish(ctx, 1, 1, "Дом у моря\n"+aff)
	assert.Contains(t, sender.last(), "Желание #1 сохранено")
	assert.Contains(t, sender.last(), "Первое желание")

	h.HandleWishes(ctx, 1, 1)
	assert.Contains(t, sender.last(), "#1 Дом у моря")

	// Одно активное желание - номер можно не указывать
	f.at(1, 8)
	h.HandlePractice(ctx, 1, 1, nil, aff)
	assert.Contains(t, sender.last(), "написать 3 раза")
	assert.Contains(t, sender.last(), "Найдено: 1")

	h.HandlePractice(ctx, 1, 1, []string{"1"}, writeTimes(aff, 3))
	assert.Contains(t, sender.last(), "Практика засчитана: утро, 3 раза")
	assert.Contains(t, sender.last(), "+10 очков за практику")
	assert.Contains(t, sender.last(), "Первая запись")

	h.HandlePractice(ctx, 1, 1, []string{"1"}, writeTimes(aff, 3))
	assert.Contains(t, sender.last(), "уже выполнен сегодня")

	h.HandlePractice(ctx, 1, 1, []string{"42"}, writeTimes(aff, 3))
	assert.Contains(t, sender.last(), "Желание не найдено")

	h.HandleToday(ctx, 1, 1)
	assert.Contains(t, sender.last(), "✅ утро (3) ←")
	assert.Contains(t, sender.last(), "Сегодня: +10 очков")

	h.HandleAchieved(ctx, 1, 1, []string{"#1"})
	assert.Contains(t, sender.last(), "Желание сбылось")
	assert.Contains(t, sender.last(), "Сбылось!")

	h.HandleShare(ctx, 1, 1, "Переехали!")
	assert.Contains(t, sender.last(), "+25 очков")
	h.HandleShare(ctx, 1, 1, "Ещё раз")
	assert.Contains(t, sender.last(), "раз в день")
}

func TestHandler_Night(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sender := &recordingSender{}
	h := NewHandler(f.svc, f.points, sender)

	_, _, err := f.svc.CreateWish(ctx, 1, aff)
	require.NoError(t, err)

	f.at(1, 2)
	h.HandlePractice(ctx, 1, 1, nil, writeTimes(aff, 9))
	assert.Contains(t, sender.last(), "начинается в 5:00")
}

func TestFormatWishes(t *testing.T) {
	assert.Contains(t, FormatWishes(nil), "Желаний пока нет")

	text := FormatWishes([]*Wish{
		{ID: 1, Title: "Дом"},
		{ID: 2, Title: "Машина", Achieved: true},
	})
	assert.Contains(t, text, "⏳ #1 Дом")
	assert.Contains(t, text, "✨ #2 Машина")
}

func TestFormatOutcome_DailyGoal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	w, _, err := f.svc.CreateWish(ctx, 1, aff)
	require.NoError(t, err)

	out := f.fullDay(t, 1, w, 1)
	text := FormatOutcome(out)
	assert.Contains(t, text, "вечер, 9 раз")
	assert.Contains(t, text, "Дневная цель 3-6-9: +50 очков")
	assert.Contains(t, text, "Итого: +60 очков")
	assert.NotContains(t, text, "Огонек")
}
