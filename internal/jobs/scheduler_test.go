package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"serotonyl.ru/manifest369/internal/features/members"
	"serotonyl.ru/manifest369/internal/features/practice"
)

type memberList []*members.Member

func (l memberList) ListActive(context.Context) ([]*members.Member, error) { return l, nil }

type completed map[int64][]practice.Slot

func (c completed) HasCompleted(_ context.Context, userID int64, slot practice.Slot) (bool, error) {
	if userID == 99 {
		return false, errors.New("db down")
	}
	for _, s := range c[userID] {
		if s == slot {
			return true, nil
		}
	}
	return false, nil
}

type recordingSender struct {
	sent map[int64][]string
	fail map[int64]bool
}

func (s *recordingSender) Send(_ context.Context, chatID int64, text string) error {
	if s.fail[chatID] {
		return errors.New("bot was blocked by the user")
	}
	if s.sent == nil {
		s.sent = make(map[int64][]string)
	}
	s.sent[chatID] = append(s.sent[chatID], text)
	return nil
}

func TestSendReminders(t *testing.T) {
	list := memberList{
		{UserID: 1, ChatID: 1},
		{UserID: 2, ChatID: 2},
		{UserID: 3},
		{UserID: 4, ChatID: 4},
		{UserID: 99, ChatID: 99},
	}
	done := completed{2: {practice.SlotMorning}}
	sender := &recordingSender{fail: map[int64]bool{4: true}}
	schedule := practice.Schedule{MorningHour: 5, AfternoonHour: 12, EveningHour: 18, Location: time.UTC}

	s := NewScheduler(schedule, list, done, sender)

	sent, err := s.SendReminders(context.Background(), practice.SlotMorning)
	require.NoError(t, err)
	assert.Equal(t, 2, sent)
	assert.Len(t, sender.sent[1], 1)
	assert.Empty(t, sender.sent[2], "утро уже выполнено")
	assert.Len(t, sender.sent[3], 1, "без chat_id пишем в личку по user_id")
	assert.Empty(t, sender.sent[99])

	sent, err = s.SendReminders(context.Background(), practice.SlotAfternoon)
	require.NoError(t, err)
	assert.Equal(t, 3, sent)
}

func TestReminderText(t *testing.T) {
	assert.Contains(t, ReminderText(practice.SlotMorning), "3 раза")
	assert.Contains(t, ReminderText(practice.SlotAfternoon), "6 раз")
	assert.Contains(t, ReminderText(practice.SlotEvening), "«вечер»")
}

func TestStartRegistersSlots(t *testing.T) {
	schedule := practice.Schedule{MorningHour: 5, AfternoonHour: 12, EveningHour: 18, Location: time.UTC}
	s := NewScheduler(schedule, memberList{}, completed{}, &recordingSender{})

	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	entries := s.cron.Entries()
	require.Len(t, entries, 3)
	hours := map[int]bool{}
	for _, e := range entries {
		hours[e.Next.Hour()] = true
	}
	assert.Equal(t, map[int]bool{5: true, 12: true, 18: true}, hours)
}
