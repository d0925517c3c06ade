package practice

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSchedule_SlotAt(t *testing.T) {
	sch := Schedule{MorningHour: 5, AfternoonHour: 12, EveningHour: 18, Location: time.UTC}
	at := func(h int) time.Time { return time.Date(2026, 5, 1, h, 30, 0, 0, time.UTC) }

	cases := []struct {
		hour int
		slot Slot
		ok   bool
	}{
		{0, "", false},
		{4, "", false},
		{5, SlotMorning, true},
		{11, SlotMorning, true},
		{12, SlotAfternoon, true},
		{17, SlotAfternoon, true},
		{18, SlotEvening, true},
		{23, SlotEvening, true},
	}
	for _, tc := range cases {
		slot, ok := sch.SlotAt(at(tc.hour))
		assert.Equal(t, tc.ok, ok, "hour %d", tc.hour)
		assert.Equal(t, tc.slot, slot, "hour %d", tc.hour)
	}
}

func TestSchedule_UsesLocation(t *testing.T) {
	msk := time.FixedZone("MSK", 3*60*60)
	sch := Schedule{MorningHour: 5, AfternoonHour: 12, EveningHour: 18, Location: msk}

	// 22:30 UTC = 01:30 следующего дня по Москве
	t0 := time.Date(2026, 5, 1, 22, 30, 0, 0, time.UTC)
	_, ok := sch.SlotAt(t0)
	assert.False(t, ok)
	assert.Equal(t, time.Date(2026, 5, 2, 0, 0, 0, 0, time.UTC), sch.Day(t0))
	assert.Equal(t, 18, sch.StartHour(SlotEvening))
}

func TestSlotTargets(t *testing.T) {
	assert.Equal(t, 3, SlotMorning.Target())
	assert.Equal(t, 6, SlotAfternoon.Target())
	assert.Equal(t, 9, SlotEvening.Target())
	assert.False(t, Slot("night").Valid())
}
