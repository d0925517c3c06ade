package practice

import "time"

// Schedule - часы начала слотов в часовом поясе приложения.
type Schedule struct {
	MorningHour   int
	AfternoonHour int
	EveningHour   int
	Location      *time.Location
}

// SlotAt возвращает слот для момента t. До утреннего часа слота нет.
func (s Schedule) SlotAt(t time.Time) (Slot, bool) {
	h := t.In(s.Location).Hour()
	switch {
	case h >= s.EveningHour:
		return SlotEvening, true
	case h >= s.AfternoonHour:
		return SlotAfternoon, true
	case h >= s.MorningHour:
		return SlotMorning, true
	}
	return "", false
}

// StartHour возвращает час начала слота.
func (s Schedule) StartHour(slot Slot) int {
	switch slot {
	case SlotAfternoon:
		return s.AfternoonHour
	case SlotEvening:
		return s.EveningHour
	}
	return s.MorningHour
}

// Day возвращает календарную дату t как полночь UTC (так дата хранится в БД).
func (s Schedule) Day(t time.Time) time.Time {
	y, m, d := t.In(s.Location).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
