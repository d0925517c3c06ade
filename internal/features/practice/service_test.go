package practice

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"serotonyl.ru/manifest369/internal/common"
	"serotonyl.ru/manifest369/internal/features/achievements"
	"serotonyl.ru/manifest369/internal/features/points"
	"serotonyl.ru/manifest369/internal/features/streak"
	"serotonyl.ru/manifest369/internal/rules"
	"serotonyl.ru/manifest369/internal/store"
)

// memRepo - репозиторий в памяти для тестов сервиса.
type memRepo struct {
	mu       sync.Mutex
	nextID   int64
	wishes   map[int64]*Wish
	sessions []Session
	slotsErr error
}

func newMemRepo() *memRepo {
	return &memRepo{wishes: make(map[int64]*Wish)}
}

func (r *memRepo) CreateWish(_ context.Context, w *Wish) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	w.ID = r.nextID
	w.CreatedAt = time.Now()
	cp := *w
	r.wishes[w.ID] = &cp
	return nil
}

func (r *memRepo) GetWish(_ context.Context, userID, wishID int64) (*Wish, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.wishes[wishID]
	if !ok || w.UserID != userID {
		return nil, common.ErrWishNotFound
	}
	cp := *w
	return &cp, nil
}

func (r *memRepo) ListWishes(_ context.Context, userID int64) ([]*Wish, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*Wish
	for _, w := range r.wishes {
		if w.UserID == userID {
			cp := *w
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memRepo) MarkAchieved(_ context.Context, userID, wishID int64, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.wishes[wishID]
	if !ok || w.UserID != userID {
		return common.ErrWishNotFound
	}
	if w.Achieved {
		return common.ErrWishAlreadyAchieved
	}
	w.Achieved = true
	w.AchievedAt = &at
	return nil
}

func (r *memRepo) RecordSession(_ context.Context, s *Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.sessions {
		if existing.WishID == s.WishID && existing.Slot == s.Slot && existing.Day.Equal(s.Day) {
			return common.ErrSlotAlreadyCompleted
		}
	}
	r.nextID++
	s.ID = r.nextID
	s.CreatedAt = time.Now()
	r.sessions = append(r.sessions, *s)
	return nil
}

func (r *memRepo) SlotsDone(_ context.Context, userID int64, day time.Time) ([]Slot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.slotsErr != nil {
		return nil, r.slotsErr
	}
	done := make(map[Slot]bool)
	for _, s := range r.sessions {
		if s.UserID == userID && s.Day.Equal(day) {
			done[s.Slot] = true
		}
	}
	return orderSlots(done), nil
}

func (r *memRepo) GoalDays(_ context.Context, userID int64, since time.Time) ([]time.Time, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	byDay := make(map[time.Time]map[Slot]bool)
	for _, s := range r.sessions {
		if s.UserID != userID || s.Day.Before(since) {
			continue
		}
		if byDay[s.Day] == nil {
			byDay[s.Day] = make(map[Slot]bool)
		}
		byDay[s.Day][s.Slot] = true
	}
	var out []time.Time
	for d, slots := range byDay {
		if len(slots) == len(Slots) {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].After(out[j]) })
	return out, nil
}

func (r *memRepo) Counts(_ context.Context, userID int64) (Counts, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var c Counts
	for _, s := range r.sessions {
		if s.UserID == userID {
			c.Sessions++
		}
	}
	for _, w := range r.wishes {
		if w.UserID == userID {
			c.WishesCreated++
			if w.Achieved {
				c.AchievedWishes++
			}
		}
	}
	return c, nil
}

type fixture struct {
	svc    *Service
	repo   *memRepo
	points *points.Service
	streak *streak.Service
	now    time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	r := rules.MustDefault()
	st := store.NewMemoryStore()
	f := &fixture{repo: newMemRepo(), now: time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)}
	clock := func() time.Time { return f.now }

	f.points = points.NewService(st, points.NewEngine(r, time.UTC), 3).WithClock(clock)
	f.streak = streak.NewService(st, streak.NewEngine(r, time.UTC), 3).WithClock(clock)
	ach := achievements.NewService(st, r.Achievements, NewStatsProvider(f.repo, f.points, f.streak), 3).WithClock(clock)

	sch := Schedule{MorningHour: 5, AfternoonHour: 12, EveningHour: 18, Location: time.UTC}
	f.svc = NewService(f.repo, f.points, f.streak, ach, sch).WithClock(clock)
	return f
}

// at переводит часы на день d (1 = 1 мая) и час h.
func (f *fixture) at(d, h int) {
	f.now = time.Date(2026, 5, d, h, 0, 0, 0, time.UTC)
}

func writeTimes(aff string, n int) string {
	lines := make([]string, n)
	for i := range lines {
		lines[i] = aff
	}
	return strings.Join(lines, "\n")
}

func achievementIDs(list []achievements.Achievement) []string {
	out := make([]string, 0, len(list))
	for _, a := range list {
		out = append(out, a.ID)
	}
	return out
}

func (f *fixture) fullDay(t *testing.T, userID int64, w *Wish, d int) *Outcome {
	t.Helper()
	var last *Outcome
	for _, h := range []int{8, 13, 20} {
		f.at(d, h)
		slot, _ := f.svc.Schedule().SlotAt(f.now)
		out, err := f.svc.Complete(context.Background(), userID, w.ID, writeTimes(w.Affirmation, slot.Target()))
		require.NoError(t, err, "day %d hour %d", d, h)
		last = out
	}
	return last
}

const aff = "Я живу в доме у моря"

func TestCreateWish(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	w, unlocked, err := f.svc.CreateWish(ctx, 1, "  Дом у моря \n\n Я живу в доме у моря ")
	require.NoError(t, err)
	assert.Equal(t, "Дом у моря", w.Title)
	assert.Equal(t, aff, w.Affirmation)
	assert.Equal(t, []string{"first_wish"}, achievementIDs(unlocked))

	w2, unlocked, err := f.svc.CreateWish(ctx, 1, "Путешествие")
	require.NoError(t, err)
	assert.Equal(t, "Путешествие", w2.Affirmation)
	assert.Empty(t, unlocked)

	_, _, err = f.svc.CreateWish(ctx, 1, " \n ")
	assert.ErrorIs(t, err, common.ErrEmptyWish)

	_, _, err = f.svc.CreateWish(ctx, 1, strings.Repeat("я", maxTextLength+1))
	assert.ErrorIs(t, err, common.ErrTextTooLong)

	list, err := f.svc.ListWishes(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestComplete_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	w, _, err := f.svc.CreateWish(ctx, 1, aff)
	require.NoError(t, err)

	t.Run("not enough repetitions", func(t *testing.T) {
		f.at(1, 13)
		_, err := f.svc.Complete(ctx, 1, w.ID, writeTimes(aff, 5))
		require.ErrorIs(t, err, common.ErrNotEnoughRepetitions)

		var repErr *RepetitionsError
		require.True(t, errors.As(err, &repErr))
		assert.Equal(t, 5, repErr.Got)
		assert.Equal(t, 6, repErr.Want)
		assert.Equal(t, SlotAfternoon, repErr.Slot)
		assert.Empty(t, f.repo.sessions)
	})

	t.Run("night", func(t *testing.T) {
		f.at(1, 3)
		_, err := f.svc.Complete(ctx, 1, w.ID, writeTimes(aff, 9))
		assert.ErrorIs(t, err, common.ErrOutsidePracticeHours)
	})

	t.Run("foreign wish", func(t *testing.T) {
		f.at(1, 8)
		_, err := f.svc.Complete(ctx, 2, w.ID, writeTimes(aff, 3))
		assert.ErrorIs(t, err, common.ErrWishNotFound)
	})
}

func TestComplete_FirstSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	w, _, err := f.svc.CreateWish(ctx, 1, aff)
	require.NoError(t, err)

	f.at(1, 8)
	out, err := f.svc.Complete(ctx, 1, w.ID, writeTimes(aff, 4))
	require.NoError(t, err)

	assert.Equal(t, 4, out.Repetitions)
	assert.Equal(t, SlotMorning, out.Session.Slot)
	assert.Equal(t, int64(10), out.Points.PointsAwarded)
	assert.True(t, out.Streak.StreakUpdated)
	assert.Equal(t, 1, out.Streak.State.CurrentStreak)
	assert.Nil(t, out.StreakBonus)
	assert.Nil(t, out.DailyGoal)
	assert.Equal(t, []Slot{SlotMorning}, out.SlotsDone)
	assert.Equal(t, []string{"first_session"}, achievementIDs(out.Unlocked))
	assert.Equal(t, int64(10), out.TotalPoints())

	// Тот же слот повторно - отказ, очки не начисляются
	_, err = f.svc.Complete(ctx, 1, w.ID, writeTimes(aff, 3))
	assert.ErrorIs(t, err, common.ErrSlotAlreadyCompleted)
	assert.Equal(t, int64(10), f.points.GetState(ctx, 1).TotalPoints)
}

func TestComplete_DailyGoal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	w, _, err := f.svc.CreateWish(ctx, 1, aff)
	require.NoError(t, err)

	out := f.fullDay(t, 1, w, 1)
	require.NotNil(t, out.DailyGoal)
	assert.Equal(t, int64(50), out.DailyGoal.PointsAwarded)
	assert.Equal(t, Slots, out.SlotsDone)
	assert.Nil(t, out.WeeklyGoal)

	// Streak засчитан один раз за день
	assert.False(t, out.Streak.StreakUpdated)
	assert.Equal(t, 1, out.Streak.State.CurrentStreak)
	assert.Equal(t, int64(80), f.points.GetState(ctx, 1).TotalPoints)

	// Второе желание в том же вечернем слоте - дневная цель уже получена
	w2, _, err := f.svc.CreateWish(ctx, 1, "Новая машина")
	require.NoError(t, err)
	out, err = f.svc.Complete(ctx, 1, w2.ID, writeTimes("Новая машина", 9))
	require.NoError(t, err)
	assert.Nil(t, out.DailyGoal)
	assert.Equal(t, int64(90), f.points.GetState(ctx, 1).TotalPoints)
}

func TestComplete_WeekOfPractice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	w, _, err := f.svc.CreateWish(ctx, 1, aff)
	require.NoError(t, err)

	var out *Outcome
	for d := 1; d <= 7; d++ {
		out = f.fullDay(t, 1, w, d)
		require.NotNil(t, out.DailyGoal, "day %d", d)
		if d < 7 {
			assert.Nil(t, out.WeeklyGoal, "day %d", d)
		}
	}

	require.NotNil(t, out.WeeklyGoal)
	assert.Equal(t, int64(200), out.WeeklyGoal.PointsAwarded)

	st := f.streak.GetState(ctx, 1)
	assert.Equal(t, 7, st.CurrentStreak)

	// 7 дней × 80 + вехи 3 и 7 дней (30 + 70) + бонус за неделю огонька 50
	// + недельная цель 200 + бонус за 2 уровень 200
	ps := f.points.GetState(ctx, 1)
	assert.Equal(t, int64(1110), ps.TotalPoints)
	assert.Equal(t, 2, ps.Level)
}

func TestComplete_MilestoneAndBonusOnFirstSessionOfDay(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	w, _, err := f.svc.CreateWish(ctx, 1, aff)
	require.NoError(t, err)

	var third *Outcome
	for d := 1; d <= 3; d++ {
		f.at(d, 9)
		out, err := f.svc.Complete(ctx, 1, w.ID, writeTimes(aff, 3))
		require.NoError(t, err)
		third = out
	}

	require.Len(t, third.Milestones, 1)
	assert.Equal(t, int64(30), third.Milestones[0].PointsAwarded)
	assert.Nil(t, third.StreakBonus)
	assert.Contains(t, achievementIDs(third.Unlocked), "streak_3")
}

func TestComplete_SlotsFailureSkipsGoals(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	w, _, err := f.svc.CreateWish(ctx, 1, aff)
	require.NoError(t, err)

	f.repo.slotsErr = errors.New("db down")
	f.at(1, 8)
	out, err := f.svc.Complete(ctx, 1, w.ID, writeTimes(aff, 3))
	require.NoError(t, err)
	assert.Nil(t, out.DailyGoal)
	assert.Empty(t, out.SlotsDone)
	assert.Equal(t, int64(10), out.Points.PointsAwarded)
}

func TestMarkAchieved(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	w, _, err := f.svc.CreateWish(ctx, 1, aff)
	require.NoError(t, err)

	unlocked, err := f.svc.MarkAchieved(ctx, 1, w.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"wish_achieved"}, achievementIDs(unlocked))

	_, err = f.svc.MarkAchieved(ctx, 1, w.ID)
	assert.ErrorIs(t, err, common.ErrWishAlreadyAchieved)

	_, err = f.svc.MarkAchieved(ctx, 2, w.ID)
	assert.ErrorIs(t, err, common.ErrWishNotFound)

	f.at(1, 8)
	_, err = f.svc.Complete(ctx, 1, w.ID, writeTimes(aff, 3))
	assert.ErrorIs(t, err, common.ErrWishAlreadyAchieved)
}

func TestShareSuccess(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, _, err := f.svc.ShareSuccess(ctx, 1, "Получил оффер!")
	require.NoError(t, err)
	assert.Equal(t, int64(25), res.PointsAwarded)

	_, _, err = f.svc.ShareSuccess(ctx, 1, "И ещё один")
	assert.ErrorIs(t, err, common.ErrAlreadyAwardedToday)

	f.at(2, 10)
	_, _, err = f.svc.ShareSuccess(ctx, 1, "На следующий день можно")
	assert.NoError(t, err)

	_, _, err = f.svc.ShareSuccess(ctx, 1, "   ")
	assert.ErrorIs(t, err, common.ErrEmptyWish)
}

func TestTodayAndHasCompleted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	w, _, err := f.svc.CreateWish(ctx, 1, aff)
	require.NoError(t, err)

	f.at(1, 13)
	_, err = f.svc.Complete(ctx, 1, w.ID, writeTimes(aff, 6))
	require.NoError(t, err)

	done, current, err := f.svc.Today(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []Slot{SlotAfternoon}, done)
	assert.Equal(t, SlotAfternoon, current)

	ok, err := f.svc.HasCompleted(ctx, 1, SlotMorning)
	require.NoError(t, err)
	assert.False(t, ok)
	ok, err = f.svc.HasCompleted(ctx, 1, SlotAfternoon)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestStatsProvider(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	w, _, err := f.svc.CreateWish(ctx, 1, aff)
	require.NoError(t, err)
	f.fullDay(t, 1, w, 1)

	stats, err := NewStatsProvider(f.repo, f.points, f.streak).Stats(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, achievements.Stats{
		ConsecutiveDays: 1,
		LongestStreak:   1,
		TotalSessions:   3,
		WishesCreated:   1,
		TotalPoints:     80,
		Level:           1,
	}, stats)
}
