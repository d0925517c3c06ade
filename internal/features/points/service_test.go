package points

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"serotonyl.ru/manifest369/internal/common"
	"serotonyl.ru/manifest369/internal/rules"
	"serotonyl.ru/manifest369/internal/store"
)

func newTestService(st store.Store, now *time.Time) *Service {
	s := NewService(st, newTestEngine(), 3)
	s.now = func() time.Time { return *now }
	return s
}

func TestService_AwardPoints(t *testing.T) {
	ctx := context.Background()
	now := day(1, 9)
	svc := newTestService(store.NewMemoryStore(), &now)

	res, err := svc.AwardPoints(ctx, 1, rules.ActionCompleteWriting, 1, "")
	require.NoError(t, err)
	assert.Equal(t, int64(10), res.PointsAwarded)

	st := svc.GetState(ctx, 1)
	assert.Equal(t, int64(10), st.TotalPoints)
	assert.Equal(t, 1, st.Level)
	assert.Equal(t, int64(490), st.PointsToNextLevel)

	// Пользователи изолированы
	assert.Zero(t, svc.GetState(ctx, 2).TotalPoints)

	_, err = svc.AwardPoints(ctx, 1, "unknown", 1, "")
	assert.ErrorIs(t, err, common.ErrInvalidActionKind)
}

func TestService_LevelUpScenario(t *testing.T) {
	ctx := context.Background()
	now := day(1, 9)
	svc := newTestService(store.NewMemoryStore(), &now)

	for i := 0; i < 49; i++ {
		_, err := svc.AwardPoints(ctx, 1, rules.ActionCompleteWriting, 1, "")
		require.NoError(t, err)
	}
	_, err := svc.AwardPoints(ctx, 1, rules.ActionCompleteWriting, 0.5, "")
	require.NoError(t, err)
	require.Equal(t, int64(495), svc.GetState(ctx, 1).TotalPoints)

	res, err := svc.AwardPoints(ctx, 1, rules.ActionCompleteWriting, 1, "")
	require.NoError(t, err)
	assert.Equal(t, 2, res.LevelUpTo)

	st := svc.GetState(ctx, 1)
	assert.Equal(t, int64(705), st.TotalPoints)
	assert.Equal(t, 2, st.Level)
	assert.Equal(t, int64(795), st.PointsToNextLevel)
}

func TestService_TodayBreakdownAndRollover(t *testing.T) {
	ctx := context.Background()
	now := day(1, 9)
	svc := newTestService(store.NewMemoryStore(), &now)

	_, _ = svc.AwardPoints(ctx, 1, rules.ActionCompleteWriting, 1, "")
	_, _ = svc.AwardPoints(ctx, 1, rules.ActionShareSuccess, 1, "")
	assert.Equal(t, int64(35), svc.TodayBreakdown(ctx, 1).Total)
	assert.Equal(t, int64(35), svc.GetState(ctx, 1).TodayPoints)

	now = day(2, 9)
	assert.Zero(t, svc.TodayBreakdown(ctx, 1).Total)
	assert.Zero(t, svc.GetState(ctx, 1).TodayPoints)
	assert.Equal(t, int64(35), svc.GetState(ctx, 1).TotalPoints)
}

func TestService_AwardStreakBonus(t *testing.T) {
	ctx := context.Background()
	now := day(1, 9)
	st := store.NewMemoryStore()
	svc := newTestService(st, &now)

	res, err := svc.AwardStreakBonus(ctx, 1, 6)
	require.NoError(t, err)
	assert.Zero(t, res.PointsAwarded)
	_, err = st.Get(ctx, store.ProgressionKey(1))
	assert.ErrorIs(t, err, common.ErrNotFound, "без бонуса состояние не пишется")

	res, err = svc.AwardStreakBonus(ctx, 1, 14)
	require.NoError(t, err)
	assert.Equal(t, int64(100), res.PointsAwarded)
	assert.Equal(t, int64(100), svc.GetState(ctx, 1).TotalPoints)
}

func TestService_AwardOncePerDay(t *testing.T) {
	ctx := context.Background()
	now := day(1, 9)
	svc := newTestService(store.NewMemoryStore(), &now)

	_, err := svc.AwardOncePerDay(ctx, 1, rules.ActionShareSuccess, "")
	require.NoError(t, err)
	_, err = svc.AwardOncePerDay(ctx, 1, rules.ActionShareSuccess, "")
	assert.ErrorIs(t, err, common.ErrAlreadyAwardedToday)
}

func TestService_StorageFailures(t *testing.T) {
	ctx := context.Background()
	now := day(1, 9)

	t.Run("read failure", func(t *testing.T) {
		svc := newTestService(failingStore{}, &now)

		res, err := svc.AwardPoints(ctx, 1, rules.ActionCompleteWriting, 1, "")
		require.NoError(t, err)
		assert.Equal(t, int64(10), res.PointsAwarded)
		assert.Equal(t, int64(10), res.State.TotalPoints)

		st := svc.GetState(ctx, 1)
		assert.Zero(t, st.TotalPoints)
		assert.Equal(t, 1, st.Level)
	})

	t.Run("invalid action still fails fast", func(t *testing.T) {
		svc := newTestService(failingStore{}, &now)
		_, err := svc.AwardPoints(ctx, 1, "unknown", 1, "")
		assert.ErrorIs(t, err, common.ErrInvalidActionKind)
	})
}

type failingStore struct{}

func (failingStore) Get(context.Context, string) (store.Record, error) {
	return store.Record{}, errors.New("storage offline")
}

func (failingStore) Put(context.Context, string, []byte, int64) (int64, error) {
	return 0, errors.New("storage offline")
}

func (failingStore) Delete(context.Context, string) error { return errors.New("storage offline") }
