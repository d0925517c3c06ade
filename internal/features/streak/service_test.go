package streak

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"serotonyl.ru/manifest369/internal/store"
)

func TestService_Update(t *testing.T) {
	ctx := context.Background()
	now := at(1)
	svc := NewService(store.NewMemoryStore(), newTestEngine(), 3)
	svc.now = func() time.Time { return now }

	res, err := svc.Update(ctx, 1, true)
	require.NoError(t, err)
	assert.True(t, res.StreakUpdated)

	res, err = svc.Update(ctx, 1, true)
	require.NoError(t, err)
	assert.False(t, res.StreakUpdated)
	assert.True(t, svc.PracticedToday(ctx, 1))

	for d := 2; d <= 3; d++ {
		now = at(d)
		res, err = svc.Update(ctx, 1, true)
		require.NoError(t, err)
	}
	require.Len(t, res.NewMilestones, 1)
	assert.Equal(t, 3, res.NewMilestones[0].Days)

	st := svc.GetState(ctx, 1)
	assert.Equal(t, 3, st.CurrentStreak)
	assert.Equal(t, 3, st.LongestStreak)

	now = at(10)
	assert.Zero(t, svc.GetState(ctx, 1).CurrentStreak)
	assert.False(t, svc.PracticedToday(ctx, 1))
}
