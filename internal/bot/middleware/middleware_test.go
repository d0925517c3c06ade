package middleware

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiter(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(3, time.Minute)
	defer rl.Close()
	rl.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		assert.True(t, rl.Allow(1), "сообщение %d", i+1)
	}
	assert.False(t, rl.Allow(1))
	assert.True(t, rl.Allow(2), "лимит считается для каждого пользователя отдельно")

	now = now.Add(30 * time.Second)
	assert.False(t, rl.Allow(1))

	now = now.Add(31 * time.Second)
	assert.True(t, rl.Allow(1), "окно сдвинулось")

	now = now.Add(2 * time.Minute)
	rl.Sweep()
	assert.Equal(t, 0, rl.tracked())
}

func TestRateLimiterDisabled(t *testing.T) {
	rl := NewRateLimiter(0, time.Minute)
	defer rl.Close()
	for i := 0; i < 100; i++ {
		assert.True(t, rl.Allow(1))
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "коротко", Truncate("коротко", 50))
	assert.Equal(t, "при...", Truncate("привет", 3))
}

func TestRecoverFromPanic(t *testing.T) {
	assert.NotPanics(t, func() {
		defer RecoverFromPanic(42)
		panic("boom")
	})
}
