package practice

import (
	"context"

	"serotonyl.ru/manifest369/internal/features/achievements"
	"serotonyl.ru/manifest369/internal/features/points"
	"serotonyl.ru/manifest369/internal/features/streak"
)

// StatsProvider собирает статистику для достижений из практики, огонька и очков.
type StatsProvider struct {
	repo   Repository
	points *points.Service
	streak *streak.Service
}

// NewStatsProvider создаёт источник статистики.
func NewStatsProvider(repo Repository, pts *points.Service, str *streak.Service) *StatsProvider {
	return &StatsProvider{repo: repo, points: pts, streak: str}
}

// Stats реализует achievements.StatsProvider.
func (p *StatsProvider) Stats(ctx context.Context, userID int64) (achievements.Stats, error) {
	c, err := p.repo.Counts(ctx, userID)
	if err != nil {
		return achievements.Stats{}, err
	}
	st := p.streak.GetState(ctx, userID)
	ps := p.points.GetState(ctx, userID)

	return achievements.Stats{
		ConsecutiveDays: int64(st.CurrentStreak),
		LongestStreak:   int64(st.LongestStreak),
		TotalSessions:   c.Sessions,
		AchievedWishes:  c.AchievedWishes,
		WishesCreated:   c.WishesCreated,
		TotalPoints:     ps.TotalPoints,
		Level:           int64(ps.Level),
	}, nil
}
