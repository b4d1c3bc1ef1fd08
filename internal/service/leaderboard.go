package service

import (
	"context"
	"fmt"
	"time"

	"CricPredict/internal/repository"

	gocache "github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
)

// LeaderboardService serves the ranked projection and period statistics.
// Both are pure reads over the vote ledger; results are cached with a short
// TTL and the cache is flushed whenever a settlement commits, so a cached
// read never predates the newest settlement.
type LeaderboardService struct {
	repo        repository.LeaderboardRepository
	projections *gocache.Cache
	logger      *logrus.Logger
}

// NewLeaderboardService creates a LeaderboardService around the shared
// projection cache.
func NewLeaderboardService(repo repository.LeaderboardRepository, projections *gocache.Cache, logger *logrus.Logger) *LeaderboardService {
	return &LeaderboardService{repo: repo, projections: projections, logger: logger}
}

// Leaderboard returns the ranked rows for one page.
func (s *LeaderboardService) Leaderboard(ctx context.Context, limit, offset int) ([]*repository.LeaderboardRow, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	key := fmt.Sprintf("leaderboard:%d:%d", limit, offset)
	if cached, ok := s.projections.Get(key); ok {
		return cached.([]*repository.LeaderboardRow), nil
	}
	rows, err := s.repo.ComputeLeaderboard(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	s.projections.SetDefault(key, rows)
	return rows, nil
}

// Statistics returns poll/vote counts and accuracy for a period. period is
// one of "all", "7d", "30d"; from/to override it for custom windows.
func (s *LeaderboardService) Statistics(ctx context.Context, period string, from, to *time.Time) (*repository.Statistics, error) {
	filter, err := statsFilter(period, from, to)
	if err != nil {
		return nil, err
	}

	key := statsCacheKey(filter)
	if cached, ok := s.projections.Get(key); ok {
		return cached.(*repository.Statistics), nil
	}
	stats, err := s.repo.ComputeStatistics(ctx, filter)
	if err != nil {
		return nil, err
	}
	s.projections.SetDefault(key, stats)
	return stats, nil
}

// RefreshUserTotals recomputes the denormalized users.points/users.rank
// cache from the ledger.
func (s *LeaderboardService) RefreshUserTotals(ctx context.Context) (int64, error) {
	n, err := s.repo.RefreshUserTotals(ctx)
	if err != nil {
		return 0, err
	}
	s.logger.Infof("refreshed totals for %d users", n)
	return n, nil
}

func statsFilter(period string, from, to *time.Time) (repository.StatsFilter, error) {
	if from != nil || to != nil {
		return repository.StatsFilter{From: from, To: to}, nil
	}
	now := time.Now()
	switch period {
	case "", "all":
		return repository.StatsFilter{}, nil
	case "7d":
		f := now.AddDate(0, 0, -7)
		return repository.StatsFilter{From: &f}, nil
	case "30d":
		f := now.AddDate(0, 0, -30)
		return repository.StatsFilter{From: &f}, nil
	default:
		return repository.StatsFilter{}, fmt.Errorf("unknown period %q", period)
	}
}

func statsCacheKey(filter repository.StatsFilter) string {
	var from, to int64
	if filter.From != nil {
		from = filter.From.Unix()
	}
	if filter.To != nil {
		to = filter.To.Unix()
	}
	return fmt.Sprintf("statistics:%d:%d", from, to)
}
