package repository

import (
	"context"
	"fmt"
	"time"

	"CricPredict/internal/model"

	"gorm.io/gorm"
)

// LeaderboardRow is one ranked leaderboard entry.
type LeaderboardRow struct {
	UserID       uint64 `json:"user_id"`
	DisplayName  string `json:"display_name"`
	Points       int64  `json:"points"`
	CorrectCount int64  `json:"correct_count"`
	Rank         int64  `json:"rank"`
}

// StatsFilter restricts statistics to a creation-time window. Nil bounds
// are open.
type StatsFilter struct {
	From *time.Time
	To   *time.Time
}

// TypeAccuracy is the per-poll-type prediction accuracy.
type TypeAccuracy struct {
	TotalVotes   int64   `json:"total_votes"`
	CorrectVotes int64   `json:"correct_votes"`
	Accuracy     float64 `json:"accuracy"`
}

// Statistics is the aggregate report for a period.
type Statistics struct {
	TotalPolls   int64                   `json:"total_polls"`
	ActivePolls  int64                   `json:"active_polls"`
	SettledPolls int64                   `json:"settled_polls"`
	TotalVotes   int64                   `json:"total_votes"`
	CorrectVotes int64                   `json:"correct_votes"`
	Accuracy     float64                 `json:"accuracy"`
	ByType       map[string]TypeAccuracy `json:"by_type"`
}

// LeaderboardRepository derives rankings and accuracy from the vote ledger.
// All methods except RefreshUserTotals are read-only; results depend only on
// committed settlements, so repeated calls with no settlement in between are
// identical.
type LeaderboardRepository interface {
	// ComputeLeaderboard sums points and correct votes per user over the
	// full ledger. Ordering: points desc, correct count desc, account
	// creation asc, then user id asc as the final deterministic key.
	// Ranks are 1-based positions, so the first returned row has rank
	// offset+1.
	ComputeLeaderboard(ctx context.Context, limit, offset int) ([]*LeaderboardRow, error)
	ComputeStatistics(ctx context.Context, filter StatsFilter) (*Statistics, error)
	// RefreshUserTotals rewrites the denormalized users.points/users.rank
	// cache from the ledger and returns the number of users touched.
	RefreshUserTotals(ctx context.Context) (int64, error)
}

type leaderboardRepository struct {
	db *gorm.DB
}

// NewLeaderboardRepository creates a LeaderboardRepository.
func NewLeaderboardRepository(db *gorm.DB) LeaderboardRepository {
	return &leaderboardRepository{db: db}
}

func (r *leaderboardRepository) ComputeLeaderboard(ctx context.Context, limit, offset int) ([]*LeaderboardRow, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := r.scanLeaderboard(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	for i := range rows {
		rows[i].Rank = int64(offset + i + 1)
	}
	return rows, nil
}

func (r *leaderboardRepository) scanLeaderboard(ctx context.Context, limit, offset int) ([]*LeaderboardRow, error) {
	var rows []*LeaderboardRow
	db := r.db.WithContext(ctx).Table("users AS u").
		Select("u.id AS user_id, u.display_name AS display_name, " +
			"COALESCE(SUM(v.points), 0) AS points, " +
			"COALESCE(SUM(CASE WHEN o.is_correct THEN 1 ELSE 0 END), 0) AS correct_count").
		Joins("LEFT JOIN votes v ON v.user_id = u.id").
		Joins("LEFT JOIN options o ON o.id = v.option_id").
		Group("u.id, u.display_name, u.created_at").
		Order("points DESC, correct_count DESC, u.created_at ASC, u.id ASC")
	if limit > 0 {
		db = db.Limit(limit).Offset(offset)
	}
	if err := db.Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("compute leaderboard: %w", err)
	}
	return rows, nil
}

func (r *leaderboardRepository) ComputeStatistics(ctx context.Context, filter StatsFilter) (*Statistics, error) {
	stats := &Statistics{ByType: make(map[string]TypeAccuracy)}

	polls := func() *gorm.DB {
		return applyWindow(r.db.WithContext(ctx).Model(&model.Poll{}), "created_at", filter)
	}
	if err := polls().Count(&stats.TotalPolls).Error; err != nil {
		return nil, fmt.Errorf("count polls: %w", err)
	}
	if err := polls().Where("status = ?", model.PollStatusActive).
		Count(&stats.ActivePolls).Error; err != nil {
		return nil, fmt.Errorf("count active polls: %w", err)
	}
	if err := polls().Where("status = ?", model.PollStatusSettled).
		Count(&stats.SettledPolls).Error; err != nil {
		return nil, fmt.Errorf("count settled polls: %w", err)
	}

	type typeRow struct {
		PollType     string
		TotalVotes   int64
		CorrectVotes int64
	}
	var rows []typeRow
	votes := r.db.WithContext(ctx).Table("votes AS v").
		Select("p.type AS poll_type, COUNT(*) AS total_votes, " +
			"COALESCE(SUM(CASE WHEN o.is_correct THEN 1 ELSE 0 END), 0) AS correct_votes").
		Joins("JOIN polls p ON p.id = v.poll_id").
		Joins("JOIN options o ON o.id = v.option_id").
		Group("p.type")
	votes = applyWindow(votes, "v.created_at", filter)
	if err := votes.Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("aggregate votes by type: %w", err)
	}

	for _, row := range rows {
		stats.TotalVotes += row.TotalVotes
		stats.CorrectVotes += row.CorrectVotes
		stats.ByType[row.PollType] = TypeAccuracy{
			TotalVotes:   row.TotalVotes,
			CorrectVotes: row.CorrectVotes,
			Accuracy:     ratio(row.CorrectVotes, row.TotalVotes),
		}
	}
	stats.Accuracy = ratio(stats.CorrectVotes, stats.TotalVotes)
	return stats, nil
}

func (r *leaderboardRepository) RefreshUserTotals(ctx context.Context) (int64, error) {
	rows, err := r.scanLeaderboard(ctx, 0, 0)
	if err != nil {
		return 0, err
	}

	tx := r.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return 0, fmt.Errorf("begin transaction: %w", tx.Error)
	}
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
		}
	}()

	now := time.Now()
	for i, row := range rows {
		if err := tx.Model(&model.User{}).
			Where("id = ?", row.UserID).
			Updates(map[string]interface{}{
				"points":     row.Points,
				"rank":       int64(i + 1),
				"updated_at": now,
			}).Error; err != nil {
			tx.Rollback()
			return 0, fmt.Errorf("refresh user %d: %w", row.UserID, err)
		}
	}
	if err := tx.Commit().Error; err != nil {
		return 0, fmt.Errorf("commit transaction: %w", err)
	}
	return int64(len(rows)), nil
}

// ratio divides correct by total, yielding 0 (not NaN) on an empty set.
func ratio(correct, total int64) float64 {
	if total == 0 {
		return 0
	}
	return float64(correct) / float64(total)
}

func applyWindow(db *gorm.DB, column string, filter StatsFilter) *gorm.DB {
	if filter.From != nil {
		db = db.Where(column+" >= ?", *filter.From)
	}
	if filter.To != nil {
		db = db.Where(column+" <= ?", *filter.To)
	}
	return db
}
