package repository

import (
	"context"
	"errors"
	"strings"

	"CricPredict/internal/model"

	"gorm.io/gorm"
)

// VoteRepository owns the vote ledger. Votes are insert-only here: the
// points column is touched exclusively by the settlement transaction.
type VoteRepository interface {
	// CreateVote inserts a vote. A second vote for the same (user, poll)
	// loses the race on uk_user_poll and comes back as ErrDuplicateVote.
	CreateVote(ctx context.Context, vote *model.Vote) error
	GetByUserAndPoll(ctx context.Context, userID, pollID uint64) (*model.Vote, error)
	ListByPoll(ctx context.Context, pollID uint64) ([]*model.Vote, error)
	CountByPoll(ctx context.Context, pollID uint64) (int64, error)
	// CountByOption returns vote tallies per option for a poll.
	CountByOption(ctx context.Context, pollID uint64) (map[uint64]int64, error)
}

type voteRepository struct {
	db *gorm.DB
}

// NewVoteRepository creates a VoteRepository.
func NewVoteRepository(db *gorm.DB) VoteRepository {
	return &voteRepository{db: db}
}

func (r *voteRepository) CreateVote(ctx context.Context, vote *model.Vote) error {
	if err := r.db.WithContext(ctx).Create(vote).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "uk_user_poll") {
			return model.ErrDuplicateVote
		}
		return err
	}
	return nil
}

func (r *voteRepository) GetByUserAndPoll(ctx context.Context, userID, pollID uint64) (*model.Vote, error) {
	var v model.Vote
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND poll_id = ?", userID, pollID).
		First(&v).Error; err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *voteRepository) ListByPoll(ctx context.Context, pollID uint64) ([]*model.Vote, error) {
	var votes []*model.Vote
	if err := r.db.WithContext(ctx).
		Where("poll_id = ?", pollID).
		Order("created_at ASC").
		Find(&votes).Error; err != nil {
		return nil, err
	}
	return votes, nil
}

func (r *voteRepository) CountByPoll(ctx context.Context, pollID uint64) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.Vote{}).
		Where("poll_id = ?", pollID).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *voteRepository) CountByOption(ctx context.Context, pollID uint64) (map[uint64]int64, error) {
	type optionCount struct {
		OptionID uint64
		Total    int64
	}
	var rows []optionCount
	if err := r.db.WithContext(ctx).Model(&model.Vote{}).
		Select("option_id, COUNT(*) AS total").
		Where("poll_id = ?", pollID).
		Group("option_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	counts := make(map[uint64]int64, len(rows))
	for _, row := range rows {
		counts[row.OptionID] = row.Total
	}
	return counts, nil
}
