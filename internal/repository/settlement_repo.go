package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"CricPredict/internal/model"

	"gorm.io/gorm"
)

// SettlementRepository runs the settlement unit of work. The whole
// multi-row update commits as one transaction or not at all: a partially
// scored poll is a corrupt state no retry can repair.
type SettlementRepository interface {
	// SettlePoll advances the poll to SETTLED, flags the correct options,
	// back-fills vote points and writes the settlement record, all in one
	// transaction. The guarded status update doubles as the concurrency
	// gate: the second of two racing settlements updates zero rows and
	// gets ErrAlreadySettled without touching any votes.
	SettlePoll(ctx context.Context, pollID uint64, correctOptionIDs []uint64, pointsPerVote int, settledBy uint64) (*model.SettlementRecord, error)
	GetRecordByPollID(ctx context.Context, pollID uint64) (*model.SettlementRecord, error)
}

type settlementRepository struct {
	db *gorm.DB
}

// NewSettlementRepository creates a SettlementRepository.
func NewSettlementRepository(db *gorm.DB) SettlementRepository {
	return &settlementRepository{db: db}
}

func (r *settlementRepository) SettlePoll(ctx context.Context, pollID uint64, correctOptionIDs []uint64, pointsPerVote int, settledBy uint64) (*model.SettlementRecord, error) {
	if len(correctOptionIDs) == 0 {
		return nil, model.ErrInvalidOption
	}

	tx := r.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, fmt.Errorf("begin transaction: %w", tx.Error)
	}
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
		}
	}()

	now := time.Now()

	// One-way door: only the caller that flips the status row settles.
	res := tx.Model(&model.Poll{}).
		Where("id = ? AND status <> ?", pollID, model.PollStatusSettled).
		Updates(map[string]interface{}{"status": model.PollStatusSettled, "updated_at": now})
	if res.Error != nil {
		tx.Rollback()
		return nil, fmt.Errorf("advance poll status: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		tx.Rollback()
		return nil, model.ErrAlreadySettled
	}

	if err := tx.Model(&model.Option{}).
		Where("poll_id = ? AND id IN ?", pollID, correctOptionIDs).
		Update("is_correct", true).Error; err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("mark correct options: %w", err)
	}
	if err := tx.Model(&model.Option{}).
		Where("poll_id = ? AND id NOT IN ?", pollID, correctOptionIDs).
		Update("is_correct", false).Error; err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("clear sibling options: %w", err)
	}

	winners := tx.Model(&model.Vote{}).
		Where("poll_id = ? AND option_id IN ?", pollID, correctOptionIDs).
		Update("points", pointsPerVote)
	if winners.Error != nil {
		tx.Rollback()
		return nil, fmt.Errorf("award winning votes: %w", winners.Error)
	}
	losers := tx.Model(&model.Vote{}).
		Where("poll_id = ? AND option_id NOT IN ?", pollID, correctOptionIDs).
		Update("points", 0)
	if losers.Error != nil {
		tx.Rollback()
		return nil, fmt.Errorf("zero losing votes: %w", losers.Error)
	}

	idsJSON, err := json.Marshal(correctOptionIDs)
	if err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("marshal correct option ids: %w", err)
	}
	record := &model.SettlementRecord{
		PollID:           pollID,
		CorrectOptionIDs: idsJSON,
		PointsPerVote:    pointsPerVote,
		VotesScored:      winners.RowsAffected + losers.RowsAffected,
		PointsAwarded:    winners.RowsAffected * int64(pointsPerVote),
		SettledBy:        settledBy,
		CreatedAt:        now,
	}
	if err := tx.Create(record).Error; err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("create settlement record: %w", err)
	}

	if err := tx.Commit().Error; err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return record, nil
}

func (r *settlementRepository) GetRecordByPollID(ctx context.Context, pollID uint64) (*model.SettlementRecord, error) {
	var rec model.SettlementRecord
	if err := r.db.WithContext(ctx).Where("poll_id = ?", pollID).First(&rec).Error; err != nil {
		return nil, err
	}
	return &rec, nil
}
