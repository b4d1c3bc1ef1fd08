package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"CricPredict/internal/model"

	"gorm.io/gorm"
)

// PollFilter narrows ListPolls.
type PollFilter struct {
	MatchID uint64 // 0 = all matches
	Status  string // persisted status, "" = all
	Type    string // poll type, "" = all
}

// PollRepository owns poll and option rows.
type PollRepository interface {
	// CreatePollWithOptions inserts the poll and its options as one unit.
	CreatePollWithOptions(ctx context.Context, poll *model.Poll, options []*model.Option) error
	GetByUUID(ctx context.Context, pollUUID string) (*model.Poll, error)
	GetByID(ctx context.Context, id uint64) (*model.Poll, error)
	ListPolls(ctx context.Context, filter PollFilter, page, pageSize int) ([]*model.Poll, int64, error)
	ListOptions(ctx context.Context, pollID uint64) ([]*model.Option, error)
	// ListExpiredActive returns polls past their deadline whose persisted
	// status still says ACTIVE (sweep input).
	ListExpiredActive(ctx context.Context, now time.Time, limit int) ([]*model.Poll, error)
	// AdvanceStatus moves a poll from one status to the next with a guarded
	// update; false means another caller advanced it first.
	AdvanceStatus(ctx context.Context, pollID uint64, from, to string) (bool, error)
	HasVotes(ctx context.Context, pollID uint64) (bool, error)
	// UpdateEndTime rewrites the deadline. The service layer rejects this
	// once votes exist.
	UpdateEndTime(ctx context.Context, pollID uint64, endTime time.Time) error
}

type pollRepository struct {
	db *gorm.DB
}

// NewPollRepository creates a PollRepository.
func NewPollRepository(db *gorm.DB) PollRepository {
	return &pollRepository{db: db}
}

func (r *pollRepository) CreatePollWithOptions(ctx context.Context, poll *model.Poll, options []*model.Option) error {
	tx := r.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return fmt.Errorf("begin transaction: %w", tx.Error)
	}
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
		}
	}()

	if err := tx.Create(poll).Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("create poll: %w", err)
	}
	for i := range options {
		options[i].PollID = poll.ID
		options[i].Position = i
	}
	if err := tx.Create(&options).Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("create options: %w", err)
	}
	if err := tx.Commit().Error; err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (r *pollRepository) GetByUUID(ctx context.Context, pollUUID string) (*model.Poll, error) {
	var p model.Poll
	if err := r.db.WithContext(ctx).Where("poll_uuid = ?", pollUUID).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.ErrPollNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *pollRepository) GetByID(ctx context.Context, id uint64) (*model.Poll, error) {
	var p model.Poll
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.ErrPollNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *pollRepository) ListPolls(ctx context.Context, filter PollFilter, page, pageSize int) ([]*model.Poll, int64, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	db := r.db.WithContext(ctx).Model(&model.Poll{})
	if filter.MatchID != 0 {
		db = db.Where("match_id = ?", filter.MatchID)
	}
	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}
	if filter.Type != "" {
		db = db.Where("type = ?", filter.Type)
	}
	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var polls []*model.Poll
	if err := db.Order("poll_end_time ASC").
		Offset((page - 1) * pageSize).Limit(pageSize).
		Find(&polls).Error; err != nil {
		return nil, 0, err
	}
	return polls, total, nil
}

func (r *pollRepository) ListOptions(ctx context.Context, pollID uint64) ([]*model.Option, error) {
	var options []*model.Option
	if err := r.db.WithContext(ctx).
		Where("poll_id = ?", pollID).
		Order("position ASC").
		Find(&options).Error; err != nil {
		return nil, err
	}
	return options, nil
}

func (r *pollRepository) ListExpiredActive(ctx context.Context, now time.Time, limit int) ([]*model.Poll, error) {
	if limit <= 0 {
		limit = 500
	}
	var polls []*model.Poll
	if err := r.db.WithContext(ctx).Model(&model.Poll{}).
		Where("status = ? AND poll_end_time < ?", model.PollStatusActive, now).
		Limit(limit).Find(&polls).Error; err != nil {
		return nil, err
	}
	return polls, nil
}

func (r *pollRepository) AdvanceStatus(ctx context.Context, pollID uint64, from, to string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Poll{}).
		Where("id = ? AND status = ?", pollID, from).
		Updates(map[string]interface{}{"status": to, "updated_at": time.Now()})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *pollRepository) HasVotes(ctx context.Context, pollID uint64) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.Vote{}).
		Where("poll_id = ?", pollID).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *pollRepository) UpdateEndTime(ctx context.Context, pollID uint64, endTime time.Time) error {
	return r.db.WithContext(ctx).Model(&model.Poll{}).
		Where("id = ?", pollID).
		Updates(map[string]interface{}{"poll_end_time": endTime, "updated_at": time.Now()}).Error
}
