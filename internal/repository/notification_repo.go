package repository

import (
	"context"
	"time"

	"CricPredict/internal/model"

	"gorm.io/gorm"
)

// NotificationRepository persists outgoing notification intents. Intents are
// written after a settlement commits; delivery is somebody else's problem.
type NotificationRepository interface {
	CreateIntents(ctx context.Context, intents []*model.NotificationIntent) error
	MarkDispatched(ctx context.Context, intentIDs []uint64) error
	ListPending(ctx context.Context, limit int) ([]*model.NotificationIntent, error)
}

type notificationRepository struct {
	db *gorm.DB
}

// NewNotificationRepository creates a NotificationRepository.
func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) CreateIntents(ctx context.Context, intents []*model.NotificationIntent) error {
	if len(intents) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&intents).Error
}

func (r *notificationRepository) MarkDispatched(ctx context.Context, intentIDs []uint64) error {
	if len(intentIDs) == 0 {
		return nil
	}
	now := time.Now()
	return r.db.WithContext(ctx).Model(&model.NotificationIntent{}).
		Where("id IN ?", intentIDs).
		Update("dispatched_at", now).Error
}

func (r *notificationRepository) ListPending(ctx context.Context, limit int) ([]*model.NotificationIntent, error) {
	if limit <= 0 {
		limit = 200
	}
	var intents []*model.NotificationIntent
	if err := r.db.WithContext(ctx).
		Where("dispatched_at IS NULL").
		Order("created_at ASC").
		Limit(limit).
		Find(&intents).Error; err != nil {
		return nil, err
	}
	return intents, nil
}
