package repository

import (
	"context"

	"golang-stock-recommender/internal/entity"

	"gorm.io/gorm"
)

// NotificationRepository defines the interface for notification data operations.
type NotificationRepository interface {
	CreateForUsers(ctx context.Context, notification *entity.Notification, userIDs []uint) error
	ListByUser(ctx context.Context, userID uint, limit int) ([]entity.UserNotification, error)
}

// NewNotificationRepository creates a new GORM-based notification repository.
func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

type notificationRepository struct {
	db *gorm.DB
}

// CreateForUsers stores one notification and fans it out to every recipient atomically.
func (r *notificationRepository) CreateForUsers(ctx context.Context, notification *entity.Notification, userIDs []uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(notification).Error; err != nil {
			return err
		}
		if len(userIDs) == 0 {
			return nil
		}
		links := make([]entity.UserNotification, 0, len(userIDs))
		for _, id := range userIDs {
			links = append(links, entity.UserNotification{UserID: id, NotificationID: notification.ID})
		}
		return tx.Create(&links).Error
	})
}

// ListByUser retrieves the latest notifications of a user, newest first.
func (r *notificationRepository) ListByUser(ctx context.Context, userID uint, limit int) ([]entity.UserNotification, error) {
	var items []entity.UserNotification
	q := r.db.WithContext(ctx).
		Preload("Notification").
		Where("user_id = ?", userID).
		Order("notification_id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}
