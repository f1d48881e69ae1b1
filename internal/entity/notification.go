package entity

import (
	"time"

	"gorm.io/datatypes"
)

// NotificationTarget is what a notification is about.
type NotificationTarget int

const (
	NotificationTargetCompany NotificationTarget = 1
	NotificationTargetArticle NotificationTarget = 2
)

type Notification struct {
	ID         uint               `gorm:"primaryKey" json:"id"`
	TargetID   uint               `gorm:"not null" json:"target_id"`
	TargetType NotificationTarget `gorm:"not null" json:"target_type"`
	Message    string             `gorm:"type:text;not null" json:"message"`
	Payload    datatypes.JSON     `json:"payload"`
	CreatedAt  time.Time          `gorm:"autoCreateTime" json:"created_at"`
}

func (Notification) TableName() string {
	return "notifications"
}

type UserNotification struct {
	UserID         uint          `gorm:"primaryKey" json:"user_id"`
	NotificationID uint          `gorm:"primaryKey" json:"notification_id"`
	Read           bool          `gorm:"not null;default:false" json:"read"`
	Notification   *Notification `gorm:"foreignKey:NotificationID" json:"notification,omitempty"`
}

func (UserNotification) TableName() string {
	return "user_notifications"
}
