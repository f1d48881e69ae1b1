package dto

import "time"

// UpdateSentimentRequest carries the article scores for a company.
type UpdateSentimentRequest struct {
	Scores []float64 `json:"scores"`
}

// SentimentUpdateResponse reports the new aggregate and whether followers were alerted.
type SentimentUpdateResponse struct {
	CompanyID         uint    `json:"company_id"`
	Previous          float64 `json:"previous"`
	Current           float64 `json:"current"`
	Label             string  `json:"label"`
	Notified          bool    `json:"notified"`
	FollowersNotified int     `json:"followers_notified"`
}

// NotificationResponse is a notification delivered to a user.
type NotificationResponse struct {
	ID         uint      `json:"id"`
	TargetID   uint      `json:"target_id"`
	TargetType int       `json:"target_type"`
	Message    string    `json:"message"`
	Read       bool      `json:"read"`
	CreatedAt  time.Time `json:"created_at"`
}

// SentimentShiftPayload is stored with a sentiment notification.
type SentimentShiftPayload struct {
	CompanyID uint    `json:"company_id"`
	Previous  float64 `json:"previous"`
	Current   float64 `json:"current"`
}
