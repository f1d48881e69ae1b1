package service

import (
	"context"

	"golang-stock-recommender/internal/recommender/dto"
	"golang-stock-recommender/internal/recommender/repository"
)

const defaultNotificationLimit = 50

// NotificationService lists notifications delivered to users.
type NotificationService interface {
	ListForUser(ctx context.Context, userID uint, limit int) ([]dto.NotificationResponse, error)
}

// NewNotificationService creates a new notification service.
func NewNotificationService(gate *ReadinessGate, notificationRepo repository.NotificationRepository) NotificationService {
	return &notificationService{gate: gate, notificationRepo: notificationRepo}
}

type notificationService struct {
	gate             *ReadinessGate
	notificationRepo repository.NotificationRepository
}

func (s *notificationService) ListForUser(ctx context.Context, userID uint, limit int) ([]dto.NotificationResponse, error) {
	if _, _, err := s.gate.Load(ctx, userID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultNotificationLimit
	}

	items, err := s.notificationRepo.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, err
	}
	resp := make([]dto.NotificationResponse, 0, len(items))
	for _, item := range items {
		if item.Notification == nil {
			continue
		}
		resp = append(resp, dto.NotificationResponse{
			ID:         item.NotificationID,
			TargetID:   item.Notification.TargetID,
			TargetType: int(item.Notification.TargetType),
			Message:    item.Notification.Message,
			Read:       item.Read,
			CreatedAt:  item.Notification.CreatedAt,
		})
	}
	return resp, nil
}
