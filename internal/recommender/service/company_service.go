package service

import (
	"context"
	"errors"
	"fmt"
	"math"

	"golang-stock-recommender/internal/entity"
	"golang-stock-recommender/internal/recommender/dto"
	"golang-stock-recommender/internal/recommender/repository"
	"golang-stock-recommender/pkg/logger"
	"golang-stock-recommender/pkg/telegram"

	"github.com/goccy/go-json"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ErrNoScores is returned when a sentiment update carries no scores.
var ErrNoScores = errors.New("no sentiment scores")

// SentimentLabel buckets an aggregate sentiment score.
func SentimentLabel(score float64) string {
	switch {
	case score >= 0.5:
		return "Very Positive"
	case score >= 0.05:
		return "Positive"
	case score <= -0.5:
		return "Very Negative"
	case score <= -0.05:
		return "Negative"
	default:
		return "Neutral"
	}
}

// CompanyService updates company sentiment and alerts followers of large moves.
type CompanyService interface {
	UpdateSentiment(ctx context.Context, companyID uint, scores []float64) (*dto.SentimentUpdateResponse, error)
}

// NewCompanyService creates a new company service.
func NewCompanyService(
	shiftThreshold float64,
	companyRepo repository.CompanyRepository,
	ledgerRepo repository.FollowLedgerRepository,
	notificationRepo repository.NotificationRepository,
	notifier telegram.Notifier,
	log *logger.Logger,
) CompanyService {
	return &companyService{
		shiftThreshold:   shiftThreshold,
		companyRepo:      companyRepo,
		ledgerRepo:       ledgerRepo,
		notificationRepo: notificationRepo,
		notifier:         notifier,
		logger:           log,
	}
}

type companyService struct {
	shiftThreshold   float64
	companyRepo      repository.CompanyRepository
	ledgerRepo       repository.FollowLedgerRepository
	notificationRepo repository.NotificationRepository
	notifier         telegram.Notifier
	logger           *logger.Logger
}

// UpdateSentiment replaces the aggregate with the mean of scores. When the
// aggregate moves by more than the threshold every follower is notified.
func (s *companyService) UpdateSentiment(ctx context.Context, companyID uint, scores []float64) (*dto.SentimentUpdateResponse, error) {
	if len(scores) == 0 {
		return nil, ErrNoScores
	}

	company, err := s.companyRepo.FindByID(ctx, companyID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCompanyNotFound
	}
	if err != nil {
		return nil, err
	}

	var sum float64
	for _, v := range scores {
		sum += v
	}
	current := sum / float64(len(scores))
	previous := company.Sentiment

	if err := s.companyRepo.UpdateSentiment(ctx, companyID, current); err != nil {
		return nil, fmt.Errorf("update sentiment: %w", err)
	}

	resp := &dto.SentimentUpdateResponse{
		CompanyID: companyID,
		Previous:  previous,
		Current:   current,
		Label:     SentimentLabel(current),
	}
	if math.Abs(previous-current) <= s.shiftThreshold {
		return resp, nil
	}

	followers, err := s.ledgerRepo.ListFollowerIDs(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("list followers: %w", err)
	}

	shift := telegram.SentimentShift{
		CompanyName:   company.Name,
		Previous:      previous,
		Current:       current,
		PreviousLabel: SentimentLabel(previous),
		CurrentLabel:  SentimentLabel(current),
		Followers:     len(followers),
	}
	payload, err := json.Marshal(dto.SentimentShiftPayload{CompanyID: companyID, Previous: previous, Current: current})
	if err != nil {
		return nil, err
	}
	notification := &entity.Notification{
		TargetID:   companyID,
		TargetType: entity.NotificationTargetCompany,
		Message:    fmt.Sprintf("%s sentiment moved from %s to %s", company.Name, shift.PreviousLabel, shift.CurrentLabel),
		Payload:    datatypes.JSON(payload),
	}
	if err := s.notificationRepo.CreateForUsers(ctx, notification, followers); err != nil {
		return nil, fmt.Errorf("create notification: %w", err)
	}

	if err := s.notifier.SendMessage(telegram.FormatSentimentShift(shift)); err != nil {
		s.logger.Error("Failed to send telegram alert", logger.ErrorField(err), logger.UintField("company_id", companyID))
	}

	s.logger.Info("Sentiment shift notified",
		logger.UintField("company_id", companyID),
		logger.Field("previous", previous),
		logger.Field("current", current),
		logger.IntField("followers", len(followers)),
	)
	resp.Notified = true
	resp.FollowersNotified = len(followers)
	return resp, nil
}
