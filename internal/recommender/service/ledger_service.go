package service

import (
	"context"
	"errors"

	"golang-stock-recommender/internal/entity"
	"golang-stock-recommender/internal/recommender/repository"
	"golang-stock-recommender/pkg/logger"

	"gorm.io/gorm"
)

// FollowResult reports what a follow or unfollow did to the ledger.
type FollowResult struct {
	Entry *entity.FollowLedgerEntry
	// Created is true when no entry existed for the pair before the call.
	Created bool
	// Counted is true when the call advanced the readiness counter.
	Counted bool
}

// LedgerService manages users, their follow state and sector interests.
type LedgerService interface {
	Register(ctx context.Context, email, name string, sectorIDs []uint) (*entity.User, error)
	Follow(ctx context.Context, userID, companyID uint) (*FollowResult, error)
	Unfollow(ctx context.Context, userID, companyID uint) (*FollowResult, error)
	GetFollowed(ctx context.Context, userID uint) ([]entity.Company, error)
	GetCandidates(ctx context.Context, userID uint) ([]entity.FollowLedgerEntry, error)
	AddSector(ctx context.Context, userID, sectorID uint) error
	RemoveSector(ctx context.Context, userID, sectorID uint) error
	GetSectors(ctx context.Context, userID uint) ([]entity.Sector, error)
}

// NewLedgerService creates a new ledger service.
func NewLedgerService(
	db *gorm.DB,
	gate *ReadinessGate,
	userRepo repository.UserRepository,
	ledgerRepo repository.FollowLedgerRepository,
	companyRepo repository.CompanyRepository,
	sectorRepo repository.SectorGraphRepository,
	log *logger.Logger,
) LedgerService {
	return &ledgerService{
		db:          db,
		gate:        gate,
		userRepo:    userRepo,
		ledgerRepo:  ledgerRepo,
		companyRepo: companyRepo,
		sectorRepo:  sectorRepo,
		logger:      log,
	}
}

type ledgerService struct {
	db          *gorm.DB
	gate        *ReadinessGate
	userRepo    repository.UserRepository
	ledgerRepo  repository.FollowLedgerRepository
	companyRepo repository.CompanyRepository
	sectorRepo  repository.SectorGraphRepository
	logger      *logger.Logger
}

// Register creates a user with the starting readiness counter and the given
// sector interests.
func (s *ledgerService) Register(ctx context.Context, email, name string, sectorIDs []uint) (*entity.User, error) {
	if _, err := s.userRepo.FindByEmail(ctx, email); err == nil {
		return nil, ErrUserExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	for _, id := range sectorIDs {
		if err := s.ensureSector(ctx, id); err != nil {
			return nil, err
		}
	}

	user := &entity.User{Email: email, Name: name, HardReady: s.gate.Initial()}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.userRepo.WithTx(tx).Create(ctx, user); err != nil {
			return err
		}
		sectorRepo := s.sectorRepo.WithTx(tx)
		for _, id := range sectorIDs {
			if err := sectorRepo.AddUserSector(ctx, user.ID, id); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to register user", logger.ErrorField(err), logger.StringField("email", email))
		return nil, err
	}

	s.logger.InfoContext(ctx, "User registered",
		logger.UintField("user_id", user.ID),
		logger.IntField("hard_ready", user.HardReady),
		logger.IntField("sectors", len(sectorIDs)),
	)
	return user, nil
}

func (s *ledgerService) ensureCompany(ctx context.Context, companyID uint) error {
	_, err := s.companyRepo.FindByID(ctx, companyID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrCompanyNotFound
	}
	return err
}

// Follow marks the company as followed. The readiness counter advances for a
// refollow after an unfollow, for any follow by a user who is not yet ready,
// and for the first follow of a company. Re-affirming a follow does not count.
func (s *ledgerService) Follow(ctx context.Context, userID, companyID uint) (*FollowResult, error) {
	if err := s.ensureCompany(ctx, companyID); err != nil {
		return nil, err
	}

	var result FollowResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		gate := s.gate.WithTx(tx)
		ledgerRepo := s.ledgerRepo.WithTx(tx)

		user, _, err := gate.Load(ctx, userID)
		if err != nil {
			return err
		}

		prev, err := ledgerRepo.Find(ctx, userID, companyID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		result.Created = prev == nil

		entry := &entity.FollowLedgerEntry{UserID: userID, CompanyID: companyID, State: entity.FollowStateFollowing}
		if err := ledgerRepo.Upsert(ctx, entry); err != nil {
			return err
		}
		result.Entry = entry

		alreadyFollowing := prev != nil && prev.IsFollowing()
		result.Counted = !alreadyFollowing || !gate.IsReady(user.HardReady)
		if result.Counted {
			return gate.Increment(ctx, userID)
		}
		return nil
	})
	if err != nil {
		if !errors.Is(err, ErrUserNotFound) {
			s.logger.Error("Failed to follow company", logger.ErrorField(err), logger.UintField("user_id", userID), logger.UintField("company_id", companyID))
		}
		return nil, err
	}

	s.logger.Info("Company followed",
		logger.UintField("user_id", userID),
		logger.UintField("company_id", companyID),
		logger.Field("counted", result.Counted),
	)
	return &result, nil
}

// Unfollow keeps the entry as negative feedback. Without an entry it is a no-op.
func (s *ledgerService) Unfollow(ctx context.Context, userID, companyID uint) (*FollowResult, error) {
	if err := s.ensureCompany(ctx, companyID); err != nil {
		return nil, err
	}

	var result FollowResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		gate := s.gate.WithTx(tx)
		ledgerRepo := s.ledgerRepo.WithTx(tx)

		user, _, err := gate.Load(ctx, userID)
		if err != nil {
			return err
		}

		prev, err := ledgerRepo.Find(ctx, userID, companyID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		entry := &entity.FollowLedgerEntry{UserID: userID, CompanyID: companyID, State: entity.FollowStateUnfollowed}
		if err := ledgerRepo.Upsert(ctx, entry); err != nil {
			return err
		}
		entry.CreatedAt = prev.CreatedAt
		result.Entry = entry

		if !gate.IsReady(user.HardReady) {
			result.Counted = true
			return gate.Increment(ctx, userID)
		}
		return nil
	})
	if err != nil {
		if !errors.Is(err, ErrUserNotFound) {
			s.logger.Error("Failed to unfollow company", logger.ErrorField(err), logger.UintField("user_id", userID), logger.UintField("company_id", companyID))
		}
		return nil, err
	}

	s.logger.Info("Company unfollowed",
		logger.UintField("user_id", userID),
		logger.UintField("company_id", companyID),
		logger.Field("counted", result.Counted),
	)
	return &result, nil
}

// GetFollowed returns the companies the user currently follows.
func (s *ledgerService) GetFollowed(ctx context.Context, userID uint) ([]entity.Company, error) {
	if _, _, err := s.gate.Load(ctx, userID); err != nil {
		return nil, err
	}
	return s.ledgerRepo.ListFollowedCompanies(ctx, userID)
}

// GetCandidates returns every entry that is not an active follow: candidates
// and unfollowed companies.
func (s *ledgerService) GetCandidates(ctx context.Context, userID uint) ([]entity.FollowLedgerEntry, error) {
	if _, _, err := s.gate.Load(ctx, userID); err != nil {
		return nil, err
	}
	return s.ledgerRepo.ListNonFollowing(ctx, userID)
}

func (s *ledgerService) ensureSector(ctx context.Context, sectorID uint) error {
	_, err := s.sectorRepo.FindSector(ctx, sectorID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrSectorNotFound
	}
	return err
}

// AddSector adds a sector interest. Cached distances are refreshed on the
// next sector based recommendation.
func (s *ledgerService) AddSector(ctx context.Context, userID, sectorID uint) error {
	if _, _, err := s.gate.Load(ctx, userID); err != nil {
		return err
	}
	if err := s.ensureSector(ctx, sectorID); err != nil {
		return err
	}
	return s.sectorRepo.AddUserSector(ctx, userID, sectorID)
}

// RemoveSector drops a sector interest.
func (s *ledgerService) RemoveSector(ctx context.Context, userID, sectorID uint) error {
	if _, _, err := s.gate.Load(ctx, userID); err != nil {
		return err
	}
	if err := s.ensureSector(ctx, sectorID); err != nil {
		return err
	}
	return s.sectorRepo.RemoveUserSector(ctx, userID, sectorID)
}

// GetSectors returns the user's sector interests.
func (s *ledgerService) GetSectors(ctx context.Context, userID uint) ([]entity.Sector, error) {
	if _, _, err := s.gate.Load(ctx, userID); err != nil {
		return nil, err
	}
	return s.sectorRepo.UserSectors(ctx, userID)
}
