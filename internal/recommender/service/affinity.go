package service

import (
	"context"
	"fmt"

	"golang-stock-recommender/internal/entity"
	"golang-stock-recommender/internal/recommender/repository"
	"golang-stock-recommender/pkg/logger"

	"gorm.io/gorm"
)

// AffinityService computes sector-overlap distances between users and companies.
type AffinityService interface {
	Distance(ctx context.Context, userID, companyID uint) (int, error)
	SetDistances(ctx context.Context, userID uint) error
}

// NewAffinityService creates a new affinity service.
func NewAffinityService(
	db *gorm.DB,
	gate *ReadinessGate,
	sectorRepo repository.SectorGraphRepository,
	ledgerRepo repository.FollowLedgerRepository,
	log *logger.Logger,
) AffinityService {
	return &affinityService{
		db:         db,
		gate:       gate,
		sectorRepo: sectorRepo,
		ledgerRepo: ledgerRepo,
		logger:     log,
	}
}

type affinityService struct {
	db         *gorm.DB
	gate       *ReadinessGate
	sectorRepo repository.SectorGraphRepository
	ledgerRepo repository.FollowLedgerRepository
	logger     *logger.Logger
}

// SymmetricDifference counts the ids present in exactly one of a and b.
// Duplicates within a side are ignored.
func SymmetricDifference(a, b []uint) int {
	left := make(map[uint]struct{}, len(a))
	for _, id := range a {
		left[id] = struct{}{}
	}
	right := make(map[uint]struct{}, len(b))
	for _, id := range b {
		right[id] = struct{}{}
	}

	n := 0
	for id := range left {
		if _, ok := right[id]; !ok {
			n++
		}
	}
	for id := range right {
		if _, ok := left[id]; !ok {
			n++
		}
	}
	return n
}

// Distance is the number of sectors on exactly one side of the user's
// interests and the company's sectors. Two empty sets are at distance 0.
func (s *affinityService) Distance(ctx context.Context, userID, companyID uint) (int, error) {
	userSectors, err := s.sectorRepo.UserSectorIDs(ctx, userID)
	if err != nil {
		return 0, err
	}
	companySectors, err := s.sectorRepo.CompanySectorIDs(ctx, companyID)
	if err != nil {
		return 0, err
	}
	return SymmetricDifference(userSectors, companySectors), nil
}

// SetDistances refreshes the cached distance of every company the user has
// not given feedback on. Followed and unfollowed entries are never rescored.
// The refresh is all or nothing.
func (s *affinityService) SetDistances(ctx context.Context, userID uint) error {
	if _, _, err := s.gate.Load(ctx, userID); err != nil {
		return err
	}

	var created, updated int
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sectorRepo := s.sectorRepo.WithTx(tx)
		ledgerRepo := s.ledgerRepo.WithTx(tx)

		userSectors, err := sectorRepo.UserSectorIDs(ctx, userID)
		if err != nil {
			return fmt.Errorf("load user sectors: %w", err)
		}
		companySectors, companyIDs, err := sectorRepo.CompanySectorMap(ctx)
		if err != nil {
			return fmt.Errorf("load company sectors: %w", err)
		}
		entries, err := ledgerRepo.ListByUser(ctx, userID)
		if err != nil {
			return fmt.Errorf("load ledger: %w", err)
		}

		existing := make(map[uint]entity.FollowLedgerEntry, len(entries))
		for _, e := range entries {
			existing[e.CompanyID] = e
		}

		var fresh []entity.FollowLedgerEntry
		for _, companyID := range companyIDs {
			d := uint32(SymmetricDifference(userSectors, companySectors[companyID]))
			e, ok := existing[companyID]
			if !ok {
				fresh = append(fresh, entity.FollowLedgerEntry{
					UserID:    userID,
					CompanyID: companyID,
					State:     entity.FollowStateCandidate,
					Distance:  d,
				})
				continue
			}
			if e.State != entity.FollowStateCandidate || e.Distance == d {
				continue
			}
			if err := ledgerRepo.UpdateDistance(ctx, userID, companyID, d); err != nil {
				return fmt.Errorf("update distance company %d: %w", companyID, err)
			}
			updated++
		}
		created = len(fresh)
		return ledgerRepo.CreateBatch(ctx, fresh)
	})
	if err != nil {
		s.logger.Error("Failed to set distances", logger.ErrorField(err), logger.UintField("user_id", userID))
		return err
	}

	s.logger.Debug("Distances refreshed",
		logger.UintField("user_id", userID),
		logger.IntField("created", created),
		logger.IntField("updated", updated),
	)
	return nil
}
