package service

import (
	"context"
	"sort"

	"golang-stock-recommender/internal/entity"
	"golang-stock-recommender/internal/recommender/repository"
)

// SoftRecommender ranks companies by sector overlap for users without
// enough feedback for the personalized model.
type SoftRecommender interface {
	Recommend(ctx context.Context, userID uint, k int) ([]entity.FollowLedgerEntry, error)
}

// NewSoftRecommender creates a new sector based recommender.
func NewSoftRecommender(affinity AffinityService, ledgerRepo repository.FollowLedgerRepository) SoftRecommender {
	return &softRecommender{affinity: affinity, ledgerRepo: ledgerRepo}
}

type softRecommender struct {
	affinity   AffinityService
	ledgerRepo repository.FollowLedgerRepository
}

// Recommend refreshes distances and returns up to k entries that are not
// followed. Candidates come first by ascending distance, then unfollowed
// companies; ties break on company id. Deleted companies are skipped.
func (s *softRecommender) Recommend(ctx context.Context, userID uint, k int) ([]entity.FollowLedgerEntry, error) {
	if err := s.affinity.SetDistances(ctx, userID); err != nil {
		return nil, err
	}
	if k <= 0 {
		return []entity.FollowLedgerEntry{}, nil
	}

	entries, err := s.ledgerRepo.ListNonFollowing(ctx, userID)
	if err != nil {
		return nil, err
	}

	ranked := make([]entity.FollowLedgerEntry, 0, len(entries))
	for _, e := range entries {
		if e.Company == nil {
			continue
		}
		ranked = append(ranked, e)
	}
	SortCandidates(ranked)

	if len(ranked) > k {
		ranked = ranked[:k]
	}
	return ranked, nil
}

// SortCandidates orders entries for sector based ranking.
func SortCandidates(entries []entity.FollowLedgerEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.IsUnfollowed() != b.IsUnfollowed() {
			return !a.IsUnfollowed()
		}
		if a.Distance != b.Distance {
			return a.Distance < b.Distance
		}
		return a.CompanyID < b.CompanyID
	})
}
