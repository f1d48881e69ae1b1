package repository

import (
	"context"

	"golang-stock-recommender/internal/entity"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FollowLedgerRepository defines the query contract over per (user, company) ledger entries.
type FollowLedgerRepository interface {
	WithTx(tx *gorm.DB) FollowLedgerRepository
	Find(ctx context.Context, userID, companyID uint) (*entity.FollowLedgerEntry, error)
	Upsert(ctx context.Context, entry *entity.FollowLedgerEntry) error
	CreateBatch(ctx context.Context, entries []entity.FollowLedgerEntry) error
	UpdateDistance(ctx context.Context, userID, companyID uint, distance uint32) error
	ListByUser(ctx context.Context, userID uint) ([]entity.FollowLedgerEntry, error)
	ListFollowedCompanies(ctx context.Context, userID uint) ([]entity.Company, error)
	ListNonFollowing(ctx context.Context, userID uint) ([]entity.FollowLedgerEntry, error)
	ListFeedback(ctx context.Context) ([]entity.FollowLedgerEntry, error)
	ListFollowerIDs(ctx context.Context, companyID uint) ([]uint, error)
}

// NewFollowLedgerRepository creates a new GORM-based follow ledger repository.
func NewFollowLedgerRepository(db *gorm.DB) FollowLedgerRepository {
	return &followLedgerRepository{db: db}
}

type followLedgerRepository struct {
	db *gorm.DB
}

// WithTx returns a repository bound to the given transaction.
func (r *followLedgerRepository) WithTx(tx *gorm.DB) FollowLedgerRepository {
	return &followLedgerRepository{db: tx}
}

// Find retrieves a single ledger entry. Returns gorm.ErrRecordNotFound when absent.
func (r *followLedgerRepository) Find(ctx context.Context, userID, companyID uint) (*entity.FollowLedgerEntry, error) {
	var entry entity.FollowLedgerEntry
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND company_id = ?", userID, companyID).
		Take(&entry).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// Upsert inserts the entry or overwrites state and distance of the existing one.
func (r *followLedgerRepository) Upsert(ctx context.Context, entry *entity.FollowLedgerEntry) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "company_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"state", "distance", "updated_at"}),
	}).Create(entry).Error
}

// CreateBatch inserts new entries.
func (r *followLedgerRepository) CreateBatch(ctx context.Context, entries []entity.FollowLedgerEntry) error {
	if len(entries) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(&entries, 200).Error
}

// UpdateDistance rewrites the cached distance of a candidate entry. Entries in
// any other state are left alone.
func (r *followLedgerRepository) UpdateDistance(ctx context.Context, userID, companyID uint, distance uint32) error {
	return r.db.WithContext(ctx).Model(&entity.FollowLedgerEntry{}).
		Where("user_id = ? AND company_id = ? AND state = ?", userID, companyID, entity.FollowStateCandidate).
		Update("distance", distance).Error
}

// ListByUser retrieves every ledger entry of a user ordered by company.
func (r *followLedgerRepository) ListByUser(ctx context.Context, userID uint) ([]entity.FollowLedgerEntry, error) {
	var entries []entity.FollowLedgerEntry
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("company_id").Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// ListFollowedCompanies retrieves the companies a user currently follows.
func (r *followLedgerRepository) ListFollowedCompanies(ctx context.Context, userID uint) ([]entity.Company, error) {
	var companies []entity.Company
	err := r.db.WithContext(ctx).
		Joins("JOIN user_companies uc ON uc.company_id = companies.id").
		Where("uc.user_id = ? AND uc.state = ?", userID, entity.FollowStateFollowing).
		Order("companies.id").
		Find(&companies).Error
	if err != nil {
		return nil, err
	}
	return companies, nil
}

// ListNonFollowing retrieves candidate and unfollowed entries with their company.
func (r *followLedgerRepository) ListNonFollowing(ctx context.Context, userID uint) ([]entity.FollowLedgerEntry, error) {
	var entries []entity.FollowLedgerEntry
	err := r.db.WithContext(ctx).
		Preload("Company").
		Where("user_id = ? AND state <> ?", userID, entity.FollowStateFollowing).
		Order("company_id").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// ListFeedback retrieves the following/unfollowed entries of every user.
func (r *followLedgerRepository) ListFeedback(ctx context.Context) ([]entity.FollowLedgerEntry, error) {
	var entries []entity.FollowLedgerEntry
	err := r.db.WithContext(ctx).
		Where("state IN ?", []entity.FollowState{entity.FollowStateFollowing, entity.FollowStateUnfollowed}).
		Order("user_id, company_id").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// ListFollowerIDs retrieves the ids of users following a company.
func (r *followLedgerRepository) ListFollowerIDs(ctx context.Context, companyID uint) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).Model(&entity.FollowLedgerEntry{}).
		Where("company_id = ? AND state = ?", companyID, entity.FollowStateFollowing).
		Order("user_id").
		Pluck("user_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}
