package repository

import (
	"context"

	"golang-stock-recommender/internal/entity"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SectorGraphRepository defines the query contract over the user/company to sector relation.
type SectorGraphRepository interface {
	WithTx(tx *gorm.DB) SectorGraphRepository
	ListSectors(ctx context.Context) ([]entity.Sector, error)
	FindSector(ctx context.Context, id uint) (*entity.Sector, error)
	UserSectorIDs(ctx context.Context, userID uint) ([]uint, error)
	UserSectors(ctx context.Context, userID uint) ([]entity.Sector, error)
	CompanySectorIDs(ctx context.Context, companyID uint) ([]uint, error)
	CompanySectorMap(ctx context.Context) (map[uint][]uint, []uint, error)
	AddUserSector(ctx context.Context, userID, sectorID uint) error
	RemoveUserSector(ctx context.Context, userID, sectorID uint) error
}

// NewSectorGraphRepository creates a new GORM-based sector graph repository.
func NewSectorGraphRepository(db *gorm.DB) SectorGraphRepository {
	return &sectorGraphRepository{db: db}
}

type sectorGraphRepository struct {
	db *gorm.DB
}

func (r *sectorGraphRepository) WithTx(tx *gorm.DB) SectorGraphRepository {
	return &sectorGraphRepository{db: tx}
}

// ListSectors retrieves the whole taxonomy.
func (r *sectorGraphRepository) ListSectors(ctx context.Context) ([]entity.Sector, error) {
	var sectors []entity.Sector
	if err := r.db.WithContext(ctx).Order("id").Find(&sectors).Error; err != nil {
		return nil, err
	}
	return sectors, nil
}

// FindSector retrieves a sector by its ID.
func (r *sectorGraphRepository) FindSector(ctx context.Context, id uint) (*entity.Sector, error) {
	var sector entity.Sector
	if err := r.db.WithContext(ctx).First(&sector, id).Error; err != nil {
		return nil, err
	}
	return &sector, nil
}

// UserSectorIDs retrieves the sectors a user is interested in.
func (r *sectorGraphRepository) UserSectorIDs(ctx context.Context, userID uint) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).Model(&entity.UserSector{}).
		Where("user_id = ?", userID).
		Order("sector_id").
		Pluck("sector_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// UserSectors retrieves the sector rows a user is interested in.
func (r *sectorGraphRepository) UserSectors(ctx context.Context, userID uint) ([]entity.Sector, error) {
	var sectors []entity.Sector
	err := r.db.WithContext(ctx).
		Joins("JOIN user_sectors us ON us.sector_id = sectors.id").
		Where("us.user_id = ?", userID).
		Order("sectors.id").
		Find(&sectors).Error
	if err != nil {
		return nil, err
	}
	return sectors, nil
}

// CompanySectorIDs retrieves the sectors a company belongs to.
func (r *sectorGraphRepository) CompanySectorIDs(ctx context.Context, companyID uint) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).Model(&entity.CompanySector{}).
		Where("company_id = ?", companyID).
		Order("sector_id").
		Pluck("sector_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// CompanySectorMap retrieves every live company id and its sector ids in one pass.
// Companies without sectors are present in the id list with no map entry.
func (r *sectorGraphRepository) CompanySectorMap(ctx context.Context) (map[uint][]uint, []uint, error) {
	var companyIDs []uint
	if err := r.db.WithContext(ctx).Model(&entity.Company{}).Order("id").Pluck("id", &companyIDs).Error; err != nil {
		return nil, nil, err
	}

	var links []entity.CompanySector
	if err := r.db.WithContext(ctx).Order("company_id, sector_id").Find(&links).Error; err != nil {
		return nil, nil, err
	}

	sectors := make(map[uint][]uint, len(companyIDs))
	for _, l := range links {
		sectors[l.CompanyID] = append(sectors[l.CompanyID], l.SectorID)
	}
	return sectors, companyIDs, nil
}

// AddUserSector links a sector to a user. Adding an existing link is a no-op.
func (r *sectorGraphRepository) AddUserSector(ctx context.Context, userID, sectorID uint) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).
		Create(&entity.UserSector{UserID: userID, SectorID: sectorID}).Error
}

// RemoveUserSector unlinks a sector from a user.
func (r *sectorGraphRepository) RemoveUserSector(ctx context.Context, userID, sectorID uint) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND sector_id = ?", userID, sectorID).
		Delete(&entity.UserSector{}).Error
}
