package repository

import (
	"context"

	"golang-stock-recommender/internal/entity"

	"gorm.io/gorm"
)

type CompanyRepository interface {
	Create(ctx context.Context, company *entity.Company) error
	FindByID(ctx context.Context, id uint) (*entity.Company, error)
	FindByIDs(ctx context.Context, ids []uint) ([]entity.Company, error)
	UpdateSentiment(ctx context.Context, id uint, sentiment float64) error
}

type companyRepository struct {
	db *gorm.DB
}

func NewCompanyRepository(db *gorm.DB) CompanyRepository {
	return &companyRepository{db: db}
}

func (r *companyRepository) Create(ctx context.Context, company *entity.Company) error {
	return r.db.WithContext(ctx).Create(company).Error
}

func (r *companyRepository) FindByID(ctx context.Context, id uint) (*entity.Company, error) {
	var company entity.Company
	if err := r.db.WithContext(ctx).Preload("Sectors").First(&company, id).Error; err != nil {
		return nil, err
	}
	return &company, nil
}

// FindByIDs returns the live companies among ids, in the order of ids.
func (r *companyRepository) FindByIDs(ctx context.Context, ids []uint) ([]entity.Company, error) {
	if len(ids) == 0 {
		return []entity.Company{}, nil
	}
	var companies []entity.Company
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&companies).Error; err != nil {
		return nil, err
	}

	byID := make(map[uint]entity.Company, len(companies))
	for _, c := range companies {
		byID[c.ID] = c
	}
	ordered := make([]entity.Company, 0, len(companies))
	for _, id := range ids {
		if c, ok := byID[id]; ok {
			ordered = append(ordered, c)
		}
	}
	return ordered, nil
}

func (r *companyRepository) UpdateSentiment(ctx context.Context, id uint, sentiment float64) error {
	return r.db.WithContext(ctx).Model(&entity.Company{}).Where("id = ?", id).Update("sentiment", sentiment).Error
}
