package entity

import (
	"time"

	"gorm.io/gorm"
)

// Company is a followable company. Sentiment is the average score of its articles.
type Company struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Name      string         `gorm:"not null" json:"name"`
	Sentiment float64        `gorm:"not null;default:0" json:"sentiment"`
	MarketCap int64          `json:"market_cap"`
	Sectors   []Sector       `gorm:"many2many:company_sectors" json:"sectors,omitempty"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Company) TableName() string {
	return "companies"
}
