package entity

// Sector is a static taxonomy node shared by users and companies.
type Sector struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"uniqueIndex;not null" json:"name"`
}

func (Sector) TableName() string {
	return "sectors"
}

// CompanySector links a company to one of its sectors.
type CompanySector struct {
	CompanyID uint `gorm:"primaryKey" json:"company_id"`
	SectorID  uint `gorm:"primaryKey" json:"sector_id"`
}

func (CompanySector) TableName() string {
	return "company_sectors"
}

// UserSector links a user to a sector they are interested in.
type UserSector struct {
	UserID   uint `gorm:"primaryKey" json:"user_id"`
	SectorID uint `gorm:"primaryKey" json:"sector_id"`
}

func (UserSector) TableName() string {
	return "user_sectors"
}
