package entity

import "time"

// User is an account that follows companies. HardReady is the readiness
// counter gating the personalized recommender.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Email     string    `gorm:"uniqueIndex;not null" json:"email"`
	Name      string    `json:"name"`
	HardReady int       `gorm:"not null" json:"hard_ready"`
	Sectors   []Sector  `gorm:"many2many:user_sectors" json:"sectors,omitempty"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}
