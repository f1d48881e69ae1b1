package entity

import "time"

// FollowState is the relationship a user has with a company.
type FollowState string

const (
	FollowStateFollowing  FollowState = "following"
	FollowStateUnfollowed FollowState = "unfollowed"
	FollowStateCandidate  FollowState = "candidate"
)

// FollowLedgerEntry is the per (user, company) record. Distance is the cached
// sector-overlap distance and is only meaningful for candidates.
type FollowLedgerEntry struct {
	UserID    uint        `gorm:"primaryKey" json:"user_id"`
	CompanyID uint        `gorm:"primaryKey;index" json:"company_id"`
	State     FollowState `gorm:"type:varchar(16);not null;index" json:"state"`
	Distance  uint32      `gorm:"not null;default:0" json:"distance"`
	Company   *Company    `gorm:"foreignKey:CompanyID" json:"company,omitempty"`
	CreatedAt time.Time   `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time   `gorm:"autoUpdateTime" json:"updated_at"`
}

func (FollowLedgerEntry) TableName() string {
	return "user_companies"
}

func (e FollowLedgerEntry) IsFollowing() bool {
	return e.State == FollowStateFollowing
}

func (e FollowLedgerEntry) IsUnfollowed() bool {
	return e.State == FollowStateUnfollowed
}

// FeedbackWeight is the implicit feedback value used for training:
// +1 for a follow, -1 for an unfollow, 0 for a candidate.
func (e FollowLedgerEntry) FeedbackWeight() float64 {
	switch e.State {
	case FollowStateFollowing:
		return 1
	case FollowStateUnfollowed:
		return -1
	default:
		return 0
	}
}
