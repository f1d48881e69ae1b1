package entity

import (
	"database/sql"
	"time"

	"gorm.io/datatypes"
)

// TrainingKind distinguishes a full refit from a per-user incremental update.
type TrainingKind string

const (
	TrainingKindBatch       TrainingKind = "batch"
	TrainingKindIncremental TrainingKind = "incremental"
)

// TrainingStatus is the lifecycle of a training run.
type TrainingStatus string

const (
	TrainingStatusRunning   TrainingStatus = "running"
	TrainingStatusCompleted TrainingStatus = "completed"
	TrainingStatusFailed    TrainingStatus = "failed"
)

// TrainingRun records one fit of the recommendation model.
type TrainingRun struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	Kind         TrainingKind   `gorm:"type:varchar(16);not null" json:"kind"`
	UserID       *uint          `gorm:"index" json:"user_id,omitempty"`
	Status       TrainingStatus `gorm:"type:varchar(16);not null" json:"status"`
	ModelVersion int64          `json:"model_version"`
	StartedAt    time.Time      `gorm:"not null" json:"started_at"`
	CompletedAt  sql.NullTime   `json:"completed_at"`
	ErrorMessage sql.NullString `json:"error_message"`
	Stats        datatypes.JSON `json:"stats"`
}

func (TrainingRun) TableName() string {
	return "training_runs"
}

// AllModels lists every table for AutoMigrate in tests.
var AllModels = []interface{}{
	&Sector{},
	&Company{},
	&CompanySector{},
	&User{},
	&UserSector{},
	&FollowLedgerEntry{},
	&Notification{},
	&UserNotification{},
	&TrainingRun{},
}
