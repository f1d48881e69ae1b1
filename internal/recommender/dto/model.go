package dto

import (
	"encoding/json"
	"time"
)

// RetrainTask is the payload published on the retrain stream.
type RetrainTask struct {
	UserID      uint      `json:"user_id"`
	RequestedAt time.Time `json:"requested_at"`
}

// TrainingStats is stored on every training run.
type TrainingStats struct {
	Users        int `json:"users"`
	Items        int `json:"items"`
	NNZ          int `json:"nnz"`
	TouchedItems int `json:"touched_items,omitempty"`
	Attempts     int `json:"attempts"`
}

// TrainingRunResponse is the DTO for a training run in API responses.
type TrainingRunResponse struct {
	ID           uint            `json:"id"`
	Kind         string          `json:"kind"`
	UserID       *uint           `json:"user_id,omitempty"`
	Status       string          `json:"status"`
	ModelVersion int64           `json:"model_version"`
	StartedAt    time.Time       `json:"started_at"`
	CompletedAt  *time.Time      `json:"completed_at,omitempty"`
	ErrorMessage string          `json:"error_message,omitempty"`
	Stats        json.RawMessage `json:"stats,omitempty"`
}

// RefitResponse acknowledges a batch refit request.
type RefitResponse struct {
	Status string `json:"status"`
}
