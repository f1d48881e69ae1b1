package dto

import "time"

// CreateUserRequest registers a user with optional sector interests.
type CreateUserRequest struct {
	Email     string `json:"email"`
	Name      string `json:"name"`
	SectorIDs []uint `json:"sector_ids"`
}

// UserResponse is the DTO for a registered user.
type UserResponse struct {
	ID        uint      `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	HardReady int       `json:"hard_ready"`
	CreatedAt time.Time `json:"created_at"`
}
