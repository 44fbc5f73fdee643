package models

import (
	"time"

	"github.com/google/uuid"
)

// Project statuses
const (
	ProjectActive   = "active"
	ProjectArchived = "archived"
)

type Project struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	OwnerID     uuid.UUID  `json:"owner_id" db:"owner_id"`
	TeamID      *uuid.UUID `json:"team_id" db:"team_id"`
	Name        string     `json:"name" db:"name"`
	Description *string    `json:"description" db:"description"`
	Status      string     `json:"status" db:"status"`
	DueDate     *time.Time `json:"due_date" db:"due_date"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}
