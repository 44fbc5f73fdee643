package models

import (
	"time"

	"github.com/google/uuid"
)

// Notification types
const (
	NotificationLimitReached       = "limit_reached"
	NotificationSubscriptionChange = "subscription_change"
	NotificationMemberInvited      = "member_invited"
)

type Notification struct {
	ID        uuid.UUID `json:"id" db:"id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	Type      string    `json:"type" db:"type"`
	Title     string    `json:"title" db:"title"`
	Message   string    `json:"message" db:"message"`
	Read      bool      `json:"read" db:"read"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
