package models

import (
	"time"

	"github.com/google/uuid"
)

// Subscription statuses
const (
	SubscriptionActive      = "active"
	SubscriptionExpired     = "expired"
	SubscriptionDeactivated = "deactivated"
)

// Subscription binds a user to a Plan and carries the live usage counters
// mirroring the plan's limit fields. At most one row per user is expected to
// be active at a time.
type Subscription struct {
	ID                     uuid.UUID  `json:"id" db:"id"`
	UserID                 uuid.UUID  `json:"user_id" db:"user_id"`
	PlanID                 uuid.UUID  `json:"plan_id" db:"plan_id"`
	ProviderSubscriptionID *string    `json:"provider_subscription_id" db:"provider_subscription_id"`
	Status                 string     `json:"status" db:"status"`
	StartDate              time.Time  `json:"start_date" db:"start_date"`
	EndDate                *time.Time `json:"end_date" db:"end_date"`
	AutoRenew              bool       `json:"auto_renew" db:"auto_renew"`
	CurrentProjects        int64      `json:"current_projects" db:"current_projects"`
	CurrentMembers         int64      `json:"current_members" db:"current_members"`
	CurrentTeams           int64      `json:"current_teams" db:"current_teams"`
	CurrentAIChat          int64      `json:"current_ai_chat" db:"current_ai_chat"`
	CurrentAITask          int64      `json:"current_ai_task" db:"current_ai_task"`
	CurrentAIWorkflow      int64      `json:"current_ai_workflow" db:"current_ai_workflow"`
	CurrentStorageGB       float64    `json:"current_storage_gb" db:"current_storage_gb"`
	CreatedAt              time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt              time.Time  `json:"updated_at" db:"updated_at"`
}

// CounterFor returns the counter stored under the given usage column name.
func (s *Subscription) CounterFor(column string) (float64, bool) {
	switch column {
	case "current_projects":
		return float64(s.CurrentProjects), true
	case "current_members":
		return float64(s.CurrentMembers), true
	case "current_teams":
		return float64(s.CurrentTeams), true
	case "current_ai_chat":
		return float64(s.CurrentAIChat), true
	case "current_ai_task":
		return float64(s.CurrentAITask), true
	case "current_ai_workflow":
		return float64(s.CurrentAIWorkflow), true
	case "current_storage_gb":
		return s.CurrentStorageGB, true
	}
	return 0, false
}
