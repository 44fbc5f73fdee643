package models

import (
	"time"

	"github.com/google/uuid"
)

// Plan types
const (
	PlanTypeFree = "free"
	PlanTypePaid = "paid"
)

// Billing intervals
const (
	IntervalMonthly = "monthly"
	IntervalYearly  = "yearly"
)

// Plan is a subscription tier definition. Limit fields are nullable:
// a nil limit means the metric is unlimited on this plan.
type Plan struct {
	ID              uuid.UUID `json:"id" db:"id"`
	Name            string    `json:"name" db:"name"`
	PlanType        string    `json:"plan_type" db:"plan_type"`
	BillingInterval string    `json:"billing_interval" db:"billing_interval"`
	Price           float64   `json:"price" db:"price"`
	Currency        string    `json:"currency" db:"currency"`
	MaxProjects     *int64    `json:"max_projects" db:"max_projects"`
	MaxMembers      *int64    `json:"max_members" db:"max_members"`
	MaxTeams        *int64    `json:"max_teams" db:"max_teams"`
	MaxAIChat       *int64    `json:"max_ai_chat" db:"max_ai_chat"`
	MaxAITask       *int64    `json:"max_ai_task" db:"max_ai_task"`
	MaxAIWorkflow   *int64    `json:"max_ai_workflow" db:"max_ai_workflow"`
	MaxStorageGB    *float64  `json:"max_storage_gb" db:"max_storage_gb"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`
}

// LimitFor returns the numeric limit stored under the given limit column
// name, or nil when the plan does not cap that metric. Unknown columns are
// treated as unlimited.
func (p *Plan) LimitFor(column string) *float64 {
	asFloat := func(v *int64) *float64 {
		if v == nil {
			return nil
		}
		f := float64(*v)
		return &f
	}

	switch column {
	case "max_projects":
		return asFloat(p.MaxProjects)
	case "max_members":
		return asFloat(p.MaxMembers)
	case "max_teams":
		return asFloat(p.MaxTeams)
	case "max_ai_chat":
		return asFloat(p.MaxAIChat)
	case "max_ai_task":
		return asFloat(p.MaxAITask)
	case "max_ai_workflow":
		return asFloat(p.MaxAIWorkflow)
	case "max_storage_gb":
		return p.MaxStorageGB
	}
	return nil
}
