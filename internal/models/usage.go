package models

import (
	"time"

	"github.com/google/uuid"
)

// FreeTierUsage is the fallback accounting row for users without an active
// paid subscription. Only the simple counters exist on the free tier.
type FreeTierUsage struct {
	ID        uuid.UUID `json:"id" db:"id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	Projects  int64     `json:"projects" db:"projects"`
	Members   int64     `json:"members" db:"members"`
	Teams     int64     `json:"teams" db:"teams"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// CounterFor returns the free-tier counter stored under the given usage
// column name. Metrics without a free-tier equivalent report false.
func (u *FreeTierUsage) CounterFor(column string) (float64, bool) {
	switch column {
	case "current_projects":
		return float64(u.Projects), true
	case "current_members":
		return float64(u.Members), true
	case "current_teams":
		return float64(u.Teams), true
	}
	return 0, false
}

// MetricUsage pairs a counter with its plan limit for display. A nil limit
// means unlimited.
type MetricUsage struct {
	Used  float64  `json:"used"`
	Limit *float64 `json:"limit"`
}

// UsageSnapshot is the per-user usage summary returned to the UI.
type UsageSnapshot struct {
	UserID   uuid.UUID              `json:"user_id"`
	PlanName string                 `json:"plan_name"`
	PlanType string                 `json:"plan_type"`
	Metrics  map[string]MetricUsage `json:"metrics"`
}
