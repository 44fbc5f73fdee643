package repositories

import (
	"context"
	"fmt"

	"taskhive/internal/models"

	"github.com/google/uuid"
)

// freeUsageColumns are the only counters tracked on the free tier.
var freeUsageColumns = map[string]bool{
	"projects": true,
	"members":  true,
	"teams":    true,
}

type FreeUsageRepository interface {
	GetByUserID(ctx context.Context, userID uuid.UUID) (*models.FreeTierUsage, error)
	Insert(ctx context.Context, usage *models.FreeTierUsage) error

	// IncrementCounter applies delta to one counter, clamped at zero, and
	// returns the new value.
	IncrementCounter(ctx context.Context, userID uuid.UUID, column string, delta float64) (float64, error)
}

type freeUsageRepo struct {
	db DB
}

func NewFreeUsageRepository(db DB) FreeUsageRepository {
	return &freeUsageRepo{db: db}
}

func (r *freeUsageRepo) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.FreeTierUsage, error) {
	usage := &models.FreeTierUsage{}
	query := `
		SELECT id, user_id, projects, members, teams, created_at, updated_at
		FROM user_usage
		WHERE user_id = $1
	`
	err := r.db.QueryRow(ctx, query, userID).Scan(&usage.ID, &usage.UserID, &usage.Projects, &usage.Members, &usage.Teams, &usage.CreatedAt, &usage.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return usage, nil
}

func (r *freeUsageRepo) Insert(ctx context.Context, usage *models.FreeTierUsage) error {
	query := `
		INSERT INTO user_usage (id, user_id, projects, members, teams, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
	`
	_, err := r.db.Exec(ctx, query, usage.ID, usage.UserID, usage.Projects, usage.Members, usage.Teams)
	return err
}

func (r *freeUsageRepo) IncrementCounter(ctx context.Context, userID uuid.UUID, column string, delta float64) (float64, error) {
	if !freeUsageColumns[column] {
		return 0, fmt.Errorf("unknown free-tier usage column: %s", column)
	}

	query := fmt.Sprintf(`
		UPDATE user_usage
		SET %s = GREATEST(0, %s + $2), updated_at = NOW()
		WHERE user_id = $1
		RETURNING %s
	`, column, column, column)

	var newValue float64
	if err := r.db.QueryRow(ctx, query, userID, delta).Scan(&newValue); err != nil {
		return 0, err
	}
	return newValue, nil
}
