package repositories

import (
	"context"
	"errors"
	"fmt"

	"taskhive/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// usageColumns maps each usage counter column to its plan limit column.
// Counter mutations are only ever issued against columns in this table, so
// the column names interpolated into SQL below cannot carry user input.
var usageColumns = map[string]string{
	"current_projects":    "max_projects",
	"current_members":     "max_members",
	"current_teams":       "max_teams",
	"current_ai_chat":     "max_ai_chat",
	"current_ai_task":     "max_ai_task",
	"current_ai_workflow": "max_ai_workflow",
	"current_storage_gb":  "max_storage_gb",
}

type SubscriptionRepository interface {
	Create(ctx context.Context, sub *models.Subscription) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Subscription, error)
	GetActiveByUserID(ctx context.Context, userID uuid.UUID) (*models.Subscription, error)
	GetByProviderID(ctx context.Context, providerID string) (*models.Subscription, error)
	Update(ctx context.Context, sub *models.Subscription) error
	List(ctx context.Context, limit, offset int) ([]*models.Subscription, error)

	// IncrementCounter applies delta to one usage column as a single
	// statement, clamping the result at zero, and returns the new value.
	IncrementCounter(ctx context.Context, id uuid.UUID, column string, delta float64) (float64, error)

	// ConsumeCapacity applies delta only when the plan limit would not be
	// exceeded, in one conditional statement. The second return reports
	// whether capacity was available.
	ConsumeCapacity(ctx context.Context, id uuid.UUID, column string, delta float64) (float64, bool, error)

	// ResetMonthlyCounters zeroes the AI counters on every active
	// subscription and returns the number of rows touched.
	ResetMonthlyCounters(ctx context.Context) (int64, error)

	// ExpireOverdue marks active, non-renewing subscriptions past their end
	// date as expired and returns the number of rows touched.
	ExpireOverdue(ctx context.Context) (int64, error)

	// ListDueForRenewal returns active auto-renewing subscriptions whose end
	// date has passed.
	ListDueForRenewal(ctx context.Context) ([]*models.Subscription, error)
}

type subscriptionRepo struct {
	db DB
}

func NewSubscriptionRepository(db DB) SubscriptionRepository {
	return &subscriptionRepo{db: db}
}

const subscriptionColumns = `id, user_id, plan_id, provider_subscription_id, status, start_date, end_date, auto_renew,
		current_projects, current_members, current_teams, current_ai_chat, current_ai_task, current_ai_workflow, current_storage_gb,
		created_at, updated_at`

func scanSubscription(row pgx.Row) (*models.Subscription, error) {
	sub := &models.Subscription{}
	err := row.Scan(&sub.ID, &sub.UserID, &sub.PlanID, &sub.ProviderSubscriptionID, &sub.Status, &sub.StartDate, &sub.EndDate, &sub.AutoRenew,
		&sub.CurrentProjects, &sub.CurrentMembers, &sub.CurrentTeams, &sub.CurrentAIChat, &sub.CurrentAITask, &sub.CurrentAIWorkflow, &sub.CurrentStorageGB,
		&sub.CreatedAt, &sub.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return sub, nil
}

func (r *subscriptionRepo) Create(ctx context.Context, sub *models.Subscription) error {
	query := `
		INSERT INTO user_subscription_plan (id, user_id, plan_id, provider_subscription_id, status, start_date, end_date, auto_renew, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
	`
	_, err := r.db.Exec(ctx, query, sub.ID, sub.UserID, sub.PlanID, sub.ProviderSubscriptionID, sub.Status, sub.StartDate, sub.EndDate, sub.AutoRenew)
	return err
}

func (r *subscriptionRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM user_subscription_plan WHERE id = $1`
	return scanSubscription(r.db.QueryRow(ctx, query, id))
}

// GetActiveByUserID returns the user's most recent active subscription.
// Exactly one active row per user is expected; ordering by end_date keeps
// the behavior deterministic if duplicates ever slip in.
func (r *subscriptionRepo) GetActiveByUserID(ctx context.Context, userID uuid.UUID) (*models.Subscription, error) {
	query := `
		SELECT ` + subscriptionColumns + `
		FROM user_subscription_plan
		WHERE user_id = $1 AND status = $2
		ORDER BY end_date DESC NULLS FIRST
		LIMIT 1
	`
	return scanSubscription(r.db.QueryRow(ctx, query, userID, models.SubscriptionActive))
}

func (r *subscriptionRepo) GetByProviderID(ctx context.Context, providerID string) (*models.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM user_subscription_plan WHERE provider_subscription_id = $1`
	return scanSubscription(r.db.QueryRow(ctx, query, providerID))
}

func (r *subscriptionRepo) Update(ctx context.Context, sub *models.Subscription) error {
	query := `
		UPDATE user_subscription_plan
		SET plan_id = $1, provider_subscription_id = $2, status = $3, start_date = $4, end_date = $5, auto_renew = $6, updated_at = NOW()
		WHERE id = $7
	`
	_, err := r.db.Exec(ctx, query, sub.PlanID, sub.ProviderSubscriptionID, sub.Status, sub.StartDate, sub.EndDate, sub.AutoRenew, sub.ID)
	return err
}

func (r *subscriptionRepo) List(ctx context.Context, limit, offset int) ([]*models.Subscription, error) {
	query := `
		SELECT ` + subscriptionColumns + `
		FROM user_subscription_plan
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`
	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subs []*models.Subscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

func (r *subscriptionRepo) IncrementCounter(ctx context.Context, id uuid.UUID, column string, delta float64) (float64, error) {
	if _, ok := usageColumns[column]; !ok {
		return 0, fmt.Errorf("unknown usage column: %s", column)
	}

	query := fmt.Sprintf(`
		UPDATE user_subscription_plan
		SET %s = GREATEST(0, %s + $2), updated_at = NOW()
		WHERE id = $1
		RETURNING %s
	`, column, column, column)

	var newValue float64
	if err := r.db.QueryRow(ctx, query, id, delta).Scan(&newValue); err != nil {
		return 0, err
	}
	return newValue, nil
}

func (r *subscriptionRepo) ConsumeCapacity(ctx context.Context, id uuid.UUID, column string, delta float64) (float64, bool, error) {
	limitColumn, ok := usageColumns[column]
	if !ok {
		return 0, false, fmt.Errorf("unknown usage column: %s", column)
	}

	query := fmt.Sprintf(`
		UPDATE user_subscription_plan s
		SET %s = GREATEST(0, s.%s + $2), updated_at = NOW()
		FROM subscription_plan p
		WHERE s.id = $1 AND p.id = s.plan_id
			AND (p.%s IS NULL OR s.%s + $2 <= p.%s)
		RETURNING s.%s
	`, column, column, limitColumn, column, limitColumn, column)

	var newValue float64
	err := r.db.QueryRow(ctx, query, id, delta).Scan(&newValue)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return newValue, true, nil
}

func (r *subscriptionRepo) ResetMonthlyCounters(ctx context.Context) (int64, error) {
	query := `
		UPDATE user_subscription_plan
		SET current_ai_chat = 0, current_ai_task = 0, current_ai_workflow = 0, updated_at = NOW()
		WHERE status = $1
	`
	tag, err := r.db.Exec(ctx, query, models.SubscriptionActive)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *subscriptionRepo) ExpireOverdue(ctx context.Context) (int64, error) {
	query := `
		UPDATE user_subscription_plan
		SET status = $1, updated_at = NOW()
		WHERE status = $2 AND auto_renew = false AND end_date IS NOT NULL AND end_date < NOW()
	`
	tag, err := r.db.Exec(ctx, query, models.SubscriptionExpired, models.SubscriptionActive)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *subscriptionRepo) ListDueForRenewal(ctx context.Context) ([]*models.Subscription, error) {
	query := `
		SELECT ` + subscriptionColumns + `
		FROM user_subscription_plan
		WHERE status = $1 AND auto_renew = true AND end_date IS NOT NULL AND end_date < NOW()
	`
	rows, err := r.db.Query(ctx, query, models.SubscriptionActive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subs []*models.Subscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}
