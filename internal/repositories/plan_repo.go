package repositories

import (
	"context"

	"taskhive/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type PlanRepository interface {
	Create(ctx context.Context, plan *models.Plan) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Plan, error)
	GetByType(ctx context.Context, planType string) (*models.Plan, error)
	Update(ctx context.Context, plan *models.Plan) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context) ([]*models.Plan, error)
}

type planRepo struct {
	db DB
}

func NewPlanRepository(db DB) PlanRepository {
	return &planRepo{db: db}
}

const planColumns = `id, name, plan_type, billing_interval, price, currency,
		max_projects, max_members, max_teams, max_ai_chat, max_ai_task, max_ai_workflow, max_storage_gb,
		created_at, updated_at`

func scanPlan(row pgx.Row) (*models.Plan, error) {
	plan := &models.Plan{}
	err := row.Scan(&plan.ID, &plan.Name, &plan.PlanType, &plan.BillingInterval, &plan.Price, &plan.Currency,
		&plan.MaxProjects, &plan.MaxMembers, &plan.MaxTeams, &plan.MaxAIChat, &plan.MaxAITask, &plan.MaxAIWorkflow, &plan.MaxStorageGB,
		&plan.CreatedAt, &plan.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return plan, nil
}

func (r *planRepo) Create(ctx context.Context, plan *models.Plan) error {
	query := `
		INSERT INTO subscription_plan (id, name, plan_type, billing_interval, price, currency,
			max_projects, max_members, max_teams, max_ai_chat, max_ai_task, max_ai_workflow, max_storage_gb,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, NOW(), NOW())
	`
	_, err := r.db.Exec(ctx, query, plan.ID, plan.Name, plan.PlanType, plan.BillingInterval, plan.Price, plan.Currency,
		plan.MaxProjects, plan.MaxMembers, plan.MaxTeams, plan.MaxAIChat, plan.MaxAITask, plan.MaxAIWorkflow, plan.MaxStorageGB)
	return err
}

func (r *planRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Plan, error) {
	query := `SELECT ` + planColumns + ` FROM subscription_plan WHERE id = $1`
	return scanPlan(r.db.QueryRow(ctx, query, id))
}

// GetByType returns the most recently created plan of the given type. Used
// to resolve the well-known FREE plan row.
func (r *planRepo) GetByType(ctx context.Context, planType string) (*models.Plan, error) {
	query := `SELECT ` + planColumns + ` FROM subscription_plan WHERE plan_type = $1 ORDER BY created_at DESC LIMIT 1`
	return scanPlan(r.db.QueryRow(ctx, query, planType))
}

func (r *planRepo) Update(ctx context.Context, plan *models.Plan) error {
	query := `
		UPDATE subscription_plan
		SET name = $1, plan_type = $2, billing_interval = $3, price = $4, currency = $5,
			max_projects = $6, max_members = $7, max_teams = $8, max_ai_chat = $9, max_ai_task = $10,
			max_ai_workflow = $11, max_storage_gb = $12, updated_at = NOW()
		WHERE id = $13
	`
	_, err := r.db.Exec(ctx, query, plan.Name, plan.PlanType, plan.BillingInterval, plan.Price, plan.Currency,
		plan.MaxProjects, plan.MaxMembers, plan.MaxTeams, plan.MaxAIChat, plan.MaxAITask, plan.MaxAIWorkflow, plan.MaxStorageGB,
		plan.ID)
	return err
}

func (r *planRepo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.Exec(ctx, `DELETE FROM subscription_plan WHERE id = $1`, id)
	return err
}

func (r *planRepo) List(ctx context.Context) ([]*models.Plan, error) {
	query := `SELECT ` + planColumns + ` FROM subscription_plan ORDER BY price ASC`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var plans []*models.Plan
	for rows.Next() {
		plan, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		plans = append(plans, plan)
	}
	return plans, rows.Err()
}
