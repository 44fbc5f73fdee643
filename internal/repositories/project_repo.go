package repositories

import (
	"context"

	"taskhive/internal/models"

	"github.com/google/uuid"
)

type ProjectRepository interface {
	Create(ctx context.Context, project *models.Project) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Project, error)
	Update(ctx context.Context, project *models.Project) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListByOwner(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]*models.Project, error)
}

type projectRepo struct {
	db DB
}

func NewProjectRepository(db DB) ProjectRepository {
	return &projectRepo{db: db}
}

func (r *projectRepo) Create(ctx context.Context, project *models.Project) error {
	query := `
		INSERT INTO projects (id, owner_id, team_id, name, description, status, due_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
	`
	_, err := r.db.Exec(ctx, query, project.ID, project.OwnerID, project.TeamID, project.Name, project.Description, project.Status, project.DueDate)
	return err
}

func (r *projectRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	project := &models.Project{}
	query := `
		SELECT id, owner_id, team_id, name, description, status, due_date, created_at, updated_at
		FROM projects
		WHERE id = $1
	`
	err := r.db.QueryRow(ctx, query, id).Scan(&project.ID, &project.OwnerID, &project.TeamID, &project.Name, &project.Description, &project.Status, &project.DueDate, &project.CreatedAt, &project.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return project, nil
}

func (r *projectRepo) Update(ctx context.Context, project *models.Project) error {
	query := `
		UPDATE projects
		SET team_id = $1, name = $2, description = $3, status = $4, due_date = $5, updated_at = NOW()
		WHERE id = $6
	`
	_, err := r.db.Exec(ctx, query, project.TeamID, project.Name, project.Description, project.Status, project.DueDate, project.ID)
	return err
}

func (r *projectRepo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.Exec(ctx, `DELETE FROM projects WHERE id = $1`, id)
	return err
}

func (r *projectRepo) ListByOwner(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]*models.Project, error) {
	query := `
		SELECT id, owner_id, team_id, name, description, status, due_date, created_at, updated_at
		FROM projects
		WHERE owner_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.Query(ctx, query, ownerID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var projects []*models.Project
	for rows.Next() {
		project := &models.Project{}
		if err := rows.Scan(&project.ID, &project.OwnerID, &project.TeamID, &project.Name, &project.Description, &project.Status, &project.DueDate, &project.CreatedAt, &project.UpdatedAt); err != nil {
			return nil, err
		}
		projects = append(projects, project)
	}
	return projects, rows.Err()
}
