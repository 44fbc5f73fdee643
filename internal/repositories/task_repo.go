package repositories

import (
	"context"

	"taskhive/internal/models"

	"github.com/google/uuid"
)

type TaskRepository interface {
	Create(ctx context.Context, task *models.Task) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Task, error)
	Update(ctx context.Context, task *models.Task) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListByProject(ctx context.Context, projectID uuid.UUID, limit, offset int) ([]*models.Task, error)
}

type taskRepo struct {
	db DB
}

func NewTaskRepository(db DB) TaskRepository {
	return &taskRepo{db: db}
}

func (r *taskRepo) Create(ctx context.Context, task *models.Task) error {
	query := `
		INSERT INTO tasks (id, project_id, assignee_id, title, description, status, priority, due_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
	`
	_, err := r.db.Exec(ctx, query, task.ID, task.ProjectID, task.AssigneeID, task.Title, task.Description, task.Status, task.Priority, task.DueDate)
	return err
}

func (r *taskRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Task, error) {
	task := &models.Task{}
	query := `
		SELECT id, project_id, assignee_id, title, description, status, priority, due_date, created_at, updated_at
		FROM tasks
		WHERE id = $1
	`
	err := r.db.QueryRow(ctx, query, id).Scan(&task.ID, &task.ProjectID, &task.AssigneeID, &task.Title, &task.Description, &task.Status, &task.Priority, &task.DueDate, &task.CreatedAt, &task.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return task, nil
}

func (r *taskRepo) Update(ctx context.Context, task *models.Task) error {
	query := `
		UPDATE tasks
		SET assignee_id = $1, title = $2, description = $3, status = $4, priority = $5, due_date = $6, updated_at = NOW()
		WHERE id = $7
	`
	_, err := r.db.Exec(ctx, query, task.AssigneeID, task.Title, task.Description, task.Status, task.Priority, task.DueDate, task.ID)
	return err
}

func (r *taskRepo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	return err
}

func (r *taskRepo) ListByProject(ctx context.Context, projectID uuid.UUID, limit, offset int) ([]*models.Task, error) {
	query := `
		SELECT id, project_id, assignee_id, title, description, status, priority, due_date, created_at, updated_at
		FROM tasks
		WHERE project_id = $1
		ORDER BY priority DESC, created_at ASC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.Query(ctx, query, projectID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []*models.Task
	for rows.Next() {
		task := &models.Task{}
		if err := rows.Scan(&task.ID, &task.ProjectID, &task.AssigneeID, &task.Title, &task.Description, &task.Status, &task.Priority, &task.DueDate, &task.CreatedAt, &task.UpdatedAt); err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}
