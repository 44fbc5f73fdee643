package services

import (
	"context"
	"fmt"

	"taskhive/internal/models"
	"taskhive/internal/repositories"

	"github.com/google/uuid"
)

type TaskService interface {
	Create(ctx context.Context, task *models.Task) (*models.Task, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Task, error)
	Update(ctx context.Context, task *models.Task) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListByProject(ctx context.Context, projectID uuid.UUID, limit, offset int) ([]*models.Task, error)
}

type taskService struct {
	taskRepo    repositories.TaskRepository
	projectRepo repositories.ProjectRepository
}

func NewTaskService(taskRepo repositories.TaskRepository, projectRepo repositories.ProjectRepository) TaskService {
	return &taskService{taskRepo: taskRepo, projectRepo: projectRepo}
}

func (s *taskService) Create(ctx context.Context, task *models.Task) (*models.Task, error) {
	if _, err := s.projectRepo.GetByID(ctx, task.ProjectID); err != nil {
		return nil, fmt.Errorf("failed to load project: %w", err)
	}

	task.ID = uuid.New()
	if task.Status == "" {
		task.Status = models.TaskTodo
	}
	if err := s.taskRepo.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}
	return task, nil
}

func (s *taskService) Get(ctx context.Context, id uuid.UUID) (*models.Task, error) {
	task, err := s.taskRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load task: %w", err)
	}
	return task, nil
}

func (s *taskService) Update(ctx context.Context, task *models.Task) error {
	if err := s.taskRepo.Update(ctx, task); err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}
	return nil
}

func (s *taskService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.taskRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	return nil
}

func (s *taskService) ListByProject(ctx context.Context, projectID uuid.UUID, limit, offset int) ([]*models.Task, error) {
	return s.taskRepo.ListByProject(ctx, projectID, limit, offset)
}
