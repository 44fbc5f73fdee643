package services

import (
	"context"
	"fmt"

	"taskhive/internal/models"
	"taskhive/internal/repositories"

	"github.com/google/uuid"
)

// LimitReachedError is returned by feature services when the usage core
// denies an action. The denial reason travels alongside.
type LimitReachedError struct {
	Decision *LimitDecision
}

func (e *LimitReachedError) Error() string {
	return e.Decision.Reason
}

type ProjectService interface {
	Create(ctx context.Context, ownerID uuid.UUID, project *models.Project) (*models.Project, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Project, error)
	Update(ctx context.Context, project *models.Project) error
	Delete(ctx context.Context, ownerID, id uuid.UUID) error
	ListByOwner(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]*models.Project, error)
}

type projectService struct {
	projectRepo repositories.ProjectRepository
	usageSvc    UsageService
}

func NewProjectService(projectRepo repositories.ProjectRepository, usageSvc UsageService) ProjectService {
	return &projectService{projectRepo: projectRepo, usageSvc: usageSvc}
}

func (s *projectService) Create(ctx context.Context, ownerID uuid.UUID, project *models.Project) (*models.Project, error) {
	decision, err := s.usageSvc.ConsumeCapacity(ctx, ownerID, OpCreateProject, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to reserve project capacity: %w", err)
	}
	if !decision.Allowed {
		return nil, &LimitReachedError{Decision: decision}
	}

	project.ID = uuid.New()
	project.OwnerID = ownerID
	if project.Status == "" {
		project.Status = models.ProjectActive
	}
	if err := s.projectRepo.Create(ctx, project); err != nil {
		// Release the counter slot consumed above
		release := -1.0
		s.usageSvc.TrackUsage(ctx, UsageData{
			UserID:     ownerID,
			EntityType: "projects",
			ActionType: "deleteProject",
			DeltaValue: &release,
		})
		return nil, fmt.Errorf("failed to create project: %w", err)
	}
	return project, nil
}

func (s *projectService) Get(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	project, err := s.projectRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load project: %w", err)
	}
	return project, nil
}

func (s *projectService) Update(ctx context.Context, project *models.Project) error {
	if err := s.projectRepo.Update(ctx, project); err != nil {
		return fmt.Errorf("failed to update project: %w", err)
	}
	return nil
}

func (s *projectService) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	project, err := s.projectRepo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load project: %w", err)
	}
	if project.OwnerID != ownerID {
		return fmt.Errorf("project does not belong to user")
	}

	if err := s.projectRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}

	release := -1.0
	s.usageSvc.TrackUsage(ctx, UsageData{
		UserID:     ownerID,
		EntityType: "projects",
		ActionType: "deleteProject",
		DeltaValue: &release,
	})
	return nil
}

func (s *projectService) ListByOwner(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]*models.Project, error) {
	return s.projectRepo.ListByOwner(ctx, ownerID, limit, offset)
}
