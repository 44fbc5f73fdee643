package services

import (
	"context"
	"fmt"
	"log"

	"taskhive/internal/caching"
	"taskhive/internal/models"
	"taskhive/internal/repositories"

	"github.com/google/uuid"
)

// PlanService exposes the plan catalog and the admin-side plan management.
type PlanService interface {
	List(ctx context.Context) ([]*models.Plan, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Plan, error)
	Create(ctx context.Context, plan *models.Plan) error
	Update(ctx context.Context, plan *models.Plan) error
	Delete(ctx context.Context, id uuid.UUID) error

	// RefreshCache re-primes the plan cache from the database. Invoked by
	// the background scheduler.
	RefreshCache(ctx context.Context) error
}

type planService struct {
	planRepo repositories.PlanRepository
	cacheSvc caching.CacheService
}

func NewPlanService(planRepo repositories.PlanRepository, cacheSvc caching.CacheService) PlanService {
	return &planService{planRepo: planRepo, cacheSvc: cacheSvc}
}

func (s *planService) List(ctx context.Context) ([]*models.Plan, error) {
	return s.planRepo.List(ctx)
}

func (s *planService) GetByID(ctx context.Context, id uuid.UUID) (*models.Plan, error) {
	plan, err := s.planRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load plan: %w", err)
	}
	return plan, nil
}

func (s *planService) Create(ctx context.Context, plan *models.Plan) error {
	if plan.ID == uuid.Nil {
		plan.ID = uuid.New()
	}
	if plan.PlanType != models.PlanTypeFree && plan.PlanType != models.PlanTypePaid {
		return fmt.Errorf("invalid plan type %q", plan.PlanType)
	}
	if err := s.planRepo.Create(ctx, plan); err != nil {
		return fmt.Errorf("failed to create plan: %w", err)
	}
	s.invalidate(ctx)
	return nil
}

func (s *planService) Update(ctx context.Context, plan *models.Plan) error {
	if err := s.planRepo.Update(ctx, plan); err != nil {
		return fmt.Errorf("failed to update plan: %w", err)
	}
	s.invalidate(ctx)
	return nil
}

func (s *planService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.planRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete plan: %w", err)
	}
	s.invalidate(ctx)
	return nil
}

func (s *planService) RefreshCache(ctx context.Context) error {
	if s.cacheSvc == nil {
		return nil
	}
	plans, err := s.planRepo.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list plans: %w", err)
	}
	for _, plan := range plans {
		if err := s.cacheSvc.SetPlan(ctx, plan, planCacheTTL); err != nil {
			log.Printf("WARN: plan: cache prime failed for %s: %v", plan.ID, err)
		}
	}
	return nil
}

func (s *planService) invalidate(ctx context.Context) {
	if s.cacheSvc == nil {
		return
	}
	if err := s.cacheSvc.InvalidatePlans(ctx); err != nil {
		log.Printf("WARN: plan: cache invalidation failed: %v", err)
	}
}
