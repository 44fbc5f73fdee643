package services

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	"taskhive/internal/caching"
	"taskhive/internal/models"
	"taskhive/internal/repositories"

	"github.com/google/uuid"
)

const snapshotCacheTTL = 30 * time.Second
const planCacheTTL = 10 * time.Minute

const reasonNoActivePlan = "Could not find an active subscription plan."
const reasonPlanNotFound = "Plan data not found"

// UsageData describes one tracked user action. ActionType and EntityType
// are caller vocabulary; DeltaValue overrides the registry default and is
// required for storage operations (GB, negative for deletes).
type UsageData struct {
	UserID     uuid.UUID `json:"user_id"`
	ActionType string    `json:"action_type"`
	EntityType string    `json:"entity_type"`
	DeltaValue *float64  `json:"delta_value"`
}

// LimitDecision is the allow/deny answer for a prospective action.
// CurrentValue and Limit are set on the over-limit deny path so the UI can
// render progress bars.
type LimitDecision struct {
	Allowed      bool     `json:"allowed"`
	Reason       string   `json:"reason,omitempty"`
	CurrentValue *float64 `json:"current_value,omitempty"`
	Limit        *float64 `json:"limit,omitempty"`
}

// TrackResult reports a successful counter mutation.
type TrackResult struct {
	Success  bool     `json:"success"`
	NewValue float64  `json:"new_value"`
	Limit    *float64 `json:"limit,omitempty"`
}

// UsageService is the subscription usage accounting core: it decides
// whether a metered action is within plan limits and records consumed
// usage against the subscription (or the free-tier row).
type UsageService interface {
	// CheckLimit answers whether the user may perform the action. Lookup
	// failures degrade to a conservative denial; the method never errors.
	CheckLimit(ctx context.Context, userID uuid.UUID, actionType string, deltaValue *float64) *LimitDecision

	// TrackUsage records a performed action. Returns nil for unmetered
	// actions and for persistence failures alike; callers treat nil as
	// "nothing recorded".
	TrackUsage(ctx context.Context, data UsageData) *TrackResult

	// ConsumeCapacity checks and records in a single conditional update,
	// closing the window between CheckLimit and TrackUsage.
	ConsumeCapacity(ctx context.Context, userID uuid.UUID, actionType string, deltaValue *float64) (*LimitDecision, error)

	// GetUsageSnapshot returns every counter with its plan limit.
	GetUsageSnapshot(ctx context.Context, userID uuid.UUID) (*models.UsageSnapshot, error)

	// ResetMonthlyCounters zeroes the AI counters on all active
	// subscriptions. Invoked by the background scheduler.
	ResetMonthlyCounters(ctx context.Context) (int64, error)
}

type usageService struct {
	subscriptionRepo repositories.SubscriptionRepository
	planRepo         repositories.PlanRepository
	freeUsageRepo    repositories.FreeUsageRepository
	notificationRepo repositories.NotificationRepository
	cacheSvc         caching.CacheService
}

func NewUsageService(
	subscriptionRepo repositories.SubscriptionRepository,
	planRepo repositories.PlanRepository,
	freeUsageRepo repositories.FreeUsageRepository,
	notificationRepo repositories.NotificationRepository,
	cacheSvc caching.CacheService,
) UsageService {
	return &usageService{
		subscriptionRepo: subscriptionRepo,
		planRepo:         planRepo,
		freeUsageRepo:    freeUsageRepo,
		notificationRepo: notificationRepo,
		cacheSvc:         cacheSvc,
	}
}

// ValidateUsageTables exposes the static-table consistency check for
// startup wiring.
func ValidateUsageTables() error {
	return validateActionTables()
}

func allow() *LimitDecision {
	return &LimitDecision{Allowed: true}
}

func deny(reason string) *LimitDecision {
	return &LimitDecision{Allowed: false, Reason: reason}
}

func formatLimit(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func overLimitReason(usageColumn string, limit float64) string {
	return fmt.Sprintf("You have reached your %s limit (%s). Please upgrade your plan to continue.",
		metricDisplayName(usageColumn), formatLimit(limit))
}

func (s *usageService) CheckLimit(ctx context.Context, userID uuid.UUID, actionType string, deltaValue *float64) *LimitDecision {
	metric, ok := actionMetrics[actionType]
	if !ok {
		// Unknown actions are never blocked by this subsystem
		return allow()
	}

	delta := metric.DefaultDelta
	if deltaValue != nil {
		delta = deltaValue
	}
	if delta == nil || *delta <= 0 {
		// Non-positive deltas (storage deletes) are not limit-checked
		return allow()
	}

	plan, current, decision := s.resolveUsage(ctx, userID, metric.Column)
	if decision != nil {
		return decision
	}

	limit := plan.LimitFor(limitColumnFor(metric.Column))
	if limit != nil && current+*delta > *limit {
		d := deny(overLimitReason(metric.Column, *limit))
		d.CurrentValue = &current
		d.Limit = limit
		return d
	}
	return allow()
}

// resolveUsage loads the plan and current counter for a user, falling
// through to the FREE plan and free-tier usage row when no active paid
// subscription exists. A non-nil decision means resolution failed and the
// caller must return it as-is.
func (s *usageService) resolveUsage(ctx context.Context, userID uuid.UUID, usageColumn string) (*models.Plan, float64, *LimitDecision) {
	sub, err := s.subscriptionRepo.GetActiveByUserID(ctx, userID)
	if err != nil {
		if !repositories.IsNotFound(err) {
			log.Printf("WARN: usage: subscription lookup failed for user %s: %v", userID, err)
			return nil, 0, deny(reasonNoActivePlan)
		}

		// Free tier: evaluate against the well-known FREE plan
		plan, err := s.loadFreePlan(ctx)
		if err != nil {
			log.Printf("WARN: usage: free plan lookup failed: %v", err)
			return nil, 0, deny(reasonNoActivePlan)
		}

		current := 0.0
		usage, err := s.freeUsageRepo.GetByUserID(ctx, userID)
		if err != nil && !repositories.IsNotFound(err) {
			log.Printf("WARN: usage: free-tier usage lookup failed for user %s: %v", userID, err)
			return nil, 0, deny(reasonNoActivePlan)
		}
		if usage != nil {
			if v, ok := usage.CounterFor(usageColumn); ok {
				current = v
			}
		}
		return plan, current, nil
	}

	plan, err := s.loadPlan(ctx, sub.PlanID)
	if err != nil {
		log.Printf("WARN: usage: plan %s lookup failed: %v", sub.PlanID, err)
		return nil, 0, deny(reasonPlanNotFound)
	}

	current, _ := sub.CounterFor(usageColumn)
	return plan, current, nil
}

func (s *usageService) TrackUsage(ctx context.Context, data UsageData) *TrackResult {
	operation := resolveOperation(data.EntityType, data.ActionType)
	metric, ok := actionMetrics[operation]
	if !ok {
		return nil
	}

	delta := metric.DefaultDelta
	if data.DeltaValue != nil {
		delta = data.DeltaValue
	}
	if delta == nil || *delta == 0 {
		return nil
	}

	sub, err := s.subscriptionRepo.GetActiveByUserID(ctx, data.UserID)
	if err != nil {
		if repositories.IsNotFound(err) {
			return s.updateFreeUserUsage(ctx, data.UserID, operation, *delta)
		}
		log.Printf("WARN: usage: subscription lookup failed for user %s: %v", data.UserID, err)
		return nil
	}

	newValue, err := s.subscriptionRepo.IncrementCounter(ctx, sub.ID, metric.Column, *delta)
	if err != nil {
		log.Printf("WARN: usage: counter update failed for subscription %s (%s): %v", sub.ID, metric.Column, err)
		return nil
	}

	s.invalidateSnapshot(ctx, data.UserID)

	result := &TrackResult{Success: true, NewValue: newValue}
	// Best effort: the counter mutation already landed
	if plan, err := s.loadPlan(ctx, sub.PlanID); err == nil {
		result.Limit = plan.LimitFor(limitColumnFor(metric.Column))
	}
	return result
}

func (s *usageService) updateFreeUserUsage(ctx context.Context, userID uuid.UUID, operation string, delta float64) *TrackResult {
	column, ok := freeTierColumns[operation]
	if !ok {
		// AI and storage operations have no free-tier counter
		return nil
	}

	_, err := s.freeUsageRepo.GetByUserID(ctx, userID)
	if err != nil {
		if !repositories.IsNotFound(err) {
			log.Printf("WARN: usage: free-tier usage lookup failed for user %s: %v", userID, err)
			return nil
		}

		usage := &models.FreeTierUsage{ID: uuid.New(), UserID: userID}
		initial := delta
		if initial < 0 {
			initial = 0
		}
		switch column {
		case "projects":
			usage.Projects = int64(initial)
		case "members":
			usage.Members = int64(initial)
		case "teams":
			usage.Teams = int64(initial)
		}
		if err := s.freeUsageRepo.Insert(ctx, usage); err != nil {
			log.Printf("WARN: usage: free-tier usage insert failed for user %s: %v", userID, err)
			return nil
		}
		s.invalidateSnapshot(ctx, userID)
		return &TrackResult{Success: true, NewValue: initial}
	}

	newValue, err := s.freeUsageRepo.IncrementCounter(ctx, userID, column, delta)
	if err != nil {
		log.Printf("WARN: usage: free-tier counter update failed for user %s (%s): %v", userID, column, err)
		return nil
	}
	s.invalidateSnapshot(ctx, userID)
	return &TrackResult{Success: true, NewValue: newValue}
}

func (s *usageService) ConsumeCapacity(ctx context.Context, userID uuid.UUID, actionType string, deltaValue *float64) (*LimitDecision, error) {
	metric, ok := actionMetrics[actionType]
	if !ok {
		return allow(), nil
	}

	delta := metric.DefaultDelta
	if deltaValue != nil {
		delta = deltaValue
	}
	if delta == nil || *delta <= 0 {
		return allow(), nil
	}

	sub, err := s.subscriptionRepo.GetActiveByUserID(ctx, userID)
	if err != nil {
		if !repositories.IsNotFound(err) {
			return nil, fmt.Errorf("failed to load subscription: %w", err)
		}
		return s.consumeFreeTier(ctx, userID, actionType, *delta)
	}

	newValue, consumed, err := s.subscriptionRepo.ConsumeCapacity(ctx, sub.ID, metric.Column, *delta)
	if err != nil {
		return nil, fmt.Errorf("failed to consume capacity: %w", err)
	}
	if !consumed {
		var limit *float64
		if plan, err := s.loadPlan(ctx, sub.PlanID); err == nil {
			limit = plan.LimitFor(limitColumnFor(metric.Column))
		}
		d := deny(fmt.Sprintf("You have reached your %s limit. Please upgrade your plan to continue.", metricDisplayName(metric.Column)))
		if limit != nil {
			d.Reason = overLimitReason(metric.Column, *limit)
			d.Limit = limit
		}
		current, _ := sub.CounterFor(metric.Column)
		d.CurrentValue = &current
		s.notifyLimitReached(ctx, userID, metric.Column)
		return d, nil
	}

	s.invalidateSnapshot(ctx, userID)
	d := allow()
	d.CurrentValue = &newValue
	return d, nil
}

// consumeFreeTier is the free-tier leg of ConsumeCapacity: check against
// the FREE plan, then record. The two steps are not one statement here; the
// low free-tier limits make the residual window acceptable.
func (s *usageService) consumeFreeTier(ctx context.Context, userID uuid.UUID, actionType string, delta float64) (*LimitDecision, error) {
	decision := s.CheckLimit(ctx, userID, actionType, &delta)
	if !decision.Allowed {
		s.notifyLimitReached(ctx, userID, actionMetrics[actionType].Column)
		return decision, nil
	}

	result := s.updateFreeUserUsage(ctx, userID, actionType, delta)
	if result != nil {
		decision.CurrentValue = &result.NewValue
		s.invalidateSnapshot(ctx, userID)
	}
	return decision, nil
}

func (s *usageService) GetUsageSnapshot(ctx context.Context, userID uuid.UUID) (*models.UsageSnapshot, error) {
	if s.cacheSvc != nil {
		if cached, err := s.cacheSvc.GetUsageSnapshot(ctx, userID); err == nil && cached != nil {
			return cached, nil
		}
	}

	snapshot := &models.UsageSnapshot{
		UserID:  userID,
		Metrics: make(map[string]models.MetricUsage),
	}

	sub, err := s.subscriptionRepo.GetActiveByUserID(ctx, userID)
	if err != nil && !repositories.IsNotFound(err) {
		return nil, fmt.Errorf("failed to load subscription: %w", err)
	}

	var plan *models.Plan
	if sub != nil {
		plan, err = s.loadPlan(ctx, sub.PlanID)
		if err != nil {
			return nil, fmt.Errorf("failed to load plan: %w", err)
		}
		for column := range limitColumns {
			used, _ := sub.CounterFor(column)
			snapshot.Metrics[column] = models.MetricUsage{
				Used:  used,
				Limit: plan.LimitFor(limitColumnFor(column)),
			}
		}
	} else {
		plan, err = s.loadFreePlan(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load free plan: %w", err)
		}

		usage, err := s.freeUsageRepo.GetByUserID(ctx, userID)
		if err != nil && !repositories.IsNotFound(err) {
			return nil, fmt.Errorf("failed to load free-tier usage: %w", err)
		}
		for column := range limitColumns {
			used := 0.0
			if usage != nil {
				if v, ok := usage.CounterFor(column); ok {
					used = v
				}
			}
			snapshot.Metrics[column] = models.MetricUsage{
				Used:  used,
				Limit: plan.LimitFor(limitColumnFor(column)),
			}
		}
	}

	snapshot.PlanName = plan.Name
	snapshot.PlanType = plan.PlanType

	if s.cacheSvc != nil {
		if err := s.cacheSvc.SetUsageSnapshot(ctx, snapshot, snapshotCacheTTL); err != nil {
			log.Printf("WARN: usage: snapshot cache write failed for user %s: %v", userID, err)
		}
	}
	return snapshot, nil
}

func (s *usageService) ResetMonthlyCounters(ctx context.Context) (int64, error) {
	count, err := s.subscriptionRepo.ResetMonthlyCounters(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to reset monthly counters: %w", err)
	}
	log.Printf("Monthly AI counters reset on %d active subscriptions", count)
	return count, nil
}

func (s *usageService) loadPlan(ctx context.Context, planID uuid.UUID) (*models.Plan, error) {
	if s.cacheSvc != nil {
		if cached, err := s.cacheSvc.GetPlan(ctx, planID); err == nil && cached != nil {
			return cached, nil
		}
	}
	plan, err := s.planRepo.GetByID(ctx, planID)
	if err != nil {
		return nil, err
	}
	if s.cacheSvc != nil {
		if err := s.cacheSvc.SetPlan(ctx, plan, planCacheTTL); err != nil {
			log.Printf("WARN: usage: plan cache write failed: %v", err)
		}
	}
	return plan, nil
}

func (s *usageService) loadFreePlan(ctx context.Context) (*models.Plan, error) {
	if s.cacheSvc != nil {
		if cached, err := s.cacheSvc.GetPlanByType(ctx, models.PlanTypeFree); err == nil && cached != nil {
			return cached, nil
		}
	}
	plan, err := s.planRepo.GetByType(ctx, models.PlanTypeFree)
	if err != nil {
		return nil, err
	}
	if s.cacheSvc != nil {
		if err := s.cacheSvc.SetPlanByType(ctx, models.PlanTypeFree, plan, planCacheTTL); err != nil {
			log.Printf("WARN: usage: plan cache write failed: %v", err)
		}
	}
	return plan, nil
}

func (s *usageService) invalidateSnapshot(ctx context.Context, userID uuid.UUID) {
	if s.cacheSvc == nil {
		return
	}
	if err := s.cacheSvc.DeleteUsageSnapshot(ctx, userID); err != nil {
		log.Printf("WARN: usage: snapshot invalidation failed for user %s: %v", userID, err)
	}
}

func (s *usageService) notifyLimitReached(ctx context.Context, userID uuid.UUID, usageColumn string) {
	if s.notificationRepo == nil {
		return
	}
	notification := &models.Notification{
		ID:      uuid.New(),
		UserID:  userID,
		Type:    models.NotificationLimitReached,
		Title:   fmt.Sprintf("%s limit reached", metricDisplayName(usageColumn)),
		Message: fmt.Sprintf("You have used all of your plan's %s allowance. Upgrade to continue.", metricDisplayName(usageColumn)),
	}
	if err := s.notificationRepo.Create(ctx, notification); err != nil {
		log.Printf("WARN: usage: limit notification failed for user %s: %v", userID, err)
	}
}
