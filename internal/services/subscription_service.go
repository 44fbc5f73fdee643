package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"taskhive/internal/caching"
	"taskhive/internal/models"
	"taskhive/internal/repositories"

	"github.com/google/uuid"
)

// SubscriptionService manages the subscription lifecycle: signup to a paid
// plan, cancellation, provider webhook transitions and renewals.
type SubscriptionService interface {
	Subscribe(ctx context.Context, userID, planID uuid.UUID) (*models.Subscription, error)
	Cancel(ctx context.Context, userID uuid.UUID) error
	GetActive(ctx context.Context, userID uuid.UUID) (*models.Subscription, error)
	List(ctx context.Context, limit, offset int) ([]*models.Subscription, error)

	// HandleWebhook applies a verified provider event to the local row.
	HandleWebhook(ctx context.Context, event *WebhookEvent) error

	// RenewDue advances end dates on auto-renewing subscriptions that have
	// lapsed. Invoked by the background scheduler.
	RenewDue(ctx context.Context) (int, error)

	// ExpireOverdue marks lapsed non-renewing subscriptions expired.
	ExpireOverdue(ctx context.Context) (int64, error)
}

type subscriptionService struct {
	subscriptionRepo repositories.SubscriptionRepository
	planRepo         repositories.PlanRepository
	userRepo         repositories.UserRepository
	notificationRepo repositories.NotificationRepository
	billingSvc       BillingService
	cacheSvc         caching.CacheService
}

func NewSubscriptionService(
	subscriptionRepo repositories.SubscriptionRepository,
	planRepo repositories.PlanRepository,
	userRepo repositories.UserRepository,
	notificationRepo repositories.NotificationRepository,
	billingSvc BillingService,
	cacheSvc caching.CacheService,
) SubscriptionService {
	return &subscriptionService{
		subscriptionRepo: subscriptionRepo,
		planRepo:         planRepo,
		userRepo:         userRepo,
		notificationRepo: notificationRepo,
		billingSvc:       billingSvc,
		cacheSvc:         cacheSvc,
	}
}

func periodEnd(start time.Time, billingInterval string) time.Time {
	if billingInterval == models.IntervalYearly {
		return start.AddDate(1, 0, 0)
	}
	return start.AddDate(0, 1, 0)
}

func (s *subscriptionService) Subscribe(ctx context.Context, userID, planID uuid.UUID) (*models.Subscription, error) {
	plan, err := s.planRepo.GetByID(ctx, planID)
	if err != nil {
		return nil, fmt.Errorf("failed to load plan: %w", err)
	}

	existing, err := s.subscriptionRepo.GetActiveByUserID(ctx, userID)
	if err != nil && !repositories.IsNotFound(err) {
		return nil, fmt.Errorf("failed to check existing subscription: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("user already has an active subscription")
	}

	now := time.Now()
	sub := &models.Subscription{
		ID:        uuid.New(),
		UserID:    userID,
		PlanID:    plan.ID,
		Status:    models.SubscriptionActive,
		StartDate: now,
		AutoRenew: true,
	}
	end := periodEnd(now, plan.BillingInterval)
	sub.EndDate = &end

	if plan.PlanType == models.PlanTypePaid {
		user, err := s.userRepo.GetByID(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to load user: %w", err)
		}
		providerSub, err := s.billingSvc.CreateSubscription(ctx, plan.ID.String(), user.Email)
		if err != nil {
			return nil, fmt.Errorf("billing provider rejected subscription: %w", err)
		}
		sub.ProviderSubscriptionID = &providerSub.ID
		if providerSub.EndAt > 0 {
			providerEnd := time.Unix(providerSub.EndAt, 0)
			sub.EndDate = &providerEnd
		}
	}

	if err := s.subscriptionRepo.Create(ctx, sub); err != nil {
		return nil, fmt.Errorf("failed to create subscription: %w", err)
	}

	s.invalidateUser(ctx, userID)
	s.notifyStatusChange(ctx, userID, fmt.Sprintf("You are now subscribed to the %s plan.", plan.Name))
	return sub, nil
}

func (s *subscriptionService) Cancel(ctx context.Context, userID uuid.UUID) error {
	sub, err := s.subscriptionRepo.GetActiveByUserID(ctx, userID)
	if err != nil {
		if repositories.IsNotFound(err) {
			return fmt.Errorf("no active subscription to cancel")
		}
		return fmt.Errorf("failed to load subscription: %w", err)
	}

	if sub.ProviderSubscriptionID != nil {
		if _, err := s.billingSvc.CancelSubscription(ctx, *sub.ProviderSubscriptionID); err != nil {
			// Local state still transitions; the provider is reconciled via webhook
			log.Printf("WARN: subscription: provider cancel failed for %s: %v", sub.ID, err)
		}
	}

	sub.Status = models.SubscriptionDeactivated
	sub.AutoRenew = false
	if err := s.subscriptionRepo.Update(ctx, sub); err != nil {
		return fmt.Errorf("failed to update subscription: %w", err)
	}

	s.invalidateUser(ctx, userID)
	s.notifyStatusChange(ctx, userID, "Your subscription has been cancelled. Your account is now on the free plan.")
	return nil
}

func (s *subscriptionService) GetActive(ctx context.Context, userID uuid.UUID) (*models.Subscription, error) {
	sub, err := s.subscriptionRepo.GetActiveByUserID(ctx, userID)
	if err != nil {
		if repositories.IsNotFound(err) {
			return nil, repositories.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load subscription: %w", err)
	}
	return sub, nil
}

func (s *subscriptionService) List(ctx context.Context, limit, offset int) ([]*models.Subscription, error) {
	return s.subscriptionRepo.List(ctx, limit, offset)
}

func (s *subscriptionService) HandleWebhook(ctx context.Context, event *WebhookEvent) error {
	providerID := event.Payload.Subscription.ID
	if providerID == "" {
		return fmt.Errorf("webhook event %s carries no subscription id", event.ID)
	}

	sub, err := s.subscriptionRepo.GetByProviderID(ctx, providerID)
	if err != nil {
		if repositories.IsNotFound(err) {
			log.Printf("WARN: subscription: webhook for unknown provider subscription %s", providerID)
			return nil
		}
		return fmt.Errorf("failed to load subscription for provider id %s: %w", providerID, err)
	}

	switch event.Event {
	case EventSubscriptionActivated:
		sub.Status = models.SubscriptionActive
	case EventSubscriptionCharged:
		sub.Status = models.SubscriptionActive
		plan, err := s.planRepo.GetByID(ctx, sub.PlanID)
		if err != nil {
			return fmt.Errorf("failed to load plan for renewal: %w", err)
		}
		base := time.Now()
		if sub.EndDate != nil && sub.EndDate.After(base) {
			base = *sub.EndDate
		}
		end := periodEnd(base, plan.BillingInterval)
		sub.EndDate = &end
	case EventSubscriptionCancelled:
		sub.Status = models.SubscriptionDeactivated
		sub.AutoRenew = false
		s.notifyStatusChange(ctx, sub.UserID, "Your subscription has been cancelled.")
	case EventPaymentFailed:
		s.notifyStatusChange(ctx, sub.UserID, "A subscription payment failed. Please update your payment method.")
		return nil
	default:
		log.Printf("DEBUG: subscription: ignoring webhook event %s", event.Event)
		return nil
	}

	if err := s.subscriptionRepo.Update(ctx, sub); err != nil {
		return fmt.Errorf("failed to apply webhook event %s: %w", event.Event, err)
	}
	s.invalidateUser(ctx, sub.UserID)
	return nil
}

func (s *subscriptionService) RenewDue(ctx context.Context) (int, error) {
	due, err := s.subscriptionRepo.ListDueForRenewal(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list renewable subscriptions: %w", err)
	}

	renewed := 0
	for _, sub := range due {
		plan, err := s.planRepo.GetByID(ctx, sub.PlanID)
		if err != nil {
			log.Printf("WARN: subscription: renewal skipped for %s, plan lookup failed: %v", sub.ID, err)
			continue
		}
		base := time.Now()
		if sub.EndDate != nil {
			base = *sub.EndDate
		}
		end := periodEnd(base, plan.BillingInterval)
		sub.EndDate = &end
		if err := s.subscriptionRepo.Update(ctx, sub); err != nil {
			log.Printf("WARN: subscription: renewal update failed for %s: %v", sub.ID, err)
			continue
		}
		s.invalidateUser(ctx, sub.UserID)
		renewed++
	}
	return renewed, nil
}

func (s *subscriptionService) ExpireOverdue(ctx context.Context) (int64, error) {
	count, err := s.subscriptionRepo.ExpireOverdue(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to expire subscriptions: %w", err)
	}
	if count > 0 {
		log.Printf("Marked %d lapsed subscriptions expired", count)
	}
	return count, nil
}

func (s *subscriptionService) invalidateUser(ctx context.Context, userID uuid.UUID) {
	if s.cacheSvc == nil {
		return
	}
	if err := s.cacheSvc.DeleteUsageSnapshot(ctx, userID); err != nil {
		log.Printf("WARN: subscription: snapshot invalidation failed for user %s: %v", userID, err)
	}
}

func (s *subscriptionService) notifyStatusChange(ctx context.Context, userID uuid.UUID, message string) {
	if s.notificationRepo == nil {
		return
	}
	notification := &models.Notification{
		ID:      uuid.New(),
		UserID:  userID,
		Type:    models.NotificationSubscriptionChange,
		Title:   "Subscription update",
		Message: message,
	}
	if err := s.notificationRepo.Create(ctx, notification); err != nil {
		log.Printf("WARN: subscription: notification failed for user %s: %v", userID, err)
	}
}
