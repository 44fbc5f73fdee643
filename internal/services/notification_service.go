package services

import (
	"context"
	"fmt"

	"taskhive/internal/models"
	"taskhive/internal/repositories"

	"github.com/google/uuid"
)

type NotificationService interface {
	List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.Notification, error)
	MarkRead(ctx context.Context, userID, id uuid.UUID) error
}

type notificationService struct {
	notificationRepo repositories.NotificationRepository
}

func NewNotificationService(notificationRepo repositories.NotificationRepository) NotificationService {
	return &notificationService{notificationRepo: notificationRepo}
}

func (s *notificationService) List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.Notification, error) {
	notifications, err := s.notificationRepo.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return notifications, nil
}

func (s *notificationService) MarkRead(ctx context.Context, userID, id uuid.UUID) error {
	if err := s.notificationRepo.MarkRead(ctx, userID, id); err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	return nil
}
