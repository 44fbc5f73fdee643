package repositories

import (
	"context"

	"taskhive/internal/models"

	"github.com/google/uuid"
)

type NotificationRepository interface {
	Create(ctx context.Context, notification *models.Notification) error
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.Notification, error)
	MarkRead(ctx context.Context, userID, id uuid.UUID) error
}

type notificationRepo struct {
	db DB
}

func NewNotificationRepository(db DB) NotificationRepository {
	return &notificationRepo{db: db}
}

func (r *notificationRepo) Create(ctx context.Context, notification *models.Notification) error {
	query := `
		INSERT INTO notifications (id, user_id, type, title, message, read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
	`
	_, err := r.db.Exec(ctx, query, notification.ID, notification.UserID, notification.Type, notification.Title, notification.Message, notification.Read)
	return err
}

func (r *notificationRepo) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.Notification, error) {
	query := `
		SELECT id, user_id, type, title, message, read, created_at
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notifications []*models.Notification
	for rows.Next() {
		notification := &models.Notification{}
		if err := rows.Scan(&notification.ID, &notification.UserID, &notification.Type, &notification.Title, &notification.Message, &notification.Read, &notification.CreatedAt); err != nil {
			return nil, err
		}
		notifications = append(notifications, notification)
	}
	return notifications, rows.Err()
}

func (r *notificationRepo) MarkRead(ctx context.Context, userID, id uuid.UUID) error {
	_, err := r.db.Exec(ctx, `UPDATE notifications SET read = true WHERE user_id = $1 AND id = $2`, userID, id)
	return err
}
