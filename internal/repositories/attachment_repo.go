package repositories

import (
	"context"

	"taskhive/internal/models"

	"github.com/google/uuid"
)

type AttachmentRepository interface {
	Create(ctx context.Context, attachment *models.Attachment) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Attachment, error)
	Delete(ctx context.Context, id uuid.UUID) error
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]*models.Attachment, error)
}

type attachmentRepo struct {
	db DB
}

func NewAttachmentRepository(db DB) AttachmentRepository {
	return &attachmentRepo{db: db}
}

func (r *attachmentRepo) Create(ctx context.Context, attachment *models.Attachment) error {
	query := `
		INSERT INTO attachments (id, project_id, uploaded_by, file_name, object_key, content_type, size_bytes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
	`
	_, err := r.db.Exec(ctx, query, attachment.ID, attachment.ProjectID, attachment.UploadedBy, attachment.FileName, attachment.ObjectKey, attachment.ContentType, attachment.SizeBytes)
	return err
}

func (r *attachmentRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Attachment, error) {
	attachment := &models.Attachment{}
	query := `
		SELECT id, project_id, uploaded_by, file_name, object_key, content_type, size_bytes, created_at
		FROM attachments
		WHERE id = $1
	`
	err := r.db.QueryRow(ctx, query, id).Scan(&attachment.ID, &attachment.ProjectID, &attachment.UploadedBy, &attachment.FileName, &attachment.ObjectKey, &attachment.ContentType, &attachment.SizeBytes, &attachment.CreatedAt)
	if err != nil {
		return nil, err
	}
	return attachment, nil
}

func (r *attachmentRepo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.Exec(ctx, `DELETE FROM attachments WHERE id = $1`, id)
	return err
}

func (r *attachmentRepo) ListByProject(ctx context.Context, projectID uuid.UUID) ([]*models.Attachment, error) {
	query := `
		SELECT id, project_id, uploaded_by, file_name, object_key, content_type, size_bytes, created_at
		FROM attachments
		WHERE project_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.db.Query(ctx, query, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var attachments []*models.Attachment
	for rows.Next() {
		attachment := &models.Attachment{}
		if err := rows.Scan(&attachment.ID, &attachment.ProjectID, &attachment.UploadedBy, &attachment.FileName, &attachment.ObjectKey, &attachment.ContentType, &attachment.SizeBytes, &attachment.CreatedAt); err != nil {
			return nil, err
		}
		attachments = append(attachments, attachment)
	}
	return attachments, rows.Err()
}
