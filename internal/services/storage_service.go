package services

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"taskhive/internal/models"
	"taskhive/internal/repositories"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const bytesPerGB = 1024 * 1024 * 1024

// gbFromBytes converts an object size to the GB figure storage usage is
// accounted in.
func gbFromBytes(sizeBytes int64) float64 {
	return float64(sizeBytes) / bytesPerGB
}

// StorageService stores project attachments in object storage and keeps the
// storage usage counter in sync with uploads and deletes.
type StorageService interface {
	Upload(ctx context.Context, userID, projectID uuid.UUID, fileName, contentType string, reader io.Reader, sizeBytes int64) (*models.Attachment, error)
	Delete(ctx context.Context, userID, attachmentID uuid.UUID) error
	PresignedURL(ctx context.Context, attachmentID uuid.UUID, expiry time.Duration) (string, error)
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]*models.Attachment, error)
	EnsureBucket(ctx context.Context) error
	Ping(ctx context.Context) error
}

type storageService struct {
	client         *minio.Client
	bucket         string
	attachmentRepo repositories.AttachmentRepository
	usageSvc       UsageService
}

func NewStorageService(endpoint, accessKey, secretKey, bucket string, useSSL bool, attachmentRepo repositories.AttachmentRepository, usageSvc UsageService) (StorageService, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create object storage client: %w", err)
	}
	return &storageService{
		client:         client,
		bucket:         bucket,
		attachmentRepo: attachmentRepo,
		usageSvc:       usageSvc,
	}, nil
}

func (s *storageService) Upload(ctx context.Context, userID, projectID uuid.UUID, fileName, contentType string, reader io.Reader, sizeBytes int64) (*models.Attachment, error) {
	if sizeBytes <= 0 {
		return nil, fmt.Errorf("object size must be positive")
	}

	deltaGB := gbFromBytes(sizeBytes)
	decision, err := s.usageSvc.ConsumeCapacity(ctx, userID, OpStorageUpload, &deltaGB)
	if err != nil {
		return nil, fmt.Errorf("failed to reserve storage capacity: %w", err)
	}
	if !decision.Allowed {
		return nil, &LimitReachedError{Decision: decision}
	}

	attachment := &models.Attachment{
		ID:          uuid.New(),
		ProjectID:   projectID,
		UploadedBy:  userID,
		FileName:    fileName,
		ObjectKey:   fmt.Sprintf("%s/%s", projectID, uuid.NewString()),
		ContentType: contentType,
		SizeBytes:   sizeBytes,
	}

	_, err = s.client.PutObject(ctx, s.bucket, attachment.ObjectKey, reader, sizeBytes, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		s.releaseStorage(ctx, userID, deltaGB)
		return nil, fmt.Errorf("failed to store object: %w", err)
	}

	if err := s.attachmentRepo.Create(ctx, attachment); err != nil {
		if removeErr := s.client.RemoveObject(ctx, s.bucket, attachment.ObjectKey, minio.RemoveObjectOptions{}); removeErr != nil {
			log.Printf("WARN: storage: orphan cleanup failed for %s: %v", attachment.ObjectKey, removeErr)
		}
		s.releaseStorage(ctx, userID, deltaGB)
		return nil, fmt.Errorf("failed to record attachment: %w", err)
	}
	return attachment, nil
}

func (s *storageService) Delete(ctx context.Context, userID, attachmentID uuid.UUID) error {
	attachment, err := s.attachmentRepo.GetByID(ctx, attachmentID)
	if err != nil {
		return fmt.Errorf("failed to load attachment: %w", err)
	}

	if err := s.client.RemoveObject(ctx, s.bucket, attachment.ObjectKey, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to remove object: %w", err)
	}
	if err := s.attachmentRepo.Delete(ctx, attachmentID); err != nil {
		return fmt.Errorf("failed to delete attachment record: %w", err)
	}

	s.releaseStorage(ctx, userID, gbFromBytes(attachment.SizeBytes))
	return nil
}

// releaseStorage records a negative storage delta. The counter clamps at
// zero on the database side.
func (s *storageService) releaseStorage(ctx context.Context, userID uuid.UUID, deltaGB float64) {
	release := -deltaGB
	s.usageSvc.TrackUsage(ctx, UsageData{
		UserID:     userID,
		EntityType: "storage",
		ActionType: "delete",
		DeltaValue: &release,
	})
}

func (s *storageService) PresignedURL(ctx context.Context, attachmentID uuid.UUID, expiry time.Duration) (string, error) {
	attachment, err := s.attachmentRepo.GetByID(ctx, attachmentID)
	if err != nil {
		return "", fmt.Errorf("failed to load attachment: %w", err)
	}
	url, err := s.client.PresignedGetObject(ctx, s.bucket, attachment.ObjectKey, expiry, nil)
	if err != nil {
		return "", fmt.Errorf("failed to presign object: %w", err)
	}
	return url.String(), nil
}

func (s *storageService) ListByProject(ctx context.Context, projectID uuid.UUID) ([]*models.Attachment, error) {
	return s.attachmentRepo.ListByProject(ctx, projectID)
}

func (s *storageService) EnsureBucket(ctx context.Context) error {
	found, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return err
	}
	if !found {
		return s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{})
	}
	return nil
}

func (s *storageService) Ping(ctx context.Context) error {
	_, err := s.client.BucketExists(ctx, s.bucket)
	return err
}
