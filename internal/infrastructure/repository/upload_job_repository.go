package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cataloghq/catalog-ingest/internal/domain/catalog"
	"github.com/cataloghq/catalog-ingest/internal/infrastructure/db/models"
)

type UploadJobRepository struct {
	db *gorm.DB
}

func NewUploadJobRepository(db *gorm.DB) *UploadJobRepository {
	return &UploadJobRepository{db: db}
}

// Create persists a new pending job and returns its id plus the opaque task
// reference clients use for polling.
func (r *UploadJobRepository) Create(ctx context.Context, filename, sourcePath string) (string, string, error) {
	job := models.UploadJob{
		TaskRef:    uuid.NewString(),
		Filename:   filename,
		SourcePath: sourcePath,
		Status:     string(catalog.StatusPending),
	}

	if err := r.db.WithContext(ctx).Create(&job).Error; err != nil {
		return "", "", fmt.Errorf("create upload job: %w", err)
	}

	return job.ID, job.TaskRef, nil
}

func (r *UploadJobRepository) FindByTaskRef(ctx context.Context, taskRef string) (*catalog.UploadJob, error) {
	var job models.UploadJob
	err := r.db.WithContext(ctx).Where("task_ref = ?", taskRef).First(&job).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, catalog.ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find upload job by task ref: %w", err)
	}
	return toDomainJob(job), nil
}

// ClaimNext atomically moves the oldest pending job to processing and
// returns it, or (nil, nil) when no pending job exists. SKIP LOCKED keeps
// concurrent workers from claiming the same job; the transition is persisted
// before any row of the file is read.
func (r *UploadJobRepository) ClaimNext(ctx context.Context) (*catalog.UploadJob, error) {
	var job models.UploadJob
	tx := r.db.WithContext(ctx).Raw(`
UPDATE upload_jobs
SET status = ?, started_at = NOW(), updated_at = NOW()
WHERE id = (
    SELECT id FROM upload_jobs
    WHERE status = ?
    ORDER BY created_at
    LIMIT 1
    FOR UPDATE SKIP LOCKED
)
RETURNING *
`, catalog.StatusProcessing, catalog.StatusPending).Scan(&job)

	if tx.Error != nil {
		return nil, fmt.Errorf("claim next upload job: %w", tx.Error)
	}
	if tx.RowsAffected == 0 {
		return nil, nil
	}
	return toDomainJob(job), nil
}

// SetTotalRows records the pre-pass count. It is set exactly once, before
// the main pass begins.
func (r *UploadJobRepository) SetTotalRows(ctx context.Context, jobID string, total int64) error {
	err := r.db.WithContext(ctx).
		Model(&models.UploadJob{}).
		Where("id = ? AND status = ?", jobID, catalog.StatusProcessing).
		Update("total_rows", total).Error
	if err != nil {
		return fmt.Errorf("set total rows for job %s: %w", jobID, err)
	}
	return nil
}

// UpdateProgress persists the running processed count once per chunk.
func (r *UploadJobRepository) UpdateProgress(ctx context.Context, jobID string, processed int64) error {
	err := r.db.WithContext(ctx).
		Model(&models.UploadJob{}).
		Where("id = ? AND status = ?", jobID, catalog.StatusProcessing).
		Update("processed_rows", processed).Error
	if err != nil {
		return fmt.Errorf("update progress for job %s: %w", jobID, err)
	}
	return nil
}

func (r *UploadJobRepository) Complete(ctx context.Context, jobID string) error {
	err := r.db.WithContext(ctx).
		Model(&models.UploadJob{}).
		Where("id = ? AND status = ?", jobID, catalog.StatusProcessing).
		Updates(map[string]any{
			"status":         string(catalog.StatusCompleted),
			"processed_rows": gorm.Expr("total_rows"),
			"finished_at":    gorm.Expr("NOW()"),
		}).Error
	if err != nil {
		return fmt.Errorf("complete job %s: %w", jobID, err)
	}
	return nil
}

// Fail marks the job failed, keeping the processed count reached before the
// failure for diagnostics.
func (r *UploadJobRepository) Fail(ctx context.Context, jobID, reason string) error {
	err := r.db.WithContext(ctx).
		Model(&models.UploadJob{}).
		Where("id = ? AND status = ?", jobID, catalog.StatusProcessing).
		Updates(map[string]any{
			"status":        string(catalog.StatusFailed),
			"error_message": reason,
			"finished_at":   gorm.Expr("NOW()"),
		}).Error
	if err != nil {
		return fmt.Errorf("fail job %s: %w", jobID, err)
	}
	return nil
}

// RequestCancel flips the cooperative cancellation flag. The coordinator
// checks it between chunks. Cancelling an already terminal job is a no-op.
func (r *UploadJobRepository) RequestCancel(ctx context.Context, taskRef string) error {
	tx := r.db.WithContext(ctx).
		Model(&models.UploadJob{}).
		Where("task_ref = ?", taskRef).
		Update("cancel_requested", true)
	if tx.Error != nil {
		return fmt.Errorf("request cancel for task %s: %w", taskRef, tx.Error)
	}
	if tx.RowsAffected == 0 {
		return catalog.ErrJobNotFound
	}
	return nil
}

func (r *UploadJobRepository) CancelRequested(ctx context.Context, jobID string) (bool, error) {
	var requested bool
	err := r.db.WithContext(ctx).
		Model(&models.UploadJob{}).
		Where("id = ?", jobID).
		Pluck("cancel_requested", &requested).Error
	if err != nil {
		return false, fmt.Errorf("read cancel flag for job %s: %w", jobID, err)
	}
	return requested, nil
}

func toDomainJob(m models.UploadJob) *catalog.UploadJob {
	job := &catalog.UploadJob{
		ID:              m.ID,
		TaskRef:         m.TaskRef,
		Filename:        m.Filename,
		SourcePath:      m.SourcePath,
		TotalRows:       m.TotalRows,
		ProcessedRows:   m.ProcessedRows,
		Status:          catalog.Status(m.Status),
		CancelRequested: m.CancelRequested,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
		StartedAt:       m.StartedAt,
		FinishedAt:      m.FinishedAt,
	}
	if m.ErrorMessage != nil {
		job.ErrorMessage = *m.ErrorMessage
	}
	return job
}
