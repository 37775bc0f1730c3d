package catalog

import (
	"context"
	"errors"
	"fmt"

	domain "github.com/cataloghq/catalog-ingest/internal/domain/catalog"
)

type GetUploadStatusInput struct {
	TaskRef string
}

type UploadProgressOutput struct {
	Current int64 `json:"current"`
	Total   int64 `json:"total"`
	Percent int   `json:"percent"`
}

type UploadResultOutput struct {
	JobID     string `json:"job_id"`
	Processed int64  `json:"processed"`
}

type GetUploadStatusOutput struct {
	TaskRef  string                `json:"task_id"`
	JobID    string                `json:"job_id"`
	Filename string                `json:"filename"`
	Status   string                `json:"status"`
	Progress *UploadProgressOutput `json:"progress,omitempty"`
	Result   *UploadResultOutput   `json:"result,omitempty"`
	Error    string                `json:"error,omitempty"`
}

type GetUploadStatus interface {
	Execute(ctx context.Context, in GetUploadStatusInput) (GetUploadStatusOutput, error)
}

type jobFinder interface {
	FindByTaskRef(ctx context.Context, taskRef string) (*domain.UploadJob, error)
}

type getUploadStatus struct {
	jobs jobFinder
}

func NewGetUploadStatus(jobs jobFinder) GetUploadStatus {
	return &getUploadStatus{jobs: jobs}
}

func (uc *getUploadStatus) Execute(ctx context.Context, in GetUploadStatusInput) (GetUploadStatusOutput, error) {
	job, err := uc.jobs.FindByTaskRef(ctx, in.TaskRef)
	if err != nil {
		if errors.Is(err, domain.ErrJobNotFound) {
			return GetUploadStatusOutput{}, ErrJobNotFound
		}
		return GetUploadStatusOutput{}, fmt.Errorf("%w: %v", ErrUploadStatus, err)
	}

	out := GetUploadStatusOutput{
		TaskRef:  job.TaskRef,
		JobID:    job.ID,
		Filename: job.Filename,
		Status:   string(job.Status),
		Error:    job.ErrorMessage,
	}

	// Progress reflects the last chunk-boundary update, not per-row state.
	if job.Status == domain.StatusProcessing || job.Status == domain.StatusCompleted {
		p := job.Progress()
		out.Progress = &UploadProgressOutput{Current: p.Current, Total: p.Total, Percent: p.Percent}
	}
	if job.Status == domain.StatusCompleted {
		out.Result = &UploadResultOutput{JobID: job.ID, Processed: job.ProcessedRows}
	}

	return out, nil
}
