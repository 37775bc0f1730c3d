package catalog

import (
	"context"
	"errors"
	"fmt"

	domain "github.com/cataloghq/catalog-ingest/internal/domain/catalog"
)

type CancelUploadInput struct {
	TaskRef string
}

type CancelUploadOutput struct {
	TaskRef   string `json:"task_id"`
	Cancelled bool   `json:"cancel_requested"`
}

type CancelUpload interface {
	Execute(ctx context.Context, in CancelUploadInput) (CancelUploadOutput, error)
}

type cancelRequester interface {
	RequestCancel(ctx context.Context, taskRef string) error
}

type cancelUpload struct {
	jobs cancelRequester
}

func NewCancelUpload(jobs cancelRequester) CancelUpload {
	return &cancelUpload{jobs: jobs}
}

// Execute flags the job for cooperative cancellation; the coordinator picks
// the flag up between chunks. Already-terminal jobs accept the request as a
// no-op.
func (uc *cancelUpload) Execute(ctx context.Context, in CancelUploadInput) (CancelUploadOutput, error) {
	if err := uc.jobs.RequestCancel(ctx, in.TaskRef); err != nil {
		if errors.Is(err, domain.ErrJobNotFound) {
			return CancelUploadOutput{}, ErrJobNotFound
		}
		return CancelUploadOutput{}, fmt.Errorf("%w: %v", ErrCancelUpload, err)
	}
	return CancelUploadOutput{TaskRef: in.TaskRef, Cancelled: true}, nil
}
