package catalog

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
)

type StartCatalogUploadInput struct {
	Filename   string
	SourcePath string
}

type StartCatalogUploadOutput struct {
	JobID   string `json:"job_id"`
	TaskRef string `json:"task_id"`
	Status  string `json:"status"`
}

type StartCatalogUpload interface {
	Execute(ctx context.Context, in StartCatalogUploadInput) (StartCatalogUploadOutput, error)
}

type uploadJobCreator interface {
	Create(ctx context.Context, filename, sourcePath string) (string, string, error)
}

type startCatalogUpload struct {
	jobs uploadJobCreator
}

func NewStartCatalogUpload(jobs uploadJobCreator) StartCatalogUpload {
	return &startCatalogUpload{jobs: jobs}
}

func (uc *startCatalogUpload) Execute(ctx context.Context, in StartCatalogUploadInput) (StartCatalogUploadOutput, error) {
	filename := strings.TrimSpace(in.Filename)
	sourcePath := strings.TrimSpace(in.SourcePath)
	if filename == "" || sourcePath == "" || strings.ToLower(filepath.Ext(filename)) != ".csv" {
		return StartCatalogUploadOutput{}, ErrInvalidUploadSource
	}

	jobID, taskRef, err := uc.jobs.Create(ctx, filename, sourcePath)
	if err != nil {
		return StartCatalogUploadOutput{}, fmt.Errorf("%w: %v", ErrCreateUploadJob, err)
	}

	return StartCatalogUploadOutput{
		JobID:   jobID,
		TaskRef: taskRef,
		Status:  "pending",
	}, nil
}
