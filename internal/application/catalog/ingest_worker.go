package catalog

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	domain "github.com/cataloghq/catalog-ingest/internal/domain/catalog"
)

const (
	defaultChunkSize    = 1000
	defaultPollInterval = 500 * time.Millisecond
	maxErrorMessageLen  = 1000
)

// RowReader yields raw rows in bounded chunks; restarting a pass means
// reopening through the RowSource.
type RowReader interface {
	ReadChunk(ctx context.Context, size int) ([]map[string]string, error)
	Close() error
}

type RowSource interface {
	Open(ctx context.Context, sourcePath string) (RowReader, error)
	Remove(sourcePath string) error
}

type chunkMerger interface {
	MergeChunk(ctx context.Context, records []domain.Record) (domain.MergeResult, error)
}

type ingestJobRepo interface {
	ClaimNext(ctx context.Context) (*domain.UploadJob, error)
	SetTotalRows(ctx context.Context, jobID string, total int64) error
	UpdateProgress(ctx context.Context, jobID string, processed int64) error
	Complete(ctx context.Context, jobID string) error
	Fail(ctx context.Context, jobID, reason string) error
	CancelRequested(ctx context.Context, jobID string) (bool, error)
}

type eventNotifier interface {
	Fire(ctx context.Context, event string, data any)
}

type IngestWorkerConfig struct {
	Workers      int
	ChunkSize    int
	PollInterval time.Duration
}

// IngestWorker runs the ingestion coordinators. Each claimed job executes on
// exactly one worker; its chunk loop is strictly sequential so that progress
// and row order stay deterministic. Concurrency exists only across jobs.
type IngestWorker struct {
	repo     ingestJobRepo
	source   RowSource
	merger   chunkMerger
	notifier eventNotifier
	cfg      IngestWorkerConfig
	log      *slog.Logger

	once sync.Once
}

func NewIngestWorker(repo ingestJobRepo, source RowSource, merger chunkMerger, notifier eventNotifier, cfg IngestWorkerConfig, log *slog.Logger) *IngestWorker {
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = defaultChunkSize
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	if log == nil {
		log = slog.Default()
	}

	return &IngestWorker{
		repo:     repo,
		source:   source,
		merger:   merger,
		notifier: notifier,
		cfg:      cfg,
		log:      log,
	}
}

func (w *IngestWorker) Start(ctx context.Context) {
	w.once.Do(func() {
		for i := 0; i < w.cfg.Workers; i++ {
			go w.workerLoop(ctx)
		}
	})
}

func (w *IngestWorker) workerLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		job, err := w.repo.ClaimNext(ctx)
		if err != nil {
			w.log.Error("claim next upload job", "error", err)
			if !sleepWithContext(ctx, w.cfg.PollInterval) {
				return
			}
			continue
		}

		if job == nil {
			if !sleepWithContext(ctx, w.cfg.PollInterval) {
				return
			}
			continue
		}

		if err := w.ProcessJob(ctx, *job); err != nil {
			w.log.Error("upload job failed", "job_id", job.ID, "error", err)
		}
	}
}

// ProcessJob drives one claimed job to a terminal state. The claim already
// persisted pending -> processing; from here the flow is: pre-pass count of
// valid rows, then the chunked main pass with one progress write per chunk.
// Any unrecovered error stops the loop immediately; rows merged in earlier
// chunks stay persisted. The source file is removed on every outcome.
func (w *IngestWorker) ProcessJob(ctx context.Context, job domain.UploadJob) error {
	defer func() {
		if err := w.source.Remove(job.SourcePath); err != nil {
			w.log.Warn("remove upload file", "job_id", job.ID, "error", err)
		}
	}()

	total, err := w.countValidRows(ctx, job.SourcePath)
	if err != nil {
		return w.fail(ctx, job.ID, err)
	}
	if total == 0 {
		return w.fail(ctx, job.ID, domain.ErrEmptyInput)
	}

	if err := w.repo.SetTotalRows(ctx, job.ID, total); err != nil {
		return w.fail(ctx, job.ID, fmt.Errorf("set total rows: %w", err))
	}

	if err := w.runMainPass(ctx, job); err != nil {
		return w.fail(ctx, job.ID, err)
	}

	if err := w.repo.Complete(ctx, job.ID); err != nil {
		return w.fail(ctx, job.ID, fmt.Errorf("complete job: %w", err))
	}

	w.notifier.Fire(ctx, domain.EventBulkUpload, map[string]any{
		"job_id":     job.ID,
		"total_rows": total,
		"filename":   job.Filename,
	})

	return nil
}

// countValidRows is the pre-pass: it streams the file in chunks and counts
// rows passing domain.ParseRow, the identical predicate the main pass uses.
// Counting anything else makes progress drift away from 100%.
func (w *IngestWorker) countValidRows(ctx context.Context, sourcePath string) (int64, error) {
	reader, err := w.source.Open(ctx, sourcePath)
	if err != nil {
		return 0, err
	}
	defer reader.Close()

	var total int64
	for {
		rows, err := reader.ReadChunk(ctx, w.cfg.ChunkSize)
		if err == io.EOF {
			return total, nil
		}
		if err != nil {
			return 0, err
		}
		for _, row := range rows {
			rec, err := domain.ParseRow(row)
			if err != nil {
				return 0, fmt.Errorf("row %d: %w", total+1, err)
			}
			if rec != nil {
				total++
			}
		}
	}
}

func (w *IngestWorker) runMainPass(ctx context.Context, job domain.UploadJob) error {
	reader, err := w.source.Open(ctx, job.SourcePath)
	if err != nil {
		return err
	}
	defer reader.Close()

	var processed int64
	for {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("upload interrupted at row %d: %w", processed, err)
		}

		cancelled, err := w.repo.CancelRequested(ctx, job.ID)
		if err != nil {
			return fmt.Errorf("read cancel flag: %w", err)
		}
		if cancelled {
			return fmt.Errorf("upload cancelled at row %d", processed)
		}

		rows, err := reader.ReadChunk(ctx, w.cfg.ChunkSize)
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("upload failed at row %d: %w", processed, err)
		}

		records := make([]domain.Record, 0, len(rows))
		for _, row := range rows {
			rec, err := domain.ParseRow(row)
			if err != nil {
				return fmt.Errorf("upload failed at row %d: %w", processed+int64(len(records))+1, err)
			}
			if rec != nil {
				records = append(records, *rec)
			}
		}

		if _, err := w.merger.MergeChunk(ctx, records); err != nil {
			return fmt.Errorf("upload failed at row %d: %w", processed, err)
		}

		processed += int64(len(records))
		if err := w.repo.UpdateProgress(ctx, job.ID, processed); err != nil {
			return fmt.Errorf("update progress: %w", err)
		}
	}
}

// fail records the terminal failed status and reports the cause back to the
// worker loop. Rows processed before the failure stay on the job record.
func (w *IngestWorker) fail(ctx context.Context, jobID string, cause error) error {
	if err := w.repo.Fail(ctx, jobID, truncateReason(cause.Error())); err != nil {
		return fmt.Errorf("%v; fail update failed: %w", cause, err)
	}
	return cause
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func truncateReason(reason string) string {
	reason = strings.TrimSpace(reason)
	if len(reason) <= maxErrorMessageLen {
		return reason
	}
	return reason[:maxErrorMessageLen]
}
