package catalog_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	app "github.com/cataloghq/catalog-ingest/internal/application/catalog"
	domain "github.com/cataloghq/catalog-ingest/internal/domain/catalog"
)

type fakeJobRepo struct {
	totalSet        []int64
	progressCalls   []int64
	completed       bool
	failedReason    string
	cancelRequested bool
	cancelAfter     int // flip cancelRequested after this many CancelRequested calls
	cancelChecks    int
}

func (f *fakeJobRepo) ClaimNext(ctx context.Context) (*domain.UploadJob, error) {
	return nil, nil
}

func (f *fakeJobRepo) SetTotalRows(ctx context.Context, jobID string, total int64) error {
	f.totalSet = append(f.totalSet, total)
	return nil
}

func (f *fakeJobRepo) UpdateProgress(ctx context.Context, jobID string, processed int64) error {
	f.progressCalls = append(f.progressCalls, processed)
	return nil
}

func (f *fakeJobRepo) Complete(ctx context.Context, jobID string) error {
	f.completed = true
	return nil
}

func (f *fakeJobRepo) Fail(ctx context.Context, jobID, reason string) error {
	f.failedReason = reason
	return nil
}

func (f *fakeJobRepo) CancelRequested(ctx context.Context, jobID string) (bool, error) {
	f.cancelChecks++
	if f.cancelAfter > 0 && f.cancelChecks > f.cancelAfter {
		f.cancelRequested = true
	}
	return f.cancelRequested, nil
}

type fakeSource struct {
	rows    []map[string]string
	openErr error
	removed int
}

func (f *fakeSource) Open(ctx context.Context, sourcePath string) (app.RowReader, error) {
	if f.openErr != nil {
		return nil, f.openErr
	}
	return &fakeReader{rows: f.rows}, nil
}

func (f *fakeSource) Remove(sourcePath string) error {
	f.removed++
	return nil
}

type fakeReader struct {
	rows []map[string]string
	pos  int
}

func (r *fakeReader) ReadChunk(ctx context.Context, size int) ([]map[string]string, error) {
	if r.pos >= len(r.rows) {
		return nil, io.EOF
	}
	end := r.pos + size
	if end > len(r.rows) {
		end = len(r.rows)
	}
	chunk := r.rows[r.pos:end]
	r.pos = end
	return chunk, nil
}

func (r *fakeReader) Close() error { return nil }

type fakeMerger struct {
	chunks    [][]domain.Record
	failOn    int // 1-based chunk index to fail at, 0 = never
	mergeErr  error
	callCount int
}

func (f *fakeMerger) MergeChunk(ctx context.Context, records []domain.Record) (domain.MergeResult, error) {
	f.callCount++
	if f.failOn > 0 && f.callCount == f.failOn {
		if f.mergeErr != nil {
			return domain.MergeResult{}, f.mergeErr
		}
		return domain.MergeResult{}, errors.New("store unavailable")
	}
	copied := make([]domain.Record, len(records))
	copy(copied, records)
	f.chunks = append(f.chunks, copied)
	return domain.MergeResult{Inserted: int64(len(records))}, nil
}

type fakeNotifier struct {
	events []string
	data   []any
}

func (f *fakeNotifier) Fire(ctx context.Context, event string, data any) {
	f.events = append(f.events, event)
	f.data = append(f.data, data)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newWorker(repo *fakeJobRepo, source *fakeSource, merger *fakeMerger, notifier *fakeNotifier, chunkSize int) *app.IngestWorker {
	return app.NewIngestWorker(repo, source, merger, notifier, app.IngestWorkerConfig{
		ChunkSize: chunkSize,
	}, quietLogger())
}

func testJob() domain.UploadJob {
	return domain.UploadJob{
		ID:         "job-1",
		TaskRef:    "task-1",
		Filename:   "products.csv",
		SourcePath: "products.csv",
		Status:     domain.StatusProcessing,
	}
}

// Header key,name,price with rows (K1,Widget,9.99), (,Blank,1.00),
// (K1,Widget2,12.00): the blank-sku row is excluded from the total and the
// two K1 rows both reach the merge engine in file order.
func TestProcessJobSkipsBlankKeysAndCompletes(t *testing.T) {
	t.Parallel()

	repo := &fakeJobRepo{}
	source := &fakeSource{rows: []map[string]string{
		{"sku": "K1", "name": "Widget", "price": "9.99"},
		{"sku": "", "name": "Blank", "price": "1.00"},
		{"sku": "K1", "name": "Widget2", "price": "12.00"},
	}}
	merger := &fakeMerger{}
	notifier := &fakeNotifier{}
	worker := newWorker(repo, source, merger, notifier, 1000)

	if err := worker.ProcessJob(context.Background(), testJob()); err != nil {
		t.Fatalf("expected success, got %v", err)
	}

	if len(repo.totalSet) != 1 || repo.totalSet[0] != 2 {
		t.Fatalf("expected total_rows set once to 2, got %v", repo.totalSet)
	}
	if !repo.completed {
		t.Fatal("expected job completed")
	}

	var merged []domain.Record
	for _, c := range merger.chunks {
		merged = append(merged, c...)
	}
	if len(merged) != 2 {
		t.Fatalf("expected 2 merged records, got %d", len(merged))
	}
	if merged[0].SKU != "K1" || *merged[0].Name != "Widget" {
		t.Fatalf("unexpected first record: %+v", merged[0])
	}
	if merged[1].SKU != "K1" || *merged[1].Name != "Widget2" || merged[1].Price.String() != "12" {
		t.Fatalf("unexpected second record: %+v", merged[1])
	}

	if len(notifier.events) != 1 || notifier.events[0] != domain.EventBulkUpload {
		t.Fatalf("expected one bulk upload event, got %v", notifier.events)
	}
	payload := notifier.data[0].(map[string]any)
	if payload["total_rows"] != int64(2) || payload["filename"] != "products.csv" {
		t.Fatalf("unexpected event payload: %v", payload)
	}

	if source.removed == 0 {
		t.Fatal("expected source file removed")
	}
}

// Store failure on the 2nd chunk of a 3-chunk job: the job fails, progress
// reflects only chunk 1, and the file is still removed.
func TestProcessJobStoreFailureMidway(t *testing.T) {
	t.Parallel()

	repo := &fakeJobRepo{}
	source := &fakeSource{rows: []map[string]string{
		{"sku": "K1", "name": "A"},
		{"sku": "K2", "name": "B"},
		{"sku": "K3", "name": "C"},
	}}
	merger := &fakeMerger{failOn: 2, mergeErr: domain.ErrConstraintViolation}
	notifier := &fakeNotifier{}
	worker := newWorker(repo, source, merger, notifier, 1)

	err := worker.ProcessJob(context.Background(), testJob())
	if !errors.Is(err, domain.ErrConstraintViolation) {
		t.Fatalf("expected constraint violation, got %v", err)
	}

	if repo.completed {
		t.Fatal("job must not complete")
	}
	if repo.failedReason == "" {
		t.Fatal("expected non-empty error message")
	}
	if len(repo.progressCalls) != 1 || repo.progressCalls[0] != 1 {
		t.Fatalf("expected progress of chunk 1 only, got %v", repo.progressCalls)
	}
	if len(notifier.events) != 0 {
		t.Fatalf("no event on failure, got %v", notifier.events)
	}
	if source.removed == 0 {
		t.Fatal("expected source file removed on failure")
	}
}

func TestProcessJobEmptyInput(t *testing.T) {
	t.Parallel()

	repo := &fakeJobRepo{}
	source := &fakeSource{rows: []map[string]string{
		{"sku": "  ", "name": "no key"},
		{"sku": "", "name": ""},
	}}
	merger := &fakeMerger{}
	worker := newWorker(repo, source, merger, &fakeNotifier{}, 1000)

	err := worker.ProcessJob(context.Background(), testJob())
	if !errors.Is(err, domain.ErrEmptyInput) {
		t.Fatalf("expected empty input failure, got %v", err)
	}
	if len(repo.totalSet) != 0 {
		t.Fatalf("total must not be set, got %v", repo.totalSet)
	}
	if merger.callCount != 0 {
		t.Fatal("no chunk may be merged")
	}
	if source.removed == 0 {
		t.Fatal("expected source file removed")
	}
}

func TestProcessJobSourceUnavailable(t *testing.T) {
	t.Parallel()

	repo := &fakeJobRepo{}
	source := &fakeSource{openErr: domain.ErrSourceUnavailable}
	worker := newWorker(repo, source, &fakeMerger{}, &fakeNotifier{}, 1000)

	err := worker.ProcessJob(context.Background(), testJob())
	if !errors.Is(err, domain.ErrSourceUnavailable) {
		t.Fatalf("expected source unavailable, got %v", err)
	}
	if repo.failedReason == "" {
		t.Fatal("expected failure reason recorded")
	}
}

func TestProcessJobInvalidPriceFailsWithPosition(t *testing.T) {
	t.Parallel()

	repo := &fakeJobRepo{}
	source := &fakeSource{rows: []map[string]string{
		{"sku": "K1", "price": "1.00"},
		{"sku": "K2", "price": "broken"},
	}}
	worker := newWorker(repo, source, &fakeMerger{}, &fakeNotifier{}, 1000)

	err := worker.ProcessJob(context.Background(), testJob())
	if err == nil {
		t.Fatal("expected failure")
	}
	if !strings.Contains(repo.failedReason, "row 2") {
		t.Fatalf("expected row position in message, got %q", repo.failedReason)
	}
}

func TestProcessJobCancelledBetweenChunks(t *testing.T) {
	t.Parallel()

	repo := &fakeJobRepo{cancelAfter: 1}
	source := &fakeSource{rows: []map[string]string{
		{"sku": "K1"},
		{"sku": "K2"},
		{"sku": "K3"},
	}}
	merger := &fakeMerger{}
	worker := newWorker(repo, source, merger, &fakeNotifier{}, 1)

	err := worker.ProcessJob(context.Background(), testJob())
	if err == nil || !strings.Contains(err.Error(), "cancelled") {
		t.Fatalf("expected cancellation failure, got %v", err)
	}
	if merger.callCount != 1 {
		t.Fatalf("expected exactly 1 chunk before cancel, got %d", merger.callCount)
	}
	if repo.completed {
		t.Fatal("cancelled job must not complete")
	}
}

func TestProcessJobProgressMonotonic(t *testing.T) {
	t.Parallel()

	repo := &fakeJobRepo{}
	rows := make([]map[string]string, 0, 7)
	for _, sku := range []string{"A", "B", "", "C", "D", "E", ""} {
		rows = append(rows, map[string]string{"sku": sku})
	}
	source := &fakeSource{rows: rows}
	worker := newWorker(repo, source, &fakeMerger{}, &fakeNotifier{}, 2)

	if err := worker.ProcessJob(context.Background(), testJob()); err != nil {
		t.Fatalf("expected success, got %v", err)
	}

	if repo.totalSet[0] != 5 {
		t.Fatalf("expected total 5, got %d", repo.totalSet[0])
	}
	last := int64(-1)
	for _, p := range repo.progressCalls {
		if p < last {
			t.Fatalf("progress regressed: %v", repo.progressCalls)
		}
		last = p
	}
	if last != 5 {
		t.Fatalf("final progress must equal total, got %d", last)
	}
}
