package catalog_test

import (
	"testing"

	"github.com/cataloghq/catalog-ingest/internal/domain/catalog"
)

func TestStatusTransitions(t *testing.T) {
	t.Parallel()

	cases := []struct {
		from    catalog.Status
		to      catalog.Status
		allowed bool
	}{
		{catalog.StatusPending, catalog.StatusProcessing, true},
		{catalog.StatusPending, catalog.StatusCompleted, false},
		{catalog.StatusPending, catalog.StatusFailed, false},
		{catalog.StatusProcessing, catalog.StatusCompleted, true},
		{catalog.StatusProcessing, catalog.StatusFailed, true},
		{catalog.StatusProcessing, catalog.StatusPending, false},
		{catalog.StatusCompleted, catalog.StatusProcessing, false},
		{catalog.StatusCompleted, catalog.StatusFailed, false},
		{catalog.StatusFailed, catalog.StatusProcessing, false},
	}

	for _, tc := range cases {
		if got := tc.from.CanTransitionTo(tc.to); got != tc.allowed {
			t.Errorf("%s -> %s: got %v, want %v", tc.from, tc.to, got, tc.allowed)
		}
	}
}

func TestStatusIsTerminal(t *testing.T) {
	t.Parallel()

	if catalog.StatusPending.IsTerminal() || catalog.StatusProcessing.IsTerminal() {
		t.Fatal("pending/processing must not be terminal")
	}
	if !catalog.StatusCompleted.IsTerminal() || !catalog.StatusFailed.IsTerminal() {
		t.Fatal("completed/failed must be terminal")
	}
}

func TestProgressPercentTruncated(t *testing.T) {
	t.Parallel()

	job := catalog.UploadJob{ProcessedRows: 2, TotalRows: 3}
	p := job.Progress()
	if p.Percent != 66 {
		t.Fatalf("expected truncated 66, got %d", p.Percent)
	}
	if p.Current != 2 || p.Total != 3 {
		t.Fatalf("unexpected progress: %+v", p)
	}
}

func TestProgressZeroTotal(t *testing.T) {
	t.Parallel()

	job := catalog.UploadJob{}
	if p := job.Progress(); p.Percent != 0 {
		t.Fatalf("expected 0 percent, got %d", p.Percent)
	}
}
