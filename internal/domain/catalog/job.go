package catalog

import "time"

type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// IsTerminal returns true for statuses that represent a final state.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// CanTransitionTo enforces the forward-only lifecycle
// pending -> processing -> completed|failed.
func (s Status) CanTransitionTo(next Status) bool {
	switch s {
	case StatusPending:
		return next == StatusProcessing
	case StatusProcessing:
		return next == StatusCompleted || next == StatusFailed
	default:
		return false
	}
}

// UploadJob tracks one bulk upload from submission to terminal status.
// TaskRef is the opaque reference handed back to clients for polling.
type UploadJob struct {
	ID              string
	TaskRef         string
	Filename        string
	SourcePath      string
	TotalRows       int64
	ProcessedRows   int64
	Status          Status
	CancelRequested bool
	ErrorMessage    string
	CreatedAt       time.Time
	UpdatedAt       time.Time
	StartedAt       *time.Time
	FinishedAt      *time.Time
}

type Progress struct {
	Current int64
	Total   int64
	Percent int
}

// Progress reports processed/total with the percentage truncated.
func (j UploadJob) Progress() Progress {
	p := Progress{Current: j.ProcessedRows, Total: j.TotalRows}
	if j.TotalRows > 0 {
		p.Percent = int(j.ProcessedRows * 100 / j.TotalRows)
	}
	return p
}
