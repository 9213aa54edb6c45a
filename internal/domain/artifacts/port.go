package artifacts

import (
	"context"
	"errors"
)

// Repository port (interface for artifact persistence)
type Repository interface {
	// Upsert stores the artifact keyed (operator, student, job type).
	// Idempotent, last-write-wins: two identical calls leave one row
	// holding the latest payload.
	Upsert(ctx context.Context, a *Artifact) error

	// AppendParentReport appends one entry to the student's ordered
	// parent-report list. Never overwrites previous entries.
	AppendParentReport(ctx context.Context, operatorID, studentID string, entry *ParentReportEntry) error

	Get(ctx context.Context, operatorID, studentID, jobType string) (*Artifact, error)
	ListParentReports(ctx context.Context, operatorID, studentID string) ([]*ParentReportEntry, error)

	// Delete removes the artifact slot. Invoked by explicit operator
	// deletion only.
	Delete(ctx context.Context, operatorID, studentID, jobType string) error
}

// ErrNotFound is returned by Get when the slot has never been written.
var ErrNotFound = errors.New("artifact not found")
