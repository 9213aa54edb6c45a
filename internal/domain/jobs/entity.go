package jobs

import (
	"time"
)

// JobID tipe untuk Job
type JobID string

// Type enum
type Type string

const (
	TypeReport           Type = "report"
	TypeCorrection       Type = "correction"
	TypeConceptScores    Type = "concept_scores"
	TypeExecutiveSummary Type = "executive_summary"
	TypeParentReport     Type = "parent_report"
)

// Valid reports whether t is a known job type.
func (t Type) Valid() bool {
	switch t {
	case TypeReport, TypeCorrection, TypeConceptScores, TypeExecutiveSummary, TypeParentReport:
		return true
	}
	return false
}

// Status enum — job lifecycle. Terminal: Committed, Rejected, Failed.
type Status string

const (
	StatusRequested  Status = "requested"
	StatusAdmitted   Status = "admitted"
	StatusDispatched Status = "dispatched"
	StatusParsed     Status = "parsed"
	StatusCommitted  Status = "committed"
	StatusRejected   Status = "rejected"
	StatusFailed     Status = "failed"
)

// DefaultCosts is the per-type credit cost schedule.
// Overridable from config; values here match the shipped plans.
var DefaultCosts = map[Type]int{
	TypeReport:           10,
	TypeCorrection:       5,
	TypeConceptScores:    5,
	TypeExecutiveSummary: 10,
	TypeParentReport:     15,
}

// Job is the ephemeral unit of work for one artifact request.
// It lives only for the duration of the invocation; the ID survives
// as the identity of the resulting artifact.
type Job struct {
	ID              JobID          `json:"id"`
	Type            Type           `json:"type"`
	OperatorID      string         `json:"operator_id"`
	StudentID       string         `json:"student_id"`
	RequiredCredits int            `json:"required_credits"`
	Status          Status         `json:"status"`
	RequestedAt     time.Time      `json:"requested_at"`
	Fields          map[string]any `json:"fields,omitempty"`
}
