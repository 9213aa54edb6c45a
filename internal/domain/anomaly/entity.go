package anomaly

import "time"

// Anomaly represents a persisted accounting discrepancy. The canonical
// case: a job's artifact persisted but the conditional credit commit
// matched no row. The artifact is kept; the discrepancy lands here
// instead of being rolled back silently.
type Anomaly struct {
	ID          int64     `json:"id"`
	OperatorID  string    `json:"operator_id"`
	JobID       string    `json:"job_id"`
	JobType     string    `json:"job_type,omitempty"`
	Phase       string    `json:"phase,omitempty"` // commit | archive | other
	Message     string    `json:"message"`
	DetailsJSON string    `json:"details_json,omitempty"` // raw JSON string
	CreatedAt   time.Time `json:"created_at"`
}
