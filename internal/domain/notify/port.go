package notify

import "time"

// Event is pushed to live clients of the owning operator when a job
// completes. Carries enough identity for the subscriber to refetch.
type Event struct {
	JobID     string    `json:"job_id"`
	JobType   string    `json:"job_type"`
	StudentID string    `json:"student_id"`
	Degraded  bool      `json:"degraded,omitempty"`
	At        time.Time `json:"at"`
}

// Publisher port. Delivery is owner-scoped, at-most-once per connected
// subscriber and best-effort: a disconnected subscriber misses the
// event, the artifact store stays the source of truth.
type Publisher interface {
	Publish(operatorID string, ev Event)
}
