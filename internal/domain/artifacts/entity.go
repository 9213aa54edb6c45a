package artifacts

import (
	"encoding/json"
	"time"
)

// Artifact is the persisted output of one job. One logical artifact per
// (operator, student, job type), continuously overwritten — except
// parent reports, which accumulate (see ParentReportEntry).
type Artifact struct {
	JobID      string          `json:"job_id"`
	OperatorID string          `json:"operator_id"`
	StudentID  string          `json:"student_id"`
	JobType    string          `json:"job_type"`
	Payload    json.RawMessage `json:"payload"`
	// Degraded marks a payload that kept the raw upstream text because
	// no extraction strategy produced a typed object.
	Degraded   bool      `json:"degraded,omitempty"`
	Strategy   string    `json:"strategy,omitempty"`
	ArchiveURL string    `json:"archive_url,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// ParentReportEntry is one generated parent report. The list per
// (operator, student) is append-only and ordered by creation time.
type ParentReportEntry struct {
	ID        string          `json:"id"`
	Title     string          `json:"title"`
	Content   json.RawMessage `json:"content"`
	CreatedAt time.Time       `json:"created_at"`
}

// ConceptScore is one scored concept inside a concept_scores payload.
type ConceptScore struct {
	Score    float64 `json:"score"`
	SourceID string  `json:"source_id,omitempty"`
}

// ConceptScores decodes the payload into the typed score map. Only
// meaningful for concept_scores artifacts; degraded payloads fail to
// decode and return the error.
func (a *Artifact) ConceptScores() (map[string]ConceptScore, error) {
	var m map[string]ConceptScore
	if err := json.Unmarshal(a.Payload, &m); err != nil {
		return nil, err
	}
	return m, nil
}
