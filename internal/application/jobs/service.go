package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/adityarama/tutorlens/internal/application"
	"github.com/adityarama/tutorlens/internal/domain/anomaly"
	"github.com/adityarama/tutorlens/internal/domain/artifacts"
	"github.com/adityarama/tutorlens/internal/domain/billing"
	domain "github.com/adityarama/tutorlens/internal/domain/jobs"
	"github.com/adityarama/tutorlens/internal/domain/notify"
	"github.com/adityarama/tutorlens/internal/normalize"
)

// Archive port for raw upstream responses. Optional: a nil Archive
// disables archiving without affecting the pipeline.
type Archive interface {
	Put(ctx context.Context, key string, body []byte) (string, error)
}

// Service implements the artifact-generation use case. One call runs
// the full pipeline: admission, dispatch, normalization, persistence,
// credit commit, notification. Safe for concurrent use; the only
// shared mutable state is behind the Ledger's conditional commit.
type Service struct {
	Ledger     billing.Ledger
	Dispatcher domain.Dispatcher
	Artifacts  artifacts.Repository
	Anomalies  anomaly.Repository
	Publisher  notify.Publisher
	Archive    Archive
	Costs      map[domain.Type]int
	Clock      application.Clock
}

// Command untuk trigger satu artifact job
type GenerateCommand struct {
	JobID      string // optional; client-supplied ids keep retries idempotent
	OperatorID string
	StudentID  string
	JobType    domain.Type
	Fields     map[string]any
}

type GenerateResult struct {
	JobID    string          `json:"job_id"`
	Status   string          `json:"status"`
	JobType  string          `json:"job_type"`
	Payload  json.RawMessage `json:"payload"`
	Degraded bool            `json:"degraded,omitempty"`
	Strategy string          `json:"strategy,omitempty"`
}

// RejectionError is the typed soft rejection returned when admission
// fails. Recovered into a structured response, never propagated as a
// server error.
type RejectionError struct {
	Reason          error
	RequiredCredits int
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("admission rejected: %v (requires %d credits)", e.Reason, e.RequiredCredits)
}

func (e *RejectionError) Unwrap() error { return e.Reason }

// Generate runs one job to completion or terminal failure.
//
// State walk: Requested → Admitted → Dispatched → Parsed → Committed.
// Failure semantics:
//   - admission rejection: typed RejectionError, nothing dispatched
//   - dispatch failure: job failed, no credits touched
//   - persistence failure: job failed, no credits touched even though
//     the AI produced output — the operator got no usable artifact
//   - commit conflict after persist: artifact kept, anomaly recorded,
//     event still published
func (s *Service) Generate(ctx context.Context, cmd GenerateCommand) (GenerateResult, error) {
	now := s.Clock.Now()
	required := s.cost(cmd.JobType)

	job := &domain.Job{
		ID:              domain.JobID(cmd.JobID),
		Type:            cmd.JobType,
		OperatorID:      cmd.OperatorID,
		StudentID:       cmd.StudentID,
		RequiredCredits: required,
		Status:          domain.StatusRequested,
		RequestedAt:     now,
		Fields:          cmd.Fields,
	}
	if job.ID == "" {
		job.ID = domain.JobID(uuid.New().String())
	}

	// admission gates real work; synchronous and cheap
	if err := s.Ledger.CheckAdmission(ctx, cmd.OperatorID, required); err != nil {
		if billing.IsRejection(err) {
			job.Status = domain.StatusRejected
			return GenerateResult{JobID: string(job.ID), Status: string(job.Status), JobType: string(job.Type)},
				&RejectionError{Reason: err, RequiredCredits: required}
		}
		return GenerateResult{JobID: string(job.ID), Status: string(domain.StatusFailed), JobType: string(job.Type)}, err
	}
	job.Status = domain.StatusAdmitted

	raw, err := s.Dispatcher.Dispatch(ctx, job.Type, s.dispatchPayload(job))
	if err != nil {
		job.Status = domain.StatusFailed
		return GenerateResult{JobID: string(job.ID), Status: string(job.Status), JobType: string(job.Type)}, err
	}
	job.Status = domain.StatusDispatched

	// never fails; degrades to the raw response
	res := normalize.Normalize(raw, normalize.ShapeFor(job.Type))
	job.Status = domain.StatusParsed
	if res.Degraded {
		log.Printf("normalize degraded: operator=%s job=%s type=%s", job.OperatorID, job.ID, job.Type)
	}

	archiveURL := s.archiveRaw(ctx, job, raw)

	payload := payloadBytes(res)
	if err := s.persist(ctx, job, payload, res, archiveURL, now); err != nil {
		job.Status = domain.StatusFailed
		return GenerateResult{JobID: string(job.ID), Status: string(job.Status), JobType: string(job.Type)},
			fmt.Errorf("persist artifact: %w", err)
	}

	// commit before publish so a client reacting to the event reads a
	// consistent balance
	if err := s.Ledger.Commit(ctx, cmd.OperatorID, required); err != nil {
		s.recordAnomaly(ctx, job, err)
	}
	job.Status = domain.StatusCommitted

	if s.Publisher != nil {
		s.Publisher.Publish(cmd.OperatorID, notify.Event{
			JobID:     string(job.ID),
			JobType:   string(job.Type),
			StudentID: job.StudentID,
			Degraded:  res.Degraded,
			At:        s.Clock.Now(),
		})
	}

	return GenerateResult{
		JobID:    string(job.ID),
		Status:   string(job.Status),
		JobType:  string(job.Type),
		Payload:  payload,
		Degraded: res.Degraded,
		Strategy: res.Strategy,
	}, nil
}

// persist writes the artifact: overwrite slot for most types, append
// for parent reports.
func (s *Service) persist(ctx context.Context, job *domain.Job, payload json.RawMessage, res normalize.Result, archiveURL string, now time.Time) error {
	if job.Type == domain.TypeParentReport {
		entry := &artifacts.ParentReportEntry{
			ID:        uuid.New().String(),
			Title:     parentReportTitle(res, now),
			Content:   payload,
			CreatedAt: now,
		}
		return s.Artifacts.AppendParentReport(ctx, job.OperatorID, job.StudentID, entry)
	}

	return s.Artifacts.Upsert(ctx, &artifacts.Artifact{
		JobID:      string(job.ID),
		OperatorID: job.OperatorID,
		StudentID:  job.StudentID,
		JobType:    string(job.Type),
		Payload:    payload,
		Degraded:   res.Degraded,
		Strategy:   res.Strategy,
		ArchiveURL: archiveURL,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
}

// archiveRaw stores the raw upstream body for auditing. Best-effort:
// failure is recorded as an anomaly, never fails the job.
func (s *Service) archiveRaw(ctx context.Context, job *domain.Job, raw json.RawMessage) string {
	if s.Archive == nil {
		return ""
	}
	key := fmt.Sprintf("%s/%s/%s/%s.json", job.OperatorID, job.StudentID, job.Type, job.ID)
	url, err := s.Archive.Put(ctx, key, raw)
	if err != nil {
		log.Printf("archive raw response failed: job=%s: %v", job.ID, err)
		if s.Anomalies != nil {
			_ = s.Anomalies.Save(ctx, &anomaly.Anomaly{
				OperatorID: job.OperatorID,
				JobID:      string(job.ID),
				JobType:    string(job.Type),
				Phase:      "archive",
				Message:    err.Error(),
				CreatedAt:  s.Clock.Now(),
			})
		}
		return ""
	}
	return url
}

// recordAnomaly logs a credit commit that no-opped after the artifact
// was already persisted. The artifact stays; nothing is rolled back.
func (s *Service) recordAnomaly(ctx context.Context, job *domain.Job, err error) {
	log.Printf("accounting anomaly: operator=%s job=%s credits=%d: %v",
		job.OperatorID, job.ID, job.RequiredCredits, err)
	if s.Anomalies == nil {
		return
	}
	details, _ := json.Marshal(map[string]any{
		"required_credits": job.RequiredCredits,
		"error":            err.Error(),
	})
	_ = s.Anomalies.Save(ctx, &anomaly.Anomaly{
		OperatorID:  job.OperatorID,
		JobID:       string(job.ID),
		JobType:     string(job.Type),
		Phase:       "commit",
		Message:     "credit commit no-op after artifact persisted",
		DetailsJSON: string(details),
		CreatedAt:   s.Clock.Now(),
	})
}

func (s *Service) cost(t domain.Type) int {
	if s.Costs != nil {
		if c, ok := s.Costs[t]; ok {
			return c
		}
	}
	return domain.DefaultCosts[t]
}

// dispatchPayload builds the job-type-specific outbound body.
func (s *Service) dispatchPayload(job *domain.Job) map[string]any {
	payload := map[string]any{
		"job_id":     string(job.ID),
		"job_type":   string(job.Type),
		"student_id": job.StudentID,
	}
	for k, v := range job.Fields {
		payload[k] = v
	}
	return payload
}

// payloadBytes renders the normalized payload, or the raw response
// when extraction degraded.
func payloadBytes(res normalize.Result) json.RawMessage {
	if res.Degraded {
		return res.Raw
	}
	b, err := json.Marshal(res.Payload)
	if err != nil {
		return res.Raw
	}
	return b
}

func parentReportTitle(res normalize.Result, now time.Time) string {
	if !res.Degraded {
		if t, ok := res.Payload["title"].(string); ok && t != "" {
			return t
		}
	}
	return "Parent report " + now.Format("2006-01-02")
}
