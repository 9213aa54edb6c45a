package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	domain "github.com/adityarama/tutorlens/internal/domain/artifacts"
)

type ArtifactRepository struct {
	db *sql.DB
}

func NewArtifactRepository(db *sql.DB) *ArtifactRepository {
	return &ArtifactRepository{db: db}
}

func (r *ArtifactRepository) Upsert(ctx context.Context, a *domain.Artifact) error {
	const q = `
INSERT INTO artifacts
(operator_id, student_id, job_type, job_id, payload, degraded, strategy, archive_url, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
ON CONFLICT (operator_id, student_id, job_type) DO UPDATE SET
 job_id = EXCLUDED.job_id,
 payload = EXCLUDED.payload,
 degraded = EXCLUDED.degraded,
 strategy = EXCLUDED.strategy,
 archive_url = EXCLUDED.archive_url,
 updated_at = EXCLUDED.updated_at;`

	payload := string(a.Payload)
	if strings.TrimSpace(payload) == "" {
		payload = "{}"
	}
	created := a.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	updated := a.UpdatedAt
	if updated.IsZero() {
		updated = created
	}
	_, err := r.db.ExecContext(ctx, q,
		stringOrDash(a.OperatorID), stringOrDash(a.StudentID), stringOrDash(a.JobType),
		a.JobID, payload, a.Degraded, a.Strategy, a.ArchiveURL, created, updated,
	)
	return err
}

func (r *ArtifactRepository) AppendParentReport(ctx context.Context, operatorID, studentID string, e *domain.ParentReportEntry) error {
	const q = `
INSERT INTO parent_reports (id, operator_id, student_id, title, content, created_at)
VALUES ($1,$2,$3,$4,$5,$6);`
	content := string(e.Content)
	if strings.TrimSpace(content) == "" {
		content = "{}"
	}
	created := e.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	_, err := r.db.ExecContext(ctx, q,
		e.ID, stringOrDash(operatorID), stringOrDash(studentID), e.Title, content, created,
	)
	return err
}

func (r *ArtifactRepository) Get(ctx context.Context, operatorID, studentID, jobType string) (*domain.Artifact, error) {
	const q = `
SELECT operator_id, student_id, job_type, job_id, payload, degraded, strategy, archive_url, created_at, updated_at
FROM artifacts
WHERE operator_id=$1 AND student_id=$2 AND job_type=$3 LIMIT 1;`
	var a domain.Artifact
	var payload []byte
	err := r.db.QueryRowContext(ctx, q, operatorID, studentID, jobType).Scan(
		&a.OperatorID, &a.StudentID, &a.JobType, &a.JobID, &payload,
		&a.Degraded, &a.Strategy, &a.ArchiveURL, &a.CreatedAt, &a.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	a.Payload = payload
	return &a, nil
}

func (r *ArtifactRepository) ListParentReports(ctx context.Context, operatorID, studentID string) ([]*domain.ParentReportEntry, error) {
	const q = `
SELECT id, title, content, created_at
FROM parent_reports
WHERE operator_id=$1 AND student_id=$2
ORDER BY created_at ASC, id ASC;`
	rows, err := r.db.QueryContext(ctx, q, operatorID, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.ParentReportEntry
	for rows.Next() {
		var e domain.ParentReportEntry
		var content []byte
		if err := rows.Scan(&e.ID, &e.Title, &content, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Content = content
		out = append(out, &e)
	}
	return out, rows.Err()
}

func (r *ArtifactRepository) Delete(ctx context.Context, operatorID, studentID, jobType string) error {
	const q = `DELETE FROM artifacts WHERE operator_id=$1 AND student_id=$2 AND job_type=$3;`
	_, err := r.db.ExecContext(ctx, q, operatorID, studentID, jobType)
	return err
}
