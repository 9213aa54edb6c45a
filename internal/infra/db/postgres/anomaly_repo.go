package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	domain "github.com/adityarama/tutorlens/internal/domain/anomaly"
)

type AnomalyRepository struct {
	db *sql.DB
}

func NewAnomalyRepository(db *sql.DB) *AnomalyRepository { return &AnomalyRepository{db: db} }

func (r *AnomalyRepository) Save(ctx context.Context, a *domain.Anomaly) error {
	const q = `
INSERT INTO credit_anomalies
  (operator_id, job_id, job_type, phase, message, details_json, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7);`
	msg := a.Message
	if strings.TrimSpace(msg) == "" {
		msg = "-"
	}
	details := a.DetailsJSON
	if strings.TrimSpace(details) == "" {
		details = "{}"
	} else {
		var js any
		if json.Unmarshal([]byte(details), &js) != nil {
			b, _ := json.Marshal(map[string]string{"raw": details})
			details = string(b)
		}
	}
	created := a.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	_, err := r.db.ExecContext(ctx, q,
		stringOrDash(a.OperatorID), stringOrDash(a.JobID), stringOrDash(a.JobType),
		stringOrDash(a.Phase), msg, details, created,
	)
	return err
}

func (r *AnomalyRepository) ListByOperator(ctx context.Context, operatorID string, limit int) ([]*domain.Anomaly, error) {
	if limit <= 0 {
		limit = 20
	}
	const q = `
SELECT id, operator_id, job_id, job_type, phase, message, details_json, created_at
FROM credit_anomalies
WHERE operator_id = $1
ORDER BY created_at DESC, id DESC
LIMIT $2;`
	rows, err := r.db.QueryContext(ctx, q, operatorID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.Anomaly
	for rows.Next() {
		var a domain.Anomaly
		if err := rows.Scan(&a.ID, &a.OperatorID, &a.JobID, &a.JobType, &a.Phase, &a.Message, &a.DetailsJSON, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &a)
	}
	return out, rows.Err()
}
