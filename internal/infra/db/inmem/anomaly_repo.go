package inmem

import (
	"context"
	"sync"

	domain "github.com/adityarama/tutorlens/internal/domain/anomaly"
)

// AnomalyRepository is an in-memory anomaly.Repository.
type AnomalyRepository struct {
	mu      sync.Mutex
	nextID  int64
	entries []*domain.Anomaly
}

func NewAnomalyRepository() *AnomalyRepository { return &AnomalyRepository{} }

func (r *AnomalyRepository) Save(_ context.Context, a *domain.Anomaly) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	cp := *a
	cp.ID = r.nextID
	r.entries = append(r.entries, &cp)
	return nil
}

func (r *AnomalyRepository) ListByOperator(_ context.Context, operatorID string, limit int) ([]*domain.Anomaly, error) {
	if limit <= 0 {
		limit = 20
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Anomaly
	// newest first, like the SQL repos
	for i := len(r.entries) - 1; i >= 0 && len(out) < limit; i-- {
		if r.entries[i].OperatorID == operatorID {
			cp := *r.entries[i]
			out = append(out, &cp)
		}
	}
	return out, nil
}
