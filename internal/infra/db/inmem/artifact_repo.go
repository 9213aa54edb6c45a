package inmem

import (
	"context"
	"sync"

	domain "github.com/adityarama/tutorlens/internal/domain/artifacts"
)

type slotKey struct {
	operator string
	student  string
	jobType  string
}

type listKey struct {
	operator string
	student  string
}

// ArtifactRepository is an in-memory artifacts.Repository.
type ArtifactRepository struct {
	mu      sync.RWMutex
	slots   map[slotKey]*domain.Artifact
	reports map[listKey][]*domain.ParentReportEntry
}

func NewArtifactRepository() *ArtifactRepository {
	return &ArtifactRepository{
		slots:   make(map[slotKey]*domain.Artifact),
		reports: make(map[listKey][]*domain.ParentReportEntry),
	}
}

func (r *ArtifactRepository) Upsert(_ context.Context, a *domain.Artifact) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *a
	r.slots[slotKey{a.OperatorID, a.StudentID, a.JobType}] = &cp
	return nil
}

func (r *ArtifactRepository) AppendParentReport(_ context.Context, operatorID, studentID string, e *domain.ParentReportEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *e
	k := listKey{operatorID, studentID}
	r.reports[k] = append(r.reports[k], &cp)
	return nil
}

func (r *ArtifactRepository) Get(_ context.Context, operatorID, studentID, jobType string) (*domain.Artifact, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.slots[slotKey{operatorID, studentID, jobType}]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (r *ArtifactRepository) ListParentReports(_ context.Context, operatorID, studentID string) ([]*domain.ParentReportEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	src := r.reports[listKey{operatorID, studentID}]
	out := make([]*domain.ParentReportEntry, len(src))
	for i, e := range src {
		cp := *e
		out[i] = &cp
	}
	return out, nil
}

func (r *ArtifactRepository) Delete(_ context.Context, operatorID, studentID, jobType string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.slots, slotKey{operatorID, studentID, jobType})
	return nil
}
