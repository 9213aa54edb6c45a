package inmem

import (
	"context"
	"sync"
	"time"

	domain "github.com/adityarama/tutorlens/internal/domain/billing"
)

// Ledger is an in-memory billing.Ledger for tests and dev mode.
// The mutex around Commit gives the same no-overspend guarantee the
// SQL ledgers get from their conditional UPDATE.
type Ledger struct {
	mu   sync.Mutex
	subs map[string]*domain.Subscription
	Now  func() time.Time
}

func NewLedger() *Ledger {
	return &Ledger{subs: make(map[string]*domain.Subscription), Now: time.Now}
}

// Put seeds or renews a subscription.
func (l *Ledger) Put(s *domain.Subscription) {
	l.mu.Lock()
	defer l.mu.Unlock()
	cp := *s
	l.subs[s.OperatorID] = &cp
}

func (l *Ledger) Get(_ context.Context, operatorID string) (*domain.Subscription, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	s, ok := l.subs[operatorID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (l *Ledger) CheckAdmission(ctx context.Context, operatorID string, required int) error {
	s, err := l.Get(ctx, operatorID)
	if err != nil {
		return err
	}
	return s.Admit(required, l.Now())
}

func (l *Ledger) Commit(_ context.Context, operatorID string, required int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	s, ok := l.subs[operatorID]
	if !ok {
		return domain.ErrNotFound
	}
	if s.Expired(l.Now()) || s.UsedCredits+required > s.MaxCredits {
		return domain.ErrCommitConflict
	}
	s.UsedCredits += required
	return nil
}
