package mysql

import (
	"context"
	"database/sql"
	"errors"
	"time"

	domain "github.com/adityarama/tutorlens/internal/domain/billing"
)

type SubscriptionRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewSubscriptionRepository(db *sql.DB) *SubscriptionRepository {
	return &SubscriptionRepository{db: db, now: time.Now}
}

// Get reads the subscription row for an operator
func (r *SubscriptionRepository) Get(ctx context.Context, operatorID string) (*domain.Subscription, error) {
	const q = `
SELECT operator_id, tier, max_credits, used_credits, valid_until
FROM subscriptions
WHERE operator_id=? LIMIT 1;
`
	var s domain.Subscription
	err := r.db.QueryRowContext(ctx, q, operatorID).Scan(
		&s.OperatorID, &s.Tier, &s.MaxCredits, &s.UsedCredits, &s.ValidUntil,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// CheckAdmission reads the current balance and applies the domain rule.
// Read-only: rejection here never mutates the row.
func (r *SubscriptionRepository) CheckAdmission(ctx context.Context, operatorID string, required int) error {
	s, err := r.Get(ctx, operatorID)
	if err != nil {
		return err
	}
	return s.Admit(required, r.now())
}

// Commit spends credits in a single conditional update. The WHERE
// clause re-checks balance and validity so concurrent jobs for the
// same operator can never jointly overspend; a no-op update surfaces
// as ErrCommitConflict.
func (r *SubscriptionRepository) Commit(ctx context.Context, operatorID string, required int) error {
	const q = `
UPDATE subscriptions
SET used_credits = used_credits + ?
WHERE operator_id = ?
  AND used_credits + ? <= max_credits
  AND valid_until > ?;
`
	res, err := r.db.ExecContext(ctx, q, required, operatorID, required, r.now())
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrCommitConflict
	}
	return nil
}

// Upsert creates or renews a subscription row. Invoked by the billing
// webhook collaborator, not by job execution.
func (r *SubscriptionRepository) Upsert(ctx context.Context, s *domain.Subscription) error {
	const q = `
INSERT INTO subscriptions (operator_id, tier, max_credits, used_credits, valid_until)
VALUES (?,?,?,?,?)
ON DUPLICATE KEY UPDATE
 tier=VALUES(tier), max_credits=VALUES(max_credits),
 used_credits=VALUES(used_credits), valid_until=VALUES(valid_until);
`
	tier := stringOrDash(string(s.Tier))
	_, err := r.db.ExecContext(ctx, q, s.OperatorID, tier, s.MaxCredits, s.UsedCredits, s.ValidUntil)
	return err
}
