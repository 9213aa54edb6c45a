package postgres

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

func (r *SubscriptionRepository) Get(ctx context.Context, operatorID string) (*domain.Subscription, error) {
	const q = `
SELECT operator_id, tier, max_credits, used_credits, valid_until
FROM subscriptions
WHERE operator_id=$1 LIMIT 1;`
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

func (r *SubscriptionRepository) CheckAdmission(ctx context.Context, operatorID string, required int) error {
	s, err := r.Get(ctx, operatorID)
	if err != nil {
		return err
	}
	return s.Admit(required, r.now())
}

// Commit is one conditional UPDATE; the balance and validity re-check
// in the WHERE clause is what keeps concurrent commits from
// overspending. Zero rows affected means the condition no longer held.
func (r *SubscriptionRepository) Commit(ctx context.Context, operatorID string, required int) error {
	const q = `
UPDATE subscriptions
SET used_credits = used_credits + $1
WHERE operator_id = $2
  AND used_credits + $1 <= max_credits
  AND valid_until > $3;`
	res, err := r.db.ExecContext(ctx, q, required, operatorID, r.now())
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

func (r *SubscriptionRepository) Upsert(ctx context.Context, s *domain.Subscription) error {
	const q = `
INSERT INTO subscriptions (operator_id, tier, max_credits, used_credits, valid_until)
VALUES ($1,$2,$3,$4,$5)
ON CONFLICT (operator_id) DO UPDATE SET
 tier = EXCLUDED.tier,
 max_credits = EXCLUDED.max_credits,
 used_credits = EXCLUDED.used_credits,
 valid_until = EXCLUDED.valid_until;`
	_, err := r.db.ExecContext(ctx, q, s.OperatorID, stringOrDash(string(s.Tier)), s.MaxCredits, s.UsedCredits, s.ValidUntil)
	return err
}
