package billing

import "context"

// Ledger port (interface for the credit store)
type Ledger interface {
	// Get reads the subscription for display and admission checks.
	Get(ctx context.Context, operatorID string) (*Subscription, error)

	// CheckAdmission reads the current subscription and applies Admit.
	// Returns ErrSubscriptionExpired / ErrInsufficientCredits on rejection.
	// Makes no mutation.
	CheckAdmission(ctx context.Context, operatorID string, required int) error

	// Commit spends `required` credits in one atomic conditional update
	// (used = used + n WHERE used + n <= max AND valid_until > now).
	// Returns ErrCommitConflict when the condition no longer holds.
	// Never decrements.
	Commit(ctx context.Context, operatorID string, required int) error
}
