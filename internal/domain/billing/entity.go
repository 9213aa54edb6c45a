package billing

import "time"

// Tier enum
type Tier string

const (
	TierStarter   Tier = "starter"
	TierStandard  Tier = "standard"
	TierUnlimited Tier = "unlimited"
)

// Subscription holds an operator's credit balance and validity window.
// Mutated only through the Ledger; renewal is owned by the billing provider.
type Subscription struct {
	OperatorID  string    `json:"operator_id"`
	Tier        Tier      `json:"tier"`
	MaxCredits  int       `json:"max_credits"`
	UsedCredits int       `json:"used_credits"`
	ValidUntil  time.Time `json:"valid_until"`
}

// Remaining credits available for admission.
func (s *Subscription) Remaining() int {
	r := s.MaxCredits - s.UsedCredits
	if r < 0 {
		return 0
	}
	return r
}

// Expired reports whether the validity window has passed at `now`.
// An expired subscription is inert regardless of balance.
func (s *Subscription) Expired(now time.Time) bool {
	return now.After(s.ValidUntil)
}

// Admit decides admission for a job costing `required` credits.
// Expiry is checked before balance so an expired-but-funded
// subscription still rejects as expired.
func (s *Subscription) Admit(required int, now time.Time) error {
	if s.Expired(now) {
		return ErrSubscriptionExpired
	}
	if s.UsedCredits+required > s.MaxCredits {
		return ErrInsufficientCredits
	}
	return nil
}
