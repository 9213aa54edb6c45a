package billing

import "errors"

// ErrSubscriptionExpired indicates the validity window has passed.
var ErrSubscriptionExpired = errors.New("subscription expired")

// ErrInsufficientCredits indicates the balance cannot cover the job.
var ErrInsufficientCredits = errors.New("insufficient credits")

// ErrCommitConflict indicates the conditional commit matched no row:
// the balance moved between admission and commit. Credits were NOT spent.
var ErrCommitConflict = errors.New("credit commit conflict")

// ErrNotFound indicates no subscription exists for the operator.
var ErrNotFound = errors.New("subscription not found")

// IsRejection reports whether err is a soft admission rejection
// (expired or insufficient) rather than an infrastructure failure.
func IsRejection(err error) bool {
	return errors.Is(err, ErrSubscriptionExpired) || errors.Is(err, ErrInsufficientCredits)
}
