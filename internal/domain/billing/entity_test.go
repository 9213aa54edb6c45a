package billing

import (
	"errors"
	"testing"
	"time"
)

func TestAdmit(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name       string
		used, max  int
		validUntil time.Time
		required   int
		want       error
	}{
		{"plenty of credits", 0, 500, now.Add(time.Hour), 10, nil},
		{"exact fit", 490, 500, now.Add(time.Hour), 10, nil},
		{"one credit short", 491, 500, now.Add(time.Hour), 10, ErrInsufficientCredits},
		{"fully spent", 500, 500, now.Add(time.Hour), 1, ErrInsufficientCredits},
		{"expired with full balance", 0, 500, now.Add(-time.Minute), 10, ErrSubscriptionExpired},
		{"expired and broke still reports expired", 500, 500, now.Add(-time.Minute), 10, ErrSubscriptionExpired},
		{"free job on expired subscription", 0, 500, now.Add(-time.Minute), 0, ErrSubscriptionExpired},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := &Subscription{
				OperatorID:  "op-1",
				MaxCredits:  tc.max,
				UsedCredits: tc.used,
				ValidUntil:  tc.validUntil,
			}
			if err := s.Admit(tc.required, now); !errors.Is(err, tc.want) {
				t.Errorf("Admit(%d) = %v, want %v", tc.required, err, tc.want)
			}
		})
	}
}

func TestRemainingNeverNegative(t *testing.T) {
	s := &Subscription{MaxCredits: 100, UsedCredits: 120}
	if got := s.Remaining(); got != 0 {
		t.Errorf("Remaining = %d, want 0", got)
	}
}

func TestIsRejection(t *testing.T) {
	if !IsRejection(ErrSubscriptionExpired) || !IsRejection(ErrInsufficientCredits) {
		t.Error("admission sentinels must count as rejections")
	}
	if IsRejection(ErrCommitConflict) {
		t.Error("a commit conflict is an anomaly, not an admission rejection")
	}
	if IsRejection(errors.New("database down")) {
		t.Error("infrastructure errors must not be soft rejections")
	}
}
