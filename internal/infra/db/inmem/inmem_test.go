package inmem

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/adityarama/tutorlens/internal/domain/anomaly"
	"github.com/adityarama/tutorlens/internal/domain/artifacts"
	"github.com/adityarama/tutorlens/internal/domain/billing"
)

func fixedNow() time.Time { return time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC) }

func testLedger(t *testing.T, used, max int, validUntil time.Time) *Ledger {
	t.Helper()
	l := NewLedger()
	l.Now = fixedNow
	l.Put(&billing.Subscription{
		OperatorID:  "op-1",
		Tier:        billing.TierStandard,
		MaxCredits:  max,
		UsedCredits: used,
		ValidUntil:  validUntil,
	})
	return l
}

func TestLedgerAdmissionOrder(t *testing.T) {
	// expired always wins over balance
	l := testLedger(t, 0, 500, fixedNow().Add(-time.Hour))
	err := l.CheckAdmission(context.Background(), "op-1", 10)
	if !errors.Is(err, billing.ErrSubscriptionExpired) {
		t.Errorf("err = %v, want expired", err)
	}
}

func TestLedgerCommitConditional(t *testing.T) {
	l := testLedger(t, 495, 500, fixedNow().Add(time.Hour))

	if err := l.Commit(context.Background(), "op-1", 5); err != nil {
		t.Fatalf("commit within balance: %v", err)
	}
	// balance is now exactly full; one more credit must conflict
	if err := l.Commit(context.Background(), "op-1", 1); !errors.Is(err, billing.ErrCommitConflict) {
		t.Errorf("err = %v, want commit conflict", err)
	}

	sub, err := l.Get(context.Background(), "op-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if sub.UsedCredits != 500 {
		t.Errorf("usedCredits = %d, want 500", sub.UsedCredits)
	}
}

func TestLedgerUnknownOperator(t *testing.T) {
	l := NewLedger()
	if _, err := l.Get(context.Background(), "ghost"); !errors.Is(err, billing.ErrNotFound) {
		t.Errorf("err = %v, want not found", err)
	}
	if err := l.CheckAdmission(context.Background(), "ghost", 1); !errors.Is(err, billing.ErrNotFound) {
		t.Errorf("err = %v, want not found", err)
	}
}

// TestUpsertIsIdempotentSlot: same (operator, student, jobType) always
// overwrites a single slot; the newest payload wins.
func TestUpsertIsIdempotentSlot(t *testing.T) {
	r := NewArtifactRepository()
	ctx := context.Background()

	first := &artifacts.Artifact{
		JobID: "j1", OperatorID: "op-1", StudentID: "st-1", JobType: "report",
		Payload: json.RawMessage(`{"v":1}`), CreatedAt: fixedNow(), UpdatedAt: fixedNow(),
	}
	second := &artifacts.Artifact{
		JobID: "j2", OperatorID: "op-1", StudentID: "st-1", JobType: "report",
		Payload: json.RawMessage(`{"v":2}`), CreatedAt: fixedNow(), UpdatedAt: fixedNow().Add(time.Minute),
	}
	if err := r.Upsert(ctx, first); err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	if err := r.Upsert(ctx, second); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	got, err := r.Get(ctx, "op-1", "st-1", "report")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got.Payload) != `{"v":2}` {
		t.Errorf("payload = %s, want second write", got.Payload)
	}
	if got.JobID != "j2" {
		t.Errorf("job id = %s, want j2", got.JobID)
	}
}

func TestArtifactSlotsAreScoped(t *testing.T) {
	r := NewArtifactRepository()
	ctx := context.Background()

	_ = r.Upsert(ctx, &artifacts.Artifact{OperatorID: "op-1", StudentID: "st-1", JobType: "report", Payload: json.RawMessage(`{}`)})

	if _, err := r.Get(ctx, "op-2", "st-1", "report"); !errors.Is(err, artifacts.ErrNotFound) {
		t.Error("artifact visible to another operator")
	}
	if _, err := r.Get(ctx, "op-1", "st-1", "correction"); !errors.Is(err, artifacts.ErrNotFound) {
		t.Error("artifact visible under another job type")
	}
}

func TestParentReportsAppendOnly(t *testing.T) {
	r := NewArtifactRepository()
	ctx := context.Background()

	for i, id := range []string{"e1", "e2"} {
		err := r.AppendParentReport(ctx, "op-1", "st-1", &artifacts.ParentReportEntry{
			ID: id, Title: "recap", Content: json.RawMessage(`{}`), CreatedAt: fixedNow(),
		})
		if err != nil {
			t.Fatalf("append #%d: %v", i+1, err)
		}
	}

	list, err := r.ListParentReports(ctx, "op-1", "st-1")
	if err != nil {
		t.Fatalf("ListParentReports: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("entries = %d, want 2", len(list))
	}
	if list[0].ID == list[1].ID {
		t.Error("entries share an id")
	}

	other, _ := r.ListParentReports(ctx, "op-2", "st-1")
	if len(other) != 0 {
		t.Error("entries visible to another operator")
	}
}

func TestDeleteArtifact(t *testing.T) {
	r := NewArtifactRepository()
	ctx := context.Background()

	_ = r.Upsert(ctx, &artifacts.Artifact{OperatorID: "op-1", StudentID: "st-1", JobType: "report", Payload: json.RawMessage(`{}`)})
	if err := r.Delete(ctx, "op-1", "st-1", "report"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := r.Get(ctx, "op-1", "st-1", "report"); !errors.Is(err, artifacts.ErrNotFound) {
		t.Errorf("err = %v, want not found after delete", err)
	}
	// deleting a missing slot is a no-op
	if err := r.Delete(ctx, "op-1", "st-1", "report"); err != nil {
		t.Errorf("second delete: %v", err)
	}
}

func TestAnomaliesNewestFirst(t *testing.T) {
	r := NewAnomalyRepository()
	ctx := context.Background()

	for _, jobID := range []string{"j1", "j2", "j3"} {
		_ = r.Save(ctx, &anomaly.Anomaly{OperatorID: "op-1", JobID: jobID, Phase: "commit", CreatedAt: fixedNow()})
	}
	_ = r.Save(ctx, &anomaly.Anomaly{OperatorID: "op-2", JobID: "other", Phase: "commit", CreatedAt: fixedNow()})

	list, err := r.ListByOperator(ctx, "op-1", 2)
	if err != nil {
		t.Fatalf("ListByOperator: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("entries = %d, want 2 (limit)", len(list))
	}
	if list[0].JobID != "j3" || list[1].JobID != "j2" {
		t.Errorf("order = %s, %s; want j3, j2", list[0].JobID, list[1].JobID)
	}
}
