package ledger

import (
	"context"
	"testing"
)

type fakeCloser struct {
	remaining int

	deletedLedger bool
	refreshed     bool
}

func (f *fakeCloser) CountEntries(_ context.Context, _ string) (int, error) {
	return f.remaining, nil
}

func (f *fakeCloser) DeleteLedger(_ context.Context, _ string) error {
	f.deletedLedger = true
	return nil
}

func (f *fakeCloser) RefreshTotals(_ context.Context, _ string) error {
	f.refreshed = true
	return nil
}

func TestFinishAfterRemoval_DeletesEmptyLedger(t *testing.T) {
	c := &fakeCloser{remaining: 0}
	if err := finishAfterRemoval(context.Background(), c, "led-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !c.deletedLedger {
		t.Fatalf("a ledger left without entries must be deleted")
	}
	if c.refreshed {
		t.Fatalf("a deleted ledger must not have its totals refreshed")
	}
}

func TestFinishAfterRemoval_RefreshesSurvivingLedger(t *testing.T) {
	c := &fakeCloser{remaining: 2}
	if err := finishAfterRemoval(context.Background(), c, "led-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.deletedLedger {
		t.Fatalf("a ledger with surviving entries must not be deleted")
	}
	if !c.refreshed {
		t.Fatalf("a surviving ledger must have its cached totals refreshed")
	}
}
