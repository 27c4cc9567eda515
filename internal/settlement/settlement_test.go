package settlement

import (
	"context"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"fieldpay/internal/workorder"
)

type posting struct {
	month    string
	workerID string
	amount   decimal.Decimal
}

type fakePoster struct {
	contributions []posting
	retractions   []posting
}

func (f *fakePoster) Contribute(_ context.Context, month, workerID string, amount decimal.Decimal) error {
	f.contributions = append(f.contributions, posting{month, workerID, amount})
	return nil
}

func (f *fakePoster) Retract(_ context.Context, month, workerID string, amount decimal.Decimal) error {
	f.retractions = append(f.retractions, posting{month, workerID, amount})
	return nil
}

func completedOrder(rateType workorder.RateType, assignments ...workorder.Assignment) *workorder.WorkOrder {
	month := "2025-03"
	return &workorder.WorkOrder{
		ID:              "wo-1",
		Status:          workorder.StatusCompleted,
		RateType:        rateType,
		CompletionMonth: &month,
		Assignments:     assignments,
	}
}

func TestSettle_PostsEveryAssignment(t *testing.T) {
	p := &fakePoster{}
	wo := completedOrder(workorder.RateNormal,
		workorder.Assignment{WorkerID: "w1", Contribution: decimal.NewFromInt(3000)},
		workorder.Assignment{WorkerID: "w2", Contribution: decimal.NewFromInt(500)},
	)

	out, err := Settle(context.Background(), p, wo)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !out.Applied {
		t.Fatalf("expected applied outcome, got %+v", out)
	}
	if out.Month != "2025-03" {
		t.Fatalf("expected outcome month 2025-03, got %q", out.Month)
	}
	if len(p.contributions) != 2 {
		t.Fatalf("expected 2 contributions, got %d", len(p.contributions))
	}
	if p.contributions[0].workerID != "w1" || !p.contributions[0].amount.Equal(decimal.NewFromInt(3000)) {
		t.Fatalf("unexpected first posting: %+v", p.contributions[0])
	}
}

func TestSettle_WorkDaysUsesAssignmentContribution(t *testing.T) {
	p := &fakePoster{}
	// rate 120/day * 22 days, computed at assignment level
	wo := completedOrder(workorder.RateWorkDays,
		workorder.Assignment{WorkerID: "w1", Contribution: decimal.NewFromInt(2640)},
	)

	out, err := Settle(context.Background(), p, wo)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !out.Applied {
		t.Fatalf("expected applied outcome")
	}
	if len(p.contributions) != 1 || !p.contributions[0].amount.Equal(decimal.NewFromInt(2640)) {
		t.Fatalf("unexpected postings: %+v", p.contributions)
	}
}

func TestSettle_ResourcesOrderHasNoFinancialImpact(t *testing.T) {
	p := &fakePoster{}
	wo := completedOrder(workorder.RateResources)

	out, err := Settle(context.Background(), p, wo)
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if out.Applied {
		t.Fatalf("resources order must not post earnings")
	}
	if !strings.Contains(out.Message, "no financial impact") {
		t.Fatalf("expected informational message, got %q", out.Message)
	}
	if len(p.contributions) != 0 {
		t.Fatalf("expected no postings, got %d", len(p.contributions))
	}
}

func TestSettle_RequiresCompletionMonth(t *testing.T) {
	wo := &workorder.WorkOrder{ID: "wo-1", RateType: workorder.RateNormal}
	if _, err := Settle(context.Background(), &fakePoster{}, wo); err == nil {
		t.Fatalf("expected error without completion month")
	}
	if _, err := Settle(context.Background(), &fakePoster{}, nil); err == nil {
		t.Fatalf("expected error for nil work order")
	}
}

func TestReverse_RetractsEveryAssignment(t *testing.T) {
	p := &fakePoster{}
	wo := completedOrder(workorder.RateNormal,
		workorder.Assignment{WorkerID: "w1", Contribution: decimal.NewFromInt(3000)},
	)

	out, err := Reverse(context.Background(), p, wo)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !out.Applied {
		t.Fatalf("expected applied outcome")
	}
	if len(p.retractions) != 1 || p.retractions[0].month != "2025-03" {
		t.Fatalf("unexpected retractions: %+v", p.retractions)
	}
}

func TestReverse_NeverCompletedIsNoOpSuccess(t *testing.T) {
	p := &fakePoster{}
	wo := &workorder.WorkOrder{
		ID:       "wo-1",
		Status:   workorder.StatusOngoing,
		RateType: workorder.RateNormal,
		Assignments: []workorder.Assignment{
			{WorkerID: "w1", Contribution: decimal.NewFromInt(3000)},
		},
	}

	out, err := Reverse(context.Background(), p, wo)
	if err != nil {
		t.Fatalf("expected tolerant no-op, got %v", err)
	}
	if out.Applied {
		t.Fatalf("nothing should have been reversed")
	}
	if len(p.retractions) != 0 {
		t.Fatalf("expected no retractions, got %d", len(p.retractions))
	}
}

func TestReverse_RepeatedCallStillSucceeds(t *testing.T) {
	p := &fakePoster{}
	wo := completedOrder(workorder.RateNormal,
		workorder.Assignment{WorkerID: "w1", Contribution: decimal.NewFromInt(3000)},
	)

	if _, err := Reverse(context.Background(), p, wo); err != nil {
		t.Fatalf("first reverse: %v", err)
	}
	// The ledger treats a missing entry as a tolerated no-op, so re-reversing
	// just issues retractions that land on nothing.
	if _, err := Reverse(context.Background(), p, wo); err != nil {
		t.Fatalf("second reverse: %v", err)
	}
	if len(p.retractions) != 2 {
		t.Fatalf("expected both retraction attempts recorded, got %d", len(p.retractions))
	}
}
