package settlement

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"fieldpay/internal/workorder"
)

// Poster receives earnings postings. The production implementation is
// ledger.TxPoster, bound to the transaction that carries the status change, so
// settlement and the transition commit or roll back together.
type Poster interface {
	Contribute(ctx context.Context, month, workerID string, amount decimal.Decimal) error
	Retract(ctx context.Context, month, workerID string, amount decimal.Decimal) error
}

type Outcome struct {
	Applied bool   `json:"applied"`
	Month   string `json:"month,omitempty"`
	Message string `json:"message"`
}

// Settle applies a work order's earnings contributions to its completion
// month. Runs only when the order is about to become completed. A
// resources-rated order carries no worker earnings; that is a success with an
// informational outcome, not an error.
func Settle(ctx context.Context, p Poster, wo *workorder.WorkOrder) (Outcome, error) {
	if wo == nil {
		return Outcome{}, fmt.Errorf("settle: nil work order")
	}
	if wo.CompletionMonth == nil || *wo.CompletionMonth == "" {
		return Outcome{}, fmt.Errorf("settle: work order %s has no completion month", wo.ID)
	}
	month := *wo.CompletionMonth

	if wo.RateType == workorder.RateResources {
		return Outcome{Applied: false, Month: month, Message: "no financial impact: resources-rated work order has no worker earnings"}, nil
	}
	if len(wo.Assignments) == 0 {
		return Outcome{Applied: false, Month: month, Message: "no financial impact: work order has no worker assignments"}, nil
	}

	for _, a := range wo.Assignments {
		if err := p.Contribute(ctx, month, a.WorkerID, a.Contribution); err != nil {
			return Outcome{}, err
		}
	}
	return Outcome{
		Applied: true,
		Month:   month,
		Message: fmt.Sprintf("settled %d assignment(s) into %s", len(wo.Assignments), month),
	}, nil
}

// Reverse undoes a previously applied settlement. A work order that was never
// completed, or whose month has already been fully retracted, reverses as a
// no-op success; calling it twice on the same order is safe because the ledger
// tolerates retracting what no longer exists.
func Reverse(ctx context.Context, p Poster, wo *workorder.WorkOrder) (Outcome, error) {
	if wo == nil {
		return Outcome{}, fmt.Errorf("reverse: nil work order")
	}
	if wo.CompletionMonth == nil || *wo.CompletionMonth == "" {
		return Outcome{Applied: false, Message: "nothing to reverse: work order was never completed"}, nil
	}
	month := *wo.CompletionMonth

	if wo.RateType == workorder.RateResources || len(wo.Assignments) == 0 {
		return Outcome{Applied: false, Month: month, Message: "nothing to reverse: no worker earnings were settled"}, nil
	}

	for _, a := range wo.Assignments {
		if err := p.Retract(ctx, month, a.WorkerID, a.Contribution); err != nil {
			return Outcome{}, err
		}
	}
	return Outcome{
		Applied: true,
		Month:   month,
		Message: fmt.Sprintf("reversed %d assignment(s) from %s", len(wo.Assignments), month),
	}, nil
}
