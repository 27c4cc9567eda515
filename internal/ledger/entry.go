package ledger

import (
	"time"

	"github.com/shopspring/decimal"

	"fieldpay/internal/deduction"
)

// Ledger aggregates all workers' pay for one calendar month. Totals are cached
// sums over its entries, refreshed after every entry change.
type Ledger struct {
	ID            string          `json:"id"`
	Month         string          `json:"month"`
	TotalGross    decimal.Decimal `json:"totalGross"`
	TotalEmployee decimal.Decimal `json:"totalEmployeeDeduction"`
	TotalEmployer decimal.Decimal `json:"totalEmployerDeduction"`
	TotalNet      decimal.Decimal `json:"totalNet"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// Entry is one worker's accumulated gross/deductions/net within a month.
// Deductions are recomputed from scratch on every gross change so that partial
// reversals land on exactly the figures a fresh computation would produce.
type Entry struct {
	ID                string                    `json:"id"`
	LedgerID          string                    `json:"ledgerId"`
	WorkerID          string                    `json:"workerId"`
	Nationality       string                    `json:"nationality"`
	Gross             decimal.Decimal           `json:"grossSalary"`
	EmployeeDeduction decimal.Decimal           `json:"employeeDeduction"`
	EmployerDeduction decimal.Decimal           `json:"employerDeduction"`
	Breakdown         map[string]deduction.Line `json:"deductionBreakdown"`
	Net               decimal.Decimal           `json:"netSalary"`
	CreatedAt         time.Time                 `json:"createdAt"`
	UpdatedAt         time.Time                 `json:"updatedAt"`
}

// applyDelta shifts the entry's gross by delta and recomputes deductions for the
// new gross. remove reports that the entry no longer represents any attributable
// earnings (gross dropped to zero or below) and must be deleted instead of kept.
func applyDelta(e Entry, month string, delta decimal.Decimal, rules []deduction.Rule) (next Entry, remove bool, err error) {
	gross := e.Gross.Add(delta)
	if gross.LessThanOrEqual(decimal.Zero) {
		return e, true, nil
	}

	res, err := deduction.Compute(month, gross, e.Nationality, rules)
	if err != nil {
		return e, false, err
	}

	e.Gross = gross
	e.EmployeeDeduction = res.EmployeeTotal
	e.EmployerDeduction = res.EmployerTotal
	e.Breakdown = res.Breakdown
	e.Net = gross.Sub(res.EmployeeTotal)
	return e, false, nil
}
