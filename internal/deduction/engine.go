package deduction

import (
	"github.com/shopspring/decimal"
)

const currencyScale = 2

// Line records one rule's contribution for later export/audit.
type Line struct {
	Method         Method          `json:"method"`
	EmployeeRate   decimal.Decimal `json:"employeeRate"`
	EmployerRate   decimal.Decimal `json:"employerRate"`
	EmployeeAmount decimal.Decimal `json:"employeeAmount"`
	EmployerAmount decimal.Decimal `json:"employerAmount"`
	Nationality    string          `json:"nationality"`
}

type Result struct {
	EmployeeTotal decimal.Decimal
	EmployerTotal decimal.Decimal
	Breakdown     map[string]Line
}

// Compute derives employee/employer deduction totals for a gross salary in a
// month, applying every rule that covers the month and nationality class.
//
// Rules:
//   - percentage: amount = gross * rate / 100, per side.
//   - fixed without brackets: the rule's flat amounts.
//   - fixed with brackets: amounts from the bracket containing gross; a gross
//     outside every bracket contributes zero for that rule.
//   - Rounding is half-up to 2 decimal places after each rule, never on the
//     grand total.
//
// The function is pure: identical (month, gross, nationality, rule set) inputs
// always produce identical output, so a historical month recomputes exactly
// during reversal.
func Compute(month string, gross decimal.Decimal, nationality string, rules []Rule) (Result, error) {
	selected, err := SelectActive(rules, month, nationality)
	if err != nil {
		return Result{}, err
	}

	res := Result{
		EmployeeTotal: decimal.Zero,
		EmployerTotal: decimal.Zero,
		Breakdown:     map[string]Line{},
	}

	for _, r := range selected {
		var employee, employer decimal.Decimal
		switch r.Method {
		case MethodPercentage:
			employee = gross.Mul(r.EmployeeRate).Div(decimal.NewFromInt(100)).Round(currencyScale)
			employer = gross.Mul(r.EmployerRate).Div(decimal.NewFromInt(100)).Round(currencyScale)
		case MethodFixed:
			if len(r.Brackets) == 0 {
				employee = r.EmployeeAmount.Round(currencyScale)
				employer = r.EmployerAmount.Round(currencyScale)
				break
			}
			if b, ok := MatchBracket(r.Brackets, gross); ok {
				employee = b.EmployeeAmount.Round(currencyScale)
				employer = b.EmployerAmount.Round(currencyScale)
			} else {
				employee = decimal.Zero
				employer = decimal.Zero
			}
		default:
			continue
		}

		res.EmployeeTotal = res.EmployeeTotal.Add(employee)
		res.EmployerTotal = res.EmployerTotal.Add(employer)
		res.Breakdown[r.Code] = Line{
			Method:         r.Method,
			EmployeeRate:   r.EmployeeRate,
			EmployerRate:   r.EmployerRate,
			EmployeeAmount: employee,
			EmployerAmount: employer,
			Nationality:    nationality,
		}
	}

	return res, nil
}
