package deduction

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type Method string

const (
	MethodFixed      Method = "fixed"
	MethodPercentage Method = "percentage"
)

// NationalityAll marks a rule applicable to every nationality class.
const NationalityAll = "all"

// Rule is a statutory or policy deduction, versioned over time. The same code may
// repeat across rows with disjoint validity windows; `active` retires a row
// without deleting it.
type Rule struct {
	ID          string `json:"id"`
	Code        string `json:"code"`
	Nationality string `json:"nationality"`
	Method      Method `json:"method"`

	// Percentage method: flat rates like 11 for 11%.
	EmployeeRate decimal.Decimal `json:"employeeRate"`
	EmployerRate decimal.Decimal `json:"employerRate"`

	// Fixed method without brackets: flat amounts.
	EmployeeAmount decimal.Decimal `json:"employeeAmount"`
	EmployerAmount decimal.Decimal `json:"employerAmount"`

	// Fixed method with brackets: amounts come from the matching wage bracket.
	Brackets []WageBracket `json:"brackets,omitempty"`

	EffectiveFrom  time.Time  `json:"effectiveFrom"`
	EffectiveUntil *time.Time `json:"effectiveUntil,omitempty"`
	Active         bool       `json:"active"`
}

// WageBracket is a [MinWage, MaxWage) salary range. A nil MaxWage means
// "and above".
type WageBracket struct {
	MinWage        decimal.Decimal  `json:"minWage"`
	MaxWage        *decimal.Decimal `json:"maxWage,omitempty"`
	EmployeeAmount decimal.Decimal  `json:"employeeAmount"`
	EmployerAmount decimal.Decimal  `json:"employerAmount"`
}

// MonthBounds returns the first and last day of a YYYY-MM calendar month.
func MonthBounds(month string) (first, last time.Time, err error) {
	first, err = time.Parse("2006-01", month)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid month %q: expected YYYY-MM", month)
	}
	last = first.AddDate(0, 1, -1)
	return first, last, nil
}

// InEffect reports whether the rule covers the whole month delimited by
// first/last. A rule that ends mid-month does not cover it.
func (r Rule) InEffect(first, last time.Time) bool {
	if !r.Active {
		return false
	}
	if r.EffectiveFrom.After(first) {
		return false
	}
	if r.EffectiveUntil != nil && r.EffectiveUntil.Before(last) {
		return false
	}
	return true
}

// AppliesTo reports whether the rule covers the given nationality class.
func (r Rule) AppliesTo(nationality string) bool {
	return r.Nationality == NationalityAll || r.Nationality == nationality
}

// SelectActive filters rules down to those applicable for the month and
// nationality class. The filter is pure so recomputation against a historical
// month yields the same rule set at any later time.
func SelectActive(rules []Rule, month string, nationality string) ([]Rule, error) {
	first, last, err := MonthBounds(month)
	if err != nil {
		return nil, err
	}
	var out []Rule
	for _, r := range rules {
		if r.InEffect(first, last) && r.AppliesTo(nationality) {
			out = append(out, r)
		}
	}
	return out, nil
}

// MatchBracket selects the bracket whose [MinWage, MaxWage) range contains the
// gross salary. Returns false when no bracket matches.
func MatchBracket(brackets []WageBracket, gross decimal.Decimal) (WageBracket, bool) {
	for _, b := range brackets {
		if gross.LessThan(b.MinWage) {
			continue
		}
		if b.MaxWage != nil && gross.GreaterThanOrEqual(*b.MaxWage) {
			continue
		}
		return b, true
	}
	return WageBracket{}, false
}
