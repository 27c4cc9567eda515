package deduction

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		t.Fatalf("parse date %q: %v", s, err)
	}
	return d
}

func statutoryRules(t *testing.T) []Rule {
	t.Helper()
	from := mustDate(t, "2024-01-01")
	return []Rule{
		{ID: "r1", Code: "EPF", Nationality: "local", Method: MethodPercentage,
			EmployeeRate: decimal.NewFromInt(11), EmployerRate: decimal.NewFromInt(12),
			EffectiveFrom: from, Active: true},
		{ID: "r2", Code: "SOCSO", Nationality: "local", Method: MethodPercentage,
			EmployeeRate: decimal.RequireFromString("0.5"), EmployerRate: decimal.RequireFromString("1.75"),
			EffectiveFrom: from, Active: true},
		{ID: "r3", Code: "SIP", Nationality: "local", Method: MethodPercentage,
			EmployeeRate: decimal.RequireFromString("0.2"), EmployerRate: decimal.RequireFromString("0.2"),
			EffectiveFrom: from, Active: true},
	}
}

func TestCompute_PercentageStatutorySet(t *testing.T) {
	res, err := Compute("2025-03", decimal.NewFromInt(3000), "local", statutoryRules(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if want := decimal.RequireFromString("351.00"); !res.EmployeeTotal.Equal(want) {
		t.Fatalf("employee total: want %s, got %s", want, res.EmployeeTotal)
	}
	if want := decimal.RequireFromString("418.50"); !res.EmployerTotal.Equal(want) {
		t.Fatalf("employer total: want %s, got %s", want, res.EmployerTotal)
	}
	if len(res.Breakdown) != 3 {
		t.Fatalf("expected 3 breakdown lines, got %d", len(res.Breakdown))
	}
	epf, ok := res.Breakdown["EPF"]
	if !ok {
		t.Fatalf("missing EPF breakdown line")
	}
	if want := decimal.RequireFromString("330"); !epf.EmployeeAmount.Equal(want) {
		t.Fatalf("EPF employee amount: want %s, got %s", want, epf.EmployeeAmount)
	}
	if epf.Nationality != "local" {
		t.Fatalf("expected nationality recorded on line, got %q", epf.Nationality)
	}
}

func TestCompute_IsPure(t *testing.T) {
	rules := statutoryRules(t)
	a, err := Compute("2025-03", decimal.NewFromInt(3500), "local", rules)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := Compute("2025-03", decimal.NewFromInt(3500), "local", rules)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !a.EmployeeTotal.Equal(b.EmployeeTotal) || !a.EmployerTotal.Equal(b.EmployerTotal) {
		t.Fatalf("identical inputs produced different totals: %s/%s vs %s/%s",
			a.EmployeeTotal, a.EmployerTotal, b.EmployeeTotal, b.EmployerTotal)
	}
	if want := decimal.RequireFromString("409.50"); !a.EmployeeTotal.Equal(want) {
		t.Fatalf("employee total: want %s, got %s", want, a.EmployeeTotal)
	}
}

func TestSelectActive_ExpiredRuleNeverCoversLaterMonth(t *testing.T) {
	until := mustDate(t, "2025-02-28")
	rules := []Rule{
		{ID: "old", Code: "LEVY", Nationality: NationalityAll, Method: MethodPercentage,
			EmployeeRate:  decimal.NewFromInt(1),
			EffectiveFrom: mustDate(t, "2024-01-01"), EffectiveUntil: &until, Active: true},
		{ID: "new", Code: "LEVY", Nationality: NationalityAll, Method: MethodPercentage,
			EmployeeRate:  decimal.NewFromInt(2),
			EffectiveFrom: mustDate(t, "2025-03-01"), Active: true},
	}

	got, err := SelectActive(rules, "2025-03", "local")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].ID != "new" {
		t.Fatalf("expected only the superseding rule for 2025-03, got %+v", got)
	}

	got, err = SelectActive(rules, "2025-02", "local")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].ID != "old" {
		t.Fatalf("expected only the expiring rule for 2025-02, got %+v", got)
	}
}

func TestSelectActive_NationalityScoping(t *testing.T) {
	from := mustDate(t, "2024-01-01")
	rules := []Rule{
		{ID: "a", Code: "EPF", Nationality: "local", Method: MethodPercentage, EffectiveFrom: from, Active: true},
		{ID: "b", Code: "FWL", Nationality: "foreign", Method: MethodFixed, EffectiveFrom: from, Active: true},
		{ID: "c", Code: "HRDF", Nationality: NationalityAll, Method: MethodPercentage, EffectiveFrom: from, Active: true},
	}

	got, err := SelectActive(rules, "2025-01", "local")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected local + all rules, got %+v", got)
	}
	for _, r := range got {
		if r.ID == "b" {
			t.Fatalf("foreign-only rule applied to local worker")
		}
	}
}

func TestCompute_FixedWithBrackets(t *testing.T) {
	max1 := decimal.NewFromInt(2000)
	max2 := decimal.NewFromInt(4000)
	rule := Rule{
		ID: "r", Code: "SOCSO", Nationality: NationalityAll, Method: MethodFixed,
		EffectiveFrom: mustDate(t, "2024-01-01"), Active: true,
		Brackets: []WageBracket{
			{MinWage: decimal.Zero, MaxWage: &max1,
				EmployeeAmount: decimal.RequireFromString("9.75"), EmployerAmount: decimal.RequireFromString("34.15")},
			{MinWage: max1, MaxWage: &max2,
				EmployeeAmount: decimal.RequireFromString("19.75"), EmployerAmount: decimal.RequireFromString("69.05")},
			{MinWage: max2, MaxWage: nil,
				EmployeeAmount: decimal.RequireFromString("24.75"), EmployerAmount: decimal.RequireFromString("86.65")},
		},
	}

	cases := []struct {
		gross    string
		employee string
	}{
		{"1500", "9.75"},
		{"2000", "19.75"}, // max is exclusive: boundary falls into the next bracket
		{"3999.99", "19.75"},
		{"4000", "24.75"},
		{"99999", "24.75"}, // unbounded top bracket
	}
	for _, c := range cases {
		res, err := Compute("2025-01", decimal.RequireFromString(c.gross), "local", []Rule{rule})
		if err != nil {
			t.Fatalf("gross %s: unexpected error: %v", c.gross, err)
		}
		if want := decimal.RequireFromString(c.employee); !res.EmployeeTotal.Equal(want) {
			t.Fatalf("gross %s: want employee %s, got %s", c.gross, want, res.EmployeeTotal)
		}
	}
}

func TestCompute_NoBracketMatchContributesZero(t *testing.T) {
	min := decimal.NewFromInt(1000)
	max := decimal.NewFromInt(2000)
	rule := Rule{
		ID: "r", Code: "SOCSO", Nationality: NationalityAll, Method: MethodFixed,
		EffectiveFrom: mustDate(t, "2024-01-01"), Active: true,
		Brackets: []WageBracket{
			{MinWage: min, MaxWage: &max,
				EmployeeAmount: decimal.NewFromInt(10), EmployerAmount: decimal.NewFromInt(20)},
		},
	}

	res, err := Compute("2025-01", decimal.NewFromInt(500), "local", []Rule{rule})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.EmployeeTotal.IsZero() || !res.EmployerTotal.IsZero() {
		t.Fatalf("expected zero contribution, got %s/%s", res.EmployeeTotal, res.EmployerTotal)
	}
	line, ok := res.Breakdown["SOCSO"]
	if !ok {
		t.Fatalf("expected breakdown line recorded even at zero")
	}
	if !line.EmployeeAmount.IsZero() {
		t.Fatalf("expected zero line amount, got %s", line.EmployeeAmount)
	}
}

func TestCompute_RoundsPerRuleHalfUp(t *testing.T) {
	rule := Rule{
		ID: "r", Code: "SIP", Nationality: NationalityAll, Method: MethodPercentage,
		EmployeeRate:  decimal.RequireFromString("0.5"),
		EmployerRate:  decimal.RequireFromString("0.5"),
		EffectiveFrom: mustDate(t, "2024-01-01"), Active: true,
	}

	// 0.5% of 2223 = 11.115, rounds half-up to 11.12.
	res, err := Compute("2025-01", decimal.NewFromInt(2223), "local", []Rule{rule})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := decimal.RequireFromString("11.12"); !res.EmployeeTotal.Equal(want) {
		t.Fatalf("want %s, got %s", want, res.EmployeeTotal)
	}
}

func TestMonthBounds_RejectsMalformedMonth(t *testing.T) {
	for _, m := range []string{"", "2025", "2025-3", "03-2025", "2025-13"} {
		if _, _, err := MonthBounds(m); err == nil {
			t.Fatalf("expected error for month %q", m)
		}
	}
}
