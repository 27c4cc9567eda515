package deduction

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// ActiveRules loads every active rule with its wage brackets. Month/nationality
// filtering happens in SelectActive/Compute so recomputation stays pure.
func (r *Repository) ActiveRules(ctx context.Context) ([]Rule, error) {
	return activeRules(ctx, r.db)
}

// ActiveRulesTx is the transaction-scoped variant used during settlement so the
// rule snapshot is read under the same isolation as the ledger writes.
func ActiveRulesTx(ctx context.Context, tx pgx.Tx) ([]Rule, error) {
	return activeRules(ctx, tx)
}

func activeRules(ctx context.Context, q querier) ([]Rule, error) {
	const qRules = `
SELECT id, code, nationality, method,
       employee_rate::text, employer_rate::text,
       employee_amount::text, employer_amount::text,
       effective_from, effective_until, active
FROM deduction_rules
WHERE active = TRUE
ORDER BY code, effective_from
`
	rows, err := q.Query(ctx, qRules)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Rule
	byID := map[string]int{}
	for rows.Next() {
		var (
			r                              Rule
			method                         string
			empRate, erRate, empAmt, erAmt string
			until                          *time.Time
		)
		if err := rows.Scan(
			&r.ID, &r.Code, &r.Nationality, &method,
			&empRate, &erRate, &empAmt, &erAmt,
			&r.EffectiveFrom, &until, &r.Active,
		); err != nil {
			return nil, err
		}
		r.Method = Method(method)
		r.EffectiveUntil = until
		if r.EmployeeRate, err = decimal.NewFromString(empRate); err != nil {
			return nil, err
		}
		if r.EmployerRate, err = decimal.NewFromString(erRate); err != nil {
			return nil, err
		}
		if r.EmployeeAmount, err = decimal.NewFromString(empAmt); err != nil {
			return nil, err
		}
		if r.EmployerAmount, err = decimal.NewFromString(erAmt); err != nil {
			return nil, err
		}
		byID[r.ID] = len(out)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	const qBrackets = `
SELECT b.deduction_rule_id,
       b.min_wage::text, b.max_wage::text,
       b.employee_amount::text, b.employer_amount::text
FROM wage_brackets b
JOIN deduction_rules r ON r.id = b.deduction_rule_id
WHERE r.active = TRUE
ORDER BY b.deduction_rule_id, b.min_wage
`
	brows, err := q.Query(ctx, qBrackets)
	if err != nil {
		return nil, err
	}
	defer brows.Close()

	for brows.Next() {
		var (
			ruleID                 string
			minWage, empAmt, erAmt string
			maxWage                *string
			b                      WageBracket
		)
		if err := brows.Scan(&ruleID, &minWage, &maxWage, &empAmt, &erAmt); err != nil {
			return nil, err
		}
		if b.MinWage, err = decimal.NewFromString(minWage); err != nil {
			return nil, err
		}
		if maxWage != nil {
			mw, err := decimal.NewFromString(*maxWage)
			if err != nil {
				return nil, err
			}
			b.MaxWage = &mw
		}
		if b.EmployeeAmount, err = decimal.NewFromString(empAmt); err != nil {
			return nil, err
		}
		if b.EmployerAmount, err = decimal.NewFromString(erAmt); err != nil {
			return nil, err
		}
		if i, ok := byID[ruleID]; ok {
			out[i].Brackets = append(out[i].Brackets, b)
		}
	}
	return out, brows.Err()
}
