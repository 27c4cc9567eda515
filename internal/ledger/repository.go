package ledger

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
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

func (r *Repository) GetLedger(ctx context.Context, month string) (*Ledger, error) {
	const q = `
SELECT id, month,
       total_gross::text, total_employee_deduction::text, total_employer_deduction::text, total_net::text,
       created_at, updated_at
FROM monthly_ledgers
WHERE month = $1
`
	var (
		l                              Ledger
		gross, employee, employer, net string
	)
	if err := r.db.QueryRow(ctx, q, month).Scan(
		&l.ID, &l.Month, &gross, &employee, &employer, &net, &l.CreatedAt, &l.UpdatedAt,
	); err != nil {
		return nil, err
	}
	var err error
	if l.TotalGross, err = decimal.NewFromString(gross); err != nil {
		return nil, err
	}
	if l.TotalEmployee, err = decimal.NewFromString(employee); err != nil {
		return nil, err
	}
	if l.TotalEmployer, err = decimal.NewFromString(employer); err != nil {
		return nil, err
	}
	if l.TotalNet, err = decimal.NewFromString(net); err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *Repository) GetEntry(ctx context.Context, month, workerID string) (*Entry, error) {
	const q = entrySelect + `
WHERE l.month = $1 AND e.worker_id = $2
`
	row := r.db.QueryRow(ctx, q, month, workerID)
	return scanEntry(row)
}

func (r *Repository) ListEntries(ctx context.Context, month string) ([]Entry, error) {
	const q = entrySelect + `
WHERE l.month = $1
ORDER BY e.worker_id
`
	rows, err := r.db.Query(ctx, q, month)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

const entrySelect = `
SELECT e.id, e.ledger_id, e.worker_id, e.nationality,
       e.gross_salary::text, e.employee_deduction::text, e.employer_deduction::text,
       e.deduction_breakdown, e.net_salary::text, e.created_at, e.updated_at
FROM ledger_entries e
JOIN monthly_ledgers l ON l.id = e.ledger_id
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*Entry, error) {
	var (
		e                              Entry
		gross, employee, employer, net string
		breakdown                      []byte
	)
	if err := row.Scan(
		&e.ID, &e.LedgerID, &e.WorkerID, &e.Nationality,
		&gross, &employee, &employer, &breakdown, &net, &e.CreatedAt, &e.UpdatedAt,
	); err != nil {
		return nil, err
	}
	var err error
	if e.Gross, err = decimal.NewFromString(gross); err != nil {
		return nil, err
	}
	if e.EmployeeDeduction, err = decimal.NewFromString(employee); err != nil {
		return nil, err
	}
	if e.EmployerDeduction, err = decimal.NewFromString(employer); err != nil {
		return nil, err
	}
	if e.Net, err = decimal.NewFromString(net); err != nil {
		return nil, err
	}
	if len(breakdown) > 0 {
		if err := json.Unmarshal(breakdown, &e.Breakdown); err != nil {
			return nil, err
		}
	}
	return &e, nil
}

// EnsureLedgerTx creates the month's ledger on first contribution and returns
// its id either way. Both the insert and the conflict update take the ledger
// row lock, so contributions serialize with every other mutation of the month.
func EnsureLedgerTx(ctx context.Context, tx pgx.Tx, month string) (string, error) {
	const q = `
INSERT INTO monthly_ledgers (id, month)
VALUES ($1, $2)
ON CONFLICT (month) DO UPDATE SET updated_at = NOW()
RETURNING id
`
	var id string
	if err := tx.QueryRow(ctx, q, uuid.NewString(), month).Scan(&id); err != nil {
		return "", err
	}
	return id, nil
}

// GetLedgerIDForUpdateTx locks the month's ledger row for the transaction.
// Retractions take this lock before touching entries; without it, deleting the
// month's last entry could race a concurrent contribution for another worker
// and cascade the freshly committed entry away with the ledger, or leave an
// empty ledger behind when two retractions count each other's rows.
func GetLedgerIDForUpdateTx(ctx context.Context, tx pgx.Tx, month string) (string, error) {
	const q = `SELECT id FROM monthly_ledgers WHERE month = $1 FOR UPDATE`
	var id string
	if err := tx.QueryRow(ctx, q, month).Scan(&id); err != nil {
		return "", err
	}
	return id, nil
}

// GetEntryForUpdateTx locks the (ledger, worker) entry row for the duration of
// the transaction. Concurrent settlements for the same worker/month serialize
// here so no increment is lost.
func GetEntryForUpdateTx(ctx context.Context, tx pgx.Tx, ledgerID, workerID string) (*Entry, error) {
	const q = `
SELECT id, ledger_id, worker_id, nationality,
       gross_salary::text, employee_deduction::text, employer_deduction::text,
       deduction_breakdown, net_salary::text, created_at, updated_at
FROM ledger_entries
WHERE ledger_id = $1 AND worker_id = $2
FOR UPDATE
`
	row := tx.QueryRow(ctx, q, ledgerID, workerID)
	return scanEntry(row)
}

func InsertEntryTx(ctx context.Context, tx pgx.Tx, e Entry) error {
	breakdown, err := json.Marshal(e.Breakdown)
	if err != nil {
		return err
	}
	const q = `
INSERT INTO ledger_entries
  (id, ledger_id, worker_id, nationality, gross_salary, employee_deduction, employer_deduction, deduction_breakdown, net_salary)
VALUES ($1, $2, $3, $4, $5, $6, $7, CAST($8 AS jsonb), $9)
`
	_, err = tx.Exec(ctx, q,
		e.ID, e.LedgerID, e.WorkerID, e.Nationality,
		e.Gross.String(), e.EmployeeDeduction.String(), e.EmployerDeduction.String(),
		string(breakdown), e.Net.String(),
	)
	return err
}

func UpdateEntryTx(ctx context.Context, tx pgx.Tx, e Entry) error {
	breakdown, err := json.Marshal(e.Breakdown)
	if err != nil {
		return err
	}
	const q = `
UPDATE ledger_entries
SET gross_salary = $2,
    employee_deduction = $3,
    employer_deduction = $4,
    deduction_breakdown = CAST($5 AS jsonb),
    net_salary = $6,
    updated_at = NOW()
WHERE id = $1
`
	_, err = tx.Exec(ctx, q,
		e.ID, e.Gross.String(), e.EmployeeDeduction.String(), e.EmployerDeduction.String(),
		string(breakdown), e.Net.String(),
	)
	return err
}

func DeleteEntryTx(ctx context.Context, tx pgx.Tx, entryID string) error {
	const q = `DELETE FROM ledger_entries WHERE id = $1`
	_, err := tx.Exec(ctx, q, entryID)
	return err
}

func CountEntriesTx(ctx context.Context, tx pgx.Tx, ledgerID string) (int, error) {
	const q = `SELECT COUNT(*) FROM ledger_entries WHERE ledger_id = $1`
	var n int
	if err := tx.QueryRow(ctx, q, ledgerID).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func DeleteLedgerTx(ctx context.Context, tx pgx.Tx, ledgerID string) error {
	const q = `DELETE FROM monthly_ledgers WHERE id = $1`
	_, err := tx.Exec(ctx, q, ledgerID)
	return err
}

// RefreshTotalsTx recomputes the ledger's cached aggregates from its surviving
// entries.
func RefreshTotalsTx(ctx context.Context, tx pgx.Tx, ledgerID string) error {
	const q = `
UPDATE monthly_ledgers l
SET total_gross = t.gross,
    total_employee_deduction = t.employee,
    total_employer_deduction = t.employer,
    total_net = t.net,
    updated_at = NOW()
FROM (
  SELECT COALESCE(SUM(gross_salary), 0) AS gross,
         COALESCE(SUM(employee_deduction), 0) AS employee,
         COALESCE(SUM(employer_deduction), 0) AS employer,
         COALESCE(SUM(net_salary), 0) AS net
  FROM ledger_entries
  WHERE ledger_id = $1
) t
WHERE l.id = $1
`
	_, err := tx.Exec(ctx, q, ledgerID)
	return err
}
