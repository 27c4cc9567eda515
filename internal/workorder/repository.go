package workorder

import (
	"context"
	"time"

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

type ListItem struct {
	ID              string    `json:"id"`
	Reference       string    `json:"reference"`
	BlockID         string    `json:"blockId"`
	Status          Status    `json:"status"`
	RateType        RateType  `json:"rateType"`
	UnitRate        string    `json:"unitRate"`
	StartDate       time.Time `json:"startDate"`
	CompletionMonth *string   `json:"completionMonth,omitempty"`
	AssignmentCount int       `json:"assignmentCount"`
	ItemCount       int       `json:"itemCount"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

func (r *Repository) List(ctx context.Context, includeArchived bool) ([]ListItem, error) {
	const q = `
SELECT w.id, w.reference, w.block_id, w.status, w.rate_type, w.unit_rate::text,
       w.start_date, w.completion_month,
       (SELECT COUNT(*) FROM work_order_assignments a WHERE a.work_order_id = w.id),
       (SELECT COUNT(*) FROM work_order_items i WHERE i.work_order_id = w.id),
       w.created_at, w.updated_at
FROM work_orders w
WHERE $1 OR w.archived_at IS NULL
ORDER BY w.created_at DESC
`
	rows, err := r.db.Query(ctx, q, includeArchived)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ListItem
	for rows.Next() {
		var it ListItem
		if err := rows.Scan(
			&it.ID, &it.Reference, &it.BlockID, &it.Status, &it.RateType, &it.UnitRate,
			&it.StartDate, &it.CompletionMonth, &it.AssignmentCount, &it.ItemCount,
			&it.CreatedAt, &it.UpdatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func (r *Repository) GetByID(ctx context.Context, id string) (*WorkOrder, error) {
	const q = workOrderSelect + `
WHERE id = $1
`
	wo, err := scanWorkOrder(r.db.QueryRow(ctx, q, id))
	if err != nil {
		return nil, err
	}
	wo.Assignments, err = loadAssignments(ctx, r.db, wo.ID)
	if err != nil {
		return nil, err
	}
	wo.Items, err = loadItems(ctx, r.db, wo.ID)
	if err != nil {
		return nil, err
	}
	return wo, nil
}

const workOrderSelect = `
SELECT id, reference, block_id, status, rate_type, unit_rate::text, start_date,
       completion_month, approved_by, approved_at, archived_at, created_at, updated_at
FROM work_orders
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanWorkOrder(row rowScanner) (*WorkOrder, error) {
	var (
		wo       WorkOrder
		unitRate string
	)
	if err := row.Scan(
		&wo.ID, &wo.Reference, &wo.BlockID, &wo.Status, &wo.RateType, &unitRate, &wo.StartDate,
		&wo.CompletionMonth, &wo.ApprovedBy, &wo.ApprovedAt, &wo.ArchivedAt,
		&wo.CreatedAt, &wo.UpdatedAt,
	); err != nil {
		return nil, err
	}
	var err error
	if wo.UnitRate, err = decimal.NewFromString(unitRate); err != nil {
		return nil, err
	}
	return &wo, nil
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func loadAssignments(ctx context.Context, q querier, workOrderID string) ([]Assignment, error) {
	const sql = `
SELECT id, work_order_id, worker_id, rate::text, quantity::text, contribution::text
FROM work_order_assignments
WHERE work_order_id = $1
ORDER BY worker_id
`
	rows, err := q.Query(ctx, sql, workOrderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Assignment
	for rows.Next() {
		var (
			a                       Assignment
			rate, quantity, contrib string
		)
		if err := rows.Scan(&a.ID, &a.WorkOrderID, &a.WorkerID, &rate, &quantity, &contrib); err != nil {
			return nil, err
		}
		if a.Rate, err = decimal.NewFromString(rate); err != nil {
			return nil, err
		}
		if a.Quantity, err = decimal.NewFromString(quantity); err != nil {
			return nil, err
		}
		if a.Contribution, err = decimal.NewFromString(contrib); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func loadItems(ctx context.Context, q querier, workOrderID string) ([]ItemUsage, error) {
	const sql = `
SELECT id, work_order_id, item_code, quantity::text, unit_price::text
FROM work_order_items
WHERE work_order_id = $1
ORDER BY item_code
`
	rows, err := q.Query(ctx, sql, workOrderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ItemUsage
	for rows.Next() {
		var (
			it                  ItemUsage
			quantity, unitPrice string
		)
		if err := rows.Scan(&it.ID, &it.WorkOrderID, &it.ItemCode, &quantity, &unitPrice); err != nil {
			return nil, err
		}
		if it.Quantity, err = decimal.NewFromString(quantity); err != nil {
			return nil, err
		}
		if it.UnitPrice, err = decimal.NewFromString(unitPrice); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// InsertTx persists a new work order in the ongoing state with its assignments
// and items.
func InsertTx(ctx context.Context, tx pgx.Tx, p Params) (*WorkOrder, error) {
	const q = `
INSERT INTO work_orders (id, reference, block_id, status, rate_type, unit_rate, start_date)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id, reference, block_id, status, rate_type, unit_rate::text, start_date,
          completion_month, approved_by, approved_at, archived_at, created_at, updated_at
`
	row := tx.QueryRow(ctx, q,
		uuid.NewString(), p.Reference, p.BlockID, string(StatusOngoing),
		string(p.RateType), p.UnitRate.String(), p.StartDate,
	)
	wo, err := scanWorkOrder(row)
	if err != nil {
		return nil, err
	}
	if wo.Assignments, err = ReplaceAssignmentsTx(ctx, tx, wo.ID, p.Assignments); err != nil {
		return nil, err
	}
	if wo.Items, err = ReplaceItemsTx(ctx, tx, wo.ID, p.Items); err != nil {
		return nil, err
	}
	return wo, nil
}

// GetForUpdateTx locks the work order row for the transaction and loads its
// assignments and items.
func GetForUpdateTx(ctx context.Context, tx pgx.Tx, id string) (*WorkOrder, error) {
	const q = workOrderSelect + `
WHERE id = $1
FOR UPDATE
`
	wo, err := scanWorkOrder(tx.QueryRow(ctx, q, id))
	if err != nil {
		return nil, err
	}
	if wo.Assignments, err = loadAssignments(ctx, tx, wo.ID); err != nil {
		return nil, err
	}
	if wo.Items, err = loadItems(ctx, tx, wo.ID); err != nil {
		return nil, err
	}
	return wo, nil
}

// UpdateFieldsTx applies editable field updates; lifecycle fields (status,
// completion, archive) have dedicated writers.
func UpdateFieldsTx(ctx context.Context, tx pgx.Tx, id string, p Params) error {
	const q = `
UPDATE work_orders
SET reference = $2,
    block_id = $3,
    rate_type = $4,
    unit_rate = $5,
    start_date = $6,
    updated_at = NOW()
WHERE id = $1
`
	_, err := tx.Exec(ctx, q, id, p.Reference, p.BlockID, string(p.RateType), p.UnitRate.String(), p.StartDate)
	return err
}

// ReplaceAssignmentsTx rewrites the assignment set, recomputing each
// contribution as rate * quantity at write time.
func ReplaceAssignmentsTx(ctx context.Context, tx pgx.Tx, workOrderID string, params []AssignmentParams) ([]Assignment, error) {
	if _, err := tx.Exec(ctx, `DELETE FROM work_order_assignments WHERE work_order_id = $1`, workOrderID); err != nil {
		return nil, err
	}
	const q = `
INSERT INTO work_order_assignments (id, work_order_id, worker_id, rate, quantity, contribution)
VALUES ($1, $2, $3, $4, $5, $6)
`
	out := make([]Assignment, 0, len(params))
	for _, p := range params {
		a := Assignment{
			ID:           uuid.NewString(),
			WorkOrderID:  workOrderID,
			WorkerID:     p.WorkerID,
			Rate:         p.Rate,
			Quantity:     p.Quantity,
			Contribution: p.Rate.Mul(p.Quantity).Round(2),
		}
		if _, err := tx.Exec(ctx, q,
			a.ID, a.WorkOrderID, a.WorkerID, a.Rate.String(), a.Quantity.String(), a.Contribution.String(),
		); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

func ReplaceItemsTx(ctx context.Context, tx pgx.Tx, workOrderID string, params []ItemParams) ([]ItemUsage, error) {
	if _, err := tx.Exec(ctx, `DELETE FROM work_order_items WHERE work_order_id = $1`, workOrderID); err != nil {
		return nil, err
	}
	const q = `
INSERT INTO work_order_items (id, work_order_id, item_code, quantity, unit_price)
VALUES ($1, $2, $3, $4, $5)
`
	out := make([]ItemUsage, 0, len(params))
	for _, p := range params {
		it := ItemUsage{
			ID:          uuid.NewString(),
			WorkOrderID: workOrderID,
			ItemCode:    p.ItemCode,
			Quantity:    p.Quantity,
			UnitPrice:   p.UnitPrice,
		}
		if _, err := tx.Exec(ctx, q,
			it.ID, it.WorkOrderID, it.ItemCode, it.Quantity.String(), it.UnitPrice.String(),
		); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, nil
}

func UpdateStatusTx(ctx context.Context, tx pgx.Tx, id string, next Status) error {
	const q = `
UPDATE work_orders
SET status = $2, updated_at = NOW()
WHERE id = $1
`
	_, err := tx.Exec(ctx, q, id, string(next))
	return err
}

// SetCompletionTx stamps approver identity and the completion month. The month
// never changes afterwards.
func SetCompletionTx(ctx context.Context, tx pgx.Tx, id, month, approvedBy string, approvedAt time.Time) error {
	const q = `
UPDATE work_orders
SET completion_month = $2,
    approved_by = $3,
    approved_at = $4,
    updated_at = NOW()
WHERE id = $1
`
	_, err := tx.Exec(ctx, q, id, month, approvedBy, approvedAt)
	return err
}

func SetArchivedTx(ctx context.Context, tx pgx.Tx, id string, archivedAt time.Time) error {
	const q = `
UPDATE work_orders
SET archived_at = $2, updated_at = NOW()
WHERE id = $1
`
	_, err := tx.Exec(ctx, q, id, archivedAt)
	return err
}
