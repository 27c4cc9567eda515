package history

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Record is one immutable audit row per lifecycle transition. Rows are only
// ever inserted; there is no update or delete path.
type Record struct {
	ID          string          `json:"id"`
	WorkOrderID string          `json:"workOrderId"`
	FromStatus  string          `json:"fromStatus"`
	ToStatus    string          `json:"toStatus"`
	Action      string          `json:"action"`
	Actor       string          `json:"actor"`
	Remarks     string          `json:"remarks,omitempty"`
	Snapshot    json.RawMessage `json:"snapshot,omitempty"`
	OccurredAt  time.Time       `json:"occurredAt"`
}

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Insert appends a transition record inside the transition's own transaction,
// so history and status change commit or roll back together.
func Insert(ctx context.Context, tx pgx.Tx, workOrderID, fromStatus, toStatus, action, actor, remarks string, snapshot any) error {
	var s *string
	if snapshot != nil {
		b, _ := json.Marshal(snapshot)
		str := string(b)
		s = &str
	}
	const q = `
INSERT INTO work_order_history (id, work_order_id, from_status, to_status, action, actor, remarks, snapshot)
VALUES ($1, $2, $3, $4, $5, $6, $7, CAST($8 AS jsonb))
`
	_, err := tx.Exec(ctx, q, uuid.NewString(), workOrderID, fromStatus, toStatus, action, actor, remarks, s)
	return err
}

func (r *Repository) ListByWorkOrder(ctx context.Context, workOrderID string) ([]Record, error) {
	const q = `
SELECT id, work_order_id, from_status, to_status, action, actor, COALESCE(remarks, ''),
       COALESCE(snapshot, '{}'::jsonb), occurred_at
FROM work_order_history
WHERE work_order_id = $1
ORDER BY occurred_at ASC, id ASC
`
	rows, err := r.db.Query(ctx, q, workOrderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var (
			rec      Record
			snapshot []byte
		)
		if err := rows.Scan(
			&rec.ID, &rec.WorkOrderID, &rec.FromStatus, &rec.ToStatus, &rec.Action,
			&rec.Actor, &rec.Remarks, &snapshot, &rec.OccurredAt,
		); err != nil {
			return nil, err
		}
		rec.Snapshot = json.RawMessage(snapshot)
		out = append(out, rec)
	}
	return out, rows.Err()
}
