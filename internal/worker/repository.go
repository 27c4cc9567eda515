package worker

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

func (r *Repository) GetByID(ctx context.Context, workerID string) (*Worker, error) {
	const q = `
SELECT id, full_name, nationality, active, created_at
FROM workers
WHERE id = $1
`
	var w Worker
	if err := r.db.QueryRow(ctx, q, workerID).Scan(
		&w.ID, &w.FullName, &w.Nationality, &w.Active, &w.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &w, nil
}

// NationalityTx reads a worker's nationality class inside the settlement
// transaction.
func NationalityTx(ctx context.Context, tx pgx.Tx, workerID string) (string, error) {
	const q = `SELECT nationality FROM workers WHERE id = $1`
	var nationality string
	if err := tx.QueryRow(ctx, q, workerID).Scan(&nationality); err != nil {
		return "", err
	}
	return nationality, nil
}
