package ledger

import (
	"context"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
)

type stubRow struct {
	id string
}

func (r stubRow) Scan(dest ...any) error {
	if p, ok := dest[0].(*string); ok {
		*p = r.id
	}
	return nil
}

// recordingTx captures the SQL issued through QueryRow. The embedded pgx.Tx is
// never touched.
type recordingTx struct {
	pgx.Tx
	lastSQL string
}

func (t *recordingTx) QueryRow(_ context.Context, sql string, _ ...any) pgx.Row {
	t.lastSQL = sql
	return stubRow{id: "led-1"}
}

// Retractions resolve the month through this lookup before touching entries, so
// it has to take the ledger row lock: without it, deleting the month's last
// entry races a concurrent contribution for another worker and the ledger
// cascade erases the freshly committed entry.
func TestGetLedgerIDForUpdate_LocksLedgerRow(t *testing.T) {
	tx := &recordingTx{}
	id, err := GetLedgerIDForUpdateTx(context.Background(), tx, "2025-03")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "led-1" {
		t.Fatalf("want ledger id led-1, got %s", id)
	}
	if !strings.Contains(tx.lastSQL, "FOR UPDATE") {
		t.Fatalf("month lookup must lock the ledger row, got query: %s", tx.lastSQL)
	}
}
