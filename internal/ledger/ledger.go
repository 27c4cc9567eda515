package ledger

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"fieldpay/internal/deduction"
	"fieldpay/internal/worker"
)

// Contribute adds amount to the (month, worker) entry's gross, creating the
// monthly ledger and the entry on first contribution, then recomputes
// deductions for the new gross and refreshes the ledger's cached totals. Must
// run inside the same transaction as the status change it settles; the entry
// row stays locked until commit.
func Contribute(ctx context.Context, tx pgx.Tx, month, workerID string, amount decimal.Decimal) error {
	ledgerID, err := EnsureLedgerTx(ctx, tx, month)
	if err != nil {
		return err
	}

	rules, err := deduction.ActiveRulesTx(ctx, tx)
	if err != nil {
		return err
	}

	entry, err := GetEntryForUpdateTx(ctx, tx, ledgerID, workerID)
	created := false
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return err
		}
		nationality, err := worker.NationalityTx(ctx, tx, workerID)
		if err != nil {
			return err
		}
		entry = &Entry{
			ID:          uuid.NewString(),
			LedgerID:    ledgerID,
			WorkerID:    workerID,
			Nationality: nationality,
			Gross:       decimal.Zero,
		}
		created = true
	}

	next, remove, err := applyDelta(*entry, month, amount, rules)
	if err != nil {
		return err
	}
	if remove {
		// A zero or negative contribution that empties the entry; treat like a
		// retraction of everything.
		if !created {
			if err := DeleteEntryTx(ctx, tx, entry.ID); err != nil {
				return err
			}
		}
		return finishAfterRemoval(ctx, txCloser{tx: tx}, ledgerID)
	}

	if created {
		if err := InsertEntryTx(ctx, tx, next); err != nil {
			return err
		}
	} else {
		if err := UpdateEntryTx(ctx, tx, next); err != nil {
			return err
		}
	}
	return RefreshTotalsTx(ctx, tx, ledgerID)
}

// Retract subtracts amount from the (month, worker) entry's gross. An entry
// whose gross drops to zero is deleted, and a ledger left without entries is
// deleted too. A missing ledger or entry is a tolerated no-op: reversal must
// accept "nothing to undo". The ledger row is locked first so retractions
// serialize with concurrent contributions to the same month.
func Retract(ctx context.Context, tx pgx.Tx, month, workerID string, amount decimal.Decimal) error {
	ledgerID, err := GetLedgerIDForUpdateTx(ctx, tx, month)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		return err
	}

	entry, err := GetEntryForUpdateTx(ctx, tx, ledgerID, workerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		return err
	}

	rules, err := deduction.ActiveRulesTx(ctx, tx)
	if err != nil {
		return err
	}

	next, remove, err := applyDelta(*entry, month, amount.Neg(), rules)
	if err != nil {
		return err
	}
	if remove {
		if err := DeleteEntryTx(ctx, tx, entry.ID); err != nil {
			return err
		}
		return finishAfterRemoval(ctx, txCloser{tx: tx}, ledgerID)
	}

	if err := UpdateEntryTx(ctx, tx, next); err != nil {
		return err
	}
	return RefreshTotalsTx(ctx, tx, ledgerID)
}

// Recalculate re-derives deductions from the entry's current gross without
// touching it. Administrative correction path, bypasses the normal
// accumulation discipline.
func Recalculate(ctx context.Context, tx pgx.Tx, month, workerID string) (*Entry, error) {
	ledgerID, err := GetLedgerIDForUpdateTx(ctx, tx, month)
	if err != nil {
		return nil, err
	}
	entry, err := GetEntryForUpdateTx(ctx, tx, ledgerID, workerID)
	if err != nil {
		return nil, err
	}
	rules, err := deduction.ActiveRulesTx(ctx, tx)
	if err != nil {
		return nil, err
	}

	next, _, err := applyDelta(*entry, month, decimal.Zero, rules)
	if err != nil {
		return nil, err
	}
	if err := UpdateEntryTx(ctx, tx, next); err != nil {
		return nil, err
	}
	if err := RefreshTotalsTx(ctx, tx, ledgerID); err != nil {
		return nil, err
	}
	return &next, nil
}

// monthCloser is the slice of transaction operations finishAfterRemoval needs,
// split out so the delete-ledger-when-empty decision can be exercised without a
// database. The production implementation is txCloser.
type monthCloser interface {
	CountEntries(ctx context.Context, ledgerID string) (int, error)
	DeleteLedger(ctx context.Context, ledgerID string) error
	RefreshTotals(ctx context.Context, ledgerID string) error
}

type txCloser struct {
	tx pgx.Tx
}

func (c txCloser) CountEntries(ctx context.Context, ledgerID string) (int, error) {
	return CountEntriesTx(ctx, c.tx, ledgerID)
}

func (c txCloser) DeleteLedger(ctx context.Context, ledgerID string) error {
	return DeleteLedgerTx(ctx, c.tx, ledgerID)
}

func (c txCloser) RefreshTotals(ctx context.Context, ledgerID string) error {
	return RefreshTotalsTx(ctx, c.tx, ledgerID)
}

// finishAfterRemoval runs after an entry deletion, with the ledger row already
// locked: a ledger left without entries is deleted, a surviving one has its
// cached totals refreshed.
func finishAfterRemoval(ctx context.Context, c monthCloser, ledgerID string) error {
	n, err := c.CountEntries(ctx, ledgerID)
	if err != nil {
		return err
	}
	if n == 0 {
		return c.DeleteLedger(ctx, ledgerID)
	}
	return c.RefreshTotals(ctx, ledgerID)
}

// TxPoster binds Contribute/Retract to one transaction so the settlement and
// reversal processors can post against the ledger without knowing about pgx.
type TxPoster struct {
	Tx pgx.Tx
}

func (p TxPoster) Contribute(ctx context.Context, month, workerID string, amount decimal.Decimal) error {
	return Contribute(ctx, p.Tx, month, workerID, amount)
}

func (p TxPoster) Retract(ctx context.Context, month, workerID string, amount decimal.Decimal) error {
	return Retract(ctx, p.Tx, month, workerID, amount)
}
