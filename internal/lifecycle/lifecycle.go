// Package lifecycle orchestrates work order transitions. Every operation runs
// as one transaction: guard check, status write, history append, and any
// settlement or reversal side effect commit together or not at all, so a work
// order is completed if and only if its ledger contribution has been applied
// exactly once.
package lifecycle

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"fieldpay/internal/history"
	"fieldpay/internal/ledger"
	"fieldpay/internal/settlement"
	"fieldpay/internal/workorder"
	"fieldpay/pkg/db"
)

type Lifecycle struct {
	DB *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Lifecycle {
	return &Lifecycle{DB: pool}
}

// CreateDraft persists a new work order in the ongoing state. No guard, no
// side effects beyond persistence.
func (l *Lifecycle) CreateDraft(ctx context.Context, p workorder.Params) (*workorder.WorkOrder, error) {
	var wo *workorder.WorkOrder
	err := db.WithTx(ctx, l.DB, func(tx pgx.Tx) error {
		var err error
		wo, err = workorder.InsertTx(ctx, tx, p)
		return err
	})
	if err != nil {
		return nil, err
	}
	return wo, nil
}

// CreateAndSubmit persists a new work order and immediately submits it. A
// failing guard rolls the whole operation back; the work order is never left
// half-created.
func (l *Lifecycle) CreateAndSubmit(ctx context.Context, p workorder.Params, actor, remarks string) (*workorder.WorkOrder, error) {
	var wo *workorder.WorkOrder
	err := db.WithTx(ctx, l.DB, func(tx pgx.Tx) error {
		created, err := workorder.InsertTx(ctx, tx, p)
		if err != nil {
			return err
		}
		wo, err = l.applyTransition(ctx, tx, created, workorder.EventSubmit, actor, remarks)
		return err
	})
	if err != nil {
		return nil, err
	}
	return wo, nil
}

// UpdateAndSubmit applies field updates and, when submit is set, attempts the
// transition matching the current state: submit from ongoing, reopen from
// amendment_required. Field updates and the transition are one atomic unit.
func (l *Lifecycle) UpdateAndSubmit(ctx context.Context, id string, p workorder.Params, submit bool, actor, remarks string) (*workorder.WorkOrder, error) {
	var out *workorder.WorkOrder
	err := db.WithTx(ctx, l.DB, func(tx pgx.Tx) error {
		wo, err := lockWorkOrder(ctx, tx, id)
		if err != nil {
			return err
		}
		if wo.Archived() {
			return workorder.NewError(workorder.KindInvalidTransition, "work order %s is archived", id)
		}
		if wo.Status == workorder.StatusCompleted {
			return workorder.NewError(workorder.KindInvalidTransition, "completed work order %s cannot be updated", id)
		}

		if err := workorder.UpdateFieldsTx(ctx, tx, id, p); err != nil {
			return err
		}
		wo.Reference = p.Reference
		wo.BlockID = p.BlockID
		wo.RateType = p.RateType
		wo.UnitRate = p.UnitRate
		wo.StartDate = p.StartDate
		if wo.Assignments, err = workorder.ReplaceAssignmentsTx(ctx, tx, id, p.Assignments); err != nil {
			return err
		}
		if wo.Items, err = workorder.ReplaceItemsTx(ctx, tx, id, p.Items); err != nil {
			return err
		}

		if !submit {
			out = wo
			return nil
		}

		var ev workorder.Event
		switch wo.Status {
		case workorder.StatusOngoing:
			ev = workorder.EventSubmit
		case workorder.StatusAmendmentRequired:
			ev = workorder.EventReopen
		default:
			return workorder.NewError(workorder.KindInvalidTransition, "cannot submit work order %s from status %s", id, wo.Status)
		}
		out, err = l.applyTransition(ctx, tx, wo, ev, actor, remarks)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// AttemptTransition runs one lifecycle event against a work order. Expected
// domain failures (guard violations, illegal events, unknown ids) come back as
// tagged errors with no state change.
func (l *Lifecycle) AttemptTransition(ctx context.Context, id string, ev workorder.Event, actor, remarks string) (*workorder.WorkOrder, error) {
	var out *workorder.WorkOrder
	err := db.WithTx(ctx, l.DB, func(tx pgx.Tx) error {
		wo, err := lockWorkOrder(ctx, tx, id)
		if err != nil {
			return err
		}
		out, err = l.applyTransition(ctx, tx, wo, ev, actor, remarks)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func lockWorkOrder(ctx context.Context, tx pgx.Tx, id string) (*workorder.WorkOrder, error) {
	wo, err := workorder.GetForUpdateTx(ctx, tx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, workorder.NewError(workorder.KindNotFound, "work order %s not found", id)
		}
		return nil, err
	}
	return wo, nil
}

func (l *Lifecycle) applyTransition(ctx context.Context, tx pgx.Tx, wo *workorder.WorkOrder, ev workorder.Event, actor, remarks string) (*workorder.WorkOrder, error) {
	if ev == workorder.EventArchive {
		return l.archive(ctx, tx, wo, actor, remarks)
	}
	if wo.Archived() {
		return nil, workorder.NewError(workorder.KindInvalidTransition, "work order %s is archived", wo.ID)
	}

	next, ok := workorder.NextStatus(wo.Status, ev)
	if !ok {
		return nil, workorder.NewError(workorder.KindInvalidTransition, "event %s is not legal from status %s", ev, wo.Status)
	}
	if workorder.Guarded(ev) && !wo.GuardSatisfied() {
		return nil, workorder.NewError(workorder.KindGuardViolation,
			"work order %s needs at least one worker assignment or item usage before submission", wo.ID)
	}

	from := wo.Status
	snapshot := map[string]any{
		"rateType":    wo.RateType,
		"unitRate":    wo.UnitRate,
		"assignments": len(wo.Assignments),
		"items":       len(wo.Items),
	}

	if ev == workorder.EventApprove {
		now := time.Now()
		month := now.Format("2006-01")
		if err := workorder.SetCompletionTx(ctx, tx, wo.ID, month, actor, now); err != nil {
			return nil, err
		}
		wo.CompletionMonth = &month
		wo.ApprovedBy = &actor
		wo.ApprovedAt = &now

		outcome, err := settlement.Settle(ctx, ledger.TxPoster{Tx: tx}, wo)
		if err != nil {
			return nil, err
		}
		snapshot["settlement"] = outcome.Message
		snapshot["completionMonth"] = month
	}

	if err := workorder.UpdateStatusTx(ctx, tx, wo.ID, next); err != nil {
		return nil, err
	}
	wo.Status = next

	if err := history.Insert(ctx, tx, wo.ID, string(from), string(next), string(ev), actor, remarks, snapshot); err != nil {
		return nil, err
	}
	return wo, nil
}

// archive soft-deletes the work order and reverses any settled earnings in the
// same transaction. Repeating it on an already archived order is a no-op
// success, and reversal tolerates "nothing to undo".
func (l *Lifecycle) archive(ctx context.Context, tx pgx.Tx, wo *workorder.WorkOrder, actor, remarks string) (*workorder.WorkOrder, error) {
	if wo.Archived() {
		return wo, nil
	}

	outcome, err := settlement.Reverse(ctx, ledger.TxPoster{Tx: tx}, wo)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if err := workorder.SetArchivedTx(ctx, tx, wo.ID, now); err != nil {
		return nil, err
	}
	wo.ArchivedAt = &now

	snapshot := map[string]any{
		"rateType":    wo.RateType,
		"assignments": len(wo.Assignments),
		"reversal":    outcome.Message,
	}
	if wo.CompletionMonth != nil {
		snapshot["completionMonth"] = *wo.CompletionMonth
	}
	if err := history.Insert(ctx, tx, wo.ID, string(wo.Status), string(wo.Status), string(workorder.EventArchive), actor, remarks, snapshot); err != nil {
		return nil, err
	}
	return wo, nil
}
