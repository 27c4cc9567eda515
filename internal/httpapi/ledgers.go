package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"fieldpay/internal/adminaction"
	"fieldpay/internal/api"
	"fieldpay/internal/deduction"
	"fieldpay/internal/ledger"
	"fieldpay/pkg/db"
)

type LedgerHandlers struct {
	DB      *pgxpool.Pool
	Ledgers *ledger.Repository
}

func (h LedgerHandlers) Get(w http.ResponseWriter, r *http.Request) {
	month := chi.URLParam(r, "month")
	if _, _, err := deduction.MonthBounds(month); err != nil {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid month, expected YYYY-MM")
		return
	}

	l, err := h.Ledgers.GetLedger(r.Context(), month)
	if err != nil {
		api.WriteError(w, http.StatusNotFound, "NOT_FOUND", "no ledger for month")
		return
	}
	entries, err := h.Ledgers.ListEntries(r.Context(), month)
	if err != nil {
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}
	if entries == nil {
		entries = []ledger.Entry{}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"ledger": l, "entries": entries})
}

func (h LedgerHandlers) GetEntry(w http.ResponseWriter, r *http.Request) {
	month := chi.URLParam(r, "month")
	workerID := chi.URLParam(r, "workerId")
	if _, _, err := deduction.MonthBounds(month); err != nil {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid month, expected YYYY-MM")
		return
	}

	entry, err := h.Ledgers.GetEntry(r.Context(), month, workerID)
	if err != nil {
		api.WriteError(w, http.StatusNotFound, "NOT_FOUND", "ledger entry not found")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"entry": entry})
}

type recalculateRequest struct {
	Reason string `json:"reason"`
}

// Recalculate re-derives one entry's deductions from its current gross. Manual
// correction path; every use is recorded as an admin action.
func (h LedgerHandlers) Recalculate(w http.ResponseWriter, r *http.Request) {
	actor := api.ActorFromContext(r.Context())
	if actor == nil {
		api.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing actor identity")
		return
	}

	month := chi.URLParam(r, "month")
	workerID := chi.URLParam(r, "workerId")
	if _, _, err := deduction.MonthBounds(month); err != nil {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid month, expected YYYY-MM")
		return
	}

	var req recalculateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid json")
		return
	}
	if req.Reason == "" {
		api.WriteError(w, http.StatusBadRequest, "RECALCULATION_REASON_REQUIRED", "reason is required")
		return
	}

	var entry *ledger.Entry
	err := db.WithTx(r.Context(), h.DB, func(tx pgx.Tx) error {
		var err error
		entry, err = ledger.Recalculate(r.Context(), tx, month, workerID)
		if err != nil {
			return err
		}
		return adminaction.Insert(r.Context(), tx, adminaction.ActionRecalculateLedgerEntry, req.Reason, actor.ID,
			map[string]any{"month": month, "workerId": workerID})
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			api.WriteError(w, http.StatusNotFound, "NOT_FOUND", "ledger entry not found")
			return
		}
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"entry": entry})
}
