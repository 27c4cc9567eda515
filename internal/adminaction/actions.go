package adminaction

type ActionType string

const (
	ActionRecalculateLedgerEntry ActionType = "RECALCULATE_LEDGER_ENTRY"
)
