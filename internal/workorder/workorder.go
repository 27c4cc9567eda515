package workorder

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type RateType string

const (
	RateNormal    RateType = "normal"
	RateResources RateType = "resources"
	RateWorkDays  RateType = "work_days"
)

func ParseRateType(s string) (RateType, error) {
	switch RateType(s) {
	case RateNormal, RateResources, RateWorkDays:
		return RateType(s), nil
	default:
		return "", fmt.Errorf("unknown rate type: %s", s)
	}
}

type WorkOrder struct {
	ID        string          `json:"id"`
	Reference string          `json:"reference"`
	BlockID   string          `json:"blockId"`
	Status    Status          `json:"status"`
	RateType  RateType        `json:"rateType"`
	UnitRate  decimal.Decimal `json:"unitRate"`
	StartDate time.Time       `json:"startDate"`

	// CompletionMonth is stamped once at approval and never changes afterwards;
	// a later reversal must retract from the same month.
	CompletionMonth *string    `json:"completionMonth,omitempty"`
	ApprovedBy      *string    `json:"approvedBy,omitempty"`
	ApprovedAt      *time.Time `json:"approvedAt,omitempty"`
	ArchivedAt      *time.Time `json:"archivedAt,omitempty"`

	Assignments []Assignment `json:"assignments"`
	Items       []ItemUsage  `json:"items"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Assignment credits one worker. Quantity is an area for normal/resources rates
// and days worked for work_days. Contribution is rate * quantity, recomputed
// whenever rate or quantity changes, never on read.
type Assignment struct {
	ID           string          `json:"id"`
	WorkOrderID  string          `json:"workOrderId"`
	WorkerID     string          `json:"workerId"`
	Rate         decimal.Decimal `json:"rate"`
	Quantity     decimal.Decimal `json:"quantity"`
	Contribution decimal.Decimal `json:"contribution"`
}

type ItemUsage struct {
	ID          string          `json:"id"`
	WorkOrderID string          `json:"workOrderId"`
	ItemCode    string          `json:"itemCode"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
}

type AssignmentParams struct {
	WorkerID string          `json:"workerId"`
	Rate     decimal.Decimal `json:"rate"`
	Quantity decimal.Decimal `json:"quantity"`
}

type ItemParams struct {
	ItemCode  string          `json:"itemCode"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

type Params struct {
	Reference   string             `json:"reference"`
	BlockID     string             `json:"blockId"`
	RateType    RateType           `json:"rateType"`
	UnitRate    decimal.Decimal    `json:"unitRate"`
	StartDate   time.Time          `json:"startDate"`
	Assignments []AssignmentParams `json:"assignments"`
	Items       []ItemParams       `json:"items"`
}

// GuardSatisfied is the shared submit/reopen precondition: a work order needs
// at least one worker assignment or one item usage before entering pending.
func (wo *WorkOrder) GuardSatisfied() bool {
	return len(wo.Assignments) > 0 || len(wo.Items) > 0
}

// Archived reports soft deletion; archived work orders accept no further
// transitions except a repeated (no-op) archive.
func (wo *WorkOrder) Archived() bool {
	return wo.ArchivedAt != nil
}
