package workorder

import (
	"errors"
	"fmt"
	"testing"
)

func TestGuardSatisfied(t *testing.T) {
	empty := &WorkOrder{}
	if empty.GuardSatisfied() {
		t.Fatalf("empty work order must not satisfy the submission guard")
	}

	withAssignment := &WorkOrder{Assignments: []Assignment{{WorkerID: "w1"}}}
	if !withAssignment.GuardSatisfied() {
		t.Fatalf("one assignment satisfies the guard")
	}

	withItem := &WorkOrder{Items: []ItemUsage{{ItemCode: "FERT-01"}}}
	if !withItem.GuardSatisfied() {
		t.Fatalf("one item usage satisfies the guard")
	}
}

func TestKindOf(t *testing.T) {
	guard := NewError(KindGuardViolation, "no assignments")
	if KindOf(guard) != KindGuardViolation {
		t.Fatalf("expected guard violation kind")
	}

	wrapped := fmt.Errorf("attempt transition: %w", NewError(KindInvalidTransition, "bad event"))
	if KindOf(wrapped) != KindInvalidTransition {
		t.Fatalf("expected kind to survive wrapping")
	}

	if KindOf(errors.New("connection reset")) != KindPersistenceFailure {
		t.Fatalf("untagged errors classify as persistence failures")
	}
}

func TestParseRateType(t *testing.T) {
	for _, s := range []string{"normal", "resources", "work_days"} {
		if _, err := ParseRateType(s); err != nil {
			t.Fatalf("unexpected error for %q: %v", s, err)
		}
	}
	if _, err := ParseRateType("hourly"); err == nil {
		t.Fatalf("expected error for unknown rate type")
	}
}
