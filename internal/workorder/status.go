package workorder

import "fmt"

type Status string

const (
	StatusOngoing           Status = "ongoing"
	StatusPending           Status = "pending"
	StatusAmendmentRequired Status = "amendment_required"
	StatusCompleted         Status = "completed"
)

func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusOngoing, StatusPending, StatusAmendmentRequired, StatusCompleted:
		return Status(s), nil
	default:
		return "", fmt.Errorf("unknown status: %s", s)
	}
}

// Event is a requested lifecycle transition. Archive is not part of the forward
// happy path: it soft-deletes a work order and is routed through the same
// transition handling so reversal always runs inside the transition's
// transaction.
type Event string

const (
	EventSubmit           Event = "submit"
	EventApprove          Event = "approve"
	EventRequestAmendment Event = "request_amendment"
	EventReopen           Event = "reopen"
	EventArchive          Event = "archive"
)

func ParseEvent(s string) (Event, error) {
	switch Event(s) {
	case EventSubmit, EventApprove, EventRequestAmendment, EventReopen, EventArchive:
		return Event(s), nil
	default:
		return "", fmt.Errorf("unknown event: %s", s)
	}
}

var transitions = map[Event]map[Status]Status{
	EventSubmit:           {StatusOngoing: StatusPending},
	EventApprove:          {StatusPending: StatusCompleted},
	EventRequestAmendment: {StatusPending: StatusAmendmentRequired},
	EventReopen:           {StatusAmendmentRequired: StatusPending},
}

// NextStatus resolves the target status for an event from the current status.
// Archive never changes the status and is handled outside this table.
func NextStatus(from Status, ev Event) (Status, bool) {
	m, ok := transitions[ev]
	if !ok {
		return "", false
	}
	to, ok := m[from]
	return to, ok
}

// Guarded reports whether the event requires the submission guard (at least one
// worker assignment or one item usage).
func Guarded(ev Event) bool {
	return ev == EventSubmit || ev == EventReopen
}
