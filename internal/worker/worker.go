package worker

import "time"

// Worker is master data owned by an upstream collaborator; this service only
// reads it, mainly for the nationality class driving deduction selection.
type Worker struct {
	ID          string    `json:"id"`
	FullName    string    `json:"fullName"`
	Nationality string    `json:"nationality"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"createdAt"`
}
