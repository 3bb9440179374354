package models

import "time"

// PendingActionType names the state of an in-progress edit conversation.
type PendingActionType string

const (
	// PendingEditSelect waits for the user to pick one of several candidates.
	PendingEditSelect PendingActionType = "edit_transaction"
	// PendingEditSpecify waits for the user to say what to change.
	PendingEditSpecify PendingActionType = "edit_transaction_update"
	// PendingEditConfirm waits for a yes/no on a proposed change.
	PendingEditConfirm PendingActionType = "confirm_transaction_edit"
)

// PendingAction is the single in-progress multi-turn action for a user.
// Which fields are set depends on Type: Candidates for PendingEditSelect,
// Target for the other two, and Changes for PendingEditConfirm.
type PendingAction struct {
	Type        PendingActionType `json:"type"`
	CreatedAt   time.Time         `json:"created_at"`
	Candidates  []Candidate       `json:"candidates,omitempty"`
	Target      *Candidate        `json:"target,omitempty"`
	Changes     *ChangeSet        `json:"changes,omitempty"`
	Description string            `json:"description,omitempty"`
}

// Expired reports whether more than ttl has elapsed since the action was
// created.
func (p *PendingAction) Expired(now time.Time, ttl time.Duration) bool {
	return now.Sub(p.CreatedAt) > ttl
}
