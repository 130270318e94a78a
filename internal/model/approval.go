package model

import (
	"time"

	"github.com/google/uuid"
)

// ApprovalTrail records how an entity reached its approved status. Status on
// the entity stays authoritative; these fields are never used to re-derive it.
type ApprovalTrail struct {
	RequiresDualApproval bool       `json:"requires_dual_approval"`
	FirstApprovedBy      *uuid.UUID `json:"first_approved_by,omitempty"`
	FirstApprovedAt      *time.Time `json:"first_approved_at,omitempty"`
	SecondApprovedBy     *uuid.UUID `json:"second_approved_by,omitempty"`
	SecondApprovedAt     *time.Time `json:"second_approved_at,omitempty"`
}

// AwaitingSecond is true after a first-stage dual approval and before the
// second approver has signed.
func (a ApprovalTrail) AwaitingSecond() bool {
	return a.RequiresDualApproval && a.FirstApprovedBy != nil && a.SecondApprovedBy == nil
}
