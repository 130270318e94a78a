package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ChangeOrderStatus string

const (
	ChangeOrderStatusDraft    ChangeOrderStatus = "draft"
	ChangeOrderStatusProposed ChangeOrderStatus = "proposed"
	ChangeOrderStatusApproved ChangeOrderStatus = "approved"
	ChangeOrderStatusRejected ChangeOrderStatus = "rejected"
)

// IsPending reports whether the change order still counts toward the forecast
// as a not-yet-decided amendment.
func (s ChangeOrderStatus) IsPending() bool {
	return s == ChangeOrderStatusDraft || s == ChangeOrderStatusProposed
}

type ChangeOrder struct {
	ID          uuid.UUID         `json:"id"`
	TenantID    uuid.UUID         `json:"tenant_id"`
	ProjectID   uuid.UUID         `json:"project_id"`
	ContractID  uuid.UUID         `json:"contract_id"`
	Number      string            `json:"number"`
	AmountDelta decimal.Decimal   `json:"amount_delta"`
	Status      ChangeOrderStatus `json:"status"`
	ApprovalTrail
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"-"`
}
