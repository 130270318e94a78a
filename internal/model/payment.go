package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentStatusPlanned PaymentStatus = "planned"
	PaymentStatusPaid    PaymentStatus = "paid"
)

// ActualPayment records cash movement against a contract, optionally linked to
// the certificate it settles.
type ActualPayment struct {
	ID            uuid.UUID       `json:"id"`
	TenantID      uuid.UUID       `json:"tenant_id"`
	ProjectID     uuid.UUID       `json:"project_id"`
	ContractID    uuid.UUID       `json:"contract_id"`
	CertificateID *uuid.UUID      `json:"certificate_id,omitempty"`
	AmountPaid    decimal.Decimal `json:"amount_paid"`
	PaidDate      *time.Time      `json:"paid_date,omitempty"`
	Status        PaymentStatus   `json:"status"`
	ApprovalTrail
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"-"`
}
