package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CertificateStatus string

const (
	CertificateStatusDraft     CertificateStatus = "draft"
	CertificateStatusSubmitted CertificateStatus = "submitted"
	CertificateStatusApproved  CertificateStatus = "approved"
	CertificateStatusRejected  CertificateStatus = "rejected"
)

// PaymentCertificate is an interim claim against a contract. AmountPayable is
// computed by whoever creates the certificate and is used as-is.
type PaymentCertificate struct {
	ID                    uuid.UUID         `json:"id"`
	TenantID              uuid.UUID         `json:"tenant_id"`
	ProjectID             uuid.UUID         `json:"project_id"`
	ContractID            uuid.UUID         `json:"contract_id"`
	Number                string            `json:"number"`
	AmountBeforeRetention decimal.Decimal   `json:"amount_before_retention"`
	RetentionAmount       decimal.Decimal   `json:"retention_amount"`
	AmountPayable         decimal.Decimal   `json:"amount_payable"`
	Status                CertificateStatus `json:"status"`
	PeriodStart           *time.Time        `json:"period_start,omitempty"`
	PeriodEnd             *time.Time        `json:"period_end,omitempty"`
	ApprovalTrail
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"-"`
}
