package model

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CostApprovalPolicy holds the per-tenant amounts above which an approval
// needs two distinct approvers. A nil threshold means the kind is never dual.
type CostApprovalPolicy struct {
	TenantID                       uuid.UUID        `json:"tenant_id"`
	CODualThresholdAmount          *decimal.Decimal `json:"co_dual_threshold_amount,omitempty"`
	CertificateDualThresholdAmount *decimal.Decimal `json:"certificate_dual_threshold_amount,omitempty"`
	PaymentDualThresholdAmount     *decimal.Decimal `json:"payment_dual_threshold_amount,omitempty"`
}

// Threshold returns the configured threshold for kind. Non-positive amounts
// are treated as not configured.
func (p *CostApprovalPolicy) Threshold(kind EntityKind) (decimal.Decimal, bool) {
	if p == nil {
		return decimal.Zero, false
	}
	var value *decimal.Decimal
	switch kind {
	case EntityChangeOrder:
		value = p.CODualThresholdAmount
	case EntityPaymentCertificate:
		value = p.CertificateDualThresholdAmount
	case EntityActualPayment:
		value = p.PaymentDualThresholdAmount
	}
	if value == nil || !value.IsPositive() {
		return decimal.Zero, false
	}
	return *value, true
}
