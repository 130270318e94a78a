package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ContractStatus string

const (
	ContractStatusDraft     ContractStatus = "draft"
	ContractStatusActive    ContractStatus = "active"
	ContractStatusCompleted ContractStatus = "completed"
	ContractStatusCancelled ContractStatus = "cancelled"
)

// Contract is a priced agreement inside a project. Its current value is never
// stored: it is the base amount plus every approved change order delta.
type Contract struct {
	ID           uuid.UUID       `json:"id"`
	TenantID     uuid.UUID       `json:"tenant_id"`
	ProjectID    uuid.UUID       `json:"project_id"`
	Title        string          `json:"title"`
	BaseAmount   decimal.Decimal `json:"base_amount"`
	Currency     string          `json:"currency"`
	Status       ContractStatus  `json:"status"`
	CostCategory *string         `json:"cost_category,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
	DeletedAt    *time.Time      `json:"-"`
}
