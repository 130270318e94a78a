package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type BudgetLine struct {
	ID           uuid.UUID       `json:"id"`
	TenantID     uuid.UUID       `json:"tenant_id"`
	ProjectID    uuid.UUID       `json:"project_id"`
	Name         string          `json:"name"`
	AmountBudget decimal.Decimal `json:"amount_budget"`
	CostCategory *string         `json:"cost_category,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	DeletedAt    *time.Time      `json:"-"`
}
