package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AuditFact is the structured before/after record emitted for every committed
// transition. Action is "<kind>.<verb>", e.g. "change_order.first_approved".
type AuditFact struct {
	ID         uuid.UUID       `json:"id"`
	TenantID   uuid.UUID       `json:"tenant_id"`
	ProjectID  uuid.UUID       `json:"project_id"`
	EntityType EntityKind      `json:"entity_type"`
	EntityID   uuid.UUID       `json:"entity_id"`
	ActorID    uuid.UUID       `json:"actor_id"`
	Action     string          `json:"action"`
	FromStatus string          `json:"from_status"`
	ToStatus   string          `json:"to_status"`
	Amount     decimal.Decimal `json:"amount"`
	Stage      ApprovalStage   `json:"stage,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}
