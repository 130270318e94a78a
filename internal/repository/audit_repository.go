package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nurpe/snowops-costcontrol/internal/model"
)

// AuditRepository appends transition facts. Bound to a transaction it commits
// or rolls back together with the status change it describes.
type AuditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) Emit(ctx context.Context, fact model.AuditFact) error {
	if fact.ID == uuid.Nil {
		fact.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Exec(`
		INSERT INTO cost_audit_facts (
			id,
			tenant_id,
			project_id,
			entity_type,
			entity_id,
			actor_id,
			action,
			from_status,
			to_status,
			amount,
			stage,
			created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		fact.ID,
		fact.TenantID,
		fact.ProjectID,
		fact.EntityType,
		fact.EntityID,
		fact.ActorID,
		fact.Action,
		fact.FromStatus,
		fact.ToStatus,
		fact.Amount,
		fact.Stage,
		fact.CreatedAt,
	).Error
}

// ListForEntity returns the facts of one entity, oldest first.
func (r *AuditRepository) ListForEntity(ctx context.Context, scope model.Scope, kind model.EntityKind, id uuid.UUID) ([]model.AuditFact, error) {
	var facts []model.AuditFact
	if err := r.db.WithContext(ctx).Raw(`
		SELECT id, tenant_id, project_id, entity_type, entity_id, actor_id, action,
			from_status, to_status, amount, stage, created_at
		FROM cost_audit_facts
		WHERE tenant_id = ? AND project_id = ? AND entity_type = ? AND entity_id = ?
		ORDER BY created_at ASC
	`, scope.TenantID, scope.ProjectID, kind, id).Scan(&facts).Error; err != nil {
		return nil, err
	}
	return facts, nil
}
