package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nurpe/snowops-costcontrol/internal/costengine"
	"github.com/nurpe/snowops-costcontrol/internal/model"
)

type LedgerRepository struct {
	db *gorm.DB
}

func NewLedgerRepository(db *gorm.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

func (r *LedgerRepository) GetProject(ctx context.Context, scope model.Scope) (*model.Project, error) {
	var project model.Project
	if err := r.db.WithContext(ctx).Raw(`
		SELECT id, tenant_id, name
		FROM projects
		WHERE id = ? AND tenant_id = ? AND deleted_at IS NULL
		LIMIT 1
	`, scope.ProjectID, scope.TenantID).Scan(&project).Error; err != nil {
		return nil, err
	}
	if project.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	return &project, nil
}

// LoadSnapshot reads every live ledger row of the project inside one
// read-only REPEATABLE READ transaction so all totals come from the same view.
func (r *LedgerRepository) LoadSnapshot(ctx context.Context, scope model.Scope) (*costengine.Snapshot, error) {
	snap := &costengine.Snapshot{Scope: scope}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Raw(`
			SELECT id, tenant_id, project_id, title, base_amount, currency, status,
				cost_category, created_at, updated_at
			FROM contracts
			WHERE tenant_id = ? AND project_id = ? AND deleted_at IS NULL
			ORDER BY title, id
		`, scope.TenantID, scope.ProjectID).Scan(&snap.Contracts).Error; err != nil {
			return err
		}

		if err := tx.Raw(`
			SELECT id, tenant_id, project_id, contract_id, number, amount_delta, status,
				requires_dual_approval, first_approved_by, first_approved_at,
				second_approved_by, second_approved_at, created_at, updated_at
			FROM change_orders
			WHERE tenant_id = ? AND project_id = ? AND deleted_at IS NULL
		`, scope.TenantID, scope.ProjectID).Scan(&snap.ChangeOrders).Error; err != nil {
			return err
		}

		if err := tx.Raw(`
			SELECT id, tenant_id, project_id, contract_id, number, amount_before_retention,
				retention_amount, amount_payable, status, period_start, period_end,
				requires_dual_approval, first_approved_by, first_approved_at,
				second_approved_by, second_approved_at, created_at, updated_at
			FROM payment_certificates
			WHERE tenant_id = ? AND project_id = ? AND deleted_at IS NULL
		`, scope.TenantID, scope.ProjectID).Scan(&snap.Certificates).Error; err != nil {
			return err
		}

		if err := tx.Raw(`
			SELECT id, tenant_id, project_id, contract_id, certificate_id, amount_paid,
				paid_date, status, requires_dual_approval, first_approved_by,
				first_approved_at, second_approved_by, second_approved_at,
				created_at, updated_at
			FROM actual_payments
			WHERE tenant_id = ? AND project_id = ? AND deleted_at IS NULL
		`, scope.TenantID, scope.ProjectID).Scan(&snap.Payments).Error; err != nil {
			return err
		}

		return tx.Raw(`
			SELECT id, tenant_id, project_id, name, amount_budget, cost_category, created_at
			FROM budget_lines
			WHERE tenant_id = ? AND project_id = ? AND deleted_at IS NULL
		`, scope.TenantID, scope.ProjectID).Scan(&snap.BudgetLines).Error
	}, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return nil, err
	}
	return snap, nil
}
