package db

import (
	"fmt"

	"gorm.io/gorm"
)

var migrationStatements = []string{
	`CREATE EXTENSION IF NOT EXISTS "pgcrypto";`,
	`CREATE TABLE IF NOT EXISTS projects (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		tenant_id UUID NOT NULL,
		name VARCHAR(255) NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		deleted_at TIMESTAMPTZ
	);`,
	`CREATE TABLE IF NOT EXISTS contracts (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		tenant_id UUID NOT NULL,
		project_id UUID NOT NULL REFERENCES projects(id),
		title VARCHAR(255) NOT NULL DEFAULT '',
		base_amount NUMERIC(20,4) NOT NULL DEFAULT 0,
		currency VARCHAR(3) NOT NULL,
		status VARCHAR(32) NOT NULL DEFAULT 'draft',
		cost_category VARCHAR(128),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		deleted_at TIMESTAMPTZ
	);`,
	`CREATE TABLE IF NOT EXISTS change_orders (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		tenant_id UUID NOT NULL,
		project_id UUID NOT NULL REFERENCES projects(id),
		contract_id UUID NOT NULL REFERENCES contracts(id),
		number VARCHAR(64) NOT NULL DEFAULT '',
		amount_delta NUMERIC(20,4) NOT NULL DEFAULT 0,
		status VARCHAR(16) NOT NULL DEFAULT 'draft'
			CHECK (status IN ('draft', 'proposed', 'approved', 'rejected')),
		requires_dual_approval BOOLEAN NOT NULL DEFAULT FALSE,
		first_approved_by UUID,
		first_approved_at TIMESTAMPTZ,
		second_approved_by UUID,
		second_approved_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		deleted_at TIMESTAMPTZ,
		CONSTRAINT chk_change_orders_distinct_approvers
			CHECK (second_approved_by IS NULL OR second_approved_by <> first_approved_by)
	);`,
	`CREATE TABLE IF NOT EXISTS payment_certificates (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		tenant_id UUID NOT NULL,
		project_id UUID NOT NULL REFERENCES projects(id),
		contract_id UUID NOT NULL REFERENCES contracts(id),
		number VARCHAR(64) NOT NULL DEFAULT '',
		amount_before_retention NUMERIC(20,4) NOT NULL DEFAULT 0,
		retention_amount NUMERIC(20,4) NOT NULL DEFAULT 0,
		amount_payable NUMERIC(20,4) NOT NULL DEFAULT 0,
		status VARCHAR(16) NOT NULL DEFAULT 'draft'
			CHECK (status IN ('draft', 'submitted', 'approved', 'rejected')),
		period_start DATE,
		period_end DATE,
		requires_dual_approval BOOLEAN NOT NULL DEFAULT FALSE,
		first_approved_by UUID,
		first_approved_at TIMESTAMPTZ,
		second_approved_by UUID,
		second_approved_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		deleted_at TIMESTAMPTZ,
		CONSTRAINT chk_payment_certificates_distinct_approvers
			CHECK (second_approved_by IS NULL OR second_approved_by <> first_approved_by)
	);`,
	`CREATE TABLE IF NOT EXISTS actual_payments (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		tenant_id UUID NOT NULL,
		project_id UUID NOT NULL REFERENCES projects(id),
		contract_id UUID NOT NULL REFERENCES contracts(id),
		certificate_id UUID REFERENCES payment_certificates(id),
		amount_paid NUMERIC(20,4) NOT NULL DEFAULT 0,
		paid_date TIMESTAMPTZ,
		status VARCHAR(16) NOT NULL DEFAULT 'planned'
			CHECK (status IN ('planned', 'paid')),
		requires_dual_approval BOOLEAN NOT NULL DEFAULT FALSE,
		first_approved_by UUID,
		first_approved_at TIMESTAMPTZ,
		second_approved_by UUID,
		second_approved_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		deleted_at TIMESTAMPTZ,
		CONSTRAINT chk_actual_payments_distinct_approvers
			CHECK (second_approved_by IS NULL OR second_approved_by <> first_approved_by)
	);`,
	`CREATE TABLE IF NOT EXISTS budget_lines (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		tenant_id UUID NOT NULL,
		project_id UUID NOT NULL REFERENCES projects(id),
		name VARCHAR(255) NOT NULL DEFAULT '',
		amount_budget NUMERIC(20,4) NOT NULL DEFAULT 0,
		cost_category VARCHAR(128),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		deleted_at TIMESTAMPTZ
	);`,
	`CREATE TABLE IF NOT EXISTS cost_approval_policies (
		tenant_id UUID PRIMARY KEY,
		co_dual_threshold_amount NUMERIC(20,4),
		certificate_dual_threshold_amount NUMERIC(20,4),
		payment_dual_threshold_amount NUMERIC(20,4),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE TABLE IF NOT EXISTS cost_audit_facts (
		id UUID PRIMARY KEY,
		tenant_id UUID NOT NULL,
		project_id UUID NOT NULL,
		entity_type VARCHAR(32) NOT NULL,
		entity_id UUID NOT NULL,
		actor_id UUID NOT NULL,
		action VARCHAR(64) NOT NULL,
		from_status VARCHAR(16) NOT NULL,
		to_status VARCHAR(16) NOT NULL,
		amount NUMERIC(20,4) NOT NULL,
		stage VARCHAR(8) NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL
	);`,
	`CREATE INDEX IF NOT EXISTS idx_projects_tenant ON projects (tenant_id) WHERE deleted_at IS NULL;`,
	`CREATE INDEX IF NOT EXISTS idx_contracts_scope ON contracts (tenant_id, project_id) WHERE deleted_at IS NULL;`,
	`CREATE INDEX IF NOT EXISTS idx_change_orders_scope ON change_orders (tenant_id, project_id) WHERE deleted_at IS NULL;`,
	`CREATE INDEX IF NOT EXISTS idx_change_orders_contract ON change_orders (contract_id);`,
	`CREATE INDEX IF NOT EXISTS idx_payment_certificates_scope ON payment_certificates (tenant_id, project_id) WHERE deleted_at IS NULL;`,
	`CREATE INDEX IF NOT EXISTS idx_actual_payments_scope ON actual_payments (tenant_id, project_id) WHERE deleted_at IS NULL;`,
	`CREATE INDEX IF NOT EXISTS idx_actual_payments_certificate ON actual_payments (certificate_id) WHERE certificate_id IS NOT NULL;`,
	`CREATE INDEX IF NOT EXISTS idx_budget_lines_scope ON budget_lines (tenant_id, project_id) WHERE deleted_at IS NULL;`,
	`CREATE INDEX IF NOT EXISTS idx_cost_audit_facts_entity ON cost_audit_facts (tenant_id, entity_type, entity_id, created_at);`,
}

func runMigrations(db *gorm.DB) error {
	for i, stmt := range migrationStatements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
