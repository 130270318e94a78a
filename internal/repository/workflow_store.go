package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/nurpe/snowops-costcontrol/internal/model"
	"github.com/nurpe/snowops-costcontrol/internal/workflow"
)

type subjectTable struct {
	name     string
	amount   string
	paidDate string
}

var subjectTables = map[model.EntityKind]subjectTable{
	model.EntityChangeOrder:        {name: "change_orders", amount: "amount_delta", paidDate: "NULL::timestamptz"},
	model.EntityPaymentCertificate: {name: "payment_certificates", amount: "amount_payable", paidDate: "NULL::timestamptz"},
	model.EntityActualPayment:      {name: "actual_payments", amount: "amount_paid", paidDate: "paid_date"},
}

// WorkflowStore runs each workflow action in one gorm transaction.
type WorkflowStore struct {
	db *gorm.DB
}

func NewWorkflowStore(db *gorm.DB) *WorkflowStore {
	return &WorkflowStore{db: db}
}

func (s *WorkflowStore) InTx(ctx context.Context, fn func(tx workflow.Tx) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&ledgerTx{
			db:              tx,
			AuditRepository: NewAuditRepository(tx),
			lockedStatus:    make(map[uuid.UUID]string),
		})
	})
}

type ledgerTx struct {
	*AuditRepository
	db *gorm.DB

	// lockedStatus is the status each subject had when it was locked.
	lockedStatus map[uuid.UUID]string
}

type subjectRow struct {
	ID                   uuid.UUID
	TenantID             uuid.UUID
	ProjectID            uuid.UUID
	Status               string
	Amount               decimal.Decimal
	RequiresDualApproval bool
	FirstApprovedBy      *uuid.UUID
	FirstApprovedAt      *time.Time
	SecondApprovedBy     *uuid.UUID
	SecondApprovedAt     *time.Time
	PaidDate             *time.Time
}

func (t *ledgerTx) LockSubject(ctx context.Context, scope model.Scope, kind model.EntityKind, id uuid.UUID) (*workflow.Subject, error) {
	table, ok := subjectTables[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %s", workflow.ErrUnsupportedAction, kind)
	}

	var row subjectRow
	query := fmt.Sprintf(`
		SELECT id, tenant_id, project_id, status, %s AS amount,
			requires_dual_approval, first_approved_by, first_approved_at,
			second_approved_by, second_approved_at, %s AS paid_date
		FROM %s
		WHERE id = ? AND tenant_id = ? AND project_id = ? AND deleted_at IS NULL
		FOR UPDATE
	`, table.amount, table.paidDate, table.name)
	if err := t.db.WithContext(ctx).Raw(query, id, scope.TenantID, scope.ProjectID).Scan(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, fmt.Errorf("%w: %s %s", workflow.ErrEntityNotFound, kind, id)
	}
	t.lockedStatus[row.ID] = row.Status

	return &workflow.Subject{
		Kind:   kind,
		ID:     row.ID,
		Scope:  model.Scope{TenantID: row.TenantID, ProjectID: row.ProjectID},
		Status: row.Status,
		Amount: row.Amount,
		Approval: model.ApprovalTrail{
			RequiresDualApproval: row.RequiresDualApproval,
			FirstApprovedBy:      row.FirstApprovedBy,
			FirstApprovedAt:      row.FirstApprovedAt,
			SecondApprovedBy:     row.SecondApprovedBy,
			SecondApprovedAt:     row.SecondApprovedAt,
		},
		PaidDate: row.PaidDate,
	}, nil
}

func (t *ledgerTx) SaveSubject(ctx context.Context, subject *workflow.Subject) error {
	table, ok := subjectTables[subject.Kind]
	if !ok {
		return fmt.Errorf("%w: %s", workflow.ErrUnsupportedAction, subject.Kind)
	}

	set := `status = ?, requires_dual_approval = ?, first_approved_by = ?, first_approved_at = ?,
		second_approved_by = ?, second_approved_at = ?`
	args := []interface{}{
		subject.Status,
		subject.Approval.RequiresDualApproval,
		subject.Approval.FirstApprovedBy,
		subject.Approval.FirstApprovedAt,
		subject.Approval.SecondApprovedBy,
		subject.Approval.SecondApprovedAt,
	}
	if subject.Kind == model.EntityActualPayment {
		set += ", paid_date = ?"
		args = append(args, subject.PaidDate)
	}
	// updated_at tracks status changes only; a second-stage signature keeps it.
	if previous, ok := t.lockedStatus[subject.ID]; !ok || previous != subject.Status {
		set += ", updated_at = NOW()"
	}
	args = append(args, subject.ID, subject.Scope.TenantID, subject.Scope.ProjectID)

	res := t.db.WithContext(ctx).Exec(
		fmt.Sprintf("UPDATE %s SET %s WHERE id = ? AND tenant_id = ? AND project_id = ?", table.name, set),
		args...,
	)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %s %s", workflow.ErrEntityNotFound, subject.Kind, subject.ID)
	}
	return nil
}

func (t *ledgerTx) ApprovalPolicy(ctx context.Context, tenantID uuid.UUID) (*model.CostApprovalPolicy, error) {
	var row struct {
		TenantID                       uuid.UUID
		CODualThresholdAmount          decimal.NullDecimal `gorm:"column:co_dual_threshold_amount"`
		CertificateDualThresholdAmount decimal.NullDecimal `gorm:"column:certificate_dual_threshold_amount"`
		PaymentDualThresholdAmount     decimal.NullDecimal `gorm:"column:payment_dual_threshold_amount"`
	}
	if err := t.db.WithContext(ctx).Raw(`
		SELECT tenant_id, co_dual_threshold_amount,
			certificate_dual_threshold_amount, payment_dual_threshold_amount
		FROM cost_approval_policies
		WHERE tenant_id = ?
		LIMIT 1
	`, tenantID).Scan(&row).Error; err != nil {
		return nil, err
	}
	if row.TenantID == uuid.Nil {
		return nil, nil
	}

	return &model.CostApprovalPolicy{
		TenantID:                       row.TenantID,
		CODualThresholdAmount:          nullable(row.CODualThresholdAmount),
		CertificateDualThresholdAmount: nullable(row.CertificateDualThresholdAmount),
		PaymentDualThresholdAmount:     nullable(row.PaymentDualThresholdAmount),
	}, nil
}

func nullable(d decimal.NullDecimal) *decimal.Decimal {
	if !d.Valid {
		return nil
	}
	value := d.Decimal
	return &value
}
