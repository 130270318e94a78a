package repository

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/nurpe/snowops-costcontrol/internal/costengine"
	"github.com/nurpe/snowops-costcontrol/internal/model"
)

func TestLedgerRepository_LoadSnapshot(t *testing.T) {
	db, mock := newMockDB(t)
	scope := model.Scope{TenantID: uuid.New(), ProjectID: uuid.New()}
	contractID := uuid.New()
	coID := uuid.New()
	certID := uuid.New()
	first := uuid.New()
	second := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`(?s)FROM contracts\s+WHERE tenant_id = \$1 AND project_id = \$2 AND deleted_at IS NULL`).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "tenant_id", "project_id", "title", "base_amount", "currency", "status",
			"cost_category", "created_at", "updated_at",
		}).AddRow(contractID.String(), scope.TenantID.String(), scope.ProjectID.String(), "Piling", "1000.0000", "USD", "active", "civil", mockNow, mockNow))
	mock.ExpectQuery(`(?s)FROM change_orders`).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "tenant_id", "project_id", "contract_id", "number", "amount_delta", "status",
			"requires_dual_approval", "first_approved_by", "first_approved_at",
			"second_approved_by", "second_approved_at", "created_at", "updated_at",
		}).AddRow(coID.String(), scope.TenantID.String(), scope.ProjectID.String(), contractID.String(), "CO-1", "250.0000", "approved",
			true, first.String(), mockNow, second.String(), mockNow, mockNow, mockNow))
	mock.ExpectQuery(`(?s)FROM payment_certificates`).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "tenant_id", "project_id", "contract_id", "number", "amount_before_retention",
			"retention_amount", "amount_payable", "status", "period_start", "period_end",
			"requires_dual_approval", "first_approved_by", "first_approved_at",
			"second_approved_by", "second_approved_at", "created_at", "updated_at",
		}).AddRow(certID.String(), scope.TenantID.String(), scope.ProjectID.String(), contractID.String(), "IPC-1", "500", "50", "450", "approved",
			nil, mockNow, false, first.String(), mockNow, nil, nil, mockNow, mockNow))
	mock.ExpectQuery(`(?s)FROM actual_payments`).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "tenant_id", "project_id", "contract_id", "certificate_id", "amount_paid",
			"paid_date", "status", "requires_dual_approval", "first_approved_by",
			"first_approved_at", "second_approved_by", "second_approved_at",
			"created_at", "updated_at",
		}).AddRow(uuid.NewString(), scope.TenantID.String(), scope.ProjectID.String(), contractID.String(), certID.String(), "200",
			mockNow, "paid", false, nil, nil, nil, nil, mockNow, mockNow))
	mock.ExpectQuery(`(?s)FROM budget_lines`).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "tenant_id", "project_id", "name", "amount_budget", "cost_category", "created_at",
		}).AddRow(uuid.NewString(), scope.TenantID.String(), scope.ProjectID.String(), "Civil works", "2000", "civil", mockNow))
	mock.ExpectCommit()

	snap, err := NewLedgerRepository(db).LoadSnapshot(context.Background(), scope)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())

	require.Len(t, snap.Contracts, 1)
	require.NotNil(t, snap.Contracts[0].CostCategory)
	assert.Equal(t, "civil", *snap.Contracts[0].CostCategory)

	require.Len(t, snap.ChangeOrders, 1)
	co := snap.ChangeOrders[0]
	assert.Equal(t, model.ChangeOrderStatusApproved, co.Status)
	assert.True(t, co.RequiresDualApproval)
	require.NotNil(t, co.FirstApprovedBy)
	require.NotNil(t, co.SecondApprovedBy)
	assert.Equal(t, first, *co.FirstApprovedBy)
	assert.Equal(t, second, *co.SecondApprovedBy)
	assert.False(t, co.AwaitingSecond())

	require.Len(t, snap.Certificates, 1)
	cert := snap.Certificates[0]
	assert.Nil(t, cert.PeriodStart)
	require.NotNil(t, cert.PeriodEnd)
	require.NotNil(t, cert.FirstApprovedBy)
	assert.Nil(t, cert.SecondApprovedBy)

	require.Len(t, snap.Payments, 1)
	require.NotNil(t, snap.Payments[0].CertificateID)
	assert.Equal(t, certID, *snap.Payments[0].CertificateID)

	agg := costengine.Compute(*snap)
	assert.True(t, decimal.NewFromInt(1250).Equal(agg.Totals.ContractCurrentTotal))
	assert.True(t, decimal.NewFromInt(450).Equal(agg.Totals.TotalCertifiedAmount))
	assert.True(t, decimal.NewFromInt(200).Equal(agg.Totals.TotalPaidAmount))
	assert.True(t, decimal.NewFromInt(2000).Equal(agg.Totals.BudgetTotal))
}

func TestLedgerRepository_GetProject(t *testing.T) {
	db, mock := newMockDB(t)
	scope := model.Scope{TenantID: uuid.New(), ProjectID: uuid.New()}
	columns := []string{"id", "tenant_id", "name"}

	mock.ExpectQuery(`(?s)FROM projects\s+WHERE id = \$1 AND tenant_id = \$2`).
		WillReturnRows(sqlmock.NewRows(columns).AddRow(scope.ProjectID.String(), scope.TenantID.String(), "Depot"))
	mock.ExpectQuery(`(?s)FROM projects`).
		WillReturnRows(sqlmock.NewRows(columns))

	repo := NewLedgerRepository(db)
	project, err := repo.GetProject(context.Background(), scope)
	require.NoError(t, err)
	assert.Equal(t, "Depot", project.Name)

	_, err = repo.GetProject(context.Background(), model.Scope{TenantID: uuid.New(), ProjectID: scope.ProjectID})
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
