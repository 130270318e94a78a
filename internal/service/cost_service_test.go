package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/nurpe/snowops-costcontrol/internal/config"
	"github.com/nurpe/snowops-costcontrol/internal/costengine"
	"github.com/nurpe/snowops-costcontrol/internal/model"
	"github.com/nurpe/snowops-costcontrol/internal/workflow"
	"github.com/nurpe/snowops-costcontrol/internal/workflow/workflowtest"
)

var serviceNow = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

type fakeLedger struct {
	projects  map[model.Scope]model.Project
	snapshots map[model.Scope]costengine.Snapshot
	loadErr   error
}

func (f *fakeLedger) GetProject(_ context.Context, scope model.Scope) (*model.Project, error) {
	project, ok := f.projects[scope]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &project, nil
}

func (f *fakeLedger) LoadSnapshot(_ context.Context, scope model.Scope) (*costengine.Snapshot, error) {
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	snap := f.snapshots[scope]
	snap.Scope = scope
	return &snap, nil
}

type fakeHistory struct {
	facts []model.AuditFact
}

func (f *fakeHistory) ListForEntity(_ context.Context, scope model.Scope, kind model.EntityKind, id uuid.UUID) ([]model.AuditFact, error) {
	var out []model.AuditFact
	for _, fact := range f.facts {
		if fact.TenantID == scope.TenantID && fact.ProjectID == scope.ProjectID && fact.EntityType == kind && fact.EntityID == id {
			out = append(out, fact)
		}
	}
	return out, nil
}

type fakeGenerator struct {
	got costengine.Report
}

func (g *fakeGenerator) Generate(report costengine.Report) ([]byte, error) {
	g.got = report
	return []byte("file"), nil
}

type env struct {
	svc     *CostService
	ledger  *fakeLedger
	store   *workflowtest.Store
	history *fakeHistory
	excel   *fakeGenerator
	pdf     *fakeGenerator
	scope   model.Scope
}

func newEnv(t *testing.T) *env {
	t.Helper()
	scope := model.Scope{TenantID: uuid.New(), ProjectID: uuid.New()}
	ledger := &fakeLedger{
		projects:  map[model.Scope]model.Project{scope: {ID: scope.ProjectID, TenantID: scope.TenantID, Name: "Depot"}},
		snapshots: map[model.Scope]costengine.Snapshot{},
	}
	store := workflowtest.NewStore()
	history := &fakeHistory{}
	excel := &fakeGenerator{}
	pdf := &fakeGenerator{}
	cfg := &config.Config{Cost: config.CostConfig{AlertThresholdDays: 14, TimeSeriesMonths: 12}}

	clock := func() time.Time { return serviceNow }
	svc := NewCostService(Deps{
		Ledger:   ledger,
		History:  history,
		Workflow: workflow.NewMachine(store, workflow.WithClock(clock)),
		Excel:    excel,
		PDF:      pdf,
	}, cfg, zerolog.Nop()).WithClock(clock)

	return &env{svc: svc, ledger: ledger, store: store, history: history, excel: excel, pdf: pdf, scope: scope}
}

func (e *env) seed() {
	contractID := uuid.New()
	e.ledger.snapshots[e.scope] = costengine.Snapshot{
		Contracts: []model.Contract{{
			ID: contractID, TenantID: e.scope.TenantID, ProjectID: e.scope.ProjectID,
			Title: "Earthworks", BaseAmount: decimal.NewFromInt(1000), Currency: "USD", Status: model.ContractStatusActive,
		}},
		ChangeOrders: []model.ChangeOrder{{
			ID: uuid.New(), TenantID: e.scope.TenantID, ProjectID: e.scope.ProjectID, ContractID: contractID,
			AmountDelta: decimal.NewFromInt(200), Status: model.ChangeOrderStatusApproved,
			CreatedAt: serviceNow.AddDate(0, 0, -40), UpdatedAt: serviceNow.AddDate(0, 0, -40),
		}, {
			ID: uuid.New(), TenantID: e.scope.TenantID, ProjectID: e.scope.ProjectID, ContractID: contractID,
			AmountDelta: decimal.NewFromInt(50), Status: model.ChangeOrderStatusProposed,
			CreatedAt: serviceNow.AddDate(0, 0, -20), UpdatedAt: serviceNow.AddDate(0, 0, -20),
		}},
		BudgetLines: []model.BudgetLine{{
			ID: uuid.New(), TenantID: e.scope.TenantID, ProjectID: e.scope.ProjectID, AmountBudget: decimal.NewFromInt(2000),
		}},
	}
}

func principal(scope model.Scope, role string) model.Principal {
	return model.Principal{UserID: uuid.New(), TenantID: scope.TenantID, Role: role}
}

func TestComputeSummary(t *testing.T) {
	e := newEnv(t)
	e.seed()

	summary, err := e.svc.ComputeSummary(context.Background(), e.scope.TenantID, e.scope.ProjectID)
	require.NoError(t, err)

	assert.True(t, decimal.NewFromInt(1200).Equal(summary.Totals.ContractCurrentTotal))
	assert.True(t, decimal.NewFromInt(1250).Equal(summary.Totals.ForecastFinalCost))
	assert.Equal(t, costengine.HealthUnderBudget, summary.Health)
}

func TestViews_ShareOneAggregate(t *testing.T) {
	e := newEnv(t)
	e.seed()
	ctx := context.Background()

	summary, err := e.svc.ComputeSummary(ctx, e.scope.TenantID, e.scope.ProjectID)
	require.NoError(t, err)
	dashboard, err := e.svc.ComputeDashboard(ctx, e.scope.TenantID, e.scope.ProjectID)
	require.NoError(t, err)
	health, err := e.svc.ComputeHealth(ctx, e.scope.TenantID, e.scope.ProjectID)
	require.NoError(t, err)

	assert.Equal(t, *summary, dashboard.Summary)
	assert.Equal(t, summary.Health, health.Status)
	assert.True(t, summary.Totals.ForecastFinalCost.Equal(health.Stats.ForecastFinalCost))
}

func TestComputeAlerts_DefaultAndExplicitThreshold(t *testing.T) {
	e := newEnv(t)
	e.seed()
	ctx := context.Background()

	report, err := e.svc.ComputeAlerts(ctx, e.scope.TenantID, e.scope.ProjectID, 0)
	require.NoError(t, err)
	assert.Equal(t, 14, report.Details.ThresholdDays)
	assert.Equal(t, 1, report.Details.OverdueCOCount)

	report, err = e.svc.ComputeAlerts(ctx, e.scope.TenantID, e.scope.ProjectID, 30)
	require.NoError(t, err)
	assert.Equal(t, 30, report.Details.ThresholdDays)
	assert.Equal(t, 0, report.Details.OverdueCOCount)

	_, err = e.svc.ComputeAlerts(ctx, e.scope.TenantID, e.scope.ProjectID, -3)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestComputeFlowStatus(t *testing.T) {
	e := newEnv(t)
	e.seed()

	report, err := e.svc.ComputeFlowStatus(context.Background(), e.scope.TenantID, e.scope.ProjectID, 0)
	require.NoError(t, err)
	assert.Equal(t, costengine.FlowDelayed, report.Status)
	assert.Equal(t, 1, report.Metrics.ChangeOrders.Delayed)
}

func TestViews_ForeignTenantIsNotFound(t *testing.T) {
	e := newEnv(t)
	e.seed()

	_, err := e.svc.ComputeSummary(context.Background(), uuid.New(), e.scope.ProjectID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestViews_PropagateLoadError(t *testing.T) {
	e := newEnv(t)
	boom := errors.New("connection reset")
	e.ledger.loadErr = boom

	_, err := e.svc.ComputeHealth(context.Background(), e.scope.TenantID, e.scope.ProjectID)
	assert.ErrorIs(t, err, boom)
}

func TestAttemptTransition(t *testing.T) {
	e := newEnv(t)
	id := uuid.New()
	e.store.Put(workflow.Subject{
		Kind: model.EntityChangeOrder, ID: id, Scope: e.scope,
		Status: string(model.ChangeOrderStatusDraft), Amount: decimal.NewFromInt(10),
	})
	pm := principal(e.scope, model.RoleManager)

	result, err := e.svc.AttemptTransition(context.Background(), TransitionInput{
		Principal: pm, ProjectID: e.scope.ProjectID, Kind: model.EntityChangeOrder, EntityID: id, Action: model.ActionPropose,
	})
	require.NoError(t, err)
	assert.Equal(t, "proposed", result.NewStatus)

	facts := e.store.Facts()
	require.Len(t, facts, 1)
	assert.Equal(t, pm.UserID, facts[0].ActorID)
}

func TestAttemptTransition_ViewerDenied(t *testing.T) {
	e := newEnv(t)
	_, err := e.svc.AttemptTransition(context.Background(), TransitionInput{
		Principal: principal(e.scope, model.RoleViewer), ProjectID: e.scope.ProjectID,
		Kind: model.EntityChangeOrder, EntityID: uuid.New(), Action: model.ActionApprove,
	})
	assert.ErrorIs(t, err, ErrPermissionDenied)
}

func TestAttemptTransition_OtherTenantIsNotFound(t *testing.T) {
	e := newEnv(t)
	id := uuid.New()
	e.store.Put(workflow.Subject{
		Kind: model.EntityChangeOrder, ID: id, Scope: e.scope,
		Status: string(model.ChangeOrderStatusProposed), Amount: decimal.NewFromInt(10),
	})
	intruder := model.Principal{UserID: uuid.New(), TenantID: uuid.New(), Role: model.RoleAdmin}

	_, err := e.svc.AttemptTransition(context.Background(), TransitionInput{
		Principal: intruder, ProjectID: e.scope.ProjectID, Kind: model.EntityChangeOrder, EntityID: id, Action: model.ActionApprove,
	})
	assert.ErrorIs(t, err, workflow.ErrEntityNotFound)

	subject, _ := e.store.Get(model.EntityChangeOrder, id)
	assert.Equal(t, string(model.ChangeOrderStatusProposed), subject.Status)
}

func TestAttemptTransition_UnlimitedApprovalFromPrincipal(t *testing.T) {
	e := newEnv(t)
	id := uuid.New()
	threshold := decimal.NewFromInt(100)
	e.store.SetPolicy(model.CostApprovalPolicy{TenantID: e.scope.TenantID, CODualThresholdAmount: &threshold})
	e.store.Put(workflow.Subject{
		Kind: model.EntityChangeOrder, ID: id, Scope: e.scope,
		Status: string(model.ChangeOrderStatusProposed), Amount: decimal.NewFromInt(500),
	})
	admin := principal(e.scope, model.RoleAdmin)
	admin.UnlimitedApproval = true

	result, err := e.svc.AttemptTransition(context.Background(), TransitionInput{
		Principal: admin, ProjectID: e.scope.ProjectID, Kind: model.EntityChangeOrder, EntityID: id, Action: model.ActionApprove,
	})
	require.NoError(t, err)
	assert.Equal(t, workflow.OutcomeFinalApproved, result.Outcome)
	assert.False(t, result.RequiresDualApproval)
}

func TestListHistory(t *testing.T) {
	e := newEnv(t)
	id := uuid.New()
	e.history.facts = []model.AuditFact{
		{TenantID: e.scope.TenantID, ProjectID: e.scope.ProjectID, EntityType: model.EntityChangeOrder, EntityID: id, Action: "change_order.proposed"},
		{TenantID: uuid.New(), ProjectID: e.scope.ProjectID, EntityType: model.EntityChangeOrder, EntityID: id, Action: "change_order.approved"},
	}

	facts, err := e.svc.ListHistory(context.Background(), principal(e.scope, model.RoleViewer), e.scope.ProjectID, model.EntityChangeOrder, id)
	require.NoError(t, err)
	require.Len(t, facts, 1)
	assert.Equal(t, "change_order.proposed", facts[0].Action)

	facts, err = e.svc.ListHistory(context.Background(), principal(e.scope, model.RoleViewer), e.scope.ProjectID, model.EntityChangeOrder, uuid.New())
	require.NoError(t, err)
	assert.Empty(t, facts)
	assert.NotNil(t, facts)
}

func TestExports(t *testing.T) {
	e := newEnv(t)
	e.seed()
	ctx := context.Background()

	xlsx, err := e.svc.ExportDashboard(ctx, e.scope.TenantID, e.scope.ProjectID)
	require.NoError(t, err)
	assert.Equal(t, "file", string(xlsx.Content))
	assert.Contains(t, xlsx.FileName, "cost-dashboard-")
	assert.Contains(t, xlsx.FileName, "20260315.xlsx")
	assert.Equal(t, "Depot", e.excel.got.Project.Name)

	report, err := e.svc.ExportReport(ctx, e.scope.TenantID, e.scope.ProjectID)
	require.NoError(t, err)
	assert.Contains(t, report.FileName, ".pdf")
	assert.Equal(t, serviceNow, e.pdf.got.GeneratedAt)
	assert.Equal(t, e.excel.got.Dashboard, e.pdf.got.Dashboard)
}
