package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/nurpe/snowops-costcontrol/internal/config"
	"github.com/nurpe/snowops-costcontrol/internal/costengine"
	"github.com/nurpe/snowops-costcontrol/internal/metrics"
	"github.com/nurpe/snowops-costcontrol/internal/model"
	"github.com/nurpe/snowops-costcontrol/internal/workflow"
)

type LedgerReader interface {
	GetProject(ctx context.Context, scope model.Scope) (*model.Project, error)
	LoadSnapshot(ctx context.Context, scope model.Scope) (*costengine.Snapshot, error)
}

type HistoryReader interface {
	ListForEntity(ctx context.Context, scope model.Scope, kind model.EntityKind, id uuid.UUID) ([]model.AuditFact, error)
}

type Transitioner interface {
	Attempt(ctx context.Context, req workflow.Request) (*workflow.Result, error)
}

type ExcelGenerator interface {
	Generate(report costengine.Report) ([]byte, error)
}

type PDFGenerator interface {
	Generate(report costengine.Report) ([]byte, error)
}

type CostService struct {
	ledger        LedgerReader
	history       HistoryReader
	workflow      Transitioner
	excel         ExcelGenerator
	pdf           PDFGenerator
	log           zerolog.Logger
	thresholdDays int
	seriesMonths  int
	now           func() time.Time
}

type Deps struct {
	Ledger   LedgerReader
	History  HistoryReader
	Workflow Transitioner
	Excel    ExcelGenerator
	PDF      PDFGenerator
}

func NewCostService(deps Deps, cfg *config.Config, log zerolog.Logger) *CostService {
	return &CostService{
		ledger:        deps.Ledger,
		history:       deps.History,
		workflow:      deps.Workflow,
		excel:         deps.Excel,
		pdf:           deps.PDF,
		log:           log,
		thresholdDays: cfg.Cost.AlertThresholdDays,
		seriesMonths:  cfg.Cost.TimeSeriesMonths,
		now:           time.Now,
	}
}

// WithClock replaces the time source used for ageing and time series.
func (s *CostService) WithClock(now func() time.Time) *CostService {
	s.now = now
	return s
}

func (s *CostService) ComputeSummary(ctx context.Context, tenantID, projectID uuid.UUID) (*costengine.Summary, error) {
	agg, _, err := s.aggregate(ctx, "summary", tenantID, projectID)
	if err != nil {
		return nil, err
	}
	summary := agg.Summary()
	return &summary, nil
}

func (s *CostService) ComputeDashboard(ctx context.Context, tenantID, projectID uuid.UUID) (*costengine.Dashboard, error) {
	agg, _, err := s.aggregate(ctx, "dashboard", tenantID, projectID)
	if err != nil {
		return nil, err
	}
	dashboard := agg.Dashboard(s.now(), s.seriesMonths)
	return &dashboard, nil
}

func (s *CostService) ComputeHealth(ctx context.Context, tenantID, projectID uuid.UUID) (*costengine.HealthReport, error) {
	agg, _, err := s.aggregate(ctx, "health", tenantID, projectID)
	if err != nil {
		return nil, err
	}
	report := agg.HealthReport()
	return &report, nil
}

// ComputeAlerts uses the configured threshold when thresholdDays is zero.
func (s *CostService) ComputeAlerts(ctx context.Context, tenantID, projectID uuid.UUID, thresholdDays int) (*costengine.AlertReport, error) {
	days, err := s.threshold(thresholdDays)
	if err != nil {
		return nil, err
	}
	agg, _, err := s.aggregate(ctx, "alerts", tenantID, projectID)
	if err != nil {
		return nil, err
	}
	report := agg.Alerts(s.now(), days)
	return &report, nil
}

func (s *CostService) ComputeFlowStatus(ctx context.Context, tenantID, projectID uuid.UUID, thresholdDays int) (*costengine.FlowReport, error) {
	days, err := s.threshold(thresholdDays)
	if err != nil {
		return nil, err
	}
	agg, _, err := s.aggregate(ctx, "flow_status", tenantID, projectID)
	if err != nil {
		return nil, err
	}
	report := agg.FlowStatus(s.now(), days)
	return &report, nil
}

type TransitionInput struct {
	Principal model.Principal
	ProjectID uuid.UUID
	Kind      model.EntityKind
	EntityID  uuid.UUID
	Action    model.Action
}

func (s *CostService) AttemptTransition(ctx context.Context, input TransitionInput) (*workflow.Result, error) {
	if !input.Principal.CanTransition() {
		return nil, ErrPermissionDenied
	}
	if input.ProjectID == uuid.Nil || input.EntityID == uuid.Nil {
		return nil, fmt.Errorf("%w: project and entity ids are required", ErrInvalidInput)
	}

	scope := model.Scope{TenantID: input.Principal.TenantID, ProjectID: input.ProjectID}
	result, err := s.workflow.Attempt(ctx, workflow.Request{
		Scope:              scope,
		Kind:               input.Kind,
		EntityID:           input.EntityID,
		Action:             input.Action,
		ActorID:            input.Principal.UserID,
		UnlimitedAuthority: input.Principal.UnlimitedApproval,
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("tenant_id", scope.TenantID.String()).
		Str("project_id", scope.ProjectID.String()).
		Str("entity_type", string(result.Kind)).
		Str("entity_id", result.EntityID.String()).
		Str("actor_id", input.Principal.UserID.String()).
		Str("action", string(input.Action)).
		Str("from", result.PreviousStatus).
		Str("to", result.NewStatus).
		Str("stage", string(result.ApprovalStage)).
		Msg("cost transition committed")

	return result, nil
}

// ListHistory returns the audit trail of one entity. Viewers may read it.
func (s *CostService) ListHistory(ctx context.Context, principal model.Principal, projectID uuid.UUID, kind model.EntityKind, entityID uuid.UUID) ([]model.AuditFact, error) {
	if projectID == uuid.Nil || entityID == uuid.Nil {
		return nil, fmt.Errorf("%w: project and entity ids are required", ErrInvalidInput)
	}
	scope := model.Scope{TenantID: principal.TenantID, ProjectID: projectID}
	if _, err := s.project(ctx, scope); err != nil {
		return nil, err
	}
	facts, err := s.history.ListForEntity(ctx, scope, kind, entityID)
	if err != nil {
		return nil, err
	}
	if facts == nil {
		facts = []model.AuditFact{}
	}
	return facts, nil
}

type ExportResult struct {
	FileName string
	Content  []byte
}

func (s *CostService) ExportDashboard(ctx context.Context, tenantID, projectID uuid.UUID) (*ExportResult, error) {
	report, err := s.report(ctx, "dashboard_export", tenantID, projectID)
	if err != nil {
		return nil, err
	}
	content, err := s.excel.Generate(*report)
	if err != nil {
		return nil, err
	}
	return &ExportResult{FileName: fileName("cost-dashboard", report, "xlsx"), Content: content}, nil
}

func (s *CostService) ExportReport(ctx context.Context, tenantID, projectID uuid.UUID) (*ExportResult, error) {
	report, err := s.report(ctx, "report_export", tenantID, projectID)
	if err != nil {
		return nil, err
	}
	content, err := s.pdf.Generate(*report)
	if err != nil {
		return nil, err
	}
	return &ExportResult{FileName: fileName("cost-report", report, "pdf"), Content: content}, nil
}

func (s *CostService) report(ctx context.Context, view string, tenantID, projectID uuid.UUID) (*costengine.Report, error) {
	agg, project, err := s.aggregate(ctx, view, tenantID, projectID)
	if err != nil {
		return nil, err
	}
	report := agg.Report(*project, s.now(), s.seriesMonths, s.thresholdDays)
	return &report, nil
}

// aggregate loads one snapshot and computes it. Every view goes through here
// so all of them read the same numbers.
func (s *CostService) aggregate(ctx context.Context, view string, tenantID, projectID uuid.UUID) (*costengine.Aggregate, *model.Project, error) {
	defer metrics.TrackAggregation(view)()

	if tenantID == uuid.Nil || projectID == uuid.Nil {
		return nil, nil, fmt.Errorf("%w: tenant and project are required", ErrInvalidInput)
	}
	scope := model.Scope{TenantID: tenantID, ProjectID: projectID}

	project, err := s.project(ctx, scope)
	if err != nil {
		return nil, nil, err
	}
	snap, err := s.ledger.LoadSnapshot(ctx, scope)
	if err != nil {
		return nil, nil, err
	}
	return costengine.Compute(*snap), project, nil
}

func (s *CostService) project(ctx context.Context, scope model.Scope) (*model.Project, error) {
	project, err := s.ledger.GetProject(ctx, scope)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: project %s", ErrNotFound, scope.ProjectID)
		}
		return nil, err
	}
	return project, nil
}

func (s *CostService) threshold(days int) (int, error) {
	switch {
	case days < 0:
		return 0, fmt.Errorf("%w: threshold_days must be positive", ErrInvalidInput)
	case days == 0:
		return s.thresholdDays, nil
	default:
		return days, nil
	}
}

func fileName(prefix string, report *costengine.Report, ext string) string {
	return fmt.Sprintf("%s-%s-%s.%s", prefix, report.Project.ID.String()[:8], report.GeneratedAt.Format("20060102"), ext)
}
