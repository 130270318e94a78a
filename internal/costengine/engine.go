// Package costengine turns one project's ledger rows into the financial
// views served by the cost-control API. Everything here is pure: a Snapshot
// goes in, an Aggregate comes out, and every view is read off that Aggregate
// so the numbers shown by summary, dashboard, health, alerts and flow status
// can never disagree.
package costengine

import (
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nurpe/snowops-costcontrol/internal/model"
)

const (
	DefaultThresholdDays = 14
	DefaultSeriesMonths  = 12

	uncategorized = "uncategorized"
)

var (
	hundred             = decimal.NewFromInt(100)
	underBudgetFraction = decimal.New(-5, -2)
	highImpactFraction  = decimal.New(1, -1)
)

// Snapshot is every row of one (tenant, project) pair read in a single
// consistent view of the ledger.
type Snapshot struct {
	Scope        model.Scope
	Contracts    []model.Contract
	ChangeOrders []model.ChangeOrder
	Certificates []model.PaymentCertificate
	Payments     []model.ActualPayment
	BudgetLines  []model.BudgetLine
}

type Totals struct {
	ContractBaseTotal         decimal.Decimal `json:"contract_base_total"`
	ContractCurrentTotal      decimal.Decimal `json:"contract_current_total"`
	ApprovedChangeOrdersTotal decimal.Decimal `json:"approved_change_orders_total"`
	PendingChangeOrdersTotal  decimal.Decimal `json:"pending_change_orders_total"`
	RejectedChangeOrdersTotal decimal.Decimal `json:"rejected_change_orders_total"`
	TotalCertifiedAmount      decimal.Decimal `json:"total_certified_amount"`
	TotalRetentionAmount      decimal.Decimal `json:"total_retention_amount"`
	TotalPaidAmount           decimal.Decimal `json:"total_paid_amount"`
	OutstandingAmount         decimal.Decimal `json:"outstanding_amount"`
	BudgetTotal               decimal.Decimal `json:"budget_total"`
	ForecastFinalCost         decimal.Decimal `json:"forecast_final_cost"`
	VarianceVsBudget          decimal.Decimal `json:"variance_vs_budget"`
	VarianceVsContractCurrent decimal.Decimal `json:"variance_vs_contract_current"`
	VariancePercent           decimal.Decimal `json:"variance_percent"`
}

type ContractLine struct {
	ContractID           uuid.UUID            `json:"contract_id"`
	Title                string               `json:"title"`
	Currency             string               `json:"currency"`
	Status               model.ContractStatus `json:"status"`
	CostCategory         string               `json:"cost_category"`
	BaseAmount           decimal.Decimal      `json:"base_amount"`
	ApprovedChangeOrders decimal.Decimal      `json:"approved_change_orders"`
	CurrentAmount        decimal.Decimal      `json:"current_amount"`
	PendingChangeOrders  decimal.Decimal      `json:"pending_change_orders"`
	CertifiedAmount      decimal.Decimal      `json:"certified_amount"`
	PaidAmount           decimal.Decimal      `json:"paid_amount"`
	OutstandingAmount    decimal.Decimal      `json:"outstanding_amount"`
}

type CategoryLine struct {
	Category                 string          `json:"category"`
	BudgetTotal              decimal.Decimal `json:"budget_total"`
	ContractCurrentTotal     decimal.Decimal `json:"contract_current_total"`
	PendingChangeOrdersTotal decimal.Decimal `json:"pending_change_orders_total"`
	ForecastFinalCost        decimal.Decimal `json:"forecast_final_cost"`
	VarianceVsBudget         decimal.Decimal `json:"variance_vs_budget"`
}

// Aggregate is the single shared computation behind every view.
type Aggregate struct {
	Totals     Totals
	Health     HealthStatus
	Contracts  []ContractLine
	Categories []CategoryLine

	snap              Snapshot
	paidByCertificate map[uuid.UUID]decimal.Decimal
}

// Compute filters the snapshot to its scope, drops soft-deleted rows and rows
// hanging off contracts that are no longer live, then derives all totals.
// It never fails: empty input yields zero totals and ON_BUDGET.
func Compute(snap Snapshot) *Aggregate {
	clean := filterSnapshot(snap)

	agg := &Aggregate{
		snap:              clean,
		paidByCertificate: make(map[uuid.UUID]decimal.Decimal),
	}

	lines := make(map[uuid.UUID]*ContractLine, len(clean.Contracts))
	order := make([]uuid.UUID, 0, len(clean.Contracts))
	for _, c := range clean.Contracts {
		lines[c.ID] = &ContractLine{
			ContractID:   c.ID,
			Title:        c.Title,
			Currency:     c.Currency,
			Status:       c.Status,
			CostCategory: categoryKey(c.CostCategory),
			BaseAmount:   c.BaseAmount,
		}
		order = append(order, c.ID)
	}

	t := &agg.Totals
	for _, co := range clean.ChangeOrders {
		line := lines[co.ContractID]
		switch {
		case co.Status == model.ChangeOrderStatusApproved:
			t.ApprovedChangeOrdersTotal = t.ApprovedChangeOrdersTotal.Add(co.AmountDelta)
			line.ApprovedChangeOrders = line.ApprovedChangeOrders.Add(co.AmountDelta)
		case co.Status.IsPending():
			t.PendingChangeOrdersTotal = t.PendingChangeOrdersTotal.Add(co.AmountDelta)
			line.PendingChangeOrders = line.PendingChangeOrders.Add(co.AmountDelta)
		case co.Status == model.ChangeOrderStatusRejected:
			t.RejectedChangeOrdersTotal = t.RejectedChangeOrdersTotal.Add(co.AmountDelta)
		}
	}

	for _, cert := range clean.Certificates {
		if cert.Status != model.CertificateStatusApproved {
			continue
		}
		t.TotalCertifiedAmount = t.TotalCertifiedAmount.Add(cert.AmountPayable)
		t.TotalRetentionAmount = t.TotalRetentionAmount.Add(cert.RetentionAmount)
		line := lines[cert.ContractID]
		line.CertifiedAmount = line.CertifiedAmount.Add(cert.AmountPayable)
	}

	// Every payment row counts, planned or paid.
	for _, p := range clean.Payments {
		t.TotalPaidAmount = t.TotalPaidAmount.Add(p.AmountPaid)
		line := lines[p.ContractID]
		line.PaidAmount = line.PaidAmount.Add(p.AmountPaid)
		if p.CertificateID != nil {
			agg.paidByCertificate[*p.CertificateID] = agg.paidByCertificate[*p.CertificateID].Add(p.AmountPaid)
		}
	}

	for _, id := range order {
		line := lines[id]
		line.CurrentAmount = line.BaseAmount.Add(line.ApprovedChangeOrders)
		line.OutstandingAmount = line.CurrentAmount.Sub(line.PaidAmount)
		t.ContractBaseTotal = t.ContractBaseTotal.Add(line.BaseAmount)
		t.ContractCurrentTotal = t.ContractCurrentTotal.Add(line.CurrentAmount)
		agg.Contracts = append(agg.Contracts, *line)
	}
	sort.SliceStable(agg.Contracts, func(i, j int) bool {
		if agg.Contracts[i].Title != agg.Contracts[j].Title {
			return agg.Contracts[i].Title < agg.Contracts[j].Title
		}
		return agg.Contracts[i].ContractID.String() < agg.Contracts[j].ContractID.String()
	})

	for _, b := range clean.BudgetLines {
		t.BudgetTotal = t.BudgetTotal.Add(b.AmountBudget)
	}

	t.OutstandingAmount = t.ContractCurrentTotal.Sub(t.TotalPaidAmount)
	t.ForecastFinalCost = t.ContractCurrentTotal.Add(t.PendingChangeOrdersTotal)
	t.VarianceVsBudget = t.ForecastFinalCost.Sub(t.BudgetTotal)
	t.VarianceVsContractCurrent = t.ForecastFinalCost.Sub(t.ContractCurrentTotal)
	t.VariancePercent = percentOf(t.VarianceVsBudget, t.BudgetTotal)

	agg.Health = ClassifyHealth(t.BudgetTotal, t.ForecastFinalCost, t.PendingChangeOrdersTotal)
	agg.Categories = buildCategories(agg.Contracts, clean.BudgetLines)
	return agg
}

func filterSnapshot(snap Snapshot) Snapshot {
	scope := snap.Scope
	out := Snapshot{Scope: scope}

	live := make(map[uuid.UUID]struct{}, len(snap.Contracts))
	for _, c := range snap.Contracts {
		if c.DeletedAt != nil || !scope.Contains(c.TenantID, c.ProjectID) {
			continue
		}
		if _, dup := live[c.ID]; dup {
			continue
		}
		live[c.ID] = struct{}{}
		out.Contracts = append(out.Contracts, c)
	}
	onLiveContract := func(id uuid.UUID) bool {
		_, ok := live[id]
		return ok
	}

	for _, co := range snap.ChangeOrders {
		if co.DeletedAt == nil && scope.Contains(co.TenantID, co.ProjectID) && onLiveContract(co.ContractID) {
			out.ChangeOrders = append(out.ChangeOrders, co)
		}
	}
	for _, cert := range snap.Certificates {
		if cert.DeletedAt == nil && scope.Contains(cert.TenantID, cert.ProjectID) && onLiveContract(cert.ContractID) {
			out.Certificates = append(out.Certificates, cert)
		}
	}
	for _, p := range snap.Payments {
		if p.DeletedAt == nil && scope.Contains(p.TenantID, p.ProjectID) && onLiveContract(p.ContractID) {
			out.Payments = append(out.Payments, p)
		}
	}
	for _, b := range snap.BudgetLines {
		if b.DeletedAt == nil && scope.Contains(b.TenantID, b.ProjectID) {
			out.BudgetLines = append(out.BudgetLines, b)
		}
	}
	return out
}

func buildCategories(contracts []ContractLine, budget []model.BudgetLine) []CategoryLine {
	byKey := make(map[string]*CategoryLine)
	get := func(key string) *CategoryLine {
		line, ok := byKey[key]
		if !ok {
			line = &CategoryLine{Category: key}
			byKey[key] = line
		}
		return line
	}

	for _, b := range budget {
		line := get(categoryKey(b.CostCategory))
		line.BudgetTotal = line.BudgetTotal.Add(b.AmountBudget)
	}
	for _, c := range contracts {
		line := get(c.CostCategory)
		line.ContractCurrentTotal = line.ContractCurrentTotal.Add(c.CurrentAmount)
		line.PendingChangeOrdersTotal = line.PendingChangeOrdersTotal.Add(c.PendingChangeOrders)
	}

	result := make([]CategoryLine, 0, len(byKey))
	for _, line := range byKey {
		line.ForecastFinalCost = line.ContractCurrentTotal.Add(line.PendingChangeOrdersTotal)
		line.VarianceVsBudget = line.ForecastFinalCost.Sub(line.BudgetTotal)
		result = append(result, *line)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Category < result[j].Category })
	return result
}

func categoryKey(category *string) string {
	if category == nil || *category == "" {
		return uncategorized
	}
	return *category
}

func percentOf(part, whole decimal.Decimal) decimal.Decimal {
	if whole.IsZero() {
		return decimal.Zero
	}
	return part.Div(whole).Mul(hundred).Round(2)
}
