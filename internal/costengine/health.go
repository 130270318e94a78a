package costengine

import "github.com/shopspring/decimal"

type HealthStatus string

const (
	HealthOnBudget    HealthStatus = "ON_BUDGET"
	HealthOverBudget  HealthStatus = "OVER_BUDGET"
	HealthUnderBudget HealthStatus = "UNDER_BUDGET"
	HealthAtRisk      HealthStatus = "AT_RISK"
)

// IsWarning reports whether the status should raise a cost health alert.
func (h HealthStatus) IsWarning() bool {
	return h == HealthAtRisk || h == HealthOverBudget
}

// ClassifyHealth applies the budget decision table in order; the first
// matching rule wins.
func ClassifyHealth(budgetTotal, forecastFinalCost, pendingChangeOrders decimal.Decimal) HealthStatus {
	if budgetTotal.IsZero() {
		return HealthOnBudget
	}
	if forecastFinalCost.GreaterThan(budgetTotal) {
		return HealthOverBudget
	}
	threshold := budgetTotal.Mul(underBudgetFraction)
	if forecastFinalCost.Sub(budgetTotal).LessThan(threshold) {
		return HealthUnderBudget
	}
	if pendingChangeOrders.IsPositive() {
		return HealthAtRisk
	}
	return HealthOnBudget
}

type HealthStats struct {
	BudgetTotal              decimal.Decimal `json:"budget_total"`
	ContractCurrentTotal     decimal.Decimal `json:"contract_current_total"`
	PendingChangeOrdersTotal decimal.Decimal `json:"pending_change_orders_total"`
	ForecastFinalCost        decimal.Decimal `json:"forecast_final_cost"`
	VarianceVsBudget         decimal.Decimal `json:"variance_vs_budget"`
	VariancePercent          decimal.Decimal `json:"variance_percent"`
}

type HealthReport struct {
	Status HealthStatus `json:"status"`
	Stats  HealthStats  `json:"stats"`
}

func (a *Aggregate) HealthReport() HealthReport {
	t := a.Totals
	return HealthReport{
		Status: a.Health,
		Stats: HealthStats{
			BudgetTotal:              t.BudgetTotal,
			ContractCurrentTotal:     t.ContractCurrentTotal,
			PendingChangeOrdersTotal: t.PendingChangeOrdersTotal,
			ForecastFinalCost:        t.ForecastFinalCost,
			VarianceVsBudget:         t.VarianceVsBudget,
			VariancePercent:          t.VariancePercent,
		},
	}
}
