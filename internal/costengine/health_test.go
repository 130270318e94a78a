package costengine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/nurpe/snowops-costcontrol/internal/model"
)

func TestClassifyHealth_DecisionTable(t *testing.T) {
	cases := []struct {
		name     string
		budget   string
		forecast string
		pending  string
		expected HealthStatus
	}{
		{"zero budget wins over everything", "0", "5000", "5000", HealthOnBudget},
		{"zero budget with zero forecast", "0", "0", "0", HealthOnBudget},
		{"forecast above budget", "1000", "1000.01", "0", HealthOverBudget},
		{"forecast equal to budget without pending", "1000", "1000", "0", HealthOnBudget},
		{"forecast equal to budget with pending", "1000", "1000", "1", HealthAtRisk},
		{"exactly five percent under is not under budget", "1000", "950", "0", HealthOnBudget},
		{"just over five percent under", "1000", "949.99", "0", HealthUnderBudget},
		{"under budget outranks pending", "1000", "900", "100", HealthUnderBudget},
		{"pending within tolerance", "1000", "980", "30", HealthAtRisk},
		{"negative pending is not a risk", "1000", "990", "-10", HealthOnBudget},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ClassifyHealth(dec(tc.budget), dec(tc.forecast), dec(tc.pending))
			assert.Equal(t, tc.expected, got)
		})
	}
}

func TestHealth_AtRiskExample(t *testing.T) {
	f := newFixture()
	c := f.contract("950000")
	f.changeOrder(c, "30000", model.ChangeOrderStatusProposed, time.Hour)
	f.budget("1000000", nil)

	report := Compute(f.snap).HealthReport()
	assert.Equal(t, HealthAtRisk, report.Status)
	assertDecimal(t, "980000", report.Stats.ForecastFinalCost, "forecast")
	assertDecimal(t, "-20000", report.Stats.VarianceVsBudget, "variance")
	assertDecimal(t, "-2", report.Stats.VariancePercent, "variance percent")
}

func TestHealth_OverBudgetExample(t *testing.T) {
	f := newFixture()
	c := f.contract("950000")
	f.changeOrder(c, "100000", model.ChangeOrderStatusDraft, time.Hour)
	f.budget("1000000", nil)

	report := Compute(f.snap).HealthReport()
	assert.Equal(t, HealthOverBudget, report.Status)
	assertDecimal(t, "1050000", report.Stats.ForecastFinalCost, "forecast")
}

func TestHealth_MatchesSummary(t *testing.T) {
	f := newFixture()
	c := f.contract("500")
	f.changeOrder(c, "600", model.ChangeOrderStatusApproved, time.Hour)
	f.budget("1000", nil)

	agg := Compute(f.snap)
	assert.Equal(t, agg.Summary().Health, agg.HealthReport().Status)
	assert.Equal(t, HealthOverBudget, agg.Health)
}
