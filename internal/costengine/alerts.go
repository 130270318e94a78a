package costengine

import (
	"fmt"
	"time"

	"github.com/nurpe/snowops-costcontrol/internal/model"
)

type AlertCode string

const (
	AlertPendingChangeOrdersOverdue AlertCode = "pending_change_orders_overdue"
	AlertApprovedCertificatesUnpaid AlertCode = "approved_certificates_unpaid"
	AlertCostHealthWarning          AlertCode = "cost_health_warning"
	AlertPendingCOHighImpact        AlertCode = "pending_co_high_impact"
)

type AlertSeverity string

const (
	SeverityWarning  AlertSeverity = "warning"
	SeverityCritical AlertSeverity = "critical"
)

type Alert struct {
	Code     AlertCode     `json:"code"`
	Severity AlertSeverity `json:"severity"`
	Message  string        `json:"message"`
	Count    int           `json:"count"`
}

type AlertDetails struct {
	PendingCOCount          int `json:"pending_co_count"`
	OverdueCOCount          int `json:"overdue_co_count"`
	UnpaidCertificatesCount int `json:"unpaid_certificates_count"`
	ThresholdDays           int `json:"threshold_days"`
}

type AlertReport struct {
	Alerts  []Alert      `json:"alerts"`
	Details AlertDetails `json:"details"`
}

// Alerts evaluates every rule independently; several may fire at once.
func (a *Aggregate) Alerts(now time.Time, thresholdDays int) AlertReport {
	thresholdDays = normalizeThreshold(thresholdDays)

	details := AlertDetails{ThresholdDays: thresholdDays}
	for _, co := range a.snap.ChangeOrders {
		if !co.Status.IsPending() {
			continue
		}
		details.PendingCOCount++
		if overdue(co.CreatedAt, now, thresholdDays) {
			details.OverdueCOCount++
		}
	}
	for _, cert := range a.snap.Certificates {
		if cert.Status != model.CertificateStatusApproved {
			continue
		}
		if !overdue(cert.UpdatedAt, now, thresholdDays) {
			continue
		}
		if a.paidByCertificate[cert.ID].LessThan(cert.AmountPayable) {
			details.UnpaidCertificatesCount++
		}
	}

	alerts := make([]Alert, 0, 4)
	if details.OverdueCOCount > 0 {
		alerts = append(alerts, Alert{
			Code:     AlertPendingChangeOrdersOverdue,
			Severity: SeverityWarning,
			Message:  fmt.Sprintf("%d change order(s) pending for more than %d days", details.OverdueCOCount, thresholdDays),
			Count:    details.OverdueCOCount,
		})
	}
	if details.UnpaidCertificatesCount > 0 {
		alerts = append(alerts, Alert{
			Code:     AlertApprovedCertificatesUnpaid,
			Severity: SeverityWarning,
			Message:  fmt.Sprintf("%d approved certificate(s) not fully paid after %d days", details.UnpaidCertificatesCount, thresholdDays),
			Count:    details.UnpaidCertificatesCount,
		})
	}
	if a.Health.IsWarning() {
		severity := SeverityWarning
		if a.Health == HealthOverBudget {
			severity = SeverityCritical
		}
		alerts = append(alerts, Alert{
			Code:     AlertCostHealthWarning,
			Severity: severity,
			Message:  fmt.Sprintf("project cost health is %s", a.Health),
			Count:    1,
		})
	}
	t := a.Totals
	if t.BudgetTotal.IsPositive() && t.PendingChangeOrdersTotal.GreaterThan(t.BudgetTotal.Mul(highImpactFraction)) {
		alerts = append(alerts, Alert{
			Code:     AlertPendingCOHighImpact,
			Severity: SeverityWarning,
			Message:  fmt.Sprintf("pending change orders total %s exceeds 10%% of budget", t.PendingChangeOrdersTotal.StringFixed(2)),
			Count:    details.PendingCOCount,
		})
	}

	return AlertReport{Alerts: alerts, Details: details}
}

func normalizeThreshold(thresholdDays int) int {
	if thresholdDays <= 0 {
		return DefaultThresholdDays
	}
	return thresholdDays
}

// overdue reports whether more than thresholdDays calendar days separate at
// from now. Calendar arithmetic keeps large thresholds from overflowing.
func overdue(at, now time.Time, thresholdDays int) bool {
	return at.AddDate(0, 0, thresholdDays).Before(now)
}
