package costengine

import (
	"time"

	"github.com/nurpe/snowops-costcontrol/internal/model"
)

type FlowStatus string

const (
	FlowBlocked         FlowStatus = "BLOCKED"
	FlowDelayed         FlowStatus = "DELAYED"
	FlowPendingApproval FlowStatus = "PENDING_APPROVAL"
	FlowOK              FlowStatus = "OK"
)

type FlowCounts struct {
	Pending  int `json:"pending"`
	Delayed  int `json:"delayed"`
	Rejected int `json:"rejected"`
}

type FlowMetrics struct {
	ChangeOrders  FlowCounts `json:"change_orders"`
	Certificates  FlowCounts `json:"certificates"`
	ThresholdDays int        `json:"threshold_days"`
}

type FlowReport struct {
	Status  FlowStatus  `json:"status"`
	Metrics FlowMetrics `json:"metrics"`
}

// FlowStatus summarizes the approval pipeline across change orders and
// certificates. Rejections outrank delays, delays outrank plain pending items.
func (a *Aggregate) FlowStatus(now time.Time, thresholdDays int) FlowReport {
	thresholdDays = normalizeThreshold(thresholdDays)

	metrics := FlowMetrics{ThresholdDays: thresholdDays}
	for _, co := range a.snap.ChangeOrders {
		switch co.Status {
		case model.ChangeOrderStatusRejected:
			metrics.ChangeOrders.Rejected++
		case model.ChangeOrderStatusProposed:
			metrics.ChangeOrders.Pending++
			if overdue(co.UpdatedAt, now, thresholdDays) {
				metrics.ChangeOrders.Delayed++
			}
		}
	}
	for _, cert := range a.snap.Certificates {
		switch cert.Status {
		case model.CertificateStatusRejected:
			metrics.Certificates.Rejected++
		case model.CertificateStatusSubmitted:
			metrics.Certificates.Pending++
			if overdue(cert.UpdatedAt, now, thresholdDays) {
				metrics.Certificates.Delayed++
			}
		}
	}

	status := FlowOK
	switch {
	case metrics.ChangeOrders.Rejected+metrics.Certificates.Rejected > 0:
		status = FlowBlocked
	case metrics.ChangeOrders.Delayed+metrics.Certificates.Delayed > 0:
		status = FlowDelayed
	case metrics.ChangeOrders.Pending+metrics.Certificates.Pending > 0:
		status = FlowPendingApproval
	}
	return FlowReport{Status: status, Metrics: metrics}
}
