package costengine

import (
	"time"

	"github.com/nurpe/snowops-costcontrol/internal/model"
)

// Report bundles every view of one aggregate for file exports.
type Report struct {
	Project     model.Project
	GeneratedAt time.Time
	Dashboard   Dashboard
	Health      HealthReport
	Alerts      AlertReport
	Flow        FlowReport
}

func (a *Aggregate) Report(project model.Project, now time.Time, months, thresholdDays int) Report {
	return Report{
		Project:     project,
		GeneratedAt: now,
		Dashboard:   a.Dashboard(now, months),
		Health:      a.HealthReport(),
		Alerts:      a.Alerts(now, thresholdDays),
		Flow:        a.FlowStatus(now, thresholdDays),
	}
}
