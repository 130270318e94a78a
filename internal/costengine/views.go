package costengine

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nurpe/snowops-costcontrol/internal/model"
)

type Summary struct {
	Totals     Totals         `json:"totals"`
	Health     HealthStatus   `json:"health"`
	Categories []CategoryLine `json:"per_category_breakdown"`
}

type Variance struct {
	VsBudget          decimal.Decimal `json:"vs_budget"`
	VsContractCurrent decimal.Decimal `json:"vs_contract_current"`
	PercentOfBudget   decimal.Decimal `json:"percent_of_budget"`
}

type MonthBucket struct {
	Year   int             `json:"year"`
	Month  int             `json:"month"`
	Amount decimal.Decimal `json:"amount"`
	Count  int             `json:"count"`
}

type TimeSeries struct {
	Months       int           `json:"months"`
	Certificates []MonthBucket `json:"certificates"`
	Payments     []MonthBucket `json:"payments"`
}

type Dashboard struct {
	Summary    Summary        `json:"summary"`
	Variance   Variance       `json:"variance"`
	Contracts  []ContractLine `json:"contracts_breakdown"`
	TimeSeries TimeSeries     `json:"time_series"`
}

func (a *Aggregate) Summary() Summary {
	categories := a.Categories
	if categories == nil {
		categories = []CategoryLine{}
	}
	return Summary{Totals: a.Totals, Health: a.Health, Categories: categories}
}

func (a *Aggregate) Dashboard(now time.Time, months int) Dashboard {
	contracts := a.Contracts
	if contracts == nil {
		contracts = []ContractLine{}
	}
	return Dashboard{
		Summary: a.Summary(),
		Variance: Variance{
			VsBudget:          a.Totals.VarianceVsBudget,
			VsContractCurrent: a.Totals.VarianceVsContractCurrent,
			PercentOfBudget:   a.Totals.VariancePercent,
		},
		Contracts:  contracts,
		TimeSeries: a.TimeSeries(now, months),
	}
}

// TimeSeries buckets approved certificates and paid payments by calendar
// month over a trailing window ending in now's month. Months without activity
// are left out rather than zero-filled.
func (a *Aggregate) TimeSeries(now time.Time, months int) TimeSeries {
	if months <= 0 {
		months = DefaultSeriesMonths
	}
	now = now.UTC()
	currentMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	from := currentMonth.AddDate(0, -(months - 1), 0)
	to := currentMonth.AddDate(0, 1, 0)

	certs := newBucketer(from, to)
	for _, cert := range a.snap.Certificates {
		if cert.Status != model.CertificateStatusApproved {
			continue
		}
		at := cert.CreatedAt
		if cert.PeriodEnd != nil {
			at = *cert.PeriodEnd
		}
		certs.add(at, cert.AmountPayable)
	}

	payments := newBucketer(from, to)
	for _, p := range a.snap.Payments {
		if p.PaidDate == nil {
			continue
		}
		payments.add(*p.PaidDate, p.AmountPaid)
	}

	return TimeSeries{
		Months:       months,
		Certificates: certs.result(),
		Payments:     payments.result(),
	}
}

type monthKey struct {
	year  int
	month time.Month
}

type bucketer struct {
	from, to time.Time
	buckets  map[monthKey]*MonthBucket
}

func newBucketer(from, to time.Time) *bucketer {
	return &bucketer{from: from, to: to, buckets: make(map[monthKey]*MonthBucket)}
}

func (b *bucketer) add(at time.Time, amount decimal.Decimal) {
	at = at.UTC()
	if at.Before(b.from) || !at.Before(b.to) {
		return
	}
	key := monthKey{year: at.Year(), month: at.Month()}
	bucket, ok := b.buckets[key]
	if !ok {
		bucket = &MonthBucket{Year: key.year, Month: int(key.month)}
		b.buckets[key] = bucket
	}
	bucket.Amount = bucket.Amount.Add(amount)
	bucket.Count++
}

func (b *bucketer) result() []MonthBucket {
	out := make([]MonthBucket, 0, len(b.buckets))
	for _, bucket := range b.buckets {
		out = append(out, *bucket)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year < out[j].Year
		}
		return out[i].Month < out[j].Month
	})
	return out
}
