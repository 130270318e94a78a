package excel

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/nurpe/snowops-costcontrol/internal/costengine"
)

const (
	summarySheet    = "Summary"
	contractsSheet  = "Contracts"
	categoriesSheet = "Categories"
	seriesSheet     = "Time series"
)

type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

// Generate renders the dashboard workbook: totals and health on the first
// sheet, then the contract, category and monthly breakdowns.
func (g *Generator) Generate(report costengine.Report) ([]byte, error) {
	file := excelize.NewFile()
	defer file.Close()

	if err := file.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, err
	}
	for _, sheet := range []string{contractsSheet, categoriesSheet, seriesSheet} {
		if _, err := file.NewSheet(sheet); err != nil {
			return nil, err
		}
	}

	styles, err := newStyles(file)
	if err != nil {
		return nil, err
	}

	g.writeSummary(file, styles, report)
	g.writeContracts(file, styles, report.Dashboard.Contracts)
	g.writeCategories(file, styles, report.Dashboard.Summary.Categories)
	g.writeTimeSeries(file, styles, report.Dashboard.TimeSeries)

	file.SetActiveSheet(0)
	buf, err := file.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type styles struct {
	header int
	money  int
}

func newStyles(file *excelize.File) (styles, error) {
	header, err := file.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"DDEBF7"}, Pattern: 1},
	})
	if err != nil {
		return styles{}, err
	}
	money, err := file.NewStyle(&excelize.Style{NumFmt: 4})
	if err != nil {
		return styles{}, err
	}
	return styles{header: header, money: money}, nil
}

type sheetWriter struct {
	file   *excelize.File
	sheet  string
	styles styles
}

func (w sheetWriter) set(col, row int, value interface{}) {
	cell, _ := excelize.CoordinatesToCellName(col, row)
	if d, ok := value.(decimal.Decimal); ok {
		// Untyped cell with the exact decimal text: Excel reads it as a number.
		_ = w.file.SetCellDefault(w.sheet, cell, d.StringFixed(2))
		_ = w.file.SetCellStyle(w.sheet, cell, cell, w.styles.money)
		return
	}
	_ = w.file.SetCellValue(w.sheet, cell, value)
}

func (w sheetWriter) header(row int, titles ...string) {
	for i, title := range titles {
		w.set(i+1, row, title)
	}
	first, _ := excelize.CoordinatesToCellName(1, row)
	last, _ := excelize.CoordinatesToCellName(len(titles), row)
	_ = w.file.SetCellStyle(w.sheet, first, last, w.styles.header)
}

func (g *Generator) writeSummary(file *excelize.File, st styles, report costengine.Report) {
	w := sheetWriter{file: file, sheet: summarySheet, styles: st}
	t := report.Dashboard.Summary.Totals

	rows := []struct {
		label string
		value interface{}
	}{
		{"Project", report.Project.Name},
		{"Generated at", formatDateTime(report.GeneratedAt)},
		{"Health", string(report.Health.Status)},
		{"Flow status", string(report.Flow.Status)},
		{"Contract base total", t.ContractBaseTotal},
		{"Approved change orders", t.ApprovedChangeOrdersTotal},
		{"Contract current total", t.ContractCurrentTotal},
		{"Pending change orders", t.PendingChangeOrdersTotal},
		{"Rejected change orders", t.RejectedChangeOrdersTotal},
		{"Certified", t.TotalCertifiedAmount},
		{"Retention", t.TotalRetentionAmount},
		{"Paid", t.TotalPaidAmount},
		{"Outstanding", t.OutstandingAmount},
		{"Budget", t.BudgetTotal},
		{"Forecast final cost", t.ForecastFinalCost},
		{"Variance vs budget", t.VarianceVsBudget},
		{"Variance vs contract current", t.VarianceVsContractCurrent},
		{"Variance % of budget", t.VariancePercent},
	}
	for i, r := range rows {
		w.set(1, i+1, r.label)
		w.set(2, i+1, r.value)
	}

	row := len(rows) + 2
	w.header(row, "Alert", "Severity", "Message")
	for i, alert := range report.Alerts.Alerts {
		w.set(1, row+1+i, string(alert.Code))
		w.set(2, row+1+i, string(alert.Severity))
		w.set(3, row+1+i, alert.Message)
	}

	_ = file.SetColWidth(summarySheet, "A", "A", 32)
	_ = file.SetColWidth(summarySheet, "B", "B", 20)
	_ = file.SetColWidth(summarySheet, "C", "C", 60)
}

func (g *Generator) writeContracts(file *excelize.File, st styles, contracts []costengine.ContractLine) {
	w := sheetWriter{file: file, sheet: contractsSheet, styles: st}
	w.header(1, "Contract", "Category", "Status", "Currency", "Base", "Approved CO",
		"Current", "Pending CO", "Certified", "Paid", "Outstanding")

	for i, c := range contracts {
		row := i + 2
		w.set(1, row, sheetText(c.Title))
		w.set(2, row, c.CostCategory)
		w.set(3, row, string(c.Status))
		w.set(4, row, c.Currency)
		w.set(5, row, c.BaseAmount)
		w.set(6, row, c.ApprovedChangeOrders)
		w.set(7, row, c.CurrentAmount)
		w.set(8, row, c.PendingChangeOrders)
		w.set(9, row, c.CertifiedAmount)
		w.set(10, row, c.PaidAmount)
		w.set(11, row, c.OutstandingAmount)
	}

	_ = file.SetColWidth(contractsSheet, "A", "A", 40)
	_ = file.SetColWidth(contractsSheet, "B", "D", 14)
	_ = file.SetColWidth(contractsSheet, "E", "K", 16)
}

func (g *Generator) writeCategories(file *excelize.File, st styles, categories []costengine.CategoryLine) {
	w := sheetWriter{file: file, sheet: categoriesSheet, styles: st}
	w.header(1, "Category", "Budget", "Contract current", "Pending CO", "Forecast", "Variance vs budget")

	for i, c := range categories {
		row := i + 2
		w.set(1, row, c.Category)
		w.set(2, row, c.BudgetTotal)
		w.set(3, row, c.ContractCurrentTotal)
		w.set(4, row, c.PendingChangeOrdersTotal)
		w.set(5, row, c.ForecastFinalCost)
		w.set(6, row, c.VarianceVsBudget)
	}

	_ = file.SetColWidth(categoriesSheet, "A", "A", 28)
	_ = file.SetColWidth(categoriesSheet, "B", "F", 18)
}

func (g *Generator) writeTimeSeries(file *excelize.File, st styles, series costengine.TimeSeries) {
	w := sheetWriter{file: file, sheet: seriesSheet, styles: st}
	w.header(1, "Month", "Certified", "Certificates", "Paid", "Payments")

	type month struct {
		certs, payments costengine.MonthBucket
	}
	byMonth := make(map[string]*month)
	var keys []string
	bucket := func(b costengine.MonthBucket) *month {
		key := fmt.Sprintf("%04d-%02d", b.Year, b.Month)
		m, ok := byMonth[key]
		if !ok {
			m = &month{}
			byMonth[key] = m
			keys = append(keys, key)
		}
		return m
	}
	for _, b := range series.Certificates {
		bucket(b).certs = b
	}
	for _, b := range series.Payments {
		bucket(b).payments = b
	}
	sort.Strings(keys)

	for i, key := range keys {
		row := i + 2
		m := byMonth[key]
		w.set(1, row, key)
		w.set(2, row, m.certs.Amount)
		w.set(3, row, m.certs.Count)
		w.set(4, row, m.payments.Amount)
		w.set(5, row, m.payments.Count)
	}

	_ = file.SetColWidth(seriesSheet, "A", "A", 12)
	_ = file.SetColWidth(seriesSheet, "B", "E", 16)
}

func sheetText(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "-"
	}
	return value
}

func formatDateTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format("2006-01-02 15:04:05")
}
