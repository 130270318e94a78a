package pdf

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"

	"github.com/nurpe/snowops-costcontrol/internal/costengine"
)

type Generator struct {
	fontName string
}

func NewGenerator() *Generator {
	return &Generator{fontName: "Helvetica"}
}

func (g *Generator) Generate(report costengine.Report) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.SetTitle("Cost report", true)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont(g.fontName, "B", 14)
	pdf.CellFormat(0, 10, tr("Project cost report"), "", 1, "C", false, 0, "")
	pdf.SetFont(g.fontName, "", 11)
	pdf.CellFormat(0, 6, tr(safeValue(report.Project.Name)), "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Generated %s", formatDate(report.GeneratedAt)), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	g.section(pdf, "Status")
	statusColor(pdf, report.Health.Status)
	pdf.CellFormat(0, 6, fmt.Sprintf("Health: %s", report.Health.Status), "", 1, "L", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
	pdf.CellFormat(0, 6, fmt.Sprintf("Approval flow: %s", report.Flow.Status), "", 1, "L", false, 0, "")
	pdf.Ln(2)

	t := report.Dashboard.Summary.Totals
	g.section(pdf, "Totals")
	widths := []float64{110, 70}
	rows := [][2]string{
		{"Contract base total", formatAmount(t.ContractBaseTotal)},
		{"Approved change orders", formatAmount(t.ApprovedChangeOrdersTotal)},
		{"Contract current total", formatAmount(t.ContractCurrentTotal)},
		{"Pending change orders", formatAmount(t.PendingChangeOrdersTotal)},
		{"Certified", formatAmount(t.TotalCertifiedAmount)},
		{"Retention held", formatAmount(t.TotalRetentionAmount)},
		{"Paid", formatAmount(t.TotalPaidAmount)},
		{"Outstanding", formatAmount(t.OutstandingAmount)},
		{"Budget", formatAmount(t.BudgetTotal)},
		{"Forecast final cost", formatAmount(t.ForecastFinalCost)},
	}
	for _, row := range rows {
		drawTableRow(pdf, g.fontName, []string{row[0], row[1]}, widths, false)
	}
	pdf.Ln(2)

	v := report.Dashboard.Variance
	g.section(pdf, "Variance")
	drawTableRow(pdf, g.fontName, []string{"Vs budget", formatAmount(v.VsBudget)}, widths, false)
	drawTableRow(pdf, g.fontName, []string{"Vs contract current", formatAmount(v.VsContractCurrent)}, widths, false)
	drawTableRow(pdf, g.fontName, []string{"Percent of budget", v.PercentOfBudget.StringFixed(2) + " %"}, widths, false)
	pdf.Ln(2)

	g.section(pdf, "Categories")
	catWidths := []float64{50, 32, 32, 32, 34}
	drawTableRow(pdf, g.fontName, []string{"Category", "Budget", "Current", "Forecast", "Variance"}, catWidths, true)
	for _, c := range report.Dashboard.Summary.Categories {
		drawTableRow(pdf, g.fontName, []string{
			tr(c.Category),
			formatAmount(c.BudgetTotal),
			formatAmount(c.ContractCurrentTotal),
			formatAmount(c.ForecastFinalCost),
			formatAmount(c.VarianceVsBudget),
		}, catWidths, false)
	}

	if len(report.Alerts.Alerts) > 0 {
		pdf.Ln(2)
		g.section(pdf, "Alerts")
		pdf.SetFont(g.fontName, "", 10)
		for _, alert := range report.Alerts.Alerts {
			if alert.Severity == costengine.SeverityCritical {
				pdf.SetTextColor(200, 0, 0)
			}
			pdf.MultiCell(0, 5, tr(fmt.Sprintf("[%s] %s", alert.Severity, alert.Message)), "", "L", false)
			pdf.SetTextColor(0, 0, 0)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (g *Generator) section(pdf *gofpdf.Fpdf, title string) {
	pdf.SetFont(g.fontName, "B", 12)
	pdf.CellFormat(0, 8, title, "", 1, "L", false, 0, "")
	pdf.SetFont(g.fontName, "", 10)
}

func drawTableRow(pdf *gofpdf.Fpdf, fontName string, cols []string, widths []float64, header bool) {
	style := ""
	if header {
		style = "B"
	}
	pdf.SetFont(fontName, style, 10)
	for i, col := range cols {
		align := "L"
		if i > 0 {
			align = "R"
		}
		pdf.CellFormat(widths[i], 7, col, "1", 0, align, false, 0, "")
	}
	pdf.Ln(-1)
}

func statusColor(pdf *gofpdf.Fpdf, status costengine.HealthStatus) {
	switch status {
	case costengine.HealthOverBudget:
		pdf.SetTextColor(200, 0, 0)
	case costengine.HealthAtRisk:
		pdf.SetTextColor(200, 120, 0)
	default:
		pdf.SetTextColor(0, 120, 0)
	}
}

func safeValue(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}
	return value
}

func formatAmount(value decimal.Decimal) string {
	return value.StringFixed(2)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("02.01.2006")
}
