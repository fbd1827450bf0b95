package pdf

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"

	"github.com/nurpe/weshare-leasing/internal/model"
)

type Generator struct {
	fontName string
}

func NewGenerator() *Generator {
	return &Generator{fontName: "Helvetica"}
}

func (g *Generator) Generate(doc model.InvoiceDocument) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.SetTitle("Invoice "+doc.Invoice.Number(), true)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont(g.fontName, "B", 18)
	pdf.CellFormat(0, 10, tr(safeValue(doc.CompanyName)), "", 1, "L", false, 0, "")
	pdf.SetFont(g.fontName, "B", 14)
	pdf.CellFormat(0, 8, tr("Invoice "+doc.Invoice.Number()), "", 1, "L", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont(g.fontName, "", 10)
	lines := []string{
		fmt.Sprintf("Project: %s", safeValue(doc.ProjectName)),
		fmt.Sprintf("Bill to: %s", safeValue(doc.OfftakerName)),
		fmt.Sprintf("Email: %s", safeValue(doc.OfftakerMail)),
		fmt.Sprintf("Invoice date: %s", formatDate(doc.Invoice.InvoiceDate)),
		fmt.Sprintf("Due date: %s", formatDate(doc.Invoice.DueDate)),
		fmt.Sprintf("Status: %s", statusLabel(doc.Invoice.Status)),
	}
	for _, line := range lines {
		pdf.MultiCell(0, 5, tr(line), "", "L", false)
	}
	pdf.Ln(4)

	headers := []string{"Item", "Units", "Unit price", "Line total"}
	colWidths := []float64{95, 20, 32.5, 32.5}
	drawTableRow(pdf, g.fontName, tr, headers, colWidths, true)
	for _, item := range doc.Invoice.Items {
		drawTableRow(pdf, g.fontName, tr, []string{
			item.Item,
			fmt.Sprintf("%d", item.Unit),
			formatAmount(item.Price),
			formatAmount(item.Total),
		}, colWidths, false)
	}

	pdf.Ln(2)
	pdf.SetFont(g.fontName, "", 11)
	pdf.CellFormat(0, 6, "Subtotal: "+formatAmount(doc.Invoice.SubAmount), "", 1, "R", false, 0, "")
	pdf.CellFormat(0, 6, "Tax: "+formatAmount(doc.Invoice.TaxAmount), "", 1, "R", false, 0, "")
	pdf.SetFont(g.fontName, "B", 12)
	pdf.CellFormat(0, 8, "Total: "+formatAmount(doc.Invoice.TotalAmount), "", 1, "R", false, 0, "")

	if strings.TrimSpace(doc.Invoice.Notes) != "" {
		pdf.Ln(4)
		pdf.SetFont(g.fontName, "B", 11)
		pdf.CellFormat(0, 6, "Notes", "", 1, "L", false, 0, "")
		pdf.SetFont(g.fontName, "", 10)
		pdf.MultiCell(0, 5, tr(doc.Invoice.Notes), "", "L", false)
	}

	if doc.SupportEmail != "" {
		pdf.Ln(6)
		pdf.SetFont(g.fontName, "I", 9)
		pdf.CellFormat(0, 5, tr("Questions: "+doc.SupportEmail), "", 1, "C", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func drawTableRow(pdf *gofpdf.Fpdf, fontName string, tr func(string) string, cols []string, widths []float64, header bool) {
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
		pdf.CellFormat(widths[i], 8, tr(col), "1", 0, align, false, 0, "")
	}
	pdf.Ln(-1)
}

func statusLabel(status model.InvoiceStatus) string {
	if status == model.InvoiceStatusPaid {
		return "Paid"
	}
	return "Draft"
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

func formatDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "-"
	}
	return t.Format("2006-01-02")
}
