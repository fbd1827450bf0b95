package excel

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/nurpe/weshare-leasing/internal/model"
)

type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

// Generate writes a summary sheet plus one detail sheet per project.
func (g *Generator) Generate(statement model.PayoutStatement) ([]byte, error) {
	file := excelize.NewFile()
	defer file.Close()

	summarySheet := "Summary"
	if err := file.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, err
	}
	g.writeSummary(file, summarySheet, statement)

	used := map[string]struct{}{summarySheet: {}}
	for _, projectID := range projectOrder(statement.Payouts) {
		name := buildSheetName(statement.ProjectNames[projectID], projectID, used)
		used[name] = struct{}{}
		if _, err := file.NewSheet(name); err != nil {
			return nil, err
		}
		g.writeDetail(file, name, statement, projectID)
	}

	file.SetActiveSheet(0)
	buf, err := file.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (g *Generator) writeSummary(file *excelize.File, sheet string, statement model.PayoutStatement) {
	set := func(cell string, value interface{}) {
		_ = file.SetCellValue(sheet, cell, value)
	}

	paid, pending := totals(statement.Payouts, 0)
	set("A1", "Investor")
	set("B1", statement.InvestorName)
	set("A2", "Year")
	set("B2", statement.Year)
	set("A3", "Payouts")
	set("B3", len(statement.Payouts))
	set("A4", "Paid")
	set("B4", paid.StringFixed(2))
	set("A5", "Pending")
	set("B5", pending.StringFixed(2))

	tableRow := 7
	set(fmt.Sprintf("A%d", tableRow), "Project")
	set(fmt.Sprintf("B%d", tableRow), "Payouts")
	set(fmt.Sprintf("C%d", tableRow), "Paid")
	set(fmt.Sprintf("D%d", tableRow), "Pending")

	for i, projectID := range projectOrder(statement.Payouts) {
		row := tableRow + 1 + i
		p, q := totals(statement.Payouts, projectID)
		set(fmt.Sprintf("A%d", row), projectLabel(statement.ProjectNames[projectID], projectID))
		set(fmt.Sprintf("B%d", row), countFor(statement.Payouts, projectID))
		set(fmt.Sprintf("C%d", row), p.StringFixed(2))
		set(fmt.Sprintf("D%d", row), q.StringFixed(2))
	}

	_ = file.SetColWidth(sheet, "A", "A", 40)
	_ = file.SetColWidth(sheet, "B", "D", 16)
}

func (g *Generator) writeDetail(file *excelize.File, sheet string, statement model.PayoutStatement, projectID int64) {
	set := func(cell string, value interface{}) {
		_ = file.SetCellValue(sheet, cell, value)
	}

	set("A1", "Project")
	set("B1", projectLabel(statement.ProjectNames[projectID], projectID))
	set("A2", "Year")
	set("B2", statement.Year)

	tableRow := 4
	headers := []string{
		"Payout number",
		"Created",
		"Invoice amount",
		"Investor %",
		"Payout amount",
		"Status",
		"Paid on",
		"Transaction",
	}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, tableRow)
		set(cell, header)
	}

	row := tableRow
	for _, payout := range statement.Payouts {
		if payout.ProjectID != projectID {
			continue
		}
		row++
		set(fmt.Sprintf("A%d", row), payout.Number())
		set(fmt.Sprintf("B%d", row), formatDate(&payout.CreatedAt))
		set(fmt.Sprintf("C%d", row), payout.InvoiceAmount.StringFixed(2))
		set(fmt.Sprintf("D%d", row), payout.InvestorPercent.StringFixed(2))
		set(fmt.Sprintf("E%d", row), payout.PayoutAmount.StringFixed(2))
		set(fmt.Sprintf("F%d", row), string(payout.Status))
		set(fmt.Sprintf("G%d", row), formatDate(payout.PayoutDate))
		set(fmt.Sprintf("H%d", row), payout.TransactionID)
	}

	_ = file.SetColWidth(sheet, "A", "B", 18)
	_ = file.SetColWidth(sheet, "C", "E", 16)
	_ = file.SetColWidth(sheet, "F", "G", 12)
	_ = file.SetColWidth(sheet, "H", "H", 24)
}

func projectOrder(payouts []model.Payout) []int64 {
	seen := make(map[int64]struct{})
	var ids []int64
	for _, p := range payouts {
		if _, ok := seen[p.ProjectID]; ok {
			continue
		}
		seen[p.ProjectID] = struct{}{}
		ids = append(ids, p.ProjectID)
	}
	return ids
}

// totals sums paid and pending payout amounts; projectID 0 means all.
func totals(payouts []model.Payout, projectID int64) (paid, pending decimal.Decimal) {
	for _, p := range payouts {
		if projectID != 0 && p.ProjectID != projectID {
			continue
		}
		if p.Status == model.PayoutStatusPaid {
			paid = paid.Add(p.PayoutAmount)
		} else {
			pending = pending.Add(p.PayoutAmount)
		}
	}
	return paid, pending
}

func countFor(payouts []model.Payout, projectID int64) int {
	n := 0
	for _, p := range payouts {
		if p.ProjectID == projectID {
			n++
		}
	}
	return n
}

func projectLabel(name string, id int64) string {
	if strings.TrimSpace(name) == "" {
		return "Project " + strconv.FormatInt(id, 10)
	}
	return name
}

func buildSheetName(name string, id int64, used map[string]struct{}) string {
	base := sanitizeSheetName(projectLabel(name, id))
	if len(base) > 31 {
		base = base[:31]
	}

	candidate := base
	counter := 2
	for {
		if _, exists := used[candidate]; !exists {
			return candidate
		}
		suffix := fmt.Sprintf("-%d", counter)
		trimmed := base
		if len(trimmed)+len(suffix) > 31 {
			trimmed = trimmed[:31-len(suffix)]
		}
		candidate = trimmed + suffix
		counter++
	}
}

func sanitizeSheetName(value string) string {
	replacer := strings.NewReplacer(
		"[", "-",
		"]", "-",
		":", "-",
		"*", "-",
		"?", "-",
		"/", "-",
		"\\", "-",
	)
	value = strings.TrimSpace(replacer.Replace(value))
	if value == "" {
		return "Project"
	}
	return value
}

func formatDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}
