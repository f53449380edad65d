// Package report reads and writes the spreadsheets around a count: the
// variance report handed to approvers and the count sheet used on the floor.
package report

import (
	"fmt"
	"io"

	"github.com/erp/stockcount/internal/domain/inventory"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const (
	summarySheet   = "Summary"
	varianceSheet  = "Variances"
	linesSheet     = "Lines"
	countSheet     = "Count Sheet"
	quantityFormat = "#,##0.####"
	moneyFormat    = "#,##0.00"
)

// Workbooks writes variance reports and count sheets and reads filled-in
// count sheets back.
type Workbooks struct{}

func NewWorkbooks() *Workbooks {
	return &Workbooks{}
}

type styles struct {
	header   int
	quantity int
	money    int
	overage  int
	shortage int
}

func newStyles(f *excelize.File) (styles, error) {
	var s styles
	var err error
	qty, money := quantityFormat, moneyFormat
	if s.header, err = f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#DDEBF7"}},
		Border: []excelize.Border{
			{Type: "bottom", Color: "#9BC2E6", Style: 1},
		},
	}); err != nil {
		return s, err
	}
	if s.quantity, err = f.NewStyle(&excelize.Style{CustomNumFmt: &qty}); err != nil {
		return s, err
	}
	if s.money, err = f.NewStyle(&excelize.Style{CustomNumFmt: &money}); err != nil {
		return s, err
	}
	if s.overage, err = f.NewStyle(&excelize.Style{CustomNumFmt: &qty, Font: &excelize.Font{Color: "#1E7B34"}}); err != nil {
		return s, err
	}
	if s.shortage, err = f.NewStyle(&excelize.Style{CustomNumFmt: &qty, Font: &excelize.Font{Color: "#C00000"}}); err != nil {
		return s, err
	}
	return s, nil
}

// WriteVarianceReport writes a workbook with a summary sheet, the variance
// lines and every count line.
func (w *Workbooks) WriteVarianceReport(out io.Writer, ic *inventory.InventoryCount, summary inventory.VarianceSummary) error {
	f := excelize.NewFile()
	defer f.Close()

	st, err := newStyles(f)
	if err != nil {
		return fmt.Errorf("create styles: %w", err)
	}
	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return err
	}
	if err := writeSummary(f, st, ic, summary); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	if err := writeVariances(f, st, summary); err != nil {
		return fmt.Errorf("write variances: %w", err)
	}
	if err := writeLines(f, st, ic); err != nil {
		return fmt.Errorf("write lines: %w", err)
	}
	return f.Write(out)
}

func writeSummary(f *excelize.File, st styles, ic *inventory.InventoryCount, summary inventory.VarianceSummary) error {
	decided := ""
	if ic.DecidedAt != nil {
		decided = ic.DecidedAt.Format("2006-01-02 15:04")
	}
	rows := [][]any{
		{"Count number", ic.CountNumber},
		{"Warehouse", ic.WarehouseName},
		{"Count date", ic.CountDate.Format("2006-01-02")},
		{"Conducted by", ic.ConductedByName},
		{"Status", ic.Status.String()},
		{"Version", ic.Version},
		{"Decided by", ic.DecidedByName},
		{"Decided at", decided},
		{"Lines", summary.TotalLines},
		{"Counted lines", ic.CountedItemsCount},
		{"Variances", len(summary.Variances)},
		{"Overages", len(summary.Overages)},
		{"Shortages", len(summary.Shortages)},
		{"Uncounted", len(summary.Uncounted)},
		{"Net variance", summary.NetVariance().InexactFloat64()},
		{"Tolerance", inventory.VarianceTolerance.InexactFloat64()},
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(summarySheet, cell, &row); err != nil {
			return err
		}
	}
	if err := f.SetCellStyle(summarySheet, "A1", fmt.Sprintf("A%d", len(rows)), st.header); err != nil {
		return err
	}
	return f.SetColWidth(summarySheet, "A", "B", 22)
}

func writeVariances(f *excelize.File, st styles, summary inventory.VarianceSummary) error {
	if _, err := f.NewSheet(varianceSheet); err != nil {
		return err
	}
	if err := writeHeader(f, st, varianceSheet, "Product", "Expected", "Counted", "Variance", "Type"); err != nil {
		return err
	}
	for i, v := range summary.Variances {
		row := i + 2
		cell, _ := excelize.CoordinatesToCellName(1, row)
		values := []any{v.Name, v.Expected.InexactFloat64(), v.Actual.InexactFloat64(), v.Variance.InexactFloat64(), string(v.Sign)}
		if err := f.SetSheetRow(varianceSheet, cell, &values); err != nil {
			return err
		}
		if err := f.SetCellStyle(varianceSheet, fmt.Sprintf("B%d", row), fmt.Sprintf("C%d", row), st.quantity); err != nil {
			return err
		}
		style := st.shortage
		if v.Sign == inventory.VarianceOverage {
			style = st.overage
		}
		if err := f.SetCellStyle(varianceSheet, fmt.Sprintf("D%d", row), fmt.Sprintf("D%d", row), style); err != nil {
			return err
		}
	}
	if err := f.SetColWidth(varianceSheet, "A", "A", 36); err != nil {
		return err
	}
	return f.SetColWidth(varianceSheet, "B", "E", 14)
}

func writeLines(f *excelize.File, st styles, ic *inventory.InventoryCount) error {
	if _, err := f.NewSheet(linesSheet); err != nil {
		return err
	}
	if err := writeHeader(f, st, linesSheet, "Product Code", "Product", "Unit", "Expected", "Counted", "Difference", "Unit Cost", "Difference Amount", "Notes"); err != nil {
		return err
	}
	for i := range ic.Items {
		item := &ic.Items[i]
		row := i + 2
		values := []any{item.ProductCode, item.ProductName, item.Unit, item.ExpectedQuantity.InexactFloat64(), nil, nil, item.UnitCost.InexactFloat64(), nil, item.Notes}
		if diff, ok := item.Difference(); ok {
			actual, _ := item.ActualQuantity.Value()
			values[4] = actual.InexactFloat64()
			values[5] = diff.InexactFloat64()
			values[7] = diff.Mul(item.UnitCost).Round(2).InexactFloat64()
		}
		cell, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(linesSheet, cell, &values); err != nil {
			return err
		}
		if err := f.SetCellStyle(linesSheet, fmt.Sprintf("D%d", row), fmt.Sprintf("F%d", row), st.quantity); err != nil {
			return err
		}
		if err := f.SetCellStyle(linesSheet, fmt.Sprintf("G%d", row), fmt.Sprintf("H%d", row), st.money); err != nil {
			return err
		}
	}
	if err := f.SetColWidth(linesSheet, "A", "A", 16); err != nil {
		return err
	}
	if err := f.SetColWidth(linesSheet, "B", "B", 36); err != nil {
		return err
	}
	return f.SetColWidth(linesSheet, "C", "I", 14)
}

func writeHeader(f *excelize.File, st styles, sheet string, titles ...string) error {
	header := make([]any, len(titles))
	for i, t := range titles {
		header[i] = t
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	last, _ := excelize.CoordinatesToCellName(len(titles), 1)
	if err := f.SetCellStyle(sheet, "A1", last, st.header); err != nil {
		return err
	}
	return f.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})
}

func decimalCell(d *decimal.Decimal) any {
	if d == nil {
		return nil
	}
	return d.InexactFloat64()
}
