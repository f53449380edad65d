package report

import (
	"fmt"
	"io"
	"strings"

	appinv "github.com/erp/stockcount/internal/application/inventory"
	"github.com/erp/stockcount/internal/domain/inventory"
	"github.com/erp/stockcount/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// Column titles of the count sheet. ReadCountSheet finds columns by these
// titles, so a sheet with reordered or extra columns still imports.
var countSheetColumns = []string{"Product Code", "Product", "Unit", "Expected", "Counted", "Notes"}

// WriteCountSheet writes the blank count sheet of a count. Lines already
// counted carry their quantity so a partial count can be resumed.
func (w *Workbooks) WriteCountSheet(out io.Writer, ic *inventory.InventoryCount) error {
	f := excelize.NewFile()
	defer f.Close()

	st, err := newStyles(f)
	if err != nil {
		return fmt.Errorf("create styles: %w", err)
	}
	if err := f.SetSheetName("Sheet1", countSheet); err != nil {
		return err
	}
	if err := writeHeader(f, st, countSheet, countSheetColumns...); err != nil {
		return err
	}
	for i := range ic.Items {
		item := &ic.Items[i]
		row := []any{item.ProductCode, item.ProductName, item.Unit, item.ExpectedQuantity.InexactFloat64(), decimalCell(item.ActualQuantity.Ptr()), item.Notes}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(countSheet, cell, &row); err != nil {
			return err
		}
	}
	if err := f.SetColWidth(countSheet, "A", "A", 16); err != nil {
		return err
	}
	if err := f.SetColWidth(countSheet, "B", "B", 36); err != nil {
		return err
	}
	if err := f.SetColWidth(countSheet, "C", "F", 14); err != nil {
		return err
	}
	return f.Write(out)
}

// ReadCountSheet parses the first sheet of an uploaded workbook. The header
// row must name a Counted column and a Product Code or Product column.
// Blank Counted cells come back with a nil quantity.
func (w *Workbooks) ReadCountSheet(r io.Reader) ([]appinv.CountSheetRow, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, invalidSheet("file is not a readable xlsx workbook")
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, invalidSheet("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, invalidSheet("sheet is empty")
	}

	cols := locateColumns(rows[0])
	if cols.counted < 0 || (cols.code < 0 && cols.name < 0) {
		return nil, invalidSheet("header row must contain Counted and Product Code or Product columns")
	}

	out := make([]appinv.CountSheetRow, 0, len(rows)-1)
	for i, row := range rows[1:] {
		rowNum := i + 2
		parsed := appinv.CountSheetRow{
			Row:         rowNum,
			ProductCode: cell(row, cols.code),
			ProductName: cell(row, cols.name),
			Notes:       cell(row, cols.notes),
		}
		if parsed.ProductCode == "" && parsed.ProductName == "" {
			continue
		}
		if raw := cell(row, cols.counted); raw != "" {
			qty, err := decimal.NewFromString(strings.ReplaceAll(raw, ",", ""))
			if err != nil {
				return nil, invalidSheet(fmt.Sprintf("row %d: %q is not a quantity", rowNum, raw))
			}
			parsed.ActualQuantity = &qty
		}
		out = append(out, parsed)
	}
	return out, nil
}

type sheetColumns struct {
	code, name, counted, notes int
}

func locateColumns(header []string) sheetColumns {
	cols := sheetColumns{code: -1, name: -1, counted: -1, notes: -1}
	for i, title := range header {
		switch strings.ToLower(strings.TrimSpace(title)) {
		case "product code", "code", "sku":
			cols.code = i
		case "product", "product name", "name":
			cols.name = i
		case "counted", "actual", "actual quantity", "counted quantity":
			cols.counted = i
		case "notes", "note":
			cols.notes = i
		}
	}
	return cols
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func invalidSheet(msg string) error {
	return shared.NewDomainError("INVALID_COUNT_SHEET", msg)
}

var (
	_ appinv.VarianceReportWriter = (*Workbooks)(nil)
	_ appinv.CountSheetReader     = (*Workbooks)(nil)
)
