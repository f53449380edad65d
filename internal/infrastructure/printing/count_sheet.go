package printing

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	"github.com/erp/stockcount/internal/domain/inventory"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

const countSheetTemplate = `<!DOCTYPE html>
<html><head><meta charset="UTF-8"><title>{{.Count.CountNumber}}</title>
<style>
body { font-family: "Noto Sans", Arial, sans-serif; font-size: 10pt; }
h1 { font-size: 14pt; margin: 0 0 4mm; }
table.meta td { padding: 1mm 4mm 1mm 0; }
table.lines { width: 100%; border-collapse: collapse; margin-top: 4mm; }
table.lines th, table.lines td { border: 0.3mm solid #888; padding: 1.5mm; }
table.lines th { background: #e8eef5; text-align: left; }
td.num { text-align: right; white-space: nowrap; }
td.blank { width: 28mm; }
tr { page-break-inside: avoid; }
</style></head>
<body>
<h1>Inventory count {{.Count.CountNumber}}</h1>
<table class="meta">
<tr><td>Warehouse</td><td>{{.Count.WarehouseName}}</td><td>Count date</td><td>{{.Count.CountDate.Format "2006-01-02"}}</td></tr>
<tr><td>Counter</td><td>{{.Count.ConductedByName}}</td><td>Lines</td><td>{{qty .Lines}}</td></tr>
</table>
<table class="lines">
<thead><tr><th>#</th><th>Code</th><th>Product</th><th>Unit</th>{{if .ShowExpected}}<th>Expected</th>{{end}}<th>Counted</th><th>Notes</th></tr></thead>
<tbody>
{{range $i, $item := .Count.Items}}<tr>
<td class="num">{{inc $i}}</td><td>{{$item.ProductCode}}</td><td>{{$item.ProductName}}</td><td>{{$item.Unit}}</td>
{{if $.ShowExpected}}<td class="num">{{qty $item.ExpectedQuantity}}</td>{{end}}
<td class="num blank">{{with $item.ActualQuantity.Ptr}}{{qty .}}{{end}}</td><td>{{$item.Notes}}</td>
</tr>
{{end}}</tbody>
</table>
</body></html>`

const countSheetFooter = `<div style="font-size:8pt;width:100%;text-align:center;">` +
	`<span class="title"></span> · <span class="pageNumber"></span>/<span class="totalPages"></span></div>`

// CountSheetRenderer renders the printable sheet counters fill in on the
// warehouse floor.
type CountSheetRenderer struct {
	pdf          PDFRenderer
	tmpl         *template.Template
	printer      *message.Printer
	showExpected bool
}

// CountSheetOption configures a CountSheetRenderer.
type CountSheetOption func(*CountSheetRenderer)

// WithExpectedQuantities prints the snapshotted stock level next to each
// line. Blind counts leave it off.
func WithExpectedQuantities() CountSheetOption {
	return func(r *CountSheetRenderer) {
		r.showExpected = true
	}
}

// NewCountSheetRenderer builds a renderer that formats numbers for the given
// BCP 47 locale. An unparseable locale falls back to English.
func NewCountSheetRenderer(pdf PDFRenderer, locale string, opts ...CountSheetOption) *CountSheetRenderer {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.English
	}
	r := &CountSheetRenderer{
		pdf:     pdf,
		printer: message.NewPrinter(tag),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.tmpl = template.Must(template.New("count-sheet").Funcs(template.FuncMap{
		"qty": r.formatQuantity,
		"inc": func(i int) int { return i + 1 },
	}).Parse(countSheetTemplate))
	return r
}

// HTML renders the sheet document without converting it.
func (r *CountSheetRenderer) HTML(ic *inventory.InventoryCount) (string, error) {
	var buf bytes.Buffer
	err := r.tmpl.Execute(&buf, map[string]any{
		"Count":        ic,
		"Lines":        len(ic.Items),
		"ShowExpected": r.showExpected,
	})
	if err != nil {
		return "", NewRenderError(ErrCodeRenderFailed, "failed to execute count sheet template", err)
	}
	return buf.String(), nil
}

// RenderCountSheet renders the count sheet of ic as PDF.
func (r *CountSheetRenderer) RenderCountSheet(ctx context.Context, ic *inventory.InventoryCount) ([]byte, error) {
	doc, err := r.HTML(ic)
	if err != nil {
		return nil, err
	}
	result, err := r.pdf.Render(ctx, &RenderRequest{
		HTML:       doc,
		Title:      ic.CountNumber,
		Margins:    DefaultMargins(),
		FooterHTML: countSheetFooter,
	})
	if err != nil {
		return nil, fmt.Errorf("render count sheet %s: %w", ic.CountNumber, err)
	}
	return result.PDFData, nil
}

func (r *CountSheetRenderer) formatQuantity(v any) string {
	switch q := v.(type) {
	case decimal.Decimal:
		return r.printer.Sprint(number.Decimal(q.InexactFloat64(), number.MaxFractionDigits(4)))
	case *decimal.Decimal:
		if q == nil {
			return ""
		}
		return r.formatQuantity(*q)
	case int:
		return r.printer.Sprint(number.Decimal(q))
	}
	return fmt.Sprint(v)
}
