package export

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"zbtools/internal/outstanding"
	"zbtools/internal/sostatus"
)

func sampleReport() *outstanding.Report {
	north := &outstanding.Row{Customer: "Asha Traders", City: "Surat", Group: "North"}
	north.Aging[0] = decimal.RequireFromString("1000")
	north.Total = decimal.RequireFromString("1000")
	north.Balance = decimal.RequireFromString("1000")

	south := &outstanding.Row{Customer: "Balaji <Fabrics>", City: "Erode", Group: "South"}
	south.Aging[9] = decimal.RequireFromString("500")
	south.Above180 = decimal.RequireFromString("500")
	south.Total = decimal.RequireFromString("500")
	south.Payment = decimal.RequireFromString("500")

	return &outstanding.Report{
		Firm:    "TT",
		AsOf:    time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC),
		GroupBy: "division",
		Rows:    map[string]*outstanding.Row{"Asha Traders": north, "Balaji <Fabrics>": south},
		Invoices: map[string][]outstanding.InvoiceSummary{
			"Asha Traders": {{Number: "INV-1", Date: "2024-06-10", Days: 20, Total: decimal.NewFromInt(1000), Balance: decimal.NewFromInt(1000), LRNumber: "LR-9"}},
		},
	}
}

func TestOutstandingTablesGrouped(t *testing.T) {
	tables := OutstandingTables(sampleReport())
	require.Len(t, tables, 2)

	summary := tables[0]
	assert.Equal(t, "Outstanding", summary.Title)
	assert.Equal(t, []string{"Customer", "City", "Division", "0-15"}, summary.Header[:4])
	assert.Equal(t, "16-90_payments", summary.Header[len(summary.Header)-1])

	var kinds []RowKind
	for _, r := range summary.Rows {
		kinds = append(kinds, r.Kind)
		assert.True(t, r.Kind == RowGroup || len(r.Cells) == len(summary.Header))
	}
	assert.Equal(t, []RowKind{RowGroup, RowData, RowTotal, RowGroup, RowData, RowTotal, RowTotal}, kinds)

	grand := summary.Rows[len(summary.Rows)-1].Cells
	assert.Equal(t, "Total", grand[0])
	total := grand[3+outstanding.NumBuckets+1].(decimal.Decimal)
	assert.True(t, decimal.NewFromInt(1500).Equal(total))

	detail := tables[1]
	require.Len(t, detail.Rows, 1)
	assert.Equal(t, "LR-9", detail.Rows[0].Cells[7])
}

func TestStatusTablesOneRowPerEvent(t *testing.T) {
	status := &sostatus.Status{Orders: []sostatus.Order{{
		Number: "SO-1",
		Lines: []sostatus.Line{
			{Name: "Cotton", Ordered: decimal.NewFromInt(10), Dispatched: decimal.NewFromInt(7), Events: []sostatus.DispatchEvent{
				{InvoiceNumber: "INV-1", Quantity: decimal.NewFromInt(3)},
				{InvoiceNumber: "INV-2", Quantity: decimal.NewFromInt(4)},
			}},
			{Name: "Linen", Ordered: decimal.NewFromInt(5), Events: []sostatus.DispatchEvent{}},
		},
	}}}

	tables := StatusTables(status)
	require.Len(t, tables, 1)
	rows := tables[0].Rows
	require.Len(t, rows, 3)
	assert.Equal(t, "INV-1", rows[0].Cells[8])
	assert.Equal(t, "INV-2", rows[1].Cells[8])
	assert.Equal(t, "", rows[2].Cells[8])
	for _, r := range rows {
		assert.Len(t, r.Cells, len(tables[0].Header))
	}
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, OutstandingTables(sampleReport())))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Outstanding", "Invoices"}, f.GetSheetList())

	customer, err := f.GetCellValue("Outstanding", "A3")
	require.NoError(t, err)
	assert.Equal(t, "Asha Traders", customer)

	raw, err := f.GetCellValue("Outstanding", "D3", excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	assert.Equal(t, "1000", raw)

	invoice, err := f.GetCellValue("Invoices", "B2")
	require.NoError(t, err)
	assert.Equal(t, "INV-1", invoice)
}

func TestHTMLEscapesAndFormats(t *testing.T) {
	html, err := HTML(Document{Title: "Outstanding TT", Tables: OutstandingTables(sampleReport())})
	require.NoError(t, err)

	page := string(html)
	assert.Contains(t, page, "Balaji &lt;Fabrics&gt;")
	assert.NotContains(t, page, "Balaji <Fabrics>")
	assert.Contains(t, page, `<td class="num">1000.00</td>`)
	assert.Contains(t, page, `<tr class="total">`)
}

func TestPDFExporterRender(t *testing.T) {
	var gotPath, gotLandscape string
	var gotHTML []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if !assert.NoError(t, r.ParseMultipartForm(1<<20)) {
			return
		}
		gotLandscape = r.FormValue("landscape")
		file, _, err := r.FormFile("files")
		if !assert.NoError(t, err) {
			return
		}
		gotHTML, _ = io.ReadAll(file)
		_, _ = w.Write([]byte("%PDF-1.7"))
	}))
	defer srv.Close()

	exporter := &PDFExporter{Endpoint: srv.URL + "/", Client: srv.Client()}
	pdf, err := exporter.Render(context.Background(), Document{Title: "SO Status", Tables: StatusTables(&sostatus.Status{})})
	require.NoError(t, err)

	assert.Equal(t, "%PDF-1.7", string(pdf))
	assert.Equal(t, "/forms/chromium/convert/html", gotPath)
	assert.Equal(t, "true", gotLandscape)
	assert.Contains(t, string(gotHTML), "<h1>SO Status</h1>")
}

func TestPDFExporterErrors(t *testing.T) {
	_, err := (&PDFExporter{}).Render(context.Background(), Document{})
	require.Error(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "chromium crashed", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err = (&PDFExporter{Endpoint: srv.URL}).Render(context.Background(), Document{Title: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}
