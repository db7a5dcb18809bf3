package export

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"
)

// PDFExporter renders tables to PDF through a Gotenberg server.
type PDFExporter struct {
	Endpoint string
	Client   *http.Client
}

var pageTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"cell":    formatCell,
	"numeric": isNumeric,
	"rowClass": func(k RowKind) string {
		switch k {
		case RowGroup:
			return "group"
		case RowTotal:
			return "total"
		default:
			return ""
		}
	},
}).Parse(`<!DOCTYPE html>
<html><head><meta charset="utf-8"><title>{{.Title}}</title>
<style>
body{font-family:sans-serif;font-size:9px;margin:16px;}
h1{font-size:16px;margin:0 0 4px;}
p.sub{color:#555;margin:0 0 12px;}
h2{font-size:12px;margin:16px 0 6px;}
table{width:100%;border-collapse:collapse;page-break-inside:auto;}
tr{page-break-inside:avoid;}
th,td{border:1px solid #ccc;padding:3px 4px;}
th{background:#305496;color:#fff;text-align:left;}
td.num{text-align:right;white-space:nowrap;}
tr.group td{background:#ddebf7;font-weight:bold;font-style:italic;}
tr.total td{font-weight:bold;border-top:2px solid #000;}
</style></head><body>
<h1>{{.Title}}</h1>{{if .Subtitle}}<p class="sub">{{.Subtitle}}</p>{{end}}
{{range .Tables}}<h2>{{.Title}}</h2>
<table><thead><tr>{{range .Header}}<th>{{.}}</th>{{end}}</tr></thead><tbody>
{{range .Rows}}<tr class="{{rowClass .Kind}}">{{range .Cells}}<td{{if numeric .}} class="num"{{end}}>{{cell .}}</td>{{end}}</tr>
{{end}}</tbody></table>
{{end}}</body></html>`))

// Document is what gets rendered: a title and the tables below it.
type Document struct {
	Title    string
	Subtitle string
	Tables   []Table
}

// HTML renders the document as a standalone HTML page.
func HTML(doc Document) ([]byte, error) {
	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, doc); err != nil {
		return nil, fmt.Errorf("render html: %w", err)
	}
	return buf.Bytes(), nil
}

// Render converts the document to a landscape PDF.
func (p *PDFExporter) Render(ctx context.Context, doc Document) ([]byte, error) {
	if p == nil {
		return nil, fmt.Errorf("pdf exporter not initialised")
	}
	endpoint := strings.TrimRight(p.Endpoint, "/")
	if endpoint == "" {
		return nil, fmt.Errorf("gotenberg endpoint required (GOTENBERG_URL)")
	}
	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}

	html, err := HTML(doc)
	if err != nil {
		return nil, err
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("files", "index.html")
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(html); err != nil {
		return nil, err
	}
	if err := writer.WriteField("landscape", "true"); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint+"/forms/chromium/convert/html", body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, fmt.Errorf("gotenberg response %d: %s", resp.StatusCode, string(data))
	}

	return io.ReadAll(resp.Body)
}

func formatCell(v any) string {
	switch c := v.(type) {
	case nil:
		return ""
	case decimal.Decimal:
		return c.StringFixed(2)
	default:
		return fmt.Sprint(c)
	}
}

func isNumeric(v any) bool {
	switch v.(type) {
	case decimal.Decimal, int, int64, float64:
		return true
	default:
		return false
	}
}
