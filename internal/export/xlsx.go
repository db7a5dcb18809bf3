package export

import (
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const (
	moneyFormat    = "#,##0.00"
	maxSheetName   = 31
	maxColumnWidth = 40.0
)

type xlsxStyles struct {
	header, group, total, money, moneyTotal int
}

func newXLSXStyles(f *excelize.File) (xlsxStyles, error) {
	var s xlsxStyles
	var err error
	numFmt := moneyFormat
	border := []excelize.Border{{Type: "bottom", Color: "999999", Style: 1}}

	if s.header, err = f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:   excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"305496"}},
		Border: border,
	}); err != nil {
		return s, err
	}
	if s.group, err = f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Italic: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"DDEBF7"}},
	}); err != nil {
		return s, err
	}
	if s.total, err = f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true},
		Border: []excelize.Border{{Type: "top", Color: "000000", Style: 1}},
	}); err != nil {
		return s, err
	}
	if s.money, err = f.NewStyle(&excelize.Style{CustomNumFmt: &numFmt}); err != nil {
		return s, err
	}
	s.moneyTotal, err = f.NewStyle(&excelize.Style{
		Font:         &excelize.Font{Bold: true},
		Border:       []excelize.Border{{Type: "top", Color: "000000", Style: 1}},
		CustomNumFmt: &numFmt,
	})
	return s, err
}

// WriteXLSX writes each table to its own worksheet.
func WriteXLSX(w io.Writer, tables []Table) error {
	const op = "WriteXLSX"

	f := excelize.NewFile()
	defer f.Close()

	styles, err := newXLSXStyles(f)
	if err != nil {
		return fmt.Errorf("%s: create styles: %w", op, err)
	}

	for i, t := range tables {
		name := sheetName(t.Title, i)
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), name); err != nil {
				return fmt.Errorf("%s: %w", op, err)
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		if err := writeSheet(f, name, t, styles); err != nil {
			return fmt.Errorf("%s: sheet %q: %w", op, name, err)
		}
	}
	f.SetActiveSheet(0)

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func writeSheet(f *excelize.File, sheet string, t Table, styles xlsxStyles) error {
	widths := make([]int, len(t.Header))
	for i, h := range t.Header {
		widths[i] = len(h)
	}

	header := make([]any, len(t.Header))
	for i, h := range t.Header {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	if len(t.Header) > 0 {
		last, _ := excelize.CoordinatesToCellName(len(t.Header), 1)
		if err := f.SetCellStyle(sheet, "A1", last, styles.header); err != nil {
			return err
		}
	}

	for r, row := range t.Rows {
		rowNum := r + 2
		for c, value := range row.Cells {
			cellRef, err := excelize.CoordinatesToCellName(c+1, rowNum)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cellRef, plain(value)); err != nil {
				return err
			}
			if style := cellStyle(row.Kind, value, styles); style != 0 {
				if err := f.SetCellStyle(sheet, cellRef, cellRef, style); err != nil {
					return err
				}
			}
			if c < len(widths) {
				widths[c] = max(widths[c], len(fmt.Sprint(plain(value))))
			}
		}
		if row.Kind == RowGroup && len(t.Header) > 1 {
			from, _ := excelize.CoordinatesToCellName(1, rowNum)
			to, _ := excelize.CoordinatesToCellName(len(t.Header), rowNum)
			if err := f.SetCellStyle(sheet, from, to, styles.group); err != nil {
				return err
			}
		}
	}

	for c, w := range widths {
		col, err := excelize.ColumnNumberToName(c + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, col, col, min(float64(w)+2, maxColumnWidth)); err != nil {
			return err
		}
	}

	return f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		XSplit:      1,
		YSplit:      1,
		TopLeftCell: "B2",
		ActivePane:  "bottomRight",
	})
}

func cellStyle(kind RowKind, value any, styles xlsxStyles) int {
	_, money := value.(decimal.Decimal)
	switch {
	case kind == RowTotal && money:
		return styles.moneyTotal
	case kind == RowTotal:
		return styles.total
	case money:
		return styles.money
	default:
		return 0
	}
}

func sheetName(title string, i int) string {
	if title == "" {
		title = fmt.Sprintf("Sheet%d", i+1)
	}
	if len(title) > maxSheetName {
		title = title[:maxSheetName]
	}
	return title
}
