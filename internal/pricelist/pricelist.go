// Package pricelist reads the firm-wide XLSX price list.
package pricelist

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"zbtools/internal/fields"
	"zbtools/internal/logger"
)

var (
	ErrNoURL          = errors.New("PRICE_LIST_URL is not configured")
	ErrHeaderNotFound = errors.New("price list header row not found")
)

// headerScanRows is how many leading rows may hold titles before the header row.
const headerScanRows = 10

// Entry is one priced row of the list.
type Entry struct {
	Item    string          `json:"item"`
	Size    string          `json:"size,omitempty"`
	Packing string          `json:"packing,omitempty"`
	Rate    decimal.Decimal `json:"rate"`
	Row     int             `json:"row"`
}

// List is a parsed price list.
type List struct {
	Sheet   string  `json:"sheet"`
	Entries []Entry `json:"entries"`
}

// Find returns the entry for an item and size, both compared case-insensitively.
// An empty size matches the first entry of the item.
func (l *List) Find(item, size string) (Entry, bool) {
	item, size = key(item), key(size)
	for _, e := range l.Entries {
		if key(e.Item) != item {
			continue
		}
		if size == "" || key(e.Size) == size {
			return e, true
		}
	}
	return Entry{}, false
}

// Search returns the entries whose item contains query.
func (l *List) Search(query string) []Entry {
	query = key(query)
	var out []Entry
	for _, e := range l.Entries {
		if query == "" || strings.Contains(key(e.Item), query) {
			out = append(out, e)
		}
	}
	return out
}

// Parse reads the first sheet of an XLSX workbook. Columns are located by the
// price_* aliases; rows without an item or a numeric rate are skipped.
func Parse(r io.Reader, aliases fields.Aliases) (*List, error) {
	const op = "Parse"
	log := logger.WithComponent("pricelist")

	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%s: open workbook: %w", op, err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			log.Debug().Err(err).Msg("Failed to close workbook")
		}
	}()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("%s: read sheet %q: %w", op, sheet, err)
	}

	itemCol, rateCol := fields.NewResolver(aliases.PriceItem), fields.NewResolver(aliases.PriceRate)
	sizeCol, packCol := fields.NewResolver(aliases.PriceSize), fields.NewResolver(aliases.PricePacking)

	header := -1
	var cols struct{ item, size, pack, rate int }
	for i := 0; i < len(rows) && i < headerScanRows; i++ {
		cols.item, cols.rate = itemCol.Column(rows[i]), rateCol.Column(rows[i])
		if cols.item >= 0 && cols.rate >= 0 && cols.item != cols.rate {
			header = i
			cols.size, cols.pack = sizeCol.Column(rows[i]), packCol.Column(rows[i])
			break
		}
	}
	if header < 0 {
		return nil, fmt.Errorf("%s: sheet %q: %w", op, sheet, ErrHeaderNotFound)
	}

	list := &List{Sheet: sheet}
	for i := header + 1; i < len(rows); i++ {
		row := rows[i]
		item := cell(row, cols.item)
		if item == "" {
			continue
		}
		rate, ok := parseRate(cell(row, cols.rate))
		if !ok {
			log.Debug().Int("row", i+1).Str("item", item).Msg("Skipping row without numeric rate")
			continue
		}
		list.Entries = append(list.Entries, Entry{
			Item:    item,
			Size:    cell(row, cols.size),
			Packing: cell(row, cols.pack),
			Rate:    rate,
			Row:     i + 1,
		})
	}

	log.Info().Str("sheet", sheet).Int("entries", len(list.Entries)).Msg("Price list parsed")
	return list, nil
}

func cell(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[col])
}

func parseRate(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	for _, prefix := range []string{"₹", "Rs.", "Rs", "INR"} {
		s = strings.TrimSpace(strings.TrimPrefix(s, prefix))
	}
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

func key(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
