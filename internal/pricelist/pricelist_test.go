package pricelist

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"zbtools/internal/cache"
	"zbtools/internal/fields"
)

func workbook(t *testing.T, rows [][]any) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cellRef, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cellRef, &row))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

var sampleRows = [][]any{
	{"Summer Price List 2024"},
	{},
	{"Sr", "Item Name", "Size", "Packing", "Rate (Rs)"},
	{1, "Cotton Shirting", "38", "Box of 6", "1,250.50"},
	{2, "Cotton Shirting", "40", "Box of 6", 1300},
	{3, "Linen Suiting", "", "Roll", "₹ 899"},
	{4, "", "42", "", 10},
	{5, "Silk Saree", "Free", "Single", "on request"},
}

func TestParseLocatesHeaderAndSkipsBadRows(t *testing.T) {
	list, err := Parse(bytes.NewReader(workbook(t, sampleRows)), fields.DefaultAliases())
	require.NoError(t, err)

	assert.Equal(t, "Sheet1", list.Sheet)
	require.Len(t, list.Entries, 3)

	first := list.Entries[0]
	assert.Equal(t, "Cotton Shirting", first.Item)
	assert.Equal(t, "38", first.Size)
	assert.Equal(t, "Box of 6", first.Packing)
	assert.True(t, decimal.RequireFromString("1250.50").Equal(first.Rate))

	assert.True(t, decimal.NewFromInt(899).Equal(list.Entries[2].Rate))
}

func TestParseWithoutHeader(t *testing.T) {
	_, err := Parse(bytes.NewReader(workbook(t, [][]any{{"a", "b"}, {"c", "d"}})), fields.DefaultAliases())
	require.ErrorIs(t, err, ErrHeaderNotFound)
}

func TestFind(t *testing.T) {
	list, err := Parse(bytes.NewReader(workbook(t, sampleRows)), fields.DefaultAliases())
	require.NoError(t, err)

	e, ok := list.Find("cotton  shirting", "40")
	require.True(t, ok)
	assert.True(t, decimal.NewFromInt(1300).Equal(e.Rate))

	e, ok = list.Find("COTTON SHIRTING", "")
	require.True(t, ok)
	assert.Equal(t, "38", e.Size)

	_, ok = list.Find("Cotton Shirting", "44")
	assert.False(t, ok)

	assert.Len(t, list.Search("cotton"), 2)
	assert.Len(t, list.Search(""), 3)
}

func TestSourceCachesDownload(t *testing.T) {
	data := workbook(t, sampleRows)
	downloads := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		downloads++
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		_, _ = w.Write(data)
	}))
	defer srv.Close()

	store, err := cache.NewFileStore(t.TempDir())
	require.NoError(t, err)
	src := NewSource(srv.URL+"/prices.xlsx", time.Hour, store, srv.Client(), fields.DefaultAliases())

	ctx := context.Background()
	for range 2 {
		list, err := src.Load(ctx)
		require.NoError(t, err)
		assert.Len(t, list.Entries, 3)
	}
	assert.Equal(t, 1, downloads)

	require.NoError(t, src.Invalidate(ctx))
	_, err = src.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, downloads)
}

func TestSourceErrors(t *testing.T) {
	_, err := NewSource("", time.Hour, nil, nil, fields.DefaultAliases()).Load(context.Background())
	require.ErrorIs(t, err, ErrNoURL)

	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()
	_, err = NewSource(srv.URL, time.Hour, nil, srv.Client(), fields.DefaultAliases()).Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}
