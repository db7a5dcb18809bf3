package fields

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zbtools/pkg/models"
)

func TestResolver_Resolve(t *testing.T) {
	cfs := []models.CustomField{
		{Label: "Transport Name", Value: "VRL Logistics"},
		{Label: "L.R. No", Value: ""},
		{Label: "LR Number", Value: 4417},
		{Label: "Division", ValueFormatted: "  Suiting "},
	}

	tests := []struct {
		name     string
		patterns []string
		want     string
		found    bool
	}{
		{name: "substring", patterns: []string{"transport"}, want: "VRL Logistics", found: true},
		{name: "empty value skipped", patterns: []string{"l.r. no", "lr number"}, want: "4417", found: true},
		{name: "formatted value trimmed", patterns: []string{"DIVISION"}, want: "Suiting", found: true},
		{name: "earlier pattern wins", patterns: []string{"division", "transport"}, want: "Suiting", found: true},
		{name: "no match", patterns: []string{"agency"}, found: false},
		{name: "no patterns", patterns: nil, found: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NewResolver(tt.patterns).Resolve(cfs)
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolver_ResolveHashIsStable(t *testing.T) {
	cf := models.CustomFields{
		Hash: map[string]any{
			"cf_transport_name": "VRL Logistics",
			"cf_transport_gst":  "29ABCDE1234F1Z5",
			"cf_transport_mode": "Road",
		},
	}
	r := NewResolver(DefaultAliases().Transport)

	for i := 0; i < 200; i++ {
		require.Equal(t, "29ABCDE1234F1Z5", r.Value(cf.All()))
	}
}

func TestResolver_Column(t *testing.T) {
	headers := []string{"Sr", "Quality / Design", "Size", "Rate (Rs)"}

	assert.Equal(t, 1, NewResolver([]string{"item", "design"}).Column(headers))
	assert.Equal(t, 3, NewResolver([]string{"rate"}).Column(headers))
	assert.Equal(t, -1, NewResolver([]string{"packing"}).Column(headers))
	assert.True(t, NewResolver([]string{" ", ""}).Empty())
}

func TestDefaultAliases(t *testing.T) {
	a := DefaultAliases()

	assert.Contains(t, a.LRNumber, "lr no")
	assert.Equal(t, "salesorder_item_id", a.SOLineLink[0])
	assert.NotEmpty(t, a.AdvanceUnused)
	assert.Equal(t, a.Division, a.Group("division"))
	assert.Equal(t, a.Agency, a.Group("agency"))
	assert.Nil(t, a.Group(""))
}

func TestLoadAliases_Override(t *testing.T) {
	path := filepath.Join(t.TempDir(), "labels.yaml")
	require.NoError(t, os.WriteFile(path, []byte("division: [segment]\nlr_number: [docket no]\n"), 0o644))

	a, err := LoadAliases(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"segment"}, a.Division)
	assert.Equal(t, []string{"docket no"}, a.LRNumber)
	assert.Equal(t, DefaultAliases().Transport, a.Transport)
}

func TestLoadAliases_Errors(t *testing.T) {
	_, err := LoadAliases(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("division: [unterminated\n"), 0o644))
	_, err = LoadAliases(path)
	assert.Error(t, err)

	a, err := LoadAliases("")
	require.NoError(t, err)
	assert.Equal(t, DefaultAliases(), a)
}
