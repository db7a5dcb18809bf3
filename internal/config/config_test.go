package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setFirmEnv(t *testing.T, code string) {
	t.Helper()
	t.Setenv("ZOHO_"+code+"_ORG_ID", "600"+code)
	t.Setenv("ZOHO_"+code+"_CLIENT_ID", "client-"+code)
	t.Setenv("ZOHO_"+code+"_CLIENT_SECRET", "secret-"+code)
	t.Setenv("ZOHO_"+code+"_REFRESH_TOKEN", "refresh-"+code)
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("FIRMS", "tt")
	setFirmEnv(t, "TT")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://www.zohoapis.in/books/v3", cfg.APIBase)
	assert.Equal(t, "https://accounts.zoho.in", cfg.AccountsURL)
	assert.Equal(t, 5, cfg.MaxRetries)
	assert.Equal(t, time.Second, cfg.RetryBase)
	assert.Equal(t, 30*time.Second, cfg.RetryMax)
	assert.Equal(t, 350*time.Millisecond, cfg.DetailDelay)
	assert.Equal(t, 24*time.Hour, cfg.PriceListTTL)
	assert.Equal(t, "file", cfg.CacheBackend)

	firm, err := cfg.Firm("tt")
	require.NoError(t, err)
	assert.Equal(t, "TT", firm.Code)
	assert.Equal(t, "TT", firm.Name)
	assert.Equal(t, "600TT", firm.OrgID)
	assert.Equal(t, GroupNone, firm.GroupBy)
}

func TestLoad_MultipleFirms(t *testing.T) {
	t.Setenv("FIRMS", "TT, SK")
	setFirmEnv(t, "TT")
	setFirmEnv(t, "SK")
	t.Setenv("ZOHO_SK_NAME", "Shree Krishna Fabrics")
	t.Setenv("ZOHO_SK_GROUP_BY", "Agency")
	t.Setenv("ZOHO_API_BASE", "https://www.zohoapis.com/books/v3/")
	t.Setenv("ZOHO_MAX_RETRIES", "not a number")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"SK", "TT"}, cfg.FirmCodes())
	assert.Equal(t, "https://www.zohoapis.com/books/v3", cfg.APIBase)
	assert.Equal(t, 5, cfg.MaxRetries)

	sk, err := cfg.Firm("sk")
	require.NoError(t, err)
	assert.Equal(t, "Shree Krishna Fabrics", sk.Name)
	assert.Equal(t, GroupAgency, sk.GroupBy)

	_, err = cfg.Firm("XX")
	assert.ErrorIs(t, err, ErrUnknownFirm)
}

func TestLoad_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "no firms",
			env:     map[string]string{"FIRMS": ""},
			wantErr: "FIRMS is required",
		},
		{
			name:    "missing org id",
			env:     map[string]string{"FIRMS": "TT", "ZOHO_TT_ORG_ID": ""},
			wantErr: "ZOHO_TT_ORG_ID is required",
		},
		{
			name:    "missing refresh token",
			env:     map[string]string{"FIRMS": "TT", "ZOHO_TT_REFRESH_TOKEN": ""},
			wantErr: "ZOHO_TT_REFRESH_TOKEN is required",
		},
		{
			name:    "bad group by",
			env:     map[string]string{"FIRMS": "TT", "ZOHO_TT_GROUP_BY": "region"},
			wantErr: "GROUP_BY must be",
		},
		{
			name:    "redis without url",
			env:     map[string]string{"FIRMS": "TT", "CACHE_BACKEND": "redis"},
			wantErr: "REDIS_URL is required",
		},
		{
			name:    "unknown cache backend",
			env:     map[string]string{"FIRMS": "TT", "CACHE_BACKEND": "memcached"},
			wantErr: "CACHE_BACKEND must be",
		},
		{
			name:    "negative retries",
			env:     map[string]string{"FIRMS": "TT", "ZOHO_MAX_RETRIES": "-1"},
			wantErr: "ZOHO_MAX_RETRIES",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setFirmEnv(t, "TT")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestGetLoggerConfig(t *testing.T) {
	cfg := &Config{LogLevel: "debug", LogFormat: "json", LogTimeFormat: time.RFC3339, LogOutput: "stdout"}

	lc := cfg.GetLoggerConfig()
	assert.Equal(t, "debug", lc.Level)
	assert.Equal(t, "json", lc.Format)
	assert.Equal(t, "stdout", lc.Output)
}
