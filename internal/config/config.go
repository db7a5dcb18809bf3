package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"zbtools/internal/logger"
)

// ErrUnknownFirm is returned when a firm code has no configuration.
var ErrUnknownFirm = errors.New("unknown firm")

// Grouping values for FirmConfig.GroupBy.
const (
	GroupNone     = ""
	GroupDivision = "division"
	GroupAgency   = "agency"
)

// FirmConfig holds the Zoho Books organization and OAuth credentials of one firm.
type FirmConfig struct {
	Code         string
	Name         string
	OrgID        string
	ClientID     string
	ClientSecret string
	RefreshToken string
	GroupBy      string
}

type Config struct {
	// Zoho Books API
	APIBase     string
	AccountsURL string
	Firms       map[string]FirmConfig
	MaxRetries  int
	RetryBase   time.Duration
	RetryMax    time.Duration
	DetailDelay time.Duration
	HTTPTimeout time.Duration

	// Label aliases, see internal/fields
	LabelsFile string

	// Price list
	PriceListURL string
	PriceListTTL time.Duration

	// Cache
	CacheDir     string
	CacheBackend string
	RedisURL     string

	// Export sinks
	GoogleSheetURL string
	GotenbergURL   string

	// Logging Configuration
	LogLevel      string
	LogFormat     string
	LogTimeFormat string
	LogOutput     string
}

func Load() (*Config, error) {
	config := &Config{
		APIBase:        strings.TrimRight(getEnv("ZOHO_API_BASE", "https://www.zohoapis.in/books/v3"), "/"),
		AccountsURL:    strings.TrimRight(getEnv("ZOHO_ACCOUNTS_URL", "https://accounts.zoho.in"), "/"),
		Firms:          loadFirms(getEnv("FIRMS", "")),
		MaxRetries:     getEnvInt("ZOHO_MAX_RETRIES", 5),
		RetryBase:      time.Duration(getEnvInt("ZOHO_RETRY_BASE_MS", 1000)) * time.Millisecond,
		RetryMax:       time.Duration(getEnvInt("ZOHO_RETRY_MAX_MS", 30000)) * time.Millisecond,
		DetailDelay:    time.Duration(getEnvInt("ZOHO_DETAIL_DELAY_MS", 350)) * time.Millisecond,
		HTTPTimeout:    time.Duration(getEnvInt("ZOHO_HTTP_TIMEOUT_S", 60)) * time.Second,
		LabelsFile:     getEnv("LABELS_FILE", ""),
		PriceListURL:   getEnv("PRICE_LIST_URL", ""),
		PriceListTTL:   time.Duration(getEnvInt("PRICE_LIST_TTL_H", 24)) * time.Hour,
		CacheDir:       getEnv("CACHE_DIR", defaultCacheDir()),
		CacheBackend:   strings.ToLower(getEnv("CACHE_BACKEND", "file")),
		RedisURL:       getEnv("REDIS_URL", ""),
		GoogleSheetURL: getEnv("GOOGLE_SHEET_URL", ""),
		GotenbergURL:   getEnv("GOTENBERG_URL", ""),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "console"),
		LogTimeFormat:  getEnv("LOG_TIME_FORMAT", "2006-01-02T15:04:05Z07:00"),
		LogOutput:      getEnv("LOG_OUTPUT", "stderr"),
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

func (c *Config) validate() error {
	if len(c.Firms) == 0 {
		return fmt.Errorf("FIRMS is required (comma separated firm codes)")
	}
	for code, firm := range c.Firms {
		prefix := "ZOHO_" + code + "_"
		if firm.OrgID == "" {
			return fmt.Errorf("%sORG_ID is required", prefix)
		}
		if firm.ClientID == "" || firm.ClientSecret == "" {
			return fmt.Errorf("%sCLIENT_ID and %sCLIENT_SECRET are required", prefix, prefix)
		}
		if firm.RefreshToken == "" {
			return fmt.Errorf("%sREFRESH_TOKEN is required", prefix)
		}
		switch firm.GroupBy {
		case GroupNone, GroupDivision, GroupAgency:
		default:
			return fmt.Errorf("%sGROUP_BY must be division, agency or empty, got %q", prefix, firm.GroupBy)
		}
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("ZOHO_MAX_RETRIES must not be negative")
	}
	switch c.CacheBackend {
	case "file", "none":
	case "redis":
		if c.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required when CACHE_BACKEND=redis")
		}
	default:
		return fmt.Errorf("CACHE_BACKEND must be file, redis or none, got %q", c.CacheBackend)
	}
	return nil
}

// Firm returns the configuration for a firm code (case-insensitive).
func (c *Config) Firm(code string) (FirmConfig, error) {
	firm, ok := c.Firms[strings.ToUpper(strings.TrimSpace(code))]
	if !ok {
		return FirmConfig{}, fmt.Errorf("%w: %q (configured: %s)", ErrUnknownFirm, code, strings.Join(c.FirmCodes(), ", "))
	}
	return firm, nil
}

// FirmCodes returns the configured firm codes in sorted order.
func (c *Config) FirmCodes() []string {
	codes := make([]string, 0, len(c.Firms))
	for code := range c.Firms {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// GetLoggerConfig returns a logger configuration from the main config
func (c *Config) GetLoggerConfig() logger.LogConfig {
	return logger.LogConfig{
		Level:      c.LogLevel,
		Format:     c.LogFormat,
		TimeFormat: c.LogTimeFormat,
		Output:     c.LogOutput,
	}
}

func loadFirms(list string) map[string]FirmConfig {
	firms := make(map[string]FirmConfig)
	for _, raw := range strings.Split(list, ",") {
		code := strings.ToUpper(strings.TrimSpace(raw))
		if code == "" {
			continue
		}
		prefix := "ZOHO_" + code + "_"
		firms[code] = FirmConfig{
			Code:         code,
			Name:         getEnv(prefix+"NAME", code),
			OrgID:        getEnv(prefix+"ORG_ID", ""),
			ClientID:     getEnv(prefix+"CLIENT_ID", ""),
			ClientSecret: getEnv(prefix+"CLIENT_SECRET", ""),
			RefreshToken: getEnv(prefix+"REFRESH_TOKEN", ""),
			GroupBy:      strings.ToLower(getEnv(prefix+"GROUP_BY", GroupNone)),
		}
	}
	return firms
}

func defaultCacheDir() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return ".zbtools-cache"
	}
	return filepath.Join(dir, "zbtools")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return defaultValue
	}
	return n
}
