package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "Australia/Sydney", cfg.Timezone)
	assert.Equal(t, 1, cfg.Prices.LookupWindowDays)
	assert.Equal(t, ".AX", cfg.Prices.SymbolSuffix)
	assert.Equal(t, "asx_announcements_{{.Date}}.csv", cfg.Output.PathTemplate)
	assert.Equal(t, 30*time.Second, cfg.Listing.Timeout)
	assert.False(t, cfg.Email.Enabled())
}

func TestLoadLayering(t *testing.T) {
	t.Chdir(t.TempDir())

	path := writeFile(t, "config.yaml", `
timezone: Australia/Perth
listing:
  today_endpoint: http://example.test/today
prices:
  lookup_window_days: 3
  timeout: 5s
email:
  smtp_user: me@example.test
  smtp_pass: secret
  to_emails: [a@example.test]
`)

	t.Setenv("PRICES_LOOKUP_WINDOW_DAYS", "2")
	t.Setenv("TO_EMAILS", "x@example.test,y@example.test")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "Australia/Perth", cfg.Timezone)
	assert.Equal(t, "http://example.test/today", cfg.Listing.TodayEndpoint)
	assert.Equal(t, Default().Listing.PriorEndpoint, cfg.Listing.PriorEndpoint)
	assert.Equal(t, 2, cfg.Prices.LookupWindowDays, "env overrides file")
	assert.Equal(t, 5*time.Second, cfg.Prices.Timeout)
	assert.Equal(t, []string{"x@example.test", "y@example.test"}, cfg.Email.ToEmails)
	assert.Equal(t, "me@example.test", cfg.Email.FromEmail, "from defaults to smtp user")
	assert.True(t, cfg.Email.Enabled())
	assert.Equal(t, "Australia/Perth", cfg.Location().String())
}

func TestLoadInvalid(t *testing.T) {
	t.Chdir(t.TempDir())

	path := writeFile(t, "bad.yaml", "timezone: Nowhere/Special\nprices:\n  lookup_window_days: 0\n")
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "time zone")
	assert.Contains(t, err.Error(), "lookup_window_days")

	path = writeFile(t, "bad_fields.yaml", `
log:
  format: xml
listing:
  prior_endpoint: not a url
email:
  to_emails: [someone]
`)
	_, err = Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "log.format fails oneof")
	assert.Contains(t, err.Error(), "listing.prior_endpoint fails url")
	assert.Contains(t, err.Error(), "email.to_emails[0] fails email")

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
