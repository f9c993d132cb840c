package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vthunder/contentos-notion-mcp/notion"
)

const parentID = "1c2d3e4f-5a6b-4c7d-8e9f-0a1b2c3d4e5f"

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"NOTION_API_KEY", "NOTION_PARENT_PAGE_ID", "CONTENTOS_CONFIG", "LOG_LEVEL", "DEBUG",
		"NOTION_DEBUG", "CONTENTOS_EXPORT_DIR", "NOTION_RATE_LIMIT", "NOTION_MAX_RETRIES",
	} {
		t.Setenv(k, "")
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"NOTION_API_KEY":        "secret_x",
		"NOTION_PARENT_PAGE_ID": parentID,
		"NOTION_DEBUG":          "1",
		"LOG_LEVEL":             "warn",
		"NOTION_RATE_LIMIT":     "1.5",
		"NOTION_MAX_RETRIES":    "5",
		"CONTENTOS_EXPORT_DIR":  "/tmp/exports",
	}
	c := Default()
	require.NoError(t, c.applyEnv(func(k string) string { return env[k] }))

	assert.Equal(t, "secret_x", c.APIKey)
	assert.Equal(t, parentID, c.ParentPageID)
	assert.True(t, c.Debug)
	assert.Equal(t, "warn", c.LogLevel)
	assert.Equal(t, 1.5, c.RateLimit)
	assert.Equal(t, 5, c.MaxRetries)
	assert.Equal(t, "/tmp/exports", c.ExportDir)
	assert.Equal(t, slog.LevelDebug, c.Level())
}

func TestApplyEnvRejectsBadNumbers(t *testing.T) {
	c := Default()
	err := c.applyEnv(func(k string) string {
		if k == "NOTION_RATE_LIMIT" {
			return "fast"
		}
		return ""
	})
	assert.ErrorContains(t, err, "NOTION_RATE_LIMIT")

	err = c.applyEnv(func(k string) string {
		if k == "NOTION_MAX_RETRIES" {
			return "-"
		}
		return ""
	})
	assert.ErrorContains(t, err, "NOTION_MAX_RETRIES")
}

func TestValidate(t *testing.T) {
	c := Default()
	assert.ErrorIs(t, c.Validate(), ErrMissingAPIKey)

	c.APIKey = "secret_x"
	assert.NoError(t, c.Validate())

	c.LogLevel = "chatty"
	assert.ErrorContains(t, c.Validate(), "invalid log level")
	c.LogLevel = "info"

	c.ParentPageID = "not-a-page"
	assert.ErrorContains(t, c.Validate(), "NOTION_PARENT_PAGE_ID")
	c.ParentPageID = ""

	c.MaxRetries = -1
	assert.ErrorContains(t, c.Validate(), "max_retries")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"", slog.LevelInfo},
		{"info", slog.LevelInfo},
		{"DEBUG", slog.LevelDebug},
		{" warn ", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
	_, err := ParseLevel("trace")
	assert.Error(t, err)
}

func TestLoadFileAndEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "contentos.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
parent_page_id: `+parentID+`
log_level: debug
export_dir: /srv/exports
databases:
  content_hub: aaaa
  voice_bank: bbbb
`), 0o644))
	t.Setenv("NOTION_API_KEY", "secret_x")
	t.Setenv("CONTENTOS_EXPORT_DIR", "/override")

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, parentID, c.ParentPageID)
	assert.Equal(t, slog.LevelDebug, c.Level())
	assert.Equal(t, "/override", c.ExportDir)
	assert.NoError(t, c.RequireParent())

	id, err := c.Database("content_hub")
	require.NoError(t, err)
	assert.Equal(t, "aaaa", id)
	_, err = c.Database("pillars")
	assert.ErrorIs(t, err, ErrUnknownDatabase)
}

func TestLoadFromEnvPath(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "c.yaml")
	require.NoError(t, os.WriteFile(path, []byte("max_retries: 7\n"), 0o644))
	t.Setenv("CONTENTOS_CONFIG", path)
	t.Setenv("NOTION_API_KEY", "secret_x")

	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 7, c.MaxRetries)
	assert.NotNil(t, c.Databases)
	assert.ErrorIs(t, c.RequireParent(), ErrMissingParent)
}

func TestLoadErrors(t *testing.T) {
	clearEnv(t)
	_, err := Load("")
	assert.ErrorIs(t, err, ErrMissingAPIKey)

	t.Setenv("NOTION_API_KEY", "secret_x")
	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "read config")

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("databases: [\n"), 0o644))
	_, err = Load(bad)
	assert.ErrorContains(t, err, "parse config")
}

func TestNewClient(t *testing.T) {
	c := Default()
	c.APIKey = "secret_x"
	c.ParentPageID = parentID
	c.RateBurst = 0

	client, err := c.NewClient(slog.Default(), notion.WithMaxRetries(0))
	require.NoError(t, err)
	assert.Equal(t, parentID, client.DefaultParent())

	c.APIKey = ""
	_, err = c.NewClient(slog.Default())
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "log")
	require.NoError(t, err)
	defer f.Close()

	logger := NewLogger(f, slog.LevelWarn)
	logger.Info("hidden")
	logger.Warn("shown", "n", 1)

	data, err := os.ReadFile(f.Name())
	require.NoError(t, err)
	assert.NotContains(t, string(data), "hidden")
	assert.Contains(t, string(data), "shown")
	assert.NotContains(t, string(data), "\x1b[")
}
