package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "eolscout.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Addr())
	assert.Equal(t, 1000, cfg.Cache.MemoryCapacity)
	assert.Equal(t, "0 3 * * *", cfg.Cache.WarmSchedule)
	assert.Equal(t, int64(10), cfg.Cache.WarmConcurrency)
	assert.Equal(t, int64(8), cfg.Inventory.Concurrency)
	assert.True(t, cfg.Browser.IsHeadless())
	assert.False(t, cfg.LLM.Enabled)

	timeout, err := cfg.Scrape.TimeoutDuration()
	require.NoError(t, err)
	assert.Equal(t, 15*time.Second, timeout)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
cache:
  warm_schedule: "*/30 * * * *"
  warm_on_start: true
browser:
  headless: false
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "*/30 * * * *", cfg.Cache.WarmSchedule)
	assert.True(t, cfg.Cache.WarmOnStart)
	assert.False(t, cfg.Browser.IsHeadless())

	// Untouched sections keep their defaults.
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, int64(10), cfg.Cache.WarmConcurrency)
}

func TestLoad_ExplicitFalseSurvivesDefaults(t *testing.T) {
	// browser.headless defaults to true; a user's explicit false must not
	// be treated as an empty value during the defaults merge.
	cfg, err := Load(writeConfig(t, "browser:\n  headless: false\n"))
	require.NoError(t, err)
	require.NotNil(t, cfg.Browser.Headless)
	assert.False(t, *cfg.Browser.Headless)
	assert.False(t, cfg.Browser.IsHeadless())
}

func TestLoad_ExpandsEnvironment(t *testing.T) {
	t.Setenv("TEST_LLM_KEY", "sk-secret")
	path := writeConfig(t, `
llm:
  enabled: true
  endpoint: https://llm.example.com/v1
  api_key: "{{.TEST_LLM_KEY}}"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "sk-secret", cfg.LLM.APIKey)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "server: [not: a mapping")
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse")
}

func TestLoad_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "port out of range",
			content: "server:\n  port: 70000\n",
			wantErr: "server.port",
		},
		{
			name:    "negative inventory concurrency",
			content: "inventory:\n  concurrency: -2\n",
			wantErr: "inventory.concurrency",
		},
		{
			name:    "bad scrape timeout",
			content: "scrape:\n  timeout: soon\n",
			wantErr: "scrape.timeout",
		},
		{
			name:    "llm enabled without endpoint",
			content: "llm:\n  enabled: true\n",
			wantErr: "llm.endpoint",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
