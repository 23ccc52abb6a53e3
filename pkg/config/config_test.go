package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 60, cfg.RateLimit.RequestsPerMinute)
	assert.Equal(t, 10000, cfg.Moderation.MaxInputLength)
	assert.True(t, cfg.Moderation.JailbreakProtection)
	assert.Equal(t, 500, cfg.Cache.MaxEntries)
	assert.Equal(t, 600, cfg.Cache.TTLSeconds)
	assert.Equal(t, "lru", cfg.Cache.EvictionPolicy)
	assert.Equal(t, 20, cfg.Memory.MaxMessages)
	assert.Equal(t, "documents", cfg.Documents.Root)
	assert.False(t, cfg.Security.Enabled)
}

func TestParseOverlaysFileOnDefaults(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
rate_limit:
  requests_per_minute: 10
cache:
  eviction_policy: lfu
llm:
  endpoint: http://llm.internal:8000/v1
  model: qwen2.5
`)
	cfg, err := Parse(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 10, cfg.RateLimit.RequestsPerMinute)
	assert.Equal(t, "lfu", cfg.Cache.EvictionPolicy)
	assert.Equal(t, "http://llm.internal:8000/v1", cfg.LLM.Endpoint)
	assert.Equal(t, "qwen2.5", cfg.LLM.Model)

	// Untouched sections keep their defaults.
	assert.Equal(t, 500, cfg.Cache.MaxEntries)
	assert.Equal(t, 20, cfg.Memory.MaxMessages)
}

func TestParseRejectsInvalidValues(t *testing.T) {
	cases := []struct {
		name string
		yaml string
	}{
		{"zero rate limit", "rate_limit:\n  requests_per_minute: 0\n"},
		{"negative rate limit", "rate_limit:\n  requests_per_minute: -5\n"},
		{"bad eviction policy", "cache:\n  eviction_policy: random\n"},
		{"security without key", "security:\n  enabled: true\n"},
		{"zero max input", "moderation:\n  max_input_length: 0\n"},
		{"port out of range", "server:\n  port: 70000\n"},
		{"empty documents root", "documents:\n  root: \"\"\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(writeConfig(t, tc.yaml))
			assert.Error(t, err)
		})
	}
}

func TestParseMissingFile(t *testing.T) {
	_, err := Parse(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	assert.Error(t, err)
}

func TestParseMalformedYAML(t *testing.T) {
	_, err := Parse(writeConfig(t, "server: [not a mapping"))
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("GATEWAY_API_KEY", "secret-key")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := Parse(writeConfig(t, "security:\n  enabled: true\n"))
	require.NoError(t, err)
	assert.Equal(t, "secret-key", cfg.Security.APIKey)
	assert.Equal(t, "sk-test", cfg.LLM.APIKey)
}

func TestJanitorDisabledByDefault(t *testing.T) {
	cfg, err := Parse("")
	require.NoError(t, err)
	assert.False(t, cfg.Janitor.Enabled())

	cfg, err = Parse(writeConfig(t, "janitor:\n  interval_seconds: 300\n"))
	require.NoError(t, err)
	assert.True(t, cfg.Janitor.Enabled())

	_, err = Parse(writeConfig(t, "janitor:\n  interval_seconds: 300\n  max_idle_seconds: 0\n"))
	assert.Error(t, err)
}

func TestDurationAccessors(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "30s", cfg.Server.ReadTimeout().String())
	assert.Equal(t, "10m0s", cfg.Cache.TTL().String())
	assert.Equal(t, "30m0s", cfg.Janitor.MaxIdle().String())
}
