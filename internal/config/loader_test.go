package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, DriverMemory, cfg.Store.Driver)
	assert.Equal(t, ProviderOpenAI, cfg.LLM.Provider)
	assert.InDelta(t, 0.7, cfg.LLM.Temperature, 1e-9)
	assert.Equal(t, 800, cfg.LLM.MaxTokens)
	assert.Equal(t, 8, cfg.Assistant.HistoryLimit)
	assert.Equal(t, 5*time.Minute, cfg.Assistant.DedupWindow)
	assert.Equal(t, 15*time.Minute, cfg.Export.URLExpiry)
}

func TestLoad_YAMLOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
store:
  driver: postgres
  dsn: postgres://localhost/finance
llm:
  provider: gemini
  model: gemini-2.5-flash
  timeout: 45s
assistant:
  history_limit: 4
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, DriverPostgres, cfg.Store.Driver)
	assert.Equal(t, "postgres://localhost/finance", cfg.Store.DSN)
	assert.Equal(t, ProviderGemini, cfg.LLM.Provider)
	assert.Equal(t, 45*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, 4, cfg.Assistant.HistoryLimit)
	// untouched fields keep their defaults
	assert.Equal(t, 800, cfg.LLM.MaxTokens)
	assert.Equal(t, 5*time.Minute, cfg.Assistant.DedupWindow)
}

func TestLoad_EnvOverridesYAML(t *testing.T) {
	path := writeConfig(t, `
llm:
  api_key: from-file
  model: gpt-4o
`)
	t.Setenv("FINANCE_LLM_API_KEY", "from-env")
	t.Setenv("FINANCE_SERVER_PORT", "7070")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.LLM.APIKey)
	assert.Equal(t, "gpt-4o", cfg.LLM.Model)
	assert.Equal(t, 7070, cfg.Server.Port)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown driver", "store:\n  driver: mongo\n"},
		{"bigquery without project", "store:\n  driver: bigquery\n"},
		{"postgres without dsn", "store:\n  driver: postgres\n"},
		{"short write timeout", "server:\n  write_timeout: 10s\n"},
		{"unknown provider", "llm:\n  provider: llama\n"},
		{"smtp without host", "email:\n  driver: smtp\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "llm.api_key", envKey("FINANCE_LLM_API_KEY"))
	assert.Equal(t, "store.driver", envKey("FINANCE_STORE_DRIVER"))
	assert.Equal(t, "assistant.dedup_window", envKey("FINANCE_ASSISTANT_DEDUP_WINDOW"))
}
