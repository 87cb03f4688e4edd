package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "SUPABASE_URL", "NEXT_PUBLIC_SUPABASE_URL", "SUPABASE_ANON_KEY",
		"NEXT_PUBLIC_SUPABASE_ANON_KEY", "DATABASE_URL", "LLM_PROVIDER", "LLM_API_KEY",
		"OPENAI_API_KEY", "ANTHROPIC_API_KEY", "LLM_MODEL", "LLM_MAX_RETRIES", "REDIS_URL",
	} {
		t.Setenv(key, "")
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, 1200, cfg.LLM.MaxTokens)
	assert.Equal(t, 1, cfg.LLM.MaxRetries)
	assert.Equal(t, 24*time.Hour, cfg.Redis.IdempotencyTTL)
	assert.False(t, cfg.LLMConfigured())
}

func TestLoadConfig_YAMLWithEnvExpansion(t *testing.T) {
	clearEnv(t)
	t.Setenv("TEST_SUPABASE_HOST", "abc.supabase.co")

	path := writeConfig(t, `
server:
  port: 9090
supabase:
  url: https://${TEST_SUPABASE_HOST}
  anon_key: anon
database:
  url: postgres://localhost/app
llm:
  provider: claude
  model: claude-sonnet-4-0
  max_tokens: 2000
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "https://abc.supabase.co", cfg.Supabase.URL)
	assert.Equal(t, "claude", cfg.LLM.Provider)
	assert.Equal(t, 2000, cfg.LLM.MaxTokens)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "7000")
	t.Setenv("LLM_API_KEY", "generic")
	t.Setenv("OPENAI_API_KEY", "sk-openai")

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, 7000, cfg.Server.Port)
	assert.Equal(t, "sk-openai", cfg.LLM.APIKey)
	assert.True(t, cfg.LLMConfigured())
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "server: [unterminated")

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "supabase.url is required")
	assert.Contains(t, err.Error(), "database.url is required")

	cfg.Supabase.URL = "https://x.supabase.co"
	cfg.Supabase.AnonKey = "anon"
	cfg.Database.URL = "postgres://localhost/app"
	assert.NoError(t, cfg.Validate())

	cfg.LLM.Provider = "mistral"
	assert.ErrorContains(t, cfg.Validate(), "unsupported llm.provider")
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("EXPAND_ME", "value")

	assert.Equal(t, "a=value b=value", expandEnvVars("a=${EXPAND_ME} b=$EXPAND_ME"))
	assert.Equal(t, "keep ${NOT_SET_ANYWHERE_123}", expandEnvVars("keep ${NOT_SET_ANYWHERE_123}"))
}
