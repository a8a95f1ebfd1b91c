package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every variable resolveAPIConfig reads.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"LLM_PROVIDER", "OPENAI_API_KEY", "OPENROUTER_API_KEY", "OPENAI_MODEL", "OPENROUTER_MODEL",
		"OPENAI_API_BASE", "OPENAI_BASE_URL", "OPENROUTER_API_BASE", "OPENROUTER_BASE_URL",
		"OPENAI_API_KEY_HEADER", "OPENROUTER_API_KEY_HEADER", "OPENAI_API_KEY_PREFIX", "OPENROUTER_API_KEY_PREFIX",
		"OPENAI_ORG", "OPENROUTER_SITE_URL", "OPENROUTER_TITLE",
	} {
		t.Setenv(k, "")
	}
}

func TestResolveOpenRouterFromBase(t *testing.T) {
	clearEnv(t)
	t.Setenv("OPENAI_API_BASE", "https://openrouter.ai/api/v1/")
	t.Setenv("OPENAI_API_KEY", "test-key")

	cfg, err := resolveAPIConfig("meta-llama/llama-3.1-70b-instruct")
	require.NoError(t, err)
	assert.Equal(t, providerOpenRouter, cfg.Kind)
	assert.Equal(t, "https://openrouter.ai/api/v1", cfg.BaseURL)
	assert.NotContains(t, cfg.ExtraHeaders, "HTTP-Referer")
	assert.Equal(t, defaultTitle, cfg.ExtraHeaders["X-Title"])
}

func TestResolveOpenRouterHeaders(t *testing.T) {
	clearEnv(t)
	t.Setenv("OPENROUTER_API_KEY", "or-key")
	t.Setenv("OPENROUTER_MODEL", "openrouter/auto")
	t.Setenv("OPENROUTER_SITE_URL", "https://example.com/app")
	t.Setenv("OPENROUTER_TITLE", "Custom Title")

	cfg, err := resolveAPIConfig("")
	require.NoError(t, err)
	assert.Equal(t, providerOpenRouter, cfg.Kind)
	assert.Equal(t, "openrouter/auto", cfg.Model)
	assert.Equal(t, "or-key", cfg.APIKey)
	assert.Equal(t, "https://openrouter.ai/api/v1", cfg.BaseURL)
	assert.Equal(t, "https://example.com/app", cfg.ExtraHeaders["HTTP-Referer"])
	assert.Equal(t, "https://example.com/app", cfg.ExtraHeaders["Referer"])
	assert.Equal(t, "Custom Title", cfg.ExtraHeaders["X-Title"])
}

func TestResolveForcedProvider(t *testing.T) {
	clearEnv(t)
	t.Setenv("LLM_PROVIDER", "openai")
	t.Setenv("OPENROUTER_API_KEY", "or-key")

	cfg, err := resolveAPIConfig("openrouter/auto")
	require.NoError(t, err)
	assert.Equal(t, providerOpenAI, cfg.Kind)
	assert.Equal(t, "or-key", cfg.APIKey)
	assert.Empty(t, cfg.ExtraHeaders)
}

func TestResolveMissing(t *testing.T) {
	clearEnv(t)
	_, err := resolveAPIConfig("")
	assert.ErrorContains(t, err, "model missing")
	_, err = resolveAPIConfig("gpt-4o-mini")
	assert.ErrorContains(t, err, "API key missing")
}

func TestResolveOpenAIDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("OPENAI_API_KEY", "k")
	t.Setenv("OPENAI_ORG", "org-1")

	cfg, err := resolveAPIConfig("gpt-4o-mini")
	require.NoError(t, err)
	assert.Equal(t, providerOpenAI, cfg.Kind)
	assert.Equal(t, "https://api.openai.com/v1", cfg.BaseURL)
	assert.Equal(t, "Authorization", cfg.HeaderName)
	assert.Equal(t, "Bearer ", cfg.HeaderPrefix)
	assert.Equal(t, "org-1", cfg.Organization)
}

func TestResolveCustomHeader(t *testing.T) {
	clearEnv(t)
	t.Setenv("OPENAI_API_KEY", "k")
	t.Setenv("OPENAI_API_KEY_HEADER", "api-key")

	cfg, err := resolveAPIConfig("gpt-4o-mini")
	require.NoError(t, err)
	assert.Equal(t, "api-key", cfg.HeaderName)
	assert.Empty(t, cfg.HeaderPrefix)
}
