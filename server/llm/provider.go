package llm

import (
	"errors"
	"os"
	"strings"
)

const defaultTitle = "hu-holdem"

type providerKind int

const (
	providerOpenAI providerKind = iota
	providerOpenRouter
)

// provider holds the environment names and defaults of one API flavor.
type provider struct {
	base     string
	keyEnv   string
	modelEnv string
}

var providers = map[providerKind]provider{
	providerOpenAI:     {base: "https://api.openai.com/v1", keyEnv: "OPENAI_API_KEY", modelEnv: "OPENAI_MODEL"},
	providerOpenRouter: {base: "https://openrouter.ai/api/v1", keyEnv: "OPENROUTER_API_KEY", modelEnv: "OPENROUTER_MODEL"},
}

func (k providerKind) other() providerKind {
	if k == providerOpenRouter {
		return providerOpenAI
	}
	return providerOpenRouter
}

type apiConfig struct {
	Kind         providerKind
	APIKey       string
	Model        string
	BaseURL      string
	HeaderName   string
	HeaderPrefix string
	Organization string
	ExtraHeaders map[string]string
}

// resolveAPIConfig works out which chat API the agent talks to. LLM_PROVIDER
// wins; otherwise the model name, the base URL and which keys are set decide.
func resolveAPIConfig(model string) (apiConfig, error) {
	cfg := apiConfig{
		Kind:         providerOpenAI,
		Model:        strings.TrimSpace(model),
		ExtraHeaders: map[string]string{},
	}
	if preferOpenRouterEnv() {
		cfg.Kind = providerOpenRouter
	}
	forced, pinned := forcedProvider()
	if pinned {
		cfg.Kind = forced
	}

	if cfg.Model == "" {
		cfg.Model = firstNonEmpty(os.Getenv(providers[cfg.Kind].modelEnv), os.Getenv("OPENAI_MODEL"))
	}
	if cfg.Model == "" {
		return apiConfig{}, errors.New("model missing: set HU_MODEL, OPENAI_MODEL or OPENROUTER_MODEL")
	}
	if strings.Contains(strings.ToLower(cfg.Model), "openrouter/") && !pinned {
		cfg.Kind = providerOpenRouter
	}

	base := firstNonEmpty(
		os.Getenv("OPENAI_API_BASE"),
		os.Getenv("OPENAI_BASE_URL"),
		os.Getenv("OPENROUTER_API_BASE"),
		os.Getenv("OPENROUTER_BASE_URL"),
		providers[cfg.Kind].base,
	)
	cfg.BaseURL = strings.TrimRight(base, "/")
	if strings.Contains(strings.ToLower(cfg.BaseURL), "openrouter") && !pinned {
		cfg.Kind = providerOpenRouter
	}

	cfg.APIKey = firstNonEmpty(os.Getenv(providers[cfg.Kind].keyEnv), os.Getenv(providers[cfg.Kind.other()].keyEnv))
	if cfg.APIKey == "" {
		return apiConfig{}, errors.New("API key missing: set OPENAI_API_KEY or OPENROUTER_API_KEY")
	}

	cfg.HeaderName = firstNonEmpty(os.Getenv("OPENAI_API_KEY_HEADER"), os.Getenv("OPENROUTER_API_KEY_HEADER"), "Authorization")
	cfg.HeaderPrefix = os.Getenv("OPENAI_API_KEY_PREFIX")
	if cfg.HeaderPrefix == "" {
		cfg.HeaderPrefix = os.Getenv("OPENROUTER_API_KEY_PREFIX")
	}
	if cfg.HeaderName == "Authorization" && strings.TrimSpace(cfg.HeaderPrefix) == "" {
		cfg.HeaderPrefix = "Bearer "
	}
	cfg.Organization = strings.TrimSpace(os.Getenv("OPENAI_ORG"))

	if cfg.Kind == providerOpenRouter {
		if site := strings.TrimSpace(os.Getenv("OPENROUTER_SITE_URL")); site != "" {
			cfg.ExtraHeaders["HTTP-Referer"] = site
			cfg.ExtraHeaders["Referer"] = site
		}
		cfg.ExtraHeaders["X-Title"] = firstNonEmpty(os.Getenv("OPENROUTER_TITLE"), defaultTitle)
	}
	return cfg, nil
}

func forcedProvider() (providerKind, bool) {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("LLM_PROVIDER"))) {
	case "openrouter":
		return providerOpenRouter, true
	case "openai":
		return providerOpenAI, true
	}
	return providerOpenAI, false
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
