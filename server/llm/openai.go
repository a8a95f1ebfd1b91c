package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"hu-holdem/server/agent"
)

// PingOptions controls JSON mode + reasoning + tokens.
type PingOptions struct {
	ReasoningEffort      string
	MaxOutputTokens      *int
	StructuredSchemaName string
	StructuredSchema     map[string]any
	StructuredStrict     bool
}

const systemPrompt = `You are the hero (H) in a heads-up no-limit hold'em hand.
The user message encodes the hand: positions, stacks in big blinds, your cards,
then each street with its board and the actions so far.
Answer with one action token:
  x = check, f = fold, c = call, a = all-in, aN = all-in capped at N big blinds,
  bN = bet to N big blinds, rN = raise to N big blinds.
Reply as JSON: {"action": "<token>"}.`

var tokenRe = regexp.MustCompile(`^(?:[xfc]|a(?:\d+(?:\.\d+)?)?|[br]\d+(?:\.\d+)?)$`)

// bare "a" is left out of the scan; it is too common in prose
var tokenScanRe = regexp.MustCompile(`\b(?:[xfc]|a\d+(?:\.\d+)?|[br]\d+(?:\.\d+)?)\b`)

// Client is an agent.Decider backed by an OpenAI-compatible chat API.
type Client struct {
	cfg  apiConfig
	opts PingOptions
	http *http.Client
	log  *zap.Logger
}

var _ agent.Decider = (*Client)(nil)

// New resolves provider, key and base URL from the environment.
func New(model string, log *zap.Logger) (*Client, error) {
	cfg, err := resolveAPIConfig(model)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		cfg:  cfg,
		opts: envPingOptions(),
		http: &http.Client{Timeout: 45 * time.Second},
		log:  log.With(zap.String("model", cfg.Model)),
	}, nil
}

func (c *Client) Model() string { return c.cfg.Model }

// Decide asks the model for the next action token.
func (c *Client) Decide(ctx context.Context, p agent.Prompt) (string, error) {
	opts := c.opts
	opts.StructuredSchemaName = coalesce(opts.StructuredSchemaName, "poker_action")
	opts.StructuredSchema = map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"action": map[string]any{
				"type":        "string",
				"pattern":     tokenRe.String(),
				"description": "One action token",
			},
		},
		"required": []string{"action"},
	}
	opts.StructuredStrict = true

	start := time.Now()
	text, err := c.PingTextWithOpts(ctx, systemPrompt, p.Text, opts)
	if err != nil {
		return "", err
	}
	tok, ok := parseToken(text)
	c.log.Debug("llm decision",
		zap.String("token", tok),
		zap.Bool("parsed", ok),
		zap.Duration("latency", time.Since(start)),
	)
	if !ok {
		return "", fmt.Errorf("no action token in response: %s", truncate(text, 200))
	}
	return tok, nil
}

// PingTextWithOpts sends one chat/completions request and returns the text.
func (c *Client) PingTextWithOpts(ctx context.Context, system, user string, opts PingOptions) (string, error) {
	payload := map[string]any{
		"model": c.cfg.Model,
		"messages": []map[string]string{
			{"role": "system", "content": system},
			{"role": "user", "content": user},
		},
	}
	if opts.MaxOutputTokens != nil && *opts.MaxOutputTokens > 0 {
		payload["max_tokens"] = *opts.MaxOutputTokens
	}
	if strings.TrimSpace(opts.ReasoningEffort) != "" {
		payload["reasoning"] = map[string]any{"effort": opts.ReasoningEffort}
	}
	if opts.StructuredSchema != nil {
		payload["response_format"] = map[string]any{
			"type": "json_schema",
			"json_schema": map[string]any{
				"name":   coalesce(opts.StructuredSchemaName, "structured"),
				"strict": opts.StructuredStrict,
				"schema": opts.StructuredSchema,
			},
		}
	} else {
		payload["response_format"] = map[string]any{"type": "json_object"}
	}
	applyTuningFromEnv(payload, c.cfg.Kind == providerOpenRouter)

	b, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	url := c.cfg.BaseURL + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	setHeaderPreserveCase(req.Header, c.cfg.HeaderName, c.cfg.HeaderPrefix+c.cfg.APIKey)
	if c.cfg.Organization != "" {
		req.Header.Set("OpenAI-Organization", c.cfg.Organization)
	}
	for k, v := range c.cfg.ExtraHeaders {
		setHeaderPreserveCase(req.Header, k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var buf bytes.Buffer
	_, _ = buf.ReadFrom(resp.Body)
	body := buf.Bytes()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("llm http %d: %s", resp.StatusCode, truncate(string(body), 800))
	}

	var cc struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(body, &cc); err != nil {
		return "", err
	}
	if len(cc.Choices) == 0 {
		return "", errors.New("no choices returned")
	}
	return cc.Choices[0].Message.Content, nil
}

// parseToken pulls an action token out of a model reply. JSON replies use
// the "action" field; anything else is scanned for the first token.
func parseToken(text string) (string, bool) {
	raw := strings.TrimSpace(text)
	if raw == "" {
		return "", false
	}
	var parsed map[string]any
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		if cleaned := extractJSONObject(raw); cleaned != "" {
			_ = json.Unmarshal([]byte(cleaned), &parsed)
		}
	}
	if v, ok := parsed["action"].(string); ok {
		tok := normalizeToken(v)
		return tok, tokenRe.MatchString(tok)
	}
	if tok := normalizeToken(raw); tokenRe.MatchString(tok) {
		return tok, true
	}
	if m := tokenScanRe.FindString(strings.ToLower(raw)); m != "" {
		return m, true
	}
	return "", false
}

func normalizeToken(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), ""))
}

// setHeaderPreserveCase sets a header without canonicalizing names like
// HTTP-Referer that some providers match case-sensitively.
func setHeaderPreserveCase(h http.Header, key, value string) {
	key = strings.TrimSpace(key)
	value = strings.TrimSpace(value)
	if key == "" || value == "" {
		return
	}
	if http.CanonicalHeaderKey(key) == key {
		h.Set(key, value)
		return
	}
	h[key] = []string{value}
}

func applyTuningFromEnv(m map[string]any, preferOpenRouter bool) {
	if v := envWithFallback(preferOpenRouter, "OPENAI_TEMPERATURE", "OPENROUTER_TEMPERATURE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			m["temperature"] = f
		}
	}
	if v := envWithFallback(preferOpenRouter, "OPENAI_TOP_P", "OPENROUTER_TOP_P"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			m["top_p"] = f
		}
	}
	if v := envWithFallback(preferOpenRouter, "OPENAI_TOP_K", "OPENROUTER_TOP_K"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			m["top_k"] = n
		}
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}

func coalesce(a, b string) string {
	if strings.TrimSpace(a) != "" {
		return a
	}
	return b
}

func extractJSONObject(s string) string {
	start := strings.Index(s, "{")
	if start < 0 {
		return ""
	}
	end := strings.LastIndex(s, "}")
	if end < start {
		return ""
	}
	return strings.TrimSpace(s[start : end+1])
}

func envPingOptions() PingOptions {
	opts := PingOptions{}
	preferOpenRouter := preferOpenRouterEnv()
	if v := envWithFallback(preferOpenRouter, "OPENAI_REASONING_EFFORT", "OPENROUTER_REASONING_EFFORT"); v != "" {
		opts.ReasoningEffort = v
	}
	if v := envWithFallback(preferOpenRouter, "OPENAI_MAX_OUTPUT_TOKENS", "OPENROUTER_MAX_OUTPUT_TOKENS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			opts.MaxOutputTokens = &n
		}
	}
	return opts
}

func envWithFallback(preferOpenRouter bool, openAIKey, openRouterKey string) string {
	keys := []string{openAIKey, openRouterKey}
	if preferOpenRouter {
		keys[0], keys[1] = keys[1], keys[0]
	}
	for _, key := range keys {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			return v
		}
	}
	return ""
}

func preferOpenRouterEnv() bool {
	if strings.TrimSpace(os.Getenv("OPENROUTER_API_KEY")) != "" && strings.TrimSpace(os.Getenv("OPENAI_API_KEY")) == "" {
		return true
	}
	if strings.TrimSpace(os.Getenv("OPENROUTER_MODEL")) != "" && strings.TrimSpace(os.Getenv("OPENAI_MODEL")) == "" {
		return true
	}
	if strings.TrimSpace(os.Getenv("OPENROUTER_API_BASE")) != "" || strings.TrimSpace(os.Getenv("OPENROUTER_BASE_URL")) != "" {
		return true
	}
	for _, k := range []string{"OPENAI_API_BASE", "OPENAI_BASE_URL"} {
		if base := strings.TrimSpace(os.Getenv(k)); base != "" && strings.Contains(strings.ToLower(base), "openrouter") {
			return true
		}
	}
	return false
}
