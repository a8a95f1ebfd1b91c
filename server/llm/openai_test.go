package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"hu-holdem/server/agent"
)

func TestSetHeaderPreserveCase(t *testing.T) {
	hdr := http.Header{}
	setHeaderPreserveCase(hdr, "HTTP-Referer", "https://example.com/app")
	if vals := hdr["HTTP-Referer"]; len(vals) != 1 || vals[0] != "https://example.com/app" {
		t.Fatalf("expected HTTP-Referer slice to be preserved, got %+v", vals)
	}
	if _, exists := hdr["Http-Referer"]; exists {
		t.Fatalf("unexpected canonical header variant present: %+v", hdr)
	}

	setHeaderPreserveCase(hdr, "Referer", "https://example.com/app")
	if got := hdr.Get("Referer"); got != "https://example.com/app" {
		t.Fatalf("expected Referer to be set via canonical path, got %q", got)
	}

	// Blank values should be ignored.
	setHeaderPreserveCase(hdr, "  ", "value")
	setHeaderPreserveCase(hdr, "X-Test", "   ")
	if _, exists := hdr[" "]; exists {
		t.Fatalf("expected blank header keys to be ignored")
	}
	if got := hdr.Get("X-Test"); got != "" {
		t.Fatalf("expected blank header values to be skipped, got %q", got)
	}
}

func TestParseToken(t *testing.T) {
	cases := []struct{ in, want string }{
		{`{"action":"r2.5"}`, "r2.5"},
		{`{"action":" X "}`, "x"},
		{"```json\n{\"action\": \"c\"}\n```", "c"},
		{"b3", "b3"},
		{"I think the best play is r4 here", "r4"},
		{"a12", "a12"},
	}
	for _, tc := range cases {
		got, ok := parseToken(tc.in)
		assert.True(t, ok, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}

	for _, in := range []string{"", `{"action":"raise"}`, "I have a strong hand"} {
		_, ok := parseToken(in)
		assert.False(t, ok, in)
	}
}

func chatServer(t *testing.T, status int, content string, seen *map[string]any) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		body, _ := io.ReadAll(r.Body)
		if seen != nil {
			_ = json.Unmarshal(body, seen)
		}
		w.WriteHeader(status)
		if status != http.StatusOK {
			_, _ = w.Write([]byte(`{"error":"nope"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []any{map[string]any{"message": map[string]any{"content": content}}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestClientDecide(t *testing.T) {
	var seen map[string]any
	srv := chatServer(t, http.StatusOK, `{"action":"r3"}`, &seen)
	t.Setenv("OPENAI_API_KEY", "test-key")
	t.Setenv("OPENAI_API_BASE", srv.URL)

	c, err := New("gpt-test", zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.Equal(t, "gpt-test", c.Model())

	tok, err := c.Decide(context.Background(), agent.Prompt{Text: "pos:H=BB stacks:H=24.0,SB=24.5 hand:AsKd | pre:H H:"})
	require.NoError(t, err)
	assert.Equal(t, "r3", tok)

	assert.Equal(t, "gpt-test", seen["model"])
	msgs := seen["messages"].([]any)
	require.Len(t, msgs, 2)
	assert.Contains(t, msgs[1].(map[string]any)["content"], "hand:AsKd")
}

func TestClientDecideErrors(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "test-key")

	srv := chatServer(t, http.StatusInternalServerError, "", nil)
	t.Setenv("OPENAI_API_BASE", srv.URL)
	c, err := New("gpt-test", nil)
	require.NoError(t, err)
	_, err = c.Decide(context.Background(), agent.Prompt{Text: "H:"})
	assert.ErrorContains(t, err, "llm http 500")

	srv = chatServer(t, http.StatusOK, "no idea", nil)
	t.Setenv("OPENAI_API_BASE", srv.URL)
	c, err = New("gpt-test", nil)
	require.NoError(t, err)
	_, err = c.Decide(context.Background(), agent.Prompt{Text: "H:"})
	assert.ErrorContains(t, err, "no action token")
}
