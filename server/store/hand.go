package store

import (
	"encoding/json"
	"errors"
	"time"

	"hu-holdem/server/engine"
)

var ErrNoHandID = errors.New("hand record has no id")

// HandRecord is the finished transcript of one hand.
type HandRecord struct {
	HandID           string    `json:"hand_id"`
	SessionID        string    `json:"session_id"`
	HandNo           int       `json:"hand_no"`
	PlayerName       string    `json:"player_name"`
	PlayedAt         time.Time `json:"played_at"`
	Winner           string    `json:"winner"` // player | ai | tie
	PlayerNet        int       `json:"player_net"`
	PlayerPos        string    `json:"player_pos"`
	AIPos            string    `json:"ai_pos"`
	PlayerStartStack int       `json:"player_start_stack"`
	AIStartStack     int       `json:"ai_start_stack"`
	PlayerHole       []string  `json:"player_hole"`
	AIHole           []string  `json:"ai_hole"`
	Board            []string  `json:"board"`
	// compact action history as the agent saw it
	History     string                `json:"history"`
	Actions     []engine.ActionRecord `json:"actions"`
	Corrections []engine.Correction   `json:"corrections,omitempty"`
	Decisions   []Decision            `json:"decisions,omitempty"`
}

// Decision is one agent call: what it was shown and what it answered.
type Decision struct {
	Seq       int    `json:"seq"`
	Prompt    string `json:"prompt"`
	Token     string `json:"token"`
	Action    string `json:"action"`
	LatencyMS int64  `json:"latency_ms"`
	Fallback  bool   `json:"fallback,omitempty"`
	Error     string `json:"error,omitempty"`

	// river grading, set only for graded decisions
	Equity  *float64 `json:"equity,omitempty"`
	Best    string   `json:"best,omitempty"`
	EVGapBB *float64 `json:"ev_gap_bb,omitempty"`
}

func (r HandRecord) validate() error {
	if r.HandID == "" {
		return ErrNoHandID
	}
	return nil
}

func marshalJSON(v any) ([]byte, error) {
	if v == nil {
		return []byte("null"), nil
	}
	return json.Marshal(v)
}

func decodeJSON(b []byte, v any) error {
	if len(b) == 0 {
		return nil
	}
	return json.Unmarshal(b, v)
}

// nullable maps "" to SQL NULL.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
