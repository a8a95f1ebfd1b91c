package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS hands (
    hand_id            TEXT PRIMARY KEY,
    session_id         TEXT    NOT NULL,
    hand_no            INTEGER NOT NULL,
    player_name        TEXT    NOT NULL DEFAULT '',
    played_at          TEXT    NOT NULL,
    winner             TEXT    NOT NULL,
    player_net         INTEGER NOT NULL,
    player_pos         TEXT    NOT NULL,
    ai_pos             TEXT    NOT NULL,
    player_start_stack INTEGER NOT NULL,
    ai_start_stack     INTEGER NOT NULL,
    player_hole        TEXT    NOT NULL,
    ai_hole            TEXT    NOT NULL,
    board              TEXT    NOT NULL,
    history            TEXT    NOT NULL DEFAULT '',
    actions            TEXT    NOT NULL,
    corrections        TEXT
);
CREATE INDEX IF NOT EXISTS hands_session_idx ON hands (session_id, hand_no);
CREATE TABLE IF NOT EXISTS decisions (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    hand_id    TEXT    NOT NULL REFERENCES hands (hand_id) ON DELETE CASCADE,
    seq        INTEGER NOT NULL,
    prompt     TEXT    NOT NULL,
    token      TEXT    NOT NULL,
    action     TEXT    NOT NULL,
    latency_ms INTEGER NOT NULL DEFAULT 0,
    fallback   INTEGER NOT NULL DEFAULT 0,
    error      TEXT,
    equity     REAL,
    best       TEXT,
    ev_gap_bb  REAL,
    UNIQUE (hand_id, seq)
);`

// SQLite is a single-file hand history for local play.
type SQLite struct {
	db *sql.DB
}

func OpenSQLite(ctx context.Context, dbPath string) (*SQLite, error) {
	dbPath = strings.TrimSpace(dbPath)
	if dbPath == "" {
		return nil, fmt.Errorf("empty sqlite database path")
	}
	if dbPath != ":memory:" {
		parent := filepath.Dir(dbPath)
		if parent != "" && parent != "." {
			if err := os.MkdirAll(parent, 0o755); err != nil {
				return nil, err
			}
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	for _, pragma := range []string{
		`PRAGMA busy_timeout = 5000;`,
		`PRAGMA journal_mode = WAL;`,
		`PRAGMA foreign_keys = ON;`,
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Close() error                   { return s.db.Close() }
func (s *SQLite) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

// RecordHand appends a finished hand; a known hand id is a no-op.
func (s *SQLite) RecordHand(ctx context.Context, r HandRecord) error {
	if err := r.validate(); err != nil {
		return err
	}
	enc := func(v any) (string, error) {
		b, err := marshalJSON(v)
		return string(b), err
	}
	cols := map[string]any{
		"player_hole": nonNil(r.PlayerHole),
		"ai_hole":     nonNil(r.AIHole),
		"board":       nonNil(r.Board),
		"actions":     r.Actions,
	}
	vals := make(map[string]string, len(cols))
	for k, v := range cols {
		str, err := enc(v)
		if err != nil {
			return fmt.Errorf("encode %s: %w", k, err)
		}
		vals[k] = str
	}
	var corrections any
	if len(r.Corrections) > 0 {
		str, err := enc(r.Corrections)
		if err != nil {
			return fmt.Errorf("encode corrections: %w", err)
		}
		corrections = str
	}
	playedAt := r.PlayedAt
	if playedAt.IsZero() {
		playedAt = time.Now()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
        INSERT OR IGNORE INTO hands(
            hand_id, session_id, hand_no, player_name, played_at,
            winner, player_net, player_pos, ai_pos,
            player_start_stack, ai_start_stack,
            player_hole, ai_hole, board,
            history, actions, corrections
        ) VALUES (?,?,?,?,?, ?,?,?,?, ?,?, ?,?,?, ?,?,?)
    `,
		r.HandID, r.SessionID, r.HandNo, r.PlayerName, playedAt.UTC().Format(time.RFC3339Nano),
		r.Winner, r.PlayerNet, r.PlayerPos, r.AIPos,
		r.PlayerStartStack, r.AIStartStack,
		vals["player_hole"], vals["ai_hole"], vals["board"],
		r.History, vals["actions"], corrections,
	)
	if err != nil {
		return fmt.Errorf("insert hand %s: %w", r.HandID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return nil
	}

	for _, d := range r.Decisions {
		if _, err := tx.ExecContext(ctx, `
            INSERT OR IGNORE INTO decisions(hand_id, seq, prompt, token, action, latency_ms, fallback, error, equity, best, ev_gap_bb)
            VALUES (?,?,?,?,?,?,?,?,?,?,?)
        `, r.HandID, d.Seq, d.Prompt, d.Token, d.Action, d.LatencyMS, d.Fallback, nullable(d.Error), d.Equity, nullable(d.Best), d.EVGapBB); err != nil {
			return fmt.Errorf("insert decision %s/%d: %w", r.HandID, d.Seq, err)
		}
	}
	return tx.Commit()
}

func (s *SQLite) ListHands(ctx context.Context, sessionID string, limit int) ([]HandRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
        SELECT hand_id, session_id, hand_no, player_name, played_at,
               winner, player_net, player_pos, ai_pos,
               player_start_stack, ai_start_stack,
               player_hole, ai_hole, board,
               history, actions, corrections
          FROM hands
         WHERE session_id = ?
         ORDER BY hand_no
         LIMIT ?
    `, sessionID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []HandRecord
	for rows.Next() {
		var (
			r                                 HandRecord
			playedAt, pHole, aHole, board, ac string
			corrections                       sql.NullString
		)
		if err := rows.Scan(
			&r.HandID, &r.SessionID, &r.HandNo, &r.PlayerName, &playedAt,
			&r.Winner, &r.PlayerNet, &r.PlayerPos, &r.AIPos,
			&r.PlayerStartStack, &r.AIStartStack,
			&pHole, &aHole, &board,
			&r.History, &ac, &corrections,
		); err != nil {
			return nil, err
		}
		if t, err := time.Parse(time.RFC3339Nano, playedAt); err == nil {
			r.PlayedAt = t
		}
		for _, f := range []struct {
			src string
			dst any
		}{
			{pHole, &r.PlayerHole},
			{aHole, &r.AIHole},
			{board, &r.Board},
			{ac, &r.Actions},
			{corrections.String, &r.Corrections},
		} {
			if err := decodeJSON([]byte(f.src), f.dst); err != nil {
				return nil, fmt.Errorf("hand %s: %w", r.HandID, err)
			}
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Decisions loads the agent calls recorded for a hand.
func (s *SQLite) Decisions(ctx context.Context, handID string) ([]Decision, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT seq, prompt, token, action, latency_ms, fallback, COALESCE(error, ''),
               equity, COALESCE(best, ''), ev_gap_bb
          FROM decisions
         WHERE hand_id = ?
         ORDER BY seq
    `, handID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Decision
	for rows.Next() {
		var d Decision
		if err := rows.Scan(&d.Seq, &d.Prompt, &d.Token, &d.Action, &d.LatencyMS, &d.Fallback, &d.Error,
			&d.Equity, &d.Best, &d.EVGapBB); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
