package store

import (
	"context"
	"embed"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema.sql
var schema embed.FS

type DB struct{ *pgxpool.Pool }

func Open(ctx context.Context, dsn string) (*DB, error) {
	p, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &DB{p}, nil
}

func (db *DB) Close() error                   { db.Pool.Close(); return nil }
func (db *DB) Ping(ctx context.Context) error { return db.Pool.Ping(ctx) }

func Migrate(ctx context.Context, db *DB) error {
	sqlBytes, err := schema.ReadFile("schema.sql")
	if err != nil {
		return err
	}
	_, err = db.Exec(ctx, string(sqlBytes))
	return err
}

// RecordHand appends a finished hand. A hand id that is already stored is
// ignored, so retries are safe.
func (db *DB) RecordHand(ctx context.Context, r HandRecord) error {
	if err := r.validate(); err != nil {
		return err
	}
	actions, err := marshalJSON(r.Actions)
	if err != nil {
		return fmt.Errorf("encode actions: %w", err)
	}
	var corrections any
	if len(r.Corrections) > 0 {
		b, err := marshalJSON(r.Corrections)
		if err != nil {
			return fmt.Errorf("encode corrections: %w", err)
		}
		corrections = b
	}
	playedAt := r.PlayedAt
	if playedAt.IsZero() {
		playedAt = time.Now()
	}

	tx, err := db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
        INSERT INTO hands(
            hand_id, session_id, hand_no, player_name, played_at,
            winner, player_net, player_pos, ai_pos,
            player_start_stack, ai_start_stack,
            player_hole, ai_hole, board,
            history, actions, corrections
        ) VALUES (
            $1,$2,$3,$4,$5,
            $6,$7,$8,$9,
            $10,$11,
            $12,$13,$14,
            $15,$16,$17
        )
        ON CONFLICT (hand_id) DO NOTHING
    `,
		r.HandID, r.SessionID, r.HandNo, r.PlayerName, playedAt,
		r.Winner, r.PlayerNet, r.PlayerPos, r.AIPos,
		r.PlayerStartStack, r.AIStartStack,
		nonNil(r.PlayerHole), nonNil(r.AIHole), nonNil(r.Board),
		r.History, actions, corrections,
	)
	if err != nil {
		return fmt.Errorf("insert hand %s: %w", r.HandID, err)
	}
	if tag.RowsAffected() == 0 {
		// already recorded
		return nil
	}

	if len(r.Decisions) > 0 {
		b := &pgx.Batch{}
		for _, d := range r.Decisions {
			b.Queue(`
                INSERT INTO decisions(hand_id, seq, prompt, token, action, latency_ms, fallback, error, equity, best, ev_gap_bb)
                VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
                ON CONFLICT (hand_id, seq) DO NOTHING
            `, r.HandID, d.Seq, d.Prompt, d.Token, d.Action, d.LatencyMS, d.Fallback, nullable(d.Error),
				d.Equity, nullable(d.Best), d.EVGapBB)
		}
		if err := tx.SendBatch(ctx, b).Close(); err != nil {
			return fmt.Errorf("insert decisions %s: %w", r.HandID, err)
		}
	}
	return tx.Commit(ctx)
}

// ListHands returns the hands of a session in play order. Decisions are not
// loaded.
func (db *DB) ListHands(ctx context.Context, sessionID string, limit int) ([]HandRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := db.Query(ctx, `
        SELECT hand_id, session_id, hand_no, player_name, played_at,
               winner, player_net, player_pos, ai_pos,
               player_start_stack, ai_start_stack,
               player_hole, ai_hole, board,
               history, actions, corrections
          FROM hands
         WHERE session_id = $1
         ORDER BY hand_no
         LIMIT $2
    `, sessionID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []HandRecord
	for rows.Next() {
		var r HandRecord
		var actions, corrections []byte
		if err := rows.Scan(
			&r.HandID, &r.SessionID, &r.HandNo, &r.PlayerName, &r.PlayedAt,
			&r.Winner, &r.PlayerNet, &r.PlayerPos, &r.AIPos,
			&r.PlayerStartStack, &r.AIStartStack,
			&r.PlayerHole, &r.AIHole, &r.Board,
			&r.History, &actions, &corrections,
		); err != nil {
			return nil, err
		}
		if err := decodeJSON(actions, &r.Actions); err != nil {
			return nil, fmt.Errorf("hand %s actions: %w", r.HandID, err)
		}
		if err := decodeJSON(corrections, &r.Corrections); err != nil {
			return nil, fmt.Errorf("hand %s corrections: %w", r.HandID, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Decisions loads the agent calls recorded for a hand.
func (db *DB) Decisions(ctx context.Context, handID string) ([]Decision, error) {
	rows, err := db.Query(ctx, `
        SELECT seq, prompt, token, action, latency_ms, fallback, COALESCE(error, ''),
               equity, COALESCE(best, ''), ev_gap_bb
          FROM decisions
         WHERE hand_id = $1
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

func nonNil(ss []string) []string {
	if ss == nil {
		return []string{}
	}
	return ss
}
