package agent

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Decider picks the next action token for a prompt.
type Decider interface {
	Decide(ctx context.Context, p Prompt) (string, error)
}

type DeciderFunc func(ctx context.Context, p Prompt) (string, error)

func (f DeciderFunc) Decide(ctx context.Context, p Prompt) (string, error) { return f(ctx, p) }

var ErrNoDecision = errors.New("agent gave no decision")

// Fallback is the token used when an agent fails to answer: a free check,
// otherwise a fold.
func Fallback(obs Observation) string {
	if obs.ToCall == 0 {
		return "x"
	}
	return "f"
}

// DecideWithin asks d for a token but never waits longer than timeout. On
// timeout or error the Fallback token is returned together with the cause.
func DecideWithin(ctx context.Context, d Decider, p Prompt, timeout time.Duration) (string, error) {
	if d == nil {
		return Fallback(p.Obs), ErrNoDecision
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	type result struct {
		tok string
		err error
	}
	ch := make(chan result, 1)
	go func() {
		tok, err := d.Decide(ctx, p)
		ch <- result{tok, err}
	}()

	select {
	case r := <-ch:
		if r.err != nil {
			return Fallback(p.Obs), fmt.Errorf("decide: %w", r.err)
		}
		if r.tok == "" {
			return Fallback(p.Obs), ErrNoDecision
		}
		return r.tok, nil
	case <-ctx.Done():
		return Fallback(p.Obs), fmt.Errorf("decide: %w", ctx.Err())
	}
}
