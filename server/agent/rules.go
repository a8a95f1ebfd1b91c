package agent

import (
	"context"
	"math/rand"
	"strconv"
	"sync"

	"hu-holdem/server/engine"
	"hu-holdem/server/judge"
)

const equitySamples = 200

// RuleAgent is an offline opponent driven by a few tunable knobs. It reads
// the structured observation and answers in the compact token grammar.
type RuleAgent struct {
	Aggression float64 // 0..1, how often strong hands bet or raise
	Tightness  float64 // 0..1, how often weak hands give up
	Bluffing   float64 // 0..1

	mu  sync.Mutex
	rng *rand.Rand
}

func NewRuleAgent(seed int64) *RuleAgent {
	return &RuleAgent{
		Aggression: 0.55,
		Tightness:  0.45,
		Bluffing:   0.15,
		rng:        rand.New(rand.NewSource(seed)),
	}
}

func (b *RuleAgent) float() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.rng.Float64()
}

func (b *RuleAgent) Decide(ctx context.Context, p Prompt) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	o := p.Obs
	strength := b.strength(o)
	canCheck := o.ToCall == 0
	canRaise := contains(o.Legal, "r") || contains(o.Legal, "b")

	if o.StreetNum == 0 && strength < b.Tightness*0.6 {
		if canCheck {
			return "x", nil
		}
		return "f", nil
	}

	aggressive := strength > (1.0-b.Aggression)*0.5
	if canRaise && (aggressive || b.float() < b.Bluffing*0.3) {
		return b.sizeToken(o, strength), nil
	}

	if canCheck {
		return "x", nil
	}
	// price of the call relative to the pot after calling
	price := float64(o.ToCall) / float64(o.Pot+o.ToCall)
	if strength > price+b.Tightness*0.3 || b.float() < (1.0-b.Tightness)*0.3 {
		return "c", nil
	}
	return "f", nil
}

// strength is a 0..1 heuristic: hole card shape preflop, equity against a
// random hand after the flop.
func (b *RuleAgent) strength(o Observation) float64 {
	hole := parseAll(o.HoleCards)
	if len(hole) < 2 {
		return 0.3
	}
	board := parseAll(o.Board)
	if len(board) >= 3 {
		b.mu.Lock()
		eq, err := judge.Equity(hole, board, equitySamples, b.rng)
		b.mu.Unlock()
		if err == nil {
			// an average holding scores zero
			return clamp01((eq - 0.5) * 2)
		}
	}

	r0, r1 := hole[0].Rank, hole[1].Rank
	s := float64(r0+r1) / 28.0
	if r0 == r1 {
		s += 0.25
	}
	if hole[0].Suit == hole[1].Suit {
		s += 0.05
	}
	if gap := r0 - r1; gap <= 2 && gap >= -2 {
		s += 0.05
	}
	return clamp01(s)
}

// sizeToken picks a bet-to between the min raise and the stack and renders
// it in big blinds.
func (b *RuleAgent) sizeToken(o Observation, strength float64) string {
	bb := o.Blinds["bb"]
	if bb <= 0 {
		return "c"
	}
	var to int
	if o.BetToMatch > 0 {
		to = int(float64(o.BetToMatch) * (2.0 + b.Aggression*1.5))
	} else {
		to = int(float64(o.Pot) * (0.33 + b.Aggression*0.67))
	}
	to = max(to, o.MinRaiseTo)
	if strength > 0.9 || to >= o.MaxRaiseTo {
		return "a"
	}

	letter := "b"
	if o.BetToMatch > 0 {
		letter = "r"
	}
	x := float64(to) / float64(bb)
	if o.StreetNum == 0 && o.BetToMatch == bb {
		// the translator adds back the posted blind
		x -= float64(o.HeroBet) / float64(bb)
	}
	return letter + strconv.FormatFloat(x, 'f', -1, 64)
}

func parseAll(ss []string) []engine.Card {
	out := make([]engine.Card, 0, len(ss))
	for _, s := range ss {
		if c, err := engine.ParseCard(s); err == nil {
			out = append(out, c)
		}
	}
	return out
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func contains(xs []string, x string) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}
