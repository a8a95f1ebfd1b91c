package session

import "math"

// Elo rates the player against the agent, one update per hand. The score
// is soft: a chip margin of a few big blinds counts as a partial win.
type Elo struct {
	Player float64 `json:"player"`
	AI     float64 `json:"ai"`
	K      float64 `json:"k"`
	Hands  int     `json:"hands"`
}

func NewElo(start, k float64) Elo { return Elo{Player: start, AI: start, K: k} }

func (e Elo) expect() float64 {
	return 1.0 / (1.0 + math.Pow(10, (e.AI-e.Player)/400.0))
}

// UpdateHand applies one hand: net is the player's chip result and pot the
// chips that were contested. Returns the player's rating change.
func (e *Elo) UpdateHand(net, pot, bb int) float64 {
	if bb <= 0 {
		return 0
	}
	const lambdaBB = 6.0
	s := 0.5 + 0.5*math.Tanh(float64(net)/(lambdaBB*float64(bb)))
	k := e.K * potScale(pot, bb) * marginScale(net, bb) * decay(e.Hands)

	d := k * (s - e.expect())
	e.Player += d
	e.AI -= d
	e.Hands++
	return d
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

func potScale(pot, bb int) float64 {
	if bb <= 0 || pot <= 0 {
		return 1.0
	}
	return clamp(float64(pot)/(2.0*float64(bb)), 0.5, 3.0)
}

func marginScale(net, bb int) float64 {
	m := math.Abs(float64(net)) / float64(bb)
	return 1.0 + 0.35*math.Tanh(m/8.0)
}

func decay(hands int) float64 {
	return 1.0 / (1.0 + 0.01*float64(hands))
}
