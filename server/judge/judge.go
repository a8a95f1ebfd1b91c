// Package judge grades decisions by equity against a random hand.
package judge

import (
	"errors"
	"math"
	"math/rand"

	"hu-holdem/server/engine"
)

var ErrBadInput = errors.New("judge: need two hole cards and at most five board cards")

// DefaultSamples is the Monte Carlo sample count used before the river.
const DefaultSamples = 400

// fold equity assumed for a two-thirds pot bet on the river
const riverFoldEquity = 0.35

func fullDeck() []engine.Card {
	out := make([]engine.Card, 0, 52)
	for _, su := range []byte("cdhs") {
		for r := 2; r <= 14; r++ {
			out = append(out, engine.Card{Rank: r, Suit: su})
		}
	}
	return out
}

func remaining(dead ...[]engine.Card) []engine.Card {
	used := map[engine.Card]bool{}
	for _, cs := range dead {
		for _, c := range cs {
			used[c] = true
		}
	}
	var out []engine.Card
	for _, c := range fullDeck() {
		if !used[c] {
			out = append(out, c)
		}
	}
	return out
}

// Equity is hero's expected share of the pot against one random hand. A
// complete board is enumerated exactly over all villain holdings; earlier
// streets sample villain hands and run-outs.
func Equity(hole, board []engine.Card, samples int, rng *rand.Rand) (float64, error) {
	if len(hole) != 2 || len(board) > 5 {
		return 0, ErrBadInput
	}
	avail := remaining(hole, board)
	if len(board) == 5 {
		return riverEquity(hole, board, avail)
	}
	if samples <= 0 {
		samples = DefaultSamples
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}

	need := 2 + 5 - len(board)
	pick := make([]engine.Card, len(avail))
	full := make([]engine.Card, 5)
	var won float64
	for i := 0; i < samples; i++ {
		copy(pick, avail)
		// partial shuffle of the cards we need
		for j := 0; j < need; j++ {
			k := j + rng.Intn(len(pick)-j)
			pick[j], pick[k] = pick[k], pick[j]
		}
		copy(full, board)
		copy(full[len(board):], pick[2:need])
		won += share(hole, pick[:2], full)
	}
	return won / float64(samples), nil
}

func riverEquity(hole, board, avail []engine.Card) (float64, error) {
	hero, err := engine.Score7(hole, board)
	if err != nil {
		return 0, err
	}
	var total, won float64
	for i := 0; i < len(avail); i++ {
		for j := i + 1; j < len(avail); j++ {
			v, err := engine.Score7([]engine.Card{avail[i], avail[j]}, board)
			if err != nil {
				return 0, err
			}
			total++
			switch {
			case hero > v:
				won++
			case hero == v:
				won += 0.5
			}
		}
	}
	return won / total, nil
}

func share(hole, villain, board []engine.Card) float64 {
	cmp, ok := engine.LibraryCompare(hole, villain, board)
	if !ok {
		return 0
	}
	switch cmp {
	case 1:
		return 1
	case 0:
		return 0.5
	}
	return 0
}

// Verdict compares the chosen river action with the better of the two
// simple alternatives.
type Verdict struct {
	Equity   float64 `json:"equity"`
	Best     string  `json:"best"`
	EVBest   float64 `json:"ev_best"`
	EVChosen float64 `json:"ev_chosen"`
	GapBB    float64 `json:"gap_bb"`
}

// River grades a river decision. Facing a bet it compares call with fold;
// otherwise check with a two-thirds pot bet. ok is false for choices it
// does not grade, such as raises facing a bet.
func River(hole, board []engine.Card, pot, toCall, bb int, chosen engine.Verb) (v Verdict, ok bool) {
	if len(board) != 5 || bb <= 0 {
		return Verdict{}, false
	}
	eq, err := Equity(hole, board, 0, nil)
	if err != nil {
		return Verdict{}, false
	}
	p := float64(pot)

	var evA, evB float64 // A is the passive option
	var nameA, nameB string
	var choseB bool
	if toCall > 0 {
		b := float64(toCall)
		nameA, nameB = "fold", "call"
		evA = 0
		evB = eq*(p+b) - (1-eq)*b
		switch chosen {
		case engine.Fold:
		case engine.Call:
			choseB = true
		default:
			return Verdict{}, false
		}
	} else {
		b := math.Max(float64(bb), math.Round(0.66*p))
		nameA, nameB = "check", "bet"
		evA = 0
		evB = riverFoldEquity*p + (1-riverFoldEquity)*(eq*(p+2*b)-(1-eq)*b)
		switch chosen {
		case engine.Check:
		case engine.Bet, engine.Raise, engine.AllIn:
			choseB = true
		default:
			return Verdict{}, false
		}
	}

	v = Verdict{Equity: eq, Best: nameA, EVBest: evA, EVChosen: evA}
	if evB > evA {
		v.Best, v.EVBest = nameB, evB
	}
	if choseB {
		v.EVChosen = evB
	}
	v.GapBB = (v.EVBest - v.EVChosen) / float64(bb)
	return v, true
}
