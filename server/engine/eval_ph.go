package engine

import (
	"fmt"

	poker "github.com/paulhankin/poker"
)

// Convert our engine.Card -> library card.
func toPH(c Card) (poker.Card, error) {
	var s poker.Suit
	switch c.Suit {
	case 'c':
		s = poker.Club
	case 'd':
		s = poker.Diamond
	case 'h':
		s = poker.Heart
	case 's':
		s = poker.Spade
	default:
		return 0, fmt.Errorf("%w: suit %q", ErrBadCard, c.Suit)
	}
	// Our ranks: 2..14 (Ace=14). Library: 1..13 (Ace=1).
	r := poker.Rank(c.Rank)
	if c.Rank == 14 {
		r = poker.Rank(1)
	}
	return poker.MakeCard(s, r)
}

func toPHSlice(cs []Card) ([]poker.Card, error) {
	out := make([]poker.Card, len(cs))
	for i, c := range cs {
		pc, err := toPH(c)
		if err != nil {
			return nil, err
		}
		out[i] = pc
	}
	return out, nil
}

// Describe names the best hand made by cards, e.g. "pair of kings".
func Describe(cards []Card) string {
	pcs, err := toPHSlice(cards)
	if err != nil {
		return ""
	}
	d, err := poker.Describe(pcs)
	if err != nil {
		return ""
	}
	return d
}

// Score7 is the library strength of hole plus a full board; higher wins.
func Score7(hole, board []Card) (int16, error) {
	all := append(append([]Card{}, hole...), board...)
	if len(all) != 7 {
		return 0, fmt.Errorf("need 7 cards, got %d", len(all))
	}
	pcs, err := toPHSlice(all)
	if err != nil {
		return 0, err
	}
	var a7 [7]poker.Card
	copy(a7[:], pcs)
	return poker.Eval7(&a7), nil
}

// LibraryCompare ranks two complete holdings with the library evaluator
// (higher score wins). ok is false when the board is not complete.
func LibraryCompare(a, b, board []Card) (cmp int, ok bool) {
	sa, err := Score7(a, board)
	if err != nil {
		return 0, false
	}
	sb, err := Score7(b, board)
	if err != nil {
		return 0, false
	}
	switch {
	case sa > sb:
		return 1, true
	case sa < sb:
		return -1, true
	}
	return 0, true
}
