package engine

import "sort"

// Hand categories, weakest first.
const (
	HighCard = iota
	OnePair
	TwoPair
	Trips
	Straight
	Flush
	FullHouse
	Quads
	StraightFlush
)

var categoryNames = [...]string{
	"high card", "pair", "two pair", "three of a kind", "straight",
	"flush", "full house", "four of a kind", "straight flush",
}

// HandRank orders 5-card hands: Category first, then Ranks lexicographically.
type HandRank struct {
	Category int   `json:"category"`
	Ranks    []int `json:"ranks"`
}

// Incomplete is returned when fewer than five cards are available. It loses
// to every real hand.
var Incomplete = HandRank{Category: -1}

func (h HandRank) Name() string {
	if h.Category < 0 || h.Category >= len(categoryNames) {
		return "incomplete"
	}
	return categoryNames[h.Category]
}

// Compare returns -1, 0 or 1.
func (h HandRank) Compare(o HandRank) int {
	if h.Category != o.Category {
		if h.Category < o.Category {
			return -1
		}
		return 1
	}
	for i := 0; i < len(h.Ranks) && i < len(o.Ranks); i++ {
		if h.Ranks[i] != o.Ranks[i] {
			if h.Ranks[i] < o.Ranks[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(h.Ranks) < len(o.Ranks):
		return -1
	case len(h.Ranks) > len(o.Ranks):
		return 1
	}
	return 0
}

func Evaluate5(cs [5]Card) HandRank {
	var counts [15]int
	flush := true
	for i, c := range cs {
		counts[c.Rank]++
		if i > 0 && c.Suit != cs[0].Suit {
			flush = false
		}
	}

	type group struct{ rank, n int }
	groups := make([]group, 0, 5)
	for r := 14; r >= 2; r-- {
		if counts[r] > 0 {
			groups = append(groups, group{r, counts[r]})
		}
	}
	sort.SliceStable(groups, func(i, j int) bool { return groups[i].n > groups[j].n })

	ranks := make([]int, len(groups))
	for i, g := range groups {
		ranks[i] = g.rank
	}

	if len(groups) == 5 {
		high, ok := straightHigh(ranks)
		switch {
		case ok && flush:
			return HandRank{StraightFlush, straightRanks(high)}
		case flush:
			return HandRank{Flush, ranks}
		case ok:
			return HandRank{Straight, straightRanks(high)}
		}
		return HandRank{HighCard, ranks}
	}

	switch {
	case groups[0].n == 4:
		return HandRank{Quads, ranks}
	case groups[0].n == 3 && groups[1].n == 2:
		return HandRank{FullHouse, ranks}
	case groups[0].n == 3:
		return HandRank{Trips, ranks}
	case groups[0].n == 2 && groups[1].n == 2:
		return HandRank{TwoPair, ranks}
	}
	return HandRank{OnePair, ranks}
}

// straightHigh expects five distinct ranks sorted descending.
func straightHigh(r []int) (int, bool) {
	if r[0]-r[4] == 4 {
		return r[0], true
	}
	if r[0] == 14 && r[1] == 5 && r[4] == 2 {
		return 5, true
	}
	return 0, false
}

func straightRanks(high int) []int {
	out := make([]int, 5)
	for i := range out {
		out[i] = high - i
	}
	if high == 5 {
		out[4] = 1
	}
	return out
}

// BestOf7 ranks the strongest 5-card subset of hole and board.
func BestOf7(hole, board []Card) HandRank {
	all := make([]Card, 0, len(hole)+len(board))
	all = append(all, hole...)
	all = append(all, board...)
	n := len(all)
	if n < 5 {
		return Incomplete
	}
	best := Incomplete
	var five [5]Card
	for a := 0; a < n-4; a++ {
		for b := a + 1; b < n-3; b++ {
			for c := b + 1; c < n-2; c++ {
				for d := c + 1; d < n-1; d++ {
					for e := d + 1; e < n; e++ {
						five = [5]Card{all[a], all[b], all[c], all[d], all[e]}
						if r := Evaluate5(five); r.Compare(best) > 0 {
							best = r
						}
					}
				}
			}
		}
	}
	return best
}
