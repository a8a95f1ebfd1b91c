package engine

import (
	"fmt"
	"math/rand"
	"strings"
	"time"
)

type Card struct {
	Rank int
	Suit byte
} // e.g. "As" => rank 14, suit 's'

const (
	rankChars = "  23456789TJQKA"
	suitChars = "cdhs"
)

func (c Card) String() string {
	if c.Rank < 2 || c.Rank > 14 {
		return "??"
	}
	return fmt.Sprintf("%c%c", rankChars[c.Rank], c.Suit)
}

// ParseCard reads the two-character form ("As", "Td", "2c").
func ParseCard(s string) (Card, error) {
	if len(s) != 2 {
		return Card{}, fmt.Errorf("%w: %q", ErrBadCard, s)
	}
	r := strings.IndexByte(rankChars[2:], strings.ToUpper(s[:1])[0])
	if r < 0 {
		return Card{}, fmt.Errorf("%w: rank in %q", ErrBadCard, s)
	}
	suit := strings.ToLower(s[1:])[0]
	if strings.IndexByte(suitChars, suit) < 0 {
		return Card{}, fmt.Errorf("%w: suit in %q", ErrBadCard, s)
	}
	return Card{Rank: r + 2, Suit: suit}, nil
}

// MustCards parses a space separated card list and panics on error.
func MustCards(s string) []Card {
	var out []Card
	for _, f := range strings.Fields(s) {
		c, err := ParseCard(f)
		if err != nil {
			panic(err)
		}
		out = append(out, c)
	}
	return out
}

func CardsString(cs []Card) string {
	parts := make([]string, len(cs))
	for i, c := range cs {
		parts[i] = c.String()
	}
	return strings.Join(parts, " ")
}

// Deck is an ordered card source; Deal takes from the top.
type Deck struct {
	cards []Card
}

func NewDeck(seed int64) *Deck {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	r := rand.New(rand.NewSource(seed))
	cards := make([]Card, 0, 52)
	for s := 0; s < 4; s++ {
		for rnk := 2; rnk <= 14; rnk++ {
			cards = append(cards, Card{Rank: rnk, Suit: suitChars[s]})
		}
	}
	for i := len(cards) - 1; i > 0; i-- {
		j := r.Intn(i + 1)
		cards[i], cards[j] = cards[j], cards[i]
	}
	return &Deck{cards: cards}
}

// NewDeckFrom builds a stacked deck whose first card is dealt first.
func NewDeckFrom(cards []Card) *Deck {
	return &Deck{cards: append([]Card(nil), cards...)}
}

func (d *Deck) Len() int { return len(d.cards) }

func (d *Deck) Deal(n int) ([]Card, error) {
	if n > len(d.cards) {
		return nil, fmt.Errorf("%w: want %d, have %d", ErrDeckExhausted, n, len(d.cards))
	}
	out := append([]Card(nil), d.cards[:n]...)
	d.cards = d.cards[n:]
	return out, nil
}

func (d *Deck) mustDeal(n int) []Card {
	cs, err := d.Deal(n)
	if err != nil {
		panic(err)
	}
	return cs
}
