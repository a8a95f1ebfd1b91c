package engine

import "fmt"

// Side identifies who a chip, card or action belongs to.
type Side string

const (
	NoSide Side = ""
	Player Side = "player"
	AI     Side = "ai"
	Tie    Side = "tie"
)

// Opponent returns the other participant. Tie and NoSide map to themselves.
func (s Side) Opponent() Side {
	switch s {
	case Player:
		return AI
	case AI:
		return Player
	}
	return s
}

type Position string

const (
	SB Position = "SB"
	BB Position = "BB"
)

func (p Position) Other() Position {
	if p == SB {
		return BB
	}
	return SB
}

type Street int

const (
	Preflop Street = iota
	Flop
	Turn
	River
)

func (s Street) String() string {
	switch s {
	case Preflop:
		return "preflop"
	case Flop:
		return "flop"
	case Turn:
		return "turn"
	case River:
		return "river"
	}
	return fmt.Sprintf("street(%d)", int(s))
}

type Verb string

const (
	Fold  Verb = "fold"
	Check Verb = "check"
	Call  Verb = "call"
	Bet   Verb = "bet"
	Raise Verb = "raise"
	AllIn Verb = "allin"

	// record-only verbs
	PostBlind Verb = "post"
	Refund    Verb = "refund"
	Win       Verb = "win"
)

// Action is what a participant submits. Amount is the total bet-to for the
// street and only meaningful for Bet and Raise.
type Action struct {
	Verb   Verb `json:"verb"`
	Amount int  `json:"amount,omitempty"`
}

func FoldAction() Action { return Action{Verb: Fold} }
func CheckAction() Action { return Action{Verb: Check} }
func CallAction() Action { return Action{Verb: Call} }
func BetAction(to int) Action { return Action{Verb: Bet, Amount: to} }
func RaiseAction(to int) Action { return Action{Verb: Raise, Amount: to} }
func AllInAction() Action { return Action{Verb: AllIn} }

func (a Action) String() string {
	if a.Verb == Bet || a.Verb == Raise {
		return fmt.Sprintf("%s %d", a.Verb, a.Amount)
	}
	return string(a.Verb)
}

// ActionRecord is one line of the structured hand log. Amount is the chips
// moved by the action (for bets and raises, the new street total).
type ActionRecord struct {
	Street Street   `json:"street"`
	Actor  Side     `json:"actor"`
	Pos    Position `json:"pos,omitempty"`
	Verb   Verb     `json:"verb"`
	Amount int      `json:"amount,omitempty"`
	AllIn  bool     `json:"all_in,omitempty"`
}

// Correction is emitted whenever a submitted action had to be repaired.
type Correction struct {
	Side   Side   `json:"side"`
	Token  string `json:"token,omitempty"`
	From   string `json:"from"`
	To     string `json:"to"`
	Reason string `json:"reason"`
}

// Config holds the table parameters.
type Config struct {
	SB, BB     int
	StartStack int
	OddChip    OddChipPolicy
	// position of the human on the first hand
	PlayerStartPos Position
}

func DefaultConfig() Config {
	return Config{SB: 50, BB: 100, StartStack: 2500, OddChip: OddChipBB, PlayerStartPos: SB}
}

// OddChipPolicy decides who gets the indivisible chip of a split pot.
type OddChipPolicy string

const (
	OddChipDrop OddChipPolicy = "drop"
	OddChipBB   OddChipPolicy = "bb"
	OddChipSB   OddChipPolicy = "sb"
)
