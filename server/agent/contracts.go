package agent

import (
	"hu-holdem/server/engine"
)

// Observation is the structured view of the table from one side. Agents
// that do not parse the compact prompt text use it instead.
type Observation struct {
	HandNo     int            `json:"hand_no"`
	Pos        string         `json:"pos"`    // "SB" | "BB"
	Street     string         `json:"street"` // preflop|flop|turn|river
	StreetNum  int            `json:"street_num"`
	HoleCards  []string       `json:"hole_cards"` // e.g. ["As","Kd"]
	Board      []string       `json:"board"`      // 0..5 cards
	Stacks     map[string]int `json:"stacks"`     // {hero, villain} chips behind
	Blinds     map[string]int `json:"blinds"`     // {sb, bb}
	Pot        int            `json:"pot"`
	HeroBet    int            `json:"hero_bet"`
	BetToMatch int            `json:"bet_to_match"`
	ToCall     int            `json:"to_call"`
	MinRaiseTo int            `json:"min_raise_to"` // absolute raise-to
	MaxRaiseTo int            `json:"max_raise_to"` // absolute raise-to (all-in)
	Legal      []string       `json:"legal_actions"`
	HistoryLen int            `json:"history_len"`
}

// Prompt is what a Decider receives: the compact text and the same state in
// structured form.
type Prompt struct {
	Text string      `json:"text"`
	Obs  Observation `json:"obs"`
}

// BuildObservation converts engine state into the view for side.
func BuildObservation(s *engine.State, side engine.Side) Observation {
	opp := side.Opponent()
	o := s.Options(side)

	legal := []string{}
	if o.CanFold {
		legal = append(legal, "f")
	}
	if o.CanCheck {
		legal = append(legal, "x")
	} else if o.CanAct {
		legal = append(legal, "c")
	}
	if o.CanRaise {
		if o.RaiseVerb == engine.Bet {
			legal = append(legal, "b")
		} else {
			legal = append(legal, "r")
		}
	}
	if o.CanAct {
		legal = append(legal, "a")
	}

	return Observation{
		HandNo:     s.HandNo,
		Pos:        string(s.PosOf(side)),
		Street:     s.Street.String(),
		StreetNum:  int(s.Street),
		HoleCards:  cardsToStr(s.HoleOf(side)),
		Board:      cardsToStr(s.Board),
		Stacks:     map[string]int{"hero": s.StackOf(side), "villain": s.StackOf(opp)},
		Blinds:     map[string]int{"sb": s.Cfg.SB, "bb": s.Cfg.BB},
		Pot:        s.Pot,
		HeroBet:    s.BetOf(side),
		BetToMatch: s.BetToMatch,
		ToCall:     s.ToCall(side),
		MinRaiseTo: s.MinRaiseTo(),
		MaxRaiseTo: s.StackOf(side) + s.BetOf(side),
		Legal:      legal,
		HistoryLen: len(s.Records),
	}
}

func cardsToStr(cs []engine.Card) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.String()
	}
	return out
}
