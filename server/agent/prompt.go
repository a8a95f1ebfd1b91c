package agent

import (
	"fmt"
	"strconv"
	"strings"

	"hu-holdem/server/engine"
)

var streetTags = [...]string{"pre", "flop", "turn", "river"}

// BuildPrompt encodes the table from hero's point of view:
//
//	pos:H=BB stacks:H=24.0,SB=24.5 hand:AsKd | pre:SB c | flop:Kd9s4c SB x H:
//
// Hero is tagged H, the villain by position. Amounts are in big blinds.
func BuildPrompt(s *engine.State, hero engine.Side) string {
	bb := float64(s.Cfg.BB)
	vill := hero.Opponent()
	heroPos := s.PosOf(hero)

	header := fmt.Sprintf("pos:H=%s stacks:H=%.1f,%s=%.1f hand:%s",
		heroPos,
		float64(s.StackOf(hero))/bb,
		s.PosOf(vill),
		float64(s.StackOf(vill))/bb,
		joinCards(s.HoleOf(hero)),
	)

	var grouped [4][]string
	for _, r := range s.Records {
		sym, ok := promptSymbol(r, bb)
		if !ok {
			continue
		}
		tag := "H"
		if r.Actor != hero {
			tag = string(r.Pos)
		}
		grouped[r.Street] = append(grouped[r.Street], tag+" "+sym)
	}

	parts := []string{header}
	for i := engine.Preflop; i <= s.Street && i <= engine.River; i++ {
		if i == engine.Preflop {
			if len(grouped[i]) == 0 {
				if heroPos == engine.SB {
					continue
				}
				parts = append(parts, "pre:H")
				continue
			}
			parts = append(parts, streetTags[i]+":"+strings.Join(grouped[i], ","))
			continue
		}
		part := streetTags[i] + ":" + boardTag(s.Board, i) + " " + strings.Join(grouped[i], ",")
		parts = append(parts, strings.TrimSpace(part))
	}
	return strings.Join(parts, " | ") + " H:"
}

// promptSymbol renders a voluntary action; blinds, refunds and wins are
// not part of the prompt.
func promptSymbol(r engine.ActionRecord, bb float64) (string, bool) {
	switch r.Verb {
	case engine.Check:
		return "x", true
	case engine.Fold:
		return "f", true
	case engine.Call:
		return "c", true
	case engine.Bet:
		return "b" + bbAmount(r.Amount, bb), true
	case engine.Raise:
		return "r" + bbAmount(r.Amount, bb), true
	case engine.AllIn:
		return "a", true
	}
	return "", false
}

func bbAmount(chips int, bb float64) string {
	return strconv.FormatFloat(float64(chips)/bb, 'g', -1, 64)
}

func boardTag(board []engine.Card, street engine.Street) string {
	switch {
	case street == engine.Flop && len(board) >= 3:
		return joinCards(board[:3])
	case street == engine.Turn && len(board) >= 4:
		return board[3].String()
	case street == engine.River && len(board) >= 5:
		return board[4].String()
	}
	return ""
}

func joinCards(cs []engine.Card) string {
	var b strings.Builder
	for _, c := range cs {
		b.WriteString(c.String())
	}
	return b.String()
}
