package agent

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"hu-holdem/server/engine"
)

var sizedRe = regexp.MustCompile(`^([abr])([0-9]+(?:\.[0-9]*)?)$`)

// Translate turns a compact agent token into an engine action for side.
// Anything that is not legal as written is repaired and reported as a
// Correction; the returned action is always accepted by ProcessAction.
func Translate(token string, s *engine.State, side engine.Side) (engine.Action, []engine.Correction) {
	tok := strings.ToLower(strings.Join(strings.Fields(token), ""))
	owed := s.ToCall(side)
	full := s.StackOf(side) + s.BetOf(side)

	var corr []engine.Correction
	fix := func(to engine.Action, reason string) (engine.Action, []engine.Correction) {
		corr = append(corr, engine.Correction{Side: side, Token: token, From: tok, To: to.String(), Reason: reason})
		return to, corr
	}

	switch tok {
	case "x", "check":
		if owed > 0 {
			return fix(engine.CallAction(), "check facing a bet")
		}
		return engine.CheckAction(), nil
	case "f", "fold":
		return engine.FoldAction(), nil
	case "c", "call":
		return engine.CallAction(), nil
	case "a", "allin":
		return engine.AllInAction(), nil
	}

	if s.StackOf(side.Opponent()) == 0 && owed > 0 {
		return fix(engine.CallAction(), "opponent all-in")
	}

	m := sizedRe.FindStringSubmatch(tok)
	if m == nil {
		return fix(engine.FoldAction(), fmt.Sprintf("unknown action %q", tok))
	}
	xbb, err := strconv.ParseFloat(m[2], 64)
	if err != nil || math.IsNaN(xbb) || math.IsInf(xbb, 0) {
		return fix(engine.FoldAction(), fmt.Sprintf("bad amount %q", m[2]))
	}

	// first preflop decision: the size excludes the blind already posted
	if s.Street == engine.Preflop && s.BetToMatch == s.Cfg.BB {
		posted := 1.0
		if s.PosOf(side) == engine.SB {
			posted = 0.5
		}
		xbb += posted
	}
	chips := int(math.Round(xbb * float64(s.Cfg.BB)))

	if m[1] == "a" {
		chips = min(chips, full)
		if chips == full {
			return engine.AllInAction(), nil
		}
	}
	if chips >= full {
		return engine.AllInAction(), nil
	}
	if chips <= s.BetToMatch || chips < s.MinRaiseTo() {
		return fix(engine.CallAction(), fmt.Sprintf("illegal raise to %d, min %d", chips, s.MinRaiseTo()))
	}
	if s.BetToMatch > 0 {
		return engine.RaiseAction(chips), nil
	}
	return engine.BetAction(chips), nil
}
