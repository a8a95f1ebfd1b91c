package session

import (
	"fmt"

	"hu-holdem/server/engine"
)

// View is what a front-end may see of a session. The agent's hole cards
// stay hidden unless the hand went to showdown.
type View struct {
	ID         string `json:"id"`
	PlayerName string `json:"player_name"`
	HandID     string `json:"hand_id"`
	HandNo     int    `json:"hand_no"`

	Street     string   `json:"street"`
	Board      []string `json:"board"`
	PlayerHole []string `json:"player_hole"`
	AIHole     []string `json:"ai_hole,omitempty"`

	PlayerStack int    `json:"player_stack"`
	AIStack     int    `json:"ai_stack"`
	PlayerPos   string `json:"player_pos"`
	AIPos       string `json:"ai_pos"`
	PlayerBet   int    `json:"player_bet"`
	AIBet       int    `json:"ai_bet"`
	Pot         int    `json:"pot"`
	BetToMatch  int    `json:"bet_to_match"`

	Turn     string `json:"turn,omitempty"`
	Winner   string `json:"winner,omitempty"`
	HandOver bool   `json:"hand_over"`
	GameOver bool   `json:"game_over"`
	Net      int    `json:"player_net"`

	Options     engine.Options      `json:"options"`
	Log         []string            `json:"log"`
	Corrections []engine.Correction `json:"corrections,omitempty"`
	Showdown    *engine.Showdown    `json:"showdown,omitempty"`
}

func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.st
	v := View{
		ID:          s.id,
		PlayerName:  s.opts.PlayerName,
		HandID:      s.handID,
		HandNo:      st.HandNo,
		Street:      st.Street.String(),
		Board:       cardStrings(st.Board),
		PlayerHole:  cardStrings(st.PlayerHole),
		PlayerStack: st.PlayerStack,
		AIStack:     st.AIStack,
		PlayerPos:   string(st.PlayerPos),
		AIPos:       string(st.AIPos),
		PlayerBet:   st.PlayerBet,
		AIBet:       st.AIBet,
		Pot:         st.Pot,
		BetToMatch:  st.BetToMatch,
		Turn:        string(st.Turn),
		Winner:      string(st.Winner),
		HandOver:    st.HandOver,
		GameOver:    st.GameOver,
		Options:     st.Options(engine.Player),
		Corrections: append([]engine.Correction(nil), s.corrections...),
		Showdown:    st.Showdown,
	}
	if st.HandOver {
		v.Net = st.Net(engine.Player)
	}
	if st.HandOver && st.Showdown != nil {
		v.AIHole = cardStrings(st.AIHole)
	}
	for _, r := range st.Records {
		v.Log = append(v.Log, describeRecord(r))
	}
	return v
}

func describeRecord(r engine.ActionRecord) string {
	who := "You"
	if r.Actor == engine.AI {
		who = "AI"
	}
	var msg string
	switch r.Verb {
	case engine.PostBlind:
		msg = fmt.Sprintf("%s post %d", who, r.Amount)
	case engine.Fold, engine.Check:
		msg = fmt.Sprintf("%s %s", who, r.Verb)
	case engine.Call:
		msg = fmt.Sprintf("%s call %d", who, r.Amount)
	case engine.Bet, engine.Raise:
		msg = fmt.Sprintf("%s %s to %d", who, r.Verb, r.Amount)
	case engine.Refund:
		msg = fmt.Sprintf("%d returned to %s", r.Amount, who)
	case engine.Win:
		return fmt.Sprintf("%s win %d", who, r.Amount)
	default:
		msg = fmt.Sprintf("%s %s %d", who, r.Verb, r.Amount)
	}
	if r.AllIn {
		msg += " (all-in)"
	}
	return fmt.Sprintf("[%s] %s", r.Street, msg)
}
