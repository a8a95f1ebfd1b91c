package session

import (
	"math"

	"hu-holdem/server/engine"
)

// SeatStats are the usual heads-up HUD counters for one side.
type SeatStats struct {
	Hands    int `json:"hands"`
	Wins     int `json:"wins"`
	VPIP     int `json:"vpip"`
	PFR      int `json:"pfr"`
	SawFlop  int `json:"saw_flop"`
	Calls    int `json:"calls"`
	Aggr     int `json:"aggr"`
	WTSD     int `json:"wtsd"`
	WSD      int `json:"wsd"`
	NetChips int `json:"net_chips"`
}

// AF is the aggression factor, bets and raises per call.
func (s SeatStats) AF() float64 {
	if s.Calls == 0 {
		return float64(s.Aggr)
	}
	return float64(s.Aggr) / float64(s.Calls)
}

func (s SeatStats) BBPer100(bb int) float64 {
	if s.Hands == 0 || bb <= 0 {
		return 0
	}
	return (float64(s.NetChips) / float64(bb)) / (float64(s.Hands) / 100.0)
}

// SideStats splits a side's counters by position.
type SideStats struct {
	Overall SeatStats `json:"overall"`
	SB      SeatStats `json:"sb"`
	BB      SeatStats `json:"bb"`
}

func (m *SideStats) bucket(pos engine.Position) *SeatStats {
	if pos == engine.SB {
		return &m.SB
	}
	return &m.BB
}

// Stats summarizes a session so far.
type Stats struct {
	Player SideStats `json:"player"`
	AI     SideStats `json:"ai"`
	Ties   int       `json:"ties"`

	PlayerBBPer100 float64 `json:"player_bb_per_100"`
	PlayerAF       float64 `json:"player_af"`
	AIAF           float64 `json:"ai_af"`
	// 95% Wilson interval on the player's share of hands won
	WinLow  float64 `json:"win_low"`
	WinHigh float64 `json:"win_high"`

	Rating Elo `json:"rating"`
}

func (st *Stats) side(s engine.Side) *SideStats {
	if s == engine.AI {
		return &st.AI
	}
	return &st.Player
}

// add folds one finished hand into the counters.
func (st *Stats) add(s *engine.State) {
	if st.Rating.K == 0 {
		st.Rating = NewElo(1500, 24)
	}
	if s.Winner == engine.Tie {
		st.Ties++
	}
	pot := 0
	for _, r := range s.Records {
		if r.Verb == engine.Win {
			pot += r.Amount
		}
	}
	st.Rating.UpdateHand(s.Net(engine.Player), pot, s.Cfg.BB)
	for _, side := range []engine.Side{engine.Player, engine.AI} {
		var h SeatStats
		h.Hands = 1
		h.NetChips = s.Net(side)
		if s.Winner == side {
			h.Wins = 1
		}
		if s.Street >= engine.Flop {
			h.SawFlop = 1
		}
		if s.Showdown != nil {
			h.WTSD = 1
			h.WSD = h.Wins
		}
		var vpip, pfr bool
		for _, r := range s.Records {
			if r.Actor != side {
				continue
			}
			switch r.Verb {
			case engine.Call:
				h.Calls++
				vpip = vpip || r.Street == engine.Preflop
			case engine.Bet, engine.Raise, engine.AllIn:
				h.Aggr++
				vpip = vpip || r.Street == engine.Preflop
				pfr = pfr || r.Street == engine.Preflop
			}
		}
		if vpip {
			h.VPIP = 1
		}
		if pfr {
			h.PFR = 1
		}

		ss := st.side(side)
		ss.Overall.merge(h)
		ss.bucket(s.PosOf(side)).merge(h)
	}
	st.PlayerBBPer100 = st.Player.Overall.BBPer100(s.Cfg.BB)
	st.PlayerAF = st.Player.Overall.AF()
	st.AIAF = st.AI.Overall.AF()
	st.WinLow, st.WinHigh = WilsonCI95(st.Player.Overall.Wins, st.Ties, st.Player.Overall.Hands)
}

func (s *SeatStats) merge(o SeatStats) {
	s.Hands += o.Hands
	s.Wins += o.Wins
	s.VPIP += o.VPIP
	s.PFR += o.PFR
	s.SawFlop += o.SawFlop
	s.Calls += o.Calls
	s.Aggr += o.Aggr
	s.WTSD += o.WTSD
	s.WSD += o.WSD
	s.NetChips += o.NetChips
}

// WilsonCI95 bounds a win rate where ties count half.
func WilsonCI95(wins, ties, total int) (low, hi float64) {
	if total <= 0 {
		return 0, 1
	}
	z := 1.96
	n := float64(total)
	p := (float64(wins) + 0.5*float64(ties)) / n
	den := 1 + (z*z)/n
	center := p + (z*z)/(2*n)
	half := z * math.Sqrt((p*(1-p))/n+(z*z)/(4*n*n))
	return (center - half) / den, (center + half) / den
}

// Stats returns a copy of the session counters.
func (s *Session) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}
