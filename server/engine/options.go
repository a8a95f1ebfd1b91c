package engine

// Options is the set of legal choices offered to a human front-end.
type Options struct {
	CanAct      bool `json:"can_act"`
	CanCheck    bool `json:"can_check"`
	CanFold     bool `json:"can_fold"`
	ToCall      int  `json:"to_call"`
	CallIsAllIn bool `json:"call_is_all_in"`
	CanRaise    bool `json:"can_raise"`
	RaiseVerb   Verb `json:"raise_verb,omitempty"`
	MinTo       int  `json:"min_to,omitempty"`
	MaxTo       int  `json:"max_to,omitempty"`
}

func (s *State) Options(side Side) Options {
	if s.HandOver || s.Turn != side {
		return Options{}
	}
	owed := s.ToCall(side)
	stack := s.StackOf(side)
	full := stack + s.BetOf(side)
	o := Options{
		CanAct:   true,
		CanCheck: owed == 0,
		CanFold:  owed > 0,
		ToCall:   min(owed, stack),
	}
	o.CallIsAllIn = owed > 0 && owed >= stack

	if s.StackOf(side.Opponent()) > 0 && full > s.BetToMatch {
		o.CanRaise = true
		o.RaiseVerb = Raise
		if s.BetToMatch == 0 {
			o.RaiseVerb = Bet
		}
		o.MinTo = min(s.MinRaiseTo(), full)
		o.MaxTo = full
	}
	return o
}

// Allowed reports whether a is offered by Options without any repair.
func (o Options) Allowed(a Action) bool {
	if !o.CanAct {
		return false
	}
	switch a.Verb {
	case Fold:
		return o.CanFold
	case Check:
		return o.CanCheck
	case Call:
		return !o.CanCheck
	case AllIn:
		return true
	case Bet, Raise:
		return o.CanRaise && a.Amount >= o.MinTo && a.Amount <= o.MaxTo
	}
	return false
}
