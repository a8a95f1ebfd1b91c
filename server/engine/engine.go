package engine

import "fmt"

// State is the full mutable state of one heads-up table. Stacks and
// positions carry over between hands; everything else is reset by
// StartNewHand.
type State struct {
	Cfg    Config `json:"-"`
	HandNo int    `json:"hand_no"`

	PlayerStack int      `json:"player_stack"`
	AIStack     int      `json:"ai_stack"`
	PlayerPos   Position `json:"player_pos"`
	AIPos       Position `json:"ai_pos"`

	PlayerBet     int  `json:"player_bet"`
	AIBet         int  `json:"ai_bet"`
	Pot           int  `json:"pot"`
	BetToMatch    int  `json:"bet_to_match"`
	LastRaise     int  `json:"last_raise"`
	LastAggressor Side `json:"last_aggressor,omitempty"`

	Street     Street `json:"street"`
	Board      []Card `json:"-"`
	PlayerHole []Card `json:"-"`
	AIHole     []Card `json:"-"`

	Turn              Side `json:"turn,omitempty"`
	ConsecutiveChecks int  `json:"consecutive_checks"`
	Winner            Side `json:"winner,omitempty"`
	IsAllIn           bool `json:"is_all_in"`
	HandOver          bool `json:"hand_over"`
	GameOver          bool `json:"game_over"`

	HandStartPlayer int `json:"hand_start_player"`
	HandStartAI     int `json:"hand_start_ai"`

	Records     []ActionRecord `json:"records"`
	Corrections []Correction   `json:"corrections,omitempty"`
	Showdown    *Showdown      `json:"showdown,omitempty"`

	deck *Deck
}

// Showdown summarizes how a contested pot was resolved.
type Showdown struct {
	PlayerRank HandRank `json:"player_rank"`
	AIRank     HandRank `json:"ai_rank"`
	PlayerDesc string   `json:"player_desc,omitempty"`
	AIDesc     string   `json:"ai_desc,omitempty"`
	CommonPot  int      `json:"common_pot"`
	Refunded   int      `json:"refunded,omitempty"`
	// set when the library evaluator disagrees with ours
	LibraryMismatch bool `json:"library_mismatch,omitempty"`
}

// NewState seats both sides with the starting stack. No hand is dealt.
func NewState(cfg Config) *State {
	if cfg.PlayerStartPos != SB && cfg.PlayerStartPos != BB {
		cfg.PlayerStartPos = SB
	}
	if cfg.OddChip == "" {
		cfg.OddChip = OddChipBB
	}
	return &State{
		Cfg:         cfg,
		PlayerStack: cfg.StartStack,
		AIStack:     cfg.StartStack,
		PlayerPos:   cfg.PlayerStartPos,
		AIPos:       cfg.PlayerStartPos.Other(),
		HandOver:    true,
	}
}

func (s *State) stackOf(side Side) *int {
	if side == Player {
		return &s.PlayerStack
	}
	return &s.AIStack
}

func (s *State) betOf(side Side) *int {
	if side == Player {
		return &s.PlayerBet
	}
	return &s.AIBet
}

func (s *State) StackOf(side Side) int { return *s.stackOf(side) }
func (s *State) BetOf(side Side) int   { return *s.betOf(side) }

func (s *State) PosOf(side Side) Position {
	if side == Player {
		return s.PlayerPos
	}
	return s.AIPos
}

func (s *State) SideAt(pos Position) Side {
	if s.PlayerPos == pos {
		return Player
	}
	return AI
}

func (s *State) HoleOf(side Side) []Card {
	if side == Player {
		return s.PlayerHole
	}
	return s.AIHole
}

// HandStartOf is the stack the side had before blinds were posted.
func (s *State) HandStartOf(side Side) int {
	if side == Player {
		return s.HandStartPlayer
	}
	return s.HandStartAI
}

// ToCall is what side still owes on this street.
func (s *State) ToCall(side Side) int {
	if d := s.BetToMatch - s.BetOf(side); d > 0 {
		return d
	}
	return 0
}

// MinRaiseTo is the smallest legal bet-to total for a non all-in raise.
func (s *State) MinRaiseTo() int {
	inc := s.LastRaise
	if inc < s.Cfg.BB {
		inc = s.Cfg.BB
	}
	return s.BetToMatch + inc
}

func (s *State) record(r ActionRecord) {
	if r.Actor == Player || r.Actor == AI {
		r.Pos = s.PosOf(r.Actor)
	}
	r.Street = s.Street
	s.Records = append(s.Records, r)
}

func (s *State) correct(c Correction) {
	s.Corrections = append(s.Corrections, c)
}

// move commits chips from side's stack to its street bet and the pot.
func (s *State) move(side Side, amt int) int {
	st := s.stackOf(side)
	if amt > *st {
		amt = *st
	}
	if amt < 0 {
		amt = 0
	}
	*st -= amt
	*s.betOf(side) += amt
	s.Pot += amt
	return amt
}

// StartNewHand swaps positions (after the first hand), deals hole cards and
// posts blinds. Short blinds put both sides all-in and the board is run out.
func (s *State) StartNewHand(deck *Deck) error {
	if !s.HandOver {
		return ErrHandInProgress
	}
	if s.PlayerStack <= 0 || s.AIStack <= 0 {
		s.GameOver = true
		return ErrGameOver
	}
	if s.HandNo > 0 {
		s.PlayerPos, s.AIPos = s.AIPos, s.PlayerPos
	}
	s.HandNo++
	s.deck = deck

	s.PlayerBet, s.AIBet, s.Pot = 0, 0, 0
	s.BetToMatch, s.LastRaise = 0, 0
	s.LastAggressor = NoSide
	s.Street = Preflop
	s.Board = nil
	s.ConsecutiveChecks = 0
	s.Winner = NoSide
	s.IsAllIn, s.HandOver = false, false
	s.Records, s.Corrections, s.Showdown = nil, nil, nil
	s.HandStartPlayer, s.HandStartAI = s.PlayerStack, s.AIStack

	s.PlayerHole = deck.mustDeal(2)
	s.AIHole = deck.mustDeal(2)

	sb, bb := s.SideAt(SB), s.SideAt(BB)
	s.record(ActionRecord{Actor: sb, Verb: PostBlind, Amount: s.move(sb, s.Cfg.SB), AllIn: s.StackOf(sb) == 0})
	s.record(ActionRecord{Actor: bb, Verb: PostBlind, Amount: s.move(bb, s.Cfg.BB), AllIn: s.StackOf(bb) == 0})
	s.BetToMatch = max(s.PlayerBet, s.AIBet)
	s.LastRaise = s.Cfg.BB
	s.Turn = sb

	if s.PlayerStack == 0 || s.AIStack == 0 {
		s.IsAllIn = true
		low := min(s.PlayerBet, s.AIBet)
		for _, side := range []Side{Player, AI} {
			if ex := s.BetOf(side) - low; ex > 0 {
				*s.betOf(side) -= ex
				*s.stackOf(side) += ex
				s.Pot -= ex
				s.record(ActionRecord{Actor: side, Verb: Refund, Amount: ex})
			}
		}
		s.BetToMatch = low
		s.runOut()
	}
	return nil
}

// ProcessAction applies one action for actor. Contract violations return an
// error and leave the state untouched; repairable actions are rewritten and
// a Correction is appended.
func (s *State) ProcessAction(actor Side, a Action) error {
	switch {
	case s.GameOver:
		return ErrGameOver
	case s.HandOver:
		return ErrHandOver
	case actor != s.Turn:
		return fmt.Errorf("%w: %s acted, turn is %s", ErrOutOfTurn, actor, s.Turn)
	}
	switch a.Verb {
	case Fold, Check, Call, Bet, Raise, AllIn:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownAction, a.Verb)
	}

	opp := actor.Opponent()
	full := s.StackOf(actor) + s.BetOf(actor)
	orig := a

	if a.Verb == AllIn {
		switch {
		case full <= s.BetToMatch:
			a = CallAction()
		case s.BetToMatch > 0:
			a = RaiseAction(full)
		default:
			a = BetAction(full)
		}
	}

	if a.Verb == Bet || a.Verb == Raise {
		total := min(a.Amount, full)
		reason := ""
		switch {
		case s.StackOf(opp) == 0:
			reason = "opponent all-in"
		case total <= s.BetToMatch:
			reason = "raise does not exceed bet to match"
		case total < s.MinRaiseTo() && total < full:
			reason = fmt.Sprintf("below min raise to %d", s.MinRaiseTo())
		}
		if reason != "" {
			if orig.Verb != AllIn {
				s.correct(Correction{Side: actor, From: orig.String(), To: "call", Reason: reason})
			}
			a = CallAction()
		} else {
			a.Amount = total
		}
	}

	owed := s.ToCall(actor)
	if a.Verb == Call && owed == 0 {
		a = CheckAction()
	}
	if a.Verb == Check && owed > 0 {
		return fmt.Errorf("%w: owes %d", ErrIllegalCheck, owed)
	}

	switch a.Verb {
	case Fold:
		s.record(ActionRecord{Actor: actor, Verb: Fold})
		s.award(opp)
		return nil
	case Check:
		s.ConsecutiveChecks++
		s.record(ActionRecord{Actor: actor, Verb: Check})
	case Call:
		s.ConsecutiveChecks = 0
		paid := s.move(actor, owed)
		s.record(ActionRecord{Actor: actor, Verb: Call, Amount: paid, AllIn: s.StackOf(actor) == 0})
	case Bet, Raise:
		s.ConsecutiveChecks = 0
		verb := Raise
		if s.BetToMatch == 0 {
			verb = Bet
		}
		s.move(actor, a.Amount-s.BetOf(actor))
		s.LastRaise = a.Amount - s.BetToMatch
		s.BetToMatch = a.Amount
		s.LastAggressor = actor
		s.record(ActionRecord{Actor: actor, Verb: verb, Amount: a.Amount, AllIn: s.StackOf(actor) == 0})
	}

	if s.PlayerStack == 0 || s.AIStack == 0 {
		s.IsAllIn = true
	}
	if s.IsAllIn && a.Verb == Call {
		s.runOut()
		return nil
	}

	if s.streetClosed(actor, a.Verb) {
		if s.Street == River {
			s.showdown()
		} else {
			s.nextStreet()
		}
		return nil
	}
	s.Turn = opp
	return nil
}

func (s *State) streetClosed(actor Side, v Verb) bool {
	if s.Street == Preflop {
		if s.PlayerBet != s.AIBet {
			return false
		}
		if v == Check && s.PosOf(actor) == BB {
			return true
		}
		return v == Call && s.LastAggressor != NoSide && actor != s.LastAggressor
	}
	return v == Call || s.ConsecutiveChecks >= 2
}

func (s *State) nextStreet() {
	n := 1
	if s.Street == Preflop {
		n = 3
	}
	s.Street++
	s.Board = append(s.Board, s.deck.mustDeal(n)...)
	s.PlayerBet, s.AIBet = 0, 0
	s.BetToMatch, s.LastRaise = 0, 0
	s.ConsecutiveChecks = 0
	s.LastAggressor = NoSide
	// BB acts first after the flop heads-up
	s.Turn = s.SideAt(BB)
}

// runOut deals the remaining board with no further betting and settles.
func (s *State) runOut() {
	s.Turn = NoSide
	for s.Street < River {
		n := 1
		if s.Street == Preflop {
			n = 3
		}
		s.Street++
		s.Board = append(s.Board, s.deck.mustDeal(n)...)
	}
	s.showdown()
}

func (s *State) award(winner Side) {
	won := s.Pot
	*s.stackOf(winner) += won
	s.record(ActionRecord{Actor: winner, Verb: Win, Amount: won})
	s.Winner = winner
	s.finish()
}

func (s *State) showdown() {
	pr := BestOf7(s.PlayerHole, s.Board)
	ar := BestOf7(s.AIHole, s.Board)
	sd := &Showdown{
		PlayerRank: pr,
		AIRank:     ar,
		PlayerDesc: Describe(append(append([]Card{}, s.PlayerHole...), s.Board...)),
		AIDesc:     Describe(append(append([]Card{}, s.AIHole...), s.Board...)),
	}
	cmp := pr.Compare(ar)
	if lib, ok := LibraryCompare(s.PlayerHole, s.AIHole, s.Board); ok && lib != cmp {
		sd.LibraryMismatch = true
	}

	invP := s.HandStartPlayer - s.PlayerStack
	invA := s.HandStartAI - s.AIStack
	low := min(invP, invA)
	sd.CommonPot = 2 * low
	for _, side := range []Side{Player, AI} {
		inv := invP
		if side == AI {
			inv = invA
		}
		if ex := inv - low; ex > 0 {
			*s.stackOf(side) += ex
			sd.Refunded = ex
			s.record(ActionRecord{Actor: side, Verb: Refund, Amount: ex})
		}
	}

	switch {
	case cmp > 0:
		s.PlayerStack += sd.CommonPot
		s.Winner = Player
		s.record(ActionRecord{Actor: Player, Verb: Win, Amount: sd.CommonPot})
	case cmp < 0:
		s.AIStack += sd.CommonPot
		s.Winner = AI
		s.record(ActionRecord{Actor: AI, Verb: Win, Amount: sd.CommonPot})
	default:
		s.Winner = Tie
		half, odd := sd.CommonPot/2, sd.CommonPot%2
		s.PlayerStack += half
		s.AIStack += half
		s.record(ActionRecord{Actor: Player, Verb: Win, Amount: half})
		s.record(ActionRecord{Actor: AI, Verb: Win, Amount: half})
		if odd > 0 {
			switch s.Cfg.OddChip {
			case OddChipBB:
				*s.stackOf(s.SideAt(BB)) += odd
			case OddChipSB:
				*s.stackOf(s.SideAt(SB)) += odd
			}
		}
	}
	s.Showdown = sd
	s.finish()
}

func (s *State) finish() {
	s.Pot = 0
	s.PlayerBet, s.AIBet, s.BetToMatch = 0, 0, 0
	s.Turn = NoSide
	s.HandOver = true
	if s.PlayerStack <= 0 || s.AIStack <= 0 {
		s.GameOver = true
	}
}

// Net is side's chip result for the current (or just finished) hand.
func (s *State) Net(side Side) int {
	return s.StackOf(side) - s.HandStartOf(side)
}
