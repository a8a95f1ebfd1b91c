package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stacked deals playerHole, aiHole then the board, followed by the rest of
// the deck in a fixed order.
func stacked(playerHole, aiHole, board string) *Deck {
	front := MustCards(playerHole + " " + aiHole + " " + board)
	used := map[Card]bool{}
	for _, c := range front {
		used[c] = true
	}
	all := front
	for i := 0; i < 4; i++ {
		for r := 2; r <= 14; r++ {
			c := Card{Rank: r, Suit: suitChars[i]}
			if !used[c] {
				all = append(all, c)
			}
		}
	}
	return NewDeckFrom(all)
}

func checkInvariants(t *testing.T, s *State, total int) {
	t.Helper()
	assert.Equal(t, total, s.PlayerStack+s.AIStack+s.Pot, "chips conserved")
	assert.LessOrEqual(t, s.PlayerBet+s.AIBet, s.Pot)
	if !s.HandOver {
		assert.Equal(t, max(s.PlayerBet, s.AIBet), s.BetToMatch)
		assert.Equal(t, s.HandStartPlayer, s.PlayerStack+committed(s, Player))
	}
}

// committed derives chips put in this hand from the records.
func committed(s *State, side Side) int {
	var sum, streetBet int
	street := Preflop
	for _, r := range s.Records {
		if r.Street != street {
			street, streetBet = r.Street, 0
		}
		if r.Actor != side {
			continue
		}
		switch r.Verb {
		case PostBlind, Call:
			sum += r.Amount
			streetBet += r.Amount
		case Bet, Raise:
			sum += r.Amount - streetBet
			streetBet = r.Amount
		case Refund:
			sum -= r.Amount
			streetBet -= r.Amount
		}
	}
	return sum
}

func newTable(t *testing.T, deck *Deck) *State {
	t.Helper()
	s := NewState(DefaultConfig())
	require.NoError(t, s.StartNewHand(deck))
	return s
}

func act(t *testing.T, s *State, side Side, a Action) {
	t.Helper()
	require.NoError(t, s.ProcessAction(side, a))
	checkInvariants(t, s, 5000)
}

func TestStartNewHand(t *testing.T) {
	s := newTable(t, stacked("As Ah", "2c 7d", "Kd 9s 4c 3h Jd"))

	assert.Equal(t, SB, s.PlayerPos)
	assert.Equal(t, BB, s.AIPos)
	assert.Equal(t, 2450, s.PlayerStack)
	assert.Equal(t, 2400, s.AIStack)
	assert.Equal(t, 150, s.Pot)
	assert.Equal(t, 100, s.BetToMatch)
	assert.Equal(t, 100, s.LastRaise)
	assert.Equal(t, Player, s.Turn)
	assert.Equal(t, Preflop, s.Street)
	assert.Equal(t, "As Ah", CardsString(s.PlayerHole))
	assert.Equal(t, "2c 7d", CardsString(s.AIHole))
	require.Len(t, s.Records, 2)
	assert.Equal(t, ActionRecord{Street: Preflop, Actor: Player, Pos: SB, Verb: PostBlind, Amount: 50}, s.Records[0])
	checkInvariants(t, s, 5000)

	assert.ErrorIs(t, s.StartNewHand(NewDeck(1)), ErrHandInProgress)
}

func TestCheckDownHand(t *testing.T) {
	s := newTable(t, stacked("As Ah", "2c 7d", "Kd 9s 4c 3h Jd"))

	act(t, s, Player, CallAction())
	assert.Equal(t, Preflop, s.Street)
	assert.Equal(t, AI, s.Turn)

	act(t, s, AI, CheckAction())
	assert.Equal(t, Flop, s.Street)
	assert.Equal(t, "Kd 9s 4c", CardsString(s.Board))
	assert.Equal(t, AI, s.Turn, "BB acts first postflop")
	assert.Equal(t, 0, s.BetToMatch)
	assert.Equal(t, 200, s.Pot)

	for _, st := range []Street{Flop, Turn, River} {
		assert.Equal(t, st, s.Street)
		act(t, s, AI, CheckAction())
		assert.Equal(t, st, s.Street, "one check does not close %s", st)
		act(t, s, Player, CheckAction())
	}

	assert.True(t, s.HandOver)
	assert.Equal(t, Player, s.Winner)
	assert.Equal(t, 2600, s.PlayerStack)
	assert.Equal(t, 2400, s.AIStack)
	assert.Equal(t, 0, s.Pot)
	assert.Equal(t, NoSide, s.Turn)
	require.NotNil(t, s.Showdown)
	assert.Equal(t, OnePair, s.Showdown.PlayerRank.Category)
	assert.Equal(t, 200, s.Showdown.CommonPot)
	assert.False(t, s.Showdown.LibraryMismatch)
	assert.Equal(t, 100, s.Net(Player))
	assert.Equal(t, -100, s.Net(AI))
}

func TestOpenFold(t *testing.T) {
	s := newTable(t, NewDeck(3))
	act(t, s, Player, FoldAction())

	assert.True(t, s.HandOver)
	assert.Equal(t, AI, s.Winner)
	assert.Equal(t, 2450, s.PlayerStack)
	assert.Equal(t, 2550, s.AIStack)
	assert.Nil(t, s.Showdown)
	assert.Empty(t, s.Board)

	assert.ErrorIs(t, s.ProcessAction(AI, CheckAction()), ErrHandOver)
}

func TestPositionsSwap(t *testing.T) {
	s := newTable(t, NewDeck(3))
	act(t, s, Player, FoldAction())

	require.NoError(t, s.StartNewHand(NewDeck(4)))
	assert.Equal(t, BB, s.PlayerPos)
	assert.Equal(t, SB, s.AIPos)
	assert.Equal(t, AI, s.Turn)
	assert.Equal(t, 2350, s.PlayerStack)
	assert.Equal(t, 2500, s.AIStack)
	assert.Equal(t, 2, s.HandNo)
}

func TestPreflopClosesOnBBCheck(t *testing.T) {
	s := newTable(t, NewDeck(5))
	act(t, s, Player, CallAction())
	assert.Equal(t, Preflop, s.Street, "SB limp does not close")
	act(t, s, AI, CheckAction())
	assert.Equal(t, Flop, s.Street)
	assert.Len(t, s.Board, 3)
}

func TestPreflopClosesOnCallOfRaise(t *testing.T) {
	s := newTable(t, NewDeck(5))
	act(t, s, Player, RaiseAction(300))
	assert.Equal(t, Player, s.LastAggressor)
	assert.Equal(t, 200, s.LastRaise)
	act(t, s, AI, CallAction())
	assert.Equal(t, Flop, s.Street)
	assert.Equal(t, 600, s.Pot)
}

func TestPostflopTwoChecksClose(t *testing.T) {
	s := newTable(t, NewDeck(6))
	act(t, s, Player, CallAction())
	act(t, s, AI, CheckAction())

	act(t, s, AI, CheckAction())
	assert.Equal(t, Flop, s.Street)
	assert.Equal(t, 1, s.ConsecutiveChecks)
	act(t, s, Player, CheckAction())
	assert.Equal(t, Turn, s.Street)
	assert.Len(t, s.Board, 4)
	assert.Equal(t, 0, s.ConsecutiveChecks)
}

func TestPostflopBetCall(t *testing.T) {
	s := newTable(t, NewDeck(6))
	act(t, s, Player, CallAction())
	act(t, s, AI, CheckAction())

	act(t, s, AI, BetAction(150))
	assert.Equal(t, Flop, s.Street)
	assert.Equal(t, 150, s.BetToMatch)
	act(t, s, Player, CallAction())
	assert.Equal(t, Turn, s.Street)
	assert.Equal(t, 500, s.Pot)
}

func TestMinRaiseDowngrade(t *testing.T) {
	s := newTable(t, NewDeck(7))
	act(t, s, Player, RaiseAction(200))
	assert.Equal(t, 300, s.MinRaiseTo())

	act(t, s, AI, RaiseAction(250))
	require.Len(t, s.Corrections, 1)
	assert.Equal(t, AI, s.Corrections[0].Side)
	assert.Equal(t, "call", s.Corrections[0].To)

	// treated as a call, which closes preflop
	assert.Equal(t, Flop, s.Street)
	assert.Equal(t, 400, s.Pot)
	assert.Equal(t, 2300, s.AIStack)
}

func TestShortAllInRaiseIsAllowed(t *testing.T) {
	s := NewState(DefaultConfig())
	s.PlayerStack = 180
	require.NoError(t, s.StartNewHand(NewDeck(8)))

	// 180 is below the min raise to 200 but it is the whole stack
	require.NoError(t, s.ProcessAction(Player, RaiseAction(180)))
	assert.Empty(t, s.Corrections)
	assert.Equal(t, 180, s.BetToMatch)
	assert.True(t, s.IsAllIn)
	assert.Equal(t, AI, s.Turn)
}

func TestAllInCallRunsOut(t *testing.T) {
	s := NewState(DefaultConfig())
	s.PlayerStack, s.AIStack = 300, 1000
	require.NoError(t, s.StartNewHand(stacked("As Ad", "Kc Qh", "2d 7s 9c 3h 8d")))

	require.NoError(t, s.ProcessAction(Player, AllInAction()))
	assert.Equal(t, 300, s.BetToMatch)
	assert.Equal(t, 0, s.PlayerStack)
	assert.True(t, s.IsAllIn)
	assert.Equal(t, AI, s.Turn)

	require.NoError(t, s.ProcessAction(AI, CallAction()))
	assert.True(t, s.HandOver)
	assert.Equal(t, River, s.Street)
	assert.Len(t, s.Board, 5)
	assert.Equal(t, Player, s.Winner)
	assert.Equal(t, 600, s.PlayerStack)
	assert.Equal(t, 700, s.AIStack)
	assert.Equal(t, 1300, s.PlayerStack+s.AIStack)
}

func TestAllInShoveOverCoveredStack(t *testing.T) {
	s := NewState(DefaultConfig())
	s.PlayerStack, s.AIStack = 1000, 300
	require.NoError(t, s.StartNewHand(stacked("As Ad", "Kc Qh", "2d 7s 9c 3h 8d")))

	// AI can only call with the 200 it has behind
	require.NoError(t, s.ProcessAction(Player, AllInAction()))
	require.NoError(t, s.ProcessAction(AI, CallAction()))

	require.True(t, s.HandOver)
	require.NotNil(t, s.Showdown)
	assert.Equal(t, 700, s.Showdown.Refunded)
	assert.Equal(t, 600, s.Showdown.CommonPot)
	assert.Equal(t, 1300, s.PlayerStack)
	assert.Equal(t, 0, s.AIStack)
	assert.True(t, s.GameOver)
	assert.ErrorIs(t, s.StartNewHand(NewDeck(1)), ErrGameOver)
}

func TestRaiseIntoAllInBecomesCall(t *testing.T) {
	s := NewState(DefaultConfig())
	s.PlayerStack, s.AIStack = 2500, 400
	require.NoError(t, s.StartNewHand(NewDeck(9)))

	require.NoError(t, s.ProcessAction(Player, CallAction()))
	require.NoError(t, s.ProcessAction(AI, AllInAction()))
	assert.Equal(t, 0, s.AIStack)

	require.NoError(t, s.ProcessAction(Player, RaiseAction(2000)))
	require.Len(t, s.Corrections, 1)
	assert.Equal(t, "opponent all-in", s.Corrections[0].Reason)
	assert.True(t, s.HandOver)
	assert.Equal(t, 2900, s.PlayerStack+s.AIStack)
}

func TestShortBlindRunsOut(t *testing.T) {
	s := NewState(DefaultConfig())
	s.PlayerStack = 30
	require.NoError(t, s.StartNewHand(stacked("2c 7d", "As Ah", "Kd 9s 4c 3h Jd")))

	assert.True(t, s.HandOver)
	assert.Len(t, s.Board, 5)
	assert.Equal(t, AI, s.Winner)
	assert.Equal(t, 0, s.PlayerStack)
	assert.Equal(t, 2530, s.AIStack)
	assert.True(t, s.GameOver)
}

func TestSplitPot(t *testing.T) {
	s := newTable(t, stacked("2c 3d", "4h 5s", "As Ks Qs Js Ts"))
	act(t, s, Player, CallAction())
	act(t, s, AI, CheckAction())
	for i := 0; i < 3; i++ {
		act(t, s, AI, CheckAction())
		act(t, s, Player, CheckAction())
	}
	assert.Equal(t, Tie, s.Winner)
	assert.Equal(t, 2500, s.PlayerStack)
	assert.Equal(t, 2500, s.AIStack)
}

func TestContractViolations(t *testing.T) {
	s := newTable(t, NewDeck(10))
	before := *s

	assert.ErrorIs(t, s.ProcessAction(AI, CheckAction()), ErrOutOfTurn)
	assert.ErrorIs(t, s.ProcessAction(Player, CheckAction()), ErrIllegalCheck)
	assert.ErrorIs(t, s.ProcessAction(Player, Action{Verb: "dance"}), ErrUnknownAction)
	assert.Equal(t, before.Pot, s.Pot)
	assert.Equal(t, before.PlayerStack, s.PlayerStack)
	assert.Len(t, s.Records, len(before.Records))
}

func TestCallNormalizesToCheck(t *testing.T) {
	s := newTable(t, NewDeck(11))
	act(t, s, Player, CallAction())
	act(t, s, AI, CallAction())
	assert.Equal(t, Flop, s.Street)
	assert.Equal(t, Check, s.Records[len(s.Records)-1].Verb)
}

func TestOptions(t *testing.T) {
	s := newTable(t, NewDeck(12))
	o := s.Options(Player)
	assert.True(t, o.CanAct)
	assert.True(t, o.CanFold)
	assert.False(t, o.CanCheck)
	assert.Equal(t, 50, o.ToCall)
	assert.True(t, o.CanRaise)
	assert.Equal(t, Raise, o.RaiseVerb)
	assert.Equal(t, 200, o.MinTo)
	assert.Equal(t, 2500, o.MaxTo)
	assert.True(t, o.Allowed(RaiseAction(200)))
	assert.False(t, o.Allowed(RaiseAction(150)))

	assert.False(t, s.Options(AI).CanAct)

	act(t, s, Player, CallAction())
	act(t, s, AI, CheckAction())
	o = s.Options(AI)
	assert.True(t, o.CanCheck)
	assert.Equal(t, Bet, o.RaiseVerb)
	assert.Equal(t, 100, o.MinTo)
}
