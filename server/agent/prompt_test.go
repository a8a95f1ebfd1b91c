package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hu-holdem/server/engine"
)

func deckOf(t *testing.T, cards string) *engine.Deck {
	t.Helper()
	front := engine.MustCards(cards)
	used := map[engine.Card]bool{}
	for _, c := range front {
		used[c] = true
	}
	rest := engine.NewDeck(1)
	all, err := rest.Deal(52)
	require.NoError(t, err)
	for _, c := range all {
		if !used[c] {
			front = append(front, c)
		}
	}
	return engine.NewDeckFrom(front)
}

func newState(t *testing.T, playerPos engine.Position) *engine.State {
	t.Helper()
	cfg := engine.DefaultConfig()
	cfg.PlayerStartPos = playerPos
	s := engine.NewState(cfg)
	require.NoError(t, s.StartNewHand(deckOf(t, "As Ah Kc Qd Kd 9s 4c 3h Jd")))
	return s
}

func TestBuildPromptHistory(t *testing.T) {
	s := newState(t, engine.SB)
	assert.Equal(t, "pos:H=BB stacks:H=24.0,SB=24.5 hand:KcQd | pre:H H:", BuildPrompt(s, engine.AI))

	require.NoError(t, s.ProcessAction(engine.Player, engine.CallAction()))
	assert.Equal(t, "pos:H=BB stacks:H=24.0,SB=24.0 hand:KcQd | pre:SB c H:", BuildPrompt(s, engine.AI))

	require.NoError(t, s.ProcessAction(engine.AI, engine.CheckAction()))
	assert.Equal(t, "pos:H=BB stacks:H=24.0,SB=24.0 hand:KcQd | pre:SB c,H x | flop:Kd9s4c H:", BuildPrompt(s, engine.AI))

	require.NoError(t, s.ProcessAction(engine.AI, engine.BetAction(150)))
	require.NoError(t, s.ProcessAction(engine.Player, engine.RaiseAction(450)))
	assert.Equal(t,
		"pos:H=BB stacks:H=22.5,SB=19.5 hand:KcQd | pre:SB c,H x | flop:Kd9s4c H b1.5,SB r4.5 H:",
		BuildPrompt(s, engine.AI))

	require.NoError(t, s.ProcessAction(engine.AI, engine.CallAction()))
	assert.Equal(t,
		"pos:H=BB stacks:H=19.5,SB=19.5 hand:KcQd | pre:SB c,H x | flop:Kd9s4c H b1.5,SB r4.5,H c | turn:3h H:",
		BuildPrompt(s, engine.AI))
}

func TestBuildPromptHeroSB(t *testing.T) {
	s := newState(t, engine.BB)
	assert.Equal(t, "pos:H=SB stacks:H=24.5,BB=24.0 hand:KcQd H:", BuildPrompt(s, engine.AI))

	// the other seat sees the same history with the tags swapped
	require.NoError(t, s.ProcessAction(engine.AI, engine.RaiseAction(250)))
	assert.Equal(t, "pos:H=BB stacks:H=24.0,SB=22.5 hand:AsAh | pre:SB r2.5 H:", BuildPrompt(s, engine.Player))
}

func TestBuildObservation(t *testing.T) {
	s := newState(t, engine.SB)
	o := BuildObservation(s, engine.Player)
	assert.Equal(t, "SB", o.Pos)
	assert.Equal(t, "preflop", o.Street)
	assert.Equal(t, []string{"As", "Ah"}, o.HoleCards)
	assert.Equal(t, 50, o.ToCall)
	assert.Equal(t, 200, o.MinRaiseTo)
	assert.Equal(t, 2500, o.MaxRaiseTo)
	assert.Equal(t, []string{"f", "c", "r", "a"}, o.Legal)

	// not the AI's turn yet
	assert.Empty(t, BuildObservation(s, engine.AI).Legal)
}
