package session

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hu-holdem/server/agent"
	"hu-holdem/server/engine"
)

func TestManagerSessionsAreIndependent(t *testing.T) {
	m := NewManager(Options{Table: engine.DefaultConfig(), PlayerName: "anon"},
		func() agent.Decider { return always("c") }, &memSink{}, nil)

	a, err := m.Create("alice")
	require.NoError(t, err)
	b, err := m.Create("")
	require.NoError(t, err)
	assert.NotEqual(t, a.ID(), b.ID())
	assert.Equal(t, 2, m.Len())
	assert.Equal(t, "alice", a.View().PlayerName)
	assert.Equal(t, "anon", b.View().PlayerName)

	got, err := m.Get(a.ID())
	require.NoError(t, err)
	assert.Same(t, a, got)

	require.NoError(t, a.PlayerAct(engine.FoldAction()))
	assert.True(t, a.View().HandOver)
	assert.False(t, b.View().HandOver)

	m.Remove(a.ID())
	_, err = m.Get(a.ID())
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 1, m.Len())
}

func TestManagerConcurrentUse(t *testing.T) {
	m := NewManager(Options{Table: engine.DefaultConfig()},
		func() agent.Decider { return agent.NewRuleAgent(0) }, &memSink{}, nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s, err := m.Create("")
			if !assert.NoError(t, err) {
				return
			}
			ctx := context.Background()
			for j := 0; j < 5; j++ {
				_ = s.AdvanceAgent(ctx)
				for !s.View().HandOver {
					if err := s.Act(ctx, engine.CallAction()); err != nil {
						_ = s.Act(ctx, engine.CheckAction())
					}
				}
				if s.View().GameOver || s.NextHand() != nil {
					return
				}
				_ = s.View()
				_, _ = m.Get(s.ID())
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 8, m.Len())
}
