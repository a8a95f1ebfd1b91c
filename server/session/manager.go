package session

import (
	"sync"

	"go.uber.org/zap"

	"hu-holdem/server/agent"
)

// Manager keeps independent sessions by ID. Sessions share nothing but the
// sink and the logger.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	opts       Options
	newDecider func() agent.Decider
	sink       Sink
	log        *zap.Logger
}

func NewManager(opts Options, newDecider func() agent.Decider, sink Sink, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{
		sessions:   map[string]*Session{},
		opts:       opts,
		newDecider: newDecider,
		sink:       sink,
		log:        log,
	}
}

// Create starts a session for playerName, or the default name when empty.
func (m *Manager) Create(playerName string) (*Session, error) {
	opts := m.opts
	if playerName != "" {
		opts.PlayerName = playerName
	}
	var d agent.Decider
	if m.newDecider != nil {
		d = m.newDecider()
	}
	s, err := New(opts, d, m.sink, m.log)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.sessions[s.ID()] = s
	m.mu.Unlock()
	m.log.Info("session created", zap.String("session", s.ID()), zap.String("player", opts.PlayerName))
	return s, nil
}

func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s, nil
}

func (m *Manager) Remove(id string) {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
