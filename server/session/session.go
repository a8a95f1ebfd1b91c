package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"hu-holdem/server/agent"
	"hu-holdem/server/engine"
	"hu-holdem/server/judge"
	"hu-holdem/server/store"
)

var (
	ErrNotFound  = errors.New("session not found")
	ErrNoHistory = errors.New("history sink cannot list hands")
)

// Sink receives every finished hand exactly once per hand ID.
type Sink interface {
	RecordHand(ctx context.Context, rec store.HandRecord) error
}

// Lister is implemented by sinks that can read hands back.
type Lister interface {
	ListHands(ctx context.Context, sessionID string, limit int) ([]store.HandRecord, error)
}

type Options struct {
	Table        engine.Config
	PlayerName   string
	AgentTimeout time.Duration
	// DeckSeed makes hand n use NewDeck(DeckSeed+n); 0 shuffles from the clock.
	DeckSeed int64
	// Decks overrides deck creation, mostly for stacked test decks.
	Decks func(handNo int) *engine.Deck
}

const sinkTimeout = 5 * time.Second

// Session is one human against one agent for as many hands as the stacks
// last. All methods are safe for concurrent use.
type Session struct {
	mu      sync.Mutex
	id      string
	opts    Options
	st      *engine.State
	decider agent.Decider
	sink    Sink
	log     *zap.Logger

	handID      string
	playedAt    time.Time
	corrections []engine.Correction
	decisions   []store.Decision
	seen        int // engine corrections already collected
	finalized   map[string]bool
	last        *store.HandRecord
	stats       Stats
}

// New seats both sides with the starting stack and deals the first hand.
// The agent is not asked to act; call AdvanceAgent for that.
func New(opts Options, d agent.Decider, sink Sink, log *zap.Logger) (*Session, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.PlayerName == "" {
		opts.PlayerName = "player"
	}
	id := uuid.NewString()
	s := &Session{
		id:        id,
		opts:      opts,
		st:        engine.NewState(opts.Table),
		decider:   d,
		sink:      sink,
		log:       log.With(zap.String("session", id)),
		finalized: map[string]bool{},
	}
	if err := s.startHand(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Session) ID() string { return s.id }

func (s *Session) deck(handNo int) *engine.Deck {
	if s.opts.Decks != nil {
		return s.opts.Decks(handNo)
	}
	if s.opts.DeckSeed != 0 {
		return engine.NewDeck(s.opts.DeckSeed + int64(handNo))
	}
	return engine.NewDeck(0)
}

func (s *Session) startHand() error {
	if err := s.st.StartNewHand(s.deck(s.st.HandNo + 1)); err != nil {
		return err
	}
	s.handID = uuid.NewString()
	s.playedAt = time.Now().UTC()
	s.corrections, s.decisions, s.seen = nil, nil, 0
	s.log.Info("hand started",
		zap.String("hand", s.handID),
		zap.Int("hand_no", s.st.HandNo),
		zap.String("player_pos", string(s.st.PlayerPos)),
		zap.Int("player_stack", s.st.PlayerStack),
		zap.Int("ai_stack", s.st.AIStack),
	)
	s.collect()
	s.finalize()
	return nil
}

// NextHand deals the next hand once the current one is over.
func (s *Session) NextHand() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.st.GameOver {
		return engine.ErrGameOver
	}
	if !s.st.HandOver {
		return engine.ErrHandInProgress
	}
	return s.startHand()
}

// PlayerAct applies the human's action. Illegal actions are rejected with
// the engine's contract errors and change nothing.
func (s *Session) PlayerAct(a engine.Action) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.st.ProcessAction(engine.Player, a); err != nil {
		return err
	}
	s.collect()
	s.finalize()
	return nil
}

// AdvanceAgent lets the agent act until it is the human's turn or the hand
// is over.
func (s *Session) AdvanceAgent(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for !s.st.HandOver && s.st.Turn == engine.AI {
		if err := s.agentTurn(ctx); err != nil {
			return err
		}
	}
	s.finalize()
	return nil
}

// Act is PlayerAct followed by AdvanceAgent.
func (s *Session) Act(ctx context.Context, a engine.Action) error {
	if err := s.PlayerAct(a); err != nil {
		return err
	}
	return s.AdvanceAgent(ctx)
}

func (s *Session) agentTurn(ctx context.Context) error {
	p := agent.Prompt{
		Text: agent.BuildPrompt(s.st, engine.AI),
		Obs:  agent.BuildObservation(s.st, engine.AI),
	}
	start := time.Now()
	tok, err := agent.DecideWithin(ctx, s.decider, p, s.opts.AgentTimeout)
	d := store.Decision{
		Seq:       len(s.decisions) + 1,
		Prompt:    p.Text,
		Token:     tok,
		LatencyMS: time.Since(start).Milliseconds(),
	}
	if err != nil {
		d.Fallback = true
		d.Error = err.Error()
		s.log.Warn("agent fallback", zap.String("token", tok), zap.Error(err))
		s.addCorrection(engine.Correction{
			Side:   engine.AI,
			From:   "no decision",
			To:     tok,
			Reason: err.Error(),
		})
	}

	a, corr := agent.Translate(tok, s.st, engine.AI)
	for _, c := range corr {
		s.addCorrection(c)
	}
	d.Action = a.String()
	s.grade(&d, a)
	s.decisions = append(s.decisions, d)

	if err := s.st.ProcessAction(engine.AI, a); err != nil {
		return fmt.Errorf("agent action %s: %w", a, err)
	}
	s.collect()
	return nil
}

// grade attaches a river verdict to d when the choice is one the judge
// compares.
func (s *Session) grade(d *store.Decision, a engine.Action) {
	st := s.st
	if st.Street != engine.River {
		return
	}
	owed := st.ToCall(engine.AI)
	verb := a.Verb
	if verb == engine.Call && owed == 0 {
		verb = engine.Check
	}
	v, ok := judge.River(st.AIHole, st.Board, st.Pot, owed, st.Cfg.BB, verb)
	if !ok {
		return
	}
	d.Equity, d.Best, d.EVGapBB = &v.Equity, v.Best, &v.GapBB
	if v.GapBB > 0 {
		s.log.Debug("river mistake", zap.Int("seq", d.Seq), zap.String("chose", string(verb)),
			zap.String("best", v.Best), zap.Float64("gap_bb", v.GapBB))
	}
}

func (s *Session) addCorrection(c engine.Correction) {
	s.corrections = append(s.corrections, c)
	s.log.Info("correction",
		zap.String("side", string(c.Side)),
		zap.String("token", c.Token),
		zap.String("from", c.From),
		zap.String("to", c.To),
		zap.String("reason", c.Reason),
	)
}

// collect picks up corrections the engine made while applying actions.
func (s *Session) collect() {
	for _, c := range s.st.Corrections[s.seen:] {
		s.addCorrection(c)
	}
	s.seen = len(s.st.Corrections)
}

// finalize hands the finished hand to the sink. It runs at most once per
// hand ID; sink failures are logged and otherwise ignored.
func (s *Session) finalize() {
	if !s.st.HandOver || s.finalized[s.handID] {
		return
	}
	s.finalized[s.handID] = true
	s.stats.add(s.st)
	rec := s.record()
	s.last = &rec

	fields := []zap.Field{
		zap.String("hand", rec.HandID),
		zap.Int("hand_no", rec.HandNo),
		zap.String("winner", rec.Winner),
		zap.Int("player_net", rec.PlayerNet),
		zap.Bool("game_over", s.st.GameOver),
	}
	if sd := s.st.Showdown; sd != nil && sd.LibraryMismatch {
		s.log.Warn("eval mismatch", zap.String("hand", rec.HandID),
			zap.String("player", sd.PlayerDesc), zap.String("ai", sd.AIDesc))
	}
	s.log.Info("hand finished", fields...)

	if s.sink == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), sinkTimeout)
	defer cancel()
	if err := s.sink.RecordHand(ctx, rec); err != nil {
		s.log.Warn("history sink failed", zap.String("hand", rec.HandID), zap.Error(err))
	}
}

func (s *Session) record() store.HandRecord {
	st := s.st
	return store.HandRecord{
		HandID:           s.handID,
		SessionID:        s.id,
		HandNo:           st.HandNo,
		PlayerName:       s.opts.PlayerName,
		PlayedAt:         s.playedAt,
		Winner:           string(st.Winner),
		PlayerNet:        st.Net(engine.Player),
		PlayerPos:        string(st.PlayerPos),
		AIPos:            string(st.AIPos),
		PlayerStartStack: st.HandStartPlayer,
		AIStartStack:     st.HandStartAI,
		PlayerHole:       cardStrings(st.PlayerHole),
		AIHole:           cardStrings(st.AIHole),
		Board:            cardStrings(st.Board),
		History:          agent.BuildPrompt(st, engine.AI),
		Actions:          append([]engine.ActionRecord(nil), st.Records...),
		Corrections:      append([]engine.Correction(nil), s.corrections...),
		Decisions:        append([]store.Decision(nil), s.decisions...),
	}
}

// LastHand is the transcript of the most recently finished hand.
func (s *Session) LastHand() (store.HandRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return store.HandRecord{}, false
	}
	return *s.last, true
}

// Hands reads this session's finished hands back from the sink.
func (s *Session) Hands(ctx context.Context, limit int) ([]store.HandRecord, error) {
	l, ok := s.sink.(Lister)
	if !ok {
		return nil, ErrNoHistory
	}
	return l.ListHands(ctx, s.id, limit)
}

func cardStrings(cs []engine.Card) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.String()
	}
	return out
}
