package match

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"

	"squishies/catalog"
	"squishies/engine"
	"squishies/types"
)

// Session phases, as reported in types.BoardState.Phase.
const (
	PhaseMenu    = "menu"
	PhasePlaying = "playing"
	PhasePaused  = "paused"
	PhaseOver    = "over"
)

// zenThresholds are the scores at which Zen mode unlocks one more piece type.
var zenThresholds = []int{2000, 5000, 10000, 20000, 35000}

const storeTimeout = 3 * time.Second

// Session is one game. It owns the board and every tracker and implements
// engine.GameEngine. All methods are safe for concurrent use; event callbacks
// run after the session lock has been released.
type Session struct {
	id       string
	cfg      engine.GameConfig
	seed     uint64
	store    engine.ScoreStore
	log      *slog.Logger
	board    *Board
	resolver *Resolver

	path      *Path
	phase     string
	turn      int
	queue     eventQueue
	listeners []func(engine.Event)

	mu sync.Mutex
}

// Option customises a Session.
type Option func(*sessionOptions)

type sessionOptions struct {
	logger  *slog.Logger
	catalog *catalog.Catalog
	rng     engine.Rand
}

// WithLogger sets the session logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *sessionOptions) { o.logger = l }
}

// WithCatalog overrides the piece catalog.
func WithCatalog(c *catalog.Catalog) Option {
	return func(o *sessionOptions) { o.catalog = c }
}

// WithRand replaces the seeded random source.
func WithRand(r engine.Rand) Option {
	return func(o *sessionOptions) { o.rng = r }
}

// NewSession creates a session in the menu phase. A zero cfg.Seed picks a
// random seed; Seed reports the one in use. store may be nil.
func NewSession(cfg engine.GameConfig, store engine.ScoreStore, opts ...Option) *Session {
	var o sessionOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}

	defaults := engine.DefaultConfig()
	if cfg.InitialTypes == 0 {
		cfg.InitialTypes = defaults.InitialTypes
	}
	if cfg.RushDuration <= 0 {
		cfg.RushDuration = defaults.RushDuration
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	if o.rng == nil {
		o.rng = rand.New(rand.NewPCG(seed, seed))
	}

	s := &Session{
		id:    uuid.NewString(),
		cfg:   cfg,
		seed:  seed,
		store: store,
		path:  NewPath(),
		phase: PhaseMenu,
	}
	s.log = o.logger.With("session", s.id, "mode", cfg.Mode.String())
	s.board = newBoard(o.rng, &s.queue, s.log)
	s.resolver = NewResolver(s.board, o.catalog)
	return s
}

// unlock releases the session lock and then delivers queued events.
func (s *Session) unlock() {
	events := s.queue.drain()
	listeners := s.listeners
	s.mu.Unlock()
	for _, e := range events {
		for _, l := range listeners {
			l(e)
		}
	}
}

// OnEvent registers a callback for engine notifications.
func (s *Session) OnEvent(fn func(engine.Event)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Start fills the board and resets score, combo and timers. A best score
// that cannot be loaded counts as 0.
func (s *Session) Start() error {
	if s.board.Processing() {
		return ErrBusy
	}
	s.mu.Lock()
	defer s.unlock()

	s.turn = 0
	s.path.Reset()
	s.resolver.wildcard.Consume()
	s.resolver.combo.Reset()

	s.board.SetActiveTypeCount(s.cfg.InitialTypes)
	s.board.Fill()
	if !s.board.HasPossibleMoves() {
		s.board.Shuffle()
	}

	best := s.loadBest()
	s.resolver.scorer.Reset(best)
	if s.cfg.Mode == types.Rush {
		s.resolver.countdown.Start(s.cfg.RushDuration)
	} else {
		s.resolver.countdown.Stop()
	}
	s.phase = PhasePlaying
	s.log.Info("game started", "seed", s.seed, "best", best, "types", s.cfg.InitialTypes)
	return nil
}

func (s *Session) loadBest() int {
	if s.store == nil {
		return 0
	}
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	best, err := s.store.Get(ctx, s.cfg.Mode.String())
	if err != nil {
		s.log.Warn("failed to load best score", "error", err)
		return 0
	}
	return best
}

// gestureAllowed reports why a gesture cannot start right now, if it cannot.
// Must be called while holding the lock.
func (s *Session) gestureAllowed() error {
	switch s.phase {
	case PhaseMenu:
		return ErrNotStarted
	case PhaseOver:
		return ErrGameOver
	case PhasePaused:
		return ErrPaused
	}
	if s.board.Processing() {
		return ErrBusy
	}
	return nil
}

// BeginPath starts a gesture at p.
func (s *Session) BeginPath(p types.Pos) bool {
	if s.board.Processing() {
		return false
	}
	s.mu.Lock()
	defer s.unlock()
	if s.gestureAllowed() != nil || s.board.At(p) == nil {
		return false
	}
	s.path.Reset()
	s.path.Extend(p)
	return true
}

// ExtendPath offers p as the next cell of the gesture.
func (s *Session) ExtendPath(p types.Pos) bool {
	if s.board.Processing() {
		return false
	}
	s.mu.Lock()
	defer s.unlock()
	if s.gestureAllowed() != nil || s.path.Len() == 0 {
		return false
	}
	return s.resolver.validator.Offer(s.path, p)
}

// Path returns a copy of the gesture in progress.
func (s *Session) Path() []types.Pos {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.path.Cells()
}

// CancelPath drops the gesture.
func (s *Session) CancelPath() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.path.Reset()
}

// CompletePath resolves the gesture in progress. The path is dropped whether
// or not it scored.
func (s *Session) CompletePath() (engine.MatchResult, error) {
	if s.board.Processing() {
		return engine.MatchResult{}, ErrBusy
	}
	s.mu.Lock()
	defer s.unlock()
	cells := s.path.Cells()
	s.path.Reset()
	return s.resolve(cells)
}

// SubmitPath checks path one step at a time, as if it were drawn, and resolves it.
// Backtracking steps are not allowed.
func (s *Session) SubmitPath(path []types.Pos) (engine.MatchResult, error) {
	if s.board.Processing() {
		return engine.MatchResult{}, ErrBusy
	}
	s.mu.Lock()
	defer s.unlock()
	if err := s.gestureAllowed(); err != nil {
		return engine.MatchResult{}, err
	}

	drawn := NewPath()
	for i, c := range path {
		n := drawn.Len()
		if !s.resolver.validator.Offer(drawn, c) || drawn.Len() != n+1 {
			return engine.MatchResult{}, fmt.Errorf("%w: step %d at %v", ErrInvalidPath, i, c)
		}
	}
	s.path.Reset()
	return s.resolve(drawn.Cells())
}

// resolve runs the resolver and the per-turn session rules.
// Must be called while holding the lock.
func (s *Session) resolve(cells []types.Pos) (engine.MatchResult, error) {
	if err := s.gestureAllowed(); err != nil {
		return engine.MatchResult{}, err
	}
	res, err := s.resolver.Resolve(cells)
	if err != nil {
		return res, err
	}
	s.turnComplete()
	return res, nil
}

// turnComplete counts the turn and, in Zen mode, unlocks types by score.
func (s *Session) turnComplete() {
	s.turn++
	if s.cfg.Mode != types.Zen {
		return
	}
	total := s.resolver.scorer.Total()
	passed := 0
	for _, t := range zenThresholds {
		if total < t {
			break
		}
		passed++
	}
	want := min(s.cfg.InitialTypes+passed, MaxActiveTypes)
	if want > len(s.board.ActiveTypes()) {
		s.log.Debug("unlocking piece types", "count", want, "score", total)
	}
	s.board.SetActiveTypeCount(want)
}

// Tick advances the combo timeout and the Rush countdown.
func (s *Session) Tick(dt time.Duration) {
	s.mu.Lock()
	defer s.unlock()
	if s.phase != PhasePlaying {
		return
	}
	s.resolver.combo.Tick(dt)
	if s.resolver.countdown.Tick(dt) {
		s.log.Info("time up")
		s.end()
	}
}

// Pause freezes the countdown and rejects gestures.
func (s *Session) Pause() {
	s.mu.Lock()
	defer s.unlock()
	if s.phase == PhasePlaying {
		s.phase = PhasePaused
		s.path.Reset()
	}
}

func (s *Session) Resume() {
	s.mu.Lock()
	defer s.unlock()
	if s.phase == PhasePaused {
		s.phase = PhasePlaying
	}
}

// End finishes the game and stores the score if it beats the best.
func (s *Session) End() {
	s.mu.Lock()
	defer s.unlock()
	s.end()
}

func (s *Session) end() {
	if s.phase == PhaseOver || s.phase == PhaseMenu {
		return
	}
	s.phase = PhaseOver
	s.path.Reset()

	scorer := s.resolver.scorer
	total, best := scorer.Total(), scorer.Best()
	newBest := scorer.NewBest()
	if newBest {
		best = total
		if err := s.saveBest(total); err != nil {
			s.log.Error("failed to save best score", "error", err)
		}
	}
	s.log.Info("game over", "score", total, "best", best, "new_best", newBest, "turns", s.turn)
	s.queue.emit(engine.Event{Kind: engine.GameOver, Total: total, Best: best, NewBest: newBest})
}

func (s *Session) saveBest(score int) error {
	if s.store == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	if err := s.store.Set(ctx, s.cfg.Mode.String(), score); err != nil {
		return fmt.Errorf("save best score: %w", err)
	}
	return nil
}

// BoardState returns a snapshot of the session.
func (s *Session) BoardState() *types.BoardState {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.board.Snapshot()
	st.Mode = s.cfg.Mode
	st.Phase = s.phase
	st.Score = s.resolver.scorer.Total()
	st.Best = max(s.resolver.scorer.Best(), st.Score)
	st.Turn = s.turn
	st.ComboLevel = s.resolver.combo.Level()
	if s.resolver.countdown.Enabled() {
		st.TimeRemaining = s.resolver.countdown.Remaining().Seconds()
	}
	st.Wildcard = s.resolver.wildcard.Active()
	return &st
}

func (s *Session) Score() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resolver.scorer.Total()
}

// Best returns the best score loaded at Start.
func (s *Session) Best() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resolver.scorer.Best()
}

func (s *Session) Mode() types.Mode { return s.cfg.Mode }

// Seed returns the random seed the session was built with.
func (s *Session) Seed() uint64 { return s.seed }

// ID is a unique session identifier.
func (s *Session) ID() string { return s.id }

// ComboTier returns the feedback label of the current streak.
func (s *Session) ComboTier() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resolver.combo.Tier()
}

var _ engine.GameEngine = (*Session)(nil)
