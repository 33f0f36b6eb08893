package match

import (
	"math"
	"time"

	"squishies/engine"
)

// Score values.
const (
	PointsPerCell = 10
	LargeBonus    = 100
	GiantBonus    = 500
	ComboBonus    = 1000
)

// Rush time bonuses.
const (
	LargeTimeBonus = 2 * time.Second
	GiantTimeBonus = 5 * time.Second
	ComboTimeBonus = 10 * time.Second
)

// MatchPoints is round(cells * 10 * multiplier), halves rounded away from zero.
func MatchPoints(cells int, multiplier float64) int {
	return int(math.Round(float64(cells*PointsPerCell) * multiplier))
}

// Scorer keeps the running total against the stored best.
type Scorer struct {
	total  int
	best   int
	events *eventQueue
}

func NewScorer() *Scorer {
	return &Scorer{}
}

// Reset zeroes the total and sets the best score to beat.
func (s *Scorer) Reset(best int) {
	s.total = 0
	s.best = best
	s.events.emit(engine.Event{Kind: engine.ScoreChanged, Total: 0})
}

// Add adds points to the total. Every add that leaves the total above the
// stored best raises BestScoreBeaten.
func (s *Scorer) Add(points int) {
	s.total += points
	s.events.emit(engine.Event{Kind: engine.ScoreChanged, Total: s.total})
	if s.total > s.best {
		s.events.emit(engine.Event{Kind: engine.BestScoreBeaten, Total: s.total})
	}
}

func (s *Scorer) Total() int { return s.total }

// Best is the best score loaded at the start of the session.
func (s *Scorer) Best() int { return s.best }

// NewBest reports whether the running total beats the stored best.
func (s *Scorer) NewBest() bool { return s.total > s.best }

// Countdown is the Rush mode timer.
type Countdown struct {
	remaining time.Duration
	enabled   bool
	events    *eventQueue
}

// Start enables the countdown with d remaining.
func (c *Countdown) Start(d time.Duration) {
	c.enabled = true
	c.remaining = d
	c.changed()
}

// Stop disables the countdown; Add and Tick become no-ops.
func (c *Countdown) Stop() {
	c.enabled = false
}

func (c *Countdown) Enabled() bool { return c.enabled }

func (c *Countdown) Remaining() time.Duration { return c.remaining }

// Add extends the countdown. No-op when disabled.
func (c *Countdown) Add(d time.Duration) {
	if !c.enabled {
		return
	}
	c.remaining += d
	c.changed()
}

// Tick runs the countdown down and reports whether it just expired.
func (c *Countdown) Tick(dt time.Duration) bool {
	if !c.enabled || c.remaining <= 0 {
		return false
	}
	before := c.remaining
	c.remaining -= dt
	if c.remaining <= 0 {
		c.remaining = 0
		c.changed()
		return true
	}
	if before/time.Second != c.remaining/time.Second {
		c.changed()
	}
	return false
}

func (c *Countdown) changed() {
	c.events.emit(engine.Event{Kind: engine.TimeChanged, Remaining: c.remaining.Seconds()})
}
