package match

import (
	"time"

	"squishies/engine"
)

// ComboTimeout is how long a streak survives without a new match.
const ComboTimeout = 2500 * time.Millisecond

var comboTiers = [...]string{"", "Nice", "Great", "Amazing", "Incredible"}

// ComboTracker counts consecutive matches inside a rolling timeout.
type ComboTracker struct {
	streak    int
	remaining time.Duration
	events    *eventQueue
}

func NewComboTracker() *ComboTracker {
	return &ComboTracker{}
}

// RegisterMatch extends the streak and restarts the timeout.
func (c *ComboTracker) RegisterMatch() {
	c.streak++
	c.remaining = ComboTimeout
	c.changed()
}

// Tick runs the timeout down. It only runs while a streak is active.
func (c *ComboTracker) Tick(dt time.Duration) {
	if c.streak == 0 {
		return
	}
	c.remaining -= dt
	if c.remaining <= 0 {
		c.Reset()
	}
}

// Reset drops the streak.
func (c *ComboTracker) Reset() {
	was := c.streak
	c.streak = 0
	c.remaining = 0
	if was != 0 {
		c.changed()
	}
}

func (c *ComboTracker) Streak() int { return c.streak }

// Level is min(streak, 4); 0 means no combo.
func (c *ComboTracker) Level() int {
	return min(c.streak, len(comboTiers)-1)
}

// Tier returns the feedback label for the current level.
func (c *ComboTracker) Tier() string {
	return comboTiers[c.Level()]
}

// TierName returns the label for level.
func TierName(level int) string {
	return comboTiers[min(max(level, 0), len(comboTiers)-1)]
}

func (c *ComboTracker) changed() {
	c.events.emit(engine.Event{Kind: engine.ComboChanged, Level: c.Level()})
}
