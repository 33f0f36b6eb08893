// Package engine defines the interface between a squishies session and its hosts.
package engine

import (
	"context"
	"encoding/json"
	"time"

	"squishies/types"
)

// GameEngine is one play session: board, score, timers and the gesture being drawn.
type GameEngine interface {
	// Start fills the board and resets score, combo and timers.
	Start() error

	// BoardState returns a snapshot of the current state.
	BoardState() *types.BoardState

	// BeginPath starts a gesture at p. Returns false if p holds no piece or the board is busy.
	BeginPath(p types.Pos) bool

	// ExtendPath offers the next cell of the gesture. Backtracking onto the
	// second-to-last cell pops the last one. Returns true if the path changed.
	ExtendPath(p types.Pos) bool

	// Path returns a copy of the gesture in progress.
	Path() []types.Pos

	// CancelPath drops the gesture without resolving it.
	CancelPath()

	// CompletePath resolves the gesture in progress.
	CompletePath() (MatchResult, error)

	// SubmitPath validates a whole path cell by cell and resolves it.
	SubmitPath(path []types.Pos) (MatchResult, error)

	// Tick advances real-time timers by dt.
	Tick(dt time.Duration)

	// Pause and Resume freeze the countdown.
	Pause()
	Resume()

	// End finishes the session and persists the best score.
	End()

	// OnEvent registers a callback for engine notifications.
	// Callbacks run after the session lock is released.
	OnEvent(func(Event))
}

// GameConfig holds configuration for starting a new session.
type GameConfig struct {
	Mode         types.Mode
	Seed         uint64        // 0 picks a random seed
	InitialTypes int           // size of the starting type set, 4-7
	RushDuration time.Duration // starting countdown in Rush mode
}

// DefaultConfig returns a reasonable default configuration.
func DefaultConfig() GameConfig {
	return GameConfig{
		Mode:         types.Zen,
		InitialTypes: 4,
		RushDuration: 90 * time.Second,
	}
}

// Rand is the single random source of a session.
type Rand interface {
	IntN(n int) int
}

// ScoreStore persists the best score per mode.
type ScoreStore interface {
	Get(ctx context.Context, mode string) (int, error)
	Set(ctx context.Context, mode string, score int) error
}

// MatchResult describes one resolved gesture.
type MatchResult struct {
	Cleared    []types.Pos   `json:"cleared"`
	Centroid   types.Pos     `json:"centroid"`
	MatchCount int           `json:"match_count"`
	Combo      bool          `json:"combo"`
	Promotion  types.Size    `json:"promotion"`
	Placed     bool          `json:"placed"`
	PlacedAt   types.Pos     `json:"placed_at"`
	Ability    types.Ability `json:"ability"`
	ScoreDelta int           `json:"score_delta"`
	TimeBonus  time.Duration `json:"time_bonus"` // seconds on the wire
	Reshuffled bool          `json:"reshuffled"`
}

// MarshalJSON reports TimeBonus in seconds, like Event.Remaining.
func (m MatchResult) MarshalJSON() ([]byte, error) {
	type plain MatchResult
	return json.Marshal(struct {
		plain
		TimeBonus float64 `json:"time_bonus"`
	}{plain(m), m.TimeBonus.Seconds()})
}
