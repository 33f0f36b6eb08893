package engine

import (
	"encoding/json"
	"fmt"

	"squishies/types"
)

// EventKind names an engine notification.
type EventKind uint8

const (
	MatchResolved EventKind = iota
	PieceCreated
	PieceCleared
	ComboChanged
	ScoreChanged
	BestScoreBeaten
	MoodChanged
	BoardReshuffled
	TurnComplete
	PhaseSettled
	AbilityFired
	TimeChanged
	GameOver
)

var eventNames = [...]string{
	MatchResolved:   "match_resolved",
	PieceCreated:    "piece_created",
	PieceCleared:    "piece_cleared",
	ComboChanged:    "combo_changed",
	ScoreChanged:    "score_changed",
	BestScoreBeaten: "best_score_beaten",
	MoodChanged:     "mood_changed",
	BoardReshuffled: "board_reshuffled",
	TurnComplete:    "turn_complete",
	PhaseSettled:    "phase_settled",
	AbilityFired:    "ability_fired",
	TimeChanged:     "time_changed",
	GameOver:        "game_over",
}

func (k EventKind) String() string {
	if int(k) < len(eventNames) {
		return eventNames[k]
	}
	return fmt.Sprintf("event(%d)", k)
}

func (k EventKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// Phase is a settle boundary inside a resolution. A presentation layer may
// play its feedback for the phase before asking for the next gesture.
type Phase string

const (
	PhaseCleared  Phase = "cleared"
	PhaseAbility  Phase = "ability"
	PhaseGravity  Phase = "gravity"
	PhaseRefilled Phase = "refilled"
)

// Event is a single engine notification. Only the fields relevant to Kind are set.
type Event struct {
	Kind       EventKind        `json:"kind"`
	Cells      []types.Pos      `json:"cells,omitempty"`
	Centroid   *types.Pos       `json:"centroid,omitempty"`
	Piece      *types.PieceInfo `json:"piece,omitempty"`
	Mood       *types.Mood      `json:"mood,omitempty"`
	MatchCount int              `json:"match_count,omitempty"`
	Combo      bool             `json:"combo,omitempty"`
	ScoreDelta int              `json:"score_delta,omitempty"`
	Total      int              `json:"total"`
	Level      int              `json:"level"`
	Phase      Phase            `json:"phase,omitempty"`
	Ability    *types.Ability   `json:"ability,omitempty"`
	Remaining  float64          `json:"remaining,omitempty"` // seconds
	Best       int              `json:"best,omitempty"`
	NewBest    bool             `json:"new_best,omitempty"`
}

func (e Event) String() string {
	switch e.Kind {
	case MatchResolved:
		return fmt.Sprintf("%s count=%d combo=%v delta=%d", e.Kind, e.MatchCount, e.Combo, e.ScoreDelta)
	case ScoreChanged, BestScoreBeaten:
		return fmt.Sprintf("%s total=%d", e.Kind, e.Total)
	case ComboChanged:
		return fmt.Sprintf("%s level=%d", e.Kind, e.Level)
	case PhaseSettled:
		return fmt.Sprintf("%s %s", e.Kind, e.Phase)
	case AbilityFired:
		if e.Ability != nil {
			return fmt.Sprintf("%s %s cells=%d", e.Kind, *e.Ability, len(e.Cells))
		}
	case GameOver:
		return fmt.Sprintf("%s total=%d best=%d", e.Kind, e.Total, e.Best)
	}
	return e.Kind.String()
}
