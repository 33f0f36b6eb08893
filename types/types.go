// Package types contains shared data structures for squishies.
package types

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Board dimensions. Y=0 is the bottom row.
const (
	Columns = 7
	Rows    = 9
	Cells   = Columns * Rows
)

// Pos is a grid coordinate.
type Pos struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Add returns p offset by (dx, dy).
func (p Pos) Add(dx, dy int) Pos {
	return Pos{X: p.X + dx, Y: p.Y + dy}
}

// InBounds reports whether p lies on the board.
func (p Pos) InBounds() bool {
	return p.X >= 0 && p.X < Columns && p.Y >= 0 && p.Y < Rows
}

// Chebyshev returns the king-move distance between p and q.
func (p Pos) Chebyshev(q Pos) int {
	return max(abs(p.X-q.X), abs(p.Y-q.Y))
}

// Adjacent reports whether q is one of the 8 neighbours of p.
func (p Pos) Adjacent(q Pos) bool {
	return p != q && p.Chebyshev(q) <= 1
}

func (p Pos) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

// UnmarshalJSON accepts both {"x":1,"y":2} and [1,2].
func (p *Pos) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '[' {
		var v []int
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		if len(v) != 2 {
			return fmt.Errorf("position needs 2 coordinates, got %d", len(v))
		}
		p.X, p.Y = v[0], v[1]
		return nil
	}
	type plain Pos
	return json.Unmarshal(data, (*plain)(p))
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// PieceType is the colour/species of a piece.
type PieceType uint8

const (
	Bloop PieceType = iota
	Rosie
	Limbo
	Sunny
	Plum
	Tangy
	Mochi
)

// NumPieceTypes is the size of the full type list.
const NumPieceTypes = 7

// AllPieceTypes lists every type in unlock order.
var AllPieceTypes = []PieceType{Bloop, Rosie, Limbo, Sunny, Plum, Tangy, Mochi}

func (t PieceType) String() string {
	switch t {
	case Bloop:
		return "Bloop"
	case Rosie:
		return "Rosie"
	case Limbo:
		return "Limbo"
	case Sunny:
		return "Sunny"
	case Plum:
		return "Plum"
	case Tangy:
		return "Tangy"
	case Mochi:
		return "Mochi"
	default:
		return fmt.Sprintf("type(%d)", t)
	}
}

func ParsePieceType(s string) (PieceType, bool) {
	for _, t := range AllPieceTypes {
		if strings.EqualFold(strings.TrimSpace(s), t.String()) {
			return t, true
		}
	}
	return 0, false
}

func (t PieceType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// Size is the footprint class of a piece.
type Size uint8

const (
	Normal Size = iota // 1x1
	Large              // 2x2
	Giant              // 3x3
)

// Dim returns the side length of the footprint.
func (s Size) Dim() int {
	switch s {
	case Large:
		return 2
	case Giant:
		return 3
	default:
		return 1
	}
}

func (s Size) String() string {
	switch s {
	case Normal:
		return "normal"
	case Large:
		return "large"
	case Giant:
		return "giant"
	default:
		return "?"
	}
}

func (s Size) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// Mood of a piece. Neutral is the zero value so fresh pieces start Neutral.
type Mood uint8

const (
	Neutral Mood = iota
	Happy
	Sad
)

// Multiplier is the scoring weight of the mood.
func (m Mood) Multiplier() float64 {
	switch m {
	case Happy:
		return 1.5
	case Sad:
		return 0.75
	default:
		return 1.0
	}
}

func (m Mood) String() string {
	switch m {
	case Happy:
		return "happy"
	case Sad:
		return "sad"
	default:
		return "neutral"
	}
}

func (m Mood) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

// Ability is the area effect a Giant piece triggers when it is formed.
type Ability uint8

const (
	AbilityNone Ability = iota
	RadialBurst
	RowClear
	ColumnClear
	ColorDrain
	ShuffleBoard
	HappinessBurst
	Wildcard
)

var AllAbilities = []Ability{RadialBurst, RowClear, ColumnClear, ColorDrain, ShuffleBoard, HappinessBurst, Wildcard}

func (a Ability) String() string {
	switch a {
	case AbilityNone:
		return "None"
	case RadialBurst:
		return "RadialBurst"
	case RowClear:
		return "RowClear"
	case ColumnClear:
		return "ColumnClear"
	case ColorDrain:
		return "ColorDrain"
	case ShuffleBoard:
		return "Shuffle"
	case HappinessBurst:
		return "HappinessBurst"
	case Wildcard:
		return "Wildcard"
	default:
		return "?"
	}
}

func ParseAbility(s string) (Ability, bool) {
	s = strings.TrimSpace(s)
	for _, a := range AllAbilities {
		if strings.EqualFold(s, a.String()) {
			return a, true
		}
	}
	return AbilityNone, false
}

func (a Ability) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

// Mode is the session rule set.
type Mode uint8

const (
	Zen  Mode = iota // no timer, type set grows with score
	Rush             // countdown, matches add time
)

func (m Mode) String() string {
	if m == Rush {
		return "Rush"
	}
	return "Zen"
}

func ParseMode(s string) (Mode, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "zen", "":
		return Zen, true
	case "rush":
		return Rush, true
	}
	return Zen, false
}

func (m Mode) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

// PieceInfo is a value copy of a piece, safe to hold after the piece is cleared.
type PieceInfo struct {
	ID     int       `json:"id"`
	Type   PieceType `json:"type"`
	Size   Size      `json:"size"`
	Mood   Mood      `json:"mood"`
	Origin Pos       `json:"origin"`
}

// Footprint returns the cells covered by the piece.
func (p PieceInfo) Footprint() []Pos {
	return Footprint(p.Origin, p.Size)
}

// Footprint returns the square of cells with bottom-left corner origin.
func Footprint(origin Pos, size Size) []Pos {
	dim := size.Dim()
	cells := make([]Pos, 0, dim*dim)
	for dx := 0; dx < dim; dx++ {
		for dy := 0; dy < dim; dy++ {
			cells = append(cells, origin.Add(dx, dy))
		}
	}
	return cells
}

// BoardState is a serializable snapshot of a session.
// Board is indexed as Board[y][x]; nil cells are empty.
type BoardState struct {
	Board         [Rows][Columns]*PieceInfo `json:"board"`
	Mode          Mode                      `json:"mode"`
	Phase         string                    `json:"phase"` // "menu", "playing", "paused", "over"
	Score         int                       `json:"score"`
	Best          int                       `json:"best"`
	Turn          int                       `json:"turn"`
	ComboLevel    int                       `json:"combo_level"`
	TimeRemaining float64                   `json:"time_remaining,omitempty"` // seconds, Rush only
	ActiveTypes   []PieceType               `json:"active_types"`
	Wildcard      bool                      `json:"wildcard"`
	Processing    bool                      `json:"processing"`
}

// Finished returns true if the game is over.
func (b *BoardState) Finished() bool {
	return b.Phase == "over"
}

// At returns the piece covering p, or nil.
func (b *BoardState) At(p Pos) *PieceInfo {
	if !p.InBounds() {
		return nil
	}
	return b.Board[p.Y][p.X]
}
