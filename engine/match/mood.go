package match

import (
	"squishies/engine"
	"squishies/types"
)

const (
	// HappyTurns is how long a piece stays Happy once cheered up.
	HappyTurns = 5
	// SadAfter is the number of idle turns after which a piece turns Sad.
	SadAfter = 8
	// HappinessRadius is the Chebyshev radius cheered up around a match.
	HappinessRadius = 2
)

// MoodTracker ages piece moods turn by turn.
type MoodTracker struct {
	board  *Board
	events *eventQueue
}

func NewMoodTracker(board *Board) *MoodTracker {
	return &MoodTracker{board: board, events: board.events}
}

// SpreadHappiness makes every piece with a cell within radius of center Happy.
func (m *MoodTracker) SpreadHappiness(center types.Pos, radius int) {
	var seen [ArenaCapacity]bool
	for dx := -radius; dx <= radius; dx++ {
		for dy := -radius; dy <= radius; dy++ {
			p := m.board.At(center.Add(dx, dy))
			if p == nil || seen[p.ID] {
				continue
			}
			seen[p.ID] = true
			m.cheer(p, HappyTurns)
		}
	}
}

// MakeAllHappy makes every piece on the board Happy for turns turns.
func (m *MoodTracker) MakeAllHappy(turns int) {
	for _, p := range m.board.Pieces() {
		m.cheer(p, turns)
	}
}

func (m *MoodTracker) cheer(p *Piece, turns int) {
	p.HappyTurnsRemaining = turns
	m.set(p, types.Happy)
}

// ProcessTurnAging advances every piece by one turn. Happy pieces count down
// to Neutral; all others count idle turns and turn Sad at SadAfter.
func (m *MoodTracker) ProcessTurnAging() {
	for _, p := range m.board.Pieces() {
		if p.Mood == types.Happy {
			p.HappyTurnsRemaining--
			if p.HappyTurnsRemaining <= 0 {
				m.set(p, types.Neutral)
			}
			continue
		}
		p.TurnsSinceMatched++
		if p.TurnsSinceMatched >= SadAfter {
			m.set(p, types.Sad)
		}
	}
}

// AverageMultiplier is the mean mood multiplier of pieces, 1.0 for none.
func (m *MoodTracker) AverageMultiplier(pieces []*Piece) float64 {
	if len(pieces) == 0 {
		return 1.0
	}
	total := 0.0
	for _, p := range pieces {
		total += p.Mood.Multiplier()
	}
	return total / float64(len(pieces))
}

func (m *MoodTracker) set(p *Piece, mood types.Mood) {
	if p.Mood == mood {
		return
	}
	p.Mood = mood
	m.events.emit(engine.Event{Kind: engine.MoodChanged, Piece: infoPtr(p), Mood: &mood})
}
