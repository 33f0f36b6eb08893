package match

import (
	"io"
	"log/slog"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"

	"squishies/engine"
	"squishies/types"
)

var quietLog = slog.New(slog.NewTextHandler(io.Discard, nil))

func pos(x, y int) types.Pos { return types.Pos{X: x, Y: y} }

// newTestBoard returns an empty board recording events into q.
func newTestBoard(seed uint64) (*Board, *eventQueue) {
	q := &eventQueue{}
	return newBoard(rand.New(rand.NewPCG(seed, seed)), q, quietLog), q
}

// patternType gives every cell a type different from all 8 of its neighbours.
func patternType(x, y int) types.PieceType {
	return types.AllPieceTypes[(x+3*y)%types.NumPieceTypes]
}

// fillPattern fills b so that no two touching cells share a type.
func fillPattern(t *testing.T, b *Board) {
	t.Helper()
	b.clearGrid()
	for x := 0; x < types.Columns; x++ {
		for y := 0; y < types.Rows; y++ {
			require.NotNil(t, b.SpawnType(pos(x, y), patternType(x, y)))
		}
	}
}

// setType changes the type of the piece at p.
func setType(t *testing.T, b *Board, p types.Pos, typ types.PieceType) {
	t.Helper()
	piece := b.At(p)
	require.NotNil(t, piece, "no piece at %v", p)
	piece.Type = typ
}

// requirePartition checks that the footprints of the pieces tile exactly the
// occupied cells and that every occupied cell points at a live piece.
func requirePartition(t *testing.T, b *Board) {
	t.Helper()
	covered := 0
	for _, p := range b.Pieces() {
		require.True(t, p.Active)
		for _, c := range p.Footprint() {
			require.True(t, c.InBounds(), "piece %d outside board at %v", p.ID, c)
			require.Equal(t, p.ID, b.cells[c.X][c.Y], "cell %v does not point at piece %d", c, p.ID)
			covered++
		}
	}
	require.Equal(t, b.Occupied(), covered)
	require.Equal(t, len(b.Pieces()), b.arena.inUse())
}

// findMove returns a three-cell path of one type, or nil.
func findMove(b *Board) []types.Pos {
	for x := 0; x < types.Columns; x++ {
		for y := 0; y < types.Rows; y++ {
			a := pos(x, y)
			first := b.At(a)
			if first == nil {
				continue
			}
			for _, n1 := range neighbours(a) {
				if p := b.At(n1); p == nil || p.Type != first.Type {
					continue
				}
				for _, n2 := range neighbours(n1) {
					if n2 == a {
						continue
					}
					if p := b.At(n2); p != nil && p.Type == first.Type {
						return []types.Pos{a, n1, n2}
					}
				}
			}
		}
	}
	return nil
}

func neighbours(p types.Pos) []types.Pos {
	var out []types.Pos
	for dx := -1; dx <= 1; dx++ {
		for dy := -1; dy <= 1; dy++ {
			n := p.Add(dx, dy)
			if n != p && n.InBounds() {
				out = append(out, n)
			}
		}
	}
	return out
}

func countKind(events []engine.Event, kind engine.EventKind) int {
	n := 0
	for _, e := range events {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

func phases(events []engine.Event) []engine.Phase {
	var out []engine.Phase
	for _, e := range events {
		if e.Kind == engine.PhaseSettled {
			out = append(out, e.Phase)
		}
	}
	return out
}
