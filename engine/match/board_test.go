package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"squishies/engine"
	"squishies/types"
)

func TestFillOccupiesEveryCell(t *testing.T) {
	b, _ := newTestBoard(1)
	b.Fill()
	assert.Equal(t, types.Cells, b.Occupied())
	requirePartition(t, b)

	active := b.ActiveTypes()
	for _, p := range b.Pieces() {
		assert.Equal(t, types.Normal, p.Size)
		assert.Equal(t, types.Neutral, p.Mood)
		assert.Contains(t, active, p.Type)
	}
}

func TestSetActiveTypeCountClamps(t *testing.T) {
	b, _ := newTestBoard(1)
	b.SetActiveTypeCount(2)
	assert.Len(t, b.ActiveTypes(), MinActiveTypes)
	b.SetActiveTypeCount(12)
	assert.Len(t, b.ActiveTypes(), MaxActiveTypes)
	b.SetActiveTypeCount(5)
	assert.Equal(t, []types.PieceType{types.Bloop, types.Rosie, types.Limbo, types.Sunny, types.Plum}, b.ActiveTypes())
}

func TestSpawnIntoOccupiedCellIsNoop(t *testing.T) {
	b, _ := newTestBoard(1)
	first := b.SpawnType(pos(2, 2), types.Rosie)
	require.NotNil(t, first)
	assert.Nil(t, b.Spawn(pos(2, 2)))
	assert.Nil(t, b.SpawnType(pos(2, 2), types.Bloop))
	assert.Nil(t, b.Spawn(pos(-1, 0)))
	assert.Equal(t, types.Rosie, b.At(pos(2, 2)).Type)
	assert.Equal(t, 1, b.Occupied())
}

func TestQueriesOutOfBounds(t *testing.T) {
	b, _ := newTestBoard(1)
	b.Fill()
	assert.False(t, b.IsValidPosition(pos(7, 0)))
	assert.Nil(t, b.At(pos(0, 9)))
	assert.False(t, b.IsEmpty(pos(-1, -1)))
	assert.Nil(t, b.Clear(pos(10, 10)))
}

func TestClearRemovesWholeFootprint(t *testing.T) {
	b, q := newTestBoard(1)
	large := b.Place(pos(1, 1), types.Limbo, types.Large)
	require.NotNil(t, large)
	assert.Equal(t, 4, b.Occupied())
	assert.Equal(t, large.ID, b.At(pos(2, 2)).ID)
	assert.ElementsMatch(t, []types.Pos{pos(1, 1), pos(1, 2), pos(2, 1), pos(2, 2)}, b.OccupiedCells(large))
	q.drain()

	cleared := b.Clear(pos(2, 2))
	assert.Len(t, cleared, 4)
	assert.Equal(t, 0, b.Occupied())
	assert.Equal(t, 0, b.arena.inUse())

	events := q.drain()
	require.Len(t, events, 1)
	assert.Equal(t, engine.PieceCleared, events[0].Kind)
	assert.Len(t, events[0].Cells, 4)
}

func TestPlaceRejectsOverlap(t *testing.T) {
	b, _ := newTestBoard(1)
	b.SpawnType(pos(3, 3), types.Bloop)
	assert.Nil(t, b.Place(pos(2, 2), types.Rosie, types.Giant))
	assert.Nil(t, b.Place(pos(5, 7), types.Rosie, types.Giant), "square leaves the board")
	assert.NotNil(t, b.Place(pos(4, 4), types.Rosie, types.Giant))
	requirePartition(t, b)
}

func TestArenaRecyclesSlots(t *testing.T) {
	b, _ := newTestBoard(1)
	b.Fill()
	for i := 0; i < 200; i++ {
		p := pos(i%types.Columns, (i/types.Columns)%types.Rows)
		b.Clear(p)
		require.NotNil(t, b.Spawn(p))
	}
	assert.Equal(t, types.Cells, b.arena.inUse())
	requirePartition(t, b)
}

func TestArenaExhausted(t *testing.T) {
	a := newArena()
	for i := 0; i < ArenaCapacity; i++ {
		_, err := a.alloc()
		require.NoError(t, err)
	}
	_, err := a.alloc()
	assert.ErrorIs(t, err, ErrArenaExhausted)
	a.release(5)
	p, err := a.alloc()
	require.NoError(t, err)
	assert.Equal(t, PieceID(5), p.ID)
}

func TestApplyGravity(t *testing.T) {
	b, _ := newTestBoard(1)
	// Column 0: pieces at 2 and 5 fall to 0 and 1.
	top := b.SpawnType(pos(0, 5), types.Rosie)
	low := b.SpawnType(pos(0, 2), types.Bloop)
	// Column 3: a Large piece hangs over empty cells and stays put,
	// the Normal piece above it stays too.
	large := b.Place(pos(3, 4), types.Limbo, types.Large)
	above := b.SpawnType(pos(3, 6), types.Sunny)

	moves := b.ApplyGravity()
	assert.Equal(t, 2+4, moves)
	assert.Equal(t, low.ID, b.At(pos(0, 0)).ID)
	assert.Equal(t, top.ID, b.At(pos(0, 1)).ID)
	assert.Equal(t, pos(0, 1), top.Origin)
	assert.True(t, b.IsEmpty(pos(0, 5)))

	assert.Equal(t, pos(3, 4), large.Origin)
	assert.Equal(t, large.ID, b.At(pos(4, 5)).ID)
	assert.Equal(t, above.ID, b.At(pos(3, 6)).ID)
	requirePartition(t, b)
}

func TestRefillOrder(t *testing.T) {
	b, _ := newTestBoard(1)
	b.Fill()
	b.Clear(pos(4, 2))
	b.Clear(pos(1, 8))
	b.Clear(pos(1, 0))

	filled := b.Refill()
	assert.Equal(t, []types.Pos{pos(1, 0), pos(1, 8), pos(4, 2)}, filled)
	assert.Equal(t, types.Cells, b.Occupied())
}

func TestHasPossibleMoves(t *testing.T) {
	b, _ := newTestBoard(1)
	fillPattern(t, b)
	assert.False(t, b.HasPossibleMoves(), "pattern board has no same-type neighbours")

	// Two same-type cells are not enough.
	setType(t, b, pos(1, 0), types.Bloop)
	assert.False(t, b.HasPossibleMoves())

	setType(t, b, pos(2, 1), types.Bloop)
	assert.True(t, b.HasPossibleMoves())
}

func TestHasPossibleMovesLargePiece(t *testing.T) {
	b, _ := newTestBoard(1)
	fillPattern(t, b)
	for _, p := range []types.Pos{pos(0, 0), pos(1, 0), pos(0, 1), pos(1, 1), pos(4, 4), pos(5, 4), pos(4, 5), pos(5, 5)} {
		b.Clear(p)
	}
	require.NotNil(t, b.Place(pos(0, 0), types.Plum, types.Large))
	require.NotNil(t, b.Place(pos(4, 4), types.Tangy, types.Large))
	// Each Large piece alone is a same-type component of 4 cells.
	assert.True(t, b.HasPossibleMoves())
}

func TestTouchesLargePiece(t *testing.T) {
	b, _ := newTestBoard(1)
	l1 := b.Place(pos(0, 0), types.Plum, types.Large)
	l2 := b.Place(pos(2, 1), types.Tangy, types.Large)
	require.NotNil(t, l1)
	require.NotNil(t, l2)
	assert.True(t, b.touchesLargePiece(pos(1, 1), l1))
	assert.False(t, b.touchesLargePiece(pos(0, 0), l1), "own cells do not count")
	assert.True(t, b.HasPossibleMoves())
}

func TestFindPlacementSquareEmptyBoard(t *testing.T) {
	b, _ := newTestBoard(1)
	corner, ok := b.FindPlacementSquare(pos(3, 4), 3)
	require.True(t, ok)
	assert.Equal(t, pos(3, 4), corner, "found at radius 0")
	for _, c := range types.Footprint(corner, types.Giant) {
		assert.True(t, b.IsEmpty(c))
	}
}

func TestFindPlacementSquareSearchesRings(t *testing.T) {
	b, _ := newTestBoard(1)
	b.Fill()
	_, ok := b.FindPlacementSquare(pos(3, 4), 2)
	assert.False(t, ok, "full board has no room")

	for _, p := range types.Footprint(pos(5, 6), types.Large) {
		b.Clear(p)
	}
	corner, ok := b.FindPlacementSquare(pos(1, 1), 2)
	require.True(t, ok)
	assert.Equal(t, pos(5, 6), corner)

	_, ok = b.FindPlacementSquare(pos(1, 1), 3)
	assert.False(t, ok)
}

func TestFindPlacementSquareScanOrder(t *testing.T) {
	b, _ := newTestBoard(1)
	b.Fill()
	// Two free 1x1 cells on the radius-1 ring of (3,4): dx=-1 comes first.
	b.Clear(pos(4, 3))
	b.Clear(pos(2, 5))
	corner, ok := b.FindPlacementSquare(pos(3, 4), 1)
	require.True(t, ok)
	assert.Equal(t, pos(2, 5), corner)
}

func TestShuffleKeepsLargePiecesInPlace(t *testing.T) {
	b, q := newTestBoard(7)
	fillPattern(t, b)
	for _, p := range types.Footprint(pos(2, 3), types.Large) {
		b.Clear(p)
	}
	large := b.Place(pos(2, 3), types.Sunny, types.Large)
	require.NotNil(t, large)
	happy := b.At(pos(6, 8))
	happy.Mood = types.Happy
	q.drain()

	ok := b.Shuffle()
	assert.Equal(t, b.HasPossibleMoves(), ok)
	assert.Equal(t, pos(2, 3), large.Origin)
	assert.Equal(t, large.ID, b.At(pos(3, 4)).ID)
	assert.Equal(t, types.Cells, b.Occupied())
	assert.Equal(t, types.Happy, b.arena.get(happy.ID).Mood, "moods travel with their piece")
	requirePartition(t, b)
	assert.Equal(t, 1, countKind(q.drain(), engine.BoardReshuffled))
}

func TestShuffleGivesUpOnHopelessBoard(t *testing.T) {
	b, _ := newTestBoard(3)
	b.SpawnType(pos(0, 0), types.Bloop)
	b.SpawnType(pos(6, 8), types.Rosie)
	assert.False(t, b.Shuffle())
	assert.Equal(t, 2, b.Occupied())
}

func TestSnapshotSharesMultiCellInfo(t *testing.T) {
	b, _ := newTestBoard(1)
	giant := b.Place(pos(0, 0), types.Mochi, types.Giant)
	require.NotNil(t, giant)
	b.SpawnType(pos(5, 5), types.Bloop)

	s := b.Snapshot()
	assert.Same(t, s.Board[0][0], s.Board[2][2])
	assert.Equal(t, types.Giant, s.At(pos(1, 1)).Size)
	assert.Equal(t, types.Bloop, s.At(pos(5, 5)).Type)
	assert.Nil(t, s.At(pos(6, 6)))
}
