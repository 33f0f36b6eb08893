package match

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"squishies/catalog"
	"squishies/engine"
	"squishies/types"
)

func newTestResolver(t *testing.T, seed uint64) (*Resolver, *Board, *eventQueue) {
	t.Helper()
	b, q := newTestBoard(seed)
	fillPattern(t, b)
	q.drain()
	return NewResolver(b, catalog.Default()), b, q
}

func TestPromotionTable(t *testing.T) {
	tests := []struct {
		n    int
		want types.Size
	}{
		{3, types.Normal},
		{4, types.Normal},
		{5, types.Large},
		{7, types.Large},
		{8, types.Giant},
		{20, types.Giant},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Promotion(tt.n), "path length %d", tt.n)
	}
}

func TestMatchPointsRounding(t *testing.T) {
	assert.Equal(t, 30, MatchPoints(3, 1.0))
	assert.Equal(t, 45, MatchPoints(3, 1.5))
	assert.Equal(t, 23, MatchPoints(3, 0.75)) // 22.5 rounds up
	assert.Equal(t, 0, MatchPoints(0, 1.0))
}

func TestCentroid(t *testing.T) {
	assert.Equal(t, pos(1, 0), centroidOf([]types.Pos{pos(0, 0), pos(1, 0), pos(2, 0)}))
	assert.Equal(t, pos(1, 1), centroidOf([]types.Pos{pos(0, 0), pos(1, 1)}), "0.5 rounds away from zero")
	assert.Equal(t, pos(0, 0), centroidOf(nil))
}

func TestResolveThreeCellMatch(t *testing.T) {
	r, b, q := newTestResolver(t, 1)
	// The only same-type component on the board: three Bloops along the bottom.
	setType(t, b, pos(1, 0), types.Bloop)
	setType(t, b, pos(2, 0), types.Bloop)
	require.Equal(t, []types.Pos{pos(0, 0), pos(1, 0), pos(2, 0)}, findMove(b))

	res, err := r.Resolve([]types.Pos{pos(0, 0), pos(1, 0), pos(2, 0)})
	require.NoError(t, err)

	assert.Equal(t, 30, res.ScoreDelta)
	assert.Equal(t, 30, r.Scorer().Total())
	assert.Equal(t, 3, res.MatchCount)
	assert.Len(t, res.Cleared, 3)
	assert.Equal(t, pos(1, 0), res.Centroid)
	assert.Equal(t, types.Normal, res.Promotion)
	assert.False(t, res.Combo)
	assert.Equal(t, types.Cells, b.Occupied())
	requirePartition(t, b)
	assert.False(t, b.Processing())
	assert.Equal(t, 1, r.Combo().Streak())

	events := q.drain()
	reshuffles := countKind(events, engine.BoardReshuffled)
	if res.Reshuffled {
		assert.Equal(t, 1, reshuffles)
	} else {
		assert.Equal(t, 0, reshuffles)
		assert.True(t, b.HasPossibleMoves())
	}
	assert.Equal(t, 3, countKind(events, engine.PieceCreated), "one refill per cleared cell")
	assert.Equal(t, []engine.Phase{engine.PhaseCleared, engine.PhaseGravity, engine.PhaseRefilled}, phases(events))
	assert.Equal(t, engine.TurnComplete, events[len(events)-1].Kind)
	assert.Equal(t, engine.MatchResolved, events[len(events)-2].Kind)
}

func TestResolveRejectsShortPaths(t *testing.T) {
	r, b, _ := newTestResolver(t, 1)
	setType(t, b, pos(1, 0), types.Bloop)

	_, err := r.Resolve([]types.Pos{pos(0, 0)})
	assert.ErrorIs(t, err, ErrPathTooShort)
	_, err = r.Resolve([]types.Pos{pos(0, 0), pos(1, 0)})
	assert.ErrorIs(t, err, ErrPathTooShort)
	assert.Equal(t, types.Cells, b.Occupied(), "rejected paths do not touch the board")
	assert.Equal(t, 0, r.Scorer().Total())
}

func TestResolveRejectsWhileProcessing(t *testing.T) {
	r, b, _ := newTestResolver(t, 1)
	require.True(t, b.acquire())
	_, err := r.Resolve([]types.Pos{pos(0, 0), pos(1, 0), pos(2, 0)})
	assert.ErrorIs(t, err, ErrBusy)
	b.release()
}

func TestResolveLargePromotion(t *testing.T) {
	r, b, _ := newTestResolver(t, 2)
	path := []types.Pos{pos(0, 0), pos(1, 0), pos(0, 1), pos(1, 1), pos(2, 0)}
	for _, p := range path {
		setType(t, b, p, types.Sunny)
	}
	r.Countdown().Start(10 * time.Second)

	res, err := r.Resolve(path)
	require.NoError(t, err)
	assert.Equal(t, types.Large, res.Promotion)
	require.True(t, res.Placed)
	assert.Equal(t, pos(0, 0), res.PlacedAt)
	assert.Equal(t, 5*PointsPerCell+LargeBonus, res.ScoreDelta)
	assert.Equal(t, LargeTimeBonus, res.TimeBonus)
	assert.Equal(t, 12*time.Second, r.Countdown().Remaining())

	large := b.At(pos(1, 1))
	require.NotNil(t, large)
	assert.Equal(t, types.Large, large.Size)
	assert.Equal(t, types.Sunny, large.Type)
	assert.Equal(t, types.Cells, b.Occupied())
	requirePartition(t, b)
}

func TestResolveGiantWithoutRoomStillFiresAbility(t *testing.T) {
	r, b, q := newTestResolver(t, 3)
	// Eight Limbos: the whole bottom row plus (6,1). Limbo's Giant clears a column.
	path := []types.Pos{pos(0, 0), pos(1, 0), pos(2, 0), pos(3, 0), pos(4, 0), pos(5, 0), pos(6, 0), pos(6, 1)}
	for _, p := range path {
		setType(t, b, p, types.Limbo)
	}

	res, err := r.Resolve(path)
	require.NoError(t, err)
	assert.Equal(t, types.Giant, res.Promotion)
	assert.False(t, res.Placed, "only the bottom row is free, a 3x3 cannot fit")
	assert.Equal(t, pos(3, 0), res.Centroid)
	assert.Equal(t, types.ColumnClear, res.Ability)
	// 80 for the match, 80 for the eight pieces left in column 3.
	assert.Equal(t, 160, res.ScoreDelta)
	assert.Equal(t, 160, r.Scorer().Total())
	assert.Equal(t, types.Cells, b.Occupied())
	requirePartition(t, b)

	events := q.drain()
	assert.Equal(t, 1, countKind(events, engine.AbilityFired))
	assert.Equal(t, []engine.Phase{
		engine.PhaseCleared,
		engine.PhaseAbility, engine.PhaseGravity, engine.PhaseRefilled,
		engine.PhaseGravity, engine.PhaseRefilled,
	}, phases(events))
}

func TestResolveGiantPlacement(t *testing.T) {
	r, b, _ := newTestResolver(t, 4)
	path := []types.Pos{pos(0, 0), pos(1, 0), pos(2, 0), pos(3, 0), pos(4, 0), pos(5, 0), pos(6, 0), pos(6, 1)}
	for _, p := range path {
		setType(t, b, p, types.Tangy)
	}
	// Free the top three rows so the Giant has somewhere to go.
	for x := 0; x < types.Columns; x++ {
		for y := 6; y < types.Rows; y++ {
			b.Clear(pos(x, y))
		}
	}

	res, err := r.Resolve(path)
	require.NoError(t, err)
	require.True(t, res.Placed)
	assert.Equal(t, pos(0, 6), res.PlacedAt)
	assert.Equal(t, types.HappinessBurst, res.Ability)
	assert.Equal(t, 80+GiantBonus, res.ScoreDelta)

	giant := b.At(pos(1, 7))
	require.NotNil(t, giant)
	assert.Equal(t, types.Giant, giant.Size)
	assert.Equal(t, types.Tangy, giant.Type)
	for _, p := range b.Pieces() {
		if p.Size == types.Giant {
			assert.Equal(t, types.Happy, p.Mood)
		}
	}
	assert.Equal(t, types.Cells, b.Occupied())
	requirePartition(t, b)
}

func TestResolveLargeCombo(t *testing.T) {
	r, b, _ := newTestResolver(t, 5)
	for _, p := range append(types.Footprint(pos(0, 0), types.Large), types.Footprint(pos(2, 0), types.Large)...) {
		b.Clear(p)
	}
	require.NotNil(t, b.Place(pos(0, 0), types.Rosie, types.Large))
	require.NotNil(t, b.Place(pos(2, 0), types.Plum, types.Large))
	r.Countdown().Start(time.Second)

	res, err := r.Resolve([]types.Pos{pos(1, 1), pos(2, 1)})
	require.NoError(t, err)
	assert.True(t, res.Combo)
	assert.Equal(t, types.Normal, res.Promotion)
	assert.Equal(t, 8, res.MatchCount)
	assert.Equal(t, ComboBonus, res.ScoreDelta)
	assert.Equal(t, ComboTimeBonus, res.TimeBonus)
	assert.Equal(t, 1, r.Combo().Streak())
	requirePartition(t, b)
}

func TestResolveSamePieceIsNotACombo(t *testing.T) {
	r, b, _ := newTestResolver(t, 5)
	for _, p := range types.Footprint(pos(0, 0), types.Large) {
		b.Clear(p)
	}
	require.NotNil(t, b.Place(pos(0, 0), types.Rosie, types.Large))
	_, err := r.Resolve([]types.Pos{pos(0, 0), pos(1, 1)})
	assert.ErrorIs(t, err, ErrPathTooShort)
}

func TestResolveMoodMultiplier(t *testing.T) {
	r, b, _ := newTestResolver(t, 6)
	path := []types.Pos{pos(0, 0), pos(1, 0), pos(2, 0)}
	setType(t, b, pos(1, 0), types.Bloop)
	setType(t, b, pos(2, 0), types.Bloop)
	b.At(pos(0, 0)).Mood = types.Happy
	b.At(pos(1, 0)).Mood = types.Happy
	b.At(pos(2, 0)).Mood = types.Sad

	res, err := r.Resolve(path)
	require.NoError(t, err)
	// mean(1.5, 1.5, 0.75) = 1.25
	assert.Equal(t, 38, res.ScoreDelta)
}

func TestResolveSpreadsHappinessAndAges(t *testing.T) {
	r, b, _ := newTestResolver(t, 6)
	setType(t, b, pos(1, 0), types.Bloop)
	setType(t, b, pos(2, 0), types.Bloop)
	far := b.At(pos(6, 8))
	// A reshuffle may move pieces, so hold on to the piece rather than its cell.
	near := b.At(pos(3, 2))

	_, err := r.Resolve([]types.Pos{pos(0, 0), pos(1, 0), pos(2, 0)})
	require.NoError(t, err)
	assert.Equal(t, 1, far.TurnsSinceMatched)
	assert.Equal(t, types.Happy, near.Mood)
	assert.Equal(t, HappyTurns-1, near.HappyTurnsRemaining, "aged once in the same turn")
}

func TestWildcardCarriesToNextMatch(t *testing.T) {
	r, b, _ := newTestResolver(t, 8)
	path := []types.Pos{pos(0, 0), pos(1, 0), pos(2, 0), pos(3, 0), pos(4, 0), pos(5, 0), pos(6, 0), pos(6, 1)}
	for _, p := range path {
		setType(t, b, p, types.Mochi)
	}
	res, err := r.Resolve(path)
	require.NoError(t, err)
	assert.Equal(t, types.Wildcard, res.Ability)
	assert.True(t, r.Wildcard().Active(), "set by this match, spent by the next")

	move := findMove(b)
	if move == nil {
		// Any three adjacent cells will do while the wildcard is up.
		move = []types.Pos{pos(0, 0), pos(1, 0), pos(2, 0)}
	}
	_, err = r.Resolve(move)
	require.NoError(t, err)
	assert.False(t, r.Wildcard().Active())
}

func TestResolveKeepsInvariantsOverManyTurns(t *testing.T) {
	b, _ := newTestBoard(42)
	b.Fill()
	r := NewResolver(b, nil)
	if !b.HasPossibleMoves() {
		b.Shuffle()
	}

	for turn := 0; turn < 60; turn++ {
		move := findMove(b)
		require.NotNil(t, move, "turn %d: board left without moves", turn)
		res, err := r.Resolve(move)
		require.NoError(t, err, "turn %d", turn)
		require.GreaterOrEqual(t, res.MatchCount, 3)
		require.Equal(t, types.Cells, b.Occupied(), "turn %d", turn)
		requirePartition(t, b)
	}
}
