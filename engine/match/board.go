package match

import (
	"log/slog"
	"sync/atomic"

	"squishies/engine"
	"squishies/types"
)

const (
	// MinActiveTypes and MaxActiveTypes bound the spawnable type set.
	MinActiveTypes = 4
	MaxActiveTypes = types.NumPieceTypes

	// maxShuffleAttempts caps each of the two shuffle strategies.
	maxShuffleAttempts = 32
)

// Board owns grid occupancy and answers spatial queries.
// Cells are indexed [x][y] with y=0 at the bottom.
type Board struct {
	cells      [types.Columns][types.Rows]PieceID
	arena      *arena
	rng        engine.Rand
	active     int
	processing atomic.Bool

	events *eventQueue
	log    *slog.Logger
}

// NewBoard returns an empty board spawning from the first MinActiveTypes types.
func NewBoard(rng engine.Rand, logger *slog.Logger) *Board {
	return newBoard(rng, nil, logger)
}

func newBoard(rng engine.Rand, events *eventQueue, logger *slog.Logger) *Board {
	if logger == nil {
		logger = slog.Default()
	}
	b := &Board{
		arena:  newArena(),
		rng:    rng,
		active: MinActiveTypes,
		events: events,
		log:    logger,
	}
	b.clearGrid()
	return b
}

func (b *Board) clearGrid() {
	for x := range b.cells {
		for y := range b.cells[x] {
			b.cells[x][y] = NoPiece
		}
	}
	b.arena.reset()
}

// IsValidPosition reports whether p lies on the board.
func (b *Board) IsValidPosition(p types.Pos) bool {
	return p.InBounds()
}

// At returns the piece covering p, or nil for empty or out-of-bounds cells.
func (b *Board) At(p types.Pos) *Piece {
	if !p.InBounds() {
		return nil
	}
	return b.arena.get(b.cells[p.X][p.Y])
}

// IsEmpty reports whether p is on the board and holds no piece.
func (b *Board) IsEmpty(p types.Pos) bool {
	return p.InBounds() && b.cells[p.X][p.Y] == NoPiece
}

// Processing reports whether a resolution is running.
func (b *Board) Processing() bool {
	return b.processing.Load()
}

// acquire sets the processing flag. It fails if the flag was already set.
func (b *Board) acquire() bool {
	return b.processing.CompareAndSwap(false, true)
}

func (b *Board) release() {
	b.processing.Store(false)
}

// SetActiveTypeCount sets how many types spawn, clamped to 4..7.
// Pieces already on the board are unaffected.
func (b *Board) SetActiveTypeCount(n int) {
	b.active = min(max(n, MinActiveTypes), MaxActiveTypes)
}

// ActiveTypes returns the spawnable types in unlock order.
func (b *Board) ActiveTypes() []types.PieceType {
	out := make([]types.PieceType, b.active)
	copy(out, types.AllPieceTypes[:b.active])
	return out
}

func (b *Board) randomType() types.PieceType {
	return types.AllPieceTypes[b.rng.IntN(b.active)]
}

// Spawn places a Normal piece of a random active type at p.
// It is a no-op returning nil if p is invalid or occupied.
func (b *Board) Spawn(p types.Pos) *Piece {
	if !b.IsEmpty(p) {
		return nil
	}
	return b.SpawnType(p, b.randomType())
}

// SpawnType places a Normal piece of type t at p.
func (b *Board) SpawnType(p types.Pos, t types.PieceType) *Piece {
	piece := b.spawn(p, t)
	if piece != nil {
		b.events.emit(engine.Event{Kind: engine.PieceCreated, Piece: infoPtr(piece), Cells: []types.Pos{p}})
	}
	return piece
}

func (b *Board) spawn(p types.Pos, t types.PieceType) *Piece {
	if !b.IsEmpty(p) {
		return nil
	}
	piece, err := b.arena.alloc()
	if err != nil {
		b.log.Error("spawn failed", "pos", p, "error", err)
		return nil
	}
	piece.Type = t
	piece.Size = types.Normal
	piece.Origin = p
	b.cells[p.X][p.Y] = piece.ID
	return piece
}

// Place creates a piece of the given size with its bottom-left corner at origin.
// It returns nil unless the whole square is on the board and empty.
func (b *Board) Place(origin types.Pos, t types.PieceType, size types.Size) *Piece {
	if !b.squareFree(origin, size.Dim()) {
		return nil
	}
	piece, err := b.arena.alloc()
	if err != nil {
		b.log.Error("place failed", "origin", origin, "error", err)
		return nil
	}
	piece.Type = t
	piece.Size = size
	piece.Origin = origin
	cells := piece.Footprint()
	for _, c := range cells {
		b.cells[c.X][c.Y] = piece.ID
	}
	b.events.emit(engine.Event{Kind: engine.PieceCreated, Piece: infoPtr(piece), Cells: cells})
	return piece
}

// Clear removes the piece covering p, all of its footprint at once,
// and returns the cells that were emptied.
func (b *Board) Clear(p types.Pos) []types.Pos {
	piece := b.At(p)
	if piece == nil {
		return nil
	}
	cells := piece.Footprint()
	for _, c := range cells {
		b.cells[c.X][c.Y] = NoPiece
	}
	b.arena.release(piece.ID)
	b.events.emit(engine.Event{Kind: engine.PieceCleared, Cells: cells})
	return cells
}

// OccupiedCells returns the footprint of piece.
func (b *Board) OccupiedCells(piece *Piece) []types.Pos {
	if piece == nil {
		return nil
	}
	return piece.Footprint()
}

// ApplyGravity drops Normal pieces into empty cells below them, column by column,
// until nothing moves. Large and Giant pieces never fall. Returns the number of
// single-cell steps taken.
func (b *Board) ApplyGravity() int {
	moves := 0
	for x := 0; x < types.Columns; x++ {
		for moved := true; moved; {
			moved = false
			for y := 0; y < types.Rows-1; y++ {
				if b.cells[x][y] != NoPiece || b.cells[x][y+1] == NoPiece {
					continue
				}
				piece := b.arena.get(b.cells[x][y+1])
				if piece == nil || piece.Size != types.Normal {
					continue
				}
				b.cells[x][y] = piece.ID
				b.cells[x][y+1] = NoPiece
				piece.Origin = types.Pos{X: x, Y: y}
				moved = true
				moves++
			}
		}
	}
	return moves
}

// Refill spawns a random Normal piece in every empty cell, columns left to
// right and rows bottom to top, and returns the filled cells.
func (b *Board) Refill() []types.Pos {
	var filled []types.Pos
	for x := 0; x < types.Columns; x++ {
		for y := 0; y < types.Rows; y++ {
			p := types.Pos{X: x, Y: y}
			if b.Spawn(p) != nil {
				filled = append(filled, p)
			}
		}
	}
	return filled
}

// Fill empties the board and fills every cell with a random Normal piece.
func (b *Board) Fill() {
	b.clearGrid()
	for x := 0; x < types.Columns; x++ {
		for y := 0; y < types.Rows; y++ {
			b.spawn(types.Pos{X: x, Y: y}, b.randomType())
		}
	}
}

// Pieces returns every piece on the board once, in column-major order.
func (b *Board) Pieces() []*Piece {
	var seen [ArenaCapacity]bool
	var out []*Piece
	for x := 0; x < types.Columns; x++ {
		for y := 0; y < types.Rows; y++ {
			id := b.cells[x][y]
			if id == NoPiece || seen[id] {
				continue
			}
			seen[id] = true
			if p := b.arena.get(id); p != nil {
				out = append(out, p)
			}
		}
	}
	return out
}

// Occupied returns the number of non-empty cells.
func (b *Board) Occupied() int {
	n := 0
	for x := range b.cells {
		for y := range b.cells[x] {
			if b.cells[x][y] != NoPiece {
				n++
			}
		}
	}
	return n
}

// HasPossibleMoves reports whether some gesture can score: two different
// Large/Giant pieces touching, or three or more same-type cells connected
// through 8-way adjacency.
func (b *Board) HasPossibleMoves() bool {
	var visited [types.Columns][types.Rows]bool
	for x := 0; x < types.Columns; x++ {
		for y := 0; y < types.Rows; y++ {
			if visited[x][y] {
				continue
			}
			p := types.Pos{X: x, Y: y}
			piece := b.At(p)
			if piece == nil {
				continue
			}
			if piece.Size != types.Normal && b.touchesLargePiece(p, piece) {
				return true
			}
			if b.floodFill(p, piece.Type, &visited) >= 3 {
				return true
			}
		}
	}
	return false
}

func (b *Board) touchesLargePiece(p types.Pos, piece *Piece) bool {
	for dx := -1; dx <= 1; dx++ {
		for dy := -1; dy <= 1; dy++ {
			if dx == 0 && dy == 0 {
				continue
			}
			n := b.At(p.Add(dx, dy))
			if n != nil && n.ID != piece.ID && n.Size != types.Normal {
				return true
			}
		}
	}
	return false
}

// floodFill counts the cells of type t connected to start, marking them visited.
func (b *Board) floodFill(start types.Pos, t types.PieceType, visited *[types.Columns][types.Rows]bool) int {
	queue := []types.Pos{start}
	visited[start.X][start.Y] = true
	count := 0
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		count++
		for dx := -1; dx <= 1; dx++ {
			for dy := -1; dy <= 1; dy++ {
				n := cur.Add(dx, dy)
				if !n.InBounds() || visited[n.X][n.Y] {
					continue
				}
				piece := b.At(n)
				if piece == nil || piece.Type != t {
					continue
				}
				visited[n.X][n.Y] = true
				queue = append(queue, n)
			}
		}
	}
	return count
}

// Shuffle redistributes the Normal pieces over the cells they occupy until the
// board has a move. Large and Giant pieces stay where they are. After
// maxShuffleAttempts permutations it re-rolls the types of the Normal pieces
// instead. Returns whether the board ended up playable.
func (b *Board) Shuffle() bool {
	defer b.events.emit(engine.Event{Kind: engine.BoardReshuffled})

	var pieces []*Piece
	var positions []types.Pos
	for _, p := range b.Pieces() {
		if p.Size == types.Normal {
			pieces = append(pieces, p)
			positions = append(positions, p.Origin)
		}
	}

	for attempt := 0; attempt < maxShuffleAttempts; attempt++ {
		for i := len(pieces) - 1; i > 0; i-- {
			j := b.rng.IntN(i + 1)
			pieces[i], pieces[j] = pieces[j], pieces[i]
		}
		for i, p := range pieces {
			p.Origin = positions[i]
			b.cells[p.Origin.X][p.Origin.Y] = p.ID
		}
		if b.HasPossibleMoves() {
			b.log.Debug("board shuffled", "attempts", attempt+1)
			return true
		}
	}

	b.log.Debug("shuffle exhausted, re-rolling types", "pieces", len(pieces), "active_types", b.active)
	for attempt := 0; attempt < maxShuffleAttempts; attempt++ {
		for _, p := range pieces {
			p.Type = b.randomType()
		}
		if b.HasPossibleMoves() {
			return true
		}
	}
	b.log.Warn("board left without moves after shuffle")
	return false
}

// FindPlacementSquare searches Chebyshev rings around centroid, radius 0 outward,
// for the first bottom-left corner of an empty dim x dim square. Ring cells are
// visited dx-major, both ascending.
func (b *Board) FindPlacementSquare(centroid types.Pos, dim int) (types.Pos, bool) {
	maxRadius := max(types.Columns, types.Rows)
	for r := 0; r <= maxRadius; r++ {
		for dx := -r; dx <= r; dx++ {
			for dy := -r; dy <= r; dy++ {
				if r > 0 && dx != -r && dx != r && dy != -r && dy != r {
					continue
				}
				corner := centroid.Add(dx, dy)
				if b.squareFree(corner, dim) {
					return corner, true
				}
			}
		}
	}
	return types.Pos{}, false
}

func (b *Board) squareFree(corner types.Pos, dim int) bool {
	for dx := 0; dx < dim; dx++ {
		for dy := 0; dy < dim; dy++ {
			if !b.IsEmpty(corner.Add(dx, dy)) {
				return false
			}
		}
	}
	return true
}

// Snapshot returns a serializable copy of the grid. Every cell of a multi-cell
// piece points at the same PieceInfo.
func (b *Board) Snapshot() types.BoardState {
	var s types.BoardState
	for _, p := range b.Pieces() {
		info := infoPtr(p)
		for _, c := range p.Footprint() {
			s.Board[c.Y][c.X] = info
		}
	}
	s.ActiveTypes = b.ActiveTypes()
	s.Processing = b.Processing()
	return s
}
