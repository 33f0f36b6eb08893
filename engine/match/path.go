package match

import (
	"slices"

	"squishies/types"
)

// Path is the ordered list of cells drawn during one gesture.
type Path struct {
	cells []types.Pos
}

// NewPath returns a path holding cells as given, without validation.
func NewPath(cells ...types.Pos) *Path {
	return &Path{cells: slices.Clone(cells)}
}

func (p *Path) Len() int {
	return len(p.cells)
}

// Cells returns a copy of the path.
func (p *Path) Cells() []types.Pos {
	return slices.Clone(p.cells)
}

func (p *Path) Last() types.Pos {
	return p.cells[len(p.cells)-1]
}

func (p *Path) Contains(c types.Pos) bool {
	return slices.Contains(p.cells, c)
}

// Extend appends c.
func (p *Path) Extend(c types.Pos) {
	p.cells = append(p.cells, c)
}

func (p *Path) pop() {
	p.cells = p.cells[:len(p.cells)-1]
}

// Reset empties the path.
func (p *Path) Reset() {
	p.cells = p.cells[:0]
}

// WildcardFlag lets the next path ignore piece types. It is set by the
// Wildcard ability and consumed by the next resolution, not by the first type
// check, so a Wildcard formed by a match carries over to the following path.
type WildcardFlag struct {
	active bool
}

func (w *WildcardFlag) Set()         { w.active = true }
func (w *WildcardFlag) Active() bool { return w != nil && w.active }

// Consume clears the flag and reports whether it was set.
func (w *WildcardFlag) Consume() bool {
	was := w.active
	w.active = false
	return was
}

// PathValidator decides whether a gesture may move onto a cell.
type PathValidator struct {
	board    *Board
	wildcard *WildcardFlag
}

func NewPathValidator(board *Board, wildcard *WildcardFlag) *PathValidator {
	return &PathValidator{board: board, wildcard: wildcard}
}

// CanExtend reports whether candidate may follow path. Moving back onto the
// second-to-last cell is a backtrack: the last cell is popped from path and
// the move is accepted. Any other accepted candidate is not appended; use
// Offer for that.
func (v *PathValidator) CanExtend(path *Path, candidate types.Pos) bool {
	if !v.board.IsValidPosition(candidate) {
		return false
	}
	n := path.Len()
	if n >= 2 && candidate == path.cells[n-2] {
		path.pop()
		return true
	}
	if path.Contains(candidate) {
		return false
	}
	next := v.board.At(candidate)
	if next == nil || !next.Active {
		return false
	}
	if n == 0 {
		return true
	}
	if !path.Last().Adjacent(candidate) {
		return false
	}

	first := v.board.At(path.cells[0])
	if first == nil {
		return false
	}
	// Two touching Large/Giant pieces combo regardless of type.
	if n == 1 && first.Size != types.Normal && next.Size != types.Normal {
		return true
	}
	if v.wildcard.Active() {
		return true
	}
	return next.Type == first.Type
}

// Offer validates candidate and appends it when it was accepted as a new cell.
// Returns true if the path changed.
func (v *PathValidator) Offer(path *Path, candidate types.Pos) bool {
	n := path.Len()
	if !v.CanExtend(path, candidate) {
		return false
	}
	if path.Len() == n {
		path.Extend(candidate)
	}
	return true
}
