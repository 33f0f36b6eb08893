package match

import "squishies/types"

// ArenaCapacity is the number of piece slots. A 7x9 board never needs more than 63.
const ArenaCapacity = 80

// PieceID is a stable arena slot index.
type PieceID int

// NoPiece marks an empty cell.
const NoPiece PieceID = -1

// Piece is one matchable token. Large and Giant pieces cover a square footprint
// whose bottom-left corner is Origin; every cell of it points at the same ID.
type Piece struct {
	ID                  PieceID
	Type                types.PieceType
	Size                types.Size
	Mood                types.Mood
	TurnsSinceMatched   int
	HappyTurnsRemaining int
	Origin              types.Pos
	Active              bool
}

// Footprint returns the cells the piece occupies.
func (p *Piece) Footprint() []types.Pos {
	return types.Footprint(p.Origin, p.Size)
}

// Info returns a value copy of the piece.
func (p *Piece) Info() types.PieceInfo {
	return types.PieceInfo{
		ID:     int(p.ID),
		Type:   p.Type,
		Size:   p.Size,
		Mood:   p.Mood,
		Origin: p.Origin,
	}
}

// arena is a fixed pool of piece slots with a LIFO free list.
type arena struct {
	slots [ArenaCapacity]Piece
	free  []PieceID
}

func newArena() *arena {
	a := &arena{}
	a.reset()
	return a
}

// reset frees every slot. The free list is ordered so slot 0 is handed out first.
func (a *arena) reset() {
	a.free = a.free[:0]
	for i := ArenaCapacity - 1; i >= 0; i-- {
		a.slots[i] = Piece{ID: PieceID(i)}
		a.free = append(a.free, PieceID(i))
	}
}

func (a *arena) alloc() (*Piece, error) {
	if len(a.free) == 0 {
		return nil, ErrArenaExhausted
	}
	id := a.free[len(a.free)-1]
	a.free = a.free[:len(a.free)-1]
	p := &a.slots[id]
	*p = Piece{ID: id, Active: true}
	return p, nil
}

func (a *arena) release(id PieceID) {
	if id < 0 || int(id) >= ArenaCapacity || !a.slots[id].Active {
		return
	}
	a.slots[id].Active = false
	a.free = append(a.free, id)
}

func (a *arena) get(id PieceID) *Piece {
	if id < 0 || int(id) >= ArenaCapacity {
		return nil
	}
	p := &a.slots[id]
	if !p.Active {
		return nil
	}
	return p
}

func (a *arena) inUse() int {
	return ArenaCapacity - len(a.free)
}
