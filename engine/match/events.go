package match

import (
	"squishies/engine"
	"squishies/types"
)

// eventQueue buffers notifications raised while a session holds its lock.
// A nil queue drops everything, which keeps standalone components usable.
type eventQueue struct {
	pending []engine.Event
}

func (q *eventQueue) emit(e engine.Event) {
	if q == nil {
		return
	}
	q.pending = append(q.pending, e)
}

func (q *eventQueue) drain() []engine.Event {
	if q == nil || len(q.pending) == 0 {
		return nil
	}
	out := q.pending
	q.pending = nil
	return out
}

func settled(phase engine.Phase) engine.Event {
	return engine.Event{Kind: engine.PhaseSettled, Phase: phase}
}

func posPtr(p types.Pos) *types.Pos {
	return &p
}

func infoPtr(p *Piece) *types.PieceInfo {
	info := p.Info()
	return &info
}
