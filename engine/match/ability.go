package match

import (
	"log/slog"
	"slices"

	"squishies/engine"
	"squishies/types"
)

// AbilityRadius is the Chebyshev radius of RadialBurst.
const AbilityRadius = 2

// AbilityResult describes what an ability did.
type AbilityResult struct {
	Ability    types.Ability
	Cleared    []types.Pos
	Drained    *types.PieceType // ColorDrain target
	Points     int
	Reshuffled bool
}

// AbilityExecutor runs the area effect of a freshly formed Giant.
type AbilityExecutor struct {
	board    *Board
	moods    *MoodTracker
	scorer   *Scorer
	wildcard *WildcardFlag
	events   *eventQueue
	log      *slog.Logger
}

func NewAbilityExecutor(board *Board, moods *MoodTracker, scorer *Scorer, wildcard *WildcardFlag) *AbilityExecutor {
	return &AbilityExecutor{
		board:    board,
		moods:    moods,
		scorer:   scorer,
		wildcard: wildcard,
		events:   board.events,
		log:      board.log,
	}
}

// Execute fires ability at trigger. matched is the type of the match that
// formed the Giant; ColorDrain never drains it.
func (a *AbilityExecutor) Execute(ability types.Ability, trigger types.Pos, matched types.PieceType) AbilityResult {
	res := AbilityResult{Ability: ability}
	switch ability {
	case types.RadialBurst:
		a.clearAndResolve(&res, a.radialTargets(trigger))
	case types.RowClear:
		a.clearAndResolve(&res, a.lineTargets(func(p types.Pos) bool { return p.Y == trigger.Y }))
	case types.ColumnClear:
		a.clearAndResolve(&res, a.lineTargets(func(p types.Pos) bool { return p.X == trigger.X }))
	case types.ColorDrain:
		present := a.typesOnBoard(matched)
		if len(present) == 0 {
			break
		}
		target := present[a.board.rng.IntN(len(present))]
		res.Drained = &target
		a.clearAndResolve(&res, a.lineTargets(func(p types.Pos) bool {
			piece := a.board.At(p)
			return piece != nil && piece.Type == target
		}))
	case types.ShuffleBoard:
		a.board.Shuffle()
		res.Reshuffled = true
	case types.HappinessBurst:
		a.moods.MakeAllHappy(HappyTurns)
	case types.Wildcard:
		a.wildcard.Set()
	default:
		return res
	}

	a.log.Debug("ability fired", "ability", ability, "trigger", trigger, "cleared", len(res.Cleared), "points", res.Points)
	a.events.emit(engine.Event{Kind: engine.AbilityFired, Ability: &ability, Cells: res.Cleared, Centroid: posPtr(trigger), ScoreDelta: res.Points})
	return res
}

func (a *AbilityExecutor) radialTargets(trigger types.Pos) []types.Pos {
	var out []types.Pos
	for dx := -AbilityRadius; dx <= AbilityRadius; dx++ {
		for dy := -AbilityRadius; dy <= AbilityRadius; dy++ {
			p := trigger.Add(dx, dy)
			if a.board.At(p) != nil {
				out = append(out, p)
			}
		}
	}
	return out
}

// lineTargets returns every occupied cell accepted by keep, column-major.
func (a *AbilityExecutor) lineTargets(keep func(types.Pos) bool) []types.Pos {
	var out []types.Pos
	for x := 0; x < types.Columns; x++ {
		for y := 0; y < types.Rows; y++ {
			p := types.Pos{X: x, Y: y}
			if a.board.At(p) != nil && keep(p) {
				out = append(out, p)
			}
		}
	}
	return out
}

// typesOnBoard lists the distinct types on the board other than exclude, in
// first-seen column-major order.
func (a *AbilityExecutor) typesOnBoard(exclude types.PieceType) []types.PieceType {
	var out []types.PieceType
	for _, p := range a.board.Pieces() {
		if p.Type != exclude && !slices.Contains(out, p.Type) {
			out = append(out, p.Type)
		}
	}
	return out
}

// clearAndResolve clears targets, scores the emptied cells at a neutral
// multiplier, then drops and refills the board.
func (a *AbilityExecutor) clearAndResolve(res *AbilityResult, targets []types.Pos) {
	for _, p := range targets {
		res.Cleared = append(res.Cleared, a.board.Clear(p)...)
	}
	if len(res.Cleared) == 0 {
		return
	}
	res.Points = MatchPoints(len(res.Cleared), 1.0)
	a.scorer.Add(res.Points)
	a.events.emit(settled(engine.PhaseAbility))

	a.board.ApplyGravity()
	a.events.emit(settled(engine.PhaseGravity))
	a.board.Refill()
	a.events.emit(settled(engine.PhaseRefilled))
}
