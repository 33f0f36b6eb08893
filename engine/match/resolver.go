package match

import (
	"log/slog"
	"math"
	"time"

	"squishies/catalog"
	"squishies/engine"
	"squishies/types"
)

// Path lengths that promote the match into a bigger piece.
const (
	LargeMinPath = 5
	GiantMinPath = 8
)

// Promotion returns the size a path of length n promotes into; Normal means none.
func Promotion(n int) types.Size {
	switch {
	case n >= GiantMinPath:
		return types.Giant
	case n >= LargeMinPath:
		return types.Large
	default:
		return types.Normal
	}
}

// Resolver turns a finished path into board changes, score and notifications.
// It owns the trackers a resolution drives.
type Resolver struct {
	board     *Board
	catalog   *catalog.Catalog
	validator *PathValidator
	combo     *ComboTracker
	moods     *MoodTracker
	abilities *AbilityExecutor
	scorer    *Scorer
	countdown *Countdown
	wildcard  *WildcardFlag

	events *eventQueue
	log    *slog.Logger
}

// NewResolver builds a resolver and its trackers around board.
func NewResolver(board *Board, cat *catalog.Catalog) *Resolver {
	if cat == nil {
		cat = catalog.Default()
	}
	r := &Resolver{
		board:     board,
		catalog:   cat,
		wildcard:  &WildcardFlag{},
		combo:     &ComboTracker{events: board.events},
		scorer:    &Scorer{events: board.events},
		countdown: &Countdown{events: board.events},
		events:    board.events,
		log:       board.log,
	}
	r.validator = NewPathValidator(board, r.wildcard)
	r.moods = NewMoodTracker(board)
	r.abilities = NewAbilityExecutor(board, r.moods, r.scorer, r.wildcard)
	return r
}

func (r *Resolver) Board() *Board { return r.board }
func (r *Resolver) Validator() *PathValidator { return r.validator }
func (r *Resolver) Combo() *ComboTracker { return r.combo }
func (r *Resolver) Moods() *MoodTracker { return r.moods }
func (r *Resolver) Abilities() *AbilityExecutor { return r.abilities }
func (r *Resolver) Scorer() *Scorer { return r.scorer }
func (r *Resolver) Countdown() *Countdown { return r.countdown }
func (r *Resolver) Wildcard() *WildcardFlag { return r.wildcard }
func (r *Resolver) Catalog() *catalog.Catalog { return r.catalog }

// Resolve runs the whole match pipeline for path. It fails with ErrBusy while
// another resolution holds the board and with ErrPathTooShort when path
// cannot score. Once started, a resolution always runs to completion.
//
// Newly formed lines after the refill are not cleared; only the existence of
// some legal move is restored.
func (r *Resolver) Resolve(path []types.Pos) (engine.MatchResult, error) {
	if !r.board.acquire() {
		return engine.MatchResult{}, ErrBusy
	}
	defer r.board.release()

	if len(path) < 2 {
		return engine.MatchResult{}, ErrPathTooShort
	}
	first := r.board.At(path[0])
	combo := len(path) == 2 && isCombo(first, r.board.At(path[1]))
	if len(path) < 3 && !combo {
		return engine.MatchResult{}, ErrPathTooShort
	}

	cells, pieces := r.collect(path)
	if len(pieces) == 0 || first == nil {
		return engine.MatchResult{}, ErrPathTooShort
	}
	matched := first.Type
	multiplier := r.moods.AverageMultiplier(pieces)
	centroid := centroidOf(cells)

	res := engine.MatchResult{
		Cleared:    cells,
		Centroid:   centroid,
		MatchCount: len(cells),
		Combo:      combo,
		Promotion:  types.Normal,
	}
	if !combo {
		res.Promotion = Promotion(len(path))
	}

	for _, c := range cells {
		r.board.Clear(c)
	}
	r.events.emit(settled(engine.PhaseCleared))

	// The flag is spent by this path. Consuming it before abilities run lets a
	// Wildcard formed by this match apply to the next one.
	r.wildcard.Consume()

	if combo {
		res.ScoreDelta = ComboBonus
	} else {
		res.ScoreDelta = MatchPoints(res.MatchCount, multiplier)
	}
	r.scorer.Add(res.ScoreDelta)

	switch res.Promotion {
	case types.Giant:
		r.promote(&res, matched, centroid, types.Giant, GiantBonus)
		ability := r.catalog.Ability(matched)
		res.Ability = ability
		ar := r.abilities.Execute(ability, centroid, matched)
		res.ScoreDelta += ar.Points
		res.Reshuffled = ar.Reshuffled
		res.TimeBonus += r.addTime(GiantTimeBonus)
	case types.Large:
		r.promote(&res, matched, centroid, types.Large, LargeBonus)
		res.TimeBonus += r.addTime(LargeTimeBonus)
	}
	if combo {
		res.TimeBonus += r.addTime(ComboTimeBonus)
	}

	r.combo.RegisterMatch()

	r.moods.SpreadHappiness(centroid, HappinessRadius)
	r.moods.ProcessTurnAging()

	r.board.ApplyGravity()
	r.events.emit(settled(engine.PhaseGravity))
	r.board.Refill()
	r.events.emit(settled(engine.PhaseRefilled))

	if !r.board.HasPossibleMoves() {
		r.board.Shuffle()
		res.Reshuffled = true
	}

	r.log.Debug("match resolved",
		"path", len(path),
		"cells", res.MatchCount,
		"combo", combo,
		"promotion", res.Promotion,
		"placed", res.Placed,
		"delta", res.ScoreDelta,
		"total", r.scorer.Total(),
	)
	r.events.emit(engine.Event{
		Kind:       engine.MatchResolved,
		Cells:      res.Cleared,
		Centroid:   posPtr(centroid),
		MatchCount: res.MatchCount,
		Combo:      combo,
		ScoreDelta: res.ScoreDelta,
		Total:      r.scorer.Total(),
	})
	r.events.emit(engine.Event{Kind: engine.TurnComplete})
	return res, nil
}

// promote places a piece of size near centroid. When no square fits, nothing
// is placed and no bonus is paid.
func (r *Resolver) promote(res *engine.MatchResult, t types.PieceType, centroid types.Pos, size types.Size, bonus int) {
	corner, ok := r.board.FindPlacementSquare(centroid, size.Dim())
	if !ok {
		r.log.Debug("no room for promoted piece", "size", size, "centroid", centroid)
		return
	}
	if r.board.Place(corner, t, size) == nil {
		return
	}
	res.Placed = true
	res.PlacedAt = corner
	res.ScoreDelta += bonus
	r.scorer.Add(bonus)
}

func (r *Resolver) addTime(d time.Duration) time.Duration {
	if !r.countdown.Enabled() {
		return 0
	}
	r.countdown.Add(d)
	return d
}

// collect returns the unique footprint cells and unique pieces along path,
// in path order.
func (r *Resolver) collect(path []types.Pos) ([]types.Pos, []*Piece) {
	var (
		seen   [ArenaCapacity]bool
		cells  []types.Pos
		pieces []*Piece
	)
	for _, p := range path {
		piece := r.board.At(p)
		if piece == nil || seen[piece.ID] {
			continue
		}
		seen[piece.ID] = true
		pieces = append(pieces, piece)
		cells = append(cells, piece.Footprint()...)
	}
	return cells, pieces
}

// isCombo reports whether a and b are two different Large/Giant pieces.
func isCombo(a, b *Piece) bool {
	return a != nil && b != nil && a.ID != b.ID && a.Size != types.Normal && b.Size != types.Normal
}

// centroidOf is the mean of cells, each coordinate rounded half away from zero.
func centroidOf(cells []types.Pos) types.Pos {
	if len(cells) == 0 {
		return types.Pos{}
	}
	var sx, sy int
	for _, c := range cells {
		sx += c.X
		sy += c.Y
	}
	n := float64(len(cells))
	return types.Pos{
		X: int(math.Round(float64(sx) / n)),
		Y: int(math.Round(float64(sy) / n)),
	}
}
