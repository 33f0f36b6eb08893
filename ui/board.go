// Package ui specifies custom controls for tview to play squishies in the terminal.
package ui

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"squishies/catalog"
	"squishies/config"
	"squishies/engine"
	"squishies/record"
	"squishies/types"
)

// Style slots.
const (
	styleBackground = iota
	styleEmpty
	styleCursorFG
	styleCursorBG
	stylePathBG
)

type BoardUI struct {
	Box        *tview.Box
	BoardState *types.BoardState
	hint       *tview.TextView
	cfg        *config.Config
	cat        *catalog.Catalog
	log        *slog.Logger
	finished   bool
	paused     bool
	selX       int
	selY       int
	path       []types.Pos
	message    string
	app        *tview.Application
	eng        engine.GameEngine
	rec        *record.GameRecord
	styles     []tcell.Color
	typeColors [types.NumPieceTypes]tcell.Color
	infoPanel  *GameInfoPanel
	focusMode  bool
}

// ToggleFocusMode toggles focus mode and returns the new state.
func (g *BoardUI) ToggleFocusMode() bool {
	g.focusMode = !g.focusMode
	g.refreshHint()
	return g.focusMode
}

// SetFocusMode sets focus mode to the given state.
func (g *BoardUI) SetFocusMode(enabled bool) {
	g.focusMode = enabled
	g.refreshHint()
}

func (g *BoardUI) IsFocusMode() bool {
	return g.focusMode
}

func (g *BoardUI) SelectedTile() *types.Pos {
	if g.selX == -1 && g.selY == -1 {
		return nil
	}
	return &types.Pos{X: g.selX, Y: g.selY}
}

// MoveSelection moves the cursor by (h, v); v > 0 is up. While a path is
// being drawn the new cell is offered to it, so walking the cursor drags the
// path and stepping back onto the previous cell undoes the last step.
func (g *BoardUI) MoveSelection(h, v int) {
	if g.finished {
		g.ResetSelection()
		return
	}
	prev := g.SelectedTile()
	if prev == nil {
		g.selX, g.selY = types.Columns/2, types.Rows/2
		return
	}
	next := prev.Add(h, v)
	if !next.InBounds() {
		return
	}
	g.selX, g.selY = next.X, next.Y
	if len(g.path) > 0 && g.eng != nil {
		g.eng.ExtendPath(next)
		g.path = g.eng.Path()
	}
}

func (g *BoardUI) ResetSelection() {
	g.selX = -1
	g.selY = -1
}

func NewBoard(app *tview.Application, c *config.Config, cat *catalog.Catalog, hint *tview.TextView, logger *slog.Logger) *BoardUI {
	if cat == nil {
		cat = catalog.Default()
	}
	if logger == nil {
		logger = slog.Default()
	}
	board := &BoardUI{
		Box:        tview.NewBox(),
		BoardState: &types.BoardState{},
		hint:       hint,
		app:        app,
		cat:        cat,
		log:        logger,
		selX:       -1,
		selY:       -1,
	}
	board.SetConfig(c)
	board.Box.SetDrawFunc(board.draw)
	return board
}

func (g *BoardUI) draw(screen tcell.Screen, x int, y int, width int, height int) (int, int, int, int) {
	if g.BoardState == nil {
		return x, y, 1, 1
	}
	// 2 characters per cell for square appearance
	boardW, boardH := types.Columns*2, types.Rows
	left := x + 4
	inPath := make(map[types.Pos]bool, len(g.path))
	for _, p := range g.path {
		inPath[p] = true
	}

	for by := 0; by < types.Rows; by++ {
		for bx := 0; bx < types.Columns; bx++ {
			p := types.Pos{X: bx, Y: by}
			piece := g.BoardState.At(p)
			first, second := g.cellRunes(piece, p)

			style := tcell.StyleDefault.Background(g.styles[styleBackground]).Foreground(g.styles[styleEmpty])
			if piece != nil {
				fg := g.typeColors[piece.Type]
				if g.cfg.Theme.DrawPieceBackground || piece.Size != types.Normal {
					style = style.Background(fg).Foreground(g.styles[styleBackground])
				} else {
					style = style.Foreground(fg)
				}
			}
			if inPath[p] {
				style = style.Background(g.styles[stylePathBG])
			}
			if bx == g.selX && by == g.selY {
				style = style.Background(g.styles[styleCursorBG]).Foreground(g.styles[styleCursorFG])
			}
			drawCell(screen, style, first, second, bx, by, left, y)
		}
	}
	drawCoordinates(screen, x, y, g)
	return x, y, boardW + 4, boardH + 2
}

// cellRunes returns the two characters drawn for cell p.
func (g *BoardUI) cellRunes(piece *types.PieceInfo, p types.Pos) (rune, rune) {
	sym := g.cfg.Theme.Symbols
	if piece == nil {
		return firstRune(sym.Empty, '·'), ' '
	}
	first := g.cat.Glyph(piece.Type)
	if piece.Size != types.Normal && p != piece.Origin {
		block := sym.Large
		if piece.Size == types.Giant {
			block = sym.Giant
		}
		first = firstRune(block, '▓')
	}
	second := ' '
	if g.cfg.Theme.ShowMoods {
		switch piece.Mood {
		case types.Happy:
			second = firstRune(sym.Happy, '^')
		case types.Sad:
			second = firstRune(sym.Sad, 'v')
		}
	}
	return first, second
}

func firstRune(s string, fallback rune) rune {
	for _, r := range s {
		return r
	}
	return fallback
}

// ConnectEngine connects the board to a started session. rec may be nil.
func (g *BoardUI) ConnectEngine(e engine.GameEngine, rec *record.GameRecord) {
	g.finished = false
	g.paused = false
	g.path = nil
	g.message = ""
	g.eng = e
	g.rec = rec

	e.OnEvent(g.handleEvent)

	g.BoardState = e.BoardState()
	g.selX, g.selY = types.Columns/2, types.Rows/2
	if g.infoPanel != nil {
		g.infoPanel.Reset()
	}
	g.refreshHint()
}

// handleEvent runs on the tview goroutine: every call into the engine is
// made from an input handler or a queued update.
func (g *BoardUI) handleEvent(e engine.Event) {
	if g.infoPanel != nil {
		g.infoPanel.AddEvent(e)
	}
	switch e.Kind {
	case engine.GameOver:
		g.finished = true
		g.path = nil
		g.ResetSelection()
		g.closeRecord(e.Total)
		if e.NewBest {
			g.message = fmt.Sprintf("New best: %d!", e.Total)
		}
	case engine.BoardReshuffled:
		g.message = "No moves left, board reshuffled"
	case engine.AbilityFired:
		if e.Ability != nil {
			g.message = fmt.Sprintf("%s!", e.Ability)
		}
	}
	if e.Kind == engine.TurnComplete || e.Kind == engine.GameOver || e.Kind == engine.TimeChanged {
		g.BoardState = g.eng.BoardState()
		g.refreshHint()
	}
}

// Select begins a path at the cursor, or extends the current one.
func (g *BoardUI) Select() {
	if g.finished || g.eng == nil {
		return
	}
	sel := g.SelectedTile()
	if sel == nil {
		return
	}
	if len(g.path) == 0 {
		g.eng.BeginPath(*sel)
	} else {
		g.eng.ExtendPath(*sel)
	}
	g.path = g.eng.Path()
	g.refreshHint()
}

// Complete resolves the path being drawn.
func (g *BoardUI) Complete() {
	if g.finished || g.eng == nil || len(g.path) == 0 {
		return
	}
	path := g.eng.Path()
	res, err := g.eng.CompletePath()
	g.path = nil
	if err != nil {
		g.message = err.Error()
		g.refreshHint()
		return
	}
	if g.rec != nil {
		if err := g.rec.AddPath(path); err != nil {
			g.log.Warn("failed to record path", "error", err)
		}
	}
	g.message = describeResult(res)
	g.BoardState = g.eng.BoardState()
	g.refreshHint()
}

// Cancel drops the path being drawn.
func (g *BoardUI) Cancel() {
	if g.eng == nil {
		return
	}
	g.eng.CancelPath()
	g.path = nil
	g.refreshHint()
}

// TogglePause pauses or resumes the session.
func (g *BoardUI) TogglePause() {
	if g.finished || g.eng == nil {
		return
	}
	g.paused = !g.paused
	if g.paused {
		g.eng.CancelPath()
		g.path = nil
		g.eng.Pause()
	} else {
		g.eng.Resume()
	}
	g.BoardState = g.eng.BoardState()
	g.refreshHint()
}

// Tick advances the session timers.
func (g *BoardUI) Tick(dt time.Duration) {
	if g.eng == nil || g.finished || g.paused {
		return
	}
	g.eng.Tick(dt)
}

// Close ends the session if it is still running.
func (g *BoardUI) Close() {
	if g.eng == nil {
		return
	}
	if !g.finished {
		g.eng.End()
	}
	g.closeRecord(g.eng.BoardState().Score)
	g.eng = nil
}

func (g *BoardUI) closeRecord(score int) {
	if g.rec == nil {
		return
	}
	if err := g.rec.SetResult(score); err != nil {
		g.log.Warn("failed to write record result", "error", err)
	}
	if err := g.rec.Close(); err != nil {
		g.log.Warn("failed to close record", "error", err)
	}
	g.rec = nil
}

func (g *BoardUI) SetConfig(c *config.Config) {
	g.styles = []tcell.Color{
		tcell.PaletteColor(c.Theme.Colors.Background), // 0
		tcell.PaletteColor(c.Theme.Colors.Empty),      // 1
		tcell.PaletteColor(c.Theme.Colors.CursorFG),   // 2
		tcell.PaletteColor(c.Theme.Colors.CursorBG),   // 3
		tcell.PaletteColor(c.Theme.Colors.PathBG),     // 4
	}
	for _, t := range types.AllPieceTypes {
		colour := g.cat.Entry(t).Colour
		if override, ok := c.Theme.TypeColor(t); ok {
			colour = override
		}
		g.typeColors[t] = tcell.PaletteColor(colour)
	}
	g.cfg = c
}

func (g *BoardUI) refreshHint() {
	if g.infoPanel != nil {
		g.infoPanel.SetBoardState(g.BoardState)
	}

	if g.focusMode {
		g.hint.SetText("  f to toggle")
		return
	}

	var statusLine, controlsLine string

	switch {
	case g.finished:
		statusLine = fmt.Sprintf("  Game over · score %d", g.BoardState.Score)
		if g.message != "" {
			statusLine += " · " + g.message
		}
		controlsLine = "\n  q · return to menu"
	case g.paused:
		statusLine = "  ❚❚ Paused"
		controlsLine = "\n  p resume   q quit"
	default:
		statusLine = "  " + g.message
		if len(g.path) > 0 {
			statusLine = fmt.Sprintf("  Path: %d cells", len(g.path))
		}
		controlsLine = "\n  hjkl/yubn move   ␣ select   ⏎ match   esc cancel   p pause   q quit"
	}

	g.hint.SetText(statusLine + controlsLine)
}

func (g *BoardUI) IsFinished() bool {
	return g.finished
}

// describeResult summarises a resolution for the status line.
func describeResult(res engine.MatchResult) string {
	s := fmt.Sprintf("+%d", res.ScoreDelta)
	if res.Combo {
		s += " · combo"
	}
	switch res.Promotion {
	case types.Large:
		s += " · Large"
	case types.Giant:
		s += " · Giant"
	}
	if res.Ability != types.AbilityNone {
		s += fmt.Sprintf(" · %s", res.Ability)
	}
	if res.TimeBonus > 0 {
		s += fmt.Sprintf(" · +%.0fs", res.TimeBonus.Seconds())
	}
	if res.Reshuffled {
		s += " · reshuffled"
	}
	return s
}

// drawCell draws one board cell (2 characters wide). Board row 0 is at the bottom.
func drawCell(s tcell.Screen, c tcell.Style, first, second rune, x, y, l, t int) {
	row := t + types.Rows - 1 - y
	s.SetContent(l+x*2, row, first, nil, c)
	s.SetContent(l+x*2+1, row, second, nil, c)
}

func drawCoordinates(s tcell.Screen, x, y int, ui *BoardUI) {
	style := tcell.StyleDefault
	highlight := tcell.StyleDefault.Background(ui.styles[styleCursorBG]).Foreground(ui.styles[styleCursorFG])

	for ix := 0; ix < types.Columns; ix++ {
		_style := style
		if ix == ui.selX {
			_style = highlight
		}
		s.SetContent(x+4+(ix*2), y+types.Rows+1, rune('A'+ix), nil, _style)
		s.SetContent(x+4+(ix*2)+1, y+types.Rows+1, ' ', nil, _style)
	}

	for iy := 0; iy < types.Rows; iy++ {
		_style := style
		if iy == ui.selY {
			_style = highlight
		}
		s.SetContent(x+2, y+types.Rows-iy-1, rune('1'+iy), nil, _style)
	}
}
