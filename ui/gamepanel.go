package ui

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"squishies/catalog"
	"squishies/engine"
	"squishies/engine/match"
	"squishies/types"
)

const maxVisibleEvents = 10

// GameInfoPanel displays score, timers and recent events alongside the board.
type GameInfoPanel struct {
	box        *tview.TextView
	boardState *types.BoardState
	cat        *catalog.Catalog
	events     []string
}

// NewGameInfoPanel creates a new game info panel.
func NewGameInfoPanel(cat *catalog.Catalog) *GameInfoPanel {
	if cat == nil {
		cat = catalog.Default()
	}
	panel := &GameInfoPanel{
		box: tview.NewTextView(),
		cat: cat,
	}

	panel.box.SetDynamicColors(true)
	panel.box.SetBorder(false)
	panel.box.SetTextAlign(tview.AlignLeft)

	return panel
}

// Box returns the underlying tview component.
func (p *GameInfoPanel) Box() *tview.TextView {
	return p.box
}

// SetBoardState updates the panel with current board state.
func (p *GameInfoPanel) SetBoardState(state *types.BoardState) {
	p.boardState = state
	p.refresh()
}

// Reset clears the event log.
func (p *GameInfoPanel) Reset() {
	p.events = nil
}

// AddEvent appends a notable event to the log.
func (p *GameInfoPanel) AddEvent(e engine.Event) {
	line := eventLine(e)
	if line == "" {
		return
	}
	p.events = append(p.events, line)
	if len(p.events) > maxVisibleEvents {
		p.events = p.events[len(p.events)-maxVisibleEvents:]
	}
}

// eventLine formats the events worth showing; the rest return "".
func eventLine(e engine.Event) string {
	switch e.Kind {
	case engine.MatchResolved:
		s := fmt.Sprintf("match %d  +%d", e.MatchCount, e.ScoreDelta)
		if e.Combo {
			s = "combo!  +" + fmt.Sprint(e.ScoreDelta)
		}
		return s
	case engine.PieceCreated:
		if e.Piece != nil && e.Piece.Size != types.Normal {
			return fmt.Sprintf("[yellow]%s %s[-]", e.Piece.Size, e.Piece.Type)
		}
	case engine.AbilityFired:
		if e.Ability != nil {
			return fmt.Sprintf("[aqua]%s[-] %d cells", e.Ability, len(e.Cells))
		}
	case engine.ComboChanged:
		if tier := match.TierName(e.Level); tier != "" {
			return fmt.Sprintf("[green]%s![-]", tier)
		}
	case engine.BestScoreBeaten:
		return "[yellow::b]best beaten[-:-:-]"
	case engine.BoardReshuffled:
		return "reshuffled"
	case engine.GameOver:
		return fmt.Sprintf("[white::b]game over %d[-:-:-]", e.Total)
	}
	return ""
}

// refresh updates the panel text.
func (p *GameInfoPanel) refresh() {
	if p.boardState == nil {
		p.box.SetText("")
		return
	}
	st := p.boardState

	var b strings.Builder

	b.WriteString("[white::b]Game Info[-:-:-]\n")
	b.WriteString("[dimgray]──────────────────────[-:-:-]\n")

	fmt.Fprintf(&b, "[white]Mode:[-:-:-]  %s\n", st.Mode)
	fmt.Fprintf(&b, "[white]Score:[-:-:-] %d\n", st.Score)
	fmt.Fprintf(&b, "[white]Best:[-:-:-]  %d\n", st.Best)
	fmt.Fprintf(&b, "[white]Turn:[-:-:-]  %d\n", st.Turn)
	if st.Mode == types.Rush {
		fmt.Fprintf(&b, "[white]Time:[-:-:-]  %.0fs\n", st.TimeRemaining)
	}
	if tier := match.TierName(st.ComboLevel); tier != "" {
		fmt.Fprintf(&b, "[white]Combo:[-:-:-] [green]%s[-]\n", tier)
	}
	if st.Wildcard {
		b.WriteString("[aqua]Wildcard ready[-]\n")
	}

	b.WriteString("\n[white::b]Types[-:-:-]\n")
	b.WriteString("[dimgray]──────────────────────[-:-:-]\n")
	for _, t := range st.ActiveTypes {
		e := p.cat.Entry(t)
		fmt.Fprintf(&b, "[#%06x]%s[-] %s\n", tcell.PaletteColor(e.Colour).Hex(), e.Glyph, e.Display)
	}

	if len(p.events) > 0 {
		b.WriteString("\n[white::b]Events[-:-:-]\n")
		b.WriteString("[dimgray]──────────────────────[-:-:-]\n")
		for i, line := range p.events {
			marker := " "
			if i == len(p.events)-1 {
				marker = "[white]>[-]"
			}
			fmt.Fprintf(&b, "%s %s\n", marker, line)
		}
	}

	p.box.SetText(b.String())
}

// CreateGameLayout creates the main game layout with board and side panel.
func CreateGameLayout(board *BoardUI, hint *tview.TextView) *tview.Flex {
	mainFlex := tview.NewFlex()
	RebuildNormalLayout(mainFlex, board, hint)
	return mainFlex
}

// CreateCenteredForm creates a centered form container for the setup screen.
func CreateCenteredForm(form tview.Primitive, maxWidth int) *tview.Flex {
	centered := tview.NewFlex().SetDirection(tview.FlexColumn)
	centered.AddItem(nil, 0, 1, false)
	centered.AddItem(form, maxWidth, 0, true)
	centered.AddItem(nil, 0, 1, false)

	return centered
}

// RebuildNormalLayout restores the normal game layout with board, info panel, and hint.
func RebuildNormalLayout(gameFrame *tview.Flex, board *BoardUI, hint *tview.TextView) {
	gameFrame.Clear()

	infoPanel := board.infoPanel
	if infoPanel == nil {
		infoPanel = NewGameInfoPanel(board.cat)
		board.infoPanel = infoPanel
	}
	if board.BoardState != nil {
		infoPanel.SetBoardState(board.BoardState)
	}

	// board | info panel
	boardRow := tview.NewFlex().SetDirection(tview.FlexColumn)
	boardRow.AddItem(board.Box, 0, 1, true)
	boardRow.AddItem(infoPanel.Box(), 26, 0, false)

	gameFrame.SetDirection(tview.FlexRow)
	gameFrame.AddItem(boardRow, 0, 1, true)
	gameFrame.AddItem(hint, 4, 0, false)
}

// BuildFocusLayout builds the focus mode layout with just the centered board.
func BuildFocusLayout(gameFrame *tview.Flex, board *BoardUI) {
	gameFrame.Clear()

	boardWidth := types.Columns*2 + 4
	boardHeight := types.Rows + 2

	gameFrame.SetDirection(tview.FlexRow)
	gameFrame.AddItem(nil, 0, 1, false)

	centerRow := tview.NewFlex().SetDirection(tview.FlexColumn)
	centerRow.AddItem(nil, 0, 1, false)
	centerRow.AddItem(board.Box, boardWidth, 0, true)
	centerRow.AddItem(nil, 0, 1, false)

	gameFrame.AddItem(centerRow, boardHeight, 0, true)
	gameFrame.AddItem(nil, 0, 1, false)
}
