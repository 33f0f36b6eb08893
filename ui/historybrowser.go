package ui

import (
	"fmt"
	"os"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"squishies/catalog"
	"squishies/record"
	"squishies/types"
)

type replayCache struct {
	state *types.BoardState
	score int
	err   error
}

// HistoryBrowserUI provides a screen for browsing saved game records.
type HistoryBrowserUI struct {
	flex      *tview.Flex
	gameList  *tview.List
	preview   *tview.Box
	hint      *tview.TextView
	dir       string
	cat       *catalog.Catalog
	newEngine record.EngineFactory
	games     []record.GameInfo
	replays   map[int]replayCache
	selected  int
	onDone    func()
}

// NewHistoryBrowser creates a record browser for dir. Previews replay each
// record through newEngine.
func NewHistoryBrowser(dir string, cat *catalog.Catalog, newEngine record.EngineFactory, onDone func()) *HistoryBrowserUI {
	if cat == nil {
		cat = catalog.Default()
	}
	hb := &HistoryBrowserUI{
		dir:       dir,
		cat:       cat,
		newEngine: newEngine,
		onDone:    onDone,
		replays:   make(map[int]replayCache),
	}

	hb.gameList = tview.NewList()
	hb.gameList.SetBorder(true)
	hb.gameList.SetBorderColor(MenuColors.Border)
	hb.gameList.SetTitle(" Records ")
	hb.gameList.ShowSecondaryText(false)
	hb.gameList.SetHighlightFullLine(true)
	hb.gameList.SetMainTextStyle(tcell.StyleDefault.Foreground(MenuColors.Label))
	hb.gameList.SetSelectedStyle(tcell.StyleDefault.
		Foreground(MenuColors.ButtonText).
		Background(MenuColors.Selected))

	hb.preview = tview.NewBox()
	hb.preview.SetBorder(true)
	hb.preview.SetTitle(" Replay ")
	hb.preview.SetDrawFunc(hb.drawPreview)

	hb.hint = tview.NewTextView()
	hb.hint.SetDynamicColors(true)
	hb.hint.SetBorder(false)
	hb.hint.SetText("  [dimgray]d[-] delete  [dimgray]q[-] back")

	hb.gameList.SetChangedFunc(func(index int, mainText, secondaryText string, shortcut rune) {
		hb.selected = index
	})

	hb.gameList.SetInputCapture(hb.handleInput)

	topRow := tview.NewFlex().SetDirection(tview.FlexColumn).
		AddItem(hb.gameList, 38, 0, true).
		AddItem(hb.preview, 0, 1, false)

	hb.flex = tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(topRow, 0, 1, true).
		AddItem(hb.hint, 1, 0, false)

	hb.loadGames()
	return hb
}

// Flex returns the flex container for this UI.
func (hb *HistoryBrowserUI) Flex() *tview.Flex {
	return hb.flex
}

// Refresh reloads the record list from disk.
func (hb *HistoryBrowserUI) Refresh() {
	hb.replays = make(map[int]replayCache)
	hb.loadGames()
}

func (hb *HistoryBrowserUI) loadGames() {
	hb.gameList.Clear()
	hb.games = nil
	hb.selected = 0

	games, err := record.ListRecords(hb.dir)
	if err != nil || len(games) == 0 {
		hb.gameList.AddItem("[dimgray]No records found[-]", "", 0, nil)
		return
	}

	hb.games = games
	for _, g := range games {
		result := g.Result
		if result == "" || result == "?" {
			result = "..."
		}
		label := fmt.Sprintf("%s  %-4s  %s", g.Date, g.Header.Mode, result)
		hb.gameList.AddItem(label, "", 0, nil)
	}
}

func (hb *HistoryBrowserUI) handleInput(event *tcell.EventKey) *tcell.EventKey {
	switch event.Key() {
	case tcell.KeyEscape:
		if hb.onDone != nil {
			hb.onDone()
		}
		return nil
	case tcell.KeyRune:
		switch event.Rune() {
		case 'q':
			if hb.onDone != nil {
				hb.onDone()
			}
			return nil
		case 'd':
			hb.deleteSelected()
			return nil
		}
	}
	return event
}

func (hb *HistoryBrowserUI) deleteSelected() {
	if hb.selected < 0 || hb.selected >= len(hb.games) {
		return
	}
	os.Remove(hb.games[hb.selected].FilePath)
	hb.Refresh()
}

// replay lazily replays the selected record and caches the final position.
func (hb *HistoryBrowserUI) replay(i int) replayCache {
	if c, ok := hb.replays[i]; ok {
		return c
	}
	var c replayCache
	if hb.newEngine == nil {
		c.err = fmt.Errorf("replay unavailable")
	} else if res, err := record.Replay(hb.games[i].FilePath, hb.newEngine); err != nil {
		c.err = err
	} else {
		c.state = res.State.BoardState()
		c.score = res.Score
	}
	hb.replays[i] = c
	return c
}

// drawPreview renders the replayed final board and record metadata.
func (hb *HistoryBrowserUI) drawPreview(screen tcell.Screen, x, y, width, height int) (int, int, int, int) {
	if hb.selected < 0 || hb.selected >= len(hb.games) {
		return x, y, width, height
	}

	game := hb.games[hb.selected]
	rp := hb.replay(hb.selected)

	startX := x + 2
	startY := y + 1
	if width < types.Columns*2+4 || height < types.Rows+8 {
		return x, y, width, height
	}

	if rp.state != nil {
		emptyStyle := tcell.StyleDefault.Foreground(tcell.PaletteColor(240))
		for by := 0; by < types.Rows; by++ {
			for bx := 0; bx < types.Columns; bx++ {
				ch, style := '·', emptyStyle
				if piece := rp.state.Board[by][bx]; piece != nil {
					ch = hb.cat.Glyph(piece.Type)
					style = tcell.StyleDefault.Foreground(tcell.PaletteColor(hb.cat.Entry(piece.Type).Colour))
					if piece.Size != types.Normal {
						style = style.Bold(true)
					}
				}
				screen.SetContent(startX+bx*2, startY+types.Rows-1-by, ch, nil, style)
			}
		}
	}

	infoY := startY + types.Rows + 1
	infoStyle := tcell.StyleDefault.Foreground(tcell.PaletteColor(250))
	dimStyle := tcell.StyleDefault.Foreground(tcell.PaletteColor(245))

	drawText(screen, startX, infoY, game.Header.Mode.String(), infoStyle)
	drawText(screen, startX+6, infoY, fmt.Sprintf("| %d paths", game.PathCount), dimStyle)
	infoY++
	drawText(screen, startX, infoY, fmt.Sprintf("Seed: %d", game.Header.Seed), dimStyle)
	infoY++

	result := game.Result
	if result == "" || result == "?" {
		result = "Unfinished"
	}
	resultStyle := tcell.StyleDefault.Foreground(tcell.PaletteColor(109))
	drawText(screen, startX, infoY, fmt.Sprintf("Result: %s", result), resultStyle)
	infoY++

	switch {
	case rp.err != nil:
		drawText(screen, startX, infoY, fmt.Sprintf("Replay failed: %v", rp.err), dimStyle)
	default:
		check := "✓"
		if recorded, ok := game.Score(); ok && recorded != rp.score {
			check = "✗"
		}
		drawText(screen, startX, infoY, fmt.Sprintf("Replayed: %d %s", rp.score, check), resultStyle)
	}

	return x, y, width, height
}

// drawText writes a string to the screen at the given position.
func drawText(screen tcell.Screen, x, y int, text string, style tcell.Style) {
	i := 0
	for _, ch := range text {
		screen.SetContent(x+i, y, ch, nil, style)
		i++
	}
}
