package ui

import (
	"fmt"
	"log/slog"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"squishies/catalog"
	"squishies/config"
	"squishies/types"
)

// ColorConfigUI picks the board background and path highlight colours with a live preview.
type ColorConfigUI struct {
	flex      *tview.Flex
	colorList *tview.List
	preview   *tview.Box
	cfg       *config.Config
	cat       *catalog.Catalog
	onDone    func()

	selectedBackground int
	selectedPath       int
	editingPath        bool
}

type namedColor struct {
	code int
	name string
}

// Dark backgrounds keep the piece colours readable.
var backgroundColors = []namedColor{
	{236, "Charcoal"},
	{234, "Night"},
	{232, "Black"},
	{238, "Slate"},
	{17, "Navy Blue"},
	{22, "Forest"},
	{23, "Deep Teal"},
	{52, "Maroon"},
	{53, "Plum"},
	{58, "Olive"},
	{60, "Dusk"},
}

var pathColors = []namedColor{
	{24, "Dark Cyan"},
	{25, "Ocean"},
	{31, "Teal"},
	{61, "Slate Blue"},
	{89, "Berry"},
	{94, "Saddle Brown"},
	{130, "Rust"},
	{240, "Gray"},
}

// sample is the preview arrangement: a short path over a Large piece.
var sample = [5][5]types.PieceType{
	{types.Bloop, types.Rosie, types.Limbo, types.Limbo, types.Sunny},
	{types.Rosie, types.Bloop, types.Limbo, types.Limbo, types.Plum},
	{types.Sunny, types.Rosie, types.Bloop, types.Tangy, types.Mochi},
	{types.Plum, types.Tangy, types.Rosie, types.Bloop, types.Sunny},
	{types.Mochi, types.Plum, types.Sunny, types.Rosie, types.Tangy},
}

func inSamplePath(col, row int) bool {
	return col == row && col < 4
}

func inSampleLarge(col, row int) bool {
	return (col == 2 || col == 3) && (row == 0 || row == 1)
}

// NewColorConfig creates a new color configuration screen.
func NewColorConfig(cfg *config.Config, cat *catalog.Catalog, onDone func()) *ColorConfigUI {
	if cat == nil {
		cat = catalog.Default()
	}
	cc := &ColorConfigUI{
		cfg:                cfg,
		cat:                cat,
		onDone:             onDone,
		selectedBackground: cfg.Theme.Colors.Background,
		selectedPath:       cfg.Theme.Colors.PathBG,
	}

	cc.colorList = tview.NewList()
	cc.colorList.SetBorder(true)
	cc.colorList.SetBorderColor(MenuColors.Border)
	cc.colorList.ShowSecondaryText(false)

	cc.populateColorList()

	cc.colorList.SetChangedFunc(func(index int, mainText, secondaryText string, shortcut rune) {
		if c, ok := cc.colorAt(index); ok {
			if cc.editingPath {
				cc.selectedPath = c.code
			} else {
				cc.selectedBackground = c.code
			}
		}
	})

	cc.colorList.SetSelectedFunc(func(index int, mainText, secondaryText string, shortcut rune) {
		if _, ok := cc.colorAt(index); !ok {
			return
		}
		cc.cfg.Theme.Colors.Background = cc.selectedBackground
		cc.cfg.Theme.Colors.PathBG = cc.selectedPath
		if err := cc.cfg.Save(); err != nil {
			slog.Warn("failed to save config", "error", err)
		}
		if cc.editingPath {
			cc.editingPath = false
			cc.populateColorList()
			return
		}
		onDone()
	})

	cc.preview = tview.NewBox()
	cc.preview.SetBorder(true)
	cc.preview.SetTitle(" Board Preview ")
	cc.preview.SetDrawFunc(cc.drawPreview)

	cc.flex = tview.NewFlex().
		AddItem(cc.colorList, 30, 0, true).
		AddItem(cc.preview, 0, 1, false)

	return cc
}

func (cc *ColorConfigUI) palette() []namedColor {
	if cc.editingPath {
		return pathColors
	}
	return backgroundColors
}

func (cc *ColorConfigUI) colorAt(index int) (namedColor, bool) {
	colors := cc.palette()
	if index < 0 || index >= len(colors) {
		return namedColor{}, false
	}
	return colors[index], true
}

// populateColorList fills the list with the palette being edited.
func (cc *ColorConfigUI) populateColorList() {
	cc.colorList.Clear()

	current := cc.selectedBackground
	cc.colorList.SetTitle(" Background (Tab: path) ")
	if cc.editingPath {
		current = cc.selectedPath
		cc.colorList.SetTitle(" Path (Tab: background) ")
	}
	for i, c := range cc.palette() {
		cc.colorList.AddItem(fmt.Sprintf("[#%06x]████[-] %s (%d)",
			tcell.PaletteColor(c.code).Hex(), c.name, c.code),
			"", rune('a'+i), nil)
		if c.code == current {
			cc.colorList.SetCurrentItem(i)
		}
	}
}

func (cc *ColorConfigUI) drawPreview(screen tcell.Screen, x, y, width, height int) (int, int, int, int) {
	background := tcell.PaletteColor(cc.selectedBackground)
	path := tcell.PaletteColor(cc.selectedPath)

	startX := x + 2
	startY := y + 1
	if width < 16 || height < 9 {
		return x, y, width, height
	}

	for row := range sample {
		for col, t := range sample[row] {
			colour := tcell.PaletteColor(cc.cat.Entry(t).Colour)
			style := tcell.StyleDefault.Background(background).Foreground(colour)
			glyph := cc.cat.Glyph(t)
			if inSampleLarge(col, row) {
				style = style.Background(colour).Foreground(background)
				if col != 2 || row != 0 {
					glyph = firstRune(cc.cfg.Theme.Symbols.Large, '▓')
				}
			}
			if inSamplePath(col, row) {
				style = style.Background(path)
			}
			screenY := startY + len(sample) - 1 - row
			screen.SetContent(startX+col*2, screenY, glyph, nil, style)
			screen.SetContent(startX+col*2+1, screenY, ' ', nil, style)
		}
	}

	info := fmt.Sprintf("Background: %d  Path: %d", cc.selectedBackground, cc.selectedPath)
	drawText(screen, startX, startY+len(sample)+1, info, tcell.StyleDefault)

	return x, y, width, height
}

// Flex returns the flex container for this UI.
func (cc *ColorConfigUI) Flex() *tview.Flex {
	return cc.flex
}

// SetInputCapture sets the input capture for the color list.
func (cc *ColorConfigUI) SetInputCapture(capture func(event *tcell.EventKey) *tcell.EventKey) {
	cc.colorList.SetInputCapture(capture)
}

// ToggleMode switches between background and path colour editing.
func (cc *ColorConfigUI) ToggleMode() {
	cc.editingPath = !cc.editingPath
	cc.populateColorList()
}
