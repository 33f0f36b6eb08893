package ui

import (
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

// MenuColors is the palette shared by the menu screens. Pastel accents echo the piece colours.
var MenuColors = struct {
	Border     tcell.Color
	Title      tcell.Color
	Label      tcell.Color
	Hint       tcell.Color
	ButtonBG   tcell.Color
	ButtonText tcell.Color
	Selected   tcell.Color
}{
	Border:     tcell.PaletteColor(139), // dusty pink
	Title:      tcell.PaletteColor(225),
	Label:      tcell.PaletteColor(252),
	Hint:       tcell.PaletteColor(244),
	ButtonBG:   tcell.PaletteColor(96),
	ButtonText: tcell.PaletteColor(231),
	Selected:   tcell.PaletteColor(175),
}

// styleForm applies MenuColors to a bordered, titled form.
func styleForm(form *tview.Form, title string) {
	form.SetBorder(true)
	form.SetTitle(title)
	form.SetTitleAlign(tview.AlignCenter)
	form.SetButtonBackgroundColor(MenuColors.ButtonBG)
	form.SetButtonTextColor(MenuColors.ButtonText)
	form.SetBorderColor(MenuColors.Border)
	form.SetTitleColor(MenuColors.Title)
	form.SetLabelColor(MenuColors.Label)
	form.SetFieldBackgroundColor(MenuColors.ButtonBG)
}

// hintLine is a single centred line of key help.
func hintLine(text string) *tview.TextView {
	tv := tview.NewTextView().SetText(text).SetTextAlign(tview.AlignCenter)
	tv.SetTextColor(MenuColors.Hint)
	return tv
}
