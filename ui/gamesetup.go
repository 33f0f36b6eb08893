package ui

import (
	"strconv"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"squishies/config"
	"squishies/engine"
	"squishies/types"
)

// GameSetupUI provides a form for configuring a new game.
type GameSetupUI struct {
	form      *tview.Form
	flex      *tview.Flex
	onStart   func(engine.GameConfig)
	onCancel  func()
	onRecords func()
	onColors  func()

	mode         types.Mode
	seed         uint64
	initialTypes int
	rush         time.Duration
}

// NewGameSetup creates a new game setup form seeded from the game config section.
func NewGameSetup(c config.GameConfig, onStart func(engine.GameConfig), onCancel func(), onRecords func(), onColors func()) *GameSetupUI {
	mode, _ := types.ParseMode(c.Mode)
	setup := &GameSetupUI{
		onStart:      onStart,
		onCancel:     onCancel,
		onRecords:    onRecords,
		onColors:     onColors,
		mode:         mode,
		seed:         c.Seed,
		initialTypes: c.InitialTypes,
		rush:         time.Duration(c.RushSeconds) * time.Second,
	}

	modes := []string{"Zen (no clock)", "Rush (beat the clock)"}
	typeCounts := []string{"4", "5", "6", "7"}

	form := tview.NewForm()

	form.AddDropDown("Mode", modes, int(mode), func(option string, index int) {
		setup.mode = types.Mode(index)
	})

	form.AddDropDown("Piece Types", typeCounts, setup.initialTypes-4, func(option string, index int) {
		setup.initialTypes = index + 4
	})

	seedText := ""
	if setup.seed != 0 {
		seedText = strconv.FormatUint(setup.seed, 10)
	}
	form.AddInputField("Seed (blank = random)", seedText, 20, func(text string, lastChar rune) bool {
		return lastChar >= '0' && lastChar <= '9'
	}, func(text string) {
		setup.seed, _ = strconv.ParseUint(strings.TrimSpace(text), 10, 64)
	})

	form.AddButton("Start Game", func() {
		onStart(setup.Config())
	})

	form.AddButton("Records", func() {
		if onRecords != nil {
			onRecords()
		}
	})

	form.AddButton("Colors", func() {
		if onColors != nil {
			onColors()
		}
	})

	form.AddButton("Quit", func() {
		onCancel()
	})

	styleForm(form, " New Game ")
	helpText := hintLine("Tab/Shift+Tab: navigate fields  |  Arrow keys: change dropdown  |  Enter: confirm")

	flex := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(form, 0, 1, true).
		AddItem(helpText, 1, 0, false)

	setup.form = form
	setup.flex = flex
	return setup
}

// Config returns the game config selected in the form.
func (s *GameSetupUI) Config() engine.GameConfig {
	return engine.GameConfig{
		Mode:         s.mode,
		Seed:         s.seed,
		InitialTypes: s.initialTypes,
		RushDuration: s.rush,
	}
}

// Form returns the flex container with form and help text.
func (s *GameSetupUI) Form() *tview.Flex {
	return s.flex
}

// SetInputCapture sets the input capture function for the form.
func (s *GameSetupUI) SetInputCapture(capture func(event *tcell.EventKey) *tcell.EventKey) {
	s.form.SetInputCapture(capture)
}
