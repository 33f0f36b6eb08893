// squishies is a terminal tile-matching game: draw paths through matching
// pieces, grow them into Large and Giant pieces and chain their abilities.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/adrg/xdg"
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"squishies/catalog"
	"squishies/config"
	"squishies/engine"
	"squishies/engine/match"
	"squishies/record"
	"squishies/scores"
	"squishies/server"
	"squishies/types"
	"squishies/ui"
)

// Version is set at build time via ldflags
var Version = "dev"

// Command-line flags
var (
	flagMode       = flag.String("mode", "", "Game mode (zen or rush)")
	flagSeed       = flag.Uint64("seed", 0, "Random seed (0 picks one)")
	flagQuickStart = flag.Bool("play", false, "Start game immediately with defaults")
	flagFocus      = flag.Bool("focus", false, "Start in focus mode (board only)")
	flagServe      = flag.Bool("serve", false, "Serve games over websockets instead of playing")
	flagAddr       = flag.String("addr", "", "Listen address for -serve (overrides server.addr)")
	flagReplay     = flag.String("replay", "", "Replay a game record and print its score")
	flagVersion    = flag.Bool("version", false, "Print version and exit")
)

var app *tview.Application
var rootPage *tview.Pages
var gameBoard *ui.BoardUI
var gameFrame *tview.Flex
var gameHint *tview.TextView
var cfg *config.Config
var cat *catalog.Catalog
var store engine.ScoreStore
var logger *slog.Logger

func main() {
	flag.Parse()

	if *flagVersion {
		fmt.Printf("squishies %s\n", Version)
		return
	}

	var err error
	cfg, err = config.InitConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	cat = catalog.Default()

	if *flagReplay != "" {
		logger = newLogger(io.Discard, cfg.Log.Level, false)
		if err := replay(*flagReplay); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	serving := *flagServe
	var closeLog func()
	logger, closeLog, err = setupLogging(cfg.Log.Level, serving)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer closeLog()
	slog.SetDefault(logger)

	var closeStore func()
	store, closeStore, err = openStore(cfg.Scores)
	if err != nil {
		logger.Error("failed to open score store", "error", err)
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer closeStore()

	if serving {
		addr := cfg.Server.Addr
		if *flagAddr != "" {
			addr = *flagAddr
		}
		if err := serve(addr); err != nil {
			logger.Error("server stopped", "error", err)
			os.Exit(1)
		}
		return
	}

	runTerminal()
}

func runTerminal() {
	quickStart := *flagQuickStart || *flagMode != "" || *flagSeed != 0 || *flagFocus

	app = tview.NewApplication()
	rootPage = tview.NewPages()
	rootPage.SetBorder(true).SetTitle(" ● squishies ")

	gameHint = tview.NewTextView()
	gameHint.SetBorder(true)
	gameHint.SetBorderPadding(0, 0, 1, 1)
	gameHint.SetTitle(" Status ")
	gameHint.SetTitleAlign(tview.AlignLeft)
	gameBoard = ui.NewBoard(app, cfg, cat, gameHint, logger)

	gameFrame = ui.CreateGameLayout(gameBoard, gameHint)

	gameBoard.Box.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyUp:
			gameBoard.MoveSelection(0, 1)
		case tcell.KeyDown:
			gameBoard.MoveSelection(0, -1)
		case tcell.KeyLeft:
			gameBoard.MoveSelection(-1, 0)
		case tcell.KeyRight:
			gameBoard.MoveSelection(1, 0)
		case tcell.KeyEnter:
			gameBoard.Complete()
		case tcell.KeyEscape:
			gameBoard.Cancel()
		case tcell.KeyRune:
			switch event.Rune() {
			case 'q':
				gameBoard.Close()
				rootPage.SwitchToPage("setup")
				return nil
			case 'h':
				gameBoard.MoveSelection(-1, 0)
			case 'j':
				gameBoard.MoveSelection(0, -1)
			case 'k':
				gameBoard.MoveSelection(0, 1)
			case 'l':
				gameBoard.MoveSelection(1, 0)
			case 'y':
				gameBoard.MoveSelection(-1, 1)
			case 'u':
				gameBoard.MoveSelection(1, 1)
			case 'b':
				gameBoard.MoveSelection(-1, -1)
			case 'n':
				gameBoard.MoveSelection(1, -1)
			case ' ':
				gameBoard.Select()
			case 'p':
				gameBoard.TogglePause()
			case 'f':
				if gameBoard.ToggleFocusMode() {
					ui.BuildFocusLayout(gameFrame, gameBoard)
				} else {
					ui.RebuildNormalLayout(gameFrame, gameBoard, gameHint)
				}
			}
		}
		return event
	})

	newSession := func(gameCfg engine.GameConfig) engine.GameEngine {
		return match.NewSession(gameCfg, nil, match.WithLogger(logger), match.WithCatalog(cat))
	}
	records := ui.NewHistoryBrowser(cfg.RecordsDir(), cat, newSession, func() {
		rootPage.SwitchToPage("setup")
	})

	setupUI := ui.NewGameSetup(cfg.Game,
		func(gameCfg engine.GameConfig) {
			startGame(gameCfg)
		},
		func() {
			app.Stop()
		},
		func() {
			records.Refresh()
			rootPage.SwitchToPage("records")
		},
		func() {
			rootPage.SwitchToPage("colors")
		},
	)

	colorConfig := ui.NewColorConfig(cfg, cat, func() {
		gameBoard.SetConfig(cfg)
		rootPage.SwitchToPage("setup")
	})
	colorConfig.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if event.Key() == tcell.KeyEsc || (event.Key() == tcell.KeyRune && event.Rune() == 'q') {
			rootPage.SwitchToPage("setup")
			return nil
		}
		if event.Key() == tcell.KeyTab {
			colorConfig.ToggleMode()
			return nil
		}
		return event
	})

	rootPage.AddPage("setup", ui.CreateCenteredForm(setupUI.Form(), 60), true, !quickStart)
	rootPage.AddPage("gameview", gameFrame, true, quickStart)
	rootPage.AddPage("records", records.Flex(), true, false)
	rootPage.AddPage("colors", colorConfig.Flex(), true, false)

	if quickStart {
		startGame(buildGameConfig())
		if *flagFocus {
			gameBoard.SetFocusMode(true)
			ui.BuildFocusLayout(gameFrame, gameBoard)
		}
	}

	go runTicker(time.Duration(cfg.Game.TickMillis) * time.Millisecond)

	if err := app.SetRoot(rootPage, true).Run(); err != nil {
		panic(err)
	}
	gameBoard.Close()
}

// runTicker drives the session timers on the tview goroutine.
func runTicker(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	last := time.Now()
	for now := range ticker.C {
		dt := now.Sub(last)
		last = now
		app.QueueUpdateDraw(func() {
			gameBoard.Tick(dt)
		})
	}
}

// startGame starts a session with the given configuration.
func startGame(gameCfg engine.GameConfig) {
	session := match.NewSession(gameCfg, store, match.WithLogger(logger), match.WithCatalog(cat))
	if err := session.Start(); err != nil {
		modal := tview.NewModal().
			SetText(fmt.Sprintf("Failed to start game:\n%s", err.Error())).
			AddButtons([]string{"OK"}).
			SetDoneFunc(func(buttonIndex int, buttonLabel string) {
				rootPage.HidePage("error")
			})
		rootPage.AddPage("error", modal, true, true)
		return
	}

	var rec *record.GameRecord
	if cfg.Records.Enabled {
		var err error
		rec, err = record.NewGameRecord(cfg.RecordsDir(), record.Header{
			ID:           session.ID(),
			Mode:         session.Mode(),
			Seed:         session.Seed(),
			InitialTypes: gameCfg.InitialTypes,
		})
		if err != nil {
			logger.Warn("game will not be recorded", "error", err)
		}
	}

	gameBoard.ConnectEngine(session, rec)
	rootPage.SwitchToPage("gameview")
}

// buildGameConfig creates a GameConfig from the config file and command-line flags.
func buildGameConfig() engine.GameConfig {
	gameCfg := engine.DefaultConfig()
	if mode, ok := types.ParseMode(cfg.Game.Mode); ok {
		gameCfg.Mode = mode
	}
	gameCfg.Seed = cfg.Game.Seed
	gameCfg.InitialTypes = cfg.Game.InitialTypes
	gameCfg.RushDuration = time.Duration(cfg.Game.RushSeconds) * time.Second

	if mode, ok := types.ParseMode(*flagMode); ok && *flagMode != "" {
		gameCfg.Mode = mode
	}
	if *flagSeed != 0 {
		gameCfg.Seed = *flagSeed
	}
	return gameCfg
}

// setupLogging logs to a file in the XDG state dir, since the terminal UI
// owns stdout. Server mode logs JSON to stdout instead.
func setupLogging(level string, serving bool) (*slog.Logger, func(), error) {
	if serving {
		return newLogger(os.Stdout, level, true), func() {}, nil
	}
	path, err := xdg.StateFile("squishies/debug.log")
	if err != nil {
		return nil, nil, fmt.Errorf("locate log file: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	return newLogger(f, level, false), func() { f.Close() }, nil
}

func newLogger(w io.Writer, level string, json bool) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if json {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// openStore builds the configured best-score store.
func openStore(c config.ScoresConfig) (engine.ScoreStore, func(), error) {
	switch c.Backend {
	case scores.BackendRedis:
		r := scores.NewRedisStore(scores.RedisOptions{Addr: c.RedisAddr, Password: c.RedisPassword, DB: c.RedisDB})
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := r.Ping(ctx); err != nil {
			logger.Warn("redis unreachable, best scores may not persist", "addr", c.RedisAddr, "error", err)
		}
		return r, func() { r.Close() }, nil
	case scores.BackendMemory:
		return scores.NewMemoryStore(), func() {}, nil
	default:
		f, err := scores.DefaultFileStore()
		if err != nil {
			return nil, nil, err
		}
		return f, func() {}, nil
	}
}

func serve(addr string) error {
	srv := server.New(buildGameConfig(), store, logger)
	srv.TickInterval = time.Duration(cfg.Game.TickMillis) * time.Millisecond

	httpServer := &http.Server{Addr: addr, Handler: srv.Handler()}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		httpServer.Shutdown(shutdownCtx)
	}()

	logger.Info("serving websocket games", "addr", addr, "version", Version)
	if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func replay(path string) error {
	res, err := record.Replay(path, func(gameCfg engine.GameConfig) engine.GameEngine {
		return match.NewSession(gameCfg, nil, match.WithLogger(logger), match.WithCatalog(cat))
	})
	if err != nil {
		return err
	}
	info := res.Info
	fmt.Printf("%s  %s  seed %d  %d paths\n", info.FileName, info.Header.Mode, info.Header.Seed, res.Paths)
	fmt.Printf("replayed score: %d\n", res.Score)
	if recorded, ok := info.Score(); ok {
		fmt.Printf("recorded score: %d\n", recorded)
		if recorded != res.Score {
			return fmt.Errorf("replay diverged from record")
		}
	}
	return nil
}
