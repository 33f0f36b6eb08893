package config

var DefaultConfig Config
var DefaultTheme Theme

func init() {
	DefaultTheme = Theme{
		DrawPieceBackground: false,
		ShowMoods:           true,
		Colors: ConfigColors{
			Background: 236,
			Empty:      240,
			CursorFG:   232,
			CursorBG:   255,
			PathBG:     24,
		},
		Symbols: ConfigSymbols{
			Empty:  "·",
			Happy:  "^",
			Sad:    "v",
			Large:  "▓",
			Giant:  "█",
			Cursor: "[]",
		},
	}

	DefaultConfig = Config{
		Theme: DefaultTheme,
		Game: GameConfig{
			Mode:         "Zen",
			InitialTypes: 4,
			RushSeconds:  90,
			TickMillis:   100,
		},
		Scores: ScoresConfig{
			Backend: "file",
		},
		Records: RecordsConfig{
			Enabled: true,
		},
		Log: LogConfig{
			Level: "info",
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
	}
}
