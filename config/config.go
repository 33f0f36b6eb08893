package config

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/spf13/viper"

	"squishies/types"
)

var (
	cfgFile = "squishies/config.json"
)

// envBindings maps config keys to the environment variables that override them.
var envBindings = map[string]string{
	"scores.backend":    "SQUISHIES_SCORES_BACKEND",
	"scores.redis_addr": "SQUISHIES_SCORES_REDIS_ADDR",
	"game.seed":         "SQUISHIES_GAME_SEED",
	"game.mode":         "SQUISHIES_GAME_MODE",
	"log.level":         "SQUISHIES_LOG_LEVEL",
	"server.addr":       "SQUISHIES_SERVER_ADDR",
}

type InvalidConfig struct {
	err string
}

func (e *InvalidConfig) Error() string {
	return fmt.Sprintf("Config error: %s", e.err)
}

type ConfigColors struct {
	Background int `json:"background" mapstructure:"background"`
	Empty      int `json:"empty" mapstructure:"empty"`
	CursorFG   int `json:"cursor_fg" mapstructure:"cursor_fg"`
	CursorBG   int `json:"cursor_bg" mapstructure:"cursor_bg"`
	PathBG     int `json:"path_bg" mapstructure:"path_bg"`
	// Types overrides catalog colours, keyed by lower-case type name.
	Types map[string]int `json:"types,omitempty" mapstructure:"types"`
}

type ConfigSymbols struct {
	Empty  string `json:"empty" mapstructure:"empty"`
	Happy  string `json:"happy" mapstructure:"happy"`
	Sad    string `json:"sad" mapstructure:"sad"`
	Large  string `json:"large" mapstructure:"large"`
	Giant  string `json:"giant" mapstructure:"giant"`
	Cursor string `json:"cursor" mapstructure:"cursor"`
}

type Theme struct {
	DrawPieceBackground bool          `json:"draw_piece_bg" mapstructure:"draw_piece_bg"`
	ShowMoods           bool          `json:"show_moods" mapstructure:"show_moods"`
	Colors              ConfigColors  `json:"colors" mapstructure:"colors"`
	Symbols             ConfigSymbols `json:"symbols" mapstructure:"symbols"`
}

// TypeColor returns the configured colour override for t, if any.
func (t Theme) TypeColor(pt types.PieceType) (int, bool) {
	c, ok := t.Colors.Types[strings.ToLower(pt.String())]
	return c, ok
}

type GameConfig struct {
	Mode         string `json:"mode" mapstructure:"mode"`
	Seed         uint64 `json:"seed" mapstructure:"seed"`
	InitialTypes int    `json:"initial_types" mapstructure:"initial_types"`
	RushSeconds  int    `json:"rush_seconds" mapstructure:"rush_seconds"`
	TickMillis   int    `json:"tick_ms" mapstructure:"tick_ms"`
}

type ScoresConfig struct {
	Backend       string `json:"backend" mapstructure:"backend"`
	RedisAddr     string `json:"redis_addr" mapstructure:"redis_addr"`
	RedisPassword string `json:"redis_password,omitempty" mapstructure:"redis_password"`
	RedisDB       int    `json:"redis_db" mapstructure:"redis_db"`
}

type RecordsConfig struct {
	Enabled bool   `json:"enabled" mapstructure:"enabled"`
	Dir     string `json:"dir,omitempty" mapstructure:"dir"`
}

type LogConfig struct {
	Level string `json:"level" mapstructure:"level"`
}

type ServerConfig struct {
	Addr string `json:"addr" mapstructure:"addr"`
}

type Config struct {
	Theme   Theme         `json:"theme" mapstructure:"theme"`
	Game    GameConfig    `json:"game" mapstructure:"game"`
	Scores  ScoresConfig  `json:"scores" mapstructure:"scores"`
	Records RecordsConfig `json:"records" mapstructure:"records"`
	Log     LogConfig     `json:"log" mapstructure:"log"`
	Server  ServerConfig  `json:"server" mapstructure:"server"`
}

func InitConfig() (*Config, error) {
	absPath, err := xdg.SearchConfigFile(cfgFile)
	if err != nil {
		absPath = ""
	}
	return Load(absPath)
}

// Load reads the config file at path (if non-empty) over DefaultConfig and
// applies environment overrides.
func Load(path string) (*Config, error) {
	config := DefaultConfig.clone()
	v := viper.New()
	v.SetConfigType("json")
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, err
		}
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, &InvalidConfig{fmt.Sprintf("reading %s: %v", path, err)}
		}
	}
	if err := v.Unmarshal(&config); err != nil {
		return nil, &InvalidConfig{err.Error()}
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Config) Validate() error {
	symbols := c.Theme.Symbols
	for _, s := range []string{symbols.Empty, symbols.Happy, symbols.Sad, symbols.Large, symbols.Giant, symbols.Cursor} {
		for _, r := range s {
			if r < 32 || (r >= 127 && r <= 159) {
				return &InvalidConfig{"Unicode characters 1-31 and 127-159 are not allowed"}
			}
		}
	}
	if _, ok := types.ParseMode(c.Game.Mode); !ok {
		return &InvalidConfig{fmt.Sprintf("unknown game mode %q", c.Game.Mode)}
	}
	if c.Game.InitialTypes < 4 || c.Game.InitialTypes > types.NumPieceTypes {
		return &InvalidConfig{fmt.Sprintf("initial_types must be between 4 and %d", types.NumPieceTypes)}
	}
	if c.Game.RushSeconds <= 0 {
		return &InvalidConfig{"rush_seconds must be positive"}
	}
	if c.Game.TickMillis <= 0 {
		return &InvalidConfig{"tick_ms must be positive"}
	}
	switch c.Scores.Backend {
	case "file", "redis", "memory":
	default:
		return &InvalidConfig{fmt.Sprintf("unknown scores backend %q", c.Scores.Backend)}
	}
	if c.Scores.Backend == "redis" && c.Scores.RedisAddr == "" {
		return &InvalidConfig{"redis backend needs scores.redis_addr"}
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return &InvalidConfig{fmt.Sprintf("unknown log level %q", c.Log.Level)}
	}
	return nil
}

// RecordsDir returns the configured record directory or the XDG default.
func (c *Config) RecordsDir() string {
	if c.Records.Dir != "" {
		return c.Records.Dir
	}
	return filepath.Join(xdg.DataHome, "squishies", "records")
}

func (c *Config) Save() error {
	absPath, err := xdg.ConfigFile(cfgFile)
	if err != nil {
		return err
	}
	return saveCfgFile(absPath, c, 0664)
}

func (c Config) clone() Config {
	if c.Theme.Colors.Types != nil {
		colors := make(map[string]int, len(c.Theme.Colors.Types))
		for k, v := range c.Theme.Colors.Types {
			colors[k] = v
		}
		c.Theme.Colors.Types = colors
	}
	return c
}

func saveCfgFile(filePath string, a interface{}, perm fs.FileMode) error {
	jsonData, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(filePath, jsonData, perm); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
