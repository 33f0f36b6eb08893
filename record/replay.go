package record

import (
	"fmt"

	"squishies/engine"
)

// EngineFactory builds an unstarted engine for a config.
type EngineFactory func(cfg engine.GameConfig) engine.GameEngine

// ReplayResult is the outcome of replaying a record.
type ReplayResult struct {
	Info  *GameInfo
	Score int
	Paths int
	State engine.GameEngine
}

// Replay rebuilds the recorded game with its seed and mode and submits every
// recorded path. The same seed reproduces the same score.
func Replay(filePath string, newEngine EngineFactory) (*ReplayResult, error) {
	info, err := ParseHeader(filePath)
	if err != nil {
		return nil, err
	}
	paths, err := ReadPaths(filePath)
	if err != nil {
		return nil, err
	}

	cfg := engine.DefaultConfig()
	cfg.Mode = info.Header.Mode
	cfg.Seed = info.Header.Seed
	if info.Header.InitialTypes > 0 {
		cfg.InitialTypes = info.Header.InitialTypes
	}

	e := newEngine(cfg)
	if err := e.Start(); err != nil {
		return nil, fmt.Errorf("start replay: %w", err)
	}
	for i, path := range paths {
		if _, err := e.SubmitPath(path); err != nil {
			return nil, fmt.Errorf("replay path %d: %w", i+1, err)
		}
	}

	return &ReplayResult{
		Info:  info,
		Score: e.BoardState().Score,
		Paths: len(paths),
		State: e,
	}, nil
}
