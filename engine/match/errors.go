package match

import "errors"

var (
	// ErrBusy is returned when a gesture or resolution arrives while another one is running.
	ErrBusy = errors.New("board is busy resolving a match")

	// ErrPathTooShort is returned for paths that cannot form a match.
	ErrPathTooShort = errors.New("path too short")

	ErrGameOver   = errors.New("game is over")
	ErrNotStarted = errors.New("game not started")

	// ErrArenaExhausted means every piece slot is in use.
	ErrArenaExhausted = errors.New("piece arena exhausted")
)

var (
	// ErrInvalidPath is returned by SubmitPath when a step is not a legal extension.
	ErrInvalidPath = errors.New("invalid path")

	ErrPaused = errors.New("game is paused")
)
