// Package record writes and reads squishies game records.
//
// A record is an SGF-style text file: a root node with game properties
// followed by one node per resolved path.
//
//	(;GM[squishies]FF[1]ID[...]MO[Zen]SD[42]IT[4]DT[2026-10-17]RE[1234]
//	;P[aa.ab.ac];P[dd.ed]
//	)
package record

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"squishies/types"
)

const (
	gameName = "squishies"
	format   = 1
	ext      = ".sqr"
)

// Header holds the root properties of a record.
type Header struct {
	ID           string
	Mode         types.Mode
	Seed         uint64
	InitialTypes int
}

// GameRecord tracks a game in progress and writes it to disk.
type GameRecord struct {
	FilePath string
	Header   Header
	Date     string
	Result   string
	paths    []string // ";P[aa.ab.ac]", ...
	file     *os.File
}

// NewGameRecord creates a new record file in dir and writes the initial header.
func NewGameRecord(dir string, h Header) (*GameRecord, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create records dir: %w", err)
	}

	now := time.Now()
	filename := fmt.Sprintf("%s_%s%s", now.Format("2006-01-02_150405"), strings.ToLower(h.Mode.String()), ext)
	path := filepath.Join(dir, filename)

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create record file: %w", err)
	}

	rec := &GameRecord{
		FilePath: path,
		Header:   h,
		Date:     now.Format("2006-01-02"),
		Result:   "?",
		file:     f,
	}

	if err := rec.flush(); err != nil {
		f.Close()
		return nil, err
	}

	return rec, nil
}

// cellCoord converts board coordinates to a letter pair.
// (0,0) -> "aa", (3,4) -> "de", (6,8) -> "gi".
func cellCoord(p types.Pos) string {
	return string(rune('a'+p.X)) + string(rune('a'+p.Y))
}

// EncodePath renders a path as dot-separated letter pairs.
func EncodePath(path []types.Pos) string {
	coords := make([]string, len(path))
	for i, p := range path {
		coords[i] = cellCoord(p)
	}
	return strings.Join(coords, ".")
}

// AddPath appends a resolved path to the record.
func (r *GameRecord) AddPath(path []types.Pos) error {
	if len(path) == 0 {
		return nil
	}
	r.paths = append(r.paths, fmt.Sprintf(";P[%s]", EncodePath(path)))
	return r.flush()
}

// Len returns the number of recorded paths.
func (r *GameRecord) Len() int { return len(r.paths) }

// SetResult records the final score.
func (r *GameRecord) SetResult(score int) error {
	r.Result = fmt.Sprint(score)
	return r.flush()
}

// Close performs a final flush and closes the file handle.
func (r *GameRecord) Close() error {
	if r.file == nil {
		return nil
	}
	err := r.flush()
	if cerr := r.file.Close(); err == nil {
		err = cerr
	}
	r.file = nil
	return err
}

// flush rewrites the complete record from scratch.
func (r *GameRecord) flush() error {
	if r.file == nil {
		return fmt.Errorf("file already closed")
	}

	var b strings.Builder

	fmt.Fprintf(&b, "(;GM[%s]FF[%d]", gameName, format)
	fmt.Fprintf(&b, "ID[%s]", r.Header.ID)
	fmt.Fprintf(&b, "MO[%s]", r.Header.Mode)
	fmt.Fprintf(&b, "SD[%d]", r.Header.Seed)
	if r.Header.InitialTypes > 0 {
		fmt.Fprintf(&b, "IT[%d]", r.Header.InitialTypes)
	}
	fmt.Fprintf(&b, "DT[%s]", r.Date)
	fmt.Fprintf(&b, "RE[%s]", r.Result)
	b.WriteString("\n")

	for _, p := range r.paths {
		b.WriteString(p)
	}

	b.WriteString(")\n")

	if _, err := r.file.Seek(0, 0); err != nil {
		return err
	}
	if err := r.file.Truncate(0); err != nil {
		return err
	}
	if _, err := r.file.WriteString(b.String()); err != nil {
		return fmt.Errorf("write record: %w", err)
	}
	return r.file.Sync()
}
