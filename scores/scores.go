// Package scores persists best scores per game mode.
package scores

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/adrg/xdg"

	"squishies/engine"
)

var scoresFile = "squishies/scores.json"

// Backend names accepted by Open.
const (
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// FileStore keeps best scores in a JSON object keyed by mode.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore returns a store backed by path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// DefaultFileStore stores scores under the XDG data directory.
func DefaultFileStore() (*FileStore, error) {
	path, err := xdg.DataFile(scoresFile)
	if err != nil {
		return nil, fmt.Errorf("locate scores file: %w", err)
	}
	return NewFileStore(path), nil
}

func (f *FileStore) Path() string { return f.path }

func (f *FileStore) Get(_ context.Context, mode string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	all, err := f.read()
	if err != nil {
		return 0, err
	}
	return all[mode], nil
}

func (f *FileStore) Set(_ context.Context, mode string, score int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	all, err := f.read()
	if err != nil {
		return err
	}
	all[mode] = score
	return f.write(all)
}

func (f *FileStore) read() (map[string]int, error) {
	all := map[string]int{}
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return all, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read scores: %w", err)
	}
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, fmt.Errorf("decode scores %s: %w", f.path, err)
	}
	return all, nil
}

func (f *FileStore) write(all map[string]int) error {
	data, err := json.MarshalIndent(all, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return fmt.Errorf("create scores dir: %w", err)
	}
	if err := os.WriteFile(f.path, data, 0o664); err != nil {
		return fmt.Errorf("write scores: %w", err)
	}
	return nil
}

// MemoryStore keeps scores for the life of the process.
type MemoryStore struct {
	mu     sync.Mutex
	scores map[string]int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{scores: map[string]int{}}
}

func (m *MemoryStore) Get(_ context.Context, mode string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.scores[mode], nil
}

func (m *MemoryStore) Set(_ context.Context, mode string, score int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scores[mode] = score
	return nil
}

var (
	_ engine.ScoreStore = (*FileStore)(nil)
	_ engine.ScoreStore = (*MemoryStore)(nil)
	_ engine.ScoreStore = (*RedisStore)(nil)
)
