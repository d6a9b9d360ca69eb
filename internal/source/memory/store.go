package memory

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"uems/internal/source"
)

// Store serves canned API bodies. Bodies come from Put or from JSON files
// in a fixtures directory named after the path: /api/gas/automated is
// read from api_gas_automated.json.
type Store struct {
	mu     sync.RWMutex
	dir    string
	bodies map[string][]byte
}

func New() *Store {
	return &Store{bodies: make(map[string][]byte)}
}

// NewFromDir serves fixtures from dir. Files are read on each fetch so
// fixtures can be edited while the server runs.
func NewFromDir(dir string) *Store {
	s := New()
	s.dir = dir
	return s
}

// FixtureName maps an API path to its fixture file name.
func FixtureName(path string) string {
	name := strings.Trim(path, "/")
	name = strings.NewReplacer("/", "_", "-", "_").Replace(name)
	return name + ".json"
}

// Put stores body for path, taking precedence over fixture files.
func (s *Store) Put(path string, body []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bodies[path] = append([]byte(nil), body...)
}

// Fetch implements source.Fetcher.
func (s *Store) Fetch(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	body, ok := s.bodies[path]
	s.mu.RUnlock()
	if ok {
		return append([]byte(nil), body...), nil
	}
	if s.dir == "" {
		return nil, fmt.Errorf("%s: %w", path, source.ErrNotFound)
	}
	body, err := os.ReadFile(filepath.Join(s.dir, FixtureName(path)))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", path, source.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read fixture for %s: %w", path, err)
	}
	return body, nil
}

// Paths lists the paths stored with Put.
func (s *Store) Paths() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.bodies))
	for p := range s.bodies {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}
