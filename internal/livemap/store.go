package livemap

import (
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"solana-signal-lab/internal/domain"
	"solana-signal-lab/internal/observability"
)

// StoreOptions configures a Store.
type StoreOptions struct {
	Logger  *slog.Logger
	Metrics *observability.Metrics
}

// Store owns the live strategy map loaded from one file.
// The parsed map is cached by file modification time and reloaded on change.
// After a failed reload the last good map keeps serving.
type Store struct {
	path    string
	logger  *slog.Logger
	metrics *observability.Metrics

	mu         sync.Mutex
	current    *Map
	modTime    time.Time // mtime of the file that produced current
	failedMod  time.Time // mtime of the last file that failed to parse
	warnedMint map[string]struct{}
}

// NewStore creates a Store for path. Nothing is read until first use.
func NewStore(path string, opts StoreOptions) *Store {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		path:       path,
		logger:     logger.With("component", "livemap"),
		metrics:    opts.Metrics,
		warnedMint: make(map[string]struct{}),
	}
}

// Resolve returns the active strategy for (mint, regime), reloading the file
// first if it changed. Returns nil when the mint is absent, master-disabled,
// or disabled in that regime.
func (s *Store) Resolve(mint string, regime domain.Regime) (*domain.RegimeStrategy, error) {
	m, err := s.Map()
	if err != nil {
		return nil, err
	}
	return m.Resolve(mint, regime), nil
}

// Map returns the current map, reloading the file first if it changed.
func (s *Store) Map() (*Map, error) {
	info, err := os.Stat(s.path)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		if s.current != nil {
			s.logger.Warn("live strategy map unavailable, serving cached copy", "path", s.path, "error", err)
			return s.current, nil
		}
		return nil, fmt.Errorf("stat live strategy map: %w", err)
	}

	mod := info.ModTime()
	if s.current != nil && mod.Equal(s.modTime) {
		return s.current, nil
	}
	if s.current != nil && mod.Equal(s.failedMod) {
		return s.current, nil
	}

	m, err := s.load()
	s.metrics.RecordLiveMapReload(entryCount(m), err)
	if err != nil {
		s.failedMod = mod
		if s.current != nil {
			s.logger.Error("reload live strategy map failed, keeping previous", "path", s.path, "error", err)
			return s.current, nil
		}
		return nil, err
	}

	s.current = m
	s.modTime = mod
	s.failedMod = time.Time{}
	s.logger.Info("loaded live strategy map",
		"path", s.path,
		"version", m.Version,
		"entries", len(m.Entries),
	)
	return m, nil
}

// Invalidate drops the cached map so the next call re-reads the file.
func (s *Store) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = nil
	s.modTime = time.Time{}
	s.failedMod = time.Time{}
}

// load reads and parses the file. Must be called with mu held.
func (s *Store) load() (*Map, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read live strategy map: %w", err)
	}
	m, err := Parse(data)
	if err != nil {
		return nil, err
	}

	for _, mint := range m.Promoted {
		if _, done := s.warnedMint[mint]; done {
			continue
		}
		s.warnedMint[mint] = struct{}{}
		s.logger.Warn("flat live strategy entry promoted to all regimes", "mint", mint)
	}
	for _, mint := range m.OffCurve {
		s.logger.Warn("mint is not on the ed25519 curve", "mint", mint)
	}
	return m, nil
}

func entryCount(m *Map) int {
	if m == nil {
		return 0
	}
	return len(m.Entries)
}
