package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultPath      = "shl_assessments_cache.json"
	DefaultFreshness = 24 * time.Hour
)

// Refresher produces a complete replacement list of assessments.
type Refresher interface {
	Refresh(ctx context.Context) ([]Assessment, error)
}

// RefreshObserver is notified after every refresh attempt.
type RefreshObserver interface {
	ObserveRefresh(err error, size int, duration time.Duration)
}

// Provider is what request handlers depend on.
type Provider interface {
	// Get returns the cached catalog, refreshing it first when it is missing,
	// older than the freshness window or forceRefresh is set. A failed refresh
	// falls back to a stale catalog when one exists and the policy allows it.
	Get(ctx context.Context, forceRefresh bool) (*Catalog, error)
	// Refresh replaces the catalog unconditionally and reports any failure.
	Refresh(ctx context.Context) (*Catalog, error)
}

// Options configures a Store.
type Options struct {
	Path      string
	Freshness time.Duration
	// ServeStale keeps serving an expired catalog when its refresh fails.
	ServeStale bool
}

// Store is a file-backed catalog cache with an in-memory mirror.
type Store struct {
	path       string
	freshness  time.Duration
	serveStale bool

	refresher Refresher
	observer  RefreshObserver
	logger    *zap.Logger
	now       func() time.Time

	mu      sync.RWMutex
	current *Catalog
	loaded  bool

	// refreshMu serializes refreshes so concurrent callers share one result.
	refreshMu sync.Mutex
}

var _ Provider = (*Store)(nil)

func NewStore(opts Options, refresher Refresher, logger *zap.Logger) *Store {
	if opts.Path == "" {
		opts.Path = DefaultPath
	}
	if opts.Freshness <= 0 {
		opts.Freshness = DefaultFreshness
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Store{
		path:       opts.Path,
		freshness:  opts.Freshness,
		serveStale: opts.ServeStale,
		refresher:  refresher,
		logger:     logger,
		now:        time.Now,
	}
}

// SetObserver attaches a refresh observer, typically metrics.
func (s *Store) SetObserver(o RefreshObserver) {
	s.observer = o
}

func (s *Store) Path() string {
	return s.path
}

func (s *Store) Get(ctx context.Context, forceRefresh bool) (*Catalog, error) {
	if !forceRefresh {
		if c := s.cached(); c.Len() > 0 && !c.Stale(s.now(), s.freshness) {
			s.logger.Debug("using cached assessment data",
				zap.Int("count", c.Len()),
				zap.Time("refreshed_at", c.RefreshedAt),
			)
			return c, nil
		}
	}

	c, err := s.refresh(ctx, forceRefresh)
	if err == nil {
		return c, nil
	}

	prior := s.cached()
	if prior.Len() > 0 && s.serveStale {
		s.logger.Warn("refresh failed, serving stale assessment data",
			zap.Error(err),
			zap.Time("refreshed_at", prior.RefreshedAt),
			zap.Int("count", prior.Len()),
		)
		return prior, nil
	}

	return nil, fmt.Errorf("%w: %w", ErrDataUnavailable, err)
}

func (s *Store) Refresh(ctx context.Context) (*Catalog, error) {
	c, err := s.refresh(ctx, true)
	if err != nil {
		if s.cached().Len() == 0 {
			err = fmt.Errorf("%w: %w", ErrDataUnavailable, err)
		}
		return nil, &RefreshError{Err: err}
	}
	return c, nil
}

func (s *Store) refresh(ctx context.Context, force bool) (*Catalog, error) {
	if s.refresher == nil {
		return nil, errors.New("no catalog refresher configured")
	}

	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	// Someone else may have refreshed while we were waiting.
	if !force {
		if c := s.cached(); c.Len() > 0 && !c.Stale(s.now(), s.freshness) {
			return c, nil
		}
	}

	s.logger.Info("fetching fresh assessment data", zap.Bool("forced", force))

	start := s.now()
	items, err := s.refresher.Refresh(ctx)
	if err == nil && len(items) == 0 {
		err = ErrEmptyCatalog
	}
	if s.observer != nil {
		s.observer.ObserveRefresh(err, len(items), s.now().Sub(start))
	}
	if err != nil {
		return nil, err
	}

	c := &Catalog{
		Assessments: items,
		RefreshedAt: s.now().UTC(),
	}

	if err := Save(s.path, c); err != nil {
		// The fresh data is still good in memory.
		s.logger.Error("writing assessment cache", zap.String("path", s.path), zap.Error(err))
	} else {
		s.logger.Info("assessment data cached", zap.String("path", s.path), zap.Int("count", c.Len()))
	}

	s.mu.Lock()
	s.current = c
	s.loaded = true
	s.mu.Unlock()

	return c, nil
}

// cached returns the in-memory catalog, loading the cache file on first use.
func (s *Store) cached() *Catalog {
	s.mu.RLock()
	if s.loaded {
		c := s.current
		s.mu.RUnlock()
		return c
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loaded {
		return s.current
	}

	c, err := Load(s.path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		s.logger.Info("no assessment cache found", zap.String("path", s.path))
	case err != nil:
		s.logger.Error("reading assessment cache", zap.String("path", s.path), zap.Error(err))
	default:
		s.current = c
	}
	s.loaded = true

	return s.current
}

// Load reads a catalog previously written by Save.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var c Catalog
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	return &c, nil
}

// Save writes the catalog to a temporary file next to path and renames it into
// place, so readers never observe a partial file.
func Save(path string, c *Catalog) error {
	if c == nil {
		return errors.New("catalog is nil")
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("ensure cache dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".catalog-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "  ")
	if err := enc.Encode(c); err != nil {
		tmp.Close()
		return fmt.Errorf("encode catalog: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename cache file: %w", err)
	}

	return nil
}
