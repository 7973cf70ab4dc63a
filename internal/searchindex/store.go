// Package searchindex owns the live search index handle and its durable
// snapshot.
//
// The handle is loaded lazily from the snapshot store on first use. Writes go
// through Update, which applies a mutation and persists the resulting
// snapshot while holding the writer lock, so two concurrent updates can no
// longer overwrite each other's snapshot. Queries only take the read lock long
// enough to fetch the current handle.
//
// Rebuilds fill a detached handle from NewHandle and publish it with Swap.
// A single-document Update that commits between a rebuild reading the
// authoritative store and its Swap is discarded by the swap; callers that need
// it back must re-sync that document.
package searchindex

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/khoahotran/blog-search/internal/domain/search"
	"github.com/khoahotran/blog-search/pkg/logger"
)

const snapshotVersion = 1

type snapshot struct {
	Version   int                     `json:"version"`
	Documents []search.SearchDocument `json:"documents"`
}

// Writer is the mutation surface handed to Update callbacks.
type Writer interface {
	Insert(ctx context.Context, doc search.SearchDocument) error
	// RemoveIfPresent deletes id and reports whether it was indexed.
	RemoveIfPresent(ctx context.Context, id string) (bool, error)
}

type Store struct {
	newEngine search.EngineFactory
	snapshots search.SnapshotStore
	logger    logger.Logger

	mu      sync.RWMutex
	current search.Engine
}

func NewStore(factory search.EngineFactory, snapshots search.SnapshotStore, log logger.Logger) *Store {
	return &Store{
		newEngine: factory,
		snapshots: snapshots,
		logger:    log,
	}
}

// handle returns the live engine, loading it from the snapshot on first use.
func (s *Store) handle(ctx context.Context) (search.Engine, error) {
	s.mu.RLock()
	e := s.current
	s.mu.RUnlock()
	if e != nil {
		return e, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.handleLocked(ctx)
}

func (s *Store) handleLocked(ctx context.Context) (search.Engine, error) {
	if s.current != nil {
		return s.current, nil
	}
	e, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	s.current = e
	return e, nil
}

// load builds a fresh engine from the persisted snapshot, or an empty one
// when nothing has been persisted.
func (s *Store) load(ctx context.Context) (search.Engine, error) {
	data, err := s.snapshots.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load index snapshot: %w", err)
	}

	e, err := s.newEngine()
	if err != nil {
		return nil, fmt.Errorf("create index: %w", err)
	}
	if len(data) == 0 {
		s.logger.Info("No index snapshot found, starting with an empty index")
		return e, nil
	}

	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		_ = e.Close()
		return nil, fmt.Errorf("decode index snapshot: %w", err)
	}
	if snap.Version != snapshotVersion {
		_ = e.Close()
		return nil, fmt.Errorf("unsupported index snapshot version %d", snap.Version)
	}
	for _, doc := range snap.Documents {
		if err := e.Insert(ctx, doc); err != nil {
			_ = e.Close()
			return nil, fmt.Errorf("restore document %s: %w", doc.ID, err)
		}
	}

	s.logger.Info("Index snapshot loaded", zap.Int("documents", len(snap.Documents)), zap.Int("bytes", len(data)))
	return e, nil
}

type engineWriter struct {
	engine search.Engine
}

func (w engineWriter) Insert(ctx context.Context, doc search.SearchDocument) error {
	return w.engine.Insert(ctx, doc)
}

func (w engineWriter) RemoveIfPresent(ctx context.Context, id string) (bool, error) {
	return w.engine.Remove(ctx, id)
}

// Update runs fn against the live handle and persists the snapshot, all under
// the writer lock. Nothing is persisted when fn fails; mutations fn already
// applied stay in memory.
func (s *Store) Update(ctx context.Context, fn func(w Writer) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.handleLocked(ctx)
	if err != nil {
		return err
	}
	if err := fn(engineWriter{engine: e}); err != nil {
		return err
	}
	return s.persistLocked(ctx, e)
}

// Query runs term against the live handle.
func (s *Store) Query(ctx context.Context, term string, limit int) ([]search.Hit, error) {
	e, err := s.handle(ctx)
	if err != nil {
		return nil, err
	}
	return e.Query(ctx, term, limit)
}

// Persist writes the live handle to the snapshot store.
func (s *Store) Persist(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.handleLocked(ctx)
	if err != nil {
		return err
	}
	return s.persistLocked(ctx, e)
}

func (s *Store) persistLocked(ctx context.Context, e search.Engine) error {
	data, err := Encode(e.Documents())
	if err != nil {
		return err
	}
	if err := s.snapshots.Save(ctx, data); err != nil {
		return fmt.Errorf("save index snapshot: %w", err)
	}
	return nil
}

// NewHandle returns an empty engine that readers cannot see until Swap.
func (s *Store) NewHandle() (search.Engine, error) {
	e, err := s.newEngine()
	if err != nil {
		return nil, fmt.Errorf("create index: %w", err)
	}
	return e, nil
}

// Swap makes e the live handle and persists it. The previous handle is left
// open because in-flight queries may still hold it.
func (s *Store) Swap(ctx context.Context, e search.Engine) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current = e
	return s.persistLocked(ctx, e)
}

// Reload replaces the live handle with a fresh load of the snapshot, picking
// up writes persisted by another process. It holds the writer lock for the
// whole load so a local Update cannot persist in between and then be
// overwritten by an older snapshot.
func (s *Store) Reload(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.load(ctx)
	if err != nil {
		return err
	}
	s.current = e
	return nil
}

// Count returns the number of live documents.
func (s *Store) Count(ctx context.Context) (int, error) {
	e, err := s.handle(ctx)
	if err != nil {
		return 0, err
	}
	return e.Count(), nil
}

// Encode serialises documents in the snapshot format.
func Encode(docs []search.SearchDocument) ([]byte, error) {
	if docs == nil {
		docs = []search.SearchDocument{}
	}
	data, err := json.Marshal(snapshot{Version: snapshotVersion, Documents: docs})
	if err != nil {
		return nil, fmt.Errorf("encode index snapshot: %w", err)
	}
	return data, nil
}
