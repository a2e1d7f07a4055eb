// Package chromem implements the memory store on chromem-go, a pure-Go
// embedded vector database. It is the drop-in alternative to the blob
// store for callers that want per-document persistence instead of a
// wholesale blob.
package chromem

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	chromem "github.com/philippgille/chromem-go"

	"github.com/burrowkit/burrow/core"
	"github.com/burrowkit/burrow/memory"
)

// Reserved metadata keys used to round-trip Record fields.
const (
	metaOwnerID   = "owner_id"
	metaCreatedAt = "created_at"
)

// Store keeps one chromem collection per owner, which gives owner
// isolation at the namespace level on top of the owner filter.
type Store struct {
	db          *chromem.DB
	mu          sync.RWMutex
	collections map[string]*chromem.Collection
	dims        map[string]int // per-owner vector dimensionality
}

// Open creates a store. An empty path keeps everything in memory; a
// non-empty path persists documents under that directory.
func Open(path string) (*Store, error) {
	var db *chromem.DB
	var err error
	if path == "" {
		db = chromem.NewDB()
	} else {
		db, err = chromem.NewPersistentDB(path, false)
		if err != nil {
			return nil, core.WrapErr(core.KindStorage, err, "open chromem db")
		}
	}
	return &Store{
		db:          db,
		collections: make(map[string]*chromem.Collection),
		dims:        make(map[string]int),
	}, nil
}

func (s *Store) collection(ownerID string) (*chromem.Collection, error) {
	s.mu.RLock()
	col, ok := s.collections[ownerID]
	s.mu.RUnlock()
	if ok {
		return col, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if col, ok := s.collections[ownerID]; ok {
		return col, nil
	}

	name := "owner_" + ownerID
	col, err := s.db.GetOrCreateCollection(name, nil, nil)
	if err != nil {
		return nil, core.WrapErr(core.KindStorage, err, fmt.Sprintf("collection for owner %s", ownerID))
	}
	s.collections[ownerID] = col
	return col, nil
}

// Add inserts rec, replacing any document with the same id.
func (s *Store) Add(ctx context.Context, rec memory.Record) error {
	col, err := s.collection(rec.OwnerID)
	if err != nil {
		return err
	}

	// Delete-then-insert gives the replace semantics; chromem has no upsert.
	if err := col.Delete(ctx, nil, nil, rec.ID); err != nil {
		return core.WrapErr(core.KindStorage, err, "replace document")
	}

	metadata := map[string]string{
		metaOwnerID:   rec.OwnerID,
		metaCreatedAt: rec.CreatedAt.Format(time.RFC3339Nano),
	}
	for k, v := range rec.Metadata {
		metadata[k] = v
	}

	err = col.AddDocument(ctx, chromem.Document{
		ID:        rec.ID,
		Content:   rec.Text,
		Embedding: rec.Vector,
		Metadata:  metadata,
	})
	if err != nil {
		return core.WrapErr(core.KindStorage, err, "add document")
	}

	s.mu.Lock()
	s.dims[rec.OwnerID] = len(rec.Vector)
	s.mu.Unlock()
	return nil
}

// Delete removes the document if present.
func (s *Store) Delete(ctx context.Context, id, ownerID string) (bool, error) {
	col, err := s.collection(ownerID)
	if err != nil {
		return false, err
	}
	before := col.Count()
	if err := col.Delete(ctx, nil, nil, id); err != nil {
		return false, core.WrapErr(core.KindStorage, err, "delete document")
	}
	return col.Count() < before, nil
}

// Search queries the owner's collection by embedding.
func (s *Store) Search(ctx context.Context, ownerID string, query []float32, limit int) ([]memory.SearchResult, error) {
	if limit <= 0 || memory.IsZeroVector(query) {
		return nil, nil
	}

	col, err := s.collection(ownerID)
	if err != nil {
		return nil, err
	}
	count := col.Count()
	if count == 0 {
		return nil, nil
	}

	s.mu.RLock()
	dims, known := s.dims[ownerID]
	s.mu.RUnlock()
	if known && dims != len(query) {
		// Every candidate has mismatched dimensionality; all are excluded.
		return nil, nil
	}

	if limit > count {
		limit = count
	}
	results, err := col.QueryEmbedding(ctx, query, limit, map[string]string{metaOwnerID: ownerID}, nil)
	if err != nil {
		if strings.Contains(err.Error(), "dimension") {
			return nil, nil
		}
		return nil, core.WrapErr(core.KindStorage, err, "query collection")
	}

	out := make([]memory.SearchResult, 0, len(results))
	for _, r := range results {
		metadata := make(map[string]string, len(r.Metadata))
		for k, v := range r.Metadata {
			if k == metaOwnerID || k == metaCreatedAt {
				continue
			}
			metadata[k] = v
		}
		if len(metadata) == 0 {
			metadata = nil
		}
		out = append(out, memory.SearchResult{
			ID:         r.ID,
			Text:       r.Content,
			Metadata:   metadata,
			Similarity: float64(r.Similarity),
		})
	}
	return out, nil
}

// Count returns the owner's document count.
func (s *Store) Count(ctx context.Context, ownerID string) (int, error) {
	col, err := s.collection(ownerID)
	if err != nil {
		return 0, err
	}
	return col.Count(), nil
}

// Close is a no-op; chromem persists on write.
func (s *Store) Close() error { return nil }

var _ memory.Store = (*Store)(nil)
