// Package blob implements the memory store as a single versioned JSON blob
// on disk. The whole collection is loaded at startup and rewritten wholesale
// on every mutation, so a search never observes a record that was not yet
// durably written, and never a partially written one.
package blob

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/burrowkit/burrow/core"
	"github.com/burrowkit/burrow/memory"
)

// schemaVersion is bumped when the on-disk shape changes.
const schemaVersion = 1

type blobFile struct {
	Version int             `json:"version"`
	Records []memory.Record `json:"records"`
}

// Store is a file-backed memory.Store. Writes are serialized behind a
// single mutex; reads take a shared lock so they always see a consistent
// snapshot. The in-memory slice is only swapped after the blob has been
// durably replaced, so a failed persist leaves state matching the last
// successful write.
type Store struct {
	path    string
	mu      sync.RWMutex
	records []memory.Record
}

// Open loads the store at path. A missing file starts an empty store; a
// file written by a newer schema version is refused.
func Open(path string) (*Store, error) {
	s := &Store{path: path}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, core.WrapErr(core.KindStorage, err, "read memory store")
	}

	var file blobFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, core.WrapErr(core.KindStorage, err, "decode memory store")
	}
	if file.Version > schemaVersion {
		return nil, core.Errorf(core.KindStorage, "memory store version %d is newer than supported %d", file.Version, schemaVersion)
	}
	s.records = file.Records
	return s, nil
}

// Add inserts rec, replacing any record with the same (ID, OwnerID).
func (s *Store) Add(ctx context.Context, rec memory.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make([]memory.Record, 0, len(s.records)+1)
	for _, r := range s.records {
		if r.ID == rec.ID && r.OwnerID == rec.OwnerID {
			continue
		}
		next = append(next, r)
	}
	next = append(next, rec)

	if err := s.persist(next); err != nil {
		return err
	}
	s.records = next
	return nil
}

// Delete removes the matching record if present. Persists only when a
// removal actually occurred.
func (s *Store) Delete(ctx context.Context, id, ownerID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make([]memory.Record, 0, len(s.records))
	removed := false
	for _, r := range s.records {
		if r.ID == id && r.OwnerID == ownerID {
			removed = true
			continue
		}
		next = append(next, r)
	}
	if !removed {
		return false, nil
	}

	if err := s.persist(next); err != nil {
		return false, err
	}
	s.records = next
	return true, nil
}

// Search is a brute-force cosine scan over the owner's records.
func (s *Store) Search(ctx context.Context, ownerID string, query []float32, limit int) ([]memory.SearchResult, error) {
	if limit <= 0 || memory.IsZeroVector(query) {
		return nil, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	type scored struct {
		rec        memory.Record
		similarity float64
	}
	var candidates []scored
	for _, r := range s.records {
		if r.OwnerID != ownerID {
			continue
		}
		if len(r.Vector) != len(query) {
			// Embedding model changed since this record was written.
			continue
		}
		candidates = append(candidates, scored{rec: r, similarity: cosineSimilarity(query, r.Vector)})
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	// Stable: equal similarities keep insertion order.
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].similarity > candidates[j].similarity
	})
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}

	results := make([]memory.SearchResult, len(candidates))
	for i, c := range candidates {
		results[i] = memory.SearchResult{
			ID:         c.rec.ID,
			Text:       c.rec.Text,
			Metadata:   c.rec.Metadata,
			Similarity: c.similarity,
		}
	}
	return results, nil
}

// Count returns the number of live records for the owner.
func (s *Store) Count(ctx context.Context, ownerID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, r := range s.records {
		if r.OwnerID == ownerID {
			n++
		}
	}
	return n, nil
}

// Close flushes the current collection to disk.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persist(s.records)
}

// persist replaces the blob wholesale via temp file + rename, so readers of
// the file never see a partial write.
func (s *Store) persist(records []memory.Record) error {
	data, err := json.Marshal(blobFile{Version: schemaVersion, Records: records})
	if err != nil {
		return core.WrapErr(core.KindStorage, err, "encode memory store")
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return core.WrapErr(core.KindStorage, err, "create temp blob")
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return core.WrapErr(core.KindStorage, err, "write temp blob")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return core.WrapErr(core.KindStorage, err, "close temp blob")
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return core.WrapErr(core.KindStorage, err, "replace memory store")
	}
	return nil
}

// cosineSimilarity computes dot(a,b)/(|a||b|), defining the similarity of a
// zero-norm vector as 0 rather than NaN.
func cosineSimilarity(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

var _ memory.Store = (*Store)(nil)

// Path returns the backing file path.
func (s *Store) Path() string { return s.path }
