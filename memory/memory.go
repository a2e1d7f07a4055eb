package memory

import (
	"context"
	"time"
)

// Record is one stored memory. At most one live record exists per
// (ID, OwnerID); re-adding the same key replaces the prior record.
type Record struct {
	ID        string            `json:"id"`
	OwnerID   string            `json:"owner_id"`
	Text      string            `json:"text"`
	Vector    []float32         `json:"vector"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// SearchResult is one similarity-search hit.
type SearchResult struct {
	ID         string            `json:"id"`
	Text       string            `json:"text"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	Similarity float64           `json:"similarity"`
}

// Store is the durable record collection. All operations are owner-scoped;
// a record created under one owner is never visible to another.
//
// Implementations must serialize writes (single-writer discipline) and give
// Search a consistent snapshot, never a torn read mid-write.
type Store interface {
	// Add inserts rec, replacing any record with the same (ID, OwnerID).
	// The record must be durably written before Add returns nil.
	Add(ctx context.Context, rec Record) error

	// Delete removes the matching record if present and reports whether a
	// removal occurred. A miss is not an error.
	Delete(ctx context.Context, id, ownerID string) (bool, error)

	// Search ranks the owner's records by cosine similarity against the
	// query vector, descending, ties kept in insertion order. Records whose
	// vector dimensionality disagrees with the query are excluded, never an
	// error. A zero-norm query yields an empty result.
	Search(ctx context.Context, ownerID string, query []float32, limit int) ([]SearchResult, error)

	// Count returns the number of live records for the owner.
	Count(ctx context.Context, ownerID string) (int, error)

	// Close flushes and releases resources.
	Close() error
}

// Embedder converts text to a fixed-dimension vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)

	// Dimensions returns the embedding vector size.
	Dimensions() int
}

// IsZeroVector reports whether every component of v is zero. A zero vector
// is the degraded output of a failed embedding call; its cosine similarity
// against anything is defined as 0.
func IsZeroVector(v []float32) bool {
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}
