// Package memory provides the semantic long-term memory store.
//
// Records are owner-scoped snippets of text with an embedding vector,
// used to ground generation with relevant context. Search is brute-force
// cosine similarity over the owner's records, which is fine at the target
// scale (thousands of records, not millions); the Store interface allows
// substituting an indexed backend without changing callers.
//
// Architecture:
//   - Store: durable record collection (versioned blob file for local runs,
//     chromem-go as an embedded vector-database alternative)
//   - Embedder: text-to-vector conversion (Ollama or OpenAI-compatible
//     backends, a deterministic mock for tests, plus a ristretto-backed
//     caching decorator)
//   - Manager: composes the two and owns the degrade-to-zero-vector
//     policy for embedding failures
package memory
