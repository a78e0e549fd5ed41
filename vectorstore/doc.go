// Package vectorstore persists competitor snapshots with their embedding
// vectors and answers nearest-neighbor queries for the RAG layer.
//
// Three backends are provided: MemoryStore for tests and single-run use,
// RedisStore for a shared deployment, and SQLiteStore for a local
// file-backed history. All of them rank by cosine similarity, breaking
// ties by most recently updated record.
package vectorstore
