package rag

import (
	"context"
	"fmt"
)

// Chunk is a bounded span of book text used as the unit of retrieval.
type Chunk struct {
	ID    string `json:"id"`
	Text  string `json:"text"`
	Page  int    `json:"page"`  // 1-based source page
	Index int    `json:"index"` // position in the whole document
}

// ChunkID returns the stable identifier for the chunk at sequence index i.
func ChunkID(i int) string {
	return fmt.Sprintf("chunk-%05d", i)
}

// ChunkRecord is a chunk together with its embedding, ready for insertion.
type ChunkRecord struct {
	Chunk
	Embedding []float32 `json:"embedding"`
}

// ContextChunk represents a retrieved chunk with its similarity score.
type ContextChunk struct {
	ChunkID string  `json:"chunk_id"`
	Text    string  `json:"text"`
	Page    int     `json:"page"`
	Index   int     `json:"index"`
	Score   float32 `json:"score"` // cosine similarity, higher is closer
}

// VectorStore defines the interface for vector storage and similarity search
type VectorStore interface {
	// Exists reports whether the store already holds persisted chunks
	Exists(ctx context.Context) (bool, error)

	// Reset drops all stored chunks and recreates an empty collection
	Reset(ctx context.Context) error

	// Insert stores chunk records; an empty slice is a no-op
	Insert(ctx context.Context, records []ChunkRecord) error

	// Search performs top-K similarity search, best match first
	Search(ctx context.Context, queryVector []float32, topK int) ([]ContextChunk, error)

	// Count returns the number of stored chunks
	Count(ctx context.Context) (int, error)

	// Close releases resources and closes connections
	Close() error
}

// IndexOptions provides configuration for chunk indexing
type IndexOptions struct {
	// BatchSize determines how many chunks to embed per API call
	BatchSize int
}
