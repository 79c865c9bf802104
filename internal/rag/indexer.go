package rag

import (
	"context"
	"fmt"
)

// DefaultIndexOptions returns sensible defaults for indexing
func DefaultIndexOptions() IndexOptions {
	return IndexOptions{
		BatchSize: 64, // Batch size for embedding API calls
	}
}

// IndexChunks embeds chunks in batches and stores them in the vector store.
// It returns the number of chunks inserted. Batches are inserted as soon as they
// are embedded, so a failure part-way leaves the earlier batches stored.
func IndexChunks(
	ctx context.Context,
	chunks []Chunk,
	embedder Embedder,
	vectorStore VectorStore,
	opts IndexOptions,
) (int, error) {
	if len(chunks) == 0 {
		return 0, nil
	}

	if embedder == nil {
		return 0, fmt.Errorf("embedder cannot be nil")
	}

	if vectorStore == nil {
		return 0, fmt.Errorf("vector store cannot be nil")
	}

	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultIndexOptions().BatchSize
	}

	inserted := 0
	for batchStart := 0; batchStart < len(chunks); batchStart += batchSize {
		batchEnd := min(batchStart+batchSize, len(chunks))
		batch := chunks[batchStart:batchEnd]

		texts := make([]string, len(batch))
		for i, chunk := range batch {
			texts[i] = chunk.Text
		}

		embeddingRecords, err := embedder.Embed(ctx, texts)
		if err != nil {
			return inserted, fmt.Errorf("failed to generate embeddings for batch starting at %d: %w", batchStart, err)
		}
		if len(embeddingRecords) != len(batch) {
			return inserted, fmt.Errorf("%w: batch starting at %d returned %d embeddings for %d chunks",
				ErrEmbeddingFailed, batchStart, len(embeddingRecords), len(batch))
		}

		records := make([]ChunkRecord, len(batch))
		for i, chunk := range batch {
			records[i] = ChunkRecord{
				Chunk:     chunk,
				Embedding: embeddingRecords[i].Embedding,
			}
		}

		if err := vectorStore.Insert(ctx, records); err != nil {
			return inserted, fmt.Errorf("failed to insert batch starting at %d: %w", batchStart, err)
		}
		inserted += len(records)
	}

	return inserted, nil
}
