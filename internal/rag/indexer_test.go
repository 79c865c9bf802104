package rag

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func makeChunks(n int) []Chunk {
	chunks := make([]Chunk, n)
	for i := range chunks {
		chunks[i] = Chunk{
			ID:    ChunkID(i),
			Text:  fmt.Sprintf("passage %d of the book", i),
			Page:  i/3 + 1,
			Index: i,
		}
	}
	return chunks
}

func TestDefaultIndexOptions(t *testing.T) {
	if got := DefaultIndexOptions().BatchSize; got != 64 {
		t.Errorf("BatchSize = %d, want 64", got)
	}
}

func TestIndexChunks_Batches(t *testing.T) {
	tests := []struct {
		name        string
		chunks      int
		batchSize   int
		wantBatches int
	}{
		{name: "single batch", chunks: 5, batchSize: 10, wantBatches: 1},
		{name: "exact multiple", chunks: 20, batchSize: 10, wantBatches: 2},
		{name: "remainder", chunks: 25, batchSize: 10, wantBatches: 3},
		{name: "default batch size", chunks: 70, batchSize: 0, wantBatches: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			embedder := &mockEmbedder{}
			store := &mockVectorStore{}

			n, err := IndexChunks(context.Background(), makeChunks(tt.chunks), embedder, store, IndexOptions{BatchSize: tt.batchSize})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if n != tt.chunks {
				t.Errorf("inserted = %d, want %d", n, tt.chunks)
			}
			if embedder.calls != tt.wantBatches {
				t.Errorf("embed calls = %d, want %d", embedder.calls, tt.wantBatches)
			}
			if store.inserts != tt.wantBatches {
				t.Errorf("insert calls = %d, want %d", store.inserts, tt.wantBatches)
			}
			if len(store.records) != tt.chunks {
				t.Errorf("stored records = %d, want %d", len(store.records), tt.chunks)
			}
		})
	}
}

func TestIndexChunks_PreservesChunkMetadata(t *testing.T) {
	store := &mockVectorStore{}
	chunks := makeChunks(4)

	if _, err := IndexChunks(context.Background(), chunks, &mockEmbedder{}, store, IndexOptions{BatchSize: 3}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i, record := range store.records {
		if record.Chunk != chunks[i] {
			t.Errorf("record %d chunk = %+v, want %+v", i, record.Chunk, chunks[i])
		}
		if len(record.Embedding) == 0 {
			t.Errorf("record %d has no embedding", i)
		}
	}
}

func TestIndexChunks_Empty(t *testing.T) {
	embedder := &mockEmbedder{}

	n, err := IndexChunks(context.Background(), nil, embedder, &mockVectorStore{}, DefaultIndexOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 0 || embedder.calls != 0 {
		t.Errorf("expected no work for empty input, got n=%d calls=%d", n, embedder.calls)
	}
}

func TestIndexChunks_NilDependencies(t *testing.T) {
	chunks := makeChunks(1)

	if _, err := IndexChunks(context.Background(), chunks, nil, &mockVectorStore{}, DefaultIndexOptions()); err == nil {
		t.Error("expected error for nil embedder")
	}
	if _, err := IndexChunks(context.Background(), chunks, &mockEmbedder{}, nil, DefaultIndexOptions()); err == nil {
		t.Error("expected error for nil vector store")
	}
}

func TestIndexChunks_EmbedErrorStopsIndexing(t *testing.T) {
	calls := 0
	embedder := &mockEmbedder{
		embedFunc: func(ctx context.Context, texts []string) ([]EmbeddingRecord, error) {
			calls++
			if calls == 2 {
				return nil, ErrEmbeddingFailed
			}
			return (&mockEmbedder{}).Embed(ctx, texts)
		},
	}
	store := &mockVectorStore{}

	n, err := IndexChunks(context.Background(), makeChunks(10), embedder, store, IndexOptions{BatchSize: 4})
	if !errors.Is(err, ErrEmbeddingFailed) {
		t.Fatalf("expected ErrEmbeddingFailed, got %v", err)
	}
	if n != 4 {
		t.Errorf("inserted before failure = %d, want 4", n)
	}
}

func TestIndexChunks_ShortEmbeddingResponse(t *testing.T) {
	embedder := &mockEmbedder{
		embedFunc: func(ctx context.Context, texts []string) ([]EmbeddingRecord, error) {
			return []EmbeddingRecord{{Embedding: []float32{1, 1, 1}}}, nil
		},
	}

	_, err := IndexChunks(context.Background(), makeChunks(3), embedder, &mockVectorStore{}, DefaultIndexOptions())
	if !errors.Is(err, ErrEmbeddingFailed) {
		t.Errorf("expected ErrEmbeddingFailed, got %v", err)
	}
}

func TestIndexChunks_InsertError(t *testing.T) {
	store := &mockVectorStore{
		insertFunc: func(ctx context.Context, records []ChunkRecord) error {
			return ErrInsertFailed
		},
	}

	_, err := IndexChunks(context.Background(), makeChunks(3), &mockEmbedder{}, store, DefaultIndexOptions())
	if !errors.Is(err, ErrInsertFailed) {
		t.Errorf("expected ErrInsertFailed, got %v", err)
	}
}
