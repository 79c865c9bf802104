package rag

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/milvus-io/milvus-sdk-go/v2/entity"
)

// TestMilvusStore_EmptyRecords tests that empty records are handled gracefully (no-op)
func TestMilvusStore_EmptyRecords(t *testing.T) {
	ctx := context.Background()

	// No client is needed: empty inserts return before any RPC
	store := &MilvusStore{
		config: DefaultMilvusConfig(),
	}

	if err := store.Insert(ctx, []ChunkRecord{}); err != nil {
		t.Errorf("Expected nil for empty records, got: %v", err)
	}
}

func TestMilvusStore_DimensionValidation(t *testing.T) {
	ctx := context.Background()
	store := &MilvusStore{
		config: DefaultMilvusConfig(),
	}

	records := []ChunkRecord{{Chunk: Chunk{ID: ChunkID(0), Text: "x"}, Embedding: []float32{1, 2, 3}}}
	if err := store.Insert(ctx, records); !errors.Is(err, ErrInvalidDimension) {
		t.Errorf("Insert: expected ErrInvalidDimension, got %v", err)
	}

	if _, err := store.Search(ctx, []float32{1, 2, 3}, 5); !errors.Is(err, ErrInvalidDimension) {
		t.Errorf("Search: expected ErrInvalidDimension, got %v", err)
	}
}

// TestDefaultMilvusConfig tests default configuration
func TestDefaultMilvusConfig(t *testing.T) {
	t.Setenv("MILVUS_ADDRESS", "")
	t.Setenv("MILVUS_COLLECTION", "")

	config := DefaultMilvusConfig()

	if config.Address != "localhost:19530" {
		t.Errorf("Expected default address, got %s", config.Address)
	}

	if config.CollectionName == "" {
		t.Error("Expected non-empty collection name")
	}

	if config.Dimension != 768 {
		t.Errorf("Expected dimension 768, got %d", config.Dimension)
	}

	if config.IndexType != "HNSW" {
		t.Errorf("Expected index type HNSW, got %s", config.IndexType)
	}

	if config.MetricType != "COSINE" {
		t.Errorf("Expected metric type COSINE, got %s", config.MetricType)
	}
}

func TestDefaultMilvusConfig_Env(t *testing.T) {
	t.Setenv("MILVUS_ADDRESS", "milvus:19530")
	t.Setenv("MILVUS_COLLECTION", "novel")

	config := DefaultMilvusConfig()
	if config.Address != "milvus:19530" || config.CollectionName != "novel" {
		t.Errorf("env overrides not applied: %+v", config)
	}
}

func TestMetricType(t *testing.T) {
	tests := []struct {
		in      string
		want    entity.MetricType
		wantErr bool
	}{
		{in: "", want: entity.COSINE},
		{in: "cosine", want: entity.COSINE},
		{in: "L2", want: entity.L2},
		{in: "ip", want: entity.IP},
		{in: "hamming", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := metricType(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error but got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("metricType(%q) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
}

func TestNewMilvusStore_InvalidDimension(t *testing.T) {
	config := DefaultMilvusConfig()
	config.Dimension = 0

	if _, err := NewMilvusStore(context.Background(), config); !errors.Is(err, ErrInvalidDimension) {
		t.Errorf("expected ErrInvalidDimension, got %v", err)
	}
}

// Integration test: Reset, Insert, Search, Count against a running Milvus
func TestMilvusStore_Integration_FullWorkflow(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}
	if os.Getenv("MILVUS_ADDRESS") == "" {
		t.Skip("MILVUS_ADDRESS not set")
	}

	ctx := context.Background()
	config := DefaultMilvusConfig()
	config.Dimension = 3
	config.CollectionName = "bookrag_test_integration"

	store, err := NewMilvusStore(ctx, config)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	defer store.Close()

	if err := store.Reset(ctx); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}

	if err := store.Insert(ctx, testRecords()); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	exists, err := store.Exists(ctx)
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if !exists {
		t.Error("expected collection to report data after insert")
	}

	chunks, err := store.Search(ctx, []float32{1, 0, 0}, 2)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(chunks) == 0 {
		t.Fatal("expected search results")
	}
	if chunks[0].ChunkID != ChunkID(0) {
		t.Errorf("top result = %s, want %s", chunks[0].ChunkID, ChunkID(0))
	}
}
