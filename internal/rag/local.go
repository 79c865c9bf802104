package rag

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"

	"github.com/philippgille/chromem-go"
)

// errInlineEmbedding is returned if chromem ever tries to embed text itself.
// Every record reaching the local store already carries its vector.
var errInlineEmbedding = errors.New("local store does not compute embeddings")

// LocalConfig holds configuration for the on-disk vector store
type LocalConfig struct {
	PersistDir     string // Directory holding the database files
	CollectionName string // Name of the collection
	Dimension      int    // Vector dimension (768 by default)
	Compress       bool   // gzip the persisted documents
}

// DefaultLocalConfig returns the default on-disk store configuration
func DefaultLocalConfig() LocalConfig {
	return LocalConfig{
		PersistDir:     "./vector_db",
		CollectionName: "war_of_the_worlds",
		Dimension:      768,
	}
}

// LocalStore implements VectorStore with an embedded chromem-go database
// persisted to a directory.
type LocalStore struct {
	db         *chromem.DB
	collection *chromem.Collection
	config     LocalConfig
}

// NewLocalStore opens (or creates) the persisted database and its collection.
func NewLocalStore(config LocalConfig) (*LocalStore, error) {
	if config.Dimension <= 0 {
		return nil, ErrInvalidDimension
	}
	if config.PersistDir == "" {
		return nil, fmt.Errorf("persist directory cannot be empty")
	}
	if config.CollectionName == "" {
		return nil, fmt.Errorf("collection name cannot be empty")
	}

	db, err := chromem.NewPersistentDB(config.PersistDir, config.Compress)
	if err != nil {
		return nil, fmt.Errorf("failed to open vector database at %s: %w", config.PersistDir, err)
	}

	store := &LocalStore{
		db:     db,
		config: config,
	}

	if err := store.ensureCollection(); err != nil {
		return nil, err
	}

	return store, nil
}

func (s *LocalStore) ensureCollection() error {
	metadata := map[string]string{
		"dimension": strconv.Itoa(s.config.Dimension),
	}

	collection, err := s.db.GetOrCreateCollection(s.config.CollectionName, metadata, noInlineEmbedding)
	if err != nil {
		return fmt.Errorf("failed to open collection %s: %w", s.config.CollectionName, err)
	}

	s.collection = collection
	return nil
}

func noInlineEmbedding(_ context.Context, _ string) ([]float32, error) {
	return nil, errInlineEmbedding
}

// Exists reports whether the persisted collection already holds chunks of the
// configured dimension. A collection built with another dimension must be rebuilt.
func (s *LocalStore) Exists(ctx context.Context) (bool, error) {
	if s.collection.Count() == 0 {
		return false, nil
	}
	if dim, ok := s.storedDimension(ctx); ok && dim != s.config.Dimension {
		return false, nil
	}
	return true, nil
}

// storedDimension returns the vector length of the first persisted chunk.
func (s *LocalStore) storedDimension(ctx context.Context) (int, bool) {
	doc, err := s.collection.GetByID(ctx, ChunkID(0))
	if err != nil {
		return 0, false
	}
	return len(doc.Embedding), true
}

// Reset deletes the collection with its files and recreates it empty
func (s *LocalStore) Reset(_ context.Context) error {
	if err := s.db.DeleteCollection(s.config.CollectionName); err != nil {
		return fmt.Errorf("failed to delete collection %s: %w", s.config.CollectionName, err)
	}
	return s.ensureCollection()
}

// Insert adds chunk records to the collection
func (s *LocalStore) Insert(ctx context.Context, records []ChunkRecord) error {
	if len(records) == 0 {
		return nil
	}

	docs := make([]chromem.Document, len(records))
	for i, record := range records {
		if len(record.Embedding) != s.config.Dimension {
			return fmt.Errorf("%w: chunk %s has %d dimensions, expected %d",
				ErrInvalidDimension, record.ID, len(record.Embedding), s.config.Dimension)
		}

		docs[i] = chromem.Document{
			ID:      record.ID,
			Content: record.Text,
			Metadata: map[string]string{
				"page":  strconv.Itoa(record.Page),
				"index": strconv.Itoa(record.Index),
			},
			Embedding: record.Embedding,
		}
	}

	if err := s.collection.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("%w: %v", ErrInsertFailed, err)
	}

	return nil
}

// Search returns up to topK chunks ordered by cosine similarity
func (s *LocalStore) Search(ctx context.Context, queryVector []float32, topK int) ([]ContextChunk, error) {
	if len(queryVector) != s.config.Dimension {
		return nil, fmt.Errorf("%w: expected %d, got %d", ErrInvalidDimension, s.config.Dimension, len(queryVector))
	}
	if topK <= 0 {
		return nil, fmt.Errorf("topK must be positive, got %d", topK)
	}

	// chromem rejects nResults larger than the collection
	n := min(topK, s.collection.Count())
	if n == 0 {
		return []ContextChunk{}, nil
	}
	if dim, ok := s.storedDimension(ctx); ok && dim != s.config.Dimension {
		return nil, fmt.Errorf("%w: collection %s holds %d-dimensional vectors, expected %d (rebuild the index)",
			ErrInvalidDimension, s.config.CollectionName, dim, s.config.Dimension)
	}

	results, err := s.collection.QueryEmbedding(ctx, queryVector, n, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSearchFailed, err)
	}

	chunks := make([]ContextChunk, 0, len(results))
	for _, r := range results {
		page, _ := strconv.Atoi(r.Metadata["page"])
		index, _ := strconv.Atoi(r.Metadata["index"])

		chunks = append(chunks, ContextChunk{
			ChunkID: r.ID,
			Text:    r.Content,
			Page:    page,
			Index:   index,
			Score:   r.Similarity,
		})
	}

	return chunks, nil
}

// Count returns the number of stored chunks
func (s *LocalStore) Count(_ context.Context) (int, error) {
	return s.collection.Count(), nil
}

// Close is a no-op; chromem writes every document to disk on insert.
func (s *LocalStore) Close() error {
	return nil
}
