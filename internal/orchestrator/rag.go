package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Yates-Labs/bookrag/internal/answer"
	"github.com/Yates-Labs/bookrag/internal/chunker"
	"github.com/Yates-Labs/bookrag/internal/loader"
	"github.com/Yates-Labs/bookrag/internal/logging"
	"github.com/Yates-Labs/bookrag/internal/rag"
)

var (
	ErrEmptyQuestion  = errors.New("question cannot be empty")
	ErrNotInitialized = errors.New("pipeline not initialized")
	ErrEmptyDocument  = errors.New("document produced no chunks")
)

const (
	VectorLocal  = "local"
	VectorMilvus = "milvus"
)

// RAGConfig holds configuration for the question-answering pipeline.
type RAGConfig struct {
	// PDFPath is the novel to index
	PDFPath string

	// Book names the novel in the prompt
	Book answer.Book

	// ChunkSize and ChunkOverlap configure the recursive splitter (code points)
	ChunkSize    int
	ChunkOverlap int

	// TopK is the number of chunks retrieved per question
	TopK int

	// BatchSize is the number of chunks embedded per API call
	BatchSize int

	// VectorType selects the store backend: "local" or "milvus"
	VectorType string

	EmbedderConfig rag.EmbedderConfig
	LLMConfig      answer.LLMConfig
	LocalConfig    rag.LocalConfig
	MilvusConfig   rag.MilvusConfig
}

// DefaultRAGConfig returns the defaults of the original deployment.
func DefaultRAGConfig() RAGConfig {
	return RAGConfig{
		PDFPath:      "The_War_of_the_Worlds_NT.pdf",
		Book:         answer.DefaultBook(),
		ChunkSize:    chunker.DefaultChunkSize,
		ChunkOverlap: chunker.DefaultChunkOverlap,
		TopK:         5,
		BatchSize:    rag.DefaultIndexOptions().BatchSize,
		VectorType:   VectorLocal,
		EmbedderConfig: rag.EmbedderConfig{
			Model:     "text-embedding-3-small",
			Dimension: 768,
		},
		LLMConfig:    answer.DefaultLLMConfig(),
		LocalConfig:  rag.DefaultLocalConfig(),
		MilvusConfig: rag.DefaultMilvusConfig(),
	}
}

// Splitter turns document pages into chunks.
type Splitter interface {
	SplitPages(pages []loader.Page) []rag.Chunk
}

// Components are the collaborators of a pipeline. Tests inject mocks here.
type Components struct {
	Loader   loader.Loader
	Splitter Splitter
	Embedder rag.Embedder
	Store    rag.VectorStore
	LLM      answer.LLM
}

// InitResult describes what Initialize did.
type InitResult struct {
	Rebuilt  bool          `json:"rebuilt"`
	Pages    int           `json:"pages"`
	Chunks   int           `json:"chunks"`
	Duration time.Duration `json:"duration"`
}

// Stats summarizes the pipeline for display.
type Stats struct {
	Initialized    bool   `json:"initialized"`
	Chunks         int    `json:"chunks"`
	VectorType     string `json:"vector_type"`
	EmbeddingModel string `json:"embedding_model"`
	ChatModel      string `json:"chat_model"`
	ChunkSize      int    `json:"chunk_size"`
	TopK           int    `json:"top_k"`
}

// RAGPipeline orchestrates indexing of the book and answering questions over it.
// Initialize takes the write lock; Query runs under the read lock.
type RAGPipeline struct {
	config    RAGConfig
	logger    *zap.Logger
	loader    loader.Loader
	splitter  Splitter
	embedder  rag.Embedder
	store     rag.VectorStore
	retriever *rag.Retriever
	generator *answer.Generator

	mu          sync.RWMutex
	initialized bool
	chunks      int
}

// NewRAGPipeline creates a pipeline backed by the PDF loader, the OpenAI-compatible
// embedder and LLM, and the configured vector store.
func NewRAGPipeline(ctx context.Context, config RAGConfig, logger *zap.Logger) (*RAGPipeline, error) {
	splitter, err := chunker.NewRecursiveSplitter(config.ChunkSize, config.ChunkOverlap)
	if err != nil {
		return nil, fmt.Errorf("failed to create splitter: %w", err)
	}

	embedder, err := rag.NewOpenAIEmbedder(config.EmbedderConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}

	llm, err := answer.NewOpenAILLM(config.LLMConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM: %w", err)
	}

	store, err := newVectorStore(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create vector store: %w", err)
	}

	pipeline, err := NewRAGPipelineFromComponents(config, Components{
		Loader:   loader.NewPDFLoader(),
		Splitter: splitter,
		Embedder: embedder,
		Store:    store,
		LLM:      llm,
	}, logger)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	return pipeline, nil
}

func newVectorStore(ctx context.Context, config RAGConfig) (rag.VectorStore, error) {
	dimension := config.EmbedderConfig.Dimension

	switch strings.ToLower(config.VectorType) {
	case "", VectorLocal:
		local := config.LocalConfig
		local.Dimension = dimension
		return rag.NewLocalStore(local)
	case VectorMilvus:
		milvus := config.MilvusConfig
		milvus.Dimension = dimension
		return rag.NewMilvusStore(ctx, milvus)
	default:
		return nil, fmt.Errorf("unsupported vector type: %s (supported: local, milvus)", config.VectorType)
	}
}

// NewRAGPipelineFromComponents wires a pipeline from existing collaborators.
func NewRAGPipelineFromComponents(config RAGConfig, c Components, logger *zap.Logger) (*RAGPipeline, error) {
	if c.Loader == nil || c.Splitter == nil || c.LLM == nil {
		return nil, fmt.Errorf("loader, splitter and LLM are required")
	}

	retriever, err := rag.NewRetriever(c.Embedder, c.Store)
	if err != nil {
		return nil, fmt.Errorf("failed to create retriever: %w", err)
	}

	if config.TopK <= 0 {
		return nil, fmt.Errorf("topK must be positive, got %d", config.TopK)
	}

	return &RAGPipeline{
		config:    config,
		logger:    logging.OrNop(logger).With(zap.String("component", "rag_pipeline")),
		loader:    c.Loader,
		splitter:  c.Splitter,
		embedder:  c.Embedder,
		store:     c.Store,
		retriever: retriever,
		generator: answer.NewGenerator(c.LLM, config.LLMConfig),
	}, nil
}

// Close releases resources held by the pipeline.
func (p *RAGPipeline) Close() error {
	if p.store != nil {
		return p.store.Close()
	}
	return nil
}

// Config returns the pipeline configuration
func (p *RAGPipeline) Config() RAGConfig {
	return p.config
}

// Initialize loads the persisted index, or builds it from the PDF when none
// exists or force is set. Loading an existing index makes no embedding calls.
func (p *RAGPipeline) Initialize(ctx context.Context, force bool) (*InitResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	start := time.Now()

	exists, err := p.store.Exists(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to check vector store: %w", err)
	}

	if exists && !force {
		count, err := p.store.Count(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to count stored chunks: %w", err)
		}

		p.initialized = true
		p.chunks = count
		p.logger.Info("vector store already exists, loaded", zap.Int("chunks", count))

		return &InitResult{Chunks: count, Duration: time.Since(start)}, nil
	}

	if force {
		p.logger.Info("rebuilding vector store", zap.Bool("force", force))
	} else {
		p.logger.Info("creating new vector store")
	}

	pages, chunks, err := p.loadAndSplit(ctx)
	if err != nil {
		return nil, err
	}

	if err := p.store.Reset(ctx); err != nil {
		return nil, fmt.Errorf("failed to reset vector store: %w", err)
	}
	p.initialized = false
	p.chunks = 0

	p.logger.Info("embedding chunks",
		zap.Int("chunks", len(chunks)),
		zap.String("model", p.embedder.GetModel()),
		zap.Int("batch_size", p.config.BatchSize))

	inserted, err := rag.IndexChunks(ctx, chunks, p.embedder, p.store, rag.IndexOptions{BatchSize: p.config.BatchSize})
	if err != nil {
		p.logger.Error("indexing failed", zap.Int("inserted", inserted), zap.Error(err))
		// A partial index would pass the Exists check on the next run
		if resetErr := p.store.Reset(context.WithoutCancel(ctx)); resetErr != nil {
			p.logger.Error("failed to remove partial index", zap.Error(resetErr))
		}
		return nil, fmt.Errorf("failed to index chunks: %w", err)
	}

	p.initialized = true
	p.chunks = inserted

	result := &InitResult{
		Rebuilt:  true,
		Pages:    len(pages),
		Chunks:   inserted,
		Duration: time.Since(start),
	}
	p.logger.Info("vector store created",
		zap.Int("pages", result.Pages),
		zap.Int("chunks", result.Chunks),
		zap.Duration("duration", result.Duration))

	return result, nil
}

// Query answers a question: embed → top-K search → prompt → LLM.
func (p *RAGPipeline) Query(ctx context.Context, question string) (*answer.Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, ErrEmptyQuestion
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	if !p.initialized {
		return nil, ErrNotInitialized
	}

	// Stage 1: Retrieval
	p.logger.Debug("retrieving context", zap.Int("top_k", p.config.TopK))
	sources, err := p.retriever.RetrieveContextForQuery(ctx, question, p.config.TopK)
	if err != nil {
		return nil, fmt.Errorf("retrieval failed: %w", err)
	}
	p.logger.Debug("retrieved context chunks", zap.Int("count", len(sources)))

	// Stage 2: Prompt assembly
	prompt := answer.AssemblePrompt(p.config.Book, question, sources)
	p.logger.Debug("assembled prompt", zap.Int("characters", len(prompt)))

	// Stage 3: Generation
	ans, err := p.generator.Generate(ctx, question, prompt, sources)
	if err != nil {
		return nil, fmt.Errorf("answer generation failed: %w", err)
	}
	p.logger.Info("answered question",
		zap.String("question", question),
		zap.Int("sources", len(sources)),
		zap.Int("answer_chars", len(ans.Text)))

	return ans, nil
}

// Stats reports the pipeline configuration and the number of indexed chunks.
func (p *RAGPipeline) Stats(ctx context.Context) (Stats, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	stats := Stats{
		Initialized:    p.initialized,
		Chunks:         p.chunks,
		VectorType:     p.config.VectorType,
		EmbeddingModel: p.embedder.GetModel(),
		ChatModel:      p.config.LLMConfig.Model,
		ChunkSize:      p.config.ChunkSize,
		TopK:           p.config.TopK,
	}

	if p.initialized {
		count, err := p.store.Count(ctx)
		if err != nil {
			return stats, fmt.Errorf("failed to count stored chunks: %w", err)
		}
		stats.Chunks = count
	}

	return stats, nil
}
