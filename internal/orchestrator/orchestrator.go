package orchestrator

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Yates-Labs/bookrag/internal/loader"
	"github.com/Yates-Labs/bookrag/internal/rag"
)

// LoadAndSplit runs the ingestion stage alone: read the PDF and split it into
// chunks. Nothing is embedded or stored.
func (p *RAGPipeline) LoadAndSplit(ctx context.Context) ([]rag.Chunk, error) {
	_, chunks, err := p.loadAndSplit(ctx)
	return chunks, err
}

func (p *RAGPipeline) loadAndSplit(ctx context.Context) ([]loader.Page, []rag.Chunk, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, fmt.Errorf("context cancelled before loading: %w", err)
	}

	// Step 1: Load pages
	p.logger.Info("loading PDF", zap.String("path", p.config.PDFPath))
	pages, err := p.loader.Load(ctx, p.config.PDFPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load document: %w", err)
	}
	p.logger.Info("loaded pages", zap.Int("pages", len(pages)))

	if err := ctx.Err(); err != nil {
		return nil, nil, fmt.Errorf("context cancelled after loading: %w", err)
	}

	// Step 2: Split into chunks
	chunks := p.splitter.SplitPages(pages)
	if len(chunks) == 0 {
		return nil, nil, fmt.Errorf("%w: %s", ErrEmptyDocument, p.config.PDFPath)
	}
	p.logger.Info("split document into chunks",
		zap.Int("chunks", len(chunks)),
		zap.Int("chunk_size", p.config.ChunkSize),
		zap.Int("chunk_overlap", p.config.ChunkOverlap))

	return pages, chunks, nil
}
