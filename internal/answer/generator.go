package answer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Yates-Labs/bookrag/internal/rag"
)

var (
	ErrGenerationFailed = errors.New("answer generation failed")
)

// Answer is a generated reply together with the passages it was grounded on.
type Answer struct {
	// Question is the user's question as asked
	Question string `json:"question"`

	// Text is the generated answer
	Text string `json:"text"`

	// Sources are the retrieved chunks, most similar first
	Sources []rag.ContextChunk `json:"sources"`

	// Model is the LLM model used to generate this answer
	Model string `json:"model"`

	// GeneratedAt is when this answer was created
	GeneratedAt time.Time `json:"generated_at"`
}

// Generator produces answers using an LLM.
// It invokes an LLM on an already-assembled prompt.
type Generator struct {
	llm    LLM
	config LLMConfig
}

// NewGenerator creates an answer generator with the given LLM implementation.
func NewGenerator(llm LLM, config LLMConfig) *Generator {
	return &Generator{
		llm:    llm,
		config: config,
	}
}

// Generate invokes the LLM with an already-assembled prompt.
// It must not perform retrieval or prompt construction.
func (g *Generator) Generate(ctx context.Context, question, prompt string, sources []rag.ContextChunk) (*Answer, error) {
	if g.llm == nil {
		return nil, fmt.Errorf("%w: LLM is required", ErrGenerationFailed)
	}
	if strings.TrimSpace(question) == "" {
		return nil, fmt.Errorf("%w: question is required", ErrGenerationFailed)
	}
	if prompt == "" {
		return nil, fmt.Errorf("%w: prompt is required", ErrGenerationFailed)
	}

	text, err := g.llm.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("%w: LLM invocation failed: %w", ErrGenerationFailed, err)
	}

	return &Answer{
		Question:    question,
		Text:        text,
		Sources:     sources,
		Model:       g.config.Model,
		GeneratedAt: time.Now(),
	}, nil
}
