// Package answer turns retrieved book passages into an answer to a reader's
// question. The chat model sits behind the LLM interface so the pipeline can
// run against OpenAI-compatible endpoints or the in-process MockLLM.
package answer

import (
	"context"
	"errors"
)

var (
	ErrLLMFailed     = errors.New("chat completion failed")
	ErrInvalidConfig = errors.New("invalid chat model configuration")
)

// LLM completes a fully assembled prompt. Safe for concurrent use.
type LLM interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// LLMConfig configures the chat model used to answer questions.
type LLMConfig struct {
	Model       string
	Temperature float32 // 0-2
	MaxTokens   int     // 0 leaves the limit to the provider
	APIKey      string  // falls back to OPENAI_API_KEY
	BaseURL     string  // empty means api.openai.com
}

// DefaultLLMConfig answers with gpt-4o-mini at temperature 0.3.
func DefaultLLMConfig() LLMConfig {
	return LLMConfig{
		Model:       "gpt-4o-mini",
		Temperature: 0.3,
	}
}
