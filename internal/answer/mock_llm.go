package answer

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// MockLLM is a deterministic LLM implementation for testing.
type MockLLM struct {
	// Response is the fixed text returned by Generate.
	// If empty, a default response is derived from the prompt.
	Response string

	// Error, if set, is returned by Generate instead of a response.
	Error error

	// LastPrompt stores the most recent prompt passed to Generate.
	LastPrompt string

	// Calls counts Generate invocations.
	Calls int

	mu sync.Mutex
}

// NewMockLLM creates a mock LLM with the given fixed response.
func NewMockLLM(response string) *MockLLM {
	return &MockLLM{Response: response}
}

// NewMockLLMWithError creates a mock LLM that always returns an error.
func NewMockLLMWithError(err error) *MockLLM {
	return &MockLLM{Error: err}
}

// Generate returns the configured response or generates a deterministic one.
func (m *MockLLM) Generate(ctx context.Context, prompt string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.LastPrompt = prompt
	m.Calls++

	if m.Error != nil {
		return "", m.Error
	}

	if m.Response != "" {
		return m.Response, nil
	}

	return generateMockResponse(prompt), nil
}

// generateMockResponse echoes the question found in the prompt.
func generateMockResponse(prompt string) string {
	question := "unknown"
	if idx := strings.LastIndex(prompt, questionLabel); idx >= 0 {
		rest := prompt[idx+len(questionLabel):]
		if line, _, _ := strings.Cut(rest, "\n"); strings.TrimSpace(line) != "" {
			question = strings.TrimSpace(line)
		}
	}

	passages := 0
	if _, body, ok := strings.Cut(prompt, contextHeader); ok {
		body, _, _ = strings.Cut(body, questionLabel)
		for _, p := range strings.Split(body, "\n\n") {
			if strings.TrimSpace(p) != "" {
				passages++
			}
		}
	}

	return fmt.Sprintf("Based on %d passages from the book, this answers: %s", passages, question)
}
