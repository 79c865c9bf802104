package orchestrator

import (
	"context"
	"errors"
	"testing"
)

func TestLoadAndSplit(t *testing.T) {
	f := newFixture()
	p := f.pipeline(t, testConfig())

	chunks, err := p.LoadAndSplit(context.Background())
	if err != nil {
		t.Fatalf("LoadAndSplit failed: %v", err)
	}

	if len(chunks) == 0 {
		t.Fatal("expected chunks")
	}
	if f.embedder.Calls() != 0 {
		t.Error("LoadAndSplit must not embed")
	}
	if len(f.store.records) != 0 || f.store.resets != 0 {
		t.Error("LoadAndSplit must not touch the vector store")
	}

	again, err := p.LoadAndSplit(context.Background())
	if err != nil {
		t.Fatalf("second LoadAndSplit failed: %v", err)
	}
	if len(again) != len(chunks) {
		t.Errorf("chunk count not deterministic: %d vs %d", len(again), len(chunks))
	}
}

func TestLoadAndSplit_CancelledContext(t *testing.T) {
	f := newFixture()
	p := f.pipeline(t, testConfig())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.LoadAndSplit(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if f.loader.calls != 0 {
		t.Error("loader should not run on a cancelled context")
	}
}

func TestPreview(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		n        int
		expected string
	}{
		{name: "short text", text: "The red weed.", n: 300, expected: "The red weed."},
		{name: "truncated", text: "abcdefghij", n: 4, expected: "abcd..."},
		{name: "collapses whitespace", text: "line one\n\nline   two", n: 300, expected: "line one line two"},
		{name: "multibyte", text: "héllo wörld", n: 5, expected: "héllo..."},
		{name: "no limit", text: "abc", n: 0, expected: "abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Preview(tt.text, tt.n); got != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, got)
			}
		})
	}
}
