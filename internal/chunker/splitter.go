package chunker

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/Yates-Labs/bookrag/internal/loader"
	"github.com/Yates-Labs/bookrag/internal/rag"
)

var (
	ErrInvalidConfig = errors.New("invalid splitter configuration")
)

const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200
)

// DefaultSeparators are tried in order: paragraphs, lines, words, characters.
var DefaultSeparators = []string{"\n\n", "\n", " ", ""}

// RecursiveSplitter splits text into overlapping windows of at most
// ChunkSize code points, preferring the coarsest separator available.
type RecursiveSplitter struct {
	chunkSize    int
	chunkOverlap int
	separators   []string
}

// NewRecursiveSplitter creates a splitter with the default separators
func NewRecursiveSplitter(chunkSize, chunkOverlap int) (*RecursiveSplitter, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("%w: chunk size must be positive, got %d", ErrInvalidConfig, chunkSize)
	}
	if chunkOverlap < 0 {
		return nil, fmt.Errorf("%w: chunk overlap cannot be negative, got %d", ErrInvalidConfig, chunkOverlap)
	}
	if chunkOverlap >= chunkSize {
		return nil, fmt.Errorf("%w: chunk overlap (%d) must be smaller than chunk size (%d)",
			ErrInvalidConfig, chunkOverlap, chunkSize)
	}

	return &RecursiveSplitter{
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
		separators:   DefaultSeparators,
	}, nil
}

// ChunkSize returns the configured maximum window length
func (s *RecursiveSplitter) ChunkSize() int { return s.chunkSize }

// ChunkOverlap returns the configured overlap between windows
func (s *RecursiveSplitter) ChunkOverlap() int { return s.chunkOverlap }

// SplitText splits a single text into chunks
func (s *RecursiveSplitter) SplitText(text string) []string {
	return s.split(text, s.separators)
}

// SplitPages splits every page in order and assigns each chunk its page
// number and a sequence index across the whole document.
func (s *RecursiveSplitter) SplitPages(pages []loader.Page) []rag.Chunk {
	var chunks []rag.Chunk
	for _, page := range pages {
		if strings.TrimSpace(page.Text) == "" {
			continue
		}
		for _, text := range s.SplitText(page.Text) {
			index := len(chunks)
			chunks = append(chunks, rag.Chunk{
				ID:    rag.ChunkID(index),
				Text:  text,
				Page:  page.Number,
				Index: index,
			})
		}
	}
	return chunks
}

func (s *RecursiveSplitter) split(text string, separators []string) []string {
	separator := separators[len(separators)-1]
	var fallback []string
	for i, sep := range separators {
		if sep == "" {
			separator = sep
			break
		}
		if strings.Contains(text, sep) {
			separator = sep
			fallback = separators[i+1:]
			break
		}
	}

	var (
		final []string
		good  []string
	)
	for _, piece := range splitKeepSeparator(text, separator) {
		if length(piece) < s.chunkSize {
			good = append(good, piece)
			continue
		}

		if len(good) > 0 {
			final = append(final, s.merge(good)...)
			good = nil
		}
		if len(fallback) == 0 {
			final = append(final, piece)
		} else {
			final = append(final, s.split(piece, fallback)...)
		}
	}
	if len(good) > 0 {
		final = append(final, s.merge(good)...)
	}

	return final
}

// merge joins pieces into windows of at most chunkSize, carrying up to
// chunkOverlap of the previous window into the next one.
func (s *RecursiveSplitter) merge(pieces []string) []string {
	var (
		windows []string
		current []string
		total   int
	)

	for _, piece := range pieces {
		n := length(piece)
		if total+n > s.chunkSize {
			if len(current) > 0 {
				if window := join(current); window != "" {
					windows = append(windows, window)
				}
				for total > s.chunkOverlap || (total+n > s.chunkSize && total > 0) {
					total -= length(current[0])
					current = current[1:]
				}
			}
		}
		current = append(current, piece)
		total += n
	}

	if window := join(current); window != "" {
		windows = append(windows, window)
	}

	return windows
}

// splitKeepSeparator splits text on sep, attaching each separator to the
// start of the piece that follows it. Empty pieces are dropped.
func splitKeepSeparator(text, sep string) []string {
	var pieces []string
	if sep == "" {
		for _, r := range text {
			pieces = append(pieces, string(r))
		}
		return pieces
	}

	parts := strings.Split(text, sep)
	if parts[0] != "" {
		pieces = append(pieces, parts[0])
	}
	for _, part := range parts[1:] {
		pieces = append(pieces, sep+part)
	}
	return pieces
}

func join(pieces []string) string {
	return strings.TrimSpace(strings.Join(pieces, ""))
}

func length(s string) int {
	return utf8.RuneCountInString(s)
}
