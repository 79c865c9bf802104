package rag

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// ExportFormat represents supported export formats
type ExportFormat string

const (
	FormatJSON  ExportFormat = "json"
	FormatJSONL ExportFormat = "jsonl"
)

// ChunkExport is a chunk enriched with size information for inspection
type ChunkExport struct {
	ID        string `json:"id"`
	Page      int    `json:"page"`
	Index     int    `json:"index"`
	CharCount int    `json:"char_count"`
	Text      string `json:"text"`
}

// ExportChunks writes chunks in the requested format
func ExportChunks(chunks []Chunk, format string, writer io.Writer) error {
	exports := make([]ChunkExport, len(chunks))
	for i, c := range chunks {
		exports[i] = ChunkExport{
			ID:        c.ID,
			Page:      c.Page,
			Index:     c.Index,
			CharCount: utf8.RuneCountInString(c.Text),
			Text:      c.Text,
		}
	}

	switch ExportFormat(strings.ToLower(format)) {
	case FormatJSON:
		encoder := json.NewEncoder(writer)
		encoder.SetIndent("", "  ")
		return encoder.Encode(exports)
	case FormatJSONL:
		encoder := json.NewEncoder(writer)
		for _, e := range exports {
			if err := encoder.Encode(e); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("unsupported export format: %s (supported: json, jsonl)", format)
	}
}
