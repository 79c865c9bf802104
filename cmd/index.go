package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/Yates-Labs/bookrag/internal/rag"
)

var (
	forceRebuild bool
	exportFile   string
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Build or load the vector store for the book",
	Long: `Build the vector store from the configured PDF, or load it when a persisted
store already exists. --force deletes the store and rebuilds it.

Examples:
  bookrag index
  bookrag index --force
  bookrag index --export chunks.json
  bookrag index --export chunks.jsonl`,
	Args: cobra.NoArgs,
	RunE: runIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)
	indexCmd.Flags().BoolVar(&forceRebuild, "force", false, "Delete and rebuild the vector store")
	indexCmd.Flags().StringVar(&exportFile, "export", "", "Export chunks to a JSON or JSONL file: --export <filename>")
}

func runIndex(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	pipeline, err := newPipeline(ctx, cfg.RAGConfig())
	if err != nil {
		return err
	}
	defer pipeline.Close()

	if exportFile != "" {
		chunks, err := pipeline.LoadAndSplit(ctx)
		if err != nil {
			return fmt.Errorf("failed to split document: %w", err)
		}
		if err := handleExport(chunks, exportFile); err != nil {
			return err
		}
	}

	result, err := pipeline.Initialize(ctx, forceRebuild)
	if err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}

	action := "Loaded existing vector store"
	if result.Rebuilt {
		action = "Created new vector store"
	}
	fmt.Println(successStyle.Render("✓ " + action))
	fmt.Println()

	const (
		labelWidth = 16
		valueWidth = 40
	)
	labelStyle := lipgloss.NewStyle().Foreground(headerColor).Bold(true).Padding(0, 1).Width(labelWidth)
	valueStyle := lipgloss.NewStyle().Foreground(numberColor).Padding(0, 1).Width(valueWidth)
	border := ruleStyle.Render("│")

	rows := [][2]string{
		{"DOCUMENT", cfg.Document.PDFPath},
		{"VECTOR STORE", storeLocation()},
		{"CHUNKS", fmt.Sprintf("%d", result.Chunks)},
		{"CHUNK SIZE", fmt.Sprintf("%d / overlap %d", cfg.Chunking.ChunkSize, cfg.Chunking.ChunkOverlap)},
		{"EMBEDDINGS", fmt.Sprintf("%s (%d dims)", cfg.Embedding.Model, cfg.Embedding.Dimension)},
	}
	if result.Rebuilt {
		rows = append(rows,
			[2]string{"PAGES", fmt.Sprintf("%d", result.Pages)},
			[2]string{"DURATION", result.Duration.Round(time.Millisecond).String()})
	}

	fmt.Println(ruleStyle.Render(strings.Repeat("─", labelWidth) + "┬" + strings.Repeat("─", valueWidth)))
	for _, row := range rows {
		fmt.Println(labelStyle.Render(row[0]) + border + valueStyle.Render(row[1]))
	}
	fmt.Println(ruleStyle.Render(strings.Repeat("─", labelWidth) + "┴" + strings.Repeat("─", valueWidth)))

	return nil
}

func storeLocation() string {
	if cfg.Vector.Type == "milvus" {
		return fmt.Sprintf("milvus %s/%s", cfg.Vector.Milvus.Address, cfg.Vector.Collection)
	}
	return fmt.Sprintf("local %s", cfg.Vector.PersistDir)
}

func handleExport(chunks []rag.Chunk, filename string) error {
	format := string(rag.FormatJSON)
	if strings.EqualFold(filepath.Ext(filename), ".jsonl") {
		format = string(rag.FormatJSONL)
	}

	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}
	defer file.Close()

	if err := rag.ExportChunks(chunks, format, file); err != nil {
		return fmt.Errorf("export failed: %w", err)
	}

	fmt.Println(successStyle.Render(fmt.Sprintf("✓ Exported %d chunks to %s", len(chunks), filename)))
	return nil
}
