package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Yates-Labs/bookrag/internal/config"
	"github.com/Yates-Labs/bookrag/internal/logging"
	"github.com/Yates-Labs/bookrag/internal/orchestrator"
)

var (
	configFile string
	verbose    bool

	cfg    *config.Config
	logger = zap.NewNop()
)

// skipConfig marks commands that run without loading the configuration
const skipConfig = "skip-config"

var rootCmd = &cobra.Command{
	Use:   "bookrag",
	Short: "bookrag - Question answering over a novel",
	Long: `bookrag answers questions about a novel supplied as a PDF.

It splits the book into overlapping chunks, embeds them into a vector store
that is persisted between runs, and answers questions by retrieving the most
similar passages and handing them to a chat model.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (default: ./bookrag.yaml, ./configs/bookrag.yaml, ~/.bookrag/bookrag.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Show detailed progress")
}

// Execute runs the root command
func Execute() {
	// Load .env file if it exists
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	_ = logger.Sync()
	if err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("Error:"), err)
		os.Exit(1)
	}
}

func setup(cmd *cobra.Command, args []string) error {
	l, err := logging.New(verbose)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	logger = l

	if cmd.Annotations[skipConfig] == "true" {
		return nil
	}

	loaded, err := config.Load(configFile)
	if err != nil {
		return err
	}
	cfg = loaded

	logger.Debug("configuration loaded",
		zap.String("pdf", cfg.Document.PDFPath),
		zap.String("vector_type", cfg.Vector.Type),
		zap.String("embedding_model", cfg.Embedding.Model),
		zap.String("chat_model", cfg.LLM.Model))
	return nil
}

// newPipeline builds the pipeline from the loaded configuration
func newPipeline(ctx context.Context, rc orchestrator.RAGConfig) (*orchestrator.RAGPipeline, error) {
	pipeline, err := orchestrator.NewRAGPipeline(ctx, rc, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create RAG pipeline: %w", err)
	}
	return pipeline, nil
}
