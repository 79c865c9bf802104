package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	topK     int
	noSource bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question about the book",
	Long: `Ask a natural language question about the book using RAG (Retrieval-Augmented Generation).

This command:
1. Loads the persisted vector store, or builds it from the PDF on first run
2. Retrieves the chunks most similar to your question
3. Generates an answer grounded on those chunks

Required environment variables:
  OPENAI_API_KEY     - API key for embeddings and the chat model
                       (or BOOKRAG_EMBEDDING_API_KEY / BOOKRAG_LLM_API_KEY)

Examples:
  bookrag ask "Who is the narrator?"
  bookrag ask "What is the red weed?" --topk 8
  bookrag ask "How do the Martians die?" --verbose`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
	askCmd.Flags().IntVar(&topK, "topk", 0, "Number of chunks to retrieve (default from config)")
	askCmd.Flags().BoolVar(&noSource, "no-sources", false, "Do not print source previews")
}

func runAsk(cmd *cobra.Command, args []string) error {
	question := args[0]
	ctx := cmd.Context()

	rc := cfg.RAGConfig()
	if topK > 0 {
		rc.TopK = topK
	}

	fmt.Println()
	fmt.Println(headerStyle.Render("Question:"))
	fmt.Println(questionStyle.Render(question))
	fmt.Println()

	if verbose {
		fmt.Println(contextStyle.Render("→ Initializing RAG pipeline..."))
	}
	pipeline, err := newPipeline(ctx, rc)
	if err != nil {
		return err
	}
	defer pipeline.Close()

	result, err := pipeline.Initialize(ctx, false)
	if err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}
	if verbose {
		fmt.Println(successStyle.Render(fmt.Sprintf("✓ Vector store ready with %d chunks", result.Chunks)))
		fmt.Println(contextStyle.Render("→ Retrieving relevant context and generating answer..."))
		fmt.Println()
	}

	ans, err := pipeline.Query(ctx, question)
	if err != nil {
		return fmt.Errorf("failed to generate answer: %w", err)
	}

	printAnswer(ans, !noSource)
	return nil
}
