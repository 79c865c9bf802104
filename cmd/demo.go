package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// demoQuestions are asked by the demo command in order
var demoQuestions = []string{
	"Who is the main character in The War of the Worlds?",
	"What is the book about?",
	"How do the Martians die?",
}

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Initialize the index and answer a fixed set of questions",
	Long: `Initialize the vector store (reusing a persisted one) and run a fixed
set of test questions, printing each answer and the number of source chunks.
A failing question is reported and the run continues.`,
	Args: cobra.NoArgs,
	RunE: runDemo,
}

func init() {
	rootCmd.AddCommand(demoCmd)
}

func runDemo(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	fmt.Println(rule("="))
	fmt.Println(headerStyle.Render(fmt.Sprintf("%s - RAG System", cfg.Document.Title)))
	fmt.Println(rule("="))
	fmt.Println()

	pipeline, err := newPipeline(ctx, cfg.RAGConfig())
	if err != nil {
		return err
	}
	defer pipeline.Close()

	result, err := pipeline.Initialize(ctx, false)
	if err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}
	fmt.Println(successStyle.Render(fmt.Sprintf("✓ RAG system initialized with %d chunks", result.Chunks)))
	fmt.Println()

	fmt.Println(rule("="))
	fmt.Println(headerStyle.Render("Testing RAG System with sample questions"))
	fmt.Println(rule("="))

	failed := 0
	for _, question := range demoQuestions {
		fmt.Println()
		fmt.Printf("%s %s\n", headerStyle.Render("Question:"), questionStyle.Render(question))
		fmt.Println(rule("-"))

		ans, err := pipeline.Query(ctx, question)
		if err != nil {
			failed++
			fmt.Println(errorStyle.Render("Error:"), err)
		} else {
			printAnswer(ans, verbose)
		}

		fmt.Println(rule("="))
	}

	if failed > 0 {
		fmt.Println(errorStyle.Render(fmt.Sprintf("%d of %d questions failed", failed, len(demoQuestions))))
	}
	return nil
}
