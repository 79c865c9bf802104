package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Yates-Labs/bookrag/internal/web"
)

var (
	serveHost string
	servePort int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web interface",
	Long: `Initialize the vector store and serve the question form, conversation
history and JSON API over HTTP.

Routes:
  GET  /               question form and session history
  POST /ask            answer a question from the form
  POST /reload         clear history and reload the vector store
  POST /api/v1/query   {"question": "..."} → answer with sources
  GET  /healthz        liveness and indexed chunk count`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveHost, "host", "", "Listen host (default from config)")
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Listen port (default from config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	server := cfg.Server
	if serveHost != "" {
		server.Host = serveHost
	}
	if servePort > 0 {
		server.Port = servePort
	}

	rc := cfg.RAGConfig()
	pipeline, err := newPipeline(ctx, rc)
	if err != nil {
		return err
	}
	defer pipeline.Close()

	logger.Info("initializing RAG system")
	if _, err := pipeline.Initialize(ctx, false); err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}

	srv := web.NewServer(pipeline, rc.Book, logger)
	logger.Info("open the web interface", zap.String("url", fmt.Sprintf("http://%s", server.Address())))
	return srv.Run(ctx, server.Address())
}
