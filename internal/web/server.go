// Package web serves the question form, answers with their source passages,
// and a small JSON API over the RAG pipeline.
package web

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Yates-Labs/bookrag/internal/answer"
	"github.com/Yates-Labs/bookrag/internal/logging"
	"github.com/Yates-Labs/bookrag/internal/orchestrator"
)

//go:embed templates/*.html
var templatesFS embed.FS

const (
	sessionCookie  = "bookrag_session"
	previewLength  = 300
	maxHistory     = 50
	maxSessions    = 1000
	shutdownPeriod = 10 * time.Second
)

// SampleQuestions are offered in the sidebar.
var SampleQuestions = []string{
	"Who is the narrator?",
	"What is the main plot of the story?",
	"How do the Martians attack Earth?",
	"What happens to the Martians in the end?",
	"Who is the artilleryman?",
	"What is the red weed?",
}

// Pipeline is the part of the RAG pipeline the web layer drives.
type Pipeline interface {
	Initialize(ctx context.Context, force bool) (*orchestrator.InitResult, error)
	Query(ctx context.Context, question string) (*answer.Answer, error)
	Stats(ctx context.Context) (orchestrator.Stats, error)
}

// Server represents the HTTP server
type Server struct {
	pipeline Pipeline
	book     answer.Book
	logger   *zap.Logger
	router   *gin.Engine
	sessions *sessionStore
}

// NewServer creates a new server
func NewServer(pipeline Pipeline, book answer.Book, logger *zap.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		pipeline: pipeline,
		book:     book,
		logger:   logging.OrNop(logger).With(zap.String("component", "web")),
		router:   gin.New(),
		sessions: newSessionStore(maxHistory, maxSessions),
	}

	s.router.SetHTMLTemplate(template.Must(template.New("").ParseFS(templatesFS, "templates/*.html")))
	s.setupRoutes()
	return s
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	s.router.Use(gin.Recovery())
	s.router.Use(requestLogger(s.logger))

	s.router.GET("/", s.handleIndex)
	s.router.POST("/ask", s.handleAsk)
	s.router.POST("/reload", s.handleReload)
	s.router.GET("/healthz", s.handleHealth)

	v1 := s.router.Group("/api/v1")
	{
		v1.POST("/query", s.handleQuery)
	}
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting web server", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.logger.Info("shutting down web server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownPeriod)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// requestLogger logs one line per request
func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Debug("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)))
	}
}
