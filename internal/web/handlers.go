package web

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Yates-Labs/bookrag/internal/orchestrator"
)

// pageData is the model rendered by index.html
type pageData struct {
	Title           string
	Author          string
	Stats           orchestrator.Stats
	SampleQuestions []string
	History         []HistoryEntry
	Question        string
	Error           string
	Notice          string
}

func (s *Server) render(c *gin.Context, status int, id string, question, errMsg, notice string) {
	stats, err := s.pipeline.Stats(c.Request.Context())
	if err != nil {
		s.logger.Warn("failed to read pipeline stats", zap.Error(err))
	}

	c.HTML(status, "index.html", pageData{
		Title:           s.book.Title,
		Author:          s.book.Author,
		Stats:           stats,
		SampleQuestions: SampleQuestions,
		History:         s.sessions.Recent(id),
		Question:        question,
		Error:           errMsg,
		Notice:          notice,
	})
}

// handleIndex renders the form and the session's conversation history
func (s *Server) handleIndex(c *gin.Context) {
	id := sessionID(c)

	notice := ""
	if c.Query("reloaded") == "1" {
		notice = "Vector database reloaded."
	}
	s.render(c, http.StatusOK, id, "", "", notice)
}

// handleAsk answers a question submitted from the form
func (s *Server) handleAsk(c *gin.Context) {
	id := sessionID(c)
	question := strings.TrimSpace(c.PostForm("question"))

	if question == "" {
		s.render(c, http.StatusBadRequest, id, "", "Please enter a question.", "")
		return
	}

	ans, err := s.pipeline.Query(c.Request.Context(), question)
	if err != nil {
		s.logger.Error("query failed", zap.String("question", question), zap.Error(err))
		s.render(c, statusFor(err), id, question, "Something went wrong while answering. Please try again.", "")
		return
	}

	s.sessions.Append(id, newHistoryEntry(ans))
	c.Redirect(http.StatusSeeOther, "/")
}

// handleReload clears the session history and re-runs initialization
func (s *Server) handleReload(c *gin.Context) {
	id := sessionID(c)
	s.sessions.Clear(id)

	if _, err := s.pipeline.Initialize(c.Request.Context(), false); err != nil {
		s.logger.Error("reload failed", zap.Error(err))
		s.render(c, http.StatusInternalServerError, id, "", "Error initializing RAG system. Check the server logs.", "")
		return
	}

	c.Redirect(http.StatusSeeOther, "/?reloaded=1")
}

// QueryRequest is the JSON body of POST /api/v1/query
type QueryRequest struct {
	Question string `json:"question" binding:"required"`
}

// SourceResponse is a retrieved chunk in the JSON API
type SourceResponse struct {
	ChunkID string  `json:"chunk_id"`
	Page    int     `json:"page"`
	Index   int     `json:"index"`
	Score   float32 `json:"score"`
	Text    string  `json:"text"`
}

// QueryResponse is the JSON reply of POST /api/v1/query
type QueryResponse struct {
	Answer  string           `json:"answer"`
	Model   string           `json:"model"`
	Sources []SourceResponse `json:"sources"`
}

// handleQuery answers a question posted as JSON
func (s *Server) handleQuery(c *gin.Context) {
	var req QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ans, err := s.pipeline.Query(c.Request.Context(), req.Question)
	if err != nil {
		s.logger.Error("api query failed", zap.Error(err))
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	sources := make([]SourceResponse, len(ans.Sources))
	for i, src := range ans.Sources {
		sources[i] = SourceResponse{
			ChunkID: src.ChunkID,
			Page:    src.Page,
			Index:   src.Index,
			Score:   src.Score,
			Text:    src.Text,
		}
	}

	c.JSON(http.StatusOK, QueryResponse{
		Answer:  ans.Text,
		Model:   ans.Model,
		Sources: sources,
	})
}

// handleHealth reports liveness and the indexed chunk count
func (s *Server) handleHealth(c *gin.Context) {
	stats, err := s.pipeline.Stats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error", "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":      "ok",
		"initialized": stats.Initialized,
		"chunks":      stats.Chunks,
	})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, orchestrator.ErrEmptyQuestion):
		return http.StatusBadRequest
	case errors.Is(err, orchestrator.ErrNotInitialized):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
