package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/infragraph/infragraph/internal/core"
)

// Server exposes the extraction pipeline over HTTP.
type Server struct {
	Pipeline *core.Pipeline
	logger   *zap.Logger
}

func New(pipeline *core.Pipeline, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{Pipeline: pipeline, logger: logger}
}

func (s *Server) SetupRouter() *gin.Engine {
	r := gin.Default()

	r.GET("/health", s.Health)
	r.POST("/api/extract", s.Extract)
	r.POST("/api/query", s.Query)

	return r
}

func (s *Server) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type ExtractRequest struct {
	ProjectID string `json:"project_id" binding:"required"`
	Name      string `json:"name"`
	Content   string `json:"content" binding:"required"`
}

// Extract runs the document through the pipeline and returns the run report
// with the deduplicated graph. Per-chunk failures are reported inside the
// body, not as an HTTP error.
func (s *Server) Extract(c *gin.Context) {
	var req ExtractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	report, err := s.Pipeline.ProcessDocument(c.Request.Context(), req.ProjectID, req.Name, req.Content)
	if err != nil {
		s.logger.Error("persistence failed", zap.String("project_id", req.ProjectID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to persist extraction result", "report": report})
		return
	}

	c.JSON(http.StatusOK, report)
}

type QueryRequest struct {
	Query   string `json:"query" binding:"required"`
	Execute bool   `json:"execute"`
}

// Query translates a natural-language question into Cypher, optionally
// executing it against the graph store.
func (s *Server) Query(c *gin.Context) {
	var req QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	q, rows, err := s.Pipeline.Query(c.Request.Context(), req.Query, req.Execute)
	if err != nil {
		s.logger.Error("query execution failed", zap.String("query", q.Query), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query execution failed", "cypher": q})
		return
	}

	c.JSON(http.StatusOK, gin.H{"cypher": q, "results": rows})
}
