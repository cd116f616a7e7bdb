package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/autorfp-ai/autorfp/pkg/artifact"
	"github.com/autorfp-ai/autorfp/pkg/pipeline"
	"github.com/autorfp-ai/autorfp/pkg/plan"
	"github.com/autorfp-ai/autorfp/pkg/reader"
)

type generateRequest struct {
	// Text is raw extracted document text. Path is an alternative: a file
	// on the server's filesystem to run through the reader registry.
	Text  string `json:"text"`
	Path  string `json:"path"`
	Force bool   `json:"force"`
}

type generateResponse struct {
	Fingerprint string     `json:"fingerprint"`
	Cached      bool       `json:"cached"`
	Candidates  int        `json:"candidates,omitempty"`
	Plan        *plan.Plan `json:"plan"`
}

func (s *Server) handleGenerate(c *gin.Context) {
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	text := req.Text
	if text == "" && req.Path != "" {
		var err error
		text, err = s.readers.Read(req.Path)
		if err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, reader.ErrFormat) {
				status = http.StatusUnsupportedMediaType
			}
			c.JSON(status, gin.H{"error": err.Error()})
			return
		}
	}
	if strings.TrimSpace(text) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "text or path required"})
		return
	}

	res, err := s.pipeline.Run(c.Request.Context(), text, req.Force)
	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, pipeline.ErrNoCandidates) {
			status = http.StatusUnprocessableEntity
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	s.hot.Add(res.Fingerprint, res.Plan)

	c.JSON(http.StatusOK, generateResponse{
		Fingerprint: res.Fingerprint,
		Cached:      res.Cached,
		Candidates:  res.Candidates,
		Plan:        res.Plan,
	})
}

func (s *Server) handleGetPlan(c *gin.Context) {
	p, ok := s.lookup(c.Param("fingerprint"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "plan not found"})
		return
	}

	switch c.DefaultQuery("format", "json") {
	case "json":
		c.JSON(http.StatusOK, p)
	case "yaml":
		out, err := artifact.ToYAML(p)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.Data(http.StatusOK, "application/yaml", []byte(out))
	case "csv":
		c.Header("Content-Type", "text/csv")
		c.Header("Content-Disposition", `attachment; filename="`+p.Slug()+`.csv"`)
		pivot := c.Query("pivot") == "true"
		if err := p.WriteCSV(c.Writer, pivot); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "format must be json, yaml, or csv"})
	}
}

type moduleSummary struct {
	Module       string  `json:"module"`
	Hours        float64 `json:"hours"`
	SubtaskCount int     `json:"subtask_count"`
}

type planSummary struct {
	ProjectName  string          `json:"project_name"`
	Slug         string          `json:"slug"`
	Hours        float64         `json:"hours"`
	SubtaskCount int             `json:"subtask_count"`
	Modules      []moduleSummary `json:"modules"`
}

func (s *Server) handleSummary(c *gin.Context) {
	p, ok := s.lookup(c.Param("fingerprint"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "plan not found"})
		return
	}

	summary := planSummary{
		ProjectName:  p.ProjectName,
		Slug:         p.Slug(),
		Hours:        p.Hours(),
		SubtaskCount: p.SubtaskCount(),
		Modules:      make([]moduleSummary, 0, len(p.Modules)),
	}
	for _, m := range p.Modules {
		summary.Modules = append(summary.Modules, moduleSummary{
			Module:       m.Module,
			Hours:        m.Hours(),
			SubtaskCount: m.SubtaskCount(),
		})
	}
	c.JSON(http.StatusOK, summary)
}

func (s *Server) handleDelete(c *gin.Context) {
	fingerprint := c.Param("fingerprint")
	s.hot.Remove(fingerprint)
	if !s.pipeline.Forget(fingerprint) {
		c.JSON(http.StatusNotFound, gin.H{"error": "plan not found"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) lookup(fingerprint string) (*plan.Plan, bool) {
	if p, ok := s.hot.Get(fingerprint); ok {
		return p, true
	}
	p, ok := s.pipeline.Lookup(fingerprint, false)
	if ok {
		s.hot.Add(fingerprint, p)
	}
	return p, ok
}
