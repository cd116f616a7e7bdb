// Package server exposes the generation pipeline over a REST API.
package server

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/autorfp-ai/autorfp/pkg/pipeline"
	"github.com/autorfp-ai/autorfp/pkg/plan"
	"github.com/autorfp-ai/autorfp/pkg/reader"
)

// maxHotPlans bounds the in-process cache of decoded plans.
const maxHotPlans = 128

// Server holds the state for the REST API server.
type Server struct {
	pipeline *pipeline.Pipeline
	readers  *reader.Registry
	router   *gin.Engine

	// hot keeps recently served plans decoded, so repeated reads skip the
	// store round trip.
	hot *lru.Cache[string, *plan.Plan]
}

// NewServer creates a new Server instance.
func NewServer(p *pipeline.Pipeline, readers *reader.Registry) *Server {
	hot, _ := lru.New[string, *plan.Plan](maxHotPlans)
	r := gin.New()
	r.Use(gin.Recovery(), requestID())
	s := &Server{
		pipeline: p,
		readers:  readers,
		router:   r,
		hot:      hot,
	}
	s.setupRoutes()
	return s
}

// Run starts the server on the specified address.
func (s *Server) Run(addr string) error {
	return s.router.Run(addr)
}

// Handler returns the underlying HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.healthCheck)
	s.router.POST("/v1/plans", s.handleGenerate)
	s.router.GET("/v1/plans/:fingerprint", s.handleGetPlan)
	s.router.GET("/v1/plans/:fingerprint/summary", s.handleSummary)
	s.router.DELETE("/v1/plans/:fingerprint", s.handleDelete)
}

// Health check
func (s *Server) healthCheck(c *gin.Context) {
	c.Status(http.StatusOK)
}

// requestID tags every request with an ID for log correlation.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Header("X-Request-ID", id)
		start := time.Now()
		c.Next()
		log.Printf("http: %s %s %d %s id=%s", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start), id)
	}
}
