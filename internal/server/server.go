package server

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	glog "github.com/gin-contrib/slog"
	"github.com/gin-gonic/gin"

	"github.com/kode4food/remedy/internal/engine"
	"github.com/kode4food/remedy/pkg/api"
	"github.com/kode4food/remedy/pkg/util"
)

// Server implements the HTTP API server for the remediation engine
type Server struct {
	engine  *engine.Engine
	sockets util.Set[*Client]
	mu      sync.Mutex
}

var (
	ErrInvalidJSON  = errors.New("invalid JSON")
	ErrInvalidPlan  = errors.New("invalid plan input")
	ErrInvalidIndex = errors.New("step index must be an integer")
	ErrInvalidSince = errors.New("since must be a log entry id")
	ErrReadBody     = errors.New("failed to read request body")
)

// NewServer creates a new HTTP API server
func NewServer(eng *engine.Engine) *Server {
	return &Server{
		engine:  eng,
		sockets: util.Set[*Client]{},
	}
}

// SetupRoutes configures and returns the HTTP router with all API endpoints
func (s *Server) SetupRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(glog.SetLogger(
		glog.WithLogger(func(c *gin.Context, l *slog.Logger) *slog.Logger {
			return slog.Default()
		}),
	))

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set(
			"Access-Control-Allow-Methods", "GET, POST, OPTIONS",
		)
		c.Writer.Header().Set(
			"Access-Control-Allow-Headers", "Content-Type, Authorization",
		)

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusOK)
			return
		}

		c.Next()
	})

	router.GET("/health", s.handleHealth)

	wf := router.Group("/workflow")
	{
		wf.GET("", s.handleState)
		wf.GET("/", s.handleState)
		wf.POST("/plan", s.loadPlan)
		wf.POST("/step/:index", s.executeStep)
		wf.POST("/run", s.executeAll)
		wf.POST("/stop", s.stop)
		wf.POST("/reset", s.reset)
		wf.GET("/progress", s.handleProgress)
		wf.GET("/log", s.handleLog)

		// WebSocket
		wf.GET("/ws", s.handleWebSocket)
	}

	return router
}

func (s *Server) handleState(c *gin.Context) {
	c.JSON(http.StatusOK, s.engine.State())
}

func (s *Server) registerWebSocket(c *Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sockets.Add(c)
}

func (s *Server) unregisterWebSocket(c *Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sockets.Remove(c)
}

// CloseWebSockets closes all active WebSocket connections
func (s *Server) CloseWebSockets() {
	s.mu.Lock()
	conns := s.sockets.Values()
	s.mu.Unlock()

	for _, c := range conns {
		c.Close()
	}
}

func respondError(c *gin.Context, status int, err error) {
	c.JSON(status, api.ErrorResponse{
		Error:  err.Error(),
		Status: status,
	})
}

func respondEngineError(c *gin.Context, err error) {
	respondError(c, engineErrorStatus(err), err)
}

func engineErrorStatus(err error) int {
	switch {
	case errors.Is(err, engine.ErrValidation),
		errors.Is(err, engine.ErrOutOfRange):
		return http.StatusBadRequest
	case errors.Is(err, engine.ErrNoPlan):
		return http.StatusNotFound
	case errors.Is(err, engine.ErrReentrancy),
		errors.Is(err, engine.ErrStepSucceeded),
		errors.Is(err, engine.ErrWorkflowCompleted):
		return http.StatusConflict
	case errors.Is(err, engine.ErrEngineShutdown):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func badRequest(c *gin.Context, cause, err error) {
	respondError(c, http.StatusBadRequest, fmt.Errorf("%w: %v", cause, err))
}
