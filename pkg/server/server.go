// Package server exposes the session registry over HTTP and WebSocket,
// driven by the core VT screen model rather than a recorded byte
// stream.
package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/smash-term/smash/pkg/config"
	"github.com/smash-term/smash/pkg/hub"
	"github.com/smash-term/smash/pkg/keys"
	"github.com/smash-term/smash/pkg/termsession"
)

// Server wires the HTTP API and websocket hub around a session registry.
type Server struct {
	cfg      *config.Config
	registry *termsession.Registry
	hub      *hub.Hub
	engine   *gin.Engine
}

// New builds a Server ready to ListenAndServe.
func New(cfg *config.Config, registry *termsession.Registry) *Server {
	s := &Server{
		cfg:      cfg,
		registry: registry,
		hub:      hub.New(cfg.WebSocketPingInterval),
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(basicAuthMiddleware(cfg))

	api := r.Group("/api")
	api.GET("/health", s.handleHealth)
	api.GET("/sessions", s.handleListSessions)
	api.POST("/sessions", s.handleCreateSession)
	api.DELETE("/sessions/:id", s.handleKillSession)
	api.POST("/sessions/:id/input", s.handleInput)
	api.POST("/sessions/:id/resize", s.handleResize)
	r.GET("/ws/:id", s.handleWebSocket)

	s.engine = r
	return s
}

// ListenAndServe starts the HTTP server on cfg.Port.
func (s *Server) ListenAndServe() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	return s.engine.Run(addr)
}

type sessionResponse struct {
	ID         string    `json:"id"`
	Command    []string  `json:"command"`
	WorkingDir string    `json:"workingDir"`
	PID        int       `json:"pid"`
	StartedAt  time.Time `json:"startedAt"`
}

func toResponse(sess *termsession.Session) sessionResponse {
	return sessionResponse{
		ID:         sess.Info.ID,
		Command:    sess.Info.Command,
		WorkingDir: sess.Info.WorkingDir,
		PID:        sess.Info.PID,
		StartedAt:  sess.Info.StartedAt,
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleListSessions(c *gin.Context) {
	sessions := s.registry.List()
	out := make([]sessionResponse, 0, len(sessions))
	for _, sess := range sessions {
		out = append(out, toResponse(sess))
	}
	c.JSON(http.StatusOK, gin.H{"sessions": out})
}

type createSessionRequest struct {
	Command    []string `json:"command" binding:"required"`
	WorkingDir string   `json:"workingDir"`
	Cols       int      `json:"cols"`
	Rows       int      `json:"rows"`
}

func (s *Server) handleCreateSession(c *gin.Context) {
	var req createSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cols, rows := req.Cols, req.Rows
	if cols == 0 {
		cols = s.cfg.DefaultCols
	}
	if rows == 0 {
		rows = s.cfg.DefaultRows
	}

	sess, err := s.registry.Create(termsession.Options{
		Command:      req.Command,
		WorkingDir:   req.WorkingDir,
		Term:         s.cfg.DefaultTerm,
		Cols:         cols,
		Rows:         rows,
		RepaintDelay: s.cfg.RepaintDelay(),
		ControlDir:   s.cfg.ControlDir,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, toResponse(sess))
}

func (s *Server) handleKillSession(c *gin.Context) {
	if err := s.registry.Kill(c.Param("id")); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "killed"})
}

type inputRequest struct {
	Text string `json:"text"`
	Key  string `json:"key"`
}

func (s *Server) handleInput(c *gin.Context) {
	sess, ok := s.registry.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}

	var req inputRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.Key != "" {
		if seq, ok := keys.TranslateNamed(req.Key); ok {
			sess.Write(seq)
		}
	}
	if req.Text != "" {
		sess.Write([]byte(req.Text))
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type resizeRequest struct {
	Cols int `json:"cols" binding:"required"`
	Rows int `json:"rows" binding:"required"`
}

func (s *Server) handleResize(c *gin.Context) {
	sess, ok := s.registry.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}

	var req resizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := sess.Resize(req.Cols, req.Rows); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleWebSocket(c *gin.Context) {
	sess, ok := s.registry.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	s.hub.Serve(c.Writer, c.Request, s.registry, sess)
}
