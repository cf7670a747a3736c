package web

import (
	"context"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"pdfchat/internal/app"
	"pdfchat/internal/domain"
	"pdfchat/internal/logger"
)

const (
	logModule     = "web"
	maxUploadSize = 64 << 20
)

// Handler is the web-facing subset of the app context.
type Handler interface {
	Upload(ctx context.Context, filename string, blob []byte) (app.Result, error)
	Ask(ctx context.Context, text string) (app.Result, error)
	Reset(ctx context.Context) (app.Result, error)
	Transcript() []domain.Turn
	WorkspacePath() string
	Phase() app.Phase
}

type sendMessageRequest struct {
	Content string `json:"content"`
}

type sendMessageResponse struct {
	Reply    domain.Turn   `json:"reply"`
	Messages []domain.Turn `json:"messages"`
}

type chatHistory struct {
	Messages []domain.Turn `json:"messages"`
}

// Server exposes one app context over HTTP. Handlers hold a mutex so that
// actions run one at a time, like they do in the terminal UI.
type Server struct {
	mu      sync.Mutex
	handler Handler
	log     logger.ILogger
	started time.Time
}

func NewServer(h Handler, log logger.ILogger) *Server {
	if log == nil {
		log = logger.NewNop()
	}
	return &Server{handler: h, log: log, started: time.Now()}
}

// Router builds the gin engine with every route registered.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())
	r.MaxMultipartMemory = maxUploadSize

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true, "uptime": time.Since(s.started).Round(time.Second).String()})
	})

	api := r.Group("/api")
	api.GET("/messages", s.listMessages)
	api.POST("/messages", s.sendMessage)
	api.POST("/upload", s.upload)
	api.POST("/reset", s.reset)
	api.GET("/workspace", s.workspace)
	return r
}

func (s *Server) listMessages(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.JSON(http.StatusOK, chatHistory{Messages: nonNil(s.handler.Transcript())})
}

func (s *Server) sendMessage(c *gin.Context) {
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Content) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "content is required"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.handler.Ask(c.Request.Context(), req.Content)
	if err != nil {
		s.fail(c, res, err)
		return
	}
	turns := nonNil(res.Transcript)
	var reply domain.Turn
	if n := len(turns); n > 0 {
		reply = turns[n-1]
	}
	c.JSON(http.StatusOK, sendMessageResponse{Reply: reply, Messages: turns})
}

func (s *Server) upload(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "multipart field \"file\" is required"})
		return
	}
	if !strings.EqualFold(filepath.Ext(fh.Filename), ".pdf") {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "only PDF files are accepted"})
		return
	}
	if fh.Size > maxUploadSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file is too large"})
		return
	}
	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	defer f.Close()
	blob, err := io.ReadAll(f)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.handler.Upload(c.Request.Context(), filepath.Base(fh.Filename), blob)
	if err != nil {
		s.fail(c, res, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": res.Status, "filename": filepath.Base(fh.Filename)})
}

func (s *Server) reset(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.handler.Reset(c.Request.Context())
	if err != nil {
		s.fail(c, res, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "status": res.Status, "workspace": res.Workspace})
}

func (s *Server) workspace(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.JSON(http.StatusOK, gin.H{"dir": s.handler.WorkspacePath(), "phase": s.handler.Phase().String()})
}

func (s *Server) fail(c *gin.Context, res app.Result, err error) {
	msg := res.Status
	if msg == "" {
		msg = err.Error()
	}
	c.JSON(statusFor(err), gin.H{"error": msg, "messages": nonNil(res.Transcript)})
}

// statusFor maps the error taxonomy onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrBackendUnavailable):
		return http.StatusBadGateway
	case errors.Is(err, domain.ErrIngestion):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Info(logModule, "request", map[string]interface{}{
			"method":   c.Request.Method,
			"path":     c.FullPath(),
			"status":   c.Writer.Status(),
			"duration": time.Since(start).String(),
		})
	}
}

func nonNil(turns []domain.Turn) []domain.Turn {
	if turns == nil {
		return []domain.Turn{}
	}
	return turns
}
