// Package devserver is a local stand-in for the generation backend. It
// serves the same two endpoints the client talks to, with a pluggable
// generator, so the TUI can be exercised without a model server.
package devserver

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"magicai/internal/api"
	"magicai/internal/config"
)

// Generator produces a reply for a prompt
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GeneratorFunc adapts a function to Generator
type GeneratorFunc func(ctx context.Context, prompt string) (string, error)

func (f GeneratorFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// EchoGenerator answers with the prompt it was given
type EchoGenerator struct{}

func (EchoGenerator) Generate(_ context.Context, prompt string) (string, error) {
	return "You said: " + prompt, nil
}

type Server struct {
	info    api.ModelInfo
	gen     Generator
	limiter *rate.Limiter
	logger  *zap.Logger
	engine  *gin.Engine
	started time.Time
}

func New(cfg config.DevServerConfig, gen Generator, logger *zap.Logger) *Server {
	if gen == nil {
		gen = EchoGenerator{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Server{
		info: api.ModelInfo{
			Name:        cfg.ModelName,
			Version:     cfg.ModelVersion,
			Description: cfg.ModelDescription,
		},
		gen:     gen,
		limiter: rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.Burst),
		logger:  logger,
		started: time.Now(),
	}

	r := gin.New()
	r.Use(gin.Recovery(), s.accessLog())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true, "uptime": time.Since(s.started).Round(time.Second).String()})
	})
	r.GET(api.ModelInfoPath, s.handleModelInfo)
	r.POST(api.GeneratePath, s.rateLimit(), s.handleGenerate)

	s.engine = r
	return s
}

// Handler exposes the engine for httptest and custom servers
func (s *Server) Handler() http.Handler {
	return s.engine
}

// ListenAndServe serves on addr until ctx is cancelled
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("dev server listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) handleModelInfo(c *gin.Context) {
	c.JSON(http.StatusOK, s.info)
}

func (s *Server) handleGenerate(c *gin.Context) {
	var req api.GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "prompt is required"})
		return
	}

	text, err := s.gen.Generate(c.Request.Context(), req.Prompt)
	if err != nil {
		s.logger.Warn("generation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"response": text})
}

func (s *Server) rateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}

func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("elapsed", time.Since(start)))
	}
}
