// Package api exposes the chat and document services over HTTP with gin.
//
// Routes:
//
//	POST   /v1/ask                       answer a conversation
//	POST   /v1/retrieve                  ranked raw content for a query
//	POST   /v1/documents                 ingest an extracted document
//	GET    /v1/documents/:id             ingestion status
//	DELETE /v1/documents/:id?namespace=  cascade delete
//	GET    /v1/namespaces/:ns/documents  statuses in a namespace
//	POST   /v1/reconcile                 drift sweep
//	GET    /healthz                      liveness
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/custodia-labs/docchat/internal/core/ports/driven"
	"github.com/custodia-labs/docchat/internal/core/ports/driving"
)

// Ports holds the services the API drives.
type Ports struct {
	Chat      driving.ChatService
	Ingest    driving.IngestionService
	Documents driving.DocumentService
	Reconcile driving.Reconciler
	Tenants   driven.TenantResolver
	// DefaultK applies when a request does not set k.
	DefaultK int
}

// Server is the HTTP API.
type Server struct {
	ports  *Ports
	log    *zap.Logger
	router *gin.Engine
}

// NewServer creates the API. log may be nil.
func NewServer(ports *Ports, log *zap.Logger) (*Server, error) {
	if ports == nil || ports.Chat == nil || ports.Documents == nil {
		return nil, errors.New("api: chat and document services are required")
	}
	if log == nil {
		log = zap.NewNop()
	}
	if ports.DefaultK <= 0 {
		ports.DefaultK = 4
	}

	s := &Server{ports: ports, log: log}
	s.router = s.routes()
	return s, nil
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(s.log))

	router.GET("/healthz", s.health)

	v1 := router.Group("/v1")
	v1.POST("/ask", s.ask)
	v1.POST("/retrieve", s.retrieve)
	v1.POST("/documents", s.ingest)
	v1.GET("/documents/:id", s.documentStatus)
	v1.DELETE("/documents/:id", s.deleteDocument)
	v1.GET("/namespaces/:namespace/documents", s.listDocuments)
	v1.POST("/reconcile", s.reconcile)

	return router
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
		s.log.Info("http api listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// requestLogger logs each request using zap.
func requestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		log.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}
