package mcp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Version is reported to clients in the initialize handshake.
const Version = "0.1.0"

// defaultK is used when neither the call nor the ports set k.
const defaultK = 4

const instructions = `Answers come from documents ingested into per-tenant namespaces.
Name the namespace directly, or give company_id and channel_id and the
server resolves it. Use "ask" for a grounded answer with sources and
"retrieve" to inspect the raw records behind it.`

// Server exposes the chat pipeline as MCP tools and document status as
// resources.
type Server struct {
	ports  *Ports
	log    *zap.Logger
	server *mcp.Server
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger used for tool call failures.
func WithLogger(log *zap.Logger) Option {
	return func(s *Server) {
		if log != nil {
			s.log = log
		}
	}
}

// NewServer builds the server. Only the chat port is required.
func NewServer(ports *Ports, opts ...Option) (*Server, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("validating ports: %w", err)
	}

	s := &Server{ports: ports, log: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	s.server = mcp.NewServer(
		&mcp.Implementation{Name: "docchat", Version: Version},
		&mcp.ServerOptions{Instructions: instructions},
	)

	s.registerTools()
	s.registerResources()
	return s, nil
}

// Run serves one client over stdin/stdout until ctx is cancelled or the
// client disconnects.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// RunHTTP serves streamable HTTP on addr until ctx is cancelled, then
// drains open requests for up to five seconds.
func (s *Server) RunHTTP(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr: addr,
		Handler: mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
			return s.server
		}, nil),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("mcp http: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func (s *Server) k(requested int) int {
	switch {
	case requested > 0:
		return requested
	case s.ports.DefaultK > 0:
		return s.ports.DefaultK
	default:
		return defaultK
	}
}
