// Package mcp exposes the inspection workflow to MCP clients. Each workflow
// operation is a typed MCP tool backed by the inspection service.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/openclaims/fieldgate/internal/inspection/service"
	"github.com/openclaims/fieldgate/internal/platform/timeouts"
)

const (
	// serverName identifies this MCP server to clients.
	serverName = "Fieldgate Inspection MCP"
	// serverVersion identifies the MCP server version.
	serverVersion = "0.1.0"
)

// Server hosts the MCP server over the inspection service.
type Server struct {
	mcpServer *mcp.Server
}

// New creates a configured MCP server over the inspection service.
func New(svc *service.Service) (*Server, error) {
	if svc == nil {
		return nil, errors.New("inspection service is required")
	}

	mcpServer := mcp.NewServer(&mcp.Implementation{Name: serverName, Version: serverVersion}, nil)
	registerSessionTools(mcpServer, svc)
	registerWorkflowTools(mcpServer, svc)
	registerClaimTools(mcpServer, svc)
	registerExportTools(mcpServer, svc)

	return &Server{mcpServer: mcpServer}, nil
}

// Serve starts the MCP server on stdio and blocks until it stops or the
// context ends.
func (s *Server) Serve(ctx context.Context) error {
	return s.serveWithTransport(ctx, &mcp.StdioTransport{})
}

// serveWithTransport starts the MCP server using the provided transport.
func (s *Server) serveWithTransport(ctx context.Context, transport mcp.Transport) error {
	if s == nil || s.mcpServer == nil {
		return fmt.Errorf("MCP server is not configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	err := s.mcpServer.Run(ctx, transport)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		err = nil
	}
	if err != nil {
		return fmt.Errorf("serve MCP: %w", err)
	}
	return nil
}

// ServeHTTP serves MCP over the streamable HTTP transport on addr until the
// context ends.
func (s *Server) ServeHTTP(ctx context.Context, addr string) error {
	if s == nil || s.mcpServer == nil {
		return fmt.Errorf("MCP server is not configured")
	}
	if addr == "" {
		return errors.New("HTTP address is required")
	}

	handler := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return s.mcpServer
	}, nil)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: timeouts.ReadHeader,
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	}
}

// Run creates a server over the service and serves it on stdio until the
// context ends.
func Run(ctx context.Context, svc *service.Service) error {
	server, err := New(svc)
	if err != nil {
		return err
	}
	return server.Serve(ctx)
}
