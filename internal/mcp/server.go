// Package mcp exposes scope context and fixture verification as MCP tools
// over stdio.
package mcp

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mark3labs/mcp-go/server"
	"github.com/mvp-joe/scopeline/internal/fixture"
	"github.com/mvp-joe/scopeline/internal/scope"
	"go.uber.org/zap"
)

// ServerName is reported to MCP clients.
const ServerName = "scopeline-mcp"

// Server manages the MCP server lifecycle.
type Server struct {
	mcp     *server.MCPServer
	metrics *ToolMetrics
	logger  *zap.Logger
}

// NewServer creates an MCP server with the scope_context and scope_verify
// tools registered.
func NewServer(extractor *scope.Extractor, verifier *fixture.Verifier, cfg VerifyConfig, version string, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	mcpServer := server.NewMCPServer(
		ServerName,
		version,
		server.WithToolCapabilities(true),
	)

	metrics := NewToolMetrics()
	AddScopeContextTool(mcpServer, extractor, metrics)
	AddScopeVerifyTool(mcpServer, verifier, cfg, metrics)

	return &Server{mcp: mcpServer, metrics: metrics, logger: logger}
}

// Metrics returns the per-tool call counters.
func (s *Server) Metrics() *ToolMetrics {
	return s.metrics
}

// MCP returns the underlying server, for in-process clients and tests.
func (s *Server) MCP() *server.MCPServer {
	return s.mcp
}

// Serve runs the server on stdio until the input closes, a signal arrives or
// ctx is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer s.logMetrics()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting MCP server on stdio")
		if err := server.ServeStdio(s.mcp); err != nil {
			errCh <- fmt.Errorf("MCP server error: %w", err)
			return
		}
		errCh <- nil
	}()

	select {
	case <-sigCh:
		s.logger.Info("received shutdown signal, stopping")
		return nil
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Server) logMetrics() {
	for _, snap := range s.metrics.Snapshot() {
		s.logger.Info("tool usage",
			zap.String("tool", snap.Tool),
			zap.Int64("calls", snap.Calls),
			zap.Int64("failures", snap.Failures),
			zap.Duration("mean", snap.MeanDuration))
	}
}
