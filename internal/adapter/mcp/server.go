package mcp

import (
	"log/slog"

	"github.com/mark3labs/mcp-go/server"
	"github.com/warequery/warequery/internal/core/port"
	"github.com/warequery/warequery/internal/core/service"
	"go.opentelemetry.io/otel/trace"
)

// NewServer creates an MCPServer with tools and logging hooks.
func NewServer(version string, deps ToolDeps, logger *slog.Logger, tracer trace.Tracer, inst port.Instrumentation) *server.MCPServer {
	s := server.NewMCPServer(
		serverName,
		version,
		server.WithHooks(ToolCallHooks(logger, tracer, inst)),
	)

	RegisterTools(s, deps)

	return s
}

// ToolDeps bundles the services the tool handlers need.
type ToolDeps struct {
	Catalog      *service.CatalogService
	Queries      *service.QueryService
	Orchestrator *service.Orchestrator
	SampleSize   int // rows sampled per table during extract_schema
}
