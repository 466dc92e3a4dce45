package mcp

import (
	"log/slog"

	"github.com/SouliyaPPS/sqlopsstudio/internal/core/port"
	"github.com/SouliyaPPS/sqlopsstudio/internal/core/service"
	"github.com/mark3labs/mcp-go/server"
	"go.opentelemetry.io/otel/trace"
)

// NewServer creates an MCPServer with the edit-data tools and logging hooks.
func NewServer(version string, editData *service.EditDataService, logger *slog.Logger, tracer trace.Tracer, inst port.Instrumentation) *server.MCPServer {
	s := server.NewMCPServer(
		serverName,
		version,
		server.WithHooks(ToolCallHooks(logger, tracer, inst)),
	)

	RegisterTools(s, editData)

	return s
}
