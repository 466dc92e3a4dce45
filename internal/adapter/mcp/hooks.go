package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/SouliyaPPS/sqlopsstudio/internal/core/port"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// callState holds per-request timing and span data.
type callState struct {
	start time.Time
	span  trace.Span
}

// ToolCallHooks creates MCP hooks that log tool calls and optionally record
// OTel spans/metrics. Spans and log lines carry the edit-session coordinates
// (session id, table) pulled from the tool arguments, so a rejected refresh
// can be correlated with the session that issued it.
func ToolCallHooks(logger *slog.Logger, tracer trace.Tracer, inst port.Instrumentation) *server.Hooks {
	hooks := &server.Hooks{}
	var calls sync.Map // id -> *callState

	hooks.AddBeforeCallTool(func(ctx context.Context, id any, req *mcp.CallToolRequest) {
		state := &callState{start: time.Now()}

		if tracer != nil {
			attrs := append(
				[]attribute.KeyValue{attribute.String("mcp.tool", req.Params.Name)},
				sessionAttrs(req)...,
			)
			_, span := tracer.Start(ctx, "mcp.tool.call", trace.WithAttributes(attrs...))
			state.span = span
		}

		calls.Store(id, state)
	})

	hooks.AddAfterCallTool(func(ctx context.Context, id any, req *mcp.CallToolRequest, result any) {
		var duration time.Duration
		var span trace.Span

		if v, ok := calls.LoadAndDelete(id); ok {
			state := v.(*callState)
			duration = time.Since(state.start)
			span = state.span
		}

		level := slog.LevelInfo
		isErr := false
		errText := ""

		if r, ok := result.(*mcp.CallToolResult); ok && r.IsError {
			level = slog.LevelError
			isErr = true
			errText = resultText(r)
		}

		attrs := []slog.Attr{
			slog.String("rpc.method", "tools/call"),
			slog.String("mcp.tool", req.Params.Name),
			slog.Duration("duration", duration),
			slog.Bool("error", isErr),
		}
		if s := sessionArg(req); s != "" {
			attrs = append(attrs, slog.String("session", s))
		}
		if errText != "" {
			attrs = append(attrs, slog.String("error.message", errText))
		}
		logger.LogAttrs(ctx, level, "tool call", attrs...)

		if inst != nil {
			inst.RecordToolDuration(ctx, float64(duration.Milliseconds()))
		}

		if span != nil {
			if isErr {
				span.SetStatus(codes.Error, errText)
				span.RecordError(fmt.Errorf("tool %s: %s", req.Params.Name, errText))
			}
			span.End()
		}
	})

	hooks.AddOnError(func(ctx context.Context, id any, method mcp.MCPMethod, message any, err error) {
		var duration time.Duration
		var span trace.Span

		if v, ok := calls.LoadAndDelete(id); ok {
			state := v.(*callState)
			duration = time.Since(state.start)
			span = state.span
		}

		if req, ok := message.(*mcp.CallToolRequest); ok {
			attrs := []slog.Attr{
				slog.String("rpc.method", "tools/call"),
				slog.String("mcp.tool", req.Params.Name),
				slog.Duration("duration", duration),
				slog.Bool("error", true),
				slog.String("error.message", err.Error()),
			}
			if s := sessionArg(req); s != "" {
				attrs = append(attrs, slog.String("session", s))
			}
			logger.LogAttrs(ctx, slog.LevelError, "tool call", attrs...)
		}

		if span != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			span.End()
		}
	})

	return hooks
}

// sessionAttrs converts the edit-session arguments every tool shares into
// span attributes. Tools without a session (validate_statement) contribute
// only the table they were asked about.
func sessionAttrs(req *mcp.CallToolRequest) []attribute.KeyValue {
	var attrs []attribute.KeyValue
	args := req.GetArguments()
	if s, ok := args["session"].(string); ok && s != "" {
		attrs = append(attrs, attribute.String("editdata.session", s))
	}
	if tbl, ok := args["table"].(string); ok && tbl != "" {
		attrs = append(attrs, attribute.String("editdata.table", tbl))
	}
	return attrs
}

func sessionArg(req *mcp.CallToolRequest) string {
	s, _ := req.GetArguments()["session"].(string)
	return s
}

// resultText extracts the first text content of a tool result, which for
// error results is the user-facing rejection message.
func resultText(r *mcp.CallToolResult) string {
	for _, c := range r.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}
