package mcp

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/warequery/warequery/internal/core/port"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// errToolFailed marks a handler that returned an error result rather than a
// transport failure.
var errToolFailed = errors.New("tool returned error result")

// callState holds per-request timing and span data.
type callState struct {
	start time.Time
	span  trace.Span
}

// ToolCallHooks creates MCP hooks that log every tool call and optionally
// record OTel spans and metrics.
func ToolCallHooks(logger *slog.Logger, tracer trace.Tracer, inst port.Instrumentation) *server.Hooks {
	hooks := &server.Hooks{}
	var calls sync.Map // request id -> *callState

	finish := func(ctx context.Context, id any, tool string, callErr error) {
		var duration time.Duration
		var span trace.Span
		if v, ok := calls.LoadAndDelete(id); ok {
			state := v.(*callState)
			duration = time.Since(state.start)
			span = state.span
		}

		level := slog.LevelInfo
		attrs := []slog.Attr{
			slog.String("rpc.method", "tools/call"),
			slog.String("mcp.tool", tool),
			slog.Duration("duration", duration),
			slog.Bool("error", callErr != nil),
		}
		if callErr != nil {
			level = slog.LevelError
			attrs = append(attrs, slog.String("error.message", callErr.Error()))
		}
		logger.LogAttrs(ctx, level, "tool call", attrs...)

		if inst != nil {
			inst.ObserveToolLatency(ctx, float64(duration.Milliseconds()))
		}
		if span != nil {
			if callErr != nil {
				span.RecordError(callErr)
				span.SetStatus(codes.Error, callErr.Error())
			}
			span.End()
		}
	}

	hooks.AddBeforeCallTool(func(ctx context.Context, id any, req *mcp.CallToolRequest) {
		state := &callState{start: time.Now()}
		if tracer != nil {
			_, span := tracer.Start(ctx, "mcp.tool.call",
				trace.WithAttributes(attribute.String("mcp.tool", req.Params.Name)),
			)
			state.span = span
		}
		calls.Store(id, state)
	})

	hooks.AddAfterCallTool(func(ctx context.Context, id any, req *mcp.CallToolRequest, result any) {
		var callErr error
		if r, ok := result.(*mcp.CallToolResult); ok && r.IsError {
			callErr = errToolFailed
		}
		finish(ctx, id, req.Params.Name, callErr)
	})

	hooks.AddOnError(func(ctx context.Context, id any, method mcp.MCPMethod, message any, err error) {
		toolName := ""
		if req, ok := message.(*mcp.CallToolRequest); ok {
			toolName = req.Params.Name
		}
		if toolName == "" {
			return
		}
		finish(ctx, id, toolName, err)
	})

	return hooks
}
