// Package server binds the tool dispatcher to the outside world over
// three mutually exclusive transports: a stdio pipe, an SSE push-stream
// pair, and a session-tracked streamable HTTP endpoint. Every protocol
// message, whichever transport carried it, goes through one Dispatcher.
package server

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/scrapebridge/scrapebridge/internal/tools"
)

const (
	serverName      = "scrapebridge"
	serverVersion   = "0.1.0"
	protocolVersion = "2025-03-26"
)

// Dispatcher routes JSON-RPC protocol messages to the tool registry.
type Dispatcher struct {
	registry *tools.Registry
	toolCtx  *tools.ToolContext
}

// NewDispatcher creates a dispatcher over the given registry and tool
// dependencies.
func NewDispatcher(registry *tools.Registry, toolCtx *tools.ToolContext) *Dispatcher {
	return &Dispatcher{registry: registry, toolCtx: toolCtx}
}

// Handle processes one protocol message and returns the response, or
// nil for notifications.
func (d *Dispatcher) Handle(ctx context.Context, req *JSONRPCRequest) *JSONRPCResponse {
	if req.IsNotification() {
		// Notifications (e.g. notifications/initialized) carry no reply.
		return nil
	}

	switch req.Method {
	case "initialize":
		return newResult(req.ID, map[string]any{
			"protocolVersion": protocolVersion,
			"capabilities": map[string]any{
				"tools": map[string]any{},
			},
			"serverInfo": map[string]any{
				"name":    serverName,
				"version": serverVersion,
			},
		})

	case "tools/list":
		return newResult(req.ID, map[string]any{
			"tools": d.registry.List(),
		})

	case "tools/call":
		var callReq tools.CallRequest
		if err := json.Unmarshal(req.Params, &callReq); err != nil {
			return newError(req.ID, InvalidParams, "invalid tool call parameters")
		}
		result := d.registry.Call(ctx, d.toolCtx, callReq)
		return newResult(req.ID, result)

	case "ping":
		return newResult(req.ID, map[string]any{"status": "ok"})

	default:
		return newError(req.ID, MethodNotFound, fmt.Sprintf("method not found: %s", req.Method))
	}
}

// Logger returns the dispatcher's structured logger.
func (d *Dispatcher) Logger() *zerolog.Logger {
	return d.toolCtx.Logger
}
