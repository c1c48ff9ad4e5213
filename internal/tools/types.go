// Package tools declares the callable operations exposed over the MCP
// protocol and dispatches invocations to their handlers after schema
// validation and limit enforcement.
package tools

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog"

	"github.com/scrapebridge/scrapebridge/internal/browser"
	"github.com/scrapebridge/scrapebridge/internal/config"
	"github.com/scrapebridge/scrapebridge/internal/extract"
)

// ToolDefinition describes one registered tool.
type ToolDefinition struct {
	Name        string
	Description string
	InputSchema map[string]any
}

// ToolDescriptor is the wire representation returned by tools/list.
type ToolDescriptor struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"inputSchema"`
}

// CallRequest is a parsed tools/call payload.
type CallRequest struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// ContentBlock is one typed block inside a tool result. This server
// only ever produces text blocks.
type ContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// CallResult is the envelope every invocation returns, success or not.
type CallResult struct {
	Content []ContentBlock `json:"content"`
	IsError bool           `json:"isError"`
}

func textResult(text string) CallResult {
	return CallResult{Content: []ContentBlock{{Type: "text", Text: text}}}
}

func errorResult(text string) CallResult {
	return CallResult{Content: []ContentBlock{{Type: "text", Text: text}}, IsError: true}
}

// Extractor is the LLM-extraction capability consumed by handlers.
type Extractor interface {
	Extract(ctx context.Context, url, prompt string, schema map[string]any) *extract.ExtractedData
}

// Handler executes one tool invocation. It returns the serialized text
// payload for the result's single content block.
type Handler func(ctx context.Context, tc *ToolContext, raw json.RawMessage) (string, error)

// ToolContext carries the per-server dependencies handlers need.
type ToolContext struct {
	Logger    *zerolog.Logger
	Config    *config.Config
	Fetcher   browser.Fetcher
	Extractor Extractor
}

// NewToolContext bundles handler dependencies.
func NewToolContext(logger *zerolog.Logger, cfg *config.Config, fetcher browser.Fetcher, extractor Extractor) *ToolContext {
	return &ToolContext{Logger: logger, Config: cfg, Fetcher: fetcher, Extractor: extractor}
}
