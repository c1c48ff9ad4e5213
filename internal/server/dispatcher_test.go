package server

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrapebridge/scrapebridge/internal/browser"
	"github.com/scrapebridge/scrapebridge/internal/config"
	"github.com/scrapebridge/scrapebridge/internal/extract"
	"github.com/scrapebridge/scrapebridge/internal/tools"
)

type stubFetcher struct{}

func (stubFetcher) FetchPage(ctx context.Context, url string, onlyMainContent bool) *browser.ScrapedContent {
	return &browser.ScrapedContent{
		URL:     url,
		Title:   "Stub Page",
		Content: "stub content",
		Success: true,
	}
}

func (stubFetcher) CaptureScreenshot(ctx context.Context, url string, opts browser.ScreenshotOptions) *browser.ScreenshotResult {
	return &browser.ScreenshotResult{
		URL:         url,
		ImageBase64: "aGVsbG8=",
		Width:       opts.Width,
		Height:      opts.Height,
		Success:     true,
	}
}

type stubExtractor struct{}

func (stubExtractor) Extract(ctx context.Context, url, prompt string, schema map[string]any) *extract.ExtractedData {
	return &extract.ExtractedData{
		URL:     url,
		Data:    map[string]any{"title": "Stub Page"},
		Success: true,
	}
}

func newTestDispatcher(t *testing.T) *Dispatcher {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.Scraping.BatchDelayMin = 0
	cfg.Scraping.BatchDelayMax = 0

	logger := zerolog.Nop()
	registry := tools.NewRegistry()
	tools.RegisterAllTools(registry)
	toolCtx := tools.NewToolContext(&logger, cfg, stubFetcher{}, stubExtractor{})
	return NewDispatcher(registry, toolCtx)
}

func newRequest(t *testing.T, id int, method string, params any) *JSONRPCRequest {
	t.Helper()

	req := &JSONRPCRequest{
		JSONRPC: "2.0",
		ID:      mustMarshal(id),
		Method:  method,
	}
	if params != nil {
		req.Params = mustMarshal(params)
	}
	return req
}

func TestDispatcherInitialize(t *testing.T) {
	d := newTestDispatcher(t)

	resp := d.Handle(context.Background(), newRequest(t, 1, "initialize", nil))
	require.NotNil(t, resp)
	require.Nil(t, resp.Error)

	var result struct {
		ProtocolVersion string `json:"protocolVersion"`
		ServerInfo      struct {
			Name    string `json:"name"`
			Version string `json:"version"`
		} `json:"serverInfo"`
		Capabilities map[string]any `json:"capabilities"`
	}
	require.NoError(t, json.Unmarshal(resp.Result, &result))
	assert.Equal(t, protocolVersion, result.ProtocolVersion)
	assert.Equal(t, serverName, result.ServerInfo.Name)
	assert.Contains(t, result.Capabilities, "tools")
}

func TestDispatcherToolsList(t *testing.T) {
	d := newTestDispatcher(t)

	resp := d.Handle(context.Background(), newRequest(t, 2, "tools/list", nil))
	require.NotNil(t, resp)
	require.Nil(t, resp.Error)

	var result struct {
		Tools []tools.ToolDescriptor `json:"tools"`
	}
	require.NoError(t, json.Unmarshal(resp.Result, &result))
	require.Len(t, result.Tools, 5)
	assert.Equal(t, "scrape_page", result.Tools[0].Name)
	assert.Equal(t, "screenshot", result.Tools[4].Name)
}

func TestDispatcherToolsCall(t *testing.T) {
	d := newTestDispatcher(t)

	params := map[string]any{
		"name":      "scrape_page",
		"arguments": map[string]any{"url": "https://example.com"},
	}
	resp := d.Handle(context.Background(), newRequest(t, 3, "tools/call", params))
	require.NotNil(t, resp)
	require.Nil(t, resp.Error)

	var result tools.CallResult
	require.NoError(t, json.Unmarshal(resp.Result, &result))
	assert.False(t, result.IsError)
	require.Len(t, result.Content, 1)
	assert.Contains(t, result.Content[0].Text, "stub content")
}

func TestDispatcherToolsCallUnknownTool(t *testing.T) {
	d := newTestDispatcher(t)

	params := map[string]any{"name": "nonexistent", "arguments": map[string]any{}}
	resp := d.Handle(context.Background(), newRequest(t, 4, "tools/call", params))
	require.NotNil(t, resp)

	// Unknown tools are a tool-level failure, not a protocol fault.
	require.Nil(t, resp.Error)
	var result tools.CallResult
	require.NoError(t, json.Unmarshal(resp.Result, &result))
	assert.True(t, result.IsError)
	assert.Contains(t, result.Content[0].Text, "Unknown tool: nonexistent")
}

func TestDispatcherToolsCallBadParams(t *testing.T) {
	d := newTestDispatcher(t)

	req := newRequest(t, 5, "tools/call", nil)
	req.Params = json.RawMessage(`"not an object"`)
	resp := d.Handle(context.Background(), req)
	require.NotNil(t, resp)
	require.NotNil(t, resp.Error)
	assert.Equal(t, InvalidParams, resp.Error.Code)
}

func TestDispatcherPing(t *testing.T) {
	d := newTestDispatcher(t)

	resp := d.Handle(context.Background(), newRequest(t, 6, "ping", nil))
	require.NotNil(t, resp)
	require.Nil(t, resp.Error)
	assert.JSONEq(t, `{"status":"ok"}`, string(resp.Result))
}

func TestDispatcherUnknownMethod(t *testing.T) {
	d := newTestDispatcher(t)

	resp := d.Handle(context.Background(), newRequest(t, 7, "resources/list", nil))
	require.NotNil(t, resp)
	require.NotNil(t, resp.Error)
	assert.Equal(t, MethodNotFound, resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "resources/list")
}

func TestDispatcherNotificationGetsNoResponse(t *testing.T) {
	d := newTestDispatcher(t)

	req := &JSONRPCRequest{JSONRPC: "2.0", Method: "notifications/initialized"}
	resp := d.Handle(context.Background(), req)
	assert.Nil(t, resp)
}
