package tools

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestScrapePageReturnsPlainText(t *testing.T) {
	r := newTestRegistry()
	tc, fetcher, _ := newTestContext()

	res := callTool(t, r, tc, "scrape_page", `{"url":"https://example.com"}`)

	if res.IsError {
		t.Fatalf("unexpected error: %s", resultText(t, res))
	}
	if got := resultText(t, res); got != "Hello world" {
		t.Errorf("text = %q, want plain page content", got)
	}
	if len(fetcher.fetches) != 1 || fetcher.fetches[0] != "https://example.com" {
		t.Errorf("fetches = %v", fetcher.fetches)
	}
}

func TestScrapePageInvalidURL(t *testing.T) {
	r := newTestRegistry()
	tc, fetcher, _ := newTestContext()

	res := callTool(t, r, tc, "scrape_page", `{"url":"ftp://x"}`)

	if !res.IsError {
		t.Fatal("expected isError result")
	}
	if len(fetcher.fetches) != 0 {
		t.Error("no fetch should be attempted for an invalid URL")
	}
}

func TestScrapePageFetchFailure(t *testing.T) {
	r := newTestRegistry()
	tc, fetcher, _ := newTestContext()
	fetcher.fail["https://down.example"] = "navigation timeout"

	res := callTool(t, r, tc, "scrape_page", `{"url":"https://down.example"}`)

	if !res.IsError {
		t.Fatal("expected isError result")
	}
	if got := resultText(t, res); !strings.Contains(got, "navigation timeout") {
		t.Errorf("text = %q, want fetch error", got)
	}
}

func TestBatchScrapeSequentialWithPerURLResults(t *testing.T) {
	r := newTestRegistry()
	tc, fetcher, _ := newTestContext()
	fetcher.fail["https://down.example"] = "connection refused"

	res := callTool(t, r, tc, "batch_scrape",
		`{"urls":["https://a.example","https://down.example","https://b.example"]}`)

	if res.IsError {
		t.Fatalf("batch must not fail wholesale: %s", resultText(t, res))
	}

	// URLs processed strictly in input order.
	want := []string{"https://a.example", "https://down.example", "https://b.example"}
	if len(fetcher.fetches) != len(want) {
		t.Fatalf("fetches = %v", fetcher.fetches)
	}
	for i := range want {
		if fetcher.fetches[i] != want[i] {
			t.Errorf("fetch[%d] = %q, want %q", i, fetcher.fetches[i], want[i])
		}
	}

	var results []map[string]any
	if err := json.Unmarshal([]byte(resultText(t, res)), &results); err != nil {
		t.Fatalf("result is not JSON: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("result count = %d, want 3", len(results))
	}
	if results[0]["success"] != true || results[2]["success"] != true {
		t.Error("healthy URLs should succeed")
	}
	if results[1]["success"] != false || results[1]["error"] != "connection refused" {
		t.Errorf("failing URL record = %v", results[1])
	}
}

func TestBatchScrapeOverLimitRejectedBeforeAnyFetch(t *testing.T) {
	r := newTestRegistry()
	tc, fetcher, _ := newTestContext()

	urls := make([]string, 11)
	for i := range urls {
		urls[i] = "https://example.com/page"
	}
	args, _ := json.Marshal(map[string]any{"urls": urls})

	res := callTool(t, r, tc, "batch_scrape", string(args))

	if !res.IsError {
		t.Fatal("expected isError result")
	}
	if got := resultText(t, res); !strings.Contains(got, "limit of 10") {
		t.Errorf("text = %q, want limit error", got)
	}
	if len(fetcher.fetches) != 0 {
		t.Errorf("fetches = %v, want none", fetcher.fetches)
	}
}

func TestBatchScrapeInvalidURLRejectedWholesale(t *testing.T) {
	r := newTestRegistry()
	tc, fetcher, _ := newTestContext()

	res := callTool(t, r, tc, "batch_scrape", `{"urls":["https://ok.example","ftp://x"]}`)

	if !res.IsError {
		t.Fatal("expected isError result")
	}
	if got := resultText(t, res); !strings.Contains(got, "ftp://x") {
		t.Errorf("text = %q, want the invalid URL named", got)
	}
	if len(fetcher.fetches) != 0 {
		t.Errorf("fetches = %v, want none (validation precedes processing)", fetcher.fetches)
	}
}

func TestExtractDataOverLimit(t *testing.T) {
	r := newTestRegistry()
	tc, _, extractor := newTestContext()

	urls := make([]string, 6)
	for i := range urls {
		urls[i] = "https://example.com"
	}
	args, _ := json.Marshal(map[string]any{"urls": urls, "prompt": "get title"})

	res := callTool(t, r, tc, "extract_data", string(args))

	if !res.IsError {
		t.Fatal("expected isError result")
	}
	if len(extractor.calls) != 0 {
		t.Error("no extraction should be attempted over the limit")
	}
}

func TestExtractDataReturnsIndentedJSON(t *testing.T) {
	r := newTestRegistry()
	tc, _, extractor := newTestContext()

	res := callTool(t, r, tc, "extract_data", `{"urls":["https://example.com"],"prompt":"get title"}`)

	if res.IsError {
		t.Fatalf("unexpected error: %s", resultText(t, res))
	}

	var results []map[string]any
	text := resultText(t, res)
	if err := json.Unmarshal([]byte(text), &results); err != nil {
		t.Fatalf("result is not JSON: %v", err)
	}
	if !strings.Contains(text, "\n  ") {
		t.Error("result should be pretty-printed")
	}
	if len(results) != 1 || results[0]["success"] != true {
		t.Fatalf("results = %v", results)
	}
	if extractor.prompts[0] != "get title" {
		t.Errorf("prompt = %q", extractor.prompts[0])
	}
}

func TestExtractWithSchemaRejectsNonObjectSchema(t *testing.T) {
	r := newTestRegistry()
	tc, fetcher, extractor := newTestContext()

	for _, args := range []string{
		`{"urls":["https://example.com"],"schema":"not an object"}`,
		`{"urls":["https://example.com"],"schema":[1,2]}`,
		`{"urls":["https://example.com"]}`,
	} {
		res := callTool(t, r, tc, "extract_with_schema", args)
		if !res.IsError {
			t.Errorf("args=%s: expected isError result", args)
		}
	}
	if len(fetcher.fetches) != 0 || len(extractor.calls) != 0 {
		t.Error("no fetch or extraction may happen for invalid schemas")
	}
}

func TestExtractWithSchemaPassesSchemaThrough(t *testing.T) {
	r := newTestRegistry()
	tc, _, extractor := newTestContext()

	res := callTool(t, r, tc, "extract_with_schema",
		`{"urls":["https://example.com"],"schema":{"type":"object"},"prompt":"get it"}`)

	if res.IsError {
		t.Fatalf("unexpected error: %s", resultText(t, res))
	}
	if len(extractor.schemas) != 1 || extractor.schemas[0]["type"] != "object" {
		t.Errorf("schemas = %v", extractor.schemas)
	}
	if extractor.prompts[0] != "get it" {
		t.Errorf("prompt = %q", extractor.prompts[0])
	}
}

func TestExtractWithSchemaDefaultInstruction(t *testing.T) {
	r := newTestRegistry()
	tc, _, extractor := newTestContext()

	res := callTool(t, r, tc, "extract_with_schema",
		`{"urls":["https://example.com"],"schema":{"type":"object"}}`)

	if res.IsError {
		t.Fatalf("unexpected error: %s", resultText(t, res))
	}
	if !strings.Contains(extractor.prompts[0], "schema") {
		t.Errorf("default instruction = %q", extractor.prompts[0])
	}
}

func TestScreenshotDefaultsAndResult(t *testing.T) {
	r := newTestRegistry()
	tc, fetcher, _ := newTestContext()

	res := callTool(t, r, tc, "screenshot", `{"url":"https://example.com"}`)

	if res.IsError {
		t.Fatalf("unexpected error: %s", resultText(t, res))
	}

	var result map[string]any
	if err := json.Unmarshal([]byte(resultText(t, res)), &result); err != nil {
		t.Fatalf("result is not JSON: %v", err)
	}
	if result["width"] != float64(1920) || result["height"] != float64(1080) {
		t.Errorf("dimensions = %vx%v, want defaults", result["width"], result["height"])
	}
	if result["imageBase64"] != "aW1hZ2U=" {
		t.Errorf("imageBase64 = %v", result["imageBase64"])
	}
	if len(fetcher.screenshots) != 1 {
		t.Errorf("screenshots = %v", fetcher.screenshots)
	}
}
