package browser

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/scrapebridge/scrapebridge/internal/config"
)

func remoteTestConfig(apiURL string) *config.Config {
	cfg := config.DefaultConfig()
	cfg.Fetcher.Backend = config.FetcherRemote
	cfg.Fetcher.APIURL = apiURL
	cfg.Fetcher.APIKey = "test-key"
	return cfg
}

func TestRemoteFetchPage(t *testing.T) {
	var gotAuth string
	var gotReq remoteScrapeRequest
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success":true,"data":{"markdown":"Hello world","html":"<html><body>Hello world</body></html>","metadata":{"title":"Example"}}}`))
	}))
	defer ts.Close()

	f := NewRemoteFetcher(remoteTestConfig(ts.URL))
	result := f.FetchPage(context.Background(), "https://example.com", true)

	if !result.Success {
		t.Fatalf("expected success, got error %q", result.Error)
	}
	if result.Title != "Example" {
		t.Errorf("title = %q, want Example", result.Title)
	}
	if result.Content != "Hello world" || result.Markdown != "Hello world" {
		t.Errorf("content/markdown = %q/%q", result.Content, result.Markdown)
	}
	if gotAuth != "Bearer test-key" {
		t.Errorf("authorization header = %q", gotAuth)
	}
	if !gotReq.OnlyMainContent {
		t.Error("onlyMainContent not forwarded")
	}
}

func TestRemoteFetchPageInvalidURL(t *testing.T) {
	f := NewRemoteFetcher(remoteTestConfig("http://unused.example"))

	for _, bad := range []string{"ftp://x", "javascript:alert(1)", ""} {
		result := f.FetchPage(context.Background(), bad, true)
		if result.Success {
			t.Errorf("FetchPage(%q) succeeded, want validation failure", bad)
		}
		if result.Error == "" {
			t.Errorf("FetchPage(%q) has empty error", bad)
		}
	}
}

func TestRemoteFetchPageUpstreamFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer ts.Close()

	f := NewRemoteFetcher(remoteTestConfig(ts.URL))
	result := f.FetchPage(context.Background(), "https://example.com", false)

	if result.Success {
		t.Fatal("expected failure")
	}
	if result.Error == "" {
		t.Fatal("expected error message")
	}
}

func TestRemoteFetchPageReportedFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":false,"error":"page blocked"}`))
	}))
	defer ts.Close()

	f := NewRemoteFetcher(remoteTestConfig(ts.URL))
	result := f.FetchPage(context.Background(), "https://example.com", false)

	if result.Success {
		t.Fatal("expected failure")
	}
	if result.Error != "page blocked" {
		t.Errorf("error = %q, want upstream message", result.Error)
	}
}

func TestRemoteCaptureScreenshot(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req remoteScrapeRequest
		json.NewDecoder(r.Body).Decode(&req)
		if len(req.Formats) != 1 || req.Formats[0] != "screenshot" {
			t.Errorf("formats = %v, want [screenshot]", req.Formats)
		}
		w.Write([]byte(`{"success":true,"data":{"screenshot":"aGVsbG8="}}`))
	}))
	defer ts.Close()

	f := NewRemoteFetcher(remoteTestConfig(ts.URL))
	result := f.CaptureScreenshot(context.Background(), "https://example.com", ScreenshotOptions{Width: 800, Height: 600})

	if !result.Success {
		t.Fatalf("expected success, got %q", result.Error)
	}
	if result.ImageBase64 != "aGVsbG8=" {
		t.Errorf("imageBase64 = %q", result.ImageBase64)
	}
	if result.Width != 800 || result.Height != 600 {
		t.Errorf("dimensions = %dx%d", result.Width, result.Height)
	}
}
