// Package browser fetches rendered page content through one of two
// interchangeable backends: a local headless Chrome instance or a remote
// scraping API. The dispatch layer is written against the Fetcher
// interface only; the concrete backend is chosen by configuration.
package browser

import "context"

// ScrapedContent is the result of fetching one URL. Failures are
// captured in the Error field; FetchPage never returns a Go error.
type ScrapedContent struct {
	URL      string `json:"url"`
	Title    string `json:"title"`
	Content  string `json:"content"`
	Markdown string `json:"markdown"`
	HTML     string `json:"html"`
	Success  bool   `json:"success"`
	Error    string `json:"error,omitempty"`
}

// ScreenshotOptions configures a screenshot capture.
type ScreenshotOptions struct {
	Width    int
	Height   int
	FullPage bool
}

// ScreenshotResult carries the captured image as an inline base64
// payload. Images are never written to persistent storage.
type ScreenshotResult struct {
	URL         string `json:"url"`
	ImageBase64 string `json:"imageBase64,omitempty"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	Success     bool   `json:"success"`
	Error       string `json:"error,omitempty"`
}

// Fetcher is the page-fetching capability consumed by the tool handlers.
// Both methods produce exactly one result per call and report failures
// inside the result rather than as errors.
type Fetcher interface {
	FetchPage(ctx context.Context, url string, onlyMainContent bool) *ScrapedContent
	CaptureScreenshot(ctx context.Context, url string, opts ScreenshotOptions) *ScreenshotResult
}

func failedScrape(url, msg string) *ScrapedContent {
	return &ScrapedContent{URL: url, Success: false, Error: msg}
}

func failedScreenshot(url string, opts ScreenshotOptions, msg string) *ScreenshotResult {
	return &ScreenshotResult{URL: url, Width: opts.Width, Height: opts.Height, Success: false, Error: msg}
}

const invalidURLMessage = "Invalid URL format. Only http:// and https:// URLs are supported."
