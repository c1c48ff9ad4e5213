package browser

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/scrapebridge/scrapebridge/internal/config"
	"github.com/scrapebridge/scrapebridge/internal/validate"
)

const remoteResponseLimit = 50 << 20 // cap on scrape API response bodies

// RemoteFetcher delegates page rendering to an external scraping API
// instead of driving a local browser. It implements the same Fetcher
// contract, so the dispatch layer cannot tell the backends apart.
type RemoteFetcher struct {
	apiURL     string
	apiKey     string
	httpClient *http.Client
}

// NewRemoteFetcher creates a fetcher backed by a remote scraping API.
func NewRemoteFetcher(cfg *config.Config) *RemoteFetcher {
	return &RemoteFetcher{
		apiURL:     cfg.Fetcher.APIURL,
		apiKey:     cfg.Fetcher.APIKey,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

type remoteScrapeRequest struct {
	URL             string   `json:"url"`
	Formats         []string `json:"formats"`
	OnlyMainContent bool     `json:"onlyMainContent"`
}

type remoteScrapeResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Data    struct {
		Markdown   string `json:"markdown"`
		HTML       string `json:"html"`
		Screenshot string `json:"screenshot"`
		Metadata   struct {
			Title     string `json:"title"`
			SourceURL string `json:"sourceURL"`
		} `json:"metadata"`
	} `json:"data"`
}

// FetchPage implements Fetcher.
func (f *RemoteFetcher) FetchPage(ctx context.Context, rawURL string, onlyMainContent bool) *ScrapedContent {
	if !validate.IsValidURL(rawURL) {
		return failedScrape(rawURL, invalidURLMessage)
	}

	resp, err := f.scrape(ctx, remoteScrapeRequest{
		URL:             validate.SanitizeURL(rawURL),
		Formats:         []string{"markdown", "html"},
		OnlyMainContent: onlyMainContent,
	})
	if err != nil {
		return failedScrape(rawURL, err.Error())
	}

	return &ScrapedContent{
		URL:      rawURL,
		Title:    resp.Data.Metadata.Title,
		Content:  resp.Data.Markdown,
		Markdown: resp.Data.Markdown,
		HTML:     resp.Data.HTML,
		Success:  true,
	}
}

// CaptureScreenshot implements Fetcher.
func (f *RemoteFetcher) CaptureScreenshot(ctx context.Context, rawURL string, opts ScreenshotOptions) *ScreenshotResult {
	if !validate.IsValidURL(rawURL) {
		return failedScreenshot(rawURL, opts, invalidURLMessage)
	}

	resp, err := f.scrape(ctx, remoteScrapeRequest{
		URL:     validate.SanitizeURL(rawURL),
		Formats: []string{"screenshot"},
	})
	if err != nil {
		return failedScreenshot(rawURL, opts, err.Error())
	}
	if resp.Data.Screenshot == "" {
		return failedScreenshot(rawURL, opts, "scraping API returned no screenshot data")
	}

	return &ScreenshotResult{
		URL:         rawURL,
		ImageBase64: resp.Data.Screenshot,
		Width:       opts.Width,
		Height:      opts.Height,
		Success:     true,
	}
}

func (f *RemoteFetcher) scrape(ctx context.Context, payload remoteScrapeRequest) (*remoteScrapeResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode scrape request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.apiURL+"/v1/scrape", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build scrape request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if f.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+f.apiKey)
	}

	start := time.Now()
	httpResp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("scraping API request failed: %w", err)
	}
	defer httpResp.Body.Close()

	log.Debug().
		Str("url", payload.URL).
		Int("status", httpResp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("scraping API call complete")

	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("scraping API returned status %d", httpResp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(httpResp.Body, remoteResponseLimit))
	if err != nil {
		return nil, fmt.Errorf("failed to read scraping API response: %w", err)
	}

	var resp remoteScrapeResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode scraping API response: %w", err)
	}
	if !resp.Success {
		msg := resp.Error
		if msg == "" {
			msg = "scraping API reported failure"
		}
		return nil, fmt.Errorf("%s", msg)
	}

	return &resp, nil
}
