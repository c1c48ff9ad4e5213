package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"github.com/scrapebridge/scrapebridge/internal/browser"
	"github.com/scrapebridge/scrapebridge/internal/extract"
)

// HandleScrapePage fetches one URL and returns its text content.
func HandleScrapePage(ctx context.Context, tc *ToolContext, raw json.RawMessage) (string, error) {
	var params ScrapePageParams
	if err := json.Unmarshal(raw, &params); err != nil {
		return "", invalidParams("scrape_page", err)
	}
	if err := params.Validate(); err != nil {
		return "", invalidParams("scrape_page", err)
	}

	result := tc.Fetcher.FetchPage(ctx, params.URL, params.MainContent())
	if !result.Success {
		return "", NewToolError(ErrCodeInternal, fmt.Sprintf("Failed to scrape %s: %s", params.URL, result.Error), nil)
	}

	return result.Content, nil
}

// HandleBatchScrape fetches up to MaxBatchURLs sequentially. Individual
// failures are captured per URL; the batch itself never aborts.
func HandleBatchScrape(ctx context.Context, tc *ToolContext, raw json.RawMessage) (string, error) {
	var params BatchScrapeParams
	if err := json.Unmarshal(raw, &params); err != nil {
		return "", invalidParams("batch_scrape", err)
	}
	if err := params.Validate(); err != nil {
		return "", invalidParams("batch_scrape", err)
	}

	results := make([]*browser.ScrapedContent, 0, len(params.URLs))
	for i, u := range params.URLs {
		if i > 0 {
			if err := batchPause(ctx, tc); err != nil {
				return "", NewToolError(ErrCodeInternal, err.Error(), nil)
			}
		}
		results = append(results, tc.Fetcher.FetchPage(ctx, u, params.MainContent()))
	}

	return marshalIndent(results)
}

// HandleExtractData runs prompt-based extraction over up to
// MaxExtractURLs, strictly in input order.
func HandleExtractData(ctx context.Context, tc *ToolContext, raw json.RawMessage) (string, error) {
	var params ExtractDataParams
	if err := json.Unmarshal(raw, &params); err != nil {
		return "", invalidParams("extract_data", err)
	}
	if err := params.Validate(); err != nil {
		return "", invalidParams("extract_data", err)
	}

	results := make([]*extract.ExtractedData, 0, len(params.URLs))
	for i, u := range params.URLs {
		if i > 0 {
			if err := batchPause(ctx, tc); err != nil {
				return "", NewToolError(ErrCodeInternal, err.Error(), nil)
			}
		}
		results = append(results, tc.Extractor.Extract(ctx, u, params.Prompt, nil))
	}

	return marshalIndent(results)
}

// HandleExtractWithSchema runs schema-guided extraction over up to
// MaxSchemaExtractURLs.
func HandleExtractWithSchema(ctx context.Context, tc *ToolContext, raw json.RawMessage) (string, error) {
	var params ExtractWithSchemaParams
	if err := json.Unmarshal(raw, &params); err != nil {
		return "", invalidParams("extract_with_schema", err)
	}
	if err := params.Validate(); err != nil {
		return "", invalidParams("extract_with_schema", err)
	}

	results := make([]*extract.ExtractedData, 0, len(params.URLs))
	for i, u := range params.URLs {
		if i > 0 {
			if err := batchPause(ctx, tc); err != nil {
				return "", NewToolError(ErrCodeInternal, err.Error(), nil)
			}
		}
		results = append(results, tc.Extractor.Extract(ctx, u, params.Instruction(), params.Schema))
	}

	return marshalIndent(results)
}

// HandleScreenshot captures a rendered page image as an inline base64
// payload.
func HandleScreenshot(ctx context.Context, tc *ToolContext, raw json.RawMessage) (string, error) {
	var params ScreenshotParams
	if err := json.Unmarshal(raw, &params); err != nil {
		return "", invalidParams("screenshot", err)
	}
	if err := params.Validate(); err != nil {
		return "", invalidParams("screenshot", err)
	}

	width, height := params.Dimensions()
	result := tc.Fetcher.CaptureScreenshot(ctx, params.URL, browser.ScreenshotOptions{
		Width:    width,
		Height:   height,
		FullPage: params.FullPage,
	})
	if !result.Success {
		return "", NewToolError(ErrCodeInternal, fmt.Sprintf("Failed to capture %s: %s", params.URL, result.Error), nil)
	}

	return marshalIndent(result)
}

// batchPause sleeps a randomized inter-request delay drawn fresh from
// the configured bounds.
func batchPause(ctx context.Context, tc *ToolContext) error {
	min := tc.Config.Scraping.BatchDelayMin
	max := tc.Config.Scraping.BatchDelayMax
	d := min
	if max > min {
		d = min + time.Duration(rand.Int63n(int64(max-min)))
	}
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func marshalIndent(v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", NewToolError(ErrCodeInternal, "Failed to serialize tool result: "+err.Error(), nil)
	}
	return string(data), nil
}
