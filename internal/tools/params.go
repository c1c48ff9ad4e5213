package tools

import (
	"fmt"

	"github.com/scrapebridge/scrapebridge/internal/validate"
)

// Security ceilings enforced independently of the declared schemas.
const (
	MaxBatchURLs         = 10
	MaxExtractURLs       = 5
	MaxSchemaExtractURLs = 10

	DefaultScreenshotWidth  = 1920
	DefaultScreenshotHeight = 1080
)

// validateURLs checks count ceilings and rejects the whole set on the
// first invalid URL, naming it, before any processing begins.
func validateURLs(urls []string, max int) error {
	if len(urls) == 0 {
		return fmt.Errorf("urls is required and cannot be empty")
	}
	if len(urls) > max {
		return fmt.Errorf("too many URLs: %d exceeds the limit of %d", len(urls), max)
	}
	for _, u := range urls {
		if !validate.IsValidURL(u) {
			return fmt.Errorf("invalid URL: %s", u)
		}
	}
	return nil
}

type ScrapePageParams struct {
	URL             string `json:"url"`
	OnlyMainContent *bool  `json:"onlyMainContent,omitempty"`
}

func (p *ScrapePageParams) Validate() error {
	if p.URL == "" {
		return fmt.Errorf("url is required")
	}
	if !validate.IsValidURL(p.URL) {
		return fmt.Errorf("invalid URL: %s", p.URL)
	}
	return nil
}

// MainContent returns the onlyMainContent argument, defaulting to true.
func (p *ScrapePageParams) MainContent() bool {
	if p.OnlyMainContent == nil {
		return true
	}
	return *p.OnlyMainContent
}

type BatchScrapeParams struct {
	URLs            []string `json:"urls"`
	OnlyMainContent *bool    `json:"onlyMainContent,omitempty"`
}

func (p *BatchScrapeParams) Validate() error {
	return validateURLs(p.URLs, MaxBatchURLs)
}

func (p *BatchScrapeParams) MainContent() bool {
	if p.OnlyMainContent == nil {
		return true
	}
	return *p.OnlyMainContent
}

type ExtractDataParams struct {
	URLs            []string `json:"urls"`
	Prompt          string   `json:"prompt"`
	EnableWebSearch bool     `json:"enableWebSearch,omitempty"`
}

func (p *ExtractDataParams) Validate() error {
	if err := validateURLs(p.URLs, MaxExtractURLs); err != nil {
		return err
	}
	if !validate.ValidatePrompt(p.Prompt) {
		return fmt.Errorf("prompt must be between 1 and %d characters", validate.MaxPromptLength-1)
	}
	return nil
}

type ExtractWithSchemaParams struct {
	URLs            []string       `json:"urls"`
	Schema          map[string]any `json:"schema"`
	Prompt          string         `json:"prompt,omitempty"`
	EnableWebSearch bool           `json:"enableWebSearch,omitempty"`
}

func (p *ExtractWithSchemaParams) Validate() error {
	if err := validateURLs(p.URLs, MaxSchemaExtractURLs); err != nil {
		return err
	}
	if p.Schema == nil {
		return fmt.Errorf("schema is required and must be a JSON object")
	}
	if p.Prompt != "" && !validate.ValidatePrompt(p.Prompt) {
		return fmt.Errorf("prompt must be shorter than %d characters", validate.MaxPromptLength)
	}
	return nil
}

// Instruction returns the caller's prompt or a default schema-driven one.
func (p *ExtractWithSchemaParams) Instruction() string {
	if p.Prompt != "" {
		return p.Prompt
	}
	return "Extract data from the page according to the provided schema."
}

type ScreenshotParams struct {
	URL      string `json:"url"`
	Width    *int   `json:"width,omitempty"`
	Height   *int   `json:"height,omitempty"`
	FullPage bool   `json:"fullPage,omitempty"`
}

func (p *ScreenshotParams) Validate() error {
	if p.URL == "" {
		return fmt.Errorf("url is required")
	}
	if !validate.IsValidURL(p.URL) {
		return fmt.Errorf("invalid URL: %s", p.URL)
	}
	if p.Width != nil && (*p.Width < 1 || *p.Width > 7680) {
		return fmt.Errorf("width must be between 1 and 7680")
	}
	if p.Height != nil && (*p.Height < 1 || *p.Height > 4320) {
		return fmt.Errorf("height must be between 1 and 4320")
	}
	return nil
}

// Dimensions returns the requested viewport, applying defaults.
func (p *ScreenshotParams) Dimensions() (int, int) {
	w, h := DefaultScreenshotWidth, DefaultScreenshotHeight
	if p.Width != nil {
		w = *p.Width
	}
	if p.Height != nil {
		h = *p.Height
	}
	return w, h
}
