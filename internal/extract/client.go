// Package extract composes fetched page content into an LLM prompt and
// parses the model's answer into structured data. Upstream provider
// errors are mapped to a small safe vocabulary so response bodies, which
// may echo request internals, never reach callers.
package extract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/scrapebridge/scrapebridge/internal/browser"
	"github.com/scrapebridge/scrapebridge/internal/config"
	"github.com/scrapebridge/scrapebridge/internal/retryutil"
	"github.com/scrapebridge/scrapebridge/internal/rotation"
	"github.com/scrapebridge/scrapebridge/internal/validate"
)

const (
	llmTimeout       = 60 * time.Second
	llmResponseLimit = 10 << 20 // cap against runaway provider responses
	llmMaxTokens     = 4096
	llmTemperature   = 0.1
)

// Safe error vocabulary surfaced to callers in place of raw provider
// error bodies.
const (
	msgAuthFailed  = "LLM authentication failed"
	msgRateLimited = "LLM rate limit exceeded"
	msgTimeout     = "LLM request timed out"
	msgGeneric     = "LLM request failed"
	msgNotConfig   = "LLM configuration not available"
)

// ExtractedData is the result of one extraction call.
type ExtractedData struct {
	URL     string `json:"url"`
	Data    any    `json:"data"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// Client performs LLM-backed extraction over fetched page content.
type Client struct {
	cfg     *config.Config
	fetcher browser.Fetcher
	proxies *rotation.Pool[string]
}

// NewClient creates an extraction client. The fetcher supplies page
// content; the proxy pool, when non-empty, routes LLM calls.
func NewClient(cfg *config.Config, fetcher browser.Fetcher, proxies *rotation.Pool[string]) *Client {
	return &Client{cfg: cfg, fetcher: fetcher, proxies: proxies}
}

// Extract fetches url's main content and asks the configured LLM to
// extract data per the prompt and optional schema. All failures are
// reported inside the result; Extract never returns a Go error.
func (c *Client) Extract(ctx context.Context, rawURL, prompt string, schema map[string]any) *ExtractedData {
	if !validate.IsValidURL(rawURL) {
		return &ExtractedData{URL: rawURL, Error: "Invalid URL format. Only http:// and https:// URLs are supported."}
	}
	if !validate.ValidatePrompt(prompt) {
		return &ExtractedData{URL: rawURL, Error: fmt.Sprintf("Prompt must be between 1 and %d characters", validate.MaxPromptLength-1)}
	}

	page := c.fetcher.FetchPage(ctx, rawURL, true)
	if !page.Success {
		return &ExtractedData{URL: rawURL, Error: page.Error}
	}

	if !c.cfg.LLM.Configured() {
		return &ExtractedData{URL: rawURL, Error: msgNotConfig}
	}

	fullPrompt := buildPrompt(rawURL, page.Title, page.Content, prompt, schema)

	var text string
	err := retryutil.Do(ctx, c.cfg.Retry, isRetryable, func() error {
		var callErr error
		text, callErr = c.chatComplete(ctx, fullPrompt)
		return callErr
	})
	if err != nil {
		return &ExtractedData{URL: rawURL, Error: safeMessage(err)}
	}

	// A model answer that is not JSON is still an answer: wrap the raw
	// text instead of failing the call.
	var data any
	if json.Unmarshal([]byte(text), &data) != nil {
		data = map[string]any{"raw_response": text}
	}

	return &ExtractedData{URL: rawURL, Data: data, Success: true}
}

// buildPrompt embeds the page and the caller's instruction into one
// natural-language extraction prompt.
func buildPrompt(pageURL, title, content, instruction string, schema map[string]any) string {
	var b strings.Builder
	b.WriteString("Extract structured data from the following web page.\n\n")
	fmt.Fprintf(&b, "URL: %s\n", pageURL)
	fmt.Fprintf(&b, "Title: %s\n\n", title)
	fmt.Fprintf(&b, "Page content:\n%s\n\n", content)
	if schema != nil {
		pretty, err := json.MarshalIndent(schema, "", "  ")
		if err == nil {
			fmt.Fprintf(&b, "Return JSON matching this schema:\n%s\n\n", pretty)
		}
	}
	fmt.Fprintf(&b, "Instruction: %s\n", instruction)
	b.WriteString("\nRespond with JSON only.")
	return b.String()
}

// OpenAI-compatible chat completion wire types.

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// chatComplete issues one chat-completion request and returns the
// model's text output.
func (c *Client) chatComplete(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: c.cfg.LLM.Model,
		Messages: []chatMessage{
			{Role: "system", Content: "You are a data extraction assistant. Respond with JSON only."},
			{Role: "user", Content: prompt},
		},
		Temperature: llmTemperature,
		MaxTokens:   llmMaxTokens,
	})
	if err != nil {
		return "", &llmError{message: msgGeneric, cause: err}
	}

	callCtx, cancel := context.WithTimeout(ctx, llmTimeout)
	defer cancel()

	endpoint := strings.TrimRight(c.cfg.LLM.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(callCtx, http.MethodPost, endpoint, strings.NewReader(string(body)))
	if err != nil {
		return "", &llmError{message: msgGeneric, cause: err}
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.LLM.APIKey)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.newHTTPClient().Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || callCtx.Err() != nil {
			return "", &llmError{message: msgTimeout, cause: err}
		}
		return "", &llmError{message: msgGeneric, cause: err}
	}
	defer resp.Body.Close()

	log.Debug().
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("LLM call complete")

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return "", &llmError{message: msgAuthFailed}
	case resp.StatusCode == http.StatusTooManyRequests:
		return "", &llmError{message: msgRateLimited, retryable: true}
	case resp.StatusCode != http.StatusOK:
		return "", &llmError{message: msgGeneric}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, llmResponseLimit))
	if err != nil {
		return "", &llmError{message: msgGeneric, cause: err}
	}

	var parsed chatResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", &llmError{message: msgGeneric, cause: err}
	}
	if len(parsed.Choices) == 0 {
		return "", &llmError{message: msgGeneric}
	}

	return parsed.Choices[0].Message.Content, nil
}

// newHTTPClient builds the transport for one LLM call, routed through
// the next proxy from the pool when one is configured.
func (c *Client) newHTTPClient() *http.Client {
	client := &http.Client{Timeout: llmTimeout}

	proxy, ok := c.proxies.Next()
	if !ok {
		return client
	}

	proxyURL, err := url.Parse(proxy)
	if err != nil {
		log.Warn().Str("proxy", proxy).Msg("skipping unparseable proxy for LLM call")
		return client
	}
	if c.cfg.Proxy.HasCredentials() {
		proxyURL.User = url.UserPassword(c.cfg.Proxy.Username, c.cfg.Proxy.Password)
	}

	client.Transport = &http.Transport{Proxy: http.ProxyURL(proxyURL)}
	return client
}

// llmError carries a safe user-facing message; the underlying cause is
// logged but never surfaced.
type llmError struct {
	message   string
	retryable bool
	cause     error
}

func (e *llmError) Error() string { return e.message }

func (e *llmError) Unwrap() error { return e.cause }

func isRetryable(err error) bool {
	var le *llmError
	return errors.As(err, &le) && le.retryable
}

func safeMessage(err error) string {
	var le *llmError
	if errors.As(err, &le) {
		return le.message
	}
	return msgGeneric
}
