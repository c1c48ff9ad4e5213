package config

import (
	"os"
	"strconv"
	"time"
)

// LoadFromEnvironment builds a Config from process environment variables,
// starting from DefaultConfig. It is called exactly once at startup; the
// returned value is treated as immutable for the process lifetime.
//
// Validation is not performed here so CLI flag overrides can be applied
// first; callers must run cfg.Validate() afterwards.
func LoadFromEnvironment() *Config {
	cfg := DefaultConfig()

	// LLM endpoint (no defaults; absence disables extraction tools only)
	cfg.LLM.APIKey = os.Getenv("LLM_API_KEY")
	cfg.LLM.BaseURL = os.Getenv("LLM_BASE_URL")
	cfg.LLM.Model = os.Getenv("LLM_MODEL")

	// Proxy
	cfg.Proxy.URL = os.Getenv("PROXY_URL")
	cfg.Proxy.Username = os.Getenv("PROXY_USERNAME")
	cfg.Proxy.Password = os.Getenv("PROXY_PASSWORD")

	// Scraping
	if ua := os.Getenv("SCRAPE_USER_AGENT"); ua != "" {
		cfg.Scraping.UserAgent = ua
	}
	envInt("VIEWPORT_WIDTH", &cfg.Scraping.ViewportWidth)
	envInt("VIEWPORT_HEIGHT", &cfg.Scraping.ViewportHeight)
	envDurationMs("SCRAPE_DELAY_MIN_MS", &cfg.Scraping.NavDelayMin)
	envDurationMs("SCRAPE_DELAY_MAX_MS", &cfg.Scraping.NavDelayMax)
	envDurationMs("BATCH_DELAY_MIN_MS", &cfg.Scraping.BatchDelayMin)
	envDurationMs("BATCH_DELAY_MAX_MS", &cfg.Scraping.BatchDelayMax)

	// Retry tuning
	envInt("RETRY_MAX_ATTEMPTS", &cfg.Retry.MaxAttempts)
	envDurationMs("RETRY_INITIAL_DELAY_MS", &cfg.Retry.InitialDelay)
	envDurationMs("RETRY_MAX_DELAY_MS", &cfg.Retry.MaxDelay)
	envFloat("RETRY_BACKOFF_FACTOR", &cfg.Retry.BackoffFactor)

	// Endpoint gates (disabled by default except /health)
	cfg.Endpoints.MCPEnabled = envBool("MCP_HTTP_ENABLED")
	cfg.Endpoints.SSEEnabled = envBool("SSE_ENABLED")
	envInt("PORT", &cfg.Endpoints.Port)

	// Fetcher backend
	if backend := os.Getenv("FETCHER_BACKEND"); backend != "" {
		cfg.Fetcher.Backend = backend
	}
	cfg.Fetcher.APIURL = os.Getenv("SCRAPE_API_URL")
	cfg.Fetcher.APIKey = os.Getenv("SCRAPE_API_KEY")

	// Logging
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		cfg.LogLevel = level
	}
	cfg.Debug = envBool("DEBUG")

	return cfg
}

func envInt(name string, dst *int) {
	v := os.Getenv(name)
	if v == "" {
		return
	}
	if n, err := strconv.Atoi(v); err == nil && n > 0 {
		*dst = n
	}
}

func envFloat(name string, dst *float64) {
	v := os.Getenv(name)
	if v == "" {
		return
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
		*dst = f
	}
}

func envDurationMs(name string, dst *time.Duration) {
	v := os.Getenv(name)
	if v == "" {
		return
	}
	if n, err := strconv.Atoi(v); err == nil && n >= 0 {
		*dst = time.Duration(n) * time.Millisecond
	}
}

func envBool(name string) bool {
	v := os.Getenv(name)
	return v == "true" || v == "1"
}
