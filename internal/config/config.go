package config

import "time"

// Fetcher backend selection. The local backend drives a headless Chrome
// instance; the remote backend calls an external scraping API.
const (
	FetcherLocal  = "local"
	FetcherRemote = "remote"
)

// Config holds all configuration for the scrapebridge server.
// It is resolved once at startup and never mutated afterwards.
type Config struct {
	LLM       LLMConfig       `json:"llm"`
	Proxy     ProxyConfig     `json:"proxy"`
	Scraping  ScrapingConfig  `json:"scraping"`
	Retry     RetryConfig     `json:"retry"`
	Endpoints EndpointsConfig `json:"endpoints"`
	Fetcher   FetcherConfig   `json:"fetcher"`
	LogLevel  string          `json:"logLevel"`
	Debug     bool            `json:"debug"`
}

// LLMConfig holds the chat-completion endpoint settings. All three fields
// may be empty: startup does not fail without them, but extraction tools
// will report "LLM configuration not available" at call time.
type LLMConfig struct {
	APIKey  string `json:"apiKey"`
	BaseURL string `json:"baseUrl"`
	Model   string `json:"model"`
}

// Configured reports whether extraction calls can be made.
func (c LLMConfig) Configured() bool {
	return c.APIKey != "" && c.BaseURL != "" && c.Model != ""
}

// ProxyConfig holds the outbound proxy settings. URL may be a single
// proxy URL or a port range of the form scheme://host:START-END.
type ProxyConfig struct {
	URL      string `json:"url"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// HasCredentials reports whether proxy authentication is configured.
func (c ProxyConfig) HasCredentials() bool {
	return c.Username != "" && c.Password != ""
}

// ScrapingConfig holds browser and pacing settings.
type ScrapingConfig struct {
	// UserAgent is either one literal user-agent string or a JSON array
	// of user-agent strings to rotate through.
	UserAgent      string `json:"userAgent"`
	ViewportWidth  int    `json:"viewportWidth"`
	ViewportHeight int    `json:"viewportHeight"`
	// NavDelayMin/Max bound the random sleep before each navigation.
	NavDelayMin time.Duration `json:"navDelayMin"`
	NavDelayMax time.Duration `json:"navDelayMax"`
	// BatchDelayMin/Max bound the random sleep between batch iterations.
	BatchDelayMin time.Duration `json:"batchDelayMin"`
	BatchDelayMax time.Duration `json:"batchDelayMax"`
}

// RetryConfig tunes the exponential backoff helper used for
// rate-limit-flavored upstream errors.
type RetryConfig struct {
	MaxAttempts   int           `json:"maxAttempts"`
	InitialDelay  time.Duration `json:"initialDelay"`
	MaxDelay      time.Duration `json:"maxDelay"`
	BackoffFactor float64       `json:"backoffFactor"`
}

// EndpointsConfig gates the HTTP protocol endpoints. Everything except
// the health check is disabled by default to prevent accidental exposure.
type EndpointsConfig struct {
	MCPEnabled bool `json:"mcpEnabled"`
	SSEEnabled bool `json:"sseEnabled"`
	Port       int  `json:"port"`
}

// FetcherConfig selects and configures the page-fetching backend.
type FetcherConfig struct {
	Backend string `json:"backend"` // FetcherLocal or FetcherRemote
	// Remote scraping API settings, used only when Backend == FetcherRemote.
	APIURL string `json:"apiUrl"`
	APIKey string `json:"apiKey"`
}

// DefaultConfig returns a configuration with the documented defaults
// applied. LLM and proxy settings intentionally have no defaults.
func DefaultConfig() *Config {
	return &Config{
		Scraping: ScrapingConfig{
			ViewportWidth:  1920,
			ViewportHeight: 1080,
			NavDelayMin:    1000 * time.Millisecond,
			NavDelayMax:    3000 * time.Millisecond,
			BatchDelayMin:  2000 * time.Millisecond,
			BatchDelayMax:  5000 * time.Millisecond,
		},
		Retry: RetryConfig{
			MaxAttempts:   3,
			InitialDelay:  1000 * time.Millisecond,
			MaxDelay:      10000 * time.Millisecond,
			BackoffFactor: 2,
		},
		Endpoints: EndpointsConfig{
			Port: 3000,
		},
		Fetcher: FetcherConfig{
			Backend: FetcherLocal,
		},
		LogLevel: "info",
	}
}

// Validate checks the parts of the configuration that must be coherent
// at startup. Absent LLM settings are allowed (scrape-only operation).
func (c *Config) Validate() error {
	if c.Scraping.NavDelayMin > c.Scraping.NavDelayMax {
		return ErrInvalidDelayBounds
	}
	if c.Scraping.BatchDelayMin > c.Scraping.BatchDelayMax {
		return ErrInvalidDelayBounds
	}
	if c.Fetcher.Backend != FetcherLocal && c.Fetcher.Backend != FetcherRemote {
		return ErrUnknownFetcherBackend
	}
	if c.Fetcher.Backend == FetcherRemote && c.Fetcher.APIURL == "" {
		return ErrMissingRemoteAPIURL
	}
	if c.Endpoints.Port <= 0 || c.Endpoints.Port > 65535 {
		return ErrInvalidPort
	}
	return nil
}
