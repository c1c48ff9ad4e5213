package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/scrapebridge/scrapebridge/internal/browser"
	"github.com/scrapebridge/scrapebridge/internal/config"
	"github.com/scrapebridge/scrapebridge/internal/extract"
	"github.com/scrapebridge/scrapebridge/internal/rotation"
	"github.com/scrapebridge/scrapebridge/internal/server"
	"github.com/scrapebridge/scrapebridge/internal/tools"
)

const version = "0.1.0"

var (
	transport   = flag.String("transport", "stdio", "Transport mode (stdio, serve)")
	showVersion = flag.Bool("version", false, "Show version information")
	debug       = flag.Bool("debug", false, "Enable debug logging")
	logLevel    = flag.String("log-level", "info", "Log level (debug, info, warn, error)")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("scrapebridge version %s\n", version)
		os.Exit(0)
	}

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	setupLogging(cfg)

	log.Info().
		Str("version", version).
		Str("transport", *transport).
		Str("fetcherBackend", cfg.Fetcher.Backend).
		Bool("llmConfigured", cfg.LLM.Configured()).
		Bool("debug", cfg.Debug).
		Msg("Starting scrapebridge server")

	if !cfg.LLM.Configured() {
		log.Warn().Msg("LLM not configured - extraction tools will report an error when called")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		sig := <-sigChan
		log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	if err := run(ctx, cfg); err != nil {
		log.Error().Err(err).Msg("Server failed")
		os.Exit(1)
	}

	log.Info().Msg("scrapebridge stopped gracefully")
}

// loadConfig resolves configuration from the environment and applies
// CLI flag overrides before validation.
func loadConfig() (*config.Config, error) {
	cfg := config.LoadFromEnvironment()

	if *debug {
		cfg.Debug = true
		if *logLevel == "info" {
			cfg.LogLevel = "debug"
		}
	}
	if *logLevel != "info" {
		cfg.LogLevel = *logLevel
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// setupLogging configures the global logger. The stdio transport owns
// stdout for protocol traffic, so logs always go to stderr.
func setupLogging(cfg *config.Config) {
	zerolog.SetGlobalLevel(parseLogLevel(cfg.LogLevel))

	if cfg.Debug {
		log.Logger = log.Output(zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339,
		})
		log.Logger = log.Logger.With().Caller().Logger()
	} else {
		log.Logger = zerolog.New(os.Stderr).
			With().
			Timestamp().
			Logger()
	}
}

func parseLogLevel(level string) zerolog.Level {
	switch level {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// newFetcher selects the page-fetching backend.
func newFetcher(cfg *config.Config, proxies, userAgents *rotation.Pool[string]) browser.Fetcher {
	if cfg.Fetcher.Backend == config.FetcherRemote {
		log.Info().Str("apiUrl", cfg.Fetcher.APIURL).Msg("Using remote scraping backend")
		return browser.NewRemoteFetcher(cfg)
	}
	return browser.NewChromeFetcher(cfg, proxies, userAgents)
}

func run(ctx context.Context, cfg *config.Config) error {
	proxies := rotation.NewProxyPool(cfg.Proxy.URL)
	userAgents := rotation.NewUserAgentPool(cfg.Scraping.UserAgent)
	if proxies.Len() > 0 {
		log.Info().Int("proxies", proxies.Len()).Msg("Proxy rotation enabled")
	}

	fetcher := newFetcher(cfg, proxies, userAgents)
	extractor := extract.NewClient(cfg, fetcher, proxies)

	registry := tools.NewRegistry()
	tools.RegisterAllTools(registry)

	toolCtx := tools.NewToolContext(&log.Logger, cfg, fetcher, extractor)
	dispatcher := server.NewDispatcher(registry, toolCtx)

	switch *transport {
	case "stdio":
		return server.NewStdioTransport(dispatcher).Run(ctx)

	case "serve":
		srv := server.NewHTTPServer(cfg, dispatcher)

		errChan := make(chan error, 1)
		go func() {
			if err := srv.Start(); err != nil && err != http.ErrServerClosed {
				errChan <- err
			}
		}()

		select {
		case err := <-errChan:
			return err
		case <-ctx.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)

	default:
		return fmt.Errorf("unknown transport: %s", *transport)
	}
}
