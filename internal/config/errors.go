package config

import "errors"

var (
	ErrInvalidDelayBounds    = errors.New("delay lower bound exceeds upper bound")
	ErrUnknownFetcherBackend = errors.New("fetcher backend must be \"local\" or \"remote\"")
	ErrMissingRemoteAPIURL   = errors.New("SCRAPE_API_URL is required for the remote fetcher backend")
	ErrInvalidPort           = errors.New("port must be in 1-65535")
)
