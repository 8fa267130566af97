// Package http provides HTTP client utilities with connection pooling and retry logic.
package http

import (
	"net/http"
	"time"

	"chinosrs/internal/config"
)

// ClientConfig configures the HTTP client behavior.
type ClientConfig struct {
	Timeout             time.Duration
	MaxIdleConns        int
	MaxIdleConnsPerHost int
	IdleConnTimeout     time.Duration
}

// DefaultClientConfig returns the default HTTP client configuration.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		Timeout:             config.HTTPTimeout,
		MaxIdleConns:        config.HTTPMaxIdleConns,
		MaxIdleConnsPerHost: config.HTTPMaxIdleConnsPerHost,
		IdleConnTimeout:     config.HTTPIdleConnTimeout,
	}
}

// NewPooledClient creates an HTTP client with connection pooling.
// Reuse it across requests to the same host.
func NewPooledClient(cfg ClientConfig) *http.Client {
	return &http.Client{
		Timeout: cfg.Timeout,
		Transport: &http.Transport{
			MaxIdleConns:        cfg.MaxIdleConns,
			MaxIdleConnsPerHost: cfg.MaxIdleConnsPerHost,
			IdleConnTimeout:     cfg.IdleConnTimeout,
		},
	}
}

// NewDefaultClient creates an HTTP client with default pooling settings.
func NewDefaultClient() *http.Client {
	return NewPooledClient(DefaultClientConfig())
}

// Shared clients for the external services the pipeline talks to.
var (
	// OpenAIClient is shared across enrichment calls.
	OpenAIClient = NewDefaultClient()

	// AzureTTSClient is shared across Azure synthesis calls.
	AzureTTSClient = NewDefaultClient()

	// GoogleTTSClient is shared across Google synthesis calls. Synthesis of a
	// short sentence is fast, so it uses a tighter timeout.
	GoogleTTSClient = NewPooledClient(ClientConfig{
		Timeout:             30 * time.Second,
		MaxIdleConns:        config.HTTPMaxIdleConns,
		MaxIdleConnsPerHost: config.HTTPMaxIdleConnsPerHost,
		IdleConnTimeout:     config.HTTPIdleConnTimeout,
	})

	// AnkiClient talks to the local AnkiConnect bridge. Media-heavy addNotes
	// batches can take a while, so it keeps the long default timeout.
	AnkiClient = NewDefaultClient()
)
