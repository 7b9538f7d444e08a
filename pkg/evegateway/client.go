package evegateway

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"go-sentinel/pkg/config"
	"go-sentinel/pkg/evegateway/alliance"
	"go-sentinel/pkg/evegateway/character"
	"go-sentinel/pkg/evegateway/corporation"
	"go-sentinel/pkg/evegateway/universe"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Client is the EVE Online ESI client with all category clients
type Client struct {
	httpClient  *http.Client
	baseURL     string
	userAgent   string
	errorLimits *ESIErrorLimits
	limitsMutex *sync.RWMutex

	// Category clients
	Universe    universe.Client
	Character   character.Client
	Corporation corporation.Client
	Alliance    alliance.Client
}

// NewClient creates a new EVE Online ESI client
func NewClient() *Client {
	var transport http.RoundTripper = http.DefaultTransport

	// Only add OpenTelemetry instrumentation if telemetry is enabled
	if config.GetBoolEnv("ENABLE_TELEMETRY", false) {
		transport = otelhttp.NewTransport(http.DefaultTransport,
			otelhttp.WithSpanNameFormatter(func(operation string, r *http.Request) string {
				return fmt.Sprintf("HTTP %s %s", r.Method, r.URL.Host)
			}),
		)
	}

	// ESI-compliant User-Agent header with contact information
	userAgent := config.GetEnv("ESI_USER_AGENT", "go-sentinel/1.0.0 contact@example.com")
	baseURL := config.GetEnv("ESI_BASE_URL", "https://esi.evetech.net")

	httpClient := &http.Client{
		Timeout:   30 * time.Second,
		Transport: transport,
	}

	errorLimits := &ESIErrorLimits{}
	limitsMutex := &sync.RWMutex{}
	retryClient := NewDefaultRetryClient(httpClient, errorLimits, limitsMutex)

	return &Client{
		httpClient:  httpClient,
		baseURL:     baseURL,
		userAgent:   userAgent,
		errorLimits: errorLimits,
		limitsMutex: limitsMutex,
		Universe:    universe.NewUniverseClient(httpClient, baseURL, userAgent, retryClient),
		Character:   character.NewCharacterClient(httpClient, baseURL, userAgent, retryClient),
		Corporation: corporation.NewCorporationClient(httpClient, baseURL, userAgent, retryClient),
		Alliance:    alliance.NewAllianceClient(httpClient, baseURL, userAgent, retryClient),
	}
}

// HTTPClient returns the underlying HTTP client for advanced usage
func (c *Client) HTTPClient() *http.Client {
	return c.httpClient
}

// ErrorLimits returns a snapshot of the last observed ESI error limits
func (c *Client) ErrorLimits() ESIErrorLimits {
	c.limitsMutex.RLock()
	defer c.limitsMutex.RUnlock()
	return *c.errorLimits
}
