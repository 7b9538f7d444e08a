package alliance

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// AllianceInfoResponse represents alliance public information
type AllianceInfoResponse struct {
	Name   string `json:"name"`
	Ticker string `json:"ticker"`
}

// Client interface for alliance-related ESI operations
type Client interface {
	GetAllianceInfo(ctx context.Context, allianceID int32) (*AllianceInfoResponse, error)
}

// RetryClient interface for retry operations
type RetryClient interface {
	DoWithRetry(ctx context.Context, req *http.Request, maxRetries int) (*http.Response, error)
}

// AllianceClient implements alliance-related ESI operations
type AllianceClient struct {
	httpClient  *http.Client
	baseURL     string
	userAgent   string
	retryClient RetryClient
}

// NewAllianceClient creates a new alliance client
func NewAllianceClient(httpClient *http.Client, baseURL, userAgent string, retryClient RetryClient) Client {
	return &AllianceClient{
		httpClient:  httpClient,
		baseURL:     baseURL,
		userAgent:   userAgent,
		retryClient: retryClient,
	}
}

// GetAllianceInfo retrieves alliance public information
func (c *AllianceClient) GetAllianceInfo(ctx context.Context, allianceID int32) (*AllianceInfoResponse, error) {
	url := fmt.Sprintf("%s/latest/alliances/%d/", c.baseURL, allianceID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.retryClient.DoWithRetry(ctx, req, 3)
	if err != nil {
		return nil, fmt.Errorf("failed to get alliance info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ESI returned status %d", resp.StatusCode)
	}

	var info AllianceInfoResponse
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &info, nil
}
