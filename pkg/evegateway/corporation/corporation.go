package corporation

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// CorporationInfoResponse represents corporation public information
type CorporationInfoResponse struct {
	Name        string `json:"name"`
	Ticker      string `json:"ticker"`
	MemberCount int32  `json:"member_count"`
	WarEligible bool   `json:"war_eligible"`
	AllianceID  *int32 `json:"alliance_id,omitempty"`
}

// Client interface for corporation-related ESI operations
type Client interface {
	GetCorporationInfo(ctx context.Context, corporationID int32) (*CorporationInfoResponse, error)
}

// RetryClient interface for retry operations
type RetryClient interface {
	DoWithRetry(ctx context.Context, req *http.Request, maxRetries int) (*http.Response, error)
}

// CorporationClient implements corporation-related ESI operations
type CorporationClient struct {
	httpClient  *http.Client
	baseURL     string
	userAgent   string
	retryClient RetryClient
}

// NewCorporationClient creates a new corporation client
func NewCorporationClient(httpClient *http.Client, baseURL, userAgent string, retryClient RetryClient) Client {
	return &CorporationClient{
		httpClient:  httpClient,
		baseURL:     baseURL,
		userAgent:   userAgent,
		retryClient: retryClient,
	}
}

// GetCorporationInfo retrieves corporation public information
func (c *CorporationClient) GetCorporationInfo(ctx context.Context, corporationID int32) (*CorporationInfoResponse, error) {
	url := fmt.Sprintf("%s/latest/corporations/%d/", c.baseURL, corporationID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.retryClient.DoWithRetry(ctx, req, 3)
	if err != nil {
		return nil, fmt.Errorf("failed to get corporation info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ESI returned status %d", resp.StatusCode)
	}

	var info CorporationInfoResponse
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &info, nil
}
