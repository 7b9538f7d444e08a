package character

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// CharacterAffiliation represents a character's corporation and alliance affiliations from ESI
type CharacterAffiliation struct {
	CharacterID   int32 `json:"character_id"`
	CorporationID int32 `json:"corporation_id"`
	AllianceID    int32 `json:"alliance_id,omitempty"`
	FactionID     int32 `json:"faction_id,omitempty"`
}

// Client interface for character-related ESI operations
type Client interface {
	GetCharactersAffiliation(ctx context.Context, characterIDs []int32) ([]CharacterAffiliation, error)
}

// RetryClient interface for retry operations
type RetryClient interface {
	DoWithRetry(ctx context.Context, req *http.Request, maxRetries int) (*http.Response, error)
}

// CharacterClient implements character-related ESI operations
type CharacterClient struct {
	httpClient  *http.Client
	baseURL     string
	userAgent   string
	retryClient RetryClient
}

// NewCharacterClient creates a new character client
func NewCharacterClient(httpClient *http.Client, baseURL, userAgent string, retryClient RetryClient) Client {
	return &CharacterClient{
		httpClient:  httpClient,
		baseURL:     baseURL,
		userAgent:   userAgent,
		retryClient: retryClient,
	}
}

// MaxAffiliationIDs is the ESI limit for one affiliation request
const MaxAffiliationIDs = 1000

// GetCharactersAffiliation performs bulk lookup of character affiliations.
// Maximum of 1000 character IDs per request as per ESI specification.
func (c *CharacterClient) GetCharactersAffiliation(ctx context.Context, characterIDs []int32) ([]CharacterAffiliation, error) {
	if len(characterIDs) == 0 {
		return []CharacterAffiliation{}, nil
	}
	if len(characterIDs) > MaxAffiliationIDs {
		return nil, fmt.Errorf("maximum %d character IDs allowed per request, got %d", MaxAffiliationIDs, len(characterIDs))
	}

	requestBody, err := json.Marshal(characterIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal character IDs: %w", err)
	}

	url := fmt.Sprintf("%s/latest/characters/affiliation/", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(requestBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.retryClient.DoWithRetry(ctx, req, 3)
	if err != nil {
		return nil, fmt.Errorf("failed to get character affiliations: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ESI returned status %d", resp.StatusCode)
	}

	var affiliations []CharacterAffiliation
	if err := json.NewDecoder(resp.Body).Decode(&affiliations); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return affiliations, nil
}
