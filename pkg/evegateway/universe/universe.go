package universe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"go-sentinel/pkg/config"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Client interface for universe-related ESI operations
type Client interface {
	ResolveNames(ctx context.Context, names []string) (*ResolveNamesResponse, error)
	GetNames(ctx context.Context, ids []int32) ([]UniverseName, error)
	GetSystemInfo(ctx context.Context, systemID int32) (*SystemInfoResponse, error)
	GetTypeInfo(ctx context.Context, typeID int32) (*TypeInfoResponse, error)
}

// UniverseName is one resolved id from the bulk names endpoint
type UniverseName struct {
	ID       int32  `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
}

// ResolvedName is a single name that was matched by the bulk endpoint
type ResolvedName struct {
	ID   int32  `json:"id"`
	Name string `json:"name"`
}

// ResolveNamesResponse represents the bulk name resolution result. Names
// that do not exist are omitted, not errored.
type ResolveNamesResponse struct {
	Characters   []ResolvedName `json:"characters,omitempty"`
	Corporations []ResolvedName `json:"corporations,omitempty"`
	Alliances    []ResolvedName `json:"alliances,omitempty"`
}

// SystemInfoResponse represents solar system information
type SystemInfoResponse struct {
	SystemID       int32   `json:"system_id"`
	Name           string  `json:"name"`
	SecurityStatus float64 `json:"security_status"`
}

// TypeInfoResponse represents inventory type information
type TypeInfoResponse struct {
	TypeID int32  `json:"type_id"`
	Name   string `json:"name"`
}

// RetryClient interface for retry operations
type RetryClient interface {
	DoWithRetry(ctx context.Context, req *http.Request, maxRetries int) (*http.Response, error)
}

// UniverseClient implements universe-related ESI operations
type UniverseClient struct {
	httpClient  *http.Client
	baseURL     string
	userAgent   string
	retryClient RetryClient
}

// NewUniverseClient creates a new universe client
func NewUniverseClient(httpClient *http.Client, baseURL, userAgent string, retryClient RetryClient) Client {
	return &UniverseClient{
		httpClient:  httpClient,
		baseURL:     baseURL,
		userAgent:   userAgent,
		retryClient: retryClient,
	}
}

// MaxBulkNames is the ESI limit for one /universe/ids/ request
const MaxBulkNames = 100

// ResolveNames performs bulk name to ID resolution. Maximum of 100 names per
// request as per ESI specification. Unknown names are omitted from the
// response rather than reported as errors.
func (c *UniverseClient) ResolveNames(ctx context.Context, names []string) (*ResolveNamesResponse, error) {
	if len(names) == 0 {
		return &ResolveNamesResponse{}, nil
	}
	if len(names) > MaxBulkNames {
		return nil, fmt.Errorf("maximum %d names allowed per request, got %d", MaxBulkNames, len(names))
	}

	var span trace.Span
	if config.GetBoolEnv("ENABLE_TELEMETRY", false) {
		tracer := otel.Tracer("go-sentinel/evegateway/universe")
		ctx, span = tracer.Start(ctx, "universe.ResolveNames")
		defer span.End()

		span.SetAttributes(
			attribute.String("esi.endpoint", "universe/ids"),
			attribute.Int("esi.name_count", len(names)),
		)
	}

	requestBody, err := json.Marshal(names)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal names: %w", err)
	}

	url := fmt.Sprintf("%s/latest/universe/ids/", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(requestBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.retryClient.DoWithRetry(ctx, req, 3)
	if err != nil {
		if span != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to resolve names")
		}
		return nil, fmt.Errorf("failed to resolve names: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		if span != nil {
			span.SetStatus(codes.Error, "ESI returned error status")
		}
		return nil, fmt.Errorf("ESI returned status %d", resp.StatusCode)
	}

	var result ResolveNamesResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if span != nil {
		span.SetAttributes(attribute.Int("esi.resolved_count", len(result.Characters)))
		span.SetStatus(codes.Ok, "names resolved")
	}

	return &result, nil
}

// GetNames performs bulk ID to name resolution via /universe/names/
func (c *UniverseClient) GetNames(ctx context.Context, ids []int32) ([]UniverseName, error) {
	if len(ids) == 0 {
		return []UniverseName{}, nil
	}

	requestBody, err := json.Marshal(ids)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal ids: %w", err)
	}

	url := fmt.Sprintf("%s/latest/universe/names/", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(requestBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.retryClient.DoWithRetry(ctx, req, 3)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve ids: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ESI returned status %d", resp.StatusCode)
	}

	var names []UniverseName
	if err := json.NewDecoder(resp.Body).Decode(&names); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return names, nil
}

// GetSystemInfo retrieves solar system name and security status
func (c *UniverseClient) GetSystemInfo(ctx context.Context, systemID int32) (*SystemInfoResponse, error) {
	url := fmt.Sprintf("%s/latest/universe/systems/%d/", c.baseURL, systemID)
	var result SystemInfoResponse
	if err := c.getJSON(ctx, url, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetTypeInfo retrieves inventory type name
func (c *UniverseClient) GetTypeInfo(ctx context.Context, typeID int32) (*TypeInfoResponse, error) {
	url := fmt.Sprintf("%s/latest/universe/types/%d/", c.baseURL, typeID)
	var result TypeInfoResponse
	if err := c.getJSON(ctx, url, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *UniverseClient) getJSON(ctx context.Context, url string, dest any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.retryClient.DoWithRetry(ctx, req, 3)
	if err != nil {
		return fmt.Errorf("failed to call ESI: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("ESI returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
