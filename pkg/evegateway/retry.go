package evegateway

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// ESIErrorLimits tracks the ESI error limit headers
type ESIErrorLimits struct {
	Remain int
	Reset  time.Time
	Window int
}

// DefaultRetryClient implements retry logic with exponential backoff
type DefaultRetryClient struct {
	httpClient  *http.Client
	errorLimits *ESIErrorLimits
	limitsMutex *sync.RWMutex
}

// NewDefaultRetryClient creates a new default retry client
func NewDefaultRetryClient(httpClient *http.Client, errorLimits *ESIErrorLimits, limitsMutex *sync.RWMutex) *DefaultRetryClient {
	return &DefaultRetryClient{
		httpClient:  httpClient,
		errorLimits: errorLimits,
		limitsMutex: limitsMutex,
	}
}

// retryable reports whether the HTTP status warrants another attempt
func retryable(statusCode int) bool {
	return statusCode >= 500 || statusCode == http.StatusRequestTimeout || statusCode == http.StatusTooManyRequests
}

// backoffDuration returns min(1000*2^attempt, 10000) milliseconds
func backoffDuration(attempt int) time.Duration {
	d := time.Duration(1<<uint(attempt)) * time.Second
	if d > 10*time.Second {
		d = 10 * time.Second
	}
	return d
}

// DoWithRetry makes an HTTP request, retrying transient failures with
// exponential backoff. Non-retryable statuses are returned to the caller
// untouched so it can map them onto the error taxonomy.
func (r *DefaultRetryClient) DoWithRetry(ctx context.Context, req *http.Request, maxRetries int) (*http.Response, error) {
	var resp *http.Response
	var err error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		reqClone := req.Clone(ctx)
		if attempt > 0 && req.GetBody != nil {
			// The previous attempt drained the body; Clone only copies the
			// reader reference
			body, bodyErr := req.GetBody()
			if bodyErr != nil {
				return nil, fmt.Errorf("rebuilding request body for retry: %w", bodyErr)
			}
			reqClone.Body = body
		}

		resp, err = r.httpClient.Do(reqClone)
		if err != nil {
			if attempt == maxRetries {
				return nil, fmt.Errorf("request failed after %d attempts: %w", maxRetries+1, err)
			}
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoffDuration(attempt)):
				continue
			}
		}

		// 404 is a legitimate answer and never counts against the limit
		if resp.StatusCode != http.StatusNotFound {
			r.updateErrorLimits(ctx, resp.Header)
		}

		if retryable(resp.StatusCode) {
			resp.Body.Close()

			if attempt == maxRetries {
				return nil, fmt.Errorf("request failed with status %d after %d attempts", resp.StatusCode, maxRetries+1)
			}

			slog.WarnContext(ctx, "ESI request requires backoff",
				"status_code", resp.StatusCode,
				"attempt", attempt,
				"backoff", backoffDuration(attempt).String())

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoffDuration(attempt)):
				continue
			}
		}

		break
	}

	return resp, nil
}

// updateErrorLimits records the ESI error limit headers from a response
func (r *DefaultRetryClient) updateErrorLimits(ctx context.Context, headers http.Header) {
	r.limitsMutex.Lock()
	defer r.limitsMutex.Unlock()

	if remainStr := headers.Get("X-ESI-Error-Limit-Remain"); remainStr != "" {
		if remain, err := strconv.Atoi(remainStr); err == nil {
			r.errorLimits.Remain = remain
			if remain <= 50 {
				slog.WarnContext(ctx, "ESI error limit running low",
					"remain", remain,
					"reset_time", r.errorLimits.Reset.Format(time.RFC3339))
			}
		}
	}

	if resetStr := headers.Get("X-ESI-Error-Limit-Reset"); resetStr != "" {
		if reset, err := strconv.ParseInt(resetStr, 10, 64); err == nil {
			r.errorLimits.Reset = time.Unix(reset, 0)
		}
	}

	if windowStr := headers.Get("X-ESI-Error-Limit-Window"); windowStr != "" {
		if window, err := strconv.Atoi(windowStr); err == nil {
			r.errorLimits.Window = window
		}
	}
}
