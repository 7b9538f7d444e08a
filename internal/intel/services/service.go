package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go-sentinel/internal/intel/models"
	"go-sentinel/pkg/cache"
	"go-sentinel/pkg/config"
	"go-sentinel/pkg/evegateway"

	"github.com/google/uuid"
)

// Service is the intel module's entry point. It owns the resolver pipeline
// and tracks per-session query activity for the status endpoint.
type Service struct {
	pipeline *Pipeline
	tiered   *cache.Tiered

	mu          sync.Mutex
	queryCount  int64
	lastQueryID string
	lastQueryAt time.Time
}

// NewService creates the intel service over a shared tiered cache and ESI
// gateway.
func NewService(tiered *cache.Tiered, gateway *evegateway.Client, settings config.Settings) *Service {
	return &Service{
		pipeline: NewPipeline(tiered, gateway, settings),
		tiered:   tiered,
	}
}

// ResolveNames runs one resolution pass and tags it with a query ID for log
// correlation.
func (s *Service) ResolveNames(ctx context.Context, rawNames []string) (*models.Result, string, error) {
	queryID := uuid.New().String()

	s.mu.Lock()
	s.queryCount++
	s.lastQueryID = queryID
	s.lastQueryAt = time.Now()
	s.mu.Unlock()

	slog.Info("Resolving names", "query_id", queryID, "count", len(rawNames))

	result, err := s.pipeline.Run(ctx, rawNames)
	if err != nil {
		slog.Error("Resolution pass failed", "query_id", queryID, "error", err)
		return nil, queryID, err
	}
	return result, queryID, nil
}

// Activity reports query volume since startup for the status endpoint.
func (s *Service) Activity() (count int64, lastID string, lastAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queryCount, s.lastQueryID, s.lastQueryAt
}
