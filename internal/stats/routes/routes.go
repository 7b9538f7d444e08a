package routes

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go-sentinel/internal/stats/dto"
	"go-sentinel/internal/stats/services"
	"go-sentinel/pkg/killboard"

	"github.com/danielgtaylor/huma/v2"
)

// Module represents the stats routes module
type Module struct {
	service *services.Service
}

// NewModule creates a new stats routes module
func NewModule(service *services.Service) *Module {
	return &Module{
		service: service,
	}
}

// RegisterUnifiedRoutes registers all stats routes with the provided Huma API
func (m *Module) RegisterUnifiedRoutes(api huma.API, basePath string) {
	// Entity drill-down endpoint
	huma.Register(api, huma.Operation{
		OperationID: "stats-get-entity",
		Method:      "GET",
		Path:        basePath + "/{kind}/{id}",
		Summary:     "Get Entity Statistics",
		Description: "Load killboard statistics for a character, corporation or alliance: activity histograms, top lists, space breakdown and threat classification. Requests to the killboard backend are rate limited and authorised by proof of work; results are cached for the configured stats TTL.",
		Tags:        []string{"Stats"},
	}, func(ctx context.Context, input *dto.GetStatsInput) (*dto.StatsOutput, error) {
		return m.getStats(ctx, input)
	})

	// Back navigation endpoint
	huma.Register(api, huma.Operation{
		OperationID: "stats-back",
		Method:      "POST",
		Path:        basePath + "/back",
		Summary:     "Go Back One Entity",
		Description: "Pop the most recent entry from the navigation history and reload it",
		Tags:        []string{"Stats"},
	}, func(ctx context.Context, input *struct{}) (*dto.BackOutput, error) {
		return m.back(ctx)
	})

	// Navigation history endpoint
	huma.Register(api, huma.Operation{
		OperationID: "stats-get-history",
		Method:      "GET",
		Path:        basePath + "/history",
		Summary:     "Get Navigation History",
		Description: "List the bounded navigation history stack, most recent entry last",
		Tags:        []string{"Stats"},
	}, func(ctx context.Context, input *struct{}) (*dto.HistoryOutput, error) {
		entries := m.service.History()
		return &dto.HistoryOutput{Body: dto.HistoryResponse{Entries: entries}}, nil
	})

	// Status endpoint (public, no auth required)
	huma.Register(api, huma.Operation{
		OperationID: "stats-get-status",
		Method:      "GET",
		Path:        basePath + "/status",
		Summary:     "Get stats module status",
		Description: "Returns the health status and load lifecycle state of the stats module",
		Tags:        []string{"Module Status"},
	}, func(ctx context.Context, input *struct{}) (*dto.StatusOutput, error) {
		return &dto.StatusOutput{Body: dto.StatusResponse{
			Module: "stats",
			Status: "healthy",
			State:  string(m.service.State()),
		}}, nil
	})
}

// getStats handles the entity drill-down request
func (m *Module) getStats(ctx context.Context, input *dto.GetStatsInput) (*dto.StatsOutput, error) {
	bundle, err := m.service.Load(ctx, input.Kind, input.ID, input.Name)
	if err != nil {
		return nil, mapLoadError(input, err)
	}
	return &dto.StatsOutput{Body: *bundle}, nil
}

// back handles the back-navigation request
func (m *Module) back(ctx context.Context) (*dto.BackOutput, error) {
	bundle, popped, err := m.service.Back(ctx)
	if err != nil {
		return nil, huma.Error502BadGateway("Failed to reload previous entity", err)
	}
	return &dto.BackOutput{Body: dto.BackResponse{Popped: popped, Stats: bundle}}, nil
}

// mapLoadError translates loader failures onto the API error surface
func mapLoadError(input *dto.GetStatsInput, err error) error {
	switch {
	case errors.Is(err, context.Canceled):
		return huma.Error409Conflict("Load superseded by a newer request")
	case errors.Is(err, context.DeadlineExceeded):
		return huma.Error504GatewayTimeout("Killboard request timed out")
	case errors.Is(err, killboard.ErrProofOfWorkRejected):
		return huma.Error502BadGateway("Killboard rejected the proof of work")
	case errors.Is(err, killboard.ErrProofOfWorkExhausted):
		return huma.Error500InternalServerError("Proof of work search space exhausted")
	case errors.Is(err, killboard.ErrNetwork):
		return huma.Error502BadGateway("Killboard unreachable", err)
	}

	var statusErr *killboard.StatusError
	if errors.As(err, &statusErr) {
		switch statusErr.Code {
		case http.StatusNotFound:
			return huma.Error404NotFound(fmt.Sprintf("No killboard data for %s %d", input.Kind, input.ID))
		case http.StatusTooManyRequests:
			return huma.Error429TooManyRequests("Killboard rate limit reached")
		}
		return huma.Error502BadGateway(fmt.Sprintf("Killboard returned status %d", statusErr.Code))
	}

	return huma.Error500InternalServerError("Failed to load statistics", err)
}
