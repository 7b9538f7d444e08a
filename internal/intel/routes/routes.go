package routes

import (
	"context"
	"errors"

	"go-sentinel/internal/intel/dto"
	"go-sentinel/internal/intel/models"
	"go-sentinel/internal/intel/services"

	"github.com/danielgtaylor/huma/v2"
	"github.com/go-playground/validator/v10"
)

// Module represents the intel routes module
type Module struct {
	service  *services.Service
	validate *validator.Validate
}

// NewModule creates a new intel routes module
func NewModule(service *services.Service) *Module {
	return &Module{
		service:  service,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// RegisterUnifiedRoutes registers all intel routes with the provided Huma API
func (m *Module) RegisterUnifiedRoutes(api huma.API, basePath string) {
	// Name resolution endpoint
	huma.Register(api, huma.Operation{
		OperationID: "intel-resolve-names",
		Method:      "POST",
		Path:        basePath + "/resolve",
		Summary:     "Resolve Pilot Names",
		Description: "Resolve a pasted list of pilot names to their corporations and alliances and partition them by war eligibility. Results are cached locally; per-name failures are reported as warnings rather than aborting the pass.",
		Tags:        []string{"Intel"},
	}, func(ctx context.Context, input *dto.ResolveNamesInput) (*dto.ResolveNamesOutput, error) {
		return m.resolveNames(ctx, input)
	})

	// Status endpoint (public, no auth required)
	huma.Register(api, huma.Operation{
		OperationID: "intel-get-status",
		Method:      "GET",
		Path:        basePath + "/status",
		Summary:     "Get intel module status",
		Description: "Returns the health status of the intel module and query activity since startup",
		Tags:        []string{"Module Status"},
	}, func(ctx context.Context, input *struct{}) (*dto.StatusOutput, error) {
		return m.getStatus(ctx)
	})
}

// resolveNames handles the name resolution request
func (m *Module) resolveNames(ctx context.Context, input *dto.ResolveNamesInput) (*dto.ResolveNamesOutput, error) {
	if err := m.validate.Struct(&input.Body); err != nil {
		return nil, huma.Error400BadRequest("Invalid request body", err)
	}

	result, queryID, err := m.service.ResolveNames(ctx, input.Body.Names)
	if err != nil {
		if errors.Is(err, models.ErrNoValidNames) {
			return nil, huma.Error400BadRequest("No valid names entered")
		}

		var resolverErr *models.ResolverError
		if errors.As(err, &resolverErr) {
			switch resolverErr.Kind {
			case models.ErrNetworkError, models.ErrServerError:
				return nil, huma.Error502BadGateway("Upstream lookup failed", err)
			case models.ErrRateLimited:
				return nil, huma.Error429TooManyRequests("Upstream rate limit reached")
			case models.ErrTimeout:
				return nil, huma.Error504GatewayTimeout("Upstream lookup timed out")
			}
		}

		return nil, huma.Error500InternalServerError("Failed to resolve names", err)
	}

	return &dto.ResolveNamesOutput{Body: dto.ResolveNamesResponse{
		QueryID:      queryID,
		Eligible:     result.Eligible,
		Ineligible:   result.Ineligible,
		TopCorps:     result.TopCorps,
		TopAlliances: result.TopAlliances,
		Warnings:     result.Warnings,
		ESILookups:   result.ESILookups,
		LocalLookups: result.LocalLookups,
	}}, nil
}

// getStatus handles the module status request
func (m *Module) getStatus(ctx context.Context) (*dto.StatusOutput, error) {
	count, lastID, lastAt := m.service.Activity()

	response := dto.StatusResponse{
		Module:      "intel",
		Status:      "healthy",
		QueryCount:  count,
		LastQueryID: lastID,
	}
	if !lastAt.IsZero() {
		response.LastQueryAt = &lastAt
	}

	return &dto.StatusOutput{Body: response}, nil
}
