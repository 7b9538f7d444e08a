package intel

import (
	"log/slog"

	"go-sentinel/internal/intel/routes"
	"go-sentinel/internal/intel/services"
	"go-sentinel/pkg/cache"
	"go-sentinel/pkg/config"
	"go-sentinel/pkg/evegateway"
	"go-sentinel/pkg/module"

	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"
)

// Module represents the intel module
type Module struct {
	*module.BaseModule
	service *services.Service
	routes  *routes.Module
}

// NewModule creates a new intel module instance
func NewModule(tiered *cache.Tiered, eveClient *evegateway.Client, settings config.Settings) *Module {
	service := services.NewService(tiered, eveClient, settings)
	routesModule := routes.NewModule(service)

	m := &Module{
		BaseModule: module.NewBaseModule("intel", tiered.Store()),
		service:    service,
		routes:     routesModule,
	}

	slog.Info("Intel module initialized", "name", m.Name())

	return m
}

// RegisterUnifiedRoutes registers all intel routes with the provided Huma API
func (m *Module) RegisterUnifiedRoutes(api huma.API, basePath string) {
	m.routes.RegisterUnifiedRoutes(api, basePath)
	slog.Info("Intel unified routes registered", "basePath", basePath)
}

// Version returns the module version
func (m *Module) Version() string {
	return "1.0.0"
}

// Description returns the module description
func (m *Module) Description() string {
	return "Pilot name resolution and war eligibility intel"
}

// Routes is kept for compatibility
func (m *Module) Routes(r chi.Router) {
	// Intel module uses only Huma v2 routes
}

// GetService returns the intel service for testing or external access
func (m *Module) GetService() *services.Service {
	return m.service
}
