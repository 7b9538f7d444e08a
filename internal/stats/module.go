package stats

import (
	"log/slog"

	"go-sentinel/internal/stats/routes"
	"go-sentinel/internal/stats/services"
	"go-sentinel/pkg/cache"
	"go-sentinel/pkg/config"
	"go-sentinel/pkg/evegateway"
	"go-sentinel/pkg/killboard"
	"go-sentinel/pkg/module"

	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"
)

// Module represents the stats module
type Module struct {
	*module.BaseModule
	service *services.Service
	routes  *routes.Module
}

// NewModule creates a new stats module instance
func NewModule(tiered *cache.Tiered, kbClient *killboard.Client, eveClient *evegateway.Client, settings config.Settings) *Module {
	service := services.NewService(tiered, kbClient, eveClient.Universe, settings)
	routesModule := routes.NewModule(service)

	m := &Module{
		BaseModule: module.NewBaseModule("stats", tiered.Store()),
		service:    service,
		routes:     routesModule,
	}

	slog.Info("Stats module initialized", "name", m.Name())

	return m
}

// RegisterUnifiedRoutes registers all stats routes with the provided Huma API
func (m *Module) RegisterUnifiedRoutes(api huma.API, basePath string) {
	m.routes.RegisterUnifiedRoutes(api, basePath)
	slog.Info("Stats unified routes registered", "basePath", basePath)
}

// Version returns the module version
func (m *Module) Version() string {
	return "1.0.0"
}

// Description returns the module description
func (m *Module) Description() string {
	return "Killboard statistics and threat scoring"
}

// Routes is kept for compatibility
func (m *Module) Routes(r chi.Router) {
	// Stats module uses only Huma v2 routes
}

// GetService returns the stats service for testing or external access
func (m *Module) GetService() *services.Service {
	return m.service
}
