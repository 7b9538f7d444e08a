package services

import (
	"context"
	"log/slog"
	"time"

	"go-sentinel/internal/intel/models"
	"go-sentinel/pkg/cache"
	"go-sentinel/pkg/config"
	"go-sentinel/pkg/evegateway"
)

// Pipeline runs the full resolution pass: raw names through name, affiliation
// and organisation resolution to the assembled eligibility report.
type Pipeline struct {
	tiered       *cache.Tiered
	names        *NameResolver
	affiliations *AffiliationResolver
	orgs         *OrgResolver
	assembler    *Assembler
}

// NewPipeline wires the resolver stages against one ESI gateway and a shared
// tiered cache.
func NewPipeline(tiered *cache.Tiered, gateway *evegateway.Client, settings config.Settings) *Pipeline {
	return &Pipeline{
		tiered:       tiered,
		names:        NewNameResolver(tiered, gateway.Universe, settings),
		affiliations: NewAffiliationResolver(tiered, gateway.Character, settings),
		orgs:         NewOrgResolver(tiered, gateway.Corporation, gateway.Alliance, settings),
		assembler:    NewAssembler(),
	}
}

// Run resolves rawNames end to end. Warnings from every stage accumulate on
// the result; a stage error aborts the pass. Lookup counters are reset at the
// start so the result reports this pass only, while the session cache itself
// carries over between passes.
func (p *Pipeline) Run(ctx context.Context, rawNames []string) (*models.Result, error) {
	start := time.Now()
	counters := p.tiered.Counters()
	counters.Reset()

	resolved, warnings, err := p.names.Resolve(ctx, rawNames)
	if err != nil {
		return nil, err
	}

	if len(resolved) == 0 {
		result := &models.Result{
			Eligible:     []models.Character{},
			Ineligible:   []models.Character{},
			TopCorps:     []models.OrgSummary{},
			TopAlliances: []models.OrgSummary{},
			Warnings:     warnings,
		}
		result.ESILookups, result.LocalLookups = counters.Snapshot()
		return result, nil
	}

	affiliations, affWarnings, err := p.affiliations.Resolve(ctx, resolved)
	if err != nil {
		return nil, err
	}
	warnings = append(warnings, affWarnings...)

	orgSet, orgWarnings, err := p.orgs.Resolve(ctx, affiliations)
	if err != nil {
		return nil, err
	}
	warnings = append(warnings, orgWarnings...)

	result := p.assembler.Assemble(resolved, affiliations, orgSet)
	result.Warnings = warnings
	result.ESILookups, result.LocalLookups = counters.Snapshot()

	slog.Info("Intel pass complete",
		"names", len(rawNames),
		"resolved", len(resolved),
		"eligible", len(result.Eligible),
		"ineligible", len(result.Ineligible),
		"warnings", len(result.Warnings),
		"esi_lookups", result.ESILookups,
		"local_lookups", result.LocalLookups,
		"duration", time.Since(start))

	return result, nil
}
