package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go-sentinel/internal/intel/models"
	"go-sentinel/pkg/cache"
	"go-sentinel/pkg/config"
	"go-sentinel/pkg/evegateway/universe"
)

// NameResolver turns validated names into character IDs through the cache
// and the bulk resolution endpoint.
type NameResolver struct {
	tiered   *cache.Tiered
	universe universe.Client
	settings config.Settings
}

// NewNameResolver creates a name resolver
func NewNameResolver(tiered *cache.Tiered, universeClient universe.Client, settings config.Settings) *NameResolver {
	return &NameResolver{
		tiered:   tiered,
		universe: universeClient,
		settings: settings,
	}
}

// Resolve validates, deduplicates, and resolves raw names to characters.
// Output order follows the first occurrence of each name in the input.
// Unresolved names surface as warnings, never as errors; the only hard
// failure is an input with zero valid names or every chunk failing.
func (r *NameResolver) Resolve(ctx context.Context, rawNames []string) ([]models.ResolvedName, []models.Warning, error) {
	var warnings []models.Warning

	// Validate, preserving input order
	var valid []string
	for _, raw := range rawNames {
		name, ok := ValidateName(raw)
		if !ok {
			if strings.TrimSpace(raw) != "" {
				warnings = append(warnings, models.Warning{
					Kind:    models.ErrInvalidName,
					Name:    name,
					Message: fmt.Sprintf("invalid character name %q", name),
				})
			}
			continue
		}
		valid = append(valid, name)
	}

	if len(valid) == 0 {
		return nil, warnings, models.ErrNoValidNames
	}

	// Deduplicate case-insensitively, keeping the first-seen casing
	seen := make(map[string]bool, len(valid))
	var ordered []string
	for _, name := range valid {
		key := strings.ToLower(name)
		if seen[key] {
			continue
		}
		seen[key] = true
		ordered = append(ordered, name)
	}

	// Partition into cache hits and misses
	resolved := make(map[string]models.ResolvedName, len(ordered))
	var misses []string
	for _, name := range ordered {
		key := strings.ToLower(name)
		if rec, ok := cache.GetTyped[models.ResolvedName](ctx, r.tiered, cache.NamespaceNameID, key); ok {
			resolved[key] = rec
			continue
		}
		misses = append(misses, name)
	}

	// Chunk the misses against the bulk endpoint
	failedChunks := 0
	chunks := chunkSlice(misses, r.settings.MaxBulkNames)
	for i, chunk := range chunks {
		if i > 0 {
			select {
			case <-time.After(r.settings.ChunkDelay):
			case <-ctx.Done():
				return nil, warnings, ctx.Err()
			}
		}

		r.tiered.Counters().IncrESILookups()
		resp, err := r.universe.ResolveNames(ctx, chunk)
		if err != nil {
			failedChunks++
			slog.WarnContext(ctx, "Name resolution chunk failed",
				"chunk", i, "size", len(chunk), "error", err)
			continue
		}

		for _, rec := range resp.Characters {
			key := strings.ToLower(rec.Name)
			value := models.ResolvedName{ID: rec.ID, Name: rec.Name}
			resolved[key] = value
			cache.PutTyped(ctx, r.tiered, cache.NamespaceNameID, key, value)
		}
	}

	if len(chunks) > 0 && failedChunks == len(chunks) && len(resolved) == 0 {
		return nil, warnings, &models.ResolverError{
			Kind:       models.ErrNetworkError,
			EntityType: "names",
			Err:        fmt.Errorf("all %d name resolution chunks failed", failedChunks),
		}
	}

	// Assemble in input order; unknown names become warnings
	results := make([]models.ResolvedName, 0, len(ordered))
	for _, name := range ordered {
		key := strings.ToLower(name)
		rec, ok := resolved[key]
		if !ok {
			warnings = append(warnings, models.Warning{
				Kind:    models.ErrNameNotFound,
				Name:    name,
				Message: fmt.Sprintf("no character named %q", name),
			})
			continue
		}
		results = append(results, rec)
	}

	return results, warnings, nil
}
