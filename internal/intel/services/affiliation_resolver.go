package services

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"go-sentinel/internal/intel/models"
	"go-sentinel/pkg/cache"
	"go-sentinel/pkg/config"
	"go-sentinel/pkg/evegateway/character"
)

// AffiliationResolver resolves characters to their current corporation and
// alliance. Same batching pattern as the name resolver but keyed on ID.
type AffiliationResolver struct {
	tiered    *cache.Tiered
	character character.Client
	settings  config.Settings
}

// NewAffiliationResolver creates an affiliation resolver
func NewAffiliationResolver(tiered *cache.Tiered, characterClient character.Client, settings config.Settings) *AffiliationResolver {
	return &AffiliationResolver{
		tiered:    tiered,
		character: characterClient,
		settings:  settings,
	}
}

// Resolve returns the affiliation for every character it can. Characters
// missing from a successful response surface as AffiliationMissing warnings
// and are dropped; they never abort the pipeline.
func (r *AffiliationResolver) Resolve(ctx context.Context, characters []models.ResolvedName) (map[int32]models.Affiliation, []models.Warning, error) {
	var warnings []models.Warning
	affiliations := make(map[int32]models.Affiliation, len(characters))

	var misses []int32
	for _, c := range characters {
		key := strconv.FormatInt(int64(c.ID), 10)
		if aff, ok := cache.GetTyped[models.Affiliation](ctx, r.tiered, cache.NamespaceAffiliation, key); ok {
			affiliations[c.ID] = aff
			continue
		}
		misses = append(misses, c.ID)
	}

	for i, chunk := range chunkSlice(misses, character.MaxAffiliationIDs) {
		if i > 0 {
			select {
			case <-time.After(r.settings.ChunkDelay):
			case <-ctx.Done():
				return nil, warnings, ctx.Err()
			}
		}

		r.tiered.Counters().IncrESILookups()
		resp, err := r.character.GetCharactersAffiliation(ctx, chunk)
		if err != nil {
			slog.WarnContext(ctx, "Affiliation chunk failed", "size", len(chunk), "error", err)
			continue
		}

		for _, a := range resp {
			aff := models.Affiliation{
				CharacterID: a.CharacterID,
				CorpID:      a.CorporationID,
			}
			if a.AllianceID != 0 {
				allianceID := a.AllianceID
				aff.AllianceID = &allianceID
			}
			affiliations[a.CharacterID] = aff
			key := strconv.FormatInt(int64(a.CharacterID), 10)
			cache.PutTyped(ctx, r.tiered, cache.NamespaceAffiliation, key, aff)
		}
	}

	// Characters the upstream omitted get a warning, not an error
	for _, c := range characters {
		if _, ok := affiliations[c.ID]; !ok {
			warnings = append(warnings, models.Warning{
				Kind:    models.ErrAffiliationMissing,
				Name:    c.Name,
				ID:      c.ID,
				Message: fmt.Sprintf("no affiliation for %q", c.Name),
			})
		}
	}

	return affiliations, warnings, nil
}
