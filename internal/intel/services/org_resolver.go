package services

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"go-sentinel/internal/intel/models"
	"go-sentinel/pkg/cache"
	"go-sentinel/pkg/config"
	"go-sentinel/pkg/evegateway/alliance"
	"go-sentinel/pkg/evegateway/corporation"
)

// OrgResolver fetches corporation and alliance metadata. There is no bulk
// endpoint; uncached ids are chunked and each chunk's lookups run
// concurrently with a bounded delay between chunks.
type OrgResolver struct {
	tiered      *cache.Tiered
	corporation corporation.Client
	alliance    alliance.Client
	settings    config.Settings
}

// NewOrgResolver creates an organisation metadata resolver
func NewOrgResolver(tiered *cache.Tiered, corporationClient corporation.Client, allianceClient alliance.Client, settings config.Settings) *OrgResolver {
	return &OrgResolver{
		tiered:      tiered,
		corporation: corporationClient,
		alliance:    allianceClient,
		settings:    settings,
	}
}

// OrgSet holds resolved organisation records keyed by id
type OrgSet struct {
	Corporations map[int32]models.Organisation
	Alliances    map[int32]models.Organisation
}

// Resolve fetches metadata for the unique corp and alliance ids referenced
// by the affiliations. Per-id failures produce a placeholder record and a
// counted warning.
func (r *OrgResolver) Resolve(ctx context.Context, affiliations map[int32]models.Affiliation) (*OrgSet, []models.Warning, error) {
	corpIDs := make(map[int32]bool)
	allianceIDs := make(map[int32]bool)
	for _, aff := range affiliations {
		corpIDs[aff.CorpID] = true
		if aff.AllianceID != nil {
			allianceIDs[*aff.AllianceID] = true
		}
	}

	set := &OrgSet{
		Corporations: make(map[int32]models.Organisation, len(corpIDs)),
		Alliances:    make(map[int32]models.Organisation, len(allianceIDs)),
	}

	var mu sync.Mutex
	var warnings []models.Warning

	// Cached ids resolve synchronously
	var uncachedCorps, uncachedAlliances []int32
	for id := range corpIDs {
		key := strconv.FormatInt(int64(id), 10)
		if org, ok := cache.GetTyped[models.Organisation](ctx, r.tiered, cache.NamespaceCorporation, key); ok {
			set.Corporations[id] = org
			continue
		}
		uncachedCorps = append(uncachedCorps, id)
	}
	for id := range allianceIDs {
		key := strconv.FormatInt(int64(id), 10)
		if org, ok := cache.GetTyped[models.Organisation](ctx, r.tiered, cache.NamespaceAlliance, key); ok {
			set.Alliances[id] = org
			continue
		}
		uncachedAlliances = append(uncachedAlliances, id)
	}

	fetchCorp := func(id int32) {
		r.tiered.Counters().IncrESILookups()
		info, err := r.corporation.GetCorporationInfo(ctx, id)

		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			slog.WarnContext(ctx, "Corporation lookup failed", "corporation_id", id, "error", err)
			set.Corporations[id] = placeholderOrg(id, models.OrgKindCorporation)
			warnings = append(warnings, models.Warning{
				Kind:    models.ErrOrganisationLookupFailed,
				ID:      id,
				Message: "corporation lookup failed",
			})
			return
		}
		org := models.Organisation{
			ID:          id,
			Kind:        models.OrgKindCorporation,
			Name:        info.Name,
			MemberCount: info.MemberCount,
			WarEligible: info.WarEligible,
			AllianceID:  info.AllianceID,
		}
		set.Corporations[id] = org
		cache.PutTyped(ctx, r.tiered, cache.NamespaceCorporation, strconv.FormatInt(int64(id), 10), org)
	}

	fetchAlliance := func(id int32) {
		r.tiered.Counters().IncrESILookups()
		info, err := r.alliance.GetAllianceInfo(ctx, id)

		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			slog.WarnContext(ctx, "Alliance lookup failed", "alliance_id", id, "error", err)
			set.Alliances[id] = placeholderOrg(id, models.OrgKindAlliance)
			warnings = append(warnings, models.Warning{
				Kind:    models.ErrOrganisationLookupFailed,
				ID:      id,
				Message: "alliance lookup failed",
			})
			return
		}
		set.Alliances[id] = models.Organisation{
			ID:   id,
			Kind: models.OrgKindAlliance,
			Name: info.Name,
		}
		cache.PutTyped(ctx, r.tiered, cache.NamespaceAlliance, strconv.FormatInt(int64(id), 10), set.Alliances[id])
	}

	type job struct {
		id       int32
		alliance bool
	}
	var jobs []job
	for _, id := range uncachedCorps {
		jobs = append(jobs, job{id: id})
	}
	for _, id := range uncachedAlliances {
		jobs = append(jobs, job{id: id, alliance: true})
	}

	for i, chunk := range chunkSlice(jobs, r.settings.ChunkSize) {
		if i > 0 {
			select {
			case <-time.After(r.settings.ChunkDelay):
			case <-ctx.Done():
				return nil, warnings, ctx.Err()
			}
		}

		var wg sync.WaitGroup
		for _, j := range chunk {
			wg.Add(1)
			go func(j job) {
				defer wg.Done()
				if j.alliance {
					fetchAlliance(j.id)
				} else {
					fetchCorp(j.id)
				}
			}(j)
		}
		wg.Wait()
	}

	return set, warnings, nil
}

func placeholderOrg(id int32, kind models.OrgKind) models.Organisation {
	return models.Organisation{
		ID:          id,
		Kind:        kind,
		Name:        "Unknown",
		WarEligible: false,
	}
}
