package services

import (
	"context"
	"log/slog"
	"strconv"

	"go-sentinel/internal/stats/models"
	"go-sentinel/pkg/cache"
	"go-sentinel/pkg/evegateway/universe"
	"go-sentinel/pkg/killboard"
)

// systemInfo is the cached shape for solar system metadata
type systemInfo struct {
	Name           string  `json:"name"`
	SecurityStatus float64 `json:"security_status"`
}

// Enricher resolves ship, character and system names onto raw killmails so
// aggregation can run without further upstream calls. Lookups go through the
// long-TTL universe namespace.
type Enricher struct {
	tiered   *cache.Tiered
	universe universe.Client
}

// NewEnricher creates an enricher over the shared cache and ESI universe
// client.
func NewEnricher(tiered *cache.Tiered, universeClient universe.Client) *Enricher {
	return &Enricher{tiered: tiered, universe: universeClient}
}

// Enrich converts raw killmails into the aggregator's input model. Name
// lookup failures degrade to empty names rather than failing the load.
func (e *Enricher) Enrich(ctx context.Context, raw []*killboard.Killmail) []models.Killmail {
	names := e.resolveNames(ctx, collectNameIDs(raw))
	systems := e.resolveSystems(ctx, collectSystemIDs(raw))

	enriched := make([]models.Killmail, 0, len(raw))
	for _, km := range raw {
		out := models.Killmail{
			ID:               km.KillmailID,
			Time:             km.KillmailTime,
			SystemID:         km.SolarSystemID,
			VictimShipTypeID: km.Victim.ShipTypeID,
			VictimShipName:   names[km.Victim.ShipTypeID],
			ISKValue:         km.ZKB.TotalValue,
			Attackers:        make([]models.Attacker, 0, len(km.Attackers)),
		}
		if sys, ok := systems[km.SolarSystemID]; ok {
			out.SystemName = sys.Name
			out.SystemSecurity = sys.SecurityStatus
		}
		for _, a := range km.Attackers {
			out.Attackers = append(out.Attackers, models.Attacker{
				CharacterID: a.CharacterID,
				Name:        names[a.CharacterID],
			})
		}
		enriched = append(enriched, out)
	}
	return enriched
}

func collectNameIDs(raw []*killboard.Killmail) []int32 {
	seen := make(map[int32]bool)
	var ids []int32
	add := func(id int32) {
		if id != 0 && !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	for _, km := range raw {
		add(km.Victim.ShipTypeID)
		for _, a := range km.Attackers {
			add(a.CharacterID)
		}
	}
	return ids
}

func collectSystemIDs(raw []*killboard.Killmail) []int32 {
	seen := make(map[int32]bool)
	var ids []int32
	for _, km := range raw {
		if km.SolarSystemID != 0 && !seen[km.SolarSystemID] {
			seen[km.SolarSystemID] = true
			ids = append(ids, km.SolarSystemID)
		}
	}
	return ids
}

// resolveNames maps ids to display names via the bulk names endpoint,
// serving cached ids locally first.
func (e *Enricher) resolveNames(ctx context.Context, ids []int32) map[int32]string {
	resolved := make(map[int32]string, len(ids))

	var misses []int32
	for _, id := range ids {
		key := strconv.FormatInt(int64(id), 10)
		if name, ok := cache.GetTyped[string](ctx, e.tiered, cache.NamespaceUniverseName, key); ok {
			resolved[id] = name
			continue
		}
		misses = append(misses, id)
	}

	for start := 0; start < len(misses); start += universe.MaxBulkNames {
		end := start + universe.MaxBulkNames
		if end > len(misses) {
			end = len(misses)
		}

		e.tiered.Counters().IncrESILookups()
		names, err := e.universe.GetNames(ctx, misses[start:end])
		if err != nil {
			slog.Warn("Universe name lookup failed", "count", end-start, "error", err)
			continue
		}
		for _, n := range names {
			resolved[n.ID] = n.Name
			cache.PutTyped(ctx, e.tiered, cache.NamespaceUniverseName, strconv.FormatInt(int64(n.ID), 10), n.Name)
		}
	}

	return resolved
}

// resolveSystems fetches system name and security per id, cached under a
// prefixed key in the universe namespace.
func (e *Enricher) resolveSystems(ctx context.Context, ids []int32) map[int32]systemInfo {
	resolved := make(map[int32]systemInfo, len(ids))

	for _, id := range ids {
		key := "system:" + strconv.FormatInt(int64(id), 10)
		if sys, ok := cache.GetTyped[systemInfo](ctx, e.tiered, cache.NamespaceUniverseName, key); ok {
			resolved[id] = sys
			continue
		}

		e.tiered.Counters().IncrESILookups()
		info, err := e.universe.GetSystemInfo(ctx, id)
		if err != nil {
			slog.Warn("System lookup failed", "system_id", id, "error", err)
			continue
		}
		sys := systemInfo{Name: info.Name, SecurityStatus: info.SecurityStatus}
		resolved[id] = sys
		cache.PutTyped(ctx, e.tiered, cache.NamespaceUniverseName, key, sys)
	}

	return resolved
}
