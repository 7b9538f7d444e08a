package services

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"go-sentinel/internal/stats/models"
	"go-sentinel/pkg/cache"
	"go-sentinel/pkg/config"
	"go-sentinel/pkg/evegateway/universe"
	"go-sentinel/pkg/killboard"
)

// LoadState tracks the drill-down lifecycle
type LoadState string

const (
	StateIdle     LoadState = "idle"
	StateLoading  LoadState = "loading"
	StateRendered LoadState = "rendered"
	StateError    LoadState = "error"
)

const historyDepth = 10

// Service owns stats drill-downs: one load at a time, a bounded navigation
// history, and the killboard plus killmail fetch pipeline behind them.
type Service struct {
	tiered    *cache.Tiered
	killboard *killboard.Client
	enricher  *Enricher
	settings  config.Settings
	now       func() time.Time

	mu      sync.Mutex
	state   LoadState
	cancel  context.CancelFunc
	seq     uint64
	current *models.HistoryEntry
	history []models.HistoryEntry
}

// NewService creates the stats service.
func NewService(tiered *cache.Tiered, kbClient *killboard.Client, universeClient universe.Client, settings config.Settings) *Service {
	return &Service{
		tiered:    tiered,
		killboard: kbClient,
		enricher:  NewEnricher(tiered, universeClient),
		settings:  settings,
		now:       time.Now,
		state:     StateIdle,
	}
}

// Load runs one drill-down for the given entity. A load that is still in
// flight when the next one starts is cancelled and its result discarded.
func (s *Service) Load(ctx context.Context, kind string, id int64, name string) (*models.StatsBundle, error) {
	return s.load(ctx, kind, id, name, true)
}

// Back pops the most recent history entry and reloads it. Returns false when
// the stack is empty.
func (s *Service) Back(ctx context.Context) (*models.StatsBundle, bool, error) {
	s.mu.Lock()
	if len(s.history) == 0 {
		s.mu.Unlock()
		return nil, false, nil
	}
	entry := s.history[len(s.history)-1]
	s.history = s.history[:len(s.history)-1]
	s.mu.Unlock()

	bundle, err := s.load(ctx, entry.Kind, entry.ID, entry.Name, false)
	return bundle, true, err
}

// History returns the navigation stack, most recent last.
func (s *Service) History() []models.HistoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.HistoryEntry, len(s.history))
	copy(out, s.history)
	return out
}

// State reports the current lifecycle state.
func (s *Service) State() LoadState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Service) load(ctx context.Context, kind string, id int64, name string, pushHistory bool) (*models.StatsBundle, error) {
	s.mu.Lock()
	if s.cancel != nil {
		// A new drill-down closes the previous one
		s.cancel()
	}
	loadCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	s.seq++
	mySeq := s.seq
	s.state = StateLoading
	var prev *models.HistoryEntry
	if pushHistory && s.current != nil {
		entry := *s.current
		prev = &entry
	}
	s.mu.Unlock()

	bundle, err := s.fetch(loadCtx, kind, id, name)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.seq != mySeq {
		// Superseded by a later load; its result owns the state now
		return nil, context.Canceled
	}
	cancel()
	s.cancel = nil
	if err != nil {
		s.state = StateError
		return nil, err
	}
	s.state = StateRendered
	// Only a successful drill-down leaves the previous entity behind
	if prev != nil {
		s.history = append(s.history, *prev)
		if len(s.history) > historyDepth {
			s.history = s.history[len(s.history)-historyDepth:]
		}
	}
	s.current = &models.HistoryEntry{Kind: kind, ID: id, Name: bundle.Name}
	return bundle, nil
}

// fetch builds the bundle: cached whole, or killboard document plus killmail
// sample, enriched and aggregated.
func (s *Service) fetch(ctx context.Context, kind string, id int64, name string) (*models.StatsBundle, error) {
	cacheKey := kind + ":" + strconv.FormatInt(id, 10)
	if bundle, ok := cache.GetTyped[models.StatsBundle](ctx, s.tiered, cache.NamespaceStats, cacheKey); ok {
		slog.Info("Stats served from cache", "kind", kind, "id", id)
		return &bundle, nil
	}

	start := time.Now()
	doc, err := s.killboard.GetEntityStats(ctx, killboard.EntityKind(kind), int32(id))
	if err != nil {
		return nil, fmt.Errorf("stats fetch for %s %d: %w", kind, id, err)
	}

	killmails := s.fetchKillmails(ctx, doc.RecentKillmailIDs)
	enriched := s.enricher.Enrich(ctx, killmails)

	bundle := Aggregate(doc, enriched, s.now().UTC())
	if bundle.Name == "" {
		bundle.Name = name
	}
	bundle.Threat = ScoreThreat(bundle)

	cache.PutTyped(ctx, s.tiered, cache.NamespaceStats, cacheKey, *bundle)

	slog.Info("Stats loaded",
		"kind", kind,
		"id", id,
		"killmails", len(killmails),
		"duration", time.Since(start))

	return bundle, nil
}

// fetchKillmails pulls up to the configured cap of killmail bodies in paced
// batches. Individual failures shrink the sample instead of failing the load.
func (s *Service) fetchKillmails(ctx context.Context, ids []int64) []*killboard.Killmail {
	if len(ids) > s.settings.MaxKillmailsToFetch {
		ids = ids[:s.settings.MaxKillmailsToFetch]
	}

	killmails := make([]*killboard.Killmail, 0, len(ids))
	for start := 0; start < len(ids); start += s.settings.KillmailBatchSize {
		if start > 0 {
			select {
			case <-time.After(s.settings.KillmailFetchDelay):
			case <-ctx.Done():
				return killmails
			}
		}

		end := start + s.settings.KillmailBatchSize
		if end > len(ids) {
			end = len(ids)
		}
		for _, id := range ids[start:end] {
			km, err := s.getKillmail(ctx, id)
			if err != nil {
				if ctx.Err() != nil {
					return killmails
				}
				slog.Warn("Killmail fetch failed", "killmail_id", id, "error", err)
				continue
			}
			killmails = append(killmails, km)
		}
	}
	return killmails
}

func (s *Service) getKillmail(ctx context.Context, id int64) (*killboard.Killmail, error) {
	key := strconv.FormatInt(id, 10)
	if km, ok := cache.GetTyped[killboard.Killmail](ctx, s.tiered, cache.NamespaceKillmail, key); ok {
		return &km, nil
	}

	s.tiered.Counters().IncrESILookups()
	km, err := s.killboard.GetKillmail(ctx, id)
	if err != nil {
		return nil, err
	}
	cache.PutTyped(ctx, s.tiered, cache.NamespaceKillmail, key, *km)
	return km, nil
}
