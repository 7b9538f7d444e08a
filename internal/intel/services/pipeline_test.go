package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"go-sentinel/internal/intel/models"
	"go-sentinel/pkg/cache"
	"go-sentinel/pkg/config"
	"go-sentinel/pkg/evegateway/alliance"
	"go-sentinel/pkg/evegateway/character"
	"go-sentinel/pkg/evegateway/corporation"
	"go-sentinel/pkg/evegateway/universe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUniverse struct {
	calls   atomic.Int64
	resolve func(names []string) (*universe.ResolveNamesResponse, error)
}

func (f *fakeUniverse) ResolveNames(ctx context.Context, names []string) (*universe.ResolveNamesResponse, error) {
	f.calls.Add(1)
	return f.resolve(names)
}

func (f *fakeUniverse) GetNames(ctx context.Context, ids []int32) ([]universe.UniverseName, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeUniverse) GetSystemInfo(ctx context.Context, systemID int32) (*universe.SystemInfoResponse, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeUniverse) GetTypeInfo(ctx context.Context, typeID int32) (*universe.TypeInfoResponse, error) {
	return nil, errors.New("not implemented")
}

type fakeCharacter struct {
	calls        atomic.Int64
	affiliations func(ids []int32) ([]character.CharacterAffiliation, error)
}

func (f *fakeCharacter) GetCharactersAffiliation(ctx context.Context, ids []int32) ([]character.CharacterAffiliation, error) {
	f.calls.Add(1)
	return f.affiliations(ids)
}

type fakeCorporation struct {
	calls atomic.Int64
	info  func(id int32) (*corporation.CorporationInfoResponse, error)
}

func (f *fakeCorporation) GetCorporationInfo(ctx context.Context, id int32) (*corporation.CorporationInfoResponse, error) {
	f.calls.Add(1)
	return f.info(id)
}

type fakeAlliance struct {
	calls atomic.Int64
	info  func(id int32) (*alliance.AllianceInfoResponse, error)
}

func (f *fakeAlliance) GetAllianceInfo(ctx context.Context, id int32) (*alliance.AllianceInfoResponse, error) {
	f.calls.Add(1)
	return f.info(id)
}

func testSettings() config.Settings {
	return config.Settings{
		MaxBulkNames: 100,
		ChunkSize:    50,
		ChunkDelay:   time.Millisecond,
	}
}

func newTestTiered(t *testing.T) *cache.Tiered {
	t.Helper()
	backend, err := cache.NewInMemoryBackend()
	require.NoError(t, err)
	store := cache.NewStore(backend, config.Settings{
		CacheExpiry:      12 * time.Hour,
		LongCacheExpiry:  168 * time.Hour,
		StatsCacheExpiry: 3 * time.Hour,
	})
	t.Cleanup(func() { store.Close() })
	return cache.NewTiered(cache.NewSession(), store)
}

func newTestPipeline(tiered *cache.Tiered, u *fakeUniverse, ch *fakeCharacter, corp *fakeCorporation, al *fakeAlliance) *Pipeline {
	settings := testSettings()
	return &Pipeline{
		tiered:       tiered,
		names:        NewNameResolver(tiered, u, settings),
		affiliations: NewAffiliationResolver(tiered, ch, settings),
		orgs:         NewOrgResolver(tiered, corp, al, settings),
		assembler:    NewAssembler(),
	}
}

func singleCorpFixtures() (*fakeUniverse, *fakeCharacter, *fakeCorporation, *fakeAlliance) {
	u := &fakeUniverse{resolve: func(names []string) (*universe.ResolveNamesResponse, error) {
		return &universe.ResolveNamesResponse{
			Characters: []universe.ResolvedName{{ID: 90000001, Name: "Aideron Robotics"}},
		}, nil
	}}
	ch := &fakeCharacter{affiliations: func(ids []int32) ([]character.CharacterAffiliation, error) {
		return []character.CharacterAffiliation{
			{CharacterID: 90000001, CorporationID: 98000001},
		}, nil
	}}
	corp := &fakeCorporation{info: func(id int32) (*corporation.CorporationInfoResponse, error) {
		return &corporation.CorporationInfoResponse{
			Name:        "Garoun Investment Bank",
			MemberCount: 120,
			WarEligible: true,
		}, nil
	}}
	al := &fakeAlliance{info: func(id int32) (*alliance.AllianceInfoResponse, error) {
		return nil, errors.New("unexpected alliance lookup")
	}}
	return u, ch, corp, al
}

func TestPipelineColdResolve(t *testing.T) {
	u, ch, corp, al := singleCorpFixtures()
	p := newTestPipeline(newTestTiered(t), u, ch, corp, al)

	result, err := p.Run(context.Background(), []string{"Aideron Robotics"})
	require.NoError(t, err)

	require.Len(t, result.Eligible, 1)
	assert.Empty(t, result.Ineligible)
	got := result.Eligible[0]
	assert.Equal(t, int32(90000001), got.ID)
	assert.Equal(t, int32(98000001), got.CorpID)
	assert.Equal(t, "Garoun Investment Bank", got.CorpName)
	assert.True(t, got.WarEligible)
	assert.Nil(t, got.AllianceID)

	// One name chunk, one affiliation chunk, one corp lookup
	assert.Equal(t, int64(3), result.ESILookups)
	assert.Equal(t, int64(0), result.LocalLookups)
}

func TestPipelineWarmResolveSkipsUpstream(t *testing.T) {
	u, ch, corp, al := singleCorpFixtures()
	tiered := newTestTiered(t)
	p := newTestPipeline(tiered, u, ch, corp, al)

	_, err := p.Run(context.Background(), []string{"Aideron Robotics"})
	require.NoError(t, err)

	result, err := p.Run(context.Background(), []string{"Aideron Robotics"})
	require.NoError(t, err)

	assert.Equal(t, int64(0), result.ESILookups)
	assert.Equal(t, int64(3), result.LocalLookups)
	assert.Equal(t, int64(1), u.calls.Load())
	assert.Equal(t, int64(1), ch.calls.Load())
	assert.Equal(t, int64(1), corp.calls.Load())
}

func TestPipelineMissingAffiliationBecomesWarning(t *testing.T) {
	u, ch, corp, al := singleCorpFixtures()
	u.resolve = func(names []string) (*universe.ResolveNamesResponse, error) {
		return &universe.ResolveNamesResponse{
			Characters: []universe.ResolvedName{
				{ID: 90000001, Name: "Aideron Robotics"},
				{ID: 90000002, Name: "Luminaire Pilot"},
			},
		}, nil
	}
	// The bulk response omits the second character
	ch.affiliations = func(ids []int32) ([]character.CharacterAffiliation, error) {
		return []character.CharacterAffiliation{
			{CharacterID: 90000001, CorporationID: 98000001},
		}, nil
	}
	p := newTestPipeline(newTestTiered(t), u, ch, corp, al)

	result, err := p.Run(context.Background(), []string{"Aideron Robotics", "Luminaire Pilot"})
	require.NoError(t, err)

	require.Len(t, result.Warnings, 1)
	warning := result.Warnings[0]
	assert.Equal(t, models.ErrAffiliationMissing, warning.Kind)
	assert.Equal(t, "Luminaire Pilot", warning.Name)
	assert.Equal(t, int32(90000002), warning.ID)

	// The unaffiliated character appears in neither partition
	require.Len(t, result.Eligible, 1)
	assert.Equal(t, int32(90000001), result.Eligible[0].ID)
	assert.Empty(t, result.Ineligible)
	assert.Equal(t, int64(1), corp.calls.Load())
}

func TestPipelineDeduplicatesCaseInsensitively(t *testing.T) {
	u, ch, corp, al := singleCorpFixtures()
	u.resolve = func(names []string) (*universe.ResolveNamesResponse, error) {
		// Dedup happens before the bulk call
		if len(names) != 1 {
			return nil, errors.New("expected a single deduplicated name")
		}
		return &universe.ResolveNamesResponse{
			Characters: []universe.ResolvedName{{ID: 90000002, Name: "CCP Falcon"}},
		}, nil
	}
	ch.affiliations = func(ids []int32) ([]character.CharacterAffiliation, error) {
		return []character.CharacterAffiliation{
			{CharacterID: 90000002, CorporationID: 98000001},
		}, nil
	}
	p := newTestPipeline(newTestTiered(t), u, ch, corp, al)

	result, err := p.Run(context.Background(), []string{"CCP Falcon", "ccp falcon", "CCP Falcon "})
	require.NoError(t, err)

	assert.Equal(t, int64(1), u.calls.Load())
	assert.Equal(t, int64(1), ch.calls.Load())
	assert.Len(t, result.Eligible, 1)
	assert.Equal(t, "CCP Falcon", result.Eligible[0].Name)
}

func TestPipelineRejectsAllInvalidInput(t *testing.T) {
	u, ch, corp, al := singleCorpFixtures()
	p := newTestPipeline(newTestTiered(t), u, ch, corp, al)

	_, err := p.Run(context.Background(), []string{"x"})
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrNoValidNames)
	assert.Equal(t, int64(0), u.calls.Load())
}

func TestPipelineUnknownNameBecomesWarning(t *testing.T) {
	u, ch, corp, al := singleCorpFixtures()
	u.resolve = func(names []string) (*universe.ResolveNamesResponse, error) {
		return &universe.ResolveNamesResponse{}, nil
	}
	p := newTestPipeline(newTestTiered(t), u, ch, corp, al)

	result, err := p.Run(context.Background(), []string{"Nonexistent Pilot"})
	require.NoError(t, err)

	assert.Empty(t, result.Eligible)
	assert.Empty(t, result.Ineligible)
	require.Len(t, result.Warnings, 1)
	assert.Equal(t, models.ErrNameNotFound, result.Warnings[0].Kind)
	assert.Equal(t, "Nonexistent Pilot", result.Warnings[0].Name)
}

func TestPipelineAllChunksFailedIsFatal(t *testing.T) {
	u, ch, corp, al := singleCorpFixtures()
	u.resolve = func(names []string) (*universe.ResolveNamesResponse, error) {
		return nil, errors.New("connection refused")
	}
	p := newTestPipeline(newTestTiered(t), u, ch, corp, al)

	_, err := p.Run(context.Background(), []string{"Aideron Robotics"})
	require.Error(t, err)

	var resolverErr *models.ResolverError
	require.ErrorAs(t, err, &resolverErr)
	assert.Equal(t, models.ErrNetworkError, resolverErr.Kind)
}

func TestPipelineCorpFailureYieldsPlaceholder(t *testing.T) {
	u, ch, corp, al := singleCorpFixtures()
	corp.info = func(id int32) (*corporation.CorporationInfoResponse, error) {
		return nil, errors.New("boom")
	}
	p := newTestPipeline(newTestTiered(t), u, ch, corp, al)

	result, err := p.Run(context.Background(), []string{"Aideron Robotics"})
	require.NoError(t, err)

	require.Len(t, result.Ineligible, 1)
	assert.Equal(t, "Unknown", result.Ineligible[0].CorpName)
	assert.False(t, result.Ineligible[0].WarEligible)

	found := false
	for _, w := range result.Warnings {
		if w.Kind == models.ErrOrganisationLookupFailed {
			found = true
		}
	}
	assert.True(t, found, "expected an organisation lookup warning")
}
