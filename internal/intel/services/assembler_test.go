package services

import (
	"testing"

	"go-sentinel/internal/intel/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func int32Ptr(v int32) *int32 { return &v }

func TestAssemblePartitionIsStable(t *testing.T) {
	resolved := []models.ResolvedName{
		{ID: 1, Name: "Alpha"},
		{ID: 2, Name: "Bravo"},
		{ID: 3, Name: "Charlie"},
		{ID: 4, Name: "Delta"},
	}
	affiliations := map[int32]models.Affiliation{
		1: {CharacterID: 1, CorpID: 100},
		2: {CharacterID: 2, CorpID: 200},
		3: {CharacterID: 3, CorpID: 100},
		4: {CharacterID: 4, CorpID: 200},
	}
	orgs := &OrgSet{
		Corporations: map[int32]models.Organisation{
			100: {ID: 100, Kind: models.OrgKindCorporation, Name: "War Corp", WarEligible: true},
			200: {ID: 200, Kind: models.OrgKindCorporation, Name: "Safe Corp", WarEligible: false},
		},
		Alliances: map[int32]models.Organisation{},
	}

	result := NewAssembler().Assemble(resolved, affiliations, orgs)

	// Eligible first, input order preserved within each partition
	require.Len(t, result.Eligible, 2)
	require.Len(t, result.Ineligible, 2)
	assert.Equal(t, "Alpha", result.Eligible[0].Name)
	assert.Equal(t, "Charlie", result.Eligible[1].Name)
	assert.Equal(t, "Bravo", result.Ineligible[0].Name)
	assert.Equal(t, "Delta", result.Ineligible[1].Name)
}

func TestAssembleAllianceComesFromCorpRecord(t *testing.T) {
	resolved := []models.ResolvedName{{ID: 1, Name: "Alpha"}}
	affiliations := map[int32]models.Affiliation{
		// Affiliation carries a stale alliance; the corp record wins
		1: {CharacterID: 1, CorpID: 100, AllianceID: int32Ptr(888)},
	}
	orgs := &OrgSet{
		Corporations: map[int32]models.Organisation{
			100: {ID: 100, Kind: models.OrgKindCorporation, Name: "War Corp", WarEligible: true, AllianceID: int32Ptr(999)},
		},
		Alliances: map[int32]models.Organisation{
			999: {ID: 999, Kind: models.OrgKindAlliance, Name: "Big Bloc"},
		},
	}

	result := NewAssembler().Assemble(resolved, affiliations, orgs)

	require.Len(t, result.Eligible, 1)
	require.NotNil(t, result.Eligible[0].AllianceID)
	assert.Equal(t, int32(999), *result.Eligible[0].AllianceID)
	assert.Equal(t, "Big Bloc", result.Eligible[0].AllianceName)
}

func TestAssembleTopOrgsCountEligibleOnly(t *testing.T) {
	resolved := []models.ResolvedName{
		{ID: 1, Name: "Alpha"},
		{ID: 2, Name: "Bravo"},
		{ID: 3, Name: "Charlie"},
		{ID: 4, Name: "Delta"},
	}
	affiliations := map[int32]models.Affiliation{
		1: {CharacterID: 1, CorpID: 100},
		2: {CharacterID: 2, CorpID: 100},
		3: {CharacterID: 3, CorpID: 300},
		4: {CharacterID: 4, CorpID: 200},
	}
	orgs := &OrgSet{
		Corporations: map[int32]models.Organisation{
			100: {ID: 100, Kind: models.OrgKindCorporation, Name: "War Corp", WarEligible: true, AllianceID: int32Ptr(999)},
			200: {ID: 200, Kind: models.OrgKindCorporation, Name: "Safe Corp", WarEligible: false},
			300: {ID: 300, Kind: models.OrgKindCorporation, Name: "Another War Corp", WarEligible: true, AllianceID: int32Ptr(999)},
		},
		Alliances: map[int32]models.Organisation{
			999: {ID: 999, Kind: models.OrgKindAlliance, Name: "Big Bloc"},
		},
	}

	result := NewAssembler().Assemble(resolved, affiliations, orgs)

	require.Len(t, result.TopCorps, 2)
	assert.Equal(t, int32(100), result.TopCorps[0].ID)
	assert.Equal(t, 2, result.TopCorps[0].Count)
	assert.Equal(t, int32(300), result.TopCorps[1].ID)
	assert.Equal(t, 1, result.TopCorps[1].Count)

	require.Len(t, result.TopAlliances, 1)
	assert.Equal(t, int32(999), result.TopAlliances[0].ID)
	assert.Equal(t, 3, result.TopAlliances[0].Count)
	assert.Equal(t, "Big Bloc", result.TopAlliances[0].Name)
}

func TestAssembleSkipsCharactersWithoutAffiliation(t *testing.T) {
	resolved := []models.ResolvedName{
		{ID: 1, Name: "Alpha"},
		{ID: 2, Name: "Bravo"},
	}
	affiliations := map[int32]models.Affiliation{
		1: {CharacterID: 1, CorpID: 100},
	}
	orgs := &OrgSet{
		Corporations: map[int32]models.Organisation{
			100: {ID: 100, Kind: models.OrgKindCorporation, Name: "War Corp", WarEligible: true},
		},
		Alliances: map[int32]models.Organisation{},
	}

	result := NewAssembler().Assemble(resolved, affiliations, orgs)
	assert.Len(t, result.Eligible, 1)
	assert.Empty(t, result.Ineligible)
}
