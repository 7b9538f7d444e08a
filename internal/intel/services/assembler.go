package services

import (
	"sort"

	"go-sentinel/internal/intel/models"
)

// Assembler joins resolver outputs into flat character records and the
// war-eligibility partition.
type Assembler struct{}

// NewAssembler creates an assembler
func NewAssembler() *Assembler {
	return &Assembler{}
}

const topOrgLimit = 10

// Assemble joins each resolved character with its affiliation and org
// metadata. WarEligible comes from the corporation record only; the alliance
// id is taken from the corporation so the two sources agree within a pass.
// Characters without an affiliation are skipped (already warned upstream).
func (a *Assembler) Assemble(resolved []models.ResolvedName, affiliations map[int32]models.Affiliation, orgs *OrgSet) *models.Result {
	characters := make([]models.Character, 0, len(resolved))

	for _, rc := range resolved {
		aff, ok := affiliations[rc.ID]
		if !ok {
			continue
		}

		corp, ok := orgs.Corporations[aff.CorpID]
		if !ok {
			corp = placeholderOrg(aff.CorpID, models.OrgKindCorporation)
		}

		ch := models.Character{
			ID:          rc.ID,
			Name:        rc.Name,
			CorpID:      aff.CorpID,
			CorpName:    corp.Name,
			WarEligible: corp.WarEligible,
		}

		if corp.AllianceID != nil {
			allianceID := *corp.AllianceID
			ch.AllianceID = &allianceID
			if alliance, ok := orgs.Alliances[allianceID]; ok {
				ch.AllianceName = alliance.Name
			}
		}

		characters = append(characters, ch)
	}

	result := &models.Result{
		Eligible:   make([]models.Character, 0, len(characters)),
		Ineligible: make([]models.Character, 0),
	}

	// Stable partition: warEligible descending, input order within each half
	for _, ch := range characters {
		if ch.WarEligible {
			result.Eligible = append(result.Eligible, ch)
		} else {
			result.Ineligible = append(result.Ineligible, ch)
		}
	}

	result.TopCorps = a.topOrgs(result.Eligible, orgs, false)
	result.TopAlliances = a.topOrgs(result.Eligible, orgs, true)

	return result
}

// topOrgs ranks corps or alliances by eligible-member count
func (a *Assembler) topOrgs(eligible []models.Character, orgs *OrgSet, byAlliance bool) []models.OrgSummary {
	counts := make(map[int32]int)
	for _, ch := range eligible {
		if byAlliance {
			if ch.AllianceID != nil {
				counts[*ch.AllianceID]++
			}
		} else {
			counts[ch.CorpID]++
		}
	}

	summaries := make([]models.OrgSummary, 0, len(counts))
	for id, count := range counts {
		summary := models.OrgSummary{ID: id, Count: count}
		if byAlliance {
			if org, ok := orgs.Alliances[id]; ok {
				summary.Name = org.Name
				summary.WarEligible = true
			}
		} else {
			if org, ok := orgs.Corporations[id]; ok {
				summary.Name = org.Name
				summary.WarEligible = org.WarEligible
			}
		}
		summaries = append(summaries, summary)
	}

	sort.SliceStable(summaries, func(i, j int) bool {
		if summaries[i].Count != summaries[j].Count {
			return summaries[i].Count > summaries[j].Count
		}
		return summaries[i].Name < summaries[j].Name
	})

	if len(summaries) > topOrgLimit {
		summaries = summaries[:topOrgLimit]
	}
	return summaries
}
