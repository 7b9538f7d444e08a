package models

// OrgKind distinguishes corporation and alliance records
type OrgKind string

const (
	OrgKindCorporation OrgKind = "corporation"
	OrgKindAlliance    OrgKind = "alliance"
)

// ResolvedName is a validated name with its character ID and the canonical
// casing returned by ESI.
type ResolvedName struct {
	ID   int32  `json:"id"`
	Name string `json:"name"`
}

// Affiliation is a character's current corporation and optional alliance.
// Mutable upstream, treated as immutable within its cache TTL.
type Affiliation struct {
	CharacterID int32  `json:"character_id"`
	CorpID      int32  `json:"corporation_id"`
	AllianceID  *int32 `json:"alliance_id,omitempty"`
}

// Organisation is a corporation or alliance record
type Organisation struct {
	ID          int32   `json:"id"`
	Kind        OrgKind `json:"kind"`
	Name        string  `json:"name"`
	MemberCount int32   `json:"member_count,omitempty"`
	WarEligible bool    `json:"war_eligible"`
	AllianceID  *int32  `json:"alliance_id,omitempty"`
}

// Character is the fully joined output row. Derived, never authoritative.
type Character struct {
	ID           int32  `json:"id"`
	Name         string `json:"name"`
	CorpID       int32  `json:"corporation_id"`
	CorpName     string `json:"corporation_name"`
	AllianceID   *int32 `json:"alliance_id,omitempty"`
	AllianceName string `json:"alliance_name,omitempty"`
	WarEligible  bool   `json:"war_eligible"`
}

// OrgSummary is one entry of the top-N corp/alliance rollup
type OrgSummary struct {
	ID          int32  `json:"id"`
	Name        string `json:"name"`
	Count       int    `json:"count"`
	WarEligible bool   `json:"war_eligible"`
}

// Result is the output of one resolver pipeline pass
type Result struct {
	Eligible     []Character  `json:"eligible"`
	Ineligible   []Character  `json:"ineligible"`
	TopCorps     []OrgSummary `json:"top_corporations"`
	TopAlliances []OrgSummary `json:"top_alliances"`
	Warnings     []Warning    `json:"warnings,omitempty"`
	ESILookups   int64        `json:"esi_lookups"`
	LocalLookups int64        `json:"local_lookups"`
}
