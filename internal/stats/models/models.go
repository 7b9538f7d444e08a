package models

import "time"

// Attacker is one attacking character on a killmail. Name is filled during
// enrichment so aggregation never has to reach back to ESI.
type Attacker struct {
	CharacterID int32  `json:"character_id"`
	Name        string `json:"name,omitempty"`
}

// Killmail is the enriched kill record the aggregator consumes. System and
// ship names are resolved before aggregation; the aggregator itself is a pure
// function of this slice.
type Killmail struct {
	ID               int64      `json:"id"`
	Time             time.Time  `json:"time"`
	SystemID         int32      `json:"system_id"`
	SystemName       string     `json:"system_name"`
	SystemSecurity   float64    `json:"system_security"`
	VictimShipTypeID int32      `json:"victim_ship_type_id"`
	VictimShipName   string     `json:"victim_ship_name"`
	ISKValue         float64    `json:"isk_value"`
	Attackers        []Attacker `json:"attackers"`
}

// AttackerCount reports the number of attackers on the kill
func (k *Killmail) AttackerCount() int {
	return len(k.Attackers)
}

// CountEntry is one row of a top-N rollup
type CountEntry struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// FleetSize summarises attacker counts across the sample
type FleetSize struct {
	Average float64 `json:"average"`
	Median  float64 `json:"median"`
	Max     int     `json:"max"`
}

// SoloVsFleet gives engagement size percentages: solo (1 attacker),
// small gang (2 to 5) and fleet (6 or more).
type SoloVsFleet struct {
	Solo      float64 `json:"solo"`
	SmallGang float64 `json:"small_gang"`
	Fleet     float64 `json:"fleet"`
}

// SpaceBreakdown gives kill percentages per space category
type SpaceBreakdown struct {
	Highsec float64 `json:"highsec"`
	Lowsec  float64 `json:"lowsec"`
	Nullsec float64 `json:"nullsec"`
	Pochven float64 `json:"pochven"`
	WSpace  float64 `json:"wspace"`
}

// ActivityWindow is the kill/loss sum over one trailing window
type ActivityWindow struct {
	Kills  int `json:"kills"`
	Losses int `json:"losses"`
}

// RecentActivity rolls month buckets up into trailing windows
type RecentActivity struct {
	Last7Days  ActivityWindow `json:"last_7_days"`
	Last30Days ActivityWindow `json:"last_30_days"`
	Last90Days ActivityWindow `json:"last_90_days"`
}

// RiskLevel is the working threat scale
type RiskLevel string

const (
	RiskMinimal  RiskLevel = "Minimal"
	RiskLow      RiskLevel = "Low"
	RiskModerate RiskLevel = "Moderate"
	RiskHigh     RiskLevel = "High"
)

// ThreatBucket is the coarse presentation bucket
type ThreatBucket string

const (
	BucketLow      ThreatBucket = "low"
	BucketModerate ThreatBucket = "moderate"
	BucketHigh     ThreatBucket = "high"
)

// Threat is the scored risk assessment for one entity
type Threat struct {
	Base              RiskLevel    `json:"base"`
	Level             RiskLevel    `json:"level"`
	Bucket            ThreatBucket `json:"bucket"`
	ParticipationRate float64      `json:"participation_rate"`
}

// StatsBundle is the full drill-down output for one entity: killboard
// document totals, killmail-derived histograms and the threat score.
type StatsBundle struct {
	Kind string `json:"kind"`
	ID   int64  `json:"id"`
	Name string `json:"name"`

	ShipsDestroyed int     `json:"ships_destroyed"`
	ShipsLost      int     `json:"ships_lost"`
	ISKDestroyed   float64 `json:"isk_destroyed"`
	ISKLost        float64 `json:"isk_lost"`
	SoloKills      int     `json:"solo_kills"`
	MemberCount    int     `json:"member_count,omitempty"`

	Hourly         [24]int        `json:"hourly"`
	Daily          [7]int         `json:"daily"`
	PrimeTime      string         `json:"prime_time"`
	Timezone       string         `json:"timezone"`
	FleetSize      FleetSize      `json:"fleet_size"`
	SoloVsFleet    SoloVsFleet    `json:"solo_vs_fleet"`
	TopShips       []CountEntry   `json:"top_ships"`
	TopSystems     []CountEntry   `json:"top_systems"`
	TopPlayers     []CountEntry   `json:"top_players"`
	SpaceBreakdown SpaceBreakdown `json:"space_breakdown"`

	Efficiency  int     `json:"efficiency"`
	DangerRatio float64 `json:"danger_ratio"`
	GangRatio   int     `json:"gang_ratio"`

	RecentActivity    RecentActivity `json:"recent_activity"`
	ActivePlayerCount int            `json:"active_player_count"`
	HasData           bool           `json:"has_data"`

	Threat Threat `json:"threat"`
}

// HistoryEntry is one prior drill-down on the navigation stack
type HistoryEntry struct {
	Kind string `json:"kind"`
	ID   int64  `json:"id"`
	Name string `json:"name"`
}
