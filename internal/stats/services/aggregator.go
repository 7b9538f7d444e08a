package services

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"go-sentinel/internal/stats/models"
	"go-sentinel/pkg/killboard"
)

const topListLimit = 10

// pochvenSystems are the systems pulled into Triglavian space. Security
// status alone cannot identify them, so classification goes by name.
var pochvenSystems = map[string]bool{
	"Ahtila": true, "Ala": true, "Angymonne": true, "Apanake": true,
	"Archee": true, "Arvasaras": true, "Harva": true, "Ichoriya": true,
	"Ignebaener": true, "Kaunokka": true, "Kino": true, "Komo": true,
	"Konola": true, "Krirald": true, "Kuharah": true, "Nalvula": true,
	"Nani": true, "Niarja": true, "Otanuomi": true, "Otela": true,
	"Raravoss": true, "Sakenta": true, "Senda": true, "Skarkon": true,
	"Tunudan": true, "Urhinichi": true, "Wirashoda": true,
}

type hourWindow struct {
	name  string
	start int
	end   int
}

// Fixed UTC hour windows used to guess an entity's active timezone.
var timezoneWindows = []hourWindow{
	{"Early EUTZ", 14, 18},
	{"Late EUTZ", 19, 23},
	{"Early USTZ", 0, 4},
	{"Late USTZ", 5, 9},
	{"AUTZ", 10, 13},
}

// Aggregate reduces a killmail sample and the raw stats document into one
// StatsBundle. Pure: the same inputs always produce the same output, and the
// killmail slice order does not matter.
func Aggregate(doc *killboard.StatsResponse, killmails []models.Killmail, now time.Time) *models.StatsBundle {
	bundle := &models.StatsBundle{
		Kind:           doc.Kind,
		ID:             int64(doc.ID),
		Name:           doc.Name,
		ShipsDestroyed: doc.ShipsDestroyed,
		ShipsLost:      doc.ShipsLost,
		ISKDestroyed:   doc.ISKDestroyed,
		ISKLost:        doc.ISKLost,
		SoloKills:      doc.SoloKills,
		MemberCount:    int(doc.MemberCount),
		TopShips:       []models.CountEntry{},
		TopSystems:     []models.CountEntry{},
		TopPlayers:     []models.CountEntry{},
		HasData:        len(killmails) > 0,
	}

	bundle.Efficiency = efficiency(doc.ISKDestroyed, doc.ISKLost)
	bundle.DangerRatio = dangerRatio(doc.ShipsDestroyed, doc.ShipsLost)
	bundle.GangRatio = gangRatio(doc.ShipsDestroyed, doc.SoloKills)
	bundle.RecentActivity = recentActivity(doc.Months, now)

	for _, km := range killmails {
		t := km.Time.UTC()
		bundle.Hourly[t.Hour()]++
		bundle.Daily[(int(t.Weekday())+6)%7]++
	}

	bundle.PrimeTime = primeTime(bundle.Hourly)
	bundle.Timezone = timezoneLabel(bundle.Hourly)
	bundle.FleetSize = fleetSize(killmails)
	bundle.SoloVsFleet = soloVsFleet(killmails)
	bundle.TopShips = topShips(killmails)
	bundle.TopSystems = topSystems(killmails)
	bundle.TopPlayers = topPlayers(killmails)
	bundle.SpaceBreakdown = spaceBreakdown(killmails)
	bundle.ActivePlayerCount = activePlayerCount(killmails)

	return bundle
}

// efficiency is the destroyed share of total ISK exchanged, in whole percent
func efficiency(destroyed, lost float64) int {
	if destroyed == 0 && lost == 0 {
		return 0
	}
	if lost == 0 {
		return 100
	}
	return int(math.Round(destroyed / (destroyed + lost) * 100))
}

// dangerRatio is losses per kill, two decimal places. 999 flags an entity
// with losses and no kills at all.
func dangerRatio(kills, losses int) float64 {
	if kills == 0 {
		if losses == 0 {
			return 0
		}
		return 999
	}
	return math.Round(float64(losses)/float64(kills)*100) / 100
}

// gangRatio is the whole-percent share of kills made with company
func gangRatio(kills, soloKills int) int {
	if kills == 0 {
		return 0
	}
	return int(math.Round(float64(kills-soloKills) / float64(kills) * 100))
}

// recentActivity sums month buckets whose start date falls inside each
// trailing window.
func recentActivity(months map[string]killboard.MonthStats, now time.Time) models.RecentActivity {
	window := func(days int) models.ActivityWindow {
		cutoff := now.AddDate(0, 0, -days)
		var w models.ActivityWindow
		for _, m := range months {
			start := time.Date(m.Year, time.Month(m.Month), 1, 0, 0, 0, 0, time.UTC)
			if !start.Before(cutoff) && !start.After(now) {
				w.Kills += m.ShipsDestroyed
				w.Losses += m.ShipsLost
			}
		}
		return w
	}

	return models.RecentActivity{
		Last7Days:  window(7),
		Last30Days: window(30),
		Last90Days: window(90),
	}
}

// primeTime labels the busiest UTC hour. Ties break toward the earlier hour.
func primeTime(hourly [24]int) string {
	best := 0
	for hour := 1; hour < 24; hour++ {
		if hourly[hour] > hourly[best] {
			best = hour
		}
	}
	if hourly[best] == 0 {
		return ""
	}
	return fmt.Sprintf("%02d:00 EVE Time", best)
}

func timezoneLabel(hourly [24]int) string {
	bestName := "Unknown"
	bestSum := 0
	for _, w := range timezoneWindows {
		sum := 0
		for hour := w.start; hour <= w.end; hour++ {
			sum += hourly[hour]
		}
		if sum > bestSum {
			bestSum = sum
			bestName = w.name
		}
	}
	return bestName
}

func fleetSize(killmails []models.Killmail) models.FleetSize {
	if len(killmails) == 0 {
		return models.FleetSize{}
	}

	counts := make([]int, 0, len(killmails))
	total := 0
	max := 0
	for i := range killmails {
		n := killmails[i].AttackerCount()
		counts = append(counts, n)
		total += n
		if n > max {
			max = n
		}
	}
	sort.Ints(counts)

	var median float64
	mid := len(counts) / 2
	if len(counts)%2 == 1 {
		median = float64(counts[mid])
	} else {
		median = float64(counts[mid-1]+counts[mid]) / 2
	}

	return models.FleetSize{
		Average: math.Round(float64(total)/float64(len(counts))*100) / 100,
		Median:  median,
		Max:     max,
	}
}

func soloVsFleet(killmails []models.Killmail) models.SoloVsFleet {
	if len(killmails) == 0 {
		return models.SoloVsFleet{}
	}

	var solo, smallGang, fleet int
	for i := range killmails {
		switch n := killmails[i].AttackerCount(); {
		case n == 1:
			solo++
		case n <= 5:
			smallGang++
		default:
			fleet++
		}
	}

	return models.SoloVsFleet{
		Solo:      percent(solo, len(killmails)),
		SmallGang: percent(smallGang, len(killmails)),
		Fleet:     percent(fleet, len(killmails)),
	}
}

// percent rounds to whole percentage points
func percent(part, total int) float64 {
	return math.Round(float64(part) / float64(total) * 100)
}

func topShips(killmails []models.Killmail) []models.CountEntry {
	counts := make(map[int64]*models.CountEntry)
	for i := range killmails {
		km := &killmails[i]
		bump(counts, int64(km.VictimShipTypeID), km.VictimShipName)
	}
	return topN(counts)
}

func topSystems(killmails []models.Killmail) []models.CountEntry {
	counts := make(map[int64]*models.CountEntry)
	for i := range killmails {
		km := &killmails[i]
		bump(counts, int64(km.SystemID), km.SystemName)
	}
	return topN(counts)
}

func topPlayers(killmails []models.Killmail) []models.CountEntry {
	counts := make(map[int64]*models.CountEntry)
	for i := range killmails {
		for _, a := range killmails[i].Attackers {
			if a.CharacterID == 0 {
				continue
			}
			bump(counts, int64(a.CharacterID), a.Name)
		}
	}
	return topN(counts)
}

func bump(counts map[int64]*models.CountEntry, id int64, name string) {
	if e, ok := counts[id]; ok {
		e.Count++
		return
	}
	counts[id] = &models.CountEntry{ID: id, Name: name, Count: 1}
}

// topN sorts by count descending with name then id tiebreaks and caps the
// list at ten entries.
func topN(counts map[int64]*models.CountEntry) []models.CountEntry {
	entries := make([]models.CountEntry, 0, len(counts))
	for _, e := range counts {
		entries = append(entries, *e)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Count != entries[j].Count {
			return entries[i].Count > entries[j].Count
		}
		if entries[i].Name != entries[j].Name {
			return entries[i].Name < entries[j].Name
		}
		return entries[i].ID < entries[j].ID
	})
	if len(entries) > topListLimit {
		entries = entries[:topListLimit]
	}
	return entries
}

// classifySpace buckets one system. Pochven and wormhole checks come first
// since their security values overlap nullsec.
func classifySpace(name string, security float64) string {
	switch {
	case pochvenSystems[name]:
		return "pochven"
	case isWormholeSystem(name, security):
		return "wspace"
	case security >= 0.5:
		return "highsec"
	case security > 0.0:
		return "lowsec"
	default:
		return "nullsec"
	}
}

func isWormholeSystem(name string, security float64) bool {
	if name == "Thera" {
		return true
	}
	return len(name) == 7 && strings.HasPrefix(name, "J") && security < -0.99
}

func spaceBreakdown(killmails []models.Killmail) models.SpaceBreakdown {
	if len(killmails) == 0 {
		return models.SpaceBreakdown{}
	}

	buckets := make(map[string]int)
	for i := range killmails {
		km := &killmails[i]
		buckets[classifySpace(km.SystemName, km.SystemSecurity)]++
	}

	total := len(killmails)
	return models.SpaceBreakdown{
		Highsec: percent(buckets["highsec"], total),
		Lowsec:  percent(buckets["lowsec"], total),
		Nullsec: percent(buckets["nullsec"], total),
		Pochven: percent(buckets["pochven"], total),
		WSpace:  percent(buckets["wspace"], total),
	}
}

// activePlayerCount is the number of distinct attacker characters seen in
// the sample.
func activePlayerCount(killmails []models.Killmail) int {
	seen := make(map[int32]bool)
	for i := range killmails {
		for _, a := range killmails[i].Attackers {
			if a.CharacterID != 0 {
				seen[a.CharacterID] = true
			}
		}
	}
	return len(seen)
}
