package services

import (
	"math"

	"go-sentinel/internal/stats/models"
)

// dominanceThreshold is the space share, in percent, that counts as dominant
// for the base risk classification.
const dominanceThreshold = 50.0

// ScoreThreat derives the risk classification from the space breakdown and
// the participation rate of the organisation's members in the sample.
func ScoreThreat(bundle *models.StatsBundle) models.Threat {
	base := baseRisk(bundle.SpaceBreakdown)
	level := base

	threat := models.Threat{Base: base}

	if bundle.MemberCount > 0 && bundle.ActivePlayerCount > 0 {
		p := float64(bundle.ActivePlayerCount) / float64(bundle.MemberCount)
		threat.ParticipationRate = math.Round(p*1000) / 1000
		level = adjustForParticipation(level, p)
	}

	threat.Level = level
	threat.Bucket = bucket(level)
	return threat
}

// baseRisk reads the entity's hunting grounds: null and wormhole space
// dominance means an aggressive profile, highsec dominance a passive one.
func baseRisk(space models.SpaceBreakdown) models.RiskLevel {
	switch {
	case space.Nullsec+space.WSpace >= dominanceThreshold:
		return models.RiskHigh
	case space.Highsec >= dominanceThreshold:
		return models.RiskLow
	default:
		return models.RiskModerate
	}
}

func adjustForParticipation(level models.RiskLevel, p float64) models.RiskLevel {
	switch {
	case p < 0.01:
		return models.RiskMinimal
	case p < 0.05:
		if level == models.RiskHigh || level == models.RiskModerate {
			return models.RiskLow
		}
		return level
	case p < 0.15:
		if level == models.RiskHigh {
			return models.RiskModerate
		}
		return level
	case p >= 0.40:
		switch level {
		case models.RiskLow:
			return models.RiskModerate
		case models.RiskModerate:
			return models.RiskHigh
		}
		return level
	default:
		return level
	}
}

func bucket(level models.RiskLevel) models.ThreatBucket {
	switch level {
	case models.RiskHigh:
		return models.BucketHigh
	case models.RiskModerate:
		return models.BucketModerate
	default:
		return models.BucketLow
	}
}
