package killboard

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go-sentinel/pkg/config"
)

// EntityKind selects the stats query parameter.
type EntityKind string

const (
	EntityCharacter   EntityKind = "character"
	EntityCorporation EntityKind = "corporation"
	EntityAlliance    EntityKind = "alliance"
)

// MonthStats is one month bucket of the raw stats document.
type MonthStats struct {
	Year           int `json:"year"`
	Month          int `json:"month"`
	ShipsDestroyed int `json:"shipsDestroyed"`
	ShipsLost      int `json:"shipsLost"`
}

// StatsResponse is the raw stats document returned by the killboard backend.
type StatsResponse struct {
	ID                int32                 `json:"id"`
	Kind              string                `json:"type"`
	Name              string                `json:"name,omitempty"`
	ShipsDestroyed    int                   `json:"shipsDestroyed"`
	ShipsLost         int                   `json:"shipsLost"`
	ISKDestroyed      float64               `json:"iskDestroyed"`
	ISKLost           float64               `json:"iskLost"`
	SoloKills         int                   `json:"soloKills"`
	MemberCount       int32                 `json:"memberCount,omitempty"`
	Months            map[string]MonthStats `json:"months,omitempty"`
	RecentKillmailIDs []int64               `json:"recentKillmailIds,omitempty"`
}

// Victim is the destroyed party of a killmail.
type Victim struct {
	CharacterID int32 `json:"character_id,omitempty"`
	ShipTypeID  int32 `json:"ship_type_id"`
}

// Attacker is one participant on the killing side.
type Attacker struct {
	CharacterID int32 `json:"character_id,omitempty"`
	ShipTypeID  int32 `json:"ship_type_id,omitempty"`
	FinalBlow   bool  `json:"final_blow"`
}

// ZKBMetadata carries killboard-derived valuation.
type ZKBMetadata struct {
	TotalValue float64 `json:"totalValue"`
}

// Killmail is the canonical combat event record.
type Killmail struct {
	KillmailID    int64       `json:"killmail_id"`
	KillmailTime  time.Time   `json:"killmail_time"`
	SolarSystemID int32       `json:"solar_system_id"`
	Victim        Victim      `json:"victim"`
	Attackers     []Attacker  `json:"attackers"`
	ZKB           ZKBMetadata `json:"zkb"`
}

// Client talks to the killboard stats backend. Stats requests are authorised
// by proof of work and serialised through the scheduler; killmail body
// fetches are paced by the caller.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	userAgent      string
	scheduler      *Scheduler
	difficultyBits int
}

// NewClient creates a killboard client around a started scheduler.
func NewClient(scheduler *Scheduler, settings config.Settings) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: settings.StatsRequestTimeout,
		},
		baseURL:        config.GetEnv("KILLBOARD_BASE_URL", "https://stats.example.org"),
		userAgent:      config.GetEnv("ESI_USER_AGENT", "go-sentinel/1.0.0 contact@example.com"),
		scheduler:      scheduler,
		difficultyBits: settings.PowDifficultyBits,
	}
}

// GetEntityStats fetches the raw stats document for one entity. The call is
// queued on the scheduler; a fresh proof of work is generated per dispatch
// so the timestamp stays within the verifier's skew window.
func (c *Client) GetEntityStats(ctx context.Context, kind EntityKind, id int32) (*StatsResponse, error) {
	value, err := c.scheduler.Schedule(ctx, func(attemptCtx context.Context) (any, error) {
		proof, err := GenerateProof(attemptCtx, id, c.difficultyBits)
		if err != nil {
			return nil, err
		}
		return c.fetchStats(attemptCtx, kind, id, proof)
	})
	if err != nil {
		return nil, err
	}
	return value.(*StatsResponse), nil
}

func (c *Client) fetchStats(ctx context.Context, kind EntityKind, id int32, proof *ProofOfWork) (*StatsResponse, error) {
	params := url.Values{}
	params.Set(string(kind), fmt.Sprintf("%d", id))
	params.Set("nonce", fmt.Sprintf("%d", proof.Nonce))
	params.Set("hash", proof.Hash)
	params.Set("ts", fmt.Sprintf("%d", proof.Timestamp))

	reqURL := fmt.Sprintf("%s/stats?%s", c.baseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusForbidden, http.StatusUnauthorized:
		return nil, ErrProofOfWorkRejected
	default:
		return nil, &StatusError{Code: resp.StatusCode}
	}

	var stats StatsResponse
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		return nil, fmt.Errorf("failed to decode stats response: %w", err)
	}
	return &stats, nil
}

// GetKillmail fetches one canonical killmail record by id.
func (c *Client) GetKillmail(ctx context.Context, killmailID int64) (*Killmail, error) {
	reqURL := fmt.Sprintf("%s/killmails/%d", c.baseURL, killmailID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Code: resp.StatusCode}
	}

	var km Killmail
	if err := json.NewDecoder(resp.Body).Decode(&km); err != nil {
		return nil, fmt.Errorf("failed to decode killmail: %w", err)
	}
	return &km, nil
}
