package dto

import (
	"time"

	"go-sentinel/internal/intel/models"
)

// ResolveNamesResponse is the assembled eligibility report for one pass
type ResolveNamesResponse struct {
	QueryID      string              `json:"query_id" doc:"Correlation ID for this resolution pass"`
	Eligible     []models.Character  `json:"eligible" doc:"War-eligible characters in input order"`
	Ineligible   []models.Character  `json:"ineligible" doc:"War-ineligible characters in input order"`
	TopCorps     []models.OrgSummary `json:"top_corporations" doc:"Corporations ranked by eligible member count"`
	TopAlliances []models.OrgSummary `json:"top_alliances" doc:"Alliances ranked by eligible member count"`
	Warnings     []models.Warning    `json:"warnings,omitempty" doc:"Per-name problems that did not abort the pass"`
	ESILookups   int64               `json:"esi_lookups" doc:"Upstream ESI requests made during this pass"`
	LocalLookups int64               `json:"local_lookups" doc:"Lookups served from the session cache"`
}

// ResolveNamesOutput represents a name resolution response (Huma wrapper)
type ResolveNamesOutput struct {
	Body ResolveNamesResponse
}

// StatusResponse reports intel module health and query activity
type StatusResponse struct {
	Module      string     `json:"module"`
	Status      string     `json:"status"`
	QueryCount  int64      `json:"query_count"`
	LastQueryID string     `json:"last_query_id,omitempty"`
	LastQueryAt *time.Time `json:"last_query_at,omitempty"`
}

// StatusOutput represents a module status response (Huma wrapper)
type StatusOutput struct {
	Body StatusResponse
}
