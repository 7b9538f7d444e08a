package dto

import "go-sentinel/internal/stats/models"

// StatsOutput represents a stats drill-down response (Huma wrapper)
type StatsOutput struct {
	Body models.StatsBundle
}

// BackResponse is the result of popping the navigation stack
type BackResponse struct {
	Popped bool                `json:"popped" doc:"Whether a prior entry existed to go back to"`
	Stats  *models.StatsBundle `json:"stats,omitempty" doc:"The reloaded prior entity, when one existed"`
}

// BackOutput represents a back-navigation response (Huma wrapper)
type BackOutput struct {
	Body BackResponse
}

// HistoryResponse lists the navigation stack, most recent last
type HistoryResponse struct {
	Entries []models.HistoryEntry `json:"entries"`
}

// HistoryOutput represents a navigation history response (Huma wrapper)
type HistoryOutput struct {
	Body HistoryResponse
}

// StatusResponse reports stats module health and lifecycle state
type StatusResponse struct {
	Module string `json:"module"`
	Status string `json:"status"`
	State  string `json:"state"`
}

// StatusOutput represents a module status response (Huma wrapper)
type StatusOutput struct {
	Body StatusResponse
}
