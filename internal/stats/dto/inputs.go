package dto

// GetStatsInput represents the input for an entity drill-down
type GetStatsInput struct {
	Kind string `path:"kind" enum:"character,corporation,alliance" doc:"Entity kind to load statistics for"`
	ID   int64  `path:"id" minimum:"1" maximum:"2147483647" doc:"Entity ID" example:"98356193"`
	Name string `query:"name" maxLength:"100" doc:"Display name fallback when the killboard omits one"`
}
