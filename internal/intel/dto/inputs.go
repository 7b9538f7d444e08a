package dto

// ResolveNamesRequest carries the pasted pilot names, one entry per line of
// the original paste.
type ResolveNamesRequest struct {
	Names []string `json:"names" minItems:"1" maxItems:"500" doc:"Pilot names to resolve, one per entry" example:"[\"CCP Falcon\"]" validate:"required,min=1,max=500"`
}

// ResolveNamesInput represents the input for a name resolution pass
type ResolveNamesInput struct {
	Body ResolveNamesRequest
}
