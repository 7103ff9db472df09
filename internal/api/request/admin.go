package request

// RebuildRequest is the request body for a full materialized-history rebuild.
// Force bypasses the coverage check and rewrites every row.
type RebuildRequest struct {
	Force bool `json:"force"`
}
