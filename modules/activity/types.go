package activity

import "context"

// RecentActivityRequest asks for the caller's latest entries.
type RecentActivityRequest struct {
	CallerID string `json:"caller_id"`
	Limit    int    `json:"limit,omitempty"`
}

// RecentActivityResponse lists entries newest first.
type RecentActivityResponse struct {
	Entries []Entry `json:"entries"`
	Total   int     `json:"total"`
}

// ActivityPort is used by driving adapters to read a user's feed.
type ActivityPort interface {
	RecentActivity(ctx context.Context, callerID string, limit int) (*RecentActivityResponse, error)
}
