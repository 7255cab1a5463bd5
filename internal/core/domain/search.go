package domain

import "time"

// DefaultSearchLimit is used when SearchOptions.Limit is not positive.
const DefaultSearchLimit = 50

// RecentWindow is how far behind the newest part a part may have been added
// and still count as recent.
const RecentWindow = 15 * time.Minute

// SearchOptions configures a catalog query.
type SearchOptions struct {
	// Limit is the maximum number of results.
	Limit int

	// CategoryID filters to a single category. Zero means all categories.
	CategoryID int

	// IncludeStale includes parts missing from the latest feed.
	IncludeStale bool
}

// EffectiveLimit returns Limit, or DefaultSearchLimit when Limit is not set.
func (o SearchOptions) EffectiveLimit() int {
	if o.Limit <= 0 {
		return DefaultSearchLimit
	}
	return o.Limit
}
