package domain

// ScanResult is the outcome of one expiry scan for one user.
type ScanResult struct {
	// UserID is the scanned user.
	UserID string `json:"user_id"`
	// ReferenceDay is the calendar day treated as "today" (YYYY-MM-DD).
	ReferenceDay string `json:"reference_day,omitempty"`
	// Notices holds vitamin notices first, then medication notices, each in source order.
	Notices []ExpiryNotice `json:"notices"`
	// Skipped is true when no scan was performed because the user id was missing.
	Skipped bool `json:"skipped"`
	// Cached is true when the notices were served from the notice cache.
	Cached bool `json:"cached"`
}

// HasNotices reports whether the caller should show the reminder at all.
func (r *ScanResult) HasNotices() bool {
	return r != nil && len(r.Notices) > 0
}
