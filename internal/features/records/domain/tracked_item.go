package domain

import (
	"strings"
	"time"
)

// ItemType identifies which list a tracked item comes from.
type ItemType string

const (
	// ItemTypeVitamin marks a record from the user's vitamins list.
	ItemTypeVitamin ItemType = "Vitamin"
	// ItemTypeMedication marks a record from the user's medications list.
	ItemTypeMedication ItemType = "Medication"
)

// TrackedItem is a vitamin or medication belonging to a user.
type TrackedItem struct {
	// Name is the display name of the item.
	Name string `json:"name"`
	// Type is the list the item was read from.
	Type ItemType `json:"item_type"`
	// ExpirationDate is nil when the record carries no usable date.
	ExpirationDate *time.Time `json:"expiration_date,omitempty"`
}

// expirationLayouts are tried in order for values without an explicit offset.
var expirationLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
}

// dateOnlyLayout values are anchored at noon so a DST gap at midnight cannot move them to the
// previous day.
const dateOnlyLayout = "2006-01-02"

// ParseExpirationDate converts an ISO-8601 date or date-time into a time.
// Values carrying an offset keep it; values without one are read in loc.
// It reports false for empty or unparseable input.
func ParseExpirationDate(raw string, loc *time.Location) (*time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "null" {
		return nil, false
	}
	if loc == nil {
		loc = time.Local
	}

	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return &t, true
	}

	for _, layout := range expirationLayouts {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return &t, true
		}
	}

	if d, err := time.Parse(dateOnlyLayout, raw); err == nil {
		y, m, day := d.Date()
		t := time.Date(y, m, day, 12, 0, 0, 0, loc)
		return &t, true
	}

	return nil, false
}
