package domain

import (
	"fmt"
	"time"

	records "expiry-scanner/internal/features/records/domain"
)

// When tells on which day relative to the reference instant an item expires.
type When string

const (
	// WhenToday marks items expiring on the reference day.
	WhenToday When = "today"
	// WhenTomorrow marks items expiring on the day after the reference day.
	WhenTomorrow When = "tomorrow"
)

// DayLayout formats calendar days in scan results and cache keys.
const DayLayout = "2006-01-02"

// ExpiryNotice reports a tracked item that expires today or tomorrow.
type ExpiryNotice struct {
	// Name is the display name of the item.
	Name string `json:"name"`
	// ItemType is Vitamin or Medication.
	ItemType records.ItemType `json:"item_type"`
	// When is "today" or "tomorrow".
	When When `json:"when"`
}

// Message renders the notice the way the dashboard reminder shows it.
func (n ExpiryNotice) Message() string {
	return fmt.Sprintf("%s \"%s\" will expire %s.", n.ItemType, n.Name, n.When)
}

// DayOf formats the calendar day of t in loc using DayLayout.
func DayOf(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format(DayLayout)
}

// NextDayOf formats the calendar day after the one t falls on in loc.
// Noon is used because it never falls in a DST gap.
func NextDayOf(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d+1, 12, 0, 0, 0, loc).Format(DayLayout)
}

// Evaluate returns one notice per item whose expiration day is the reference day or the one
// after it, keeping the order of items. Items without an expiration date are ignored.
func Evaluate(items []records.TrackedItem, reference time.Time, loc *time.Location) []ExpiryNotice {
	today := DayOf(reference, loc)
	tomorrow := NextDayOf(reference, loc)

	var notices []ExpiryNotice
	for _, item := range items {
		if item.ExpirationDate == nil {
			continue
		}

		var when When
		switch DayOf(*item.ExpirationDate, loc) {
		case today:
			when = WhenToday
		case tomorrow:
			when = WhenTomorrow
		default:
			continue
		}

		notices = append(notices, ExpiryNotice{
			Name:     item.Name,
			ItemType: item.Type,
			When:     when,
		})
	}
	return notices
}
