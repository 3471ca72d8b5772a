package domain

import (
	"time"

	expiry "expiry-scanner/internal/features/expiry/domain"
)

// Trigger tells what started a digest run.
type Trigger string

const (
	// TriggerSchedule marks runs started by the cron schedule.
	TriggerSchedule Trigger = "schedule"
	// TriggerManual marks runs requested through the API or CLI.
	TriggerManual Trigger = "manual"
)

// Digest is the outcome of one reminder run over all watched users.
type Digest struct {
	RunID      string    `json:"run_id"`
	Trigger    Trigger   `json:"trigger"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Entries    []Entry   `json:"entries"`
}

// Entry is the scan outcome of a single user within a digest.
type Entry struct {
	UserID  string                `json:"user_id"`
	Notices []expiry.ExpiryNotice `json:"notices"`
	// Error is set when the user's scan failed; Notices is then empty.
	Error string `json:"error,omitempty"`
}

// Failed reports whether the entry's scan failed.
func (e Entry) Failed() bool {
	return e.Error != ""
}

// NoticeCount sums the notices over all entries.
func (d *Digest) NoticeCount() int {
	total := 0
	for _, e := range d.Entries {
		total += len(e.Notices)
	}
	return total
}

// FailureCount counts the entries whose scan failed.
func (d *Digest) FailureCount() int {
	failed := 0
	for _, e := range d.Entries {
		if e.Failed() {
			failed++
		}
	}
	return failed
}
