package ports

import (
	"context"
	"time"

	"expiry-scanner/internal/features/expiry/domain"
)

// Scanner defines the primary port for expiry scans.
type Scanner interface {
	// Scan reads the user's vitamins and medications and returns those expiring on the
	// reference day or the next one. A zero reference means "now".
	Scan(ctx context.Context, userID string, reference time.Time) (*domain.ScanResult, error)
}

// NoticeCache defines the secondary port for storing scan results per user and day.
type NoticeCache interface {
	// Get returns the cached notices and true, or false on a miss.
	Get(ctx context.Context, userID, day string) ([]domain.ExpiryNotice, bool, error)
	// Save stores the notices of a successful scan.
	Save(ctx context.Context, userID, day string, notices []domain.ExpiryNotice) error
	// Invalidate drops the cached notices of a user for a day.
	Invalidate(ctx context.Context, userID, day string) error
}

// ExpiryService extends Scanner with a cache-bypassing scan.
type ExpiryService interface {
	Scanner
	// Rescan drops any cached result for the reference day before scanning.
	Rescan(ctx context.Context, userID string, reference time.Time) (*domain.ScanResult, error)
}
