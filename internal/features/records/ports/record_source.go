package ports

import (
	"context"

	"expiry-scanner/internal/features/records/domain"
)

// RecordSource defines the interface for reading a user's tracked items of one type.
// This is a Secondary Port (Driven Port).
type RecordSource interface {
	// Fetch returns the user's items in the order the source lists them.
	Fetch(ctx context.Context, userID string) ([]domain.TrackedItem, error)
	// ItemType returns the type of every item this source yields.
	ItemType() domain.ItemType
}
