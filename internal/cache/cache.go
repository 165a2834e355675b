package cache

import (
	"context"
	"time"
)

type BridgeCache interface {
	// StoreSent records the provider message id of a delivered queue item so
	// receipt handling can resolve it without a table scan.
	StoreSent(ctx context.Context, externalID string, internalID int64, sentAt time.Time) error

	// FirstSeen reports whether the provider event id is new, marking it seen.
	// Provider webhooks redeliver; duplicates return false.
	FirstSeen(ctx context.Context, eventID string) (bool, error)
}
