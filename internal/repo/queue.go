package repo

import (
	"context"
	"time"

	"github.com/nextprop/wabridge/internal/model"
)

// EnqueueParams is everything a caller supplies when queueing an outbound
// message. RecipientPhone must already be normalized.
type EnqueueParams struct {
	SourceMessageID *int64
	RecipientPhone  string
	Content         string
	TemplateName    *string
	TemplateParams  []string
}

type QueueRepository interface {
	Enqueue(ctx context.Context, p EnqueueParams) (int64, error)

	// ClaimPending atomically selects up to limit retry-eligible pending
	// items oldest-first and transitions them to processing, so overlapping
	// processor runs never dispatch the same item twice.
	ClaimPending(ctx context.Context, limit int) ([]model.QueueItem, error)

	MarkSent(ctx context.Context, id int64, externalID string) error

	// MarkAttemptFailed increments the attempt counter and either returns
	// the item to pending or, on the final allowed attempt, marks it failed.
	MarkAttemptFailed(ctx context.Context, id int64, reason string) error

	// ReleaseStale returns items stuck in processing (a processor that died
	// mid-batch) to pending. Returns the number of released items.
	ReleaseStale(ctx context.Context, olderThan time.Duration) (int64, error)

	FindByExternalID(ctx context.Context, externalID string) (*model.QueueItem, error)

	// ReconcileReceipt records the provider-reported delivery state. It
	// never touches the internal status; retry logic stays unaffected.
	ReconcileReceipt(ctx context.Context, externalID string, status model.ReceiptStatus) error

	ListByStatus(ctx context.Context, status model.Status, limit, offset int) ([]model.QueueItem, error)
}
