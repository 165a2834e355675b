package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/nextprop/wabridge/internal/cache"
	"github.com/nextprop/wabridge/internal/metrics"
	"github.com/nextprop/wabridge/internal/model"
	"github.com/nextprop/wabridge/internal/repo"
)

type DeliveryClient interface {
	SendText(ctx context.Context, to, body string) (externalID string, err error)
	SendTemplate(ctx context.Context, to, templateName string, params []string) (externalID string, err error)
}

// Processor drains the outbound queue one bounded batch per invocation.
// Dispatch within a batch is sequential; retries are cadence-gated, not
// time-gated. Failures are recorded on the item and never returned to the
// caller.
type Processor struct {
	client DeliveryClient
	queue  repo.QueueRepository

	batchSize int
	staleAge  time.Duration

	sentCache cache.BridgeCache
}

func NewProcessor(client DeliveryClient, queue repo.QueueRepository, batchSize int, staleAge time.Duration) *Processor {
	return &Processor{
		client:    client,
		queue:     queue,
		batchSize: batchSize,
		staleAge:  staleAge,
	}
}

// WithSentCache records delivered external ids in the cache. Optional.
func (p *Processor) WithSentCache(c cache.BridgeCache) *Processor {
	p.sentCache = c
	return p
}

// RunBatch claims and dispatches one batch. Returns counts for logging and
// tests; no error, per the fire-and-forget contract.
func (p *Processor) RunBatch(ctx context.Context) (sent int, failed int) {
	if released, err := p.queue.ReleaseStale(ctx, p.staleAge); err != nil {
		slog.Error("failed to release stale claims", "error", err)
	} else if released > 0 {
		slog.Warn("released stale processing items", "count", released)
	}

	items, err := p.queue.ClaimPending(ctx, p.batchSize)
	if err != nil {
		slog.Error("failed to claim pending batch", "error", err)
		return 0, 0
	}
	if len(items) == 0 {
		return 0, 0
	}

	for _, it := range items {
		externalID, err := p.dispatch(ctx, it)
		if err != nil {
			failed++
			p.recordFailure(ctx, it, err)
			continue
		}

		sent++
		if err := p.queue.MarkSent(ctx, it.ID, externalID); err != nil {
			slog.Error("failed to mark item sent", "id", it.ID, "error", err)
			continue
		}
		metrics.RecordSent()
		slog.Info("message sent", "id", it.ID, "external_id", externalID, "attempts", it.Attempts)

		if p.sentCache != nil {
			if err := p.sentCache.StoreSent(ctx, externalID, it.ID, time.Now().UTC()); err != nil {
				slog.Warn("failed to cache sent message", "id", it.ID, "error", err)
			}
		}
	}

	return sent, failed
}

func (p *Processor) dispatch(ctx context.Context, it model.QueueItem) (string, error) {
	if it.IsTemplate() {
		return p.client.SendTemplate(ctx, it.RecipientPhone, *it.TemplateName, it.TemplateParams)
	}
	return p.client.SendText(ctx, it.RecipientPhone, it.Content)
}

func (p *Processor) recordFailure(ctx context.Context, it model.QueueItem, sendErr error) {
	metrics.RecordFailed()

	if err := p.queue.MarkAttemptFailed(ctx, it.ID, sendErr.Error()); err != nil {
		slog.Error("failed to record send failure", "id", it.ID, "error", err)
		return
	}

	if it.Attempts+1 >= model.MaxAttempts {
		metrics.RecordExhausted()
		slog.Error("message failed terminally", "id", it.ID, "attempts", it.Attempts+1, "error", sendErr)
		return
	}

	slog.Warn("send attempt failed", "id", it.ID, "attempts", it.Attempts+1, "error", sendErr)
}
