package service

import (
	"context"
	"log/slog"

	"github.com/nextprop/wabridge/internal/cache"
	"github.com/nextprop/wabridge/internal/metrics"
	"github.com/nextprop/wabridge/internal/model"
	"github.com/nextprop/wabridge/internal/repo"
)

const notificationPreviewMax = 120

// Ingestor reconciles provider delivery receipts against the queue and
// bridges inbound WhatsApp messages into application conversations. Nothing
// it does surfaces an error to the provider: the webhook has no meaningful
// failure channel, so outcomes are recorded as data and logs only.
type Ingestor struct {
	queue   repo.QueueRepository
	bridge  repo.BridgeRepository
	holding repo.HoldingRepository

	dedup cache.BridgeCache
}

func NewIngestor(queue repo.QueueRepository, bridge repo.BridgeRepository, holding repo.HoldingRepository) *Ingestor {
	return &Ingestor{
		queue:   queue,
		bridge:  bridge,
		holding: holding,
	}
}

// WithDedup drops redelivered webhook events by provider event id. Optional.
func (g *Ingestor) WithDedup(c cache.BridgeCache) *Ingestor {
	g.dedup = c
	return g
}

// HandleDeliveryReceipt records the provider-reported state of a previously
// sent item. A "read" receipt additionally marks the source application
// message as read.
func (g *Ingestor) HandleDeliveryReceipt(ctx context.Context, externalID, status string) {
	if externalID == "" || status == "" {
		return
	}

	if !g.firstSeen(ctx, "receipt:"+externalID+":"+status) {
		slog.Debug("duplicate delivery receipt dropped", "external_id", externalID, "status", status)
		return
	}

	if err := g.queue.ReconcileReceipt(ctx, externalID, model.ReceiptStatus(status)); err != nil {
		slog.Error("failed to reconcile receipt", "external_id", externalID, "status", status, "error", err)
		return
	}
	metrics.RecordReceipt(status)

	if model.ReceiptStatus(status) != model.ReceiptRead {
		return
	}

	item, err := g.queue.FindByExternalID(ctx, externalID)
	if err != nil {
		slog.Error("failed to look up queue item for read receipt", "external_id", externalID, "error", err)
		return
	}
	if item == nil || item.SourceMessageID == nil {
		return
	}

	if err := g.bridge.MarkMessageRead(ctx, *item.SourceMessageID); err != nil {
		slog.Error("failed to mark source message read", "message_id", *item.SourceMessageID, "error", err)
	}
}

// HandleInboundMessage routes an inbound provider message into the sender's
// most recent active conversation. Content that cannot be matched to a user
// or conversation goes to the holding area for operator review; onboarding
// unknown senders through this path is out of scope.
func (g *Ingestor) HandleInboundMessage(ctx context.Context, fromPhone, body, externalID string) {
	if !g.firstSeen(ctx, "inbound:"+externalID) {
		slog.Debug("duplicate inbound message dropped", "external_id", externalID)
		return
	}

	user, err := g.bridge.FindUserByPhone(ctx, fromPhone)
	if err != nil {
		slog.Error("failed to look up user by phone", "phone", fromPhone, "error", err)
		return
	}
	if user == nil {
		g.hold(ctx, fromPhone, body, externalID, model.HoldReasonUnknownSender)
		return
	}

	conv, err := g.bridge.FindActiveConversation(ctx, user.ID)
	if err != nil {
		slog.Error("failed to look up active conversation", "user_id", user.ID, "error", err)
		return
	}
	if conv == nil {
		g.hold(ctx, fromPhone, body, externalID, model.HoldReasonNoActiveConversation)
		return
	}

	msgID, err := g.bridge.AppendInboundMessage(ctx, conv.ID, user.ID, body)
	if err != nil {
		slog.Error("failed to append inbound message", "conversation_id", conv.ID, "error", err)
		return
	}

	recipient := conv.OtherParticipant(user.ID)
	if err := g.bridge.CreateNotification(ctx, recipient, conv.ID, truncate(body, notificationPreviewMax)); err != nil {
		slog.Error("failed to create notification", "user_id", recipient, "error", err)
	}

	metrics.RecordInboundBridged()
	slog.Info("inbound message bridged",
		"message_id", msgID,
		"conversation_id", conv.ID,
		"user_id", user.ID,
	)
}

func (g *Ingestor) hold(ctx context.Context, fromPhone, body, externalID, reason string) {
	id, err := g.holding.Hold(ctx, fromPhone, body, externalID, reason)
	if err != nil {
		slog.Error("failed to hold inbound message", "phone", fromPhone, "reason", reason, "error", err)
		return
	}
	metrics.RecordInboundHeld()
	slog.Warn("inbound message held", "holding_id", id, "phone", fromPhone, "reason", reason)
}

func (g *Ingestor) firstSeen(ctx context.Context, eventID string) bool {
	if g.dedup == nil {
		return true
	}
	first, err := g.dedup.FirstSeen(ctx, eventID)
	if err != nil {
		// The cache is an optimization; on error, process the event.
		slog.Warn("event dedup check failed", "event_id", eventID, "error", err)
		return true
	}
	return first
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
