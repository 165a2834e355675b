package repo

import (
	"context"

	"github.com/nextprop/wabridge/internal/model"
)

// BridgeRepository is the slice of the application's data the webhook
// ingestor needs to route inbound WhatsApp content into conversations.
// Lookup methods return (nil, nil) when nothing matches.
type BridgeRepository interface {
	// FindUserByPhone matches the stored phone exactly or with a leading "+".
	FindUserByPhone(ctx context.Context, phone string) (*model.User, error)

	// FindActiveConversation returns the user's most recently active
	// conversation, or nil if the user has no active conversation.
	FindActiveConversation(ctx context.Context, userID int64) (*model.Conversation, error)

	// AppendInboundMessage adds a message to the conversation and bumps its
	// last-activity timestamp in one transaction.
	AppendInboundMessage(ctx context.Context, conversationID, senderID int64, body string) (int64, error)

	CreateNotification(ctx context.Context, userID, conversationID int64, preview string) error

	MarkMessageRead(ctx context.Context, messageID int64) error
}

// HoldingRepository stores inbound content that could not be bridged, so an
// operator can inspect it instead of the ingestor discarding it.
type HoldingRepository interface {
	Hold(ctx context.Context, fromPhone, body, externalID, reason string) (int64, error)
	List(ctx context.Context, limit, offset int) ([]model.HeldInbound, error)
}
