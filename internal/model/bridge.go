package model

import "time"

// User is the slice of the application's user record the bridge needs to
// match inbound senders by phone number.
type User struct {
	ID    int64
	Phone string
	Name  string
}

// Conversation is an application-level chat thread between two users.
type Conversation struct {
	ID             int64
	ParticipantOne int64
	ParticipantTwo int64
	Active         bool
	LastActivityAt time.Time
}

// OtherParticipant returns the participant that is not userID.
func (c Conversation) OtherParticipant(userID int64) int64 {
	if c.ParticipantOne == userID {
		return c.ParticipantTwo
	}
	return c.ParticipantOne
}

// HeldInbound is an inbound provider message that could not be bridged to a
// conversation. Held rows are operator-visible instead of being discarded.
type HeldInbound struct {
	ID         int64     `json:"id"`
	FromPhone  string    `json:"fromPhone"`
	Body       string    `json:"body"`
	ExternalID string    `json:"externalId"`
	Reason     string    `json:"reason"`
	CreatedAt  time.Time `json:"createdAt"`
}

const (
	HoldReasonUnknownSender        = "unknown_sender"
	HoldReasonNoActiveConversation = "no_active_conversation"
)
