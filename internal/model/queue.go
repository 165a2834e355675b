package model

import "time"

type Status string

const (
	Pending    Status = "pending"
	Processing Status = "processing"
	Sent       Status = "sent"
	Failed     Status = "failed"
)

// ReceiptStatus is the provider-reported delivery state layered on top of a
// sent item. It never feeds back into retry logic; Status stays authoritative.
type ReceiptStatus string

const (
	ReceiptDelivered ReceiptStatus = "delivered"
	ReceiptRead      ReceiptStatus = "read"
	ReceiptFailed    ReceiptStatus = "failed"
)

// MaxAttempts is the total send attempts before an item goes terminal failed.
const MaxAttempts = 3

type QueueItem struct {
	ID              int64          `json:"id"`
	SourceMessageID *int64         `json:"sourceMessageId,omitempty"`
	RecipientPhone  string         `json:"recipientPhone"`
	Content         string         `json:"content"`
	TemplateName    *string        `json:"templateName,omitempty"`
	TemplateParams  []string       `json:"templateParams,omitempty"`
	Status          Status         `json:"status"`
	Attempts        int            `json:"attempts"`
	ExternalID      *string        `json:"externalId,omitempty"`
	ReceiptStatus   *ReceiptStatus `json:"receiptStatus,omitempty"`
	LastError       *string        `json:"lastError,omitempty"`
	CreatedAt       time.Time      `json:"createdAt"`
	UpdatedAt       time.Time      `json:"updatedAt"`
	SentAt          *time.Time     `json:"sentAt,omitempty"`
}

// IsTemplate reports whether the outbound payload is a template send.
// Content is ignored when a template name is set.
func (q QueueItem) IsTemplate() bool {
	return q.TemplateName != nil && *q.TemplateName != ""
}
