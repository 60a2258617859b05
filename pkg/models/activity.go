package models

import "time"

// FollowUp is a free-text note attached to a collaboration. The pipeline engine
// only reads counts and timestamps from these; creation happens through the
// follow-up endpoints.
type FollowUp struct {
	ID              string    `json:"id" db:"id"`
	TenantID        string    `json:"tenant_id" db:"tenant_id"`
	CollaborationID string    `json:"collaboration_id" db:"collaboration_id"`
	AuthorID        string    `json:"author_id" db:"author_id"`
	Content         string    `json:"content" db:"content"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
}

// TableName returns the database table name
func (FollowUp) TableName() string {
	return "follow_ups"
}

// CreateFollowUpRequest is the request body for logging a follow-up
type CreateFollowUpRequest struct {
	Content string `json:"content" validate:"required"`
}

// ReceiptStatus tracks whether a dispatched sample was received back or kept.
type ReceiptStatus string

const (
	ReceiptPending  ReceiptStatus = "PENDING"
	ReceiptReceived ReceiptStatus = "RECEIVED"
	ReceiptReturned ReceiptStatus = "RETURNED"
)

// IsValid reports whether s is a known receipt status.
func (s ReceiptStatus) IsValid() bool {
	switch s {
	case ReceiptPending, ReceiptReceived, ReceiptReturned:
		return true
	}
	return false
}

// SampleDispatch is a product-sample dispatch event attached to a collaboration.
type SampleDispatch struct {
	ID              string        `json:"id" db:"id"`
	TenantID        string        `json:"tenant_id" db:"tenant_id"`
	CollaborationID string        `json:"collaboration_id" db:"collaboration_id"`
	Item            string        `json:"item" db:"item"`
	Quantity        int           `json:"quantity" db:"quantity"`
	Cost            float64       `json:"cost" db:"cost"`
	ReceiptStatus   ReceiptStatus `json:"receipt_status" db:"receipt_status"`
	DispatchedAt    time.Time     `json:"dispatched_at" db:"dispatched_at"`
}

// TableName returns the database table name
func (SampleDispatch) TableName() string {
	return "sample_dispatches"
}

// CreateDispatchRequest is the request body for recording a sample dispatch
type CreateDispatchRequest struct {
	Item     string  `json:"item" validate:"required"`
	Quantity int     `json:"quantity" validate:"required,gt=0"`
	Cost     float64 `json:"cost" validate:"gte=0"`
}

// ActivitySummary carries the per-collaboration counts shown on board cards.
// Derived on demand from the follow-up and dispatch tables, never stored.
type ActivitySummary struct {
	FollowUpCount  int        `json:"follow_up_count"`
	DispatchCount  int        `json:"dispatch_count"`
	LastFollowUpAt *time.Time `json:"last_follow_up_at,omitempty"`
}
