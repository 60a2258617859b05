package models

import (
	"time"
)

// Collaboration represents one influencer-brand engagement tracked through the
// pipeline. Stage is mutated only through the pipeline engine so every change
// lands in the audit trail; Update requests cannot carry it.
type Collaboration struct {
	ID       string `json:"id" db:"id"`
	TenantID string `json:"tenant_id" db:"tenant_id"`

	InfluencerID       string `json:"influencer_id" db:"influencer_id"`
	InfluencerNickname string `json:"influencer_nickname" db:"influencer_nickname"`
	Platform           string `json:"platform" db:"platform"`
	PlatformAccountID  string `json:"platform_account_id" db:"platform_account_id"`

	OwnerID   string `json:"owner_id" db:"owner_id"`
	OwnerName string `json:"owner_name" db:"owner_name"`

	Stage       Stage        `json:"stage" db:"stage"`
	Deadline    *time.Time   `json:"deadline,omitempty" db:"deadline"`
	BlockReason *BlockReason `json:"block_reason,omitempty" db:"block_reason"`
	BlockNotes  *string      `json:"block_notes,omitempty" db:"block_notes"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// TableName returns the database table name
func (Collaboration) TableName() string {
	return "collaborations"
}

// CreateCollaborationRequest is the request body for creating a collaboration.
// Stage defaults to the first catalog entry when omitted.
type CreateCollaborationRequest struct {
	InfluencerID string     `json:"influencer_id" validate:"required"`
	OwnerID      string     `json:"owner_id,omitempty"`
	Stage        *Stage     `json:"stage,omitempty"`
	Deadline     *time.Time `json:"deadline,omitempty"`
	Notes        *string    `json:"notes,omitempty"`
}

// UpdateCollaborationRequest updates display fields and the deadline directly.
// It has no stage field: stage moves go through the transition endpoint so
// every change lands in the audit trail.
type UpdateCollaborationRequest struct {
	InfluencerNickname *string    `json:"influencer_nickname,omitempty"`
	Platform           *string    `json:"platform,omitempty"`
	PlatformAccountID  *string    `json:"platform_account_id,omitempty"`
	OwnerID            *string    `json:"owner_id,omitempty"`
	OwnerName          *string    `json:"owner_name,omitempty"`
	Deadline           *time.Time `json:"deadline,omitempty"`
}

// TransitionRequest moves a collaboration to another stage.
type TransitionRequest struct {
	Stage Stage   `json:"stage" validate:"required"`
	Notes *string `json:"notes,omitempty"`
}

// SetDeadlineRequest sets or clears the deadline.
type SetDeadlineRequest struct {
	Deadline *time.Time `json:"deadline"`
}

// SetBlockReasonRequest sets or clears the blocking annotation. A nil reason
// clears both the reason and its notes.
type SetBlockReasonRequest struct {
	Reason *BlockReason `json:"reason"`
	Notes  *string      `json:"notes,omitempty"`
}

// CollaborationFilter narrows List queries.
type CollaborationFilter struct {
	Stage    *Stage
	OwnerID  *string
	Keyword  string
	Overdue  *bool
	Page     int
	PageSize int
}

// CollaborationListResponse is the response for listing collaborations
type CollaborationListResponse struct {
	Items      []Collaboration `json:"items"`
	TotalCount int             `json:"total_count"`
	Page       int             `json:"page"`
	PageSize   int             `json:"page_size"`
}
