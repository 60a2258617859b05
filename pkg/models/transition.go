package models

import "time"

// StageTransition is one immutable audit entry for a stage change. Rows are
// append-only: once written they are never mutated or deleted (except together
// with their owning collaboration). Replaying a collaboration's transitions in
// changed_at order, with seq breaking same-timestamp ties, reconstructs its
// current stage as the last to_stage.
type StageTransition struct {
	ID              string    `json:"id" db:"id"`
	Seq             int64     `json:"-" db:"seq"` // database-assigned, monotonic per insert
	TenantID        string    `json:"tenant_id" db:"tenant_id"`
	CollaborationID string    `json:"collaboration_id" db:"collaboration_id"`
	FromStage       *Stage    `json:"from_stage" db:"from_stage"` // nil only for the record's first entry
	ToStage         Stage     `json:"to_stage" db:"to_stage"`
	Notes           *string   `json:"notes,omitempty" db:"notes"`
	ChangedBy       *string   `json:"changed_by,omitempty" db:"changed_by"`
	ChangedAt       time.Time `json:"changed_at" db:"changed_at"`
}

// TableName returns the database table name
func (StageTransition) TableName() string {
	return "stage_transitions"
}
