package models

import "time"

// DeadlineBucket classifies a deadline relative to now, for display grouping
// only. Never stored.
type DeadlineBucket string

const (
	BucketOverdue  DeadlineBucket = "OVERDUE"
	BucketDueToday DeadlineBucket = "DUE_TODAY"
	BucketDueSoon  DeadlineBucket = "DUE_SOON"
	BucketDueLater DeadlineBucket = "DUE_LATER"
	BucketNone     DeadlineBucket = "NONE"
)

// CollaborationCard is one board entry: the record's display fields plus
// derived overdue state and activity counts.
type CollaborationCard struct {
	Collaboration
	IsOverdue      bool           `json:"is_overdue"`
	OverdueDays    int            `json:"overdue_days,omitempty"`
	DeadlineBucket DeadlineBucket `json:"deadline_bucket"`
	ActivitySummary
}

// BoardColumn is one stage group of the board view. Every catalog stage
// appears exactly once, in catalog order, even with zero records.
type BoardColumn struct {
	Stage          Stage               `json:"stage"`
	DisplayName    string              `json:"display_name"`
	Collaborations []CollaborationCard `json:"collaborations"`
	Count          int                 `json:"count"`
	OverdueCount   int                 `json:"overdue_count"`
}

// BoardView is the full pipeline board response.
type BoardView struct {
	Stages     []BoardColumn `json:"stages"`
	TotalCount int           `json:"total_count"`
}

// BoardFilter narrows the board view query.
type BoardFilter struct {
	Keyword string
	OwnerID *string
}

// PipelineStats is the aggregate stats response.
type PipelineStats struct {
	ByStage      map[Stage]int `json:"by_stage"`
	Total        int           `json:"total"`
	OverdueCount int           `json:"overdue_count"`
}

// BatchOperation names one of the supported bulk mutations.
type BatchOperation string

const (
	BatchOpDispatch    BatchOperation = "dispatch"
	BatchOpUpdateStage BatchOperation = "updateStage"
	BatchOpSetDeadline BatchOperation = "setDeadline"
)

// IsValid reports whether op is a supported batch operation.
func (op BatchOperation) IsValid() bool {
	switch op {
	case BatchOpDispatch, BatchOpUpdateStage, BatchOpSetDeadline:
		return true
	}
	return false
}

// BatchUpdateRequest applies one operation across many collaboration ids.
type BatchUpdateRequest struct {
	IDs       []string       `json:"ids" validate:"required,min=1"`
	Operation BatchOperation `json:"operation" validate:"required"`
	Data      BatchData      `json:"data"`
}

// BatchData carries the operation payload; which fields apply depends on the
// operation.
type BatchData struct {
	Stage    *Stage     `json:"stage,omitempty"`    // updateStage
	Notes    *string    `json:"notes,omitempty"`    // updateStage
	Deadline *time.Time `json:"deadline,omitempty"` // setDeadline
	Item     *string    `json:"item,omitempty"`     // dispatch
	Quantity *int       `json:"quantity,omitempty"` // dispatch
	Cost     *float64   `json:"cost,omitempty"`     // dispatch
}

// BatchItemError records one failed id within a batch. Failure is data here,
// not a transport error: the batch envelope itself still returns 200.
type BatchItemError struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}

// BatchResult summarizes a completed batch.
type BatchResult struct {
	Updated int              `json:"updated"`
	Failed  int              `json:"failed"`
	Errors  []BatchItemError `json:"errors"`
}
