package models

// Stage is one of the fixed ordered phases a collaboration passes through.
// The set and its order are fixed for the process lifetime; a collaboration's
// stage column only ever holds one of these values.
type Stage string

const (
	StageLead      Stage = "LEAD"
	StageContacted Stage = "CONTACTED"
	StageQuoted    Stage = "QUOTED"
	StageSampled   Stage = "SAMPLED"
	StageScheduled Stage = "SCHEDULED"
	StagePublished Stage = "PUBLISHED"
	StageReviewed  Stage = "REVIEWED"
)

var orderedStages = []Stage{
	StageLead,
	StageContacted,
	StageQuoted,
	StageSampled,
	StageScheduled,
	StagePublished,
	StageReviewed,
}

var stageDisplayNames = map[Stage]string{
	StageLead:      "Lead",
	StageContacted: "Contacted",
	StageQuoted:    "Quoted",
	StageSampled:   "Sample Sent",
	StageScheduled: "Scheduled",
	StagePublished: "Published",
	StageReviewed:  "Reviewed",
}

// OrderedStages returns the full stage sequence in board order. The returned
// slice is a copy; callers may not mutate the catalog.
func OrderedStages() []Stage {
	stages := make([]Stage, len(orderedStages))
	copy(stages, orderedStages)
	return stages
}

// InitialStage returns the stage assigned to newly created collaborations.
func InitialStage() Stage {
	return orderedStages[0]
}

// IsValidStage reports whether s is a member of the stage catalog.
func (s Stage) IsValid() bool {
	_, ok := stageDisplayNames[s]
	return ok
}

// DisplayName returns the human-readable stage label.
func (s Stage) DisplayName() string {
	if name, ok := stageDisplayNames[s]; ok {
		return name
	}
	return string(s)
}

// BlockReason is an optional categorical annotation explaining why a
// collaboration is stalled. It is independent of stage and deadline.
type BlockReason string

const (
	BlockReasonNoResponse        BlockReason = "NO_RESPONSE"
	BlockReasonPriceDisagreement BlockReason = "PRICE_DISAGREEMENT"
	BlockReasonSampleIssue       BlockReason = "SAMPLE_ISSUE"
	BlockReasonContentDelay      BlockReason = "CONTENT_DELAY"
	BlockReasonOther             BlockReason = "OTHER"
)

var blockReasons = map[BlockReason]struct{}{
	BlockReasonNoResponse:        {},
	BlockReasonPriceDisagreement: {},
	BlockReasonSampleIssue:       {},
	BlockReasonContentDelay:      {},
	BlockReasonOther:             {},
}

// IsValid reports whether r is a member of the block reason set.
func (r BlockReason) IsValid() bool {
	_, ok := blockReasons[r]
	return ok
}
