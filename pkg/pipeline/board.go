package pipeline

import (
	"context"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/dahlia/pkg/metrics"
	"github.com/Ramsey-B/dahlia/pkg/models"
	"github.com/Ramsey-B/dahlia/pkg/tracing"
)

// Board assembles the pipeline board view: collaborations grouped by stage in
// catalog order, decorated with derived overdue state and activity counts.
type Board struct {
	collaborations CollaborationStore
	activity       *Activity
	logger         ectologger.Logger
	now            func() time.Time
}

// NewBoard creates a new board query service
func NewBoard(collaborations CollaborationStore, activity *Activity, logger ectologger.Logger) *Board {
	return &Board{
		collaborations: collaborations,
		activity:       activity,
		logger:         logger,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

// View returns the full board. Every catalog stage appears as a column, in
// catalog order, even when it holds no collaborations.
func (b *Board) View(ctx context.Context, filter models.BoardFilter) (*models.BoardView, error) {
	ctx, span := tracing.StartSpan(ctx, "pipeline.Board.View")
	defer span.End()

	start := time.Now()
	defer func() {
		metrics.BoardViewDuration.Observe(time.Since(start).Seconds())
	}()

	tenantID, err := tenantFromContext(ctx)
	if err != nil {
		return nil, err
	}

	items, err := b.collaborations.ListForBoard(ctx, tenantID, filter)
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(items))
	for i, c := range items {
		ids[i] = c.ID
	}
	summaries, err := b.activity.Summaries(ctx, tenantID, ids)
	if err != nil {
		return nil, err
	}

	now := b.now()
	columns := make(map[models.Stage]*models.BoardColumn, len(models.OrderedStages()))
	for _, stage := range models.OrderedStages() {
		columns[stage] = &models.BoardColumn{
			Stage:          stage,
			DisplayName:    stage.DisplayName(),
			Collaborations: []models.CollaborationCard{},
		}
	}

	placed := 0
	for _, c := range items {
		column, ok := columns[c.Stage]
		if !ok {
			// A row with an unknown stage means the catalog and the data have
			// diverged. Surface it in logs rather than dropping silently.
			b.logger.WithContext(ctx).WithFields(map[string]any{"id": c.ID, "stage": c.Stage}).Warn("Collaboration has a stage outside the catalog")
			continue
		}

		card := models.CollaborationCard{
			Collaboration:   c,
			IsOverdue:       IsOverdue(c.Deadline, now),
			OverdueDays:     OverdueDays(c.Deadline, now),
			DeadlineBucket:  DeadlineBucketFor(c.Deadline, now),
			ActivitySummary: summaries[c.ID],
		}
		column.Collaborations = append(column.Collaborations, card)
		column.Count++
		placed++
		if card.IsOverdue {
			column.OverdueCount++
		}
	}

	// Total reflects the cards actually placed so column counts always sum to it,
	// even when rows with an out-of-catalog stage were skipped.
	view := &models.BoardView{
		Stages:     make([]models.BoardColumn, 0, len(models.OrderedStages())),
		TotalCount: placed,
	}
	for _, stage := range models.OrderedStages() {
		view.Stages = append(view.Stages, *columns[stage])
	}
	return view, nil
}

// Stats returns aggregate pipeline counts. Stages with no collaborations are
// present with a zero count.
func (b *Board) Stats(ctx context.Context) (*models.PipelineStats, error) {
	ctx, span := tracing.StartSpan(ctx, "pipeline.Board.Stats")
	defer span.End()

	tenantID, err := tenantFromContext(ctx)
	if err != nil {
		return nil, err
	}

	counts, err := b.collaborations.CountByStage(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	stats := &models.PipelineStats{
		ByStage: make(map[models.Stage]int, len(models.OrderedStages())),
	}
	for _, stage := range models.OrderedStages() {
		stats.ByStage[stage] = counts[stage]
		stats.Total += counts[stage]
	}

	overdue, err := b.collaborations.CountOverdue(ctx, tenantID, b.now())
	if err != nil {
		return nil, err
	}
	stats.OverdueCount = overdue

	return stats, nil
}
