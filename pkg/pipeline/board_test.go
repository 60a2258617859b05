package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/dahlia/pkg/models"
)

type boardFixture struct {
	*engineFixture
	followUps *fakeFollowUpStore
	activity  *Activity
	board     *Board
}

func newBoardFixture() *boardFixture {
	ef := newEngineFixture()
	followUps := &fakeFollowUpStore{}
	activity := NewActivity(ef.collabs, followUps, ef.dispatches, testLogger())
	return &boardFixture{
		engineFixture: ef,
		followUps:     followUps,
		activity:      activity,
		board:         NewBoard(ef.collabs, activity, testLogger()),
	}
}

func TestBoardView_AllStagesPresentInCatalogOrder(t *testing.T) {
	f := newBoardFixture()

	view, err := f.board.View(testContext(), models.BoardFilter{})
	require.NoError(t, err)

	stages := models.OrderedStages()
	require.Len(t, view.Stages, len(stages))
	for i, column := range view.Stages {
		assert.Equal(t, stages[i], column.Stage)
		assert.Equal(t, stages[i].DisplayName(), column.DisplayName)
		assert.NotNil(t, column.Collaborations)
		assert.Equal(t, 0, column.Count)
	}
	assert.Equal(t, 0, view.TotalCount)
}

func TestBoardView_GroupsByStageWithCounts(t *testing.T) {
	f := newBoardFixture()
	ctx := testContext()

	lead, err := f.engine.Create(ctx, models.CreateCollaborationRequest{InfluencerID: "inf-1"})
	require.NoError(t, err)
	sampled, err := f.engine.Create(ctx, models.CreateCollaborationRequest{InfluencerID: "inf-1"})
	require.NoError(t, err)
	_, err = f.engine.Transition(ctx, sampled.ID, models.TransitionRequest{Stage: models.StageSampled})
	require.NoError(t, err)

	view, err := f.board.View(ctx, models.BoardFilter{})
	require.NoError(t, err)
	assert.Equal(t, 2, view.TotalCount)

	byStage := map[models.Stage]models.BoardColumn{}
	for _, column := range view.Stages {
		byStage[column.Stage] = column
	}

	require.Equal(t, 1, byStage[models.StageLead].Count)
	assert.Equal(t, lead.ID, byStage[models.StageLead].Collaborations[0].ID)
	require.Equal(t, 1, byStage[models.StageSampled].Count)
	assert.Equal(t, sampled.ID, byStage[models.StageSampled].Collaborations[0].ID)
	assert.Equal(t, 0, byStage[models.StageReviewed].Count)
}

func TestBoardView_OverdueDecorationAndSubcounts(t *testing.T) {
	f := newBoardFixture()
	ctx := testContext()

	c, err := f.engine.Create(ctx, models.CreateCollaborationRequest{InfluencerID: "inf-1"})
	require.NoError(t, err)

	yesterday := time.Now().UTC().Add(-24 * time.Hour)
	_, err = f.engine.SetDeadline(ctx, c.ID, models.SetDeadlineRequest{Deadline: &yesterday})
	require.NoError(t, err)

	view, err := f.board.View(ctx, models.BoardFilter{})
	require.NoError(t, err)

	var leadColumn models.BoardColumn
	for _, column := range view.Stages {
		if column.Stage == models.StageLead {
			leadColumn = column
		}
	}

	require.Len(t, leadColumn.Collaborations, 1)
	card := leadColumn.Collaborations[0]
	assert.True(t, card.IsOverdue)
	assert.Equal(t, models.BucketOverdue, card.DeadlineBucket)
	assert.GreaterOrEqual(t, card.OverdueDays, 1)
	assert.Equal(t, 1, leadColumn.OverdueCount)
}

func TestBoardView_CardsCarryActivitySummaries(t *testing.T) {
	f := newBoardFixture()
	ctx := testContext()

	c, err := f.engine.Create(ctx, models.CreateCollaborationRequest{InfluencerID: "inf-1"})
	require.NoError(t, err)

	_, err = f.activity.AddFollowUp(ctx, c.ID, models.CreateFollowUpRequest{Content: "sent rate card"})
	require.NoError(t, err)
	_, err = f.activity.AddFollowUp(ctx, c.ID, models.CreateFollowUpRequest{Content: "pinged again"})
	require.NoError(t, err)
	_, err = f.activity.AddDispatch(ctx, c.ID, models.CreateDispatchRequest{Item: "serum", Quantity: 1})
	require.NoError(t, err)

	view, err := f.board.View(ctx, models.BoardFilter{})
	require.NoError(t, err)

	var card models.CollaborationCard
	for _, column := range view.Stages {
		if column.Stage == models.StageLead {
			require.Len(t, column.Collaborations, 1)
			card = column.Collaborations[0]
		}
	}

	assert.Equal(t, 2, card.FollowUpCount)
	assert.Equal(t, 1, card.DispatchCount)
	assert.NotNil(t, card.LastFollowUpAt)
}

func TestBoardView_OwnerFilter(t *testing.T) {
	f := newBoardFixture()
	ctx := testContext()

	mine, err := f.engine.Create(ctx, models.CreateCollaborationRequest{InfluencerID: "inf-1", OwnerID: "staff-1"})
	require.NoError(t, err)
	_, err = f.engine.Create(ctx, models.CreateCollaborationRequest{InfluencerID: "inf-1"})
	require.NoError(t, err)

	ownerID := "staff-1"
	view, err := f.board.View(ctx, models.BoardFilter{OwnerID: &ownerID})
	require.NoError(t, err)
	require.Equal(t, 1, view.TotalCount)

	for _, column := range view.Stages {
		for _, card := range column.Collaborations {
			assert.Equal(t, mine.ID, card.ID)
		}
	}
}

func TestStats_CountsByStageIncludeEmptyStages(t *testing.T) {
	f := newBoardFixture()
	ctx := testContext()

	_, err := f.engine.Create(ctx, models.CreateCollaborationRequest{InfluencerID: "inf-1"})
	require.NoError(t, err)
	c, err := f.engine.Create(ctx, models.CreateCollaborationRequest{InfluencerID: "inf-1"})
	require.NoError(t, err)
	_, err = f.engine.Transition(ctx, c.ID, models.TransitionRequest{Stage: models.StagePublished})
	require.NoError(t, err)

	yesterday := time.Now().UTC().Add(-48 * time.Hour)
	_, err = f.engine.SetDeadline(ctx, c.ID, models.SetDeadlineRequest{Deadline: &yesterday})
	require.NoError(t, err)

	stats, err := f.board.Stats(ctx)
	require.NoError(t, err)

	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 1, stats.ByStage[models.StageLead])
	assert.Equal(t, 1, stats.ByStage[models.StagePublished])
	assert.Equal(t, 0, stats.ByStage[models.StageReviewed])
	assert.Len(t, stats.ByStage, len(models.OrderedStages()))
	assert.Equal(t, 1, stats.OverdueCount)
}

func TestBoardView_TotalCountExcludesRowsOutsideCatalog(t *testing.T) {
	f := newBoardFixture()
	ctx := testContext()

	kept, err := f.engine.Create(ctx, models.CreateCollaborationRequest{InfluencerID: "inf-1"})
	require.NoError(t, err)
	diverged, err := f.engine.Create(ctx, models.CreateCollaborationRequest{InfluencerID: "inf-1"})
	require.NoError(t, err)

	// simulate catalog drift: a stored stage the catalog no longer knows
	f.collabs.items[diverged.ID].Stage = models.Stage("ARCHIVED")

	view, err := f.board.View(ctx, models.BoardFilter{})
	require.NoError(t, err)

	assert.Equal(t, 1, view.TotalCount)
	placed := 0
	for _, column := range view.Stages {
		placed += column.Count
	}
	assert.Equal(t, view.TotalCount, placed)

	leadColumn := view.Stages[0]
	require.Len(t, leadColumn.Collaborations, 1)
	assert.Equal(t, kept.ID, leadColumn.Collaborations[0].ID)
}
