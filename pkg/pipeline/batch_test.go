package pipeline

import (
	"net/http"
	"testing"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/dahlia/pkg/models"
)

type batchFixture struct {
	*engineFixture
	activity *Activity
	executor *BatchExecutor
}

func newBatchFixture() *batchFixture {
	ef := newEngineFixture()
	followUps := &fakeFollowUpStore{}
	activity := NewActivity(ef.collabs, followUps, ef.dispatches, testLogger())
	return &batchFixture{
		engineFixture: ef,
		activity:      activity,
		executor:      NewBatchExecutor(ef.engine, activity, testLogger()),
	}
}

func (f *batchFixture) createN(t *testing.T, n int) []string {
	t.Helper()
	ids := make([]string, 0, n)
	for i := 0; i < n; i++ {
		c, err := f.engine.Create(testContext(), models.CreateCollaborationRequest{InfluencerID: "inf-1"})
		require.NoError(t, err)
		ids = append(ids, c.ID)
	}
	return ids
}

func TestBatchExecute_UpdateStageAllSucceed(t *testing.T) {
	f := newBatchFixture()
	ids := f.createN(t, 3)

	stage := models.StageQuoted
	result, err := f.executor.Execute(testContext(), models.BatchUpdateRequest{
		IDs:       ids,
		Operation: models.BatchOpUpdateStage,
		Data:      models.BatchData{Stage: &stage},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, result.Updated)
	assert.Equal(t, 0, result.Failed)
	assert.Empty(t, result.Errors)

	for _, id := range ids {
		c, err := f.engine.Get(testContext(), id)
		require.NoError(t, err)
		assert.Equal(t, models.StageQuoted, c.Stage)
	}
}

func TestBatchExecute_FailedItemDoesNotAbortBatch(t *testing.T) {
	f := newBatchFixture()
	ids := f.createN(t, 2)
	ids = append(ids, "missing-id")

	stage := models.StageContacted
	result, err := f.executor.Execute(testContext(), models.BatchUpdateRequest{
		IDs:       ids,
		Operation: models.BatchOpUpdateStage,
		Data:      models.BatchData{Stage: &stage},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Updated)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "missing-id", result.Errors[0].ID)
	assert.NotEmpty(t, result.Errors[0].Message)

	// the successful items still moved
	c, err := f.engine.Get(testContext(), ids[0])
	require.NoError(t, err)
	assert.Equal(t, models.StageContacted, c.Stage)
}

func TestBatchExecute_FailuresInterspersedBeforeValidItems(t *testing.T) {
	f := newBatchFixture()
	valid := f.createN(t, 2)
	ids := []string{"missing-a", valid[0], "missing-b", valid[1]}

	stage := models.StageSampled
	result, err := f.executor.Execute(testContext(), models.BatchUpdateRequest{
		IDs:       ids,
		Operation: models.BatchOpUpdateStage,
		Data:      models.BatchData{Stage: &stage},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Updated)
	assert.Equal(t, 2, result.Failed)

	// errors come back in input order and the valid ids after each failure
	// were still applied
	require.Len(t, result.Errors, 2)
	assert.Equal(t, "missing-a", result.Errors[0].ID)
	assert.Equal(t, "missing-b", result.Errors[1].ID)

	for _, id := range valid {
		c, err := f.engine.Get(testContext(), id)
		require.NoError(t, err)
		assert.Equal(t, models.StageSampled, c.Stage)
	}
}

func TestBatchExecute_DispatchCreatesRecords(t *testing.T) {
	f := newBatchFixture()
	ids := f.createN(t, 2)

	item := "lip gloss"
	quantity := 3
	result, err := f.executor.Execute(testContext(), models.BatchUpdateRequest{
		IDs:       ids,
		Operation: models.BatchOpDispatch,
		Data:      models.BatchData{Item: &item, Quantity: &quantity},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Updated)

	for _, id := range ids {
		count, err := f.dispatches.CountForCollaboration(testContext(), "t1", id)
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	}
}

func TestBatchExecute_SetDeadline(t *testing.T) {
	f := newBatchFixture()
	ids := f.createN(t, 1)

	deadline := testDeadline()
	result, err := f.executor.Execute(testContext(), models.BatchUpdateRequest{
		IDs:       ids,
		Operation: models.BatchOpSetDeadline,
		Data:      models.BatchData{Deadline: &deadline},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Updated)

	c, err := f.engine.Get(testContext(), ids[0])
	require.NoError(t, err)
	require.NotNil(t, c.Deadline)
	assert.True(t, c.Deadline.Equal(deadline))
}

func TestBatchExecute_InvalidOperationRejected(t *testing.T) {
	f := newBatchFixture()
	ids := f.createN(t, 1)

	_, err := f.executor.Execute(testContext(), models.BatchUpdateRequest{
		IDs:       ids,
		Operation: models.BatchOperation("archive"),
	})
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, httperror.GetStatusCode(err))
}

func TestBatchExecute_UpdateStageRequiresStage(t *testing.T) {
	f := newBatchFixture()
	ids := f.createN(t, 1)

	_, err := f.executor.Execute(testContext(), models.BatchUpdateRequest{
		IDs:       ids,
		Operation: models.BatchOpUpdateStage,
	})
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, httperror.GetStatusCode(err))
}

func TestBatchExecute_EmptyIDsRejected(t *testing.T) {
	f := newBatchFixture()

	stage := models.StageQuoted
	_, err := f.executor.Execute(testContext(), models.BatchUpdateRequest{
		IDs:       []string{},
		Operation: models.BatchOpUpdateStage,
		Data:      models.BatchData{Stage: &stage},
	})
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, httperror.GetStatusCode(err))
}

func TestBatchExecute_DispatchRejectsInvalidQuantityAndCost(t *testing.T) {
	f := newBatchFixture()
	ids := f.createN(t, 1)

	item := "lip gloss"
	quantity := -3
	_, err := f.executor.Execute(testContext(), models.BatchUpdateRequest{
		IDs:       ids,
		Operation: models.BatchOpDispatch,
		Data:      models.BatchData{Item: &item, Quantity: &quantity},
	})
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, httperror.GetStatusCode(err))

	cost := -10.0
	_, err = f.executor.Execute(testContext(), models.BatchUpdateRequest{
		IDs:       ids,
		Operation: models.BatchOpDispatch,
		Data:      models.BatchData{Item: &item, Cost: &cost},
	})
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, httperror.GetStatusCode(err))

	// nothing was persisted
	count, err := f.dispatches.CountForCollaboration(testContext(), "t1", ids[0])
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}
