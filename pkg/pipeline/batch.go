package pipeline

import (
	"context"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/dahlia/pkg/metrics"
	"github.com/Ramsey-B/dahlia/pkg/models"
	"github.com/Ramsey-B/dahlia/pkg/tracing"
)

// BatchExecutor applies one operation across many collaborations. Items are
// processed sequentially and independently: a failed item is recorded in the
// result's errors and the batch moves on, so one bad id never aborts the rest.
type BatchExecutor struct {
	engine   *Engine
	activity *Activity
	logger   ectologger.Logger
}

// NewBatchExecutor creates a new batch executor
func NewBatchExecutor(engine *Engine, activity *Activity, logger ectologger.Logger) *BatchExecutor {
	return &BatchExecutor{
		engine:   engine,
		activity: activity,
		logger:   logger,
	}
}

// Execute runs the batch and returns a per-item summary. The request itself is
// validated upfront; only per-item failures are converted into the summary.
func (b *BatchExecutor) Execute(ctx context.Context, req models.BatchUpdateRequest) (*models.BatchResult, error) {
	ctx, span := tracing.StartSpan(ctx, "pipeline.BatchExecutor.Execute")
	defer span.End()

	tenantID, err := tenantFromContext(ctx)
	if err != nil {
		return nil, err
	}

	if !req.Operation.IsValid() {
		return nil, httperror.NewHTTPErrorf(http.StatusBadRequest, "invalid batch operation: %s", req.Operation)
	}
	if len(req.IDs) == 0 {
		return nil, httperror.NewHTTPError(http.StatusBadRequest, "ids are required")
	}

	switch req.Operation {
	case models.BatchOpUpdateStage:
		if req.Data.Stage == nil {
			return nil, httperror.NewHTTPError(http.StatusBadRequest, "stage is required for updateStage")
		}
		if !req.Data.Stage.IsValid() {
			return nil, httperror.NewHTTPErrorf(http.StatusBadRequest, "invalid stage: %s", *req.Data.Stage)
		}
	case models.BatchOpDispatch:
		if req.Data.Item == nil || *req.Data.Item == "" {
			return nil, httperror.NewHTTPError(http.StatusBadRequest, "item is required for dispatch")
		}
		if req.Data.Quantity != nil && *req.Data.Quantity <= 0 {
			return nil, httperror.NewHTTPError(http.StatusBadRequest, "quantity must be greater than zero")
		}
		if req.Data.Cost != nil && *req.Data.Cost < 0 {
			return nil, httperror.NewHTTPError(http.StatusBadRequest, "cost must not be negative")
		}
	}

	start := time.Now()
	result := &models.BatchResult{
		Errors: []models.BatchItemError{},
	}

	for _, id := range req.IDs {
		if err := b.applyItem(ctx, id, req); err != nil {
			result.Failed++
			result.Errors = append(result.Errors, models.BatchItemError{
				ID:      id,
				Message: httperror.ToHTTPError(err).Error(),
			})
			metrics.RecordBatchItem(tenantID, string(req.Operation), "failed")
			b.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
				"id":        id,
				"operation": req.Operation,
			}).Warn("Batch item failed")
			continue
		}
		result.Updated++
		metrics.RecordBatchItem(tenantID, string(req.Operation), "success")
	}

	metrics.BatchDuration.WithLabelValues(string(req.Operation)).Observe(time.Since(start).Seconds())
	return result, nil
}

func (b *BatchExecutor) applyItem(ctx context.Context, id string, req models.BatchUpdateRequest) error {
	switch req.Operation {
	case models.BatchOpUpdateStage:
		_, err := b.engine.Transition(ctx, id, models.TransitionRequest{
			Stage: *req.Data.Stage,
			Notes: req.Data.Notes,
		})
		return err
	case models.BatchOpSetDeadline:
		_, err := b.engine.SetDeadline(ctx, id, models.SetDeadlineRequest{
			Deadline: req.Data.Deadline,
		})
		return err
	case models.BatchOpDispatch:
		quantity := 1
		if req.Data.Quantity != nil {
			quantity = *req.Data.Quantity
		}
		var cost float64
		if req.Data.Cost != nil {
			cost = *req.Data.Cost
		}
		_, err := b.activity.AddDispatch(ctx, id, models.CreateDispatchRequest{
			Item:     *req.Data.Item,
			Quantity: quantity,
			Cost:     cost,
		})
		return err
	}
	return httperror.NewHTTPErrorf(http.StatusBadRequest, "invalid batch operation: %s", req.Operation)
}
