package pipeline

import (
	"context"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"

	econtext "github.com/Ramsey-B/dahlia/pkg/context"
	"github.com/Ramsey-B/dahlia/pkg/models"
	"github.com/Ramsey-B/dahlia/pkg/tracing"
)

// Activity records follow-up notes and sample dispatches against
// collaborations and aggregates them for board cards.
type Activity struct {
	collaborations CollaborationStore
	followUps      FollowUpStore
	dispatches     DispatchStore
	logger         ectologger.Logger
}

// NewActivity creates a new activity service
func NewActivity(collaborations CollaborationStore, followUps FollowUpStore, dispatches DispatchStore, logger ectologger.Logger) *Activity {
	return &Activity{
		collaborations: collaborations,
		followUps:      followUps,
		dispatches:     dispatches,
		logger:         logger,
	}
}

// AddFollowUp records a follow-up note. The author is the acting user.
func (a *Activity) AddFollowUp(ctx context.Context, collaborationID string, req models.CreateFollowUpRequest) (*models.FollowUp, error) {
	ctx, span := tracing.StartSpan(ctx, "pipeline.Activity.AddFollowUp")
	defer span.End()

	tenantID, err := tenantFromContext(ctx)
	if err != nil {
		return nil, err
	}

	if _, err := a.collaborations.Get(ctx, tenantID, collaborationID); err != nil {
		return nil, err
	}

	return a.followUps.Create(ctx, tenantID, collaborationID, econtext.GetUserID(ctx), req.Content)
}

// ListFollowUps returns follow-ups for a collaboration, newest first
func (a *Activity) ListFollowUps(ctx context.Context, collaborationID string) ([]models.FollowUp, error) {
	tenantID, err := tenantFromContext(ctx)
	if err != nil {
		return nil, err
	}

	if _, err := a.collaborations.Get(ctx, tenantID, collaborationID); err != nil {
		return nil, err
	}
	return a.followUps.ListByCollaboration(ctx, tenantID, collaborationID)
}

// AddDispatch records a sample dispatch with a pending receipt
func (a *Activity) AddDispatch(ctx context.Context, collaborationID string, req models.CreateDispatchRequest) (*models.SampleDispatch, error) {
	ctx, span := tracing.StartSpan(ctx, "pipeline.Activity.AddDispatch")
	defer span.End()

	tenantID, err := tenantFromContext(ctx)
	if err != nil {
		return nil, err
	}

	if _, err := a.collaborations.Get(ctx, tenantID, collaborationID); err != nil {
		return nil, err
	}

	return a.dispatches.Create(ctx, tenantID, collaborationID, req)
}

// ListDispatches returns dispatches for a collaboration, newest first
func (a *Activity) ListDispatches(ctx context.Context, collaborationID string) ([]models.SampleDispatch, error) {
	tenantID, err := tenantFromContext(ctx)
	if err != nil {
		return nil, err
	}

	if _, err := a.collaborations.Get(ctx, tenantID, collaborationID); err != nil {
		return nil, err
	}
	return a.dispatches.ListByCollaboration(ctx, tenantID, collaborationID)
}

// UpdateReceipt marks a dispatch as received or returned
func (a *Activity) UpdateReceipt(ctx context.Context, dispatchID string, status models.ReceiptStatus) (*models.SampleDispatch, error) {
	tenantID, err := tenantFromContext(ctx)
	if err != nil {
		return nil, err
	}

	if !status.IsValid() {
		return nil, httperror.NewHTTPErrorf(http.StatusBadRequest, "invalid receipt status: %s", status)
	}

	return a.dispatches.UpdateReceiptStatus(ctx, tenantID, dispatchID, status)
}

// Summaries returns per-collaboration activity counts for a batch of ids,
// using one grouped query per table rather than a query per collaboration.
// Every requested id appears in the result, with zero counts when inactive.
func (a *Activity) Summaries(ctx context.Context, tenantID string, collaborationIDs []string) (map[string]models.ActivitySummary, error) {
	ctx, span := tracing.StartSpan(ctx, "pipeline.Activity.Summaries")
	defer span.End()

	summaries := make(map[string]models.ActivitySummary, len(collaborationIDs))
	for _, id := range collaborationIDs {
		summaries[id] = models.ActivitySummary{}
	}
	if len(collaborationIDs) == 0 {
		return summaries, nil
	}

	followUpStats, err := a.followUps.StatsByCollaborations(ctx, tenantID, collaborationIDs)
	if err != nil {
		return nil, err
	}
	dispatchCounts, err := a.dispatches.CountByCollaborations(ctx, tenantID, collaborationIDs)
	if err != nil {
		return nil, err
	}

	for id, stats := range followUpStats {
		summary := summaries[id]
		summary.FollowUpCount = stats.Count
		lastAt := stats.LastAt
		summary.LastFollowUpAt = &lastAt
		summaries[id] = summary
	}
	for id, count := range dispatchCounts {
		summary := summaries[id]
		summary.DispatchCount = count
		summaries[id] = summary
	}

	return summaries, nil
}
