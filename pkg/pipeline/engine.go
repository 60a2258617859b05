package pipeline

import (
	"context"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"

	"github.com/Ramsey-B/dahlia/pkg/clients"
	econtext "github.com/Ramsey-B/dahlia/pkg/context"
	"github.com/Ramsey-B/dahlia/pkg/database"
	"github.com/Ramsey-B/dahlia/pkg/events"
	"github.com/Ramsey-B/dahlia/pkg/metrics"
	"github.com/Ramsey-B/dahlia/pkg/models"
	"github.com/Ramsey-B/dahlia/pkg/tracing"
)

// Engine is the single write path for pipeline state. Stage changes flow only
// through Transition, which pairs the stage write with an audit append in one
// transaction so the trail always replays to the current stage.
type Engine struct {
	db             database.DB
	collaborations CollaborationStore
	transitions    TransitionStore
	dispatches     DispatchStore
	influencers    clients.InfluencerDirectory
	staff          clients.StaffDirectory
	emitter        events.Emitter
	logger         ectologger.Logger
	now            func() time.Time
}

// NewEngine creates a new pipeline engine
func NewEngine(
	db database.DB,
	collaborations CollaborationStore,
	transitions TransitionStore,
	dispatches DispatchStore,
	influencers clients.InfluencerDirectory,
	staff clients.StaffDirectory,
	emitter events.Emitter,
	logger ectologger.Logger,
) *Engine {
	return &Engine{
		db:             db,
		collaborations: collaborations,
		transitions:    transitions,
		dispatches:     dispatches,
		influencers:    influencers,
		staff:          staff,
		emitter:        emitter,
		logger:         logger,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

func tenantFromContext(ctx context.Context) (string, error) {
	tenantID := econtext.GetTenantID(ctx)
	if tenantID == "" {
		return "", httperror.NewHTTPError(http.StatusBadRequest, "tenant id is required")
	}
	return tenantID, nil
}

func userFromContext(ctx context.Context) *string {
	userID := econtext.GetUserID(ctx)
	if userID == "" {
		return nil
	}
	return &userID
}

// Create inserts a collaboration with its initial audit entry. Influencer and
// owner display fields are snapshotted from the directories at this point and
// never refreshed automatically.
func (e *Engine) Create(ctx context.Context, req models.CreateCollaborationRequest) (*models.Collaboration, error) {
	ctx, span := tracing.StartSpan(ctx, "pipeline.Engine.Create")
	defer span.End()

	tenantID, err := tenantFromContext(ctx)
	if err != nil {
		return nil, err
	}

	stage := models.InitialStage()
	if req.Stage != nil {
		if !req.Stage.IsValid() {
			return nil, httperror.NewHTTPErrorf(http.StatusBadRequest, "invalid stage: %s", *req.Stage)
		}
		stage = *req.Stage
	}

	profile, err := e.influencers.GetInfluencer(ctx, req.InfluencerID)
	if err != nil {
		return nil, err
	}

	var ownerName string
	if req.OwnerID != "" {
		member, err := e.staff.GetStaff(ctx, req.OwnerID)
		if err != nil {
			return nil, err
		}
		ownerName = member.Name
	}

	now := e.now()
	c := &models.Collaboration{
		ID:                 uuid.New().String(),
		TenantID:           tenantID,
		InfluencerID:       profile.ID,
		InfluencerNickname: profile.Nickname,
		Platform:           profile.Platform,
		PlatformAccountID:  profile.PlatformAccountID,
		OwnerID:            req.OwnerID,
		OwnerName:          ownerName,
		Stage:              stage,
		Deadline:           req.Deadline,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	txCtx, tx, err := e.db.GetTx(ctx, nil)
	if err != nil {
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to create collaboration")
	}
	defer tx.Rollback(ctx)

	if err := e.collaborations.Create(txCtx, tx, c); err != nil {
		return nil, err
	}

	initial := &models.StageTransition{
		ID:              uuid.New().String(),
		TenantID:        tenantID,
		CollaborationID: c.ID,
		FromStage:       nil,
		ToStage:         stage,
		Notes:           req.Notes,
		ChangedBy:       userFromContext(ctx),
		ChangedAt:       now,
	}
	if err := e.transitions.Append(txCtx, tx, initial); err != nil {
		return nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to create collaboration")
	}

	metrics.CollaborationsCreatedTotal.WithLabelValues(tenantID, string(stage)).Inc()
	e.emitter.CollaborationCreated(ctx, c)
	return c, nil
}

// Get retrieves a collaboration
func (e *Engine) Get(ctx context.Context, id string) (*models.Collaboration, error) {
	tenantID, err := tenantFromContext(ctx)
	if err != nil {
		return nil, err
	}
	return e.collaborations.Get(ctx, tenantID, id)
}

// List retrieves collaborations with filtering and pagination
func (e *Engine) List(ctx context.Context, filter models.CollaborationFilter) (*models.CollaborationListResponse, error) {
	tenantID, err := tenantFromContext(ctx)
	if err != nil {
		return nil, err
	}
	return e.collaborations.List(ctx, tenantID, filter, e.now())
}

// Update changes display fields and the deadline. Stage is not accepted on
// this path; UpdateCollaborationRequest has no stage field and the handler
// rejects payloads that carry one.
func (e *Engine) Update(ctx context.Context, id string, req models.UpdateCollaborationRequest) (*models.Collaboration, error) {
	ctx, span := tracing.StartSpan(ctx, "pipeline.Engine.Update")
	defer span.End()

	tenantID, err := tenantFromContext(ctx)
	if err != nil {
		return nil, err
	}

	if req.OwnerID != nil && *req.OwnerID != "" && req.OwnerName == nil {
		member, err := e.staff.GetStaff(ctx, *req.OwnerID)
		if err != nil {
			return nil, err
		}
		req.OwnerName = &member.Name
	}

	return e.collaborations.Update(ctx, tenantID, id, req)
}

// Delete removes a collaboration and, through the cascade, its audit trail.
// Records with dispatched samples are protected unless force is set.
func (e *Engine) Delete(ctx context.Context, id string, force bool) error {
	ctx, span := tracing.StartSpan(ctx, "pipeline.Engine.Delete")
	defer span.End()

	tenantID, err := tenantFromContext(ctx)
	if err != nil {
		return err
	}

	if _, err := e.collaborations.Get(ctx, tenantID, id); err != nil {
		return err
	}

	if !force {
		count, err := e.dispatches.CountForCollaboration(ctx, tenantID, id)
		if err != nil {
			return err
		}
		if count > 0 {
			return httperror.NewHTTPErrorf(http.StatusConflict, "collaboration %s has dispatched samples and cannot be deleted", id)
		}
	}

	if err := e.collaborations.Delete(ctx, tenantID, id); err != nil {
		return err
	}

	e.emitter.CollaborationDeleted(ctx, tenantID, id)
	return nil
}

// Transition moves a collaboration to the target stage. Any valid stage may
// move to any other valid stage, forward or backward; misrouted records are
// corrected by moving them back. Moving to the current stage is a no-op and
// writes no audit row.
func (e *Engine) Transition(ctx context.Context, id string, req models.TransitionRequest) (*models.Collaboration, error) {
	ctx, span := tracing.StartSpan(ctx, "pipeline.Engine.Transition")
	defer span.End()

	tenantID, err := tenantFromContext(ctx)
	if err != nil {
		return nil, err
	}

	if !req.Stage.IsValid() {
		metrics.RecordStageTransition(tenantID, string(req.Stage), "invalid")
		return nil, httperror.NewHTTPErrorf(http.StatusBadRequest, "invalid stage: %s", req.Stage)
	}

	txCtx, tx, err := e.db.GetTx(ctx, nil)
	if err != nil {
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to transition collaboration")
	}
	defer tx.Rollback(ctx)

	c, err := e.collaborations.GetForUpdate(txCtx, tx, tenantID, id)
	if err != nil {
		return nil, err
	}

	if c.Stage == req.Stage {
		metrics.RecordStageTransition(tenantID, string(req.Stage), "noop")
		return c, nil
	}

	now := e.now()
	fromStage := c.Stage

	if err := e.collaborations.UpdateStage(txCtx, tx, tenantID, id, req.Stage, now); err != nil {
		return nil, err
	}

	entry := &models.StageTransition{
		ID:              uuid.New().String(),
		TenantID:        tenantID,
		CollaborationID: id,
		FromStage:       &fromStage,
		ToStage:         req.Stage,
		Notes:           req.Notes,
		ChangedBy:       userFromContext(ctx),
		ChangedAt:       now,
	}
	if err := e.transitions.Append(txCtx, tx, entry); err != nil {
		return nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		metrics.RecordStageTransition(tenantID, string(req.Stage), "error")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to transition collaboration")
	}

	c.Stage = req.Stage
	c.UpdatedAt = now

	metrics.RecordStageTransition(tenantID, string(req.Stage), "success")
	e.emitter.StageChanged(ctx, c, &fromStage, econtext.GetUserID(ctx))

	e.logger.WithContext(ctx).WithFields(map[string]any{
		"id":         id,
		"from_stage": fromStage,
		"to_stage":   req.Stage,
	}).Info("Collaboration stage changed")

	return c, nil
}

// History returns the full audit trail in chronological order.
func (e *Engine) History(ctx context.Context, id string) ([]models.StageTransition, error) {
	tenantID, err := tenantFromContext(ctx)
	if err != nil {
		return nil, err
	}

	if _, err := e.collaborations.Get(ctx, tenantID, id); err != nil {
		return nil, err
	}
	return e.transitions.ListByCollaboration(ctx, tenantID, id)
}

// SetDeadline sets or clears the deadline. Deadlines are independent of
// stage; overdue state is derived at read time.
func (e *Engine) SetDeadline(ctx context.Context, id string, req models.SetDeadlineRequest) (*models.Collaboration, error) {
	tenantID, err := tenantFromContext(ctx)
	if err != nil {
		return nil, err
	}
	return e.collaborations.SetDeadline(ctx, tenantID, id, req.Deadline)
}

// SetBlockReason sets or clears the blocking annotation. The reason must be a
// catalog member; clearing the reason clears the notes too. No audit entry is
// written, blocking is an annotation, not a stage.
func (e *Engine) SetBlockReason(ctx context.Context, id string, req models.SetBlockReasonRequest) (*models.Collaboration, error) {
	ctx, span := tracing.StartSpan(ctx, "pipeline.Engine.SetBlockReason")
	defer span.End()

	tenantID, err := tenantFromContext(ctx)
	if err != nil {
		return nil, err
	}

	if req.Reason != nil && !req.Reason.IsValid() {
		return nil, httperror.NewHTTPErrorf(http.StatusBadRequest, "invalid block reason: %s", *req.Reason)
	}

	return e.collaborations.SetBlockReason(ctx, tenantID, id, req.Reason, req.Notes)
}
