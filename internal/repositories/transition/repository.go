package transition

import (
	"context"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/huandu/go-sqlbuilder"

	"github.com/Ramsey-B/dahlia/pkg/database"
	"github.com/Ramsey-B/dahlia/pkg/models"
	"github.com/Ramsey-B/dahlia/pkg/tracing"
)

const transitionsTable = "stage_transitions"

var transitionInsertColumns = []string{
	"id", "tenant_id", "collaboration_id", "from_stage", "to_stage", "notes", "changed_by", "changed_at",
}

// seq is assigned by the database on insert, so it is selected but never written.
var transitionSelectColumns = []string{
	"id", "seq", "tenant_id", "collaboration_id", "from_stage", "to_stage", "notes", "changed_by", "changed_at",
}

// Repository persists the append-only stage audit trail. Rows are only ever
// inserted; removal happens solely through the collaboration cascade.
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new transition repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Append inserts an audit entry inside the engine's transaction so the entry
// commits atomically with the stage write it records.
func (r *Repository) Append(ctx context.Context, tx database.Tx, t *models.StageTransition) error {
	ctx, span := tracing.StartSpan(ctx, "transition.Repository.Append")
	defer span.End()

	ib := sqlbuilder.PostgreSQL.NewInsertBuilder()
	ib.InsertInto(transitionsTable)
	ib.Cols(transitionInsertColumns...)
	ib.Values(t.ID, t.TenantID, t.CollaborationID, t.FromStage, t.ToStage, t.Notes, t.ChangedBy, t.ChangedAt)

	query, args := ib.Build()
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"collaboration_id": t.CollaborationID, "to_stage": t.ToStage}).Error("Failed to append stage transition")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to record stage transition")
	}

	return nil
}

// ListByCollaboration returns the full audit trail in chronological order;
// entries sharing a changed_at timestamp come back in insert order.
func (r *Repository) ListByCollaboration(ctx context.Context, tenantID, collaborationID string) ([]models.StageTransition, error) {
	ctx, span := tracing.StartSpan(ctx, "transition.Repository.ListByCollaboration")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(transitionSelectColumns...)
	sb.From(transitionsTable)
	sb.Where(
		sb.Equal("tenant_id", tenantID),
		sb.Equal("collaboration_id", collaborationID),
	)
	sb.OrderBy("changed_at ASC", "seq ASC")

	query, args := sb.Build()
	var items []models.StageTransition
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"collaboration_id": collaborationID}).Error("Failed to list stage transitions")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list stage transitions")
	}
	return items, nil
}
