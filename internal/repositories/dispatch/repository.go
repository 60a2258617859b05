package dispatch

import (
	"context"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"github.com/huandu/go-sqlbuilder"

	"github.com/Ramsey-B/dahlia/pkg/database"
	"github.com/Ramsey-B/dahlia/pkg/models"
	"github.com/Ramsey-B/dahlia/pkg/tracing"
)

const dispatchesTable = "sample_dispatches"

var dispatchColumns = []string{
	"id", "tenant_id", "collaboration_id", "item", "quantity", "cost", "receipt_status", "dispatched_at",
}

// Repository persists sample dispatch records
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new dispatch repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Create records a sample dispatch against a collaboration
func (r *Repository) Create(ctx context.Context, tenantID, collaborationID string, req models.CreateDispatchRequest) (*models.SampleDispatch, error) {
	ctx, span := tracing.StartSpan(ctx, "dispatch.Repository.Create")
	defer span.End()

	d := &models.SampleDispatch{
		ID:              uuid.New().String(),
		TenantID:        tenantID,
		CollaborationID: collaborationID,
		Item:            req.Item,
		Quantity:        req.Quantity,
		Cost:            req.Cost,
		ReceiptStatus:   models.ReceiptPending,
		DispatchedAt:    time.Now().UTC(),
	}

	ib := sqlbuilder.PostgreSQL.NewInsertBuilder()
	ib.InsertInto(dispatchesTable)
	ib.Cols(dispatchColumns...)
	ib.Values(d.ID, d.TenantID, d.CollaborationID, d.Item, d.Quantity, d.Cost, d.ReceiptStatus, d.DispatchedAt)

	query, args := ib.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"collaboration_id": collaborationID}).Error("Failed to create sample dispatch")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to create sample dispatch")
	}

	return d, nil
}

// ListByCollaboration returns dispatches, newest first
func (r *Repository) ListByCollaboration(ctx context.Context, tenantID, collaborationID string) ([]models.SampleDispatch, error) {
	ctx, span := tracing.StartSpan(ctx, "dispatch.Repository.ListByCollaboration")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(dispatchColumns...)
	sb.From(dispatchesTable)
	sb.Where(
		sb.Equal("tenant_id", tenantID),
		sb.Equal("collaboration_id", collaborationID),
	)
	sb.OrderBy("dispatched_at DESC")

	query, args := sb.Build()
	var items []models.SampleDispatch
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"collaboration_id": collaborationID}).Error("Failed to list sample dispatches")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list sample dispatches")
	}
	return items, nil
}

// UpdateReceiptStatus marks a dispatch as received or returned
func (r *Repository) UpdateReceiptStatus(ctx context.Context, tenantID, id string, status models.ReceiptStatus) (*models.SampleDispatch, error) {
	ctx, span := tracing.StartSpan(ctx, "dispatch.Repository.UpdateReceiptStatus")
	defer span.End()

	ub := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	ub.Update(dispatchesTable)
	ub.Set(ub.Assign("receipt_status", status))
	ub.Where(
		ub.Equal("id", id),
		ub.Equal("tenant_id", tenantID),
	)

	query, args := ub.Build()
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"id": id}).Error("Failed to update receipt status")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to update receipt status")
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return nil, httperror.NewHTTPErrorf(http.StatusNotFound, "sample dispatch %s not found", id)
	}

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(dispatchColumns...)
	sb.From(dispatchesTable)
	sb.Where(
		sb.Equal("id", id),
		sb.Equal("tenant_id", tenantID),
	)

	query, args = sb.Build()
	var d models.SampleDispatch
	if err := r.db.GetContext(ctx, &d, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"id": id}).Error("Failed to get sample dispatch")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get sample dispatch")
	}
	return &d, nil
}

type dispatchCount struct {
	CollaborationID string `db:"collaboration_id"`
	Count           int    `db:"count"`
}

// CountByCollaborations returns dispatch counts for a batch of collaborations
// in a single query. IDs with no dispatches are absent from the result.
func (r *Repository) CountByCollaborations(ctx context.Context, tenantID string, collaborationIDs []string) (map[string]int, error) {
	ctx, span := tracing.StartSpan(ctx, "dispatch.Repository.CountByCollaborations")
	defer span.End()

	if len(collaborationIDs) == 0 {
		return map[string]int{}, nil
	}

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("collaboration_id", "COUNT(*) AS count")
	sb.From(dispatchesTable)
	sb.Where(
		sb.Equal("tenant_id", tenantID),
		sb.In("collaboration_id", sqlbuilder.Flatten(collaborationIDs)...),
	)
	sb.GroupBy("collaboration_id")

	query, args := sb.Build()
	var rows []dispatchCount
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"tenant_id": tenantID}).Error("Failed to count sample dispatches")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to count sample dispatches")
	}

	counts := make(map[string]int, len(rows))
	for _, row := range rows {
		counts[row.CollaborationID] = row.Count
	}
	return counts, nil
}

// CountForCollaboration returns how many dispatches exist for one collaboration
func (r *Repository) CountForCollaboration(ctx context.Context, tenantID, collaborationID string) (int, error) {
	ctx, span := tracing.StartSpan(ctx, "dispatch.Repository.CountForCollaboration")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("COUNT(*)")
	sb.From(dispatchesTable)
	sb.Where(
		sb.Equal("tenant_id", tenantID),
		sb.Equal("collaboration_id", collaborationID),
	)

	query, args := sb.Build()
	var count int
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"collaboration_id": collaborationID}).Error("Failed to count sample dispatches")
		return 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to count sample dispatches")
	}
	return count, nil
}
