package collaboration

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/huandu/go-sqlbuilder"

	"github.com/Ramsey-B/dahlia/pkg/database"
	"github.com/Ramsey-B/dahlia/pkg/models"
	"github.com/Ramsey-B/dahlia/pkg/tracing"
)

const collaborationsTable = "collaborations"

var collaborationColumns = []string{
	"id", "tenant_id", "influencer_id", "influencer_nickname", "platform", "platform_account_id",
	"owner_id", "owner_name", "stage", "deadline", "block_reason", "block_notes",
	"created_at", "updated_at",
}

// Repository handles collaboration persistence. Stage is written only through
// the transaction-scoped UpdateStage, called by the pipeline engine together
// with the audit append; every other write path leaves stage untouched.
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new collaboration repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new collaboration inside the given transaction. The engine
// owns the transaction so the initial audit row commits with the record.
func (r *Repository) Create(ctx context.Context, tx database.Tx, c *models.Collaboration) error {
	ctx, span := tracing.StartSpan(ctx, "collaboration.Repository.Create")
	defer span.End()

	ib := sqlbuilder.PostgreSQL.NewInsertBuilder()
	ib.InsertInto(collaborationsTable)
	ib.Cols(collaborationColumns...)
	ib.Values(
		c.ID, c.TenantID, c.InfluencerID, c.InfluencerNickname, c.Platform, c.PlatformAccountID,
		c.OwnerID, c.OwnerName, c.Stage, c.Deadline, c.BlockReason, c.BlockNotes,
		c.CreatedAt, c.UpdatedAt,
	)

	query, args := ib.Build()
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"id": c.ID, "tenant_id": c.TenantID}).Error("Failed to create collaboration")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to create collaboration")
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{"id": c.ID}).Info("Created collaboration")
	return nil
}

// Get retrieves a collaboration by ID
func (r *Repository) Get(ctx context.Context, tenantID, id string) (*models.Collaboration, error) {
	ctx, span := tracing.StartSpan(ctx, "collaboration.Repository.Get")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(collaborationColumns...)
	sb.From(collaborationsTable)
	sb.Where(
		sb.Equal("id", id),
		sb.Equal("tenant_id", tenantID),
	)

	query, args := sb.Build()
	var c models.Collaboration
	if err := r.db.GetContext(ctx, &c, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, httperror.NewHTTPErrorf(http.StatusNotFound, "collaboration %s not found", id)
		}
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"id": id, "tenant_id": tenantID}).Error("Failed to get collaboration")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get collaboration")
	}

	return &c, nil
}

// GetForUpdate loads a collaboration row inside the given transaction with a
// row lock, so concurrent stage moves against the same record serialize.
func (r *Repository) GetForUpdate(ctx context.Context, tx database.Tx, tenantID, id string) (*models.Collaboration, error) {
	ctx, span := tracing.StartSpan(ctx, "collaboration.Repository.GetForUpdate")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(collaborationColumns...)
	sb.From(collaborationsTable)
	sb.Where(
		sb.Equal("id", id),
		sb.Equal("tenant_id", tenantID),
	)
	sb.SQL("FOR UPDATE")

	query, args := sb.Build()
	var c models.Collaboration
	if err := tx.GetContext(ctx, &c, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, httperror.NewHTTPErrorf(http.StatusNotFound, "collaboration %s not found", id)
		}
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"id": id, "tenant_id": tenantID}).Error("Failed to lock collaboration")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get collaboration")
	}

	return &c, nil
}

// Update changes display fields and the deadline directly. Stage is not an
// updatable column here; stage moves go through UpdateStage only.
func (r *Repository) Update(ctx context.Context, tenantID, id string, req models.UpdateCollaborationRequest) (*models.Collaboration, error) {
	ctx, span := tracing.StartSpan(ctx, "collaboration.Repository.Update")
	defer span.End()

	now := time.Now().UTC()
	ub := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	ub.Update(collaborationsTable)

	assignments := []string{ub.Assign("updated_at", now)}
	if req.InfluencerNickname != nil {
		assignments = append(assignments, ub.Assign("influencer_nickname", *req.InfluencerNickname))
	}
	if req.Platform != nil {
		assignments = append(assignments, ub.Assign("platform", *req.Platform))
	}
	if req.PlatformAccountID != nil {
		assignments = append(assignments, ub.Assign("platform_account_id", *req.PlatformAccountID))
	}
	if req.OwnerID != nil {
		assignments = append(assignments, ub.Assign("owner_id", *req.OwnerID))
	}
	if req.OwnerName != nil {
		assignments = append(assignments, ub.Assign("owner_name", *req.OwnerName))
	}
	if req.Deadline != nil {
		assignments = append(assignments, ub.Assign("deadline", *req.Deadline))
	}
	ub.Set(assignments...)
	ub.Where(
		ub.Equal("id", id),
		ub.Equal("tenant_id", tenantID),
	)

	query, args := ub.Build()
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"id": id, "tenant_id": tenantID}).Error("Failed to update collaboration")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to update collaboration")
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return nil, httperror.NewHTTPErrorf(http.StatusNotFound, "collaboration %s not found", id)
	}

	return r.Get(ctx, tenantID, id)
}

// SetDeadline sets or clears the deadline independent of stage.
func (r *Repository) SetDeadline(ctx context.Context, tenantID, id string, deadline *time.Time) (*models.Collaboration, error) {
	ctx, span := tracing.StartSpan(ctx, "collaboration.Repository.SetDeadline")
	defer span.End()

	ub := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	ub.Update(collaborationsTable)
	ub.Set(
		ub.Assign("deadline", deadline),
		ub.Assign("updated_at", time.Now().UTC()),
	)
	ub.Where(
		ub.Equal("id", id),
		ub.Equal("tenant_id", tenantID),
	)

	query, args := ub.Build()
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"id": id, "tenant_id": tenantID}).Error("Failed to set deadline")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to set deadline")
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return nil, httperror.NewHTTPErrorf(http.StatusNotFound, "collaboration %s not found", id)
	}

	return r.Get(ctx, tenantID, id)
}

// SetBlockReason sets or clears the blocking annotation. A nil reason clears
// the notes as well.
func (r *Repository) SetBlockReason(ctx context.Context, tenantID, id string, reason *models.BlockReason, notes *string) (*models.Collaboration, error) {
	ctx, span := tracing.StartSpan(ctx, "collaboration.Repository.SetBlockReason")
	defer span.End()

	if reason == nil {
		notes = nil
	}

	ub := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	ub.Update(collaborationsTable)
	ub.Set(
		ub.Assign("block_reason", reason),
		ub.Assign("block_notes", notes),
		ub.Assign("updated_at", time.Now().UTC()),
	)
	ub.Where(
		ub.Equal("id", id),
		ub.Equal("tenant_id", tenantID),
	)

	query, args := ub.Build()
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"id": id, "tenant_id": tenantID}).Error("Failed to set block reason")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to set block reason")
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return nil, httperror.NewHTTPErrorf(http.StatusNotFound, "collaboration %s not found", id)
	}

	return r.Get(ctx, tenantID, id)
}

// UpdateStage writes the stage column inside the engine's transaction. Only the
// pipeline engine calls this, together with the audit append.
func (r *Repository) UpdateStage(ctx context.Context, tx database.Tx, tenantID, id string, stage models.Stage, now time.Time) error {
	ctx, span := tracing.StartSpan(ctx, "collaboration.Repository.UpdateStage")
	defer span.End()

	ub := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	ub.Update(collaborationsTable)
	ub.Set(
		ub.Assign("stage", stage),
		ub.Assign("updated_at", now),
	)
	ub.Where(
		ub.Equal("id", id),
		ub.Equal("tenant_id", tenantID),
	)

	query, args := ub.Build()
	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"id": id, "tenant_id": tenantID, "stage": stage}).Error("Failed to update stage")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to update stage")
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return httperror.NewHTTPErrorf(http.StatusNotFound, "collaboration %s not found", id)
	}

	return nil
}

// Delete removes the collaboration row. Stage transitions, follow-ups, and
// sample dispatches reference the row with ON DELETE CASCADE, so the audit
// trail is removed in the same statement and can never be orphaned.
func (r *Repository) Delete(ctx context.Context, tenantID, id string) error {
	ctx, span := tracing.StartSpan(ctx, "collaboration.Repository.Delete")
	defer span.End()

	db := sqlbuilder.PostgreSQL.NewDeleteBuilder()
	db.DeleteFrom(collaborationsTable)
	db.Where(
		db.Equal("id", id),
		db.Equal("tenant_id", tenantID),
	)

	query, args := db.Build()
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"id": id, "tenant_id": tenantID}).Error("Failed to delete collaboration")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to delete collaboration")
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return httperror.NewHTTPErrorf(http.StatusNotFound, "collaboration %s not found", id)
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{"id": id}).Info("Deleted collaboration")
	return nil
}

func (r *Repository) applyFilter(sb *sqlbuilder.SelectBuilder, tenantID string, filter models.CollaborationFilter, now time.Time) {
	where := []string{
		sb.Equal("tenant_id", tenantID),
	}
	if filter.Stage != nil {
		where = append(where, sb.Equal("stage", *filter.Stage))
	}
	if filter.OwnerID != nil {
		where = append(where, sb.Equal("owner_id", *filter.OwnerID))
	}
	if filter.Keyword != "" {
		pattern := "%" + filter.Keyword + "%"
		where = append(where, sb.Or(
			sb.ILike("influencer_nickname", pattern),
			sb.ILike("platform_account_id", pattern),
			sb.ILike("owner_name", pattern),
		))
	}
	if filter.Overdue != nil {
		if *filter.Overdue {
			where = append(where, sb.IsNotNull("deadline"), sb.LessThan("deadline", now))
		} else {
			where = append(where, sb.Or(sb.IsNull("deadline"), sb.GreaterEqualThan("deadline", now)))
		}
	}
	sb.Where(where...)
}

// List retrieves collaborations with filtering and pagination. Overdue
// filtering uses the caller-supplied now so it matches the derived card state.
func (r *Repository) List(ctx context.Context, tenantID string, filter models.CollaborationFilter, now time.Time) (*models.CollaborationListResponse, error) {
	ctx, span := tracing.StartSpan(ctx, "collaboration.Repository.List")
	defer span.End()

	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 || filter.PageSize > 200 {
		filter.PageSize = 50
	}
	offset := (filter.Page - 1) * filter.PageSize

	countSb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	countSb.Select("COUNT(*)")
	countSb.From(collaborationsTable)
	r.applyFilter(countSb, tenantID, filter, now)

	countQuery, countArgs := countSb.Build()
	var totalCount int
	if err := r.db.GetContext(ctx, &totalCount, countQuery, countArgs...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"tenant_id": tenantID}).Error("Failed to count collaborations")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to count collaborations")
	}

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(collaborationColumns...)
	sb.From(collaborationsTable)
	r.applyFilter(sb, tenantID, filter, now)
	sb.OrderBy("created_at DESC")
	sb.Limit(filter.PageSize).Offset(offset)

	query, args := sb.Build()
	var items []models.Collaboration
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"tenant_id": tenantID}).Error("Failed to list collaborations")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list collaborations")
	}

	return &models.CollaborationListResponse{
		Items:      items,
		TotalCount: totalCount,
		Page:       filter.Page,
		PageSize:   filter.PageSize,
	}, nil
}

// ListForBoard returns all collaborations matching the board filter, unpaged.
// Board assembly groups them by stage in catalog order.
func (r *Repository) ListForBoard(ctx context.Context, tenantID string, filter models.BoardFilter) ([]models.Collaboration, error) {
	ctx, span := tracing.StartSpan(ctx, "collaboration.Repository.ListForBoard")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(collaborationColumns...)
	sb.From(collaborationsTable)
	where := []string{
		sb.Equal("tenant_id", tenantID),
	}
	if filter.OwnerID != nil {
		where = append(where, sb.Equal("owner_id", *filter.OwnerID))
	}
	if filter.Keyword != "" {
		pattern := "%" + filter.Keyword + "%"
		where = append(where, sb.Or(
			sb.ILike("influencer_nickname", pattern),
			sb.ILike("platform_account_id", pattern),
			sb.ILike("owner_name", pattern),
		))
	}
	sb.Where(where...)
	sb.OrderBy("created_at DESC")

	query, args := sb.Build()
	var items []models.Collaboration
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"tenant_id": tenantID}).Error("Failed to list collaborations for board")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list collaborations")
	}
	return items, nil
}

type stageCount struct {
	Stage models.Stage `db:"stage"`
	Count int          `db:"count"`
}

// CountByStage returns the number of collaborations per stage.
func (r *Repository) CountByStage(ctx context.Context, tenantID string) (map[models.Stage]int, error) {
	ctx, span := tracing.StartSpan(ctx, "collaboration.Repository.CountByStage")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("stage", "COUNT(*) AS count")
	sb.From(collaborationsTable)
	sb.Where(sb.Equal("tenant_id", tenantID))
	sb.GroupBy("stage")

	query, args := sb.Build()
	var rows []stageCount
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"tenant_id": tenantID}).Error("Failed to count collaborations by stage")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to count collaborations")
	}

	counts := make(map[models.Stage]int, len(rows))
	for _, row := range rows {
		counts[row.Stage] = row.Count
	}
	return counts, nil
}

// CountOverdue returns the number of collaborations whose deadline has passed.
func (r *Repository) CountOverdue(ctx context.Context, tenantID string, now time.Time) (int, error) {
	ctx, span := tracing.StartSpan(ctx, "collaboration.Repository.CountOverdue")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("COUNT(*)")
	sb.From(collaborationsTable)
	sb.Where(
		sb.Equal("tenant_id", tenantID),
		sb.IsNotNull("deadline"),
		sb.LessThan("deadline", now),
	)

	query, args := sb.Build()
	var count int
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"tenant_id": tenantID}).Error("Failed to count overdue collaborations")
		return 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to count collaborations")
	}
	return count, nil
}
