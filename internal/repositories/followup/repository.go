package followup

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

const followUpsTable = "follow_ups"

var followUpColumns = []string{
	"id", "tenant_id", "collaboration_id", "author_id", "content", "created_at",
}

// Repository persists follow-up notes
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new follow-up repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Create records a follow-up note against a collaboration
func (r *Repository) Create(ctx context.Context, tenantID, collaborationID, authorID, content string) (*models.FollowUp, error) {
	ctx, span := tracing.StartSpan(ctx, "followup.Repository.Create")
	defer span.End()

	f := &models.FollowUp{
		ID:              uuid.New().String(),
		TenantID:        tenantID,
		CollaborationID: collaborationID,
		AuthorID:        authorID,
		Content:         content,
		CreatedAt:       time.Now().UTC(),
	}

	ib := sqlbuilder.PostgreSQL.NewInsertBuilder()
	ib.InsertInto(followUpsTable)
	ib.Cols(followUpColumns...)
	ib.Values(f.ID, f.TenantID, f.CollaborationID, f.AuthorID, f.Content, f.CreatedAt)

	query, args := ib.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"collaboration_id": collaborationID}).Error("Failed to create follow-up")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to create follow-up")
	}

	return f, nil
}

// ListByCollaboration returns follow-ups, newest first
func (r *Repository) ListByCollaboration(ctx context.Context, tenantID, collaborationID string) ([]models.FollowUp, error) {
	ctx, span := tracing.StartSpan(ctx, "followup.Repository.ListByCollaboration")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(followUpColumns...)
	sb.From(followUpsTable)
	sb.Where(
		sb.Equal("tenant_id", tenantID),
		sb.Equal("collaboration_id", collaborationID),
	)
	sb.OrderBy("created_at DESC")

	query, args := sb.Build()
	var items []models.FollowUp
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"collaboration_id": collaborationID}).Error("Failed to list follow-ups")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list follow-ups")
	}
	return items, nil
}

type followUpStats struct {
	CollaborationID string    `db:"collaboration_id"`
	Count           int       `db:"count"`
	LastAt          time.Time `db:"last_at"`
}

// Stats holds per-collaboration follow-up aggregates
type Stats struct {
	Count  int
	LastAt time.Time
}

// StatsByCollaborations returns follow-up counts and the latest note time for
// a batch of collaborations in a single query. IDs with no follow-ups are
// absent from the result.
func (r *Repository) StatsByCollaborations(ctx context.Context, tenantID string, collaborationIDs []string) (map[string]Stats, error) {
	ctx, span := tracing.StartSpan(ctx, "followup.Repository.StatsByCollaborations")
	defer span.End()

	if len(collaborationIDs) == 0 {
		return map[string]Stats{}, nil
	}

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("collaboration_id", "COUNT(*) AS count", "MAX(created_at) AS last_at")
	sb.From(followUpsTable)
	sb.Where(
		sb.Equal("tenant_id", tenantID),
		sb.In("collaboration_id", sqlbuilder.Flatten(collaborationIDs)...),
	)
	sb.GroupBy("collaboration_id")

	query, args := sb.Build()
	var rows []followUpStats
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"tenant_id": tenantID}).Error("Failed to aggregate follow-ups")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to aggregate follow-ups")
	}

	stats := make(map[string]Stats, len(rows))
	for _, row := range rows {
		stats[row.CollaborationID] = Stats{Count: row.Count, LastAt: row.LastAt}
	}
	return stats, nil
}
