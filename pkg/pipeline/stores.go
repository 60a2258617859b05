package pipeline

import (
	"context"
	"time"

	"github.com/Ramsey-B/dahlia/internal/repositories/followup"
	"github.com/Ramsey-B/dahlia/pkg/database"
	"github.com/Ramsey-B/dahlia/pkg/models"
)

// CollaborationStore is the persistence surface the pipeline depends on.
type CollaborationStore interface {
	Create(ctx context.Context, tx database.Tx, c *models.Collaboration) error
	Get(ctx context.Context, tenantID, id string) (*models.Collaboration, error)
	GetForUpdate(ctx context.Context, tx database.Tx, tenantID, id string) (*models.Collaboration, error)
	Update(ctx context.Context, tenantID, id string, req models.UpdateCollaborationRequest) (*models.Collaboration, error)
	SetDeadline(ctx context.Context, tenantID, id string, deadline *time.Time) (*models.Collaboration, error)
	SetBlockReason(ctx context.Context, tenantID, id string, reason *models.BlockReason, notes *string) (*models.Collaboration, error)
	UpdateStage(ctx context.Context, tx database.Tx, tenantID, id string, stage models.Stage, now time.Time) error
	Delete(ctx context.Context, tenantID, id string) error
	List(ctx context.Context, tenantID string, filter models.CollaborationFilter, now time.Time) (*models.CollaborationListResponse, error)
	ListForBoard(ctx context.Context, tenantID string, filter models.BoardFilter) ([]models.Collaboration, error)
	CountByStage(ctx context.Context, tenantID string) (map[models.Stage]int, error)
	CountOverdue(ctx context.Context, tenantID string, now time.Time) (int, error)
}

// TransitionStore is the append-only audit trail surface.
type TransitionStore interface {
	Append(ctx context.Context, tx database.Tx, t *models.StageTransition) error
	ListByCollaboration(ctx context.Context, tenantID, collaborationID string) ([]models.StageTransition, error)
}

// FollowUpStore records and aggregates follow-up notes.
type FollowUpStore interface {
	Create(ctx context.Context, tenantID, collaborationID, authorID, content string) (*models.FollowUp, error)
	ListByCollaboration(ctx context.Context, tenantID, collaborationID string) ([]models.FollowUp, error)
	StatsByCollaborations(ctx context.Context, tenantID string, collaborationIDs []string) (map[string]followup.Stats, error)
}

// DispatchStore records and counts sample dispatches.
type DispatchStore interface {
	Create(ctx context.Context, tenantID, collaborationID string, req models.CreateDispatchRequest) (*models.SampleDispatch, error)
	ListByCollaboration(ctx context.Context, tenantID, collaborationID string) ([]models.SampleDispatch, error)
	UpdateReceiptStatus(ctx context.Context, tenantID, id string, status models.ReceiptStatus) (*models.SampleDispatch, error)
	CountByCollaborations(ctx context.Context, tenantID string, collaborationIDs []string) (map[string]int, error)
	CountForCollaboration(ctx context.Context, tenantID, collaborationID string) (int, error)
}
