package pipeline

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/jmoiron/sqlx"

	"github.com/Ramsey-B/dahlia/internal/repositories/followup"
	"github.com/Ramsey-B/dahlia/pkg/database"
	"github.com/Ramsey-B/dahlia/pkg/models"
)

func testDeadline() time.Time {
	return time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
}

type fakeTx struct {
	committed  bool
	rolledBack bool
}

func (t *fakeTx) IsOpen() bool { return !t.committed && !t.rolledBack }

func (t *fakeTx) Commit(ctx context.Context) error {
	t.committed = true
	return nil
}

func (t *fakeTx) Rollback(ctx context.Context) error {
	if !t.committed {
		t.rolledBack = true
	}
	return nil
}

func (t *fakeTx) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return nil, nil
}
func (t *fakeTx) GetContext(ctx context.Context, dest any, query string, args ...any) error {
	return nil
}
func (t *fakeTx) SelectContext(ctx context.Context, dest any, query string, args ...any) error {
	return nil
}
func (t *fakeTx) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return nil
}

type fakeDB struct {
	tx *fakeTx
}

func newFakeDB() *fakeDB { return &fakeDB{tx: &fakeTx{}} }

func (f *fakeDB) GetTx(ctx context.Context, opts *sql.TxOptions) (context.Context, database.Tx, error) {
	return ctx, f.tx, nil
}

func (f *fakeDB) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	return nil, nil
}
func (f *fakeDB) Close() error { return nil }
func (f *fakeDB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return nil, nil
}
func (f *fakeDB) GetContext(ctx context.Context, dest any, query string, args ...any) error {
	return nil
}
func (f *fakeDB) SelectContext(ctx context.Context, dest any, query string, args ...any) error {
	return nil
}
func (f *fakeDB) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return nil
}
func (f *fakeDB) QueryRowxContext(ctx context.Context, query string, args ...any) *sqlx.Row {
	return nil
}
func (f *fakeDB) Ping() error                        { return nil }
func (f *fakeDB) PingContext(ctx context.Context) error { return nil }
func (f *fakeDB) SetConnMaxLifetime(d time.Duration) {}
func (f *fakeDB) SetMaxIdleConns(n int)              {}
func (f *fakeDB) SetMaxOpenConns(n int)              {}
func (f *fakeDB) Unsafe() *sqlx.DB                   { return nil }

type fakeCollaborationStore struct {
	items map[string]*models.Collaboration
}

func newFakeCollaborationStore() *fakeCollaborationStore {
	return &fakeCollaborationStore{items: map[string]*models.Collaboration{}}
}

func (s *fakeCollaborationStore) Create(ctx context.Context, tx database.Tx, c *models.Collaboration) error {
	copied := *c
	s.items[c.ID] = &copied
	return nil
}

func (s *fakeCollaborationStore) Get(ctx context.Context, tenantID, id string) (*models.Collaboration, error) {
	c, ok := s.items[id]
	if !ok || c.TenantID != tenantID {
		return nil, httperror.NewHTTPErrorf(http.StatusNotFound, "collaboration %s not found", id)
	}
	copied := *c
	return &copied, nil
}

func (s *fakeCollaborationStore) GetForUpdate(ctx context.Context, tx database.Tx, tenantID, id string) (*models.Collaboration, error) {
	return s.Get(ctx, tenantID, id)
}

func (s *fakeCollaborationStore) Update(ctx context.Context, tenantID, id string, req models.UpdateCollaborationRequest) (*models.Collaboration, error) {
	c, err := s.Get(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if req.InfluencerNickname != nil {
		c.InfluencerNickname = *req.InfluencerNickname
	}
	if req.OwnerID != nil {
		c.OwnerID = *req.OwnerID
	}
	if req.OwnerName != nil {
		c.OwnerName = *req.OwnerName
	}
	if req.Deadline != nil {
		c.Deadline = req.Deadline
	}
	s.items[id] = c
	copied := *c
	return &copied, nil
}

func (s *fakeCollaborationStore) SetDeadline(ctx context.Context, tenantID, id string, deadline *time.Time) (*models.Collaboration, error) {
	c, err := s.Get(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	c.Deadline = deadline
	s.items[id] = c
	copied := *c
	return &copied, nil
}

func (s *fakeCollaborationStore) SetBlockReason(ctx context.Context, tenantID, id string, reason *models.BlockReason, notes *string) (*models.Collaboration, error) {
	c, err := s.Get(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if reason == nil {
		notes = nil
	}
	c.BlockReason = reason
	c.BlockNotes = notes
	s.items[id] = c
	copied := *c
	return &copied, nil
}

func (s *fakeCollaborationStore) UpdateStage(ctx context.Context, tx database.Tx, tenantID, id string, stage models.Stage, now time.Time) error {
	c, ok := s.items[id]
	if !ok || c.TenantID != tenantID {
		return httperror.NewHTTPErrorf(http.StatusNotFound, "collaboration %s not found", id)
	}
	c.Stage = stage
	c.UpdatedAt = now
	return nil
}

func (s *fakeCollaborationStore) Delete(ctx context.Context, tenantID, id string) error {
	if _, ok := s.items[id]; !ok {
		return httperror.NewHTTPErrorf(http.StatusNotFound, "collaboration %s not found", id)
	}
	delete(s.items, id)
	return nil
}

func (s *fakeCollaborationStore) List(ctx context.Context, tenantID string, filter models.CollaborationFilter, now time.Time) (*models.CollaborationListResponse, error) {
	items := []models.Collaboration{}
	for _, c := range s.items {
		if c.TenantID == tenantID {
			items = append(items, *c)
		}
	}
	return &models.CollaborationListResponse{Items: items, TotalCount: len(items), Page: 1, PageSize: 50}, nil
}

func (s *fakeCollaborationStore) ListForBoard(ctx context.Context, tenantID string, filter models.BoardFilter) ([]models.Collaboration, error) {
	items := []models.Collaboration{}
	for _, c := range s.items {
		if c.TenantID != tenantID {
			continue
		}
		if filter.OwnerID != nil && c.OwnerID != *filter.OwnerID {
			continue
		}
		items = append(items, *c)
	}
	return items, nil
}

func (s *fakeCollaborationStore) CountByStage(ctx context.Context, tenantID string) (map[models.Stage]int, error) {
	counts := map[models.Stage]int{}
	for _, c := range s.items {
		if c.TenantID == tenantID {
			counts[c.Stage]++
		}
	}
	return counts, nil
}

func (s *fakeCollaborationStore) CountOverdue(ctx context.Context, tenantID string, now time.Time) (int, error) {
	count := 0
	for _, c := range s.items {
		if c.TenantID == tenantID && c.Deadline != nil && c.Deadline.Before(now) {
			count++
		}
	}
	return count, nil
}

type fakeTransitionStore struct {
	entries []models.StageTransition
}

func (s *fakeTransitionStore) Append(ctx context.Context, tx database.Tx, t *models.StageTransition) error {
	s.entries = append(s.entries, *t)
	return nil
}

func (s *fakeTransitionStore) ListByCollaboration(ctx context.Context, tenantID, collaborationID string) ([]models.StageTransition, error) {
	items := []models.StageTransition{}
	for _, entry := range s.entries {
		if entry.TenantID == tenantID && entry.CollaborationID == collaborationID {
			items = append(items, entry)
		}
	}
	return items, nil
}

type fakeFollowUpStore struct {
	items []models.FollowUp
}

func (s *fakeFollowUpStore) Create(ctx context.Context, tenantID, collaborationID, authorID, content string) (*models.FollowUp, error) {
	f := models.FollowUp{
		ID:              "fu-" + content,
		TenantID:        tenantID,
		CollaborationID: collaborationID,
		AuthorID:        authorID,
		Content:         content,
		CreatedAt:       time.Now().UTC(),
	}
	s.items = append(s.items, f)
	return &f, nil
}

func (s *fakeFollowUpStore) ListByCollaboration(ctx context.Context, tenantID, collaborationID string) ([]models.FollowUp, error) {
	items := []models.FollowUp{}
	for _, f := range s.items {
		if f.TenantID == tenantID && f.CollaborationID == collaborationID {
			items = append(items, f)
		}
	}
	return items, nil
}

func (s *fakeFollowUpStore) StatsByCollaborations(ctx context.Context, tenantID string, collaborationIDs []string) (map[string]followup.Stats, error) {
	stats := map[string]followup.Stats{}
	for _, f := range s.items {
		if f.TenantID != tenantID {
			continue
		}
		entry := stats[f.CollaborationID]
		entry.Count++
		if f.CreatedAt.After(entry.LastAt) {
			entry.LastAt = f.CreatedAt
		}
		stats[f.CollaborationID] = entry
	}
	return stats, nil
}

type fakeDispatchStore struct {
	items []models.SampleDispatch
}

func (s *fakeDispatchStore) Create(ctx context.Context, tenantID, collaborationID string, req models.CreateDispatchRequest) (*models.SampleDispatch, error) {
	d := models.SampleDispatch{
		ID:              "sd-" + req.Item,
		TenantID:        tenantID,
		CollaborationID: collaborationID,
		Item:            req.Item,
		Quantity:        req.Quantity,
		Cost:            req.Cost,
		ReceiptStatus:   models.ReceiptPending,
		DispatchedAt:    time.Now().UTC(),
	}
	s.items = append(s.items, d)
	return &d, nil
}

func (s *fakeDispatchStore) ListByCollaboration(ctx context.Context, tenantID, collaborationID string) ([]models.SampleDispatch, error) {
	items := []models.SampleDispatch{}
	for _, d := range s.items {
		if d.TenantID == tenantID && d.CollaborationID == collaborationID {
			items = append(items, d)
		}
	}
	return items, nil
}

func (s *fakeDispatchStore) UpdateReceiptStatus(ctx context.Context, tenantID, id string, status models.ReceiptStatus) (*models.SampleDispatch, error) {
	for i := range s.items {
		if s.items[i].ID == id && s.items[i].TenantID == tenantID {
			s.items[i].ReceiptStatus = status
			copied := s.items[i]
			return &copied, nil
		}
	}
	return nil, httperror.NewHTTPErrorf(http.StatusNotFound, "sample dispatch %s not found", id)
}

func (s *fakeDispatchStore) CountByCollaborations(ctx context.Context, tenantID string, collaborationIDs []string) (map[string]int, error) {
	counts := map[string]int{}
	for _, d := range s.items {
		if d.TenantID == tenantID {
			counts[d.CollaborationID]++
		}
	}
	return counts, nil
}

func (s *fakeDispatchStore) CountForCollaboration(ctx context.Context, tenantID, collaborationID string) (int, error) {
	count := 0
	for _, d := range s.items {
		if d.TenantID == tenantID && d.CollaborationID == collaborationID {
			count++
		}
	}
	return count, nil
}

type fakeEmitter struct {
	created []string
	changed []string
	deleted []string
}

func (e *fakeEmitter) CollaborationCreated(ctx context.Context, c *models.Collaboration) {
	e.created = append(e.created, c.ID)
}

func (e *fakeEmitter) StageChanged(ctx context.Context, c *models.Collaboration, fromStage *models.Stage, changedBy string) {
	e.changed = append(e.changed, c.ID)
}

func (e *fakeEmitter) CollaborationDeleted(ctx context.Context, tenantID, id string) {
	e.deleted = append(e.deleted, id)
}

type fakeInfluencerDirectory struct {
	profiles map[string]models.InfluencerProfile
}

func (d *fakeInfluencerDirectory) GetInfluencer(ctx context.Context, id string) (*models.InfluencerProfile, error) {
	profile, ok := d.profiles[id]
	if !ok {
		return nil, httperror.NewHTTPErrorf(http.StatusBadRequest, "influencer %s not found", id)
	}
	return &profile, nil
}

type fakeStaffDirectory struct {
	members map[string]models.StaffMember
}

func (d *fakeStaffDirectory) GetStaff(ctx context.Context, id string) (*models.StaffMember, error) {
	member, ok := d.members[id]
	if !ok {
		return nil, httperror.NewHTTPErrorf(http.StatusBadRequest, "staff member %s not found", id)
	}
	return &member, nil
}
