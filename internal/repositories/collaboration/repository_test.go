package collaboration_test

import (
	"context"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/Gobusters/ectologger/zapadapter"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Ramsey-B/dahlia/internal/repositories/collaboration"
	"github.com/Ramsey-B/dahlia/internal/repositories/transition"
	"github.com/Ramsey-B/dahlia/pkg/database"
	"github.com/Ramsey-B/dahlia/pkg/models"
)

func getTestLogger() ectologger.Logger {
	zapLogger, _ := zap.NewDevelopment()
	return zapadapter.NewZapEctoLogger(zapLogger, nil)
}

func getTestDB(t *testing.T) database.DB {
	dbHost := os.Getenv("DB_HOST")
	if dbHost == "" {
		dbHost = "localhost"
	}
	dbUser := os.Getenv("DB_USER")
	if dbUser == "" {
		dbUser = "postgres"
	}
	dbPass := os.Getenv("DB_PASSWORD")
	if dbPass == "" {
		dbPass = "postgres"
	}
	dbName := os.Getenv("DB_NAME")
	if dbName == "" {
		dbName = "dahlia"
	}

	dsn := "host=" + dbHost + " user=" + dbUser + " password=" + dbPass + " dbname=" + dbName + " sslmode=disable"
	db, err := sqlx.Connect("postgres", dsn)
	require.NoError(t, err, "Failed to connect to test database")

	return database.NewDatabaseInstance(db, getTestLogger())
}

func createTestCollaboration(t *testing.T, db database.DB, repo *collaboration.Repository, transitions *transition.Repository, tenantID string) *models.Collaboration {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC()

	c := &models.Collaboration{
		ID:                 uuid.New().String(),
		TenantID:           tenantID,
		InfluencerID:       uuid.New().String(),
		InfluencerNickname: "glowpeach",
		Platform:           "instagram",
		PlatformAccountID:  "@glowpeach",
		Stage:              models.InitialStage(),
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	txCtx, tx, err := db.GetTx(ctx, nil)
	require.NoError(t, err)
	defer tx.Rollback(ctx)

	require.NoError(t, repo.Create(txCtx, tx, c))
	require.NoError(t, transitions.Append(txCtx, tx, &models.StageTransition{
		ID:              uuid.New().String(),
		TenantID:        tenantID,
		CollaborationID: c.ID,
		ToStage:         c.Stage,
		ChangedAt:       now,
	}))
	require.NoError(t, tx.Commit(txCtx))

	return c
}

func TestCollaborationRepository_CRUD(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := getTestDB(t)
	logger := getTestLogger()
	repo := collaboration.NewRepository(db, logger)
	transitions := transition.NewRepository(db, logger)

	tenantID := uuid.New().String()
	ctx := context.Background()

	c := createTestCollaboration(t, db, repo, transitions, tenantID)

	fetched, err := repo.Get(ctx, tenantID, c.ID)
	require.NoError(t, err)
	assert.Equal(t, c.ID, fetched.ID)
	assert.Equal(t, models.StageLead, fetched.Stage)
	assert.Equal(t, "glowpeach", fetched.InfluencerNickname)

	// tenant isolation
	_, err = repo.Get(ctx, uuid.New().String(), c.ID)
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, httperror.GetStatusCode(err))

	nickname := "glowpeach_official"
	updated, err := repo.Update(ctx, tenantID, c.ID, models.UpdateCollaborationRequest{InfluencerNickname: &nickname})
	require.NoError(t, err)
	assert.Equal(t, nickname, updated.InfluencerNickname)
	assert.Equal(t, models.StageLead, updated.Stage)

	deadline := time.Now().UTC().Add(48 * time.Hour).Truncate(time.Second)
	withDeadline, err := repo.SetDeadline(ctx, tenantID, c.ID, &deadline)
	require.NoError(t, err)
	require.NotNil(t, withDeadline.Deadline)
	assert.WithinDuration(t, deadline, *withDeadline.Deadline, time.Second)

	reason := models.BlockReasonPriceDisagreement
	notes := "asking double the budget"
	blocked, err := repo.SetBlockReason(ctx, tenantID, c.ID, &reason, &notes)
	require.NoError(t, err)
	require.NotNil(t, blocked.BlockReason)
	assert.Equal(t, reason, *blocked.BlockReason)

	cleared, err := repo.SetBlockReason(ctx, tenantID, c.ID, nil, nil)
	require.NoError(t, err)
	assert.Nil(t, cleared.BlockReason)
	assert.Nil(t, cleared.BlockNotes)

	require.NoError(t, repo.Delete(ctx, tenantID, c.ID))
	_, err = repo.Get(ctx, tenantID, c.ID)
	assert.Equal(t, http.StatusNotFound, httperror.GetStatusCode(err))
}

func TestCollaborationRepository_StageUpdateWithAudit(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := getTestDB(t)
	logger := getTestLogger()
	repo := collaboration.NewRepository(db, logger)
	transitions := transition.NewRepository(db, logger)

	tenantID := uuid.New().String()
	ctx := context.Background()

	c := createTestCollaboration(t, db, repo, transitions, tenantID)

	now := time.Now().UTC()
	txCtx, tx, err := db.GetTx(ctx, nil)
	require.NoError(t, err)
	defer tx.Rollback(ctx)

	locked, err := repo.GetForUpdate(txCtx, tx, tenantID, c.ID)
	require.NoError(t, err)
	fromStage := locked.Stage

	require.NoError(t, repo.UpdateStage(txCtx, tx, tenantID, c.ID, models.StageSampled, now))
	require.NoError(t, transitions.Append(txCtx, tx, &models.StageTransition{
		ID:              uuid.New().String(),
		TenantID:        tenantID,
		CollaborationID: c.ID,
		FromStage:       &fromStage,
		ToStage:         models.StageSampled,
		ChangedAt:       now,
	}))
	require.NoError(t, tx.Commit(txCtx))

	fetched, err := repo.Get(ctx, tenantID, c.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StageSampled, fetched.Stage)

	history, err := transitions.ListByCollaboration(ctx, tenantID, c.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Nil(t, history[0].FromStage)
	assert.Equal(t, fetched.Stage, history[len(history)-1].ToStage)

	// cascade removes the trail with the record
	require.NoError(t, repo.Delete(ctx, tenantID, c.ID))
	history, err = transitions.ListByCollaboration(ctx, tenantID, c.ID)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestCollaborationRepository_ListFilters(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := getTestDB(t)
	logger := getTestLogger()
	repo := collaboration.NewRepository(db, logger)
	transitions := transition.NewRepository(db, logger)

	tenantID := uuid.New().String()
	ctx := context.Background()
	now := time.Now().UTC()

	first := createTestCollaboration(t, db, repo, transitions, tenantID)
	second := createTestCollaboration(t, db, repo, transitions, tenantID)

	yesterday := now.Add(-24 * time.Hour)
	_, err := repo.SetDeadline(ctx, tenantID, second.ID, &yesterday)
	require.NoError(t, err)

	stage := models.StageLead
	byStage, err := repo.List(ctx, tenantID, models.CollaborationFilter{Stage: &stage}, now)
	require.NoError(t, err)
	assert.Equal(t, 2, byStage.TotalCount)

	overdue := true
	overdueOnly, err := repo.List(ctx, tenantID, models.CollaborationFilter{Overdue: &overdue}, now)
	require.NoError(t, err)
	require.Equal(t, 1, overdueOnly.TotalCount)
	assert.Equal(t, second.ID, overdueOnly.Items[0].ID)

	keyword, err := repo.List(ctx, tenantID, models.CollaborationFilter{Keyword: "glowpeach"}, now)
	require.NoError(t, err)
	assert.Equal(t, 2, keyword.TotalCount)

	counts, err := repo.CountByStage(ctx, tenantID)
	require.NoError(t, err)
	assert.Equal(t, 2, counts[models.StageLead])

	overdueCount, err := repo.CountOverdue(ctx, tenantID, now)
	require.NoError(t, err)
	assert.Equal(t, 1, overdueCount)

	require.NoError(t, repo.Delete(ctx, tenantID, first.ID))
	require.NoError(t, repo.Delete(ctx, tenantID, second.ID))
}

func TestTransitionRepository_ReplayOrderBreaksTimestampTies(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := getTestDB(t)
	logger := getTestLogger()
	repo := collaboration.NewRepository(db, logger)
	transitions := transition.NewRepository(db, logger)

	tenantID := uuid.New().String()
	ctx := context.Background()

	c := createTestCollaboration(t, db, repo, transitions, tenantID)

	// two moves sharing one timestamp must replay in insert order
	from := c.Stage
	sameInstant := time.Now().UTC().Add(time.Minute).Truncate(time.Second)
	stages := []models.Stage{models.StageContacted, models.StageQuoted}

	txCtx, tx, err := db.GetTx(ctx, nil)
	require.NoError(t, err)
	defer tx.Rollback(ctx)
	for _, stage := range stages {
		fromStage := from
		require.NoError(t, transitions.Append(txCtx, tx, &models.StageTransition{
			ID:              uuid.New().String(),
			TenantID:        tenantID,
			CollaborationID: c.ID,
			FromStage:       &fromStage,
			ToStage:         stage,
			ChangedAt:       sameInstant,
		}))
		from = stage
	}
	require.NoError(t, tx.Commit(txCtx))

	trail, err := transitions.ListByCollaboration(ctx, tenantID, c.ID)
	require.NoError(t, err)
	require.Len(t, trail, 3)
	assert.Equal(t, models.StageContacted, trail[1].ToStage)
	assert.Equal(t, models.StageQuoted, trail[2].ToStage)
	assert.True(t, trail[1].Seq < trail[2].Seq)

	require.NoError(t, repo.Delete(ctx, tenantID, c.ID))
}
