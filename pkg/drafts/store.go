// Package drafts stores unsaved form state in Redis so operators can resume a
// half-filled collaboration or outreach form from another session. Drafts are
// transient by design and expire on their own.
package drafts

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/dahlia/pkg/redis"
	"github.com/Ramsey-B/dahlia/pkg/tracing"
)

// DefaultTTL is how long a draft survives without being rewritten
const DefaultTTL = 72 * time.Hour

// Draft is one saved form state
type Draft struct {
	Kind      string          `json:"kind"`
	Payload   json.RawMessage `json:"payload"`
	SavedAt   time.Time       `json:"saved_at"`
	ExpiresAt time.Time       `json:"expires_at"`
}

// Store persists drafts keyed by tenant, user, and form kind
type Store struct {
	client *redis.Client
	ttl    time.Duration
	logger ectologger.Logger
}

// NewStore creates a new draft store
func NewStore(client *redis.Client, ttl time.Duration, logger ectologger.Logger) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

func draftKey(tenantID, userID, kind string) string {
	return fmt.Sprintf("draft:%s:%s:%s", tenantID, userID, kind)
}

// Save writes a draft, replacing any previous draft of the same kind and
// resetting its expiry.
func (s *Store) Save(ctx context.Context, tenantID, userID, kind string, payload json.RawMessage) (*Draft, error) {
	ctx, span := tracing.StartSpan(ctx, "drafts.Store.Save")
	defer span.End()

	now := time.Now().UTC()
	draft := Draft{
		Kind:      kind,
		Payload:   payload,
		SavedAt:   now,
		ExpiresAt: now.Add(s.ttl),
	}

	data, err := json.Marshal(draft)
	if err != nil {
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to save draft")
	}

	if err := s.client.Set(ctx, draftKey(tenantID, userID, kind), data, s.ttl); err != nil {
		s.logger.WithContext(ctx).WithError(err).WithField("kind", kind).Error("Failed to save draft")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to save draft")
	}

	return &draft, nil
}

// Get retrieves a draft, or NotFound when none exists or it expired
func (s *Store) Get(ctx context.Context, tenantID, userID, kind string) (*Draft, error) {
	ctx, span := tracing.StartSpan(ctx, "drafts.Store.Get")
	defer span.End()

	data, err := s.client.Get(ctx, draftKey(tenantID, userID, kind))
	if err != nil {
		if redis.IsNil(err) {
			return nil, httperror.NewHTTPErrorf(http.StatusNotFound, "no %s draft found", kind)
		}
		s.logger.WithContext(ctx).WithError(err).WithField("kind", kind).Error("Failed to load draft")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to load draft")
	}

	var draft Draft
	if err := json.Unmarshal([]byte(data), &draft); err != nil {
		s.logger.WithContext(ctx).WithError(err).WithField("kind", kind).Error("Failed to decode draft")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to load draft")
	}
	return &draft, nil
}

// Delete discards a draft. Deleting a missing draft is not an error.
func (s *Store) Delete(ctx context.Context, tenantID, userID, kind string) error {
	ctx, span := tracing.StartSpan(ctx, "drafts.Store.Delete")
	defer span.End()

	if err := s.client.Del(ctx, draftKey(tenantID, userID, kind)); err != nil {
		s.logger.WithContext(ctx).WithError(err).WithField("kind", kind).Error("Failed to delete draft")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to delete draft")
	}
	return nil
}
