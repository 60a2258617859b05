package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/dahlia/pkg/kafka"
	"github.com/Ramsey-B/dahlia/pkg/models"
	"github.com/Ramsey-B/dahlia/pkg/tracing"
)

const (
	TypeCollaborationCreated = "collaboration.created"
	TypeStageChanged         = "collaboration.stage_changed"
	TypeCollaborationDeleted = "collaboration.deleted"
)

// CollaborationEvent is the envelope published for pipeline changes
type CollaborationEvent struct {
	Type            string                `json:"type"`
	TenantID        string                `json:"tenant_id"`
	CollaborationID string                `json:"collaboration_id"`
	Stage           *models.Stage         `json:"stage,omitempty"`
	FromStage       *models.Stage         `json:"from_stage,omitempty"`
	ChangedBy       string                `json:"changed_by,omitempty"`
	OccurredAt      time.Time             `json:"occurred_at"`
	Collaboration   *models.Collaboration `json:"collaboration,omitempty"`
}

// Emitter publishes pipeline events after the owning transaction commits.
// Publishing is best effort; the stored record is the source of truth, so a
// failed publish is logged and dropped rather than failing the request.
type Emitter interface {
	CollaborationCreated(ctx context.Context, c *models.Collaboration)
	StageChanged(ctx context.Context, c *models.Collaboration, fromStage *models.Stage, changedBy string)
	CollaborationDeleted(ctx context.Context, tenantID, id string)
}

type kafkaEmitter struct {
	producer *kafka.Producer
	logger   ectologger.Logger
}

// NewKafkaEmitter creates an emitter backed by the Kafka producer
func NewKafkaEmitter(producer *kafka.Producer, logger ectologger.Logger) Emitter {
	return &kafkaEmitter{
		producer: producer,
		logger:   logger,
	}
}

func (e *kafkaEmitter) publish(ctx context.Context, event CollaborationEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		e.logger.WithContext(ctx).WithError(err).WithField("type", event.Type).Error("Failed to serialize event")
		return
	}

	headers := map[string]string{
		"tenant_id":  event.TenantID,
		"event_type": event.Type,
	}
	if traceID := tracing.GetTraceID(ctx); traceID != "" {
		headers["trace_id"] = traceID
	}

	key := event.TenantID + ":" + event.CollaborationID
	if err := e.producer.Publish(ctx, key, headers, data); err != nil {
		e.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"type":             event.Type,
			"collaboration_id": event.CollaborationID,
		}).Error("Failed to publish event")
	}
}

func (e *kafkaEmitter) CollaborationCreated(ctx context.Context, c *models.Collaboration) {
	stage := c.Stage
	e.publish(ctx, CollaborationEvent{
		Type:            TypeCollaborationCreated,
		TenantID:        c.TenantID,
		CollaborationID: c.ID,
		Stage:           &stage,
		OccurredAt:      time.Now().UTC(),
		Collaboration:   c,
	})
}

func (e *kafkaEmitter) StageChanged(ctx context.Context, c *models.Collaboration, fromStage *models.Stage, changedBy string) {
	stage := c.Stage
	e.publish(ctx, CollaborationEvent{
		Type:            TypeStageChanged,
		TenantID:        c.TenantID,
		CollaborationID: c.ID,
		Stage:           &stage,
		FromStage:       fromStage,
		ChangedBy:       changedBy,
		OccurredAt:      time.Now().UTC(),
	})
}

func (e *kafkaEmitter) CollaborationDeleted(ctx context.Context, tenantID, id string) {
	e.publish(ctx, CollaborationEvent{
		Type:            TypeCollaborationDeleted,
		TenantID:        tenantID,
		CollaborationID: id,
		OccurredAt:      time.Now().UTC(),
	})
}

type noopEmitter struct{}

// NewNoopEmitter returns an emitter that drops all events. Used when Kafka is
// disabled in local development.
func NewNoopEmitter() Emitter {
	return noopEmitter{}
}

func (noopEmitter) CollaborationCreated(context.Context, *models.Collaboration) {}
func (noopEmitter) StageChanged(context.Context, *models.Collaboration, *models.Stage, string) {
}
func (noopEmitter) CollaborationDeleted(context.Context, string, string) {}
