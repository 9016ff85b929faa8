package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/wardline/roster-api/pkg/jobs"
)

// Event types consumed by the UI/notification layer.
const (
	EventOverrideApplied     = "override_applied"
	EventInterchangeResolved = "interchange_resolved"
)

// Event is the JSON payload published to the notification channel. The ID is
// stable across retries so subscribers can deduplicate.
type Event struct {
	ID         string                 `json:"id"`
	Type       string                 `json:"type"`
	NurseIDs   []string               `json:"nurse_ids"`
	Resource   string                 `json:"resource"`
	ResourceID string                 `json:"resource_id"`
	OccurredAt time.Time              `json:"occurred_at"`
	Payload    map[string]interface{} `json:"payload,omitempty"`
}

// EventPublisher delivers a serialised event to the transport.
type EventPublisher interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}

// RedisPublisher publishes events on a Redis channel.
type RedisPublisher struct {
	client *redis.Client
}

// NewRedisPublisher wraps a Redis client.
func NewRedisPublisher(client *redis.Client) *RedisPublisher {
	return &RedisPublisher{client: client}
}

// Publish implements EventPublisher.
func (p *RedisPublisher) Publish(ctx context.Context, channel string, payload []byte) error {
	return p.client.Publish(ctx, channel, payload).Err()
}

// EventServiceConfig tunes the asynchronous publish boundary.
type EventServiceConfig struct {
	Channel    string
	Workers    int
	MaxRetries int
	RetryDelay time.Duration
}

// EventService emits schedule events to the notification layer. Publishing is
// asynchronous with bounded retries; a failed emit never fails the mutation
// that produced it.
type EventService struct {
	publisher EventPublisher
	channel   string
	queue     *jobs.Queue
	logger    *zap.Logger
}

// NewEventService constructs the service and its dispatch queue.
func NewEventService(publisher EventPublisher, cfg EventServiceConfig, logger *zap.Logger) *EventService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Channel == "" {
		cfg.Channel = "roster.events"
	}
	svc := &EventService{
		publisher: publisher,
		channel:   cfg.Channel,
		logger:    logger,
	}
	svc.queue = jobs.NewQueue("events", svc.deliver, jobs.QueueConfig{
		Workers:    cfg.Workers,
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay,
		Logger:     logger,
	})
	return svc
}

// Start begins asynchronous delivery.
func (s *EventService) Start(ctx context.Context) {
	if s == nil || s.publisher == nil {
		return
	}
	s.queue.Start(ctx)
}

// Stop drains the dispatch workers.
func (s *EventService) Stop() {
	if s == nil || s.publisher == nil {
		return
	}
	s.queue.Stop()
}

// Emit enqueues an event for delivery. Best effort: when the service is
// disabled or the queue is saturated the event is logged and dropped.
func (s *EventService) Emit(event Event) {
	if s == nil || s.publisher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	if err := s.queue.Enqueue(jobs.Job{ID: event.ID, Kind: event.Type, Payload: event}); err != nil {
		s.logger.Warn("failed to enqueue event", zap.String("event_id", event.ID), zap.Error(err))
	}
}

func (s *EventService) deliver(ctx context.Context, job jobs.Job) error {
	event, ok := job.Payload.(Event)
	if !ok {
		return fmt.Errorf("unexpected event payload type %T", job.Payload)
	}
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := s.publisher.Publish(ctx, s.channel, body); err != nil {
		return fmt.Errorf("publish event %s: %w", event.ID, err)
	}
	return nil
}
