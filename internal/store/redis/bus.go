// Package redis fans cache invalidations out to sibling instances over
// Redis pub/sub.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/4lexxe/DevsProject-sub004/internal/logger"
)

// EventKind names what an invalidation event clears.
type EventKind string

const (
	// KindResource clears every page plus one cached entity.
	KindResource EventKind = "resource"
	// KindFlush clears every page and every entity.
	KindFlush EventKind = "flush"
)

// Event is the wire format of an invalidation.
type Event struct {
	Kind       EventKind `json:"kind"`
	ResourceID string    `json:"resourceId,omitempty"`
	Origin     string    `json:"origin"`
	At         time.Time `json:"at"`
}

func encodeEvent(ev Event) (string, error) {
	data, err := json.Marshal(ev)
	if err != nil {
		return "", fmt.Errorf("failed to marshal invalidation: %w", err)
	}
	return string(data), nil
}

func decodeEvent(payload string) (Event, error) {
	var ev Event
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		return Event{}, fmt.Errorf("failed to unmarshal invalidation: %w", err)
	}
	switch ev.Kind {
	case KindResource:
		if ev.ResourceID == "" {
			return Event{}, fmt.Errorf("resource invalidation without id")
		}
	case KindFlush:
	default:
		return Event{}, fmt.Errorf("unknown invalidation kind %q", ev.Kind)
	}
	return ev, nil
}

// Invalidator is the local cache surface a Subscriber applies events to.
type Invalidator interface {
	InvalidateResource(id string)
	InvalidateAll()
}

// Bus publishes and receives invalidations. Events carry the bus's instance
// id so an instance ignores its own messages.
type Bus struct {
	client   *redis.Client
	instance string
	logger   logger.Logger
}

// NewBus creates a bus with a fresh instance id.
func NewBus(client *redis.Client, log logger.Logger) *Bus {
	instance := uuid.NewString()
	return &Bus{
		client:   client,
		instance: instance,
		logger:   log.With(logger.String("instance", instance)),
	}
}

// Instance returns the id stamped on published events.
func (b *Bus) Instance() string {
	return b.instance
}

// PublishInvalidation announces that resourceID changed.
func (b *Bus) PublishInvalidation(ctx context.Context, resourceID string) error {
	return b.publish(ctx, Event{Kind: KindResource, ResourceID: resourceID})
}

// PublishFlush announces that every cache must be dropped.
func (b *Bus) PublishFlush(ctx context.Context) error {
	return b.publish(ctx, Event{Kind: KindFlush})
}

func (b *Bus) publish(ctx context.Context, ev Event) error {
	ev.Origin = b.instance
	ev.At = time.Now().UTC()

	payload, err := encodeEvent(ev)
	if err != nil {
		return err
	}
	if err := b.client.Publish(ctx, InvalidationsChannel(), payload).Err(); err != nil {
		return fmt.Errorf("failed to publish invalidation: %w", err)
	}
	return nil
}

// Subscriber applies invalidations published by other instances.
type Subscriber struct {
	bus     *Bus
	target  Invalidator
	started  bool
	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// NewSubscriber creates a subscriber that applies remote events to target.
func NewSubscriber(bus *Bus, target Invalidator) *Subscriber {
	return &Subscriber{
		bus:    bus,
		target: target,
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
}

// Start subscribes and processes events in the background until Stop or
// ctx cancellation.
func (s *Subscriber) Start(ctx context.Context) error {
	pubsub := s.bus.client.Subscribe(ctx, InvalidationsChannel())

	// Wait for the subscription to be confirmed so no event is missed after Start returns.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return fmt.Errorf("failed to subscribe to %s: %w", InvalidationsChannel(), err)
	}

	s.bus.logger.Info("listening for cache invalidations",
		logger.String("channel", InvalidationsChannel()))

	s.started = true
	ch := pubsub.Channel()
	go func() {
		defer close(s.doneCh)
		defer func() { _ = pubsub.Close() }()
		for {
			select {
			case msg, ok := <-ch:
				if !ok {
					return
				}
				s.handle(msg.Payload)
			case <-s.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop ends the subscription and waits for the loop to exit.
func (s *Subscriber) Stop() {
	if !s.started {
		return
	}
	s.stopOnce.Do(func() { close(s.stopCh) })
	<-s.doneCh
}

func (s *Subscriber) handle(payload string) {
	ev, err := decodeEvent(payload)
	if err != nil {
		s.bus.logger.Warn("ignoring malformed invalidation", logger.Error(err))
		return
	}
	if ev.Origin == s.bus.instance {
		return
	}

	switch ev.Kind {
	case KindResource:
		s.target.InvalidateResource(ev.ResourceID)
	case KindFlush:
		s.target.InvalidateAll()
	}

	s.bus.logger.Debug("applied remote invalidation",
		logger.String("kind", string(ev.Kind)),
		logger.String("resource_id", ev.ResourceID),
		logger.String("origin", ev.Origin))
}
