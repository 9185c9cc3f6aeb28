// Package shared contains common domain types and events that are used
// across all domain packages.
package shared

import (
	"context"
	"time"
)

// EventType represents the type of domain event.
type EventType string

// Domain event types - each event represents something significant that
// happened during message handling.
const (
	// Learner events
	EventProfileCreated  EventType = "learner.profile_created"
	EventGoalCaptured    EventType = "learner.goal_captured"
	EventLanguageAdopted EventType = "learner.language_adopted"

	// Progress events
	EventAchievementUnlocked EventType = "progress.achievement_unlocked"
)

// Event is the base interface for all domain events.
type Event interface {
	// EventType returns the type of the event.
	EventType() EventType

	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time

	// AggregateID returns the ID of the aggregate that produced this event.
	AggregateID() string

	// Payload returns the event data as a map for serialization.
	Payload() map[string]interface{}
}

// BaseEvent provides common event functionality.
type BaseEvent struct {
	Type        EventType `json:"type"`
	Timestamp   time.Time `json:"timestamp"`
	AggregateId string    `json:"aggregate_id"`
}

// EventType implements Event interface.
func (e BaseEvent) EventType() EventType {
	return e.Type
}

// OccurredAt implements Event interface.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// AggregateID implements Event interface.
func (e BaseEvent) AggregateID() string {
	return e.AggregateId
}

// NewBaseEvent creates a new base event.
func NewBaseEvent(eventType EventType, aggregateID string) BaseEvent {
	return BaseEvent{
		Type:        eventType,
		Timestamp:   time.Now().UTC(),
		AggregateId: aggregateID,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Learner Events
// ═══════════════════════════════════════════════════════════════════════════

// ProfileCreatedEvent is emitted when a profile is lazily created on first
// contact.
type ProfileCreatedEvent struct {
	BaseEvent
	UserID    int64  `json:"user_id"`
	FirstName string `json:"first_name"`
}

// Payload implements Event interface.
func (e ProfileCreatedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":    e.UserID,
		"first_name": e.FirstName,
	}
}

// GoalCapturedEvent is emitted when a message is stored as a learning goal.
type GoalCapturedEvent struct {
	BaseEvent
	UserID    int64  `json:"user_id"`
	Goal      string `json:"goal"`
	GoalCount int    `json:"goal_count"`
}

// Payload implements Event interface.
func (e GoalCapturedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":    e.UserID,
		"goal":       e.Goal,
		"goal_count": e.GoalCount,
	}
}

// LanguageAdoptedEvent is emitted when the preferred language is adopted
// from the first strong detection signal.
type LanguageAdoptedEvent struct {
	BaseEvent
	UserID     int64   `json:"user_id"`
	Language   string  `json:"language"`
	Confidence float64 `json:"confidence"`
}

// Payload implements Event interface.
func (e LanguageAdoptedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":    e.UserID,
		"language":   e.Language,
		"confidence": e.Confidence,
	}
}

// AchievementUnlockedEvent is emitted when an achievement tier is granted.
type AchievementUnlockedEvent struct {
	BaseEvent
	UserID      int64  `json:"user_id"`
	Achievement string `json:"achievement"`
	Interaction int    `json:"interaction"`
}

// Payload implements Event interface.
func (e AchievementUnlockedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":     e.UserID,
		"achievement": e.Achievement,
		"interaction": e.Interaction,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Event Bus Contracts
// ═══════════════════════════════════════════════════════════════════════════

// EventHandler processes a single domain event.
type EventHandler func(ctx context.Context, event Event) error

// EventBus publishes domain events to subscribed handlers.
type EventBus interface {
	// Publish delivers the event to all handlers subscribed to its type.
	Publish(ctx context.Context, event Event) error

	// Subscribe registers a handler for the given event type.
	Subscribe(eventType EventType, handler EventHandler)
}
