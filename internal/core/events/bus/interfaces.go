package bus

import "time"

// Event types published by a game session.
const (
	TypeTurnApplied        = "turn.applied"
	TypeActionRejected     = "action.rejected"
	TypePlayerDetected     = "player.detected"
	TypeLevelWon           = "level.won"
	TypeLevelRestarted     = "level.restarted"
	TypeTurnUndone         = "turn.undone"
	TypePropagationWarning = "propagation.warning"

	// TypeAll subscribes a handler to every event type.
	TypeAll = "*"
)

// EventBus is a thread-safe, in-process pub/sub bus for turn notifications.
//
// Key characteristics:
// - Type-based fan-out: handlers subscribe by Event.Type() string, or to TypeAll.
// - Synchronous delivery: Publish calls handlers in the caller goroutine, in subscription order.
// - Error aggregation: handler errors are joined and returned from Publish/PublishBatch.
// - Optional observability: metrics are produced only when observers are registered.
//
// Handlers must not publish on the same bus re-entrantly while holding their own locks.
type EventBus interface {
	// Publish delivers the event synchronously to every active subscriber of event.Type()
	// and to TypeAll subscribers. A joined error is returned if any handler fails.
	Publish(event Event) error
	// PublishWithFilters drops the event silently if any filter rejects it.
	PublishWithFilters(event Event, filters ...EventFilter) error
	// PublishBatch publishes events in order and aggregates errors across them.
	PublishBatch(events ...Event) error

	// Subscribe registers a handler for eventType.
	Subscribe(eventType string, handler EventHandler) (Subscription, error)
	// Unsubscribe cancels the given Subscription. It is safe to call with nil.
	Unsubscribe(Subscription) error
	// SubscriberCount reports active handlers registered for eventType.
	SubscriberCount(eventType string) int

	AddObserver(obs EventBusObserver)
	RemoveObserver(obs EventBusObserver)
	// GetMetrics returns a snapshot of counters. Counters only move while an observer is registered.
	GetMetrics() EventBusMetrics
}

// Event is an immutable notification about one turn of a session.
type Event interface {
	Type() string
	// Source identifies the publishing session, usually the level id.
	Source() string
	Timestamp() time.Time
	// Turn is the session turn the event refers to.
	Turn() int
	Data() any
}

type (
	// EventHandler is invoked per delivered event.
	EventHandler func(event Event) error
	// EventFilter decides whether an event should be delivered.
	EventFilter func(event Event) bool
)

// Subscription is a registered handler bound to an event type.
type Subscription interface {
	ID() string
	EventType() string
	IsActive() bool
	// Cancel de-registers the handler. Multiple calls are safe.
	Cancel() error
}

// EventBusObserver is notified about deliveries. Observers should return quickly.
type EventBusObserver interface {
	OnPublish(eventType string, event Event)
	OnDelivered(eventType string, handlers int, err error, duration time.Duration)
}

// EventBusMetrics is updated only while at least one observer is registered.
type EventBusMetrics struct {
	Published         uint64
	DeliveredHandlers uint64
	Errors            uint64
	DroppedByFilters  uint64
	SubscribersActive uint64
}
