// Package pubsub provides a small generic publish/subscribe broker used to fan
// out log lines and capability resolution events to interested listeners.
package pubsub

import (
	"context"
	"time"
)

// EventType names the kind of event carried by an Event.
// Packages publishing on a broker declare their own values.
type EventType string

// LineEvent marks a single formatted log line.
const LineEvent EventType = "line"

// Event wraps a payload with its type and publish time.
type Event[T any] struct {
	Type      EventType
	Payload   T
	Timestamp time.Time
}

// Subscriber hands out subscription channels.
type Subscriber[T any] interface {
	Subscribe(ctx context.Context) <-chan Event[T]
}

// Publisher accepts events.
type Publisher[T any] interface {
	Publish(eventType EventType, payload T)
}
