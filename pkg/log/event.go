package log

import (
	"time"
)

// Category classifies a connection event.
type Category uint8

const (
	// CategoryConnect covers dial and TLS establishment.
	CategoryConnect Category = iota

	// CategoryAuth covers the authentication exchange.
	CategoryAuth

	// CategorySelect covers namespace (database) selection.
	CategorySelect

	// CategoryCommand covers ordinary command round trips.
	CategoryCommand

	// CategoryRetry covers reconnect-and-resend attempts.
	CategoryRetry

	// CategoryHealth covers health-check probes.
	CategoryHealth

	// CategoryClose covers connection teardown.
	CategoryClose
)

// String returns a human-readable category name.
func (c Category) String() string {
	switch c {
	case CategoryConnect:
		return "CONNECT"
	case CategoryAuth:
		return "AUTH"
	case CategorySelect:
		return "SELECT"
	case CategoryCommand:
		return "COMMAND"
	case CategoryRetry:
		return "RETRY"
	case CategoryHealth:
		return "HEALTH"
	case CategoryClose:
		return "CLOSE"
	default:
		return "UNKNOWN"
	}
}

// Event represents one connection occurrence.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// ConnectionID uniquely identifies the connection (UUID).
	ConnectionID string `cbor:"2,keyasint"`

	// Category classifies the event type.
	Category Category `cbor:"3,keyasint"`

	// RemoteAddr is the server address (host:port).
	RemoteAddr string `cbor:"4,keyasint,omitempty"`

	// Command is the command name for command-class events.
	Command string `cbor:"5,keyasint,omitempty"`

	// Attempt is the retry attempt index for retry events.
	Attempt int `cbor:"6,keyasint,omitempty"`

	// Elapsed is how long the operation took.
	Elapsed time.Duration `cbor:"7,keyasint,omitempty"`

	// Err is the failure text; empty on success.
	Err string `cbor:"8,keyasint,omitempty"`

	// Detail carries additional free-form context (state names, reply
	// summaries).
	Detail string `cbor:"9,keyasint,omitempty"`
}

// NewEvent creates an Event stamped with the current time.
func NewEvent(connectionID string, category Category) Event {
	return Event{
		Timestamp:    time.Now(),
		ConnectionID: connectionID,
		Category:     category,
	}
}

// WithError returns a copy of the event carrying the error text.
// A nil error leaves the event unchanged.
func (e Event) WithError(err error) Event {
	if err != nil {
		e.Err = err.Error()
	}
	return e
}
