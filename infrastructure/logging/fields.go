package logging

import (
	"strconv"
	"time"

	"github.com/felixgeelhaar/bolt/v3"

	"github.com/tripwing/tripwing/domain/classify"
	"github.com/tripwing/tripwing/domain/fault"
)

// Field is a function that applies structured data to a log event.
type Field func(*bolt.Event) *bolt.Event

// SessionID adds a session ID field.
func SessionID(id string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("session_id", id)
	}
}

// Component adds a component field.
func Component(name string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("component", name)
	}
}

// Operation adds an operation field.
func Operation(op string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("operation", op)
	}
}

// Kind adds a fault kind field.
func Kind(k fault.Kind) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("kind", string(k))
	}
}

// Strategy adds a recovery strategy field.
func Strategy(s fault.Strategy) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("strategy", string(s))
	}
}

// Stage adds a pipeline stage field.
func Stage(s classify.Stage) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("stage", string(s))
	}
}

// Provider adds a text-generation provider field.
func Provider(name string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("provider", name)
	}
}

// ToolName adds a remote tool name field.
func ToolName(name string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("tool", name)
	}
}

// ClientName adds a remote tool client name field.
func ClientName(name string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("client", name)
	}
}

// Duration adds a duration field in milliseconds.
func Duration(d time.Duration) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int64("duration_ms", d.Milliseconds())
	}
}

// Attempt adds a retry attempt field.
func Attempt(n int) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int("attempt", n)
	}
}

// Confidence adds a confidence field.
func Confidence(v float64) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("confidence", strconv.FormatFloat(v, 'f', 2, 64))
	}
}

// ErrorField adds an error field.
func ErrorField(err error) Field {
	return func(e *bolt.Event) *bolt.Event {
		if err == nil {
			return e
		}
		return e.Err(err)
	}
}

// Str adds a string field with custom key.
func Str(key, value string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str(key, value)
	}
}

// Apply applies fields to an event and returns it for chaining.
func Apply(e *bolt.Event, fields ...Field) *bolt.Event {
	for _, f := range fields {
		e = f(e)
	}
	return e
}
