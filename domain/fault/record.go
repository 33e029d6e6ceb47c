package fault

import (
	"runtime"
	"time"
)

// Record captures one handled fault. Records are immutable after creation
// and live in an append-only history owned by the recovery handler.
type Record struct {
	Err       error
	Kind      Kind
	Component string
	Operation string
	Metadata  map[string]any
	Timestamp time.Time
	Stack     string
}

// NewRecord creates a record for a handled fault, capturing the current
// stack trace.
func NewRecord(err error, kind Kind, component, operation string, metadata map[string]any) Record {
	if metadata == nil {
		metadata = map[string]any{}
	}
	return Record{
		Err:       err,
		Kind:      kind,
		Component: component,
		Operation: operation,
		Metadata:  metadata,
		Timestamp: time.Now(),
		Stack:     captureStack(),
	}
}

// Matches reports whether the record belongs to the given component and
// operation pair.
func (r Record) Matches(component, operation string) bool {
	return r.Component == component && r.Operation == operation
}

func captureStack() string {
	buf := make([]byte, 4096)
	n := runtime.Stack(buf, false)
	return string(buf[:n])
}
