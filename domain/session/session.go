// Package session provides the conversation log domain model.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Roles for conversation messages.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Store errors.
var (
	ErrSessionNotFound  = errors.New("session not found")
	ErrConnectionFailed = errors.New("session store connection failed")
)

// Message is one entry in a session's append-only log.
type Message struct {
	Timestamp time.Time      `json:"timestamp"`
	Role      string         `json:"role"`
	Content   string         `json:"content"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// NewMessage creates a timestamped message.
func NewMessage(role, content string, metadata map[string]any) Message {
	return Message{
		Timestamp: time.Now(),
		Role:      role,
		Content:   content,
		Metadata:  metadata,
	}
}

// NewSessionID returns a fresh session identifier.
func NewSessionID() string {
	return uuid.NewString()
}

// Store is an append-only message log keyed by session identifier. Messages
// within a session keep insertion order; entries are removed only by
// whole-session delete or age-based purge.
type Store interface {
	// Append adds a message to the session's log, creating the session on
	// first use.
	Append(ctx context.Context, sessionID string, msg Message) error

	// Messages returns the session's log in insertion order.
	Messages(ctx context.Context, sessionID string) ([]Message, error)

	// Sessions lists known session identifiers.
	Sessions(ctx context.Context) ([]string, error)

	// Delete removes a session and its log.
	Delete(ctx context.Context, sessionID string) error

	// PurgeOlderThan removes sessions whose last message is older than the
	// given age and returns how many sessions were removed.
	PurgeOlderThan(ctx context.Context, age time.Duration) (int, error)

	// Close releases store resources.
	Close() error
}
