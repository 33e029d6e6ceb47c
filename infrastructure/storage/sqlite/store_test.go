package sqlite_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tripwing/tripwing/domain/session"
	"github.com/tripwing/tripwing/infrastructure/storage/sqlite"
)

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()

	tmpDir := t.TempDir()
	cfg := sqlite.Config{
		DSN:         "file:" + tmpDir + "/test.db?mode=rwc",
		AutoMigrate: true,
	}

	s, err := sqlite.NewStore(cfg)
	if err != nil {
		t.Fatalf("NewStore() = %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStoreAppendAndMessages(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	meta := map[string]any{"tool": "search_flights"}
	if err := s.Append(ctx, "s1", session.NewMessage(session.RoleUser, "find flights", meta)); err != nil {
		t.Fatalf("Append() = %v", err)
	}
	if err := s.Append(ctx, "s1", session.NewMessage(session.RoleAssistant, "three offers found", nil)); err != nil {
		t.Fatalf("Append() = %v", err)
	}

	msgs, err := s.Messages(ctx, "s1")
	if err != nil {
		t.Fatalf("Messages() = %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("len(msgs) = %d, want 2", len(msgs))
	}
	if msgs[0].Role != session.RoleUser || msgs[0].Content != "find flights" {
		t.Errorf("first message = %+v", msgs[0])
	}
	if got := msgs[0].Metadata["tool"]; got != "search_flights" {
		t.Errorf("metadata round trip = %v", got)
	}
	if msgs[1].Metadata != nil {
		t.Errorf("second message metadata = %v, want nil", msgs[1].Metadata)
	}
	if msgs[0].Timestamp.IsZero() {
		t.Error("timestamp lost in round trip")
	}
}

func TestStoreMessagesUnknownSession(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Messages(context.Background(), "missing")
	if !errors.Is(err, session.ErrSessionNotFound) {
		t.Errorf("Messages() error = %v, want ErrSessionNotFound", err)
	}
}

func TestStoreSessionsAndDelete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, id := range []string{"a", "b"} {
		if err := s.Append(ctx, id, session.NewMessage(session.RoleUser, "x", nil)); err != nil {
			t.Fatalf("Append() = %v", err)
		}
	}

	ids, err := s.Sessions(ctx)
	if err != nil {
		t.Fatalf("Sessions() = %v", err)
	}
	if len(ids) != 2 {
		t.Errorf("Sessions() = %v, want two ids", ids)
	}

	if err := s.Delete(ctx, "a"); err != nil {
		t.Fatalf("Delete() = %v", err)
	}
	if _, err := s.Messages(ctx, "a"); !errors.Is(err, session.ErrSessionNotFound) {
		t.Errorf("Messages() after delete = %v, want ErrSessionNotFound", err)
	}
	if err := s.Delete(ctx, "a"); err != nil {
		t.Errorf("Delete() of missing session = %v, want nil", err)
	}
}

func TestStorePurgeOlderThan(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	stale := session.Message{
		Timestamp: time.Now().Add(-time.Hour),
		Role:      session.RoleUser,
		Content:   "old",
	}
	if err := s.Append(ctx, "old", stale); err != nil {
		t.Fatalf("Append() = %v", err)
	}
	if err := s.Append(ctx, "fresh", session.NewMessage(session.RoleUser, "recent", nil)); err != nil {
		t.Fatalf("Append() = %v", err)
	}

	removed, err := s.PurgeOlderThan(ctx, 30*time.Minute)
	if err != nil {
		t.Fatalf("PurgeOlderThan() = %v", err)
	}
	if removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}
	if _, err := s.Messages(ctx, "old"); !errors.Is(err, session.ErrSessionNotFound) {
		t.Error("stale session survived the purge")
	}
	if _, err := s.Messages(ctx, "fresh"); err != nil {
		t.Errorf("fresh session purged: %v", err)
	}
}

func TestStorePurgeKeepsActiveSession(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// One old message followed by a fresh one in the same session: the
	// session's last activity is recent, so it must survive.
	old := session.Message{
		Timestamp: time.Now().Add(-time.Hour),
		Role:      session.RoleUser,
		Content:   "old",
	}
	if err := s.Append(ctx, "active", old); err != nil {
		t.Fatalf("Append() = %v", err)
	}
	if err := s.Append(ctx, "active", session.NewMessage(session.RoleAssistant, "fresh", nil)); err != nil {
		t.Fatalf("Append() = %v", err)
	}

	removed, err := s.PurgeOlderThan(ctx, 30*time.Minute)
	if err != nil {
		t.Fatalf("PurgeOlderThan() = %v", err)
	}
	if removed != 0 {
		t.Errorf("removed = %d, want 0", removed)
	}

	msgs, err := s.Messages(ctx, "active")
	if err != nil {
		t.Fatalf("Messages() = %v", err)
	}
	if len(msgs) != 2 {
		t.Errorf("len(msgs) = %d, want the full log kept", len(msgs))
	}
}
