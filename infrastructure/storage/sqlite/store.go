package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/tripwing/tripwing/domain/session"
)

// Store is a SQLite-backed implementation of session.Store.
type Store struct {
	db *sql.DB
}

// NewStore creates a SQLite session store with the given configuration.
func NewStore(cfg Config, opts ...Option) (*Store, error) {
	for _, opt := range opts {
		opt(&cfg)
	}

	db, err := openDB(cfg)
	if err != nil {
		return nil, err
	}

	s := &Store{db: db}
	if cfg.AutoMigrate {
		if err := s.migrate(); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	return s, nil
}

// NewStoreFromDB creates a store from an existing database connection.
func NewStoreFromDB(db *sql.DB) (*Store, error) {
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, err
	}
	return s, nil
}

// migrate creates the messages table if it doesn't exist.
func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS messages (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL,
			ts INTEGER NOT NULL,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			metadata TEXT
		);
		CREATE INDEX IF NOT EXISTS idx_messages_session ON messages(session_id);
		CREATE INDEX IF NOT EXISTS idx_messages_ts ON messages(ts);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return errors.Join(ErrMigrationFailed, err)
	}
	return nil
}

// Append adds a message to the session's log, creating the session on first
// use.
func (s *Store) Append(ctx context.Context, sessionID string, msg session.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var metadata sql.NullString
	if len(msg.Metadata) > 0 {
		raw, err := json.Marshal(msg.Metadata)
		if err != nil {
			return err
		}
		metadata = sql.NullString{String: string(raw), Valid: true}
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO messages (session_id, ts, role, content, metadata) VALUES (?, ?, ?, ?, ?)",
		sessionID, msg.Timestamp.UnixNano(), msg.Role, msg.Content, metadata,
	)
	return err
}

// Messages returns the session's log in insertion order.
func (s *Store) Messages(ctx context.Context, sessionID string) ([]session.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT ts, role, content, metadata FROM messages WHERE session_id = ? ORDER BY id",
		sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []session.Message
	for rows.Next() {
		var ts int64
		var metadata sql.NullString
		var msg session.Message
		if err := rows.Scan(&ts, &msg.Role, &msg.Content, &metadata); err != nil {
			return nil, err
		}
		msg.Timestamp = time.Unix(0, ts)
		if metadata.Valid {
			if err := json.Unmarshal([]byte(metadata.String), &msg.Metadata); err != nil {
				return nil, err
			}
		}
		msgs = append(msgs, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(msgs) == 0 {
		return nil, session.ErrSessionNotFound
	}
	return msgs, nil
}

// Sessions lists known session identifiers.
func (s *Store) Sessions(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, "SELECT DISTINCT session_id FROM messages")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Delete removes a session and its log. Deleting an unknown session is a
// no-op.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, "DELETE FROM messages WHERE session_id = ?", sessionID)
	return err
}

// PurgeOlderThan removes sessions whose last message is older than the given
// age and returns how many sessions were removed.
func (s *Store) PurgeOlderThan(ctx context.Context, age time.Duration) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	cutoff := time.Now().Add(-age).UnixNano()

	var stale int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM (
			SELECT session_id FROM messages GROUP BY session_id HAVING MAX(ts) < ?
		)`,
		cutoff,
	).Scan(&stale)
	if err != nil {
		return 0, err
	}
	if stale == 0 {
		return 0, nil
	}

	_, err = s.db.ExecContext(ctx,
		`DELETE FROM messages WHERE session_id IN (
			SELECT session_id FROM messages GROUP BY session_id HAVING MAX(ts) < ?
		)`,
		cutoff,
	)
	if err != nil {
		return 0, err
	}
	return stale, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying database connection.
func (s *Store) DB() *sql.DB {
	return s.db
}

var _ session.Store = (*Store)(nil)
