package redis

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tripwing/tripwing/domain/session"
)

// Store is a Redis-backed implementation of session.Store. Each session is a
// Redis list of JSON-encoded messages; a sorted set tracks last activity per
// session so purging stays one range query.
type Store struct {
	client    *redis.Client
	keyPrefix string
}

// NewStore creates a Redis session store with the given configuration.
func NewStore(cfg Config, opts ...ConfigOption) (*Store, error) {
	for _, opt := range opts {
		opt(&cfg)
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		MaxRetries:   cfg.MaxRetries,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		PoolSize:     cfg.PoolSize,
	})

	ctx, cancel := context.WithTimeout(context.Background(), cfg.DialTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, errors.Join(session.ErrConnectionFailed, err)
	}

	return &Store{
		client:    client,
		keyPrefix: cfg.KeyPrefix,
	}, nil
}

// NewStoreFromClient creates a store from an existing Redis client.
func NewStoreFromClient(client *redis.Client, keyPrefix string) *Store {
	return &Store{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

// messageKey returns the list key holding a session's log.
func (s *Store) messageKey(sessionID string) string {
	return s.keyPrefix + "session:" + sessionID
}

// activityKey returns the sorted-set key scoring sessions by last activity.
func (s *Store) activityKey() string {
	return s.keyPrefix + "sessions"
}

// Append adds a message to the session's log, creating the session on first
// use.
func (s *Store) Append(ctx context.Context, sessionID string, msg session.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	raw, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, s.messageKey(sessionID), raw)
	pipe.ZAdd(ctx, s.activityKey(), redis.Z{
		Score:  float64(msg.Timestamp.UnixNano()),
		Member: sessionID,
	})
	_, err = pipe.Exec(ctx)
	return err
}

// Messages returns the session's log in insertion order.
func (s *Store) Messages(ctx context.Context, sessionID string) ([]session.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	raws, err := s.client.LRange(ctx, s.messageKey(sessionID), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	if len(raws) == 0 {
		return nil, session.ErrSessionNotFound
	}

	msgs := make([]session.Message, 0, len(raws))
	for _, raw := range raws {
		var msg session.Message
		if err := json.Unmarshal([]byte(raw), &msg); err != nil {
			return nil, err
		}
		msgs = append(msgs, msg)
	}
	return msgs, nil
}

// Sessions lists known session identifiers.
func (s *Store) Sessions(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return s.client.ZRange(ctx, s.activityKey(), 0, -1).Result()
}

// Delete removes a session and its log. Deleting an unknown session is a
// no-op.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, s.messageKey(sessionID))
	pipe.ZRem(ctx, s.activityKey(), sessionID)
	_, err := pipe.Exec(ctx)
	return err
}

// PurgeOlderThan removes sessions whose last message is older than the given
// age and returns how many sessions were removed.
func (s *Store) PurgeOlderThan(ctx context.Context, age time.Duration) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	cutoff := time.Now().Add(-age).UnixNano()
	max := strconv.FormatInt(cutoff, 10)

	stale, err := s.client.ZRangeByScore(ctx, s.activityKey(), &redis.ZRangeBy{
		Min: "-inf",
		Max: "(" + max,
	}).Result()
	if err != nil {
		return 0, err
	}
	if len(stale) == 0 {
		return 0, nil
	}

	pipe := s.client.TxPipeline()
	for _, id := range stale {
		pipe.Del(ctx, s.messageKey(id))
		pipe.ZRem(ctx, s.activityKey(), id)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return len(stale), nil
}

// Close closes the Redis connection.
func (s *Store) Close() error {
	return s.client.Close()
}

// Ping checks the Redis connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Client returns the underlying Redis client for advanced operations.
func (s *Store) Client() *redis.Client {
	return s.client
}

var _ session.Store = (*Store)(nil)
