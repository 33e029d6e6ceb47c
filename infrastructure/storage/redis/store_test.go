package redis

import (
	"testing"
)

func TestNewStoreFromClient(t *testing.T) {
	t.Parallel()

	t.Run("keeps the given prefix", func(t *testing.T) {
		t.Parallel()
		s := NewStoreFromClient(nil, "test:")

		if s == nil {
			t.Fatal("NewStoreFromClient() returned nil")
		}
		if s.keyPrefix != "test:" {
			t.Errorf("keyPrefix = %s, want test:", s.keyPrefix)
		}
	})

	t.Run("accepts an empty prefix", func(t *testing.T) {
		t.Parallel()
		s := NewStoreFromClient(nil, "")

		if s.keyPrefix != "" {
			t.Errorf("keyPrefix = %s, want empty", s.keyPrefix)
		}
	})
}

func TestStoreKeys(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		keyPrefix string
		sessionID string
		want      string
	}{
		{
			name:      "default prefix",
			keyPrefix: "tripwing:",
			sessionID: "abc-123",
			want:      "tripwing:session:abc-123",
		},
		{
			name:      "empty prefix",
			keyPrefix: "",
			sessionID: "abc-123",
			want:      "session:abc-123",
		},
		{
			name:      "custom namespace",
			keyPrefix: "myapp:prod:",
			sessionID: "s1",
			want:      "myapp:prod:session:s1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s := NewStoreFromClient(nil, tt.keyPrefix)
			if got := s.messageKey(tt.sessionID); got != tt.want {
				t.Errorf("messageKey() = %s, want %s", got, tt.want)
			}
			if got := s.activityKey(); got != tt.keyPrefix+"sessions" {
				t.Errorf("activityKey() = %s, want %s", got, tt.keyPrefix+"sessions")
			}
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	if cfg.Address != "localhost:6379" {
		t.Errorf("Address = %s", cfg.Address)
	}
	if cfg.KeyPrefix != "tripwing:" {
		t.Errorf("KeyPrefix = %s", cfg.KeyPrefix)
	}
	if cfg.MaxRetries != 3 {
		t.Errorf("MaxRetries = %d", cfg.MaxRetries)
	}
}

func TestConfigOptions(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	for _, opt := range []ConfigOption{
		WithAddress("redis.internal:6380"),
		WithPassword("secret"),
		WithDB(2),
		WithKeyPrefix("flights:"),
		WithPoolSize(25),
	} {
		opt(&cfg)
	}

	if cfg.Address != "redis.internal:6380" || cfg.Password != "secret" || cfg.DB != 2 {
		t.Errorf("connection options not applied: %+v", cfg)
	}
	if cfg.KeyPrefix != "flights:" || cfg.PoolSize != 25 {
		t.Errorf("pool options not applied: %+v", cfg)
	}
}
