package logging

import (
	"bytes"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/felixgeelhaar/bolt/v3"

	"github.com/tripwing/tripwing/domain/classify"
	"github.com/tripwing/tripwing/domain/fault"
)

func testLogger() (*bolt.Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	handler := bolt.NewJSONHandler(buf)
	logger := bolt.New(handler).SetLevel(bolt.TRACE)
	return logger, buf
}

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	config := DefaultConfig()

	if config.Level != "info" {
		t.Errorf("Level = %s, want info", config.Level)
	}
	if config.Format != "console" {
		t.Errorf("Format = %s, want console", config.Format)
	}
	if config.Output != os.Stderr {
		t.Errorf("Output = %v, want os.Stderr", config.Output)
	}
}

func TestProductionConfig(t *testing.T) {
	t.Parallel()

	config := ProductionConfig()

	if config.Format != "json" {
		t.Errorf("Format = %s, want json", config.Format)
	}
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input    string
		expected bolt.Level
	}{
		{"trace", bolt.TRACE},
		{"debug", bolt.DEBUG},
		{"info", bolt.INFO},
		{"warn", bolt.WARN},
		{"error", bolt.ERROR},
		{"nonsense", bolt.INFO},
		{"", bolt.INFO},
	}

	for _, tt := range tests {
		if got := parseLevel(tt.input); got != tt.expected {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.input, got, tt.expected)
		}
	}
}

func TestFields(t *testing.T) {
	t.Parallel()

	logger, buf := testLogger()

	Apply(logger.Info(),
		SessionID("sess-1"),
		Component("amadeus"),
		Operation("search_flights"),
		Kind(fault.KindNetwork),
		Strategy(fault.StrategyRetry),
		Stage(classify.StageWorkType),
		Provider("ollama"),
		Attempt(2),
		Confidence(0.75),
		Duration(250*time.Millisecond),
		ErrorField(errors.New("connection refused")),
	).Msg("handled")

	out := buf.String()
	for _, want := range []string{
		`"session_id":"sess-1"`,
		`"component":"amadeus"`,
		`"operation":"search_flights"`,
		`"kind":"network"`,
		`"strategy":"retry"`,
		`"stage":"worktype"`,
		`"provider":"ollama"`,
		`"attempt":2`,
		`"confidence":"0.75"`,
		`"duration_ms":250`,
		"connection refused",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %s:\n%s", want, out)
		}
	}
}

func TestErrorFieldNil(t *testing.T) {
	t.Parallel()

	logger, buf := testLogger()
	Apply(logger.Info(), ErrorField(nil)).Msg("ok")

	if strings.Contains(buf.String(), "error") {
		t.Errorf("nil error should not add a field: %s", buf.String())
	}
}
