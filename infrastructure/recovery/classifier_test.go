package recovery

import (
	"errors"
	"fmt"
	"testing"

	"github.com/tripwing/tripwing/domain/fault"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name      string
		err       string
		component string
		want      fault.Kind
	}{
		{"connection refused", "connection refused by host", "amadeus", fault.KindNetwork},
		{"dns failure", "DNS lookup failed", "amadeus", fault.KindNetwork},
		{"socket closed", "socket closed unexpectedly", "", fault.KindNetwork},
		{"plain api error", "API returned 500 internal server error", "amadeus", fault.KindAPI},
		{"not found", "404 not found", "amadeus", fault.KindAPI},
		{"unauthorized", "API error: 401 unauthorized", "amadeus", fault.KindAuth},
		{"unauthorized word only", "request was unauthorized by the api", "amadeus", fault.KindAuth},
		{"rate limited", "api responded 429 rate limit exceeded", "amadeus", fault.KindRateLimit},
		{"timeout", "request timed out after 30s", "amadeus", fault.KindTimeout},
		{"file missing", "no such directory: /tmp/x", "filesystem", fault.KindFile},
		{"permission", "permission denied", "filesystem", fault.KindFile},
		{"validation", "invalid IATA code", "amadeus", fault.KindValidation},
		{"malformed", "malformed response body", "", fault.KindValidation},
		{"remote tool by component", "handshake rejected by peer", "mcp", fault.KindRemoteTool},
		{"remote tool by description", "mcp server exited early", "", fault.KindRemoteTool},
		{"provider by component", "completion failed", "planner.openai", fault.KindProvider},
		{"provider ollama", "model not loaded", "ollama", fault.KindProvider},
		{"unknown", "something odd happened", "somewhere", fault.KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(errors.New(tt.err), tt.component)
			if got != tt.want {
				t.Errorf("Classify(%q, %q) = %v, want %v", tt.err, tt.component, got, tt.want)
			}
		})
	}
}

func TestClassifyNilError(t *testing.T) {
	if got := Classify(nil, "anything"); got != fault.KindUnknown {
		t.Errorf("Classify(nil) = %v, want unknown", got)
	}
}

func TestClassifyTimeoutWinsOverComponent(t *testing.T) {
	// Timeout wording wins regardless of component name.
	components := []string{"", "mcp", "planner", "openai", "filesystem"}
	for _, comp := range components {
		err := fmt.Errorf("operation timed out")
		if got := Classify(err, comp); got != fault.KindTimeout {
			t.Errorf("Classify(timeout, %q) = %v, want timeout", comp, got)
		}
	}
}

func TestClassifyAuthBeforeGenericAPI(t *testing.T) {
	// 401/unauthorized wins inside the api rule even when "api" is present.
	for _, desc := range []string{
		"api call failed with 401",
		"unauthorized api access",
		"401 unauthorized: api key rejected",
	} {
		if got := Classify(errors.New(desc), "amadeus"); got != fault.KindAuth {
			t.Errorf("Classify(%q) = %v, want auth", desc, got)
		}
	}
}

func TestClassifyNetworkBeforeAPI(t *testing.T) {
	// Rule order is fixed: network terms are checked before api terms.
	err := errors.New("api unreachable: connection reset")
	if got := Classify(err, "amadeus"); got != fault.KindNetwork {
		t.Errorf("Classify() = %v, want network (first matching rule wins)", got)
	}
}
