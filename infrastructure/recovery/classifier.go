// Package recovery provides fault classification and the recovery-strategy
// dispatcher. It is the single place deciding whether a caught fault is
// retried, recovered through a fallback handler, or surfaced as terminal.
//
// The retry contract is caller-driven: Handle returns a retry-scheduled
// outcome after suspending for the backoff delay, and the caller re-invokes
// the failed operation. The handler never loops internally.
package recovery

import (
	"strings"

	"github.com/tripwing/tripwing/domain/fault"
)

var (
	networkTerms    = []string{"connection", "network", "dns", "socket"}
	apiTerms        = []string{"api", "400", "401", "403", "404", "500", "502", "503"}
	authTerms       = []string{"401", "unauthorized"}
	rateLimitTerms  = []string{"429", "rate limit"}
	timeoutTerms    = []string{"timeout", "timed out"}
	fileTerms       = []string{"file", "directory", "path", "permission"}
	validationTerms = []string{"validation", "invalid", "malformed"}
	remoteToolTerms = []string{"mcp", "remote tool", "tool server"}
	providerTerms   = []string{"llm", "planner", "provider", "openai", "ollama", "anthropic", "mistral", "groq"}
)

// Classify maps a fault and the name of the component that raised it to a
// fault kind. It is a pure function and never panics; a nil error maps to
// the unknown kind. Rules are evaluated in a fixed priority order and the
// first match wins.
func Classify(err error, component string) fault.Kind {
	if err == nil {
		return fault.KindUnknown
	}

	desc := strings.ToLower(err.Error())
	comp := strings.ToLower(component)

	if containsAny(desc, networkTerms) {
		return fault.KindNetwork
	}

	if containsAny(desc, apiTerms) {
		if containsAny(desc, authTerms) {
			return fault.KindAuth
		}
		if containsAny(desc, rateLimitTerms) {
			return fault.KindRateLimit
		}
		return fault.KindAPI
	}

	if containsAny(desc, timeoutTerms) {
		return fault.KindTimeout
	}

	if containsAny(desc, fileTerms) {
		return fault.KindFile
	}

	if containsAny(desc, validationTerms) {
		return fault.KindValidation
	}

	if containsAny(comp, remoteToolTerms) || containsAny(desc, remoteToolTerms) {
		return fault.KindRemoteTool
	}

	if containsAny(comp, providerTerms) {
		return fault.KindProvider
	}

	return fault.KindUnknown
}

func containsAny(s string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(s, term) {
			return true
		}
	}
	return false
}
