package planner

import (
	"context"
	"strings"
	"sync"
)

// ScriptRule maps a prompt fragment to a canned reply.
type ScriptRule struct {
	// Match is a case-insensitive substring looked up in the last user
	// message. Empty matches everything.
	Match string

	// Reply is returned as the assistant message.
	Reply string

	// Err, when set, is returned instead of a completion.
	Err error
}

// ScriptedProvider returns deterministic completions for tests and offline
// runs. Rules are checked in order; the first match wins.
type ScriptedProvider struct {
	mu    sync.Mutex
	rules []ScriptRule
	calls []CompletionRequest
}

// NewScriptedProvider creates a scripted provider with the given rules.
func NewScriptedProvider(rules ...ScriptRule) *ScriptedProvider {
	return &ScriptedProvider{rules: rules}
}

// Name returns the provider name.
func (p *ScriptedProvider) Name() string {
	return "scripted"
}

// Complete implements Provider.
func (p *ScriptedProvider) Complete(_ context.Context, req CompletionRequest) (CompletionResponse, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.calls = append(p.calls, req)

	prompt := lastUserContent(req.Messages)
	for _, rule := range p.rules {
		if rule.Match != "" && !strings.Contains(strings.ToLower(prompt), strings.ToLower(rule.Match)) {
			continue
		}
		if rule.Err != nil {
			return CompletionResponse{}, rule.Err
		}
		return CompletionResponse{
			Model:   "scripted",
			Message: Message{Role: RoleAssistant, Content: rule.Reply},
		}, nil
	}

	return CompletionResponse{
		Model:   "scripted",
		Message: Message{Role: RoleAssistant, Content: ""},
	}, nil
}

// Calls returns every request seen so far.
func (p *ScriptedProvider) Calls() []CompletionRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]CompletionRequest(nil), p.calls...)
}

func lastUserContent(messages []Message) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == RoleUser {
			return messages[i].Content
		}
	}
	return ""
}
