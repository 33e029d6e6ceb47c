// Package application provides the host that orchestrates classification,
// remote tool sessions, and conversation logging.
package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/tripwing/tripwing/domain/classify"
	"github.com/tripwing/tripwing/domain/session"
	"github.com/tripwing/tripwing/infrastructure/logging"
	"github.com/tripwing/tripwing/infrastructure/mcp"
	"github.com/tripwing/tripwing/infrastructure/pipeline"
	"github.com/tripwing/tripwing/infrastructure/planner"
	"github.com/tripwing/tripwing/infrastructure/recovery"
	"github.com/tripwing/tripwing/infrastructure/storage/memory"
)

// Host errors.
var (
	ErrNoProvider         = errors.New("at least one provider is required")
	ErrClientNotFound     = errors.New("tool client not found")
	ErrClientNotConnected = errors.New("tool client not connected")
	ErrToolNotFound       = errors.New("tool not found in any connected client")
)

// ToolSession is the remote tool connection the host manages. *mcp.Client
// implements it.
type ToolSession interface {
	Connect(ctx context.Context) error
	Close() error
	Connected() bool
	ListTools(ctx context.Context) ([]mcp.ToolDef, error)
	CallTool(ctx context.Context, name string, args json.RawMessage) (mcp.CallResult, error)
	ListResources(ctx context.Context) ([]mcp.Resource, error)
	ReadResource(ctx context.Context, uri string) (string, error)
}

// HostConfig configures the host.
type HostConfig struct {
	// Providers is the switch-provider fallback order. At least one is
	// required.
	Providers []planner.Provider

	// Handler routes faults during classification. A default handler is
	// created when nil.
	Handler *recovery.Handler

	// Store logs conversation turns. Defaults to the in-memory store.
	Store session.Store

	// CallTimeout bounds each remote tool call.
	CallTimeout time.Duration
}

// Host owns the tool client registry, the provider chain, and the session
// log. All methods are safe for concurrent use.
type Host struct {
	mu      sync.RWMutex
	clients map[string]ToolSession

	pipelines []*pipeline.Pipeline
	handler   *recovery.Handler
	store     session.Store

	callTimeout time.Duration

	// newSession builds a tool session for AddToolClient. Tests replace it.
	newSession func(command ...string) ToolSession
}

// NewHost creates a host from the given configuration.
func NewHost(cfg HostConfig) (*Host, error) {
	if len(cfg.Providers) == 0 {
		return nil, ErrNoProvider
	}

	handler := cfg.Handler
	if handler == nil {
		handler = recovery.NewHandler()
	}

	store := cfg.Store
	if store == nil {
		store = memory.NewStore()
	}

	pipelines := make([]*pipeline.Pipeline, 0, len(cfg.Providers))
	for _, provider := range cfg.Providers {
		p, err := pipeline.New(provider, handler)
		if err != nil {
			return nil, fmt.Errorf("failed to build pipeline for %s: %w", provider.Name(), err)
		}
		pipelines = append(pipelines, p)
	}

	h := &Host{
		clients:     make(map[string]ToolSession),
		pipelines:   pipelines,
		handler:     handler,
		store:       store,
		callTimeout: cfg.CallTimeout,
	}
	h.newSession = func(command ...string) ToolSession {
		opts := []mcp.ClientOption{
			mcp.WithClientInfo("tripwing-host", "1.0.0"),
			mcp.WithCommand(command...),
		}
		if h.callTimeout > 0 {
			opts = append(opts, mcp.WithCallTimeout(h.callTimeout))
		}
		return mcp.NewClient(opts...)
	}
	return h, nil
}

// Handler returns the host's fault recovery handler.
func (h *Host) Handler() *recovery.Handler {
	return h.handler
}

// Store returns the host's session store.
func (h *Host) Store() session.Store {
	return h.store
}

// AddToolClient launches and connects a remote tool server under the given
// name, replacing any previous client with that name. It reports whether the
// connection succeeded; failures are logged, never propagated.
func (h *Host) AddToolClient(ctx context.Context, name string, command ...string) bool {
	s := h.newSession(command...)
	if err := s.Connect(ctx); err != nil {
		logging.Get().Warn().
			Str("client", name).
			Err(err).
			Msg("failed to connect tool client")
		return false
	}

	h.mu.Lock()
	prev, replaced := h.clients[name]
	h.clients[name] = s
	h.mu.Unlock()

	if replaced {
		_ = prev.Close()
	}

	logging.Get().Info().
		Str("client", name).
		Msg("tool client connected")
	return true
}

// RemoveToolClient disconnects and removes a tool client. Removing an
// unknown client is a no-op.
func (h *Host) RemoveToolClient(name string) {
	h.mu.Lock()
	s, ok := h.clients[name]
	delete(h.clients, name)
	h.mu.Unlock()

	if !ok {
		return
	}
	_ = s.Close()
	logging.Get().Info().
		Str("client", name).
		Msg("tool client disconnected")
}

// ToolClients lists registered client names in sorted order.
func (h *Host) ToolClients() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	names := make([]string, 0, len(h.clients))
	for name := range h.clients {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// snapshot copies the registry so list and call operations never hold the
// lock across the wire.
func (h *Host) snapshot() map[string]ToolSession {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make(map[string]ToolSession, len(h.clients))
	for name, s := range h.clients {
		out[name] = s
	}
	return out
}

// ListAllTools lists tools from every connected client, keyed by client
// name. A client whose listing fails contributes an empty slice.
func (h *Host) ListAllTools(ctx context.Context) map[string][]mcp.ToolDef {
	all := make(map[string][]mcp.ToolDef)
	for name, s := range h.snapshot() {
		if !s.Connected() {
			continue
		}
		tools, err := s.ListTools(ctx)
		if err != nil {
			logging.Get().Warn().
				Str("client", name).
				Err(err).
				Msg("failed to list tools")
			all[name] = nil
			continue
		}
		all[name] = tools
	}
	return all
}

// FindTool returns the name of a connected client exposing the given tool.
func (h *Host) FindTool(ctx context.Context, toolName string) (string, bool) {
	for client, tools := range h.ListAllTools(ctx) {
		for _, tool := range tools {
			if tool.Name == toolName {
				return client, true
			}
		}
	}
	return "", false
}

// CallTool invokes a tool on a specific client.
func (h *Host) CallTool(ctx context.Context, clientName, toolName string, args json.RawMessage) (mcp.CallResult, error) {
	h.mu.RLock()
	s, ok := h.clients[clientName]
	h.mu.RUnlock()

	if !ok {
		return mcp.CallResult{}, fmt.Errorf("%w: %s", ErrClientNotFound, clientName)
	}
	if !s.Connected() {
		return mcp.CallResult{}, fmt.Errorf("%w: %s", ErrClientNotConnected, clientName)
	}
	return s.CallTool(ctx, toolName, args)
}

// CallAnyTool invokes a tool on whichever connected client exposes it.
func (h *Host) CallAnyTool(ctx context.Context, toolName string, args json.RawMessage) (mcp.CallResult, error) {
	client, ok := h.FindTool(ctx, toolName)
	if !ok {
		return mcp.CallResult{}, fmt.Errorf("%w: %s", ErrToolNotFound, toolName)
	}
	return h.CallTool(ctx, client, toolName, args)
}

// ListAllResources lists resources from every connected client, keyed by
// client name.
func (h *Host) ListAllResources(ctx context.Context) map[string][]mcp.Resource {
	all := make(map[string][]mcp.Resource)
	for name, s := range h.snapshot() {
		if !s.Connected() {
			continue
		}
		resources, err := s.ListResources(ctx)
		if err != nil {
			logging.Get().Warn().
				Str("client", name).
				Err(err).
				Msg("failed to list resources")
			all[name] = nil
			continue
		}
		all[name] = resources
	}
	return all
}

// ReadResource reads a resource from a specific client.
func (h *Host) ReadResource(ctx context.Context, clientName, uri string) (string, error) {
	h.mu.RLock()
	s, ok := h.clients[clientName]
	h.mu.RUnlock()

	if !ok {
		return "", fmt.Errorf("%w: %s", ErrClientNotFound, clientName)
	}
	if !s.Connected() {
		return "", fmt.Errorf("%w: %s", ErrClientNotConnected, clientName)
	}
	return s.ReadResource(ctx, uri)
}

// Classify runs the classification pipeline over the provider chain. A
// switch-provider outcome moves to the next configured provider; the last
// provider's result is returned regardless. An empty sessionID gets a fresh
// identifier. Both the user input and the classification result are appended
// to the session log.
func (h *Host) Classify(ctx context.Context, input, sessionID string) (*classify.Classification, error) {
	if sessionID == "" {
		sessionID = session.NewSessionID()
	}

	if err := h.store.Append(ctx, sessionID, session.NewMessage(session.RoleUser, input, nil)); err != nil {
		return nil, fmt.Errorf("failed to log user turn: %w", err)
	}

	var result *classify.Classification
	for i, p := range h.pipelines {
		var switchProvider bool
		result, switchProvider = p.Run(ctx, input, sessionID)
		if !switchProvider || i == len(h.pipelines)-1 {
			break
		}
		logging.Get().Warn().
			Str("session_id", sessionID).
			Str("provider", p.Provider().Name()).
			Msg("provider fault, switching to next provider")
	}

	summary, err := json.Marshal(map[string]any{
		"work_type":          result.WorkType,
		"category":           result.Category,
		"search_type":        result.SearchType,
		"overall_confidence": result.OverallConfidence,
	})
	if err != nil {
		return nil, err
	}

	meta := map[string]any{"provider": result.Provider}
	if len(result.Errors) > 0 {
		meta["errors"] = len(result.Errors)
	}
	if err := h.store.Append(ctx, sessionID, session.NewMessage(session.RoleAssistant, string(summary), meta)); err != nil {
		return nil, fmt.Errorf("failed to log assistant turn: %w", err)
	}

	return result, nil
}

// Shutdown disconnects every tool client and closes the session store.
func (h *Host) Shutdown() error {
	h.mu.Lock()
	clients := h.clients
	h.clients = make(map[string]ToolSession)
	h.mu.Unlock()

	var errs []error
	for name, s := range clients {
		if err := s.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", name, err))
		}
	}
	if err := h.store.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
