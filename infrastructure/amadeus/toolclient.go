package amadeus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tripwing/tripwing/domain/flight"
	"github.com/tripwing/tripwing/infrastructure/logging"
	"github.com/tripwing/tripwing/infrastructure/mcp"
)

// Tool names exposed by the flight tool server.
const (
	ToolAutocomplete = "autocomplete_locations"
	ToolSearch       = "search_flights"
	ToolPrice        = "price_offer"
)

// ErrRemoteTool wraps a failure reported by the remote tool itself.
var ErrRemoteTool = errors.New("remote tool failed")

// session is the slice of the MCP client the tool client needs.
type session interface {
	Connect(ctx context.Context) error
	Close() error
	Connected() bool
	CallTool(ctx context.Context, name string, args json.RawMessage) (mcp.CallResult, error)
	ListTools(ctx context.Context) ([]mcp.ToolDef, error)
	ListResources(ctx context.Context) ([]mcp.Resource, error)
}

// ToolClient drives flight search through a remote MCP tool server. Connect
// reports success as a bool and never propagates the underlying error; the
// failure detail goes to the log.
type ToolClient struct {
	session    session
	newSession func(command ...string) session
}

// NewToolClient creates a disconnected tool client.
func NewToolClient() *ToolClient {
	return &ToolClient{
		newSession: func(command ...string) session {
			return mcp.NewClient(
				mcp.WithClientInfo("tripwing-amadeus", "1.0.0"),
				mcp.WithCommand(command...),
			)
		},
	}
}

// Connect spawns the tool server and performs the handshake. It returns
// whether the session is usable.
func (c *ToolClient) Connect(ctx context.Context, command ...string) bool {
	if c.session != nil && c.session.Connected() {
		return true
	}

	c.session = c.newSession(command...)
	if err := c.session.Connect(ctx); err != nil {
		logging.Get().Warn().
			Str("component", "amadeus.tools").
			Err(err).
			Msg("tool server connection failed")
		return false
	}
	return true
}

// Disconnect closes the session. Safe to call when not connected.
func (c *ToolClient) Disconnect() {
	if c.session == nil {
		return
	}
	_ = c.session.Close()
}

// Connected reports whether the tool session is live.
func (c *ToolClient) Connected() bool {
	return c.session != nil && c.session.Connected()
}

// ListTools returns the remote server's tool definitions.
func (c *ToolClient) ListTools(ctx context.Context) ([]mcp.ToolDef, error) {
	if !c.Connected() {
		return nil, mcp.ErrNotConnected
	}
	return c.session.ListTools(ctx)
}

// ListResources returns the remote server's resource definitions.
func (c *ToolClient) ListResources(ctx context.Context) ([]mcp.Resource, error) {
	if !c.Connected() {
		return nil, mcp.ErrNotConnected
	}
	return c.session.ListResources(ctx)
}

// call invokes one remote tool and decodes its JSON content into out.
func (c *ToolClient) call(ctx context.Context, tool string, args, out any) error {
	if !c.Connected() {
		return mcp.ErrNotConnected
	}

	payload, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("marshal %s args: %w", tool, err)
	}

	result, err := c.session.CallTool(ctx, tool, payload)
	if err != nil {
		return err
	}
	if !result.Success {
		return fmt.Errorf("%w: %s: %s", ErrRemoteTool, tool, result.Err)
	}

	if err := json.Unmarshal([]byte(result.Content), out); err != nil {
		return fmt.Errorf("parse %s result: %w", tool, err)
	}
	return nil
}

// Autocomplete looks up locations through the remote tool.
func (c *ToolClient) Autocomplete(ctx context.Context, req flight.AutocompleteRequest) (flight.AutocompleteResult, error) {
	if err := req.Normalize(); err != nil {
		return flight.AutocompleteResult{}, err
	}
	var result flight.AutocompleteResult
	if err := c.call(ctx, ToolAutocomplete, req, &result); err != nil {
		return flight.AutocompleteResult{}, err
	}
	return result, nil
}

// Search runs a flight search through the remote tool.
func (c *ToolClient) Search(ctx context.Context, req flight.SearchRequest) (flight.SearchResult, error) {
	if err := req.Normalize(); err != nil {
		return flight.SearchResult{}, err
	}
	var result flight.SearchResult
	if err := c.call(ctx, ToolSearch, req, &result); err != nil {
		return flight.SearchResult{}, err
	}
	return result, nil
}

// Price confirms an offer's price through the remote tool.
func (c *ToolClient) Price(ctx context.Context, req flight.PriceRequest) (flight.PriceResult, error) {
	if err := req.Normalize(); err != nil {
		return flight.PriceResult{}, err
	}
	var result flight.PriceResult
	if err := c.call(ctx, ToolPrice, req, &result); err != nil {
		return flight.PriceResult{}, err
	}
	return result, nil
}
