package amadeus

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/tripwing/tripwing/domain/flight"
	"github.com/tripwing/tripwing/infrastructure/mcp"
)

// fakeSession scripts the MCP session behind a ToolClient.
type fakeSession struct {
	connectErr error
	connected  bool
	closed     int

	lastTool string
	lastArgs json.RawMessage
	result   mcp.CallResult
	callErr  error
}

func (f *fakeSession) Connect(ctx context.Context) error {
	if f.connectErr != nil {
		return f.connectErr
	}
	f.connected = true
	return nil
}

func (f *fakeSession) Close() error {
	f.connected = false
	f.closed++
	return nil
}

func (f *fakeSession) Connected() bool { return f.connected }

func (f *fakeSession) CallTool(ctx context.Context, name string, args json.RawMessage) (mcp.CallResult, error) {
	f.lastTool = name
	f.lastArgs = args
	return f.result, f.callErr
}

func (f *fakeSession) ListTools(ctx context.Context) ([]mcp.ToolDef, error) {
	return []mcp.ToolDef{{Name: ToolSearch}}, nil
}

func (f *fakeSession) ListResources(ctx context.Context) ([]mcp.Resource, error) {
	return nil, nil
}

func newFakeToolClient(sess *fakeSession) *ToolClient {
	c := NewToolClient()
	c.newSession = func(command ...string) session { return sess }
	return c
}

func TestToolClientConnect(t *testing.T) {
	sess := &fakeSession{}
	c := newFakeToolClient(sess)

	if c.Connected() {
		t.Error("Connected() = true before Connect")
	}
	if ok := c.Connect(context.Background(), "python", "server.py"); !ok {
		t.Fatal("Connect() = false, want true")
	}
	if !c.Connected() {
		t.Error("Connected() = false after successful Connect")
	}

	// Reconnecting a live session is a no-op success.
	if ok := c.Connect(context.Background(), "python", "server.py"); !ok {
		t.Error("Connect() on live session = false, want true")
	}

	c.Disconnect()
	if c.Connected() {
		t.Error("Connected() = true after Disconnect")
	}
	if sess.closed != 1 {
		t.Errorf("session closed %d times, want 1", sess.closed)
	}
}

func TestToolClientConnectFailureReturnsFalse(t *testing.T) {
	sess := &fakeSession{connectErr: errors.New("spawn failed")}
	c := newFakeToolClient(sess)

	if ok := c.Connect(context.Background(), "missing-binary"); ok {
		t.Error("Connect() = true, want false on failure")
	}
	if c.Connected() {
		t.Error("Connected() = true after failed Connect")
	}
}

func TestToolClientSearch(t *testing.T) {
	sess := &fakeSession{
		connected: true,
		result: mcp.CallResult{
			Success: true,
			Content: `{"offers":[{"id":"7","total":"199.00","currency":"EUR"}]}`,
		},
	}
	c := newFakeToolClient(sess)
	c.session = sess

	result, err := c.Search(context.Background(), flight.SearchRequest{
		Origin:        "lhr",
		Destination:   "cdg",
		DepartureDate: "2026-10-01",
	})
	if err != nil {
		t.Fatalf("Search() = %v", err)
	}
	if sess.lastTool != ToolSearch {
		t.Errorf("tool = %q, want %q", sess.lastTool, ToolSearch)
	}

	// Arguments are the normalized request.
	var sent flight.SearchRequest
	if err := json.Unmarshal(sess.lastArgs, &sent); err != nil {
		t.Fatalf("parse sent args: %v", err)
	}
	if sent.Origin != "LHR" || sent.Adults != 1 || sent.Cabin != flight.CabinEconomy {
		t.Errorf("sent args = %+v, want normalized request", sent)
	}

	if len(result.Offers) != 1 || result.Offers[0].ID != "7" {
		t.Errorf("result = %+v", result)
	}
}

func TestToolClientRemoteFailure(t *testing.T) {
	sess := &fakeSession{
		connected: true,
		result:    mcp.CallResult{Err: "provider quota exceeded"},
	}
	c := newFakeToolClient(sess)
	c.session = sess

	_, err := c.Search(context.Background(), flight.SearchRequest{
		Origin:        "LHR",
		Destination:   "CDG",
		DepartureDate: "2026-10-01",
	})
	if !errors.Is(err, ErrRemoteTool) {
		t.Errorf("Search() = %v, want ErrRemoteTool", err)
	}
}

func TestToolClientRequiresConnection(t *testing.T) {
	c := newFakeToolClient(&fakeSession{})

	_, err := c.Search(context.Background(), flight.SearchRequest{
		Origin:        "LHR",
		Destination:   "CDG",
		DepartureDate: "2026-10-01",
	})
	if !errors.Is(err, mcp.ErrNotConnected) {
		t.Errorf("Search() = %v, want ErrNotConnected", err)
	}
	if _, err := c.ListTools(context.Background()); !errors.Is(err, mcp.ErrNotConnected) {
		t.Errorf("ListTools() = %v, want ErrNotConnected", err)
	}
}

func TestServerTools(t *testing.T) {
	client, err := NewDirectClient(DirectConfig{ClientID: "id", ClientSecret: "s"})
	if err != nil {
		t.Fatalf("NewDirectClient() = %v", err)
	}

	tools := ServerTools(client)
	if len(tools) != 3 {
		t.Fatalf("ServerTools() = %d tools, want 3", len(tools))
	}

	names := map[string]bool{}
	for _, tool := range tools {
		names[tool.Name] = true
		if tool.Description == "" || tool.Handler == nil {
			t.Errorf("tool %q missing description or handler", tool.Name)
		}
	}
	for _, want := range []string{ToolAutocomplete, ToolSearch, ToolPrice} {
		if !names[want] {
			t.Errorf("missing tool %q", want)
		}
	}

	// A handler rejects malformed arguments without touching the network.
	for _, tool := range tools {
		if _, err := tool.Handler(context.Background(), json.RawMessage(`{bad json`)); err == nil {
			t.Errorf("tool %q accepted malformed arguments", tool.Name)
		}
	}
}
