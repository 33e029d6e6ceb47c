package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync/atomic"
	"testing"
	"time"
)

// fakeTransport wires the client to an in-process scripted server.
type fakeTransport struct {
	serve      func(in *bufio.Scanner, out io.Writer)
	startErr   error
	closeCount atomic.Int32

	clientIn  io.WriteCloser
	clientOut io.ReadCloser
	serverIn  io.ReadCloser
	serverOut io.WriteCloser
}

func (t *fakeTransport) Start(ctx context.Context) (io.WriteCloser, io.ReadCloser, error) {
	if t.startErr != nil {
		return nil, nil, t.startErr
	}

	t.serverIn, t.clientIn = io.Pipe()
	t.clientOut, t.serverOut = io.Pipe()

	go func() {
		sc := bufio.NewScanner(t.serverIn)
		t.serve(sc, t.serverOut)
	}()

	return t.clientIn, t.clientOut, nil
}

func (t *fakeTransport) Close() error {
	t.closeCount.Add(1)
	if t.clientIn != nil {
		_ = t.clientIn.Close()
	}
	if t.clientOut != nil {
		_ = t.clientOut.Close()
	}
	return nil
}

func writeResponse(out io.Writer, id any, result any) {
	raw, _ := json.Marshal(result)
	resp := rpcResponse{JSONRPC: "2.0", ID: id, Result: raw}
	line, _ := json.Marshal(resp)
	fmt.Fprintf(out, "%s\n", line)
}

func writeError(out io.Writer, id any, code int, msg string) {
	resp := rpcResponse{JSONRPC: "2.0", ID: id, Error: &rpcError{Code: code, Message: msg}}
	line, _ := json.Marshal(resp)
	fmt.Fprintf(out, "%s\n", line)
}

// scriptedServer answers initialize and dispatches further methods to fn.
func scriptedServer(fn func(method string, id any, params json.RawMessage, out io.Writer)) func(*bufio.Scanner, io.Writer) {
	return func(in *bufio.Scanner, out io.Writer) {
		for in.Scan() {
			var req rpcRequest
			if err := json.Unmarshal(in.Bytes(), &req); err != nil {
				continue
			}
			switch req.Method {
			case "initialize":
				writeResponse(out, req.ID, initResult{
					ProtocolVersion: protocolVersion,
					ServerInfo:      ServerInfo{Name: "fake-tools", Version: "0.1.0"},
				})
			case "notifications/initialized":
				// notification, no reply
			default:
				fn(req.Method, req.ID, req.Params, out)
			}
		}
	}
}

func connectedClient(t *testing.T, fn func(method string, id any, params json.RawMessage, out io.Writer)) (*Client, *fakeTransport) {
	t.Helper()
	tr := &fakeTransport{serve: scriptedServer(fn)}
	c := NewClient(WithTransport(tr), WithCallTimeout(2*time.Second))
	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("Connect() = %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c, tr
}

func TestConnectHandshake(t *testing.T) {
	c, tr := connectedClient(t, func(method string, id any, params json.RawMessage, out io.Writer) {})

	if !c.Connected() {
		t.Error("Connected() = false after successful handshake")
	}
	if got := c.ServerInfo().Name; got != "fake-tools" {
		t.Errorf("ServerInfo().Name = %q, want fake-tools", got)
	}
	if n := tr.closeCount.Load(); n != 0 {
		t.Errorf("transport closed %d times during successful connect, want 0", n)
	}
}

func TestConnectTwice(t *testing.T) {
	c, _ := connectedClient(t, func(method string, id any, params json.RawMessage, out io.Writer) {})

	if err := c.Connect(context.Background()); !errors.Is(err, ErrAlreadyConnected) {
		t.Errorf("second Connect() = %v, want ErrAlreadyConnected", err)
	}
}

func TestConnectHandshakeFailureClosesTransportOnce(t *testing.T) {
	tr := &fakeTransport{serve: func(in *bufio.Scanner, out io.Writer) {
		for in.Scan() {
			var req rpcRequest
			if err := json.Unmarshal(in.Bytes(), &req); err != nil {
				continue
			}
			if req.Method == "initialize" {
				writeError(out, req.ID, -32600, "unsupported protocol")
			}
		}
	}}

	c := NewClient(WithTransport(tr), WithCallTimeout(2*time.Second))
	err := c.Connect(context.Background())
	if !errors.Is(err, ErrConnectionFailed) {
		t.Fatalf("Connect() = %v, want ErrConnectionFailed", err)
	}
	if c.Connected() {
		t.Error("Connected() = true after failed handshake")
	}
	if n := tr.closeCount.Load(); n != 1 {
		t.Errorf("transport closed %d times, want exactly 1", n)
	}

	// Close on a disconnected session must not close the transport again.
	if err := c.Close(); err != nil {
		t.Errorf("Close() = %v", err)
	}
	if n := tr.closeCount.Load(); n != 1 {
		t.Errorf("transport closed %d times after Close, want still 1", n)
	}
}

func TestConnectTransportStartFailure(t *testing.T) {
	tr := &fakeTransport{startErr: fmt.Errorf("%w: no command specified", ErrConnectionFailed)}
	c := NewClient(WithTransport(tr))

	if err := c.Connect(context.Background()); !errors.Is(err, ErrConnectionFailed) {
		t.Errorf("Connect() = %v, want ErrConnectionFailed", err)
	}
	if c.Connected() {
		t.Error("Connected() = true after failed start")
	}
}

func TestCloseIdempotent(t *testing.T) {
	c, tr := connectedClient(t, func(method string, id any, params json.RawMessage, out io.Writer) {})

	if err := c.Close(); err != nil {
		t.Fatalf("Close() = %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("second Close() = %v", err)
	}
	if n := tr.closeCount.Load(); n != 1 {
		t.Errorf("transport closed %d times, want 1", n)
	}
	if c.Connected() {
		t.Error("Connected() = true after Close")
	}
}

func TestRequestsRequireConnection(t *testing.T) {
	c := NewClient()
	ctx := context.Background()

	if _, err := c.ListTools(ctx); !errors.Is(err, ErrNotConnected) {
		t.Errorf("ListTools on disconnected session = %v, want ErrNotConnected", err)
	}
	if _, err := c.CallTool(ctx, "search", nil); !errors.Is(err, ErrNotConnected) {
		t.Errorf("CallTool on disconnected session = %v, want ErrNotConnected", err)
	}
	if _, err := c.ListResources(ctx); !errors.Is(err, ErrNotConnected) {
		t.Errorf("ListResources on disconnected session = %v, want ErrNotConnected", err)
	}
	if _, err := c.ReadResource(ctx, "config://x"); !errors.Is(err, ErrNotConnected) {
		t.Errorf("ReadResource on disconnected session = %v, want ErrNotConnected", err)
	}
}

func TestListTools(t *testing.T) {
	c, _ := connectedClient(t, func(method string, id any, params json.RawMessage, out io.Writer) {
		if method == "tools/list" {
			writeResponse(out, id, listToolsResult{Tools: []ToolDef{
				{Name: "search_flights", Description: "search flight offers"},
				{Name: "airport_autocomplete"},
			}})
		}
	})

	tools, err := c.ListTools(context.Background())
	if err != nil {
		t.Fatalf("ListTools() = %v", err)
	}
	if len(tools) != 2 || tools[0].Name != "search_flights" {
		t.Errorf("ListTools() = %+v", tools)
	}
}

func TestCallTool(t *testing.T) {
	c, _ := connectedClient(t, func(method string, id any, params json.RawMessage, out io.Writer) {
		if method != "tools/call" {
			return
		}
		var p callToolParams
		_ = json.Unmarshal(params, &p)
		switch p.Name {
		case "search_flights":
			writeResponse(out, id, callToolResult{
				Content: []contentBlock{{Type: "text", Text: `{"offers":[]}`}},
			})
		case "broken":
			writeResponse(out, id, callToolResult{
				Content: []contentBlock{{Type: "text", Text: "provider unavailable"}},
				IsError: true,
			})
		}
	})

	ctx := context.Background()

	got, err := c.CallTool(ctx, "search_flights", json.RawMessage(`{"origin":"LHR"}`))
	if err != nil {
		t.Fatalf("CallTool() = %v", err)
	}
	if !got.Success || got.Content != `{"offers":[]}` {
		t.Errorf("CallTool() = %+v", got)
	}

	// A tool-reported failure is a result, not a transport error.
	got, err = c.CallTool(ctx, "broken", nil)
	if err != nil {
		t.Fatalf("CallTool(broken) = %v, want nil error", err)
	}
	if got.Success {
		t.Error("Success = true for a tool-reported failure")
	}
	if got.Err != "provider unavailable" {
		t.Errorf("Err = %q, want the tool's message", got.Err)
	}
}

func TestCallToolProtocolError(t *testing.T) {
	c, _ := connectedClient(t, func(method string, id any, params json.RawMessage, out io.Writer) {
		writeError(out, id, -32601, "method not found")
	})

	if _, err := c.CallTool(context.Background(), "missing", nil); err == nil {
		t.Error("CallTool() = nil error, want protocol error")
	}
}

func TestResources(t *testing.T) {
	c, _ := connectedClient(t, func(method string, id any, params json.RawMessage, out io.Writer) {
		switch method {
		case "resources/list":
			writeResponse(out, id, listResourcesResult{Resources: []Resource{
				{URI: "config://amadeus", Name: "amadeus settings", MimeType: "application/json"},
			}})
		case "resources/read":
			var p readResourceParams
			_ = json.Unmarshal(params, &p)
			writeResponse(out, id, readResourceResult{Contents: []resourceContent{
				{URI: p.URI, MimeType: "application/json", Text: `{"host":"test"}`},
			}})
		}
	})

	ctx := context.Background()

	resources, err := c.ListResources(ctx)
	if err != nil {
		t.Fatalf("ListResources() = %v", err)
	}
	if len(resources) != 1 || resources[0].URI != "config://amadeus" {
		t.Errorf("ListResources() = %+v", resources)
	}

	text, err := c.ReadResource(ctx, "config://amadeus")
	if err != nil {
		t.Fatalf("ReadResource() = %v", err)
	}
	if text != `{"host":"test"}` {
		t.Errorf("ReadResource() = %q", text)
	}
}

func TestCallTimeout(t *testing.T) {
	// Server that never answers tools/call.
	c, _ := connectedClient(t, func(method string, id any, params json.RawMessage, out io.Writer) {})

	c.config.CallTimeout = 20 * time.Millisecond
	_, err := c.CallTool(context.Background(), "slow", nil)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("CallTool() = %v, want deadline exceeded", err)
	}
}
