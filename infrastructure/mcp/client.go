// Package mcp implements the stdio JSON-RPC session used to talk to
// Model Context Protocol tool servers, plus a server wrapper for exposing
// tools in the other direction.
package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tripwing/tripwing/infrastructure/logging"
)

var (
	// ErrNotConnected indicates the session is not connected.
	ErrNotConnected = errors.New("session not connected")

	// ErrAlreadyConnected indicates Connect was called on a live session.
	ErrAlreadyConnected = errors.New("session already connected")

	// ErrConnectionFailed indicates the connection to the server failed.
	ErrConnectionFailed = errors.New("connection failed")
)

const protocolVersion = "2024-11-05"

// ToolDef describes a tool advertised by a server.
type ToolDef struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	InputSchema json.RawMessage `json:"inputSchema,omitempty"`
}

// Resource describes a resource advertised by a server.
type Resource struct {
	URI         string `json:"uri"`
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
	MimeType    string `json:"mimeType,omitempty"`
}

// CallResult is the outcome of a tool call. A tool reporting failure is an
// expected result, not a transport error: Success is false and Err carries
// the tool's message.
type CallResult struct {
	Success bool
	Content string
	Err     string
}

// ServerInfo identifies the peer on the other end of the session.
type ServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// ClientConfig configures a session client.
type ClientConfig struct {
	// Name and Version identify this client during the handshake.
	Name    string
	Version string

	// Transport supplies the pipes. Defaults to a CommandTransport when
	// WithCommand is used.
	Transport Transport

	// CallTimeout bounds each request round-trip. Zero means no bound
	// beyond the caller's context.
	CallTimeout time.Duration
}

// ClientOption configures a client.
type ClientOption func(*ClientConfig)

// WithClientInfo sets the name and version sent during the handshake.
func WithClientInfo(name, version string) ClientOption {
	return func(c *ClientConfig) {
		c.Name = name
		c.Version = version
	}
}

// WithCommand sets the server command to spawn over stdio.
func WithCommand(command ...string) ClientOption {
	return func(c *ClientConfig) {
		c.Transport = NewCommandTransport(command...)
	}
}

// WithTransport sets a custom transport.
func WithTransport(t Transport) ClientOption {
	return func(c *ClientConfig) {
		c.Transport = t
	}
}

// WithCallTimeout bounds each request round-trip.
func WithCallTimeout(d time.Duration) ClientOption {
	return func(c *ClientConfig) {
		c.CallTimeout = d
	}
}

// Client is a stdio JSON-RPC session with a tool server. A session moves
// from disconnected to connected in Connect and back in Close; every request
// method requires a connected session.
type Client struct {
	config ClientConfig

	mu         sync.RWMutex
	connected  bool
	serverInfo ServerInfo

	encoder *json.Encoder
	encMu   sync.Mutex
	scanner *bufio.Scanner

	reqID   atomic.Int64
	pending map[int64]chan *rpcResponse
	pendMu  sync.Mutex
}

type rpcRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      any             `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      any             `json:"id,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type initParams struct {
	ProtocolVersion string     `json:"protocolVersion"`
	Capabilities    any        `json:"capabilities"`
	ClientInfo      ServerInfo `json:"clientInfo"`
}

type initResult struct {
	ProtocolVersion string     `json:"protocolVersion"`
	ServerInfo      ServerInfo `json:"serverInfo"`
}

type listToolsResult struct {
	Tools []ToolDef `json:"tools"`
}

type listResourcesResult struct {
	Resources []Resource `json:"resources"`
}

type callToolParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

type callToolResult struct {
	Content []contentBlock `json:"content"`
	IsError bool           `json:"isError,omitempty"`
}

type readResourceParams struct {
	URI string `json:"uri"`
}

type readResourceResult struct {
	Contents []resourceContent `json:"contents"`
}

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type resourceContent struct {
	URI      string `json:"uri"`
	MimeType string `json:"mimeType,omitempty"`
	Text     string `json:"text,omitempty"`
}

// NewClient creates a disconnected session client.
func NewClient(opts ...ClientOption) *Client {
	cfg := ClientConfig{
		Name:    "tripwing",
		Version: "1.0.0",
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Client{
		config:  cfg,
		pending: make(map[int64]chan *rpcResponse),
	}
}

// Connect starts the transport and performs the MCP handshake. On any
// failure the transport is closed exactly once and the session stays
// disconnected.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.connected {
		return ErrAlreadyConnected
	}
	if c.config.Transport == nil {
		return fmt.Errorf("%w: no transport configured", ErrConnectionFailed)
	}

	stdin, stdout, err := c.config.Transport.Start(ctx)
	if err != nil {
		return err
	}

	c.encoder = json.NewEncoder(stdin)
	c.scanner = bufio.NewScanner(stdout)
	c.scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	go c.readLoop()

	if err := c.handshake(ctx); err != nil {
		if cerr := c.config.Transport.Close(); cerr != nil {
			logging.Get().Warn().
				Str("component", "mcp").
				Err(cerr).
				Msg("transport close after failed handshake")
		}
		return err
	}

	c.connected = true
	logging.Get().Info().
		Str("component", "mcp").
		Str("server", c.serverInfo.Name).
		Str("server_version", c.serverInfo.Version).
		Msg("session connected")
	return nil
}

func (c *Client) handshake(ctx context.Context) error {
	params := initParams{
		ProtocolVersion: protocolVersion,
		Capabilities:    struct{}{},
		ClientInfo: ServerInfo{
			Name:    c.config.Name,
			Version: c.config.Version,
		},
	}

	resp, err := c.roundTrip(ctx, "initialize", params)
	if err != nil {
		return fmt.Errorf("%w: initialize: %v", ErrConnectionFailed, err)
	}
	if resp.Error != nil {
		return fmt.Errorf("%w: initialize: %s", ErrConnectionFailed, resp.Error.Message)
	}

	var result initResult
	if err := json.Unmarshal(resp.Result, &result); err != nil {
		return fmt.Errorf("%w: parse initialize result: %v", ErrConnectionFailed, err)
	}
	c.serverInfo = result.ServerInfo

	return c.send(rpcRequest{JSONRPC: "2.0", Method: "notifications/initialized"})
}

func (c *Client) readLoop() {
	for c.scanner.Scan() {
		line := c.scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var resp rpcResponse
		if err := json.Unmarshal(line, &resp); err != nil {
			continue
		}

		id, ok := responseID(resp.ID)
		if !ok {
			continue
		}

		c.pendMu.Lock()
		if ch, exists := c.pending[id]; exists {
			ch <- &resp
			delete(c.pending, id)
		}
		c.pendMu.Unlock()
	}
}

func responseID(raw any) (int64, bool) {
	switch id := raw.(type) {
	case float64:
		return int64(id), true
	case int64:
		return id, true
	case int:
		return int64(id), true
	default:
		return 0, false
	}
}

func (c *Client) send(req rpcRequest) error {
	c.encMu.Lock()
	defer c.encMu.Unlock()
	return c.encoder.Encode(req)
}

func (c *Client) roundTrip(ctx context.Context, method string, params any) (*rpcResponse, error) {
	if c.config.CallTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.CallTimeout)
		defer cancel()
	}

	id := c.reqID.Add(1)

	paramsBytes, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("marshal params: %w", err)
	}

	respCh := make(chan *rpcResponse, 1)
	c.pendMu.Lock()
	c.pending[id] = respCh
	c.pendMu.Unlock()

	if err := c.send(rpcRequest{JSONRPC: "2.0", ID: id, Method: method, Params: paramsBytes}); err != nil {
		c.pendMu.Lock()
		delete(c.pending, id)
		c.pendMu.Unlock()
		return nil, fmt.Errorf("send %s: %w", method, err)
	}

	select {
	case resp := <-respCh:
		return resp, nil
	case <-ctx.Done():
		c.pendMu.Lock()
		delete(c.pending, id)
		c.pendMu.Unlock()
		return nil, ctx.Err()
	}
}

// Connected reports whether the session is live.
func (c *Client) Connected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}

// ServerInfo returns the peer's identity from the handshake. Zero value
// until connected.
func (c *Client) ServerInfo() ServerInfo {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.serverInfo
}

// Close tears down the transport. Idempotent; close errors are logged and
// swallowed.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.connected {
		return nil
	}
	c.connected = false

	if err := c.config.Transport.Close(); err != nil {
		logging.Get().Warn().
			Str("component", "mcp").
			Err(err).
			Msg("transport close")
	}

	logging.Get().Debug().
		Str("component", "mcp").
		Str("server", c.serverInfo.Name).
		Msg("session closed")
	return nil
}

// ListTools returns the tools the server advertises.
func (c *Client) ListTools(ctx context.Context) ([]ToolDef, error) {
	if !c.Connected() {
		return nil, ErrNotConnected
	}

	resp, err := c.roundTrip(ctx, "tools/list", struct{}{})
	if err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("list tools: %s", resp.Error.Message)
	}

	var result listToolsResult
	if err := json.Unmarshal(resp.Result, &result); err != nil {
		return nil, fmt.Errorf("parse list tools result: %w", err)
	}
	return result.Tools, nil
}

// CallTool invokes a remote tool. A transport or protocol fault is returned
// as an error; the tool itself reporting failure comes back as a CallResult
// with Success false.
func (c *Client) CallTool(ctx context.Context, name string, args json.RawMessage) (CallResult, error) {
	if !c.Connected() {
		return CallResult{}, ErrNotConnected
	}

	start := time.Now()
	resp, err := c.roundTrip(ctx, "tools/call", callToolParams{Name: name, Arguments: args})
	if err != nil {
		return CallResult{}, err
	}
	if resp.Error != nil {
		return CallResult{}, fmt.Errorf("call tool %s: %s", name, resp.Error.Message)
	}

	var result callToolResult
	if err := json.Unmarshal(resp.Result, &result); err != nil {
		return CallResult{}, fmt.Errorf("parse call tool result: %w", err)
	}

	var text string
	if len(result.Content) > 0 {
		text = result.Content[0].Text
	}

	logging.Get().Debug().
		Str("component", "mcp").
		Str("tool", name).
		Bool("tool_error", result.IsError).
		Int64("duration_ms", time.Since(start).Milliseconds()).
		Msg("tool call")

	if result.IsError {
		errText := text
		if errText == "" {
			errText = "tool execution failed"
		}
		return CallResult{Err: errText}, nil
	}
	return CallResult{Success: true, Content: text}, nil
}

// ListResources returns the resources the server advertises.
func (c *Client) ListResources(ctx context.Context) ([]Resource, error) {
	if !c.Connected() {
		return nil, ErrNotConnected
	}

	resp, err := c.roundTrip(ctx, "resources/list", struct{}{})
	if err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("list resources: %s", resp.Error.Message)
	}

	var result listResourcesResult
	if err := json.Unmarshal(resp.Result, &result); err != nil {
		return nil, fmt.Errorf("parse list resources result: %w", err)
	}
	return result.Resources, nil
}

// ReadResource fetches a resource's text content by URI.
func (c *Client) ReadResource(ctx context.Context, uri string) (string, error) {
	if !c.Connected() {
		return "", ErrNotConnected
	}

	resp, err := c.roundTrip(ctx, "resources/read", readResourceParams{URI: uri})
	if err != nil {
		return "", err
	}
	if resp.Error != nil {
		return "", fmt.Errorf("read resource %s: %s", uri, resp.Error.Message)
	}

	var result readResourceResult
	if err := json.Unmarshal(resp.Result, &result); err != nil {
		return "", fmt.Errorf("parse read resource result: %w", err)
	}
	if len(result.Contents) == 0 {
		return "", nil
	}
	return result.Contents[0].Text, nil
}
