package mcp

import (
	"context"
	"encoding/json"

	mcpgo "github.com/felixgeelhaar/mcp-go"
)

// ToolHandler executes one exposed tool. The returned string is sent back
// to the caller as text content.
type ToolHandler func(ctx context.Context, input json.RawMessage) (string, error)

// ServerTool is one tool exposed by a ToolServer.
type ServerTool struct {
	Name        string
	Description string
	Handler     ToolHandler
}

// ToolServerConfig configures a stdio tool server.
type ToolServerConfig struct {
	Name         string
	Version      string
	Description  string
	Instructions string
}

// ToolServer exposes a set of tools to MCP clients over stdio. It is the
// serving counterpart of Client.
type ToolServer struct {
	srv *mcpgo.Server
}

// NewToolServer creates a tool server with the given identity.
func NewToolServer(cfg ToolServerConfig) *ToolServer {
	info := mcpgo.ServerInfo{
		Name:        cfg.Name,
		Version:     cfg.Version,
		Description: cfg.Description,
		Capabilities: mcpgo.Capabilities{
			Tools: true,
		},
	}

	var opts []mcpgo.Option
	if cfg.Instructions != "" {
		opts = append(opts, mcpgo.WithInstructions(cfg.Instructions))
	}

	return &ToolServer{srv: mcpgo.NewServer(info, opts...)}
}

// Register adds tools to the server.
func (s *ToolServer) Register(tools ...ServerTool) {
	for _, t := range tools {
		handler := t.Handler
		s.srv.Tool(t.Name).
			Description(t.Description).
			Handler(func(ctx context.Context, input json.RawMessage) (string, error) {
				return handler(ctx, input)
			})
	}
}

// Server returns the underlying mcp-go server.
func (s *ToolServer) Server() *mcpgo.Server {
	return s.srv
}

// ServeStdio blocks serving requests on stdin/stdout until ctx is done.
func (s *ToolServer) ServeStdio(ctx context.Context) error {
	return mcpgo.ServeStdio(ctx, s.srv)
}
