package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tripwing/tripwing/infrastructure/amadeus"
	"github.com/tripwing/tripwing/infrastructure/mcp"
)

// newServeToolsCmd creates the serve-tools command.
func (a *App) newServeToolsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve-tools",
		Short: "Serve the flight-search tools over stdio",
		Long: `Run a tool server over stdio exposing the direct Amadeus client as
remote tools: autocomplete_locations, search_flights, and price_offer.
Hosts launch this command as a subprocess:

  tools:
    servers:
      amadeus: [tripwing, serve-tools, -c, config.yaml]`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runServeTools(cmd.Context())
		},
	}
}

// runServeTools serves the tool server until the context is canceled.
func (a *App) runServeTools(ctx context.Context) error {
	settings, err := a.settings()
	if err != nil {
		return err
	}

	direct, err := buildDirectClient(settings)
	if err != nil {
		return err
	}
	defer direct.Close()

	srv := mcp.NewToolServer(mcp.ToolServerConfig{
		Name:        "tripwing-amadeus",
		Version:     Version,
		Description: "Flight search tools backed by the Amadeus API",
		Instructions: "Use autocomplete_locations to resolve city or airport " +
			"codes, search_flights to find offers, and price_offer to confirm " +
			"an offer's price before booking.",
	})
	srv.Register(amadeus.ServerTools(direct)...)

	if err := srv.ServeStdio(ctx); err != nil && ctx.Err() == nil {
		return fmt.Errorf("tool server failed: %w", err)
	}
	return nil
}
