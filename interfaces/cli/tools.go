package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// toolsOptions holds options for the tools command.
type toolsOptions struct {
	callTool   string
	callArgs   string
	resources  bool
	jsonOutput bool
}

// newToolsCmd creates the tools command.
func (a *App) newToolsCmd() *cobra.Command {
	opts := &toolsOptions{}

	cmd := &cobra.Command{
		Use:   "tools",
		Short: "Inspect and call configured remote tool servers",
		Long: `Connect to the tool servers from the configuration, then list their tools
or call one directly.

Examples:
  # List every tool from every configured server
  tripwing tools -c config.yaml

  # List resources too
  tripwing tools -c config.yaml --resources

  # Call a tool on whichever server exposes it
  tripwing tools -c config.yaml --call search_flights \
    --args '{"origin":"JFK","destination":"CDG","departure_date":"2026-09-10"}'`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runTools(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.callTool, "call", "", "Call the named tool instead of listing")
	cmd.Flags().StringVar(&opts.callArgs, "args", "{}", "JSON arguments for --call")
	cmd.Flags().BoolVar(&opts.resources, "resources", false, "List resources as well")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Output as JSON")

	return cmd
}

// runTools executes the tools command.
func (a *App) runTools(ctx context.Context, opts *toolsOptions) error {
	settings, err := a.settings()
	if err != nil {
		return err
	}
	if len(settings.Tools.Servers) == 0 {
		return fmt.Errorf("no tool servers configured (set tools.servers in the config)")
	}

	host, err := buildHost(ctx, settings, "")
	if err != nil {
		return err
	}
	defer func() { _ = host.Shutdown() }()

	if opts.callTool != "" {
		result, err := host.CallAnyTool(ctx, opts.callTool, json.RawMessage(opts.callArgs))
		if err != nil {
			return err
		}
		if !result.Success {
			return fmt.Errorf("tool %s failed: %s", opts.callTool, result.Err)
		}
		fmt.Fprintln(a.stdout, result.Content)
		return nil
	}

	allTools := host.ListAllTools(ctx)
	if opts.jsonOutput {
		out := map[string]any{"tools": allTools}
		if opts.resources {
			out["resources"] = host.ListAllResources(ctx)
		}
		return a.printJSON(out)
	}

	if len(allTools) == 0 {
		fmt.Fprintln(a.stdout, "No tool servers connected.")
		return nil
	}
	for client, tools := range allTools {
		fmt.Fprintf(a.stdout, "%s:\n", client)
		for _, tool := range tools {
			fmt.Fprintf(a.stdout, "  %s  %s\n", tool.Name, tool.Description)
		}
	}

	if opts.resources {
		for client, resources := range host.ListAllResources(ctx) {
			fmt.Fprintf(a.stdout, "%s resources:\n", client)
			for _, r := range resources {
				fmt.Fprintf(a.stdout, "  %s  %s\n", r.URI, r.Description)
			}
		}
	}
	return nil
}
