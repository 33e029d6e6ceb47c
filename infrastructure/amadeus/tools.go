package amadeus

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/tripwing/tripwing/domain/flight"
	"github.com/tripwing/tripwing/infrastructure/mcp"
)

// ServerTools exposes the direct client as MCP tools. Handlers return the
// same normalized JSON shapes the tool client decodes, so remote and direct
// callers see identical results.
func ServerTools(client *DirectClient) []mcp.ServerTool {
	return []mcp.ServerTool{
		{
			Name:        ToolAutocomplete,
			Description: "Autocomplete cities and airports by free text. Returns matched locations with IATA codes.",
			Handler: func(ctx context.Context, input json.RawMessage) (string, error) {
				var req flight.AutocompleteRequest
				if err := json.Unmarshal(input, &req); err != nil {
					return "", fmt.Errorf("parse arguments: %w", err)
				}
				result, err := client.AutocompleteLocations(ctx, req)
				if err != nil {
					return "", err
				}
				return marshalResult(result)
			},
		},
		{
			Name:        ToolSearch,
			Description: "Search one-way or round-trip flight offers between two IATA codes.",
			Handler: func(ctx context.Context, input json.RawMessage) (string, error) {
				var req flight.SearchRequest
				if err := json.Unmarshal(input, &req); err != nil {
					return "", fmt.Errorf("parse arguments: %w", err)
				}
				result, err := client.SearchFlights(ctx, req)
				if err != nil {
					return "", err
				}
				return marshalResult(result)
			},
		},
		{
			Name:        ToolPrice,
			Description: "Re-price a flight offer. Pass the raw offer payload from a search result.",
			Handler: func(ctx context.Context, input json.RawMessage) (string, error) {
				var req flight.PriceRequest
				if err := json.Unmarshal(input, &req); err != nil {
					return "", fmt.Errorf("parse arguments: %w", err)
				}
				result, err := client.PriceOffer(ctx, req)
				if err != nil {
					return "", err
				}
				return marshalResult(result)
			},
		},
	}
}

func marshalResult(v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("marshal result: %w", err)
	}
	return string(raw), nil
}
