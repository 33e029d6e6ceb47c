package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tripwing/tripwing/domain/flight"
)

// newFlightsCmd creates the flights command group.
func (a *App) newFlightsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "flights",
		Short: "Search flights, look up locations, and price offers",
	}

	cmd.AddCommand(
		a.newFlightsSearchCmd(),
		a.newFlightsLocationsCmd(),
		a.newFlightsPriceCmd(),
	)
	return cmd
}

// searchOptions holds options for the flights search command.
type searchOptions struct {
	origin      string
	destination string
	departure   string
	returnDate  string
	adults      int
	cabin       string
	currency    string
	nonStop     bool
	maxPrice    int
	maxResults  int
	jsonOutput  bool
}

func (a *App) newFlightsSearchCmd() *cobra.Command {
	opts := &searchOptions{}

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search flight offers",
		Long: `Search flight offers between two airports.

Examples:
  tripwing flights search --origin JFK --destination CDG --departure 2026-09-10

  # Round trip, business cabin, direct flights only
  tripwing flights search --origin JFK --destination CDG \
    --departure 2026-09-10 --return 2026-09-20 --cabin BUSINESS --non-stop`,
		RunE: func(cmd *cobra.Command, args []string) error {
			req := flight.SearchRequest{
				Origin:        opts.origin,
				Destination:   opts.destination,
				DepartureDate: opts.departure,
				ReturnDate:    opts.returnDate,
				Adults:        opts.adults,
				Cabin:         opts.cabin,
				Currency:      opts.currency,
				MaxPrice:      opts.maxPrice,
				MaxResults:    opts.maxResults,
			}
			if cmd.Flags().Changed("non-stop") {
				req.NonStop = &opts.nonStop
			}
			return a.runFlightsSearch(cmd.Context(), req, opts.jsonOutput)
		},
	}

	cmd.Flags().StringVar(&opts.origin, "origin", "", "Origin airport IATA code (required)")
	cmd.Flags().StringVar(&opts.destination, "destination", "", "Destination airport IATA code (required)")
	cmd.Flags().StringVar(&opts.departure, "departure", "", "Departure date YYYY-MM-DD (required)")
	cmd.Flags().StringVar(&opts.returnDate, "return", "", "Return date YYYY-MM-DD for round trips")
	cmd.Flags().IntVar(&opts.adults, "adults", 1, "Number of adult travelers")
	cmd.Flags().StringVar(&opts.cabin, "cabin", "", "Cabin class (ECONOMY, PREMIUM_ECONOMY, BUSINESS, FIRST)")
	cmd.Flags().StringVar(&opts.currency, "currency", "", "Price currency code")
	cmd.Flags().BoolVar(&opts.nonStop, "non-stop", false, "Direct flights only")
	cmd.Flags().IntVar(&opts.maxPrice, "max-price", 0, "Maximum total price")
	cmd.Flags().IntVar(&opts.maxResults, "max", 0, "Maximum number of offers")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Output offers as JSON")

	_ = cmd.MarkFlagRequired("origin")
	_ = cmd.MarkFlagRequired("destination")
	_ = cmd.MarkFlagRequired("departure")

	return cmd
}

func (a *App) runFlightsSearch(ctx context.Context, req flight.SearchRequest, jsonOutput bool) error {
	settings, err := a.settings()
	if err != nil {
		return err
	}

	client, cleanup, err := buildFlightClient(ctx, settings)
	if err != nil {
		return err
	}
	defer cleanup()

	result, err := client.SearchFlights(ctx, req)
	if err != nil {
		return fmt.Errorf("flight search failed: %w", err)
	}

	if jsonOutput {
		return a.printJSON(result)
	}

	if len(result.Offers) == 0 {
		fmt.Fprintln(a.stdout, "No offers found.")
		return nil
	}
	for _, offer := range result.Offers {
		fmt.Fprintf(a.stdout, "Offer %s: %s %s\n", offer.ID, offer.Total, offer.Currency)
		for i, itin := range offer.Itineraries {
			fmt.Fprintf(a.stdout, "  Itinerary %d (%s)\n", i+1, itin.Duration)
			for _, seg := range itin.Segments {
				fmt.Fprintf(a.stdout, "    %s%s %s -> %s  %s / %s\n",
					seg.Carrier, seg.Number, seg.Origin, seg.Destination, seg.Departs, seg.Arrives)
			}
		}
	}
	return nil
}

// locationsOptions holds options for the flights locations command.
type locationsOptions struct {
	limit      int
	subTypes   []string
	jsonOutput bool
}

func (a *App) newFlightsLocationsCmd() *cobra.Command {
	opts := &locationsOptions{}

	cmd := &cobra.Command{
		Use:   "locations [keyword]",
		Short: "Look up airport and city codes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := flight.AutocompleteRequest{
				Query:    args[0],
				Limit:    opts.limit,
				SubTypes: opts.subTypes,
			}
			return a.runFlightsLocations(cmd.Context(), req, opts.jsonOutput)
		},
	}

	cmd.Flags().IntVar(&opts.limit, "limit", 0, "Maximum number of matches")
	cmd.Flags().StringSliceVar(&opts.subTypes, "sub-type", nil, "Location subtypes (CITY, AIRPORT)")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Output matches as JSON")

	return cmd
}

func (a *App) runFlightsLocations(ctx context.Context, req flight.AutocompleteRequest, jsonOutput bool) error {
	settings, err := a.settings()
	if err != nil {
		return err
	}

	client, cleanup, err := buildFlightClient(ctx, settings)
	if err != nil {
		return err
	}
	defer cleanup()

	result, err := client.AutocompleteLocations(ctx, req)
	if err != nil {
		return fmt.Errorf("location lookup failed: %w", err)
	}

	if jsonOutput {
		return a.printJSON(result)
	}

	if len(result.Locations) == 0 {
		fmt.Fprintln(a.stdout, "No matches found.")
		return nil
	}
	for _, loc := range result.Locations {
		fmt.Fprintf(a.stdout, "%s  %s (%s)\n", loc.Code, loc.Name, strings.ToLower(loc.Category))
	}
	return nil
}

// priceOptions holds options for the flights price command.
type priceOptions struct {
	offerPath string
	currency  string
}

func (a *App) newFlightsPriceCmd() *cobra.Command {
	opts := &priceOptions{}

	cmd := &cobra.Command{
		Use:   "price",
		Short: "Confirm pricing for a flight offer",
		Long: `Confirm pricing for a previously returned flight offer. The offer is the
raw provider payload, as emitted by "flights search --json" under each
offer's "raw" field.

Examples:
  tripwing flights price --offer offer.json

  # Read the offer from stdin
  tripwing flights search --json ... | jq '.offers[0].raw' | tripwing flights price --offer -`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runFlightsPrice(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.offerPath, "offer", "", "Path to the offer JSON, or - for stdin (required)")
	cmd.Flags().StringVar(&opts.currency, "currency", "", "Price currency code")
	_ = cmd.MarkFlagRequired("offer")

	return cmd
}

func (a *App) runFlightsPrice(ctx context.Context, opts *priceOptions) error {
	var raw []byte
	var err error
	if opts.offerPath == "-" {
		raw, err = io.ReadAll(os.Stdin)
	} else {
		raw, err = os.ReadFile(opts.offerPath)
	}
	if err != nil {
		return fmt.Errorf("failed to read offer: %w", err)
	}

	var offer map[string]any
	if err := json.Unmarshal(raw, &offer); err != nil {
		return fmt.Errorf("offer is not a JSON object: %w", err)
	}

	settings, err := a.settings()
	if err != nil {
		return err
	}

	client, cleanup, err := buildFlightClient(ctx, settings)
	if err != nil {
		return err
	}
	defer cleanup()

	result, err := client.PriceOffer(ctx, flight.PriceRequest{
		Offer:    offer,
		Currency: opts.currency,
	})
	if err != nil {
		return fmt.Errorf("pricing failed: %w", err)
	}
	return a.printJSON(result.Raw)
}
