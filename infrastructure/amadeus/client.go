package amadeus

import (
	"context"

	"github.com/tripwing/tripwing/domain/flight"
	"github.com/tripwing/tripwing/infrastructure/logging"
)

// DirectAPI is the direct REST path of the flight client.
type DirectAPI interface {
	AutocompleteLocations(ctx context.Context, req flight.AutocompleteRequest) (flight.AutocompleteResult, error)
	SearchFlights(ctx context.Context, req flight.SearchRequest) (flight.SearchResult, error)
	PriceOffer(ctx context.Context, req flight.PriceRequest) (flight.PriceResult, error)
}

// RemoteAPI is the remote-tool path of the flight client.
type RemoteAPI interface {
	Connected() bool
	Autocomplete(ctx context.Context, req flight.AutocompleteRequest) (flight.AutocompleteResult, error)
	Search(ctx context.Context, req flight.SearchRequest) (flight.SearchResult, error)
	Price(ctx context.Context, req flight.PriceRequest) (flight.PriceResult, error)
}

// Client combines the remote-tool and direct API paths. Requests are
// validated before either path runs; when the remote session is connected
// and preferred it is tried first, and the direct path runs only if the
// remote one did not succeed.
type Client struct {
	direct       DirectAPI
	remote       RemoteAPI
	preferRemote bool
}

// ClientOption configures a combined client.
type ClientOption func(*Client)

// WithPreferRemote controls whether a connected remote session is tried
// before the direct API. Defaults to true.
func WithPreferRemote(prefer bool) ClientOption {
	return func(c *Client) {
		c.preferRemote = prefer
	}
}

// NewClient creates a combined client over the two paths. remote may be nil
// when no tool server is configured.
func NewClient(direct DirectAPI, remote RemoteAPI, opts ...ClientOption) *Client {
	c := &Client{
		direct:       direct,
		remote:       remote,
		preferRemote: true,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) remoteFirst() bool {
	return c.preferRemote && c.remote != nil && c.remote.Connected()
}

func (c *Client) logFallback(operation string, err error) {
	logging.Get().Warn().
		Str("component", "amadeus").
		Str("operation", operation).
		Err(err).
		Msg("remote path failed, using direct api")
}

// AutocompleteLocations looks up locations, preferring the remote path.
func (c *Client) AutocompleteLocations(ctx context.Context, req flight.AutocompleteRequest) (flight.AutocompleteResult, error) {
	if err := req.Normalize(); err != nil {
		return flight.AutocompleteResult{}, err
	}

	if c.remoteFirst() {
		result, err := c.remote.Autocomplete(ctx, req)
		if err == nil {
			return result, nil
		}
		c.logFallback("autocomplete", err)
	}
	return c.direct.AutocompleteLocations(ctx, req)
}

// SearchFlights searches offers, preferring the remote path.
func (c *Client) SearchFlights(ctx context.Context, req flight.SearchRequest) (flight.SearchResult, error) {
	if err := req.Normalize(); err != nil {
		return flight.SearchResult{}, err
	}

	if c.remoteFirst() {
		result, err := c.remote.Search(ctx, req)
		if err == nil {
			return result, nil
		}
		c.logFallback("search", err)
	}
	return c.direct.SearchFlights(ctx, req)
}

// PriceOffer confirms an offer's price, preferring the remote path.
func (c *Client) PriceOffer(ctx context.Context, req flight.PriceRequest) (flight.PriceResult, error) {
	if err := req.Normalize(); err != nil {
		return flight.PriceResult{}, err
	}

	if c.remoteFirst() {
		result, err := c.remote.Price(ctx, req)
		if err == nil {
			return result, nil
		}
		c.logFallback("price", err)
	}
	return c.direct.PriceOffer(ctx, req)
}
