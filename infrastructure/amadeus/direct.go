// Package amadeus provides the flight-search tooling: a direct REST client,
// a remote-tool client speaking MCP, and a combined client that prefers the
// remote path and falls back to the direct one.
package amadeus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/felixgeelhaar/fortify/circuitbreaker"
	"github.com/felixgeelhaar/fortify/retry"

	"github.com/tripwing/tripwing/domain/flight"
	"github.com/tripwing/tripwing/infrastructure/logging"
)

const (
	testHost = "https://test.api.amadeus.com"
	prodHost = "https://api.amadeus.com"

	// tokenRefreshMargin renews the OAuth token slightly before the
	// provider's expiry.
	tokenRefreshMargin = 15 * time.Second
)

// ErrMissingCredentials indicates the client ID or secret is not set.
var ErrMissingCredentials = errors.New("missing amadeus client credentials")

// DirectConfig configures a DirectClient.
type DirectConfig struct {
	ClientID     string
	ClientSecret string

	// Host selects the provider environment, "test" or "prod".
	Host string

	// BaseURL overrides host selection when set.
	BaseURL string

	// DefaultCurrency fills requests that leave currency empty.
	DefaultCurrency string

	Timeout time.Duration
}

type oauthToken struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`

	created time.Time
}

func (t *oauthToken) expired() bool {
	if t == nil {
		return true
	}
	lifetime := time.Duration(t.ExpiresIn)*time.Second - tokenRefreshMargin
	return time.Since(t.created) >= lifetime
}

// DirectClient calls the Amadeus REST API directly. Round-trips go through a
// retry and a circuit breaker; the OAuth token is refreshed early and shared
// across goroutines.
type DirectClient struct {
	clientID        string
	clientSecret    string
	baseURL         string
	defaultCurrency string

	httpClient *http.Client
	breaker    circuitbreaker.CircuitBreaker[[]byte]
	retry      retry.Retry[[]byte]

	tokenMu sync.Mutex
	token   *oauthToken
}

// NewDirectClient creates a direct API client.
func NewDirectClient(cfg DirectConfig) (*DirectClient, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, ErrMissingCredentials
	}

	baseURL := testHost
	if strings.EqualFold(cfg.Host, "prod") {
		baseURL = prodHost
	}
	if cfg.BaseURL != "" {
		baseURL = cfg.BaseURL
	}

	currency := cfg.DefaultCurrency
	if currency == "" {
		currency = "USD"
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &DirectClient{
		clientID:        cfg.ClientID,
		clientSecret:    cfg.ClientSecret,
		baseURL:         baseURL,
		defaultCurrency: currency,
		httpClient:      &http.Client{Timeout: timeout},
		breaker: circuitbreaker.New[[]byte](circuitbreaker.Config{
			MaxRequests: 10,
			Interval:    30 * time.Second,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts circuitbreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
		}),
		retry: retry.New[[]byte](retry.Config{
			MaxAttempts:   3,
			InitialDelay:  200 * time.Millisecond,
			BackoffPolicy: retry.BackoffExponential,
			Multiplier:    2.0,
		}),
	}, nil
}

// BaseURL returns the provider host in use.
func (c *DirectClient) BaseURL() string {
	return c.baseURL
}

// DefaultCurrency returns the currency used when a request leaves it empty.
func (c *DirectClient) DefaultCurrency() string {
	return c.defaultCurrency
}

func (c *DirectClient) ensureToken(ctx context.Context) (string, error) {
	c.tokenMu.Lock()
	defer c.tokenMu.Unlock()

	if !c.token.expired() {
		return c.token.AccessToken, nil
	}

	form := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {c.clientID},
		"client_secret": {c.clientSecret},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/security/oauth2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request token: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read token response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token request status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var token oauthToken
	if err := json.Unmarshal(body, &token); err != nil {
		return "", fmt.Errorf("parse token response: %w", err)
	}
	token.created = time.Now()
	c.token = &token

	logging.Get().Debug().
		Str("component", "amadeus.direct").
		Int("expires_in", token.ExpiresIn).
		Msg("oauth token refreshed")
	return token.AccessToken, nil
}

// doJSON performs one authorized round-trip through the breaker and retry.
func (c *DirectClient) doJSON(ctx context.Context, method, path string, query url.Values, payload any) ([]byte, error) {
	return c.breaker.Execute(ctx, func(ctx context.Context) ([]byte, error) {
		return c.retry.Do(ctx, func(ctx context.Context) ([]byte, error) {
			return c.roundTrip(ctx, method, path, query, payload)
		})
	})
}

func (c *DirectClient) roundTrip(ctx context.Context, method, path string, query url.Values, payload any) ([]byte, error) {
	token, err := c.ensureToken(ctx)
	if err != nil {
		return nil, err
	}

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal request payload: %w", err)
		}
		body = strings.NewReader(string(raw))
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("api status %d on %s: %s", resp.StatusCode, path, strings.TrimSpace(string(raw)))
	}
	return raw, nil
}

// AutocompleteLocations looks up cities and airports by free text.
func (c *DirectClient) AutocompleteLocations(ctx context.Context, req flight.AutocompleteRequest) (flight.AutocompleteResult, error) {
	if err := req.Normalize(); err != nil {
		return flight.AutocompleteResult{}, err
	}

	query := url.Values{
		"keyword":     {req.Query},
		"page[limit]": {strconv.Itoa(req.Limit)},
		"subType":     {strings.Join(req.SubTypes, ",")},
	}

	raw, err := c.doJSON(ctx, http.MethodGet, "/v1/reference-data/locations", query, nil)
	if err != nil {
		return flight.AutocompleteResult{}, err
	}
	return normalizeLocations(raw)
}

// SearchFlights searches one-way or round-trip flight offers.
func (c *DirectClient) SearchFlights(ctx context.Context, req flight.SearchRequest) (flight.SearchResult, error) {
	if err := req.Normalize(); err != nil {
		return flight.SearchResult{}, err
	}

	raw, err := c.doJSON(ctx, http.MethodPost, "/v2/shopping/flight-offers", nil, c.searchPayload(req))
	if err != nil {
		return flight.SearchResult{}, err
	}
	return normalizeOffers(raw)
}

func (c *DirectClient) searchPayload(req flight.SearchRequest) map[string]any {
	originDestinations := []map[string]any{{
		"id":                      "1",
		"originLocationCode":      req.Origin,
		"destinationLocationCode": req.Destination,
		"departureDateTimeRange":  map[string]string{"date": req.DepartureDate},
	}}
	if req.RoundTrip() {
		originDestinations = append(originDestinations, map[string]any{
			"id":                      "2",
			"originLocationCode":      req.Destination,
			"destinationLocationCode": req.Origin,
			"departureDateTimeRange":  map[string]string{"date": req.ReturnDate},
		})
	}

	travelers := make([]map[string]string, req.Adults)
	for i := range travelers {
		travelers[i] = map[string]string{
			"id":           strconv.Itoa(i + 1),
			"travelerType": "ADULT",
		}
	}

	odIDs := make([]string, len(originDestinations))
	for i := range odIDs {
		odIDs[i] = strconv.Itoa(i + 1)
	}

	currency := req.Currency
	if currency == "" {
		currency = c.defaultCurrency
	}

	flightFilters := map[string]any{
		"cabinRestrictions": []map[string]any{{
			"cabin":                req.Cabin,
			"coverage":             "MOST_SEGMENTS",
			"originDestinationIds": odIDs,
		}},
	}
	if req.NonStop != nil {
		maxConnections := 2
		if *req.NonStop {
			maxConnections = 0
		}
		flightFilters["connectionRestriction"] = map[string]int{
			"maxNumberOfConnections": maxConnections,
		}
	}

	searchCriteria := map[string]any{
		"maxFlightOffers": req.MaxResults,
		"flightFilters":   flightFilters,
	}
	if req.MaxPrice > 0 {
		searchCriteria["maxPrice"] = req.MaxPrice
		searchCriteria["pricingOptions"] = map[string]bool{"includedCheckedBagsOnly": false}
	}

	return map[string]any{
		"currencyCode":       currency,
		"originDestinations": originDestinations,
		"travelers":          travelers,
		"sources":            []string{"GDS"},
		"searchCriteria":     searchCriteria,
	}
}

// PriceOffer confirms pricing for a previously returned offer.
func (c *DirectClient) PriceOffer(ctx context.Context, req flight.PriceRequest) (flight.PriceResult, error) {
	if err := req.Normalize(); err != nil {
		return flight.PriceResult{}, err
	}

	payload := map[string]any{
		"data": map[string]any{
			"type":         "flight-offers-pricing",
			"flightOffers": []map[string]any{req.Offer},
		},
	}

	raw, err := c.doJSON(ctx, http.MethodPost, "/v1/shopping/flight-offers/pricing", nil, payload)
	if err != nil {
		return flight.PriceResult{}, err
	}

	var result any
	if err := json.Unmarshal(raw, &result); err != nil {
		return flight.PriceResult{}, fmt.Errorf("parse pricing response: %w", err)
	}
	return flight.PriceResult{Raw: result}, nil
}

// BreakerState reports the circuit breaker's current state.
func (c *DirectClient) BreakerState() circuitbreaker.State {
	return c.breaker.State()
}

// Close releases idle connections.
func (c *DirectClient) Close() {
	c.httpClient.CloseIdleConnections()
}
