package amadeus

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/tripwing/tripwing/domain/flight"
)

const offersBody = `{
	"data": [{
		"id": "1",
		"oneWay": false,
		"price": {"grandTotal": "412.50", "currency": "USD"},
		"itineraries": [{
			"duration": "PT6H30M",
			"segments": [{
				"carrierCode": "UA",
				"number": "523",
				"departure": {"iataCode": "JFK", "at": "2026-09-10T08:00:00"},
				"arrival": {"iataCode": "SFO", "at": "2026-09-10T11:30:00"},
				"duration": "PT6H30M",
				"aircraft": {"code": "77W"},
				"operating": {"carrierCode": "UA"}
			}]
		}]
	}]
}`

// apiServer fakes the provider: issues tokens and records requests.
type apiServer struct {
	*httptest.Server

	tokenRequests atomic.Int32
	lastAuth      string
	lastPath      string
	lastBody      []byte
	expiresIn     int
}

func newAPIServer(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) *apiServer {
	t.Helper()
	srv := &apiServer{expiresIn: 1800}
	srv.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/security/oauth2/token" {
			srv.tokenRequests.Add(1)
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]any{
				"access_token": "tok-123",
				"token_type":   "Bearer",
				"expires_in":   srv.expiresIn,
			})
			return
		}
		srv.lastAuth = r.Header.Get("Authorization")
		srv.lastPath = r.URL.Path
		srv.lastBody, _ = io.ReadAll(r.Body)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(t *testing.T, srv *apiServer) *DirectClient {
	t.Helper()
	client, err := NewDirectClient(DirectConfig{
		ClientID:     "id",
		ClientSecret: "secret",
		BaseURL:      srv.URL,
	})
	if err != nil {
		t.Fatalf("NewDirectClient() = %v", err)
	}
	t.Cleanup(client.Close)
	return client
}

func TestNewDirectClient(t *testing.T) {
	if _, err := NewDirectClient(DirectConfig{}); !errors.Is(err, ErrMissingCredentials) {
		t.Errorf("NewDirectClient without credentials = %v, want ErrMissingCredentials", err)
	}

	client, err := NewDirectClient(DirectConfig{ClientID: "id", ClientSecret: "s"})
	if err != nil {
		t.Fatalf("NewDirectClient() = %v", err)
	}
	if client.BaseURL() != testHost {
		t.Errorf("BaseURL() = %q, want test host", client.BaseURL())
	}

	prod, _ := NewDirectClient(DirectConfig{ClientID: "id", ClientSecret: "s", Host: "prod"})
	if prod.BaseURL() != prodHost {
		t.Errorf("BaseURL() = %q, want prod host", prod.BaseURL())
	}
}

func TestSearchFlights(t *testing.T) {
	srv := newAPIServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, offersBody)
	})
	client := newTestClient(t, srv)

	nonStop := true
	result, err := client.SearchFlights(context.Background(), flight.SearchRequest{
		Origin:        "jfk",
		Destination:   "sfo",
		DepartureDate: "2026-09-10",
		ReturnDate:    "2026-09-17",
		Adults:        2,
		NonStop:       &nonStop,
		MaxPrice:      500,
	})
	if err != nil {
		t.Fatalf("SearchFlights() = %v", err)
	}

	if srv.lastPath != "/v2/shopping/flight-offers" {
		t.Errorf("path = %q", srv.lastPath)
	}
	if srv.lastAuth != "Bearer tok-123" {
		t.Errorf("Authorization = %q", srv.lastAuth)
	}

	var payload struct {
		CurrencyCode       string `json:"currencyCode"`
		OriginDestinations []struct {
			ID                      string `json:"id"`
			OriginLocationCode      string `json:"originLocationCode"`
			DestinationLocationCode string `json:"destinationLocationCode"`
		} `json:"originDestinations"`
		Travelers []struct {
			TravelerType string `json:"travelerType"`
		} `json:"travelers"`
		Sources        []string `json:"sources"`
		SearchCriteria struct {
			MaxFlightOffers int `json:"maxFlightOffers"`
			MaxPrice        int `json:"maxPrice"`
			FlightFilters   struct {
				ConnectionRestriction struct {
					MaxNumberOfConnections int `json:"maxNumberOfConnections"`
				} `json:"connectionRestriction"`
			} `json:"flightFilters"`
		} `json:"searchCriteria"`
	}
	if err := json.Unmarshal(srv.lastBody, &payload); err != nil {
		t.Fatalf("parse request payload: %v", err)
	}

	if payload.CurrencyCode != "USD" {
		t.Errorf("currencyCode = %q, want default USD", payload.CurrencyCode)
	}
	if len(payload.OriginDestinations) != 2 {
		t.Fatalf("originDestinations = %d, want 2 for round trip", len(payload.OriginDestinations))
	}
	if payload.OriginDestinations[0].OriginLocationCode != "JFK" ||
		payload.OriginDestinations[1].OriginLocationCode != "SFO" {
		t.Errorf("origin codes = %+v", payload.OriginDestinations)
	}
	if len(payload.Travelers) != 2 || payload.Travelers[0].TravelerType != "ADULT" {
		t.Errorf("travelers = %+v", payload.Travelers)
	}
	if len(payload.Sources) != 1 || payload.Sources[0] != "GDS" {
		t.Errorf("sources = %v", payload.Sources)
	}
	if payload.SearchCriteria.MaxFlightOffers != 10 {
		t.Errorf("maxFlightOffers = %d, want default 10", payload.SearchCriteria.MaxFlightOffers)
	}
	if payload.SearchCriteria.MaxPrice != 500 {
		t.Errorf("maxPrice = %d, want 500", payload.SearchCriteria.MaxPrice)
	}
	if payload.SearchCriteria.FlightFilters.ConnectionRestriction.MaxNumberOfConnections != 0 {
		t.Errorf("maxNumberOfConnections = %d, want 0 for non-stop",
			payload.SearchCriteria.FlightFilters.ConnectionRestriction.MaxNumberOfConnections)
	}

	if len(result.Offers) != 1 {
		t.Fatalf("offers = %d, want 1", len(result.Offers))
	}
	offer := result.Offers[0]
	if offer.Total != "412.50" || offer.Currency != "USD" {
		t.Errorf("offer price = %s %s", offer.Total, offer.Currency)
	}
	if len(offer.Itineraries) != 1 || len(offer.Itineraries[0].Segments) != 1 {
		t.Fatalf("itineraries = %+v", offer.Itineraries)
	}
	seg := offer.Itineraries[0].Segments[0]
	if seg.Carrier != "UA" || seg.Origin != "JFK" || seg.Destination != "SFO" {
		t.Errorf("segment = %+v", seg)
	}
	if offer.Raw == nil || offer.Raw["id"] != "1" {
		t.Error("offer should keep the raw provider payload for pricing")
	}
}

func TestSearchFlightsValidationBeforeNetwork(t *testing.T) {
	var calls atomic.Int32
	srv := newAPIServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	})
	client := newTestClient(t, srv)

	_, err := client.SearchFlights(context.Background(), flight.SearchRequest{
		Origin:        "NEWYORK",
		Destination:   "SFO",
		DepartureDate: "2026-09-10",
	})
	if !errors.Is(err, flight.ErrInvalidIATA) {
		t.Fatalf("SearchFlights() = %v, want ErrInvalidIATA", err)
	}
	if calls.Load() != 0 || srv.tokenRequests.Load() != 0 {
		t.Error("invalid request must not reach the network")
	}
}

func TestAutocompleteLocations(t *testing.T) {
	srv := newAPIServer(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("keyword"); got != "San Fra" {
			t.Errorf("keyword = %q", got)
		}
		if got := r.URL.Query().Get("page[limit]"); got != "5" {
			t.Errorf("page[limit] = %q", got)
		}
		if got := r.URL.Query().Get("subType"); got != "CITY,AIRPORT" {
			t.Errorf("subType = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"data":[
			{"name":"SAN FRANCISCO","iataCode":"SFO","subType":"CITY","timeZoneOffset":"-07:00"},
			{"name":"SAN FRANCISCO INTL","iataCode":"SFO","subType":"AIRPORT"}
		]}`)
	})
	client := newTestClient(t, srv)

	result, err := client.AutocompleteLocations(context.Background(), flight.AutocompleteRequest{Query: "San Fra"})
	if err != nil {
		t.Fatalf("AutocompleteLocations() = %v", err)
	}
	if len(result.Locations) != 2 {
		t.Fatalf("locations = %d, want 2", len(result.Locations))
	}
	if result.Locations[0].Code != "SFO" || result.Locations[0].Category != "CITY" {
		t.Errorf("location = %+v", result.Locations[0])
	}
}

func TestPriceOffer(t *testing.T) {
	srv := newAPIServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"data":{"type":"flight-offers-pricing"}}`)
	})
	client := newTestClient(t, srv)

	result, err := client.PriceOffer(context.Background(), flight.PriceRequest{
		Offer: map[string]any{"id": "1", "type": "flight-offer"},
	})
	if err != nil {
		t.Fatalf("PriceOffer() = %v", err)
	}
	if srv.lastPath != "/v1/shopping/flight-offers/pricing" {
		t.Errorf("path = %q", srv.lastPath)
	}

	var body struct {
		Data struct {
			Type         string           `json:"type"`
			FlightOffers []map[string]any `json:"flightOffers"`
		} `json:"data"`
	}
	if err := json.Unmarshal(srv.lastBody, &body); err != nil {
		t.Fatalf("parse request payload: %v", err)
	}
	if body.Data.Type != "flight-offers-pricing" || len(body.Data.FlightOffers) != 1 {
		t.Errorf("request body = %+v", body)
	}
	if result.Raw == nil {
		t.Error("Raw = nil, want provider pricing payload")
	}
}

func TestTokenReuse(t *testing.T) {
	srv := newAPIServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"data":[]}`)
	})
	client := newTestClient(t, srv)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := client.AutocompleteLocations(ctx, flight.AutocompleteRequest{Query: "par"}); err != nil {
			t.Fatalf("AutocompleteLocations() = %v", err)
		}
	}
	if n := srv.tokenRequests.Load(); n != 1 {
		t.Errorf("token requested %d times across calls, want 1", n)
	}
}

func TestTokenEarlyRefresh(t *testing.T) {
	srv := newAPIServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"data":[]}`)
	})
	// Token nominally valid for 10s expires immediately under the 15s
	// refresh margin.
	srv.expiresIn = 10
	client := newTestClient(t, srv)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := client.AutocompleteLocations(ctx, flight.AutocompleteRequest{Query: "par"}); err != nil {
			t.Fatalf("AutocompleteLocations() = %v", err)
		}
	}
	if n := srv.tokenRequests.Load(); n != 2 {
		t.Errorf("token requested %d times, want refresh on every call", n)
	}
}

func TestAPIErrorSurfacesStatus(t *testing.T) {
	srv := newAPIServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		io.WriteString(w, `{"errors":[{"title":"quota exceeded"}]}`)
	})
	client := newTestClient(t, srv)

	_, err := client.AutocompleteLocations(context.Background(), flight.AutocompleteRequest{Query: "par"})
	if err == nil {
		t.Fatal("AutocompleteLocations() = nil error, want status error")
	}
	// The status code must survive into the message for fault
	// classification downstream.
	if got := err.Error(); !strings.Contains(got, "429") {
		t.Errorf("error = %q, want it to carry the status code", got)
	}
}
