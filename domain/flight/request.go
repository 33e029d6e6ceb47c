package flight

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	iataPattern = regexp.MustCompile(`^[A-Za-z]{3}$`)
	datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

// Cabin classes accepted by the search request.
const (
	CabinEconomy        = "ECONOMY"
	CabinPremiumEconomy = "PREMIUM_ECONOMY"
	CabinBusiness       = "BUSINESS"
	CabinFirst          = "FIRST"
)

// Location subtypes accepted by the autocomplete request.
const (
	SubTypeCity    = "CITY"
	SubTypeAirport = "AIRPORT"
)

// SearchRequest is the canonical flight-search request. Normalize must be
// called (and must succeed) before the request touches any network path.
type SearchRequest struct {
	Origin        string `json:"origin"`
	Destination   string `json:"destination"`
	DepartureDate string `json:"departure_date"`
	ReturnDate    string `json:"return_date,omitempty"`
	Adults        int    `json:"adults"`
	Cabin         string `json:"cabin"`
	Currency      string `json:"currency,omitempty"`
	NonStop       *bool  `json:"non_stop,omitempty"`
	MaxPrice      int    `json:"max_price,omitempty"`
	MaxResults    int    `json:"max_results"`
}

// Normalize validates the request in place, uppercasing codes and filling
// defaults. It returns a validation error before any network activity.
func (r *SearchRequest) Normalize() error {
	r.Origin = strings.ToUpper(strings.TrimSpace(r.Origin))
	r.Destination = strings.ToUpper(strings.TrimSpace(r.Destination))

	if !iataPattern.MatchString(r.Origin) {
		return fmt.Errorf("%w: origin %q", ErrInvalidIATA, r.Origin)
	}
	if !iataPattern.MatchString(r.Destination) {
		return fmt.Errorf("%w: destination %q", ErrInvalidIATA, r.Destination)
	}
	if !datePattern.MatchString(r.DepartureDate) {
		return fmt.Errorf("%w: departure %q", ErrInvalidDate, r.DepartureDate)
	}
	if r.ReturnDate != "" && !datePattern.MatchString(r.ReturnDate) {
		return fmt.Errorf("%w: return %q", ErrInvalidDate, r.ReturnDate)
	}

	if r.Adults == 0 {
		r.Adults = 1
	}
	if r.Adults < 1 || r.Adults > 9 {
		return fmt.Errorf("%w: got %d", ErrInvalidAdults, r.Adults)
	}

	if r.Cabin == "" {
		r.Cabin = CabinEconomy
	}
	r.Cabin = strings.ToUpper(r.Cabin)
	switch r.Cabin {
	case CabinEconomy, CabinPremiumEconomy, CabinBusiness, CabinFirst:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidCabin, r.Cabin)
	}

	if r.Currency != "" {
		r.Currency = strings.ToUpper(r.Currency)
		if !iataPattern.MatchString(r.Currency) {
			return fmt.Errorf("%w: %q", ErrInvalidCurrency, r.Currency)
		}
	}

	if r.MaxResults == 0 {
		r.MaxResults = 10
	}
	if r.MaxResults < 1 || r.MaxResults > 250 {
		return fmt.Errorf("%w: got %d", ErrInvalidMaxResults, r.MaxResults)
	}

	if r.MaxPrice < 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidMaxPrice, r.MaxPrice)
	}

	return nil
}

// RoundTrip reports whether the request includes a return journey.
func (r *SearchRequest) RoundTrip() bool {
	return r.ReturnDate != ""
}

// AutocompleteRequest is the canonical location-lookup request.
type AutocompleteRequest struct {
	Query    string   `json:"query"`
	Limit    int      `json:"limit"`
	SubTypes []string `json:"sub_types,omitempty"`
}

// Normalize validates the request in place and fills defaults.
func (r *AutocompleteRequest) Normalize() error {
	r.Query = strings.TrimSpace(r.Query)
	if r.Query == "" {
		return ErrEmptyQuery
	}

	if r.Limit == 0 {
		r.Limit = 5
	}
	if r.Limit < 1 || r.Limit > 20 {
		return fmt.Errorf("%w: got %d", ErrInvalidLimit, r.Limit)
	}

	if len(r.SubTypes) == 0 {
		r.SubTypes = []string{SubTypeCity, SubTypeAirport}
	}
	for i, st := range r.SubTypes {
		st = strings.ToUpper(st)
		if st != SubTypeCity && st != SubTypeAirport {
			return fmt.Errorf("%w: %q", ErrInvalidSubType, st)
		}
		r.SubTypes[i] = st
	}

	return nil
}

// PriceRequest is the canonical offer-pricing request. The offer payload is
// provider-shaped and passed through opaquely.
type PriceRequest struct {
	Offer    map[string]any `json:"flight_offer"`
	Currency string         `json:"currency,omitempty"`
}

// Normalize validates the request in place.
func (r *PriceRequest) Normalize() error {
	if len(r.Offer) == 0 {
		return ErrMissingOffer
	}
	if r.Currency != "" {
		r.Currency = strings.ToUpper(r.Currency)
		if !iataPattern.MatchString(r.Currency) {
			return fmt.Errorf("%w: %q", ErrInvalidCurrency, r.Currency)
		}
	}
	return nil
}
