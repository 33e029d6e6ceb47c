// Package flight provides the canonical flight-search data model. Both the
// remote-tool path and the direct API path normalize their provider-shaped
// responses into these types, so callers never branch per path.
package flight

// Location is one autocomplete match.
type Location struct {
	Name      string  `json:"name"`
	Code      string  `json:"code"`
	Category  string  `json:"category"`
	TimeZone  string  `json:"timezone,omitempty"`
	Latitude  float64 `json:"latitude,omitempty"`
	Longitude float64 `json:"longitude,omitempty"`
}

// Segment is one flown leg of an itinerary.
type Segment struct {
	Carrier     string `json:"carrier"`
	Number      string `json:"number"`
	Origin      string `json:"origin"`
	Destination string `json:"destination"`
	Departs     string `json:"departs"`
	Arrives     string `json:"arrives"`
	Duration    string `json:"duration"`
	Aircraft    string `json:"aircraft,omitempty"`
	OperatedBy  string `json:"operated_by,omitempty"`
}

// Itinerary is an ordered sequence of segments.
type Itinerary struct {
	Duration string    `json:"duration"`
	Segments []Segment `json:"segments"`
}

// Offer is one priced flight offer. Raw keeps the full provider offer so it
// can be handed back verbatim to the pricing operation.
type Offer struct {
	ID          string         `json:"id"`
	OneWay      bool           `json:"one_way"`
	Total       string         `json:"total"`
	Currency    string         `json:"currency"`
	Itineraries []Itinerary    `json:"itineraries"`
	Raw         map[string]any `json:"raw,omitempty"`
}

// SearchResult is the normalized response of a flight search.
type SearchResult struct {
	Offers []Offer `json:"offers"`
}

// AutocompleteResult is the normalized response of a location lookup.
type AutocompleteResult struct {
	Locations []Location `json:"locations"`
}

// PriceResult carries the provider's confirmed pricing payload. Pricing
// responses stay provider-shaped since they are handed straight back to the
// booking step.
type PriceResult struct {
	Raw any `json:"raw"`
}
