package amadeus

import (
	"encoding/json"
	"fmt"

	"github.com/tripwing/tripwing/domain/flight"
)

// Wire shapes of the provider's REST responses. Only the fields the
// normalized model keeps are decoded.

type locationsResponse struct {
	Data []struct {
		Name           string `json:"name"`
		IATACode       string `json:"iataCode"`
		SubType        string `json:"subType"`
		TimeZoneOffset string `json:"timeZoneOffset"`
		GeoCode        struct {
			Latitude  float64 `json:"latitude"`
			Longitude float64 `json:"longitude"`
		} `json:"geoCode"`
	} `json:"data"`
}

type offersResponse struct {
	Data []json.RawMessage `json:"data"`
}

type offerWire struct {
	ID     string `json:"id"`
	OneWay bool   `json:"oneWay"`
	Price  struct {
		GrandTotal string `json:"grandTotal"`
		Currency   string `json:"currency"`
	} `json:"price"`
	Itineraries []struct {
		Duration string `json:"duration"`
		Segments []struct {
			CarrierCode string `json:"carrierCode"`
			Number      string `json:"number"`
			Departure   struct {
				IATACode string `json:"iataCode"`
				At       string `json:"at"`
			} `json:"departure"`
			Arrival struct {
				IATACode string `json:"iataCode"`
				At       string `json:"at"`
			} `json:"arrival"`
			Duration string `json:"duration"`
			Aircraft struct {
				Code string `json:"code"`
			} `json:"aircraft"`
			Operating struct {
				CarrierCode string `json:"carrierCode"`
			} `json:"operating"`
		} `json:"segments"`
	} `json:"itineraries"`
}

func normalizeLocations(raw []byte) (flight.AutocompleteResult, error) {
	var resp locationsResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return flight.AutocompleteResult{}, fmt.Errorf("parse locations response: %w", err)
	}

	result := flight.AutocompleteResult{Locations: make([]flight.Location, 0, len(resp.Data))}
	for _, item := range resp.Data {
		result.Locations = append(result.Locations, flight.Location{
			Name:      item.Name,
			Code:      item.IATACode,
			Category:  item.SubType,
			TimeZone:  item.TimeZoneOffset,
			Latitude:  item.GeoCode.Latitude,
			Longitude: item.GeoCode.Longitude,
		})
	}
	return result, nil
}

func normalizeOffers(raw []byte) (flight.SearchResult, error) {
	var resp offersResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return flight.SearchResult{}, fmt.Errorf("parse offers response: %w", err)
	}

	result := flight.SearchResult{Offers: make([]flight.Offer, 0, len(resp.Data))}
	for _, rawOffer := range resp.Data {
		var wire offerWire
		if err := json.Unmarshal(rawOffer, &wire); err != nil {
			return flight.SearchResult{}, fmt.Errorf("parse offer: %w", err)
		}

		// The untrimmed offer is what the pricing endpoint wants back.
		var full map[string]any
		if err := json.Unmarshal(rawOffer, &full); err != nil {
			return flight.SearchResult{}, fmt.Errorf("parse offer payload: %w", err)
		}

		offer := flight.Offer{
			ID:       wire.ID,
			OneWay:   wire.OneWay,
			Total:    wire.Price.GrandTotal,
			Currency: wire.Price.Currency,
			Raw:      full,
		}
		for _, itin := range wire.Itineraries {
			normalized := flight.Itinerary{Duration: itin.Duration}
			for _, seg := range itin.Segments {
				normalized.Segments = append(normalized.Segments, flight.Segment{
					Carrier:     seg.CarrierCode,
					Number:      seg.Number,
					Origin:      seg.Departure.IATACode,
					Destination: seg.Arrival.IATACode,
					Departs:     seg.Departure.At,
					Arrives:     seg.Arrival.At,
					Duration:    seg.Duration,
					Aircraft:    seg.Aircraft.Code,
					OperatedBy:  seg.Operating.CarrierCode,
				})
			}
			offer.Itineraries = append(offer.Itineraries, normalized)
		}
		result.Offers = append(result.Offers, offer)
	}
	return result, nil
}
