package flight

import "errors"

// Validation errors. Their text deliberately contains "invalid" so the
// recovery layer classifies them as validation faults.
var (
	ErrInvalidIATA       = errors.New("invalid IATA code: must be exactly 3 letters")
	ErrInvalidDate       = errors.New("invalid date: must be YYYY-MM-DD")
	ErrInvalidAdults     = errors.New("invalid adults count: must be between 1 and 9")
	ErrInvalidCabin      = errors.New("invalid cabin class")
	ErrInvalidCurrency   = errors.New("invalid currency: must be a 3-letter code")
	ErrInvalidMaxResults = errors.New("invalid max results: must be between 1 and 250")
	ErrInvalidMaxPrice   = errors.New("invalid max price: must be positive")
	ErrEmptyQuery        = errors.New("invalid query: must not be empty")
	ErrInvalidLimit      = errors.New("invalid limit: must be between 1 and 20")
	ErrInvalidSubType    = errors.New("invalid location subtype")
	ErrMissingOffer      = errors.New("invalid price request: flight offer is required")
)
