package runtime

import "context"

// FlightQuery is the input of a flight availability lookup. Time is the
// reference instant for the 12-hour filter; empty means now.
type FlightQuery struct {
	FlightDate string `json:"FlightDate"`
	FlightType string `json:"FlightType"`
	Time       string `json:"Time,omitempty"`
}

// FlightRow is one row returned by the flight API. Its fields are optional
// and looked up by name.
type FlightRow = map[string]any

// FlightLookup fetches the flights available for a query.
type FlightLookup interface {
	Lookup(ctx context.Context, query FlightQuery) ([]FlightRow, error)
}

// PrefetchStore keeps lookup results per flow token for later steps.
type PrefetchStore interface {
	Put(ctx context.Context, flowToken string, rows []FlightRow) error
	Get(ctx context.Context, flowToken string) ([]FlightRow, bool, error)
}
