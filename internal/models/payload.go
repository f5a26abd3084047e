package models

// SearchPayload is the caller-facing view of a finished (or partial)
// price search, produced by the formatter and injected verbatim into the
// presentation widget.
type SearchPayload struct {
	RequestID   string        `json:"request_id"`
	Status      string        `json:"status"`
	Resolution  string        `json:"resolution"`
	ResultCount int           `json:"result_count"`
	Results     []PriceResult `json:"results"`
	TripSummary *string       `json:"trip_summary"`
}
