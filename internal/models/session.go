package models

import "encoding/json"

// Session statuses as reported by the pricing provider.
const (
	StatusInProgress = "IN_PROGRESS"
	StatusCompleted  = "COMPLETED"
)

const (
	FareStandard = "Standard Fare"
	FareSpecial  = "Special Fare"
)

// SubmitResponse is the provider's acknowledgement of a new search
// session. RequestID is opaque and only ever minted upstream.
type SubmitResponse struct {
	RequestID string `json:"request_id"`
	Status    string `json:"status"`
	Message   string `json:"message,omitempty"`
}

// PriceResult is one priced offer from one booking website. Rank is the
// 1-based position in the upstream order; the provider pre-sorts and we
// never re-sort.
type PriceResult struct {
	Rank           int    `json:"rank"`
	Price          string `json:"price"`
	ConvertedPrice string `json:"convertedPrice,omitempty"`
	Website        string `json:"website"`
	BookingURL     string `json:"bookingUrl,omitempty"`
	FareType       string `json:"fareType"`
	Timestamp      string `json:"timestamp,omitempty"`
}

// Session is a snapshot of one upstream price-search job. It is never
// cached locally; it mutates only by re-fetching from the provider.
type Session struct {
	RequestID string        `json:"request_id"`
	Status    string        `json:"status"`
	Results   []PriceResult `json:"results"`
	// Raw is the untouched upstream response body, kept for diagnostics.
	Raw json.RawMessage `json:"-"`
}

// EffectivelySuccessful reports whether the session has anything worth
// showing. A non-empty result list counts as success even while the
// provider still reports IN_PROGRESS; later re-polls pick up the rest.
func (s *Session) EffectivelySuccessful() bool {
	return s.Status == StatusCompleted || len(s.Results) > 0
}
