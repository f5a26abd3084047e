package models

// ValidationError marks caller input as incomplete or malformed. Its
// message is written to be relayed back to the end user conversationally,
// not as a protocol fault.
type ValidationError string

func (e ValidationError) Error() string {
	return string(e)
}

const (
	ErrNoLegs ValidationError = "I need at least one flight leg with at least one segment to search prices. Please provide the airline, flight number, airports, date and times."

	ErrRoundTripRequired ValidationError = "This search needs a round trip: please provide both an outbound and a return leg."

	ErrMissingRequestID ValidationError = "A request_id from a previous search is required to check its status."
)
