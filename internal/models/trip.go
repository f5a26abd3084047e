package models

// TripRequest is the normalized search request submitted to the pricing
// provider. Field formats are strict: the upstream API rejects anything
// that deviates, so all loose caller input goes through the normalizer
// before a TripRequest is built.
type TripRequest struct {
	Trip     Trip   `json:"trip"`
	Source   string `json:"source"`
	Price    string `json:"price,omitempty"`
	Currency string `json:"currency,omitempty"`
	// Location is a 2-letter country code. It is omitted entirely when
	// unresolved; upstream rejects an empty string.
	Location string `json:"location,omitempty"`
}

type Trip struct {
	Legs          []Leg  `json:"legs"`
	TravelClass   string `json:"travelClass"`
	Adults        int    `json:"adults"`
	Children      int    `json:"children"`
	InfantsInSeat int    `json:"infantsInSeat"`
	InfantsOnLap  int    `json:"infantsOnLap"`
}

// Leg is one directional portion of a trip, made of one or more segments.
type Leg struct {
	Segments []Segment `json:"segments"`
}

// Segment is a single airline/flight-number hop. Times are always
// HH:MM:SS and dates YYYY-MM-DD.
type Segment struct {
	Airline          string `json:"airline"`
	FlightNumber     string `json:"flightNumber"`
	DepartureAirport string `json:"departureAirport"`
	ArrivalAirport   string `json:"arrivalAirport"`
	DepartureDate    string `json:"departureDate"`
	DepartureTime    string `json:"departureTime"`
	ArrivalTime      string `json:"arrivalTime"`
	PlusDays         int    `json:"plusDays"`
}

const (
	ClassEconomy        = "ECONOMY"
	ClassPremiumEconomy = "PREMIUM_ECONOMY"
	ClassBusiness       = "BUSINESS"
	ClassFirst          = "FIRST"
)

const (
	SourceManual        = "MANUAL"
	SourceKayak         = "KAYAK"
	SourceGoogleFlights = "GOOGLE_FLIGHTS"
	SourceBooking       = "BOOKING"
)

// KnownSources is the closed allow-list for TripRequest.Source. Anything
// else maps to MANUAL.
var KnownSources = []string{SourceManual, SourceKayak, SourceGoogleFlights, SourceBooking}

// Passengers returns the total traveller count across all categories.
func (t Trip) Passengers() int {
	return t.Adults + t.Children + t.InfantsInSeat + t.InfantsOnLap
}
