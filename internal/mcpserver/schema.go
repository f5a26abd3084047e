package mcpserver

import "github.com/google/jsonschema-go/jsonschema"

// Input schemas are deliberately permissive on formats: the normalizer
// fixes loose values, so the schema only pins the overall shape.

var segmentSchema = &jsonschema.Schema{
	Type: "object",
	Properties: map[string]*jsonschema.Schema{
		"airline":          {Type: "string", Description: "2-letter airline code, e.g. AZ"},
		"flightNumber":     {Type: "string", Description: "Flight number, digits only"},
		"departureAirport": {Type: "string", Description: "3-letter IATA code"},
		"arrivalAirport":   {Type: "string", Description: "3-letter IATA code"},
		"departureDate":    {Type: "string", Description: "YYYY-MM-DD"},
		"departureTime":    {Type: "string", Description: "HH:MM or HH:MM:SS"},
		"arrivalTime":      {Type: "string", Description: "HH:MM or HH:MM:SS"},
		"plusDays":         {Type: "integer", Description: "Arrival date offset, 0 or 1"},
	},
}

var tripSchema = &jsonschema.Schema{
	Type: "object",
	Properties: map[string]*jsonschema.Schema{
		"legs": {
			Type: "array",
			Items: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"segments": {Type: "array", Items: segmentSchema},
				},
			},
			Description: "One leg per direction; a round trip has two legs.",
		},
		"travelClass": {
			Type:        "string",
			Description: "ECONOMY, PREMIUM_ECONOMY, BUSINESS or FIRST (case-insensitive)",
		},
		"adults":        {Type: "integer"},
		"children":      {Type: "integer"},
		"infantsInSeat": {Type: "integer"},
		"infantsOnLap":  {Type: "integer"},
	},
}

var searchInputSchema = &jsonschema.Schema{
	Type: "object",
	Properties: map[string]*jsonschema.Schema{
		"trip":     tripSchema,
		"source":   {Type: "string", Description: "Where the reference price was seen: MANUAL, KAYAK, GOOGLE_FLIGHTS or BOOKING"},
		"price":    {Type: "string", Description: "Reference price, any loose format"},
		"currency": {Type: "string", Description: "3-letter ISO currency code"},
		"location": {Type: "string", Description: "User location: country code, country or city name, or timezone"},
	},
}

var statusInputSchema = &jsonschema.Schema{
	Type: "object",
	Properties: map[string]*jsonschema.Schema{
		"request_id": {Type: "string", Description: "The request_id returned by a previous search"},
	},
	Required: []string{"request_id"},
}

var parseInputSchema = &jsonschema.Schema{
	Type: "object",
	Properties: map[string]*jsonschema.Schema{
		"text": {Type: "string", Description: "Free-text description of the flight(s) to price"},
		"trip": tripSchema,
	},
	Required: []string{"text"},
}
