package normalize

import (
	"encoding/json"
	"reflect"
	"testing"
	"time"

	"github.com/skyfare/pricewatch-mcp/internal/models"
)

var testNow = time.Date(2025, 12, 1, 10, 0, 0, 0, time.UTC)

func TestTimeOfDayPadding(t *testing.T) {
	cases := map[string]string{
		"07:10":    "07:10:00",
		"23:59":    "23:59:00",
		"":         "00:00:00",
		"08:25:30": "08:25:30",
	}
	for in, want := range cases {
		if got := timeOfDay(in); got != want {
			t.Fatalf("timeOfDay(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSourceAllowList(t *testing.T) {
	cases := map[string]string{
		"kayak":          "KAYAK",
		"GOOGLE_FLIGHTS": "GOOGLE_FLIGHTS",
		"Booking":        "BOOKING",
		"manual":         "MANUAL",
		"chatgpt":        "MANUAL",
		"":               "MANUAL",
		"skyscanner":     "MANUAL",
	}
	for in, want := range cases {
		if got := source(in); got != want {
			t.Fatalf("source(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestPriceFormatting(t *testing.T) {
	cases := map[string]string{
		"84":        "84.00",
		"84.5":      "84.50",
		"€1,234.56": "1234.56",
		"USD 99":    "99.00",
		"cheap":     "cheap",
		"":          "",
	}
	for in, want := range cases {
		if got := price(in); got != want {
			t.Fatalf("price(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestFlightNumberDigitExtraction(t *testing.T) {
	seg := segment(map[string]any{"flightNumber": "AZ2020"}, testNow)
	if seg.FlightNumber != "2020" {
		t.Fatalf("flight number = %q, want 2020", seg.FlightNumber)
	}
}

func TestPlusDaysDefaults(t *testing.T) {
	if got := plusDays("tomorrow"); got != 0 {
		t.Fatalf("plusDays on string = %d, want 0", got)
	}
	if got := plusDays(nil); got != 0 {
		t.Fatalf("plusDays on nil = %d, want 0", got)
	}
	if got := plusDays(float64(1)); got != 1 {
		t.Fatalf("plusDays(1) = %d, want 1", got)
	}
}

func TestMissingStructureGetsDefaults(t *testing.T) {
	req := TripRequest(map[string]any{}, testNow)
	if req.Trip.Legs == nil || len(req.Trip.Legs) != 0 {
		t.Fatalf("expected empty legs slice, got %#v", req.Trip.Legs)
	}
	if req.Trip.Adults != 1 {
		t.Fatalf("adults = %d, want 1", req.Trip.Adults)
	}
	if req.Source != models.SourceManual {
		t.Fatalf("source = %q, want MANUAL", req.Source)
	}
	if req.Location != "" {
		t.Fatalf("location should be absent, got %q", req.Location)
	}
}

func TestEndToEndScenario(t *testing.T) {
	raw := map[string]any{
		"trip": map[string]any{
			"legs": []any{
				map[string]any{
					"segments": []any{
						map[string]any{
							"airline":          "XZ",
							"flightNumber":     "2020",
							"departureAirport": "MXP",
							"arrivalAirport":   "FCO",
							"departureDate":    "2025-12-16",
							"departureTime":    "07:10",
							"arrivalTime":      "08:25",
							"plusDays":         float64(0),
						},
					},
				},
			},
			"travelClass":   "economy",
			"adults":        float64(1),
			"children":      float64(0),
			"infantsInSeat": float64(0),
			"infantsOnLap":  float64(0),
		},
		"source":   "chatgpt",
		"price":    "84",
		"currency": "eur",
		"location": "Milan, Italy",
	}

	req := TripRequest(raw, testNow)

	if req.Trip.TravelClass != "ECONOMY" {
		t.Fatalf("travelClass = %q", req.Trip.TravelClass)
	}
	if req.Source != "MANUAL" {
		t.Fatalf("source = %q", req.Source)
	}
	if req.Price != "84.00" {
		t.Fatalf("price = %q", req.Price)
	}
	if req.Currency != "EUR" {
		t.Fatalf("currency = %q", req.Currency)
	}
	if req.Location != "IT" {
		t.Fatalf("location = %q", req.Location)
	}
	seg := req.Trip.Legs[0].Segments[0]
	if seg.DepartureTime != "07:10:00" || seg.ArrivalTime != "08:25:00" {
		t.Fatalf("times = %q / %q", seg.DepartureTime, seg.ArrivalTime)
	}
}

func TestIdempotence(t *testing.T) {
	raw := map[string]any{
		"trip": map[string]any{
			"legs": []any{
				map[string]any{
					"segments": []any{
						map[string]any{
							"airline":          "XZ",
							"flightNumber":     "AZ2020",
							"departureAirport": "MXP",
							"arrivalAirport":   "FCO",
							"departureDate":    "2025-12-16",
							"departureTime":    "07:10",
							"arrivalTime":      "08:25",
						},
					},
				},
			},
			"travelClass": "economy",
			"adults":      float64(2),
		},
		"source":   "kayak",
		"price":    "€84",
		"currency": "eur",
		"location": "Europe/Rome",
	}

	first := TripRequest(raw, testNow)

	// Round-trip through JSON the way a second normalization pass would
	// see it.
	data, err := json.Marshal(first)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var asRaw map[string]any
	if err := json.Unmarshal(data, &asRaw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	second := TripRequest(asRaw, testNow)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("not idempotent:\nfirst:  %#v\nsecond: %#v", first, second)
	}
}
