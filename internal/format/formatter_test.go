package format

import (
	"testing"

	"github.com/skyfare/pricewatch-mcp/internal/models"
	"github.com/skyfare/pricewatch-mcp/internal/poll"
)

func oneWayTrip() *models.TripRequest {
	return &models.TripRequest{
		Trip: models.Trip{
			Legs: []models.Leg{{Segments: []models.Segment{{
				DepartureAirport: "MXP",
				ArrivalAirport:   "FCO",
				DepartureDate:    "2025-12-16",
			}}}},
			TravelClass: models.ClassEconomy,
			Adults:      1,
		},
	}
}

func TestPayloadCountsAndEcho(t *testing.T) {
	outcome := &poll.Outcome{
		Resolution: poll.ResolvedComplete,
		Session: &models.Session{
			RequestID: "req-9",
			Status:    models.StatusCompleted,
			Results: []models.PriceResult{
				{Rank: 1, Price: "84.00 EUR", Website: "kayak", FareType: models.FareStandard},
				{Rank: 2, Price: "91.30 EUR", Website: "booking", FareType: models.FareSpecial},
			},
		},
	}

	payload := Payload(outcome, oneWayTrip())
	if payload.RequestID != "req-9" || payload.Status != models.StatusCompleted {
		t.Fatalf("session echo wrong: %+v", payload)
	}
	if payload.ResultCount != 2 || len(payload.Results) != 2 {
		t.Fatalf("result count = %d", payload.ResultCount)
	}
	if payload.Resolution != string(poll.ResolvedComplete) {
		t.Fatalf("resolution = %q", payload.Resolution)
	}
	if payload.TripSummary == nil {
		t.Fatal("expected a trip summary")
	}
}

func TestPayloadNeverNilResults(t *testing.T) {
	outcome := &poll.Outcome{
		Resolution: poll.ResolvedEmpty,
		Session:    &models.Session{RequestID: "req-9", Status: models.StatusInProgress},
	}
	payload := Payload(outcome, nil)
	if payload.Results == nil {
		t.Fatal("results must be an empty slice, not nil")
	}
	if payload.TripSummary != nil {
		t.Fatalf("summary without trip context should be nil, got %q", *payload.TripSummary)
	}
}

func TestTripSummaryOneWay(t *testing.T) {
	got := TripSummary(oneWayTrip())
	if got == nil {
		t.Fatal("expected summary")
	}
	want := "MXP → FCO · Dec 16, 2025 · 1 passenger · Economy"
	if *got != want {
		t.Fatalf("summary = %q, want %q", *got, want)
	}
}

func TestTripSummaryRoundTrip(t *testing.T) {
	trip := oneWayTrip()
	trip.Trip.Legs = append(trip.Trip.Legs, models.Leg{Segments: []models.Segment{{
		DepartureAirport: "FCO",
		ArrivalAirport:   "MXP",
		DepartureDate:    "2025-12-20",
	}}})
	trip.Trip.Adults = 2
	trip.Trip.Children = 1
	trip.Trip.TravelClass = models.ClassPremiumEconomy

	got := TripSummary(trip)
	if got == nil {
		t.Fatal("expected summary")
	}
	want := "MXP ⇄ FCO · Dec 16, 2025 · 3 passengers · Premium Economy"
	if *got != want {
		t.Fatalf("summary = %q, want %q", *got, want)
	}
}

func TestTripSummaryDegradesToNil(t *testing.T) {
	bad := oneWayTrip()
	bad.Trip.Legs[0].Segments[0].DepartureDate = "sometime in december"
	if got := TripSummary(bad); got != nil {
		t.Fatalf("malformed date should degrade to nil, got %q", *got)
	}

	empty := &models.TripRequest{}
	if got := TripSummary(empty); got != nil {
		t.Fatalf("empty trip should degrade to nil, got %q", *got)
	}

	noSegments := &models.TripRequest{Trip: models.Trip{Legs: []models.Leg{{}}}}
	if got := TripSummary(noSegments); got != nil {
		t.Fatalf("leg without segments should degrade to nil, got %q", *got)
	}
}
