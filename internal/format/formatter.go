// Package format turns a session snapshot into the display-ready
// payload handed to the protocol layer and the presentation widget.
package format

import (
	"fmt"
	"strings"
	"time"

	"github.com/skyfare/pricewatch-mcp/internal/models"
	"github.com/skyfare/pricewatch-mcp/internal/poll"
)

// Payload assembles the caller-facing view of an orchestration outcome.
// trip is optional context for the human-readable summary.
func Payload(outcome *poll.Outcome, trip *models.TripRequest) *models.SearchPayload {
	session := outcome.Session
	results := session.Results
	if results == nil {
		results = []models.PriceResult{}
	}

	return &models.SearchPayload{
		RequestID:   session.RequestID,
		Status:      session.Status,
		Resolution:  string(outcome.Resolution),
		ResultCount: len(results),
		Results:     results,
		TripSummary: TripSummary(trip),
	}
}

// TripSummary builds a one-line route description, e.g.
// "MXP → FCO · Dec 16, 2025 · 1 passenger · Economy". Any malformed
// input degrades to nil, never an error.
func TripSummary(trip *models.TripRequest) *string {
	if trip == nil || len(trip.Trip.Legs) == 0 {
		return nil
	}

	legs := trip.Trip.Legs
	firstLeg := legs[0]
	lastLeg := legs[len(legs)-1]
	if len(firstLeg.Segments) == 0 || len(lastLeg.Segments) == 0 {
		return nil
	}

	origin := firstLeg.Segments[0].DepartureAirport
	destination := lastLeg.Segments[len(lastLeg.Segments)-1].ArrivalAirport
	if origin == "" || destination == "" {
		return nil
	}

	arrow := "→"
	if len(legs) > 1 {
		// Multi-leg trips read better as a round trip.
		arrow = "⇄"
		destination = firstLeg.Segments[len(firstLeg.Segments)-1].ArrivalAirport
		if destination == "" {
			return nil
		}
	}

	date, err := time.Parse("2006-01-02", firstLeg.Segments[0].DepartureDate)
	if err != nil {
		return nil
	}

	parts := []string{
		fmt.Sprintf("%s %s %s", origin, arrow, destination),
		date.Format("Jan 2, 2006"),
		passengerLabel(trip.Trip.Passengers()),
	}
	if class := classLabel(trip.Trip.TravelClass); class != "" {
		parts = append(parts, class)
	}

	summary := strings.Join(parts, " · ")
	return &summary
}

func passengerLabel(n int) string {
	if n <= 1 {
		return "1 passenger"
	}
	return fmt.Sprintf("%d passengers", n)
}

// classLabel capitalizes an uppercase travel class for display:
// PREMIUM_ECONOMY becomes "Premium Economy".
func classLabel(class string) string {
	if class == "" {
		return ""
	}
	words := strings.Split(strings.ToLower(class), "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
