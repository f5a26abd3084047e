// Package normalize coerces loosely structured caller input into the
// strict field formats the pricing provider expects. It fixes format
// only; completeness checks belong to the caller. It never fails:
// missing structure is replaced with safe defaults.
package normalize

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/skyfare/pricewatch-mcp/internal/geo"
	"github.com/skyfare/pricewatch-mcp/internal/models"
)

var digitRun = regexp.MustCompile(`[0-9]+`)
var nonPrice = regexp.MustCompile(`[^0-9.]`)

// TripRequest builds a normalized request from an arbitrary caller
// object. now supplies the deterministic current-date context used for
// missing departure dates.
func TripRequest(raw map[string]any, now time.Time) models.TripRequest {
	req := models.TripRequest{
		Trip: trip(asMap(raw["trip"]), now),
	}

	req.Source = source(asString(raw["source"]))
	req.Price = price(asString(raw["price"]))
	req.Currency = strings.ToUpper(strings.TrimSpace(asString(raw["currency"])))

	if cc, ok := geo.ResolveCountry(asString(raw["location"])); ok {
		req.Location = cc
	}

	return req
}

func trip(raw map[string]any, now time.Time) models.Trip {
	t := models.Trip{
		Legs:          []models.Leg{},
		TravelClass:   strings.ToUpper(strings.TrimSpace(asString(raw["travelClass"]))),
		Adults:        count(raw["adults"]),
		Children:      count(raw["children"]),
		InfantsInSeat: count(raw["infantsInSeat"]),
		InfantsOnLap:  count(raw["infantsOnLap"]),
	}
	if t.Adults < 1 {
		t.Adults = 1
	}

	for _, rawLeg := range asSlice(raw["legs"]) {
		legMap := asMap(rawLeg)
		leg := models.Leg{Segments: []models.Segment{}}
		for _, rawSeg := range asSlice(legMap["segments"]) {
			leg.Segments = append(leg.Segments, segment(asMap(rawSeg), now))
		}
		t.Legs = append(t.Legs, leg)
	}

	return t
}

func segment(raw map[string]any, now time.Time) models.Segment {
	seg := models.Segment{
		Airline:          strings.TrimSpace(asString(raw["airline"])),
		FlightNumber:     digitRun.FindString(asString(raw["flightNumber"])),
		DepartureAirport: strings.TrimSpace(asString(raw["departureAirport"])),
		ArrivalAirport:   strings.TrimSpace(asString(raw["arrivalAirport"])),
		DepartureDate:    strings.TrimSpace(asString(raw["departureDate"])),
		DepartureTime:    timeOfDay(asString(raw["departureTime"])),
		ArrivalTime:      timeOfDay(asString(raw["arrivalTime"])),
		PlusDays:         plusDays(raw["plusDays"]),
	}
	if seg.DepartureDate == "" {
		seg.DepartureDate = now.Format("2006-01-02")
	}
	return seg
}

// timeOfDay pads time strings to HH:MM:SS. A 5-character HH:MM gets a
// :00 seconds suffix; empty input becomes midnight.
func timeOfDay(s string) string {
	s = strings.TrimSpace(s)
	switch {
	case s == "":
		return "00:00:00"
	case len(s) == 5:
		return s + ":00"
	default:
		return s
	}
}

// price strips everything but digits and dots, then reformats to two
// decimals. Input that still fails to parse passes through untouched.
func price(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}
	stripped := nonPrice.ReplaceAllString(s, "")
	v, err := strconv.ParseFloat(stripped, 64)
	if err != nil {
		return s
	}
	return fmt.Sprintf("%.2f", v)
}

func source(s string) string {
	upper := strings.ToUpper(strings.TrimSpace(s))
	for _, known := range models.KnownSources {
		if upper == known {
			return known
		}
	}
	return models.SourceManual
}

func plusDays(v any) int {
	f, ok := v.(float64)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return int(f)
}

func count(v any) int {
	switch n := v.(type) {
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) || n < 0 {
			return 0
		}
		return int(n)
	case int:
		if n < 0 {
			return 0
		}
		return n
	default:
		return 0
	}
}

func asString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case float64:
		if s == math.Trunc(s) {
			return strconv.FormatInt(int64(s), 10)
		}
		return strconv.FormatFloat(s, 'f', -1, 64)
	case int:
		return strconv.Itoa(s)
	default:
		return ""
	}
}

func asMap(v any) map[string]any {
	if m, ok := v.(map[string]any); ok {
		return m
	}
	return map[string]any{}
}

func asSlice(v any) []any {
	if s, ok := v.([]any); ok {
		return s
	}
	return nil
}
