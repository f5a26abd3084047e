// Package nlparse turns free-text trip descriptions into structured
// search requests. The orchestration core treats this as an opaque
// collaborator: it either yields a full request or a follow-up question
// naming the missing fields.
package nlparse

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/rs/zerolog"

	"github.com/skyfare/pricewatch-mcp/internal/models"
	"github.com/skyfare/pricewatch-mcp/internal/normalize"
)

// NeedsMoreInfo asks the end user for the fields the text did not
// contain. Message is meant to be relayed conversationally.
type NeedsMoreInfo struct {
	Message       string   `json:"message"`
	MissingFields []string `json:"missingFields"`
}

// Result is either a complete trip request or a follow-up question,
// never both.
type Result struct {
	Trip          *models.TripRequest `json:"trip,omitempty"`
	NeedsMoreInfo *NeedsMoreInfo      `json:"needsMoreInfo,omitempty"`
}

type Parser interface {
	Parse(ctx context.Context, text string, prior *models.TripRequest) (*Result, error)
}

const systemPrompt = `You extract flight details from user text into JSON.
Respond with a single JSON object and nothing else.
When every flight segment is fully specified, respond with:
{"trip": {"legs": [{"segments": [{"airline": "XZ", "flightNumber": "2020", "departureAirport": "MXP", "arrivalAirport": "FCO", "departureDate": "YYYY-MM-DD", "departureTime": "HH:MM:SS", "arrivalTime": "HH:MM:SS", "plusDays": 0}]}], "travelClass": "ECONOMY", "adults": 1, "children": 0, "infantsInSeat": 0, "infantsOnLap": 0}, "price": "84.00", "currency": "EUR", "location": "IT"}
When details are missing, respond with:
{"needsMoreInfo": {"message": "<one short question for the user>", "missingFields": ["..."]}}`

// segmentFields is the authoritative per-segment field list used for
// missing-field detection, matching the nested schema names.
var segmentFields = []string{
	"airline",
	"flightNumber",
	"departureAirport",
	"arrivalAirport",
	"departureDate",
	"departureTime",
	"arrivalTime",
}

type OpenAIParser struct {
	client  openai.Client
	model   openai.ChatModel
	timeout time.Duration
	now     func() time.Time
	log     zerolog.Logger
}

type OpenAIConfig struct {
	APIKey  string
	Model   string
	Timeout time.Duration
}

func NewOpenAIParser(cfg OpenAIConfig, log zerolog.Logger) *OpenAIParser {
	model := openai.ChatModel(cfg.Model)
	if cfg.Model == "" {
		model = openai.ChatModelGPT4o
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 45 * time.Second
	}
	return &OpenAIParser{
		client:  openai.NewClient(option.WithAPIKey(cfg.APIKey)),
		model:   model,
		timeout: timeout,
		now:     time.Now,
		log:     log.With().Str("component", "nlparse").Logger(),
	}
}

// Parse races the model call against the configured timeout. prior, when
// present, gives the model the partially collected trip from an earlier
// turn.
func (p *OpenAIParser) Parse(ctx context.Context, text string, prior *models.TripRequest) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	messages := []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(systemPrompt),
	}
	if prior != nil {
		priorJSON, err := json.Marshal(prior)
		if err == nil {
			messages = append(messages, openai.SystemMessage("Previously collected trip details: "+string(priorJSON)))
		}
	}
	messages = append(messages, openai.UserMessage(text))

	completion, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    p.model,
		Messages: messages,
	})
	if err != nil {
		return nil, fmt.Errorf("trip parsing: %w", err)
	}
	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("trip parsing: empty completion")
	}

	return Interpret(completion.Choices[0].Message.Content, p.now())
}

// Interpret decodes a model response into a Result and re-checks field
// completeness locally, since the model's own missing-field detection
// is not trusted.
func Interpret(content string, now time.Time) (*Result, error) {
	content = stripFences(content)

	var raw map[string]any
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return nil, fmt.Errorf("trip parsing: malformed model output: %w", err)
	}

	if nmi, ok := raw["needsMoreInfo"].(map[string]any); ok {
		result := &Result{NeedsMoreInfo: &NeedsMoreInfo{}}
		if msg, ok := nmi["message"].(string); ok {
			result.NeedsMoreInfo.Message = msg
		}
		if fields, ok := nmi["missingFields"].([]any); ok {
			for _, f := range fields {
				if s, ok := f.(string); ok {
					result.NeedsMoreInfo.MissingFields = append(result.NeedsMoreInfo.MissingFields, s)
				}
			}
		}
		if result.NeedsMoreInfo.Message == "" {
			result.NeedsMoreInfo.Message = "I need a few more flight details to search prices."
		}
		return result, nil
	}

	trip := normalize.TripRequest(raw, now)
	if missing := MissingSegmentFields(trip); len(missing) > 0 {
		return &Result{NeedsMoreInfo: &NeedsMoreInfo{
			Message:       "I still need the following flight details: " + strings.Join(missing, ", ") + ".",
			MissingFields: missing,
		}}, nil
	}

	return &Result{Trip: &trip}, nil
}

// MissingSegmentFields reports which required segment fields are absent
// anywhere in the trip. A trip without legs is missing everything.
func MissingSegmentFields(trip models.TripRequest) []string {
	if len(trip.Trip.Legs) == 0 {
		return append([]string(nil), segmentFields...)
	}

	missing := map[string]bool{}
	sawSegment := false
	for _, leg := range trip.Trip.Legs {
		for _, seg := range leg.Segments {
			sawSegment = true
			if seg.Airline == "" {
				missing["airline"] = true
			}
			if seg.FlightNumber == "" {
				missing["flightNumber"] = true
			}
			if seg.DepartureAirport == "" {
				missing["departureAirport"] = true
			}
			if seg.ArrivalAirport == "" {
				missing["arrivalAirport"] = true
			}
			if seg.DepartureDate == "" {
				missing["departureDate"] = true
			}
			if seg.DepartureTime == "" || seg.DepartureTime == "00:00:00" {
				missing["departureTime"] = true
			}
			if seg.ArrivalTime == "" || seg.ArrivalTime == "00:00:00" {
				missing["arrivalTime"] = true
			}
		}
	}
	if !sawSegment {
		return append([]string(nil), segmentFields...)
	}

	var out []string
	for _, f := range segmentFields {
		if missing[f] {
			out = append(out, f)
		}
	}
	return out
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	return strings.TrimSpace(s)
}
