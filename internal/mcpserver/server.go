// Package mcpserver exposes the pricing pipeline over the Model Context
// Protocol: tool calls route through normalize → submit → poll → format,
// and a presentational resource serves the most recent payload.
package mcpserver

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"

	"github.com/skyfare/pricewatch-mcp/internal/format"
	"github.com/skyfare/pricewatch-mcp/internal/models"
	"github.com/skyfare/pricewatch-mcp/internal/nlparse"
	"github.com/skyfare/pricewatch-mcp/internal/normalize"
	"github.com/skyfare/pricewatch-mcp/internal/poll"
	"github.com/skyfare/pricewatch-mcp/internal/store"
	"github.com/skyfare/pricewatch-mcp/internal/upstream"
)

//go:embed widget.html
var widgetTemplate string

const (
	ToolSearch = "search-flight-prices"
	ToolStatus = "check-price-status"
	ToolParse  = "parse-trip-text"

	WidgetURI = "ui://flight-prices/results-widget.html"

	payloadPlaceholder = "__RESULTS_PAYLOAD__"
)

type Config struct {
	Name    string
	Version string
	// RequireRoundTrip makes the search tool insist on at least two
	// legs, for deployments that only price round trips.
	RequireRoundTrip bool
}

type Server struct {
	mcp              *mcp.Server
	client           poll.SessionClient
	orchestrator     *poll.Orchestrator
	results          store.Store
	parser           nlparse.Parser
	requireRoundTrip bool
	now              func() time.Time
	log              zerolog.Logger
}

// New wires the dispatcher. parser may be nil when natural-language
// parsing is not configured; the tool then reports that instead of
// failing the handshake.
func New(cfg Config, client poll.SessionClient, orchestrator *poll.Orchestrator, results store.Store, parser nlparse.Parser, log zerolog.Logger) *Server {
	name := cfg.Name
	if name == "" {
		name = "pricewatch"
	}
	version := cfg.Version
	if version == "" {
		version = "0.1.0"
	}

	s := &Server{
		client:           client,
		orchestrator:     orchestrator,
		results:          results,
		parser:           parser,
		requireRoundTrip: cfg.RequireRoundTrip,
		now:              time.Now,
		log:              log.With().Str("component", "mcpserver").Logger(),
	}

	s.mcp = mcp.NewServer(&mcp.Implementation{
		Name:    name,
		Title:   "Flight price search",
		Version: version,
	}, nil)

	s.registerTools()
	s.registerResources()

	return s
}

// MCP returns the underlying protocol server for transport binding.
func (s *Server) MCP() *mcp.Server {
	return s.mcp
}

// Run serves a single session over the given transport until the client
// disconnects or ctx is cancelled.
func (s *Server) Run(ctx context.Context, transport mcp.Transport) error {
	return s.mcp.Run(ctx, transport)
}

func (s *Server) registerTools() {
	widgetMeta := mcp.Meta{
		"openai/outputTemplate":          WidgetURI,
		"openai/toolInvocation/invoking": "Searching flight prices…",
		"openai/toolInvocation/invoked":  "Found flight prices",
	}

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        ToolSearch,
		Description: "Search prices for specific flights across booking websites. Provide the trip legs with their flight segments; the search runs asynchronously and may return partial results that grow on later status checks.",
		InputSchema: searchInputSchema,
		Meta:        widgetMeta,
	}, s.handleSearch)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        ToolStatus,
		Description: "Check an in-progress price search by request_id and return the results collected so far.",
		InputSchema: statusInputSchema,
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
		Meta: mcp.Meta{
			"openai/outputTemplate":          WidgetURI,
			"openai/toolInvocation/invoking": "Checking price search…",
			"openai/toolInvocation/invoked":  "Price search status fetched",
		},
	}, s.handleStatus)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        ToolParse,
		Description: "Extract structured flight details from free text. Returns either a complete trip request or a follow-up question listing the missing fields.",
		InputSchema: parseInputSchema,
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, s.handleParse)
}

func (s *Server) registerResources() {
	s.mcp.AddResource(&mcp.Resource{
		URI:         WidgetURI,
		Name:        "flight-price-results",
		Description: "Presentational widget rendering the most recent price search results.",
		MIMEType:    "text/html+skybridge",
	}, s.handleWidgetRead)
}

func (s *Server) handleSearch(ctx context.Context, req *mcp.CallToolRequest, args map[string]any) (res *mcp.CallToolResult, _ any, err error) {
	defer s.recovered(ToolSearch, &res, &err)

	trip := normalize.TripRequest(args, s.now())

	// Structural validation happens before any upstream call.
	if verr := s.validateTrip(trip); verr != nil {
		return validationResult(verr), nil, nil
	}

	outcome, err := s.orchestrator.Run(ctx, trip)
	if err != nil {
		return s.failure(ToolSearch, err)
	}

	payload := format.Payload(outcome, &trip)
	s.saveResult(ctx, payload)
	return payloadResult(payload), nil, nil
}

func (s *Server) handleStatus(ctx context.Context, req *mcp.CallToolRequest, args map[string]any) (res *mcp.CallToolResult, _ any, err error) {
	defer s.recovered(ToolStatus, &res, &err)

	requestID, _ := args["request_id"].(string)
	requestID = strings.TrimSpace(requestID)
	if requestID == "" {
		return validationResult(models.ErrMissingRequestID), nil, nil
	}

	session, err := s.client.Fetch(ctx, requestID)
	if err != nil {
		return s.failure(ToolStatus, err)
	}

	payload := format.Payload(&poll.Outcome{
		Resolution: poll.Classify(session),
		Session:    session,
		Attempts:   1,
	}, nil)
	s.saveResult(ctx, payload)
	return payloadResult(payload), nil, nil
}

func (s *Server) handleParse(ctx context.Context, req *mcp.CallToolRequest, args map[string]any) (res *mcp.CallToolResult, _ any, err error) {
	defer s.recovered(ToolParse, &res, &err)

	if s.parser == nil {
		return validationResult(models.ValidationError("Natural-language trip parsing is not configured on this server. Please provide structured flight details instead.")), nil, nil
	}

	text, _ := args["text"].(string)
	if strings.TrimSpace(text) == "" {
		return validationResult(models.ValidationError("Please describe the flight you want to price, including airline, flight number, airports, date and times.")), nil, nil
	}

	var prior *models.TripRequest
	if rawPrior, ok := args["trip"].(map[string]any); ok {
		normalized := normalize.TripRequest(map[string]any{"trip": rawPrior}, s.now())
		prior = &normalized
	}

	result, err := s.parser.Parse(ctx, text, prior)
	if err != nil {
		return s.failure(ToolParse, err)
	}

	if result.NeedsMoreInfo != nil {
		return structuredResult(result.NeedsMoreInfo.Message, result), nil, nil
	}
	return structuredResult("Parsed a complete trip request.", result), nil, nil
}

// handleWidgetRead injects the latest payload into the widget template.
// No prior result yields a null placeholder, not an error.
func (s *Server) handleWidgetRead(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	injected := "null"
	if payload, ok := s.results.Latest(ctx); ok {
		if data, err := json.Marshal(payload); err == nil {
			injected = string(data)
		}
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      WidgetURI,
			MIMEType: "text/html+skybridge",
			Text:     strings.Replace(widgetTemplate, payloadPlaceholder, injected, 1),
		}},
	}, nil
}

func (s *Server) validateTrip(trip models.TripRequest) error {
	if len(trip.Trip.Legs) == 0 {
		return models.ErrNoLegs
	}
	for _, leg := range trip.Trip.Legs {
		if len(leg.Segments) == 0 {
			return models.ErrNoLegs
		}
	}
	if s.requireRoundTrip && len(trip.Trip.Legs) < 2 {
		return models.ErrRoundTripRequired
	}
	return nil
}

// failure maps pipeline errors onto the protocol surface. Validation and
// upstream failures become isError tool results the host can relay;
// anything else propagates as an internal error.
func (s *Server) failure(tool string, err error) (*mcp.CallToolResult, any, error) {
	var verr models.ValidationError
	if errors.As(err, &verr) {
		return validationResult(verr), nil, nil
	}

	var subErr *poll.SubmissionError
	if errors.As(err, &subErr) {
		s.log.Warn().Err(err).Str("tool", tool).Msg("submission rejected")
		return errorResult("The flight pricing service did not accept the search: " + subErr.Message), nil, nil
	}

	var uerr *upstream.Error
	if errors.As(err, &uerr) {
		s.log.Warn().Int("status", uerr.StatusCode).Str("tool", tool).Msg("upstream failure")
		return errorResult(fmt.Sprintf("The flight pricing service returned an error (status %d): %s", uerr.StatusCode, uerr.Body)), nil, nil
	}

	s.log.Error().Err(err).Str("tool", tool).Msg("tool call failed")
	return nil, nil, err
}

func (s *Server) recovered(tool string, res **mcp.CallToolResult, err *error) {
	if r := recover(); r != nil {
		s.log.Error().Any("panic", r).Str("tool", tool).Msg("recovered panic in tool handler")
		*res = nil
		*err = fmt.Errorf("internal error handling %s", tool)
	}
}

func (s *Server) saveResult(ctx context.Context, payload *models.SearchPayload) {
	if payload.RequestID == "" {
		return
	}
	if err := s.results.Put(ctx, payload.RequestID, payload); err != nil {
		s.log.Warn().Err(err).Str("request_id", payload.RequestID).Msg("storing result payload failed")
	}
}

func validationResult(err error) *mcp.CallToolResult {
	return errorResult(err.Error())
}

func errorResult(message string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: message}},
	}
}

func payloadResult(payload *models.SearchPayload) *mcp.CallToolResult {
	data, err := json.Marshal(payload)
	if err != nil {
		return errorResult("encoding result payload: " + err.Error())
	}
	return &mcp.CallToolResult{
		Content:           []mcp.Content{&mcp.TextContent{Text: string(data)}},
		StructuredContent: payload,
	}
}

func structuredResult(text string, v any) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content:           []mcp.Content{&mcp.TextContent{Text: text}},
		StructuredContent: v,
	}
}
