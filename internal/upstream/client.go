// Package upstream talks to the external flight-pricing API: one POST
// to open a search session, repeated GETs to read its status and
// accumulated results.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/skyfare/pricewatch-mcp/internal/models"
	"github.com/skyfare/pricewatch-mcp/internal/ratelimit"
)

const (
	endpointSubmit = "submit"
	endpointPoll   = "poll"
)

// Error is a non-success response from the pricing provider. Body is
// the verbatim response text, kept for diagnosis.
type Error struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *Error) Error() string {
	return fmt.Sprintf("upstream %s failed: status %d: %s", e.Op, e.StatusCode, e.Body)
}

type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	limiter *ratelimit.EndpointLimiter
	log     zerolog.Logger
}

func NewClient(cfg Config, limiter *ratelimit.EndpointLimiter, log zerolog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		http:    &http.Client{Timeout: timeout},
		limiter: limiter,
		log:     log.With().Str("component", "upstream").Logger(),
	}
}

// Submit opens a new pricing session. The returned request_id is the
// only handle to the session; it is never generated locally.
func (c *Client) Submit(ctx context.Context, trip models.TripRequest) (*models.SubmitResponse, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx, endpointSubmit); err != nil {
			return nil, err
		}
	}

	body, err := json.Marshal(trip)
	if err != nil {
		return nil, fmt.Errorf("encoding trip request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/session", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	c.setHeaders(req)

	data, err := c.do(req, endpointSubmit)
	if err != nil {
		return nil, err
	}

	var resp models.SubmitResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("decoding submit response: %w", err)
	}

	c.log.Debug().Str("request_id", resp.RequestID).Str("status", resp.Status).Msg("session submitted")
	return &resp, nil
}

// sessionResponse mirrors the provider's GET /session/{id} payload.
type sessionResponse struct {
	RequestID string      `json:"request_id"`
	Status    string      `json:"status"`
	Results   []rawResult `json:"results"`
}

type rawResult struct {
	Price          json.Number `json:"price"`
	Currency       string      `json:"currency"`
	ConvertedPrice string      `json:"converted_price"`
	Website        string      `json:"website"`
	BookingURL     string      `json:"booking_url"`
	BookingLink    string      `json:"bookingUrl"`
	PrivateFare    any         `json:"private_fare"`
	Timestamp      string      `json:"timestamp"`
}

// Fetch reads the current session snapshot. Results keep the upstream
// order; rank is their 1-based position.
func (c *Client) Fetch(ctx context.Context, requestID string) (*models.Session, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx, endpointPoll); err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/session/"+requestID, nil)
	if err != nil {
		return nil, err
	}
	c.setHeaders(req)

	data, err := c.do(req, endpointPoll)
	if err != nil {
		return nil, err
	}

	var resp sessionResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("decoding session response: %w", err)
	}

	session := &models.Session{
		RequestID: resp.RequestID,
		Status:    resp.Status,
		Results:   make([]models.PriceResult, 0, len(resp.Results)),
		Raw:       json.RawMessage(data),
	}
	for i, r := range resp.Results {
		session.Results = append(session.Results, formatResult(r, i+1))
	}

	c.log.Debug().
		Str("request_id", session.RequestID).
		Str("status", session.Status).
		Int("results", len(session.Results)).
		Msg("session fetched")
	return session, nil
}

func formatResult(r rawResult, rank int) models.PriceResult {
	fare := models.FareStandard
	if pf, ok := r.PrivateFare.(string); ok && pf == "true" {
		fare = models.FareSpecial
	}

	bookingURL := r.BookingURL
	if bookingURL == "" {
		bookingURL = r.BookingLink
	}

	return models.PriceResult{
		Rank:           rank,
		Price:          fmt.Sprintf("%s %s", r.Price.String(), r.Currency),
		ConvertedPrice: r.ConvertedPrice,
		Website:        r.Website,
		BookingURL:     bookingURL,
		FareType:       fare,
		Timestamp:      r.Timestamp,
	}
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}
}

func (c *Client) do(req *http.Request, op string) ([]byte, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upstream %s request: %w", op, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading upstream %s response: %w", op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &Error{Op: op, StatusCode: resp.StatusCode, Body: string(data)}
	}

	return data, nil
}
