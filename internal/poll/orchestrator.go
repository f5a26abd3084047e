// Package poll drives an upstream pricing session from submission to a
// usable snapshot. Upstream searches fan out across many booking sites
// and finish at different times, so the loop favors returning something
// quickly over waiting for full completion; the presentation layer is
// expected to re-invoke the status-check tool for later results.
package poll

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/skyfare/pricewatch-mcp/internal/models"
)

// Resolution is the terminal state of one orchestration run.
type Resolution string

const (
	ResolvedComplete Resolution = "RESOLVED_COMPLETE"
	ResolvedPartial  Resolution = "RESOLVED_PARTIAL"
	ResolvedEmpty    Resolution = "RESOLVED_EMPTY"
)

// SessionClient is the slice of the upstream client the orchestrator
// needs.
type SessionClient interface {
	Submit(ctx context.Context, trip models.TripRequest) (*models.SubmitResponse, error)
	Fetch(ctx context.Context, requestID string) (*models.Session, error)
}

type Config struct {
	MaxAttempts int
	Interval    time.Duration
}

// DefaultConfig is the fixed polling policy: it is not caller-tunable
// through the protocol surface.
func DefaultConfig() Config {
	return Config{
		MaxAttempts: 10,
		Interval:    6 * time.Second,
	}
}

type Orchestrator struct {
	client SessionClient
	config Config
	log    zerolog.Logger
}

// Outcome is the most useful snapshot the loop could produce.
type Outcome struct {
	Resolution Resolution
	Session    *models.Session
	Attempts   int
}

func NewOrchestrator(client SessionClient, config Config, log zerolog.Logger) *Orchestrator {
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = DefaultConfig().MaxAttempts
	}
	if config.Interval <= 0 {
		config.Interval = DefaultConfig().Interval
	}
	return &Orchestrator{
		client: client,
		config: config,
		log:    log.With().Str("component", "poll").Logger(),
	}
}

// Run submits the trip and polls the session to one of its three
// resolutions. Submission failure fails fast with no polling. Cancelling
// ctx stops further fetches and returns the last-known snapshot instead
// of an error.
func (o *Orchestrator) Run(ctx context.Context, trip models.TripRequest) (*Outcome, error) {
	submitted, err := o.client.Submit(ctx, trip)
	if err != nil {
		return nil, err
	}
	if submitted.RequestID == "" {
		return nil, &SubmissionError{Message: submitted.Message}
	}

	return o.Await(ctx, submitted.RequestID)
}

// Await polls an already-submitted session.
func (o *Orchestrator) Await(ctx context.Context, requestID string) (*Outcome, error) {
	var last *models.Session
	seenResults := false

	for attempt := 1; attempt <= o.config.MaxAttempts; attempt++ {
		select {
		case <-time.After(o.config.Interval):
		case <-ctx.Done():
			return o.cancelled(requestID, last, attempt), nil
		}

		session, err := o.client.Fetch(ctx, requestID)
		if err != nil {
			if ctx.Err() != nil {
				return o.cancelled(requestID, last, attempt), nil
			}
			// Individual poll failures never abort the loop.
			o.log.Warn().Err(err).Str("request_id", requestID).Int("attempt", attempt).Msg("poll attempt failed")
			continue
		}

		last = session

		if session.Status == models.StatusCompleted {
			o.log.Info().Str("request_id", requestID).Int("attempt", attempt).Msg("session completed")
			return &Outcome{Resolution: ResolvedComplete, Session: session, Attempts: attempt}, nil
		}

		if len(session.Results) > 0 {
			seenResults = true
			if attempt == o.config.MaxAttempts {
				return &Outcome{Resolution: ResolvedPartial, Session: session, Attempts: attempt}, nil
			}
			o.log.Debug().Str("request_id", requestID).Int("attempt", attempt).
				Int("results", len(session.Results)).Msg("partial results, continuing")
			continue
		}

		o.log.Debug().Str("request_id", requestID).Int("attempt", attempt).Msg("no results yet")
	}

	if seenResults && last != nil {
		// Results were seen but the final attempt itself failed; return
		// the last good snapshot.
		return &Outcome{Resolution: ResolvedPartial, Session: last, Attempts: o.config.MaxAttempts}, nil
	}

	// Exhausted with nothing ever observed: one final unconditional
	// fetch, surfaced as-is.
	session, err := o.client.Fetch(ctx, requestID)
	if err != nil {
		return nil, err
	}
	return &Outcome{
		Resolution: Classify(session),
		Session:    session,
		Attempts:   o.config.MaxAttempts + 1,
	}, nil
}

func (o *Orchestrator) cancelled(requestID string, last *models.Session, attempt int) *Outcome {
	o.log.Info().Str("request_id", requestID).Int("attempt", attempt).Msg("polling cancelled, returning last snapshot")
	if last == nil {
		last = &models.Session{RequestID: requestID, Status: models.StatusInProgress}
	}
	resolution := ResolvedEmpty
	if len(last.Results) > 0 {
		resolution = ResolvedPartial
	}
	return &Outcome{Resolution: resolution, Session: last, Attempts: attempt}
}

// Classify maps a single session snapshot onto a resolution.
func Classify(session *models.Session) Resolution {
	switch {
	case session.Status == models.StatusCompleted:
		return ResolvedComplete
	case len(session.Results) > 0:
		return ResolvedPartial
	default:
		return ResolvedEmpty
	}
}

// SubmissionError means the provider acknowledged the request without
// minting a request_id, so there is nothing to poll.
type SubmissionError struct {
	Message string
}

func (e *SubmissionError) Error() string {
	if e.Message != "" {
		return "session submission returned no request_id: " + e.Message
	}
	return "session submission returned no request_id"
}
