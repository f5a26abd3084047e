package poll

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/skyfare/pricewatch-mcp/internal/models"
)

type scriptedClient struct {
	submit    *models.SubmitResponse
	submitErr error
	fetches   []fetchStep
	calls     int
}

type fetchStep struct {
	session *models.Session
	err     error
}

func (c *scriptedClient) Submit(ctx context.Context, trip models.TripRequest) (*models.SubmitResponse, error) {
	if c.submitErr != nil {
		return nil, c.submitErr
	}
	if c.submit == nil {
		return &models.SubmitResponse{RequestID: "req-1", Status: models.StatusInProgress}, nil
	}
	return c.submit, nil
}

func (c *scriptedClient) Fetch(ctx context.Context, requestID string) (*models.Session, error) {
	step := c.fetches[len(c.fetches)-1]
	if c.calls < len(c.fetches) {
		step = c.fetches[c.calls]
	}
	c.calls++
	if step.err != nil {
		return nil, step.err
	}
	return step.session, nil
}

func testOrchestrator(c SessionClient) *Orchestrator {
	return NewOrchestrator(c, Config{MaxAttempts: 10, Interval: time.Millisecond}, zerolog.Nop())
}

func inProgress(results int) *models.Session {
	s := &models.Session{RequestID: "req-1", Status: models.StatusInProgress}
	for i := 0; i < results; i++ {
		s.Results = append(s.Results, models.PriceResult{Rank: i + 1, Price: "84.00 EUR", Website: "kayak", FareType: models.FareStandard})
	}
	return s
}

func completed(results int) *models.Session {
	s := inProgress(results)
	s.Status = models.StatusCompleted
	return s
}

func TestCompletesOnThirdAttempt(t *testing.T) {
	client := &scriptedClient{fetches: []fetchStep{
		{session: inProgress(0)},
		{session: inProgress(0)},
		{session: completed(2)},
	}}

	outcome, err := testOrchestrator(client).Run(context.Background(), models.TripRequest{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.Resolution != ResolvedComplete {
		t.Fatalf("resolution = %s, want RESOLVED_COMPLETE", outcome.Resolution)
	}
	if client.calls != 3 {
		t.Fatalf("fetch calls = %d, want exactly 3", client.calls)
	}
	if outcome.Attempts != 3 {
		t.Fatalf("attempts = %d, want 3", outcome.Attempts)
	}
}

func TestPartialResultsRunThroughAllAttempts(t *testing.T) {
	// Results appear from attempt 2 but the session never completes:
	// the loop must keep polling and return the attempt-10 snapshot.
	fetches := []fetchStep{{session: inProgress(0)}}
	for i := 2; i <= 9; i++ {
		fetches = append(fetches, fetchStep{session: inProgress(1)})
	}
	fetches = append(fetches, fetchStep{session: inProgress(5)})
	client := &scriptedClient{fetches: fetches}

	outcome, err := testOrchestrator(client).Run(context.Background(), models.TripRequest{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.Resolution != ResolvedPartial {
		t.Fatalf("resolution = %s, want RESOLVED_PARTIAL", outcome.Resolution)
	}
	if client.calls != 10 {
		t.Fatalf("fetch calls = %d, want 10", client.calls)
	}
	if len(outcome.Session.Results) != 5 {
		t.Fatalf("results = %d, want the attempt-10 snapshot with 5", len(outcome.Session.Results))
	}
}

func TestEmptyExhaustionIssuesTerminalFetch(t *testing.T) {
	client := &scriptedClient{fetches: []fetchStep{{session: inProgress(0)}}}

	outcome, err := testOrchestrator(client).Run(context.Background(), models.TripRequest{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if client.calls != 11 {
		t.Fatalf("fetch calls = %d, want 10 attempts + 1 terminal fetch", client.calls)
	}
	if outcome.Resolution != ResolvedEmpty {
		t.Fatalf("resolution = %s, want RESOLVED_EMPTY", outcome.Resolution)
	}
}

func TestTerminalFetchResultIsReturnedAsIs(t *testing.T) {
	// The terminal fetch may yield late results; whatever it reports
	// wins.
	fetches := make([]fetchStep, 10)
	for i := range fetches {
		fetches[i] = fetchStep{session: inProgress(0)}
	}
	fetches = append(fetches, fetchStep{session: completed(3)})
	client := &scriptedClient{fetches: fetches}

	outcome, err := testOrchestrator(client).Run(context.Background(), models.TripRequest{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.Resolution != ResolvedComplete {
		t.Fatalf("resolution = %s, want RESOLVED_COMPLETE from terminal fetch", outcome.Resolution)
	}
	if len(outcome.Session.Results) != 3 {
		t.Fatalf("results = %d, want 3", len(outcome.Session.Results))
	}
}

func TestIntermediateFailuresAreSwallowed(t *testing.T) {
	client := &scriptedClient{fetches: []fetchStep{
		{err: errors.New("connection reset")},
		{err: errors.New("502 bad gateway")},
		{session: completed(1)},
	}}

	outcome, err := testOrchestrator(client).Run(context.Background(), models.TripRequest{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.Resolution != ResolvedComplete {
		t.Fatalf("resolution = %s, want RESOLVED_COMPLETE", outcome.Resolution)
	}
	if outcome.Attempts != 3 {
		t.Fatalf("attempts = %d, want 3", outcome.Attempts)
	}
}

func TestSubmissionFailureFailsFast(t *testing.T) {
	client := &scriptedClient{submitErr: errors.New("boom")}

	_, err := testOrchestrator(client).Run(context.Background(), models.TripRequest{})
	if err == nil {
		t.Fatal("expected submission error")
	}
	if client.calls != 0 {
		t.Fatalf("fetch calls = %d, want 0 after submission failure", client.calls)
	}
}

func TestMissingRequestIDFailsFast(t *testing.T) {
	client := &scriptedClient{submit: &models.SubmitResponse{Status: "ERROR", Message: "no availability"}}

	_, err := testOrchestrator(client).Run(context.Background(), models.TripRequest{})
	var subErr *SubmissionError
	if !errors.As(err, &subErr) {
		t.Fatalf("expected SubmissionError, got %v", err)
	}
	if client.calls != 0 {
		t.Fatalf("fetch calls = %d, want 0", client.calls)
	}
}

func TestCancellationReturnsLastSnapshot(t *testing.T) {
	fetches := make([]fetchStep, 20)
	for i := range fetches {
		fetches[i] = fetchStep{session: inProgress(2)}
	}
	client := &scriptedClient{fetches: fetches}

	ctx, cancel := context.WithCancel(context.Background())
	orch := NewOrchestrator(client, Config{MaxAttempts: 10, Interval: 20 * time.Millisecond}, zerolog.Nop())

	go func() {
		time.Sleep(70 * time.Millisecond)
		cancel()
	}()

	outcome, err := orch.Await(ctx, "req-1")
	if err != nil {
		t.Fatalf("cancellation must not surface an error, got %v", err)
	}
	if outcome.Resolution != ResolvedPartial {
		t.Fatalf("resolution = %s, want RESOLVED_PARTIAL", outcome.Resolution)
	}
	if len(outcome.Session.Results) != 2 {
		t.Fatalf("expected last-known snapshot with 2 results, got %d", len(outcome.Session.Results))
	}
	if client.calls >= 10 {
		t.Fatalf("cancellation should stop further fetches, saw %d", client.calls)
	}
}

func TestCancellationBeforeFirstFetch(t *testing.T) {
	client := &scriptedClient{fetches: []fetchStep{{session: inProgress(0)}}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	orch := NewOrchestrator(client, Config{MaxAttempts: 10, Interval: time.Hour}, zerolog.Nop())
	outcome, err := orch.Await(ctx, "req-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.Resolution != ResolvedEmpty {
		t.Fatalf("resolution = %s, want RESOLVED_EMPTY", outcome.Resolution)
	}
	if outcome.Session.RequestID != "req-1" {
		t.Fatalf("request id = %q", outcome.Session.RequestID)
	}
	if client.calls != 0 {
		t.Fatalf("fetch calls = %d, want 0", client.calls)
	}
}
