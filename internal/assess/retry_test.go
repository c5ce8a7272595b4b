package assess

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/nmorrow/covmap/internal/oracle"
)

// scriptedProvider plays back a fixed sequence of responses and errors.
type scriptedProvider struct {
	responses []string
	errs      []error
	calls     int
}

func (p *scriptedProvider) Name() string { return "scripted" }

func (p *scriptedProvider) IsAvailable(_ context.Context) bool { return true }

func (p *scriptedProvider) Assess(_ context.Context, _ oracle.Request) (string, error) {
	i := p.calls
	p.calls++
	if i >= len(p.responses) {
		return "", errors.New("script exhausted")
	}
	return p.responses[i], p.errs[i]
}

func testAdjudicator(p oracle.Provider) *adjudicator {
	return &adjudicator{
		provider:   p,
		maxRetries: 2,
		delay:      time.Second,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func withFakeSleep(t *testing.T) *[]time.Duration {
	t.Helper()
	var slept []time.Duration
	orig := sleepFunc
	sleepFunc = func(d time.Duration) { slept = append(slept, d) }
	t.Cleanup(func() { sleepFunc = orig })
	return &slept
}

const validResponse = `{"status": "COVERED", "confidence": "high", "covering_policy_number": "POL-100"}`

func TestAdjudicate_FirstAttemptSucceeds(t *testing.T) {
	slept := withFakeSleep(t)
	p := &scriptedProvider{responses: []string{validResponse}, errs: []error{nil}}

	result := testAdjudicator(p).adjudicate(context.Background(), oracle.Request{}, testCandidates())
	if result.Fallback {
		t.Fatalf("Expected validated verdict, got fallback (%s: %s)", result.Cause, result.LastErr)
	}
	if result.Attempts != 1 {
		t.Errorf("Expected 1 attempt, got %d", result.Attempts)
	}
	if result.Verdict.Status != "COVERED" {
		t.Errorf("Expected COVERED, got %s", result.Verdict.Status)
	}
	if len(*slept) != 0 {
		t.Errorf("Expected no sleeps, got %d", len(*slept))
	}
}

func TestAdjudicate_TransportFailureThenSuccess(t *testing.T) {
	slept := withFakeSleep(t)
	p := &scriptedProvider{
		responses: []string{"", validResponse},
		errs:      []error{errors.New("timeout"), nil},
	}

	result := testAdjudicator(p).adjudicate(context.Background(), oracle.Request{}, testCandidates())
	if result.Fallback {
		t.Fatalf("Expected recovery on second attempt, got fallback")
	}
	if result.Attempts != 2 {
		t.Errorf("Expected 2 attempts, got %d", result.Attempts)
	}
	if len(*slept) != 1 || (*slept)[0] != time.Second {
		t.Errorf("Expected one fixed delay of 1s, got %v", *slept)
	}
}

func TestAdjudicate_MalformedThenRepairable(t *testing.T) {
	slept := withFakeSleep(t)
	p := &scriptedProvider{
		responses: []string{"no json here at all", "verdict: " + validResponse},
		errs:      []error{nil, nil},
	}

	result := testAdjudicator(p).adjudicate(context.Background(), oracle.Request{}, testCandidates())
	if result.Fallback {
		t.Fatalf("Expected success after parse retry, got fallback")
	}
	if result.Attempts != 2 {
		t.Errorf("Expected 2 attempts, got %d", result.Attempts)
	}
	if len(*slept) != 1 {
		t.Errorf("Expected parse failure to delay before retry, got %d sleeps", len(*slept))
	}
}

func TestAdjudicate_ValidationFailureRetriesImmediately(t *testing.T) {
	slept := withFakeSleep(t)
	p := &scriptedProvider{
		responses: []string{`{"status": "MAYBE", "confidence": "high"}`, validResponse},
		errs:      []error{nil, nil},
	}

	result := testAdjudicator(p).adjudicate(context.Background(), oracle.Request{}, testCandidates())
	if result.Fallback {
		t.Fatalf("Expected success after validation retry, got fallback")
	}
	if len(*slept) != 0 {
		t.Errorf("Expected validation failures to retry without delay, got %d sleeps", len(*slept))
	}
}

func TestAdjudicate_ExhaustionAfterBudget(t *testing.T) {
	withFakeSleep(t)
	boom := errors.New("service unavailable")
	p := &scriptedProvider{
		responses: []string{"", "", ""},
		errs:      []error{boom, boom, boom},
	}

	result := testAdjudicator(p).adjudicate(context.Background(), oracle.Request{}, testCandidates())
	if !result.Fallback {
		t.Fatal("Expected fallback after exhausting the budget")
	}
	if result.Attempts != 3 { // initial attempt + maxRetries
		t.Errorf("Expected 3 attempts, got %d", result.Attempts)
	}
	if result.Cause != causeTransport {
		t.Errorf("Expected transport cause, got %s", result.Cause)
	}
	if result.LastErr != "service unavailable" {
		t.Errorf("Expected last error preserved, got %q", result.LastErr)
	}
	if p.calls != 3 {
		t.Errorf("Expected provider called 3 times, got %d", p.calls)
	}
}

func TestAdjudicate_PersistentValidationFailure(t *testing.T) {
	slept := withFakeSleep(t)
	bad := `{"status": "COVERED", "confidence": "high"}` // no covering policy
	p := &scriptedProvider{
		responses: []string{bad, bad, bad},
		errs:      []error{nil, nil, nil},
	}

	result := testAdjudicator(p).adjudicate(context.Background(), oracle.Request{}, testCandidates())
	if !result.Fallback {
		t.Fatal("Expected fallback for persistently invalid verdicts")
	}
	if result.Cause != causeValidation {
		t.Errorf("Expected validation cause, got %s", result.Cause)
	}
	if len(*slept) != 0 {
		t.Errorf("Expected no delays for validation retries, got %d", len(*slept))
	}
}

func TestAdjudicate_CancelledContextStopsRetrying(t *testing.T) {
	withFakeSleep(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := &scriptedProvider{
		responses: []string{""},
		errs:      []error{errors.New("timeout")},
	}

	result := testAdjudicator(p).adjudicate(ctx, oracle.Request{}, testCandidates())
	if !result.Fallback {
		t.Fatal("Expected fallback when context is cancelled")
	}
	if p.calls != 1 {
		t.Errorf("Expected no further attempts after cancellation, got %d calls", p.calls)
	}
}
