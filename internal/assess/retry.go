package assess

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/nmorrow/covmap/internal/metrics"
	"github.com/nmorrow/covmap/internal/model"
	"github.com/nmorrow/covmap/internal/oracle"
	"github.com/nmorrow/covmap/internal/parse"
)

// sleepFunc is the delay function between attempts (injectable for tests).
var sleepFunc = time.Sleep

// adjudicationState drives the retry loop as an explicit state machine:
// pending -> attempting(n) -> validated | exhausted.
type adjudicationState int

const (
	statePending adjudicationState = iota
	stateAttempting
	stateValidated
	stateExhausted
)

// Fallback causes recorded when the attempt budget runs out.
const (
	causeTransport  = "transport"
	causeParse      = "parse"
	causeValidation = "validation"
)

// adjudication is the terminal outcome of the retry loop. Either Verdict is
// set (validated) or Fallback is true with the cause and last error.
type adjudication struct {
	Verdict  *oracle.Verdict
	Attempts int
	Fallback bool
	Cause    string
	LastErr  string
}

// adjudicator runs the oracle call loop with a fixed-delay retry budget.
type adjudicator struct {
	provider   oracle.Provider
	maxRetries int
	delay      time.Duration
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

// adjudicate calls the oracle up to maxRetries+1 times. Transport and parse
// failures wait the fixed delay before retrying; validation failures retry
// immediately. The loop always terminates in validated or exhausted; it
// never returns an error.
func (a *adjudicator) adjudicate(ctx context.Context, req oracle.Request, candidates []model.Candidate) adjudication {
	result := adjudication{}
	state := statePending

	for {
		switch state {
		case statePending:
			state = stateAttempting

		case stateAttempting:
			result.Attempts++
			a.metrics.OracleAttempt()

			raw, err := a.provider.Assess(ctx, req)
			if err != nil {
				state = a.recordFailure(ctx, &result, causeTransport, err.Error(), true)
				continue
			}

			rawJSON, err := parse.ExtractRaw(raw)
			if err != nil {
				state = a.recordFailure(ctx, &result, causeParse, err.Error(), true)
				continue
			}

			verdict, err := oracle.DecodeVerdict(rawJSON)
			if err != nil {
				state = a.recordFailure(ctx, &result, causeParse, err.Error(), true)
				continue
			}

			if errs := validateVerdict(verdict, candidates); len(errs) > 0 {
				state = a.recordFailure(ctx, &result, causeValidation, strings.Join(errs, "; "), false)
				continue
			}

			result.Verdict = verdict
			state = stateValidated

		case stateValidated:
			return result

		case stateExhausted:
			result.Fallback = true
			a.metrics.OracleFallback(result.Cause)
			return result
		}
	}
}

// recordFailure notes the failure and decides whether another attempt
// remains. The fixed delay applies to transport and parse failures only.
func (a *adjudicator) recordFailure(ctx context.Context, result *adjudication, cause, errMsg string, delayed bool) adjudicationState {
	result.Cause = cause
	result.LastErr = errMsg

	exhausted := result.Attempts > a.maxRetries
	a.logger.Warn("assess: oracle attempt failed",
		"attempt", result.Attempts, "cause", cause, "exhausted", exhausted, "error", errMsg)
	if exhausted {
		return stateExhausted
	}
	if delayed {
		select {
		case <-ctx.Done():
			result.Cause = causeTransport
			result.LastErr = ctx.Err().Error()
			return stateExhausted
		default:
			sleepFunc(a.delay)
		}
	}
	return stateAttempting
}
