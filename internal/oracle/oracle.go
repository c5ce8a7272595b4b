// Package oracle drives the external generative judgment service. The
// orchestrator treats it as an opaque oracle: free text in, free text out,
// with parsing and validation handled upstream in internal/assess.
package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/nmorrow/covmap/internal/model"
)

// PromptVersion is stamped on assessments and audit events so verdicts can
// be traced back to the prompt revision that produced them.
const PromptVersion = "assess_v1.2"

// Provider is the interface for generative oracle backends.
type Provider interface {
	// Name returns the provider name.
	Name() string

	// Assess sends one obligation with its ranked candidates and returns
	// the raw response text. The response is expected to embed one JSON
	// object but providers make no guarantee.
	Assess(ctx context.Context, req Request) (string, error)

	// IsAvailable checks if the provider is configured and reachable.
	IsAvailable(ctx context.Context) bool
}

// Request carries the obligation and its context-bounded candidate set.
type Request struct {
	Obligation model.Obligation
	Candidates []CandidateContext
}

// CandidateContext is one ranked candidate with its provisions capped to the
// configured context-size guard.
type CandidateContext struct {
	PolicyNumber string
	Title        string
	Score        int
	Provisions   []model.Provision
}

// Verdict is the JSON object the oracle is asked to produce. Fields arrive
// unvalidated; internal/assess normalizes and validates them.
type Verdict struct {
	Status               string     `json:"status"`
	Confidence           string     `json:"confidence"`
	CoveringPolicyNumber FlexString `json:"covering_policy_number"`
	ObligationSpan       string     `json:"obligation_span"`
	ProvisionSpan        string     `json:"provision_span"`
	GapDetail            string     `json:"gap_detail"`
	RecommendedPolicy    string     `json:"recommended_policy"`
	Reasoning            string     `json:"reasoning"`
}

// DecodeVerdict unmarshals a raw JSON object into a Verdict.
func DecodeVerdict(raw []byte) (*Verdict, error) {
	var v Verdict
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("oracle: decode verdict: %w", err)
	}
	return &v, nil
}

// FlexString accepts a JSON string, number, or null. Oracles frequently
// return a bare candidate index where a policy number string was requested.
type FlexString string

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexString) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*f = FlexString(n.String())
		return nil
	}
	return fmt.Errorf("oracle: covering_policy_number is neither string nor number: %s", data)
}

// IsNumeric reports whether the value is purely numeric.
func (f FlexString) IsNumeric() bool {
	if f == "" {
		return false
	}
	_, err := strconv.Atoi(string(f))
	return err == nil
}
