package model

import "time"

// Status is the adjudicated coverage verdict for an obligation.
type Status string

const (
	StatusCovered          Status = "COVERED"
	StatusPartial          Status = "PARTIAL"
	StatusGap              Status = "GAP"
	StatusConflicting      Status = "CONFLICTING"
	StatusNeedsLegalReview Status = "NEEDS_LEGAL_REVIEW"
)

// OracleStatuses are the verdicts the generative oracle may return.
// NEEDS_LEGAL_REVIEW is reserved for escalation and human review.
var OracleStatuses = []Status{StatusCovered, StatusPartial, StatusGap, StatusConflicting}

// ValidOracleStatus reports whether s is a verdict the oracle is allowed
// to produce.
func ValidOracleStatus(s Status) bool {
	for _, v := range OracleStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Confidence is the oracle's self-reported certainty.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// ValidConfidence reports whether c is one of the allowed confidence levels.
func ValidConfidence(c Confidence) bool {
	return c == ConfidenceHigh || c == ConfidenceMedium || c == ConfidenceLow
}

// Assessment is the persisted verdict for one obligation in one run.
// Rows are created once by the orchestrator; only the human review workflow
// mutates them afterwards, and only the Human* fields.
type Assessment struct {
	ID           string `json:"id"`
	OrgID        string `json:"org_id"`
	FacilityID   string `json:"facility_id,omitempty"`
	ObligationID string `json:"obligation_id"`
	RunID        string `json:"run_id"`

	Status     Status     `json:"status"`     // raw oracle verdict, never rewritten
	Confidence Confidence `json:"confidence"` // raw oracle confidence
	Escalated  bool       `json:"escalated"`  // risk escalator fired

	CoveringPolicyID     string `json:"covering_policy_id,omitempty"`
	CoveringPolicyNumber string `json:"covering_policy_number,omitempty"`

	GapDetail         string `json:"gap_detail,omitempty"`
	RecommendedPolicy string `json:"recommended_policy,omitempty"`
	ObligationSpan    string `json:"obligation_span,omitempty"`
	ProvisionSpan     string `json:"provision_span,omitempty"`
	Reasoning         string `json:"reasoning,omitempty"`

	MatchMethod string `json:"match_method"` // leading signal, "llm", or "none"
	MatchScore  int    `json:"match_score"`
	VectorScore int    `json:"vector_score,omitempty"`

	AssessedBy    string `json:"assessed_by"` // "algorithm" or "llm"
	ModelID       string `json:"model_id,omitempty"`
	PromptVersion string `json:"prompt_version,omitempty"`

	// Human review override, layered on top of the oracle verdict.
	HumanStatus   Status    `json:"human_status,omitempty"`
	HumanNotes    string    `json:"human_notes,omitempty"`
	HumanReviewer string    `json:"human_reviewer,omitempty"`
	ReviewedAt    time.Time `json:"reviewed_at,omitzero"`

	CreatedAt time.Time `json:"created_at"`
}

// EffectiveStatus is the status presented downstream: the human override when
// present, otherwise NEEDS_LEGAL_REVIEW when escalated, otherwise the raw
// oracle status.
func (a Assessment) EffectiveStatus() Status {
	if a.HumanStatus != "" {
		return a.HumanStatus
	}
	if a.Escalated {
		return StatusNeedsLegalReview
	}
	return a.Status
}

// HumanReview is a review mutation submitted by the human review workflow.
type HumanReview struct {
	Status   Status `json:"human_status"`
	Notes    string `json:"notes,omitempty"`
	Reviewer string `json:"reviewer"`
}
