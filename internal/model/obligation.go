package model

// Obligation is a single regulatory requirement extracted upstream from a
// source document. Obligations are read-only inputs to this subsystem.
type Obligation struct {
	ID          string   `json:"id"`
	Citation    string   `json:"citation"` // e.g. "65D-30.004(6)(a)" or "PC.01.02.13 EP 3"
	Requirement string   `json:"requirement"`
	Topics      []string `json:"topics,omitempty"`     // unordered tags
	RiskTier    RiskTier `json:"risk_tier,omitempty"`  // derived by the risk evaluator
	SourceDoc   string   `json:"source_doc,omitempty"` // originating document reference
}

// RiskTier classifies an obligation for escalation purposes.
type RiskTier string

const (
	RiskTierStandard RiskTier = "standard"
	RiskTierHigh     RiskTier = "high"
)
