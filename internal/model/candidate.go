package model

// SignalCategory identifies which matching signal produced a score.
type SignalCategory string

const (
	SignalCitation  SignalCategory = "citation"
	SignalSubDomain SignalCategory = "sub_domain"
	SignalKeyword   SignalCategory = "keyword"
	SignalTitle     SignalCategory = "title"
	SignalVector    SignalCategory = "vector"
)

// SignalBreakdown holds the best score achieved per signal category.
// The composite candidate score is the sum of these maxima, never a sum
// across multiple matches within one category.
type SignalBreakdown struct {
	Citation  int `json:"citation"`
	SubDomain int `json:"sub_domain"`
	Keyword   int `json:"keyword"`
	Title     int `json:"title"`
	Vector    int `json:"vector"`
}

// Total returns the composite score across categories.
func (b SignalBreakdown) Total() int {
	return b.Citation + b.SubDomain + b.Keyword + b.Title + b.Vector
}

// MethodMatch records one contributing signal hit with a human-readable
// explanation, kept for explainability in reports and audit output.
type MethodMatch struct {
	Method SignalCategory `json:"method"`
	Detail string         `json:"detail"`
	Score  int            `json:"score"`
}

// Candidate is a policy ranked as plausibly covering an obligation.
// Candidates are computed fresh per assessment and never persisted standalone.
type Candidate struct {
	PolicyID     string          `json:"policy_id"`
	PolicyNumber string          `json:"policy_number"`
	Title        string          `json:"title"`
	Domain       string          `json:"domain,omitempty"`
	SubDomain    string          `json:"sub_domain,omitempty"`
	Score        int             `json:"score"`
	Breakdown    SignalBreakdown `json:"signal_breakdown"`
	Methods      []MethodMatch   `json:"methods"`
}
