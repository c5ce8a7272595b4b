package assess

import (
	"regexp"
	"strings"

	"github.com/nmorrow/covmap/internal/model"
)

// RiskEvaluator decides which obligations are high-risk. It is a
// deterministic safety net over the probabilistic oracle judgment: an
// uncertain verdict on a sensitive topic must never be filed as an
// ordinary low-priority gap.
type RiskEvaluator struct {
	topics  map[string]bool
	pattern *regexp.Regexp
}

// NewRiskEvaluator builds the evaluator from the configured topic set and
// sensitive-term list. Terms match as whole words in requirement text.
func NewRiskEvaluator(cfg model.RiskConfig) *RiskEvaluator {
	topics := make(map[string]bool, len(cfg.HighRiskTopics))
	for _, t := range cfg.HighRiskTopics {
		topics[strings.ToLower(t)] = true
	}

	var pattern *regexp.Regexp
	if len(cfg.SensitiveTerms) > 0 {
		quoted := make([]string, len(cfg.SensitiveTerms))
		for i, t := range cfg.SensitiveTerms {
			quoted[i] = regexp.QuoteMeta(strings.ToLower(t))
		}
		pattern = regexp.MustCompile(`\b(` + strings.Join(quoted, "|") + `)\b`)
	}

	return &RiskEvaluator{topics: topics, pattern: pattern}
}

// HighRisk reports whether the obligation's topic tags intersect the
// high-risk set or its requirement text contains a sensitive term.
func (r *RiskEvaluator) HighRisk(obl model.Obligation) bool {
	for _, topic := range obl.Topics {
		if r.topics[strings.ToLower(topic)] {
			return true
		}
	}
	if r.pattern != nil && r.pattern.MatchString(strings.ToLower(obl.Requirement)) {
		return true
	}
	return false
}

// TierFor derives the obligation's risk tier.
func (r *RiskEvaluator) TierFor(obl model.Obligation) model.RiskTier {
	if r.HighRisk(obl) {
		return model.RiskTierHigh
	}
	return model.RiskTierStandard
}

// ShouldEscalate applies the escalation rule: low confidence on a high-risk
// obligation with a non-COVERED verdict.
func (r *RiskEvaluator) ShouldEscalate(obl model.Obligation, status model.Status, confidence model.Confidence) bool {
	return confidence == model.ConfidenceLow && status != model.StatusCovered && r.HighRisk(obl)
}
