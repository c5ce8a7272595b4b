package match

import (
	"context"
	"fmt"
	"strings"

	"github.com/nmorrow/covmap/internal/model"
)

// SubDomainSignal adds a fixed bonus when the obligation text contains an
// affinity keyword for a sub-domain label and the policy belongs to that
// sub-domain.
type SubDomainSignal struct {
	bonus int
}

// NewSubDomainSignal builds the sub-domain affinity signal.
func NewSubDomainSignal(cfg model.ScoringConfig) *SubDomainSignal {
	return &SubDomainSignal{bonus: cfg.SubDomainMatch}
}

func (s *SubDomainSignal) Name() string { return "sub_domain" }

func (s *SubDomainSignal) Evaluate(_ context.Context, obl model.Obligation, c *Corpus) ([]Contribution, error) {
	text := strings.ToLower(obl.Requirement)
	matched := make(map[string]bool)
	for _, label := range c.Labels {
		for _, kw := range label.AffinityKeywords {
			if strings.Contains(text, strings.ToLower(kw)) {
				matched[label.Prefix] = true
				break
			}
		}
	}
	if len(matched) == 0 {
		return nil, nil
	}

	var out []Contribution
	for _, policy := range c.Policies {
		if policy.SubDomain == "" || !matched[policy.SubDomain] {
			continue
		}
		out = append(out, Contribution{
			PolicyID: policy.ID,
			Category: model.SignalSubDomain,
			Score:    s.bonus,
			Detail:   fmt.Sprintf("%s affinity", policy.SubDomain),
		})
	}
	return out, nil
}
