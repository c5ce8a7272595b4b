// Package match narrows the policy corpus down to a small, explainable
// candidate set for one obligation using independent scoring signals.
//
// Each signal is a pure function from (obligation, corpus) to per-policy
// contributions. The engine aggregates contributions by taking the maximum
// score within each signal category per policy, summing across categories,
// filtering below the minimum score, and capping the ranked list.
package match

import (
	"context"
	"strings"

	"github.com/nmorrow/covmap/internal/model"
)

// Contribution is one signal hit for one policy.
type Contribution struct {
	PolicyID string
	Category model.SignalCategory
	Score    int
	Detail   string
}

// Signal scores the policy corpus against one obligation. Implementations
// must be read-only over the corpus and safe for concurrent use.
type Signal interface {
	Name() string
	Evaluate(ctx context.Context, obl model.Obligation, c *Corpus) ([]Contribution, error)
}

// Corpus is a read-only snapshot of the policy data shared across
// obligations in a batch. Build once with NewCorpus.
type Corpus struct {
	Policies   []model.Policy
	Provisions []model.Provision
	Labels     []model.SubDomainLabel

	policyByID         map[string]*model.Policy
	provisionsByPolicy map[string][]model.Provision
	citationUse        map[string]int
}

// NewCorpus indexes the corpus for signal evaluation. Citation popularity
// counts how many policies list an identical (normalized) citation string.
func NewCorpus(policies []model.Policy, provisions []model.Provision, labels []model.SubDomainLabel) *Corpus {
	c := &Corpus{
		Policies:           policies,
		Provisions:         provisions,
		Labels:             labels,
		policyByID:         make(map[string]*model.Policy, len(policies)),
		provisionsByPolicy: make(map[string][]model.Provision),
		citationUse:        make(map[string]int),
	}
	for i := range policies {
		p := &policies[i]
		c.policyByID[p.ID] = p
		for _, cit := range p.Citations() {
			c.citationUse[normalizeCitation(cit)]++
		}
	}
	for _, prov := range provisions {
		c.provisionsByPolicy[prov.PolicyID] = append(c.provisionsByPolicy[prov.PolicyID], prov)
	}
	return c
}

// Policy returns the policy with the given ID, or nil.
func (c *Corpus) Policy(id string) *model.Policy {
	return c.policyByID[id]
}

// PolicyProvisions returns the provisions belonging to a policy.
func (c *Corpus) PolicyProvisions(policyID string) []model.Provision {
	return c.provisionsByPolicy[policyID]
}

// CitationPopularity returns how many policies share the given citation.
// Unknown citations count as 1 (the caller's own use).
func (c *Corpus) CitationPopularity(citation string) int {
	if n := c.citationUse[normalizeCitation(citation)]; n > 0 {
		return n
	}
	return 1
}

func normalizeCitation(cit string) string {
	return strings.ToLower(strings.TrimSpace(cit))
}
