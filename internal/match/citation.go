package match

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/nmorrow/covmap/internal/model"
)

var (
	// Trailing parenthetical subsection, e.g. "65D-30.004(6)(a)" -> "65D-30.004(6)".
	subsectionRe = regexp.MustCompile(`^(.+?)\([^)]*\)\s*$`)
	// Accreditation Element of Performance suffix, e.g. "PC.01.02.13 EP 3".
	epSuffixRe = regexp.MustCompile(`(?i)^(.+?)\s+EP\s+\d+`)
)

// CitationPrefixes normalizes a citation into its sequence of nested
// prefixes, from most to least specific, by iteratively stripping trailing
// parenthetical subsections. An "EP n" suffix additionally yields the
// standard-level prefix.
func CitationPrefixes(citation string) []string {
	citation = strings.TrimSpace(citation)
	if citation == "" {
		return nil
	}
	seen := map[string]bool{}
	var prefixes []string
	add := func(p string) {
		if p != "" && !seen[p] {
			seen[p] = true
			prefixes = append(prefixes, p)
		}
	}

	add(citation)
	current := citation
	for {
		m := subsectionRe.FindStringSubmatch(current)
		if m == nil {
			break
		}
		current = strings.TrimSpace(m[1])
		add(current)
	}
	if m := epSuffixRe.FindStringSubmatch(current); m != nil {
		add(strings.TrimSpace(m[1]))
	}
	return prefixes
}

// PenaltyFunc maps a citation's corpus-wide popularity to a score factor in
// (0, 1]. Boilerplate citations shared by dozens of policies are discounted
// so they cannot dominate the ranking.
type PenaltyFunc func(popularity int) float64

// TieredPenalty builds a PenaltyFunc from configured tiers. Tiers are
// checked from the highest threshold down; popularity at or below every
// threshold scores the full factor 1.0.
func TieredPenalty(tiers []model.PenaltyTier) PenaltyFunc {
	sorted := make([]model.PenaltyTier, len(tiers))
	copy(sorted, tiers)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Above > sorted[j].Above })
	return func(popularity int) float64 {
		for _, t := range sorted {
			if popularity > t.Above {
				return t.Factor
			}
		}
		return 1.0
	}
}

// CitationSignal matches obligation citations against policy citation lists.
type CitationSignal struct {
	exact   int
	section int
	penalty PenaltyFunc
}

// NewCitationSignal builds the citation signal from scoring config.
func NewCitationSignal(cfg model.ScoringConfig) *CitationSignal {
	return &CitationSignal{
		exact:   cfg.CitationExact,
		section: cfg.CitationSection,
		penalty: TieredPenalty(cfg.PenaltyTiers),
	}
}

func (s *CitationSignal) Name() string { return "citation" }

// Evaluate scores each policy by its best citation match: exact equality or
// a prefix/section relationship in either direction, discounted by the
// citation's corpus popularity. One contribution per matching citation; the
// aggregator keeps only the best per policy.
func (s *CitationSignal) Evaluate(_ context.Context, obl model.Obligation, c *Corpus) ([]Contribution, error) {
	prefixes := CitationPrefixes(obl.Citation)
	if len(prefixes) == 0 {
		return nil, nil
	}

	var out []Contribution
	for _, policy := range c.Policies {
		for _, policyCit := range policy.Citations() {
			pNorm := normalizeCitation(policyCit)
			for _, prefix := range prefixes {
				oNorm := normalizeCitation(prefix)
				exact := pNorm == oNorm
				section := !exact && (strings.HasPrefix(pNorm, oNorm) || strings.HasPrefix(oNorm, pNorm))
				if !exact && !section {
					continue
				}

				base := s.section
				kind := "section"
				if exact {
					base = s.exact
					kind = "exact"
				}
				popularity := c.CitationPopularity(policyCit)
				score := int(math.Round(float64(base) * s.penalty(popularity)))
				out = append(out, Contribution{
					PolicyID: policy.ID,
					Category: model.SignalCitation,
					Score:    score,
					Detail:   fmt.Sprintf("%s: %s (%d cite)", kind, policyCit, popularity),
				})
				break // most specific prefix wins for this citation
			}
		}
	}
	return out, nil
}
