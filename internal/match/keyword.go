package match

import (
	"context"
	"fmt"
	"strings"

	"github.com/nmorrow/covmap/internal/model"
)

// Vocabulary matches a fixed set of domain terms against free text.
type Vocabulary struct {
	terms     []string
	highValue map[string]bool
}

// NewVocabulary builds a vocabulary from the configured term lists.
func NewVocabulary(terms, highValue []string) *Vocabulary {
	hv := make(map[string]bool, len(highValue))
	for _, t := range highValue {
		hv[strings.ToLower(t)] = true
	}
	return &Vocabulary{terms: terms, highValue: hv}
}

// Extract returns the vocabulary terms present in text. Hyphens are dropped
// before matching so "blood-borne" still hits "bloodborne".
func (v *Vocabulary) Extract(text string) []string {
	if text == "" {
		return nil
	}
	lower := strings.ReplaceAll(strings.ToLower(text), "-", "")
	var found []string
	for _, term := range v.terms {
		if strings.Contains(lower, term) {
			found = append(found, term)
		}
	}
	return found
}

// HighValue reports whether term belongs to the high-value subset.
func (v *Vocabulary) HighValue(term string) bool {
	return v.highValue[strings.ToLower(term)]
}

// overlap returns the terms present in both lists and how many of them are
// high-value.
func (v *Vocabulary) overlap(a, b []string) (terms []string, highValue int) {
	set := make(map[string]bool, len(b))
	for _, t := range b {
		set[t] = true
	}
	for _, t := range a {
		if set[t] {
			terms = append(terms, t)
			if v.HighValue(t) {
				highValue++
			}
		}
	}
	return terms, highValue
}

// KeywordSignal scores the best vocabulary overlap between the obligation
// text and any single provision of each policy. Only the best provision
// counts, so policies cannot inflate their score by provision count.
type KeywordSignal struct {
	vocab *Vocabulary
	base  int
	bonus int
	hv    int
	cap   int
}

// NewKeywordSignal builds the keyword signal from scoring config.
func NewKeywordSignal(vocab *Vocabulary, cfg model.ScoringConfig) *KeywordSignal {
	return &KeywordSignal{
		vocab: vocab,
		base:  cfg.KeywordBase,
		bonus: cfg.KeywordBonus,
		hv:    cfg.HighValueBonus,
		cap:   cfg.KeywordCap,
	}
}

func (s *KeywordSignal) Name() string { return "keyword" }

func (s *KeywordSignal) Evaluate(_ context.Context, obl model.Obligation, c *Corpus) ([]Contribution, error) {
	oblTerms := s.vocab.Extract(obl.Requirement)
	if len(oblTerms) == 0 {
		return nil, nil
	}

	var out []Contribution
	for _, policy := range c.Policies {
		bestOverlap := 0
		bestHighValue := 0
		for _, prov := range c.PolicyProvisions(policy.ID) {
			terms, hv := s.vocab.overlap(oblTerms, s.vocab.Extract(prov.Text))
			if len(terms) > bestOverlap {
				bestOverlap = len(terms)
				bestHighValue = hv
			}
		}
		if bestOverlap == 0 {
			continue
		}
		score := s.base + bestOverlap*s.bonus + bestHighValue*s.hv
		if score > s.cap {
			score = s.cap
		}
		out = append(out, Contribution{
			PolicyID: policy.ID,
			Category: model.SignalKeyword,
			Score:    score,
			Detail:   fmt.Sprintf("%d keywords (%d high-value)", bestOverlap, bestHighValue),
		})
	}
	return out, nil
}

// TitleSignal scores vocabulary overlap against policy titles with a lower
// cap. A policy with no literal provision match can still surface when its
// title alone names the relevant topic.
type TitleSignal struct {
	vocab *Vocabulary
	base  int
	bonus int
	hv    int
	cap   int
}

// NewTitleSignal builds the title signal from scoring config.
func NewTitleSignal(vocab *Vocabulary, cfg model.ScoringConfig) *TitleSignal {
	return &TitleSignal{
		vocab: vocab,
		base:  cfg.TitleBase,
		bonus: cfg.TitleBonus,
		hv:    cfg.HighValueBonus,
		cap:   cfg.TitleCap,
	}
}

func (s *TitleSignal) Name() string { return "title" }

func (s *TitleSignal) Evaluate(_ context.Context, obl model.Obligation, c *Corpus) ([]Contribution, error) {
	oblTerms := s.vocab.Extract(obl.Requirement)
	if len(oblTerms) == 0 {
		return nil, nil
	}

	var out []Contribution
	for _, policy := range c.Policies {
		terms, hv := s.vocab.overlap(oblTerms, s.vocab.Extract(policy.Title))
		if len(terms) == 0 {
			continue
		}
		score := s.base + len(terms)*s.bonus + hv*s.hv
		if score > s.cap {
			score = s.cap
		}
		out = append(out, Contribution{
			PolicyID: policy.ID,
			Category: model.SignalTitle,
			Score:    score,
			Detail:   fmt.Sprintf("%d title keywords", len(terms)),
		})
	}
	return out, nil
}
