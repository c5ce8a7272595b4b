package match

import (
	"context"
	"reflect"
	"testing"

	"github.com/nmorrow/covmap/internal/model"
)

func TestCitationPrefixes(t *testing.T) {
	tests := []struct {
		name     string
		citation string
		want     []string
	}{
		{
			name:     "bare rule",
			citation: "65D-30.004",
			want:     []string{"65D-30.004"},
		},
		{
			name:     "nested subsections",
			citation: "65D-30.004(6)(a)",
			want:     []string{"65D-30.004(6)(a)", "65D-30.004(6)", "65D-30.004"},
		},
		{
			name:     "element of performance",
			citation: "PC.01.02.13 EP 3",
			want:     []string{"PC.01.02.13 EP 3", "PC.01.02.13"},
		},
		{
			name:     "empty",
			citation: "   ",
			want:     nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CitationPrefixes(tt.citation)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("CitationPrefixes(%q) = %v, want %v", tt.citation, got, tt.want)
			}
		})
	}
}

func TestTieredPenalty(t *testing.T) {
	penalty := TieredPenalty([]model.PenaltyTier{
		{Above: 10, Factor: 0.3},
		{Above: 5, Factor: 0.5},
		{Above: 2, Factor: 0.75},
	})

	tests := []struct {
		popularity int
		want       float64
	}{
		{1, 1.0},
		{2, 1.0},
		{3, 0.75},
		{5, 0.75},
		{6, 0.5},
		{10, 0.5},
		{11, 0.3},
		{40, 0.3},
	}
	for _, tt := range tests {
		if got := penalty(tt.popularity); got != tt.want {
			t.Errorf("penalty(%d) = %v, want %v", tt.popularity, got, tt.want)
		}
	}
}

func TestTieredPenalty_UnsortedTiers(t *testing.T) {
	// Tier order in config must not matter.
	penalty := TieredPenalty([]model.PenaltyTier{
		{Above: 2, Factor: 0.75},
		{Above: 10, Factor: 0.3},
		{Above: 5, Factor: 0.5},
	})
	if got := penalty(12); got != 0.3 {
		t.Errorf("penalty(12) = %v, want 0.3", got)
	}
}

func citationCorpus(policies ...model.Policy) *Corpus {
	return NewCorpus(policies, nil, nil)
}

func TestCitationSignal_ExactMatch(t *testing.T) {
	sig := NewCitationSignal(model.DefaultConfig().Scoring)
	corpus := citationCorpus(model.Policy{
		ID:             "p1",
		StateCitations: []string{"65D-30.004(6)"},
	})

	obl := model.Obligation{ID: "o1", Citation: "65D-30.004(6)"}
	contribs, err := sig.Evaluate(context.Background(), obl, corpus)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(contribs) != 1 {
		t.Fatalf("Expected 1 contribution, got %d", len(contribs))
	}
	if contribs[0].Score != 60 {
		t.Errorf("Expected exact score 60, got %d", contribs[0].Score)
	}
}

func TestCitationSignal_SectionMatch(t *testing.T) {
	sig := NewCitationSignal(model.DefaultConfig().Scoring)
	corpus := citationCorpus(model.Policy{
		ID:             "p1",
		StateCitations: []string{"65D-30.004"},
	})

	// Obligation cites a subsection of the policy's rule-level citation.
	obl := model.Obligation{ID: "o1", Citation: "65D-30.004(6)(a)"}
	contribs, err := sig.Evaluate(context.Background(), obl, corpus)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(contribs) == 0 {
		t.Fatal("Expected a section contribution")
	}
	// Most specific prefix relationship wins: "65D-30.004(6)(a)" has the
	// policy citation as a prefix, so the first prefix already matches.
	if contribs[0].Score != 40 {
		t.Errorf("Expected section score 40, got %d", contribs[0].Score)
	}
}

func TestCitationSignal_PopularityPenalty(t *testing.T) {
	cfg := model.DefaultConfig().Scoring

	// Three policies share the same citation; popularity 3 lands in the
	// >2 tier, so the exact score is discounted to 60 * 0.75 = 45.
	policies := []model.Policy{
		{ID: "p1", StateCitations: []string{"397.501"}},
		{ID: "p2", StateCitations: []string{"397.501"}},
		{ID: "p3", StateCitations: []string{"397.501"}},
	}
	sig := NewCitationSignal(cfg)
	corpus := citationCorpus(policies...)

	obl := model.Obligation{ID: "o1", Citation: "397.501"}
	contribs, err := sig.Evaluate(context.Background(), obl, corpus)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(contribs) != 3 {
		t.Fatalf("Expected 3 contributions, got %d", len(contribs))
	}
	for _, c := range contribs {
		if c.Score != 45 {
			t.Errorf("Expected penalized score 45 for %s, got %d", c.PolicyID, c.Score)
		}
	}
}

func TestCitationSignal_UniqueCitationNoPenalty(t *testing.T) {
	cfg := model.DefaultConfig().Scoring
	sig := NewCitationSignal(cfg)
	corpus := citationCorpus(
		model.Policy{ID: "p1", StateCitations: []string{"65E-5.170"}},
		model.Policy{ID: "p2", StateCitations: []string{"65D-30.004"}},
	)

	obl := model.Obligation{ID: "o1", Citation: "65E-5.170"}
	contribs, err := sig.Evaluate(context.Background(), obl, corpus)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(contribs) != 1 {
		t.Fatalf("Expected 1 contribution, got %d", len(contribs))
	}
	if contribs[0].Score != 60 {
		t.Errorf("Expected unpenalized score 60, got %d", contribs[0].Score)
	}
}

func TestCitationSignal_AccreditationCitations(t *testing.T) {
	sig := NewCitationSignal(model.DefaultConfig().Scoring)
	corpus := citationCorpus(model.Policy{
		ID:              "p1",
		AccredCitations: []string{"PC.01.02.13"},
	})

	obl := model.Obligation{ID: "o1", Citation: "PC.01.02.13 EP 3"}
	contribs, err := sig.Evaluate(context.Background(), obl, corpus)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(contribs) == 0 {
		t.Fatal("Expected contribution via EP prefix")
	}
}

func TestCitationSignal_NoCitation(t *testing.T) {
	sig := NewCitationSignal(model.DefaultConfig().Scoring)
	corpus := citationCorpus(model.Policy{ID: "p1", StateCitations: []string{"397.501"}})

	contribs, err := sig.Evaluate(context.Background(), model.Obligation{ID: "o1"}, corpus)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(contribs) != 0 {
		t.Errorf("Expected no contributions without a citation, got %d", len(contribs))
	}
}
