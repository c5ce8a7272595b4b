package match

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/nmorrow/covmap/internal/model"
)

// stubSignal returns fixed contributions or a fixed error.
type stubSignal struct {
	name     string
	contribs []Contribution
	err      error
}

func (s *stubSignal) Name() string { return s.name }

func (s *stubSignal) Evaluate(_ context.Context, _ model.Obligation, _ *Corpus) ([]Contribution, error) {
	return s.contribs, s.err
}

func engineCorpus(n int) *Corpus {
	policies := make([]model.Policy, n)
	for i := range policies {
		policies[i] = model.Policy{ID: fmt.Sprintf("p%02d", i), PolicyNumber: fmt.Sprintf("POL-%02d", i)}
	}
	return NewCorpus(policies, nil, nil)
}

func TestEngine_PerCategoryMaxima(t *testing.T) {
	cfg := model.DefaultConfig().Scoring
	// Two citation hits for the same policy: only the best one counts.
	// A keyword hit sums across categories.
	sig := &stubSignal{name: "citation", contribs: []Contribution{
		{PolicyID: "p00", Category: model.SignalCitation, Score: 40},
		{PolicyID: "p00", Category: model.SignalCitation, Score: 60},
		{PolicyID: "p00", Category: model.SignalKeyword, Score: 25},
	}}
	engine := NewEngine([]Signal{sig}, cfg, nil, nil)

	candidates := engine.Match(context.Background(), model.Obligation{ID: "o1"}, engineCorpus(1))
	if len(candidates) != 1 {
		t.Fatalf("Expected 1 candidate, got %d", len(candidates))
	}
	if candidates[0].Score != 85 {
		t.Errorf("Expected composite 60+25=85, got %d", candidates[0].Score)
	}
	if candidates[0].Breakdown.Citation != 60 {
		t.Errorf("Expected citation max 60, got %d", candidates[0].Breakdown.Citation)
	}
	if got := candidates[0].Breakdown.Total(); got != candidates[0].Score {
		t.Errorf("Breakdown total %d disagrees with score %d", got, candidates[0].Score)
	}
}

func TestEngine_MinScoreFilter(t *testing.T) {
	cfg := model.DefaultConfig().Scoring // MinScore 15
	sig := &stubSignal{name: "keyword", contribs: []Contribution{
		{PolicyID: "p00", Category: model.SignalKeyword, Score: 14},
		{PolicyID: "p01", Category: model.SignalKeyword, Score: 15},
	}}
	engine := NewEngine([]Signal{sig}, cfg, nil, nil)

	candidates := engine.Match(context.Background(), model.Obligation{ID: "o1"}, engineCorpus(2))
	if len(candidates) != 1 {
		t.Fatalf("Expected 1 candidate above the floor, got %d", len(candidates))
	}
	if candidates[0].PolicyID != "p01" {
		t.Errorf("Expected p01, got %s", candidates[0].PolicyID)
	}
}

func TestEngine_CandidateCap(t *testing.T) {
	cfg := model.DefaultConfig().Scoring // MaxCandidates 12
	var contribs []Contribution
	for i := 0; i < 20; i++ {
		contribs = append(contribs, Contribution{
			PolicyID: fmt.Sprintf("p%02d", i),
			Category: model.SignalKeyword,
			Score:    20 + i,
		})
	}
	engine := NewEngine([]Signal{&stubSignal{name: "keyword", contribs: contribs}}, cfg, nil, nil)

	candidates := engine.Match(context.Background(), model.Obligation{ID: "o1"}, engineCorpus(20))
	if len(candidates) != 12 {
		t.Fatalf("Expected cap at 12 candidates, got %d", len(candidates))
	}
	// Highest score first, and the cap keeps the top of the ranking.
	if candidates[0].PolicyID != "p19" {
		t.Errorf("Expected p19 ranked first, got %s", candidates[0].PolicyID)
	}
	for i := 1; i < len(candidates); i++ {
		if candidates[i].Score > candidates[i-1].Score {
			t.Fatalf("Ranking not descending at %d", i)
		}
	}
}

func TestEngine_DeterministicTiebreak(t *testing.T) {
	cfg := model.DefaultConfig().Scoring
	sig := &stubSignal{name: "keyword", contribs: []Contribution{
		{PolicyID: "p02", Category: model.SignalKeyword, Score: 30},
		{PolicyID: "p00", Category: model.SignalKeyword, Score: 30},
		{PolicyID: "p01", Category: model.SignalKeyword, Score: 30},
	}}
	engine := NewEngine([]Signal{sig}, cfg, nil, nil)
	corpus := engineCorpus(3)

	for run := 0; run < 5; run++ {
		candidates := engine.Match(context.Background(), model.Obligation{ID: "o1"}, corpus)
		if len(candidates) != 3 {
			t.Fatalf("Expected 3 candidates, got %d", len(candidates))
		}
		for i, want := range []string{"p00", "p01", "p02"} {
			if candidates[i].PolicyID != want {
				t.Fatalf("Run %d: expected %s at rank %d, got %s", run, want, i, candidates[i].PolicyID)
			}
		}
	}
}

func TestEngine_FailingSignalSkipped(t *testing.T) {
	cfg := model.DefaultConfig().Scoring
	failing := &stubSignal{name: "vector", err: errors.New("embedding service down")}
	working := &stubSignal{name: "keyword", contribs: []Contribution{
		{PolicyID: "p00", Category: model.SignalKeyword, Score: 40},
	}}
	engine := NewEngine([]Signal{failing, working}, cfg, nil, nil)

	candidates := engine.Match(context.Background(), model.Obligation{ID: "o1"}, engineCorpus(1))
	if len(candidates) != 1 {
		t.Fatalf("Expected failing signal to be skipped, got %d candidates", len(candidates))
	}
	if candidates[0].Breakdown.Vector != 0 {
		t.Errorf("Expected zero vector contribution, got %d", candidates[0].Breakdown.Vector)
	}
}

func TestEngine_UnknownPolicyContribution(t *testing.T) {
	cfg := model.DefaultConfig().Scoring
	sig := &stubSignal{name: "keyword", contribs: []Contribution{
		{PolicyID: "ghost", Category: model.SignalKeyword, Score: 99},
	}}
	engine := NewEngine([]Signal{sig}, cfg, nil, nil)

	candidates := engine.Match(context.Background(), model.Obligation{ID: "o1"}, engineCorpus(1))
	if len(candidates) != 0 {
		t.Errorf("Expected contribution for unknown policy to be dropped, got %d", len(candidates))
	}
}
