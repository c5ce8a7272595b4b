package match

import (
	"context"
	"log/slog"
	"sort"

	"github.com/nmorrow/covmap/internal/metrics"
	"github.com/nmorrow/covmap/internal/model"
)

// Engine aggregates signal contributions into a ranked candidate list. It is
// signal-agnostic: adding or reweighting signals never touches aggregation.
type Engine struct {
	signals []Signal
	cfg     model.ScoringConfig
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewEngine creates a scoring engine over the given signals.
func NewEngine(signals []Signal, cfg model.ScoringConfig, logger *slog.Logger, m *metrics.Metrics) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{signals: signals, cfg: cfg, logger: logger, metrics: m}
}

type policyScore struct {
	policy  *model.Policy
	best    map[model.SignalCategory]int
	methods []model.MethodMatch
}

// Match evaluates every signal for the obligation and returns the ranked,
// capped candidate list. A failing signal is logged and skipped; it
// contributes zero rather than failing the assessment.
func (e *Engine) Match(ctx context.Context, obl model.Obligation, corpus *Corpus) []model.Candidate {
	scores := make(map[string]*policyScore)

	for _, sig := range e.signals {
		contributions, err := sig.Evaluate(ctx, obl, corpus)
		if err != nil {
			e.logger.Warn("match: signal unavailable, continuing without it",
				"signal", sig.Name(), "obligation_id", obl.ID, "error", err)
			e.metrics.SignalFailure(sig.Name())
			continue
		}
		for _, contrib := range contributions {
			ps, ok := scores[contrib.PolicyID]
			if !ok {
				policy := corpus.Policy(contrib.PolicyID)
				if policy == nil {
					continue
				}
				ps = &policyScore{
					policy: policy,
					best:   make(map[model.SignalCategory]int),
				}
				scores[contrib.PolicyID] = ps
			}
			if contrib.Score > ps.best[contrib.Category] {
				ps.best[contrib.Category] = contrib.Score
			}
			ps.methods = append(ps.methods, model.MethodMatch{
				Method: contrib.Category,
				Detail: contrib.Detail,
				Score:  contrib.Score,
			})
		}
	}

	candidates := make([]model.Candidate, 0, len(scores))
	for _, ps := range scores {
		breakdown := model.SignalBreakdown{
			Citation:  ps.best[model.SignalCitation],
			SubDomain: ps.best[model.SignalSubDomain],
			Keyword:   ps.best[model.SignalKeyword],
			Title:     ps.best[model.SignalTitle],
			Vector:    ps.best[model.SignalVector],
		}
		total := breakdown.Total()
		if total < e.cfg.MinScore {
			continue
		}
		candidates = append(candidates, model.Candidate{
			PolicyID:     ps.policy.ID,
			PolicyNumber: ps.policy.PolicyNumber,
			Title:        ps.policy.Title,
			Domain:       ps.policy.Domain,
			SubDomain:    ps.policy.SubDomain,
			Score:        total,
			Breakdown:    breakdown,
			Methods:      ps.methods,
		})
	}

	// Ties break on policy ID so rankings are reproducible across runs.
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].PolicyID < candidates[j].PolicyID
	})

	if len(candidates) > e.cfg.MaxCandidates {
		candidates = candidates[:e.cfg.MaxCandidates]
	}
	return candidates
}

// DefaultSignals wires the standard signal set. embedder and index may be
// nil, in which case the vector signal is omitted and scoring runs on the
// lexical signals alone.
func DefaultSignals(cfg model.ScoringConfig, embedder Embedder, index NearestNeighbors) []Signal {
	vocab := NewVocabulary(cfg.Vocabulary, cfg.HighValueTerms)
	signals := []Signal{
		NewCitationSignal(cfg),
		NewSubDomainSignal(cfg),
		NewKeywordSignal(vocab, cfg),
		NewTitleSignal(vocab, cfg),
	}
	if embedder != nil && index != nil {
		signals = append(signals, NewVectorSignal(embedder, index, cfg))
	}
	return signals
}
