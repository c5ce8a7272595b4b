// Package assess orchestrates coverage adjudication: candidate matching,
// the generative oracle call with validation and retry, risk escalation,
// and result persistence.
//
// The pipeline contract: every obligation submitted for assessment yields
// exactly one terminal Assessment, regardless of upstream failures.
package assess

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/nmorrow/covmap/internal/match"
	"github.com/nmorrow/covmap/internal/metrics"
	"github.com/nmorrow/covmap/internal/model"
	"github.com/nmorrow/covmap/internal/oracle"
	"github.com/nmorrow/covmap/internal/store"
	"github.com/nmorrow/covmap/internal/worker"
)

// Orchestrator runs the full assessment pipeline for obligations.
type Orchestrator struct {
	store    store.Store
	engine   *match.Engine
	provider oracle.Provider
	risk     *RiskEvaluator
	cfg      *model.Config
	logger   *slog.Logger
	metrics  *metrics.Metrics
	adj      *adjudicator
}

// NewOrchestrator wires the pipeline. metrics may be nil.
func NewOrchestrator(st store.Store, engine *match.Engine, provider oracle.Provider, cfg *model.Config, logger *slog.Logger, m *metrics.Metrics) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		store:    st,
		engine:   engine,
		provider: provider,
		risk:     NewRiskEvaluator(cfg.Risk),
		cfg:      cfg,
		logger:   logger,
		metrics:  m,
		adj: &adjudicator{
			provider:   provider,
			maxRetries: cfg.Oracle.MaxRetries,
			delay:      cfg.Oracle.RetryDelay,
			logger:     logger,
			metrics:    m,
		},
	}
}

// LoadCorpus snapshots the read-only policy corpus for a batch.
func (o *Orchestrator) LoadCorpus(ctx context.Context) (*match.Corpus, error) {
	policies, err := o.store.Policies(ctx)
	if err != nil {
		return nil, fmt.Errorf("assess: load policies: %w", err)
	}
	provisions, err := o.store.Provisions(ctx)
	if err != nil {
		return nil, fmt.Errorf("assess: load provisions: %w", err)
	}
	labels, err := o.store.SubDomainLabels(ctx)
	if err != nil {
		return nil, fmt.Errorf("assess: load sub-domain labels: %w", err)
	}
	return match.NewCorpus(policies, provisions, labels), nil
}

// AssessBatch assesses the given obligations under one run ID, sharing a
// single corpus snapshot. An empty runID generates a fresh one. Returns the
// run ID with per-obligation results in input order.
func (o *Orchestrator) AssessBatch(ctx context.Context, obligationIDs []string, runID string) (string, []worker.BatchResult, error) {
	if runID == "" {
		runID = uuid.NewString()
	}

	corpus, err := o.LoadCorpus(ctx)
	if err != nil {
		return runID, nil, err
	}

	pool := worker.NewPool(o.cfg.Concurrency.Workers)
	results := pool.Run(ctx, obligationIDs, func(ctx context.Context, id string) (*model.Assessment, error) {
		obl, err := o.store.Obligation(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("assess: load obligation %s: %w", id, err)
		}
		return o.AssessObligation(ctx, corpus, obl, runID)
	})
	return runID, results, nil
}

// AssessObligation runs the pipeline for one obligation and persists exactly
// one Assessment row. Oracle failures surface as a deterministic GAP
// fallback, never as an error; only corpus or store failures return one.
func (o *Orchestrator) AssessObligation(ctx context.Context, corpus *match.Corpus, obl model.Obligation, runID string) (*model.Assessment, error) {
	start := time.Now()
	obl.RiskTier = o.risk.TierFor(obl)

	candidates := o.engine.Match(ctx, obl, corpus)
	if len(candidates) == 0 {
		return o.persistNoCandidates(ctx, obl, runID, start)
	}

	req := oracle.Request{
		Obligation: obl,
		Candidates: o.candidateContext(candidates, corpus),
	}
	adj := o.adj.adjudicate(ctx, req, candidates)

	assessment := o.buildAssessment(obl, runID, candidates, corpus, adj)
	if o.risk.ShouldEscalate(obl, assessment.Status, assessment.Confidence) {
		assessment.Escalated = true
		o.metrics.Escalation()
		o.logger.Info("assess: escalated to legal review",
			"obligation_id", obl.ID, "status", assessment.Status, "confidence", assessment.Confidence)
	}

	if err := o.store.CreateAssessment(ctx, assessment); err != nil {
		return nil, err
	}
	o.writeAudit(ctx, obl, assessment, len(candidates))

	o.metrics.ObserveAssessment(string(assessment.EffectiveStatus()), time.Since(start))
	return assessment, nil
}

// candidateContext bounds each candidate to the configured number of
// provisions so the oracle request cannot outgrow its context window.
func (o *Orchestrator) candidateContext(candidates []model.Candidate, corpus *match.Corpus) []oracle.CandidateContext {
	maxProvisions := o.cfg.Concurrency.MaxProvisionsPerCandidate
	out := make([]oracle.CandidateContext, 0, len(candidates))
	for _, c := range candidates {
		provisions := corpus.PolicyProvisions(c.PolicyID)
		if maxProvisions > 0 && len(provisions) > maxProvisions {
			provisions = provisions[:maxProvisions]
		}
		out = append(out, oracle.CandidateContext{
			PolicyNumber: c.PolicyNumber,
			Title:        c.Title,
			Score:        c.Score,
			Provisions:   provisions,
		})
	}
	return out
}

// persistNoCandidates files the forced-GAP assessment for an obligation no
// signal could match. COVERED with an empty candidate set is unreachable.
func (o *Orchestrator) persistNoCandidates(ctx context.Context, obl model.Obligation, runID string, start time.Time) (*model.Assessment, error) {
	assessment := &model.Assessment{
		ID:            uuid.NewString(),
		OrgID:         o.cfg.OrgID,
		FacilityID:    o.cfg.FacilityID,
		ObligationID:  obl.ID,
		RunID:         runID,
		Status:        model.StatusGap,
		Confidence:    model.ConfidenceHigh,
		GapDetail:     "No candidate policies found by matching algorithm",
		MatchMethod:   "none",
		AssessedBy:    "algorithm",
		ModelID:       o.cfg.Oracle.Model,
		PromptVersion: oracle.PromptVersion,
	}
	if err := o.store.CreateAssessment(ctx, assessment); err != nil {
		return nil, err
	}
	o.writeAudit(ctx, obl, assessment, 0)
	o.metrics.ObserveAssessment(string(assessment.EffectiveStatus()), time.Since(start))
	return assessment, nil
}

// buildAssessment turns the adjudication outcome into the row to persist,
// resolving the covering policy reference against the candidate list.
func (o *Orchestrator) buildAssessment(obl model.Obligation, runID string, candidates []model.Candidate, corpus *match.Corpus, adj adjudication) *model.Assessment {
	assessment := &model.Assessment{
		ID:            uuid.NewString(),
		OrgID:         o.cfg.OrgID,
		FacilityID:    o.cfg.FacilityID,
		ObligationID:  obl.ID,
		RunID:         runID,
		MatchMethod:   "llm",
		AssessedBy:    "llm",
		ModelID:       o.cfg.Oracle.Model,
		PromptVersion: oracle.PromptVersion,
	}

	if adj.Fallback {
		assessment.Status = model.StatusGap
		assessment.Confidence = model.ConfidenceLow
		assessment.GapDetail = fmt.Sprintf("assessment failed after %d attempts: %s", adj.Attempts, adj.LastErr)
		assessment.Reasoning = "error during assessment"
		return assessment
	}

	v := adj.Verdict
	assessment.Status = model.Status(v.Status)
	assessment.Confidence = model.Confidence(v.Confidence)
	assessment.GapDetail = v.GapDetail
	assessment.RecommendedPolicy = v.RecommendedPolicy
	assessment.ObligationSpan = v.ObligationSpan
	assessment.ProvisionSpan = v.ProvisionSpan
	assessment.Reasoning = v.Reasoning

	if v.CoveringPolicyNumber != "" {
		assessment.CoveringPolicyNumber = string(v.CoveringPolicyNumber)
		for _, c := range candidates {
			if c.PolicyNumber != assessment.CoveringPolicyNumber {
				continue
			}
			assessment.CoveringPolicyID = c.PolicyID
			assessment.MatchScore = c.Score
			assessment.VectorScore = c.Breakdown.Vector
			if len(c.Methods) > 0 {
				assessment.MatchMethod = string(c.Methods[0].Method)
			}
			break
		}
	}
	return assessment
}

// writeAudit records a redacted traceability event. Summaries carry the
// citation and verdict only, never prompt or response bodies. Failures are
// logged and swallowed; auditing must not fail the assessment.
func (o *Orchestrator) writeAudit(ctx context.Context, obl model.Obligation, a *model.Assessment, candidateCount int) {
	covering := a.CoveringPolicyNumber
	if covering == "" {
		covering = "none"
	}
	ev := model.AuditEvent{
		ID:            uuid.NewString(),
		OrgID:         o.cfg.OrgID,
		EventType:     "assessment",
		EntityType:    "coverage_assessment",
		EntityID:      a.ID,
		Actor:         a.AssessedBy,
		ModelID:       a.ModelID,
		PromptVersion: a.PromptVersion,
		InputSummary:  fmt.Sprintf("Obligation: %s | %d candidates", obl.Citation, candidateCount),
		OutputSummary: fmt.Sprintf("%s (%s) -> %s", a.EffectiveStatus(), a.Confidence, covering),
	}
	if err := o.store.AppendAuditEvent(ctx, ev); err != nil {
		o.logger.Warn("assess: audit write failed", "assessment_id", a.ID, "error", err)
	}
}
