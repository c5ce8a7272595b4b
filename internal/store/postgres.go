package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
	pgxvector "github.com/pgvector/pgvector-go/pgx"

	"github.com/nmorrow/covmap/internal/match"
	"github.com/nmorrow/covmap/internal/model"
)

// Postgres implements VectorStore on PostgreSQL with the pgvector extension.
type Postgres struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewPostgres creates a Postgres store with a connection pool.
func NewPostgres(ctx context.Context, dsn string, logger *slog.Logger) (*Postgres, error) {
	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("store: parse DSN: %w", err)
	}

	// Register pgvector types on each new connection. Best-effort: the
	// extension may not exist yet on first startup before migrations run.
	poolCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		if err := pgxvector.RegisterTypes(ctx, conn); err != nil {
			logger.Debug("store: pgvector types not registered", "error", err)
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("store: create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}

	return &Postgres{pool: pool, logger: logger}, nil
}

// Close releases the connection pool.
func (s *Postgres) Close() {
	s.pool.Close()
}

func (s *Postgres) Obligation(ctx context.Context, id string) (model.Obligation, error) {
	var o model.Obligation
	err := s.pool.QueryRow(ctx,
		`SELECT id, citation, requirement, COALESCE(topics, '{}'), COALESCE(risk_tier, ''), COALESCE(source_doc, '')
		 FROM obligations WHERE id = $1`, id,
	).Scan(&o.ID, &o.Citation, &o.Requirement, &o.Topics, &o.RiskTier, &o.SourceDoc)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Obligation{}, ErrNotFound
	}
	if err != nil {
		return model.Obligation{}, fmt.Errorf("store: get obligation: %w", err)
	}
	return o, nil
}

func (s *Postgres) Obligations(ctx context.Context) ([]model.Obligation, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, citation, requirement, COALESCE(topics, '{}'), COALESCE(risk_tier, ''), COALESCE(source_doc, '')
		 FROM obligations ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("store: list obligations: %w", err)
	}
	defer rows.Close()

	var out []model.Obligation
	for rows.Next() {
		var o model.Obligation
		if err := rows.Scan(&o.ID, &o.Citation, &o.Requirement, &o.Topics, &o.RiskTier, &o.SourceDoc); err != nil {
			return nil, fmt.Errorf("store: scan obligation: %w", err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (s *Postgres) Policies(ctx context.Context) ([]model.Policy, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, policy_number, title, COALESCE(domain, ''), COALESCE(sub_domain, ''),
		        COALESCE(state_citations, '{}'), COALESCE(accred_citations, '{}')
		 FROM policies ORDER BY policy_number`)
	if err != nil {
		return nil, fmt.Errorf("store: list policies: %w", err)
	}
	defer rows.Close()

	var out []model.Policy
	for rows.Next() {
		var p model.Policy
		if err := rows.Scan(&p.ID, &p.PolicyNumber, &p.Title, &p.Domain, &p.SubDomain,
			&p.StateCitations, &p.AccredCitations); err != nil {
			return nil, fmt.Errorf("store: scan policy: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Postgres) Provisions(ctx context.Context) ([]model.Provision, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, policy_id, text, COALESCE(section, ''), COALESCE(keywords, '{}')
		 FROM provisions ORDER BY policy_id, id`)
	if err != nil {
		return nil, fmt.Errorf("store: list provisions: %w", err)
	}
	defer rows.Close()

	var out []model.Provision
	for rows.Next() {
		var p model.Provision
		if err := rows.Scan(&p.ID, &p.PolicyID, &p.Text, &p.Section, &p.Keywords); err != nil {
			return nil, fmt.Errorf("store: scan provision: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Postgres) SubDomainLabels(ctx context.Context) ([]model.SubDomainLabel, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT prefix, COALESCE(description, ''), COALESCE(affinity_keywords, '{}')
		 FROM sub_domain_labels ORDER BY prefix`)
	if err != nil {
		return nil, fmt.Errorf("store: list sub-domain labels: %w", err)
	}
	defer rows.Close()

	var out []model.SubDomainLabel
	for rows.Next() {
		var l model.SubDomainLabel
		if err := rows.Scan(&l.Prefix, &l.Description, &l.AffinityKeywords); err != nil {
			return nil, fmt.Errorf("store: scan sub-domain label: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (s *Postgres) ProvisionsWithoutEmbedding(ctx context.Context) ([]model.Provision, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, policy_id, text, COALESCE(section, ''), COALESCE(keywords, '{}')
		 FROM provisions WHERE embedding IS NULL ORDER BY policy_id, id`)
	if err != nil {
		return nil, fmt.Errorf("store: list unembedded provisions: %w", err)
	}
	defer rows.Close()

	var out []model.Provision
	for rows.Next() {
		var p model.Provision
		if err := rows.Scan(&p.ID, &p.PolicyID, &p.Text, &p.Section, &p.Keywords); err != nil {
			return nil, fmt.Errorf("store: scan provision: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Postgres) SetProvisionEmbedding(ctx context.Context, provisionID string, embedding []float32) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE provisions SET embedding = $2 WHERE id = $1`,
		provisionID, pgvector.NewVector(embedding))
	if err != nil {
		return fmt.Errorf("store: set provision embedding: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// CreateAssessment writes one assessment row. The unique index on
// (obligation_id, run_id) makes repeated writes within a run idempotent.
func (s *Postgres) CreateAssessment(ctx context.Context, a *model.Assessment) error {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO coverage_assessments (
		   id, org_id, facility_id, obligation_id, run_id,
		   status, confidence, escalated,
		   covering_policy_id, covering_policy_number,
		   gap_detail, recommended_policy, obligation_span, provision_span, reasoning,
		   match_method, match_score, vector_score,
		   assessed_by, model_id, prompt_version, created_at
		 ) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22)
		 ON CONFLICT (obligation_id, run_id) DO NOTHING`,
		a.ID, a.OrgID, nullable(a.FacilityID), a.ObligationID, a.RunID,
		string(a.Status), string(a.Confidence), a.Escalated,
		nullable(a.CoveringPolicyID), nullable(a.CoveringPolicyNumber),
		nullable(a.GapDetail), nullable(a.RecommendedPolicy), nullable(a.ObligationSpan),
		nullable(a.ProvisionSpan), nullable(a.Reasoning),
		a.MatchMethod, a.MatchScore, a.VectorScore,
		a.AssessedBy, nullable(a.ModelID), nullable(a.PromptVersion), a.CreatedAt)
	if err != nil {
		return fmt.Errorf("store: create assessment: %w", err)
	}
	return nil
}

func (s *Postgres) Assessment(ctx context.Context, id string) (model.Assessment, error) {
	var a model.Assessment
	var humanStatus, status, confidence string
	var reviewedAt *time.Time
	err := s.pool.QueryRow(ctx,
		`SELECT id, org_id, COALESCE(facility_id, ''), obligation_id, run_id,
		        status, confidence, escalated,
		        COALESCE(covering_policy_id, ''), COALESCE(covering_policy_number, ''),
		        COALESCE(gap_detail, ''), COALESCE(recommended_policy, ''),
		        COALESCE(obligation_span, ''), COALESCE(provision_span, ''), COALESCE(reasoning, ''),
		        match_method, match_score, vector_score,
		        assessed_by, COALESCE(model_id, ''), COALESCE(prompt_version, ''),
		        COALESCE(human_status, ''), COALESCE(human_notes, ''), COALESCE(human_reviewer, ''),
		        reviewed_at, created_at
		 FROM coverage_assessments WHERE id = $1`, id,
	).Scan(&a.ID, &a.OrgID, &a.FacilityID, &a.ObligationID, &a.RunID,
		&status, &confidence, &a.Escalated,
		&a.CoveringPolicyID, &a.CoveringPolicyNumber,
		&a.GapDetail, &a.RecommendedPolicy, &a.ObligationSpan, &a.ProvisionSpan, &a.Reasoning,
		&a.MatchMethod, &a.MatchScore, &a.VectorScore,
		&a.AssessedBy, &a.ModelID, &a.PromptVersion,
		&humanStatus, &a.HumanNotes, &a.HumanReviewer,
		&reviewedAt, &a.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Assessment{}, ErrNotFound
	}
	if err != nil {
		return model.Assessment{}, fmt.Errorf("store: get assessment: %w", err)
	}
	a.Status = model.Status(status)
	a.Confidence = model.Confidence(confidence)
	a.HumanStatus = model.Status(humanStatus)
	if reviewedAt != nil {
		a.ReviewedAt = *reviewedAt
	}
	return a, nil
}

// ApplyReview sets only the human override columns; the oracle verdict
// columns are never touched.
func (s *Postgres) ApplyReview(ctx context.Context, assessmentID string, review model.HumanReview) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE coverage_assessments
		 SET human_status = $2, human_notes = $3, human_reviewer = $4, reviewed_at = $5
		 WHERE id = $1`,
		assessmentID, string(review.Status), nullable(review.Notes), review.Reviewer, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("store: apply review: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Postgres) AppendAuditEvent(ctx context.Context, ev model.AuditEvent) error {
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now().UTC()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO audit_events (id, org_id, event_type, entity_type, entity_id, actor,
		   model_id, prompt_version, input_summary, output_summary, metadata, created_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		ev.ID, ev.OrgID, ev.EventType, nullable(ev.EntityType), nullable(ev.EntityID), ev.Actor,
		nullable(ev.ModelID), nullable(ev.PromptVersion), nullable(ev.InputSummary),
		nullable(ev.OutputSummary), ev.Metadata, ev.CreatedAt)
	if err != nil {
		return fmt.Errorf("store: append audit event: %w", err)
	}
	return nil
}

// NearestProvisions runs a cosine-distance nearest-neighbor query over
// embedded provisions.
func (s *Postgres) NearestProvisions(ctx context.Context, embedding []float32, limit int) ([]match.ProvisionMatch, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, policy_id, 1 - (embedding <=> $1) AS similarity
		 FROM provisions
		 WHERE embedding IS NOT NULL
		 ORDER BY embedding <=> $1
		 LIMIT $2`, pgvector.NewVector(embedding), limit)
	if err != nil {
		return nil, fmt.Errorf("store: nearest provisions: %w", err)
	}
	defer rows.Close()

	var out []match.ProvisionMatch
	for rows.Next() {
		var m match.ProvisionMatch
		if err := rows.Scan(&m.ProvisionID, &m.PolicyID, &m.Similarity); err != nil {
			return nil, fmt.Errorf("store: scan provision match: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
