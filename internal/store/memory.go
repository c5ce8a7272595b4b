package store

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/nmorrow/covmap/internal/match"
	"github.com/nmorrow/covmap/internal/model"
)

// Memory is an in-memory VectorStore used by tests and local fixture runs.
// Nearest-neighbor queries brute-force cosine similarity over provisions.
type Memory struct {
	mu          sync.RWMutex
	obligations map[string]model.Obligation
	policies    []model.Policy
	provisions  []model.Provision
	labels      []model.SubDomainLabel
	assessments map[string]model.Assessment
	byRun       map[string]string // obligation_id|run_id -> assessment id
	audit       []model.AuditEvent
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		obligations: make(map[string]model.Obligation),
		assessments: make(map[string]model.Assessment),
		byRun:       make(map[string]string),
	}
}

// Load seeds the corpus. Existing corpus data is replaced.
func (m *Memory) Load(obligations []model.Obligation, policies []model.Policy, provisions []model.Provision, labels []model.SubDomainLabel) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.obligations = make(map[string]model.Obligation, len(obligations))
	for _, o := range obligations {
		m.obligations[o.ID] = o
	}
	m.policies = policies
	m.provisions = provisions
	m.labels = labels
}

func (m *Memory) Obligation(_ context.Context, id string) (model.Obligation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.obligations[id]
	if !ok {
		return model.Obligation{}, ErrNotFound
	}
	return o, nil
}

func (m *Memory) Obligations(_ context.Context) ([]model.Obligation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.Obligation, 0, len(m.obligations))
	for _, o := range m.obligations {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) Policies(_ context.Context) ([]model.Policy, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]model.Policy(nil), m.policies...), nil
}

func (m *Memory) Provisions(_ context.Context) ([]model.Provision, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]model.Provision(nil), m.provisions...), nil
}

func (m *Memory) SubDomainLabels(_ context.Context) ([]model.SubDomainLabel, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]model.SubDomainLabel(nil), m.labels...), nil
}

func (m *Memory) ProvisionsWithoutEmbedding(_ context.Context) ([]model.Provision, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []model.Provision
	for _, p := range m.provisions {
		if p.Embedding == nil {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *Memory) SetProvisionEmbedding(_ context.Context, provisionID string, embedding []float32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.provisions {
		if m.provisions[i].ID == provisionID {
			m.provisions[i].Embedding = embedding
			return nil
		}
	}
	return ErrNotFound
}

func (m *Memory) CreateAssessment(_ context.Context, a *model.Assessment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := a.ObligationID + "|" + a.RunID
	if _, dup := m.byRun[key]; dup {
		return nil // idempotent per (obligation, run)
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	m.assessments[a.ID] = *a
	m.byRun[key] = a.ID
	return nil
}

func (m *Memory) Assessment(_ context.Context, id string) (model.Assessment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.assessments[id]
	if !ok {
		return model.Assessment{}, ErrNotFound
	}
	return a, nil
}

func (m *Memory) ApplyReview(_ context.Context, assessmentID string, review model.HumanReview) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.assessments[assessmentID]
	if !ok {
		return ErrNotFound
	}
	a.HumanStatus = review.Status
	a.HumanNotes = review.Notes
	a.HumanReviewer = review.Reviewer
	a.ReviewedAt = time.Now().UTC()
	m.assessments[assessmentID] = a
	return nil
}

func (m *Memory) AppendAuditEvent(_ context.Context, ev model.AuditEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.audit = append(m.audit, ev)
	return nil
}

// AuditEvents returns a copy of the recorded audit trail, for tests.
func (m *Memory) AuditEvents() []model.AuditEvent {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]model.AuditEvent(nil), m.audit...)
}

// NearestProvisions brute-forces cosine similarity over embedded provisions.
func (m *Memory) NearestProvisions(_ context.Context, embedding []float32, limit int) ([]match.ProvisionMatch, error) {
	if limit <= 0 {
		limit = 10
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	var matches []match.ProvisionMatch
	for _, p := range m.provisions {
		if p.Embedding == nil {
			continue
		}
		matches = append(matches, match.ProvisionMatch{
			ProvisionID: p.ID,
			PolicyID:    p.PolicyID,
			Similarity:  cosine(embedding, p.Embedding),
		})
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].Similarity > matches[j].Similarity })
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

func cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
