// Package store is the boundary to the obligation/policy corpus and the
// assessment/audit tables. The corpus side is read-only for this subsystem;
// all writes are additive assessment and audit rows, plus the human review
// override and provision embedding backfill.
package store

import (
	"context"
	"errors"

	"github.com/nmorrow/covmap/internal/match"
	"github.com/nmorrow/covmap/internal/model"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("store: not found")

// Store is the persistence boundary for the assessment pipeline.
type Store interface {
	// Corpus reads (bulk, read-only).
	Obligation(ctx context.Context, id string) (model.Obligation, error)
	Obligations(ctx context.Context) ([]model.Obligation, error)
	Policies(ctx context.Context) ([]model.Policy, error)
	Provisions(ctx context.Context) ([]model.Provision, error)
	SubDomainLabels(ctx context.Context) ([]model.SubDomainLabel, error)

	// Embedding index maintenance.
	ProvisionsWithoutEmbedding(ctx context.Context) ([]model.Provision, error)
	SetProvisionEmbedding(ctx context.Context, provisionID string, embedding []float32) error

	// Assessment writes. CreateAssessment is idempotent per
	// (obligation_id, run_id): a duplicate write is silently dropped.
	CreateAssessment(ctx context.Context, a *model.Assessment) error
	Assessment(ctx context.Context, id string) (model.Assessment, error)

	// ApplyReview layers a human override onto an assessment without
	// touching the stored oracle verdict.
	ApplyReview(ctx context.Context, assessmentID string, review model.HumanReview) error

	// AppendAuditEvent records a traceability event. Callers treat failures
	// as non-fatal.
	AppendAuditEvent(ctx context.Context, ev model.AuditEvent) error
}

// VectorStore is a Store that can also answer nearest-neighbor queries over
// provision embeddings.
type VectorStore interface {
	Store
	match.NearestNeighbors
}
