// Package index backfills provision embeddings so the vector signal has a
// populated nearest-neighbor index to query.
package index

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/nmorrow/covmap/internal/embed"
	"github.com/nmorrow/covmap/internal/model"
	"github.com/nmorrow/covmap/internal/store"
)

// Indexer embeds provisions that do not yet carry a vector.
type Indexer struct {
	store    store.Store
	embedder embed.Provider
	orgID    string
	logger   *slog.Logger
}

// New creates an indexer.
func New(st store.Store, embedder embed.Provider, orgID string, logger *slog.Logger) *Indexer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Indexer{store: st, embedder: embedder, orgID: orgID, logger: logger}
}

// Run embeds every provision without an embedding and persists the vectors.
// Unlike assessment-time vector lookup, indexing does not degrade on
// embedding failure: a partial index would silently skew future scoring.
func (ix *Indexer) Run(ctx context.Context) (int, error) {
	provisions, err := ix.store.ProvisionsWithoutEmbedding(ctx)
	if err != nil {
		return 0, fmt.Errorf("index: list provisions: %w", err)
	}
	if len(provisions) == 0 {
		return 0, nil
	}

	texts := make([]string, len(provisions))
	for i, p := range provisions {
		texts[i] = p.Text
	}

	vectors, err := ix.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("index: embed provisions: %w", err)
	}
	if len(vectors) != len(provisions) {
		return 0, fmt.Errorf("index: got %d vectors for %d provisions", len(vectors), len(provisions))
	}

	indexed := 0
	for i, p := range provisions {
		if err := ix.store.SetProvisionEmbedding(ctx, p.ID, vectors[i]); err != nil {
			return indexed, fmt.Errorf("index: store embedding for provision %s: %w", p.ID, err)
		}
		indexed++
	}

	ev := model.AuditEvent{
		ID:            uuid.NewString(),
		OrgID:         ix.orgID,
		EventType:     "indexing",
		EntityType:    "provision",
		Actor:         "algorithm",
		OutputSummary: fmt.Sprintf("indexed %d provisions", indexed),
	}
	if err := ix.store.AppendAuditEvent(ctx, ev); err != nil {
		ix.logger.Warn("index: audit write failed", "error", err)
	}

	ix.logger.Info("index: provision embedding backfill complete", "indexed", indexed)
	return indexed, nil
}
