package match

import (
	"context"
	"fmt"
	"math"

	"github.com/nmorrow/covmap/internal/model"
)

// Embedder turns an obligation into a query vector. Satisfied by
// embed.Provider.
type Embedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// ProvisionMatch is one nearest-neighbor hit from the provision index.
type ProvisionMatch struct {
	ProvisionID string
	PolicyID    string
	Similarity  float64
}

// NearestNeighbors queries the provision embedding index. Satisfied by the
// store implementations.
type NearestNeighbors interface {
	NearestProvisions(ctx context.Context, embedding []float32, limit int) ([]ProvisionMatch, error)
}

// VectorSignal scores policies by semantic similarity between the obligation
// and their provisions. Both the embedding call and the index query can fail
// without failing the assessment: the engine drops the signal and continues
// with zero vector contribution.
type VectorSignal struct {
	embedder Embedder
	index    NearestNeighbors
	weight   int
	floor    float64
	limit    int
}

// NewVectorSignal builds the vector similarity signal.
func NewVectorSignal(embedder Embedder, index NearestNeighbors, cfg model.ScoringConfig) *VectorSignal {
	return &VectorSignal{
		embedder: embedder,
		index:    index,
		weight:   cfg.VectorWeight,
		floor:    cfg.SimilarityFloor,
		limit:    cfg.VectorLimit,
	}
}

func (s *VectorSignal) Name() string { return "vector" }

func (s *VectorSignal) Evaluate(ctx context.Context, obl model.Obligation, c *Corpus) ([]Contribution, error) {
	query, err := s.embedder.EmbedQuery(ctx, obl.Citation+": "+obl.Requirement)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	matches, err := s.index.NearestProvisions(ctx, query, s.limit)
	if err != nil {
		return nil, fmt.Errorf("nearest provisions: %w", err)
	}

	// Best similarity per policy, floor applied first.
	bestByPolicy := make(map[string]float64)
	for _, m := range matches {
		if m.Similarity <= s.floor {
			continue
		}
		if m.Similarity > bestByPolicy[m.PolicyID] {
			bestByPolicy[m.PolicyID] = m.Similarity
		}
	}

	var out []Contribution
	for policyID, sim := range bestByPolicy {
		if c.Policy(policyID) == nil {
			continue
		}
		out = append(out, Contribution{
			PolicyID: policyID,
			Category: model.SignalVector,
			Score:    int(math.Round(sim * float64(s.weight))),
			Detail:   fmt.Sprintf("similarity: %.3f", sim),
		})
	}
	return out, nil
}
