// Package embed generates vector embeddings for obligations and provisions.
//
// Defines a Provider interface and an OpenAI implementation. Queries and
// documents go through separate methods: query embeddings are cached (the
// same obligation may be re-scored within a run), document embeddings are
// batched for indexing throughput.
package embed

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"
	openai "github.com/sashabaranov/go-openai"

	"github.com/nmorrow/covmap/internal/model"
	"github.com/nmorrow/covmap/internal/worker"
)

// Provider generates vector embeddings from text.
type Provider interface {
	// EmbedQuery embeds one obligation-side query text.
	EmbedQuery(ctx context.Context, text string) ([]float32, error)

	// EmbedDocuments embeds provision texts in order, batching requests.
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding vector dimensionality.
	Dimensions() int
}

// OpenAIProvider generates embeddings via the OpenAI embeddings API.
type OpenAIProvider struct {
	client    *openai.Client
	model     openai.EmbeddingModel
	dims      int
	batchSize int
	timeout   time.Duration
	limiter   *worker.Limiter
	cache     *gocache.Cache
}

// NewOpenAIProvider creates an embedding provider from config. limiter may
// be shared with the oracle client; it must not be nil.
func NewOpenAIProvider(cfg model.EmbeddingConfig, limiter *worker.Limiter) (*OpenAIProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("embed: API key is required")
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	batch := cfg.BatchSize
	if batch <= 0 {
		batch = 20
	}
	dims := cfg.Dimensions
	if dims <= 0 {
		dims = 1536
	}
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	limiter.SetServiceRate(worker.ServiceEmbedding, cfg.RequestsPerSecond, cfg.Burst)

	return &OpenAIProvider{
		client:    openai.NewClientWithConfig(clientConfig),
		model:     openai.EmbeddingModel(cfg.Model),
		dims:      dims,
		batchSize: batch,
		timeout:   timeout,
		limiter:   limiter,
		cache:     gocache.New(ttl, 2*ttl),
	}, nil
}

// Dimensions returns the embedding vector size.
func (p *OpenAIProvider) Dimensions() int {
	return p.dims
}

// EmbedQuery embeds a single query text, serving repeats from cache.
func (p *OpenAIProvider) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	key := cacheKey(text)
	if cached, found := p.cache.Get(key); found {
		return cached.([]float32), nil
	}

	vecs, err := p.embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	p.cache.Set(key, vecs[0], gocache.DefaultExpiration)
	return vecs[0], nil
}

// EmbedDocuments embeds provision texts in configured batch sizes.
func (p *OpenAIProvider) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	out := make([][]float32, 0, len(texts))
	for i := 0; i < len(texts); i += p.batchSize {
		end := i + p.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		vecs, err := p.embed(ctx, texts[i:end])
		if err != nil {
			return nil, fmt.Errorf("embed: batch %d-%d: %w", i, end, err)
		}
		out = append(out, vecs...)
	}
	return out, nil
}

func (p *OpenAIProvider) embed(ctx context.Context, texts []string) ([][]float32, error) {
	if err := p.limiter.Wait(ctx, worker.ServiceEmbedding); err != nil {
		return nil, fmt.Errorf("embed: rate limit wait: %w", err)
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	resp, err := p.client.CreateEmbeddings(ctxWithTimeout, openai.EmbeddingRequest{
		Input: texts,
		Model: p.model,
	})
	if err != nil {
		return nil, fmt.Errorf("embed: openai: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("embed: openai returned %d vectors for %d inputs", len(resp.Data), len(texts))
	}

	vecs := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(vecs) {
			return nil, fmt.Errorf("embed: openai returned out-of-range index %d", d.Index)
		}
		vecs[d.Index] = d.Embedding
	}
	return vecs, nil
}

func cacheKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
