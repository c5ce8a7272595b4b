package cli

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/viper"

	"github.com/nmorrow/covmap/internal/assess"
	"github.com/nmorrow/covmap/internal/embed"
	"github.com/nmorrow/covmap/internal/match"
	"github.com/nmorrow/covmap/internal/metrics"
	"github.com/nmorrow/covmap/internal/model"
	"github.com/nmorrow/covmap/internal/oracle"
	"github.com/nmorrow/covmap/internal/store"
	"github.com/nmorrow/covmap/internal/worker"
)

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// loadConfig merges defaults, the config file, and environment variables.
func loadConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// API keys fall back to the conventional environment variables.
	if cfg.Oracle.APIKey == "" {
		cfg.Oracle.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.Embedding.APIKey == "" {
		cfg.Embedding.APIKey = cfg.Oracle.APIKey
	}
	if cfg.Database.DSN == "" {
		cfg.Database.DSN = os.Getenv("DATABASE_URL")
	}
	return cfg, nil
}

// pipeline holds the wired components behind a CLI command.
type pipeline struct {
	cfg          *model.Config
	logger       *slog.Logger
	store        *store.Postgres
	embedder     embed.Provider
	engine       *match.Engine
	orchestrator *assess.Orchestrator
	metrics      *metrics.Metrics
}

// buildPipeline wires the store, scoring engine, oracle, and orchestrator
// from config. withOracle=false skips oracle construction for commands that
// only score (match, index, review).
func buildPipeline(ctx context.Context, withOracle bool) (*pipeline, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	logger := newLogger(cfg.Output.Verbose)

	if cfg.Database.DSN == "" {
		return nil, fmt.Errorf("database DSN is required (set database.dsn or DATABASE_URL)")
	}
	st, err := store.NewPostgres(ctx, cfg.Database.DSN, logger)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, err
	}

	limiter := worker.NewLimiter(cfg.Oracle.RequestsPerSecond, cfg.Oracle.Burst)
	limiter.SetServiceRate(worker.ServiceEmbedding, cfg.Embedding.RequestsPerSecond, cfg.Embedding.Burst)

	// The vector signal is optional: without an embedding key, scoring
	// runs on lexical signals alone.
	var embedder embed.Provider
	if cfg.Embedding.APIKey != "" {
		p, err := embed.NewOpenAIProvider(cfg.Embedding, limiter)
		if err != nil {
			logger.Warn("embedding provider unavailable, vector signal disabled", "error", err)
		} else {
			embedder = p
		}
	} else {
		logger.Warn("no embedding API key, vector signal disabled")
	}

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)
	if addr := viper.GetString("metrics_addr"); addr != "" {
		go serveMetrics(addr, registry, logger)
	}

	var index match.NearestNeighbors
	if embedder != nil {
		index = st
	}
	engine := match.NewEngine(match.DefaultSignals(cfg.Scoring, embedder, index), cfg.Scoring, logger, m)

	p := &pipeline{cfg: cfg, logger: logger, store: st, embedder: embedder, engine: engine, metrics: m}

	if withOracle {
		if cfg.Oracle.APIKey == "" {
			st.Close()
			return nil, fmt.Errorf("oracle API key is required (set oracle.api_key or OPENAI_API_KEY)")
		}
		provider, err := oracle.NewOpenAIProvider(cfg.Oracle, limiter)
		if err != nil {
			st.Close()
			return nil, err
		}
		p.orchestrator = assess.NewOrchestrator(st, engine, provider, cfg, logger, m)
	} else {
		p.orchestrator = assess.NewOrchestrator(st, engine, nil, cfg, logger, m)
	}

	return p, nil
}

func (p *pipeline) Close() {
	p.store.Close()
}

// serveMetrics exposes the Prometheus registry for long batch runs.
func serveMetrics(addr string, registry *prometheus.Registry, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	logger.Info("serving metrics", "addr", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Warn("metrics server stopped", "error", err)
	}
}
