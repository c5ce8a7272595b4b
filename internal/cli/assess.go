package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/nmorrow/covmap/internal/model"
)

var (
	assessAll     bool
	assessRunID   string
	concurrency   int
	assessTimeout time.Duration
	metricsAddr   string
)

// assessCmd represents the assess command
var assessCmd = &cobra.Command{
	Use:   "assess [obligation-id...]",
	Short: "Assess obligations against the policy corpus",
	Long: `Assess runs the full coverage pipeline for the named obligations:
- Score every policy with the independent matching signals
- Rank an explainable candidate set
- Drive the oracle to a validated verdict, with retries and a safe fallback
- Escalate low-confidence high-risk judgments to legal review
- Persist exactly one assessment per obligation per run

Example:
  covmap assess OBL-042
  covmap assess --all --run-id nightly-2026-08-29
  covmap assess --all --concurrency 4 --metrics-addr :9090`,
	RunE: runAssess,
}

func init() {
	rootCmd.AddCommand(assessCmd)

	assessCmd.Flags().BoolVar(&assessAll, "all", false, "assess every obligation in the store")
	assessCmd.Flags().StringVar(&assessRunID, "run-id", "", "batch run identifier (generated when empty)")
	assessCmd.Flags().IntVar(&concurrency, "concurrency", 0, "number of concurrent workers (default from config)")
	assessCmd.Flags().DurationVar(&assessTimeout, "timeout", 30*time.Minute, "total timeout for the batch")
	assessCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "expose Prometheus metrics on this address during the run")

	_ = viper.BindPFlag("metrics_addr", assessCmd.Flags().Lookup("metrics-addr"))
}

func runAssess(cmd *cobra.Command, args []string) error {
	if !assessAll && len(args) == 0 {
		return fmt.Errorf("provide obligation ids or --all")
	}

	ctx, cancel := context.WithTimeout(context.Background(), assessTimeout)
	defer cancel()

	p, err := buildPipeline(ctx, true)
	if err != nil {
		return err
	}
	defer p.Close()

	if concurrency > 0 {
		p.cfg.Concurrency.Workers = concurrency
	}

	ids := args
	if assessAll {
		obligations, err := p.store.Obligations(ctx)
		if err != nil {
			return fmt.Errorf("list obligations: %w", err)
		}
		ids = make([]string, 0, len(obligations))
		for _, o := range obligations {
			ids = append(ids, o.ID)
		}
	}
	if len(ids) == 0 {
		return fmt.Errorf("no obligations to assess")
	}

	start := time.Now()
	runID, results, err := p.orchestrator.AssessBatch(ctx, ids, assessRunID)
	if err != nil {
		return fmt.Errorf("assessment batch failed: %w", err)
	}

	var failed int
	counts := map[model.Status]int{}
	for _, r := range results {
		if r.Err != nil {
			failed++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", r.ObligationID, r.Err)
			continue
		}
		counts[r.Assessment.EffectiveStatus()]++
		if verbose {
			printAssessment(r.Assessment)
		}
	}

	fmt.Printf("\nRun %s: %d obligations in %s\n", runID, len(results), time.Since(start).Round(time.Millisecond))
	for _, s := range []model.Status{model.StatusCovered, model.StatusPartial, model.StatusGap, model.StatusConflicting, model.StatusNeedsLegalReview} {
		if counts[s] > 0 {
			fmt.Printf("  %-19s %d\n", s, counts[s])
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d obligations failed to persist", failed, len(results))
	}
	return nil
}

func printAssessment(a *model.Assessment) {
	if p := viper.GetString("output.format"); p == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(a)
		return
	}
	fmt.Printf("%s → %s (%s confidence", a.ObligationID, a.EffectiveStatus(), a.Confidence)
	if a.Escalated {
		fmt.Printf(", escalated")
	}
	fmt.Printf(")")
	if a.CoveringPolicyID != "" {
		fmt.Printf(" policy=%s score=%d method=%s", a.CoveringPolicyID, a.MatchScore, a.MatchMethod)
	}
	fmt.Println()
}
