package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/nmorrow/covmap/internal/model"
)

var matchTimeout time.Duration

// matchCmd represents the match command
var matchCmd = &cobra.Command{
	Use:   "match <obligation-id>",
	Short: "Rank candidate policies for an obligation without calling the oracle",
	Long: `Match runs the scoring signals for a single obligation and prints the
ranked candidate set with the per-signal breakdown. Nothing is persisted and
the oracle is never called, so this is safe to run repeatedly while tuning
weights or vocabulary.

Example:
  covmap match OBL-042
  covmap match OBL-042 -v`,
	Args: cobra.ExactArgs(1),
	RunE: runMatch,
}

func init() {
	rootCmd.AddCommand(matchCmd)

	matchCmd.Flags().DurationVar(&matchTimeout, "timeout", 2*time.Minute, "timeout for corpus load and scoring")
}

func runMatch(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), matchTimeout)
	defer cancel()

	p, err := buildPipeline(ctx, false)
	if err != nil {
		return err
	}
	defer p.Close()

	obl, err := p.store.Obligation(ctx, args[0])
	if err != nil {
		return fmt.Errorf("load obligation %s: %w", args[0], err)
	}
	corpus, err := p.orchestrator.LoadCorpus(ctx)
	if err != nil {
		return err
	}

	candidates := p.engine.Match(ctx, obl, corpus)
	renderCandidates(os.Stdout, obl, candidates)
	return nil
}

// renderCandidates prints the ranked candidate set with each contributing
// signal hit under its candidate.
func renderCandidates(w io.Writer, obl model.Obligation, candidates []model.Candidate) {
	fmt.Fprintf(w, "Obligation %s  [%s]\n", obl.ID, obl.Citation)
	fmt.Fprintf(w, "  %s\n\n", truncate(obl.Requirement, 120))

	if len(candidates) == 0 {
		fmt.Fprintln(w, "No candidates above the score floor.")
		return
	}

	for i, c := range candidates {
		title := fmt.Sprintf("%s  %s", c.PolicyNumber, c.Title)
		fmt.Fprintf(w, "%2d. %-60s score=%d\n", i+1, truncate(title, 60), c.Score)
		for _, m := range c.Methods {
			fmt.Fprintf(w, "      %-11s %3d  %s\n", m.Method, m.Score, truncate(m.Detail, 80))
		}
	}
}

// truncate shortens s to at most n runes, marking the cut with an ellipsis.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}
