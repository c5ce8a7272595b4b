package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/nmorrow/covmap/internal/model"
)

var (
	reviewStatus   string
	reviewNotes    string
	reviewReviewer string
)

// reviewCmd represents the review command
var reviewCmd = &cobra.Command{
	Use:   "review <assessment-id>",
	Short: "Record a human review verdict on an assessment",
	Long: `Review layers a human verdict on top of an existing assessment. The
oracle's raw status is preserved; the human status takes precedence in
every downstream view.

Example:
  covmap review 7f3a... --status COVERED --reviewer jdoe
  covmap review 7f3a... --status GAP --reviewer jdoe --notes "policy retired in 2025"`,
	Args: cobra.ExactArgs(1),
	RunE: runReview,
}

func init() {
	rootCmd.AddCommand(reviewCmd)

	reviewCmd.Flags().StringVar(&reviewStatus, "status", "", "review status (COVERED, PARTIAL, GAP, CONFLICTING, NEEDS_LEGAL_REVIEW)")
	reviewCmd.Flags().StringVar(&reviewNotes, "notes", "", "reviewer notes")
	reviewCmd.Flags().StringVar(&reviewReviewer, "reviewer", "", "reviewer identifier")
	_ = reviewCmd.MarkFlagRequired("status")
	_ = reviewCmd.MarkFlagRequired("reviewer")
}

func runReview(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	p, err := buildPipeline(ctx, false)
	if err != nil {
		return err
	}
	defer p.Close()

	review := model.HumanReview{
		Status:   model.Status(reviewStatus),
		Notes:    reviewNotes,
		Reviewer: reviewReviewer,
	}
	if err := p.orchestrator.ApplyReview(ctx, args[0], review); err != nil {
		return err
	}

	fmt.Printf("✓ Review recorded: %s → %s by %s\n", args[0], reviewStatus, reviewReviewer)
	return nil
}
