package assess

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/nmorrow/covmap/internal/model"
)

// ApplyReview layers a human override onto a stored assessment. The oracle
// verdict columns stay untouched; the override becomes the effective status.
func (o *Orchestrator) ApplyReview(ctx context.Context, assessmentID string, review model.HumanReview) error {
	if review.Status != model.StatusNeedsLegalReview && !model.ValidOracleStatus(review.Status) {
		return fmt.Errorf("assess: invalid review status %q", review.Status)
	}
	if review.Reviewer == "" {
		return fmt.Errorf("assess: reviewer is required")
	}

	if err := o.store.ApplyReview(ctx, assessmentID, review); err != nil {
		return fmt.Errorf("assess: apply review: %w", err)
	}

	ev := model.AuditEvent{
		ID:            uuid.NewString(),
		OrgID:         o.cfg.OrgID,
		EventType:     "review",
		EntityType:    "coverage_assessment",
		EntityID:      assessmentID,
		Actor:         review.Reviewer,
		OutputSummary: fmt.Sprintf("human override -> %s", review.Status),
	}
	if err := o.store.AppendAuditEvent(ctx, ev); err != nil {
		o.logger.Warn("assess: audit write failed", "assessment_id", assessmentID, "error", err)
	}
	return nil
}
